package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"signup/internal/platform/logger"
	"signup/internal/profile/handler/mocks"
	"signup/internal/profile/models"
	"signup/internal/profile/rules"
	"signup/pkg/domain"
	dErrors "signup/pkg/domain-errors"
	"signup/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupSubTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, logger.Discard(), false).Register(s.router)
}

func sampleProfile() *models.Profile {
	return &models.Profile{
		ID:           domain.NewProfileID(),
		Username:     "abc",
		Email:        "a@b.com",
		PasswordHash: "$2a$10$secret-hash",
		Age:          25,
		Category:     domain.CategoryStudent,
		Rating:       5,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func (s *HandlerSuite) TestRegister() {
	s.Run("created profile omits the credential", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, req *models.RegistrationRequest) (*models.Profile, error) {
				s.Equal("Abcdefg1", req.Password)
				s.Equal(25, *req.Age.Ptr())
				return sampleProfile(), nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration",
			`{"username":"abc","email":"a@b.com","password":"Abcdefg1","confirm_password":"Abcdefg1","age":"25","category":"student"}`))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		body := rr.Body.String()
		s.NotContains(body, "password")
		s.NotContains(body, "secret-hash")
		resp := testutil.UnmarshalResponse[ProfileResponse](s.T(), rr)
		s.Equal(5, resp.Rating)
		s.Equal("abc", resp.Username)
		s.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), resp.UpdatedAt.UTC())
	})

	s.Run("malformed JSON is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration", `{"username":`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("empty body is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration", ``))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("trailing data is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration", `{} {}`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("oversized body is a bad request", func() {
		big := `{"biography":"` + strings.Repeat("x", maxBodyBytes) + `"}`
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/registration", big))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("validation errors list every violation", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, dErrors.Validation("registration failed validation",
			dErrors.FieldError{Field: rules.FieldUsername, Message: "bad"},
			dErrors.FieldError{Field: rules.FieldRating, Message: "bad", Value: 11},
		))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration", map[string]any{}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		resp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal(string(dErrors.CodeValidation), resp.Error)
		s.Len(resp.Violations, 2)
	})

	s.Run("internal errors hide details", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil,
			dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to store profile"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/registration", map[string]any{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
		s.NotContains(rr.Body.String(), "connection refused")
	})
}

func (s *HandlerSuite) TestAvailability() {
	s.Run("username path value reaches the service", func() {
		s.service.EXPECT().UsernameAvailability(gomock.Any(), "alice").
			Return(&models.Availability{Available: true, Message: "username is available"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/availability/username/alice"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertJSONContains(s.T(), rr, "available", true)
	})

	s.Run("email availability", func() {
		s.service.EXPECT().EmailAvailability(gomock.Any(), "a@b.com").
			Return(&models.Availability{Available: false, Message: "email is already registered"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/availability/email/a@b.com"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertJSONContains(s.T(), rr, "available", false)
	})
}

func (s *HandlerSuite) TestAvailabilityDecodesPathValues() {
	cases := []struct {
		name string
		path string
		want string
	}{
		{name: "encoded at sign", path: "/availability/email/a%40b.com", want: "a@b.com"},
		{name: "encoded plus and at sign", path: "/availability/email/first%2Blast%40example.com", want: "first+last@example.com"},
		{name: "literal percent", path: "/availability/email/100%25%40b.com", want: "100%@b.com"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.service.EXPECT().EmailAvailability(gomock.Any(), tc.want).
				Return(&models.Availability{Available: true, Message: "email is available"}, nil)

			rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, tc.path))
			testutil.AssertStatus(s.T(), rr, http.StatusOK)
		})
	}

	s.Run("encoded underscore in a username", func() {
		s.service.EXPECT().UsernameAvailability(gomock.Any(), "abc_1").
			Return(&models.Availability{Available: true, Message: "username is available"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/availability/username/abc%5F1"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("unescaped percent is passed through as sent", func() {
		s.service.EXPECT().UsernameAvailability(gomock.Any(), "a%b").
			Return(&models.Availability{Available: false, Message: "username may only contain letters, numbers and underscores"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/availability/username/a%25b"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})
}

func (s *HandlerSuite) TestRulesDescriptor() {
	s.Run("serves the rule table", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/registration/rules"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		desc := testutil.UnmarshalResponse[rules.Descriptor](s.T(), rr)
		s.Len(desc.Fields, len(rules.Fields))
	})
}

func (s *HandlerSuite) TestListAndDevRoutes() {
	s.Run("list", func() {
		s.service.EXPECT().List(gomock.Any()).Return(&models.ProfileList{Profiles: []*models.Profile{sampleProfile()}, Count: 1}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/profiles"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.NotContains(rr.Body.String(), "secret-hash")
		testutil.AssertJSONContains(s.T(), rr, "count", float64(1))
		resp := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
		s.Require().Len(resp.Profiles, 1)
		s.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), resp.Profiles[0].UpdatedAt.UTC())
	})

	s.Run("seed creates", func() {
		s.service.EXPECT().Seed(gomock.Any()).Return(&models.SeedResult{Seeded: true, Count: 1, Profiles: []*models.Profile{sampleProfile()}}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/dev/seed"))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		s.NotContains(rr.Body.String(), "secret-hash")
	})

	s.Run("seed no-op", func() {
		s.service.EXPECT().Seed(gomock.Any()).Return(&models.SeedResult{Seeded: false, Count: 3}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/dev/seed"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("reset", func() {
		s.service.EXPECT().Reset(gomock.Any()).Return(2, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/dev/reset"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertJSONContains(s.T(), rr, "deleted", float64(2))
	})

	s.Run("reset in production never reaches the service", func() {
		router := chi.NewRouter()
		New(s.service, logger.Discard(), true).Register(router)

		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodDelete, "/dev/reset"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, string(dErrors.CodeForbidden))
	})
}
