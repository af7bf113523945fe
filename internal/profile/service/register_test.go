package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"signup/internal/platform/logger"
	"signup/internal/profile/models"
	"signup/internal/profile/rules"
	"signup/internal/profile/store"
	dErrors "signup/pkg/domain-errors"
	"signup/pkg/secrets"
)

// RegistrationSuite runs the service against the in-memory store with a real
// bcrypt hasher, so the properties below hold end to end below HTTP.
type RegistrationSuite struct {
	suite.Suite
	store   *store.InMemory
	service *Service
	ctx     context.Context
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store,
		WithHasher(secrets.NewHasher(bcrypt.MinCost)),
		WithLogger(logger.Discard()),
	)
	s.ctx = context.Background()
}

func (s *RegistrationSuite) register(mutate func(r *models.RegistrationRequest)) (*models.Profile, error) {
	req := validRequest()
	if mutate != nil {
		mutate(req)
	}
	return s.service.Register(s.ctx, req)
}

func (s *RegistrationSuite) requireViolation(err error, field string) {
	s.T().Helper()
	s.Require().Error(err)
	for _, f := range dErrors.FieldsOf(err) {
		if f.Field == field {
			return
		}
	}
	s.Failf("missing violation", "expected a %s violation in %v", field, dErrors.FieldsOf(err))
}

func (s *RegistrationSuite) count() int {
	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *RegistrationSuite) TestConcreteScenario() {
	p, err := s.register(nil)
	s.Require().NoError(err)
	s.Equal(5, p.Rating)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("Abcdefg1")))

	_, err = s.register(func(r *models.RegistrationRequest) { r.Email = "other@b.com" })
	s.Require().True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	s.requireViolation(err, rules.FieldUsername)
	s.Equal(1, s.count())
}

func (s *RegistrationSuite) TestEmailUniquenessIsSymmetric() {
	_, err := s.register(nil)
	s.Require().NoError(err)

	_, err = s.register(func(r *models.RegistrationRequest) {
		r.Username = "someone_else"
		r.Email = "A@B.com"
	})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	s.requireViolation(err, rules.FieldEmail)
}

func (s *RegistrationSuite) TestRating() {
	s.Run("eleven is rejected", func() {
		_, err := s.register(func(r *models.RegistrationRequest) { r.Rating = models.Int(11) })
		s.requireViolation(err, rules.FieldRating)
		s.Zero(s.count())
	})

	s.Run("explicit rating is kept", func() {
		p, err := s.register(func(r *models.RegistrationRequest) { r.Rating = models.Int(10) })
		s.Require().NoError(err)
		s.Equal(10, p.Rating)
	})
}

func (s *RegistrationSuite) TestUsernameProperty() {
	for _, name := range []string{"ab", strings.Repeat("a", 21), "bad-name", "with space", "émile"} {
		_, err := s.register(func(r *models.RegistrationRequest) { r.Username = name })
		s.requireViolation(err, rules.FieldUsername)
	}
	s.Zero(s.count())
}

func (s *RegistrationSuite) TestPasswordProperty() {
	for _, pw := range []string{"Abcdef1", "abcdefg1", "ABCDEFG1", "Abcdefgh"} {
		_, err := s.register(func(r *models.RegistrationRequest) {
			r.Password = pw
			r.ConfirmPassword = pw
		})
		s.requireViolation(err, rules.FieldPassword)
		for _, f := range dErrors.FieldsOf(err) {
			s.Nil(f.Value, "credential values must not be echoed")
		}
	}
	s.Zero(s.count())
}

func (s *RegistrationSuite) TestAgeBoundaries() {
	for _, age := range []int{17, 100, 0, -5} {
		_, err := s.register(func(r *models.RegistrationRequest) { r.Age = models.Int(age) })
		s.requireViolation(err, rules.FieldAge)
	}

	_, err := s.register(func(r *models.RegistrationRequest) {
		r.Username = "eighteen"
		r.Email = "eighteen@example.com"
		r.Age = models.Int(18)
	})
	s.NoError(err)

	_, err = s.register(func(r *models.RegistrationRequest) {
		r.Username = "ninety_nine"
		r.Email = "ninety9@example.com"
		r.Age = models.Int(99)
	})
	s.NoError(err)
	s.Equal(2, s.count())
}

func (s *RegistrationSuite) TestAvailabilityIsIdempotent() {
	first, err := s.service.UsernameAvailability(s.ctx, "abc")
	s.Require().NoError(err)
	second, err := s.service.UsernameAvailability(s.ctx, "abc")
	s.Require().NoError(err)
	s.Equal(first, second)
	s.True(first.Available)

	_, err = s.register(nil)
	s.Require().NoError(err)

	after, err := s.service.UsernameAvailability(s.ctx, "abc")
	s.Require().NoError(err)
	s.False(after.Available)
}

func (s *RegistrationSuite) TestConcurrentRegistrationsHaveOneWinner() {
	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, duplicateCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Register(s.ctx, validRequest())
			switch {
			case err == nil:
				successCount.Add(1)
			case dErrors.HasCode(err, dErrors.CodeDuplicate):
				duplicateCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), duplicateCount.Load())
	s.Equal(1, s.count())
}

func (s *RegistrationSuite) TestSeedThenReset() {
	res, err := s.service.Seed(s.ctx)
	s.Require().NoError(err)
	s.True(res.Seeded)
	s.Equal(3, s.count())

	again, err := s.service.Seed(s.ctx)
	s.Require().NoError(err)
	s.False(again.Seeded)
	s.Equal(3, again.Count)

	admin, err := s.store.FindByUsername(s.ctx, "admin_test")
	s.Require().NoError(err)
	s.NotEqual("Admin123456", admin.PasswordHash)

	deleted, err := s.service.Reset(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, deleted)
	s.Zero(s.count())
}

func (s *RegistrationSuite) TestMalformedIntegersAreViolations() {
	req := validRequest()
	req.Age = models.FlexInt{Present: true, Raw: "twenty"}

	_, err := s.service.Register(s.ctx, req)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	fields := dErrors.FieldsOf(err)
	s.Require().Len(fields, 1)
	s.Equal("age must be an integer", fields[0].Message)
	s.Equal("twenty", fields[0].Value)
}
