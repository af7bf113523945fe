package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"signup/internal/platform/metrics"
	"signup/internal/profile/models"
	"signup/internal/profile/rules"
	"signup/internal/profile/store"
	"signup/pkg/domain"
	dErrors "signup/pkg/domain-errors"
	"signup/pkg/platform/sentinel"
	"signup/pkg/requestcontext"
)

const msgValidationFailed = "registration failed validation"

// Register validates, hashes and stores a new profile. Every rule violation
// is reported at once, uniqueness included. Nothing is written unless the
// whole request is valid, and the store's unique indexes settle races that
// the pre-check cannot see.
func (s *Service) Register(ctx context.Context, req *models.RegistrationRequest) (*models.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Register")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveRegister(time.Now())
	}

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	req.Normalize()
	in := req.RuleInput()

	violations := rules.Validate(in)
	taken, err := s.takenValues(ctx, in, violations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "uniqueness check failed")
		s.logger.ErrorContext(ctx, "uniqueness check failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.rejected(metrics.ReasonInternal)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check uniqueness")
	}

	switch {
	case len(violations) > 0:
		s.rejected(metrics.ReasonValidation)
		return nil, dErrors.Validation(msgValidationFailed, rules.Ordered(append(violations, taken...))...)
	case len(taken) > 0:
		s.rejected(metrics.ReasonDuplicate)
		return nil, dErrors.Duplicate(taken[0], taken[1:]...)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			s.rejected(metrics.ReasonValidation)
			return nil, dErrors.Validation(msgValidationFailed, dErrors.FieldError{
				Field:   rules.FieldPassword,
				Message: "password is too long to be stored securely",
			})
		}
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "failed to hash password", "error", err)
		s.rejected(metrics.ReasonInternal)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	profile, err := models.NewProfile(s.newID(), models.NewProfileParams{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Age:          *in.Age,
		Biography:    in.Biography,
		Category:     domain.Category(in.Category),
		Rating:       in.Rating,
	}, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			s.rejected(metrics.ReasonSchema)
			return nil, dErrors.Validation(msgValidationFailed, redact(dErrors.FieldsOf(err))...)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build profile")
	}

	if err := s.store.Insert(ctx, profile); err != nil {
		return nil, s.storeWriteError(ctx, err)
	}

	s.incrementRegistrations()
	s.logger.InfoContext(ctx, "profile registered",
		"profile_id", profile.ID,
		"username", profile.Username,
		"request_id", requestcontext.RequestID(ctx),
	)
	return profile, nil
}

// takenValues looks up the unique fields that passed their format rules.
// Both lookups run concurrently.
func (s *Service) takenValues(ctx context.Context, in rules.Input, violations []dErrors.FieldError) ([]dErrors.FieldError, error) {
	failed := make(map[string]bool, len(violations))
	for _, v := range violations {
		failed[v.Field] = true
	}

	var usernameTaken, emailTaken bool
	g, gctx := errgroup.WithContext(ctx)
	if !failed[rules.FieldUsername] {
		g.Go(func() (err error) {
			usernameTaken, err = exists(gctx, s.store.FindByUsername, in.Username)
			return err
		})
	}
	if !failed[rules.FieldEmail] {
		g.Go(func() (err error) {
			emailTaken, err = exists(gctx, s.store.FindByEmail, in.Email)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var taken []dErrors.FieldError
	if usernameTaken {
		taken = append(taken, rules.Taken(rules.FieldUsername, in.Username))
	}
	if emailTaken {
		taken = append(taken, rules.Taken(rules.FieldEmail, in.Email))
	}
	return taken, nil
}

type finder func(ctx context.Context, value string) (*models.Profile, error)

func exists(ctx context.Context, find finder, value string) (bool, error) {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// storeWriteError maps a rejected insert onto the response categories.
func (s *Service) storeWriteError(ctx context.Context, err error) error {
	var dup *store.DuplicateKeyError
	if errors.As(err, &dup) {
		s.rejected(metrics.ReasonDuplicate)
		s.logger.InfoContext(ctx, "registration lost uniqueness race",
			"field", dup.Field,
			"index", dup.Index,
			"request_id", requestcontext.RequestID(ctx),
		)
		return dErrors.Duplicate(rules.Taken(dup.Field, dup.Value))
	}

	var schemaErr *store.SchemaError
	if errors.As(err, &schemaErr) {
		s.rejected(metrics.ReasonSchema)
		s.logger.WarnContext(ctx, "store rejected profile schema",
			"field", schemaErr.Field,
			"request_id", requestcontext.RequestID(ctx),
		)
		fields := redact(dErrors.FieldsOf(schemaErr.Err))
		if len(fields) == 0 {
			fields = []dErrors.FieldError{{
				Field:   schemaErr.Field,
				Message: schemaErr.Field + " violates the stored schema",
			}}
		}
		return dErrors.Validation(msgValidationFailed, fields...)
	}

	s.rejected(metrics.ReasonInternal)
	s.logger.ErrorContext(ctx, "failed to store profile",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store profile")
}

// redact drops values of secret fields.
func redact(fields []dErrors.FieldError) []dErrors.FieldError {
	out := make([]dErrors.FieldError, len(fields))
	for i, f := range fields {
		if def, ok := rules.Lookup(f.Field); ok && def.Secret {
			f.Value = nil
		}
		out[i] = f
	}
	return out
}
