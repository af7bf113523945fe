package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"signup/internal/profile/models"
	"signup/internal/profile/rules"
	dErrors "signup/pkg/domain-errors"
	"signup/pkg/email"
	"signup/pkg/requestcontext"
)

// UsernameAvailability answers whether a username is free. The answer is
// advisory: the unique index decides at insert time.
func (s *Service) UsernameAvailability(ctx context.Context, username string) (*models.Availability, error) {
	return s.availability(ctx, rules.FieldUsername, strings.TrimSpace(username), s.store.FindByUsername)
}

// EmailAvailability answers whether an email address is free.
func (s *Service) EmailAvailability(ctx context.Context, address string) (*models.Availability, error) {
	return s.availability(ctx, rules.FieldEmail, email.Normalize(address), s.store.FindByEmail)
}

// availability reports a value that fails its format rules as unavailable
// with the rule message, without consulting the store.
func (s *Service) availability(ctx context.Context, field, value string, find finder) (*models.Availability, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Availability",
		trace.WithAttributes(attribute.String("field", field)))
	defer span.End()

	var result *models.Availability
	if violation := rules.Check(field, value); violation != nil {
		result = &models.Availability{Available: false, Message: violation.Message}
	} else {
		taken, err := exists(ctx, find, value)
		if err != nil {
			span.RecordError(err)
			s.logger.ErrorContext(ctx, "availability lookup failed",
				"field", field,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check availability")
		}
		if taken {
			result = &models.Availability{Available: false, Message: rules.Taken(field, value).Message}
		} else {
			result = &models.Availability{Available: true, Message: field + " is available"}
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveAvailability(field, result.Available)
	}
	return result, nil
}
