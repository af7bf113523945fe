package service

import (
	"context"

	"signup/internal/profile/models"
	dErrors "signup/pkg/domain-errors"
)

// List returns every stored profile. Credential hashes never serialize.
func (s *Service) List(ctx context.Context) (*models.ProfileList, error) {
	ctx, span := s.tracer.Start(ctx, "profile.List")
	defer span.End()

	profiles, err := s.store.List(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "failed to list profiles", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list profiles")
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	return &models.ProfileList{Profiles: profiles, Count: len(profiles)}, nil
}
