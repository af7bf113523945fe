package service

import (
	"context"
	"errors"

	"signup/internal/profile/models"
	"signup/internal/profile/store"
	"signup/pkg/domain"
	dErrors "signup/pkg/domain-errors"
	"signup/pkg/requestcontext"
)

type seedProfile struct {
	username  string
	email     string
	password  string
	age       int
	biography string
	category  domain.Category
	rating    int
}

var seedProfiles = []seedProfile{
	{
		username:  "admin_test",
		email:     "admin@test.com",
		password:  "Admin123456",
		age:       30,
		biography: "Test administrator account for the validation system",
		category:  domain.CategoryProfessional,
		rating:    10,
	},
	{
		username:  "student_demo",
		email:     "student@demo.com",
		password:  "Student123",
		age:       22,
		biography: "Systems engineering student who loves technology",
		category:  domain.CategoryStudent,
		rating:    8,
	},
	{
		username:  "freelancer_test",
		email:     "freelancer@example.com",
		password:  "Freelancer123",
		age:       28,
		biography: "Freelance developer focused on modern web applications",
		category:  domain.CategoryFreelancer,
		rating:    9,
	},
}

// Seed inserts the example profiles when the store is empty. It is a no-op
// reporting the current count otherwise. The batch is all-or-nothing.
func (s *Service) Seed(ctx context.Context) (*models.SeedResult, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Seed")
	defer span.End()

	count, err := s.store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count profiles")
	}
	if count > 0 {
		return &models.SeedResult{Seeded: false, Count: count}, nil
	}

	now := requestcontext.Now(ctx)
	profiles := make([]*models.Profile, 0, len(seedProfiles))
	for _, sp := range seedProfiles {
		hash, err := s.hasher.Hash(sp.password)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash seed password")
		}
		rating := sp.rating
		p, err := models.NewProfile(s.newID(), models.NewProfileParams{
			Username:     sp.username,
			Email:        sp.email,
			PasswordHash: hash,
			Age:          sp.age,
			Biography:    sp.biography,
			Category:     sp.category,
			Rating:       &rating,
		}, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid seed profile")
		}
		profiles = append(profiles, p)
	}

	if err := s.store.InsertMany(ctx, profiles); err != nil {
		// A concurrent seed got there first.
		var dup *store.DuplicateKeyError
		if errors.As(err, &dup) {
			count, cerr := s.store.Count(ctx)
			if cerr == nil {
				return &models.SeedResult{Seeded: false, Count: count}, nil
			}
		}
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "failed to seed profiles", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed profiles")
	}

	s.logger.InfoContext(ctx, "seeded example profiles", "count", len(profiles))
	return &models.SeedResult{Seeded: true, Count: len(profiles), Profiles: profiles}, nil
}

// Reset deletes every profile. It is refused in production.
func (s *Service) Reset(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "profile.Reset")
	defer span.End()

	if s.production {
		s.logger.WarnContext(ctx, "reset refused in production",
			"request_id", requestcontext.RequestID(ctx),
		)
		return 0, dErrors.New(dErrors.CodeForbidden, "this operation is not allowed in production")
	}

	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "failed to reset profiles", "error", err)
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset profiles")
	}
	s.logger.WarnContext(ctx, "all profiles deleted",
		"deleted", deleted,
		"request_id", requestcontext.RequestID(ctx),
	)
	return deleted, nil
}
