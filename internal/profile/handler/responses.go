package handler

import (
	"time"

	"signup/internal/profile/models"
)

// ProfileResponse is the public view of a profile. POST /registration,
// GET /profiles and POST /dev/seed all use it.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Biography string    `json:"biography"`
	Category  string    `json:"category"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListResponse is returned by GET /profiles.
type ListResponse struct {
	Profiles []ProfileResponse `json:"profiles"`
	Count    int               `json:"count"`
}

// SeedResponse is returned by POST /dev/seed.
type SeedResponse struct {
	Message  string            `json:"message"`
	Seeded   bool              `json:"seeded"`
	Count    int               `json:"count"`
	Profiles []ProfileResponse `json:"profiles,omitempty"`
}

// ResetResponse is returned by DELETE /dev/reset.
type ResetResponse struct {
	Deleted int `json:"deleted"`
}

func toProfileResponse(p *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID.String(),
		Username:  p.Username,
		Email:     p.Email,
		Age:       p.Age,
		Biography: p.Biography,
		Category:  p.Category.String(),
		Rating:    p.Rating,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toListResponse(l *models.ProfileList) ListResponse {
	resp := ListResponse{Profiles: make([]ProfileResponse, 0, len(l.Profiles)), Count: l.Count}
	for _, p := range l.Profiles {
		resp.Profiles = append(resp.Profiles, toProfileResponse(p))
	}
	return resp
}

func toSeedResponse(r *models.SeedResult) SeedResponse {
	resp := SeedResponse{Seeded: r.Seeded, Count: r.Count}
	if r.Seeded {
		resp.Message = "example profiles created"
		for _, p := range r.Profiles {
			resp.Profiles = append(resp.Profiles, toProfileResponse(p))
		}
	} else {
		resp.Message = "profiles already exist"
	}
	return resp
}
