package models

// Availability is the advisory answer to "is this value still free?".
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// ProfileList is the read-only listing of stored profiles.
type ProfileList struct {
	Profiles []*Profile `json:"profiles"`
	Count    int        `json:"count"`
}

// SeedResult reports what a seed run did.
type SeedResult struct {
	Seeded   bool       `json:"seeded"`
	Count    int        `json:"count"`
	Profiles []*Profile `json:"profiles,omitempty"`
}
