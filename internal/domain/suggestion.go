package domain

import "time"

// Suggestion is a proposed title -> classification-code correction waiting for
// admin review. Identity is (Title, SuggestedID, Country); repeat submissions
// bump Votes instead of creating new rows.
type Suggestion struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	Country        string    `json:"country"`
	SuggestedID    string    `json:"suggested_gov_id"`
	SuggestedTitle string    `json:"suggested_gov_title"`
	Votes          int       `json:"votes"`
	IsAutomatic    bool      `json:"is_automatic_system_save"`
	FirstSeenAt    time.Time `json:"first_seen_at"`
	LastSeenAt     time.Time `json:"last_seen_at"`
}
