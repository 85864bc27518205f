package domain

// CategoryPolicy maps a provider category tag to its cache lifetime.
type CategoryPolicy struct {
	Tag     string `json:"tag"`
	TTLDays int    `json:"ttl_days"`
}
