package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"paybench-engine/internal/domain"
)

// PoliciesFile is the seed file for category TTL policies. Reference data
// lives in the store; this file is read once at startup and upserted there,
// so an operator can adjust per-category lifetimes without touching code.
type PoliciesFile struct {
	Policies []struct {
		Tag     string `yaml:"tag"`
		TTLDays int    `yaml:"ttl_days"`
	} `yaml:"policies"`
}

// LoadPolicies reads the seed file. A missing file is not an error; the cache
// then runs entirely on the default TTL.
func LoadPolicies(path string) ([]domain.CategoryPolicy, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var pf PoliciesFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, err
	}

	out := make([]domain.CategoryPolicy, 0, len(pf.Policies))
	for _, p := range pf.Policies {
		if p.Tag == "" || p.TTLDays <= 0 {
			continue
		}
		out = append(out, domain.CategoryPolicy{Tag: p.Tag, TTLDays: p.TTLDays})
	}
	return out, nil
}
