package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Search struct {
		AppID         string `yaml:"app_id"`
		NationalIndex string `yaml:"national_index"`
		RegionalIndex string `yaml:"regional_index"`
		TitlesIndex   string `yaml:"titles_index"`
	} `yaml:"search"`

	Provider struct {
		Endpoint        string  `yaml:"endpoint"`
		ResultsPerPage  int     `yaml:"results_per_page"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		Burst           int     `yaml:"burst"`
	} `yaml:"provider"`

	Cache struct {
		SweepIntervalHours   int    `yaml:"sweep_interval_hours"`
		PolicyRefreshMinutes int    `yaml:"policy_refresh_minutes"`
		PoliciesFile         string `yaml:"policies_file"`
	} `yaml:"cache"`

	Admin struct {
		Token string `yaml:"token"`
	} `yaml:"admin"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
