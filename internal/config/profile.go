package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the on-disk client configuration read by erpctl.
type Profile struct {
	APIHost         string `yaml:"api_host"`
	Scheme          string `yaml:"scheme"`
	Tenant          string `yaml:"tenant"`
	Connect         string `yaml:"connect"`
	CredentialsFile string `yaml:"credentials_file"`
	RefreshMode     string `yaml:"refresh_mode"`
	Timeout         string `yaml:"timeout"`
	RateLimit       string `yaml:"rate_limit"`
}

// LoadProfile reads a YAML profile. A missing file yields an empty profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return &Profile{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[config LoadProfile] reading %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("[config LoadProfile] parsing %s: %w", path, err)
	}
	return &p, nil
}
