package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	// Project and ManagedBy are the constant tag values stamped on every
	// resource this tool creates. Together with the Owner tag they form the
	// isolation boundary: instances missing any of them are invisible to spin.
	Project   = "cloud-starter"
	ManagedBy = "spin"

	DefaultRegion = "eu-north-1"
	DefaultType   = "t3.micro"
)

// Settings contains one invocation's resolved configuration. It is loaded
// once per command and threaded explicitly through every call; nothing in
// the lifecycle core reads the environment.
type Settings struct {
	Region      string `yaml:"region"`
	Owner       string `yaml:"owner"`
	DefaultType string `yaml:"default_type"`

	// Optional static credentials; the default AWS chain is used when empty.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// Safety toggles, environment-only. DryRun defaults to true. Live is the
	// interlock gating any call that would reach AWS, independent of --apply.
	DryRun          bool `yaml:"-"`
	Live            bool `yaml:"-"`
	AllowGlobalDown bool `yaml:"-"`
}

// BaseTags returns the owner-scoped constant tag set, without SpinGroup.
func (s *Settings) BaseTags() map[string]string {
	return map[string]string{
		"Project":   Project,
		"ManagedBy": ManagedBy,
		"Owner":     s.Owner,
	}
}

func boolEnv(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ConfigError reports unusable configuration, such as a missing owner.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

// Load resolves runtime settings from an optional YAML file (SPIN_CONFIG,
// default spin.yaml) overridden by environment variables.
//
// Security posture:
//   - Region: SPIN_REGION > AWS_DEFAULT_REGION > config file > DefaultRegion
//   - Owner: required via SPIN_OWNER or the config file; there is no fallback
//     to the OS user because an implicit owner would widen the blast radius
//     of down.
//   - Dry-run: default true unless SPIN_DRY_RUN disables it.
func Load() (*Settings, error) {
	s := &Settings{
		DefaultType: DefaultType,
	}

	path := os.Getenv("SPIN_CONFIG")
	if path == "" {
		path = "spin.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if region := os.Getenv("SPIN_REGION"); region != "" {
		s.Region = region
	} else if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		s.Region = region
	}
	if s.Region == "" {
		s.Region = DefaultRegion
	}

	if owner := os.Getenv("SPIN_OWNER"); owner != "" {
		s.Owner = owner
	}
	if s.Owner == "" {
		return nil, &ConfigError{Reason: "SPIN_OWNER is required (set to your handle/email). " +
			"Refusing to proceed without an explicit owner."}
	}

	if s.DefaultType == "" {
		s.DefaultType = DefaultType
	}

	s.DryRun = boolEnv("SPIN_DRY_RUN", true)
	s.Live = boolEnv("SPIN_LIVE", false)
	s.AllowGlobalDown = boolEnv("SPIN_ALLOW_GLOBAL_DOWN", false)

	return s, nil
}
