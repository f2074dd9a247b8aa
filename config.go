package trafficlight

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CyclePolicy decides how often the cycle duration is drawn
type CyclePolicy int

const (
	// CyclePerRun draws one duration when the light starts and keeps it
	CyclePerRun CyclePolicy = iota
	// CyclePerToggle draws a fresh duration after every toggle
	CyclePerToggle
)

// String returns the policy name used in configuration files
func (p CyclePolicy) String() string {
	switch p {
	case CyclePerRun:
		return "per_run"
	case CyclePerToggle:
		return "per_toggle"
	default:
		return fmt.Sprintf("CyclePolicy(%d)", int(p))
	}
}

// ParseCyclePolicy converts a policy name into a CyclePolicy
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per_run", "":
		return CyclePerRun, nil
	case "per_toggle":
		return CyclePerToggle, nil
	default:
		return CyclePerRun, fmt.Errorf("unknown cycle policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p CyclePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *CyclePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseCyclePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Config controls the timing of a traffic light
type Config struct {
	// Cycle durations are whole multiples of CycleUnit drawn from [MinCycle, MaxCycle]
	MinCycle  int           `yaml:"min_cycle"`
	MaxCycle  int           `yaml:"max_cycle"`
	CycleUnit time.Duration `yaml:"cycle_unit"`

	// PollInterval is the pause between two iterations of the cycle loop
	PollInterval time.Duration `yaml:"poll_interval"`
	// WaitPollInterval is the pause between two receives in WaitForGreen
	WaitPollInterval time.Duration `yaml:"wait_poll_interval"`

	Policy CyclePolicy `yaml:"policy"`
}

// DefaultConfig returns the standard 4-6 second cycle
func DefaultConfig() Config {
	return Config{
		MinCycle:         4,
		MaxCycle:         6,
		CycleUnit:        time.Second,
		PollInterval:     time.Millisecond,
		WaitPollInterval: time.Millisecond,
		Policy:           CyclePerRun,
	}
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	if c.MinCycle < 1 {
		return NewConfigurationError("min_cycle", fmt.Sprintf("must be at least 1, got %d", c.MinCycle))
	}
	if c.MaxCycle < c.MinCycle {
		return NewConfigurationError("max_cycle", fmt.Sprintf("must not be less than min_cycle (%d), got %d", c.MinCycle, c.MaxCycle))
	}
	if c.CycleUnit <= 0 {
		return NewConfigurationError("cycle_unit", fmt.Sprintf("must be positive, got %s", c.CycleUnit))
	}
	if c.MaxDuration()/c.CycleUnit != time.Duration(c.MaxCycle) {
		return NewConfigurationError("max_cycle", fmt.Sprintf("%d x %s overflows a duration", c.MaxCycle, c.CycleUnit))
	}
	if c.PollInterval <= 0 {
		return NewConfigurationError("poll_interval", fmt.Sprintf("must be positive, got %s", c.PollInterval))
	}
	if c.WaitPollInterval <= 0 {
		return NewConfigurationError("wait_poll_interval", fmt.Sprintf("must be positive, got %s", c.WaitPollInterval))
	}
	if c.Policy != CyclePerRun && c.Policy != CyclePerToggle {
		return NewConfigurationError("policy", fmt.Sprintf("unknown policy %s", c.Policy))
	}
	return nil
}

// MinDuration returns the shortest cycle the configuration allows
func (c Config) MinDuration() time.Duration {
	return time.Duration(c.MinCycle) * c.CycleUnit
}

// MaxDuration returns the longest cycle the configuration allows
func (c Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxCycle) * c.CycleUnit
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}
