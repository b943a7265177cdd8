package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level shape of the TOML configuration file
// described in spec.md §6: a reserved aggregate output path plus a
// named map of experiments.
type Config struct {
	OutputFile  string                `toml:"output_file"`
	Experiments map[string]Experiment `toml:"experiments"`
}

// Experiment describes one independent simulation run.
type Experiment struct {
	NodesNumber   int                   `toml:"nodes_number"`
	QueueCapacity int                   `toml:"queue_capacity"`
	Seconds       float64               `toml:"seconds"`
	Producing     ProducingDistribution `toml:"producing_distribution"`
	Consuming     ConsumingDistribution `toml:"consuming_distribution"`
	Seed          int64                 `toml:"seed"`
}

// ProducingDistribution configures the arrival process: always
// exponential, parameterized by its expected inter-arrival value.
type ProducingDistribution struct {
	Expected float64 `toml:"expected"`
}

// ConsumingDistribution configures the service process: a tagged
// variant selected by Type ("exponential" or "degenerate"),
// parameterized by its expected service value.
type ConsumingDistribution struct {
	Type     string  `toml:"type"`
	Expected float64 `toml:"expected"`
}

// LoadConfig reads and parses the TOML document at path, then
// validates it. A parse failure or validation failure is a
// Configuration Error per spec.md §7: it is returned to the caller
// before any worker is spawned.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidationError collects every configuration violation found, rather
// than surfacing only the first, so operators can fix a bad config file
// in one pass.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Violations, "; "))
}

// Validate checks every experiment's fields against spec.md §4.1/§6:
// non-negative node/queue capacities, a non-negative horizon (0 is
// accepted and yields a header-only CSV), and positive expected values
// for both the arrival and service distributions.
func (c Config) Validate() error {
	var violations []string

	names := make([]string, 0, len(c.Experiments))
	for name := range c.Experiments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		exp := c.Experiments[name]
		if exp.NodesNumber < 0 {
			violations = append(violations, fmt.Sprintf("experiments.%s.nodes_number must be >= 0, got %d", name, exp.NodesNumber))
		}
		if exp.QueueCapacity < 0 {
			violations = append(violations, fmt.Sprintf("experiments.%s.queue_capacity must be >= 0, got %d", name, exp.QueueCapacity))
		}
		if exp.Seconds < 0 {
			violations = append(violations, fmt.Sprintf("experiments.%s.seconds must be >= 0, got %v", name, exp.Seconds))
		}
		if exp.Producing.Expected <= 0 {
			violations = append(violations, fmt.Sprintf("experiments.%s.producing_distribution.expected must be > 0, got %v", name, exp.Producing.Expected))
		}
		switch exp.Consuming.Type {
		case "", "exponential", "degenerate":
			if exp.Consuming.Expected <= 0 {
				violations = append(violations, fmt.Sprintf("experiments.%s.consuming_distribution.expected must be > 0, got %v", name, exp.Consuming.Expected))
			}
		default:
			violations = append(violations, fmt.Sprintf("experiments.%s.consuming_distribution.type must be \"exponential\" or \"degenerate\", got %q", name, exp.Consuming.Type))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// BuildDistributions constructs the ArrivalDistribution and
// ServiceDistribution this experiment's config describes, converting
// each expected value E to a rate λ = 1/E per spec.md §4.1. Config
// must already have passed Validate.
func (e Experiment) BuildDistributions() (ArrivalDistribution, ServiceDistribution, error) {
	arrival, err := NewExponentialArrival(e.Producing.Expected)
	if err != nil {
		return nil, nil, err
	}

	switch e.Consuming.Type {
	case "", "exponential":
		service, err := NewExponentialService(e.Consuming.Expected)
		if err != nil {
			return nil, nil, err
		}
		return arrival, service, nil
	case "degenerate":
		service, err := NewDegenerateService(e.Consuming.Expected)
		if err != nil {
			return nil, nil, err
		}
		return arrival, service, nil
	default:
		return nil, nil, fmt.Errorf("unknown consuming distribution type %q", e.Consuming.Type)
	}
}
