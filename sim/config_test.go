package sim

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile_ParsesExperiments(t *testing.T) {
	// GIVEN a well-formed config with two experiments
	path := writeTempConfig(t, `
output_file = "results.json"

[experiments.fast]
nodes_number = 2
queue_capacity = 10
seconds = 100.0

[experiments.fast.producing_distribution]
expected = 1.0

[experiments.fast.consuming_distribution]
type = "exponential"
expected = 2.0

[experiments.slow]
nodes_number = 1
queue_capacity = 0
seconds = 50.0

[experiments.slow.producing_distribution]
expected = 2.0

[experiments.slow.consuming_distribution]
type = "degenerate"
expected = 3.0
`)

	// WHEN loaded
	cfg, err := LoadConfig(path)

	// THEN it parses without error and both experiments are present
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Experiments) != 2 {
		t.Fatalf("len(Experiments) = %d, want 2", len(cfg.Experiments))
	}
	if cfg.Experiments["fast"].NodesNumber != 2 {
		t.Errorf("fast.NodesNumber = %d, want 2", cfg.Experiments["fast"].NodesNumber)
	}
	if cfg.Experiments["slow"].Consuming.Type != "degenerate" {
		t.Errorf("slow.Consuming.Type = %q, want degenerate", cfg.Experiments["slow"].Consuming.Type)
	}
}

func TestLoadConfig_EmptyExperiments_SucceedsWithZeroEntries(t *testing.T) {
	// GIVEN a config with no experiments defined (spec.md §8 scenario 4)
	path := writeTempConfig(t, `output_file = "results.json"`)

	// WHEN loaded THEN it succeeds with zero experiments
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Experiments) != 0 {
		t.Errorf("len(Experiments) = %d, want 0", len(cfg.Experiments))
	}
}

func TestLoadConfig_NonPositiveExpected_ReturnsValidationError(t *testing.T) {
	// GIVEN a config whose arrival distribution has a non-positive expected value
	path := writeTempConfig(t, `
[experiments.bad]
nodes_number = 1
queue_capacity = 1
seconds = 10.0

[experiments.bad.producing_distribution]
expected = 0

[experiments.bad.consuming_distribution]
type = "exponential"
expected = 1.0
`)

	// WHEN loaded THEN it fails as a ValidationError before any worker starts
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig: got nil error, want ValidationError")
	}
	var verr *ValidationError
	if !asValidationError(err, &verr) {
		t.Fatalf("LoadConfig error = %v, want *ValidationError", err)
	}
}

func TestLoadConfig_MissingFile_ReturnsError(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err == nil {
		t.Fatal("LoadConfig: got nil error for missing file, want error")
	}
}

func TestValidate_CollectsEveryViolation_NotJustFirst(t *testing.T) {
	// GIVEN a config with two separately-invalid experiments
	cfg := Config{Experiments: map[string]Experiment{
		"a": {NodesNumber: -1, QueueCapacity: 1, Seconds: 1},
		"b": {NodesNumber: 1, QueueCapacity: 1, Seconds: -1},
	}}

	// WHEN validated
	err := cfg.Validate()

	// THEN both violations are reported, not just the first
	var verr *ValidationError
	if !asValidationError(err, &verr) {
		t.Fatalf("Validate error = %v, want *ValidationError", err)
	}
	if len(verr.Violations) < 2 {
		t.Errorf("len(Violations) = %d, want >= 2: %v", len(verr.Violations), verr.Violations)
	}
}

func asValidationError(err error, target **ValidationError) bool {
	if v, ok := err.(*ValidationError); ok {
		*target = v
		return true
	}
	return false
}

func TestExperiment_BuildDistributions_ConvertsExpectedToRate(t *testing.T) {
	// GIVEN an experiment with expected=4.0 for its exponential service
	exp := Experiment{
		Producing: ProducingDistribution{Expected: 2.0},
		Consuming: ConsumingDistribution{Type: "exponential", Expected: 4.0},
	}

	// WHEN built
	arrival, service, err := exp.BuildDistributions()
	if err != nil {
		t.Fatalf("BuildDistributions: %v", err)
	}

	// THEN λ = 1/expected for both
	a := arrival.(ExponentialArrival)
	s := service.(ExponentialService)
	if a.Lambda != 0.5 {
		t.Errorf("arrival.Lambda = %v, want 0.5", a.Lambda)
	}
	if s.Lambda != 0.25 {
		t.Errorf("service.Lambda = %v, want 0.25", s.Lambda)
	}
}
