package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// ArrivalDistribution samples inter-arrival durations.
type ArrivalDistribution interface {
	Sample(rng *rand.Rand) float64
}

// ServiceDistribution samples service durations.
type ServiceDistribution interface {
	Sample(rng *rand.Rand) float64
}

// ExponentialArrival samples inter-arrival times from an exponential
// distribution with rate Lambda via the inverse-CDF transform
// -ln(U)/λ. This is the correct sampler; a historical variant that
// instead computed (1-e^(-λU))·1000 was a bug and is not reproduced
// here.
type ExponentialArrival struct {
	Lambda float64
}

// NewExponentialArrival builds an ExponentialArrival from an expected
// inter-arrival value, converting E[X] to the rate λ = 1/E. Returns an
// error if expected <= 0.
func NewExponentialArrival(expected float64) (ExponentialArrival, error) {
	if expected <= 0 {
		return ExponentialArrival{}, fmt.Errorf("expected inter-arrival time must be positive, got %v", expected)
	}
	return ExponentialArrival{Lambda: 1 / expected}, nil
}

// Sample returns -ln(U)/λ for U ~ Uniform(0,1), reusing rng.Float64 and
// guarding against U=0 (which would yield +Inf).
func (d ExponentialArrival) Sample(rng *rand.Rand) float64 {
	return expSample(rng, d.Lambda)
}

// ExponentialService samples service times from an exponential
// distribution with rate Lambda, via the same inverse-CDF transform.
type ExponentialService struct {
	Lambda float64
}

// NewExponentialService builds an ExponentialService from an expected
// service value, converting E[X] to the rate λ = 1/E.
func NewExponentialService(expected float64) (ExponentialService, error) {
	if expected <= 0 {
		return ExponentialService{}, fmt.Errorf("expected service time must be positive, got %v", expected)
	}
	return ExponentialService{Lambda: 1 / expected}, nil
}

// Sample returns -ln(U)/λ.
func (d ExponentialService) Sample(rng *rand.Rand) float64 {
	return expSample(rng, d.Lambda)
}

// DegenerateService always returns the same constant service time,
// 1/μ. Useful for deterministic end-to-end tests (spec.md §8 scenarios).
type DegenerateService struct {
	Value float64
}

// NewDegenerateService builds a DegenerateService from an expected
// (constant) service value E; the implied rate is μ = 1/E.
func NewDegenerateService(expected float64) (DegenerateService, error) {
	if expected <= 0 {
		return DegenerateService{}, fmt.Errorf("expected service time must be positive, got %v", expected)
	}
	return DegenerateService{Value: expected}, nil
}

// Sample always returns Value, ignoring rng.
func (d DegenerateService) Sample(*rand.Rand) float64 {
	return d.Value
}

// DegenerateArrival always returns the same constant inter-arrival
// time. Not named in spec.md's required ArrivalDistribution variants
// but explicitly permitted there for deterministic testing.
type DegenerateArrival struct {
	Value float64
}

// NewDegenerateArrival builds a DegenerateArrival from an expected
// (constant) inter-arrival value E.
func NewDegenerateArrival(expected float64) (DegenerateArrival, error) {
	if expected <= 0 {
		return DegenerateArrival{}, fmt.Errorf("expected inter-arrival time must be positive, got %v", expected)
	}
	return DegenerateArrival{Value: expected}, nil
}

// Sample always returns Value, ignoring rng.
func (d DegenerateArrival) Sample(*rand.Rand) float64 {
	return d.Value
}

// expSample draws -ln(U)/λ, guarding against U=0.
func expSample(rng *rand.Rand, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64
	}
	return -math.Log(u) / lambda
}
