package scoring

import (
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"
)

// FactorSource supplies the company fit and application timing features.
// Neither is derived from real data; they are placeholder heuristics.
type FactorSource interface {
	CompanyFactor() float64
	TimingFactor() float64
}

const (
	FactorModeRandom   = "random"
	FactorModeMidpoint = "midpoint"
)

// NewFactorSource maps a configured mode to a source.
func NewFactorSource(mode string) (FactorSource, error) {
	switch mode {
	case "", FactorModeRandom:
		return NewRandomFactors(nil), nil
	case FactorModeMidpoint:
		return MidpointFactors{}, nil
	default:
		return nil, errors.Errorf("unknown factor mode %q", mode)
	}
}

// RandomFactors draws company fit from [0.5,1.0) and timing from [0.3,1.0)
// on every call.
type RandomFactors struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomFactors uses rng when given, the global generator otherwise.
func NewRandomFactors(rng *rand.Rand) *RandomFactors {
	return &RandomFactors{rng: rng}
}

func (r *RandomFactors) float() float64 {
	if r.rng == nil {
		return rand.Float64()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *RandomFactors) CompanyFactor() float64 { return r.float()*0.5 + 0.5 }

func (r *RandomFactors) TimingFactor() float64 { return r.float()*0.7 + 0.3 }

// MidpointFactors returns the centre of each random range.
type MidpointFactors struct{}

func (MidpointFactors) CompanyFactor() float64 { return 0.75 }

func (MidpointFactors) TimingFactor() float64 { return 0.65 }

// FixedFactors returns the given values.
type FixedFactors struct {
	Company float64
	Timing  float64
}

func (f FixedFactors) CompanyFactor() float64 { return f.Company }

func (f FixedFactors) TimingFactor() float64 { return f.Timing }
