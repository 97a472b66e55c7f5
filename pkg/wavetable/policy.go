package wavetable

import (
	"errors"
	"fmt"

	"github.com/Jeyu73/pwmwave/pkg/config"
)

// Validation errors returned by NewPolicy.
var (
	ErrNoBands     = errors.New("policy has no bands")
	ErrBandOrder   = errors.New("band bounds must ascend")
	ErrBandSize    = errors.New("band sizes must be positive and non-increasing")
	ErrRateCeiling = errors.New("band exceeds the sample rate ceiling")
)

// Policy maps a target frequency to an adaptive table resolution: denser
// tables at low frequencies for spectral smoothness, coarser tables at
// high frequencies to bound the resulting tick rate.
type Policy struct {
	bands    []config.BandConfig
	fallback int
	maxSize  int
}

// NewPolicy builds a size policy from configuration and validates its
// invariants: bands ordered by ascending frequency bound, sizes positive
// and monotonically non-increasing (fallback included), and every band's
// worst-case tick rate (bound × size) within the configured ceiling.
func NewPolicy(cfg *config.Config) (*Policy, error) {
	bands := cfg.Bands
	if len(bands) == 0 {
		return nil, ErrNoBands
	}

	maxSize := cfg.Synth.MaxTableSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	for i, b := range bands {
		if b.UpperHz <= 0 {
			return nil, fmt.Errorf("band %d: bound %g Hz: %w", i, b.UpperHz, ErrBandOrder)
		}
		if i > 0 && b.UpperHz <= bands[i-1].UpperHz {
			return nil, fmt.Errorf("band %d: bound %g Hz after %g Hz: %w", i, b.UpperHz, bands[i-1].UpperHz, ErrBandOrder)
		}
		if b.TableSize <= 0 {
			return nil, fmt.Errorf("band %d: size %d: %w", i, b.TableSize, ErrBandSize)
		}
		if i > 0 && b.TableSize > bands[i-1].TableSize {
			return nil, fmt.Errorf("band %d: size %d after %d: %w", i, b.TableSize, bands[i-1].TableSize, ErrBandSize)
		}
		if cfg.Synth.MaxSampleRate > 0 && b.UpperHz*float64(b.TableSize) > cfg.Synth.MaxSampleRate {
			return nil, fmt.Errorf("band %d: %g Hz × %d samples: %w", i, b.UpperHz, b.TableSize, ErrRateCeiling)
		}
	}

	fallback := cfg.Synth.FallbackTableSize
	if fallback <= 0 {
		return nil, fmt.Errorf("fallback size %d: %w", fallback, ErrBandSize)
	}
	if fallback > bands[len(bands)-1].TableSize {
		return nil, fmt.Errorf("fallback size %d exceeds coarsest band size %d: %w",
			fallback, bands[len(bands)-1].TableSize, ErrBandSize)
	}

	return &Policy{
		bands:    bands,
		fallback: fallback,
		maxSize:  maxSize,
	}, nil
}

// SizeFor returns the table resolution for a target frequency: the first
// band whose bound covers the frequency applies, and frequencies beyond
// all bands get the fallback (coarsest) size. The result is clamped to
// the table capacity.
func (p *Policy) SizeFor(frequency float64) int {
	size := p.fallback
	for _, b := range p.bands {
		if frequency <= b.UpperHz {
			size = b.TableSize
			break
		}
	}
	if size > p.maxSize {
		size = p.maxSize
	}
	return size
}

// MaxSize returns the hard table capacity the policy clamps to.
func (p *Policy) MaxSize() int {
	return p.maxSize
}
