package signal

import (
	"fmt"
	"strconv"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

// MultiplierProfile holds the pip multipliers applied to an entry price to
// derive the three take-profit levels and the stop loss.
//
// Two profiles exist side by side because deployments of this system have
// historically disagreed on the multiplier set. The discrepancy is surfaced
// as named profiles rather than silently unified; which one a deployment
// runs is a configuration decision.
type MultiplierProfile struct {
	Name string
	TP1  float64
	TP2  float64
	TP3  float64
	SL   float64
}

var profiles = map[string]MultiplierProfile{
	"standard": {Name: "standard", TP1: 20, TP2: 40, TP3: 70, SL: 50},
	"wide":     {Name: "wide", TP1: 20, TP2: 50, TP3: 100, SL: 70},
}

// ProfileByName returns a named multiplier profile.
func ProfileByName(name string) (MultiplierProfile, error) {
	p, ok := profiles[name]
	if !ok {
		return MultiplierProfile{}, fmt.Errorf("unknown level profile %q: %w", name, ports.ErrConfigurationError)
	}
	return p, nil
}

// Levels is the set of absolute prices tracked for a trade.
type Levels struct {
	Entry float64
	TP1   float64
	TP2   float64
	TP3   float64
	SL    float64
}

// Calculator derives absolute TP/SL prices from a reference price, the
// instrument's pip size and the trade direction.
type Calculator struct {
	profile MultiplierProfile
}

// NewCalculator creates a level calculator for the given profile.
func NewCalculator(profile MultiplierProfile) *Calculator {
	return &Calculator{profile: profile}
}

// Profile returns the active multiplier profile.
func (c *Calculator) Profile() MultiplierProfile { return c.profile }

// Calculate derives the tracking levels from a reference price. For BUY the
// take-profits sit above the reference and the stop loss below; SELL flips
// the signs. Unknown instruments use the generic forex pip size.
func (c *Calculator) Calculate(reference float64, instrument string, direction domain.Direction) Levels {
	pip := domain.SpecFor(instrument).PipSize

	sign := 1.0
	if direction == domain.Sell {
		sign = -1.0
	}

	return Levels{
		Entry: reference,
		TP1:   reference + sign*c.profile.TP1*pip,
		TP2:   reference + sign*c.profile.TP2*pip,
		TP3:   reference + sign*c.profile.TP3*pip,
		SL:    reference - sign*c.profile.SL*pip,
	}
}

// FormatPrice renders a price at the instrument's display precision.
func FormatPrice(price float64, instrument string) string {
	return "$" + strconv.FormatFloat(price, 'f', domain.SpecFor(instrument).Decimals, 64)
}
