// Package pacing produces randomized, human-like wait durations.
package pacing

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/reviewpulse/go-collect-reviews/models"
)

// Floor is the hard minimum delay the controller can return.
const Floor = 1000 * time.Millisecond

// Profile is a Gaussian delay shape: samples center on Base and spread by
// Variance.
type Profile struct {
	Base     time.Duration
	Variance time.Duration
}

// Profiles bundles the delay shapes a session needs: between pages inside a
// segment, on cross-star transitions, and before retrying a failed page.
type Profiles struct {
	Page       Profile
	Transition Profile
	Backoff    Profile
}

// ProfilesFor maps a speed mode to its delay shapes.
func ProfilesFor(mode models.SpeedMode) Profiles {
	switch mode {
	case models.SpeedFast:
		return Profiles{
			Page:       Profile{Base: 2 * time.Second, Variance: 800 * time.Millisecond},
			Transition: Profile{Base: 4 * time.Second, Variance: 1500 * time.Millisecond},
			Backoff:    Profile{Base: 8 * time.Second, Variance: 2 * time.Second},
		}
	default:
		return Profiles{
			Page:       Profile{Base: 4 * time.Second, Variance: 1500 * time.Millisecond},
			Transition: Profile{Base: 8 * time.Second, Variance: 3 * time.Second},
			Backoff:    Profile{Base: 12 * time.Second, Variance: 3 * time.Second},
		}
	}
}

// Controller samples delays from a Gaussian via the Box-Muller transform.
// It is intentionally stochastic; only the floor and the scaling law are
// contracts.
type Controller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewController seeds a controller from the wall clock.
func NewController() *Controller {
	return NewControllerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewControllerWithSource builds a controller over a caller-supplied source.
func NewControllerWithSource(src rand.Source) *Controller {
	return &Controller{rng: rand.New(src)}
}

// Delay returns base + z*variance where z is one standard-normal sample,
// clamped to Floor.
func (c *Controller) Delay(p Profile) time.Duration {
	c.mu.Lock()
	// Float64 yields [0,1); shift into (0,1] so the log is defined.
	u1 := 1 - c.rng.Float64()
	u2 := 1 - c.rng.Float64()
	c.mu.Unlock()

	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	d := p.Base + time.Duration(z*float64(p.Variance))
	if d < Floor {
		d = Floor
	}
	return d
}
