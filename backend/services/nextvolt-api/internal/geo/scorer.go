package geo

import (
	"errors"
	"fmt"
	"math"

	"nextvolt/backend/services/nextvolt-api/internal/models"
)

// Weights blends the five normalized components into one score.
type Weights struct {
	Distance     float64 `yaml:"distance"`
	Price        float64 `yaml:"price"`
	Availability float64 `yaml:"availability"`
	Queue        float64 `yaml:"queue"`
	Plug         float64 `yaml:"plug"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Distance + w.Price + w.Availability + w.Queue + w.Plug
}

func (w Weights) validate() error {
	for _, v := range []float64{w.Distance, w.Price, w.Availability, w.Queue, w.Plug} {
		if v < 0 || math.IsNaN(v) {
			return errors.New("weights must be non-negative")
		}
	}
	if w.Sum() <= 0 {
		return errors.New("weights must not all be zero")
	}
	return nil
}

// Config carries every scoring constant: normalization ceilings, defaults,
// critical-mode thresholds and both weight tables.
type Config struct {
	DefaultRangeKm         float64 `yaml:"defaultRangeKm"`
	PriceCeiling           float64 `yaml:"priceCeiling"`
	QueueCeilingMinutes    float64 `yaml:"queueCeilingMinutes"`
	DefaultPrice           float64 `yaml:"defaultPrice"`
	DefaultBatteryPercent  float64 `yaml:"defaultBatteryPercent"`
	CriticalBatteryPercent float64 `yaml:"criticalBatteryPercent"`
	CriticalRangeKm        float64 `yaml:"criticalRangeKm"`
	Critical               Weights `yaml:"critical"`
	Normal                 Weights `yaml:"normal"`
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		DefaultRangeKm:         50,
		PriceCeiling:           20,
		QueueCeilingMinutes:    30,
		DefaultPrice:           8,
		DefaultBatteryPercent:  50,
		CriticalBatteryPercent: 20,
		CriticalRangeKm:        20,
		Critical: Weights{
			Distance:     0.40,
			Price:        0.10,
			Availability: 0.30,
			Queue:        0.15,
			Plug:         0.10,
		},
		Normal: Weights{
			Distance:     0.25,
			Price:        0.25,
			Availability: 0.20,
			Queue:        0.15,
			Plug:         0.10,
		},
	}
}

// Validate checks ceilings are positive and that each weight table is
// non-negative and not all zero. Score clamps, so tables need not sum to one.
func (c Config) Validate() error {
	if c.DefaultRangeKm <= 0 {
		return errors.New("scoring: defaultRangeKm must be positive")
	}
	if c.PriceCeiling <= 0 {
		return errors.New("scoring: priceCeiling must be positive")
	}
	if c.QueueCeilingMinutes <= 0 {
		return errors.New("scoring: queueCeilingMinutes must be positive")
	}
	if err := c.Critical.validate(); err != nil {
		return fmt.Errorf("scoring: critical %w", err)
	}
	if err := c.Normal.validate(); err != nil {
		return fmt.Errorf("scoring: normal %w", err)
	}
	return nil
}

// Context is the per-query input to Score.
type Context struct {
	Location           Point
	BatteryPercent     float64
	PreferredConnector string
	// MaxRangeKm is nil when the caller gave no range.
	MaxRangeKm *float64
}

// Components are the normalized [0,1] factors behind a score.
type Components struct {
	Distance     float64 `json:"distance"`
	Price        float64 `json:"price"`
	Availability float64 `json:"availability"`
	Queue        float64 `json:"queue"`
	Plug         float64 `json:"plug"`
}

// Result is the outcome of scoring one station.
type Result struct {
	DistanceKm float64
	Score      float64
	Critical   bool
	Components Components
}

// Scorer computes station scores. It holds no mutable state.
type Scorer struct {
	cfg Config
}

// NewScorer builds a scorer for cfg. cfg is expected to be valid.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scorer's constants.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Critical reports whether the low battery / short range regime applies.
// Values equal to the thresholds are not critical.
func (s *Scorer) Critical(ctx Context) bool {
	if ctx.BatteryPercent < s.cfg.CriticalBatteryPercent {
		return true
	}
	return ctx.MaxRangeKm != nil && *ctx.MaxRangeKm < s.cfg.CriticalRangeKm
}

// Weights returns the weight table for ctx.
func (s *Scorer) Weights(ctx Context) Weights {
	if s.Critical(ctx) {
		return s.cfg.Critical
	}
	return s.cfg.Normal
}

// EffectiveRangeKm is the distance normalization radius for ctx.
func (s *Scorer) EffectiveRangeKm(ctx Context) float64 {
	if ctx.MaxRangeKm != nil && *ctx.MaxRangeKm > 0 {
		return *ctx.MaxRangeKm
	}
	return s.cfg.DefaultRangeKm
}

// Score rates st for ctx. The result lies in [0,1].
func (s *Scorer) Score(st models.Station, ctx Context) Result {
	d := DistanceKm(ctx.Location, Point{Lat: st.Latitude, Lng: st.Longitude})

	c := Components{
		Distance: clamp01(1 - d/s.EffectiveRangeKm(ctx)),
		Price:    clamp01(1 - st.Price(s.cfg.DefaultPrice)/s.cfg.PriceCeiling),
		Queue:    clamp01(1 - float64(st.QueueTime)/s.cfg.QueueCeilingMinutes),
	}
	if st.Available {
		c.Availability = 1
	}
	if st.HasConnector(ctx.PreferredConnector) {
		c.Plug = 1
	}

	critical := s.Critical(ctx)
	w := s.cfg.Normal
	if critical {
		w = s.cfg.Critical
	}

	score := w.Distance*c.Distance +
		w.Price*c.Price +
		w.Availability*c.Availability +
		w.Queue*c.Queue +
		w.Plug*c.Plug

	return Result{
		DistanceKm: d,
		Score:      clamp01(score),
		Critical:   critical,
		Components: c,
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
