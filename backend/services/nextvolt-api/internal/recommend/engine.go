// Package recommend ranks charging stations for a driver's position and
// battery state.
package recommend

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"nextvolt/backend/services/nextvolt-api/internal/apperr"
	"nextvolt/backend/services/nextvolt-api/internal/geo"
	"nextvolt/backend/services/nextvolt-api/internal/metrics"
	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
)

const (
	// DefaultLimit is how many stations a recommendation returns.
	DefaultLimit = 3

	historyTimeout = 5 * time.Second
)

var (
	// ErrInvalidLocation is returned when lat/lng are missing or out of range.
	ErrInvalidLocation = apperr.New(apperr.KindInvalidArgument, "lat and lng required")
	// ErrInvalidRange is returned for a negative range.
	ErrInvalidRange = apperr.New(apperr.KindInvalidArgument, "range_km must not be negative")
	// ErrInvalidBattery is returned for a battery level outside [0,100].
	ErrInvalidBattery = apperr.New(apperr.KindInvalidArgument, "battery must be between 0 and 100")
)

// HistoryRecorder stores which station topped a user's recommendation.
type HistoryRecorder interface {
	Append(ctx context.Context, userID string, entry models.HistoryEntry) error
}

// Query is one recommendation request.
type Query struct {
	Location geo.Point
	// BatteryPercent falls back to the configured default when nil.
	BatteryPercent     *float64
	PreferredConnector string
	UserID             string
	// MaxRangeKm filters out farther stations and becomes the distance
	// normalization radius.
	MaxRangeKm *float64
}

// Recommendation is a station with its distance and score.
type Recommendation struct {
	models.Station
	DistanceKm float64 `json:"distance_km"`
	Score      float64 `json:"score"`
}

// Engine runs the scorer over the station set.
type Engine struct {
	stations repository.StationReader
	scorer   *geo.Scorer
	history  HistoryRecorder
	logger   *zap.Logger
	limit    int
	now      func() time.Time

	wg sync.WaitGroup
}

// NewEngine builds an engine. history may be nil.
func NewEngine(stations repository.StationReader, scorer *geo.Scorer, history HistoryRecorder, logger *zap.Logger) *Engine {
	return &Engine{
		stations: stations,
		scorer:   scorer,
		history:  history,
		logger:   logger,
		limit:    DefaultLimit,
		now:      time.Now,
	}
}

// Recommend returns up to three active stations ordered by descending score.
// Stations with equal scores keep store order.
func (e *Engine) Recommend(ctx context.Context, q Query) ([]Recommendation, error) {
	started := time.Now()

	sc, err := e.scoringContext(q)
	if err != nil {
		return nil, err
	}

	stations, err := e.stations.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		rec   Recommendation
		score float64
	}
	candidates := make([]ranked, 0, len(stations))
	for _, st := range stations {
		if !st.IsActive {
			continue
		}
		res := e.scorer.Score(st, sc)
		if sc.MaxRangeKm != nil && res.DistanceKm > *sc.MaxRangeKm {
			continue
		}
		candidates = append(candidates, ranked{
			rec: Recommendation{
				Station:    st,
				DistanceKm: geo.Round(res.DistanceKm, 2),
				Score:      geo.Round(res.Score, 4),
			},
			score: res.Score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > e.limit {
		candidates = candidates[:e.limit]
	}

	out := make([]Recommendation, len(candidates))
	for i, c := range candidates {
		out[i] = c.rec
	}

	critical := e.scorer.Critical(sc)
	metrics.IncRecommendation(critical)
	metrics.ObserveRecommendation(time.Since(started))

	if q.UserID != "" && len(out) > 0 {
		e.recordHistory(ctx, q.UserID, out[0].Station)
	}
	return out, nil
}

// Wait blocks until pending history writes finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) scoringContext(q Query) (geo.Context, error) {
	if !q.Location.Valid() {
		return geo.Context{}, ErrInvalidLocation
	}

	battery := e.scorer.Config().DefaultBatteryPercent
	if q.BatteryPercent != nil {
		battery = *q.BatteryPercent
		if math.IsNaN(battery) || battery < 0 || battery > 100 {
			return geo.Context{}, ErrInvalidBattery
		}
	}

	if q.MaxRangeKm != nil && (math.IsNaN(*q.MaxRangeKm) || *q.MaxRangeKm < 0) {
		return geo.Context{}, ErrInvalidRange
	}

	return geo.Context{
		Location:           q.Location,
		BatteryPercent:     battery,
		PreferredConnector: q.PreferredConnector,
		MaxRangeKm:         q.MaxRangeKm,
	}, nil
}

// recordHistory appends in the background. Failures are logged and never
// reach the caller.
func (e *Engine) recordHistory(ctx context.Context, userID string, top models.Station) {
	if e.history == nil {
		return
	}
	entry := models.HistoryEntry{
		StationID:   top.ID,
		StationName: top.Name,
		RecordedAt:  e.now().UTC(),
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
		defer cancel()

		if err := e.history.Append(hctx, userID, entry); err != nil {
			metrics.IncHistoryAppendFailure()
			e.logger.Warn("failed to append recommendation history",
				zap.String("user_id", userID),
				zap.Int64("station_id", entry.StationID),
				zap.Error(err),
			)
		}
	}()
}
