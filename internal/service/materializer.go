package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/trip-assistant/internal/idempotency"
	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/internal/repository"
	"github.com/capitalize-ai/trip-assistant/pkg/logger"
	"github.com/capitalize-ai/trip-assistant/pkg/metrics"
)

// TripTitle prefixes the title of every AI-created draft.
const TripTitle = "Маршрут от AI"

// TripStore runs the writes of one trip atomically.
type TripStore interface {
	InTx(ctx context.Context, fn func(repository.TripWriter) error) error
}

// MaterializerConfig tunes trip creation.
type MaterializerConfig struct {
	CatalogLimit  int
	DefaultCity   string
	DefaultDays   int
	PublicBaseURL string
	DedupTTL      time.Duration
}

// MaterializedTrip describes a created (or previously created) trip.
type MaterializedTrip struct {
	model.TripResult
	City   string `json:"city"`
	Points int    `json:"points"`
	// Reused is true when an identical action had already produced this trip.
	Reused bool `json:"-"`
}

// TripMaterializer converts a create_trip action into persisted records.
type TripMaterializer struct {
	catalog AttractionCatalog
	trips   TripStore
	dedup   idempotency.Store
	cfg     MaterializerConfig
	logger  *logger.Logger
	now     func() time.Time
}

// NewTripMaterializer creates a materializer. dedup may be nil, in which case
// every action creates a new trip.
func NewTripMaterializer(catalog AttractionCatalog, trips TripStore, dedup idempotency.Store, cfg MaterializerConfig, log *logger.Logger) *TripMaterializer {
	if cfg.CatalogLimit <= 0 {
		cfg.CatalogLimit = 6
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 3
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 2 * time.Minute
	}
	return &TripMaterializer{
		catalog: catalog,
		trips:   trips,
		dedup:   dedup,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
	}
}

// Materialize creates a draft trip for userID from action. Points come from
// the action's named attractions, enriched from the catalog, or from the
// city's top rated attractions when none are named.
func (m *TripMaterializer) Materialize(ctx context.Context, userID string, action TripAction) (result *MaterializedTrip, err error) {
	ctx, span := otel.Tracer("trip-assistant").Start(ctx, "TripMaterializer.Materialize")
	defer span.End()

	city := strings.TrimSpace(action.City)
	if city == "" {
		city = m.cfg.DefaultCity
	}
	days := action.Days
	if days <= 0 {
		days = m.cfg.DefaultDays
	}
	if days > maxTripDays {
		days = maxTripDays
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("city", city),
		attribute.Int("days", days),
		attribute.Int("named_attractions", len(action.Attractions)),
	)

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if errors.Is(err, ErrNoAttractionsAvailable) {
				metrics.RecordTrip("no_attractions", 0)
			} else {
				metrics.RecordTrip("failed", 0)
			}
		}
	}()

	key := dedupKey(userID, city, days, action.Attractions)
	if m.dedup != nil {
		prev, claimed, claimErr := m.dedup.Claim(ctx, key, m.cfg.DedupTTL)
		if claimErr != nil {
			m.logger.Warn("failed to claim action key", zap.String("user_id", userID), zap.Error(claimErr))
		} else if !claimed {
			return m.reuse(prev)
		} else {
			defer func() {
				if err != nil {
					if rerr := m.dedup.Release(context.WithoutCancel(ctx), key); rerr != nil {
						m.logger.Warn("failed to release action key", zap.Error(rerr))
					}
				}
			}()
		}
	}

	attractions, err := m.resolve(ctx, city, action.Attractions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTripGenerationFailed, err)
	}
	if len(attractions) == 0 {
		return nil, fmt.Errorf("%w: city %q", ErrNoAttractionsAvailable, city)
	}

	trip := m.buildTrip(userID, city, days, attractions)
	err = m.trips.InTx(ctx, func(w repository.TripWriter) error {
		if err := w.CreateTrip(ctx, trip); err != nil {
			return err
		}
		for i, a := range attractions {
			point := &model.Point{
				TripID:      trip.ID,
				Order:       i,
				Name:        a.Name,
				Description: a.Description,
				Latitude:    a.Latitude,
				Longitude:   a.Longitude,
				HowToGet:    a.WorkingStatus,
				Impressions: a.Description,
			}
			if err := w.CreatePoint(ctx, point); err != nil {
				return err
			}
			for _, url := range lo.Compact(a.Photos) {
				if err := w.CreatePointImage(ctx, &model.PointImage{PointID: point.ID, URL: url}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTripGenerationFailed, err)
	}

	result = &MaterializedTrip{
		TripResult: model.TripResult{ID: trip.ID, URL: m.tripURL(trip.ID)},
		City:       trip.Location,
		Points:     len(attractions),
	}
	span.SetAttributes(attribute.String("trip_id", trip.ID))
	metrics.RecordTrip("created", result.Points)

	if m.dedup != nil {
		if data, merr := json.Marshal(result); merr == nil {
			if cerr := m.dedup.Complete(ctx, key, string(data), m.cfg.DedupTTL); cerr != nil {
				m.logger.Warn("failed to record action result", zap.Error(cerr))
			}
		}
	}

	m.logger.Info("trip materialized",
		zap.String("user_id", userID),
		zap.String("trip_id", trip.ID),
		zap.String("city", trip.Location),
		zap.Int("points", result.Points),
	)
	return result, nil
}

func (m *TripMaterializer) reuse(prev string) (*MaterializedTrip, error) {
	if prev == idempotency.Pending {
		return nil, fmt.Errorf("%w: %w", ErrTripGenerationFailed, ErrActionInProgress)
	}
	var result MaterializedTrip
	if err := json.Unmarshal([]byte(prev), &result); err != nil || result.ID == "" {
		return nil, fmt.Errorf("%w: corrupt action record", ErrTripGenerationFailed)
	}
	result.Reused = true
	metrics.RecordTrip("reused", 0)
	return &result, nil
}

// resolve returns the attractions that become the trip's points, in order.
func (m *TripMaterializer) resolve(ctx context.Context, city string, names []string) ([]model.Attraction, error) {
	names = lo.Compact(lo.Map(names, func(n string, _ int) string { return strings.TrimSpace(n) }))
	if len(names) == 0 {
		attractions, err := m.catalog.TopRated(ctx, city, m.cfg.CatalogLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load top attractions: %w", err)
		}
		return attractions, nil
	}

	found, err := m.catalog.FindByNames(ctx, city, names)
	if err != nil {
		return nil, fmt.Errorf("failed to look up attractions: %w", err)
	}
	byName := make(map[string]model.Attraction, len(found))
	for _, a := range found {
		k := model.CatalogKey(a.Name)
		if _, ok := byName[k]; !ok {
			byName[k] = a
		}
	}

	return lo.Map(names, func(name string, _ int) model.Attraction {
		if a, ok := byName[model.CatalogKey(name)]; ok {
			return a
		}
		return model.Attraction{Name: name, City: city}
	}), nil
}

func (m *TripMaterializer) buildTrip(userID, city string, days int, attractions []model.Attraction) *model.Trip {
	first := attractions[0]
	start := m.now().UTC().Truncate(24 * time.Hour)

	trip := &model.Trip{
		UserID: userID,
		Title:  TripTitle + ": " + city,
		Description: fmt.Sprintf("Маршрут по городу %s на %d дн.: %s", city, days,
			strings.Join(lo.Map(attractions, func(a model.Attraction, _ int) string { return a.Name }), ", ")),
		Country:     first.Country,
		Location:    city,
		Lat:         first.Latitude,
		Lng:         first.Longitude,
		IsDraft:     true,
		CreatedByAI: true,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, days),
	}
	if photos := lo.Compact(first.Photos); len(photos) > 0 {
		trip.PhotoURL = &photos[0]
	}
	return trip
}

func (m *TripMaterializer) tripURL(id string) string {
	return fmt.Sprintf("%s/trips/%s", strings.TrimRight(m.cfg.PublicBaseURL, "/"), id)
}

// dedupKey identifies an action by user and normalized parameters.
func dedupKey(userID, city string, days int, names []string) string {
	normalized := lo.Map(names, func(n string, _ int) string { return model.CatalogKey(n) })
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s", model.CatalogKey(city), days, strings.Join(normalized, "\x1f"))
	return userID + ":" + hex.EncodeToString(h.Sum(nil))
}
