package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/capitalize-ai/trip-assistant/internal/model"
)

// TripWriter creates the rows of one trip.
type TripWriter interface {
	CreateTrip(ctx context.Context, trip *model.Trip) error
	CreatePoint(ctx context.Context, point *model.Point) error
	CreatePointImage(ctx context.Context, image *model.PointImage) error
}

// TripRepository persists trips, their points and point images.
type TripRepository struct {
	db *sqlx.DB
}

var _ TripWriter = (*tripTx)(nil)

// NewTripRepository creates a new trip repository.
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// InTx runs fn inside a transaction. The trip and all of its rows are
// committed together or not at all.
func (r *TripRepository) InTx(ctx context.Context, fn func(TripWriter) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&tripTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trip: %w", err)
	}
	return nil
}

// GetTrip loads a trip by ID.
func (r *TripRepository) GetTrip(ctx context.Context, id string) (*model.Trip, error) {
	var trip model.Trip
	query := r.db.Rebind(`SELECT id, user_id, title, description, country, location, photo_url, lat, lng,
			is_draft, created_by_ai, is_public, budget, start_date, end_date, likes, comments, created_at
		FROM trips WHERE id = ?`)
	if err := r.db.GetContext(ctx, &trip, query, id); err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return &trip, nil
}

// ListPoints returns the points of a trip in visiting order.
func (r *TripRepository) ListPoints(ctx context.Context, tripID string) ([]model.Point, error) {
	points := []model.Point{}
	query := r.db.Rebind(`SELECT id, trip_id, ord, name, description, latitude, longitude, how_to_get, impressions
		FROM points WHERE trip_id = ? ORDER BY ord`)
	if err := r.db.SelectContext(ctx, &points, query, tripID); err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	return points, nil
}

// ListPointImages returns the images attached to a point.
func (r *TripRepository) ListPointImages(ctx context.Context, pointID string) ([]model.PointImage, error) {
	images := []model.PointImage{}
	query := r.db.Rebind(`SELECT point_id, url FROM point_images WHERE point_id = ? ORDER BY url`)
	if err := r.db.SelectContext(ctx, &images, query, pointID); err != nil {
		return nil, fmt.Errorf("failed to list point images: %w", err)
	}
	return images, nil
}

type tripTx struct {
	tx *sqlx.Tx
}

func (t *tripTx) CreateTrip(ctx context.Context, trip *model.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.Must(uuid.NewV7()).String()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}

	query := t.tx.Rebind(`INSERT INTO trips (id, user_id, title, description, country, location, photo_url, lat, lng,
			is_draft, created_by_ai, is_public, budget, start_date, end_date, likes, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := t.tx.ExecContext(ctx, query,
		trip.ID, trip.UserID, trip.Title, trip.Description, trip.Country, trip.Location, trip.PhotoURL, trip.Lat, trip.Lng,
		trip.IsDraft, trip.CreatedByAI, trip.IsPublic, trip.Budget, trip.StartDate, trip.EndDate, trip.Likes, trip.Comments, trip.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

func (t *tripTx) CreatePoint(ctx context.Context, point *model.Point) error {
	if point.ID == "" {
		point.ID = uuid.Must(uuid.NewV7()).String()
	}

	query := t.tx.Rebind(`INSERT INTO points (id, trip_id, ord, name, description, latitude, longitude, how_to_get, impressions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := t.tx.ExecContext(ctx, query,
		point.ID, point.TripID, point.Order, point.Name, point.Description, point.Latitude, point.Longitude, point.HowToGet, point.Impressions)
	if err != nil {
		return fmt.Errorf("failed to insert point %d: %w", point.Order, err)
	}
	return nil
}

func (t *tripTx) CreatePointImage(ctx context.Context, image *model.PointImage) error {
	query := t.tx.Rebind(`INSERT INTO point_images (id, point_id, url) VALUES (?, ?, ?)`)
	if _, err := t.tx.ExecContext(ctx, query, uuid.Must(uuid.NewV7()).String(), image.PointID, image.URL); err != nil {
		return fmt.Errorf("failed to insert point image: %w", err)
	}
	return nil
}
