package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/capitalize-ai/trip-assistant/internal/model"
)

const attractionColumns = `id, name, city, country, latitude, longitude, rating, description, working_status, photos`

// AttractionRepository reads the attraction catalog.
type AttractionRepository struct {
	db *sqlx.DB
}

// NewAttractionRepository creates a new attraction repository.
func NewAttractionRepository(db *sqlx.DB) *AttractionRepository {
	return &AttractionRepository{db: db}
}

// TopRated returns up to limit attractions of a city, best rated first.
func (r *AttractionRepository) TopRated(ctx context.Context, city string, limit int) ([]model.Attraction, error) {
	attractions := []model.Attraction{}
	query := r.db.Rebind(`SELECT ` + attractionColumns + ` FROM attractions
		WHERE city_key = ?
		ORDER BY rating DESC, name ASC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &attractions, query, model.CatalogKey(city), limit); err != nil {
		return nil, fmt.Errorf("failed to query top rated attractions: %w", err)
	}
	return attractions, nil
}

// FindByNames returns catalog entries whose names are in names, compared
// case-insensitively. An empty city searches every city.
func (r *AttractionRepository) FindByNames(ctx context.Context, city string, names []string) ([]model.Attraction, error) {
	attractions := []model.Attraction{}
	if len(names) == 0 {
		return attractions, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = model.CatalogKey(n)
	}

	q := `SELECT ` + attractionColumns + ` FROM attractions WHERE name_key IN (?)`
	args := []any{keys}
	if cityKey := model.CatalogKey(city); cityKey != "" {
		q += ` AND city_key = ?`
		args = append(args, cityKey)
	}
	q += ` ORDER BY rating DESC`

	query, inArgs, err := sqlx.In(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build attraction lookup: %w", err)
	}
	if err := r.db.SelectContext(ctx, &attractions, r.db.Rebind(query), inArgs...); err != nil {
		return nil, fmt.Errorf("failed to look up attractions: %w", err)
	}
	return attractions, nil
}

// Cities returns the distinct cities present in the catalog.
func (r *AttractionRepository) Cities(ctx context.Context) ([]string, error) {
	cities := []string{}
	if err := r.db.SelectContext(ctx, &cities, `SELECT DISTINCT city FROM attractions ORDER BY city`); err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

// Upsert inserts or replaces catalog entries in a single transaction.
func (r *AttractionRepository) Upsert(ctx context.Context, attractions []model.Attraction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`INSERT INTO attractions (` + attractionColumns + `, name_key, city_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			rating = excluded.rating,
			description = excluded.description,
			working_status = excluded.working_status,
			photos = excluded.photos,
			name_key = excluded.name_key,
			city_key = excluded.city_key`)

	for i := range attractions {
		a := &attractions[i]
		if a.ID == "" {
			a.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(a.City+"/"+a.Name)).String()
		}
		if _, err := tx.ExecContext(ctx, query,
			a.ID, a.Name, a.City, a.Country, a.Latitude, a.Longitude, a.Rating, a.Description, a.WorkingStatus, a.Photos,
			model.CatalogKey(a.Name), model.CatalogKey(a.City),
		); err != nil {
			return fmt.Errorf("failed to upsert attraction %q: %w", a.Name, err)
		}
	}

	return tx.Commit()
}
