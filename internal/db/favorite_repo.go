package db

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"meteo/internal/types"
)

// FavoriteRepository persists favorite cities keyed by city name.
type FavoriteRepository struct {
	db  DBTX
	now func() time.Time
}

// NewFavoriteRepository creates a FavoriteRepository.
func NewFavoriteRepository(db DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Upsert saves fav. An existing row with the same city name keeps its ID and
// creation time; its country, coordinates, origin flag and last update are
// replaced. fav.ID and fav.CreatedAt are filled from the stored row.
func (r *FavoriteRepository) Upsert(ctx context.Context, fav *types.FavoriteCity) error {
	fav.CityName = strings.TrimSpace(fav.CityName)
	if fav.CityName == "" {
		return types.NewAppError(types.ErrCodeValidationInvalidCity, "city name is required", nil)
	}
	if fav.LastUpdate.IsZero() {
		fav.LastUpdate = r.now()
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO favorite_cities
		   (id, city_name, country, latitude, longitude, from_location, last_update, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 ON CONFLICT (city_name) DO UPDATE
		 SET country = EXCLUDED.country,
		     latitude = EXCLUDED.latitude,
		     longitude = EXCLUDED.longitude,
		     from_location = EXCLUDED.from_location,
		     last_update = EXCLUDED.last_update
		 RETURNING id, created_at`,
		uuid.NewString(),
		fav.CityName,
		fav.Country,
		fav.Latitude,
		fav.Longitude,
		fav.FromLocation,
		fav.LastUpdate,
	).Scan(&fav.ID, &fav.CreatedAt)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save favorite city", err)
	}
	return nil
}

// Delete removes the favorite named city.
func (r *FavoriteRepository) Delete(ctx context.Context, city string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM favorite_cities WHERE city_name = $1`,
		strings.TrimSpace(city),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete favorite city", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppErrorWithDetails(
			types.ErrCodeNotFoundFavorite,
			"favorite city not found",
			nil,
			map[string]any{"city": city},
		)
	}
	return nil
}

// List returns every favorite ordered by city name.
func (r *FavoriteRepository) List(ctx context.Context) ([]types.FavoriteCity, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, city_name, country, latitude, longitude, from_location, last_update, created_at
		 FROM favorite_cities
		 ORDER BY city_name`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list favorite cities", err)
	}
	defer rows.Close()

	favorites := []types.FavoriteCity{}
	for rows.Next() {
		var f types.FavoriteCity
		if err := rows.Scan(
			&f.ID,
			&f.CityName,
			&f.Country,
			&f.Latitude,
			&f.Longitude,
			&f.FromLocation,
			&f.LastUpdate,
			&f.CreatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan favorite city", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating favorite cities", err)
	}
	return favorites, nil
}
