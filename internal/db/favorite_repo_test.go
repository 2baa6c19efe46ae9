package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"meteo/internal/types"
)

func TestFavoriteRepository_Upsert_FillsIDAndCreatedAt(t *testing.T) {
	db := new(mockDBTX)
	repo := NewFavoriteRepository(db)

	created := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	var gotArgs []any
	db.On("QueryRow", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "ON CONFLICT (city_name) DO UPDATE")
	}), mock.Anything).
		Run(func(args mock.Arguments) { gotArgs = args.Get(2).([]any) }).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*string) = "8a3c1f0e-0000-4000-8000-000000000001"
			*dest[1].(*time.Time) = created
			return nil
		}})

	fav := &types.FavoriteCity{CityName: "  Lyon ", Country: "FR", Latitude: 45.76, Longitude: 4.84}
	require.NoError(t, repo.Upsert(context.Background(), fav))

	assert.Equal(t, "8a3c1f0e-0000-4000-8000-000000000001", fav.ID)
	assert.Equal(t, created, fav.CreatedAt)
	assert.Equal(t, "Lyon", fav.CityName)
	assert.False(t, fav.LastUpdate.IsZero(), "last update defaults to now")

	require.Len(t, gotArgs, 7)
	assert.Len(t, gotArgs[0].(string), 36, "new rows get a uuid")
	assert.Equal(t, "Lyon", gotArgs[1])
	assert.Equal(t, "FR", gotArgs[2])
	db.AssertExpectations(t)
}

func TestFavoriteRepository_Upsert_RequiresName(t *testing.T) {
	repo := NewFavoriteRepository(new(mockDBTX))

	err := repo.Upsert(context.Background(), &types.FavoriteCity{CityName: " "})
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeValidationInvalidCity, code)
}

func TestFavoriteRepository_Upsert_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewFavoriteRepository(db)
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: errors.New("connection reset")})

	err := repo.Upsert(context.Background(), &types.FavoriteCity{CityName: "Paris"})
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeInternalDB, code)
}

func TestFavoriteRepository_Delete(t *testing.T) {
	db := new(mockDBTX)
	repo := NewFavoriteRepository(db)
	db.On("Exec", mock.Anything, `DELETE FROM favorite_cities WHERE city_name = $1`, []any{"Paris"}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil).Once()
	db.On("Exec", mock.Anything, `DELETE FROM favorite_cities WHERE city_name = $1`, []any{"Nantes"}).
		Return(pgconn.NewCommandTag("DELETE 0"), nil).Once()

	require.NoError(t, repo.Delete(context.Background(), "Paris"))

	err := repo.Delete(context.Background(), "Nantes")
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeNotFoundFavorite, code)
	db.AssertExpectations(t)
}

func TestFavoriteRepository_List(t *testing.T) {
	db := new(mockDBTX)
	repo := NewFavoriteRepository(db)

	ts := time.Date(2024, 6, 17, 8, 0, 0, 0, time.UTC)
	rows := newMockRows([][]any{
		{"id-1", "Lyon", "FR", 45.76, 4.84, false, ts, ts},
		{"id-2", "Paris", "FR", 48.85, 2.35, true, ts, ts},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	favs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "Lyon, FR", favs[0].FullName())
	assert.True(t, favs[1].FromLocation)
	assert.Equal(t, 48.85, favs[1].Latitude)
	assert.True(t, rows.closed)
}

func TestFavoriteRepository_List_EmptyIsNotNil(t *testing.T) {
	db := new(mockDBTX)
	repo := NewFavoriteRepository(db)
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(nil), nil)

	favs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, favs)
	assert.Empty(t, favs)
}

func TestFavoriteRepository_List_IterationError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewFavoriteRepository(db)
	rows := newMockRows(nil)
	rows.errVal = errors.New("conn lost")
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	_, err := repo.List(context.Background())
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeInternalDB, code)
}
