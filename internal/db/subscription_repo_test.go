package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"meteo/internal/types"
)

func TestSubscriptionRepository_Toggle(t *testing.T) {
	next := time.Date(2024, 6, 17, 13, 30, 0, 0, time.UTC)
	sub := types.NotificationSubscription{City: "Paris", Latitude: 48.85, Longitude: 2.35, NextRunAt: next}

	t.Run("enables when absent", func(t *testing.T) {
		db := new(mockDBTX)
		db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"Paris", 48.85, 2.35, next}).
			Return(&mockRow{scanFn: func(dest ...any) error { *dest[0].(*string) = "Paris"; return nil }})

		enabled, err := NewSubscriptionRepository(db).Toggle(context.Background(), sub)
		require.NoError(t, err)
		assert.True(t, enabled)
		db.AssertExpectations(t)
	})

	t.Run("disables when present", func(t *testing.T) {
		db := new(mockDBTX)
		db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return(&mockRow{scanErr: pgx.ErrNoRows})

		enabled, err := NewSubscriptionRepository(db).Toggle(context.Background(), sub)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("database error", func(t *testing.T) {
		db := new(mockDBTX)
		db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return(&mockRow{scanErr: errors.New("deadlock detected")})

		_, err := NewSubscriptionRepository(db).Toggle(context.Background(), sub)
		code, _ := types.CodeOf(err)
		assert.Equal(t, types.ErrCodeInternalDB, code)
	})

	t.Run("blank city", func(t *testing.T) {
		_, err := NewSubscriptionRepository(new(mockDBTX)).Toggle(context.Background(), types.NotificationSubscription{})
		code, _ := types.CodeOf(err)
		assert.Equal(t, types.ErrCodeValidationInvalidCity, code)
	})
}

func TestSubscriptionRepository_IsEnabled(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"Paris"}).
		Return(&mockRow{scanFn: func(dest ...any) error { *dest[0].(*int) = 1; return nil }})
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"Lille"}).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	on, err := repo.IsEnabled(context.Background(), "Paris")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = repo.IsEnabled(context.Background(), "Lille")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestSubscriptionRepository_ListDue(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)

	now := time.Date(2024, 6, 17, 13, 30, 0, 0, time.UTC)
	created := now.Add(-48 * time.Hour)
	rows := newMockRows([][]any{
		{"Lyon", 45.76, 4.84, now.Add(-time.Hour), created},
		{"Paris", 0.0, 0.0, now, created},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{now, 50}).Return(rows, nil)

	subs, err := repo.ListDue(context.Background(), now, 50)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Lyon", subs[0].City)
	assert.True(t, subs[0].Location().HasCoordinates())
	assert.False(t, subs[1].Location().HasCoordinates())
	db.AssertExpectations(t)
}

func TestSubscriptionRepository_ListDue_ScanError(t *testing.T) {
	db := new(mockDBTX)
	rows := newMockRows([][]any{{"Lyon"}})
	rows.scanErr = errors.New("bad column")
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	_, err := NewSubscriptionRepository(db).ListDue(context.Background(), time.Now(), 10)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeInternalDB, code)
}

func TestSubscriptionRepository_UpdateNextRun(t *testing.T) {
	db := new(mockDBTX)
	repo := NewSubscriptionRepository(db)
	next := time.Date(2024, 6, 18, 13, 30, 0, 0, time.UTC)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), []any{"Paris", next}).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), []any{"Gone", next}).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()

	require.NoError(t, repo.UpdateNextRun(context.Background(), "Paris", next))

	err := repo.UpdateNextRun(context.Background(), "Gone", next)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.ErrCodeNotFoundSubscription, code)
}

func TestEnsureSchema(t *testing.T) {
	db := new(mockDBTX)
	db.On("Exec", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "CREATE TABLE IF NOT EXISTS favorite_cities") &&
			strings.Contains(sql, "CREATE TABLE IF NOT EXISTS notification_subscriptions")
	}), mock.Anything).Return(pgconn.NewCommandTag("CREATE TABLE"), nil)

	require.NoError(t, EnsureSchema(context.Background(), db))
	db.AssertExpectations(t)
}
