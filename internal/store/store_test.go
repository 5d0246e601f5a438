package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"greeting-metrics-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

func TestGormStore_InsertZoneEvent(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "zone_events"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
	mock.ExpectCommit()

	event := &model.ZoneEvent{
		VenueID:    1,
		CameraID:   7,
		ZoneID:     11,
		Kind:       model.EventSeatOccupied,
		DetectedAt: time.Now(),
	}
	err := s.InsertZoneEvent(context.Background(), event)

	assert.NoError(t, err)
	assert.Equal(t, int64(77), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_OldestWaitingMetric(t *testing.T) {
	seated := time.Now().Add(-2 * time.Minute)

	t.Run("returns the row with the smallest seated_at", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "greeting_metrics"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "venue_id", "table_name", "seated_at", "status"}).
				AddRow(42, 1, "T4", seated, "waiting"))

		metric, err := s.OldestWaitingMetric(context.Background(), 1, "T4")
		require.NoError(t, err)
		require.NotNil(t, metric)
		assert.Equal(t, int64(42), metric.ID)
		assert.Equal(t, model.MetricWaiting, metric.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when no waiting row exists", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "greeting_metrics"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		metric, err := s.OldestWaitingMetric(context.Background(), 1, "T4")
		assert.NoError(t, err)
		assert.Nil(t, metric)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_CreateWaitingMetric(t *testing.T) {
	t.Run("inserts a new waiting row", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "greeting_metrics"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		mock.ExpectCommit()

		metric := &model.GreetingMetric{VenueID: 1, TableName: "T4", SeatedAt: time.Now()}
		created, err := s.CreateWaitingMetric(context.Background(), metric)

		assert.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.MetricWaiting, metric.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate waiting row degrades to a no-op", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		// ON CONFLICT DO NOTHING: zero rows returned.
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "greeting_metrics"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectCommit()

		metric := &model.GreetingMetric{VenueID: 1, TableName: "T4", SeatedAt: time.Now()}
		created, err := s.CreateWaitingMetric(context.Background(), metric)

		assert.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_ResolveMetric(t *testing.T) {
	t.Run("resolves a waiting metric", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "greeting_metrics"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		approachZoneID := int64(12)
		applied, err := s.ResolveMetric(context.Background(), 42, time.Now(), 47, &approachZoneID, 9)

		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already-terminal metric is left untouched", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "greeting_metrics"`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := s.ResolveMetric(context.Background(), 42, time.Now(), 47, nil, 9)

		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_ExpireStaleMetrics(t *testing.T) {
	cutoff := time.Now().Add(-10 * time.Minute)

	t.Run("expires every stale waiting row", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "greeting_metrics"`)).
			WithArgs(int64(1), string(model.MetricWaiting), Any{}).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(8))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "greeting_metrics"`)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		ids, err := s.ExpireStaleMetrics(context.Background(), 1, cutoff)

		assert.NoError(t, err)
		assert.ElementsMatch(t, []int64{3, 8}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("metric resolved in flight is not reported as expired", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		// Metric 3 is greeted between the select and the guarded update;
		// only metric 8 may come back, or the sweeper alerts on a greeted
		// table.
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "greeting_metrics"`)).
			WithArgs(int64(1), string(model.MetricWaiting), Any{}).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(8))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "greeting_metrics"`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "greeting_metrics"`)).
			WithArgs(int64(3), int64(8), string(model.MetricExpired)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
		mock.ExpectCommit()

		ids, err := s.ExpireStaleMetrics(context.Background(), 1, cutoff)

		assert.NoError(t, err)
		assert.Equal(t, []int64{8}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing stale means no update", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		s := NewGormStore(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "greeting_metrics"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectCommit()

		ids, err := s.ExpireStaleMetrics(context.Background(), 1, cutoff)

		assert.NoError(t, err)
		assert.Empty(t, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
