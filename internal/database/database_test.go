package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gymbook/internal/config"
	"gymbook/internal/models"
	"gymbook/internal/source"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "gym.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestListCourseBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seed := []models.CourseBooking{
		{Account: "m1", CourseName: "Yoga", CoachName: "Li", SlotTime: "2024-05-01 08:00:00"},
		{Account: "m2", CourseName: "Spin", SlotTime: "2024-05-01 08:00:00"},
		{Account: "m1", CourseName: "Pilates"},
	}
	for i := range seed {
		require.NoError(t, db.CreateCourseBooking(ctx, &seed[i]))
		assert.NotZero(t, seed[i].ID)
	}

	all, err := db.ListCourseBookings(ctx, source.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all.List, 3)
	assert.Equal(t, "Li", all.List[0].CoachName)
	assert.Empty(t, all.List[1].CoachName)
	assert.Empty(t, all.List[2].SlotTime)

	mine, err := db.ListCourseBookings(ctx, source.ListRequest{AccountFilter: "m1", Page: 1, Limit: 500})
	require.NoError(t, err)
	require.Len(t, mine.List, 2)
	assert.Equal(t, "Yoga", mine.List[0].CourseName)
	assert.Equal(t, "Pilates", mine.List[1].CourseName)

	page2, err := db.ListCourseBookings(ctx, source.ListRequest{Page: 2})
	require.NoError(t, err)
	assert.Empty(t, page2.List)
}

func TestListCoachBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	priced := models.CoachBooking{Account: "m1", CoachName: "Wang", Price: models.PriceOf(200), SlotTime: "2024-05-01 09:00:00"}
	free := models.CoachBooking{Account: "m2", CoachName: "Zhao", SlotTime: "2024-05-01 09:00:00"}
	require.NoError(t, db.CreateCoachBooking(ctx, &priced))
	require.NoError(t, db.CreateCoachBooking(ctx, &free))

	all, err := db.ListCoachBookings(ctx, source.ListRequest{})
	require.NoError(t, err)
	require.Len(t, all.List, 2)
	require.NotNil(t, all.List[0].Price)
	assert.Equal(t, 200.0, *all.List[0].Price)
	assert.Nil(t, all.List[1].Price)

	mine, err := db.ListCoachBookings(ctx, source.ListRequest{AccountFilter: "m2"})
	require.NoError(t, err)
	require.Len(t, mine.List, 1)
	assert.Equal(t, "Zhao", mine.List[0].CoachName)
}

func TestInMemoryDB(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateCourseBooking(ctx, &models.CourseBooking{Account: "m1", CourseName: "Yoga"}))
	list, err := db.ListCourseBookings(ctx, source.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list.List, 1)
	assert.NoError(t, db.Ready(ctx))
}

func TestBackupService(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateCourseBooking(ctx, &models.CourseBooking{Account: "m1", CourseName: "Yoga"}))

	dir := filepath.Join(t.TempDir(), "backups")
	logger := zerolog.New(io.Discard)
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, Path: dir, RetentionDays: 7}, &logger)

	path, err := svc.PerformBackup(ctx)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	old := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	svc.CleanupOldBackups()
	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
