package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

func TestAttendanceRepositoryUpsertRefreshesRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	intern := seedProfile(t, db, "Gita", models.RoleIntern)

	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	first := models.AttendanceRecord{UserID: intern.ID, Date: day, Status: models.AttendancePartial, ActivitiesCount: 1}
	require.NoError(t, repo.Upsert(context.Background(), &first))

	second := models.AttendanceRecord{UserID: intern.ID, Date: day, Status: models.AttendancePresent, ActivitiesCount: 2}
	require.NoError(t, repo.Upsert(context.Background(), &second))

	records, err := repo.List(context.Background(), AttendanceFilter{UserID: intern.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.AttendancePresent, records[0].Status)
	require.Equal(t, 2, records[0].ActivitiesCount)
	require.NotNil(t, records[0].Profile)
}

func TestAttendanceRepositoryListRange(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	intern := seedProfile(t, db, "Hadi", models.RoleIntern)

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		record := models.AttendanceRecord{UserID: intern.ID, Date: base.AddDate(0, 0, i), Status: models.AttendancePresent}
		require.NoError(t, repo.Upsert(context.Background(), &record))
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 3)
	records, err := repo.List(context.Background(), AttendanceFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, records, 3)
}
