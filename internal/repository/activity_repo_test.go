package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

func TestActivityRepositoryDefaultsToPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	intern := seedProfile(t, db, "Ayu Lestari", models.RoleIntern)

	activity := models.Activity{UserID: intern.ID, Title: "Network audit", Content: "Audited switches"}
	require.NoError(t, repo.Create(context.Background(), &activity))

	stored, err := repo.FindByID(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusPending, stored.Status)
	require.False(t, stored.SubmittedAt.IsZero())
	require.NotNil(t, stored.Profile)
	require.Equal(t, "Ayu Lestari", stored.Profile.FullName)
}

func TestActivityRepositoryReviewOnlyFromPending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	intern := seedProfile(t, db, "Budi", models.RoleIntern)
	staff := seedProfile(t, db, "Sari", models.RoleStaff)

	activity := models.Activity{UserID: intern.ID, Title: "Report", Content: "Wrote report"}
	require.NoError(t, repo.Create(context.Background(), &activity))

	first := time.Now().UTC().Truncate(time.Second)
	won, err := repo.Review(context.Background(), activity.ID, models.ActivityStatusApproved, staff.ID, first)
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.Review(context.Background(), activity.ID, models.ActivityStatusRejected, staff.ID, first.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, won)

	stored, err := repo.FindByID(context.Background(), activity.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewedAt)
	require.True(t, first.Equal(stored.ReviewedAt.UTC()))
	require.Equal(t, staff.ID, *stored.ReviewedBy)
}

func TestActivityRepositoryListFiltersAndCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	ayu := seedProfile(t, db, "Ayu", models.RoleIntern)
	budi := seedProfile(t, db, "Budi", models.RoleIntern)

	now := time.Now().UTC()
	for i, status := range []string{models.ActivityStatusPending, models.ActivityStatusApproved, models.ActivityStatusRejected} {
		item := models.Activity{UserID: ayu.ID, Title: "Task", Content: "Body", Status: status, SubmittedAt: now.Add(time.Duration(-i) * time.Hour)}
		require.NoError(t, repo.Create(context.Background(), &item))
	}
	other := models.Activity{UserID: budi.ID, Title: "Other", Content: "Body"}
	require.NoError(t, repo.Create(context.Background(), &other))

	items, total, err := repo.List(context.Background(), ActivityFilter{UserID: ayu.ID, PageSize: 2, Page: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	require.Equal(t, models.ActivityStatusPending, items[0].Status, "expected newest first")

	items, total, err = repo.List(context.Background(), ActivityFilter{Status: models.ActivityStatusPending})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	counts, err := repo.CountByStatus(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, ActivityStatusCounts{Total: 4, Pending: 2, Approved: 1, Rejected: 1}, counts)

	perUser, err := repo.CountByStatusForUsers(context.Background(), []string{ayu.ID, budi.ID})
	require.NoError(t, err)
	require.Equal(t, int64(3), perUser[ayu.ID].Total)
	require.Equal(t, int64(1), perUser[budi.ID].Pending)
}

func TestActivityRepositoryListOnDateFallsBackToSubmission(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	intern := seedProfile(t, db, "Citra", models.RoleIntern)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dated := day
	items := []models.Activity{
		{UserID: intern.ID, Title: "Dated", Content: "x", ActivityDate: &dated, SubmittedAt: day.AddDate(0, 0, 2)},
		{UserID: intern.ID, Title: "Submitted", Content: "x", SubmittedAt: day.Add(9 * time.Hour)},
		{UserID: intern.ID, Title: "Elsewhere", Content: "x", SubmittedAt: day.AddDate(0, 0, 1).Add(time.Hour)},
	}
	for i := range items {
		require.NoError(t, repo.Create(context.Background(), &items[i]))
	}

	found, err := repo.ListOnDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, found, 2)
}

func TestActivityRepositoryListRecentCaps(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityRepository(db)
	intern := seedProfile(t, db, "Dewi", models.RoleIntern)

	for i := 0; i < 5; i++ {
		item := models.Activity{UserID: intern.ID, Title: "Task", Content: "x"}
		require.NoError(t, repo.Create(context.Background(), &item))
	}

	items, err := repo.ListRecent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, items, 3)
}
