package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

type activityFixture struct {
	db       *gorm.DB
	svc      ActivityService
	notifier *notifierStub
	recorder *recorderStub
	intern   models.Profile
	staff    models.Profile
	admin    models.Profile
	clock    *time.Time
}

func newActivityFixture(t *testing.T) activityFixture {
	t.Helper()
	db := setupServiceDB(t)
	notifier := &notifierStub{}
	recorder := &recorderStub{}

	svc := NewActivityService(
		repository.NewActivityRepository(db),
		repository.NewCommentRepository(db),
		repository.NewProfileRepository(db),
		notifier,
		recorder,
		newTestValidator(),
		zerolog.Nop(),
	)

	clock := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	svc.(*activityService).now = func() time.Time { return clock }

	f := activityFixture{
		db:       db,
		svc:      svc,
		notifier: notifier,
		recorder: recorder,
		intern:   seedProfile(t, db, "Ina Intern", models.RoleIntern),
		staff:    seedProfile(t, db, "Sam Staff", models.RoleStaff),
		admin:    seedProfile(t, db, "Ada Admin", models.RoleAdmin),
	}
	f.clock = &clock
	return f
}

func (f activityFixture) submit(t *testing.T) dto.ActivityResponse {
	t.Helper()
	resp, err := f.svc.Submit(context.Background(), actorFor(f.intern), dto.ActivityCreateRequest{
		Title:   "Lab safety briefing",
		Content: "<p>Attended the <strong>safety</strong> briefing.</p><script>alert(1)</script>",
	})
	require.NoError(t, err)
	return resp
}

func TestActivitySubmitDefaultsToPending(t *testing.T) {
	f := newActivityFixture(t)
	created := f.submit(t)

	stored, err := f.svc.Get(context.Background(), actorFor(f.intern), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusPending, stored.Status)
	require.Equal(t, "<p>Attended the <strong>safety</strong> briefing.</p>", stored.Content)
	require.Equal(t, "Ina Intern", stored.AuthorName)
	require.Nil(t, stored.ReviewedAt)

	submitted := f.notifier.byKind(models.NotificationActivitySubmitted)
	require.Len(t, submitted, 2)
}

func TestActivitySubmitRejectsNonInterns(t *testing.T) {
	f := newActivityFixture(t)
	_, err := f.svc.Submit(context.Background(), actorFor(f.staff), dto.ActivityCreateRequest{Title: "Nope", Content: "text"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestActivitySubmitValidatesLocation(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()

	valid, err := f.svc.Submit(ctx, actorFor(f.intern), dto.ActivityCreateRequest{
		Title:    "Site visit",
		Content:  "Visited the plant",
		Location: json.RawMessage(`{"lat": -6.2, "lng": 106.8, "address": "Jakarta"}`),
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"lat": -6.2, "lng": 106.8, "address": "Jakarta"}`, string(valid.Location))

	encoded, err := f.svc.Submit(ctx, actorFor(f.intern), dto.ActivityCreateRequest{
		Title:    "Library",
		Content:  "Research session",
		Location: json.RawMessage(`"{\"name\": \"Main library\"}"`),
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"name": "Main library"}`, string(encoded.Location))

	_, err = f.svc.Submit(ctx, actorFor(f.intern), dto.ActivityCreateRequest{
		Title:    "Nowhere",
		Content:  "Lost",
		Location: json.RawMessage(`{"lat": 200}`),
	})
	require.ErrorIs(t, err, ErrInvalidLocation)
}

func TestActivityGetHidesOtherInternsActivities(t *testing.T) {
	f := newActivityFixture(t)
	created := f.submit(t)
	other := seedProfile(t, f.db, "Other Intern", models.RoleIntern)

	_, err := f.svc.Get(context.Background(), actorFor(other), created.ID)
	require.ErrorIs(t, err, ErrActivityNotFound)

	_, err = f.svc.Get(context.Background(), actorFor(f.staff), created.ID)
	require.NoError(t, err)
}

func TestActivityListScopesInternsToOwnActivities(t *testing.T) {
	f := newActivityFixture(t)
	f.submit(t)
	other := seedProfile(t, f.db, "Other Intern", models.RoleIntern)
	_, err := f.svc.Submit(context.Background(), actorFor(other), dto.ActivityCreateRequest{Title: "Other work", Content: "text"})
	require.NoError(t, err)

	own, err := f.svc.List(context.Background(), actorFor(other), dto.ActivityListRequest{UserID: f.intern.ID})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	require.Equal(t, other.ID, own.Items[0].UserID)

	all, err := f.svc.List(context.Background(), actorFor(f.staff), dto.ActivityListRequest{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	require.EqualValues(t, 2, all.Pagination.TotalItems)

	_, err = f.svc.Pending(context.Background(), actorFor(f.intern), 1, 10)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestActivityReviewIsIdempotentForRepeatedDecision(t *testing.T) {
	f := newActivityFixture(t)
	created := f.submit(t)
	ctx := context.Background()

	first, err := f.svc.Review(ctx, actorFor(f.staff), created.ID, dto.ActivityReviewRequest{
		Status:   models.ActivityStatusApproved,
		Feedback: "Well documented",
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusApproved, first.Status)
	require.NotNil(t, first.ReviewedAt)

	*f.clock = f.clock.Add(2 * time.Hour)

	second, err := f.svc.Review(ctx, actorFor(f.admin), created.ID, dto.ActivityReviewRequest{Status: models.ActivityStatusApproved})
	require.NoError(t, err)
	require.NotNil(t, second.ReviewedAt)
	require.True(t, first.ReviewedAt.Equal(*second.ReviewedAt))
	require.Equal(t, f.staff.ID, *second.ReviewedBy)

	require.Len(t, f.notifier.byKind(models.NotificationActivityReviewed), 1)
	require.Equal(t, []string{ReviewActionApproved}, f.recorder.actions())

	var comments []models.Comment
	require.NoError(t, f.db.Where("activity_id = ?", created.ID).Find(&comments).Error)
	require.Len(t, comments, 1)
	require.Equal(t, "Well documented", comments[0].Content)
}

func TestActivityReviewRejectsConflictingDecision(t *testing.T) {
	f := newActivityFixture(t)
	created := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.Review(ctx, actorFor(f.staff), created.ID, dto.ActivityReviewRequest{Status: models.ActivityStatusRejected})
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, actorFor(f.admin), created.ID, dto.ActivityReviewRequest{Status: models.ActivityStatusApproved})
	require.ErrorIs(t, err, ErrActivityAlreadyReviewed)

	stored, err := f.svc.Get(ctx, actorFor(f.intern), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusRejected, stored.Status)
}

func TestActivityReviewRequiresReviewer(t *testing.T) {
	f := newActivityFixture(t)
	created := f.submit(t)

	_, err := f.svc.Review(context.Background(), actorFor(f.intern), created.ID, dto.ActivityReviewRequest{Status: models.ActivityStatusApproved})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Review(context.Background(), actorFor(f.staff), "00000000-0000-0000-0000-000000000000", dto.ActivityReviewRequest{Status: models.ActivityStatusApproved})
	require.ErrorIs(t, err, ErrActivityNotFound)
}
