package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/observability"
)

// Fetch caps for the context digest.
const (
	contextActivityLimit = 50
	contextProfileLimit  = 100
	contextCommentLimit  = 100
	contextRecentTitles  = 10
)

// ActivitySource lists the most recent activities.
type ActivitySource interface {
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
}

// ProfileSource lists the most recent profiles.
type ProfileSource interface {
	ListRecent(ctx context.Context, limit int) ([]models.Profile, error)
}

// DepartmentSource lists every department.
type DepartmentSource interface {
	List(ctx context.Context) ([]models.Department, error)
}

// CommentSource lists the most recent comments.
type CommentSource interface {
	ListRecent(ctx context.Context, limit int) ([]models.Comment, error)
}

// ContextAggregator reduces current portal state into a plain-text digest for the assistant.
type ContextAggregator interface {
	Gather(ctx context.Context, role string) string
}

type contextAggregator struct {
	activities  ActivitySource
	profiles    ProfileSource
	departments DepartmentSource
	comments    CommentSource
	logger      zerolog.Logger
	now         func() time.Time
}

// NewContextAggregator constructs the digest builder over the four sources.
func NewContextAggregator(activities ActivitySource, profiles ProfileSource, departments DepartmentSource, comments CommentSource, logger zerolog.Logger) ContextAggregator {
	return &contextAggregator{
		activities:  activities,
		profiles:    profiles,
		departments: departments,
		comments:    comments,
		logger:      logger.With().Str("component", "context_aggregator").Logger(),
		now:         time.Now,
	}
}

type contextSnapshot struct {
	activities    []models.Activity
	profiles      []models.Profile
	departments   []models.Department
	comments      []models.Comment
	activityErr   error
	profileErr    error
	departmentErr error
	commentErr    error
}

func (s contextSnapshot) failures() []string {
	var reasons []string
	for _, source := range []struct {
		name string
		err  error
	}{
		{"activities", s.activityErr},
		{"profiles", s.profileErr},
		{"departments", s.departmentErr},
		{"comments", s.commentErr},
	} {
		if source.err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", source.name, source.err))
		}
	}
	return reasons
}

// Gather never fails: unavailable sources degrade to a note inside their own section.
func (a *contextAggregator) Gather(ctx context.Context, role string) string {
	snapshot := a.fetch(ctx)

	var b strings.Builder
	reasons := snapshot.failures()
	if len(reasons) == 4 {
		fmt.Fprintf(&b, "Context gathering failed: %s. Proceeding with limited context.\n\n", strings.Join(reasons, "; "))
		writeRoleSection(&b, role)
		return strings.TrimRight(b.String(), "\n")
	}

	writeActivitySection(&b, snapshot.activities, snapshot.activityErr)
	writeProfileSection(&b, snapshot.profiles, snapshot.profileErr)
	writeDepartmentSection(&b, snapshot.departments, snapshot.departmentErr)
	writeCommentSection(&b, snapshot.comments, snapshot.commentErr)
	writeRoleSection(&b, role)

	b.WriteString("SYSTEM CAPABILITIES:\n")
	b.WriteString("- Real-time activity tracking and reporting\n")
	b.WriteString("- Multi-department intern coordination\n")
	b.WriteString("- Automated workflow management\n")
	b.WriteString("- Performance analytics and insights\n")
	b.WriteString("- Communication and collaboration tools\n")
	b.WriteString("- Document management and reporting\n")
	b.WriteString("- Role-based access control\n")
	b.WriteString("- Channel-based team communication\n\n")
	b.WriteString("CURRENT SYSTEM STATUS: Operational\n")
	fmt.Fprintf(&b, "LAST UPDATED: %s", a.now().UTC().Format("2006-01-02T15:04:05.000Z"))

	return b.String()
}

func (a *contextAggregator) fetch(ctx context.Context) contextSnapshot {
	var snapshot contextSnapshot
	var g errgroup.Group

	g.Go(func() error {
		snapshot.activities, snapshot.activityErr = a.activities.ListRecent(ctx, contextActivityLimit)
		a.observe("activities", snapshot.activityErr)
		return nil
	})
	g.Go(func() error {
		snapshot.profiles, snapshot.profileErr = a.profiles.ListRecent(ctx, contextProfileLimit)
		a.observe("profiles", snapshot.profileErr)
		return nil
	})
	g.Go(func() error {
		snapshot.departments, snapshot.departmentErr = a.departments.List(ctx)
		a.observe("departments", snapshot.departmentErr)
		return nil
	})
	g.Go(func() error {
		snapshot.comments, snapshot.commentErr = a.comments.ListRecent(ctx, contextCommentLimit)
		a.observe("comments", snapshot.commentErr)
		return nil
	})

	_ = g.Wait()
	return snapshot
}

func (a *contextAggregator) observe(source string, err error) {
	if err == nil {
		return
	}
	observability.ContextSourceFailures().WithLabelValues(source).Inc()
	a.logger.Warn().Err(err).Str("source", source).Msg("context source unavailable")
}

func writeActivitySection(b *strings.Builder, activities []models.Activity, err error) {
	b.WriteString("ACTIVITIES OVERVIEW:\n")
	if err != nil {
		fmt.Fprintf(b, "- Unavailable: %v\n\n", err)
		return
	}

	var pending, approved, rejected int
	for _, activity := range activities {
		switch activity.Status {
		case models.ActivityStatusPending:
			pending++
		case models.ActivityStatusApproved:
			approved++
		case models.ActivityStatusRejected:
			rejected++
		}
	}

	fmt.Fprintf(b, "- Total Activities: %d\n", len(activities))
	fmt.Fprintf(b, "- Pending Reviews: %d\n", pending)
	fmt.Fprintf(b, "- Approved: %d\n", approved)
	fmt.Fprintf(b, "- Rejected: %d\n", rejected)
	fmt.Fprintf(b, "- Recent Activities: %s\n\n", strings.Join(recentTitles(activities), ", "))
}

func recentTitles(activities []models.Activity) []string {
	seen := make(map[string]struct{})
	titles := make([]string, 0, contextRecentTitles)
	for i, activity := range activities {
		if i >= contextRecentTitles {
			break
		}
		if _, ok := seen[activity.Title]; ok {
			continue
		}
		seen[activity.Title] = struct{}{}
		titles = append(titles, activity.Title)
	}
	return titles
}

func writeProfileSection(b *strings.Builder, profiles []models.Profile, err error) {
	b.WriteString("USER STATISTICS:\n")
	if err != nil {
		fmt.Fprintf(b, "- Unavailable: %v\n\n", err)
		return
	}

	counts := map[string]int{}
	for _, profile := range profiles {
		counts[profile.Role]++
	}

	fmt.Fprintf(b, "- Total Users: %d\n", len(profiles))
	fmt.Fprintf(b, "- Interns: %d\n", counts[models.RoleIntern])
	fmt.Fprintf(b, "- Staff: %d\n", counts[models.RoleStaff])
	fmt.Fprintf(b, "- Administrators: %d\n\n", counts[models.RoleAdmin])
}

func writeDepartmentSection(b *strings.Builder, departments []models.Department, err error) {
	b.WriteString("DEPARTMENTS:\n")
	if err != nil {
		fmt.Fprintf(b, "- Unavailable: %v\n\n", err)
		return
	}

	fmt.Fprintf(b, "- Total Departments: %d\n", len(departments))
	for _, department := range departments {
		description := "No description"
		if department.Description != nil && strings.TrimSpace(*department.Description) != "" {
			description = strings.TrimSpace(*department.Description)
		}
		fmt.Fprintf(b, "- %s: %s\n", department.Name, description)
	}
	b.WriteString("\n")
}

func writeCommentSection(b *strings.Builder, comments []models.Comment, err error) {
	b.WriteString("ENGAGEMENT METRICS:\n")
	if err != nil {
		fmt.Fprintf(b, "- Unavailable: %v\n\n", err)
		return
	}

	discussions := make(map[string]struct{})
	for _, comment := range comments {
		discussions[comment.ActivityID] = struct{}{}
	}

	fmt.Fprintf(b, "- Recent Comments: %d\n", len(comments))
	fmt.Fprintf(b, "- Active Discussions: %d\n\n", len(discussions))
}

func writeRoleSection(b *strings.Builder, role string) {
	b.WriteString("USER ROLE CONTEXT:\n")
	fmt.Fprintf(b, "Current user role: %s\n", role)
	b.WriteString(roleContext(role))
	b.WriteString("\n\n")
}

func roleContext(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case models.RoleIntern:
		return "- Focus on activity completion and learning\n" +
			"- Access to personal dashboard and progress tracking\n" +
			"- Ability to submit activities and receive feedback\n" +
			"- Communication with supervisors and peers"
	case models.RoleStaff:
		return "- Responsibility for intern supervision and review\n" +
			"- Access to departmental analytics and reporting\n" +
			"- Ability to approve/reject intern activities\n" +
			"- Team management and coordination tools"
	case models.RoleAdmin:
		return "- Full system oversight and management\n" +
			"- Access to all departments and users\n" +
			"- System configuration and user management\n" +
			"- Comprehensive analytics and reporting\n" +
			"- Policy and workflow management"
	default:
		return "- General system access based on assigned permissions"
	}
}
