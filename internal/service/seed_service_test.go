package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lira-intern-api/internal/models"
	"github.com/noah-isme/lira-intern-api/internal/repository"
)

func TestSeedServiceTokenGuard(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewSeedService(repository.NewDepartmentRepository(db), repository.NewProfileRepository(db), true, "secret", zerolog.Nop())

	_, err := svc.SeedDepartments(context.Background(), "wrong", []models.Department{{Name: "Engineering"}})
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	disabled := NewSeedService(repository.NewDepartmentRepository(db), repository.NewProfileRepository(db), false, "secret", zerolog.Nop())
	_, err = disabled.SeedDepartments(context.Background(), "secret", []models.Department{{Name: "Engineering"}})
	require.ErrorIs(t, err, ErrSeedDisabled)

	unset := NewSeedService(repository.NewDepartmentRepository(db), repository.NewProfileRepository(db), true, "", zerolog.Nop())
	_, err = unset.SeedProfiles(context.Background(), "", []models.Profile{{FullName: "Ina"}})
	require.ErrorIs(t, err, ErrSeedUnauthorized)
}

func TestSeedDepartmentsUpsertsByName(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewSeedService(repository.NewDepartmentRepository(db), repository.NewProfileRepository(db), true, "secret", zerolog.Nop())
	ctx := context.Background()

	first := "Builds things"
	affected, err := svc.SeedDepartments(ctx, "secret", []models.Department{
		{Name: " Engineering ", Description: &first},
		{Name: "engineering"},
		{Name: "   "},
		{Name: "Finance"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	updated := "Builds and runs things"
	_, err = svc.SeedDepartments(ctx, "secret", []models.Department{{Name: "Engineering", Description: &updated}})
	require.NoError(t, err)

	var departments []models.Department
	require.NoError(t, db.Order("name asc").Find(&departments).Error)
	require.Len(t, departments, 2)
	require.Equal(t, "Engineering", departments[0].Name)
	require.NotNil(t, departments[0].Description)
	require.Equal(t, updated, *departments[0].Description)
}

func TestSeedProfilesKeepsExistingRows(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewSeedService(repository.NewDepartmentRepository(db), repository.NewProfileRepository(db), true, "secret", zerolog.Nop())
	existing := seedProfile(t, db, "Original", models.RoleStaff)

	affected, err := svc.SeedProfiles(context.Background(), "secret", []models.Profile{
		{ID: existing.ID, FullName: "Overwritten", Role: models.RoleAdmin},
		{FullName: "New Intern", Role: "superuser"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	var stored models.Profile
	require.NoError(t, db.First(&stored, "id = ?", existing.ID).Error)
	require.Equal(t, "Original", stored.FullName)
	require.Equal(t, models.RoleStaff, stored.Role)

	var created models.Profile
	require.NoError(t, db.First(&created, "full_name = ?", "New Intern").Error)
	require.Equal(t, models.RoleIntern, created.Role)
}
