package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/config"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newService(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Unit{}, &models.User{}))

	unit := models.Unit{ID: uuid.New(), Name: "ICU"}
	require.NoError(t, conn.Create(&unit).Error)

	svc, err := NewService(NewRepository(conn), testPasswordConfig())
	require.NoError(t, err)
	return svc, conn, unit.ID
}

func centralPrincipal() authz.Principal {
	return authz.Principal{UserID: uuid.New(), UnitID: uuid.New(), Role: enums.UserRoleCentralWarehouse}
}

func TestCreateHashesAndGeneratesPasswords(t *testing.T) {
	svc, _, unitID := newService(t)
	ctx := context.Background()

	user, generated, err := svc.Create(ctx, centralPrincipal(), CreateInput{
		Name:   "Ana",
		Email:  " Ana@Hospital.Test ",
		Role:   enums.UserRoleLocalWarehouse,
		UnitID: unitID,
	})
	require.NoError(t, err)
	require.Equal(t, "ana@hospital.test", user.Email)
	require.NotEmpty(t, generated, "no password supplied means a temporary one comes back")

	ok, err := security.VerifyPassword(generated, user.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	explicit, generated2, err := svc.Create(ctx, centralPrincipal(), CreateInput{
		Name:     "Bruno",
		Email:    "bruno@hospital.test",
		Password: "chosen-by-user",
		Role:     enums.UserRoleManager,
		UnitID:   unitID,
	})
	require.NoError(t, err)
	require.Empty(t, generated2)

	ok, err = security.VerifyPassword("chosen-by-user", explicit.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCreateValidations(t *testing.T) {
	svc, _, unitID := newService(t)
	ctx := context.Background()

	local := authz.Principal{UserID: uuid.New(), UnitID: unitID, Role: enums.UserRoleLocalWarehouse}
	_, _, err := svc.Create(ctx, local, CreateInput{Name: "x", Email: "x@y.z", Role: enums.UserRoleManager, UnitID: unitID})
	require.True(t, errors.HasCode(err, errors.CodeForbidden))

	_, _, err = svc.Create(ctx, centralPrincipal(), CreateInput{Name: "x", Email: "not-an-email", Role: enums.UserRoleManager, UnitID: unitID})
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	_, _, err = svc.Create(ctx, centralPrincipal(), CreateInput{Name: "x", Email: "x@y.z", Role: "superuser", UnitID: unitID})
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	_, _, err = svc.Create(ctx, centralPrincipal(), CreateInput{Name: "x", Email: "x@y.z", Role: enums.UserRoleManager, UnitID: uuid.New()})
	require.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, _, err = svc.Create(ctx, centralPrincipal(), CreateInput{Name: "x", Email: "dup@y.z", Role: enums.UserRoleManager, UnitID: unitID})
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, centralPrincipal(), CreateInput{Name: "x", Email: "DUP@y.z", Role: enums.UserRoleManager, UnitID: unitID})
	require.True(t, errors.HasCode(err, errors.CodeConflict))
}

func TestUpdateAndScopedReads(t *testing.T) {
	svc, conn, unitID := newService(t)
	ctx := context.Background()

	user, _, err := svc.Create(ctx, centralPrincipal(), CreateInput{
		Name: "Carla", Email: "carla@hospital.test", Role: enums.UserRoleHealthProfessional, UnitID: unitID,
	})
	require.NoError(t, err)

	role := enums.UserRoleManager
	updated, err := svc.Update(ctx, centralPrincipal(), user.ID, UpdateInput{Role: &role})
	require.NoError(t, err)
	require.Equal(t, enums.UserRoleManager, updated.Role)

	self := authz.Principal{UserID: user.ID, UnitID: unitID, Role: updated.Role}
	got, err := svc.Get(ctx, self, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	other := authz.Principal{UserID: uuid.New(), UnitID: unitID, Role: enums.UserRoleManager}
	_, err = svc.Get(ctx, other, user.ID)
	require.True(t, errors.HasCode(err, errors.CodeForbidden))

	otherUnit := models.Unit{ID: uuid.New(), Name: "Annex"}
	require.NoError(t, conn.Create(&otherUnit).Error)
	_, _, err = svc.Create(ctx, centralPrincipal(), CreateInput{
		Name: "Davi", Email: "davi@hospital.test", Role: enums.UserRoleManager, UnitID: otherUnit.ID,
	})
	require.NoError(t, err)

	listed, err := svc.List(ctx, self, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1, "non-central callers see only their home unit")

	listed, err = svc.List(ctx, centralPrincipal(), nil)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}
