package movements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Supply{}, &models.Batch{}, &models.Movement{}))
	return conn
}

func seedBatch(t *testing.T, conn *gorm.DB, supplyID, unitID uuid.UUID) models.Batch {
	t.Helper()

	batch := models.Batch{
		ID:         uuid.New(),
		SupplyID:   supplyID,
		LotNumber:  "L-" + uuid.NewString()[:8],
		UnitID:     unitID,
		InitialQty: 100,
		CurrentQty: 100,
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		Status:     enums.BatchStatusActive,
	}
	require.NoError(t, conn.Create(&batch).Error)
	return batch
}

func record(t *testing.T, svc Service, input RecordInput) *models.Movement {
	t.Helper()

	movement, err := svc.Record(context.Background(), nil, input)
	require.NoError(t, err)
	return movement
}

func TestRecordValidation(t *testing.T) {
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), 30)
	require.NoError(t, err)

	responsible := uuid.New()
	unit := uuid.New()

	cases := []struct {
		name  string
		input RecordInput
	}{
		{"missing batch", RecordInput{Type: enums.MovementTypeExit, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit}},
		{"invalid type", RecordInput{BatchID: uuid.New(), Type: enums.MovementType("teleport"), Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit}},
		{"zero quantity", RecordInput{BatchID: uuid.New(), Type: enums.MovementTypeExit, Quantity: 0, ResponsibleID: responsible, OriginUnitID: unit}},
		{"transfer without destination", RecordInput{BatchID: uuid.New(), Type: enums.MovementTypeTransfer, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit}},
		{"entry without destination", RecordInput{BatchID: uuid.New(), Type: enums.MovementTypeEntry, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), nil, tc.input)
			require.Error(t, err)
			require.True(t, errors.HasCode(err, errors.CodeValidation))
		})
	}
}

func TestListVisibilityScoping(t *testing.T) {
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), 30)
	require.NoError(t, err)

	central := uuid.New()
	local := uuid.New()
	other := uuid.New()
	responsible := uuid.New()
	supply := uuid.New()
	batch := seedBatch(t, conn, supply, central)

	// Entry landing at the local unit: visible there.
	record(t, svc, RecordInput{BatchID: batch.ID, Type: enums.MovementTypeEntry, Quantity: 5, ResponsibleID: responsible, OriginUnitID: central, DestinationUnitID: &local})
	// Exit leaving another unit: not visible to local.
	record(t, svc, RecordInput{BatchID: batch.ID, Type: enums.MovementTypeExit, Quantity: 2, ResponsibleID: responsible, OriginUnitID: other})
	// Transfer touching local as destination: visible.
	record(t, svc, RecordInput{BatchID: batch.ID, Type: enums.MovementTypeTransfer, Quantity: 3, ResponsibleID: responsible, OriginUnitID: central, DestinationUnitID: &local})
	// Reversal at a unit local has nothing to do with: hidden.
	record(t, svc, RecordInput{BatchID: batch.ID, Type: enums.MovementTypeReversal, Quantity: 1, ResponsibleID: responsible, OriginUnitID: other})

	localPrincipal := authz.Principal{UserID: uuid.New(), UnitID: local, Role: enums.UserRoleLocalWarehouse}
	page, err := svc.List(context.Background(), localPrincipal, ListInput{})
	require.NoError(t, err)
	require.Len(t, page.Movements, 2)
	for _, m := range page.Movements {
		require.NotEqual(t, enums.MovementTypeReversal, m.Type)
	}

	centralPrincipal := authz.Principal{UserID: uuid.New(), UnitID: central, Role: enums.UserRoleCentralWarehouse}
	page, err = svc.List(context.Background(), centralPrincipal, ListInput{})
	require.NoError(t, err)
	require.Len(t, page.Movements, 4)
}

func TestListFiltersBySupply(t *testing.T) {
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), 30)
	require.NoError(t, err)

	unit := uuid.New()
	responsible := uuid.New()
	wanted := uuid.New()
	ignored := uuid.New()
	wantedBatch := seedBatch(t, conn, wanted, unit)
	ignoredBatch := seedBatch(t, conn, ignored, unit)

	record(t, svc, RecordInput{BatchID: wantedBatch.ID, Type: enums.MovementTypeExit, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit})
	record(t, svc, RecordInput{BatchID: ignoredBatch.ID, Type: enums.MovementTypeExit, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit})

	principal := authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleCentralWarehouse}
	page, err := svc.List(context.Background(), principal, ListInput{SupplyID: &wanted})
	require.NoError(t, err)
	require.Len(t, page.Movements, 1)
	require.Equal(t, wantedBatch.ID, page.Movements[0].BatchID)
}

func TestListWindowExcludesOldMovements(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, 30)
	require.NoError(t, err)

	unit := uuid.New()
	responsible := uuid.New()
	batch := seedBatch(t, conn, uuid.New(), unit)

	recent := record(t, svc, RecordInput{BatchID: batch.ID, Type: enums.MovementTypeExit, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit})
	old := record(t, svc, RecordInput{BatchID: batch.ID, Type: enums.MovementTypeExit, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit})
	require.NoError(t, conn.Model(&models.Movement{}).
		Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(0, 0, -45)).Error)

	principal := authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleCentralWarehouse}
	page, err := svc.List(context.Background(), principal, ListInput{})
	require.NoError(t, err)
	require.Len(t, page.Movements, 1)
	require.Equal(t, recent.ID, page.Movements[0].ID)

	// Widening the window brings the old row back.
	page, err = svc.List(context.Background(), principal, ListInput{WindowDays: 60})
	require.NoError(t, err)
	require.Len(t, page.Movements, 2)
}

func TestListPaginates(t *testing.T) {
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), 30)
	require.NoError(t, err)

	unit := uuid.New()
	responsible := uuid.New()
	batch := seedBatch(t, conn, uuid.New(), unit)

	for i := 0; i < 5; i++ {
		record(t, svc, RecordInput{BatchID: batch.ID, Type: enums.MovementTypeExit, Quantity: 1, ResponsibleID: responsible, OriginUnitID: unit})
	}

	principal := authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleCentralWarehouse}
	page, err := svc.List(context.Background(), principal, ListInput{Pagination: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Movements, 2)
	require.NotEmpty(t, page.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, m := range page.Movements {
		seen[m.ID] = true
	}

	page, err = svc.List(context.Background(), principal, ListInput{Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, page.Movements, 2)
	for _, m := range page.Movements {
		require.False(t, seen[m.ID], "page two repeated a movement from page one")
	}
}
