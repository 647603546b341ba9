package requests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/internal/alerts"
	"github.com/lucasmoura/vitalstock-backend/internal/inventory"
	"github.com/lucasmoura/vitalstock-backend/internal/movements"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type gormTxRunner struct {
	conn *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	conn        *gorm.DB
	svc         Service
	centralUnit uuid.UUID
	supply      models.Supply
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Supply{}, &models.Batch{}, &models.Movement{},
		&models.SupplyRequest{}, &models.Alert{},
	))

	movementSvc, err := movements.NewService(movements.NewRepository(conn), 30)
	require.NoError(t, err)
	alertSvc, err := alerts.NewService(alerts.NewRepository(conn), 10, nil)
	require.NoError(t, err)

	centralUnit := uuid.New()
	svc, err := NewService(
		gormTxRunner{conn: conn},
		NewRepository(conn),
		inventory.NewRepository(conn),
		movementSvc,
		alertSvc,
		centralUnit,
		logger.New(logger.Options{ServiceName: "requests-test"}),
		nil,
	)
	require.NoError(t, err)

	supply := models.Supply{ID: uuid.New(), Name: "saline", UnitOfMeasure: "bottle"}
	require.NoError(t, conn.Create(&supply).Error)

	return &fixture{conn: conn, svc: svc, centralUnit: centralUnit, supply: supply}
}

func (f *fixture) seedBatch(t *testing.T, unitID uuid.UUID, qty int, expiry time.Time) models.Batch {
	t.Helper()

	batch := models.Batch{
		ID:         uuid.New(),
		SupplyID:   f.supply.ID,
		LotNumber:  "L-" + uuid.NewString()[:8],
		UnitID:     unitID,
		InitialQty: qty,
		CurrentQty: qty,
		ExpiryDate: expiry,
		Status:     enums.BatchStatusActive,
	}
	require.NoError(t, f.conn.Create(&batch).Error)
	return batch
}

func (f *fixture) batchQty(t *testing.T, id uuid.UUID) int {
	t.Helper()

	var batch models.Batch
	require.NoError(t, f.conn.First(&batch, "id = ?", id).Error)
	return batch.CurrentQty
}

func (f *fixture) pendingRequest(t *testing.T, requester authz.Principal, qty int, kind enums.RequestKind) *models.SupplyRequest {
	t.Helper()

	request, err := f.svc.Create(context.Background(), requester, CreateInput{
		SupplyID: f.supply.ID,
		Quantity: qty,
		Kind:     kind,
	})
	require.NoError(t, err)
	return request
}

func manager(unit uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleManager}
}

func localWarehouse(unit uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleLocalWarehouse}
}

func centralWarehouse(unit uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleCentralWarehouse}
}

func TestCreateValidations(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, manager(unit), CreateInput{SupplyID: f.supply.ID, Quantity: 0, Kind: enums.RequestKindLocal})
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = f.svc.Create(ctx, manager(unit), CreateInput{SupplyID: f.supply.ID, Quantity: 5, Kind: "express"})
	require.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = f.svc.Create(ctx, manager(unit), CreateInput{SupplyID: uuid.New(), Quantity: 5, Kind: enums.RequestKindLocal})
	require.True(t, errors.HasCode(err, errors.CodeNotFound))

	_, err = f.svc.Create(ctx, localWarehouse(unit), CreateInput{SupplyID: f.supply.ID, Quantity: 5, Kind: enums.RequestKindLocal})
	require.True(t, errors.HasCode(err, errors.CodeForbidden), "warehouse roles do not raise requests")

	request, err := f.svc.Create(ctx, manager(unit), CreateInput{SupplyID: f.supply.ID, Quantity: 5, Kind: enums.RequestKindLocal})
	require.NoError(t, err)
	require.Equal(t, enums.RequestStatusPending, request.Status)
	require.Equal(t, unit, request.UnitID)
}

func TestApproveAllocatesSoonestExpiryFirst(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()

	soonest := f.seedBatch(t, unit, 5, time.Now().AddDate(0, 1, 0))
	middle := f.seedBatch(t, unit, 5, time.Now().AddDate(0, 2, 0))
	latest := f.seedBatch(t, unit, 5, time.Now().AddDate(0, 3, 0))

	request := f.pendingRequest(t, manager(unit), 8, enums.RequestKindLocal)

	got, err := f.svc.Approve(context.Background(), localWarehouse(unit), request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RequestStatusApproved, got.Status)
	require.NotNil(t, got.DecidedBy)
	require.NotNil(t, got.DecidedAt)

	require.Equal(t, 0, f.batchQty(t, soonest.ID))
	require.Equal(t, 2, f.batchQty(t, middle.ID))
	require.Equal(t, 5, f.batchQty(t, latest.ID), "later expiry stays untouched once covered")

	var exits []models.Movement
	require.NoError(t, f.conn.Where("type = ?", enums.MovementTypeExit).Order("created_at ASC").Find(&exits).Error)
	require.Len(t, exits, 2)
	require.Equal(t, 5, exits[0].Quantity)
	require.Equal(t, 3, exits[1].Quantity)
}

func TestApproveSkipsExpiredBatches(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()

	expired := f.seedBatch(t, unit, 10, time.Now().AddDate(0, 0, -1))
	fresh := f.seedBatch(t, unit, 10, time.Now().AddDate(0, 1, 0))

	request := f.pendingRequest(t, manager(unit), 4, enums.RequestKindLocal)

	_, err := f.svc.Approve(context.Background(), localWarehouse(unit), request.ID)
	require.NoError(t, err)

	require.Equal(t, 10, f.batchQty(t, expired.ID))
	require.Equal(t, 6, f.batchQty(t, fresh.ID))
}

func TestApproveConsumesLowStatusBatches(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()

	// A batch flagged low by reconciliation is still stock and must stay in
	// the allocation walk.
	low := f.seedBatch(t, unit, 3, time.Now().AddDate(0, 1, 0))
	require.NoError(t, f.conn.Model(&models.Batch{}).
		Where("id = ?", low.ID).
		Update("status", enums.BatchStatusLow).Error)
	fresh := f.seedBatch(t, unit, 10, time.Now().AddDate(0, 2, 0))

	request := f.pendingRequest(t, manager(unit), 5, enums.RequestKindLocal)

	_, err := f.svc.Approve(context.Background(), localWarehouse(unit), request.ID)
	require.NoError(t, err)

	require.Equal(t, 0, f.batchQty(t, low.ID))
	require.Equal(t, 8, f.batchQty(t, fresh.ID))
}

func TestApproveAbortsWholeOnShortfall(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()

	first := f.seedBatch(t, unit, 3, time.Now().AddDate(0, 1, 0))
	second := f.seedBatch(t, unit, 2, time.Now().AddDate(0, 2, 0))

	request := f.pendingRequest(t, manager(unit), 8, enums.RequestKindLocal)

	_, err := f.svc.Approve(context.Background(), localWarehouse(unit), request.ID)
	require.True(t, errors.HasCode(err, errors.CodeInsufficientStock))

	shortfall, ok := errors.ShortfallFrom(err)
	require.True(t, ok)
	require.Equal(t, 8, shortfall.Requested)
	require.Equal(t, 5, shortfall.Available)
	require.Equal(t, 3, shortfall.Shortfall)

	// Nothing is consumed on abort: no partial fulfillment.
	require.Equal(t, 3, f.batchQty(t, first.ID))
	require.Equal(t, 2, f.batchQty(t, second.ID))

	var got models.SupplyRequest
	require.NoError(t, f.conn.First(&got, "id = ?", request.ID).Error)
	require.Equal(t, enums.RequestStatusPending, got.Status)
}

func TestApproveCentralKindDeliversToRequester(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()

	source := f.seedBatch(t, f.centralUnit, 10, time.Now().AddDate(0, 6, 0))
	request := f.pendingRequest(t, manager(unit), 6, enums.RequestKindCentral)

	_, err := f.svc.Approve(context.Background(), centralWarehouse(f.centralUnit), request.ID)
	require.NoError(t, err)

	require.Equal(t, 4, f.batchQty(t, source.ID))

	var landed models.Batch
	require.NoError(t, f.conn.First(&landed, "unit_id = ?", unit).Error)
	require.Equal(t, 6, landed.CurrentQty)
	require.Equal(t, source.LotNumber, landed.LotNumber)

	var transfers []models.Movement
	require.NoError(t, f.conn.Where("type = ?", enums.MovementTypeTransfer).Find(&transfers).Error)
	require.Len(t, transfers, 1)
	require.Equal(t, f.centralUnit, transfers[0].OriginUnitID)
	require.Equal(t, unit, *transfers[0].DestinationUnitID)
}

func TestDeciderScope(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()
	otherUnit := uuid.New()

	f.seedBatch(t, unit, 10, time.Now().AddDate(0, 1, 0))
	request := f.pendingRequest(t, manager(unit), 2, enums.RequestKindLocal)

	ctx := context.Background()

	_, err := f.svc.Approve(ctx, localWarehouse(otherUnit), request.ID)
	require.True(t, errors.HasCode(err, errors.CodeForbidden))

	_, err = f.svc.Approve(ctx, manager(unit), request.ID)
	require.True(t, errors.HasCode(err, errors.CodeForbidden), "managers raise requests but do not decide them")

	// Central-kind requests are never decided by the requesting unit's warehouse.
	f.seedBatch(t, f.centralUnit, 10, time.Now().AddDate(0, 1, 0))
	centralRequest := f.pendingRequest(t, manager(unit), 2, enums.RequestKindCentral)
	_, err = f.svc.Approve(ctx, localWarehouse(unit), centralRequest.ID)
	require.True(t, errors.HasCode(err, errors.CodeForbidden))
}

func TestRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()
	f.seedBatch(t, unit, 10, time.Now().AddDate(0, 1, 0))

	request := f.pendingRequest(t, manager(unit), 2, enums.RequestKindLocal)

	ctx := context.Background()
	got, err := f.svc.Reject(ctx, localWarehouse(unit), request.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RequestStatusRejected, got.Status)
	require.NotNil(t, got.DecidedAt)

	// Rejection consumes nothing and cannot be reversed.
	var exits int64
	require.NoError(t, f.conn.Model(&models.Movement{}).Count(&exits).Error)
	require.EqualValues(t, 0, exits)

	_, err = f.svc.Approve(ctx, localWarehouse(unit), request.ID)
	require.True(t, errors.HasCode(err, errors.CodeStateConflict))
}

func TestListScopesToHomeUnit(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()
	otherUnit := uuid.New()

	f.pendingRequest(t, manager(unit), 1, enums.RequestKindLocal)
	f.pendingRequest(t, manager(otherUnit), 2, enums.RequestKindLocal)

	ctx := context.Background()

	listed, err := f.svc.List(ctx, manager(unit), nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, unit, listed[0].UnitID)

	listed, err = f.svc.List(ctx, centralWarehouse(f.centralUnit), nil)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	pending := enums.RequestStatusPending
	listed, err = f.svc.List(ctx, centralWarehouse(f.centralUnit), &pending)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}
