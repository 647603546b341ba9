package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/internal/alerts"
	"github.com/lucasmoura/vitalstock-backend/internal/movements"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	conn *gorm.DB
	svc  Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Supply{}, &models.Batch{}, &models.Movement{}, &models.Alert{}))

	movementSvc, err := movements.NewService(movements.NewRepository(conn), 30)
	require.NoError(t, err)
	alertSvc, err := alerts.NewService(alerts.NewRepository(conn), 10, nil)
	require.NoError(t, err)

	svc, err := NewService(
		stubTxRunner{},
		NewRepository(conn),
		movementSvc,
		alertSvc,
		logger.New(logger.Options{ServiceName: "inventory-test"}),
		nil,
	)
	require.NoError(t, err)

	return &fixture{conn: conn, svc: svc}
}

func (f *fixture) seedSupply(t *testing.T) models.Supply {
	t.Helper()

	supply := models.Supply{
		ID:            uuid.New(),
		Name:          "saline 0.9%",
		UnitOfMeasure: "bag",
	}
	require.NoError(t, f.conn.Create(&supply).Error)
	return supply
}

func (f *fixture) movementsFor(t *testing.T, batchID uuid.UUID) []models.Movement {
	t.Helper()

	var rows []models.Movement
	require.NoError(t, f.conn.Where("batch_id = ?", batchID).Order("created_at ASC").Find(&rows).Error)
	return rows
}

func centralPrincipal() authz.Principal {
	return authz.Principal{UserID: uuid.New(), UnitID: uuid.New(), Role: enums.UserRoleCentralWarehouse}
}

func localPrincipal(unit uuid.UUID) authz.Principal {
	return authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleLocalWarehouse}
}

func TestFirstEntryCreatesBatchAndMovement(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	unit := uuid.New()
	expiry := time.Now().AddDate(1, 0, 0)

	outcome, err := f.svc.RegisterEntries(context.Background(), localPrincipal(unit), []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: expiry},
	})
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Succeeded)
	require.Zero(t, outcome.Failed)

	batch := outcome.Items[0].Batch
	require.NotNil(t, batch)
	require.Equal(t, 10, batch.InitialQty)
	require.Equal(t, 10, batch.CurrentQty)

	var count int64
	require.NoError(t, f.conn.Model(&models.Batch{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	rows := f.movementsFor(t, batch.ID)
	require.Len(t, rows, 1)
	require.Equal(t, enums.MovementTypeEntry, rows[0].Type)
	require.Equal(t, unit, rows[0].OriginUnitID)
	require.NotNil(t, rows[0].DestinationUnitID)
	require.Equal(t, unit, *rows[0].DestinationUnitID)
}

func TestSecondEntryMergesWithoutLoweringExpiry(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	unit := uuid.New()
	principal := localPrincipal(unit)
	laterExpiry := time.Now().AddDate(1, 0, 0)
	earlierExpiry := time.Now().AddDate(0, 3, 0)

	first, err := f.svc.RegisterEntries(context.Background(), principal, []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: laterExpiry},
	})
	require.NoError(t, err)
	batchID := first.Items[0].Batch.ID

	second, err := f.svc.RegisterEntries(context.Background(), principal, []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 5, Expiry: earlierExpiry},
	})
	require.NoError(t, err)
	require.Equal(t, 1, second.Succeeded)
	require.Equal(t, batchID, second.Items[0].Batch.ID, "merge must not create a second batch row")

	var batch models.Batch
	require.NoError(t, f.conn.First(&batch, "id = ?", batchID).Error)
	require.Equal(t, 15, batch.CurrentQty)
	require.Equal(t, 10, batch.InitialQty)
	require.WithinDuration(t, laterExpiry, batch.ExpiryDate, time.Second, "earlier expiry must not lower the stored one")

	require.Len(t, f.movementsFor(t, batchID), 2)
}

func TestEntryRaisesExpiryWhenStrictlyLater(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	unit := uuid.New()
	principal := localPrincipal(unit)
	nearExpiry := time.Now().AddDate(0, 3, 0)
	farExpiry := time.Now().AddDate(2, 0, 0)

	first, err := f.svc.RegisterEntries(context.Background(), principal, []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: nearExpiry},
	})
	require.NoError(t, err)
	batchID := first.Items[0].Batch.ID

	_, err = f.svc.RegisterEntries(context.Background(), principal, []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 5, Expiry: farExpiry},
	})
	require.NoError(t, err)

	var batch models.Batch
	require.NoError(t, f.conn.First(&batch, "id = ?", batchID).Error)
	require.WithinDuration(t, farExpiry, batch.ExpiryDate, time.Second)
}

func TestRegisterEntriesReportsPartialOutcome(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	unit := uuid.New()

	outcome, err := f.svc.RegisterEntries(context.Background(), localPrincipal(unit), []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: time.Now().AddDate(1, 0, 0)},
		{SupplyID: supply.ID, LotNumber: "L2", UnitID: unit, Quantity: 0, Expiry: time.Now().AddDate(1, 0, 0)},
		{SupplyID: supply.ID, LotNumber: "L3", UnitID: uuid.New(), Quantity: 3, Expiry: time.Now().AddDate(1, 0, 0)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Succeeded)
	require.Equal(t, 2, outcome.Failed)
	require.True(t, outcome.Partial())

	require.NoError(t, outcome.Items[0].Err)
	require.True(t, errors.HasCode(outcome.Items[1].Err, errors.CodeValidation))
	require.True(t, errors.HasCode(outcome.Items[2].Err, errors.CodeForbidden), "local actor cannot register outside home unit")
	require.Error(t, outcome.Err())
}

func TestRegisterEntriesUnknownSupply(t *testing.T) {
	f := newFixture(t)
	unit := uuid.New()

	outcome, err := f.svc.RegisterEntries(context.Background(), localPrincipal(unit), []EntryInput{
		{SupplyID: uuid.New(), LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: time.Now().AddDate(1, 0, 0)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Failed)
	require.True(t, errors.HasCode(outcome.Items[0].Err, errors.CodeNotFound))
}

func TestDeductInsufficientStockReportsShortfall(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	unit := uuid.New()
	principal := localPrincipal(unit)

	outcome, err := f.svc.RegisterEntries(context.Background(), principal, []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: time.Now().AddDate(1, 0, 0)},
	})
	require.NoError(t, err)
	batch := outcome.Items[0].Batch

	_, err = f.svc.Deduct(context.Background(), principal, DeductInput{BatchID: batch.ID, Quantity: 12})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.CodeInsufficientStock))

	shortfall, ok := errors.ShortfallFrom(err)
	require.True(t, ok)
	require.Equal(t, 12, shortfall.Requested)
	require.Equal(t, 10, shortfall.Available)
	require.Equal(t, 2, shortfall.Shortfall)

	var got models.Batch
	require.NoError(t, f.conn.First(&got, "id = ?", batch.ID).Error)
	require.Equal(t, 10, got.CurrentQty, "failed deduction must not change stock")
	require.Len(t, f.movementsFor(t, batch.ID), 1, "failed deduction must not append an exit movement")
}

func TestDeductDecrementsAndRecordsExit(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	unit := uuid.New()
	principal := localPrincipal(unit)

	outcome, err := f.svc.RegisterEntries(context.Background(), principal, []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: time.Now().AddDate(1, 0, 0)},
	})
	require.NoError(t, err)
	batch := outcome.Items[0].Batch

	got, err := f.svc.Deduct(context.Background(), principal, DeductInput{BatchID: batch.ID, Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 6, got.CurrentQty)

	rows := f.movementsFor(t, batch.ID)
	require.Len(t, rows, 2)
	exit := rows[1]
	require.Equal(t, enums.MovementTypeExit, exit.Type)
	require.Equal(t, 4, exit.Quantity)
	require.Equal(t, unit, exit.OriginUnitID)
	require.Nil(t, exit.DestinationUnitID)
}

func TestDeductFromForeignUnitIsInsufficient(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	owner := uuid.New()

	outcome, err := f.svc.RegisterEntries(context.Background(), localPrincipal(owner), []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: owner, Quantity: 10, Expiry: time.Now().AddDate(1, 0, 0)},
	})
	require.NoError(t, err)
	batch := outcome.Items[0].Batch

	stranger := localPrincipal(uuid.New())
	_, err = f.svc.Deduct(context.Background(), stranger, DeductInput{BatchID: batch.ID, Quantity: 1})
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.CodeInsufficientStock))

	shortfall, ok := errors.ShortfallFrom(err)
	require.True(t, ok)
	require.Zero(t, shortfall.Available)
}

func TestSetStatusIsCentralOnly(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	unit := uuid.New()

	outcome, err := f.svc.RegisterEntries(context.Background(), localPrincipal(unit), []EntryInput{
		{SupplyID: supply.ID, LotNumber: "L1", UnitID: unit, Quantity: 10, Expiry: time.Now().AddDate(1, 0, 0)},
	})
	require.NoError(t, err)
	batch := outcome.Items[0].Batch

	_, err = f.svc.SetStatus(context.Background(), localPrincipal(unit), batch.ID, enums.BatchStatusBlocked)
	require.True(t, errors.HasCode(err, errors.CodeForbidden))

	got, err := f.svc.SetStatus(context.Background(), centralPrincipal(), batch.ID, enums.BatchStatusBlocked)
	require.NoError(t, err)
	require.Equal(t, enums.BatchStatusBlocked, got.Status)

	_, err = f.svc.SetStatus(context.Background(), centralPrincipal(), uuid.New(), enums.BatchStatusActive)
	require.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestListScopesNonCentralToHomeUnit(t *testing.T) {
	f := newFixture(t)
	supply := f.seedSupply(t)
	home := uuid.New()
	elsewhere := uuid.New()

	for _, unit := range []uuid.UUID{home, elsewhere} {
		_, err := f.svc.RegisterEntries(context.Background(), localPrincipal(unit), []EntryInput{
			{SupplyID: supply.ID, LotNumber: "L-" + unit.String()[:8], UnitID: unit, Quantity: 10, Expiry: time.Now().AddDate(1, 0, 0)},
		})
		require.NoError(t, err)
	}

	batches, err := f.svc.List(context.Background(), localPrincipal(home), ListInput{UnitID: &elsewhere})
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, home, batches[0].UnitID)

	batches, err = f.svc.List(context.Background(), centralPrincipal(), ListInput{})
	require.NoError(t, err)
	require.Len(t, batches, 2)
}
