package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/internal/movements"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

func newFixture(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Supply{}, &models.Batch{}, &models.Movement{}))

	svc, err := NewService(NewRepository(conn), movements.NewRepository(conn), 30)
	require.NoError(t, err)
	return svc, conn
}

func seedStock(t *testing.T, conn *gorm.DB, unitID uuid.UUID, name string, qty int, cost float64) models.Supply {
	t.Helper()

	supply := models.Supply{
		ID:            uuid.New(),
		Name:          name,
		UnitOfMeasure: "unit",
		UnitCost:      decimal.NewFromFloat(cost),
	}
	require.NoError(t, conn.Create(&supply).Error)
	require.NoError(t, conn.Create(&models.Batch{
		ID:         uuid.New(),
		SupplyID:   supply.ID,
		LotNumber:  "L-" + uuid.NewString()[:8],
		UnitID:     unitID,
		InitialQty: qty,
		CurrentQty: qty,
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		Status:     enums.BatchStatusActive,
	}).Error)
	return supply
}

func TestStockValuation(t *testing.T) {
	svc, conn := newFixture(t)
	unit := uuid.New()
	otherUnit := uuid.New()

	seedStock(t, conn, unit, "gloves", 10, 2.50)
	seedStock(t, conn, unit, "saline", 4, 8.00)
	seedStock(t, conn, otherUnit, "masks", 100, 1.00)

	central := authz.Principal{UserID: uuid.New(), UnitID: uuid.New(), Role: enums.UserRoleCentralWarehouse}
	ctx := context.Background()

	valuation, err := svc.StockValuation(ctx, central, &unit)
	require.NoError(t, err)
	require.Len(t, valuation.Items, 2)
	require.True(t, valuation.TotalValue.Equal(decimal.NewFromFloat(57.00)), "got %s", valuation.TotalValue)

	// Without a filter central sees everything.
	valuation, err = svc.StockValuation(ctx, central, nil)
	require.NoError(t, err)
	require.True(t, valuation.TotalValue.Equal(decimal.NewFromFloat(157.00)))

	// Non-central callers are pinned to their home unit.
	manager := authz.Principal{UserID: uuid.New(), UnitID: unit, Role: enums.UserRoleManager}
	valuation, err = svc.StockValuation(ctx, manager, &otherUnit)
	require.NoError(t, err)
	require.True(t, valuation.TotalValue.Equal(decimal.NewFromFloat(57.00)))
}

func TestMovementSummary(t *testing.T) {
	svc, conn := newFixture(t)
	unit := uuid.New()
	supply := seedStock(t, conn, unit, "gauze", 5, 1.00)

	var batch models.Batch
	require.NoError(t, conn.First(&batch, "supply_id = ?", supply.ID).Error)

	for _, m := range []models.Movement{
		{ID: uuid.New(), BatchID: batch.ID, Type: enums.MovementTypeEntry, Quantity: 5, ResponsibleID: uuid.New(), OriginUnitID: unit, DestinationUnitID: &unit},
		{ID: uuid.New(), BatchID: batch.ID, Type: enums.MovementTypeExit, Quantity: 2, ResponsibleID: uuid.New(), OriginUnitID: unit},
	} {
		require.NoError(t, conn.Create(&m).Error)
	}

	central := authz.Principal{UserID: uuid.New(), UnitID: uuid.New(), Role: enums.UserRoleCentralWarehouse}
	summary, err := svc.MovementSummary(context.Background(), central, &unit, 0)
	require.NoError(t, err)
	require.Equal(t, 5, summary.TotalsByType[enums.MovementTypeEntry.String()])
	require.Equal(t, 2, summary.TotalsByType[enums.MovementTypeExit.String()])
	require.EqualValues(t, 0, summary.ExpiringBatches, "stock expiring next year is outside the 30 day horizon")
}
