package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&models.Batch{}))

	return &Client{conn: conn}
}

func seedBatch(t *testing.T, conn *gorm.DB, qty int) models.Batch {
	t.Helper()

	batch := models.Batch{
		ID:         uuid.New(),
		SupplyID:   uuid.New(),
		LotNumber:  "L-001",
		UnitID:     uuid.New(),
		InitialQty: qty,
		CurrentQty: qty,
		ExpiryDate: time.Now().AddDate(1, 0, 0),
		Status:     enums.BatchStatusActive,
	}
	require.NoError(t, conn.Create(&batch).Error)
	return batch
}

func TestWithTxCommits(t *testing.T) {
	client := newTestClient(t)
	batch := seedBatch(t, client.conn, 10)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Model(&models.Batch{}).
			Where("id = ?", batch.ID).
			Update("current_qty", 7).Error
	})
	require.NoError(t, err)

	var got models.Batch
	require.NoError(t, client.conn.First(&got, "id = ?", batch.ID).Error)
	require.Equal(t, 7, got.CurrentQty)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t)
	batch := seedBatch(t, client.conn, 10)

	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Model(&models.Batch{}).
			Where("id = ?", batch.ID).
			Update("current_qty", 0).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var got models.Batch
	require.NoError(t, client.conn.First(&got, "id = ?", batch.ID).Error)
	require.Equal(t, 10, got.CurrentQty)
}
