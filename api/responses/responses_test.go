package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/types"
)

func TestWriteSuccessEnvelopesPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, map[string]any{"status": "ok"}, envelope.Data)
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found"))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, string(pkgerrors.CodeNotFound), envelope.Error.Code)
	require.Equal(t, "batch not found", envelope.Error.Message)
}

func TestWriteErrorExposesShortfallDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	batchID := uuid.New()
	WriteError(context.Background(), nil, rec, pkgerrors.InsufficientStock(pkgerrors.StockShortfall{
		BatchID:   &batchID,
		Requested: 8,
		Available: 5,
	}))

	require.Equal(t, http.StatusConflict, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, string(pkgerrors.CodeInsufficientStock), envelope.Error.Code)

	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 3, details["shortfall"])
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "connection string leaked here"))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotContains(t, envelope.Error.Message, "connection string")
}
