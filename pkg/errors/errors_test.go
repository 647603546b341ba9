package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := Wrap(CodeDependency, cause, "load batch")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsThroughWrappedChain(t *testing.T) {
	inner := New(CodeNotFound, "batch not found")
	outer := fmt.Errorf("approving request: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through fmt wrap")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestInsufficientStockCarriesShortfall(t *testing.T) {
	batchID := uuid.New()
	err := InsufficientStock(StockShortfall{
		BatchID:   &batchID,
		Requested: 12,
		Available: 10,
	})

	if err.Code() != CodeInsufficientStock {
		t.Fatalf("unexpected code %s", err.Code())
	}
	details, ok := ShortfallFrom(err)
	if !ok {
		t.Fatal("expected shortfall details")
	}
	if details.Shortfall != 2 {
		t.Fatalf("expected shortfall 2, got %d", details.Shortfall)
	}
	if details.BatchID == nil || *details.BatchID != batchID {
		t.Fatalf("expected offending batch id in details")
	}
	if meta := MetadataFor(err.Code()); meta.HTTPStatus != http.StatusConflict || !meta.DetailsAllowed {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestShortfallFromRejectsOtherCodes(t *testing.T) {
	if _, ok := ShortfallFrom(New(CodeValidation, "nope")); ok {
		t.Fatal("expected no shortfall on validation error")
	}
	if _, ok := ShortfallFrom(nil); ok {
		t.Fatal("expected no shortfall on nil")
	}
}
