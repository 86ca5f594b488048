package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransferStatusValid(t *testing.T) {
	tests := []struct {
		name   string
		status TransferStatus
		want   bool
	}{
		{name: "pending", status: TransferStatusPending, want: true},
		{name: "validating", status: TransferStatusValidating, want: true},
		{name: "resolved", status: TransferStatusResolved, want: true},
		{name: "rejected", status: TransferStatusRejected, want: true},
		{name: "persisting header", status: TransferStatusPersistingHeader, want: true},
		{name: "persisting lines", status: TransferStatusPersistingLines, want: true},
		{name: "success", status: TransferStatusSuccess, want: true},
		{name: "partial failure", status: TransferStatusPartialFailure, want: true},
		{name: "invalid", status: TransferStatus("broken"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Valid(); got != tc.want {
				t.Fatalf("status %q valid=%v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestTransferStatusTerminal(t *testing.T) {
	terminal := []TransferStatus{TransferStatusRejected, TransferStatusSuccess, TransferStatusPartialFailure}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}

	inFlight := []TransferStatus{TransferStatusPending, TransferStatusValidating, TransferStatusResolved, TransferStatusPersistingHeader, TransferStatusPersistingLines}
	for _, s := range inFlight {
		if s.Terminal() {
			t.Fatalf("expected %q to be non-terminal", s)
		}
	}
}

func TestSummarize(t *testing.T) {
	outcomes := []TransferOutcome{
		{OrderID: "1", Success: true},
		{OrderID: "2", Success: false},
		{OrderID: "3", Success: true},
	}

	summary := Summarize(outcomes)
	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestValidationResultTotal(t *testing.T) {
	price := decimal.RequireFromString("9.99")
	result := ValidationResult{
		Valid: true,
		Products: []ResolvedProduct{
			{Product: CatalogProduct{ID: 1}, Quantity: 2, Price: price},
			{Product: CatalogProduct{ID: 1}, Quantity: 3, Price: price},
		},
	}

	want := decimal.RequireFromString("49.95")
	if got := result.Total(); !got.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, got)
	}
}
