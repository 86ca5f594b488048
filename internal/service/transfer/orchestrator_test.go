package transfer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/service/resolver"
	"github.com/vladislavdragonenkov/qts/internal/service/sequence"
	"github.com/vladislavdragonenkov/qts/internal/service/transfer"
	"github.com/vladislavdragonenkov/qts/internal/storage/memory"
)

// stubSource serves orders from a map and counts fetches.
type stubSource struct {
	orders     map[string]domain.Order
	fetchCalls int
}

func (s *stubSource) GetOrder(id string) (domain.Order, error) {
	s.fetchCalls++
	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *stubSource) ListUnfulfilled(daysBack int) ([]domain.Order, error) {
	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		result = append(result, order)
	}
	return result, nil
}

func (s *stubSource) TestConnection() (string, error) { return "stub store", nil }

// flakyQuotations wraps the memory repository with failure injection.
type flakyQuotations struct {
	*memory.QuotationRepository
	failHeader   bool
	failLineSKUs map[string]bool
	failAllLines bool
}

func (f *flakyQuotations) InsertHeader(header domain.QuotationHeader) (int64, error) {
	if f.failHeader {
		return 0, errors.New("header insert denied")
	}
	return f.QuotationRepository.InsertHeader(header)
}

func (f *flakyQuotations) InsertLine(headerID int64, line domain.QuotationLine) (int64, error) {
	if f.failAllLines || f.failLineSKUs[line.SKU] {
		return 0, errors.New("line insert denied")
	}
	return f.QuotationRepository.InsertLine(headerID, line)
}

type fixture struct {
	source     *stubSource
	settings   *memory.SettingsStore
	ledger     *memory.Ledger
	quotations *flakyQuotations
	primary    *memory.CatalogRepository
	secondary  *memory.CatalogRepository
	orch       transfer.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	quotations := &flakyQuotations{
		QuotationRepository: memory.NewQuotationRepository(),
		failLineSKUs:        make(map[string]bool),
	}
	quotations.SeedCustomer(domain.Customer{ID: 42, AccountNo: "ACM-001", BusinessName: "Acme Wholesale"})
	quotations.SeedCustomer(domain.Customer{ID: 77, AccountNo: "ZEN-002", BusinessName: "Zenith Ltd"})

	settings := memory.NewSettingsStore()
	if err := settings.UpsertStoreDefaults(1, domain.StoreDefaults{TitlePrefix: "Shopify Order", RoutingID: "1"}); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}
	if err := settings.UpsertCustomerMapping(1, domain.CustomerMapping{CustomerID: 42, BusinessName: "Acme Wholesale"}); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}

	primary := memory.NewCatalogRepository()
	primary.Seed(
		domain.CatalogProduct{Barcode: "111", SKU: "A", Description: "Widget", UnitPrice: decimal.NewFromFloat(9.99)},
		domain.CatalogProduct{Barcode: "222", SKU: "B", Description: "Gadget", UnitPrice: decimal.NewFromFloat(5.00)},
	)
	secondary := memory.NewCatalogRepository()

	source := &stubSource{orders: map[string]domain.Order{
		"6000001": {
			ID:   "6000001",
			Name: "#1001",
			LineItems: []domain.LineItem{
				{Barcode: "111", SKU: "A", Name: "Widget", Quantity: 2},
				{Barcode: "222", SKU: "B", Name: "Gadget", Quantity: 1},
			},
		},
	}}

	ledger := memory.NewLedger()

	orch := transfer.NewOrchestratorWithoutMetrics(
		source,
		settings,
		ledger,
		quotations,
		resolver.New(primary, secondary, nil),
		sequence.New(quotations, nil),
		nil,
	)

	return &fixture{
		source:     source,
		settings:   settings,
		ledger:     ledger,
		quotations: quotations,
		primary:    primary,
		secondary:  secondary,
		orch:       orch,
	}
}

func TestTransferOrder_Success(t *testing.T) {
	f := newFixture(t)

	outcome := f.orch.TransferOrder(1, "6000001", nil)

	if !outcome.Success {
		t.Fatalf("expected success, got error: %s", outcome.Err)
	}
	if outcome.AlreadyDone {
		t.Fatal("first transfer must not be marked as already done")
	}
	if outcome.LineCount != 2 {
		t.Fatalf("expected 2 lines, got %d", outcome.LineCount)
	}
	// 2 * 9.99 + 1 * 5.00
	if !outcome.Total.Equal(decimal.NewFromFloat(24.98)) {
		t.Fatalf("expected total 24.98, got %s", outcome.Total)
	}
	if outcome.DocumentNumber == "" {
		t.Fatal("expected a document number")
	}

	headers := f.quotations.Headers()
	if len(headers) != 1 {
		t.Fatalf("expected 1 header, got %d", len(headers))
	}
	header := headers[0]
	if header.Number != outcome.DocumentNumber {
		t.Fatalf("header number %s does not match outcome %s", header.Number, outcome.DocumentNumber)
	}
	if !header.Total.Equal(outcome.Total) {
		t.Fatalf("header total %s does not match outcome %s", header.Total, outcome.Total)
	}
	if header.CustomerID != 42 {
		t.Fatalf("expected mapped customer 42, got %d", header.CustomerID)
	}
	if len(f.quotations.Lines(header.ID)) != 2 {
		t.Fatal("expected 2 persisted lines")
	}

	records, err := f.ledger.List(domain.LedgerFilter{})
	if err != nil {
		t.Fatalf("ledger list failed: %v", err)
	}
	if len(records) != 1 || records[0].Status != domain.LedgerStatusSuccess {
		t.Fatalf("expected a single success ledger record, got %+v", records)
	}
	if records[0].DocumentNumber != outcome.DocumentNumber {
		t.Fatal("ledger record must carry the document number")
	}
}

func TestTransferOrder_Idempotent(t *testing.T) {
	f := newFixture(t)

	first := f.orch.TransferOrder(1, "6000001", nil)
	if !first.Success {
		t.Fatalf("first transfer failed: %s", first.Err)
	}

	second := f.orch.TransferOrder(1, "6000001", nil)
	if !second.Success || !second.AlreadyDone {
		t.Fatalf("expected already-done outcome, got %+v", second)
	}

	if len(f.quotations.Headers()) != 1 {
		t.Fatal("repeat transfer must not create another header")
	}
	records, _ := f.ledger.List(domain.LedgerFilter{})
	if len(records) != 1 {
		t.Fatalf("repeat transfer must not add ledger records, got %d", len(records))
	}
}

func TestTransferOrder_FailedAttemptDoesNotBlockRetry(t *testing.T) {
	f := newFixture(t)
	f.quotations.failHeader = true

	first := f.orch.TransferOrder(1, "6000001", nil)
	if first.Success {
		t.Fatal("expected failure with broken header insert")
	}

	f.quotations.failHeader = false
	second := f.orch.TransferOrder(1, "6000001", nil)
	if !second.Success || second.AlreadyDone {
		t.Fatalf("retry after failure must run the full transfer, got %+v", second)
	}
}

func TestTransferOrder_RejectedKeepsBackOfficeUntouched(t *testing.T) {
	f := newFixture(t)
	f.source.orders["6000002"] = domain.Order{
		ID:   "6000002",
		Name: "#1002",
		LineItems: []domain.LineItem{
			{Barcode: "999", SKU: "X", Name: "Ghost", Quantity: 1},
		},
	}

	outcome := f.orch.TransferOrder(1, "6000002", nil)

	if outcome.Success {
		t.Fatal("expected rejection for unresolvable product")
	}
	if !strings.Contains(outcome.Err, "not found in any catalog") {
		t.Fatalf("expected not-found reason in error, got %q", outcome.Err)
	}
	if len(f.quotations.Headers()) != 0 {
		t.Fatal("rejected order must not create a header")
	}

	records, _ := f.ledger.List(domain.LedgerFilter{})
	if len(records) != 1 || records[0].Status != domain.LedgerStatusFailed {
		t.Fatalf("expected a failed ledger record, got %+v", records)
	}
}

func TestTransferOrder_HeaderFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.quotations.failHeader = true

	outcome := f.orch.TransferOrder(1, "6000001", nil)

	if outcome.Success {
		t.Fatal("expected failure when header insert fails")
	}
	if len(f.quotations.Headers()) != 0 {
		t.Fatal("no header may exist after a failed insert")
	}

	records, _ := f.ledger.List(domain.LedgerFilter{})
	if len(records) != 1 || records[0].Status != domain.LedgerStatusFailed {
		t.Fatalf("expected a failed ledger record, got %+v", records)
	}
}

func TestTransferOrder_LineFailureTolerated(t *testing.T) {
	f := newFixture(t)
	f.quotations.failLineSKUs["A"] = true

	outcome := f.orch.TransferOrder(1, "6000001", nil)

	if !outcome.Success {
		t.Fatalf("expected success with one surviving line, got %s", outcome.Err)
	}
	if outcome.LineCount != 1 {
		t.Fatalf("expected 1 persisted line, got %d", outcome.LineCount)
	}

	headers := f.quotations.Headers()
	if len(headers) != 1 {
		t.Fatalf("expected 1 header, got %d", len(headers))
	}
	lines := f.quotations.Lines(headers[0].ID)
	if len(lines) != 1 || lines[0].SKU != "B" {
		t.Fatalf("expected only sku B line, got %+v", lines)
	}
}

func TestTransferOrder_ZeroLinesIsFailureWithHeaderKept(t *testing.T) {
	f := newFixture(t)
	f.quotations.failAllLines = true

	outcome := f.orch.TransferOrder(1, "6000001", nil)

	if outcome.Success {
		t.Fatal("expected failure when no lines persist")
	}
	if !strings.Contains(outcome.Err, "no quotation lines") && !strings.Contains(outcome.Err, domain.ErrNoLinesPersisted.Error()) {
		t.Fatalf("unexpected error %q", outcome.Err)
	}
	// Заголовок не откатывается.
	if len(f.quotations.Headers()) != 1 {
		t.Fatal("header must be kept when line persistence fails")
	}

	records, _ := f.ledger.List(domain.LedgerFilter{})
	if len(records) != 1 || records[0].Status != domain.LedgerStatusFailed {
		t.Fatalf("expected a failed ledger record, got %+v", records)
	}
}

func TestTransferOrder_CustomerOverride(t *testing.T) {
	f := newFixture(t)
	override := int64(77)

	outcome := f.orch.TransferOrder(1, "6000001", &override)

	if !outcome.Success {
		t.Fatalf("transfer failed: %s", outcome.Err)
	}
	headers := f.quotations.Headers()
	if headers[0].CustomerID != 77 {
		t.Fatalf("expected override customer 77, got %d", headers[0].CustomerID)
	}
	if headers[0].BusinessName != "Zenith Ltd" {
		t.Fatalf("expected override customer business name, got %q", headers[0].BusinessName)
	}
}

func TestTransferOrder_MissingConfiguration(t *testing.T) {
	f := newFixture(t)

	outcome := f.orch.TransferOrder(2, "6000001", nil)

	if outcome.Success {
		t.Fatal("expected failure for unconfigured store")
	}
	if !strings.Contains(outcome.Err, domain.ErrStoreDefaultsMissing.Error()) {
		t.Fatalf("unexpected error %q", outcome.Err)
	}
	if len(f.quotations.Headers()) != 0 {
		t.Fatal("unconfigured store must not create headers")
	}
}

func TestTransferOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	outcome := f.orch.TransferOrder(1, "nope", nil)

	if outcome.Success {
		t.Fatal("expected failure for unknown order")
	}
	records, _ := f.ledger.List(domain.LedgerFilter{})
	if len(records) != 1 || records[0].Status != domain.LedgerStatusFailed {
		t.Fatalf("expected a failed ledger record, got %+v", records)
	}
}

func TestTransferBatch_SequentialWithPerOrderOutcomes(t *testing.T) {
	f := newFixture(t)
	f.source.orders["6000002"] = domain.Order{
		ID:   "6000002",
		Name: "#1002",
		LineItems: []domain.LineItem{
			{Barcode: "999", SKU: "X", Name: "Ghost", Quantity: 1},
		},
	}
	f.source.orders["6000003"] = domain.Order{
		ID:   "6000003",
		Name: "#1003",
		LineItems: []domain.LineItem{
			{Barcode: "111", SKU: "A", Name: "Widget", Quantity: 1},
		},
	}

	outcomes, summary := f.orch.TransferBatch(1, []string{"6000001", "6000002", "6000003"}, nil)

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	// Отказ второго заказа не прервал третий.
	if !outcomes[2].Success {
		t.Fatalf("third order should transfer despite second failing: %s", outcomes[2].Err)
	}
	if outcomes[0].OrderID != "6000001" || outcomes[1].OrderID != "6000002" || outcomes[2].OrderID != "6000003" {
		t.Fatal("outcomes must preserve the batch order")
	}
	// Номера документов уникальны в пределах батча.
	if outcomes[0].DocumentNumber == outcomes[2].DocumentNumber {
		t.Fatal("document numbers must be unique")
	}

	records, _ := f.ledger.List(domain.LedgerFilter{})
	if len(records) != 3 {
		t.Fatalf("expected 3 ledger records, got %d", len(records))
	}
}

func TestTransferBatch_RepeatSkipsTransferredOrders(t *testing.T) {
	f := newFixture(t)

	if _, summary := f.orch.TransferBatch(1, []string{"6000001"}, nil); summary.Succeeded != 1 {
		t.Fatal("seed transfer failed")
	}

	outcomes, summary := f.orch.TransferBatch(1, []string{"6000001"}, nil)
	if summary.Succeeded != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !outcomes[0].AlreadyDone {
		t.Fatal("repeated order must be reported as already done")
	}
	if len(f.quotations.Headers()) != 1 {
		t.Fatal("repeat batch must not create headers")
	}
}
