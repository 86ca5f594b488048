package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/qts/internal/domain"
	"github.com/vladislavdragonenkov/qts/internal/storage/memory"
)

func TestCatalogRepository_GetByBarcodes(t *testing.T) {
	repo := memory.NewCatalogRepository()
	repo.Seed(
		domain.CatalogProduct{Barcode: "111", SKU: "A", UnitPrice: decimal.NewFromFloat(9.99)},
		domain.CatalogProduct{Barcode: "222", SKU: "B", UnitPrice: decimal.NewFromFloat(4.50)},
	)

	found, err := repo.GetByBarcodes([]string{"111", "333"})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 product, got %d", len(found))
	}
	if found["111"].SKU != "A" {
		t.Fatalf("expected sku A, got %s", found["111"].SKU)
	}
}

func TestCatalogRepository_InsertAssignsID(t *testing.T) {
	repo := memory.NewCatalogRepository()

	created, err := repo.Insert(domain.CatalogProduct{Barcode: "555", SKU: "C"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	stored, err := repo.GetByBarcode("555")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, stored.ID)
	}
}

func TestCatalogRepository_GetByBarcodeNotFound(t *testing.T) {
	repo := memory.NewCatalogRepository()

	if _, err := repo.GetByBarcode("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestQuotationRepository_InsertHeaderAndLines(t *testing.T) {
	repo := memory.NewQuotationRepository()

	headerID, err := repo.InsertHeader(domain.QuotationHeader{Number: "911202611"})
	if err != nil {
		t.Fatalf("insert header failed: %v", err)
	}

	if _, err := repo.InsertLine(headerID, domain.QuotationLine{SKU: "A", Quantity: 2}); err != nil {
		t.Fatalf("insert line failed: %v", err)
	}
	if _, err := repo.InsertLine(headerID, domain.QuotationLine{SKU: "B", Quantity: 1}); err != nil {
		t.Fatalf("insert line failed: %v", err)
	}

	lines := repo.Lines(headerID)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].HeaderID != headerID {
		t.Fatalf("expected header id %d, got %d", headerID, lines[0].HeaderID)
	}
}

func TestQuotationRepository_MaxSequenceSuffix(t *testing.T) {
	repo := memory.NewQuotationRepository()
	repo.SeedHeaderNumber("9112026111")
	repo.SeedHeaderNumber("9112026112")
	repo.SeedHeaderNumber("912202615") // same day next year prefix, ignored

	suffix, ok, err := repo.MaxSequenceSuffix("91120261")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !ok {
		t.Fatal("expected suffix to be found")
	}
	if suffix != 12 {
		t.Fatalf("expected suffix 12, got %d", suffix)
	}
}

func TestQuotationRepository_MaxSequenceSuffixEmpty(t *testing.T) {
	repo := memory.NewQuotationRepository()

	_, ok, err := repo.MaxSequenceSuffix("91120261")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if ok {
		t.Fatal("expected no suffix for empty repository")
	}
}

func TestQuotationRepository_Customers(t *testing.T) {
	repo := memory.NewQuotationRepository()
	repo.SeedCustomer(domain.Customer{ID: 7, BusinessName: "Acme", AccountNo: "ACM-001"})
	repo.SeedCustomer(domain.Customer{ID: 8, BusinessName: "Zenith", AccountNo: "ZEN-002"})

	customer, err := repo.GetCustomer(7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if customer.BusinessName != "Acme" {
		t.Fatalf("expected Acme, got %s", customer.BusinessName)
	}

	if _, err := repo.GetCustomer(99); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	matches, err := repo.SearchCustomersByAccount("zen", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != 8 {
		t.Fatalf("expected customer 8, got %+v", matches)
	}
}

func TestLedger_HasSuccessfulTransfer(t *testing.T) {
	ledger := memory.NewLedger()

	done, err := ledger.HasSuccessfulTransfer(1, "order-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if done {
		t.Fatal("expected no transfer before recording")
	}

	if _, err := ledger.Record(domain.TransferRecord{
		StoreID: 1,
		OrderID: "order-1",
		Status:  domain.LedgerStatusFailed,
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	done, err = ledger.HasSuccessfulTransfer(1, "order-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if done {
		t.Fatal("failed record must not count as a successful transfer")
	}

	if _, err := ledger.Record(domain.TransferRecord{
		StoreID: 1,
		OrderID: "order-1",
		Status:  domain.LedgerStatusSuccess,
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	done, err = ledger.HasSuccessfulTransfer(1, "order-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !done {
		t.Fatal("expected successful transfer to be visible")
	}
}

func TestLedger_ListFiltersAndOrder(t *testing.T) {
	ledger := memory.NewLedger()
	base := time.Now().UTC()

	for i, status := range []string{domain.LedgerStatusSuccess, domain.LedgerStatusFailed, domain.LedgerStatusSuccess} {
		if _, err := ledger.Record(domain.TransferRecord{
			StoreID:       1,
			OrderID:       "order",
			Status:        status,
			TransferredAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	records, err := ledger.List(domain.LedgerFilter{Status: domain.LedgerStatusSuccess})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].TransferredAt.Before(records[1].TransferredAt) {
		t.Fatal("expected newest record first")
	}
}

func TestLedger_DeleteFailed(t *testing.T) {
	ledger := memory.NewLedger()
	for _, r := range []domain.TransferRecord{
		{StoreID: 1, OrderID: "a", Status: domain.LedgerStatusFailed},
		{StoreID: 2, OrderID: "b", Status: domain.LedgerStatusFailed},
		{StoreID: 1, OrderID: "c", Status: domain.LedgerStatusSuccess},
	} {
		if _, err := ledger.Record(r); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	storeID := int64(1)
	deleted, err := ledger.DeleteFailed(&storeID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	deleted, err = ledger.DeleteFailed(nil)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	records, err := ledger.List(domain.LedgerFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 || records[0].Status != domain.LedgerStatusSuccess {
		t.Fatalf("expected only the successful record to remain, got %+v", records)
	}
}

func TestSettingsStore_StoreLifecycle(t *testing.T) {
	store := memory.NewSettingsStore()

	id, err := store.CreateStore("main", "main.myshopify.com", "token")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "renamed"
	if err := store.UpdateStore(id, domain.SourceStorePatch{Name: &name}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	st, err := store.GetStore(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if st.Name != "renamed" || st.ShopURL != "main.myshopify.com" {
		t.Fatalf("unexpected store after patch: %+v", st)
	}

	if err := store.DeleteStore(id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.GetStore(id); !errors.Is(err, domain.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestSettingsStore_MissingConfiguration(t *testing.T) {
	store := memory.NewSettingsStore()

	if _, err := store.StoreDefaults(1); !errors.Is(err, domain.ErrStoreDefaultsMissing) {
		t.Fatalf("expected ErrStoreDefaultsMissing, got %v", err)
	}
	if _, err := store.CustomerMapping(1); !errors.Is(err, domain.ErrCustomerMappingMissing) {
		t.Fatalf("expected ErrCustomerMappingMissing, got %v", err)
	}
	if _, err := store.CatalogConnection(domain.CatalogRolePrimary); !errors.Is(err, domain.ErrCatalogConnectionMissing) {
		t.Fatalf("expected ErrCatalogConnectionMissing, got %v", err)
	}
}

func TestSettingsStore_Upserts(t *testing.T) {
	store := memory.NewSettingsStore()

	if err := store.UpsertStoreDefaults(1, domain.StoreDefaults{TitlePrefix: "Shopify Order ", RoutingID: "1"}); err != nil {
		t.Fatalf("upsert defaults failed: %v", err)
	}
	if err := store.UpsertCustomerMapping(1, domain.CustomerMapping{CustomerID: 42, BusinessName: "Acme"}); err != nil {
		t.Fatalf("upsert mapping failed: %v", err)
	}
	if err := store.UpsertCatalogConnection(domain.CatalogConnection{Role: domain.CatalogRolePrimary, Host: "db1"}); err != nil {
		t.Fatalf("upsert connection failed: %v", err)
	}

	defaults, err := store.StoreDefaults(1)
	if err != nil {
		t.Fatalf("defaults failed: %v", err)
	}
	if defaults.TitlePrefix != "Shopify Order " {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}

	mapping, err := store.CustomerMapping(1)
	if err != nil {
		t.Fatalf("mapping failed: %v", err)
	}
	if mapping.CustomerID != 42 {
		t.Fatalf("unexpected mapping: %+v", mapping)
	}

	conn, err := store.CatalogConnection(domain.CatalogRolePrimary)
	if err != nil {
		t.Fatalf("connection failed: %v", err)
	}
	if conn.Host != "db1" {
		t.Fatalf("unexpected connection: %+v", conn)
	}
}
