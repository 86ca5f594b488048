package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// CatalogRepository — in-memory реализация domain.CatalogRepository
// для локальной разработки и тестов.
type CatalogRepository struct {
	mu        sync.RWMutex
	nextID    int64
	byBarcode map[string]domain.CatalogProduct
}

// NewCatalogRepository возвращает пустой in-memory каталог.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		nextID:    1,
		byBarcode: make(map[string]domain.CatalogProduct),
	}
}

// Seed заполняет каталог товарами как есть, сохраняя их ID.
func (r *CatalogRepository) Seed(products ...domain.CatalogProduct) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range products {
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.byBarcode[p.Barcode] = p
	}
}

// GetByBarcodes возвращает товары по списку штрихкодов одним обращением.
func (r *CatalogRepository) GetByBarcodes(barcodes []string) (map[string]domain.CatalogProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make(map[string]domain.CatalogProduct, len(barcodes))
	for _, barcode := range barcodes {
		if p, ok := r.byBarcode[barcode]; ok {
			found[barcode] = p
		}
	}
	return found, nil
}

// GetByBarcode возвращает товар или ErrProductNotFound.
func (r *CatalogRepository) GetByBarcode(barcode string) (domain.CatalogProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byBarcode[barcode]
	if !ok {
		return domain.CatalogProduct{}, domain.ErrProductNotFound
	}
	return p, nil
}

// Insert сохраняет товар, присваивая новый ID.
func (r *CatalogRepository) Insert(product domain.CatalogProduct) (domain.CatalogProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = r.nextID
	r.nextID++
	r.byBarcode[product.Barcode] = product
	return product, nil
}

var _ domain.CatalogRepository = (*CatalogRepository)(nil)
