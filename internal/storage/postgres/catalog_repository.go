package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// productColumns — колонки items_tbl в порядке сканирования scanProduct.
// Текстовые и ценовые колонки оборачиваются в COALESCE: в унаследованных
// каталогах они бывают NULL.
const productColumns = `
	product_id, cate_id, sub_cate_id,
	COALESCE(product_sku, ''), COALESCE(product_upc, ''), COALESCE(product_description, ''),
	COALESCE(unit_price, 0), COALESCE(unit_cost, 0),
	COALESCE(item_size, ''), COALESCE(item_weight, ''),
	unit_id, item_tax_id, COALESCE(sp_promoted, FALSE)`

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
// Первичный и вторичный каталоги — два экземпляра на разных Store.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

func (r *catalogRepository) GetByBarcodes(barcodes []string) (map[string]domain.CatalogProduct, error) {
	found := make(map[string]domain.CatalogProduct, len(barcodes))
	if len(barcodes) == 0 {
		return found, nil
	}

	placeholders := make([]string, len(barcodes))
	args := make([]any, len(barcodes))
	for i, barcode := range barcodes {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = barcode
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s
		FROM items_tbl
		WHERE product_upc IN (%s)
	`, productColumns, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products by barcodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		found[product.Barcode] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return found, nil
}

func (r *catalogRepository) GetByBarcode(barcode string) (domain.CatalogProduct, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s
		FROM items_tbl
		WHERE product_upc = $1
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, barcode).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CatalogProduct{}, domain.ErrProductNotFound
		}
		return domain.CatalogProduct{}, err
	}

	return product, nil
}

func (r *catalogRepository) Insert(product domain.CatalogProduct) (domain.CatalogProduct, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO items_tbl (
			cate_id, sub_cate_id, product_sku, product_upc, product_description,
			unit_price, unit_cost, item_size, item_weight, unit_id, item_tax_id, sp_promoted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING product_id
	`,
		product.CategoryID, product.SubcategoryID, product.SKU, product.Barcode, product.Description,
		product.UnitPrice, product.UnitCost, product.Size, product.Weight,
		product.UnitID, product.TaxID, product.Promoted,
	).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.CatalogProduct{}, fmt.Errorf("product with barcode %s already exists: %w", product.Barcode, err)
		}
		return domain.CatalogProduct{}, fmt.Errorf("insert product: %w", err)
	}

	return product, nil
}

func scanProduct(scan func(dest ...any) error) (domain.CatalogProduct, error) {
	var (
		product       domain.CatalogProduct
		categoryID    sql.NullInt64
		subcategoryID sql.NullInt64
		unitID        sql.NullInt64
		taxID         sql.NullInt64
	)
	if err := scan(
		&product.ID, &categoryID, &subcategoryID,
		&product.SKU, &product.Barcode, &product.Description,
		&product.UnitPrice, &product.UnitCost,
		&product.Size, &product.Weight,
		&unitID, &taxID, &product.Promoted,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CatalogProduct{}, err
		}
		return domain.CatalogProduct{}, fmt.Errorf("scan product: %w", err)
	}

	product.CategoryID = nullableID(categoryID)
	product.SubcategoryID = nullableID(subcategoryID)
	product.UnitID = nullableID(unitID)
	product.TaxID = nullableID(taxID)

	return product, nil
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
