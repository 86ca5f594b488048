package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

const customerColumns = `
	customer_id, COALESCE(account_no, ''), COALESCE(business_name, ''), COALESCE(contact_name, ''),
	COALESCE(ship_to, ''), COALESCE(ship_contact, ''),
	COALESCE(ship_address1, ''), COALESCE(ship_address2, ''),
	COALESCE(ship_city, ''), COALESCE(ship_state, ''), COALESCE(ship_zip_code, ''),
	COALESCE(ship_phone_no, ''), price_level, term_id, sales_rep_id`

type quotationRepository struct {
	db *sql.DB
}

// NewQuotationRepository создаёт PostgreSQL-реализацию QuotationRepository
// поверх первичного каталога.
func NewQuotationRepository(store *Store) domain.QuotationRepository {
	return &quotationRepository{db: store.DB()}
}

func (r *quotationRepository) InsertHeader(header domain.QuotationHeader) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO quotations_tbl (
			quotation_number, quotation_date, quotation_title, po_number, expiration_date,
			customer_id, business_name, account_no,
			ship_to, ship_address1, ship_address2, ship_contact,
			ship_city, ship_state, ship_zip_code, ship_phone_no,
			status, shipper_id, sales_rep_id, term_id,
			total_taxes, quotation_total,
			header, footer, notes, memo, flagged
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,
			$9,$10,$11,$12,
			$13,$14,$15,$16,
			$17,$18,$19,$20,
			$21,$22,
			$23,$24,$25,$26,$27
		)
		RETURNING quotation_id
	`,
		header.Number, header.Date, header.Title, header.PONumber, header.ExpirationDate,
		header.CustomerID, header.BusinessName, header.AccountNo,
		header.ShipTo, header.ShipAddress1, header.ShipAddress2, header.ShipContact,
		header.ShipCity, header.ShipState, header.ShipZipCode, header.ShipPhone,
		header.Status, header.ShipperID, header.SalesRepID, header.TermID,
		header.TotalTaxes, header.Total,
		header.Header, header.Footer, header.Notes, header.Memo, header.Flagged,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("quotation number %s already exists: %w", header.Number, err)
		}
		return 0, fmt.Errorf("insert quotation header: %w", err)
	}

	return id, nil
}

func (r *quotationRepository) InsertLine(headerID int64, line domain.QuotationLine) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO quotations_details_tbl (
			quotation_id, cate_id, sub_cate_id, unit_desc, unit_qty,
			product_id, product_sku, product_upc, description, item_size,
			quantity, unit_price, original_price, unit_cost,
			extended_price, extended_cost,
			weight, taxable, tax_id, expiration_date, line_message,
			remember_price, discount, discount_percent, extended_discount,
			promotion_id, promotion_line, promotion_desc, promotion_amount,
			act_extended_price, promoted, promotion_note, comments
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,$10,
			$11,$12,$13,$14,
			$15,$16,
			$17,$18,$19,$20,$21,
			$22,$23,$24,$25,
			$26,$27,$28,$29,
			$30,$31,$32,$33
		)
		RETURNING detail_id
	`,
		headerID, line.CategoryID, line.SubcategoryID, line.UnitDesc, line.UnitQty,
		line.ProductID, line.SKU, line.Barcode, line.Description, line.Size,
		line.Quantity, line.UnitPrice, line.OriginalPrice, line.UnitCost,
		line.ExtendedPrice, line.ExtendedCost,
		line.Weight, line.Taxable, line.TaxID, line.ExpirationDate, line.LineMessage,
		line.RememberPrice, line.Discount, line.DiscountPercent, line.ExtendedDiscount,
		line.PromotionID, line.PromotionLine, line.PromotionDescription, line.PromotionAmount,
		line.ActExtendedPrice, line.Promoted, line.PromotionNote, line.Comments,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quotation line: %w", err)
	}

	return id, nil
}

func (r *quotationRepository) MaxSequenceSuffix(prefix string) (int64, bool, error) {
	if prefix == "" {
		return 0, false, fmt.Errorf("sequence prefix is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Хвост после префикса обязан быть числовым: префиксы разной длины
	// пересекаются лексикографически (например "912" и "9120").
	var suffix sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT MAX(CAST(substring(quotation_number FROM $2::int) AS BIGINT))
		FROM quotations_tbl
		WHERE quotation_number LIKE $1 || '%'
		  AND substring(quotation_number FROM $2::int) ~ '^[0-9]+$'
	`, prefix, len(prefix)+1).Scan(&suffix)
	if err != nil {
		return 0, false, fmt.Errorf("scan max sequence suffix: %w", err)
	}

	if !suffix.Valid {
		return 0, false, nil
	}
	return suffix.Int64, true, nil
}

func (r *quotationRepository) GetCustomer(id int64) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s
		FROM customers_tbl
		WHERE customer_id = $1
	`, customerColumns)

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, err
	}

	return customer, nil
}

func (r *quotationRepository) ListCustomers(limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s
		FROM customers_tbl
		WHERE COALESCE(discontinued, FALSE) = FALSE
		ORDER BY business_name
		LIMIT $1
	`, customerColumns)

	return r.queryCustomers(ctx, query, limit)
}

func (r *quotationRepository) SearchCustomersByAccount(query string, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sqlQuery := fmt.Sprintf(`
		SELECT %s
		FROM customers_tbl
		WHERE COALESCE(discontinued, FALSE) = FALSE
		  AND UPPER(account_no) LIKE UPPER($1)
		ORDER BY business_name
		LIMIT $2
	`, customerColumns)

	pattern := "%" + strings.TrimSpace(query) + "%"
	return r.queryCustomers(ctx, sqlQuery, pattern, limit)
}

func (r *quotationRepository) UnitDescription(unitID int64) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var desc string
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(unit_desc, '')
		FROM units_tbl
		WHERE unit_id = $1
	`, unitID).Scan(&desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("select unit description: %w", err)
	}

	return desc, nil
}

func (r *quotationRepository) queryCustomers(ctx context.Context, query string, args ...any) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return customers, nil
}

func scanCustomer(scan func(dest ...any) error) (domain.Customer, error) {
	var (
		customer   domain.Customer
		priceLevel sql.NullInt64
		termID     sql.NullInt64
		salesRepID sql.NullInt64
	)
	if err := scan(
		&customer.ID, &customer.AccountNo, &customer.BusinessName, &customer.ContactName,
		&customer.ShipTo, &customer.ShipContact,
		&customer.ShipAddress1, &customer.ShipAddress2,
		&customer.ShipCity, &customer.ShipState, &customer.ShipZipCode,
		&customer.ShipPhone, &priceLevel, &termID, &salesRepID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, err
		}
		return domain.Customer{}, fmt.Errorf("scan customer: %w", err)
	}

	customer.PriceLevel = nullableID(priceLevel)
	customer.TermID = nullableID(termID)
	customer.SalesRepID = nullableID(salesRepID)

	return customer, nil
}

var _ domain.QuotationRepository = (*quotationRepository)(nil)
