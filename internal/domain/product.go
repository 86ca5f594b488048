package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem представляет одну позицию заказа из внешнего источника.
// Все поля приходят как есть; нормализация выполняется при резолвинге.
type LineItem struct {
	// Barcode — внешний штрихкод товара; может быть пустым.
	Barcode string
	// SKU — артикул товара в источнике.
	SKU string
	// Name — отображаемое название позиции.
	Name string
	// Quantity — количество единиц; 0 трактуется как 1 при сборке строки.
	Quantity int32
	// Price — цена из заказа; nil или ноль означает "не указана",
	// fallback на цену каталога.
	Price *decimal.Decimal
}

// NormalizedBarcode возвращает штрихкод без окружающих пробелов.
func (li LineItem) NormalizedBarcode() string {
	return strings.TrimSpace(li.Barcode)
}

// CatalogProduct — каноническая запись товара в каталоге (первичном или вторичном).
type CatalogProduct struct {
	ID            int64
	CategoryID    *int64
	SubcategoryID *int64
	SKU           string
	// Barcode — уникальный ключ для batch-поиска.
	Barcode     string
	Description string
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
	Size        string
	Weight      string
	UnitID      *int64
	TaxID       *int64
	// Promoted наследуется при копировании; при отсутствии во вторичном каталоге — false.
	Promoted bool
}

// ResolvedProduct — запись каталога, наложенная на позицию заказа.
// Живёт только в рамках одного резолвинга и не персистится.
type ResolvedProduct struct {
	Product  CatalogProduct
	Quantity int32
	// Price — эффективная цена позиции: цена заказа, либо цена каталога.
	Price decimal.Decimal
}

// ExtendedPrice возвращает сумму позиции: количество × эффективная цена.
func (rp ResolvedProduct) ExtendedPrice() decimal.Decimal {
	return rp.Price.Mul(decimal.NewFromInt32(rp.Quantity))
}

// Причины, с которыми позиция попадает в список missing.
const (
	// MissingReasonNoBarcode — источник не передал штрихкод.
	MissingReasonNoBarcode = "no identifier provided"
	// MissingReasonNotFound — штрихкод отсутствует и во вторичном каталоге.
	MissingReasonNotFound = "not found in secondary catalog"
)

// MissingBarcodePlaceholder подставляется вместо пустого штрихкода в отчётах.
const MissingBarcodePlaceholder = "NONE"

// MissingItem описывает позицию, которую не удалось привязать к каталогу.
type MissingItem struct {
	Barcode  string
	Name     string
	SKU      string
	Quantity int32
	Reason   string
}

// CopiedItem описывает товар, скопированный из вторичного каталога в первичный.
type CopiedItem struct {
	Barcode   string
	Name      string
	ProductID int64
}

// ValidationResult агрегирует итог одного вызова резолвера.
// После возврата не мутируется.
type ValidationResult struct {
	// Valid == false тогда и только тогда, когда хотя бы одна позиция не разрешилась.
	Valid    bool
	Products []ResolvedProduct
	Missing  []MissingItem
	Copied   []CopiedItem
	Errors   []string
}

// MissingBarcodes возвращает список штрихкодов из missing-записей для сообщений об ошибке.
func (vr ValidationResult) MissingBarcodes() []string {
	codes := make([]string, 0, len(vr.Missing))
	for _, m := range vr.Missing {
		codes = append(codes, m.Barcode)
	}
	return codes
}

// Total возвращает сумму по всем разрешённым позициям.
func (vr ValidationResult) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range vr.Products {
		total = total.Add(p.ExtendedPrice())
	}
	return total
}
