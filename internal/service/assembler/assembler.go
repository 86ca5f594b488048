// Package assembler собирает заголовок и строки котировки из заказа источника,
// покупателя и дефолтов магазина. Функции чистые: время передаётся аргументом,
// персист выполняет оркестратор.
package assembler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// DefaultTitlePrefix применяется, когда магазин не задал префикс заголовка.
const DefaultTitlePrefix = "Shopify Order"

// lineExpirationDays — срок действия строки. Фиксированный, в отличие от
// настраиваемого срока заголовка.
const lineExpirationDays = 365

// BuildHeader собирает заголовок котировки.
//
// Строковые поля молча обрезаются до лимитов схемы. SalesRepID и TermID
// покупателя перекрывают дефолты магазина. ShipAddress2 и ShipPhone всегда
// пустые: источник их не поставляет в пригодном виде.
func BuildHeader(order domain.Order, customer domain.Customer, defaults domain.StoreDefaults, number string, now time.Time) domain.QuotationHeader {
	addr := order.ShippingAddress

	prefix := defaults.TitlePrefix
	if prefix == "" {
		prefix = DefaultTitlePrefix
	}

	status := defaults.Status
	if status == 0 {
		status = 1
	}

	salesRepID := defaults.SalesRepID
	if customer.SalesRepID != nil {
		salesRepID = customer.SalesRepID
	}
	termID := defaults.TermID
	if customer.TermID != nil {
		termID = customer.TermID
	}

	return domain.QuotationHeader{
		Number:         number,
		Date:           now,
		Title:          domain.Truncate(fmt.Sprintf("%s %s", prefix, order.Name), domain.MaxTitleLen),
		PONumber:       domain.Truncate(order.Name, domain.MaxPONumberLen),
		ExpirationDate: now.AddDate(0, 0, defaults.EffectiveExpirationDays()),

		CustomerID:   customer.ID,
		BusinessName: domain.Truncate(customer.BusinessName, domain.MaxBusinessLen),
		AccountNo:    domain.Truncate(customer.AccountNo, domain.MaxAccountNoLen),

		ShipTo:       domain.Truncate(addr.ShipToName(), domain.MaxShipToLen),
		ShipAddress1: domain.Truncate(addr.Address1, domain.MaxAddressLen),
		ShipAddress2: "",
		ShipContact:  domain.Truncate(addr.ContactName(), domain.MaxContactLen),
		ShipCity:     domain.Truncate(addr.City, domain.MaxCityLen),
		ShipState:    domain.Truncate(addr.ProvinceCode, domain.MaxStateLen),
		ShipZipCode:  domain.Truncate(addr.Zip, domain.MaxZipLen),
		ShipPhone:    "",

		Status:     status,
		ShipperID:  defaults.ShipperID,
		SalesRepID: salesRepID,
		TermID:     termID,

		TotalTaxes: decimal.Zero,
		Total:      decimal.Zero,
	}
}

// BuildLine собирает строку котировки из разрешённой позиции.
//
// Цена позиции уже выбрана резолвером (заказ перекрывает каталог);
// OriginalPrice — каталожная цена, а при её отсутствии цена позиции.
// Срок действия строки фиксированный: now + 365 дней.
func BuildLine(product domain.ResolvedProduct, unitDesc string, now time.Time) domain.QuotationLine {
	p := product.Product

	qty := product.Quantity
	if qty <= 0 {
		qty = 1
	}

	unitPrice := product.Price
	originalPrice := p.UnitPrice
	if originalPrice.IsZero() {
		originalPrice = unitPrice
	}

	qtyDec := decimal.NewFromInt32(qty)

	return domain.QuotationLine{
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		UnitDesc:      domain.Truncate(unitDesc, domain.MaxUnitDescLen),
		UnitQty:       1,

		ProductID:   p.ID,
		SKU:         domain.Truncate(p.SKU, domain.MaxSKULen),
		Barcode:     domain.Truncate(p.Barcode, domain.MaxBarcodeLen),
		Description: domain.Truncate(p.Description, domain.MaxDescriptionLen),
		Size:        "",

		Quantity:      qty,
		UnitPrice:     unitPrice,
		OriginalPrice: originalPrice,
		UnitCost:      p.UnitCost,

		ExtendedPrice: qtyDec.Mul(unitPrice),
		ExtendedCost:  qtyDec.Mul(p.UnitCost),

		Weight:  domain.Truncate(p.Weight, domain.MaxWeightLen),
		Taxable: false,
		TaxID:   p.TaxID,

		ExpirationDate: now.AddDate(0, 0, lineExpirationDays),
		LineMessage:    "",

		RememberPrice:        false,
		Discount:             decimal.Zero,
		DiscountPercent:      decimal.Zero,
		ExtendedDiscount:     decimal.Zero,
		PromotionID:          nil,
		PromotionLine:        0,
		PromotionDescription: "",
		PromotionAmount:      decimal.Zero,
		ActExtendedPrice:     decimal.Zero,
		Promoted:             false,
		PromotionNote:        "",
		Comments:             "",
	}
}
