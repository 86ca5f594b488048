package domain

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Лимиты длины строковых полей котировки. Значения повторяют схему
// Quotations_tbl/QuotationsDetails_tbl; обрезка молчаливая, без ошибок.
const (
	MaxTitleLen       = 50
	MaxPONumberLen    = 20
	MaxBusinessLen    = 50
	MaxAccountNoLen   = 13
	MaxShipToLen      = 50
	MaxAddressLen     = 50
	MaxContactLen     = 50
	MaxCityLen        = 20
	MaxStateLen       = 3
	MaxZipLen         = 10
	MaxSKULen         = 20
	MaxBarcodeLen     = 20
	MaxDescriptionLen = 50
	MaxUnitDescLen    = 50
	MaxWeightLen      = 10
)

// Truncate обрезает строку до max символов; хвост отбрасывается молча.
// Граница считается в рунах: разрез по байтам породил бы невалидный
// UTF-8 на многобайтовых значениях.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// QuotationHeader — заголовок котировки, создаваемый в первичном каталоге.
type QuotationHeader struct {
	ID             int64
	Number         string
	Date           time.Time
	Title          string
	PONumber       string
	ExpirationDate time.Time

	CustomerID   int64
	BusinessName string
	AccountNo    string

	ShipTo       string
	ShipAddress1 string
	ShipAddress2 string
	ShipContact  string
	ShipCity     string
	ShipState    string
	ShipZipCode  string
	ShipPhone    string

	Status     int32
	ShipperID  *int64
	SalesRepID *int64
	TermID     *int64

	TotalTaxes decimal.Decimal
	// Total вычисляется оркестратором по разрешённым позициям и
	// записывается сюда до персиста.
	Total decimal.Decimal

	Header  string
	Footer  string
	Notes   string
	Memo    string
	Flagged bool
}

// QuotationLine — строка котировки; ссылается на заголовок по внешнему ключу.
type QuotationLine struct {
	ID       int64
	HeaderID int64

	CategoryID    *int64
	SubcategoryID *int64
	UnitDesc      string
	UnitQty       int32

	ProductID   int64
	SKU         string
	Barcode     string
	Description string
	Size        string

	Quantity      int32
	UnitPrice     decimal.Decimal
	OriginalPrice decimal.Decimal
	UnitCost      decimal.Decimal

	ExtendedPrice decimal.Decimal
	ExtendedCost  decimal.Decimal

	Weight  string
	Taxable bool
	TaxID   *int64

	ExpirationDate time.Time
	LineMessage    string

	// Фиксированные бизнес-дефолты; на текущий момент не настраиваются.
	RememberPrice        bool
	Discount             decimal.Decimal
	DiscountPercent      decimal.Decimal
	ExtendedDiscount     decimal.Decimal
	PromotionID          *int64
	PromotionLine        int32
	PromotionDescription string
	PromotionAmount      decimal.Decimal
	ActExtendedPrice     decimal.Decimal
	Promoted             bool
	PromotionNote        string
	Comments             string
}

// StoreDefaults — настройки котировок магазина из конфигурационного хранилища.
type StoreDefaults struct {
	Status      int32
	ShipperID   *int64
	SalesRepID  *int64
	TermID      *int64
	TitlePrefix string
	// ExpirationDays — срок действия заголовка; 0 трактуется как 365.
	ExpirationDays int
	// RoutingID — односимвольный идентификатор базы в номере документа.
	RoutingID string
}

// DefaultExpirationDays применяется, когда магазин не задал срок действия.
const DefaultExpirationDays = 365

// EffectiveExpirationDays возвращает настроенный срок действия или дефолт.
func (d StoreDefaults) EffectiveExpirationDays() int {
	if d.ExpirationDays <= 0 {
		return DefaultExpirationDays
	}
	return d.ExpirationDays
}

// EffectiveRoutingID возвращает идентификатор базы или "1" по умолчанию.
func (d StoreDefaults) EffectiveRoutingID() string {
	if d.RoutingID == "" {
		return "1"
	}
	return d.RoutingID
}

// CustomerMapping связывает магазин источника с покупателем BackOffice.
type CustomerMapping struct {
	CustomerID   int64
	BusinessName string
}

// CatalogRole различает роли каталожных подключений.
type CatalogRole string

const (
	// CatalogRolePrimary — авторитетный каталог, цель копирования.
	CatalogRolePrimary CatalogRole = "backoffice"
	// CatalogRoleSecondary — резервный источник, опрашивается только по промахам.
	CatalogRoleSecondary CatalogRole = "inventory"
)

// Valid проверяет, что роль относится к поддерживаемым значениям.
func (r CatalogRole) Valid() bool {
	return r == CatalogRolePrimary || r == CatalogRoleSecondary
}

// CatalogConnection — дескриптор подключения к каталожной базе.
// Пароль хранится зашифрованным и расшифровывается конфигурационным слоем.
type CatalogConnection struct {
	Role     CatalogRole
	Host     string
	Port     int
	Database string
	Username string
	Password string
}
