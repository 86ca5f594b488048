package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerSnapshot — данные покупателя, присланные вместе с заказом источника.
// Это снимок на момент заказа, не запись BackOffice.
type CustomerSnapshot struct {
	ID        string
	Name      string
	Email     string
	FirstName string
	LastName  string
}

// ShippingAddress — адрес доставки из заказа источника.
type ShippingAddress struct {
	FirstName    string
	LastName     string
	Company      string
	Address1     string
	Address2     string
	City         string
	Province     string
	ProvinceCode string
	Zip          string
	Country      string
	CountryCode  string
	Phone        string
}

// ContactName склеивает имя и фамилию получателя.
func (a ShippingAddress) ContactName() string {
	name := a.FirstName
	if a.LastName != "" {
		if name != "" {
			name += " "
		}
		name += a.LastName
	}
	return name
}

// ShipToName возвращает компанию, а при её отсутствии — контактное имя.
func (a ShippingAddress) ShipToName() string {
	if a.Company != "" {
		return a.Company
	}
	return a.ContactName()
}

// Order агрегирует заказ внешнего источника в том виде, в котором его
// потребляет conveyor переноса: идентификация, снимок покупателя, адрес и позиции.
type Order struct {
	// ID — числовой идентификатор заказа в источнике (строкой).
	ID string
	// GID — полный GraphQL-идентификатор.
	GID string
	// Name — человекочитаемый номер вида "#1001".
	Name              string
	CreatedAt         time.Time
	FulfillmentStatus string
	Note              string
	// Total — заявленная источником сумма заказа; используется в ledger при отказе.
	Total           decimal.Decimal
	Currency        string
	Customer        CustomerSnapshot
	ShippingAddress ShippingAddress
	LineItems       []LineItem
}

// Customer — запись покупателя в первичном каталоге (BackOffice).
type Customer struct {
	ID           int64
	AccountNo    string
	BusinessName string
	ContactName  string
	ShipTo       string
	ShipContact  string
	ShipAddress1 string
	ShipAddress2 string
	ShipCity     string
	ShipState    string
	ShipZipCode  string
	ShipPhone    string
	PriceLevel   *int64
	// TermID и SalesRepID перекрывают дефолты магазина при сборке заголовка.
	TermID     *int64
	SalesRepID *int64
}
