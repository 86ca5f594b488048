package shopify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

// lineItemFields — поля одной страницы позиций; подставляются и в запрос
// заказа, и в догрузку хвоста пагинации.
const lineItemFields = `
	pageInfo {
		hasNextPage
		endCursor
	}
	edges {
		node {
			id
			name
			quantity
			variant {
				id
				barcode
				sku
				price
				title
			}
		}
	}`

var orderFields = fmt.Sprintf(`
	id
	name
	createdAt
	displayFulfillmentStatus
	note
	totalPriceSet {
		shopMoney {
			amount
			currencyCode
		}
	}
	customer {
		id
		firstName
		lastName
		email
	}
	shippingAddress {
		firstName
		lastName
		company
		address1
		address2
		city
		province
		provinceCode
		zip
		country
		countryCodeV2
		phone
	}
	lineItems(first: %d) {
		%s
	}`, lineItemPageSize, lineItemFields)

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type variantNode struct {
	ID      string `json:"id"`
	Barcode string `json:"barcode"`
	SKU     string `json:"sku"`
	Price   string `json:"price"`
	Title   string `json:"title"`
}

type lineItemNode struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Quantity int32        `json:"quantity"`
	Variant  *variantNode `json:"variant"`
}

type lineItemConnection struct {
	PageInfo pageInfo `json:"pageInfo"`
	Edges    []struct {
		Node lineItemNode `json:"node"`
	} `json:"edges"`
}

type customerNode struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type shippingAddressNode struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Company      string `json:"company"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	ProvinceCode string `json:"provinceCode"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
	CountryCode  string `json:"countryCodeV2"`
	Phone        string `json:"phone"`
}

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type orderNode struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	CreatedAt                string `json:"createdAt"`
	DisplayFulfillmentStatus string `json:"displayFulfillmentStatus"`
	Note                     string `json:"note"`
	TotalPriceSet            *struct {
		ShopMoney *moneyNode `json:"shopMoney"`
	} `json:"totalPriceSet"`
	Customer        *customerNode        `json:"customer"`
	ShippingAddress *shippingAddressNode `json:"shippingAddress"`
	LineItems       lineItemConnection   `json:"lineItems"`
}

// parseOrder переводит ответ API в доменный заказ. Shopify отдаёт null
// для отсутствующего покупателя, адреса и варианта; все такие поля
// сводятся к нулевым значениям.
func parseOrder(node *orderNode, items []lineItemNode) domain.Order {
	order := domain.Order{
		ID:                numericID(node.ID),
		GID:               node.ID,
		Name:              node.Name,
		FulfillmentStatus: node.DisplayFulfillmentStatus,
		Note:              node.Note,
		Currency:          "USD",
		Total:             decimal.Zero,
	}

	if createdAt, err := time.Parse(time.RFC3339, node.CreatedAt); err == nil {
		order.CreatedAt = createdAt
	}

	if node.TotalPriceSet != nil && node.TotalPriceSet.ShopMoney != nil {
		money := node.TotalPriceSet.ShopMoney
		if total, err := decimal.NewFromString(money.Amount); err == nil {
			order.Total = total
		}
		if money.CurrencyCode != "" {
			order.Currency = money.CurrencyCode
		}
	}

	if node.Customer != nil {
		name := strings.TrimSpace(node.Customer.FirstName + " " + node.Customer.LastName)
		order.Customer = domain.CustomerSnapshot{
			ID:        numericID(node.Customer.ID),
			Name:      name,
			Email:     node.Customer.Email,
			FirstName: node.Customer.FirstName,
			LastName:  node.Customer.LastName,
		}
	}

	if addr := node.ShippingAddress; addr != nil {
		order.ShippingAddress = domain.ShippingAddress{
			FirstName:    addr.FirstName,
			LastName:     addr.LastName,
			Company:      addr.Company,
			Address1:     addr.Address1,
			Address2:     addr.Address2,
			City:         addr.City,
			Province:     addr.Province,
			ProvinceCode: addr.ProvinceCode,
			Zip:          addr.Zip,
			Country:      addr.Country,
			CountryCode:  addr.CountryCode,
			Phone:        addr.Phone,
		}
	}

	order.LineItems = make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		lineItem := domain.LineItem{
			Name:     item.Name,
			Quantity: item.Quantity,
		}
		if item.Variant != nil {
			lineItem.Barcode = item.Variant.Barcode
			lineItem.SKU = item.Variant.SKU
			if price, err := decimal.NewFromString(item.Variant.Price); err == nil {
				lineItem.Price = &price
			}
		}
		order.LineItems = append(order.LineItems, lineItem)
	}

	return order
}

var _ domain.OrderSource = (*Client)(nil)
