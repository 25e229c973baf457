package ingestion

import (
	"encoding/json"
	"strings"
)

// Order: подмножество заказа WooCommerce, которое нам нужно.
type Order struct {
	ID        json.Number `json:"id"`
	Status    string      `json:"status"`
	Currency  string      `json:"currency"`
	Total     string      `json:"total"`
	Billing   Address     `json:"billing"`
	Shipping  Address     `json:"shipping"`
	LineItems []LineItem  `json:"line_items"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type LineItem struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Total    string      `json:"total"`
}

// OrderID returns the decimal order id, or "" when the payload carries none.
func (o *Order) OrderID() string {
	return strings.TrimSpace(o.ID.String())
}

func (o *Order) RecipientName() string {
	return strings.TrimSpace(o.Billing.FirstName + " " + o.Billing.LastName)
}
