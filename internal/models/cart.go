package models

import "github.com/shopspring/decimal"

// RestaurantRef identifies the restaurant a cart is tied to.
type RestaurantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CartLineItem is one selected menu item. JSON keys match the stored client format.
type CartLineItem struct {
	MenuItemID int64           `json:"menu_item"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l CartLineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the pre-checkout selection for a single restaurant.
type Cart struct {
	Restaurant *RestaurantRef  `json:"restaurant"`
	Items      []CartLineItem  `json:"items"`
	Total      decimal.Decimal `json:"total"`
}

// CartTotal sums the subtotals of items.
func CartTotal(items []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
