package model

import (
	"fmt"
	"time"
)

// MenuKind is the closed set of concession item variants.
type MenuKind string

const (
	MenuCombo MenuKind = "combo"
	MenuSnack MenuKind = "snack"
	MenuDrink MenuKind = "drink"
	MenuCandy MenuKind = "candy"
)

func ParseMenuKind(s string) (MenuKind, error) {
	switch k := MenuKind(s); k {
	case MenuCombo, MenuSnack, MenuDrink, MenuCandy:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown menu kind %q", ErrInvalidInput, s)
}

// MenuItem is a concession product.  Stock is decremented by orders and
// restored when an order is cancelled.
type MenuItem struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Kind      MenuKind  `json:"kind"`
	Price     int       `json:"price"`
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderLine freezes the name and unit price of an item at order time.
type OrderLine struct {
	ItemID    uint64 `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// FoodOrder is a paid concession order.  Total is the sum of the lines
// and equals the amount of its payment.
type FoodOrder struct {
	ID          uint64        `json:"id"`
	UserID      uint64        `json:"user_id"`
	Lines       []OrderLine   `json:"lines"`
	Total       int           `json:"total"`
	Method      PaymentMethod `json:"method"`
	PaymentID   uint64        `json:"payment_id,omitempty"`
	Status      OrderStatus   `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}
