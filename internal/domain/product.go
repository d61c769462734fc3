package domain

import (
	"github.com/shopspring/decimal"
)

// Decimals are encoded as JSON numbers rather than quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product status codes
const (
	StatusInactive = 0
	StatusActive   = 1
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `json:"productId" db:"product_id"`
	Name        string          `json:"name" db:"name"`
	Status      int             `json:"status" db:"status"`
	Stock       int             `json:"stock" db:"stock"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

// ProductRequest carries the writable product fields
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,notblank,max=100"`
	Status      int             `json:"status" validate:"oneof=0 1"`
	Stock       int             `json:"stock" validate:"gte=0,lte=2147483647"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gt=0,scale=2,lt=10000000000000000"`
}

// ProductView is a product decorated with its status name, discount and final price.
// It is assembled per request and never stored.
type ProductView struct {
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	Status      int             `json:"status"`
	StatusName  string          `json:"statusName"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	FinalPrice  decimal.Decimal `json:"finalPrice"`
}

// FinalPrice applies a percentage discount to price: price - price*discount/100.
func FinalPrice(price, discount decimal.Decimal) decimal.Decimal {
	return price.Sub(price.Mul(discount).Div(decimal.NewFromInt(100)))
}
