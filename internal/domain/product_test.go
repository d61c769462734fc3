package domain

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestFinalPrice_Examples(t *testing.T) {
	tests := []struct {
		price, discount, want string
	}{
		{"200", "10", "180"},
		{"100", "10", "90"},
		{"100", "0", "100"},
		{"100", "100", "0"},
		{"19.99", "15", "16.9915"},
		{"0.10", "33", "0.067"},
	}

	for _, tt := range tests {
		got := FinalPrice(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.discount))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("FinalPrice(%s, %s) = %s, want %s", tt.price, tt.discount, got, tt.want)
		}
	}
}

func TestProperty_FinalPriceIsExact(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("finalPrice + price*discount/100 equals price", prop.ForAll(
		func(cents int64, discount int64) bool {
			price := decimal.New(cents, -2)
			pct := decimal.NewFromInt(discount)

			final := FinalPrice(price, pct)
			markdown := price.Mul(pct).Div(decimal.NewFromInt(100))

			return final.Add(markdown).Equal(price)
		},
		gen.Int64Range(1, 10_000_000),
		gen.Int64Range(0, 100),
	))

	properties.Property("zero discount leaves the price untouched", prop.ForAll(
		func(cents int64) bool {
			price := decimal.New(cents, -2)
			return FinalPrice(price, decimal.Zero).Equal(price)
		},
		gen.Int64Range(1, 10_000_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductView_EncodesDecimalsAsNumbers(t *testing.T) {
	view := ProductView{
		ProductID:  1,
		Name:       "Test",
		Status:     StatusActive,
		StatusName: "Active",
		Price:      decimal.NewFromInt(200),
		Discount:   decimal.NewFromInt(10),
		FinalPrice: decimal.NewFromInt(180),
	}

	body, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("Failed to marshal view: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal view: %v", err)
	}

	for _, field := range []string{"price", "discount", "finalPrice"} {
		if _, ok := decoded[field].(float64); !ok {
			t.Errorf("Field %s should be a JSON number, got %T", field, decoded[field])
		}
	}
	if decoded["productId"] != float64(1) {
		t.Errorf("Expected productId 1, got %v", decoded["productId"])
	}
}
