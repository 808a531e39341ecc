package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a purchasable catalog record stored in the `products` table.
// Discount is a whole percentage between 0 and 100; the discounted price is
// always computed and never stored.
type Product struct {
	ID          uint64          `json:"id"`          // products.id
	Name        string          `json:"name"`        // products.name
	Brand       string          `json:"brand"`       // products.brand
	Price       decimal.Decimal `json:"price"`       // products.price DECIMAL(10,2)
	Discount    int             `json:"discount"`    // products.discount (percent)
	Quantity    int             `json:"quantity"`    // products.quantity (stock)
	Description string          `json:"description"` // products.description
	Category    string          `json:"category"`    // products.category
	Warranty    *string         `json:"warranty"`    // products.warranty (nullable)
	Image       *string         `json:"image"`       // products.image (nullable, storage reference)
	CreatedAt   time.Time       `json:"created_at"`  // products.created_at
}

var hundred = decimal.NewFromInt(100)

// DiscountedPrice returns price × (1 − discount/100) rounded to cents.
func (p Product) DiscountedPrice() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(p.Discount)).Div(hundred))
	return p.Price.Mul(factor).Round(2)
}

// ProductSales is one row of the most-selling ranking.
type ProductSales struct {
	ProductID    uint64  `json:"product"`
	Name         string  `json:"name"`
	Image        *string `json:"image"`
	QuantitySold int64   `json:"quantity_sold"`
}

// SalesStats aggregates the admin dashboard figures.
type SalesStats struct {
	TotalOrders         int64           `json:"total_orders"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	BestProduct         *ProductSales   `json:"best_product"`
	MostSellingProducts []ProductSales  `json:"most_selling_products"`
}
