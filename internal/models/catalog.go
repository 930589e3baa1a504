package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category groups products.
type Category struct {
	BaseModel
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	Products    []Product `json:"products,omitempty"`
}

// Product is a catalog item. The checkout core only reads products.
type Product struct {
	BaseModel
	CategoryID     uuid.UUID        `gorm:"type:uuid;index" json:"category_id"`
	Category       *Category        `json:"category,omitempty"`
	Name           string           `json:"name"`
	Slug           string           `gorm:"uniqueIndex" json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `gorm:"type:numeric(10,2)" json:"price"`
	DiscountPrice  *decimal.Decimal `gorm:"type:numeric(10,2)" json:"discount_price,omitempty"`
	Fabric         string           `json:"fabric"`
	Color          string           `json:"color"`
	AvailableSizes string           `json:"available_sizes"`
	Stock          int              `json:"stock"`
	IsAvailable    bool             `gorm:"default:true" json:"is_available"`
	IsFeatured     bool             `json:"is_featured"`
	Images         []ProductImage   `json:"images,omitempty"`
}

// FinalPrice returns the discounted price when one is set.
func (p *Product) FinalPrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

// InStock reports whether the product can currently be purchased.
func (p *Product) InStock() bool {
	return p.Stock > 0 && p.IsAvailable
}

// ProductImage holds a product image URL.
type ProductImage struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	ImageURL  string    `json:"image_url"`
	AltText   string    `json:"alt_text"`
	IsPrimary bool      `json:"is_primary"`
	SortOrder int       `json:"sort_order"`
}
