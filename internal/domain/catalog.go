package domain

import "time"

// Collection is a brand/collection page on the shop. ShopID is the shop's own
// stable identifier (natural key); ID is the local surrogate key.
type Collection struct {
	ID        int64     `json:"id"`
	ShopID    int64     `json:"shop_id"`
	ShopURL   string    `json:"shop_url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID        int64     `json:"id"`
	ShopID    int64     `json:"shop_id"`
	ShopURL   string    `json:"shop_url"`
	Title     string    `json:"title"`
	PreOrder  bool      `json:"pre_order"`
	Limited   bool      `json:"limited"`
	Price     int64     `json:"price"` // minor currency units
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Combination is a purchasable variant of a product (a specific size).
// ProductShopID references Product.ShopID, not the surrogate id, so variants
// survive re-scrapes that never touch surrogate keys.
type Combination struct {
	ID            int64     `json:"id"`
	ShopID        int64     `json:"shop_id"`
	Number        int       `json:"number"`
	Size          *string   `json:"size"`
	Price         int64     `json:"price"`
	ProductShopID int64     `json:"product_shop_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CollectionRecord is a collection as extracted from the shop's brand index
// page, before it has a surrogate id.
type CollectionRecord struct {
	ShopID  int64
	ShopURL string
	Title   string
}

// ProductRecord is a product as extracted from a listing page.
type ProductRecord struct {
	ShopID   int64
	ShopURL  string
	Title    string
	PreOrder bool
	Limited  bool
	Price    int64
	ImageURL string
}

// CombinationRecord is a variant as extracted from a listing page.
type CombinationRecord struct {
	ShopID        int64
	Number        int
	Size          *string
	Price         int64
	ProductShopID int64
}
