package catalog

import (
	"context"
	"time"
)

// Model sentinels. Unknown means local extraction found nothing; NotFound is
// the model service's explicit miss. Neither is usable for matching.
const (
	ModelUnknown  = "Unknown"
	ModelNotFound = "N/A"
)

// Product is a canonical catalogue entry competitor listings attach to
type Product struct {
	ID        int64     `json:"id"`
	Brand     string    `json:"brand"`
	Model     string    `json:"model"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UsableModel reports whether the product's model number can anchor
// cross-competitor matching
func (p Product) UsableModel() bool {
	return usableModel(p.Model)
}

func usableModel(model string) bool {
	return model != "" && model != ModelUnknown && model != ModelNotFound
}

// Listing is one competitor's offer of a product, identified by competitor
// and listing URL
type Listing struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"productId"`
	CompetitorName string    `json:"competitorName"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	SKU            string    `json:"sku"`
	LastSeenPrice  float64   `json:"lastSeenPrice"`
	LastSeenRegular float64  `json:"lastSeenRegular"`
	HasPromotion   bool      `json:"hasPromotion"`
	PromotionText  string    `json:"promotionText"`
	LastSeenAt     time.Time `json:"lastSeenAt"`
}

// Snapshot is a point-in-time price observation for a listing. Appearing on
// a listing page counts as in stock; delisted products simply stop producing
// snapshots.
type Snapshot struct {
	ID           int64     `json:"id"`
	ListingID    int64     `json:"listingId"`
	Price        float64   `json:"price"`
	RegularPrice float64   `json:"regularPrice"`
	InStock      bool      `json:"inStock"`
	CapturedAt   time.Time `json:"capturedAt"`
}

// Store is the persistence boundary. The catalogue logic only needs these
// operations; the backing implementation is supplied by the embedding
// application.
type Store interface {
	ListProducts() ([]Product, error)
	GetProductByID(id int64) (Product, error)
	CreateProduct(p Product) (Product, error)
	UpdateProduct(p Product) error
	DeleteProduct(id int64) error

	ListListingsByProduct(productID int64) ([]Listing, error)
	CreateListing(l Listing) (Listing, error)
	UpdateListing(l Listing) error

	CreateSnapshot(s Snapshot) (Snapshot, error)
	GetListingHistory(listingID int64, limit int) ([]Snapshot, error)
}

// ModelService re-derives model numbers for products whose extraction came
// up empty
type ModelService interface {
	ExtractModel(ctx context.Context, title string) (string, error)
}
