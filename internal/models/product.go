// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	Name        string         `json:"name" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	SKU         string         `json:"sku" gorm:"uniqueIndex;size:100;not null"`
	Brand       string         `json:"brand" gorm:"size:100"`
	Category    string         `json:"category" gorm:"size:100;index"`
	Price       float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	SalePrice   *float64       `json:"sale_price,omitempty" gorm:"type:decimal(10,2)"`
	SaleEndsAt  *time.Time     `json:"sale_ends_at,omitempty"`
	Stock       int            `json:"stock" gorm:"not null;default:0"`
	IsActive    bool           `json:"is_active" gorm:"default:true;index"`
	Featured    bool           `json:"featured" gorm:"default:false"`
	NewArrival  bool           `json:"new_arrival" gorm:"default:false"`
	Images      pq.StringArray `json:"images" gorm:"type:text[]"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`

	// Derived from the ratings table, recomputed on every rating write.
	// Never set directly.
	AverageRating float64 `json:"average_rating" gorm:"type:decimal(3,2);default:0"`
	TotalRatings  int64   `json:"total_ratings" gorm:"default:0"`

	// Relationships
	Variations []Variation `json:"variations,omitempty" gorm:"foreignKey:ProductID"`
	Ratings    []Rating    `json:"ratings,omitempty" gorm:"foreignKey:ProductID"`
}

// PrimaryImage is the image snapshotted onto order line items.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// A variation is a named axis (e.g. "size") whose options carry their own
// price, stock and SKU. Option stock is an independent counter from the
// product's top-level stock.
type Variation struct {
	BaseModel
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"size:100;not null"`

	Options []VariationOption `json:"options,omitempty" gorm:"foreignKey:VariationID"`
}

type VariationOption struct {
	BaseModel
	VariationID uuid.UUID `json:"variation_id" gorm:"type:uuid;not null;index"`
	Value       string    `json:"value" gorm:"size:100;not null"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);default:0"`
	Stock       int       `json:"stock" gorm:"not null;default:0"`
	SKU         string    `json:"sku" gorm:"size:100"`
}

// Rating is one user's review of one product. At most one row per
// (product, user); re-rating overwrites in place.
type Rating struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_product_user"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_product_user"`
	Rating    int       `json:"rating" gorm:"not null"`
	Review    string    `json:"review" gorm:"type:text"`
	RatedAt   time.Time `json:"rated_at" gorm:"not null"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
