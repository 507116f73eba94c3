// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	BaseModel
	UserID uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Status OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	Items []OrderItem `json:"order_items" gorm:"foreignKey:OrderID"`

	ShippingAddress JSONB  `json:"shipping_address" gorm:"type:jsonb;not null"`
	PaymentMethod   string `json:"payment_method" gorm:"size:50;not null"`

	ItemsPrice    float64 `json:"items_price" gorm:"type:decimal(10,2);not null"`
	TaxPrice      float64 `json:"tax_price" gorm:"type:decimal(10,2);not null"`
	ShippingPrice float64 `json:"shipping_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice    float64 `json:"total_price" gorm:"type:decimal(10,2);not null"`

	IsPaid        bool       `json:"is_paid" gorm:"default:false"`
	PaidAt        *time.Time `json:"paid_at"`
	PaymentResult JSONB      `json:"payment_result,omitempty" gorm:"type:jsonb"`

	IsDelivered bool       `json:"is_delivered" gorm:"default:false"`
	DeliveredAt *time.Time `json:"delivered_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// OrderItem is a point-in-time snapshot of the purchased product. Price,
// name and image are copied at order creation and never re-read from the
// live catalog, so later product edits do not alter historical orders.
type OrderItem struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Image     string    `json:"image" gorm:"size:512"`
	Price     float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
