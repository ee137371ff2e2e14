package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCompleted  = "COMPLETED"
)

// Product is a store catalog entry. Digital products never touch inventory.
type Product struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	IsDigital bool            `gorm:"default:false" json:"isDigital"`
	Inventory int             `gorm:"not null;default:0" json:"inventory"`
	IsActive  bool            `gorm:"default:true;index" json:"-"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Order is created once per completed checkout session.
type Order struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	StripeSessionID string          `gorm:"type:varchar(191);uniqueIndex;not null" json:"-"`
	StripePaymentID string          `gorm:"type:varchar(191)" json:"-"`
	Email           string          `gorm:"type:varchar(200);index" json:"email"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	Shipping        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"shipping"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ShippingName    string          `gorm:"type:varchar(200)" json:"shippingName,omitempty"`
	ShippingLine1   string          `gorm:"type:varchar(255)" json:"shippingLine1,omitempty"`
	ShippingLine2   string          `gorm:"type:varchar(255)" json:"shippingLine2,omitempty"`
	ShippingCity    string          `gorm:"type:varchar(100)" json:"shippingCity,omitempty"`
	ShippingState   string          `gorm:"type:varchar(100)" json:"shippingState,omitempty"`
	ShippingZip     string          `gorm:"type:varchar(20)" json:"shippingZip,omitempty"`
	ShippingCountry string          `gorm:"type:varchar(2)" json:"shippingCountry,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem keeps the catalog price captured when the order was created.
type OrderItem struct {
	ID        string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID   string          `gorm:"type:varchar(36);not null;index" json:"orderId"`
	ProductID string          `gorm:"type:varchar(36);not null;index" json:"productId"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
