package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is created on the first successful identity resolution. ExternalID is
// the stable identifier supplied by the identity provider (or minted locally
// for password accounts) and never changes afterwards.
type User struct {
	ID           uuid.UUID `gorm:"primaryKey"                json:"id"`
	ExternalID   string    `gorm:"uniqueIndex;not null"      json:"external_id"`
	Email        string    `gorm:"index;not null"            json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `gorm:"column:password_hash"      json:"-"`
	Role         string    `gorm:"default:user;not null"     json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string { return "users" }

// Cart is 1:1 with its user for the user's entire lifetime. Clearing a cart
// deletes its items, never the cart row itself.
type Cart struct {
	ID        uuid.UUID `gorm:"primaryKey"           json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Cart) TableName() string { return "carts" }

// CartItem holds one product line. (cart_id, product_id) is unique so a
// repeated add merges into the existing row instead of inserting a second one.
type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                             json:"id"`
	CartID    uuid.UUID `gorm:"uniqueIndex:idx_cart_product;not null"  json:"cart_id"`
	ProductID uuid.UUID `gorm:"uniqueIndex:idx_cart_product;not null"  json:"product_id"`
	Quantity  uint      `gorm:"not null;default:1;check:quantity > 0"  json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string { return "cart_items" }

type Product struct {
	ID          uuid.UUID       `gorm:"primaryKey"          json:"id"`
	Name        string          `gorm:"not null"            json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2)"  json:"price"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Product) TableName() string { return "products" }

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// Order is the immutable post-checkout record. Total is computed once at
// creation; only Status moves afterwards, and only out of PENDING.
type Order struct {
	ID        uuid.UUID       `gorm:"primaryKey"          json:"id"`
	UserID    uuid.UUID       `gorm:"index;not null"      json:"user_id"`
	Status    OrderStatus     `gorm:"not null"            json:"status"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2)"  json:"total"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID"  json:"items,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string { return "orders" }

// OrderItem freezes name and unit price as they were at checkout time; later
// catalog changes must not show through here.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID   uuid.UUID       `gorm:"index;not null"              json:"order_id"`
	ProductID uuid.UUID       `gorm:"not null"                    json:"product_id"`
	Name      string          `gorm:"not null"                    json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2)"          json:"unit_price"`
	Quantity  uint            `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string { return "order_items" }

// All returns every entity for migration, in FK-safe creation order.
func All() []any {
	return []any{&User{}, &Cart{}, &CartItem{}, &Product{}, &Order{}, &OrderItem{}}
}
