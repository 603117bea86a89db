package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Sales       int             `gorm:"not null;default:0;index" json:"sales"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	ImagePath   *string         `gorm:"type:varchar(255)" json:"image_path"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)

type Payment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"not null;index" json:"order_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	CardLastFour  string          `gorm:"type:varchar(4)" json:"card_last_four"`
	Status        PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	TransactionID string          `gorm:"type:varchar(255);not null" json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
	}
}
