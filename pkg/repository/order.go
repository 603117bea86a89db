package repository

import (
	"context"
	"time"

	"github.com/example/shopfront/pkg/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepo struct {
	db *gorm.DB
}

type OrderFilter struct {
	UserID  uint
	Status  models.OrderStatus
	Created DateRange
}

// OrderRow is an order joined with its owner and the number of items.
type OrderRow struct {
	models.Order
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
	ItemCount int64  `json:"item_count"`
}

// OrderItemRow is an order item joined with the product name.
type OrderItemRow struct {
	models.OrderItem
	ProductName string  `json:"product_name"`
	ImagePath   *string `json:"image_path"`
}

func (r *OrderRepo) filtered(ctx context.Context, f OrderFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Table("orders")
	if f.UserID > 0 {
		q = q.Where("orders.user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	return f.Created.apply(q, "orders.created_at")
}

func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *OrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *OrderRepo) ItemRows(ctx context.Context, orderID uint) ([]OrderItemRow, error) {
	var rows []OrderItemRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.*, products.name AS product_name, products.image_path AS image_path").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", orderID).
		Order("order_items.id ASC").
		Scan(&rows).Error
	return rows, err
}

// List returns the newest orders first. A zero page limit returns every match.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter, page Page) ([]OrderRow, error) {
	q := r.filtered(ctx, f).
		Select("orders.*, users.email AS user_email, users.name AS user_name, " +
			"(SELECT COUNT(*) FROM order_items WHERE order_items.order_id = orders.id) AS item_count").
		Joins("LEFT JOIN users ON users.id = orders.user_id").
		Order("orders.created_at DESC").
		Order("orders.id DESC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit).Offset(page.Offset)
	}

	var rows []OrderRow
	err := q.Scan(&rows).Error
	return rows, err
}

// Totals returns the number of matching orders and the sum of their totals.
func (r *OrderRepo) Totals(ctx context.Context, f OrderFilter) (int64, decimal.Decimal, error) {
	var count int64
	if err := r.filtered(ctx, f).Count(&count).Error; err != nil {
		return 0, decimal.Zero, err
	}

	var sum decimal.Decimal
	row := r.filtered(ctx, f).Select("COALESCE(SUM(orders.total_amount), 0)").Row()
	if err := row.Scan(&sum); err != nil {
		return 0, decimal.Zero, err
	}
	return count, sum, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": at}).Error
}

// Delete removes the order with its items and payments.
func (r *OrderRepo) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Order{}).Error
}

func (r *OrderRepo) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
