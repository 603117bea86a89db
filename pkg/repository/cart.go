package repository

import (
	"context"

	"github.com/example/shopfront/pkg/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartRepo struct {
	db *gorm.DB
}

// CartLine is a cart item joined with the product it points at.
type CartLine struct {
	models.CartItem
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ProductStock int             `json:"product_stock"`
	ImagePath    *string         `json:"image_path"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (r *CartRepo) Lines(ctx context.Context, userID uint) ([]CartLine, error) {
	var lines []CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.*, products.name AS product_name, products.price AS product_price, " +
			"products.stock AS product_stock, products.image_path AS image_path").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.id ASC").
		Scan(&lines).Error
	return lines, err
}

// ItemsForUpdate locks the user's cart rows until the surrounding
// transaction ends, so two checkouts cannot consume the same cart.
func (r *CartRepo) ItemsForUpdate(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := forUpdate(r.db.WithContext(ctx)).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *CartRepo) GetByID(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CartRepo) Find(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CartRepo) Create(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *CartRepo) SetQuantity(ctx context.Context, id uint, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).
		Update("quantity", quantity).Error
}

// Delete removes one cart line. A line that is already gone yields
// gorm.ErrRecordNotFound.
func (r *CartRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (r *CartRepo) DeleteByProduct(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.CartItem{}).Error
}

func (r *CartRepo) Count(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
