package repository

import (
	"context"

	"github.com/example/shopfront/pkg/models"
	"gorm.io/gorm"
)

type PaymentRepo struct {
	db *gorm.DB
}

func (r *PaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepo) ByOrder(ctx context.Context, orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&payments).Error
	return payments, err
}

// ByUser lists payments of every order the user owns, newest first.
func (r *PaymentRepo) ByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Table("payments").
		Select("payments.*").
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("orders.user_id = ?", userID).
		Order("payments.created_at DESC").
		Order("payments.id DESC").
		Scan(&payments).Error
	return payments, err
}
