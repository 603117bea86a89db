package repository

import (
	"context"

	"github.com/example/shopfront/pkg/models"
	"gorm.io/gorm"
)

type CategoryRepo struct {
	db *gorm.DB
}

type CategoryWithCount struct {
	models.Category
	ProductCount int64 `json:"product_count"`
}

func (r *CategoryRepo) countQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("categories").
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id")
}

func (r *CategoryRepo) List(ctx context.Context) ([]CategoryWithCount, error) {
	var rows []CategoryWithCount
	err := r.countQuery(ctx).Order("categories.name ASC").Scan(&rows).Error
	return rows, err
}

func (r *CategoryRepo) Get(ctx context.Context, id uint) (*CategoryWithCount, error) {
	var rows []CategoryWithCount
	if err := r.countQuery(ctx).Where("categories.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// ExistsForUpdate reports whether the category exists and locks its row
// until the surrounding transaction ends.
func (r *CategoryRepo) ExistsForUpdate(ctx context.Context, id uint) (bool, error) {
	var ids []uint
	err := forUpdate(r.db.WithContext(ctx)).Model(&models.Category{}).Where("id = ?", id).Pluck("id", &ids).Error
	return len(ids) > 0, err
}

func (r *CategoryRepo) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CategoryRepo) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates).Error
}

func (r *CategoryRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

func (r *CategoryRepo) CountProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}
