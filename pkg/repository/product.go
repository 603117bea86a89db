package repository

import (
	"context"

	"github.com/example/shopfront/pkg/models"
	"gorm.io/gorm"
)

type ProductRepo struct {
	db *gorm.DB
}

type ProductRow struct {
	models.Product
	CategoryName string `json:"category_name"`
}

type ProductSort string

const (
	SortByName       ProductSort = "name"
	SortByPopularity ProductSort = "popularity"
)

type ProductFilter struct {
	CategoryID uint
	Search     string
	Sort       ProductSort
	Created    DateRange
}

func (r *ProductRepo) filtered(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Table("products")
	if f.CategoryID > 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("(products.name LIKE ? OR products.description LIKE ?)", like, like)
	}
	return f.Created.apply(q, "products.created_at")
}

func (r *ProductRepo) withCategory(q *gorm.DB) *gorm.DB {
	return q.Select("products.*, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = products.category_id")
}

func (r *ProductRepo) List(ctx context.Context, f ProductFilter, page Page) ([]ProductRow, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.withCategory(r.filtered(ctx, f))
	switch f.Sort {
	case SortByPopularity:
		q = q.Order("products.sales DESC").Order("products.id ASC")
	case SortByName:
		q = q.Order("products.name ASC").Order("products.id ASC")
	default:
		q = q.Order("products.created_at DESC").Order("products.id DESC")
	}

	var rows []ProductRow
	err := q.Limit(page.Limit).Offset(page.Offset).Scan(&rows).Error
	return rows, total, err
}

// MostPopular orders by sales, windowed by product creation date.
func (r *ProductRepo) MostPopular(ctx context.Context, limit int, created DateRange) ([]ProductRow, error) {
	var rows []ProductRow
	q := r.withCategory(created.apply(r.db.WithContext(ctx).Table("products"), "products.created_at"))
	err := q.Order("products.sales DESC").Order("products.id ASC").Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *ProductRepo) GetWithCategory(ctx context.Context, id uint) (*ProductRow, error) {
	var rows []ProductRow
	q := r.withCategory(r.db.WithContext(ctx).Table("products")).Where("products.id = ?", id)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetForUpdate reads the product row and locks it until the surrounding
// transaction ends.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepo) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepo) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error
}

// SetCounters writes stock and sales in one statement. Values come from a
// row read under lock.
func (r *ProductRepo) SetCounters(ctx context.Context, id uint, stock, sales int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{"stock": stock, "sales": sales}).Error
}

func (r *ProductRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}

func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// OrderedCount counts the order items referencing the product.
func (r *ProductRepo) OrderedCount(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&count).Error
	return count, err
}
