package service

import (
	"context"
	"strings"

	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPopularLimit = 20
	MaxPopularLimit     = 50
)

type CatalogService struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewCatalogService(store *repository.Store, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

type ProductQuery struct {
	Page       int
	Limit      int
	CategoryID uint
	Search     string
	Sort       string
	StartDate  string
	EndDate    string
}

type ProductPage struct {
	Products   []repository.ProductRow
	Pagination Pagination
}

// ProductInput holds the fields of a create or a partial update; nil
// fields are left alone on update.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *uint
	ImagePath   *string
}

type CategoryInput struct {
	Name        *string
	Description *string
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	rng, err := ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	f := repository.ProductFilter{
		CategoryID: q.CategoryID,
		Search:     strings.TrimSpace(q.Search),
		Created:    rng,
	}
	switch q.Sort {
	case "", "newest":
	case string(repository.SortByName), string(repository.SortByPopularity):
		f.Sort = repository.ProductSort(q.Sort)
	default:
		return nil, validationf("sort must be name or popularity")
	}

	page, limit := NormalizePage(q.Page, q.Limit)
	rows, total, err := s.store.Products.List(ctx, f, window(page, limit))
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: rows, Pagination: NewPagination(total, page, limit)}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*repository.ProductRow, error) {
	row, err := s.store.Products.GetWithCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return row, nil
}

// PopularProducts lists best sellers; limit defaults to DefaultPopularLimit
// and is capped at MaxPopularLimit.
func (s *CatalogService) PopularProducts(ctx context.Context, limit int, startDate, endDate string) ([]repository.ProductRow, error) {
	rng, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.store.Products.MostPopular(ctx, popularLimit(limit), rng)
}

func popularLimit(limit int) int {
	if limit < 1 {
		return DefaultPopularLimit
	}
	if limit > MaxPopularLimit {
		return MaxPopularLimit
	}
	return limit
}

// requireCategory locks the category row so it cannot be deleted while a
// product is being pointed at it.
func requireCategory(ctx context.Context, tx *repository.Store, id uint) error {
	ok, err := tx.Categories.ExistsForUpdate(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return validationf("category %d does not exist", id)
	}
	return nil
}

func validateProductFields(in ProductInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return validationf("name must not be empty")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return validationf("price must not be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return validationf("stock must not be negative")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*repository.ProductRow, error) {
	switch {
	case in.Name == nil:
		return nil, validationf("name is required")
	case in.Price == nil:
		return nil, validationf("price is required")
	case in.Stock == nil:
		return nil, validationf("stock is required")
	case in.CategoryID == nil:
		return nil, validationf("category_id is required")
	}
	if err := validateProductFields(in); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(*in.Name),
		Description: in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
		CategoryID:  *in.CategoryID,
		ImagePath:   in.ImagePath,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := requireCategory(ctx, tx, product.CategoryID); err != nil {
			return err
		}
		return tx.Products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))
	return s.GetProduct(ctx, product.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*repository.ProductRow, error) {
	if _, err := s.store.Products.GetByID(ctx, id); err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if err := validateProductFields(in); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.ImagePath != nil {
		updates["image_path"] = *in.ImagePath
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}

	if len(updates) > 0 {
		err := s.store.Transaction(ctx, func(tx *repository.Store) error {
			if in.CategoryID != nil {
				if err := requireCategory(ctx, tx, *in.CategoryID); err != nil {
					return err
				}
			}
			return tx.Products.Update(ctx, id, updates)
		})
		if err != nil {
			return nil, err
		}
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct refuses products that appear in orders and drops the cart
// lines pointing at the product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Products.GetForUpdate(ctx, id); err != nil {
			return notFound(err, ErrProductNotFound)
		}
		ordered, err := tx.Products.OrderedCount(ctx, id)
		if err != nil {
			return err
		}
		if ordered > 0 {
			return ErrProductOrdered
		}
		if err := tx.Carts.DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return tx.Products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.Uint("product_id", id))
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]repository.CategoryWithCount, error) {
	return s.store.Categories.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*repository.CategoryWithCount, error) {
	row, err := s.store.Categories.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	return row, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*repository.CategoryWithCount, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, validationf("name is required")
	}
	category := &models.Category{
		Name:        strings.TrimSpace(*in.Name),
		Description: in.Description,
	}
	if err := s.store.Categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return s.GetCategory(ctx, category.ID)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*repository.CategoryWithCount, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationf("name must not be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) > 0 {
		if err := s.store.Categories.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory holds the category row lock across the product count and
// the delete; product writes take the same lock.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := tx.Categories.ExistsForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCategoryNotFound
		}
		n, err := tx.Categories.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrCategoryInUse
		}
		return tx.Categories.Delete(ctx, id)
	})
}
