package service

import (
	"context"
	"errors"

	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	store *repository.Store
}

func NewCartService(store *repository.Store) *CartService {
	return &CartService{store: store}
}

type CartView struct {
	Items []repository.CartLine
	Total decimal.Decimal
}

func clampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func checkStock(product *models.Product, quantity int) error {
	if product.Stock < quantity {
		return &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}
	return nil
}

func (s *CartService) List(ctx context.Context, userID uint) (*CartView, error) {
	lines, err := s.store.Carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return &CartView{Items: lines, Total: total}, nil
}

// Add puts a product in the cart, merging with an existing line for the
// same product. Stock is checked against the merged quantity.
func (s *CartService) Add(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	quantity = clampQuantity(quantity)

	item, err := s.add(ctx, userID, productID, quantity)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent add created the line first; merge into it
		item, err = s.add(ctx, userID, productID, quantity)
	}
	return item, err
}

func (s *CartService) add(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	var item *models.CartItem
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		product, err := tx.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}

		existing, err := tx.Carts.Find(ctx, userID, productID)
		switch {
		case err == nil:
			merged := existing.Quantity + quantity
			if err := checkStock(product, merged); err != nil {
				return err
			}
			if err := tx.Carts.SetQuantity(ctx, existing.ID, merged); err != nil {
				return err
			}
			existing.Quantity = merged
			item = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if err := checkStock(product, quantity); err != nil {
			return err
		}
		item = &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		return tx.Carts.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) owned(ctx context.Context, userID, itemID uint) (*models.CartItem, error) {
	item, err := s.store.Carts.GetByID(ctx, itemID)
	if err != nil {
		return nil, notFound(err, ErrCartItemNotFound)
	}
	if item.UserID != userID {
		return nil, ErrNotCartOwner
	}
	return item, nil
}

func (s *CartService) Update(ctx context.Context, userID, itemID uint, quantity int) (*models.CartItem, error) {
	item, err := s.owned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	quantity = clampQuantity(quantity)

	product, err := s.store.Products.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if err := checkStock(product, quantity); err != nil {
		return nil, err
	}
	if err := s.store.Carts.SetQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) error {
	item, err := s.owned(ctx, userID, itemID)
	if err != nil {
		return err
	}
	return notFound(s.store.Carts.Delete(ctx, item.ID), ErrCartItemNotFound)
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.store.Carts.Clear(ctx, userID)
}

func (s *CartService) Count(ctx context.Context, userID uint) (int64, error) {
	return s.store.Carts.Count(ctx, userID)
}
