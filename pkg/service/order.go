package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/events"
	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// MaxExportRows bounds the unpaginated admin export.
const MaxExportRows = 5000

type OrderService struct {
	store   *repository.Store
	effects *Effects
	logger  *zap.Logger
	now     func() time.Time
}

func NewOrderService(store *repository.Store, effects *Effects, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:   store,
		effects: effects,
		logger:  logger,
		now:     time.Now,
	}
}

type OrderDetail struct {
	Order    models.Order
	Items    []repository.OrderItemRow
	Payments []models.Payment
}

// OrderQuery carries the raw listing parameters of an HTTP request.
type OrderQuery struct {
	Page      int
	Limit     int
	Status    string
	UserID    uint
	StartDate string
	EndDate   string
}

type OrderPage struct {
	Orders      []repository.OrderRow
	Pagination  Pagination
	TotalOrders int64
	TotalSales  decimal.Decimal
}

func (q OrderQuery) filter() (repository.OrderFilter, error) {
	f := repository.OrderFilter{UserID: q.UserID}
	if q.Status != "" {
		status, ok := models.ParseOrderStatus(q.Status)
		if !ok {
			return f, ErrInvalidStatus
		}
		f.Status = status
	}
	rng, err := ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		return f, err
	}
	f.Created = rng
	return f, nil
}

// Create turns the user's cart into a pending order. Stock is checked and
// decremented under row locks; any failure leaves cart, stock and orders
// untouched.
func (s *OrderService) Create(ctx context.Context, userID uint, shippingAddress string) (*OrderDetail, error) {
	address := strings.TrimSpace(shippingAddress)
	if address == "" {
		return nil, ErrShippingAddressRequired
	}

	var order *models.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		lines, err := tx.Carts.ItemsForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		// Lock in product id order so concurrent checkouts cannot deadlock.
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		products := make([]*models.Product, 0, len(lines))
		for _, line := range lines {
			product, err := tx.Products.GetForUpdate(ctx, line.ProductID)
			if err != nil {
				return notFound(err, ErrProductNotFound)
			}
			if product.Stock < line.Quantity {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   line.Quantity,
					Available:   product.Stock,
				}
			}

			item := models.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			}
			total = total.Add(item.Subtotal())
			items = append(items, item)
			products = append(products, product)
		}

		order = &models.Order{
			UserID:          userID,
			ShippingAddress: address,
			Status:          models.OrderStatusPending,
			TotalAmount:     total,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Orders.CreateItems(ctx, items); err != nil {
			return err
		}

		for i, product := range products {
			q := lines[i].Quantity
			if err := tx.Products.SetCounters(ctx, product.ID, product.Stock-q, product.Sales+q); err != nil {
				return err
			}
			if err := tx.Carts.Delete(ctx, lines[i].ID); err != nil {
				return notFound(err, ErrCartChanged)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	s.effects.Record(ctx, &repository.AuditEntry{
		ActorID:  userID,
		Action:   "order.create",
		Entity:   "order",
		EntityID: order.ID,
		Data:     bson.M{"total": order.TotalAmount.StringFixed(2)},
	})
	s.effects.Publish(ctx, events.Event{
		Type:    events.OrderCreated,
		OrderID: order.ID,
		UserID:  userID,
		Status:  string(order.Status),
		Data:    map[string]interface{}{"total": order.TotalAmount.StringFixed(2)},
	})

	return s.detail(ctx, order)
}

// Cancel is allowed to the owner or an admin while the order is pending or paid.
func (s *OrderService) Cancel(ctx context.Context, p *auth.Principal, orderID uint) (*models.Order, error) {
	var order *models.Order
	var prev models.OrderStatus
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		order, err = tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if !p.IsAdmin() && order.UserID != p.UserID {
			return ErrNotOrderOwner
		}
		if !order.Status.Cancellable() {
			return ErrOrderNotCancellable
		}
		prev = order.Status
		return s.compensate(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order cancelled",
		zap.Uint("order_id", order.ID),
		zap.Uint("actor_id", p.UserID),
		zap.String("prev_status", string(prev)))
	s.afterStatusChange(ctx, p, order, prev, events.OrderCancelled)

	return order, nil
}

// UpdateStatus sets any valid status. Entering cancelled from another status
// restores stock the same way Cancel does; cancelled is terminal.
func (s *OrderService) UpdateStatus(ctx context.Context, p *auth.Principal, orderID uint, status string) (*models.Order, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	var order *models.Order
	var prev models.OrderStatus
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		order, err = tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		prev = order.Status
		if prev == models.OrderStatusCancelled && next != models.OrderStatusCancelled {
			return ErrOrderCancelled
		}

		if next == models.OrderStatusCancelled && prev != models.OrderStatusCancelled {
			return s.compensate(ctx, tx, order)
		}

		now := s.now()
		if err := tx.Orders.UpdateStatus(ctx, order.ID, next, now); err != nil {
			return err
		}
		order.Status = next
		order.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	s.afterStatusChange(ctx, p, order, prev, events.OrderStatusChanged)

	return order, nil
}

// compensate cancels a locked order: stock comes back for every item, and
// sales go down only when the prior status was counted.
func (s *OrderService) compensate(ctx context.Context, tx *repository.Store, order *models.Order) error {
	items, err := tx.Orders.Items(ctx, order.ID)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	counted := order.Status.Counted()
	for _, item := range items {
		product, err := tx.Products.GetForUpdate(ctx, item.ProductID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		sales := product.Sales
		if counted {
			sales -= item.Quantity
			if sales < 0 {
				sales = 0
			}
		}
		if err := tx.Products.SetCounters(ctx, product.ID, product.Stock+item.Quantity, sales); err != nil {
			return err
		}
	}

	now := s.now()
	if err := tx.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled, now); err != nil {
		return err
	}
	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = now
	return nil
}

func (s *OrderService) afterStatusChange(ctx context.Context, p *auth.Principal, order *models.Order, prev models.OrderStatus, eventType string) {
	s.effects.Record(ctx, &repository.AuditEntry{
		ActorID:  p.UserID,
		Action:   eventType,
		Entity:   "order",
		EntityID: order.ID,
		Data:     bson.M{"from": string(prev), "to": string(order.Status)},
	})
	s.effects.Publish(ctx, events.Event{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		PrevStatus: string(prev),
	})
}

func (s *OrderService) Get(ctx context.Context, p *auth.Principal, orderID uint) (*OrderDetail, error) {
	order, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	if !p.IsAdmin() && order.UserID != p.UserID {
		return nil, ErrNotOrderOwner
	}
	return s.detail(ctx, order)
}

func (s *OrderService) detail(ctx context.Context, order *models.Order) (*OrderDetail, error) {
	items, err := s.store.Orders.ItemRows(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments.ByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *order, Items: items, Payments: payments}, nil
}

// List returns the caller's own orders.
func (s *OrderService) List(ctx context.Context, userID uint, q OrderQuery) (*OrderPage, error) {
	q.UserID = userID
	return s.list(ctx, q)
}

// AdminList returns orders of every user, optionally narrowed to one.
func (s *OrderService) AdminList(ctx context.Context, p *auth.Principal, q OrderQuery) (*OrderPage, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.list(ctx, q)
}

func (s *OrderService) list(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	page, limit := NormalizePage(q.Page, q.Limit)

	count, sum, err := s.store.Orders.Totals(ctx, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Orders.List(ctx, f, window(page, limit))
	if err != nil {
		return nil, err
	}

	return &OrderPage{
		Orders:      rows,
		Pagination:  NewPagination(count, page, limit),
		TotalOrders: count,
		TotalSales:  sum,
	}, nil
}

// Export returns the newest matching orders, at most MaxExportRows of them.
func (s *OrderService) Export(ctx context.Context, p *auth.Principal, q OrderQuery) ([]repository.OrderRow, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.store.Orders.List(ctx, f, repository.Page{Limit: MaxExportRows})
}

// Delete removes the order, its items and its payments. Stock is not touched.
func (s *OrderService) Delete(ctx context.Context, p *auth.Principal, orderID uint) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	var order *models.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		order, err = tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		return tx.Orders.Delete(ctx, order.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Order deleted", zap.Uint("order_id", orderID), zap.Uint("actor_id", p.UserID))
	s.effects.Record(ctx, &repository.AuditEntry{
		ActorID:  p.UserID,
		Action:   "order.delete",
		Entity:   "order",
		EntityID: orderID,
		Data:     bson.M{"status": string(order.Status), "user_id": order.UserID},
	})
	return nil
}
