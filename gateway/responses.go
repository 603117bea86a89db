package gateway

import (
	"time"

	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type userResponse struct {
	ID        uint        `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	Address   *string     `json:"address"`
	Phone     *string     `json:"phone"`
	CreatedAt string      `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Address:   u.Address,
		Phone:     u.Phone,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

type categoryResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	ProductCount int64   `json:"product_count"`
	CreatedAt    string  `json:"created_at"`
}

func newCategoryResponse(c *repository.CategoryWithCount) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: c.ProductCount,
		CreatedAt:    formatTime(c.CreatedAt),
	}
}

type productResponse struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Price        string  `json:"price"`
	Stock        int     `json:"stock"`
	Sales        int     `json:"sales"`
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	ImagePath    *string `json:"image_path"`
	CreatedAt    string  `json:"created_at"`
}

func newProductResponse(p *repository.ProductRow) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        money(p.Price),
		Stock:        p.Stock,
		Sales:        p.Sales,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		ImagePath:    p.ImagePath,
		CreatedAt:    formatTime(p.CreatedAt),
	}
}

func newProductResponses(rows []repository.ProductRow) []productResponse {
	out := make([]productResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newProductResponse(&rows[i]))
	}
	return out
}

type cartLineResponse struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	Stock     int     `json:"stock"`
	ImagePath *string `json:"image_path"`
	Quantity  int     `json:"quantity"`
	Subtotal  string  `json:"subtotal"`
}

func newCartResponse(view *service.CartView) gin.H {
	items := make([]cartLineResponse, 0, len(view.Items))
	for _, l := range view.Items {
		items = append(items, cartLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.ProductName,
			Price:     money(l.ProductPrice),
			Stock:     l.ProductStock,
			ImagePath: l.ImagePath,
			Quantity:  l.Quantity,
			Subtotal:  money(l.Subtotal()),
		})
	}
	return gin.H{"items": items, "total": money(view.Total)}
}

type cartItemResponse struct {
	ID        uint `json:"id"`
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func newCartItemResponse(item *models.CartItem) cartItemResponse {
	return cartItemResponse{ID: item.ID, ProductID: item.ProductID, Quantity: item.Quantity}
}

type orderResponse struct {
	ID              uint                `json:"id"`
	UserID          uint                `json:"user_id"`
	UserEmail       string              `json:"user_email,omitempty"`
	UserName        string              `json:"user_name,omitempty"`
	ShippingAddress string              `json:"shipping_address"`
	Status          models.OrderStatus  `json:"status"`
	TotalAmount     string              `json:"total_amount"`
	ItemsCount      *int64              `json:"items_count,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
	Items           []orderItemResponse `json:"items,omitempty"`
	Payments        []paymentResponse   `json:"payments,omitempty"`
}

type orderItemResponse struct {
	ID          uint    `json:"id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	ImagePath   *string `json:"image_path"`
	Quantity    int     `json:"quantity"`
	Price       string  `json:"price"`
	Subtotal    string  `json:"subtotal"`
}

func newOrderResponse(o *models.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status,
		TotalAmount:     money(o.TotalAmount),
		CreatedAt:       formatTime(o.CreatedAt),
		UpdatedAt:       formatTime(o.UpdatedAt),
	}
}

func newOrderRowResponse(row *repository.OrderRow) orderResponse {
	r := newOrderResponse(&row.Order)
	r.UserEmail = row.UserEmail
	r.UserName = row.UserName
	count := row.ItemCount
	r.ItemsCount = &count
	return r
}

func newOrderRowResponses(rows []repository.OrderRow) []orderResponse {
	out := make([]orderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newOrderRowResponse(&rows[i]))
	}
	return out
}

func newOrderDetailResponse(d *service.OrderDetail) orderResponse {
	r := newOrderResponse(&d.Order)
	r.Items = make([]orderItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		r.Items = append(r.Items, orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImagePath:   it.ImagePath,
			Quantity:    it.Quantity,
			Price:       money(it.Price),
			Subtotal:    money(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))),
		})
	}
	for i := range d.Payments {
		r.Payments = append(r.Payments, newPaymentResponse(&d.Payments[i]))
	}
	return r
}

type paymentResponse struct {
	ID            uint                 `json:"id"`
	OrderID       uint                 `json:"order_id"`
	Amount        string               `json:"amount"`
	PaymentMethod string               `json:"payment_method"`
	CardLastFour  string               `json:"card_last_four"`
	Status        models.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id"`
	CreatedAt     string               `json:"created_at"`
}

func newPaymentResponse(p *models.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        money(p.Amount),
		PaymentMethod: p.PaymentMethod,
		CardLastFour:  p.CardLastFour,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

type orderPageResponse struct {
	Orders      []orderResponse    `json:"orders"`
	Pagination  service.Pagination `json:"pagination"`
	TotalOrders int64              `json:"total_orders"`
	TotalSales  string             `json:"total_sales"`
}

func newOrderPageResponse(page *service.OrderPage) orderPageResponse {
	return orderPageResponse{
		Orders:      newOrderRowResponses(page.Orders),
		Pagination:  page.Pagination,
		TotalOrders: page.TotalOrders,
		TotalSales:  money(page.TotalSales),
	}
}

type userStatsResponse struct {
	TotalUsers  int64   `json:"total_users"`
	TotalAdmins int64   `json:"total_admins"`
	StartDate   *string `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

func newUserStatsResponse(s *service.UserStats) userStatsResponse {
	r := userStatsResponse{
		TotalUsers:  s.TotalUsers,
		TotalAdmins: s.TotalAdmins,
		EndDate:     formatTime(s.End),
	}
	if s.Start != nil {
		start := formatTime(*s.Start)
		r.StartDate = &start
	}
	return r
}

type dashboardResponse struct {
	Users           userStatsResponse `json:"users"`
	PopularProducts []productResponse `json:"popular_products"`
	RecentOrders    []orderResponse   `json:"recent_orders"`
	TotalOrders     int64             `json:"total_orders"`
	TotalSales      string            `json:"total_sales"`
	TotalProducts   int64             `json:"total_products"`
}

func newDashboardResponse(d *service.Dashboard) dashboardResponse {
	return dashboardResponse{
		Users:           newUserStatsResponse(&d.Users),
		PopularProducts: newProductResponses(d.PopularProducts),
		RecentOrders:    newOrderRowResponses(d.RecentOrders),
		TotalOrders:     d.TotalOrders,
		TotalSales:      money(d.TotalSales),
		TotalProducts:   d.TotalProducts,
	}
}

type auditEntryResponse struct {
	ActorID   uint                   `json:"actor_id"`
	Action    string                 `json:"action"`
	Entity    string                 `json:"entity"`
	EntityID  uint                   `json:"entity_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

func newAuditEntryResponses(entries []*repository.AuditEntry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ActorID:   e.ActorID,
			Action:    e.Action,
			Entity:    e.Entity,
			EntityID:  e.EntityID,
			Data:      e.Data,
			CreatedAt: formatTime(e.CreatedAt),
		})
	}
	return out
}
