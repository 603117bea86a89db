package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type GatewayTestSuite struct {
	suite.Suite
	store   *repository.Store
	tokens  *auth.TokenIssuer
	handler http.Handler

	admin    *models.User
	customer *models.User
	other    *models.User
	product  *models.Product
}

func TestGatewayTestSuite(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}

func (s *GatewayTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	})
	s.Require().NoError(err)
	s.Require().NoError(repository.Migrate(db))
	s.store = repository.NewStore(db)
	s.T().Cleanup(func() { _ = s.store.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Auth:   config.AuthConfig{JWTSecret: "gateway-test", TokenTTL: time.Hour, Issuer: "shop-api"},
		CORS:   config.CORSConfig{AllowOrigins: []string{"*"}},
	}
	logger := zap.NewNop()
	s.tokens = auth.NewTokenIssuer(&cfg.Auth)
	effects := service.NewEffects(nil, nil, logger)

	gw := NewGateway(cfg, logger, Services{
		Users:    service.NewUserService(s.store, s.tokens, nil, effects, logger),
		Catalog:  service.NewCatalogService(s.store, logger),
		Carts:    service.NewCartService(s.store),
		Orders:   service.NewOrderService(s.store, effects, logger),
		Payments: service.NewPaymentService(s.store, effects, logger),
		Reports:  service.NewReportService(s.store, nil, logger),
		Audit:    service.NewAuditService(nil),
	})
	gw.SetupRoutes()
	s.handler = gw.Handler()

	s.admin = s.createUser("admin@example.com", models.RoleAdmin)
	s.customer = s.createUser("buyer@example.com", models.RoleUser)
	s.other = s.createUser("other@example.com", models.RoleUser)

	ctx := context.Background()
	category := &models.Category{Name: "Books"}
	s.Require().NoError(s.store.Categories.Create(ctx, category))
	s.product = &models.Product{
		Name:       "Go in Practice",
		Price:      decimal.RequireFromString("19.99"),
		Stock:      5,
		Sales:      10,
		CategoryID: category.ID,
	}
	s.Require().NoError(s.store.Products.Create(ctx, s.product))
}

func (s *GatewayTestSuite) createUser(email string, role models.Role) *models.User {
	hash, err := auth.HashPassword("secret123")
	s.Require().NoError(err)
	u := &models.User{Email: email, Password: hash, Name: email, Role: role}
	s.Require().NoError(s.store.Users.Create(context.Background(), u))
	return u
}

func (s *GatewayTestSuite) token(u *models.User) string {
	tok, _, err := s.tokens.Issue(u)
	s.Require().NoError(err)
	return tok
}

func (s *GatewayTestSuite) do(method, path string, as *models.User, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(as))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *GatewayTestSuite) createOrder(as *models.User) uint {
	rec := s.do(http.MethodPost, "/api/cart/add", as, gin.H{"product_id": s.product.ID, "quantity": 3})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/orders/create", as, gin.H{"shipping_address": "12 Main St"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	order := decode(s.T(), rec)["order"].(map[string]interface{})
	return uint(order["id"].(float64))
}

func (s *GatewayTestSuite) TestHealthAndRequestID() {
	rec := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get(requestIDHeader))
}

func (s *GatewayTestSuite) TestAuthenticationRequired() {
	rec := s.do(http.MethodGet, "/api/cart/list", nil, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/cart/list", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res := httptest.NewRecorder()
	s.handler.ServeHTTP(res, req)
	s.Equal(http.StatusUnauthorized, res.Code)
}

func (s *GatewayTestSuite) TestRegisterAndLogin() {
	rec := s.do(http.MethodPost, "/api/users/register", nil, gin.H{
		"email": "new@example.com", "password": "secret123", "name": "New",
	})
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/users/register", nil, gin.H{
		"email": "new@example.com", "password": "secret123", "name": "New",
	})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/users/login", nil, gin.H{"email": "new@example.com", "password": "nope"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/users/login", nil, gin.H{"email": "new@example.com", "password": "secret123"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.NotEmpty(decode(s.T(), rec)["token"])
}

func (s *GatewayTestSuite) TestCreateOrderFlow() {
	rec := s.do(http.MethodPost, "/api/orders/create", s.customer, gin.H{"shipping_address": "12 Main St"})
	s.Equal(http.StatusBadRequest, rec.Code, "empty cart")

	id := s.createOrder(s.customer)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/orders/show/%d", id), s.customer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	order := decode(s.T(), rec)["order"].(map[string]interface{})
	s.Equal("59.97", order["total_amount"])
	s.Equal("pending", order["status"])
	s.Len(order["items"], 1)

	product, err := s.store.Products.GetByID(context.Background(), s.product.ID)
	s.Require().NoError(err)
	s.Equal(2, product.Stock)
	s.Equal(13, product.Sales)

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/orders/show/%d", id), s.other, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *GatewayTestSuite) TestInsufficientStockIs400() {
	rec := s.do(http.MethodPost, "/api/cart/add", s.customer, gin.H{"product_id": s.product.ID, "quantity": 9})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decode(s.T(), rec)["error"], "insufficient stock")
}

func (s *GatewayTestSuite) TestCancelOrder() {
	id := s.createOrder(s.customer)

	rec := s.do(http.MethodPut, "/api/orders/9999/cancel", s.customer, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", id), s.other, nil)
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", id), s.customer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", id), s.customer, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	product, err := s.store.Products.GetByID(context.Background(), s.product.ID)
	s.Require().NoError(err)
	s.Equal(5, product.Stock)
	s.Equal(13, product.Sales)
}

func (s *GatewayTestSuite) TestAdminStatusUpdate() {
	id := s.createOrder(s.customer)
	path := fmt.Sprintf("/api/orders/%d/status", id)

	rec := s.do(http.MethodPut, path, s.customer, gin.H{"status": "paid"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPut, path, s.admin, gin.H{"status": "lost"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/orders/9999/status", s.admin, gin.H{"status": "paid"})
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, path, s.admin, gin.H{"status": "SHIPPED"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("shipped", decode(s.T(), rec)["order"].(map[string]interface{})["status"])

	rec = s.do(http.MethodPut, path, s.admin, gin.H{"status": "cancelled"})
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPut, path, s.admin, gin.H{"status": "pending"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decode(s.T(), rec)["error"], "cancelled orders cannot change status")
}

func (s *GatewayTestSuite) TestListClampsLimit() {
	s.createOrder(s.customer)

	rec := s.do(http.MethodGet, "/api/orders/list?limit=500&page=0", s.customer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := decode(s.T(), rec)
	pagination := body["pagination"].(map[string]interface{})
	s.Equal(float64(50), pagination["limit"])
	s.Equal(float64(1), pagination["page"])
	s.Equal(float64(1), pagination["pages"])
	s.Len(body["orders"], 1)

	rec = s.do(http.MethodGet, "/api/orders/list?status=bogus", s.customer, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *GatewayTestSuite) TestPayment() {
	id := s.createOrder(s.customer)
	path := fmt.Sprintf("/api/payments/process/%d", id)

	rec := s.do(http.MethodPost, path, s.customer, gin.H{"payment_method": "card", "card_number": "1234"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path, s.customer, gin.H{"payment_method": "card", "card_number": "4111 1111 1111 1111"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	payment := decode(s.T(), rec)["payment"].(map[string]interface{})
	s.Equal("1111", payment["card_last_four"])
	s.Equal("59.97", payment["amount"])

	rec = s.do(http.MethodPost, path, s.customer, gin.H{"payment_method": "card", "card_number": "4111111111111111"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *GatewayTestSuite) TestAdminRoutesRequireAdmin() {
	for _, path := range []string{"/api/admin/users", "/api/admin/dashboard", "/api/orders/admin/list", "/api/admin/audit/order/1"} {
		rec := s.do(http.MethodGet, path, s.customer, nil)
		s.Equal(http.StatusForbidden, rec.Code, path)
	}

	rec := s.do(http.MethodGet, "/api/admin/dashboard?start_date=2024-01-32", s.admin, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	s.createOrder(s.customer)
	rec = s.do(http.MethodGet, "/api/admin/dashboard", s.admin, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := decode(s.T(), rec)
	s.Equal(float64(1), body["total_orders"])
	s.Equal("59.97", body["total_sales"])
	s.Len(body["recent_orders"], 1)
}

func (s *GatewayTestSuite) TestCategoryDeleteBlocked() {
	rec := s.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", s.product.CategoryID), s.admin, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/categories/abc", s.admin, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *GatewayTestSuite) TestExportOrders() {
	s.createOrder(s.customer)

	rec := s.do(http.MethodGet, "/api/orders/admin/export", s.admin, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(xlsxContentType, rec.Header().Get("Content-Type"))
	s.Equal("PK", string(rec.Body.Bytes()[:2]))
}

func (s *GatewayTestSuite) TestInternalErrorsAreHidden() {
	tok := s.token(s.customer)
	s.Require().NoError(s.store.Close())

	req := httptest.NewRequest(http.MethodGet, "/api/cart/count", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal(internalErrorMessage, decode(s.T(), rec)["error"])
}
