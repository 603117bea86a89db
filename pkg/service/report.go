package service

import (
	"context"
	"time"

	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dashboardPopularLimit = 5
	dashboardRecentOrders = 5
)

// ProductQueries is the popular-products source of the dashboard.
type ProductQueries interface {
	MostPopular(ctx context.Context, limit int, created repository.DateRange) ([]repository.ProductRow, error)
}

type ReportService struct {
	store    *repository.Store
	products ProductQueries
	logger   *zap.Logger
	now      func() time.Time
}

func NewReportService(store *repository.Store, products ProductQueries, logger *zap.Logger) *ReportService {
	if products == nil {
		products = store.Products
	}
	return &ReportService{store: store, products: products, logger: logger, now: time.Now}
}

type UserStats struct {
	TotalUsers  int64
	TotalAdmins int64
	Start       *time.Time
	End         time.Time
}

type Dashboard struct {
	Users           UserStats
	PopularProducts []repository.ProductRow
	RecentOrders    []repository.OrderRow
	TotalOrders     int64
	TotalSales      decimal.Decimal
	TotalProducts   int64
}

// window parses the range and closes an open end at the current time.
func (s *ReportService) window(startDate, endDate string) (repository.DateRange, error) {
	rng, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return rng, err
	}
	if rng.End == nil {
		now := s.now()
		rng.End = &now
	}
	return rng, nil
}

func (s *ReportService) userStats(ctx context.Context, rng repository.DateRange) (UserStats, error) {
	users, err := s.store.Users.Count(ctx, rng, "")
	if err != nil {
		return UserStats{}, err
	}
	admins, err := s.store.Users.Count(ctx, rng, models.RoleAdmin)
	if err != nil {
		return UserStats{}, err
	}
	return UserStats{TotalUsers: users, TotalAdmins: admins, Start: rng.Start, End: *rng.End}, nil
}

func (s *ReportService) UserStatistics(ctx context.Context, startDate, endDate string) (*UserStats, error) {
	rng, err := s.window(startDate, endDate)
	if err != nil {
		return nil, err
	}
	stats, err := s.userStats(ctx, rng)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// OrderTotals counts matching orders and sums their totals.
func (s *ReportService) OrderTotals(ctx context.Context, q OrderQuery) (int64, decimal.Decimal, error) {
	f, err := q.filter()
	if err != nil {
		return 0, decimal.Zero, err
	}
	return s.store.Orders.Totals(ctx, f)
}

// Dashboard aggregates the admin overview. A failing popular-products query
// is logged and reported as an empty list; every other failure is returned.
func (s *ReportService) Dashboard(ctx context.Context, startDate, endDate string) (*Dashboard, error) {
	rng, err := s.window(startDate, endDate)
	if err != nil {
		return nil, err
	}

	stats, err := s.userStats(ctx, rng)
	if err != nil {
		return nil, err
	}

	popular, err := s.products.MostPopular(ctx, dashboardPopularLimit, rng)
	if err != nil {
		s.logger.Error("Failed to load popular products for dashboard", zap.Error(err))
		popular = []repository.ProductRow{}
	}

	f := repository.OrderFilter{Created: rng}
	recent, err := s.store.Orders.List(ctx, f, repository.Page{Limit: dashboardRecentOrders})
	if err != nil {
		return nil, err
	}
	count, sales, err := s.store.Orders.Totals(ctx, f)
	if err != nil {
		return nil, err
	}
	products, err := s.store.Products.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Users:           stats,
		PopularProducts: popular,
		RecentOrders:    recent,
		TotalOrders:     count,
		TotalSales:      sales,
		TotalProducts:   products,
	}, nil
}
