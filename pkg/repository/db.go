package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB connects gorm to the configured driver and applies pool limits.
func OpenDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSNString())
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().Truncate(time.Microsecond)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

// Migrate is idempotent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Store groups the repositories bound to one *gorm.DB, which is either the
// root connection or an open transaction.
type Store struct {
	db *gorm.DB

	Users      *UserRepo
	Categories *CategoryRepo
	Products   *ProductRepo
	Carts      *CartRepo
	Orders     *OrderRepo
	Payments   *PaymentRepo
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Users:      &UserRepo{db: db},
		Categories: &CategoryRepo{db: db},
		Products:   &ProductRepo{db: db},
		Carts:      &CartRepo{db: db},
		Orders:     &OrderRepo{db: db},
		Payments:   &PaymentRepo{db: db},
	}
}

// Transaction runs fn against a Store bound to a single transaction. Any
// error returned by fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks and
// serializes writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Page is an offset window.
type Page struct {
	Limit  int
	Offset int
}

// DateRange bounds a created_at column; nil ends are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) apply(db *gorm.DB, column string) *gorm.DB {
	if r.Start != nil {
		db = db.Where(column+" >= ?", *r.Start)
	}
	if r.End != nil {
		db = db.Where(column+" <= ?", *r.End)
	}
	return db
}
