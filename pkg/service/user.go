package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type UserService struct {
	store    *repository.Store
	tokens   *auth.TokenIssuer
	sessions repository.SessionStore
	effects  *Effects
	validate *validator.Validate
	logger   *zap.Logger
}

func NewUserService(store *repository.Store, tokens *auth.TokenIssuer, sessions repository.SessionStore, effects *Effects, logger *zap.Logger) *UserService {
	if sessions == nil {
		sessions = repository.NopSessionStore{}
	}
	return &UserService{
		store:    store,
		tokens:   tokens,
		sessions: sessions,
		effects:  effects,
		validate: validator.New(),
		logger:   logger,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Address  *string
	Phone    *string
	Role     models.Role
}

type ProfileInput struct {
	Name     *string
	Address  *string
	Phone    *string
	Password *string
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *UserService) checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Register creates an account. Role defaults to USER; only operator tooling
// passes ADMIN.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return nil, validationf("email, password and name are required")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, validationf("email is not valid")
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	taken, err := s.store.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:    email,
		Password: hash,
		Name:     name,
		Role:     role,
		Address:  in.Address,
		Phone:    in.Phone,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, ErrBadCredentials
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate resolves a bearer token, rejecting revoked ones.
func (s *UserService) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	p, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	revoked, err := s.sessions.IsRevoked(ctx, p.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	return p, nil
}

func (s *UserService) Logout(ctx context.Context, p *auth.Principal) error {
	return s.sessions.Revoke(ctx, p.TokenID, time.Until(p.ExpiresAt))
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	if _, err := s.Profile(ctx, userID); err != nil {
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
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.Password != nil {
		if err := s.checkPassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}

	if len(updates) > 0 {
		if err := s.store.Users.Update(ctx, userID, updates); err != nil {
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.Users.List(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.Profile(ctx, id)
}

func (s *UserService) ChangeRole(ctx context.Context, p *auth.Principal, id uint, role string) (*models.User, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	next := models.Role(strings.ToUpper(strings.TrimSpace(role)))
	if !next.Valid() {
		return nil, ErrInvalidRole
	}
	if id == p.UserID {
		return nil, ErrOwnRole
	}

	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := user.Role
	if err := s.store.Users.Update(ctx, id, map[string]interface{}{"role": next}); err != nil {
		return nil, err
	}
	user.Role = next

	s.logger.Info("User role changed",
		zap.Uint("user_id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	s.effects.Record(ctx, &repository.AuditEntry{
		ActorID:  p.UserID,
		Action:   "user.change_role",
		Entity:   "user",
		EntityID: id,
		Data:     bson.M{"from": string(prev), "to": string(next)},
	})
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, p *auth.Principal, id uint) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	if id == p.UserID {
		return ErrDeleteSelf
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.GetByID(ctx, id); err != nil {
			return notFound(err, ErrUserNotFound)
		}
		orders, err := tx.Orders.CountByUser(ctx, id)
		if err != nil {
			return err
		}
		if orders > 0 {
			return ErrUserHasOrders
		}
		if err := tx.Carts.Clear(ctx, id); err != nil {
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.Uint("user_id", id), zap.Uint("actor_id", p.UserID))
	s.effects.Record(ctx, &repository.AuditEntry{
		ActorID:  p.UserID,
		Action:   "user.delete",
		Entity:   "user",
		EntityID: id,
	})
	return nil
}
