package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/events"
	"github.com/example/shopfront/pkg/models"
	"github.com/example/shopfront/pkg/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var cardPattern = regexp.MustCompile(`^\d{16}$`)

// PaymentService records simulated card payments. No external gateway is
// contacted; a payment always succeeds once the input validates.
type PaymentService struct {
	store   *repository.Store
	effects *Effects
	logger  *zap.Logger
}

func NewPaymentService(store *repository.Store, effects *Effects, logger *zap.Logger) *PaymentService {
	return &PaymentService{store: store, effects: effects, logger: logger}
}

type PaymentInput struct {
	PaymentMethod string
	CardNumber    string
}

// normalizeCard drops every whitespace character.
func normalizeCard(number string) string {
	return strings.Join(strings.Fields(number), "")
}

func (s *PaymentService) Process(ctx context.Context, p *auth.Principal, orderID uint, in PaymentInput) (*models.Payment, error) {
	var payment *models.Payment
	var order *models.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		order, err = tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		if !p.IsAdmin() && order.UserID != p.UserID {
			return ErrNotOrderOwner
		}
		if order.Status != models.OrderStatusPending {
			return ErrOrderNotPayable
		}

		method := strings.TrimSpace(in.PaymentMethod)
		if method == "" {
			return ErrPaymentMethodRequired
		}
		card := normalizeCard(in.CardNumber)
		if !cardPattern.MatchString(card) {
			return ErrInvalidCard
		}

		payment = &models.Payment{
			OrderID:       order.ID,
			Amount:        order.TotalAmount,
			PaymentMethod: method,
			CardLastFour:  card[len(card)-4:],
			Status:        models.PaymentStatusCompleted,
			TransactionID: "SIM_" + uuid.NewString(),
		}
		if err := tx.Payments.Create(ctx, payment); err != nil {
			return err
		}
		order.Status = models.OrderStatusPaid
		return tx.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusPaid, payment.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.Uint("order_id", order.ID),
		zap.Uint("payment_id", payment.ID),
		zap.String("transaction_id", payment.TransactionID))

	s.effects.Record(ctx, &repository.AuditEntry{
		ActorID:  p.UserID,
		Action:   events.PaymentCompleted,
		Entity:   "payment",
		EntityID: payment.ID,
		Data: bson.M{
			"order_id":       order.ID,
			"amount":         payment.Amount.StringFixed(2),
			"transaction_id": payment.TransactionID,
		},
	})
	s.effects.Publish(ctx, events.Event{
		Type:       events.PaymentCompleted,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(models.OrderStatusPaid),
		PrevStatus: string(models.OrderStatusPending),
		Data: map[string]interface{}{
			"payment_id":     payment.ID,
			"amount":         payment.Amount.StringFixed(2),
			"transaction_id": payment.TransactionID,
		},
	})

	return payment, nil
}

func (s *PaymentService) History(ctx context.Context, userID uint) ([]models.Payment, error) {
	return s.store.Payments.ByUser(ctx, userID)
}
