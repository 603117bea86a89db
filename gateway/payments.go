package gateway

import (
	"net/http"

	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
)

type paymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"max=50"`
	CardNumber    string `json:"card_number"`
}

func (g *Gateway) processPayment(c *gin.Context) {
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	payment, err := g.svc.Payments.Process(c.Request.Context(), currentPrincipal(c), id, service.PaymentInput{
		PaymentMethod: req.PaymentMethod,
		CardNumber:    req.CardNumber,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment processed successfully",
		"payment": newPaymentResponse(payment),
	})
}

func (g *Gateway) paymentHistory(c *gin.Context) {
	payments, err := g.svc.Payments.History(c.Request.Context(), currentPrincipal(c).UserID)
	if err != nil {
		g.writeError(c, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, newPaymentResponse(&payments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}
