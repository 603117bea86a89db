package gateway

import (
	"net/http"

	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
)

type createOrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"max=500"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func orderQuery(c *gin.Context) service.OrderQuery {
	return service.OrderQuery{
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
		Status:    c.Query("status"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
}

func (g *Gateway) listOrders(c *gin.Context) {
	page, err := g.svc.Orders.List(c.Request.Context(), currentPrincipal(c).UserID, orderQuery(c))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderPageResponse(page))
}

func (g *Gateway) showOrder(c *gin.Context) {
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	detail, err := g.svc.Orders.Get(c.Request.Context(), currentPrincipal(c), id)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": newOrderDetailResponse(detail)})
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	detail, err := g.svc.Orders.Create(c.Request.Context(), currentPrincipal(c).UserID, req.ShippingAddress)
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"order":   newOrderDetailResponse(detail),
	})
}

func (g *Gateway) cancelOrder(c *gin.Context) {
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	order, err := g.svc.Orders.Cancel(c.Request.Context(), currentPrincipal(c), id)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"order":   newOrderResponse(order),
	})
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	order, err := g.svc.Orders.UpdateStatus(c.Request.Context(), currentPrincipal(c), id, req.Status)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"order":   newOrderResponse(order),
	})
}

func (g *Gateway) deleteOrder(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	if err := g.svc.Orders.Delete(c.Request.Context(), currentPrincipal(c), id); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

func (g *Gateway) adminListOrders(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	q := orderQuery(c)
	q.UserID = uint(max(queryInt(c, "user_id"), 0))

	page, err := g.svc.Orders.AdminList(c.Request.Context(), currentPrincipal(c), q)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderPageResponse(page))
}
