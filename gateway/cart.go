package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

func (g *Gateway) listCart(c *gin.Context) {
	view, err := g.svc.Carts.List(c.Request.Context(), currentPrincipal(c).UserID)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCartResponse(view))
}

func (g *Gateway) countCart(c *gin.Context) {
	n, err := g.svc.Carts.Count(c.Request.Context(), currentPrincipal(c).UserID)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

func (g *Gateway) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	item, err := g.svc.Carts.Add(c.Request.Context(), currentPrincipal(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product added to cart",
		"item":    newCartItemResponse(item),
	})
}

func (g *Gateway) updateCartItem(c *gin.Context) {
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	item, err := g.svc.Carts.Update(c.Request.Context(), currentPrincipal(c).UserID, id, req.Quantity)
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quantity updated",
		"item":    newCartItemResponse(item),
	})
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	if err := g.svc.Carts.Remove(c.Request.Context(), currentPrincipal(c).UserID, id); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart"})
}

func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.svc.Carts.Clear(c.Request.Context(), currentPrincipal(c).UserID); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
