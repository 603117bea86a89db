package gateway

import (
	"net/http"

	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *uint            `json:"category_id"`
	ImagePath   *string          `json:"image_path" binding:"omitempty,max=255"`
}

func (r productRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		CategoryID:  r.CategoryID,
		ImagePath:   r.ImagePath,
	}
}

func (g *Gateway) listProducts(c *gin.Context) {
	page, err := g.svc.Catalog.ListProducts(c.Request.Context(), service.ProductQuery{
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
		CategoryID: uint(max(queryInt(c, "category"), 0)),
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	})
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   newProductResponses(page.Products),
		"pagination": page.Pagination,
	})
}

func (g *Gateway) showProduct(c *gin.Context) {
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	product, err := g.svc.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": newProductResponse(product)})
}

func (g *Gateway) popularProducts(c *gin.Context) {
	rows, err := g.svc.Catalog.PopularProducts(c.Request.Context(),
		queryInt(c, "limit"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": newProductResponses(rows)})
}

func (g *Gateway) createProduct(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	product, err := g.svc.Catalog.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": newProductResponse(product),
	})
}

func (g *Gateway) updateProduct(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	product, err := g.svc.Catalog.UpdateProduct(c.Request.Context(), id, req.input())
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": newProductResponse(product),
	})
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	if err := g.svc.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
