package gateway

import (
	"net/http"

	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

func (g *Gateway) listCategories(c *gin.Context) {
	rows, err := g.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	out := make([]categoryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newCategoryResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (g *Gateway) showCategory(c *gin.Context) {
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	category, err := g.svc.Catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": newCategoryResponse(category)})
}

func (g *Gateway) createCategory(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	category, err := g.svc.Catalog.CreateCategory(c.Request.Context(), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": newCategoryResponse(category),
	})
}

func (g *Gateway) updateCategory(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	category, err := g.svc.Catalog.UpdateCategory(c.Request.Context(), id, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Category updated successfully",
		"category": newCategoryResponse(category),
	})
}

func (g *Gateway) deleteCategory(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	if err := g.svc.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
