package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (g *Gateway) adminListUsers(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	users, err := g.svc.Users.ListUsers(c.Request.Context())
	if err != nil {
		g.writeError(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, newUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (g *Gateway) adminGetUser(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	user, err := g.svc.Users.GetUser(c.Request.Context(), id)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

func (g *Gateway) adminChangeRole(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	user, err := g.svc.Users.ChangeRole(c.Request.Context(), currentPrincipal(c), id, req.Role)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated successfully",
		"user":    newUserResponse(user),
	})
}

func (g *Gateway) adminDeleteUser(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	if err := g.svc.Users.DeleteUser(c.Request.Context(), currentPrincipal(c), id); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (g *Gateway) adminStatistics(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	stats, err := g.svc.Reports.UserStatistics(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": newUserStatsResponse(stats)})
}

func (g *Gateway) adminDashboard(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	d, err := g.svc.Reports.Dashboard(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDashboardResponse(d))
}

func (g *Gateway) adminAuditHistory(c *gin.Context) {
	if !g.requireAdmin(c) {
		return
	}
	id, ok := g.idParam(c)
	if !ok {
		return
	}
	entries, err := g.svc.Audit.History(c.Request.Context(), currentPrincipal(c), c.Param("entity"), id, queryInt(c, "limit"))
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": newAuditEntryResponses(entries)})
}
