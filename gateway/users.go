package gateway

import (
	"net/http"

	"github.com/example/shopfront/pkg/service"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string  `json:"email" binding:"required,max=180"`
	Password string  `json:"password" binding:"required"`
	Name     string  `json:"name" binding:"required,max=100"`
	Address  *string `json:"address" binding:"omitempty,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Address  *string `json:"address" binding:"omitempty,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
	Password *string `json:"password"`
}

func (g *Gateway) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	user, err := g.svc.Users.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    newUserResponse(user),
	})
}

func (g *Gateway) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	session, err := g.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      session.Token,
		"expires_at": formatTime(session.ExpiresAt),
		"user":       newUserResponse(session.User),
	})
}

func (g *Gateway) logout(c *gin.Context) {
	if err := g.svc.Users.Logout(c.Request.Context(), currentPrincipal(c)); err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (g *Gateway) profile(c *gin.Context) {
	user, err := g.svc.Users.Profile(c.Request.Context(), currentPrincipal(c).UserID)
	if err != nil {
		g.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

func (g *Gateway) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.bindError(c, err)
		return
	}

	user, err := g.svc.Users.UpdateProfile(c.Request.Context(), currentPrincipal(c).UserID, service.ProfileInput{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		g.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    newUserResponse(user),
	})
}
