package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/umo-app/umo/internal/repository"
	"github.com/umo-app/umo/internal/service"
)

type UserController struct {
	users service.UserInteractor
}

func NewUserController(users service.UserInteractor) *UserController {
	return &UserController{users: users}
}

// GetUser returns the locally synced profile for an identity provider user id.
func (c *UserController) GetUser(ctx *gin.Context) {
	externalID := ctx.Param("externalID")
	if externalID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}

	user, err := c.users.GetUser(ctx.Request.Context(), externalID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}
