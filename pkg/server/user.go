package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.openly.dev/pointy"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/repository"
)

type UserServer struct {
	repository *repository.Repository
	logger     *zap.Logger
}

func NewUserServer(repository *repository.Repository, logger *zap.Logger) *UserServer {
	return &UserServer{repository: repository, logger: logger}
}

type addUserRequest struct {
	Name               string `json:"name" binding:"required"`
	Email              string `json:"email" binding:"required,email"`
	WhiskybaseUserName string `json:"whiskybaseUsername"`
}

func (u *UserServer) AddUser(c *gin.Context) {
	var request addUserRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	var whiskybaseUserName *string
	if len(request.WhiskybaseUserName) > 0 {
		whiskybaseUserName = pointy.String(request.WhiskybaseUserName)
	}

	user, err := u.repository.AddUser(c.Request.Context(), request.Name, request.Email, whiskybaseUserName)
	if err != nil {
		u.logger.Error("error adding user", zap.String("email", request.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": UserFromModel(user)})
}

func (u *UserServer) GetCurrentUser(c *gin.Context) {
	user, ok := requester(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": UserFromModel(user)})
}
