package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/model"
)

type cabinetRepository interface {
	AddCabinet(ctx context.Context, name string, description string, shelves []string, owner model.User) (*model.Cabinet, error)
	GetCabinetsForUser(ctx context.Context, user model.User) ([]*model.Cabinet, error)
	GetCabinetByID(ctx context.Context, cabinetID uint) (*model.Cabinet, error)
	GetCabinetStats(ctx context.Context, cabinetID uint) (*model.CabinetStats, error)
	GetCabinetBottles(ctx context.Context, cabinetID uint) ([]*model.Bottle, error)
	AddBottle(ctx context.Context, bottle model.Bottle) (*model.Bottle, error)
	GetBottleByID(ctx context.Context, bottleID uint) (*model.Bottle, error)
}

type CabinetServer struct {
	repository cabinetRepository
	logger     *zap.Logger
}

func NewCabinetServer(repository cabinetRepository, logger *zap.Logger) *CabinetServer {
	return &CabinetServer{repository: repository, logger: logger}
}

type addCabinetRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Shelves     []string `json:"shelves"`
}

type addBottleRequest struct {
	WhiskeyID     uint       `json:"whiskeyId" binding:"required"`
	ShelfID       *uint      `json:"shelfId"`
	PurchasePrice *float64   `json:"purchasePrice"`
	DateAdded     *time.Time `json:"dateAdded"`
}

func (s *CabinetServer) AddCabinet(c *gin.Context) {
	user, ok := requester(c)
	if !ok {
		return
	}

	var request addCabinetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	cabinet, err := s.repository.AddCabinet(c.Request.Context(), request.Name, request.Description, request.Shelves, *user)
	if err != nil {
		s.renderError(c, err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{"cabinet": CabinetFromModel(cabinet)})
}

func (s *CabinetServer) ListCabinets(c *gin.Context) {
	user, ok := requester(c)
	if !ok {
		return
	}

	cabinets, err := s.repository.GetCabinetsForUser(c.Request.Context(), *user)
	if err != nil {
		s.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"cabinets": CabinetsFromModel(cabinets)})
}

func (s *CabinetServer) GetCabinet(c *gin.Context) {
	_, cabinet, ok := s.ownedCabinet(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"cabinet": CabinetFromModel(cabinet)})
}

func (s *CabinetServer) GetCabinetStats(c *gin.Context) {
	_, cabinet, ok := s.ownedCabinet(c)
	if !ok {
		return
	}

	stats, err := s.repository.GetCabinetStats(c.Request.Context(), cabinet.ID)
	if err != nil {
		s.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": CabinetStatsFromModel(stats)})
}

func (s *CabinetServer) ListBottles(c *gin.Context) {
	_, cabinet, ok := s.ownedCabinet(c)
	if !ok {
		return
	}

	bottles, err := s.repository.GetCabinetBottles(c.Request.Context(), cabinet.ID)
	if err != nil {
		s.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"bottles": BottlesFromModel(bottles)})
}

func (s *CabinetServer) AddBottle(c *gin.Context) {
	user, cabinet, ok := s.ownedCabinet(c)
	if !ok {
		return
	}

	var request addBottleRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	bottle := model.Bottle{
		OwnerID:       user.ID,
		WhiskeyID:     request.WhiskeyID,
		CabinetID:     cabinet.ID,
		ShelfID:       request.ShelfID,
		Status:        model.StatusUnopened,
		FillLevel:     100,
		PurchasePrice: request.PurchasePrice,
		DateAdded:     request.DateAdded,
	}

	created, err := s.repository.AddBottle(c.Request.Context(), bottle)
	if err != nil {
		s.renderError(c, err)

		return
	}

	full, err := s.repository.GetBottleByID(c.Request.Context(), created.ID)
	if err != nil {
		s.logger.Error("error loading bottle after saving", zap.Uint("id", created.ID), zap.Error(err))
		full = created
	}

	c.JSON(http.StatusCreated, gin.H{"bottle": BottleFromModel(full)})
}

// ownedCabinet resolves the :id param to a cabinet the requester owns. A
// cabinet belonging to someone else renders as 404.
func (s *CabinetServer) ownedCabinet(c *gin.Context) (*model.User, *model.Cabinet, bool) {
	user, ok := requester(c)
	if !ok {
		return nil, nil, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})

		return nil, nil, false
	}

	cabinet, err := s.repository.GetCabinetByID(c.Request.Context(), uint(id))
	if err != nil {
		s.renderError(c, err)

		return nil, nil, false
	}

	if cabinet.OwnerID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "cabinet not found"})

		return nil, nil, false
	}

	return user, cabinet, true
}

func (s *CabinetServer) renderError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
