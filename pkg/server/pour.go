package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"droscher.com/DramGargoyle/pkg/auth"
	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/tracking"
)

// pourTracker is the slice of the tracking service the pour endpoints need.
type pourTracker interface {
	RecordPour(ctx context.Context, requester *model.User, input tracking.RecordPourInput) (*model.Pour, error)
	DeletePour(ctx context.Context, requester *model.User, pourID uint) (*tracking.DeletePourResult, error)
	OpenBottle(ctx context.Context, requester *model.User, bottleID uint) (*model.Bottle, error)
	AdjustFillLevel(ctx context.Context, requester *model.User, bottleID uint, newLevel float64, reason model.AdjustmentReason, notes string) (*model.Bottle, error)
	RecalculateFillLevel(ctx context.Context, requester *model.User, bottleID uint) (previous float64, current float64, bottle *model.Bottle, err error)
	GetBottlePours(ctx context.Context, requester *model.User, bottleID uint) ([]*model.Pour, error)
	GetFillLevelHistory(ctx context.Context, requester *model.User, bottleID uint) ([]*model.FillLevelAdjustment, error)
	GetSession(ctx context.Context, requester *model.User, sessionID uint) (*model.PourSession, []*model.Pour, error)
}

type sessionRepository interface {
	GetSessionsForUser(ctx context.Context, user model.User) ([]*model.PourSession, error)
}

type PourServer struct {
	tracker  pourTracker
	sessions sessionRepository
	logger   *zap.Logger
}

func NewPourServer(tracker pourTracker, sessions sessionRepository, logger *zap.Logger) *PourServer {
	return &PourServer{tracker: tracker, sessions: sessions, logger: logger}
}

type recordPourRequest struct {
	Amount    float64    `json:"amount" binding:"required"`
	Rating    *float64   `json:"rating"`
	Cost      *float64   `json:"cost"`
	Note      string     `json:"note"`
	SessionID *uint      `json:"sessionId"`
	PouredAt  *time.Time `json:"pouredAt"`
}

type adjustFillLevelRequest struct {
	FillLevel *float64 `json:"fillLevel" binding:"required"`
	Reason    string   `json:"reason" binding:"required"`
	Notes     string   `json:"notes"`
}

func (p *PourServer) RecordPour(c *gin.Context) {
	user, bottleID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	var request recordPourRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	pour, err := p.tracker.RecordPour(c.Request.Context(), user, tracking.RecordPourInput{
		BottleID:  bottleID,
		Amount:    request.Amount,
		Rating:    request.Rating,
		Cost:      request.Cost,
		Note:      request.Note,
		SessionID: request.SessionID,
		PouredAt:  request.PouredAt,
	})
	if err != nil {
		p.renderError(c, err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{"pour": PourFromModel(pour)})
}

func (p *PourServer) DeletePour(c *gin.Context) {
	user, pourID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	result, err := p.tracker.DeletePour(c.Request.Context(), user, pourID)
	if err != nil {
		p.renderError(c, err)

		return
	}

	response := gin.H{"deleted": true, "bottle": BottleFromModel(result.Bottle)}
	if result.Session != nil {
		response["session"] = SessionFromModel(result.Session, nil)
	}

	c.JSON(http.StatusOK, response)
}

func (p *PourServer) OpenBottle(c *gin.Context) {
	user, bottleID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	bottle, err := p.tracker.OpenBottle(c.Request.Context(), user, bottleID)
	if err != nil {
		p.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"bottle": BottleFromModel(bottle)})
}

func (p *PourServer) AdjustFillLevel(c *gin.Context) {
	user, bottleID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	var request adjustFillLevelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	bottle, err := p.tracker.AdjustFillLevel(c.Request.Context(), user, bottleID,
		*request.FillLevel, model.AdjustmentReason(request.Reason), request.Notes)
	if err != nil {
		p.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"bottle": BottleFromModel(bottle)})
}

func (p *PourServer) RecalculateFillLevel(c *gin.Context) {
	user, bottleID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	previous, current, bottle, err := p.tracker.RecalculateFillLevel(c.Request.Context(), user, bottleID)
	if err != nil {
		p.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"previousLevel": previous,
		"newLevel":      current,
		"bottle":        BottleFromModel(bottle),
	})
}

func (p *PourServer) ListBottlePours(c *gin.Context) {
	user, bottleID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	pours, err := p.tracker.GetBottlePours(c.Request.Context(), user, bottleID)
	if err != nil {
		p.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"pours": PoursFromModel(pours)})
}

func (p *PourServer) GetFillLevelHistory(c *gin.Context) {
	user, bottleID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	history, err := p.tracker.GetFillLevelHistory(c.Request.Context(), user, bottleID)
	if err != nil {
		p.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"history": AdjustmentsFromModel(history)})
}

func (p *PourServer) GetSession(c *gin.Context) {
	user, sessionID, ok := p.requesterAndID(c, "id")
	if !ok {
		return
	}

	session, pours, err := p.tracker.GetSession(c.Request.Context(), user, sessionID)
	if err != nil {
		p.renderError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"session": SessionFromModel(session, pours)})
}

func (p *PourServer) ListSessions(c *gin.Context) {
	user, ok := requester(c)
	if !ok {
		return
	}

	sessions, err := p.sessions.GetSessionsForUser(c.Request.Context(), *user)
	if err != nil {
		p.renderError(c, err)

		return
	}

	result := make([]SessionJSON, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, SessionFromModel(session, nil))
	}

	c.JSON(http.StatusOK, gin.H{"sessions": result})
}

func (p *PourServer) requesterAndID(c *gin.Context, param string) (*model.User, uint, bool) {
	user, ok := requester(c)
	if !ok {
		return nil, 0, false
	}

	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})

		return nil, 0, false
	}

	return user, uint(id), true
}

func (p *PourServer) renderError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		p.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func requester(c *gin.Context) (*model.User, bool) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

		return nil, false
	}

	return user, true
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, tracking.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracking.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, tracking.ErrInvalidInput), errors.Is(err, tracking.ErrInvalidState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
