package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/tracking"
)

// batchRunner is the slice of the tracking service the automation endpoints
// trigger.
type batchRunner interface {
	SweepOrphans(ctx context.Context) (*tracking.SweepResult, error)
	RecalculateCommunityRatings(ctx context.Context) (*tracking.RatingResult, error)
}

type AdminServer struct {
	batches batchRunner
	logger  *zap.Logger
}

func NewAdminServer(batches batchRunner, logger *zap.Logger) *AdminServer {
	return &AdminServer{batches: batches, logger: logger}
}

// SweepOrphans runs the orphaned-pour reconciliation. Per-row repair errors
// are reported in the counts rather than failing the request; the operator
// alert signal is a non-zero stillOrphaned.
func (a *AdminServer) SweepOrphans(c *gin.Context) {
	result, err := a.batches.SweepOrphans(c.Request.Context())
	if result == nil {
		a.logger.Error("orphan sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	if err != nil {
		a.logger.Error("orphan sweep finished with errors", zap.Error(err))
	}

	c.JSON(http.StatusOK, SweepResultFromModel(result))
}

func (a *AdminServer) AggregateRatings(c *gin.Context) {
	result, err := a.batches.RecalculateCommunityRatings(c.Request.Context())
	if result == nil {
		a.logger.Error("rating aggregation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

		return
	}

	if err != nil {
		a.logger.Error("rating aggregation finished with errors", zap.Error(err))
	}

	c.JSON(http.StatusOK, RatingResultFromModel(result))
}
