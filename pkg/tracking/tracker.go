// Package tracking owns the fill-level ledger, pour recording, session
// aggregation and the reconciliation paths that keep the three consistent.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"droscher.com/DramGargoyle/configs"
	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrIntegrity    = errors.New("integrity defect")
)

// Store is the persistence surface the tracker needs. The production
// implementation is *repository.Repository; tests substitute an in-memory
// store.
type Store interface { //nolint:interfacebloat // this is an acceptable interface
	InTransaction(ctx context.Context, fn func(tx Store) error) error

	GetBottleByID(ctx context.Context, bottleID uint) (*model.Bottle, error)
	GetBottleForUpdate(ctx context.Context, bottleID uint) (*model.Bottle, error)
	UpdateBottle(ctx context.Context, bottle *model.Bottle) (*model.Bottle, error)
	AppendFillLevelAdjustment(ctx context.Context, adjustment model.FillLevelAdjustment) error
	GetFillLevelHistory(ctx context.Context, bottleID uint) ([]*model.FillLevelAdjustment, error)
	ClearFillLevelHistory(ctx context.Context, bottleID uint) error

	CreatePour(ctx context.Context, pour model.Pour) (*model.Pour, error)
	GetPourByID(ctx context.Context, pourID uint) (*model.Pour, error)
	DeletePour(ctx context.Context, pourID uint) error
	GetPoursForBottle(ctx context.Context, bottleID uint) ([]*model.Pour, error)
	GetBottleStats(ctx context.Context, bottleID uint) (*model.BottleStats, error)

	CreateSession(ctx context.Context, session model.PourSession) (*model.PourSession, error)
	GetSessionByID(ctx context.Context, sessionID uint) (*model.PourSession, error)
	GetSessionForDate(ctx context.Context, ownerID uint, date time.Time) (*model.PourSession, error)
	UpdateSession(ctx context.Context, session *model.PourSession) (*model.PourSession, error)
	GetSessionTotals(ctx context.Context, sessionID uint) (*model.SessionTotals, error)
	GetPoursForSession(ctx context.Context, sessionID uint) ([]*model.Pour, error)

	GetOrphanedPours(ctx context.Context, olderThan time.Time) ([]*model.Pour, error)
	CountOrphanedPours(ctx context.Context, olderThan time.Time) (int64, error)
	AssignPourSession(ctx context.Context, pourID uint, sessionID uint) error

	GetCommunityRatingRows(ctx context.Context) ([]model.CommunityRatingRow, error)
	UpdateCommunityRating(ctx context.Context, row model.CommunityRatingRow) error
	ClearCommunityRatings(ctx context.Context, keepIDs []uint) (int64, error)
}

type Tracker struct {
	store        Store
	logger       *zap.Logger
	bottleSize   float64
	orphanWindow time.Duration
}

func NewTracker(store Store, conf *configs.Config, logger *zap.Logger) *Tracker {
	return &Tracker{
		store:        store,
		logger:       logger,
		bottleSize:   conf.Pour.BottleSizeOunces,
		orphanWindow: time.Duration(conf.Pour.OrphanWindowMinutes) * time.Minute,
	}
}

// NewTrackerForRepository wires the tracker to the GORM repository.
func NewTrackerForRepository(repo *repository.Repository, conf *configs.Config, logger *zap.Logger) *Tracker {
	return NewTracker(repositoryStore{repo}, conf, logger)
}

// repositoryStore adapts *repository.Repository to Store: the embedded
// repository provides every method except the transaction wrapper, whose
// callback must receive a Store rather than a *Repository.
type repositoryStore struct {
	*repository.Repository
}

func (s repositoryStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.Repository.InTransaction(ctx, func(tx *repository.Repository) error {
		return fn(repositoryStore{tx})
	})
}

// notFoundOr maps a missing-record error from the store onto the domain
// taxonomy and passes everything else through.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}

	return err
}

// ouncesToPercent converts a poured volume to the percentage of a full bottle
// it represents, using the configured bottle-size constant.
func (t *Tracker) ouncesToPercent(amount float64) float64 {
	return amount / t.bottleSize * 100
}

func clampLevel(level float64) float64 {
	return math.Min(100, math.Max(0, level))
}

func roundToTenth(value float64) float64 {
	return math.Round(value*10) / 10
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
