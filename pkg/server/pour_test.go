package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.openly.dev/pointy"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"droscher.com/DramGargoyle/pkg/auth"
	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/server"
	"droscher.com/DramGargoyle/pkg/tracking"
)

// fakeTracker returns canned values so the handler layer can be exercised
// without the tracking service behind it.
type fakeTracker struct {
	pour         *model.Pour
	deleteResult *tracking.DeletePourResult
	bottle       *model.Bottle
	previous     float64
	current      float64
	pours        []*model.Pour
	history      []*model.FillLevelAdjustment
	session      *model.PourSession
	sessionPours []*model.Pour
	err          error

	lastInput    tracking.RecordPourInput
	lastBottleID uint
	lastPourID   uint
	lastLevel    float64
	lastReason   model.AdjustmentReason
}

func (f *fakeTracker) RecordPour(_ context.Context, _ *model.User, input tracking.RecordPourInput) (*model.Pour, error) {
	f.lastInput = input

	if f.err != nil {
		return nil, f.err
	}

	return f.pour, nil
}

func (f *fakeTracker) DeletePour(_ context.Context, _ *model.User, pourID uint) (*tracking.DeletePourResult, error) {
	f.lastPourID = pourID

	if f.err != nil {
		return nil, f.err
	}

	return f.deleteResult, nil
}

func (f *fakeTracker) OpenBottle(_ context.Context, _ *model.User, bottleID uint) (*model.Bottle, error) {
	f.lastBottleID = bottleID

	if f.err != nil {
		return nil, f.err
	}

	return f.bottle, nil
}

func (f *fakeTracker) AdjustFillLevel(_ context.Context, _ *model.User, bottleID uint, newLevel float64, reason model.AdjustmentReason, _ string) (*model.Bottle, error) {
	f.lastBottleID = bottleID
	f.lastLevel = newLevel
	f.lastReason = reason

	if f.err != nil {
		return nil, f.err
	}

	return f.bottle, nil
}

func (f *fakeTracker) RecalculateFillLevel(_ context.Context, _ *model.User, bottleID uint) (float64, float64, *model.Bottle, error) {
	f.lastBottleID = bottleID

	if f.err != nil {
		return 0, 0, nil, f.err
	}

	return f.previous, f.current, f.bottle, nil
}

func (f *fakeTracker) GetBottlePours(_ context.Context, _ *model.User, bottleID uint) ([]*model.Pour, error) {
	f.lastBottleID = bottleID

	return f.pours, f.err
}

func (f *fakeTracker) GetFillLevelHistory(_ context.Context, _ *model.User, bottleID uint) ([]*model.FillLevelAdjustment, error) {
	f.lastBottleID = bottleID

	return f.history, f.err
}

func (f *fakeTracker) GetSession(_ context.Context, _ *model.User, _ uint) (*model.PourSession, []*model.Pour, error) {
	if f.err != nil {
		return nil, nil, f.err
	}

	return f.session, f.sessionPours, nil
}

type fakeSessionRepository struct {
	sessions []*model.PourSession
	err      error
}

func (f *fakeSessionRepository) GetSessionsForUser(_ context.Context, _ model.User) ([]*model.PourSession, error) {
	return f.sessions, f.err
}

type PourServerTestSuite struct {
	suite.Suite
	tracker      *fakeTracker
	sessions     *fakeSessionRepository
	router       *gin.Engine
	observedLogs *observer.ObservedLogs
}

func TestPourServerTestSuite(t *testing.T) {
	suite.Run(t, new(PourServerTestSuite))
}

func (suite *PourServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	observedZapCore, observedLogs := observer.New(zap.InfoLevel)
	suite.observedLogs = observedLogs

	suite.tracker = &fakeTracker{}
	suite.sessions = &fakeSessionRepository{}
	service := server.NewPourServer(suite.tracker, suite.sessions, zap.New(observedZapCore))

	user := &model.User{Model: gorm.Model{ID: 1}}

	suite.router = gin.New()
	suite.router.Use(func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			auth.WithUser(c, user)
		}

		c.Next()
	})
	suite.router.POST("/bottles/:id/pours", service.RecordPour)
	suite.router.GET("/bottles/:id/pours", service.ListBottlePours)
	suite.router.POST("/bottles/:id/open", service.OpenBottle)
	suite.router.PUT("/bottles/:id/fill-level", service.AdjustFillLevel)
	suite.router.POST("/bottles/:id/fill-level/recalculate", service.RecalculateFillLevel)
	suite.router.GET("/bottles/:id/fill-level/history", service.GetFillLevelHistory)
	suite.router.DELETE("/pours/:id", service.DeletePour)
	suite.router.GET("/sessions", service.ListSessions)
	suite.router.GET("/sessions/:id", service.GetSession)
}

func (suite *PourServerTestSuite) do(method string, path string, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Authorization", "Bearer test-token")
	request.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	suite.router.ServeHTTP(recorder, request)

	return recorder
}

func (suite *PourServerTestSuite) decode(recorder *httptest.ResponseRecorder) map[string]any {
	var body map[string]any

	suite.Require().NoError(json.Unmarshal(recorder.Body.Bytes(), &body))

	return body
}

func (suite *PourServerTestSuite) TestRecordPour() {
	sessionID := uint(5)
	suite.tracker.pour = &model.Pour{
		Model:     gorm.Model{ID: 10},
		BottleID:  7,
		SessionID: &sessionID,
		Amount:    2,
		PouredAt:  time.Now().UTC(),
	}

	recorder := suite.do(http.MethodPost, "/bottles/7/pours", `{"amount": 2, "rating": 8}`)
	suite.Require().Equal(http.StatusCreated, recorder.Code)

	suite.Equal(uint(7), suite.tracker.lastInput.BottleID)
	suite.InDelta(2.0, suite.tracker.lastInput.Amount, 0.001)
	suite.Require().NotNil(suite.tracker.lastInput.Rating)
	suite.InDelta(8.0, *suite.tracker.lastInput.Rating, 0.001)

	body := suite.decode(recorder)
	pour, ok := body["pour"].(map[string]any)
	suite.Require().True(ok)
	suite.InDelta(10, pour["id"].(float64), 0.001)
	suite.InDelta(5, pour["sessionId"].(float64), 0.001)
}

func (suite *PourServerTestSuite) TestRecordPour_InvalidBody() {
	recorder := suite.do(http.MethodPost, "/bottles/7/pours", `{"rating": 8}`)
	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.Contains(recorder.Body.String(), "invalid request body")
}

func (suite *PourServerTestSuite) TestRecordPour_InvalidID() {
	recorder := suite.do(http.MethodPost, "/bottles/abc/pours", `{"amount": 2}`)
	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.Contains(recorder.Body.String(), "invalid id")
}

func (suite *PourServerTestSuite) TestRecordPour_Unauthenticated() {
	request := httptest.NewRequest(http.MethodPost, "/bottles/7/pours", strings.NewReader(`{"amount": 2}`))
	recorder := httptest.NewRecorder()
	suite.router.ServeHTTP(recorder, request)

	suite.Equal(http.StatusUnauthorized, recorder.Code)
}

func (suite *PourServerTestSuite) TestErrorMapping() {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "missing", err: tracking.ErrNotFound, status: http.StatusNotFound},
		{name: "missing record", err: gorm.ErrRecordNotFound, status: http.StatusNotFound},
		{name: "foreign", err: tracking.ErrForbidden, status: http.StatusForbidden},
		{name: "bad input", err: tracking.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "bad state", err: tracking.ErrInvalidState, status: http.StatusBadRequest},
		{name: "unknown", err: errors.New("database on fire"), status: http.StatusInternalServerError},
	}

	for _, test := range tests {
		suite.Run(test.name, func() {
			suite.tracker.err = test.err

			recorder := suite.do(http.MethodPost, "/bottles/7/pours", `{"amount": 2}`)
			suite.Equal(test.status, recorder.Code)
		})
	}
}

func (suite *PourServerTestSuite) TestErrorMapping_HidesInternalDetail() {
	suite.tracker.err = errors.New("database on fire")

	recorder := suite.do(http.MethodPost, "/bottles/7/pours", `{"amount": 2}`)
	suite.Equal(http.StatusInternalServerError, recorder.Code)
	suite.Contains(recorder.Body.String(), "internal error")
	suite.NotContains(recorder.Body.String(), "database on fire")
}

func (suite *PourServerTestSuite) TestDeletePour() {
	suite.tracker.deleteResult = &tracking.DeletePourResult{
		Bottle: &model.Bottle{Model: gorm.Model{ID: 7}, FillLevel: 92.12, Status: model.StatusOpened},
		Session: &model.PourSession{
			Model:      gorm.Model{ID: 5},
			TotalPours: 1,
		},
	}

	recorder := suite.do(http.MethodDelete, "/pours/10", "")
	suite.Require().Equal(http.StatusOK, recorder.Code)
	suite.Equal(uint(10), suite.tracker.lastPourID)

	body := suite.decode(recorder)
	suite.Equal(true, body["deleted"])

	bottle, ok := body["bottle"].(map[string]any)
	suite.Require().True(ok)
	suite.InDelta(92.12, bottle["fillLevel"].(float64), 0.001)

	session, ok := body["session"].(map[string]any)
	suite.Require().True(ok)
	suite.InDelta(1, session["totalPours"].(float64), 0.001)
}

func (suite *PourServerTestSuite) TestOpenBottle() {
	now := time.Now().UTC()
	suite.tracker.bottle = &model.Bottle{
		Model:     gorm.Model{ID: 7},
		Status:    model.StatusOpened,
		FillLevel: 100,
		OpenedAt:  &now,
	}

	recorder := suite.do(http.MethodPost, "/bottles/7/open", "")
	suite.Require().Equal(http.StatusOK, recorder.Code)
	suite.Equal(uint(7), suite.tracker.lastBottleID)

	body := suite.decode(recorder)
	bottle, ok := body["bottle"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("opened", bottle["status"])
}

func (suite *PourServerTestSuite) TestAdjustFillLevel() {
	suite.tracker.bottle = &model.Bottle{Model: gorm.Model{ID: 7}, Status: model.StatusOpened, FillLevel: 50}

	recorder := suite.do(http.MethodPut, "/bottles/7/fill-level", `{"fillLevel": 50, "reason": "shared"}`)
	suite.Require().Equal(http.StatusOK, recorder.Code)
	suite.InDelta(50.0, suite.tracker.lastLevel, 0.001)
	suite.Equal(model.ReasonShared, suite.tracker.lastReason)
}

func (suite *PourServerTestSuite) TestAdjustFillLevel_MissingReason() {
	recorder := suite.do(http.MethodPut, "/bottles/7/fill-level", `{"fillLevel": 50}`)
	suite.Equal(http.StatusBadRequest, recorder.Code)
	suite.Contains(recorder.Body.String(), "invalid request body")
}

func (suite *PourServerTestSuite) TestRecalculateFillLevel() {
	suite.tracker.previous = 50
	suite.tracker.current = 84.23
	suite.tracker.bottle = &model.Bottle{Model: gorm.Model{ID: 7}, Status: model.StatusOpened, FillLevel: 84.23}

	recorder := suite.do(http.MethodPost, "/bottles/7/fill-level/recalculate", "")
	suite.Require().Equal(http.StatusOK, recorder.Code)

	body := suite.decode(recorder)
	suite.InDelta(50.0, body["previousLevel"].(float64), 0.001)
	suite.InDelta(84.23, body["newLevel"].(float64), 0.001)
}

func (suite *PourServerTestSuite) TestGetFillLevelHistory() {
	suite.tracker.history = []*model.FillLevelAdjustment{
		{BottleID: 7, PreviousLevel: 100, NewLevel: 92.12, Kind: model.AdjustmentPour},
		{BottleID: 7, PreviousLevel: 92.12, NewLevel: 50, Kind: model.AdjustmentManual, Note: "shared"},
	}

	recorder := suite.do(http.MethodGet, "/bottles/7/fill-level/history", "")
	suite.Require().Equal(http.StatusOK, recorder.Code)

	body := suite.decode(recorder)
	history, ok := body["history"].([]any)
	suite.Require().True(ok)
	suite.Require().Len(history, 2)

	first, ok := history[0].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("pour", first["kind"])
}

func (suite *PourServerTestSuite) TestGetSession() {
	suite.tracker.session = &model.PourSession{
		Model:         gorm.Model{ID: 5},
		TotalPours:    2,
		TotalAmount:   4,
		AverageRating: pointy.Float64(8),
	}
	suite.tracker.sessionPours = []*model.Pour{
		{Model: gorm.Model{ID: 1}, BottleID: 7, Amount: 2},
		{Model: gorm.Model{ID: 2}, BottleID: 7, Amount: 2},
	}

	recorder := suite.do(http.MethodGet, "/sessions/5", "")
	suite.Require().Equal(http.StatusOK, recorder.Code)

	body := suite.decode(recorder)
	session, ok := body["session"].(map[string]any)
	suite.Require().True(ok)
	suite.InDelta(2, session["totalPours"].(float64), 0.001)
	suite.InDelta(8.0, session["averageRating"].(float64), 0.001)

	pours, ok := session["pours"].([]any)
	suite.Require().True(ok)
	suite.Len(pours, 2)
}

func (suite *PourServerTestSuite) TestListSessions() {
	suite.sessions.sessions = []*model.PourSession{
		{Model: gorm.Model{ID: 5}, Name: "March 14, 2026"},
		{Model: gorm.Model{ID: 6}, Name: "March 15, 2026"},
	}

	recorder := suite.do(http.MethodGet, "/sessions", "")
	suite.Require().Equal(http.StatusOK, recorder.Code)

	body := suite.decode(recorder)
	sessions, ok := body["sessions"].([]any)
	suite.Require().True(ok)
	suite.Len(sessions, 2)
}
