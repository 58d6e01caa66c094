package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.openly.dev/pointy"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/configs"
	"droscher.com/DramGargoyle/pkg/integrations"
	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/repository"
)

type WhiskeyServer struct {
	repository *repository.Repository
	logger     *zap.Logger
	config     *configs.Config
}

func NewWhiskeyServer(repository *repository.Repository, logger *zap.Logger, config *configs.Config) *WhiskeyServer {
	return &WhiskeyServer{repository: repository, logger: logger, config: config}
}

func (w *WhiskeyServer) FindWhiskey(c *gin.Context) {
	if _, ok := requester(c); !ok {
		return
	}

	query := c.Query("q")
	if len(query) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})

		return
	}

	var whiskeys []WhiskeyJSON

	for _, integration := range w.config.Integrations.Whiskey {
		whiskeyIntegration := integrations.GetIntegration(integration, w.logger)
		if whiskeyIntegration == nil {
			continue
		}

		found, err := whiskeyIntegration.FindWhiskey(query)
		if err != nil {
			w.logger.Error("failed whiskey search", zap.String("integration", integration), zap.Error(err))

			continue
		}

		for index := range found {
			whiskeys = append(whiskeys, WhiskeyFromModel(&found[index]))
		}
	}

	c.JSON(http.StatusOK, gin.H{"whiskeys": whiskeys})
}

type addWhiskeyRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	ImageURL       string   `json:"imageUrl"`
	Style          string   `json:"style"`
	StyleID        uint     `json:"styleId"`
	DistilleryID   uint     `json:"distilleryId"`
	DistilleryName string   `json:"distilleryName"`
	ExternalID     *uint64  `json:"externalId"`
	ExternalSource string   `json:"externalSource"`
	Proof          *float64 `json:"proof"`
	Age            *uint64  `json:"age"`
}

func (w *WhiskeyServer) AddWhiskey(c *gin.Context) {
	if _, ok := requester(c); !ok {
		return
	}

	var request addWhiskeyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})

		return
	}

	whiskey := model.Whiskey{
		Name:        request.Name,
		Description: request.Description,
		ImageURL:    request.ImageURL,
		Proof:       request.Proof,
		Age:         request.Age,
	}

	if request.ExternalID != nil {
		whiskey.ExternalID = request.ExternalID
		whiskey.ExternalSource = pointy.String(request.ExternalSource)
	}

	w.assignDistillery(c, &request, &whiskey)

	if len(request.Style) > 0 || request.StyleID != 0 {
		if err := w.assignWhiskeyStyle(c, &request, &whiskey); err != nil {
			w.renderError(c, err)

			return
		}
	}

	created, err := w.repository.AddWhiskey(c.Request.Context(), whiskey)
	if err != nil {
		w.renderError(c, err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{"whiskey": WhiskeyFromModel(created)})
}

func (w *WhiskeyServer) assignWhiskeyStyle(c *gin.Context, request *addWhiskeyRequest, whiskey *model.Whiskey) error {
	if request.StyleID != 0 {
		whiskey.StyleID = request.StyleID

		return nil
	}

	style, err := w.repository.AddWhiskeyStyle(c.Request.Context(), request.Style)
	if err != nil {
		return err
	}

	whiskey.StyleID = style.ID

	return nil
}

func (w *WhiskeyServer) assignDistillery(c *gin.Context, request *addWhiskeyRequest, whiskey *model.Whiskey) {
	if request.DistilleryID != 0 {
		whiskey.DistilleryID = request.DistilleryID

		return
	}

	if request.ExternalID != nil {
		distillery, err := w.repository.FindDistilleryByExternalSource(c.Request.Context(), *request.ExternalID, request.ExternalSource)
		if err == nil {
			whiskey.DistilleryID = distillery.ID

			return
		}

		if !errors.Is(err, repository.ErrDistilleryNotFound) {
			w.logger.Error("error looking for distillery",
				zap.Uint64("external ID", *request.ExternalID),
				zap.String("source", request.ExternalSource),
				zap.Error(err))
		}
	}

	whiskey.Distillery = model.Distillery{Name: request.DistilleryName}
}

func (w *WhiskeyServer) renderError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		w.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})

		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
