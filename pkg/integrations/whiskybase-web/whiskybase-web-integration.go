package whiskybaseweb

import "go.uber.org/zap"

const IntegrationName = "whiskybase_web"

type WhiskybaseWebIntegration struct {
	logger *zap.Logger
}

func NewWhiskybaseWebIntegration(logger *zap.Logger) *WhiskybaseWebIntegration {
	return &WhiskybaseWebIntegration{logger: logger}
}
