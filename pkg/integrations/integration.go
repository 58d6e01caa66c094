package integrations

import (
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/pkg/integrations/whiskybase-web"
	"droscher.com/DramGargoyle/pkg/model"
)

type Integration interface {
	FindWhiskey(name string) ([]model.Whiskey, error)
	FindDistillery(name string) ([]model.Distillery, error)
}

func GetIntegration(name string, logger *zap.Logger) Integration {
	if name == whiskybaseweb.IntegrationName {
		return whiskybaseweb.NewWhiskybaseWebIntegration(logger)
	}

	return nil
}
