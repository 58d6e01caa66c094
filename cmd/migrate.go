package cmd

import (
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/configs"
	"droscher.com/DramGargoyle/pkg/model"
	"droscher.com/DramGargoyle/pkg/repository"
)

type MigrateCmd struct {
	ConfigFile string `default:".DramGargoyle.toml" help:"Path to config file" short:"c"`
}

func (m *MigrateCmd) Run(_ *Context) error {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.DisableStacktrace = true

	logger, _ := logConfig.Build()
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	conf, err := configs.GetConfig(m.ConfigFile, logger)
	if err != nil {
		logger.Error("error loading config", zap.Error(err))

		return err
	}

	repo, err := repository.Open(conf, logger)
	if err != nil {
		logger.Fatal("error connecting to database")
	}
	defer repo.Close()

	err = repo.DB.AutoMigrate(
		&model.Address{}, &model.Distillery{},
		&model.WhiskeyStyle{}, &model.Tag{}, &model.Whiskey{},
		&model.User{},
		&model.Cabinet{}, &model.ShelfInCabinet{}, &model.Bottle{},
		&model.FillLevelAdjustment{},
		&model.PourSession{}, &model.Pour{})
	if err != nil {
		return err
	}

	return nil
}
