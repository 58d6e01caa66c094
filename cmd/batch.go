package cmd

import (
	"context"

	"go.uber.org/zap"

	"droscher.com/DramGargoyle/configs"
	"droscher.com/DramGargoyle/pkg/repository"
	"droscher.com/DramGargoyle/pkg/tracking"
)

type AggregateRatingsCmd struct {
	ConfigFile string `default:".DramGargoyle.toml" help:"Path to config file" short:"c"`
}

func (a *AggregateRatingsCmd) Run(_ *Context) error {
	tracker, logger, cleanup, err := batchTracker(a.ConfigFile)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := tracker.RecalculateCommunityRatings(context.Background())
	if err != nil {
		logger.Error("rating aggregation finished with errors", zap.Error(err))
	}

	if result != nil {
		logger.Info("rating aggregation complete",
			zap.Int64("updated", result.WhiskeysUpdated),
			zap.Int64("cleared", result.WhiskeysCleared),
			zap.Duration("elapsed", result.Elapsed))
	}

	return err
}

type SweepOrphansCmd struct {
	ConfigFile string `default:".DramGargoyle.toml" help:"Path to config file" short:"c"`
}

func (s *SweepOrphansCmd) Run(_ *Context) error {
	tracker, logger, cleanup, err := batchTracker(s.ConfigFile)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := tracker.SweepOrphans(context.Background())
	if err != nil {
		logger.Error("orphan sweep finished with errors", zap.Error(err))
	}

	if result != nil {
		logger.Info("orphan sweep complete",
			zap.Int64("before", result.Before),
			zap.Int64("repaired", result.Repaired),
			zap.Int64("stillOrphaned", result.StillOrphaned))
	}

	return err
}

func batchTracker(configFile string) (*tracking.Tracker, *zap.Logger, func(), error) {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.DisableStacktrace = true

	logger, _ := logConfig.Build()

	conf, err := configs.GetConfig(configFile, logger)
	if err != nil {
		logger.Error("error loading config", zap.Error(err))

		return nil, nil, nil, err
	}

	repo, err := repository.Open(conf, logger)
	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))

		return nil, nil, nil, err
	}

	cleanup := func() {
		repo.Close()
		logger.Sync() //nolint:errcheck // we don't care about logger sync errors
	}

	return tracking.NewTrackerForRepository(repo, conf, logger), logger, cleanup, nil
}
