package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"droscher.com/DramGargoyle/configs"
	"droscher.com/DramGargoyle/pkg/auth"
	"droscher.com/DramGargoyle/pkg/repository"
	"droscher.com/DramGargoyle/pkg/server"
	"droscher.com/DramGargoyle/pkg/tracking"
)

const timeout = 5 * time.Second

type ServeCmd struct {
	ConfigFile string `default:".DramGargoyle.toml" help:"Path to config file" short:"c"`
}

func (s *ServeCmd) Run(_ *Context) error {
	logConfig := zap.NewProductionConfig()

	logger, _ := logConfig.Build()
	defer logger.Sync() //nolint:errcheck // we don't care about logger sync errors

	conf, err := configs.GetConfig(s.ConfigFile, logger)
	if err != nil {
		logger.Error("error loading config", zap.Error(err))

		return err
	}

	repo, err := repository.Open(conf, logger)
	if err != nil {
		logger.Error("error connecting to database", zap.Error(err))

		return err
	}
	defer repo.Close()

	authManager := auth.NewAuthManager(conf, repo, logger)
	tracker := tracking.NewTrackerForRepository(repo, conf, logger)

	router := server.NewRouter(
		authManager,
		server.NewUserServer(repo, logger),
		server.NewWhiskeyServer(repo, logger, conf),
		server.NewCabinetServer(repo, logger),
		server.NewPourServer(tracker, repo, logger),
		server.NewAdminServer(tracker, logger),
	)

	address := fmt.Sprintf(":%d", conf.Server.Port)

	corsHandler := configureCORS(router)

	svr := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: timeout,
		Handler:           corsHandler,
	}

	logger.Info("starting server", zap.String("address", address))

	err = svr.ListenAndServe()
	if err != nil {
		logger.Error("failed to start server", zap.Error(err))

		return err
	}

	return nil
}

func configureCORS(handler http.Handler) http.Handler {
	corsOpts := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH"},
		AllowedHeaders: []string{
			"accept",
			"accept-encoding",
			"accept-language",
			"authorization",
			"cache-control",
			"content-encoding",
			"content-length",
			"content-type",
			"date",
			"keep-alive",
			"origin",
			"referer",
			"user-agent",
			auth.AutomationTokenHeader,
		},
		MaxAge:             86400, // 24 hours
		OptionsPassthrough: false, // Handle OPTIONS requests in CORS middleware
	})

	return corsOpts.Handler(handler)
}
