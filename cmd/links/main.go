package main

import (
	"bookable/internal/links/handler"
	"bookable/internal/links/repository"
	"bookable/internal/links/service"
	"bookable/internal/links/validator"
	"bookable/pkg/app"
	"bookable/pkg/config"
	"bookable/pkg/sealer"
)

const ServiceName = "links"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.Client.GracefulShutdown(cfg.Log)

	cfg.Log.Info("Starting Links service")

	linkService := initServices(cfg)
	serverApp := app.NewApplication(cfg, handler.NewLinkHandler(linkService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.LinkService {
	tokenSealer, err := sealer.New(cfg.TokenSealKey)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize token sealer", "error", err)
	}

	linkValidator := validator.NewLinkValidator(cfg.Log)
	linkRepo := repository.NewMongoLinkRepository(cfg)
	linkService := service.NewLinkService(linkRepo, linkValidator, tokenSealer, cfg)

	cfg.Log.Info("Link service initialized", "database", cfg.MongoDatabaseName)
	return linkService
}
