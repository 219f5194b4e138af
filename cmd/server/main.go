package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Moustapha2526/TinyIsnta/internal/bootstrap"
	"github.com/Moustapha2526/TinyIsnta/internal/config"
	"github.com/Moustapha2526/TinyIsnta/internal/feed"
	"github.com/Moustapha2526/TinyIsnta/internal/httpapi"
	"github.com/Moustapha2526/TinyIsnta/internal/logger"
	"github.com/Moustapha2526/TinyIsnta/internal/seed"
	"github.com/Moustapha2526/TinyIsnta/internal/social"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init("tinyinsta", cfg.Debug)

	st, err := bootstrap.NewStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init store")
	}

	graph := social.NewGraph(st)
	posts := social.NewPosts(st)
	feedSvc := feed.NewService(graph, posts)
	seeder := seed.NewPipeline(st, graph, posts, log.Logger)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	httpapi.NewHandler(graph, posts, feedSvc, seeder, cfg.SeedToken).RegisterRoutes(router)

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("driver", cfg.StoreDriver).
		Msg("starting server")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
