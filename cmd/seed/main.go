// Seed tool: populates the store with a reproducible benchmark dataset.
// Re-running without -clean never duplicates users, but it does reshuffle
// follow edges and append a fresh batch of posts.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Moustapha2526/TinyIsnta/internal/bootstrap"
	"github.com/Moustapha2526/TinyIsnta/internal/config"
	"github.com/Moustapha2526/TinyIsnta/internal/logger"
	"github.com/Moustapha2526/TinyIsnta/internal/seed"
	"github.com/Moustapha2526/TinyIsnta/internal/social"
)

func main() {
	var users int
	var postsPerUser int
	var followeesPerUser int
	var prefix string
	var seedValue int64
	var clean bool
	var dryRun bool
	flag.IntVar(&users, "users", 5, "number of users to create")
	flag.IntVar(&postsPerUser, "posts-per-user", 30, "number of posts per user")
	flag.IntVar(&followeesPerUser, "followees-per-user", 3, "number of followees per user (excluding self)")
	flag.StringVar(&prefix, "prefix", "user", "username prefix")
	flag.Int64Var(&seedValue, "seed", 0, "random seed for reproducibility (0 = time-based)")
	flag.BoolVar(&clean, "clean", false, "wipe all users and posts before seeding")
	flag.BoolVar(&dryRun, "dry-run", false, "log the plan without writing anything")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init("tinyinsta-seed", cfg.Debug)

	ctx := context.Background()
	st, err := bootstrap.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init store")
	}

	graph := social.NewGraph(st)
	posts := social.NewPosts(st)
	pipeline := seed.NewPipeline(st, graph, posts, log.Logger)

	start := time.Now()
	result, err := pipeline.Run(ctx, seed.Params{
		Users:            users,
		PostsPerUser:     postsPerUser,
		FolloweesPerUser: followeesPerUser,
		Prefix:           prefix,
		Seed:             seedValue,
		Clean:            clean,
		DryRun:           dryRun,
	})
	if err != nil {
		evt := log.Fatal().Err(err)
		if result != nil {
			evt = evt.Int("users_created", result.UsersCreated).Int("posts_created", result.PostsCreated)
		}
		evt.Msg("seeding failed")
	}

	log.Info().
		Int("users_total", result.UsersTargeted).
		Int("users_created", result.UsersCreated).
		Int("posts_created", result.PostsCreated).
		Int("users_wiped", result.UsersWiped).
		Int("posts_wiped", result.PostsWiped).
		Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).
		Msg("seeding done")
}
