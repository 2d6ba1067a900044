// Command main populates the database with generated apps, users and feeds.
package main

import (
	"context"
	"flag"
	"log"

	"appfeed/internal/config"
	"appfeed/internal/middleware"
	"appfeed/internal/seed"
	"appfeed/internal/server"
)

func main() {
	opts := seed.DefaultOptions()

	// Parse command line flags
	flag.IntVar(&opts.Apps, "apps", opts.Apps, "Number of apps to create")
	flag.IntVar(&opts.UsersPerApp, "users", opts.UsersPerApp, "Users per app")
	flag.IntVar(&opts.FeedsPerApp, "feeds", opts.FeedsPerApp, "Feeds per app")
	flag.IntVar(&opts.AppAuthoredEach, "app-feeds", opts.AppAuthoredEach, "Every Nth feed is authored by the app")
	flag.IntVar(&opts.MaxComments, "comments", opts.MaxComments, "Maximum comments per feed")
	flag.IntVar(&opts.MaxReplies, "replies", opts.MaxReplies, "Maximum replies per comment")
	flag.IntVar(&opts.MaxLikes, "likes", opts.MaxLikes, "Maximum likes per feed")
	flag.Int64Var(&opts.RandomSeed, "seed", opts.RandomSeed, "Random seed for reproducible data")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d apps, %d users and %d feeds per app (seed %d)\n",
		opts.Apps, opts.UsersPerApp, opts.FeedsPerApp, opts.RandomSeed)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = srv.Shutdown(context.Background()) }()

	identity, feeds, interactions := srv.Services()
	sum, err := seed.Seed(context.Background(), seed.Services{
		Identity:     identity,
		Feeds:        feeds,
		Interactions: interactions,
	}, opts, middleware.Logger)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done: apps=%v users=%d feeds=%d likes=%d comments=%d replies=%d\n",
		sum.Apps, sum.Users, sum.Feeds, sum.Likes, sum.Comments, sum.Replies)
	log.Printf("All seeded users have the password: %s\n", seed.Password)
}
