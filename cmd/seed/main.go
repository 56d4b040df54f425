// Command seed fills the database with sample authors and posts.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"ideafoundry/internal/config"
	"ideafoundry/internal/database"
	"ideafoundry/internal/seed"
)

func main() {
	extraUsers := flag.Int("users", 0, "Number of generated users on top of the built-in authors")
	extraPosts := flag.Int("posts", 0, "Number of generated posts on top of the built-in posts")
	clean := flag.Bool("clean", false, "Delete all posts and users before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for generated data (0 = time based)")
	maxDays := flag.Int("max-days", 90, "Spread generated posts over this many past days")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: +%d users, +%d posts, clean=%v", *extraUsers, *extraPosts, *clean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	summary, err := seed.NewSeeder(db, seed.Options{
		ExtraUsers: *extraUsers,
		ExtraPosts: *extraPosts,
		Clean:      *clean,
		RandSeed:   *randSeed,
		MaxDays:    *maxDays,
	}).Run(context.Background())
	if err != nil {
		var schemaErr *database.SchemaError
		if errors.As(err, &schemaErr) {
			log.Fatalf("Schema check failed: %v", schemaErr)
		}
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done: %d users, %d posts", summary.Users, summary.Posts)
}
