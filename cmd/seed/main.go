// Command seed fills the database with demo musicians and events.
package main

import (
	"context"
	"flag"
	"log"

	"jamsesh/internal/bootstrap"
	"jamsesh/internal/config"
	"jamsesh/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of musicians to create")
	numPosts := flag.Int("posts", 80, "Number of posts to create")
	clean := flag.Bool("clean", true, "Delete existing data before seeding")
	fixture := flag.String("fixture", "", "YAML fixture to load instead of generated data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{NumUsers: *numUsers, NumPosts: *numPosts, Clean: *clean})

	var sum seed.Summary
	if *fixture != "" {
		fx, err := seed.LoadFixture(*fixture)
		if err != nil {
			log.Fatalf("Fixture load failed: %v", err)
		}
		sum, err = s.Apply(ctx, fx)
		if err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
	} else {
		sum, err = s.Run(ctx)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	log.Printf("Seeded %d profiles and %d posts", sum.Profiles, sum.Posts)
	log.Printf("All demo accounts use the password: %s", seed.DemoPassword)
}
