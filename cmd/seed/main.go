package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"social-autopost/internal/config"
	pg "social-autopost/internal/infra/db/postgres"
	"social-autopost/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	demo := flag.Bool("demo", false, "seed demo categories, prompts and slots")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := pg.ApplySchema(ctx, pool); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("schema applied")

	if !*demo {
		return
	}

	categoryUC := usecase.NewCategoryUseCase(pg.NewCategoryRepo(pool))
	promptUC := usecase.NewPromptUseCase(pg.NewPromptRepo(pool))
	slotUC := usecase.NewSlotUseCase(pg.NewScheduleSlotRepo(pool))

	// If categories already exist, do nothing
	existing, err := categoryUC.List(ctx)
	if err != nil {
		log.Fatalf("list categories: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d categories already present. No changes.\n", len(existing))
		return
	}

	tech, err := categoryUC.Create(ctx, "Tech News", "daily technology commentary", 10)
	if err != nil {
		log.Fatalf("create category: %v", err)
	}
	if _, err := promptUC.Create(ctx,
		"daily-take",
		"Write a concise, opinionated tweet about a current technology trend. Today is {date}. {context}",
		tech.ID, 3); err != nil {
		log.Fatalf("create prompt: %v", err)
	}
	if _, err := promptUC.Create(ctx,
		"hot-question",
		"Pose one thought-provoking question about software engineering practice. Today is {date}.",
		tech.ID, 1); err != nil {
		log.Fatalf("create prompt: %v", err)
	}
	if _, err := slotUC.Create(ctx, "09:00", []string{"DAILY"}, tech.ID, "UTC"); err != nil {
		log.Fatalf("create slot: %v", err)
	}
	if _, err := slotUC.Create(ctx, "17:30", []string{"Monday", "Wednesday", "Friday"}, tech.ID, "UTC"); err != nil {
		log.Fatalf("create slot: %v", err)
	}

	fmt.Println("demo data seeded")
}
