package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"quiz-ai-platform/internal/config"
	pg "quiz-ai-platform/internal/infra/db/postgres"
	"quiz-ai-platform/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool))

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, credits=%d, price=%d cents)\n", p.Name, p.DurationDays, p.Credits, p.PriceCents)
		}
		return
	}

	// Seed a few sample plans for testing the billing flow. Provider price ids
	// must be remapped to real ones before checkout works.
	seed := []struct {
		Name    string
		Desc    string
		Price   int64
		Credits int64
		Days    int
		PriceID string
	}{
		{"Starter", "Entry tier for casual quizzing", 499, 300, 30, "price_starter_test"},
		{"Pro", "For regular quiz builders", 1499, 2000, 30, "price_pro_test"},
		{"Ultra", "High-volume teams", 4999, 8000, 30, "price_ultra_test"},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Desc, s.Price, s.Credits, s.Days, s.PriceID)
		if err != nil {
			log.Fatalf("create plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, credits=%d, price=%d cents)\n", p.Name, p.ID, p.Credits, p.PriceCents)
	}

	fmt.Println("Seeding complete.")
}
