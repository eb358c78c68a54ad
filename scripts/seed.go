// Seeds the local database with a handful of sample observations so the API
// has data to serve during development.
//
// Usage: go run scripts/seed.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/benhicks2/tt-scraper/internal/config"
	"github.com/benhicks2/tt-scraper/internal/database"
	"github.com/benhicks2/tt-scraper/internal/model"
	"github.com/benhicks2/tt-scraper/internal/pricing"
	"github.com/benhicks2/tt-scraper/internal/repository"
	"github.com/benhicks2/tt-scraper/internal/service"

	"github.com/rs/zerolog"
)

var observations = []model.Observation{
	{Name: "Butterfly Tenergy 05", URL: "https://www.megaspin.net/store/tenergy-05", Price: "$45.99", Category: model.CategoryRubber},
	{Name: "Butterfly Tenergy 05", URL: "https://www.tabletennis11.com/rubbers/tenergy-05", Price: "$42.50", Category: model.CategoryRubber},
	{Name: "DHS Hurricane 3", URL: "https://www.megaspin.net/store/hurricane-3", Price: "$12.99", Category: model.CategoryRubber},
	{Name: "Yasaka Mark V", URL: "https://www.tabletennis11.com/rubbers/mark-v", Price: "$29.90", Category: model.CategoryRubber},
	{Name: "Butterfly Viscaria", URL: "https://www.megaspin.net/store/viscaria", Price: "$189.99", Category: model.CategoryBlade},
	{Name: "Stiga Clipper", URL: "https://www.tabletennis11.com/blades/clipper", Price: "$64.00", Category: model.CategoryBlade},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}

	repo := repository.NewEquipmentRepository(pool, logger)
	normalizer := pricing.NewNormalizer(cfg.Pricing.EURToUSDRate, logger)
	ingest := service.NewIngestService(repo, normalizer, logger)

	for _, obs := range observations {
		if err := ingest.Ingest(ctx, obs); err != nil {
			fmt.Fprintf(os.Stderr, "ingest %q: %v\n", obs.Name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("seeded %d observations\n", len(observations))
}
