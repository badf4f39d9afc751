package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nulzo/canteen-api/internal/auth"
	"github.com/nulzo/canteen-api/internal/cli"
	"github.com/nulzo/canteen-api/internal/config"
	"github.com/nulzo/canteen-api/internal/employees"
	"github.com/nulzo/canteen-api/internal/items"
	"github.com/nulzo/canteen-api/internal/platform/logger"
	"github.com/nulzo/canteen-api/internal/seed"
	"github.com/nulzo/canteen-api/internal/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "config/seed.example.yaml", "Seed file to load")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}

	logger.Initialize(logger.FromSettings(cfg.Log.Level, cfg.Log.Format))
	defer logger.Sync()
	log := logger.Base()

	f, err := seed.Load(*file)
	if err != nil {
		logger.Fatal("Failed to read seed file", zap.String("file", *file), zap.Error(err))
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, log)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer repo.Close()

	authSvc := auth.NewService(log, repo, auth.Config{
		Secret:           []byte(cfg.Auth.JWTSecret),
		TokenTTL:         cfg.Auth.TokenTTL,
		EmployeeTokenTTL: cfg.Auth.EmployeeTokenTTL,
	})
	seeder := seed.NewSeeder(log, authSvc, employees.NewService(log, repo), items.NewService(log, repo))

	res, err := seeder.Apply(context.Background(), f)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	fmt.Printf("\n%s Successfully seeded database!\n\n", cli.CheckMark())
	cli.PrettyPrint(res)
	if len(res.EmployeeTokens) > 0 {
		fmt.Printf("\n%s Employee tokens resolve orders via POST /api/day-orders/by-token\n", cli.Arrow())
	}
}
