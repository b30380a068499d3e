package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Soulfra/soulfra-sub007/internal/domain/services"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/config"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/endorsement/github"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/store/sqlite"
)

// Deps holds high-level dependencies for commands.
type Deps struct {
	Config      *config.Config
	Ledger      *services.LedgerService
	Review      *services.ReviewService
	Consensus   *services.ConsensusService
	Endorsement *services.EndorsementService
	Gate        *services.GateService
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := zap.NewNop()
	if globalVerbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync() //nolint:errcheck
	}

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring store schema: %w", err)
	}

	platform := github.NewClient(cfg.Endorsement)
	endorsement := services.NewEndorsementService(platform, services.EndorsementOptions{
		TTL:          time.Duration(cfg.Endorsement.TTLMinutes) * time.Minute,
		StaleCeiling: time.Duration(cfg.Endorsement.StaleCeilingHours) * time.Hour,
		QueryTimeout: time.Duration(cfg.Endorsement.TimeoutSeconds) * time.Second,
	}, log)

	ledger := services.NewLedgerService(store, log)
	judgeTimeout := time.Duration(cfg.Judges.TimeoutSeconds) * time.Second

	deps := &Deps{
		Config:      cfg,
		Ledger:      ledger,
		Review:      services.NewReviewService(store, log),
		Consensus:   services.NewConsensusService(store, ledger, judgeTimeout, log),
		Endorsement: endorsement,
		Gate:        services.NewGateService(store, endorsement, cfg.Endorsement.Namespace, log),
	}

	return fn(deps)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
