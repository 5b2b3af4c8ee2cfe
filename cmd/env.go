package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/mediaops/intake-cli/internal/extract"
	"github.com/mediaops/intake-cli/internal/fault"
	"github.com/mediaops/intake-cli/internal/ingest"
	"github.com/mediaops/intake-cli/internal/intake"
	"github.com/mediaops/intake-cli/internal/lifecycle"
	"github.com/mediaops/intake-cli/internal/store"
	anthropicpkg "github.com/mediaops/intake-cli/pkg/anthropic"
)

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newMachine() *lifecycle.Machine {
	return lifecycle.New(lifecycle.Policy{
		AllowUnknownStatus:    cfg.Lifecycle.AllowUnknownStatus,
		AllowTerminalOverride: cfg.Lifecycle.AllowTerminalOverride,
	})
}

func newIngestor() *ingest.Ingestor {
	return ingest.New(ingest.Options{
		UserAgent:        cfg.Ingest.UserAgent,
		Timeout:          time.Duration(cfg.Ingest.TimeoutSecs) * time.Second,
		MaxRetries:       cfg.Ingest.MaxRetries,
		MaxDocumentBytes: cfg.Ingest.MaxDocumentBytes,
		RateLimit:        rate.Limit(cfg.Ingest.RateLimit),
		Burst:            cfg.Ingest.Burst,
	})
}

func newExtractor() *extract.Anthropic {
	return extract.NewAnthropic(anthropicpkg.NewClient(cfg.Anthropic.Key), extract.Config{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		Temperature: cfg.Anthropic.Temperature,
		UseBatch:    cfg.Anthropic.UseBatch,
		PollTimeout: time.Duration(cfg.Anthropic.PollTimeoutSecs) * time.Second,
		Retry:       fault.RetryConfig{MaxAttempts: cfg.Anthropic.MaxRetryAttempts},
	})
}

func newIntakeService(st store.Store) *intake.Service {
	return intake.NewService(newIngestor(), newExtractor(), st, newMachine())
}

// printOut renders v to stdout as json or yaml.
func printOut(v any, format string) error {
	switch format {
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "marshal yaml")
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// reportFault prints a typed failure in caller terms, listing validation
// issues one per line.
func reportFault(err error) error {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		return err
	}
	fmt.Fprintln(os.Stderr, fe.Safe())
	for _, issue := range fe.Issues {
		fmt.Fprintf(os.Stderr, "  - %s\n", issue)
	}
	return err
}
