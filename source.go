package main

import (
	"context"
	"fmt"
	"io"

	"rfm-insights/pkg/config"
	"rfm-insights/pkg/database"
	"rfm-insights/pkg/ingest"
	"rfm-insights/pkg/models"
	"rfm-insights/pkg/report"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadConfig binds the command's own flags (flag name → viper key) and
// decodes the resulting settings.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	for flag, key := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return config.Load(viper.GetViper())
}

// loadTransactions reads the configured source, CSV first, and enforces
// the row limit before any command computes anything.
func loadTransactions(ctx context.Context, cfg *config.Config) ([]models.Transaction, error) {
	kind, err := cfg.Source.Kind()
	if err != nil {
		return nil, err
	}
	progress := cfg.Output.Format == "table"

	var res *ingest.Result
	switch kind {
	case "csv":
		res, err = ingest.LoadFile(cfg.Source.CSV, ingest.Options{Progress: progress})
	default:
		res, err = loadFromDatabase(ctx, cfg.Source, progress)
	}
	if err != nil {
		return nil, err
	}
	if res.Dropped > 0 {
		log.Warn().Int("dropped", res.Dropped).Int("rows", res.Rows).Msg("invalid order lines skipped")
	}
	if err := cfg.Analysis.CheckRows(len(res.Transactions)); err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

func loadFromDatabase(ctx context.Context, src config.Source, progress bool) (*ingest.Result, error) {
	db, driver, err := database.Open(src.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	log.Info().Str("driver", driver).Str("table", src.Table).Msg("connected")
	return database.LoadTransactions(ctx, db, src.Table, progress)
}

// emit exports data as json or calls render for the terminal.
func emit(w io.Writer, cfg *config.Config, kind string, data any, render func(io.Writer) error) error {
	if cfg.Output.Format == "json" {
		path, err := report.ExportJSON(cfg.Output.Dir, kind, data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, path)
		return err
	}
	return render(w)
}
