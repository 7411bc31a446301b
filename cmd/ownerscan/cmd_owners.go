package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ownerscan-go/internal/aggregate"
	"ownerscan-go/internal/config"
	"ownerscan-go/internal/cosmwasm"
	"ownerscan-go/internal/export"
	"ownerscan-go/internal/metrics"
	"ownerscan-go/internal/scan"
	"ownerscan-go/internal/util"
)

const genericFailure = "An error occurred while processing your request. Please try again later."

var ownersFlags struct {
	contract  string
	start     uint64
	end       uint64
	batchSize int
	name      string
	mode      string
	provider  string
}

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "Get the owners of a contract's tokens and save them to a file",
	RunE:  runOwners,
}

func init() {
	f := ownersCmd.Flags()
	f.StringVar(&ownersFlags.contract, "contract", "", "Contract address of the collection (required)")
	f.Uint64Var(&ownersFlags.start, "start", 1, "First token id to query")
	f.Uint64Var(&ownersFlags.end, "end", 0, "Last token id to query (required)")
	f.IntVar(&ownersFlags.batchSize, "batch", 0, "Token ids queried concurrently per batch (default from config)")
	f.StringVar(&ownersFlags.name, "name", "", "Collection name used as the output file prefix (required)")
	f.StringVar(&ownersFlags.mode, "mode", "", "unique|all|count|tokens (default from config)")
	f.StringVar(&ownersFlags.provider, "provider", "", "rpc|lcd|ws (default from config)")

	_ = ownersCmd.MarkFlagRequired("contract")
	_ = ownersCmd.MarkFlagRequired("end")
	_ = ownersCmd.MarkFlagRequired("name")
}

func runOwners(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if ownersFlags.provider != "" {
		cfg.Chain.Provider = strings.ToLower(ownersFlags.provider)
	}
	if ownersFlags.batchSize > 0 {
		cfg.Scan.BatchSize = ownersFlags.batchSize
	}
	if ownersFlags.mode != "" {
		cfg.Scan.Mode = ownersFlags.mode
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	mode, err := aggregate.ParseMode(cfg.Scan.Mode)
	if err != nil {
		return err
	}

	log := util.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	var recorder scan.FailureRecorder
	if cfg.Scan.FailuresPath != "" {
		rec, err := scan.NewJSONLRecorder(cfg.Scan.FailuresPath, log)
		if err != nil {
			return fmt.Errorf("open failure log: %w", err)
		}
		defer rec.Close()
		recorder = rec
	}

	ctx, cancel := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scanner := scan.NewScanner(log, chainDialer(cfg.Chain, log), export.NewExporter(cfg.Scan.OutputDir, log), recorder)
	report, err := scanner.Run(ctx, scan.Request{
		Contract:       ownersFlags.contract,
		StartID:        ownersFlags.start,
		EndID:          ownersFlags.end,
		BatchSize:      cfg.Scan.BatchSize,
		NamePrefix:     ownersFlags.name,
		Mode:           mode,
		ExcludeAddress: cfg.Scan.ExcludeAddress,
	})
	if err != nil {
		var rangeErr *scan.InvalidRangeError
		if errors.As(err, &rangeErr) {
			return err
		}
		log.Error().Err(err).Msg("scan failed")
		fmt.Fprintln(cmd.ErrOrStderr(), genericFailure)
		return errReported
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.Message)
	fmt.Fprintln(out, report.FilePath)
	return nil
}

func chainDialer(cfg config.Chain, log zerolog.Logger) scan.Dialer {
	return func(ctx context.Context) (scan.Querier, error) {
		q, err := cosmwasm.Dial(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		// the default path is optional; an explicit one is not
		if cmd.Flags().Changed("config") || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	return cfg, nil
}
