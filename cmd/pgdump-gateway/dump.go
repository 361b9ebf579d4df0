package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/pgdump-gateway/internal/services/export"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	dumpFlags  requestFlags
	dumpOutput string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Run one export and write it to stdout or a file",
	Long: `Run the same export the HTTP gateway would run, without a server.
The dump goes to stdout unless --output is given.`,
	Example: `  pgdump-gateway dump -c config.yaml --database app --output app.sql
  pgdump-gateway dump -c config.yaml --subject table --database app --schema public --table users --what dataonly --format sql
  pgdump-gateway dump -c config.yaml --subject server --gzip --output cluster.sql.gz`,
	RunE: runDump,
}

func init() {
	dumpFlags.register(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "write the dump to this file instead of stdout")
}

func runDump(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := dumpFlags.request()
	if err != nil {
		log.Error().Err(err).Msg("invalid export")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := export.New(*cfg, log.Logger, nil)
	plan, err := svc.Prepare(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("target", req.Target()).Msg("cannot run export")
		return err
	}

	if dumpOutput == "" {
		return runPlan(ctx, svc, plan, os.Stdout)
	}

	f, err := os.OpenFile(dumpOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	return writeDumpFile(f, dumpOutput, func(w io.Writer) error {
		return runPlan(ctx, svc, plan, w)
	})
}

func runPlan(ctx context.Context, svc export.Service, plan *export.Plan, w io.Writer) error {
	result := svc.Run(ctx, plan, w)
	if result.Error != nil {
		return result.Error
	}

	log.Debug().
		Int64("bytes", result.Bytes).
		Dur("duration", result.Duration).
		Msg("dump finished")

	return nil
}

// writeDumpFile runs write against f and closes it. The file only counts as
// written when both succeed.
func writeDumpFile(f io.WriteCloser, name string, write func(io.Writer) error) error {
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		log.Error().Err(err).Str("file", name).Msg("failed to close output file")
		return fmt.Errorf("closing output file: %w", err)
	}

	log.Info().Str("file", name).Msg("dump written")
	return nil
}
