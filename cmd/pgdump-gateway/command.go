package main

import (
	"fmt"
	"strings"

	"github.com/fgeck/pgdump-gateway/internal/services/export"
	"github.com/fgeck/pgdump-gateway/internal/services/pgdump"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var commandFlags requestFlags

var commandCmd = &cobra.Command{
	Use:   "command",
	Short: "Print the dump command an export would run",
	Long: `Probe the configured dump executable and print the argument vector and
environment an export would run with. The password is redacted.`,
	RunE: printCommand,
}

func init() {
	commandFlags.register(commandCmd)
}

func printCommand(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := commandFlags.request()
	if err != nil {
		log.Error().Err(err).Msg("invalid export")
		return err
	}

	plan, err := export.New(*cfg, log.Logger, nil).Prepare(cmd.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("target", req.Target()).Msg("cannot build command")
		return err
	}

	fmt.Printf("Server: %s\n", plan.Profile.Name)
	fmt.Printf("Version: %s\n", plan.Version.Original())
	fmt.Println()
	fmt.Println("Environment:")
	for _, kv := range pgdump.RedactEnv(plan.Command.Env) {
		fmt.Printf("  %s\n", kv)
	}
	fmt.Println()
	fmt.Println("Command:")
	fmt.Printf("  %s %s\n", plan.Command.Path, strings.Join(plan.Command.Args, " "))

	return nil
}
