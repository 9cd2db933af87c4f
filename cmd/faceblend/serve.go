package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/maax3v3/faceblend/internal/config"
	"github.com/maax3v3/faceblend/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve detection and compositing over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address; overrides FACEBLEND_ADDR and the config")
	serveCmd.Flags().String("config", "", "YAML configuration file; overrides FACEBLEND_CONFIG")
	serveCmd.Flags().String("env-file", ".env", "Environment file to load if present")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr, "faceblend: ", log.LstdFlags)

	envPath, _ := cmd.Flags().GetString("env-file")
	if err := godotenv.Load(envPath); err != nil {
		logger.Printf("no env file at %s, using process environment", envPath)
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = os.Getenv("FACEBLEND_CONFIG")
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}
	if v := os.Getenv("FACEBLEND_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Server.Addr = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, logger).ListenAndServe(ctx)
}
