package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/config"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/db"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/engine"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/gateway"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/janitor"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/notify"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/slides"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		mock       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the slidegen service",
		Long:  "Starts the HTTP gateway, the generation engine, and the maintenance janitor. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, mock)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "slidegen.yaml", "path to slidegen config file")
	cmd.Flags().BoolVar(&mock, "mock", false, "use the scripted mock model instead of a live endpoint")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, mock bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !mock && cfg.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required (or run with --mock)")
	}
	if !mock && cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required (or run with --mock)")
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	var client slides.Client
	if mock {
		client = slides.NewMockClient()
		fmt.Fprintln(out, "Using the scripted mock model")
	} else {
		client = slides.NewHTTPClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout.Std())
		fmt.Fprintf(out, "Using model %q at %s\n", cfg.LLM.Model, cfg.LLM.BaseURL)
	}
	pipeline := slides.NewPipeline(client, cfg.LLM.Model, cfg.LLM.MaxTurns)

	eng := engine.New(gormDB, pipeline, engine.Opts{
		Workers:   cfg.Engine.Workers,
		QueueSize: cfg.Engine.QueueSize,
		Out:       out,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	notifier := notify.New(notify.Config{
		Command:      cfg.Notify.Command,
		SlackToken:   cfg.Notify.SlackToken,
		SlackChannel: cfg.Notify.SlackChannel,
	})

	janitorErr := make(chan error, 1)
	go func() {
		janitorErr <- janitor.Run(ctx, gormDB, eng.Locks(), janitor.Opts{
			StaleAfter:        cfg.Janitor.StaleAfter.Std(),
			ReconcileInterval: cfg.Janitor.ReconcileInterval.Std(),
			SweepSchedule:     cfg.Janitor.SweepSchedule,
			Retention:         cfg.Janitor.Retention.Std(),
			Notifier:          notifier,
			Out:               out,
		})
	}()

	gatewayErr := make(chan error, 1)
	go func() {
		gatewayErr <- gateway.Start(ctx, gateway.StartOpts{
			Engine: eng,
			DB:     gormDB,
			Port:   cfg.Server.Port,
			Out:    out,
		})
	}()

	// Whichever loop exits first decides the outcome; the other is shut
	// down via cancel and drained before returning.
	select {
	case err := <-janitorErr:
		cancel()
		if gwErr := <-gatewayErr; err == nil {
			err = gwErr
		}
		return err
	case err := <-gatewayErr:
		cancel()
		if jErr := <-janitorErr; err == nil {
			err = jErr
		}
		return err
	}
}
