package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/config"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/db"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/request"
)

func newStatusCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show request counts and recent activity",
		Long:  "Reads the store directly and prints request counts by status plus the most recent requests. Use --watch for auto-refresh.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "slidegen.yaml", "path to slidegen config file")
	cmd.Flags().BoolVar(&watch, "watch", false, "auto-refresh every 5 seconds")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath string, watch bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		if watch {
			// Clear screen.
			fmt.Fprint(out, "\033[2J\033[H")
		}

		if err := printStatus(out, gormDB); err != nil {
			return err
		}

		if !watch {
			return nil
		}
		time.Sleep(5 * time.Second)
	}
}

func printStatus(out io.Writer, gormDB *gorm.DB) error {
	counts, err := request.CountByStatus(gormDB)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Requests by status:")
	for _, status := range []string{models.StatusPending, models.StatusRunning, models.StatusCompleted, models.StatusFailed} {
		fmt.Fprintf(out, "  %-10s %d\n", status, counts[status])
	}

	recent, err := request.Recent(gormDB, 10)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Fprintln(out, "\nNo requests yet.")
		return nil
	}

	fmt.Fprintln(out, "\nRecent requests:")
	for _, req := range recent {
		line := fmt.Sprintf("  %s  %-9s  session %-12s  %s",
			req.ID, req.Status, req.SessionID, req.CreatedAt.Format("15:04:05"))
		if req.ErrorMessage != "" {
			line += "  " + truncate(req.ErrorMessage, 60)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
