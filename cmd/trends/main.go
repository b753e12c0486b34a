package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	serviceName = "tech-trends"
	version     = "1.0.0"
)

var cfgFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trends",
		Short:         "Collect, analyze and publish weekly tech trends per area",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml found from the working directory up)")

	root.AddCommand(dailyCmd())
	root.AddCommand(weeklyCmd())
	root.AddCommand(monthlyCmd())
	root.AddCommand(serveCmd())

	return root
}

func dailyCmd() *cobra.Command {
	var area, week string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Collect and analyze posts for one area or all areas (default: current week)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaily(cmd.Context(), area, week)
		},
	}

	cmd.Flags().StringVar(&area, "area", os.Getenv("AREA"), "area name or slug (default: all areas)")
	cmd.Flags().StringVar(&week, "week", "", "target week as YYYY-Www (default: WEEK_NUMBER/YEAR or the current week)")
	return cmd
}

func weeklyCmd() *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Summarize the trends of a week (default: previous week)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWeekly(cmd.Context(), week)
		},
	}

	cmd.Flags().StringVar(&week, "week", "", "target week as YYYY-Www (default: WEEK_NUMBER/YEAR or the previous week)")
	return cmd
}

func monthlyCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Generate recommendations from a month's weekly summaries (default: previous month)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonthly(cmd.Context(), month)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "target month as YYYY-MM (default: MONTH/YEAR or the previous month)")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	return cmd
}
