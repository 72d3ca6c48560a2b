package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-streak-engine/internal/app"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/config"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-streak-engine/internal/core/services"
)

type openFunc func(ctx context.Context, envFile string, offline bool) (*app.App, error)

func openEngine(ctx context.Context, envFile string, offline bool) (*app.App, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{SkipRemote: offline})
}

type cli struct {
	open   openFunc
	engine *app.App

	envFile string
	offline bool
	userID  string
}

func newRootCmd(open openFunc) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:           "streakctl",
		Short:         "Inspect and repair the local completion ledger",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["engine"] != "true" {
				return nil
			}
			if c.userID == "" {
				return errors.New("--user is required")
			}
			engine, err := c.open(cmd.Context(), c.envFile, c.offline)
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			c.engine = engine
			c.engine.StartWorkers(cmd.Context())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file read before the environment")
	root.PersistentFlags().BoolVar(&c.offline, "offline", false, "never contact the remote replica")
	root.PersistentFlags().StringVarP(&c.userID, "user", "u", "", "user id")

	root.AddCommand(
		c.settleCmd(),
		c.streakCmd(),
		c.snapshotCmd(),
		c.resetCmd(),
		c.tokenCmd(),
	)
	return root
}

// withEngine marks cmd as needing the stores and closes them once it ran,
// whether or not it failed.
func (c *cli) withEngine(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["engine"] = "true"

	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if c.engine != nil {
			err = errors.Join(err, c.engine.Close())
			c.engine = nil
		}
		return err
	}
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) parseDay(value string) (time.Time, error) {
	return domain.ParseDay(value, c.engine.Ledger.Location())
}

func (c *cli) settleCmd() *cobra.Command {
	var (
		date   string
		missed int
	)
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Evaluate a finished day, or catch up every unsettled day of a lookback",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if missed > 0 {
				n, err := c.engine.Evaluator.SettleMissedDays(ctx, c.userID, missed)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "settled %d day(s) for %s\n", n, c.userID)
				return nil
			}

			day := c.engine.Ledger.Today().AddDate(0, 0, -1)
			if date != "" {
				parsed, err := c.parseDay(date)
				if err != nil {
					return err
				}
				day = parsed
			}

			rec, err := c.engine.Evaluator.EvaluateDay(ctx, c.userID, day)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s completed=%t\n", domain.DayKey(rec.Date), rec.IsCompleted)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to evaluate (YYYY-MM-DD), defaults to yesterday")
	cmd.Flags().IntVar(&missed, "missed", 0, fmt.Sprintf("catch up unsettled days with tasks in this many past days (the daemon uses %d)", services.MissedDaysLookback))
	return c.withEngine(cmd)
}

func (c *cli) streakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Print the current streak and stored history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			current, err := c.engine.Calculator.Current(ctx, c.userID, time.Time{})
			if err != nil {
				return err
			}
			h, err := c.engine.Tracker.Get(ctx, c.userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "current:   %d\n", current)
			fmt.Fprintf(out, "max:       %d\n", max(current, h.MaxStreak))
			fmt.Fprintf(out, "restarts:  %d\n", h.RestartCount)
			fmt.Fprintf(out, "comeback:  %d\n", domain.Comeback(current, h))
			if h.LastBreakDate != nil {
				fmt.Fprintf(out, "last break: %s\n", h.LastBreakDate.In(c.engine.Ledger.Location()).Format(time.RFC3339))
			}
			return nil
		},
	}
	return c.withEngine(cmd)
}

func (c *cli) snapshotCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the statistics snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := domain.StatsInput{UserID: c.userID}
			var err error
			if start != "" {
				if input.StartDate, err = c.parseDay(start); err != nil {
					return err
				}
			}
			if end != "" {
				if input.EndDate, err = c.parseDay(end); err != nil {
					return err
				}
			}

			snap, err := c.engine.Stats.GetStatisticsSnapshot(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day (YYYY-MM-DD)")
	return c.withEngine(cmd)
}

func (c *cli) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "DANGER: delete the user's local ledger and streak history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			ctx := cmd.Context()
			if err := c.engine.Ledger.Reset(ctx, c.userID); err != nil {
				return err
			}
			if err := c.engine.Tracker.Reset(ctx, c.userID); err != nil {
				return err
			}
			if c.engine.ProfilesCache != nil {
				c.engine.ProfilesCache.Invalidate(ctx, c.userID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset local data for %s\n", c.userID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return c.withEngine(cmd)
}

// tokenCmd mints a development token. It only needs the config, not the stores.
func (c *cli) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.userID == "" {
				return errors.New("--user is required")
			}
			cfg, err := config.Load(c.envFile)
			if err != nil {
				return err
			}
			token, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL).GenerateToken(c.userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
