package commands

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// HistoryCommands returns the commands that read the invocation log.
func HistoryCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "history",
			Usage: "Show recent invocations",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "command",
					Usage: "Only show invocations of this command",
				},
				&cli.IntFlag{
					Name:  "limit",
					Usage: "Number of invocations to show",
					Value: 20,
				},
			},
			Action: handleHistory(deps),
		},
		{
			Name:  "usage",
			Usage: "Show per-command usage",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "since",
					Usage: "Window to aggregate over",
					Value: 24 * time.Hour,
				},
			},
			Action: handleUsage(deps),
		},
		{
			Name:  "cleanup",
			Usage: "Delete invocations older than the retention window",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "older-than",
					Usage: "Retention window",
					Value: 30 * 24 * time.Hour,
				},
			},
			Action: handleCleanup(deps),
		},
		{
			Name:   "last-sync",
			Usage:  "Show the most recent registration pass",
			Action: handleLastSync(deps),
		},
	}
}

func handleHistory(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if deps.DB == nil {
			return ErrInvocationLogOff
		}

		limit := max(int(c.Int("limit")), 1)
		entries, err := deps.DB.Model().Invocation().GetRecent(ctx, c.String("command"), limit)
		if err != nil {
			return err
		}

		for _, e := range entries {
			deps.Logger.Info("Invocation",
				zap.Time("receivedAt", e.ReceivedAt),
				zap.String("command", e.CommandName),
				zap.String("customID", e.CustomID),
				zap.Int64("userID", e.UserID),
				zap.Int64("guildID", e.GuildID),
				zap.String("state", e.State),
				zap.Int64("durationMs", e.DurationMS),
				zap.String("error", e.Error))
		}
		return nil
	}
}

func handleUsage(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if deps.DB == nil {
			return ErrInvocationLogOff
		}

		usage, err := deps.DB.Model().Invocation().GetUsage(ctx, time.Now().Add(-c.Duration("since")))
		if err != nil {
			return err
		}

		for _, u := range usage {
			deps.Logger.Info("Usage",
				zap.String("command", u.CommandName),
				zap.Int64("total", u.Total),
				zap.Int64("failed", u.Failed),
				zap.Time("lastUsed", u.LastUsed))
		}
		return nil
	}
}

func handleCleanup(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if deps.DB == nil {
			return ErrInvocationLogOff
		}

		_, err := deps.DB.Model().Invocation().PurgeBefore(ctx, time.Now().Add(-c.Duration("older-than")))
		return err
	}
}

func handleLastSync(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		if deps.DB == nil {
			return ErrInvocationLogOff
		}

		run, err := deps.DB.Model().SyncRun().GetLatest(ctx)
		if err != nil {
			return err
		}
		if run == nil {
			deps.Logger.Info("No sync run recorded")
			return nil
		}

		deps.Logger.Info("Last sync",
			zap.Time("startedAt", run.StartedAt),
			zap.Int64("durationMs", run.DurationMS),
			zap.Int("declared", run.Declared),
			zap.Int("synced", run.Synced),
			zap.Int("pruned", run.Pruned))
		for _, f := range run.Failures {
			deps.Logger.Warn("Sync failure",
				zap.String("name", f.Name),
				zap.Int64("guildID", f.GuildID),
				zap.String("stage", f.Stage),
				zap.String("error", f.Error))
		}
		return nil
	}
}
