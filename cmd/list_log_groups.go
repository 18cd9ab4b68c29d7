package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/asimihsan/cwl-mount/internal/cache"
	"github.com/asimihsan/cwl-mount/internal/cfg"
	"github.com/asimihsan/cwl-mount/internal/clock"
	"github.com/asimihsan/cwl-mount/internal/cloudwatch"
	"github.com/asimihsan/cwl-mount/internal/logger"
	"github.com/asimihsan/cwl-mount/internal/ratelimit"
)

var listLogGroupsCmd = &cobra.Command{
	Use:   "list-log-groups",
	Short: "Print all discoverable log-group names, one per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateListLogGroups(&config); err != nil {
			return err
		}
		return runListLogGroups(cmd.Context())
	},
}

func init() {
	cfg.BindListLogGroupsFlags(listLogGroupsCmd.Flags(), &config)
}

func runListLogGroups(ctx context.Context) error {
	client, err := cloudwatch.NewClient(config.Region)
	if err != nil {
		return fmt.Errorf("building log-service client: %w", err)
	}

	limiter := ratelimit.New(config.TPS)
	c, err := cache.New(clock.RealClock{}, cache.Capacity)
	if err != nil {
		return fmt.Errorf("building fetch cache: %w", err)
	}
	fetcher := cloudwatch.NewFetcher(limiter, c, client)
	actor := cloudwatch.NewActor(fetcher, client)
	defer actor.Close()
	handle := cloudwatch.NewHandle(actor)

	names, err := handle.GetLogGroupNames(ctx)
	if err != nil {
		logger.Errorf("list-log-groups failed: %v", err)
		return err
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		if !config.ShowFirstEvent {
			lines = append(lines, name)
			continue
		}
		ts, found, err := handle.GetFirstEventTime(ctx, name)
		if err != nil {
			logger.Errorf("GetFirstEventTime(%s) failed: %v", name, err)
			lines = append(lines, name+"\t-")
			continue
		}
		if !found {
			lines = append(lines, name+"\t-")
			continue
		}
		lines = append(lines, fmt.Sprintf("%s\t%s", name, ts.Format("2006-01-02T15:04:05Z07:00")))
	}

	for i, line := range lines {
		if i > 0 {
			fmt.Print("\n")
		}
		fmt.Print(line)
	}
	return nil
}
