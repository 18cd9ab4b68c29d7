package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/spf13/cobra"

	"github.com/asimihsan/cwl-mount/internal/cache"
	"github.com/asimihsan/cwl-mount/internal/cfg"
	"github.com/asimihsan/cwl-mount/internal/clock"
	"github.com/asimihsan/cwl-mount/internal/cloudwatch"
	fsadapter "github.com/asimihsan/cwl-mount/internal/fs"
	"github.com/asimihsan/cwl-mount/internal/logger"
	"github.com/asimihsan/cwl-mount/internal/metrics"
	"github.com/asimihsan/cwl-mount/internal/ratelimit"
	"github.com/asimihsan/cwl-mount/internal/tree"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mount-point>",
	Short: "Mount a CloudWatch Logs group (or group filter) at the given mount point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateMount(&config); err != nil {
			return err
		}
		return runMount(cmd.Context(), args[0])
	},
}

func init() {
	cfg.BindMountFlags(mountCmd.Flags(), &config)
}

func runMount(ctx context.Context, mountPoint string) error {
	client, err := cloudwatch.NewClient(config.Region)
	if err != nil {
		return fmt.Errorf("building log-service client: %w", err)
	}

	limiter := ratelimit.New(config.TPS)
	c, err := cache.New(clock.RealClock{}, cache.Capacity)
	if err != nil {
		return fmt.Errorf("building fetch cache: %w", err)
	}

	var metricsHandle *metrics.Handle
	if config.MetricsAddr != "" {
		metricsHandle = metrics.NewHandle()
		go func() {
			if err := metricsHandle.Serve(config.MetricsAddr); err != nil {
				logger.Warnf("metrics server stopped: %v", err)
			}
		}()
	}

	fetcher := cloudwatch.NewFetcher(limiter, c, client)
	if metricsHandle != nil {
		fetcher.SetMetrics(metricsHandle)
	}
	actor := cloudwatch.NewActor(fetcher, client)
	defer actor.Close()
	handle := cloudwatch.NewHandle(actor)

	// Build the tree with start = now - 365 days, end = now, per C8. The
	// restored GetFirstEventTime operation is deliberately not consulted
	// here; see DESIGN.md's Open Question decision.
	now := time.Now().UTC()
	fsTree := tree.Build(now.Add(-365*24*time.Hour), now)

	server, err := fsadapter.NewServer(&fsadapter.ServerConfig{
		Tree:        fsTree,
		Actor:       handle,
		GroupName:   config.LogGroupName,
		GroupFilter: config.LogGroupFilter,
		Metrics:     metricsHandle,
	})
	if err != nil {
		return fmt.Errorf("building filesystem server: %w", err)
	}

	options := map[string]string{"ro": ""}
	if config.AllowRoot {
		options["allow_root"] = ""
	}

	mountCfg := &fuse.MountConfig{
		FSName:      "cwl-mount",
		Subtype:     "cwl-mount",
		VolumeName:  "cwl-mount",
		Options:     options,
		ErrorLogger: logger.NewLegacyLogger(logger.LevelError),
		DebugLogger: logger.NewLegacyLogger(logger.LevelTrace),
	}

	mfs, err := fuse.Mount(mountPoint, server, mountCfg)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}

	registerSIGINTHandler(mountPoint)

	if err := mfs.Join(ctx); err != nil {
		return fmt.Errorf("MountedFileSystem.Join: %w", err)
	}
	return nil
}

// registerSIGINTHandler unmounts in response to SIGINT, per C8's
// signal-driven shutdown: the handler calls fuse.Unmount, which lets
// mfs.Join return, and there is no draining of in-flight fetches.
func registerSIGINTHandler(mountPoint string) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	go func() {
		for range signalChan {
			logger.Infof("received SIGINT, attempting to unmount %s", mountPoint)
			if err := fuse.Unmount(mountPoint); err != nil {
				logger.Errorf("failed to unmount in response to SIGINT: %v", err)
				continue
			}
			logger.Infof("successfully unmounted %s", mountPoint)
			return
		}
	}()
}
