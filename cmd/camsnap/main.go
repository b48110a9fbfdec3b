package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	camsnap "github.com/kevmo314/go-camsnap"
	"github.com/kevmo314/go-camsnap/internal/config"
)

var log = logrus.New()

type rootFlags struct {
	logLevel string
	warmup   int
	timeout  time.Duration
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid environment: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Capture) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "camsnap",
		Short:         "Capture still frames from video capture devices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().IntVar(&flags.warmup, "warmup", cfg.Warmup, "frames discarded before each capture")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", cfg.Timeout, "capture timeout, 0 waits forever")

	root.AddCommand(
		newListCmd(flags),
		newCaptureCmd(flags, cfg),
		newInspectCmd(flags, cfg),
		newPreviewCmd(flags, cfg),
	)

	return root
}

// openAdapter initializes an adapter over the platform backend. The caller
// must call Cleanup.
func openAdapter(flags *rootFlags) (*camsnap.Adapter, error) {
	a := camsnap.New(nil,
		camsnap.WithWarmupFrames(flags.warmup),
		camsnap.WithReadTimeout(flags.timeout),
		camsnap.WithLogger(log),
	)
	n, err := a.Init()
	if err != nil {
		return nil, err
	}
	log.WithField("count", n).Debug("capture adapter ready")
	return a, nil
}
