package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	camsnap "github.com/kevmo314/go-camsnap"
	"github.com/kevmo314/go-camsnap/internal/config"
)

// Display shows the most recent capture.
type Display struct {
	ctx    context.Context
	frame  atomic.Pointer[camsnap.Frame]
	image  *ebiten.Image
	shown  *camsnap.Frame
	width  int
	height int
}

func (g *Display) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	f := g.frame.Load()
	if f == nil || f == g.shown {
		return nil
	}
	g.shown = f
	g.image = ebiten.NewImageFromImage(f.Image().ToRGBA())
	g.width, g.height = int(f.Width), int(f.Height)
	return nil
}

func (g *Display) Draw(screen *ebiten.Image) {
	if g.image != nil {
		screen.DrawImage(g.image, &ebiten.DrawImageOptions{})
	}
}

func (g *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

func newPreviewCmd(flags *rootFlags, cfg config.Capture) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show repeated single-frame captures in a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Normalize()

			a, err := openAdapter(flags)
			if err != nil {
				return err
			}
			defer a.Cleanup()

			index, err := a.Lookup(cfg.Device)
			if err != nil {
				return err
			}
			name, err := a.Name(index)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			g := &Display{ctx: ctx, width: cfg.Width, height: cfg.Height}
			go func() {
				for ctx.Err() == nil {
					f, err := a.Capture(ctx, index, camsnap.Request{
						Width:   cfg.Width,
						Height:  cfg.Height,
						Quality: cfg.Quality,
					})
					if err != nil {
						if errors.Is(err, camsnap.ErrCanceled) {
							return
						}
						log.WithError(err).Error("capture failed")
					} else {
						g.frame.Store(f)
					}
					select {
					case <-ctx.Done():
					case <-time.After(interval):
					}
				}
			}()

			ebiten.SetWindowTitle(name)
			ebiten.SetWindowSize(cfg.Width, cfg.Height)
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
			err = ebiten.RunGame(g)
			cancel()
			if errors.Is(err, ebiten.Termination) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&cfg.Device, "device", "d", cfg.Device, "device index, id or name")
	cmd.Flags().IntVar(&cfg.Width, "width", cfg.Width, "requested frame width")
	cmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "requested frame height")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "delay between captures")
	return cmd
}
