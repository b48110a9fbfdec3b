package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	camsnap "github.com/kevmo314/go-camsnap"
	"github.com/kevmo314/go-camsnap/internal/config"
)

func newCaptureCmd(flags *rootFlags, cfg config.Capture) *cobra.Command {
	var (
		format   string
		out      string
		maxWidth int
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a single frame and write it to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseFormat(format)
			if err != nil {
				return err
			}
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
			infos, err := a.Devices()
			if err != nil {
				return err
			}
			info := infos[index]

			fields := logrus.Fields{
				"device":  info.ID,
				"width":   cfg.Width,
				"height":  cfg.Height,
				"quality": cfg.Quality,
			}
			log.WithFields(fields).Info("taking picture")

			f, err := a.Capture(cmd.Context(), index, camsnap.Request{
				Width:   cfg.Width,
				Height:  cfg.Height,
				Quality: cfg.Quality,
			})
			if err != nil {
				return err
			}
			f = thumbnail(f, maxWidth)

			if out == "" {
				out = defaultOutputPath(info.ID, kind, time.Now())
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := encodeFrame(file, f, kind, cfg.Quality); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}

			log.WithFields(logrus.Fields{
				"device": info.ID,
				"width":  f.Width,
				"height": f.Height,
				"path":   out,
			}).Info("picture saved")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfg.Device, "device", "d", cfg.Device, "device index, id or name")
	cmd.Flags().IntVar(&cfg.Width, "width", cfg.Width, "requested frame width")
	cmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "requested frame height")
	cmd.Flags().IntVarP(&cfg.Quality, "quality", "q", cfg.Quality, "JPEG quality (1-100)")
	cmd.Flags().StringVarP(&format, "format", "f", "jpeg", "output format: raw, jpeg, png, bmp or tiff")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "scale the frame down to at most this width")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default <id>_<unix time>.<ext>)")
	return cmd
}
