package main

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	camsnap "github.com/kevmo314/go-camsnap"
	"github.com/kevmo314/go-camsnap/internal/config"
	"github.com/kevmo314/go-camsnap/pkg/formats"
)

func newInspectCmd(flags *rootFlags, cfg config.Capture) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Browse devices and preview captures in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Normalize()

			a, err := openAdapter(flags)
			if err != nil {
				return err
			}
			defer a.Cleanup()

			devices, err := a.Devices()
			if err != nil {
				return err
			}
			return runInspect(cmd, a, devices, cfg)
		},
	}
}

func runInspect(cmd *cobra.Command, a *camsnap.Adapter, devices []camsnap.DeviceInfo, cfg config.Capture) error {
	app := tview.NewApplication()

	deviceList := tview.NewList()
	deviceList.SetBorder(true).SetTitle("Devices")

	details := tview.NewTextView().SetDynamicColors(true)
	details.SetBorder(true).SetTitle("Capture")

	preview := tview.NewImage()
	preview.SetColors(256).SetDithering(tview.DitheringNone).SetBorder(true).SetTitle("Preview")

	logText := tview.NewTextView()
	logText.SetMaxLines(10).SetBorder(true).SetTitle("Log")

	out := log.Out
	log.SetOutput(logText)
	defer log.SetOutput(out)

	// busy is set while a capture is running; selecting again is ignored.
	busy := &atomic.Bool{}

	capture := func(info camsnap.DeviceInfo) {
		if !busy.CompareAndSwap(false, true) {
			log.Warn("capture already in progress")
			return
		}
		details.SetText(fmt.Sprintf("capturing from [yellow]%s[-] ...", info.Name))
		go func() {
			defer busy.Store(false)
			f, err := a.Capture(cmd.Context(), info.Index, camsnap.Request{
				Width:   cfg.Width,
				Height:  cfg.Height,
				Quality: cfg.Quality,
			})
			app.QueueUpdateDraw(func() {
				if err != nil {
					details.SetText(fmt.Sprintf("[red]%s[-]\n\nkind: %s", err, camsnap.KindOf(err)))
					return
				}
				details.SetText(captureDetails(info, f))
				w := 64
				h := int(f.Height) * w / int(f.Width)
				preview.SetImage(resize(f.Image(), w, h))
			})
			if err != nil {
				log.WithError(err).WithField("device", info.ID).Error("capture failed")
			}
		}()
	}

	for _, info := range devices {
		deviceList.AddItem(info.Name, info.ID, 0, func() {
			capture(info)
		})
	}
	if len(devices) == 0 {
		details.SetText("no capture devices found")
	}

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			app.Stop()
			return nil
		case event.Rune() == 'r':
			if i := deviceList.GetCurrentItem(); i >= 0 && i < len(devices) {
				capture(devices[i])
			}
			return nil
		}
		return event
	})

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(deviceList, 0, 1, true).
		AddItem(details, 0, 1, false)

	flex := tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(preview, 0, 3, false)

	return app.SetRoot(tview.NewFlex().SetDirection(tview.FlexRow).AddItem(flex, 0, 1, true).AddItem(logText, 10, 0, false), true).Run()
}

func captureDetails(info camsnap.DeviceInfo, f *camsnap.Frame) string {
	return fmt.Sprintf("device: [yellow]%s[-] (%s)\nsize:   %dx%d\nformat: %s\nbytes:  %d",
		info.Name, info.ID, f.Width, f.Height, formats.VideoFormatRGB24.FourCC(), f.Size())
}

func resize(img image.Image, w, h int) *image.RGBA {
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
