// Package config provides capture defaults for camsnap commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default capture configuration.
const (
	DefaultWidth   = 1280
	DefaultHeight  = 720
	DefaultQuality = 85
	DefaultWarmup  = 5

	MinWidth  = 160
	MinHeight = 120
)

// Capture holds the settings for a single-frame capture.
type Capture struct {
	Device  string
	Width   int
	Height  int
	Quality int
	Warmup  int
	Timeout time.Duration
}

// Defaults returns the capture defaults with no environment applied.
func Defaults() Capture {
	return Capture{
		Device:  "0",
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Quality: DefaultQuality,
		Warmup:  DefaultWarmup,
	}
}

// FromEnv returns the defaults overridden by CAMSNAP_DEVICE, CAMSNAP_WIDTH,
// CAMSNAP_HEIGHT, CAMSNAP_QUALITY, CAMSNAP_WARMUP and CAMSNAP_TIMEOUT.
func FromEnv() (Capture, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Capture, error) {
	c := Defaults()
	if v, ok := lookup("CAMSNAP_DEVICE"); ok && strings.TrimSpace(v) != "" {
		c.Device = strings.TrimSpace(v)
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"CAMSNAP_WIDTH", &c.Width},
		{"CAMSNAP_HEIGHT", &c.Height},
		{"CAMSNAP_QUALITY", &c.Quality},
		{"CAMSNAP_WARMUP", &c.Warmup},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return c, fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}
	if v, ok := lookup("CAMSNAP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return c, fmt.Errorf("CAMSNAP_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return c, nil
}

// Normalize clamps quality to [1, 100], the frame size to at least
// MinWidth x MinHeight and negative warm-up and timeout values to zero.
func (c *Capture) Normalize() {
	if c.Quality < 1 {
		c.Quality = 1
	}
	if c.Quality > 100 {
		c.Quality = 100
	}
	if c.Width < MinWidth {
		c.Width = MinWidth
	}
	if c.Height < MinHeight {
		c.Height = MinHeight
	}
	if c.Warmup < 0 {
		c.Warmup = 0
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
}
