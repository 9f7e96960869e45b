package crop

import (
	"fmt"
	"strings"
)

// AspectRatio is one selectable crop preset. W and H describe the
// ratio, not pixel dimensions.
type AspectRatio struct {
	Label string `json:"label,omitempty"`
	W     int    `json:"w"`
	H     int    `json:"h"`
}

// String returns the label if set, otherwise "W:H".
func (r AspectRatio) String() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("%d:%d", r.W, r.H)
}

func (r AspectRatio) valid() bool {
	return r.W > 0 && r.H > 0
}

// Config is the generic crop configuration handed in by callers.
type Config struct {
	// AspectRatios lists the selectable presets, in display order.
	// Empty means the editor offers only the image's own ratio.
	AspectRatios []AspectRatio `json:"aspectRatios,omitempty"`

	// Circular requests a circular crop mask. It implies a single
	// square preset regardless of AspectRatios.
	Circular bool `json:"circular,omitempty"`

	// FreeStyle lets the user drag the crop frame to any ratio.
	FreeStyle bool `json:"freeStyle,omitempty"`

	// Locale selects the editor's display language, BCP 47 style.
	Locale string `json:"locale,omitempty"`
}

// EditorOptions is the host editor's native configuration shape.
type EditorOptions struct {
	Presets        []string `json:"presets,omitempty"`
	InitialPreset  int      `json:"initialPreset"`
	CircularMask   bool     `json:"circularMask"`
	FreeStyleCrop  bool     `json:"freeStyleCrop"`
	ShowAspectGrid bool     `json:"showAspectGrid"`
	Locale         string   `json:"locale"`
}

// DefaultLocale is used when the configuration names none.
const DefaultLocale = "en"

// EditorOptions maps the generic configuration onto the host shape.
// Invalid presets (nonpositive dimensions) are dropped rather than
// rejected; a configuration that drops to zero presets behaves like an
// empty one.
func (c Config) EditorOptions() EditorOptions {
	opts := EditorOptions{
		InitialPreset: 0,
		Locale:        normalizeLocale(c.Locale),
	}

	if c.Circular {
		// A circular mask only makes sense over a square crop, so the
		// preset list collapses to 1:1 and free dragging is disabled.
		opts.Presets = []string{"1:1"}
		opts.CircularMask = true
		return opts
	}

	for _, r := range c.AspectRatios {
		if !r.valid() {
			continue
		}
		opts.Presets = append(opts.Presets, r.String())
	}
	opts.FreeStyleCrop = c.FreeStyle
	opts.ShowAspectGrid = len(opts.Presets) > 1
	return opts
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return DefaultLocale
	}
	// "en_US" and "en-US" both arrive in practice; the editor wants
	// the hyphenated form.
	return strings.ReplaceAll(locale, "_", "-")
}
