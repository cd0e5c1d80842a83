package modules

import (
	"github.com/chess10kp/catbar/internal/config"
	"github.com/chess10kp/catbar/internal/statusbar"
)

// Static renders fixed text and never updates.
type Static struct {
	text string
}

func (s *Static) Update() error { return nil }

func (s *Static) Render(colorize bool) []statusbar.Span {
	return []statusbar.Span{statusbar.Raw(s.text)}
}

// SeparatorFactory builds " | " separators; the "text" option overrides it.
type SeparatorFactory struct{}

func (SeparatorFactory) Name() string { return "separator" }

func (SeparatorFactory) Create(opts config.Options) (statusbar.Widget, error) {
	return &Static{text: opts.String(config.OptText, " | ")}, nil
}

// SpaceFactory builds single-space padding.
type SpaceFactory struct{}

func (SpaceFactory) Name() string { return "space" }

func (SpaceFactory) Create(opts config.Options) (statusbar.Widget, error) {
	return &Static{text: " "}, nil
}
