package config

import "fmt"

// Progress display modes.
const (
	ProgressAuto  = "auto"  // live bar on a terminal, plain lines otherwise
	ProgressLive  = "live"
	ProgressPlain = "plain"
	ProgressOff   = "off"
)

// UIConfig configures terminal output.
type UIConfig struct {
	Progress string `yaml:"progress"`
	Color    bool   `yaml:"color"`
	Report   string `yaml:"report"` // markdown report path; empty = none
}

func (c *UIConfig) validate() error {
	switch c.Progress {
	case "", ProgressAuto, ProgressLive, ProgressPlain, ProgressOff:
		return nil
	default:
		return fmt.Errorf("ui.progress must be one of auto, live, plain, off; got %q", c.Progress)
	}
}
