// Package config loads and saves the on-disk configuration file spec.md §6
// describes: a simple key/value blob tolerant of absence (a first run with
// no config file gets Default() and nothing else breaks).
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Accounts []AccountConfig `json:"accounts"`
	Keymap   KeymapConfig    `json:"keymap"`
	UI       UIConfig        `json:"ui"`
}

// AccountConfig is one configured XMPP account. Password is optional; when
// empty the client prompts for it at connect time rather than persisting a
// credential to disk.
type AccountConfig struct {
	JID         string        `json:"jid"`
	Password    string        `json:"password,omitempty"`
	Autoconnect bool          `json:"autoconnect"`
	ReconnectMin time.Duration `json:"reconnectMin,omitempty"`
	ReconnectMax time.Duration `json:"reconnectMax,omitempty"`
}

// KeymapConfig holds key binding overrides, key string -> command ID.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// UIConfig configures terminal UI appearance.
type UIConfig struct {
	Theme          string `json:"theme"`
	RenderMarkdown bool   `json:"renderMarkdown"`
}

// Default returns the configuration used when no config file exists yet.
func Default() *Config {
	return &Config{
		Accounts: nil,
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		UI: UIConfig{
			Theme:          "default",
			RenderMarkdown: true,
		},
	}
}

// Validate normalizes out-of-range values rather than rejecting the config
// outright, matching spec.md §6's "tolerant of absence" posture.
func (c *Config) Validate() error {
	if c.Keymap.Overrides == nil {
		c.Keymap.Overrides = make(map[string]string)
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "default"
	}
	for i := range c.Accounts {
		a := &c.Accounts[i]
		if a.ReconnectMin <= 0 {
			a.ReconnectMin = time.Second
		}
		if a.ReconnectMax <= 0 {
			a.ReconnectMax = 30 * time.Second
		}
		if a.ReconnectMax < a.ReconnectMin {
			a.ReconnectMax = a.ReconnectMin
		}
	}
	return nil
}
