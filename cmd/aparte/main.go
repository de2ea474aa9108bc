// Command aparte is the interactive XMPP terminal client's process
// bootstrap: flag parsing, logger/config construction, wiring the session
// core and every plugin (the six protocol feature plugins plus the terminal
// UI), and running the bubbletea program.
//
// Grounded on wilbur182-forge/cmd/sidecar/main.go's bootstrap shape
// (flag-based CLI surface, slog.NewTextHandler to stderr, keymap registry
// built before plugin Init so plugins can register bindings, tea.NewProgram
// with alt-screen + mouse) and original_source/src/main.rs's plugin
// registration order (Disco, Carbons, Bookmarks, MUC, Roster, Completion).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"mellium.im/xmpp/jid"

	"github.com/aparte-go/aparte/internal/command"
	"github.com/aparte-go/aparte/internal/config"
	"github.com/aparte-go/aparte/internal/core"
	"github.com/aparte-go/aparte/internal/event"
	"github.com/aparte-go/aparte/internal/keymap"
	"github.com/aparte-go/aparte/internal/plugin"
	"github.com/aparte-go/aparte/internal/plugins/bookmarks"
	"github.com/aparte-go/aparte/internal/plugins/carbons"
	"github.com/aparte-go/aparte/internal/plugins/completion"
	"github.com/aparte-go/aparte/internal/plugins/disco"
	"github.com/aparte-go/aparte/internal/plugins/muc"
	"github.com/aparte-go/aparte/internal/plugins/roster"
	"github.com/aparte-go/aparte/internal/uiplugin"
)

const (
	exitClean = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

// flagSet holds the CLI surface (spec.md §6): -config, -debug, -v/-version,
// matching wilbur182-forge/cmd/sidecar/main.go's flag set one-for-one minus
// the project-root flag this single-session client has no use for.
type flagSet struct {
	configPath string
	debug      bool
	version    bool
}

func newFlagSet() *flagSet { return &flagSet{} }

func (f *flagSet) parse(args []string) error {
	fs := flag.NewFlagSet("aparte", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to config file")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.BoolVar(&f.version, "v", false, "print version and exit (short)")
	return fs.Parse(args)
}

func run() int {
	fs := newFlagSet()
	if err := fs.parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if fs.version {
		fmt.Println("aparte (development build)")
		return exitClean
	}

	logLevel := slog.LevelInfo
	if fs.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := loadConfig(fs.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitFatal
	}

	watchConfig(logger)

	bus := event.NewWithLogger(logger)
	defer bus.Close()

	km := keymap.NewRegistry()
	cmds := command.NewRegistry()

	c := core.New(cfg, bus, logger, cmds)

	var accounts []string
	for _, acctCfg := range cfg.Accounts {
		j, err := jid.Parse(acctCfg.JID)
		if err != nil {
			logger.Warn("skipping invalid account jid", "jid", acctCfg.JID, "error", err)
			continue
		}
		c.AddAccount(j, acctCfg)
		if acctCfg.Autoconnect {
			accounts = append(accounts, j.Bare().String())
		}
	}

	pluginCtx := &plugin.Context{
		ConfigDir: config.ConfigPath(),
		Config:    cfg,
		EventBus:  bus,
		Logger:    logger,
		Keymap:    km,
		Core:      c,
	}
	registry := plugin.NewRegistry(pluginCtx)
	c.SetRegistry(registry)

	// Registration order matches original_source/src/main.rs: disco and
	// carbons first (so carbons' enabling iq and disco's feature set are in
	// place before anything else connects), then the higher-level feature
	// plugins.
	registry.Register(disco.New())
	registry.Register(carbons.New())
	registry.Register(bookmarks.New())
	registry.Register(muc.New())
	registry.Register(roster.New())
	registry.Register(completion.New())

	for key, cmdID := range cfg.Keymap.Overrides {
		km.SetUserOverride(key, cmdID)
	}

	ui := uiplugin.New(c, registry, cmds, accounts)
	bus.Register(ui)

	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running aparte: %v\n", err)
		return exitFatal
	}
	return exitClean
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// watchConfig starts a best-effort fsnotify watch on the config file so a
// future /reload can pick up external edits without a restart; failures
// (e.g. the file doesn't exist yet on a first run) are logged, not fatal.
func watchConfig(logger *slog.Logger) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Debug("config watcher unavailable", "error", err)
		return
	}
	if err := w.Add(config.ConfigPath()); err != nil {
		logger.Debug("config watch failed", "path", config.ConfigPath(), "error", err)
		w.Close()
		return
	}
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Remove) != 0 {
					logger.Info("config file changed on disk; restart to apply", "path", ev.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Debug("config watcher error", "error", err)
			}
		}
	}()
}
