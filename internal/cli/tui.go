// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/engine"
	"github.com/jeranaias/gemchat/internal/gemini"
	"github.com/jeranaias/gemchat/internal/logging"
	"github.com/jeranaias/gemchat/internal/registry"
	"github.com/jeranaias/gemchat/internal/ui/chat"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// runTUI assembles the full application and hands the terminal to Bubble Tea.
func runTUI() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("no API key configured: set GEMINI_API_KEY or gemini.api_key in the config file")
	}

	// The TUI owns the terminal, so logs go to a file.
	log := logging.NewLogger(cfg.Log.Level, cfg.Log.Path)
	defer log.Sync()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	client, err := gemini.NewClient(context.Background(), cfg.Gemini.APIKey, log)
	if err != nil {
		return fmt.Errorf("create Gemini client: %w", err)
	}

	reg := registry.New(store, log)
	eng := engine.New(reg, client, log)
	runner := chat.NewStreamRunner(eng)
	theme := styles.NewTheme(cfg.UI.Theme)

	m := chat.New(theme, cfg, reg, eng, runner, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	runner.SetProgram(p)

	// Live config reload: edits to the config file land in the event loop as
	// ConfigReloadedMsg. Watcher setup failure is not fatal.
	if path, perr := config.Path(); perr == nil {
		watcher, werr := config.NewWatcher(path, func(c *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: c})
		})
		if werr == nil {
			werr = watcher.Watch()
		}
		if werr != nil {
			log.Warn("config watcher unavailable", zap.Error(werr))
		} else {
			defer watcher.Close()
		}
	}

	_, err = p.Run()
	return err
}
