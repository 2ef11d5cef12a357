// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui runs the genscene terminal UI.
package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/ui/chat"
)

// Options configures Run.
type Options struct {
	Session *session.Session
	Config  *config.Config
	// ConfigPath is watched for changes; empty disables reloading.
	ConfigPath string
	// Thread is opened on start when set.
	Thread    string
	ServerURL string
	Profile   termenv.Profile
	Logger    zerolog.Logger
}

// Run shows the chat view until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relay := chat.NewRelay()
	unsubscribe := opts.Session.Store().Subscribe(relay.Observe)
	defer unsubscribe()

	m := chat.New(chat.Options{
		Context:   ctx,
		Session:   opts.Session,
		UI:        opts.Config.UI,
		Profile:   opts.Profile,
		ServerURL: opts.ServerURL,
		Thread:    opts.Thread,
		Logger:    &opts.Logger,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
		tea.WithContext(ctx),
	)

	go relay.Run(ctx, p.Send)

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, func(cfg *config.Config, err error) {
			if err == nil {
				config.SetGlobal(cfg)
			}
			p.Send(chat.ConfigReloadedMsg{Config: cfg, Err: err})
		})
		if err != nil {
			opts.Logger.Warn().Err(err).Msg("config reload disabled")
		} else {
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					opts.Logger.Warn().Err(err).Msg("config watcher stopped")
				}
			}()
		}
	}

	_, err := p.Run()
	opts.Session.Cancel()
	opts.Logger.Debug().Int("coalesced", relay.Coalesced()).Msg("tui closed")

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
