// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Shared wiring for every command: config, logging, the thread
// cache, the backend client, the session and the renderer.

package cli

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/genscene-tui/internal/api"
	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/logging"
	"github.com/jeranaias/genscene-tui/internal/render"
	"github.com/jeranaias/genscene-tui/internal/session"
	"github.com/jeranaias/genscene-tui/internal/storage"
)

// Env is everything a command needs. Close releases it.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Client     *api.Client
	Session    *session.Session
	Cache      *storage.ThreadCache
	Renderer   *render.Renderer
	Logger     zerolog.Logger

	In  io.Reader
	Out io.Writer
	Err io.Writer

	JSON  bool
	Quiet bool

	closers []func() error
}

// Setup loads configuration, applies the global flags, installs the
// process logger and builds an Env on the standard streams.
func Setup(args Args) (*Env, error) {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		logPath = ""
	}
	logger, closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Path: logPath})
	if err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)

	env, err := NewEnv(cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		closeLog()
		return nil, err
	}
	env.ConfigPath = path
	env.Logger = logger
	env.JSON = args.JSON
	env.Quiet = args.Quiet
	env.closers = append(env.closers, closeLog)
	return env, nil
}

// NewEnv builds an Env from cfg. A cache that fails to open is logged and
// skipped; the session then runs without one.
func NewEnv(cfg *config.Config, in io.Reader, out, errOut io.Writer) (*Env, error) {
	env := &Env{
		Config: cfg,
		Logger: logging.Component("cli"),
		In:     in,
		Out:    out,
		Err:    errOut,
	}

	if cfg.Cache.Enabled {
		path, err := cfg.CachePath()
		if err == nil {
			env.Cache, err = storage.Open(path)
		}
		if err != nil {
			env.Logger.Warn().Err(err).Msg("thread cache disabled")
			env.Cache = nil
		} else {
			env.closers = append(env.closers, env.Cache.Close)
		}
	}

	env.Client = api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.Server.URL,
		Timeout: time.Duration(cfg.Server.TimeoutSecs) * time.Second,
	})

	env.Session = session.New(env.Client, session.Options{
		User:       cfg.Chat.User,
		Actor:      cfg.Chat.Actor,
		BufferSize: cfg.Chat.BufferSize,
		ReadSize:   cfg.Chat.ReadSize,
		Cache:      env.Cache,
	})
	env.closers = append(env.closers, func() error {
		env.Session.Close()
		return nil
	})

	r, err := render.New(render.Options{
		Theme:    cfg.UI.Theme,
		WordWrap: wrapWidth(cfg.UI.WordWrap, out),
		Markdown: true,
		Profile:  GetColorProfile(),
	})
	if err != nil {
		env.Logger.Warn().Err(err).Msg("markdown rendering disabled")
	}
	env.Renderer = r
	return env, nil
}

// Close releases the env's resources in reverse order of acquisition.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// loadConfig loads the config file and layers the global flags on top.
func loadConfig(args Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = args.ConfigPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return nil, path, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, "", err
		}
		// A broken file falls back to defaults; Load says why.
		if err != nil {
			logger := logging.Component("config")
			logger.Warn().Err(err).Msg("using default configuration")
		}
		path, _ = config.ConfigPathTOML()
	}

	applyFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// applyFlags overrides cfg with the global command-line flags.
func applyFlags(cfg *config.Config, args Args) {
	if args.Server != "" {
		cfg.Server.URL = args.Server
	}
	if args.User != "" {
		cfg.Chat.User = args.User
	}
	if args.Actor != "" {
		cfg.Chat.Actor = args.Actor
	}
	if args.NoCache {
		cfg.Cache.Enabled = false
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
}
