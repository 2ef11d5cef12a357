// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands.
//
// Usage:
//
//	genscene config [show]
//	genscene config path
//	genscene config init [--force]
//	genscene config get <key>
//	genscene config set <key> <value>
//	genscene config validate
//	genscene config keys

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/genscene-tui/internal/config"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// HandleConfig handles "genscene config ...".
func HandleConfig(env *Env, args Args) error {
	p := NewArgParser(args.Raw, "force")
	switch p.Subcommand() {
	case "", "show":
		return configShow(env)
	case "path":
		return configPath(env)
	case "init":
		return configInit(env, p.BoolFlag("force"))
	case "get":
		return configGet(env, p.Positional(1))
	case "set":
		return configSet(env, p.Positional(1), JoinPositionalArgs(p.PositionalFrom(2)))
	case "validate":
		return configValidate(env)
	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(env.Out, k)
		}
		return nil
	default:
		return NewValidationErrorWithExample("subcommand", p.Subcommand(), "unknown config subcommand", "genscene config show")
	}
}

// configShow prints the effective configuration, flags and environment
// overrides included.
func configShow(env *Env) error {
	if env.JSON {
		return NewJSONResponse("config show", env.Config).Print(env.Out)
	}
	fmt.Fprintln(env.Out, TitleStyle.Render("genscene configuration"))
	for _, key := range config.GetAllKeys() {
		val, err := env.Config.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintln(env.Out, DimStyle.Render(util.PadRight(key, 22))+formatValue(val))
	}
	if env.ConfigPath != "" {
		fmt.Fprintln(env.Out)
		fmt.Fprintln(env.Out, DimStyle.Render("file: "+env.ConfigPath))
	}
	return nil
}

func configPath(env *Env) error {
	path := env.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return err
		}
	}
	_, statErr := os.Stat(path)
	if env.JSON {
		return NewJSONResponse("config path", map[string]any{"path": path, "exists": statErr == nil}).Print(env.Out)
	}
	fmt.Fprintln(env.Out, path)
	return nil
}

// configInit writes the defaults to the config file.
func configInit(env *Env, force bool) error {
	path, err := targetPath(env)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return NewCommandError("config", "init", path+" already exists (use --force to overwrite)", nil)
	}
	if err := save(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "could not write config", err)
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render("Wrote ")+path)
	return nil
}

func configGet(env *Env, key string) error {
	if key == "" {
		return ErrMissingArgument("config get", "key", "genscene config get chat.actor")
	}
	val, err := env.Config.Get(key)
	if err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "genscene config keys")
	}
	if env.JSON {
		return NewJSONResponse("config get", map[string]any{"key": key, "value": val}).Print(env.Out)
	}
	fmt.Fprintln(env.Out, formatValue(val))
	return nil
}

// configSet updates one key in the file. Only the file's own values are
// written back; flags and environment overrides are not persisted.
func configSet(env *Env, key, value string) error {
	if key == "" {
		return ErrMissingArgument("config set", "key", "genscene config set chat.actor home")
	}
	path, err := targetPath(env)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		load := config.LoadTOML
		if strings.HasSuffix(path, ".json") {
			load = config.LoadJSON
		}
		if err := load(cfg, path); err != nil {
			return NewCommandError("config", "set", "could not read "+path, err)
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "genscene config keys")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := save(cfg, path); err != nil {
		return NewCommandError("config", "set", "could not write config", err)
	}
	fmt.Fprintf(env.Out, "%s %s = %s\n", SuccessStyle.Render("Set"), key, value)
	return nil
}

func configValidate(env *Env) error {
	err := env.Config.Validate()
	var verrs config.ValidateErrors
	if errors.As(err, &verrs) && !env.JSON {
		for _, e := range verrs {
			fmt.Fprintf(env.Out, "%s %s\n", ErrorStyle.Render("✗"), e.Error())
		}
	}
	if err != nil {
		return err
	}
	if env.JSON {
		return NewJSONResponse("config validate", map[string]bool{"valid": true}).Print(env.Out)
	}
	fmt.Fprintln(env.Out, SuccessStyle.Render("✓ configuration is valid"))
	return nil
}

func targetPath(env *Env) (string, error) {
	if env.ConfigPath != "" {
		return env.ConfigPath, nil
	}
	if err := config.EnsureConfigDir(); err != nil {
		return "", err
	}
	return config.ConfigPathTOML()
}

func save(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return DimStyle.Render("(unset)")
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}
