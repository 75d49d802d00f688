// Copyright 2025 The solfuzz Authors
// This file is part of solfuzz.
//
// solfuzz is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// solfuzz is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with solfuzz. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/tiangegege/solfuzz/compiler"
)

// Config is the TOML layout understood by --config. Zero fields fall
// back to the defaults, explicit flags override the file.
type Config struct {
	Compiler CompilerConfig
	Replay   ReplayConfig
}

type CompilerConfig struct {
	Path       string
	EVMVersion string
	Optimize   bool
	Runs       uint
}

type ReplayConfig struct {
	Jobs  int
	Cache int
}

func defaultConfig() Config {
	return Config{
		Compiler: CompilerConfig{
			Path:       "solc",
			EVMVersion: compiler.DefaultEVMVersion,
		},
		Replay: ReplayConfig{
			Jobs:  runtime.NumCPU(),
			Cache: 512,
		},
	}
}

// loadConfig merges defaults, the optional TOML file and explicit
// flags, in that order.
func loadConfig(ctx *cli.Context) (Config, error) {
	cfg := defaultConfig()
	if path := ctx.String(ConfigFlag.Name); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if ctx.IsSet(SolcFlag.Name) {
		cfg.Compiler.Path = ctx.String(SolcFlag.Name)
	}
	if ctx.IsSet(EVMVersionFlag.Name) {
		cfg.Compiler.EVMVersion = ctx.String(EVMVersionFlag.Name)
	}
	if ctx.IsSet(OptimizeFlag.Name) {
		cfg.Compiler.Optimize = ctx.Bool(OptimizeFlag.Name)
		if cfg.Compiler.Optimize && cfg.Compiler.Runs == 0 {
			cfg.Compiler.Runs = compiler.StandardSettings().Runs
		}
	}
	if ctx.IsSet(JobsFlag.Name) {
		cfg.Replay.Jobs = ctx.Int(JobsFlag.Name)
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.Replay.Cache = ctx.Int(CacheFlag.Name)
	}
	return cfg, nil
}

// settings translates the compiler section into a compile request.
func (c *Config) settings() compiler.Settings {
	return compiler.Settings{
		EVMVersion: c.Compiler.EVMVersion,
		Optimize:   c.Compiler.Optimize,
		Runs:       c.Compiler.Runs,
	}
}
