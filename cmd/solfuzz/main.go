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

// solfuzz replays and inspects compiler fuzzing inputs outside the
// fuzzing engine: run a single input, sweep a corpus, or print the
// program an input generates.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	SolcFlag = &cli.StringFlag{
		Name:  "solc",
		Usage: "Name or path of the solc binary",
	}
	ConfigFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	VerbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	EVMVersionFlag = &cli.StringFlag{
		Name:  "evm.version",
		Usage: "EVM version to compile for",
	}
	OptimizeFlag = &cli.BoolFlag{
		Name:  "optimize",
		Usage: "Compile with the solc optimizer enabled",
	}
	SolSourceFlag = &cli.BoolFlag{
		Name:  "sol",
		Usage: "Treat input files as Solidity source instead of raw fuzzer bytes",
	}
	LibraryFlag = &cli.StringFlag{
		Name:  "library",
		Usage: "Library to deploy and link before the contract (with --sol)",
	}
	SelectorsFlag = &cli.BoolFlag{
		Name:  "selectors",
		Usage: "Compile the generated program and print its method selectors",
	}
	JobsFlag = &cli.IntFlag{
		Name:  "jobs",
		Usage: "Number of parallel replay workers",
		Value: runtime.NumCPU(),
	}
	CacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "Number of artifacts kept by the replay compile cache",
		Value: 512,
	}
)

var app = &cli.App{
	Name:  "solfuzz",
	Usage: "fuzzing harness for the Solidity compiler and the EVM",
	Flags: []cli.Flag{
		SolcFlag,
		ConfigFlag,
		VerbosityFlag,
	},
	Commands: []*cli.Command{
		runCommand,
		replayCommand,
		generateCommand,
	},
	Before: func(ctx *cli.Context) error {
		usecolor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
		handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(ctx.Int(VerbosityFlag.Name)), usecolor)
		log.SetDefault(log.NewLogger(handler))
		return nil
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
