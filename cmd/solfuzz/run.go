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
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tiangegege/solfuzz/compiler"
	"github.com/tiangegege/solfuzz/evm"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Execute one fuzzer input end to end",
	ArgsUsage: "<file>",
	Action:    runInput,
	Flags: []cli.Flag{
		SolSourceFlag,
		LibraryFlag,
		EVMVersionFlag,
		OptimizeFlag,
	},
}

func runInput(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("run needs exactly one input file")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	comp, err := compiler.New(cfg.Compiler.Path)
	if err != nil {
		return err
	}
	tc, err := loadCase(ctx.Args().First(), ctx.Bool(SolSourceFlag.Name), ctx.String(LibraryFlag.Name))
	if err != nil {
		return err
	}
	res := runCase(comp, cfg.settings(), tc)
	switch {
	case res.err != nil:
		return res.err
	case res.finding != nil:
		color.Red("FINDING: %v", res.finding)
		return errors.New("finding raised")
	}
	fmt.Printf("status:   %v\n", res.outcome.Status)
	if res.outcome.GasLeft > 0 {
		fmt.Printf("gas used: %d\n", uint64(evm.MaxGas)-res.outcome.GasLeft)
	}
	fmt.Printf("output:   %x\n", res.outcome.Output)
	return nil
}
