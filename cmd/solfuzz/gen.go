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
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/tiangegege/solfuzz/compiler"
	"github.com/tiangegege/solfuzz/fuzzer"
	"github.com/tiangegege/solfuzz/solgen"
)

var generateCommand = &cli.Command{
	Name:      "generate",
	Usage:     "Print the Solidity program generated from a fuzzer input",
	ArgsUsage: "<file>",
	Action:    generateSource,
	Flags: []cli.Flag{
		SelectorsFlag,
		EVMVersionFlag,
		OptimizeFlag,
	},
}

func generateSource(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("generate needs exactly one input file")
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	gen := new(solgen.Generator)
	src := gen.Source(data)
	fmt.Print(src)
	if !ctx.Bool(SelectorsFlag.Name) {
		return nil
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	comp, err := compiler.New(cfg.Compiler.Path)
	if err != nil {
		return err
	}
	// Any address makes a library program linkable; only the selector
	// table is wanted here.
	var libraries map[string]common.Address
	if gen.LibraryTest() {
		libraries = map[string]common.Address{gen.LibraryName(): common.HexToAddress("0x0a")}
	}
	art, err := comp.Compile(src, fuzzer.TargetContract, libraries, cfg.settings())
	if err != nil {
		return err
	}
	if art.Empty() {
		return errors.New("generated program failed to compile")
	}
	sigs := make([]string, 0, len(art.MethodSelectors))
	for sig := range art.MethodSelectors {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	fmt.Println()
	for _, sig := range sigs {
		fmt.Printf("%s\t%s\n", art.MethodSelectors[sig], sig)
	}
	return nil
}
