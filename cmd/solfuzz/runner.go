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
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/tiangegege/solfuzz/compiler"
	"github.com/tiangegege/solfuzz/evm"
	"github.com/tiangegege/solfuzz/fuzzer"
	"github.com/tiangegege/solfuzz/solgen"
)

// engine is shared by every replayed case, like in the fuzzing process.
var engine = evm.NewEngine()

// testCase is one input scheduled for execution.
type testCase struct {
	name    string
	source  string
	library string
}

// caseResult is what one executed input came back with. At most one of
// finding and err is set; both nil means the case ran to a verdict.
type caseResult struct {
	name    string
	outcome evm.Outcome
	finding *fuzzer.Finding
	err     error
}

// loadCase reads one input file, interpreting it as raw fuzzer bytes
// unless sol is set.
func loadCase(path string, sol bool, library string) (testCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return testCase{}, err
	}
	tc := testCase{name: filepath.Base(path)}
	if sol {
		tc.source = string(data)
		tc.library = library
		return tc, nil
	}
	gen := new(solgen.Generator)
	tc.source = gen.Source(data)
	if gen.LibraryTest() {
		tc.library = gen.LibraryName()
	}
	return tc, nil
}

// runCase executes one case on a fresh host and judges it by the same
// verdict as the fuzzing entry point, converting finding panics back
// into values. Other panics keep flying.
func runCase(comp fuzzer.Compiler, settings compiler.Settings, tc testCase) (res caseResult) {
	res.name = tc.name
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*fuzzer.Finding); ok {
				res.finding = f
				return
			}
			panic(r)
		}
	}()
	host, err := evm.NewHost(engine)
	if err != nil {
		res.err = err
		return res
	}
	res.outcome = fuzzer.CompileDeployAndExecute(host, comp, tc.source,
		fuzzer.TargetContract, fuzzer.TargetMethod, settings, tc.library)
	fuzzer.Verdict(res.outcome)
	return res
}

// collectFiles gathers the corpus under path. A plain file argument is
// taken as a single-case corpus.
func collectFiles(path string) []string {
	var out []string
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return []string{path}
	}
	err := filepath.Walk(path, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	sort.Strings(out)
	return out
}
