// Copyright 2025 The solfuzz Authors
// This file is part of the solfuzz library.
//
// The solfuzz library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The solfuzz library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the solfuzz library. If not, see <http://www.gnu.org/licenses/>.

package fuzzer

import (
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/tiangegege/solfuzz/compiler"
	"github.com/tiangegege/solfuzz/evm"
	"github.com/tiangegege/solfuzz/solgen"
)

// Environment variables honored by Fuzz.
const (
	// DumpPathEnv names a file that receives every generated program
	// before compilation, for post-mortems on inputs that kill the
	// process.
	DumpPathEnv = "PROTO_FUZZER_DUMP_PATH"
	// DebugFileEnv names a Solidity file that replaces the generated
	// program. The replacement is echoed to stdout. Used to replay a
	// crasher against hand-edited source.
	DebugFileEnv = "SOL_DEBUG_FILE"
	// SolcPathEnv overrides the name of the solc binary the shared
	// framework resolves on first use.
	SolcPathEnv = "SOLC_PATH"
)

// The fixed fuzzing target: contract C of the anonymous source unit,
// method test().
const (
	TargetContract = ":C"
	TargetMethod   = "test()"
)

// expectedOutput is the ABI encoding of uint256(0), the value every
// healthy test() evaluation returns.
var expectedOutput = make([]byte, 32)

// engine is the process-wide VM handle. Hosts are per case; this is
// not.
var engine = evm.NewEngine()

// sharedSolc resolves the compiler once and reuses it for every case.
var sharedSolc = sync.OnceValues(func() (*compiler.Solidity, error) {
	return compiler.New(os.Getenv(SolcPathEnv))
})

// Fuzz is the go-fuzz entry point: one generated input, one full
// compile-deploy-execute round.
//
// The function must return
//
//   - 1 if the fuzzer should increase priority of the given input
//     during subsequent fuzzing (the program compiled and its test
//     method ran to completion); and
//   - 0 otherwise
//
// Harness defects surface as panics and end the process.
func Fuzz(data []byte) int {
	comp, err := sharedSolc()
	if err != nil {
		panic(fmt.Errorf("solc unavailable: %w", err))
	}
	host, err := evm.NewHost(engine)
	if err != nil {
		panic(err)
	}
	return run(new(solgen.Generator), comp, host, data)
}

// run is Fuzz with its collaborators injected.
func run(conv Converter, comp Compiler, host Host, data []byte) int {
	source := conv.Source(data)
	if path := os.Getenv(DumpPathEnv); path != "" {
		if err := os.WriteFile(path, []byte(source), 0644); err != nil {
			log.Warn("Cannot dump generated program", "path", path, "err", err)
		}
	}
	if path := os.Getenv(DebugFileEnv); path != "" {
		blob, err := os.ReadFile(path)
		if err != nil {
			panic(fmt.Errorf("read debug source: %w", err))
		}
		source = string(blob)
		fmt.Println(source)
	}
	var library string
	if conv.LibraryTest() {
		library = conv.LibraryName()
	}
	out := CompileDeployAndExecute(host, comp, source, TargetContract, TargetMethod, compiler.MinimalSettings(), library)
	Verdict(out)
	if out.Status == evm.Success {
		return 1
	}
	return 0
}

// Verdict applies the end-of-case policy. Only successful executions
// are inspected; their returndata must be the 32 zero bytes every
// generated test() is built to produce. Reverts and failures reaching
// this point end the case without a word, since the statuses the
// pipeline vouches for were already asserted at their origin.
//
// Exported so replay tooling judges an outcome by the same rule as the
// fuzzing entry point.
func Verdict(out evm.Outcome) {
	if out.Status != evm.Success {
		return
	}
	if !IsOutputExpected(out.Output, expectedOutput) {
		report(findingBadOutput, out)
	}
}
