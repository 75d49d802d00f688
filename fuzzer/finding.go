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

	"github.com/tiangegege/solfuzz/evm"
)

// A Finding is a violated harness invariant: the compiler and VM
// reached a state the pipeline guarantees cannot happen on healthy
// tools. Findings propagate as panics so the fuzzing driver records
// the input as a crash; nothing in this package recovers them.
type Finding struct {
	Msg    string
	Status evm.Status
	Output []byte
}

func (f *Finding) Error() string {
	return fmt.Sprintf("%s (status %v, output %x)", f.Msg, f.Status, f.Output)
}

// report raises a finding at the point it is first observed. It never
// returns.
func report(msg string, out evm.Outcome) {
	panic(&Finding{Msg: msg, Status: out.Status, Output: out.Output})
}

// The finding messages, fixed so replay tooling can match on them.
const (
	findingCreateFailed  = "contract creation failed"
	findingLibraryFailed = "library deployment failed"
	findingTestReverted  = "vm reverted in test method"
	findingBadOutput     = "test method output mismatch"
)
