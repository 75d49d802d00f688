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
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/tiangegege/solfuzz/compiler"
	"github.com/tiangegege/solfuzz/evm"
)

// fakeHost replays scripted outcomes and records every message.
type fakeHost struct {
	outcomes []evm.Outcome
	calls    []evm.Message
}

func (h *fakeHost) Call(msg evm.Message) evm.Outcome {
	h.calls = append(h.calls, msg)
	if len(h.outcomes) == 0 {
		return evm.Outcome{Status: evm.Success}
	}
	out := h.outcomes[0]
	h.outcomes = h.outcomes[1:]
	return out
}

type compileRequest struct {
	source    string
	name      string
	libraries map[string]common.Address
	settings  compiler.Settings
}

// fakeCompiler hands out scripted artifacts and records every request.
type fakeCompiler struct {
	artifacts []*compiler.Artifact
	err       error
	requests  []compileRequest
}

func (c *fakeCompiler) Compile(source, name string, libraries map[string]common.Address, settings compiler.Settings) (*compiler.Artifact, error) {
	c.requests = append(c.requests, compileRequest{source: source, name: name, libraries: libraries, settings: settings})
	if c.err != nil {
		return nil, c.err
	}
	if len(c.artifacts) == 0 {
		return &compiler.Artifact{}, nil
	}
	art := c.artifacts[0]
	c.artifacts = c.artifacts[1:]
	return art, nil
}

// catchFinding runs fn and returns the finding it panicked with, or
// nil if it ran through. Any other panic fails the test.
func catchFinding(t *testing.T, fn func()) (finding *Finding) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Finding)
			if !ok {
				t.Fatalf("panic is not a finding: %v", r)
			}
			finding = f
		}
	}()
	fn()
	return nil
}

var (
	addrLib  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	addrMain = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

func success(addr common.Address, output []byte) evm.Outcome {
	return evm.Outcome{Status: evm.Success, CreatedAddr: addr, Output: output}
}

func TestNewMessageDefaults(t *testing.T) {
	msg := newMessage([]byte{1, 2, 3})
	require.Equal(t, uint64(evm.MaxGas), msg.Gas)
	require.Equal(t, common.Address{}, msg.To)
	require.Equal(t, []byte{1, 2, 3}, msg.Input)
}

func TestDeployContractMessage(t *testing.T) {
	host := new(fakeHost)
	code := []byte{0x60, 0x01}

	DeployContract(host, code)

	require.Len(t, host.calls, 1)
	require.Equal(t, evm.Create, host.calls[0].Kind)
	require.Equal(t, code, host.calls[0].Input)
	require.Equal(t, uint64(evm.MaxGas), host.calls[0].Gas)
}

func TestExecuteContractMessage(t *testing.T) {
	host := new(fakeHost)
	calldata := common.FromHex("f8a8fd6d")

	ExecuteContract(host, calldata, addrMain)

	require.Len(t, host.calls, 1)
	require.Equal(t, evm.CallContract, host.calls[0].Kind)
	require.Equal(t, addrMain, host.calls[0].To)
	require.Equal(t, calldata, host.calls[0].Input)
}

func TestDeployAndExecute(t *testing.T) {
	host := &fakeHost{outcomes: []evm.Outcome{
		success(addrMain, nil),
		success(common.Address{}, make([]byte, 32)),
	}}

	out := DeployAndExecute(host, []byte{0x60}, "f8a8fd6d")

	require.Equal(t, evm.Success, out.Status)
	require.Len(t, host.calls, 2)
	require.Equal(t, evm.Create, host.calls[0].Kind)
	require.Equal(t, evm.CallContract, host.calls[1].Kind)
	require.Equal(t, addrMain, host.calls[1].To)
	require.Equal(t, common.FromHex("f8a8fd6d"), host.calls[1].Input)
}

func TestDeployAndExecuteCreateFails(t *testing.T) {
	host := &fakeHost{outcomes: []evm.Outcome{{Status: evm.Failure}}}

	finding := catchFinding(t, func() {
		DeployAndExecute(host, []byte{0x60}, "")
	})

	require.NotNil(t, finding)
	require.Equal(t, findingCreateFailed, finding.Msg)
	require.Len(t, host.calls, 1, "no call may follow a failed deployment")
}

func TestDeployAndExecuteCreateReverts(t *testing.T) {
	// A reverting constructor is still a failed creation.
	host := &fakeHost{outcomes: []evm.Outcome{{Status: evm.Revert}}}

	finding := catchFinding(t, func() {
		DeployAndExecute(host, []byte{0x60}, "")
	})

	require.NotNil(t, finding)
	require.Equal(t, findingCreateFailed, finding.Msg)
}

func TestDeployAndExecuteCallReverts(t *testing.T) {
	host := &fakeHost{outcomes: []evm.Outcome{
		success(addrMain, nil),
		{Status: evm.Revert},
	}}

	finding := catchFinding(t, func() {
		DeployAndExecute(host, []byte{0x60}, "f8a8fd6d")
	})

	require.NotNil(t, finding)
	require.Equal(t, findingTestReverted, finding.Msg)
}

func TestDeployAndExecuteCallFailurePassesThrough(t *testing.T) {
	// Anything that is neither success nor revert is the caller's to
	// interpret.
	host := &fakeHost{outcomes: []evm.Outcome{
		success(addrMain, nil),
		{Status: evm.Failure},
	}}

	var out evm.Outcome
	finding := catchFinding(t, func() {
		out = DeployAndExecute(host, []byte{0x60}, "f8a8fd6d")
	})

	require.Nil(t, finding)
	require.Equal(t, evm.Failure, out.Status)
}

func TestCompileDeployAndExecuteQuietOnEmptyArtifact(t *testing.T) {
	host := new(fakeHost)
	comp := &fakeCompiler{artifacts: []*compiler.Artifact{{}}}

	var out evm.Outcome
	finding := catchFinding(t, func() {
		out = CompileDeployAndExecute(host, comp, "contract C {", ":C", "test()", compiler.MinimalSettings(), "")
	})

	require.Nil(t, finding)
	require.Equal(t, evm.Failure, out.Status)
	require.Empty(t, host.calls, "a failed compile must never reach the host")
}

func TestCompileDeployAndExecuteSuccess(t *testing.T) {
	host := &fakeHost{outcomes: []evm.Outcome{
		success(addrMain, nil),
		success(common.Address{}, make([]byte, 32)),
	}}
	comp := &fakeCompiler{artifacts: []*compiler.Artifact{{
		Bytecode:        []byte{0x60, 0x0a},
		MethodSelectors: map[string]string{"test()": "f8a8fd6d"},
	}}}

	out := CompileDeployAndExecute(host, comp, "contract C {}", ":C", "test()", compiler.MinimalSettings(), "")

	require.Equal(t, evm.Success, out.Status)
	require.Len(t, comp.requests, 1)
	require.Equal(t, ":C", comp.requests[0].name)
	require.Equal(t, compiler.MinimalSettings(), comp.requests[0].settings)
	require.Equal(t, common.FromHex("f8a8fd6d"), host.calls[1].Input)
}

func TestCompileDeployAndExecuteMissingSelector(t *testing.T) {
	// No selector table entry degrades to an empty calldata call.
	host := &fakeHost{outcomes: []evm.Outcome{
		success(addrMain, nil),
		success(common.Address{}, make([]byte, 32)),
	}}
	comp := &fakeCompiler{artifacts: []*compiler.Artifact{{Bytecode: []byte{0x60}}}}

	CompileDeployAndExecute(host, comp, "contract C {}", ":C", "test()", compiler.MinimalSettings(), "")

	require.Len(t, host.calls, 2)
	require.Empty(t, host.calls[1].Input)
}

func TestCompileDeployAndExecuteLibraryFlow(t *testing.T) {
	libCode := []byte{0x60, 0x01}
	mainCode := []byte{0x60, 0x02}
	host := &fakeHost{outcomes: []evm.Outcome{
		success(addrLib, nil),
		success(addrMain, nil),
		success(common.Address{}, make([]byte, 32)),
	}}
	comp := &fakeCompiler{artifacts: []*compiler.Artifact{
		{Bytecode: libCode},
		{Bytecode: mainCode, MethodSelectors: map[string]string{"test()": "f8a8fd6d"}},
	}}

	out := CompileDeployAndExecute(host, comp, "library L {} contract C {}", ":C", "test()", compiler.MinimalSettings(), "L")

	require.Equal(t, evm.Success, out.Status)

	// The library is compiled bare, then its deployed address feeds
	// the linked main compilation.
	require.Len(t, comp.requests, 2)
	require.Equal(t, "L", comp.requests[0].name)
	require.Empty(t, comp.requests[0].libraries)
	require.Equal(t, ":C", comp.requests[1].name)
	require.Equal(t, map[string]common.Address{"L": addrLib}, comp.requests[1].libraries)

	require.Len(t, host.calls, 3)
	require.Equal(t, libCode, host.calls[0].Input)
	require.Equal(t, mainCode, host.calls[1].Input)
	require.Equal(t, addrMain, host.calls[2].To)
}

func TestCompileDeployAndExecuteLibraryEmptyArtifact(t *testing.T) {
	host := new(fakeHost)
	comp := &fakeCompiler{artifacts: []*compiler.Artifact{{}}}

	var out evm.Outcome
	finding := catchFinding(t, func() {
		out = CompileDeployAndExecute(host, comp, "library L {", ":C", "test()", compiler.MinimalSettings(), "L")
	})

	require.Nil(t, finding)
	require.Equal(t, evm.Failure, out.Status)
	require.Empty(t, host.calls)
	require.Len(t, comp.requests, 1, "the main compile is pointless after a failed library compile")
}

func TestCompileDeployAndExecuteLibraryDeployFails(t *testing.T) {
	host := &fakeHost{outcomes: []evm.Outcome{{Status: evm.Failure}}}
	comp := &fakeCompiler{artifacts: []*compiler.Artifact{{Bytecode: []byte{0x60}}}}

	finding := catchFinding(t, func() {
		CompileDeployAndExecute(host, comp, "library L {}", ":C", "test()", compiler.MinimalSettings(), "L")
	})

	require.NotNil(t, finding)
	require.Equal(t, findingLibraryFailed, finding.Msg)
}

func TestCompileDeployAndExecuteCompilerError(t *testing.T) {
	// Infrastructure faults must not masquerade as findings.
	host := new(fakeHost)
	comp := &fakeCompiler{err: errors.New("solc crashed")}

	defer func() {
		r := recover()
		require.NotNil(t, r, "a compiler error must panic")
		_, isFinding := r.(*Finding)
		require.False(t, isFinding, "a compiler error is not a finding")
	}()
	CompileDeployAndExecute(host, comp, "contract C {}", ":C", "test()", compiler.MinimalSettings(), "")
}

func TestIsOutputExpected(t *testing.T) {
	zeros := make([]byte, 32)
	for i, tt := range []struct {
		got, want []byte
		equal     bool
	}{
		{zeros, make([]byte, 32), true},
		{make([]byte, 31), zeros, false},
		{make([]byte, 33), zeros, false},
		{append(make([]byte, 31), 1), zeros, false},
		{nil, zeros, false},
		{nil, []byte{}, true},
	} {
		require.Equal(t, tt.equal, IsOutputExpected(tt.got, tt.want), "case %d", i)
	}
}

func TestVerdict(t *testing.T) {
	finding := catchFinding(t, func() {
		Verdict(evm.Outcome{Status: evm.Success, Output: make([]byte, 32)})
	})
	require.Nil(t, finding, "the zero word is the expected answer")

	finding = catchFinding(t, func() {
		Verdict(evm.Outcome{Status: evm.Success, Output: append(make([]byte, 31), 1)})
	})
	require.NotNil(t, finding)
	require.Equal(t, findingBadOutput, finding.Msg)

	// Non-success outcomes reaching the driver end the case quietly.
	for _, status := range []evm.Status{evm.Revert, evm.Failure} {
		finding = catchFinding(t, func() {
			Verdict(evm.Outcome{Status: status, Output: []byte{0xff}})
		})
		require.Nil(t, finding, "status %v must pass the verdict untouched", status)
	}
}

func TestFindingError(t *testing.T) {
	f := &Finding{Msg: findingBadOutput, Status: evm.Success, Output: []byte{0xab}}
	require.Contains(t, f.Error(), findingBadOutput)
	require.Contains(t, f.Error(), "ab")
}
