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

// Package fuzzer wires generated Solidity programs through compile,
// deploy and execute, and judges the result. Its invariants are
// one-sided: a program that fails to compile ends the case quietly,
// while a deployment failure or an unexpected execution result is a
// finding that aborts the process.
package fuzzer

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tiangegege/solfuzz/compiler"
	"github.com/tiangegege/solfuzz/evm"
)

// Host runs messages for one fuzz case. *evm.Host satisfies it; tests
// substitute scripted fakes.
type Host interface {
	Call(evm.Message) evm.Outcome
}

// Compiler produces deployable artifacts from source. Both
// *compiler.Solidity and *compiler.Cached satisfy it.
type Compiler interface {
	Compile(source, contractName string, libraries map[string]common.Address, settings compiler.Settings) (*compiler.Artifact, error)
}

// Converter turns raw fuzzer bytes into a Solidity program.
// *solgen.Generator is the default implementation.
type Converter interface {
	Source(data []byte) string
	LibraryTest() bool
	LibraryName() string
}

// newMessage builds the zero message every call starts from: no
// destination, no value, the full gas budget.
func newMessage(payload []byte) evm.Message {
	return evm.Message{Input: payload, Gas: evm.MaxGas}
}

// DeployContract sends code as a contract creation.
func DeployContract(h Host, code []byte) evm.Outcome {
	msg := newMessage(code)
	msg.Kind = evm.Create
	return h.Call(msg)
}

// ExecuteContract calls into the contract at addr with the given
// calldata.
func ExecuteContract(h Host, calldata []byte, addr common.Address) evm.Outcome {
	msg := newMessage(calldata)
	msg.Kind = evm.CallContract
	msg.To = addr
	return h.Call(msg)
}

// DeployAndExecute deploys code and runs the designated test call
// against it. The calldata arrives as a hex string, usually a bare
// four byte selector.
//
// Two outcomes are findings raised on the spot: the deployment not
// succeeding, and the test call reverting. Compiled-but-broken
// programs never get here, so both point at the tools. Every other
// status is handed back undisturbed.
func DeployAndExecute(h Host, code []byte, hexCalldata string) evm.Outcome {
	deployed := DeployContract(h, code)
	if deployed.Status != evm.Success {
		report(findingCreateFailed, deployed)
	}
	out := ExecuteContract(h, common.FromHex(hexCalldata), deployed.CreatedAddr)
	if out.Status == evm.Revert {
		report(findingTestReverted, out)
	}
	return out
}

// CompileDeployAndExecute is the full pipeline for one program. With a
// libraryName the library is compiled and deployed first and its
// address is linked into the main compilation.
//
// An empty artifact from either compile ends the case quietly with a
// failure outcome before anything touches the host; empty bytecode
// would deploy "successfully" and turn a routine compile failure into
// a false finding downstream.
func CompileDeployAndExecute(h Host, c Compiler, source, contractName, methodName string, settings compiler.Settings, libraryName string) evm.Outcome {
	libraries := make(map[string]common.Address)
	if libraryName != "" {
		art, err := c.Compile(source, libraryName, nil, settings)
		if err != nil {
			panic(err)
		}
		if art.Empty() {
			return evm.Outcome{Status: evm.Failure}
		}
		deployed := DeployContract(h, art.Bytecode)
		if deployed.Status != evm.Success {
			report(findingLibraryFailed, deployed)
		}
		libraries[libraryName] = deployed.CreatedAddr
	}
	art, err := c.Compile(source, contractName, libraries, settings)
	if err != nil {
		panic(err)
	}
	if art.Empty() {
		return evm.Outcome{Status: evm.Failure}
	}
	return DeployAndExecute(h, art.Bytecode, art.MethodSelectors[methodName])
}

// IsOutputExpected reports whether the returndata matches the
// reference output exactly, length included.
func IsOutputExpected(got, want []byte) bool {
	return bytes.Equal(got, want)
}
