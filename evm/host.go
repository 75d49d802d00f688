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

package evm

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// MaxGas is the gas budget attached to every message, the int64
// maximum. Generated programs are tiny, so running out of gas is not a
// behavior the harness ever wants to observe.
const MaxGas = math.MaxInt64

// Kind selects the call type carried by a Message.
type Kind byte

const (
	// Create deploys the message input as contract creation code.
	Create Kind = iota
	// CallContract executes the code at To with the input as calldata.
	CallContract
)

// Status condenses the VM result into the three cases the harness
// tells apart.
type Status byte

const (
	Success Status = iota
	Revert
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Revert:
		return "revert"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// Message is one unit of work for a host: either a contract creation
// or a call into already deployed code. No value is ever transferred.
type Message struct {
	Kind  Kind
	Input []byte
	To    common.Address // ignored for Create
	Gas   uint64
}

// Outcome is the terminal state of one executed message.
type Outcome struct {
	Status      Status
	Output      []byte
	CreatedAddr common.Address // set for Create messages
	GasLeft     uint64
}

// Host executes messages against one ephemeral chain state. Changes
// persist across the calls of a single host, so a deployment followed
// by a method call sees the deployed code. Hosts are single-goroutine
// objects; make a new one per fuzz case and drop it afterwards.
type Host struct {
	engine  *Engine
	statedb *state.StateDB
	origin  common.Address
}

// NewHost creates a host over an empty in-memory state.
func NewHost(engine *Engine) (*Host, error) {
	statedb, err := state.New(types.EmptyRootHash, state.NewDatabase(rawdb.NewMemoryDatabase()), nil)
	if err != nil {
		return nil, fmt.Errorf("state init: %w", err)
	}
	return &Host{engine: engine, statedb: statedb}, nil
}

// Call runs one message to completion and reports its outcome. Every
// message is sent from the zero origin account.
func (h *Host) Call(msg Message) Outcome {
	var (
		vmenv  = vm.NewEVM(h.blockContext(), vm.TxContext{Origin: h.origin, GasPrice: new(big.Int)}, h.statedb, h.engine.chainConfig, h.engine.vmConfig)
		sender = vm.AccountRef(h.origin)
	)
	if msg.Kind == Create {
		ret, addr, gasLeft, err := vmenv.Create(sender, msg.Input, msg.Gas, new(uint256.Int))
		out := outcome(ret, gasLeft, err)
		out.CreatedAddr = addr
		return out
	}
	ret, gasLeft, err := vmenv.Call(sender, msg.To, msg.Input, msg.Gas, new(uint256.Int))
	return outcome(ret, gasLeft, err)
}

func outcome(ret []byte, gasLeft uint64, err error) Outcome {
	out := Outcome{Output: ret, GasLeft: gasLeft}
	switch {
	case err == nil:
		out.Status = Success
	case errors.Is(err, vm.ErrExecutionReverted):
		out.Status = Revert
	default:
		out.Status = Failure
	}
	return out
}

func (h *Host) blockContext() vm.BlockContext {
	return vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash: func(n uint64) common.Hash {
			return crypto.Keccak256Hash(new(big.Int).SetUint64(n).Bytes())
		},
		Coinbase:    common.Address{},
		BlockNumber: big.NewInt(1),
		Time:        1,
		Difficulty:  big.NewInt(0),
		GasLimit:    MaxGas,
		BaseFee:     big.NewInt(params.InitialBaseFee),
		BlobBaseFee: big.NewInt(params.BlobTxMinBlobGasprice),
		Random:      new(common.Hash),
	}
}
