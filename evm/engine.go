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

// Package evm executes compiled contracts on an in-memory Ethereum
// virtual machine. The chain parameters live in an Engine shared by
// the whole process, while every fuzz case runs its messages through
// its own Host holding a fresh state database.
package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
)

// Engine carries the chain and interpreter configuration common to all
// hosts. It is immutable after construction and safe for concurrent
// use by any number of hosts.
type Engine struct {
	chainConfig *params.ChainConfig
	vmConfig    vm.Config
}

// NewEngine returns an engine with every fork enabled through Cancun.
// The harness executes all programs under this one rule set.
func NewEngine() *Engine {
	return &Engine{
		chainConfig: harnessChainConfig(),
		vmConfig:    vm.Config{},
	}
}

// ChainConfig returns the chain rules the engine executes under.
func (e *Engine) ChainConfig() *params.ChainConfig {
	return e.chainConfig
}

// harnessChainConfig builds a post-merge configuration with all forks
// active from genesis.
func harnessChainConfig() *params.ChainConfig {
	var zero uint64
	return &params.ChainConfig{
		ChainID:                       big.NewInt(1),
		HomesteadBlock:                big.NewInt(0),
		EIP150Block:                   big.NewInt(0),
		EIP155Block:                   big.NewInt(0),
		EIP158Block:                   big.NewInt(0),
		ByzantiumBlock:                big.NewInt(0),
		ConstantinopleBlock:           big.NewInt(0),
		PetersburgBlock:               big.NewInt(0),
		IstanbulBlock:                 big.NewInt(0),
		MuirGlacierBlock:              big.NewInt(0),
		BerlinBlock:                   big.NewInt(0),
		LondonBlock:                   big.NewInt(0),
		ArrowGlacierBlock:             big.NewInt(0),
		GrayGlacierBlock:              big.NewInt(0),
		MergeNetsplitBlock:            big.NewInt(0),
		ShanghaiTime:                  &zero,
		CancunTime:                    &zero,
		TerminalTotalDifficulty:       big.NewInt(0),
		TerminalTotalDifficultyPassed: true,
	}
}
