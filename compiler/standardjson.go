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

package compiler

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// The solc --standard-json wire format. Only the slice of the schema
// the harness consumes is modeled.

type jsonInput struct {
	Language string                `json:"language"`
	Sources  map[string]jsonSource `json:"sources"`
	Settings jsonSettings          `json:"settings"`
}

type jsonSource struct {
	Content string `json:"content"`
}

type jsonSettings struct {
	EVMVersion      string                         `json:"evmVersion,omitempty"`
	Optimizer       jsonOptimizer                  `json:"optimizer"`
	Libraries       map[string]map[string]string   `json:"libraries,omitempty"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type jsonOptimizer struct {
	Enabled bool `json:"enabled"`
	Runs    uint `json:"runs"`
}

type jsonOutput struct {
	Errors    []Diagnostic                       `json:"errors"`
	Contracts map[string]map[string]jsonContract `json:"contracts"`
}

// Diagnostic is one entry of the solc errors array.
type Diagnostic struct {
	Type      string `json:"type"`
	Component string `json:"component"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Formatted string `json:"formattedMessage"`
}

type jsonContract struct {
	ABI json.RawMessage `json:"abi"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object"`
		} `json:"bytecode"`
		MethodIdentifiers map[string]string `json:"methodIdentifiers"`
	} `json:"evm"`
}

// buildInput assembles one compilation request: a single anonymous
// source unit, the requested optimizer profile and the addresses of
// any predeployed libraries the output should be linked against.
func buildInput(source string, libraries map[string]common.Address, settings Settings) *jsonInput {
	in := &jsonInput{
		Language: "Solidity",
		Sources:  map[string]jsonSource{sourceUnit: {Content: source}},
		Settings: jsonSettings{
			EVMVersion: settings.EVMVersion,
			Optimizer:  jsonOptimizer{Enabled: settings.Optimize, Runs: settings.Runs},
			OutputSelection: map[string]map[string][]string{
				"*": {"*": {"abi", "evm.bytecode.object", "evm.methodIdentifiers"}},
			},
		},
	}
	if len(libraries) > 0 {
		addrs := make(map[string]string, len(libraries))
		for name, addr := range libraries {
			addrs[name] = addr.Hex()
		}
		in.Settings.Libraries = map[string]map[string]string{sourceUnit: addrs}
	}
	return in
}
