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

// Package compiler drives the solc binary through its standard JSON
// interface and reduces each compilation to the artifact the harness
// needs: deployable bytecode plus the method selector table.
package compiler

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// sourceUnit is the key of the anonymous source unit every request
// carries. Fully qualified contract names degrade to the ":C" form.
const sourceUnit = ""

var versionRegexp = regexp.MustCompile(`[0-9]+\.[0-9]+\.[0-9]+`)

// Artifact bundles the outputs of one contract compilation. An empty
// artifact (no bytecode) marks a failed or degenerate compile the
// caller should skip without raising anything.
type Artifact struct {
	Bytecode        []byte
	MethodSelectors map[string]string // canonical signature -> hex selector
	ABI             json.RawMessage
}

// Empty reports whether the compilation produced no deployable code.
func (a *Artifact) Empty() bool {
	return len(a.Bytecode) == 0
}

// Backend is the compile call behind the framework, split out so
// decorators can wrap it.
type Backend interface {
	Compile(source, contractName string, libraries map[string]common.Address, settings Settings) (*Artifact, error)
}

// Solidity drives one resolved solc binary.
type Solidity struct {
	path        string
	version     string
	fullVersion string
}

// New resolves and probes a solc binary. An empty path falls back to
// "solc" on $PATH.
func New(path string) (*Solidity, error) {
	if path == "" {
		path = "solc"
	}
	path, err := exec.LookPath(path)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	cmd := exec.Command(path, "--version")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("solc version probe: %w", err)
	}
	s := &Solidity{
		path:        path,
		version:     versionRegexp.FindString(out.String()),
		fullVersion: strings.TrimSpace(out.String()),
	}
	log.Debug("Resolved Solidity compiler", "path", s.path, "version", s.version)
	return s, nil
}

// Version returns the semantic version of the resolved binary.
func (s *Solidity) Version() string {
	return s.version
}

// Path returns the resolved location of the binary.
func (s *Solidity) Path() string {
	return s.path
}

// Compile runs source through solc and extracts the named contract.
//
// Compiler rejections are expected events, not errors: generated
// programs are malformed all the time. They come back as an empty
// artifact, with the diagnostics echoed to stderr. The one exception
// is the stack depth limit, which is absorbed silently. A non-nil
// error means the harness could not talk to solc at all.
//
// contractName accepts a plain name, the ":C" qualified form, or the
// empty string to select the last contract declared in the source.
func (s *Solidity) Compile(source, contractName string, libraries map[string]common.Address, settings Settings) (*Artifact, error) {
	in, err := json.Marshal(buildInput(source, libraries, settings.withDefaults()))
	if err != nil {
		return nil, fmt.Errorf("encode solc input: %w", err)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(s.path, "--standard-json")
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("solc: %v\n%s", err, stderr.Bytes())
	}
	return parseOutput(stdout.Bytes(), source, contractName)
}

// parseOutput interprets a standard JSON reply and selects one
// contract out of it.
func parseOutput(data []byte, source, contractName string) (*Artifact, error) {
	var out jsonOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode solc output: %w", err)
	}
	if failed, quiet := compileFailed(out.Errors); failed {
		if !quiet {
			for _, d := range out.Errors {
				fmt.Fprintln(os.Stderr, d.Formatted)
			}
			fmt.Fprintln(os.Stderr, "Compiling contract failed")
		}
		return &Artifact{}, nil
	}
	unit, name := splitContractName(contractName)
	if name == "" {
		name = lastContractName(source, out.Contracts[unit])
	}
	contract, ok := out.Contracts[unit][name]
	if !ok {
		return nil, fmt.Errorf("contract %q missing from solc output", contractName)
	}
	object := contract.EVM.Bytecode.Object
	if strings.Contains(object, "__$") {
		// solc leaves placeholders for addresses it was not given.
		// Letting those through would deploy garbage, so a dangling
		// reference counts as a failed compile.
		fmt.Fprintf(os.Stderr, "unresolved library reference in %s\n", name)
		fmt.Fprintln(os.Stderr, "Compiling contract failed")
		return &Artifact{}, nil
	}
	code, err := hex.DecodeString(object)
	if err != nil {
		return nil, fmt.Errorf("decode bytecode of %s: %w", name, err)
	}
	selectors := contract.EVM.MethodIdentifiers
	if len(selectors) == 0 && len(contract.ABI) > 0 {
		if selectors, err = selectorsFromABI(contract.ABI); err != nil {
			return nil, err
		}
	}
	return &Artifact{Bytecode: code, MethodSelectors: selectors, ABI: contract.ABI}, nil
}

// compileFailed reports whether the errors array contains hard errors,
// and whether the failure is the silent kind: nothing but stack depth
// limits.
func compileFailed(diags []Diagnostic) (failed, quiet bool) {
	quiet = true
	for _, d := range diags {
		if d.Severity != "error" {
			continue
		}
		failed = true
		if !stackTooDeep(d) {
			quiet = false
		}
	}
	return failed, failed && quiet
}

func stackTooDeep(d Diagnostic) bool {
	return strings.Contains(d.Message, "Stack too deep") || strings.Contains(d.Formatted, "Stack too deep")
}

func splitContractName(name string) (unit, contract string) {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return sourceUnit, name
}

var declRegexp = regexp.MustCompile(`\b(?:abstract\s+)?(?:contract|library|interface)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)

// lastContractName returns the name of the last contract or library
// declared in source that solc produced output for. The output maps
// are unordered, so declaration order has to come from the text.
func lastContractName(source string, compiled map[string]jsonContract) string {
	var last string
	for _, m := range declRegexp.FindAllStringSubmatch(source, -1) {
		if _, ok := compiled[m[1]]; ok {
			last = m[1]
		}
	}
	return last
}

// selectorsFromABI recomputes the method identifier table from the ABI
// for solc versions that omit it.
func selectorsFromABI(raw json.RawMessage) (map[string]string, error) {
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}
	selectors := make(map[string]string, len(parsed.Methods))
	for _, m := range parsed.Methods {
		selectors[m.Sig] = hex.EncodeToString(m.ID)
	}
	return selectors, nil
}
