// Copyright 2026 The solfuzz Authors
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

// Package solgen maps raw fuzzer bytes onto deterministic Solidity
// programs. Each program declares a contract C whose test() method
// runs an input-derived arithmetic chain on the VM and subtracts the
// same chain folded ahead of time by the generator. On a correct
// compiler and VM the method returns zero, so any nonzero answer
// convicts the pipeline, not the program.
package solgen

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Names the generated declarations answer to.
const (
	ContractName = "C"
	LibraryName  = "L"
)

// maxOps caps the chain length so a large input cannot balloon the
// program.
const maxOps = 24

var opTable = []string{"+", "-", "*", "&", "|", "^", "<<"}

type op struct {
	symbol  string
	operand uint64
}

// Generator converts one input at a time. The zero value is ready to
// use; Source must run before the library accessors mean anything.
type Generator struct {
	library bool
}

// LibraryTest reports whether the last generated program routes the
// computation through an externally linked library.
func (g *Generator) LibraryTest() bool {
	return g.library
}

// LibraryName returns the name of the generated library.
func (g *Generator) LibraryName() string {
	return LibraryName
}

// Source renders data into a Solidity program. The mapping is pure:
// identical inputs yield identical programs.
//
// Layout of the input: byte 0 picks the program shape (odd selects the
// library variant), the next 8 bytes seed the accumulator, and every
// following 9 byte record appends one operation to the chain.
func (g *Generator) Source(data []byte) string {
	g.library = len(data) > 0 && data[0]&1 == 1
	if len(data) > 0 {
		data = data[1:]
	}
	var seed uint64
	if len(data) > 0 {
		var buf [8]byte
		n := copy(buf[:], data)
		seed = binary.LittleEndian.Uint64(buf[:])
		data = data[n:]
	}
	ops := parseOps(data)
	expected := evaluate(seed, ops)
	if g.library {
		return renderLibrary(seed, ops, expected)
	}
	return renderContract(seed, ops, expected)
}

func parseOps(data []byte) []op {
	var ops []op
	for len(data) > 0 && len(ops) < maxOps {
		symbol := opTable[int(data[0])%len(opTable)]
		data = data[1:]

		var buf [8]byte
		n := copy(buf[:], data)
		data = data[n:]
		operand := binary.LittleEndian.Uint64(buf[:])
		if symbol == "<<" {
			// Shift amounts beyond the word width zero the value in
			// Solidity; keep the literal inside it so the chain stays
			// information preserving.
			operand %= 256
		}
		ops = append(ops, op{symbol: symbol, operand: operand})
	}
	return ops
}

// evaluate folds the chain with the exact wrapping semantics of
// unchecked uint256 arithmetic.
func evaluate(seed uint64, ops []op) *uint256.Int {
	v := uint256.NewInt(seed)
	c := new(uint256.Int)
	for _, o := range ops {
		c.SetUint64(o.operand)
		switch o.symbol {
		case "+":
			v.Add(v, c)
		case "-":
			v.Sub(v, c)
		case "*":
			v.Mul(v, c)
		case "&":
			v.And(v, c)
		case "|":
			v.Or(v, c)
		case "^":
			v.Xor(v, c)
		case "<<":
			v.Lsh(v, uint(o.operand))
		}
	}
	return v
}

const sourceHeader = "// SPDX-License-Identifier: GPL-3.0\npragma solidity >=0.8.0;\n\n"

func renderChain(b *strings.Builder, seed uint64, ops []op, indent string) {
	fmt.Fprintf(b, "%sunchecked {\n", indent)
	fmt.Fprintf(b, "%s    v = 0x%x;\n", indent, seed)
	for _, o := range ops {
		fmt.Fprintf(b, "%s    v = v %s 0x%x;\n", indent, o.symbol, o.operand)
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

func renderContract(seed uint64, ops []op, expected *uint256.Int) string {
	var b strings.Builder
	b.WriteString(sourceHeader)
	b.WriteString("contract " + ContractName + " {\n")
	b.WriteString("    function calc() internal pure returns (uint256 v) {\n")
	renderChain(&b, seed, ops, "        ")
	b.WriteString("    }\n\n")
	b.WriteString("    function test() public pure returns (uint256) {\n")
	b.WriteString("        unchecked {\n")
	fmt.Fprintf(&b, "            return calc() - %s;\n", expected.Hex())
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

func renderLibrary(seed uint64, ops []op, expected *uint256.Int) string {
	var b strings.Builder
	b.WriteString(sourceHeader)
	b.WriteString("library " + LibraryName + " {\n")
	b.WriteString("    function calc() public pure returns (uint256 v) {\n")
	renderChain(&b, seed, ops, "        ")
	b.WriteString("    }\n")
	b.WriteString("}\n\n")
	b.WriteString("contract " + ContractName + " {\n")
	b.WriteString("    function test() public view returns (uint256) {\n")
	b.WriteString("        unchecked {\n")
	fmt.Fprintf(&b, "            return %s.calc() - %s;\n", LibraryName, expected.Hex())
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}
