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

import "fmt"

// DefaultEVMVersion is the ruleset requested from solc when a settings
// value leaves the version empty.
const DefaultEVMVersion = "cancun"

// Settings selects the optimization profile and target VM version for
// one compilation.
type Settings struct {
	EVMVersion string
	Optimize   bool
	Runs       uint
}

// MinimalSettings is the profile fuzzing runs under: optimizer
// disabled, default VM version.
func MinimalSettings() Settings {
	return Settings{EVMVersion: DefaultEVMVersion}
}

// StandardSettings enables the optimizer with the conventional run
// count. Replay tooling uses it to cross-check findings against
// optimized code.
func StandardSettings() Settings {
	return Settings{EVMVersion: DefaultEVMVersion, Optimize: true, Runs: 200}
}

func (s Settings) withDefaults() Settings {
	if s.EVMVersion == "" {
		s.EVMVersion = DefaultEVMVersion
	}
	return s
}

// id returns a stable textual form of the settings for cache keying.
func (s Settings) id() string {
	return fmt.Sprintf("%s/%t/%d", s.EVMVersion, s.Optimize, s.Runs)
}
