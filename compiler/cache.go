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

package compiler

import (
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
)

// Cached memoizes compilations, keyed by a digest of the full request.
// Corpus replays hit the same inputs over and over; solc does not.
type Cached struct {
	backend Backend
	cache   *lru.Cache
}

// NewCached wraps backend with an LRU of the given size.
func NewCached(backend Backend, size int) (*Cached, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cached{backend: backend, cache: cache}, nil
}

// Compile returns the memoized artifact when the identical request was
// seen before. Artifacts are immutable, so callers share the cached
// pointer.
func (c *Cached) Compile(source, contractName string, libraries map[string]common.Address, settings Settings) (*Artifact, error) {
	key := cacheKey(source, contractName, libraries, settings)
	if hit, ok := c.cache.Get(key); ok {
		return hit.(*Artifact), nil
	}
	art, err := c.backend.Compile(source, contractName, libraries, settings)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, art)
	return art, nil
}

func cacheKey(source, contractName string, libraries map[string]common.Address, settings Settings) [32]byte {
	h := sha3.New256()
	io.WriteString(h, source)
	h.Write([]byte{0})
	io.WriteString(h, contractName)
	h.Write([]byte{0})
	names := make([]string, 0, len(libraries))
	for name := range libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		io.WriteString(h, name)
		h.Write(libraries[name].Bytes())
	}
	h.Write([]byte{0})
	io.WriteString(h, settings.id())

	var key [32]byte
	h.Sum(key[:0])
	return key
}
