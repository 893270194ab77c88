// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package graph

import (
	"sort"
	"sync"
)

// WalletIndex - secondary index from wallet address to certificate ids
//
// implementations must return ids sorted and without duplicates
type WalletIndex interface {
	Add(wallet string, certificateID string) error
	Certificates(wallet string) ([]string, error)
	Checkpoint() (string, error)
	SetCheckpoint(transactionID string) error
	Reset() error
}

// MemoryIndex - a WalletIndex that lives only as long as the process
type MemoryIndex struct {
	sync.RWMutex
	wallets    map[string]map[string]struct{}
	checkpoint string
}

// NewMemoryIndex - create an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		wallets: make(map[string]map[string]struct{}),
	}
}

// Add - record that a wallet owns a certificate
func (m *MemoryIndex) Add(wallet string, certificateID string) error {
	m.Lock()
	defer m.Unlock()

	ids, ok := m.wallets[wallet]
	if !ok {
		ids = make(map[string]struct{})
		m.wallets[wallet] = ids
	}
	ids[certificateID] = struct{}{}
	return nil
}

// Certificates - ids owned by a wallet
func (m *MemoryIndex) Certificates(wallet string) ([]string, error) {
	m.RLock()
	defer m.RUnlock()

	ids := m.wallets[wallet]
	result := make([]string, 0, len(ids))
	for id := range ids {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}

// Checkpoint - the last transaction reflected in the index
func (m *MemoryIndex) Checkpoint() (string, error) {
	m.RLock()
	defer m.RUnlock()
	return m.checkpoint, nil
}

// SetCheckpoint - record the last transaction reflected in the index
func (m *MemoryIndex) SetCheckpoint(transactionID string) error {
	m.Lock()
	m.checkpoint = transactionID
	m.Unlock()
	return nil
}

// Reset - discard everything
func (m *MemoryIndex) Reset() error {
	m.Lock()
	m.wallets = make(map[string]map[string]struct{})
	m.checkpoint = ""
	m.Unlock()
	return nil
}
