// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/truemark/skgd/fault"
)

func walletKey(wallet string) []byte {
	key := make([]byte, 0, len(wallet)+2)
	key = append(key, walletPrefix)
	key = append(key, wallet...)
	return append(key, separator)
}

// Add - record that a wallet owns a certificate
func (w *WalletIndex) Add(wallet string, certificateID string) error {
	w.RLock()
	defer w.RUnlock()

	if nil == w.db {
		return fault.ErrNotInitialised
	}
	key := append(walletKey(wallet), certificateID...)
	return w.db.Put(key, []byte{}, nil)
}

// Certificates - ids owned by a wallet, in key order
func (w *WalletIndex) Certificates(wallet string) ([]string, error) {
	w.RLock()
	defer w.RUnlock()

	if nil == w.db {
		return nil, fault.ErrNotInitialised
	}

	prefix := walletKey(wallet)
	iter := w.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	result := make([]string, 0, 16)
	for iter.Next() {
		result = append(result, string(iter.Key()[len(prefix):]))
	}
	return result, iter.Error()
}

// Checkpoint - the last transaction reflected in the index
func (w *WalletIndex) Checkpoint() (string, error) {
	w.RLock()
	defer w.RUnlock()

	if nil == w.db {
		return "", fault.ErrNotInitialised
	}
	value, err := w.db.Get(checkpointKey, nil)
	if leveldb.ErrNotFound == err {
		return "", nil
	}
	return string(value), err
}

// SetCheckpoint - record the last transaction reflected in the index
func (w *WalletIndex) SetCheckpoint(transactionID string) error {
	w.RLock()
	defer w.RUnlock()

	if nil == w.db {
		return fault.ErrNotInitialised
	}
	return w.db.Put(checkpointKey, []byte(transactionID), nil)
}

// Reset - delete all ownership entries and the checkpoint
func (w *WalletIndex) Reset() error {
	w.Lock()
	defer w.Unlock()

	if nil == w.db {
		return fault.ErrNotInitialised
	}

	batch := new(leveldb.Batch)
	iter := w.db.NewIterator(util.BytesPrefix([]byte{walletPrefix}), nil)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return err
	}
	batch.Delete(checkpointKey)

	w.log.Infof("reset: %s  delete: %d", w.name, batch.Len())
	return w.db.Write(batch, nil)
}
