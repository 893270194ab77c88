// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/truemark/skgd/fault"
)

// for database version
var (
	versionKey    = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}
	checkpointKey = []byte{0x00, 'C', 'H', 'E', 'C', 'K', 'P', 'O', 'I', 'N', 'T'}
)

const (
	currentIndexDBVersion = 0x100
	walletPrefix          = 'W'
	separator             = 0x00
)

// WalletIndex - LevelDB backed wallet → certificate index
type WalletIndex struct {
	sync.RWMutex
	log  *logger.L
	name string
	db   *leveldb.DB
}

// Open - open or create the index database
//
// returns true if the database was empty or had an incompatible
// version and was recreated, meaning it must be rebuilt
func Open(log *logger.L, name string) (*WalletIndex, bool, error) {
	if nil == log {
		return nil, false, fault.ErrInvalidLoggerChannel
	}

	db, version, err := getDB(name)
	if nil != err {
		return nil, false, err
	}

	mustReindex := false

	if version != currentIndexDBVersion {
		mustReindex = true

		if 0 != version {
			log.Criticalf("index database version: %d  current version: %d", version, currentIndexDBVersion)

			// erase the index completely
			db.Close()
			log.Criticalf("drop index database: %s", name)
			if err := os.RemoveAll(name); nil != err {
				return nil, false, err
			}
			db, _, err = getDB(name)
			if nil != err {
				return nil, false, err
			}
		}

		if err := putVersion(db, currentIndexDBVersion); nil != err {
			db.Close()
			return nil, false, err
		}
	}

	log.Infof("opened: %s  reindex: %t", name, mustReindex)

	return &WalletIndex{
		log:  log,
		name: name,
		db:   db,
	}, mustReindex, nil
}

// OpenMemory - an index held in memory, for tests and dry runs
func OpenMemory(log *logger.L) (*WalletIndex, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, err
	}
	if err := putVersion(db, currentIndexDBVersion); nil != err {
		db.Close()
		return nil, err
	}
	return &WalletIndex{
		log:  log,
		name: "memory",
		db:   db,
	}, nil
}

// Close - close the database
func (w *WalletIndex) Close() error {
	w.Lock()
	defer w.Unlock()

	if nil == w.db {
		return nil
	}
	err := w.db.Close()
	w.db = nil
	w.log.Infof("closed: %s", w.name)
	return err
}

// return:
//   database handle
//   version number
func getDB(name string) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: false,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("%w: expected length: %d  actual: %d", fault.ErrIncompatibleIndexVersion, 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}
