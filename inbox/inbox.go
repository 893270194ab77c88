// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package inbox - ingest certificate files dropped into a directory
//
// writers should create the file under another name and rename it
// to *.json so that a half written file is never picked up
package inbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"

	"github.com/truemark/skgd/counter"
	"github.com/truemark/skgd/engine"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/limitedset"
)

// sub-directories for processed files
const (
	DoneDirectory   = "done"
	FailedDirectory = "failed"
	extension       = ".json"
	errorExtension  = ".error"

	// delivered submissions remembered for duplicate suppression
	recentSubmissions = 1000
)

// Configuration - a block of configuration data
type Configuration struct {
	Directory string `gluamapper:"directory" json:"directory"`
}

// Ingester - something that accepts certificates
type Ingester interface {
	Ingest(payload *engine.Payload, vaultTransactionID string) (*engine.Result, error)
}

// Submission - the content of one dropped file
type Submission struct {
	VaultTransactionID string          `json:"vault_transaction_id"`
	Certificate        *engine.Payload `json:"certificate"`
}

// Inbox - a watched drop directory
type Inbox struct {
	log       *logger.L
	directory string
	ingester  Ingester
	watcher   *fsnotify.Watcher

	recent *limitedset.LimitedSet

	ingested   counter.Counter
	failed     counter.Counter
	duplicates counter.Counter
}

// New - prepare the directory and start watching it
func New(log *logger.L, directory string, ingester Ingester) (*Inbox, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if "" == directory || nil == ingester {
		return nil, fault.ErrMissingParameters
	}

	for _, d := range []string{directory, filepath.Join(directory, DoneDirectory), filepath.Join(directory, FailedDirectory)} {
		if err := os.MkdirAll(d, 0700); nil != err {
			log.Errorf("create directory: %q  error: %s", d, err)
			return nil, err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		log.Errorf("new watcher error: %s", err)
		return nil, err
	}
	if err := watcher.Add(directory); nil != err {
		log.Errorf("watch: %q  error: %s", directory, err)
		watcher.Close()
		return nil, err
	}

	log.Infof("watching: %q", directory)

	return &Inbox{
		log:       log,
		directory: directory,
		ingester:  ingester,
		watcher:   watcher,
		recent:    limitedset.New(recentSubmissions),
	}, nil
}

// Run - process files already present then every new arrival
func (in *Inbox) Run(args interface{}, shutdown <-chan struct{}) {
	log := in.log

	log.Info("starting…")
	in.Scan()

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-in.watcher.Events:
			if !ok {
				break loop
			}
			if !arrived(event) || !isCandidate(event.Name) {
				continue
			}
			log.Debugf("file event: %s", event)
			in.process(event.Name)

		case err, ok := <-in.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watcher error: %s", err)
		}
	}

	in.watcher.Close()
	log.Infof("stopped  ingested: %d  failed: %d  duplicates: %d", in.ingested.Uint64(), in.failed.Uint64(), in.duplicates.Uint64())
}

// Scan - process every waiting file in name order
func (in *Inbox) Scan() {
	infos, err := ioutil.ReadDir(in.directory)
	if nil != err {
		in.log.Errorf("read directory: %q  error: %s", in.directory, err)
		return
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Mode().IsRegular() && isCandidate(info.Name()) {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		in.process(filepath.Join(in.directory, name))
	}
}

// Ingested - number of files ingested
func (in *Inbox) Ingested() uint64 {
	return in.ingested.Uint64()
}

// Failed - number of files moved to failed
func (in *Inbox) Failed() uint64 {
	return in.failed.Uint64()
}

// Duplicates - number of repeated deliveries moved to done without ingesting
func (in *Inbox) Duplicates() uint64 {
	return in.duplicates.Uint64()
}

func (in *Inbox) process(path string) {
	log := in.log

	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		// already handled by an earlier event
		return
	}
	if nil != err {
		log.Errorf("read: %q  error: %s", path, err)
		return
	}

	submission, err := Decode(data)
	if nil != err {
		in.reject(path, err)
		return
	}

	// the same vault transaction for the same serial is one delivery
	key := ""
	if "" != submission.VaultTransactionID {
		key = submission.VaultTransactionID + "|" + submission.Certificate.DALSSerial
		if in.recent.Exists(key) {
			log.Warnf("%q  duplicate of vault transaction: %q", filepath.Base(path), submission.VaultTransactionID)
			in.duplicates.Increment()
			in.move(path, DoneDirectory)
			return
		}
	}

	result, err := in.ingester.Ingest(submission.Certificate, submission.VaultTransactionID)
	if fault.ErrNotAcceptingIngestion == err {
		log.Warnf("%q  left in place: %s", path, err)
		return
	}
	if nil != err {
		in.reject(path, err)
		return
	}

	log.Infof("%q  transaction: %s  drift: %.3f", filepath.Base(path), result.TransactionID, result.DriftScore)
	in.ingested.Increment()
	if "" != key {
		in.recent.Add(key)
	}
	in.move(path, DoneDirectory)
}

// move to failed with the reason alongside
func (in *Inbox) reject(path string, reason error) {
	in.log.Errorf("%q  rejected: %s", path, reason)
	in.failed.Increment()
	if target := in.move(path, FailedDirectory); "" != target {
		if err := ioutil.WriteFile(target+errorExtension, []byte(reason.Error()+"\n"), 0600); nil != err {
			in.log.Errorf("write reason: %q  error: %s", target, err)
		}
	}
}

func (in *Inbox) move(path string, subdirectory string) string {
	target := filepath.Join(in.directory, subdirectory, filepath.Base(path))
	if err := os.Rename(path, target); nil != err {
		in.log.Errorf("move: %q to: %q  error: %s", path, target, err)
		return ""
	}
	return target
}

// Decode - parse a dropped file, unknown fields are rejected
func Decode(data []byte) (*Submission, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var s Submission
	if err := decoder.Decode(&s); nil != err {
		return nil, fmt.Errorf("%w: %s", fault.ErrInvalidPayload, err)
	}
	if nil == s.Certificate {
		return nil, fmt.Errorf("%w: no certificate", fault.ErrInvalidPayload)
	}
	return &s, nil
}

func arrived(event fsnotify.Event) bool {
	return event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Write == fsnotify.Write
}

func isCandidate(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, extension) && !strings.HasPrefix(base, ".")
}
