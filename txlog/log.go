// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/sys/unix"

	"github.com/truemark/skgd/counter"
	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/fault"
)

// stream file names
const (
	TransactionsFile = "transactions.jsonl"
	NodesFile        = "nodes.jsonl"
	EdgesFile        = "edges.jsonl"
	LockFile         = "writer.lock"
)

const transactionPrefix = "SKG_TXN_"

// the subset of *os.File the writer needs
type file interface {
	io.Writer
	Sync() error
	Close() error
}

type openFunc func(name string, flag int, perm os.FileMode) (file, error)

func osOpen(name string, flag int, perm os.FileMode) (file, error) {
	return os.OpenFile(name, flag, perm)
}

// Log - the transaction log of a single worker
type Log struct {
	sync.Mutex

	log          *logger.L
	directory    string
	workerID     string
	flushTimeout time.Duration

	sequence counter.Counter
	lastID   string
	poisoned bool

	// held exclusively while the log is open
	lockFile *os.File

	open openFunc
	now  func() time.Time
}

// Open - open the log in a worker directory, creating it if necessary
//
// only one Log may be open on a directory at a time. A torn final line
// left by a crash is cut off so that later appends start on a fresh
// line. The id sequence is seeded from the existing header count so
// that ids stay unique across restarts
func Open(log *logger.L, directory string, workerID string, flushTimeout time.Duration) (*Log, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if "" == workerID {
		return nil, fault.ErrEmptyWorkerID
	}
	if strings.ContainsAny(workerID, "/\\ \t\r\n") {
		return nil, fault.ErrInvalidWorkerID
	}
	if flushTimeout < 0 {
		return nil, fault.ErrInvalidDuration
	}

	err := os.MkdirAll(directory, 0700)
	if nil != err {
		return nil, err
	}

	lockFile, err := lock(directory)
	if nil != err {
		return nil, err
	}

	l := &Log{
		log:          log,
		directory:    directory,
		workerID:     workerID,
		flushTimeout: flushTimeout,
		lockFile:     lockFile,
		open:         osOpen,
		now:          time.Now,
	}

	for _, name := range []string{TransactionsFile, NodesFile, EdgesFile} {
		if err := l.repair(name); nil != err {
			_ = l.unlock()
			return nil, err
		}
	}

	headers, err := l.headers()
	if nil != err {
		_ = l.unlock()
		return nil, err
	}
	l.sequence.Set(uint64(len(headers)))
	if len(headers) > 0 {
		l.lastID = headers[len(headers)-1].ID
	}

	log.Infof("opened: %s  worker: %s  transactions: %d", directory, workerID, len(headers))
	return l, nil
}

// Close - release the directory, later appends fail
func (l *Log) Close() error {
	l.Lock()
	defer l.Unlock()
	return l.unlock()
}

// take the writer lock of a directory without waiting
func lock(directory string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(directory, LockFile), os.O_RDWR|os.O_CREATE, 0600)
	if nil != err {
		return nil, err
	}
	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if unix.EWOULDBLOCK == err {
		_ = f.Close()
		return nil, fault.ErrLogLocked
	}
	if nil != err {
		_ = f.Close()
		return nil, err
	}
	if err := f.Truncate(0); nil == err {
		_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	}
	return f, nil
}

func (l *Log) unlock() error {
	if nil == l.lockFile {
		return nil
	}
	err := l.lockFile.Close()
	l.lockFile = nil
	return err
}

const repairChunk = 64 * 1024

// cut a stream back to the end of its last complete line
func (l *Log) repair(name string) error {
	fileName := filepath.Join(l.directory, name)
	f, err := os.Open(fileName)
	if os.IsNotExist(err) {
		return nil
	}
	if nil != err {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if nil != err {
		return err
	}

	// search backwards for the last newline
	end := info.Size()
	size := int64(0)
	buffer := make([]byte, repairChunk)

	for offset := end; offset > 0; {
		n := int64(repairChunk)
		if offset < n {
			n = offset
		}
		offset -= n
		if _, err := f.ReadAt(buffer[:n], offset); nil != err && io.EOF != err {
			return err
		}
		if i := bytes.LastIndexByte(buffer[:n], '\n'); i >= 0 {
			size = offset + int64(i) + 1
			break
		}
	}
	if size == end {
		return nil
	}

	l.log.Warnf("repair: %s  discard torn final line: %d bytes", name, end-size)
	return os.Truncate(fileName, size)
}

// Directory - where the streams live
func (l *Log) Directory() string {
	return l.directory
}

// WorkerID - the worker that owns this log
func (l *Log) WorkerID() string {
	return l.workerID
}

// LastTransactionID - id of the newest header, blank for an empty log
func (l *Log) LastTransactionID() string {
	l.Lock()
	defer l.Unlock()
	return l.lastID
}

// Append - durably write one transaction
//
// on any error nothing of the transaction remains in the log and the
// caller must not apply the batch to its in-memory state
func (l *Log) Append(eventType string, nodes []*entity.Node, edges []*entity.Edge) (string, error) {
	l.Lock()
	defer l.Unlock()

	if nil == l.lockFile {
		return "", fault.ErrLogClosed
	}
	if l.poisoned {
		return "", fault.ErrLogPoisoned
	}

	now := l.now().UTC()
	transactionID := fmt.Sprintf("%s%s_%d_%d", transactionPrefix, l.workerID, now.UnixNano()/int64(time.Microsecond), l.sequence.Increment())

	header := entity.Transaction{
		ID:        transactionID,
		EventType: eventType,
		Timestamp: now.Format(entity.TimeFormat),
		WorkerID:  l.workerID,
		NodeCount: len(nodes),
		EdgeCount: len(edges),
	}

	batch, err := encode(transactionID, header, nodes, edges)
	if nil != err {
		return "", err
	}

	sizes, err := l.sizes()
	if nil != err {
		return "", err
	}

	done := make(chan error, 1)
	go func() {
		done <- l.write(batch)
	}()

	if l.flushTimeout > 0 {
		timer := time.NewTimer(l.flushTimeout)
		defer timer.Stop()

		select {
		case err = <-done:
		case <-timer.C:
			// the write may still land, so nothing can safely follow it
			l.poisoned = true
			l.log.Criticalf("append: %s  exceeded flush timeout: %s", transactionID, l.flushTimeout)
			return "", fault.ErrFlushTimeout
		}
	} else {
		err = <-done
	}

	if nil != err {
		l.log.Errorf("append: %s  error: %s", transactionID, err)
		if rerr := l.rollback(sizes); nil != rerr {
			l.log.Criticalf("rollback: %s  error: %s", transactionID, rerr)
			l.poisoned = true
		}
		return "", err
	}

	l.lastID = transactionID
	l.log.Debugf("append: %s  event: %s  nodes: %d  edges: %d", transactionID, eventType, len(nodes), len(edges))
	return transactionID, nil
}

// encoded lines for each stream in write order
type batch [3]streamData

type streamData struct {
	name string
	data []byte
}

func encode(transactionID string, header entity.Transaction, nodes []*entity.Node, edges []*entity.Edge) (batch, error) {
	var b batch

	h, err := json.Marshal(header)
	if nil != err {
		return b, err
	}
	b[0] = streamData{name: TransactionsFile, data: append(h, '\n')}

	buffer := &bytes.Buffer{}
	enc := json.NewEncoder(buffer)
	for _, n := range nodes {
		if err := enc.Encode(n.ToRecord(transactionID)); nil != err {
			return b, err
		}
	}
	b[1] = streamData{name: NodesFile, data: buffer.Bytes()}

	buffer = &bytes.Buffer{}
	enc = json.NewEncoder(buffer)
	for _, e := range edges {
		if err := enc.Encode(e.ToRecord(transactionID)); nil != err {
			return b, err
		}
	}
	b[2] = streamData{name: EdgesFile, data: buffer.Bytes()}

	return b, nil
}

func (l *Log) write(b batch) error {
	for _, s := range b {
		if 0 == len(s.data) {
			continue
		}
		if err := l.appendFile(s.name, s.data); nil != err {
			return err
		}
	}
	return nil
}

func (l *Log) appendFile(name string, data []byte) error {
	f, err := l.open(filepath.Join(l.directory, name), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if nil != err {
		return err
	}
	_, err = f.Write(data)
	if nil == err {
		err = f.Sync()
	}
	if cerr := f.Close(); nil == err {
		err = cerr
	}
	return err
}

// current size of each stream, missing files are empty
func (l *Log) sizes() (map[string]int64, error) {
	s := make(map[string]int64, 3)
	for _, name := range []string{TransactionsFile, NodesFile, EdgesFile} {
		info, err := os.Stat(filepath.Join(l.directory, name))
		if os.IsNotExist(err) {
			s[name] = 0
			continue
		}
		if nil != err {
			return nil, err
		}
		s[name] = info.Size()
	}
	return s, nil
}

func (l *Log) rollback(sizes map[string]int64) error {
	var first error
	for name, size := range sizes {
		err := os.Truncate(filepath.Join(l.directory, name), size)
		if nil != err && !os.IsNotExist(err) && nil == first {
			first = err
		}
	}
	return first
}
