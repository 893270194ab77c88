// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txlog_test

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/fixtures"
	"github.com/truemark/skgd/txlog"
)

var created = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func setupLog(t *testing.T) (*txlog.Log, func()) {
	fixtures.SetupTestLogger()
	dir, remove := fixtures.TempDir("txlog")

	l, err := txlog.Open(logger.New(fixtures.LogCategory), dir, "worker-1", 0)
	if nil != err {
		t.Fatalf("open error: %s", err)
	}
	return l, func() {
		_ = l.Close()
		remove()
		fixtures.TeardownTestLogger()
	}
}

func batch(t *testing.T, serial string) ([]*entity.Node, []*entity.Edge) {
	cert, err := entity.NewNode(entity.CertificateID(serial), entity.Certificate, entity.Properties{
		entity.KeySerial:       serial,
		entity.KeyContentHash:  fixtures.ContentHash,
		entity.KeyMintedAt:     fixtures.MintedAt,
		entity.KeySignature:    fixtures.Signature,
		entity.KeyVerifyingKey: fixtures.VerifyingKey,
	}, "worker-1", created)
	assert.Nil(t, err, "certificate error")

	owner, err := entity.NewNode(entity.IdentityID(fixtures.Wallet), entity.Identity, entity.Properties{
		entity.KeyWallet:    fixtures.Wallet,
		entity.KeyOwnerName: fixtures.OwnerName,
	}, "worker-1", created)
	assert.Nil(t, err, "identity error")

	edge, err := entity.NewEdge("edge:"+serial, entity.OwnedBy, cert.ID, owner.ID, nil, entity.DefaultConfidence, created)
	assert.Nil(t, err, "edge error")

	return []*entity.Node{cert, owner}, []*entity.Edge{edge}
}

func TestOpenValidation(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("txlog")
	defer remove()

	log := logger.New(fixtures.LogCategory)

	_, err := txlog.Open(log, dir, "", 0)
	assert.Equal(t, fault.ErrEmptyWorkerID, err, "wrong error")

	_, err = txlog.Open(log, dir, "a/b", 0)
	assert.Equal(t, fault.ErrInvalidWorkerID, err, "wrong error")

	_, err = txlog.Open(log, dir, "w", -time.Second)
	assert.Equal(t, fault.ErrInvalidDuration, err, "wrong error")

	_, err = txlog.Open(nil, dir, "w", 0)
	assert.Equal(t, fault.ErrInvalidLoggerChannel, err, "wrong error")
}

func TestAppendAndReplay(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	nodes, edges := batch(t, "S1")
	id, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")
	assert.True(t, strings.HasPrefix(id, "SKG_TXN_worker-1_"), "wrong id: %s", id)
	assert.Equal(t, id, l.LastTransactionID(), "wrong last id")

	r, err := l.Replay()
	assert.Nil(t, err, "replay error")
	assert.Equal(t, 1, r.Committed, "wrong committed")
	assert.Equal(t, 0, r.Skipped, "wrong skipped")
	assert.Equal(t, 2, len(r.Nodes), "wrong node count")
	assert.Equal(t, 1, len(r.Edges), "wrong edge count")
	assert.True(t, nodes[0].Equal(r.Nodes[nodes[0].ID]), "certificate differs after replay")
	assert.True(t, edges[0].Equal(r.Edges[edges[0].ID]), "edge differs after replay")

	again, err := l.Replay()
	assert.Nil(t, err, "second replay error")
	assert.Equal(t, r, again, "replay is not idempotent")
}

func TestHighestVersionWins(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	nodes, edges := batch(t, "S1")
	_, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")

	p := nodes[0].Properties.Clone()
	p[entity.KeyDriftScore] = 0.25
	scored, err := nodes[0].Successor(p, "worker-1")
	assert.Nil(t, err, "successor error")

	_, err = l.Append("DRIFT_SCORED", []*entity.Node{scored}, nil)
	assert.Nil(t, err, "append error")

	// an older version logged later does not replace the newer one
	_, err = l.Append("CERTIFICATE_INGESTION", nodes[:1], nil)
	assert.Nil(t, err, "append error")

	r, err := l.Replay()
	assert.Nil(t, err, "replay error")
	assert.Equal(t, 3, r.Committed, "wrong committed")
	assert.Equal(t, 2, r.Nodes[scored.ID].Version, "wrong version")
	assert.Equal(t, 0.25, r.Nodes[scored.ID].Properties[entity.KeyDriftScore], "wrong drift score")

	// each version once, in the order it was committed
	expected := []string{"cert:S1/1", "owner:" + fixtures.Wallet + "/1", "cert:S1/2"}
	actual := make([]string, len(r.Versions))
	for i, n := range r.Versions {
		actual[i] = fmt.Sprintf("%s/%d", n.ID, n.Version)
	}
	assert.Equal(t, expected, actual, "wrong commit order")
}

func TestReplayConflict(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	nodes, edges := batch(t, "S1")
	_, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")

	changed := *nodes[1]
	changed.Properties = entity.Properties{
		entity.KeyWallet:    fixtures.Wallet,
		entity.KeyOwnerName: "Someone Else",
	}
	_, err = l.Append("CERTIFICATE_INGESTION", []*entity.Node{&changed}, nil)
	assert.Nil(t, err, "append error")

	_, err = l.Replay()
	assert.True(t, fault.IsErrReplayConflict(err), "conflict not detected: %v", err)

	var conflict *fault.ReplayConflictError
	if errors.As(err, &conflict) {
		assert.Equal(t, changed.ID, conflict.ID, "wrong conflict id")
		assert.Equal(t, 1, conflict.Version, "wrong conflict version")
	}
}

func TestDanglingEdge(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	nodes, edges := batch(t, "S1")
	_, err := l.Append("CERTIFICATE_INGESTION", nodes[:1], edges)
	assert.Nil(t, err, "append error")

	_, err = l.Replay()
	assert.True(t, fault.IsErrDanglingEdge(err), "dangling edge not detected: %v", err)
}

func TestIncompleteTransactionSkipped(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	nodes, edges := batch(t, "S1")
	first, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")

	nodes2, edges2 := batch(t, "S2")
	_, err = l.Append("CERTIFICATE_INGESTION", nodes2, edges2)
	assert.Nil(t, err, "append error")

	// drop the final edge record, as if the process died mid-write
	name := filepath.Join(l.Directory(), txlog.EdgesFile)
	data, err := ioutil.ReadFile(name)
	assert.Nil(t, err, "read error")
	lines := strings.SplitAfter(string(data), "\n")
	assert.Nil(t, ioutil.WriteFile(name, []byte(lines[0]), 0600), "write error")

	r, err := l.Replay()
	assert.Nil(t, err, "replay error")
	assert.Equal(t, 1, r.Committed, "wrong committed")
	assert.Equal(t, 1, r.Skipped, "wrong skipped")
	_, found := r.Nodes[entity.CertificateID("S2")]
	assert.False(t, found, "incomplete transaction applied")

	recent, err := l.RecentTransactions(10)
	assert.Nil(t, err, "recent error")
	assert.Equal(t, 2, len(recent), "wrong header count")
	assert.Equal(t, first, recent[1].ID, "wrong order")
}

func TestTornFinalLine(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	nodes, edges := batch(t, "S1")
	_, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")

	f, err := os.OpenFile(filepath.Join(l.Directory(), txlog.TransactionsFile), os.O_WRONLY|os.O_APPEND, 0600)
	assert.Nil(t, err, "open error")
	_, _ = f.WriteString(`{"transaction_id":"SKG_TXN_worker-1_1_9","event_ty`)
	_ = f.Close()

	r, err := l.Replay()
	assert.Nil(t, err, "torn line not tolerated")
	assert.Equal(t, 1, r.Committed, "wrong committed")
}

func TestTornLineRepairedOnOpen(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("txlog")
	defer remove()

	log := logger.New(fixtures.LogCategory)
	l, err := txlog.Open(log, dir, "worker-1", 0)
	assert.Nil(t, err, "open error")

	nodes, edges := batch(t, "S1")
	_, err = l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")
	assert.Nil(t, l.Close(), "close error")

	// a crash part way through the next transaction
	for _, name := range []string{txlog.TransactionsFile, txlog.NodesFile} {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_APPEND, 0600)
		assert.Nil(t, err, "open error")
		_, _ = f.WriteString(`{"transaction_id":"SKG_TXN_worker-1_1_9","event_ty`)
		_ = f.Close()
	}

	l, err = txlog.Open(log, dir, "worker-1", 0)
	assert.Nil(t, err, "reopen error")
	defer l.Close()

	for _, name := range []string{txlog.TransactionsFile, txlog.NodesFile, txlog.EdgesFile} {
		data, err := ioutil.ReadFile(filepath.Join(dir, name))
		assert.Nil(t, err, "read error")
		assert.True(t, strings.HasSuffix(string(data), "\n"), "%s: torn line kept", name)
	}

	nodes, edges = batch(t, "S2")
	_, err = l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")

	r, err := l.Replay()
	assert.Nil(t, err, "replay error")
	assert.Equal(t, 2, r.Committed, "wrong committed")
	assert.Equal(t, 0, r.Skipped, "wrong skipped")
	assert.Equal(t, 3, len(r.Nodes), "wrong node count")
}

func TestSingleWriter(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("txlog")
	defer remove()

	log := logger.New(fixtures.LogCategory)
	first, err := txlog.Open(log, dir, "worker-1", 0)
	assert.Nil(t, err, "open error")

	_, err = txlog.Open(log, dir, "worker-1", 0)
	assert.Equal(t, fault.ErrLogLocked, err, "second writer allowed")

	assert.Nil(t, first.Close(), "close error")
	nodes, edges := batch(t, "S1")
	_, err = first.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Equal(t, fault.ErrLogClosed, err, "closed log accepted append")

	second, err := txlog.Open(log, dir, "worker-1", 0)
	assert.Nil(t, err, "released directory not reopened")
	assert.Nil(t, second.Close(), "close error")
}

func TestMalformedLine(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	err := ioutil.WriteFile(filepath.Join(l.Directory(), txlog.NodesFile), []byte("not json\n"), 0600)
	assert.Nil(t, err, "write error")

	_, err = l.Replay()
	assert.True(t, fault.IsErrRecord(err), "malformed line accepted: %v", err)
}

type failingFile struct {
	txlog.File
}

func (failingFile) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestFailedAppendRollsBack(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	nodes, edges := batch(t, "S1")
	_, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Nil(t, err, "append error")
	last := l.LastTransactionID()

	l.SetOpener(func(name string, flag int, perm os.FileMode) (txlog.File, error) {
		f, err := txlog.DefaultOpener(name, flag, perm)
		if nil != err || !strings.HasSuffix(name, txlog.EdgesFile) {
			return f, err
		}
		return failingFile{File: f}, nil
	})

	nodes2, edges2 := batch(t, "S2")
	_, err = l.Append("CERTIFICATE_INGESTION", nodes2, edges2)
	assert.NotNil(t, err, "append did not fail")
	assert.Equal(t, last, l.LastTransactionID(), "failed append became last")

	l.SetOpener(txlog.DefaultOpener)

	r, err := l.Replay()
	assert.Nil(t, err, "replay error")
	assert.Equal(t, 1, r.Committed, "wrong committed")
	assert.Equal(t, 0, r.Skipped, "rollback left a partial transaction")

	recent, err := l.RecentTransactions(10)
	assert.Nil(t, err, "recent error")
	assert.Equal(t, 1, len(recent), "rolled back header still present")
}

type slowFile struct {
	txlog.File
	release <-chan struct{}
}

func (s slowFile) Sync() error {
	<-s.release
	return s.File.Sync()
}

func TestFlushTimeoutPoisons(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("txlog")
	defer remove()

	l, err := txlog.Open(logger.New(fixtures.LogCategory), dir, "worker-1", 20*time.Millisecond)
	assert.Nil(t, err, "open error")
	defer l.Close()

	release := make(chan struct{})
	defer close(release)
	l.SetOpener(func(name string, flag int, perm os.FileMode) (txlog.File, error) {
		f, err := txlog.DefaultOpener(name, flag, perm)
		if nil != err {
			return f, err
		}
		return slowFile{File: f, release: release}, nil
	})

	nodes, edges := batch(t, "S1")
	_, err = l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Equal(t, fault.ErrFlushTimeout, err, "wrong error")

	_, err = l.Append("CERTIFICATE_INGESTION", nodes, edges)
	assert.Equal(t, fault.ErrLogPoisoned, err, "log still accepting")
}

func TestRecentTransactions(t *testing.T) {
	l, teardown := setupLog(t)
	defer teardown()

	tick := created
	l.SetClock(func() time.Time {
		tick = tick.Add(time.Microsecond)
		return tick
	})

	ids := make([]string, 0, 5)
	for _, serial := range []string{"S1", "S2", "S3", "S4", "S5"} {
		nodes, edges := batch(t, serial)
		id, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
		assert.Nil(t, err, "append error")
		ids = append(ids, id)
	}

	recent, err := l.RecentTransactions(3)
	assert.Nil(t, err, "recent error")
	assert.Equal(t, 3, len(recent), "wrong count")
	assert.Equal(t, ids[4], recent[0].ID, "newest not first")
	assert.Equal(t, ids[2], recent[2].ID, "wrong oldest")
	assert.Equal(t, 2, recent[0].NodeCount, "wrong node count")
	assert.Equal(t, "worker-1", recent[0].WorkerID, "wrong worker")

	all, err := l.RecentTransactions(100)
	assert.Nil(t, err, "recent error")
	assert.Equal(t, 5, len(all), "wrong count")

	_, err = l.RecentTransactions(-1)
	assert.Equal(t, fault.ErrInvalidCount, err, "wrong error")
}

func TestIDsUniqueAcrossReopen(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()
	dir, remove := fixtures.TempDir("txlog")
	defer remove()

	fixed := func() time.Time { return created }
	seen := make(map[string]struct{})

	for round := 0; round < 2; round += 1 {
		l, err := txlog.Open(logger.New(fixtures.LogCategory), dir, "worker-1", 0)
		if nil != err {
			t.Fatalf("open error: %s", err)
		}
		l.SetClock(fixed)
		for i := 0; i < 3; i += 1 {
			nodes, edges := batch(t, "S1")
			id, err := l.Append("CERTIFICATE_INGESTION", nodes, edges)
			assert.Nil(t, err, "append error")
			_, dup := seen[id]
			assert.False(t, dup, "duplicate id: %s", id)
			seen[id] = struct{}{}
		}
		assert.Nil(t, l.Close(), "close error")
	}
}
