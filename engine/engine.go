// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/drift"
	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/graph"
	"github.com/truemark/skgd/mode"
	"github.com/truemark/skgd/pattern"
	"github.com/truemark/skgd/txlog"
)

// transaction event types
const (
	EventIngestion   = "CERTIFICATE_INGESTION"
	EventDriftScored = "DRIFT_SCORED"
)

// Journal - durable record of every change to the graph
type Journal interface {
	Append(eventType string, nodes []*entity.Node, edges []*entity.Edge) (string, error)
	Replay() (*txlog.Replayed, error)
	RecentTransactions(limit int) ([]entity.Transaction, error)
	LastTransactionID() string
	WorkerID() string
}

// Sink - receives the broadcast event of each ingestion
type Sink interface {
	Send(from string, item interface{}) bool
}

// Components - the collaborators an engine coordinates
type Components struct {
	Journal  Journal
	Store    *graph.Store
	Learner  *pattern.Learner
	Analyzer *drift.Analyzer
	Sink     Sink // optional
}

// Result - outcome of one ingestion
type Result struct {
	TransactionID      string          `json:"transaction_id"`
	DriftTransactionID string          `json:"drift_transaction_id"`
	CertificateID      string          `json:"certificate_id"`
	DriftScore         float64         `json:"drift_score"`
	Breakdown          drift.Breakdown `json:"breakdown"`
	Duplicates         []string        `json:"duplicates"`
	Keys               pattern.Keys    `json:"pattern_keys"`
	Clusters           pattern.Counts  `json:"cluster_summary"`
}

// Engine - the ingestion coordinator
type Engine struct {
	sync.Mutex

	log      *logger.L
	mode     *mode.State
	journal  Journal
	store    *graph.Store
	learner  *pattern.Learner
	analyzer *drift.Analyzer
	sink     Sink

	now func() time.Time
}

// New - create an engine, it refuses ingestion until Start
func New(log *logger.L, c Components) (*Engine, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if nil == c.Journal || nil == c.Store || nil == c.Learner || nil == c.Analyzer {
		return nil, fault.ErrMissingParameters
	}
	return &Engine{
		log:      log,
		mode:     mode.New(log),
		journal:  c.Journal,
		store:    c.Store,
		learner:  c.Learner,
		analyzer: c.Analyzer,
		sink:     c.Sink,
		now:      time.Now,
	}, nil
}

// Mode - current run state
func (e *Engine) Mode() string {
	return e.mode.String()
}

// WorkerID - the worker whose log this engine writes
func (e *Engine) WorkerID() string {
	return e.journal.WorkerID()
}

// Start - rebuild all in-memory state from the log and accept ingestion
func (e *Engine) Start() error {
	e.Lock()
	defer e.Unlock()

	e.mode.Set(mode.Replaying)

	r, err := e.journal.Replay()
	if nil != err {
		e.log.Criticalf("replay error: %s", err)
		e.mode.Set(mode.Stopped)
		return err
	}

	last := e.journal.LastTransactionID()
	reindex := false
	if index := e.store.Index(); nil != index {
		checkpoint, err := index.Checkpoint()
		if nil != err || checkpoint != last {
			e.log.Warnf("wallet index checkpoint: %q  log: %q  rebuilding", checkpoint, last)
			reindex = true
		}
	}

	err = e.store.Load(r.Nodes, r.Edges, reindex)
	if nil != err {
		e.log.Criticalf("load error: %s", err)
		e.mode.Set(mode.Stopped)
		return err
	}
	if reindex {
		e.checkpoint(last)
	}

	e.rebuild(r.Versions)

	e.log.Infof("started: transactions: %d  skipped: %d  certificates: %d", r.Committed, r.Skipped, e.store.Counts().Certificates)
	e.mode.Set(mode.Normal)
	return nil
}

// Stop - refuse further ingestion
func (e *Engine) Stop() {
	e.Lock()
	defer e.Unlock()
	e.mode.Set(mode.Stopped)
}

// refill the learner and the analyzer from the log
//
// scored certificate versions are restored in commit order, the order
// in which the live process recorded them
func (e *Engine) rebuild(versions []*entity.Node) {
	for _, cert := range versions {
		if entity.Certificate != cert.Kind {
			continue
		}
		score, ok := storedScore(cert)
		if !ok {
			continue
		}

		keys, ok := pattern.StoredKeys(cert)
		if !ok {
			owners := e.store.Targets(cert.ID, entity.OwnedBy)
			chains := e.store.Targets(cert.ID, entity.AnchoredOn)
			if 0 == len(owners) || 0 == len(chains) {
				e.log.Warnf("rebuild: %s  owners: %d  chains: %d  not clustered", cert.ID, len(owners), len(chains))
				e.analyzer.Restore(cert, score)
				continue
			}
			keys = e.learner.KeysFor(cert, owners[0], chains[0])
		}
		e.learner.Restore(cert.ID, keys)
		e.analyzer.Restore(cert, score)
	}
}

func storedScore(cert *entity.Node) (drift.Score, bool) {
	value, ok := cert.Float(entity.KeyDriftScore)
	if !ok {
		return drift.Score{}, false
	}
	temporal, _ := cert.Float(entity.KeyDriftTemporal)
	signature, _ := cert.Float(entity.KeyDriftSignature)
	content, _ := cert.Float(entity.KeyDriftPattern)
	return drift.Score{
		Value: value,
		Breakdown: drift.Breakdown{
			Temporal:  temporal,
			Signature: signature,
			Pattern:   content,
		},
	}, true
}

// Ingest - add a certificate to the graph
//
// on error nothing of the first transaction is visible; an error in
// the second leaves the unscored certificate committed and the whole
// ingestion may be retried
func (e *Engine) Ingest(payload *Payload, vaultTransactionID string) (*Result, error) {
	if err := payload.Validate(); nil != err {
		return nil, err
	}

	e.Lock()
	defer e.Unlock()

	if e.mode.IsNot(mode.Normal) {
		return nil, fault.ErrNotAcceptingIngestion
	}

	b, err := e.build(payload, vaultTransactionID, e.now())
	if nil != err {
		return nil, err
	}

	nodes := []*entity.Node{b.certificate, b.identity, b.chain}
	transactionID, err := e.journal.Append(EventIngestion, nodes, b.edges)
	if nil != err {
		e.log.Errorf("ingest: %s  log error: %s", payload.DALSSerial, err)
		return nil, err
	}

	if err := e.store.Apply(nodes, b.edges); nil != err {
		e.log.Criticalf("ingest: %s  committed: %s  apply error: %s", payload.DALSSerial, transactionID, err)
		e.mode.Set(mode.Stopped)
		return nil, err
	}
	e.checkpoint(transactionID)

	// nothing derived is recorded until the scored version is durable
	keys := e.learner.KeysFor(b.certificate, b.identity, b.chain)
	score := e.analyzer.Evaluate(b.certificate)

	p := b.certificate.Properties.Clone()
	p[entity.KeyDriftScore] = score.Value
	p[entity.KeyDriftTemporal] = score.Breakdown.Temporal
	p[entity.KeyDriftSignature] = score.Breakdown.Signature
	p[entity.KeyDriftPattern] = score.Breakdown.Pattern
	for k, v := range keys.Properties() {
		p[k] = v
	}
	scored, err := b.certificate.Successor(p, e.journal.WorkerID())
	if nil != err {
		return nil, err
	}

	driftTransactionID, err := e.journal.Append(EventDriftScored, []*entity.Node{scored}, nil)
	if nil != err {
		e.log.Errorf("ingest: %s  committed: %s  drift log error: %s", payload.DALSSerial, transactionID, err)
		return nil, err
	}
	if err := e.store.Apply([]*entity.Node{scored}, nil); nil != err {
		e.log.Criticalf("ingest: %s  committed: %s  apply error: %s", payload.DALSSerial, driftTransactionID, err)
		e.mode.Set(mode.Stopped)
		return nil, err
	}
	e.checkpoint(driftTransactionID)

	e.learner.Restore(scored.ID, keys)
	e.analyzer.Restore(scored, score)

	result := &Result{
		TransactionID:      transactionID,
		DriftTransactionID: driftTransactionID,
		CertificateID:      scored.ID,
		DriftScore:         score.Value,
		Breakdown:          score.Breakdown,
		Duplicates:         e.learner.FindDuplicates(scored),
		Keys:               keys,
		Clusters:           e.learner.ClusterCounts(),
	}

	e.log.Infof("ingest: %s  transaction: %s  drift: %.3f  duplicates: %d", payload.DALSSerial, transactionID, score.Value, len(result.Duplicates))

	if nil != e.sink {
		if !e.sink.Send("engine", NewEvent(result, vaultTransactionID, payload.DALSSerial)) {
			e.log.Warnf("ingest: %s  event queue full, event dropped", transactionID)
		}
	}
	return result, nil
}

func (e *Engine) checkpoint(transactionID string) {
	index := e.store.Index()
	if nil == index {
		return
	}
	if !e.store.IndexCurrent() {
		e.log.Warnf("wallet index: stale, not checkpointed at: %s", transactionID)
		return
	}
	if err := index.SetCheckpoint(transactionID); nil != err {
		e.log.Errorf("wallet index checkpoint: %s  error: %s", transactionID, err)
	}
}
