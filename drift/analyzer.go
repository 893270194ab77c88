// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package drift - score certificates for deviation from expected shape
//
// three sub-scores each in [0,1] are averaged, so a combined score is
// also in [0,1]; 0 is a perfectly conforming certificate
package drift

import (
	"encoding/hex"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/truemark/skgd/counter"
	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/pattern"
)

// degraded signals
const (
	SignatureMissing     = "signature_missing"
	SignatureLength      = "signature_length"
	KeyLength            = "key_length"
	NotHex               = "not_hex"
	TimestampUnparseable = "timestamp_unparseable"
	ContentScheme        = "content_scheme"
	ContentShort         = "content_short"
)

var signals = []string{
	SignatureMissing,
	SignatureLength,
	KeyLength,
	NotHex,
	TimestampUnparseable,
	ContentScheme,
	ContentShort,
}

// Breakdown - the sub-scores
type Breakdown struct {
	Temporal  float64 `json:"temporal"`
	Signature float64 `json:"signature"`
	Pattern   float64 `json:"pattern"`
}

// Score - combined score with its parts
type Score struct {
	Value     float64   `json:"drift_score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Entry - one analysed certificate
type Entry struct {
	NodeID     string    `json:"node_id"`
	Score      Score     `json:"score"`
	MintedAt   time.Time `json:"minted_at"` // zero if unparseable
	AnalysedAt time.Time `json:"analysed_at"`
}

// Analyzer - scores certificates in arrival order
type Analyzer struct {
	sync.RWMutex

	policy  Policy
	history []Entry

	// newest parseable minting time
	previous     time.Time
	havePrevious bool

	// latest score of each certificate
	scores map[string]float64
	sum    float64

	degraded map[string]*counter.Counter

	now func() time.Time
}

// New - create an analyzer with fixed baselines
func New(policy Policy) (*Analyzer, error) {
	if err := policy.Validate(); nil != err {
		return nil, err
	}
	a := &Analyzer{
		policy:   policy,
		history:  make([]Entry, 0, 64),
		scores:   make(map[string]float64),
		degraded: make(map[string]*counter.Counter, len(signals)),
		now:      time.Now,
	}
	for _, s := range signals {
		a.degraded[s] = new(counter.Counter)
	}
	return a, nil
}

// Policy - the baselines in use
func (a *Analyzer) Policy() Policy {
	return a.policy
}

// Evaluate - score a certificate against the history without recording it
func (a *Analyzer) Evaluate(cert *entity.Node) Score {
	a.RLock()
	defer a.RUnlock()

	s, _ := a.evaluate(cert)
	return s
}

// Analyze - score a certificate and add it to the history
func (a *Analyzer) Analyze(cert *entity.Node) Score {
	a.Lock()
	defer a.Unlock()

	s, degraded := a.evaluate(cert)
	a.record(cert, s, degraded)
	return s
}

// Restore - add a previously computed score to the history
//
// has the same effect as the Analyze call that produced the score so
// that state rebuilt from the transaction log matches the live state
func (a *Analyzer) Restore(cert *entity.Node, s Score) {
	a.Lock()
	defer a.Unlock()

	_, degraded := a.evaluate(cert)
	a.record(cert, s, degraded)
}

// the score and the degraded signals it absorbed
func (a *Analyzer) evaluate(cert *entity.Node) (Score, []string) {
	degraded := make([]string, 0, 3)
	note := func(score float64, signal string) float64 {
		if "" != signal {
			degraded = append(degraded, signal)
		}
		return score
	}

	minted, parsed := pattern.ParseTime(cert.String(entity.KeyMintedAt))

	b := Breakdown{
		Temporal:  note(a.temporal(minted, parsed)),
		Signature: note(a.signature(cert.String(entity.KeySignature), cert.String(entity.KeyVerifyingKey))),
		Pattern:   note(a.content(cert.String(entity.KeyContentHash))),
	}
	return Score{
		Value:     (b.Temporal + b.Signature + b.Pattern) / 3,
		Breakdown: b,
	}, degraded
}

func (a *Analyzer) record(cert *entity.Node, s Score, degraded []string) {
	e := Entry{
		NodeID:     cert.ID,
		Score:      s,
		AnalysedAt: a.now().UTC(),
	}
	if minted, ok := pattern.ParseTime(cert.String(entity.KeyMintedAt)); ok {
		e.MintedAt = minted.UTC()
		a.previous = minted
		a.havePrevious = true
	}

	a.history = append(a.history, e)
	if limit := a.policy.HistoryLimit; limit > 0 && len(a.history) > limit {
		a.history = append(a.history[:0:0], a.history[len(a.history)-limit:]...)
	}

	// a re-scored certificate replaces its earlier contribution
	a.sum += s.Value - a.scores[cert.ID]
	a.scores[cert.ID] = s.Value

	for _, signal := range degraded {
		a.degraded[signal].Increment()
	}
}

func (a *Analyzer) temporal(minted time.Time, parsed bool) (float64, string) {
	if !parsed {
		return 0.5, TimestampUnparseable
	}
	if !a.havePrevious {
		return 0.0, ""
	}
	interval := minted.Sub(a.previous).Seconds()
	baseline := a.policy.IssuanceInterval.Seconds()
	return math.Min(math.Abs(interval-baseline)/baseline, 1.0), ""
}

func (a *Analyzer) signature(signature string, key string) (float64, string) {
	switch {
	case "" == signature || "" == key:
		return 1.0, SignatureMissing
	case len(signature) != a.policy.SignatureLength:
		return 0.8, SignatureLength
	case len(key) != a.policy.KeyLength:
		return 0.6, KeyLength
	case !isHex(signature) || !isHex(key):
		return 1.0, NotHex
	}
	return 0.0, ""
}

func (a *Analyzer) content(contentHash string) (float64, string) {
	if !strings.HasPrefix(contentHash, a.policy.ContentScheme) {
		return 0.5, ContentScheme
	}
	if len(contentHash)-len(a.policy.ContentScheme) < a.policy.MinimumCIDLength {
		return 0.3, ContentShort
	}
	return 0.0, ""
}

func isHex(s string) bool {
	if 0 != len(s)%2 {
		s = "0" + s
	}
	_, err := hex.DecodeString(s)
	return nil == err
}

// GlobalAverage - mean of the latest score of each certificate, 0 when empty
func (a *Analyzer) GlobalAverage() float64 {
	a.RLock()
	defer a.RUnlock()

	if 0 == len(a.scores) {
		return 0.0
	}
	return a.sum / float64(len(a.scores))
}

// Count - number of distinct certificates analysed
func (a *Analyzer) Count() uint64 {
	a.RLock()
	defer a.RUnlock()
	return uint64(len(a.scores))
}

// History - retained entries, oldest first
func (a *Analyzer) History() []Entry {
	a.RLock()
	defer a.RUnlock()

	result := make([]Entry, len(a.history))
	copy(result, a.history)
	return result
}

// Degraded - how often each malformed signal has been absorbed
func (a *Analyzer) Degraded() map[string]uint64 {
	result := make(map[string]uint64, len(a.degraded))
	for s, c := range a.degraded {
		result[s] = c.Uint64()
	}
	return result
}
