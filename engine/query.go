// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/graph"
	"github.com/truemark/skgd/pattern"
)

// Holding - one certificate of a portfolio
type Holding struct {
	CertificateID string  `json:"certificate_id"`
	Serial        string  `json:"dals_serial"`
	AssetTitle    string  `json:"asset_title,omitempty"`
	MintedAt      string  `json:"minted_at"`
	DriftScore    float64 `json:"drift_score"`
}

// Portfolio - everything a wallet owns
type Portfolio struct {
	Wallet                  string    `json:"wallet_address"`
	CertificateCount        int       `json:"certificate_count"`
	Certificates            []Holding `json:"certificates"`
	AverageDrift            float64   `json:"average_drift"`
	HighestDrift            float64   `json:"highest_drift"`
	HighestDriftCertificate string    `json:"highest_drift_certificate"`
}

// Summary - size of the graph and its derived state
type Summary struct {
	graph.Counts
	GlobalDrift float64        `json:"global_drift_average"`
	Clusters    pattern.Counts `json:"pattern_clusters"`
}

// Health - summary plus run state
type Health struct {
	Summary
	Mode              string            `json:"mode"`
	WorkerID          string            `json:"worker_id"`
	LastTransactionID string            `json:"last_transaction_id"`
	Analysed          uint64            `json:"certificates_analysed"`
	Degraded          map[string]uint64 `json:"degraded_signals"`
}

// Portfolio - certificates of a wallet with their drift
//
// an unknown wallet gives an empty portfolio
func (e *Engine) Portfolio(wallet string) *Portfolio {
	certificates := e.store.CertificatesByWallet(wallet)

	p := &Portfolio{
		Wallet:           wallet,
		CertificateCount: len(certificates),
		Certificates:     make([]Holding, 0, len(certificates)),
	}

	total := 0.0
	for _, c := range certificates {
		score, _ := c.Float(entity.KeyDriftScore)
		p.Certificates = append(p.Certificates, Holding{
			CertificateID: c.ID,
			Serial:        c.String(entity.KeySerial),
			AssetTitle:    c.String(entity.KeyAssetTitle),
			MintedAt:      c.String(entity.KeyMintedAt),
			DriftScore:    score,
		})
		total += score
		if "" == p.HighestDriftCertificate || score > p.HighestDrift {
			p.HighestDrift = score
			p.HighestDriftCertificate = c.ID
		}
	}
	if len(certificates) > 0 {
		p.AverageDrift = total / float64(len(certificates))
	}
	return p
}

// Summary - counts, global drift and clusters
func (e *Engine) Summary() *Summary {
	return &Summary{
		Counts:      e.store.Counts(),
		GlobalDrift: e.analyzer.GlobalAverage(),
		Clusters:    e.learner.ClusterCounts(),
	}
}

// Health - summary with run state and degraded signal counts
func (e *Engine) Health() *Health {
	return &Health{
		Summary:           *e.Summary(),
		Mode:              e.mode.String(),
		WorkerID:          e.journal.WorkerID(),
		LastTransactionID: e.journal.LastTransactionID(),
		Analysed:          e.analyzer.Count(),
		Degraded:          e.analyzer.Degraded(),
	}
}

// RecentTransactions - newest first
func (e *Engine) RecentTransactions(limit int) ([]entity.Transaction, error) {
	return e.journal.RecentTransactions(limit)
}

// Duplicates - certificates sharing content with a serial
//
// an unknown serial has no duplicates
func (e *Engine) Duplicates(serial string) []string {
	cert, ok := e.store.Get(entity.CertificateID(serial))
	if !ok {
		return []string{}
	}
	return e.learner.FindDuplicates(cert)
}
