// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/truemark/skgd/pattern"
)

// EventIngested - type of the broadcast event
const EventIngested = "SKG_CERTIFICATE_INGESTED"

// Event - what downstream swarm consumers receive after an ingestion
type Event struct {
	EventType          string         `json:"event_type"`
	SKGTransactionID   string         `json:"skg_transaction_id"`
	VaultTransactionID string         `json:"vault_transaction_id"`
	DALSSerial         string         `json:"dals_serial"`
	DriftScore         float64        `json:"drift_score"`
	PatternClusters    pattern.Counts `json:"pattern_clusters"`
	RequiresSwarmSync  bool           `json:"requires_swarm_sync"`
}

// NewEvent - build the broadcast payload for an ingestion result
func NewEvent(result *Result, vaultTransactionID string, serial string) *Event {
	return &Event{
		EventType:          EventIngested,
		SKGTransactionID:   result.TransactionID,
		VaultTransactionID: vaultTransactionID,
		DALSSerial:         serial,
		DriftScore:         result.DriftScore,
		PatternClusters:    result.Clusters,
		RequiresSwarmSync:  true,
	}
}

// Topic - the publish topic of this event
func (e *Event) Topic() string {
	return e.EventType
}
