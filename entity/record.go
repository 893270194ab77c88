// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entity

import (
	"fmt"

	"github.com/truemark/skgd/fault"
)

// Transaction - header of an atomic batch in the log
type Transaction struct {
	ID        string `json:"transaction_id"`
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
	WorkerID  string `json:"worker_id"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// NodeRecord - one line of the nodes stream
type NodeRecord struct {
	TransactionID string `json:"transaction_id"`
	RecordType    string `json:"record_type"`
	Node
}

// EdgeRecord - one line of the edges stream
type EdgeRecord struct {
	TransactionID string `json:"transaction_id"`
	RecordType    string `json:"record_type"`
	Edge
}

// ToRecord - tag a node with its owning transaction
func (n *Node) ToRecord(transactionID string) NodeRecord {
	return NodeRecord{
		TransactionID: transactionID,
		RecordType:    recordTypeNode,
		Node:          *n,
	}
}

// ToRecord - tag an edge with its owning transaction
func (e *Edge) ToRecord(transactionID string) EdgeRecord {
	return EdgeRecord{
		TransactionID: transactionID,
		RecordType:    recordTypeEdge,
		Edge:          *e,
	}
}

// ToNode - validate a decoded record and extract the node
func (r *NodeRecord) ToNode() (*Node, error) {
	if recordTypeNode != r.RecordType {
		return nil, fmt.Errorf("%w: record type: %q in nodes stream", fault.ErrMalformedRecord, r.RecordType)
	}
	if "" == r.TransactionID {
		return nil, fmt.Errorf("%w: node: %q has no transaction", fault.ErrMalformedRecord, r.ID)
	}
	if r.Version < 1 {
		return nil, fmt.Errorf("%w: node: %q version: %d", fault.ErrMalformedRecord, r.ID, r.Version)
	}
	if !r.Kind.Valid() {
		return nil, fault.SchemaViolation(string(r.Kind), "kind", "unknown kind")
	}
	p, err := checkProperties(r.Kind, r.Properties)
	if nil != err {
		return nil, err
	}
	n := r.Node
	n.Properties = p
	return &n, nil
}

// ToEdge - validate a decoded record and extract the edge
func (r *EdgeRecord) ToEdge() (*Edge, error) {
	if recordTypeEdge != r.RecordType {
		return nil, fmt.Errorf("%w: record type: %q in edges stream", fault.ErrMalformedRecord, r.RecordType)
	}
	if "" == r.TransactionID {
		return nil, fmt.Errorf("%w: edge: %q has no transaction", fault.ErrMalformedRecord, r.ID)
	}
	e := r.Edge
	p, err := e.check(r.Properties)
	if nil != err {
		return nil, err
	}
	e.Properties = p
	return &e, nil
}
