// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entity

import (
	"reflect"
	"time"

	"github.com/truemark/skgd/fault"
)

// documented relationship labels, the set is open
const (
	OwnedBy     = "OWNED_BY"     // certificate → identity
	AnchoredOn  = "ANCHORED_ON"  // certificate → chain
	TransactsOn = "TRANSACTS_ON" // identity → chain
)

// DefaultConfidence - a fully trusted derivation
const DefaultConfidence = 1.0

// Edge - a directed, typed relationship
type Edge struct {
	ID         string     `json:"id"`
	SourceID   string     `json:"source_id"`
	TargetID   string     `json:"target_id"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	CreatedAt  string     `json:"created_at"`
	Confidence float64    `json:"confidence"`
}

// NewEdge - create an edge
func NewEdge(id string, edgeType string, sourceID string, targetID string, properties Properties, confidence float64, createdAt time.Time) (*Edge, error) {
	e := &Edge{
		ID:         id,
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       edgeType,
		CreatedAt:  createdAt.UTC().Format(TimeFormat),
		Confidence: confidence,
	}
	p, err := e.check(properties)
	if nil != err {
		return nil, err
	}
	e.Properties = p
	return e, nil
}

func (e *Edge) check(properties Properties) (Properties, error) {
	const kind = "edge"
	switch {
	case "" == e.ID:
		return nil, fault.SchemaViolation(kind, "id", "required")
	case "" == e.Type:
		return nil, fault.SchemaViolation(kind, "type", "required")
	case "" == e.SourceID:
		return nil, fault.SchemaViolation(kind, "source_id", "required")
	case "" == e.TargetID:
		return nil, fault.SchemaViolation(kind, "target_id", "required")
	case e.Confidence < 0 || e.Confidence > 1:
		return nil, fault.SchemaViolation(kind, "confidence", fault.ErrInvalidConfidence.Error())
	}
	return checkProperties("", properties)
}

// Equal - identical content
func (e *Edge) Equal(other *Edge) bool {
	return reflect.DeepEqual(e, other)
}
