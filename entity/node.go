// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entity

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/truemark/skgd/fault"
)

// TimeFormat - layout of all creation timestamps
const TimeFormat = time.RFC3339Nano

// Properties - scalar values keyed by name
type Properties map[string]interface{}

// Node - an entity in the graph
type Node struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Properties Properties `json:"properties"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  string     `json:"created_at"`
	Version    int        `json:"version"`
	Active     bool       `json:"active"`
}

// NewNode - create the first version of a node
//
// fails with a schema violation if the id is outside the kind's
// namespace or a required property is missing
func NewNode(id string, kind Kind, properties Properties, createdBy string, createdAt time.Time) (*Node, error) {
	if !kind.Valid() {
		return nil, fault.SchemaViolation(string(kind), "kind", "unknown kind")
	}
	if !strings.HasPrefix(id, kind.Prefix()) || len(id) == len(kind.Prefix()) {
		return nil, fault.SchemaViolation(string(kind), "id", fmt.Sprintf("%q is not in namespace %q", id, kind.Prefix()))
	}
	p, err := checkProperties(kind, properties)
	if nil != err {
		return nil, err
	}
	return &Node{
		ID:         id,
		Kind:       kind,
		Properties: p,
		CreatedBy:  createdBy,
		CreatedAt:  createdAt.UTC().Format(TimeFormat),
		Version:    1,
		Active:     true,
	}, nil
}

// Successor - the next version of this node carrying new properties
//
// id and creation time are preserved, the receiver is left unchanged
func (n *Node) Successor(properties Properties, createdBy string) (*Node, error) {
	p, err := checkProperties(n.Kind, properties)
	if nil != err {
		return nil, err
	}
	return &Node{
		ID:         n.ID,
		Kind:       n.Kind,
		Properties: p,
		CreatedBy:  createdBy,
		CreatedAt:  n.CreatedAt,
		Version:    n.Version + 1,
		Active:     n.Active,
	}, nil
}

// String - a string property, blank if absent or not a string
func (n *Node) String(key string) string {
	if s, ok := n.Properties[key].(string); ok {
		return s
	}
	return ""
}

// Float - a numeric property
func (n *Node) Float(key string) (float64, bool) {
	f, ok := n.Properties[key].(float64)
	return f, ok
}

// Clone - copy of the properties so a successor can be built from them
func (p Properties) Clone() Properties {
	c := make(Properties, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Equal - identical content
func (n *Node) Equal(other *Node) bool {
	return reflect.DeepEqual(n, other)
}

// validate the keys and normalise the values of a property set
func checkProperties(kind Kind, properties Properties) (Properties, error) {
	for _, key := range requiredKeys[kind] {
		if v, ok := properties[key]; !ok || nil == v {
			return nil, fault.SchemaViolation(string(kind), key, "required property is missing")
		}
	}
	result := make(Properties, len(properties))
	for key, value := range properties {
		v, err := normalise(value)
		if nil != err {
			return nil, fault.SchemaViolation(string(kind), key, err.Error())
		}
		result[key] = v
	}
	return result, nil
}

// integers become float64 to match what encoding/json produces
func normalise(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil, string, bool, float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	default:
		return nil, fmt.Errorf("value of type %T is not a scalar", value)
	}
}
