// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entity_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/fault"
)

var now = time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)

func certificateProperties() entity.Properties {
	return entity.Properties{
		entity.KeySerial:       "DALSKM20250101-ABCDEF12",
		entity.KeyContentHash:  "ipfs://Qm1234567890123456789012345678901234567890",
		entity.KeyMintedAt:     "2025-01-01T12:00:00Z",
		entity.KeySignature:    "00",
		entity.KeyVerifyingKey: "11",
	}
}

func TestNewNode(t *testing.T) {
	n, err := entity.NewNode("cert:DALSKM20250101-ABCDEF12", entity.Certificate, certificateProperties(), "worker-1", now)
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, 1, n.Version, "wrong version")
	assert.True(t, n.Active, "new node not active")
	assert.Equal(t, "2025-01-01T12:30:00Z", n.CreatedAt, "wrong created at")
	assert.Equal(t, "DALSKM20250101-ABCDEF12", n.String(entity.KeySerial), "wrong serial")
}

func TestNewNodeMissingKey(t *testing.T) {
	for _, key := range entity.Certificate.RequiredKeys() {
		p := certificateProperties()
		delete(p, key)
		_, err := entity.NewNode("cert:X", entity.Certificate, p, "worker-1", now)
		assert.True(t, fault.IsErrSchemaViolation(err), "missing %s not rejected: %v", key, err)
	}

	_, err := entity.NewNode("owner:0xAB", entity.Identity, entity.Properties{entity.KeyWallet: "0xAB"}, "worker-1", now)
	assert.True(t, fault.IsErrSchemaViolation(err), "identity without owner name accepted")
}

func TestNewNodeRejects(t *testing.T) {
	_, err := entity.NewNode("cert:X", entity.Kind("asset"), certificateProperties(), "w", now)
	assert.True(t, fault.IsErrSchemaViolation(err), "unknown kind accepted")

	_, err = entity.NewNode("owner:X", entity.Certificate, certificateProperties(), "w", now)
	assert.True(t, fault.IsErrSchemaViolation(err), "id outside namespace accepted")

	_, err = entity.NewNode("cert:", entity.Certificate, certificateProperties(), "w", now)
	assert.True(t, fault.IsErrSchemaViolation(err), "empty key accepted")

	p := certificateProperties()
	p["nested"] = map[string]string{"a": "b"}
	_, err = entity.NewNode("cert:X", entity.Certificate, p, "w", now)
	assert.True(t, fault.IsErrSchemaViolation(err), "non-scalar property accepted")
}

func TestSuccessor(t *testing.T) {
	n, err := entity.NewNode("chain:Polygon:pending", entity.Chain, entity.Properties{
		entity.KeyChainID:     "Polygon",
		entity.KeyBlockHeight: "pending",
	}, "worker-1", now)
	assert.Nil(t, err, "wrong error")

	p := n.Properties.Clone()
	p["observed"] = 3
	s, err := n.Successor(p, "worker-2")
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, 2, s.Version, "wrong version")
	assert.Equal(t, n.ID, s.ID, "id changed")
	assert.Equal(t, n.CreatedAt, s.CreatedAt, "created at changed")
	assert.Equal(t, "worker-2", s.CreatedBy, "wrong creator")
	assert.Equal(t, float64(3), s.Properties["observed"], "integer not normalised")
	_, found := n.Properties["observed"]
	assert.False(t, found, "predecessor modified")

	delete(p, entity.KeyChainID)
	_, err = n.Successor(p, "worker-2")
	assert.True(t, fault.IsErrSchemaViolation(err), "successor missing key accepted")
}

func TestNodeRecordRoundTrip(t *testing.T) {
	p := certificateProperties()
	p[entity.KeyDriftScore] = 0
	n, err := entity.NewNode("cert:A", entity.Certificate, p, "worker-1", now)
	assert.Nil(t, err, "wrong error")

	buffer, err := json.Marshal(n.ToRecord("T1"))
	assert.Nil(t, err, "marshal error")

	var fields map[string]interface{}
	assert.Nil(t, json.Unmarshal(buffer, &fields), "unmarshal error")
	for _, key := range []string{"transaction_id", "record_type", "id", "kind", "properties", "created_by", "created_at", "version", "active"} {
		_, ok := fields[key]
		assert.True(t, ok, "record missing field: %s", key)
	}
	assert.Equal(t, "node", fields["record_type"], "wrong record type")

	var r entity.NodeRecord
	assert.Nil(t, json.Unmarshal(buffer, &r), "unmarshal error")
	decoded, err := r.ToNode()
	assert.Nil(t, err, "wrong error")
	assert.True(t, n.Equal(decoded), "node changed by round trip: %+v  %+v", n, decoded)
}

func TestRecordValidation(t *testing.T) {
	r := entity.NodeRecord{TransactionID: "T1", RecordType: "edge"}
	_, err := r.ToNode()
	assert.True(t, fault.IsErrRecord(err), "wrong record type accepted")

	r = entity.NodeRecord{TransactionID: "T1", RecordType: "node", Node: entity.Node{ID: "cert:A", Kind: entity.Certificate, Version: 1}}
	_, err = r.ToNode()
	assert.True(t, fault.IsErrSchemaViolation(err), "record missing properties accepted")

	e := entity.EdgeRecord{TransactionID: "T1", RecordType: "edge", Edge: entity.Edge{ID: "e", Type: entity.OwnedBy, SourceID: "a", TargetID: "b", Confidence: 1.5}}
	_, err = e.ToEdge()
	assert.True(t, fault.IsErrSchemaViolation(err), "confidence above one accepted")
}

func TestNewEdge(t *testing.T) {
	e, err := entity.NewEdge("edge:1", entity.OwnedBy, "cert:A", "owner:B", entity.Properties{entity.KeyOwnershipType: "primary"}, entity.DefaultConfidence, now)
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, 1.0, e.Confidence, "wrong confidence")

	buffer, _ := json.Marshal(e.ToRecord("T1"))
	var r entity.EdgeRecord
	assert.Nil(t, json.Unmarshal(buffer, &r), "unmarshal error")
	decoded, err := r.ToEdge()
	assert.Nil(t, err, "wrong error")
	assert.True(t, e.Equal(decoded), "edge changed by round trip")

	_, err = entity.NewEdge("edge:2", entity.OwnedBy, "cert:A", "", nil, 1, now)
	assert.True(t, fault.IsErrSchemaViolation(err), "edge without target accepted")
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "cert:S1", entity.CertificateID("S1"), "wrong certificate id")
	assert.Equal(t, "owner:0xAB", entity.IdentityID("0xAB"), "wrong identity id")
	assert.Equal(t, "chain:Polygon:pending", entity.ChainID("Polygon", ""), "wrong chain id")
	assert.Equal(t, "chain:Polygon:42", entity.ChainID("Polygon", "42"), "wrong chain id")
}
