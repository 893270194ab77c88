// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/truemark/skgd/entity"
)

// all edge ids are name-based UUIDs in this space
var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("skg.edge"))

// EdgeID - deterministic id of an edge
func EdgeID(edgeType string, sourceID string, targetID string) string {
	return uuid.NewSHA1(edgeNamespace, []byte(edgeType+"|"+sourceID+"|"+targetID)).String()
}

type built struct {
	certificate *entity.Node
	identity    *entity.Node
	chain       *entity.Node
	edges       []*entity.Edge
}

// derive the nodes and edges of one ingestion
func (e *Engine) build(p *Payload, vaultTransactionID string, now time.Time) (*built, error) {
	worker := e.journal.WorkerID()
	stamp := now.UTC().Format(entity.TimeFormat)

	certificateProperties := entity.Properties{
		entity.KeySerial:       p.DALSSerial,
		entity.KeyContentHash:  p.IPFSHash,
		entity.KeyMintedAt:     p.MintedAt,
		entity.KeySignature:    p.Signature,
		entity.KeyVerifyingKey: p.VerifyingKey,
	}
	if "" != p.AssetTitle {
		certificateProperties[entity.KeyAssetTitle] = p.AssetTitle
	}
	if "" != vaultTransactionID {
		certificateProperties[entity.KeyVaultTxID] = vaultTransactionID
	}

	certificate, err := e.version(entity.CertificateID(p.DALSSerial), entity.Certificate, certificateProperties, worker, now, true)
	if nil != err {
		return nil, err
	}

	identityID := entity.IdentityID(p.WalletAddress)
	firstSeen := stamp
	if existing, ok := e.store.Get(identityID); ok {
		if s := existing.String(entity.KeyFirstSeen); "" != s {
			firstSeen = s
		}
	}
	identity, err := e.version(identityID, entity.Identity, entity.Properties{
		entity.KeyWallet:    p.WalletAddress,
		entity.KeyOwnerName: p.OwnerName,
		entity.KeyFirstSeen: firstSeen,
	}, worker, now, false)
	if nil != err {
		return nil, err
	}

	height := string(p.BlockHeight)
	if "" == height {
		height = entity.DefaultBlockHeight
	}
	contract := p.ContractAddress
	if "" == contract {
		contract = entity.DefaultContract
	}
	chain, err := e.version(entity.ChainID(p.ChainID, height), entity.Chain, entity.Properties{
		entity.KeyChainID:     p.ChainID,
		entity.KeyBlockHeight: height,
		entity.KeyContract:    contract,
	}, worker, now, false)
	if nil != err {
		return nil, err
	}

	edges := make([]*entity.Edge, 0, 3)
	for _, link := range []struct {
		edgeType   string
		source     string
		target     string
		properties entity.Properties
	}{
		{entity.OwnedBy, certificate.ID, identity.ID, entity.Properties{entity.KeyOwnershipType: "primary"}},
		{entity.AnchoredOn, certificate.ID, chain.ID, entity.Properties{entity.KeyAnchorType: "blockchain"}},
		{entity.TransactsOn, identity.ID, chain.ID, entity.Properties{entity.KeyWalletType: "external"}},
	} {
		edge, err := entity.NewEdge(EdgeID(link.edgeType, link.source, link.target), link.edgeType, link.source, link.target, link.properties, entity.DefaultConfidence, now)
		if nil != err {
			return nil, err
		}
		edges = append(edges, edge)
	}

	return &built{
		certificate: certificate,
		identity:    identity,
		chain:       chain,
		edges:       edges,
	}, nil
}

// the node to write for an id: a new node, a successor of the stored
// one, or the stored one itself when nothing changed and always is false
func (e *Engine) version(id string, kind entity.Kind, properties entity.Properties, worker string, now time.Time, always bool) (*entity.Node, error) {
	existing, ok := e.store.Get(id)
	if !ok {
		return entity.NewNode(id, kind, properties, worker, now)
	}
	next, err := existing.Successor(properties, worker)
	if nil != err {
		return nil, err
	}
	if !always && reflect.DeepEqual(existing.Properties, next.Properties) {
		return existing, nil
	}
	return next, nil
}
