// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/fault"
)

// Counts - size of the graph
type Counts struct {
	Nodes        int `json:"total_nodes"`
	Edges        int `json:"total_edges"`
	Certificates int `json:"certificates"`
	Owners       int `json:"unique_owners"`
}

// Store - current nodes and edges
type Store struct {
	sync.RWMutex

	log   *logger.L
	nodes map[string]*entity.Node
	edges map[string]*entity.Edge

	// source node id → ids of its outgoing edges
	outgoing map[string][]string

	index WalletIndex

	// an index write failed, it no longer matches the graph
	indexStale bool
}

// New - create an empty store, index may be nil
func New(log *logger.L, index WalletIndex) *Store {
	return &Store{
		log:      log,
		nodes:    make(map[string]*entity.Node),
		edges:    make(map[string]*entity.Edge),
		outgoing: make(map[string][]string),
		index:    index,
	}
}

// Index - the wallet index in use, nil if none
func (s *Store) Index() WalletIndex {
	return s.index
}

// IndexCurrent - false once an index write has failed
//
// a stale index is not used for queries and must not be checkpointed,
// so that it is rebuilt at the next start
func (s *Store) IndexCurrent() bool {
	s.RLock()
	defer s.RUnlock()
	return nil != s.index && !s.indexStale
}

// Upsert - keep the node if it is newer than the stored version
//
// returns true if the store changed
func (s *Store) Upsert(node *entity.Node) (bool, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.checkNode(node); nil != err {
		return false, err
	}
	return s.upsert(node), nil
}

// Insert - add an edge between two stored nodes
//
// returns true if the store changed, an existing edge id is kept
func (s *Store) Insert(edge *entity.Edge) (bool, error) {
	s.Lock()
	defer s.Unlock()

	if err := s.checkEdge(edge, nil); nil != err {
		return false, err
	}
	if !s.insert(edge) {
		return false, nil
	}
	s.indexEdges([]*entity.Edge{edge})
	return true, nil
}

// Apply - add a batch of nodes and edges as one step
//
// the whole batch is checked before anything is changed, so readers
// see either none or all of it. The wallet index is written last and
// a failure there only marks it stale
func (s *Store) Apply(nodes []*entity.Node, edges []*entity.Edge) error {
	s.Lock()
	defer s.Unlock()

	pending := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if err := s.checkNode(n); nil != err {
			return err
		}
		pending[n.ID] = struct{}{}
	}
	for _, e := range edges {
		if err := s.checkEdge(e, pending); nil != err {
			return err
		}
	}

	for _, n := range nodes {
		s.upsert(n)
	}
	added := make([]*entity.Edge, 0, len(edges))
	for _, e := range edges {
		if s.insert(e) {
			added = append(added, e)
		}
	}
	s.indexEdges(added)
	return nil
}

// Load - replace the contents with a replayed graph
//
// when reindex is set the wallet index is cleared and refilled,
// otherwise it is assumed to already match the graph
func (s *Store) Load(nodes map[string]*entity.Node, edges map[string]*entity.Edge, reindex bool) error {
	s.Lock()
	defer s.Unlock()

	s.nodes = make(map[string]*entity.Node, len(nodes))
	s.edges = make(map[string]*entity.Edge, len(edges))
	s.outgoing = make(map[string][]string)

	if reindex && nil != s.index {
		if err := s.index.Reset(); nil != err {
			return err
		}
	}

	for id, n := range nodes {
		if id != n.ID {
			return fmt.Errorf("%w: node keyed as %q has id %q", fault.ErrMalformedRecord, id, n.ID)
		}
		s.nodes[id] = n
	}

	// sorted so that index writes are reproducible
	ids := make([]string, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		e := edges[id]
		if err := s.checkEdge(e, nil); nil != err {
			return err
		}
		s.insert(e)
		if reindex {
			if err := s.indexEdge(e); nil != err {
				return err
			}
		}
	}
	if reindex {
		s.indexStale = false
	}

	s.log.Infof("load: nodes: %d  edges: %d  reindex: %t", len(s.nodes), len(s.edges), reindex)
	return nil
}

// Get - a node by id
func (s *Store) Get(id string) (*entity.Node, bool) {
	s.RLock()
	defer s.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// Edge - an edge by id
func (s *Store) Edge(id string) (*entity.Edge, bool) {
	s.RLock()
	defer s.RUnlock()

	e, ok := s.edges[id]
	return e, ok
}

// All - every node of a kind sorted by id
func (s *Store) All(kind entity.Kind) []*entity.Node {
	s.RLock()
	defer s.RUnlock()

	result := make([]*entity.Node, 0, 16)
	for _, n := range s.nodes {
		if kind == n.Kind {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Targets - nodes reached from a source over edges of one type
//
// newest edge first, ties broken by edge id
func (s *Store) Targets(sourceID string, edgeType string) []*entity.Node {
	s.RLock()
	defer s.RUnlock()

	edges := make([]*entity.Edge, 0, 4)
	for _, id := range s.outgoing[sourceID] {
		if e := s.edges[id]; edgeType == e.Type {
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		ti, _ := time.Parse(entity.TimeFormat, edges[i].CreatedAt)
		tj, _ := time.Parse(entity.TimeFormat, edges[j].CreatedAt)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return edges[i].ID < edges[j].ID
	})

	result := make([]*entity.Node, 0, len(edges))
	for _, e := range edges {
		result = append(result, s.nodes[e.TargetID])
	}
	return result
}

// Counts - current totals
func (s *Store) Counts() Counts {
	s.RLock()
	defer s.RUnlock()

	c := Counts{
		Nodes: len(s.nodes),
		Edges: len(s.edges),
	}
	for _, n := range s.nodes {
		switch n.Kind {
		case entity.Certificate:
			c.Certificates += 1
		case entity.Identity:
			c.Owners += 1
		}
	}
	return c
}

// CertificatesByWallet - certificates owned by a wallet, sorted by id
//
// answered from the wallet index when there is one, falling back to
// a scan if the index fails
func (s *Store) CertificatesByWallet(wallet string) []*entity.Node {
	if s.IndexCurrent() {
		ids, err := s.index.Certificates(wallet)
		if nil == err {
			s.RLock()
			defer s.RUnlock()

			result := make([]*entity.Node, 0, len(ids))
			for _, id := range ids {
				if n, ok := s.nodes[id]; ok {
					result = append(result, n)
				}
			}
			return result
		}
		s.log.Errorf("wallet index: %q  error: %s", wallet, err)
	}
	return s.ScanCertificatesByWallet(wallet)
}

// ScanCertificatesByWallet - the same query by walking every edge
func (s *Store) ScanCertificatesByWallet(wallet string) []*entity.Node {
	s.RLock()
	defer s.RUnlock()

	found := make(map[string]struct{})
	for _, e := range s.edges {
		if entity.OwnedBy != e.Type {
			continue
		}
		owner, ok := s.nodes[e.TargetID]
		if !ok || entity.Identity != owner.Kind || wallet != owner.String(entity.KeyWallet) {
			continue
		}
		if cert, ok := s.nodes[e.SourceID]; ok && entity.Certificate == cert.Kind {
			found[cert.ID] = struct{}{}
		}
	}

	result := make([]*entity.Node, 0, len(found))
	for id := range found {
		result = append(result, s.nodes[id])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// reject a version that equals the stored one but differs in content
func (s *Store) checkNode(node *entity.Node) error {
	if nil == node {
		return fault.ErrInvalidStructPointer
	}
	current, ok := s.nodes[node.ID]
	if ok && current.Version == node.Version && !current.Equal(node) {
		return fmt.Errorf("%w: %s version %d", fault.ErrVersionConflict, node.ID, node.Version)
	}
	return nil
}

// both endpoints must be stored or about to be
func (s *Store) checkEdge(edge *entity.Edge, pending map[string]struct{}) error {
	if nil == edge {
		return fault.ErrInvalidStructPointer
	}
	for _, id := range []string{edge.SourceID, edge.TargetID} {
		if _, ok := s.nodes[id]; ok {
			continue
		}
		if _, ok := pending[id]; ok {
			continue
		}
		return fault.DanglingEdge(edge.ID, id)
	}
	return nil
}

func (s *Store) upsert(node *entity.Node) bool {
	current, ok := s.nodes[node.ID]
	if ok && node.Version <= current.Version {
		return false
	}
	s.nodes[node.ID] = node
	return true
}

func (s *Store) insert(edge *entity.Edge) bool {
	if _, ok := s.edges[edge.ID]; ok {
		return false
	}
	s.edges[edge.ID] = edge
	s.outgoing[edge.SourceID] = append(s.outgoing[edge.SourceID], edge.ID)
	return true
}

// write ownership of new edges to the index, every edge is attempted
func (s *Store) indexEdges(edges []*entity.Edge) {
	for _, e := range edges {
		if err := s.indexEdge(e); nil != err {
			s.log.Errorf("wallet index: edge: %s  error: %s", e.ID, err)
			s.indexStale = true
		}
	}
}

func (s *Store) indexEdge(edge *entity.Edge) error {
	if entity.OwnedBy != edge.Type || nil == s.index {
		return nil
	}
	owner := s.nodes[edge.TargetID]
	if entity.Identity != owner.Kind {
		return nil
	}
	return s.index.Add(owner.String(entity.KeyWallet), edge.SourceID)
}
