// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/truemark/skgd/entity"
	"github.com/truemark/skgd/fault"
)

// Replayed - the graph reconstructed from the log
type Replayed struct {
	Nodes     map[string]*entity.Node
	Edges     map[string]*entity.Edge
	Versions  []*entity.Node // every committed node version in commit order
	Committed int            // transactions applied
	Skipped   int            // incomplete transactions ignored
}

// Replay - rebuild nodes and edges from every complete transaction
//
// the highest version of each node wins and the first record of each
// edge wins; replaying the same files always gives the same result
func (l *Log) Replay() (*Replayed, error) {
	l.Lock()
	defer l.Unlock()

	headers, err := l.headers()
	if nil != err {
		return nil, err
	}

	nodeRecords := make(map[string][]*entity.Node)
	err = l.scan(NodesFile, func(line []byte) error {
		var r entity.NodeRecord
		if err := json.Unmarshal(line, &r); nil != err {
			return fmt.Errorf("%w: %s", fault.ErrMalformedRecord, err)
		}
		n, err := r.ToNode()
		if nil != err {
			return err
		}
		nodeRecords[r.TransactionID] = append(nodeRecords[r.TransactionID], n)
		return nil
	})
	if nil != err {
		return nil, err
	}

	edgeRecords := make(map[string][]*entity.Edge)
	err = l.scan(EdgesFile, func(line []byte) error {
		var r entity.EdgeRecord
		if err := json.Unmarshal(line, &r); nil != err {
			return fmt.Errorf("%w: %s", fault.ErrMalformedRecord, err)
		}
		e, err := r.ToEdge()
		if nil != err {
			return err
		}
		edgeRecords[r.TransactionID] = append(edgeRecords[r.TransactionID], e)
		return nil
	})
	if nil != err {
		return nil, err
	}

	type seen struct {
		node          *entity.Node
		transactionID string
	}
	versions := make(map[string]map[int]seen)

	result := &Replayed{
		Nodes: make(map[string]*entity.Node),
		Edges: make(map[string]*entity.Edge),
	}

	known := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		known[h.ID] = struct{}{}
		nodes := nodeRecords[h.ID]
		edges := edgeRecords[h.ID]
		if len(nodes) != h.NodeCount || len(edges) != h.EdgeCount {
			l.log.Warnf("replay: skip incomplete: %s  nodes: %d/%d  edges: %d/%d", h.ID, len(nodes), h.NodeCount, len(edges), h.EdgeCount)
			result.Skipped += 1
			continue
		}

		for _, n := range nodes {
			v, ok := versions[n.ID]
			if !ok {
				v = make(map[int]seen)
				versions[n.ID] = v
			}
			if previous, ok := v[n.Version]; ok {
				if !previous.node.Equal(n) {
					return nil, &fault.ReplayConflictError{
						ID:      n.ID,
						Version: n.Version,
						First:   previous.transactionID,
						Second:  h.ID,
					}
				}
				continue
			}
			v[n.Version] = seen{node: n, transactionID: h.ID}
			result.Versions = append(result.Versions, n)

			if current, ok := result.Nodes[n.ID]; !ok || n.Version > current.Version {
				result.Nodes[n.ID] = n
			}
		}

		for _, e := range edges {
			if _, ok := result.Edges[e.ID]; !ok {
				result.Edges[e.ID] = e
			}
		}
		result.Committed += 1
	}

	for id := range nodeRecords {
		if _, ok := known[id]; !ok {
			l.log.Warnf("replay: node records without header: %s", id)
		}
	}
	for id := range edgeRecords {
		if _, ok := known[id]; !ok {
			l.log.Warnf("replay: edge records without header: %s", id)
		}
	}

	for _, e := range result.Edges {
		if _, ok := result.Nodes[e.SourceID]; !ok {
			return nil, fault.DanglingEdge(e.ID, e.SourceID)
		}
		if _, ok := result.Nodes[e.TargetID]; !ok {
			return nil, fault.DanglingEdge(e.ID, e.TargetID)
		}
	}

	l.log.Infof("replay: committed: %d  skipped: %d  nodes: %d  edges: %d", result.Committed, result.Skipped, len(result.Nodes), len(result.Edges))
	return result, nil
}

// RecentTransactions - newest first, at most limit headers
func (l *Log) RecentTransactions(limit int) ([]entity.Transaction, error) {
	if limit < 0 {
		return nil, fault.ErrInvalidCount
	}

	l.Lock()
	headers, err := l.headers()
	l.Unlock()
	if nil != err {
		return nil, err
	}

	if limit > len(headers) {
		limit = len(headers)
	}
	result := make([]entity.Transaction, 0, limit)
	for i := len(headers) - 1; i >= 0 && len(result) < limit; i -= 1 {
		result = append(result, headers[i])
	}
	return result, nil
}

// all headers in commit order
func (l *Log) headers() ([]entity.Transaction, error) {
	headers := make([]entity.Transaction, 0, 64)
	err := l.scan(TransactionsFile, func(line []byte) error {
		var t entity.Transaction
		if err := json.Unmarshal(line, &t); nil != err {
			return fmt.Errorf("%w: %s", fault.ErrMalformedRecord, err)
		}
		if "" == t.ID || t.NodeCount < 0 || t.EdgeCount < 0 {
			return fmt.Errorf("%w: header: %q", fault.ErrMalformedRecord, t.ID)
		}
		headers = append(headers, t)
		return nil
	})
	return headers, err
}

// call process for every complete line of a stream
//
// an unterminated final line is a torn write and is skipped
func (l *Log) scan(name string, process func(line []byte) error) error {
	f, err := os.Open(filepath.Join(l.directory, name))
	if os.IsNotExist(err) {
		return nil
	}
	if nil != err {
		return err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	for lineNumber := 1; ; lineNumber += 1 {
		line, err := reader.ReadBytes('\n')
		if io.EOF == err {
			if len(bytes.TrimSpace(line)) > 0 {
				l.log.Warnf("scan: %s  line: %d  ignore torn final line", name, lineNumber)
			}
			return nil
		}
		if nil != err {
			return err
		}
		line = bytes.TrimSpace(line)
		if 0 == len(line) {
			continue
		}
		if err := process(line); nil != err {
			return fmt.Errorf("%s line %d: %w", name, lineNumber, err)
		}
	}
}
