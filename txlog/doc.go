// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txlog - durable, append-only transaction log of one worker
//
// the log is three JSON-lines files in the worker directory:
//
//   transactions.jsonl  one header per committed batch
//   nodes.jsonl         node records tagged with their transaction id
//   edges.jsonl         edge records tagged with their transaction id
//
// a batch is written header first, then nodes, then edges; each file is
// opened, appended, synced and closed for every batch.  A failed batch
// is truncated away from all three files.  On replay a transaction
// only counts when its header exists and exactly the declared number
// of records carry its id.
package txlog
