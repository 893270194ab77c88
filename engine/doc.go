// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine - coordinate ingestion into the knowledge graph
//
// an ingestion is: validate the payload, derive the certificate,
// identity and chain nodes with their three edges, commit them to
// the transaction log, apply them to the store, file the certificate
// in the pattern clusters, score it for drift and commit the scored
// version as a second transaction.
//
// the log is written before the store is changed and both happen
// under one lock, so the order of transactions in the log is the
// order in which they became visible to queries.
package engine
