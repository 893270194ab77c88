// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drift

import (
	"time"

	"github.com/truemark/skgd/fault"
)

// Policy - baselines the sub-scores are measured against
type Policy struct {
	IssuanceInterval time.Duration // expected gap between mintings
	SignatureLength  int           // hex characters of a signature
	KeyLength        int           // hex characters of a verifying key
	ContentScheme    string        // required content hash scheme
	MinimumCIDLength int           // characters after the scheme
	HistoryLimit     int           // retained history entries, 0 keeps all
}

// DefaultPolicy - Ed25519 hex lengths, IPFS content, five minute issuance
func DefaultPolicy() Policy {
	return Policy{
		IssuanceInterval: 300 * time.Second,
		SignatureLength:  128,
		KeyLength:        64,
		ContentScheme:    "ipfs://",
		MinimumCIDLength: 40,
		HistoryLimit:     10000,
	}
}

// Validate - check the policy can be used
func (p Policy) Validate() error {
	if p.IssuanceInterval <= 0 {
		return fault.ErrInvalidDuration
	}
	if p.SignatureLength <= 0 || p.KeyLength <= 0 || p.MinimumCIDLength < 0 || p.HistoryLimit < 0 {
		return fault.ErrInvalidCount
	}
	return nil
}
