// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pattern

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

const (
	walletFingerprintBytes = 8
	contentPrefixLength    = 16
	hourBucketLayout       = "2006-01-02T15"
)

// WalletFingerprint - behaviour key of an owner
func WalletFingerprint(wallet string, ownerName string) string {
	digest := sha3.Sum256([]byte(wallet + ":" + ownerName))
	return hex.EncodeToString(digest[:walletFingerprintBytes])
}

// ContentPrefix - leading characters of a content hash
func ContentPrefix(contentHash string) string {
	if len(contentHash) <= contentPrefixLength {
		return contentHash
	}
	return contentHash[:contentPrefixLength]
}

// HourBucket - minting time truncated to the UTC hour
//
// a value that does not parse falls back to its first 13 characters
func HourBucket(mintedAt string) string {
	if t, ok := ParseTime(mintedAt); ok {
		return t.UTC().Format(hourBucketLayout)
	}
	if len(mintedAt) <= len(hourBucketLayout) {
		return mintedAt
	}
	return mintedAt[:len(hourBucketLayout)]
}

// accepted minting time layouts, in order of preference
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTime - parse a minting timestamp, values without a zone are UTC
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); nil == err {
			return t, true
		}
	}
	return time.Time{}, false
}
