// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pattern

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/truemark/skgd/entity"
)

// the four dimensions
const (
	WalletBehavior = "wallet_behavior"
	Content        = "content"
	Temporal       = "temporal"
	ChainActivity  = "chain"
)

// Dimensions - all dimensions in reporting order
var Dimensions = []string{WalletBehavior, Content, Temporal, ChainActivity}

// cluster key prefix of each dimension
var keyPrefix = map[string]string{
	WalletBehavior: "wallet_behavior:",
	Content:        "ipfs_prefix:",
	Temporal:       "issuance_hour:",
	ChainActivity:  "chain_activity:",
}

// Keys - the cluster key of a certificate in each dimension
type Keys struct {
	WalletBehavior string `json:"wallet_behavior"`
	Content        string `json:"content"`
	Temporal       string `json:"temporal"`
	Chain          string `json:"chain"`
}

// Properties - the keys as certificate properties
func (k Keys) Properties() entity.Properties {
	return entity.Properties{
		entity.KeyPatternWallet:   k.WalletBehavior,
		entity.KeyPatternContent:  k.Content,
		entity.KeyPatternTemporal: k.Temporal,
		entity.KeyPatternChain:    k.Chain,
	}
}

// StoredKeys - keys recorded on a scored certificate
func StoredKeys(cert *entity.Node) (Keys, bool) {
	k := Keys{
		WalletBehavior: cert.String(entity.KeyPatternWallet),
		Content:        cert.String(entity.KeyPatternContent),
		Temporal:       cert.String(entity.KeyPatternTemporal),
		Chain:          cert.String(entity.KeyPatternChain),
	}
	if "" == k.WalletBehavior || "" == k.Content || "" == k.Temporal || "" == k.Chain {
		return Keys{}, false
	}
	return k, true
}

func (k Keys) byDimension() [4][2]string {
	return [4][2]string{
		{WalletBehavior, k.WalletBehavior},
		{Content, k.Content},
		{Temporal, k.Temporal},
		{ChainActivity, k.Chain},
	}
}

// Counts - number of clusters
type Counts struct {
	Total          int `json:"total_clusters"`
	WalletBehavior int `json:"wallet_behavior_clusters"`
	Content        int `json:"ipfs_clusters"`
	Temporal       int `json:"temporal_clusters"`
	Chain          int `json:"chain_clusters"`
}

// Learner - incremental clustering of observed certificates
type Learner struct {
	sync.RWMutex

	// cluster key → member certificate ids in insertion order
	clusters map[string][]string

	// certificate id → keys it is currently filed under
	memberships map[string]Keys

	// number of clusters in each dimension
	counts map[string]int

	fingerprints *cache.Cache
}

// New - create an empty learner
//
// wallet fingerprints are memoised for fingerprintExpiry
func New(fingerprintExpiry time.Duration) *Learner {
	return &Learner{
		clusters:     make(map[string][]string),
		memberships:  make(map[string]Keys),
		counts:       make(map[string]int),
		fingerprints: cache.New(fingerprintExpiry, 2*fingerprintExpiry),
	}
}

// KeysFor - cluster keys of a certificate in its ingestion context
func (l *Learner) KeysFor(cert *entity.Node, identity *entity.Node, chain *entity.Node) Keys {
	return Keys{
		WalletBehavior: keyPrefix[WalletBehavior] + l.walletFingerprint(identity.String(entity.KeyWallet), identity.String(entity.KeyOwnerName)),
		Content:        keyPrefix[Content] + ContentPrefix(cert.String(entity.KeyContentHash)),
		Temporal:       keyPrefix[Temporal] + HourBucket(cert.String(entity.KeyMintedAt)),
		Chain:          keyPrefix[ChainActivity] + chain.String(entity.KeyChainID),
	}
}

func (l *Learner) walletFingerprint(wallet string, ownerName string) string {
	k := wallet + ":" + ownerName
	if f, found := l.fingerprints.Get(k); found {
		return f.(string)
	}
	f := WalletFingerprint(wallet, ownerName)
	l.fingerprints.Set(k, f, cache.DefaultExpiration)
	return f
}

// Observe - file a certificate under its four clusters
//
// observing the same id again is a no-op unless its keys changed, in
// which case it moves out of the stale clusters
func (l *Learner) Observe(cert *entity.Node, identity *entity.Node, chain *entity.Node) Keys {
	keys := l.KeysFor(cert, identity, chain)
	l.Restore(cert.ID, keys)
	return keys
}

// Restore - file a certificate under keys computed earlier
func (l *Learner) Restore(id string, keys Keys) {
	l.Lock()
	defer l.Unlock()

	previous, seen := l.memberships[id]
	if seen && previous == keys {
		return
	}

	stale := previous.byDimension()
	for i, k := range keys.byDimension() {
		if seen {
			if stale[i][1] == k[1] {
				continue
			}
			l.remove(stale[i][0], stale[i][1], id)
		}
		l.add(k[0], k[1], id)
	}
	l.memberships[id] = keys
}

func (l *Learner) add(dimension string, key string, id string) {
	members, ok := l.clusters[key]
	if !ok {
		l.counts[dimension] += 1
	}
	l.clusters[key] = append(members, id)
}

func (l *Learner) remove(dimension string, key string, id string) {
	members := l.clusters[key]
	for i, m := range members {
		if m == id {
			members = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if 0 == len(members) {
		delete(l.clusters, key)
		l.counts[dimension] -= 1
		return
	}
	l.clusters[key] = members
}

// FindDuplicates - other certificates sharing the content prefix
func (l *Learner) FindDuplicates(cert *entity.Node) []string {
	key := keyPrefix[Content] + ContentPrefix(cert.String(entity.KeyContentHash))

	l.RLock()
	defer l.RUnlock()

	members := l.clusters[key]
	result := make([]string, 0, len(members))
	for _, id := range members {
		if id != cert.ID {
			result = append(result, id)
		}
	}
	return result
}

// Members - ids in a cluster in insertion order
func (l *Learner) Members(dimension string, key string) []string {
	l.RLock()
	defer l.RUnlock()

	members := l.clusters[keyPrefix[dimension]+key]
	result := make([]string, len(members))
	copy(result, members)
	return result
}

// Memberships - the keys a certificate is filed under
func (l *Learner) Memberships(id string) (Keys, bool) {
	l.RLock()
	defer l.RUnlock()

	k, ok := l.memberships[id]
	return k, ok
}

// ClusterCounts - total and per-dimension cluster counts
func (l *Learner) ClusterCounts() Counts {
	l.RLock()
	defer l.RUnlock()

	return Counts{
		Total:          len(l.clusters),
		WalletBehavior: l.counts[WalletBehavior],
		Content:        l.counts[Content],
		Temporal:       l.counts[Temporal],
		Chain:          l.counts[ChainActivity],
	}
}
