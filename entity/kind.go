// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package entity

// Kind - the closed set of node kinds
type Kind string

// all possible kinds
const (
	Certificate Kind = "certificate"
	Identity    Kind = "identity"
	Chain       Kind = "chain"
	Pattern     Kind = "pattern"
	DriftEvent  Kind = "drift_event"
)

// property keys
const (
	KeySerial          = "dals_serial"
	KeyAssetTitle      = "asset_title"
	KeyContentHash     = "ipfs_hash"
	KeyMintedAt        = "minted_at"
	KeyVaultTxID       = "vault_txn_id"
	KeySignature       = "ed25519_signature"
	KeyVerifyingKey    = "verifying_key"
	KeyWallet          = "wallet_address"
	KeyOwnerName       = "owner_name"
	KeyFirstSeen       = "first_seen"
	KeyChainID         = "chain_id"
	KeyBlockHeight     = "block_height"
	KeyContract        = "contract_address"
	KeyPatternKey      = "pattern_key"
	KeyDimension       = "dimension"
	KeyCertificateID   = "certificate_id"
	KeyDriftScore      = "drift_score"
	KeyDriftTemporal   = "drift_temporal"
	KeyDriftSignature  = "drift_signature"
	KeyDriftPattern    = "drift_pattern"
	KeyPatternWallet   = "pattern_wallet_behavior"
	KeyPatternContent  = "pattern_content"
	KeyPatternTemporal = "pattern_temporal"
	KeyPatternChain    = "pattern_chain"
	KeyOwnershipType   = "ownership_type"
	KeyAnchorType      = "anchor_type"
	KeyWalletType      = "wallet_type"
	recordTypeNode     = "node"
	recordTypeEdge     = "edge"
	certificatePrefix  = "cert:"
	identityPrefix     = "owner:"
	chainPrefix        = "chain:"
	patternPrefix      = "pattern:"
	driftEventPrefix   = "drift:"
	DefaultBlockHeight = "pending"
	DefaultContract    = "N/A"
)

// required property keys for each kind
var requiredKeys = map[Kind][]string{
	Certificate: {KeySerial, KeyContentHash, KeyMintedAt, KeySignature, KeyVerifyingKey},
	Identity:    {KeyWallet, KeyOwnerName},
	Chain:       {KeyChainID, KeyBlockHeight},
	Pattern:     {KeyPatternKey, KeyDimension},
	DriftEvent:  {KeyCertificateID, KeyDriftScore},
}

var prefixes = map[Kind]string{
	Certificate: certificatePrefix,
	Identity:    identityPrefix,
	Chain:       chainPrefix,
	Pattern:     patternPrefix,
	DriftEvent:  driftEventPrefix,
}

// Valid - check kind is one of the closed set
func (k Kind) Valid() bool {
	_, ok := requiredKeys[k]
	return ok
}

// RequiredKeys - property keys a node of this kind must carry
func (k Kind) RequiredKeys() []string {
	keys := requiredKeys[k]
	result := make([]string, len(keys))
	copy(result, keys)
	return result
}

// Prefix - the id namespace for this kind
func (k Kind) Prefix() string {
	return prefixes[k]
}

// CertificateID - id of the certificate node for a serial
func CertificateID(serial string) string {
	return certificatePrefix + serial
}

// IdentityID - id of the identity node for a wallet
func IdentityID(wallet string) string {
	return identityPrefix + wallet
}

// ChainID - id of the chain anchor node, a blank height is pending
func ChainID(chainID string, blockHeight string) string {
	if "" == blockHeight {
		blockHeight = DefaultBlockHeight
	}
	return chainPrefix + chainID + ":" + blockHeight
}
