// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/truemark/skgd/fault"
)

// Payload - a signed certificate as delivered by the minting service
type Payload struct {
	DALSSerial      string `json:"dals_serial"`
	AssetTitle      string `json:"asset_title,omitempty"`
	OwnerName       string `json:"owner_name"`
	WalletAddress   string `json:"wallet_address"`
	IPFSHash        string `json:"ipfs_hash"`
	ChainID         string `json:"chain_id"`
	BlockHeight     Height `json:"block_height,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`
	MintedAt        string `json:"minted_at"`
	Signature       string `json:"ed25519_signature"`
	VerifyingKey    string `json:"verifying_key"`
}

// Height - block height, accepted as a JSON number or string
type Height string

// UnmarshalJSON - convert a number or a string
func (h *Height) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}
	if len(data) > 0 && '"' == data[0] {
		var s string
		if err := json.Unmarshal(data, &s); nil != err {
			return err
		}
		*h = Height(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); nil != err {
		return err
	}
	*h = Height(n.String())
	return nil
}

// Validate - every required field must be present and not blank
//
// the first missing field is reported
func (p *Payload) Validate() error {
	if nil == p {
		return fault.ErrMissingParameters
	}
	required := []struct {
		name  string
		value string
	}{
		{"dals_serial", p.DALSSerial},
		{"ipfs_hash", p.IPFSHash},
		{"wallet_address", p.WalletAddress},
		{"owner_name", p.OwnerName},
		{"chain_id", p.ChainID},
		{"minted_at", p.MintedAt},
		{"ed25519_signature", p.Signature},
		{"verifying_key", p.VerifyingKey},
	}
	for _, r := range required {
		if "" == strings.TrimSpace(r.value) {
			return fault.MissingField(r.name)
		}
	}
	return nil
}
