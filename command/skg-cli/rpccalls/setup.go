// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpccalls - JSON RPC client for the skgd Graph service
package rpccalls

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"io"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"

	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/rpc/certificate"
)

// Client - to hold RPC connections streams
type Client struct {
	conn    io.Closer
	client  *rpc.Client
	verbose bool
	handle  io.Writer // if verbose is set output items here
}

// NewClient - create a RPC connection to a skgd
//
// a non-blank fingerprint pins the server certificate: hex of the
// SHA3-256 of its DER bytes as logged by the server at start up
func NewClient(connect string, fingerprint string, verbose bool, handle io.Writer) (*Client, error) {

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
	}

	if "" != fingerprint {
		expected, err := hex.DecodeString(strings.TrimSpace(fingerprint))
		if nil != err || 32 != len(expected) {
			return nil, fault.ErrInvalidFingerprint
		}
		tlsConfig.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if 0 == len(rawCerts) {
				return fault.ErrFingerprintMismatch
			}
			actual := certificate.Fingerprint(rawCerts[0])
			if string(actual[:]) != string(expected) {
				return fault.ErrFingerprintMismatch
			}
			return nil
		}
	}

	conn, err := tls.Dial("tcp", connect, tlsConfig)
	if err != nil {
		return nil, err
	}

	return newClient(conn, verbose, handle), nil
}

// NewClientFromConnection - wrap an existing connection
func NewClientFromConnection(conn net.Conn, verbose bool, handle io.Writer) *Client {
	return newClient(conn, verbose, handle)
}

func newClient(conn net.Conn, verbose bool, handle io.Writer) *Client {
	return &Client{
		conn:    conn,
		client:  jsonrpc.NewClient(conn),
		verbose: verbose,
		handle:  handle,
	}
}

// Close - shutdown the skgd connection
func (c *Client) Close() {
	c.client.Close()
	c.conn.Close()
}
