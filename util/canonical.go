// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"net"
	"strconv"
	"strings"

	"github.com/truemark/skgd/fault"
)

// Connection - a validated IP address and port
type Connection struct {
	ip   net.IP
	port int
}

// NewConnection - parse an IP:Port
//
// examples:
//   IPv4:  127.0.0.1:1234
//   IPv6:  [::1]:1234
//   any:   *:1234
func NewConnection(hostPort string) (*Connection, error) {
	hostPort = strings.TrimSpace(hostPort)
	if strings.HasPrefix(hostPort, "*:") {
		hostPort = "[::]" + hostPort[1:]
	}

	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return nil, fault.ErrInvalidIPAddress
	}

	ip := net.ParseIP(strings.TrimSpace(host))
	if nil == ip {
		return nil, fault.ErrInvalidIPAddress
	}

	numericPort, err := strconv.Atoi(strings.TrimSpace(port))
	if nil != err {
		return nil, fault.ErrInvalidPortNumber
	}
	if numericPort < 1 || numericPort > 65535 {
		return nil, fault.ErrInvalidPortNumber
	}

	return &Connection{
		ip:   ip,
		port: numericPort,
	}, nil
}

// NewConnections - parse a list of IP:Port
func NewConnections(hostPorts []string) ([]*Connection, error) {
	if 0 == len(hostPorts) {
		return nil, fault.ErrMissingParameters
	}
	c := make([]*Connection, len(hostPorts))
	for i, hostPort := range hostPorts {
		conn, err := NewConnection(hostPort)
		if nil != err {
			return nil, err
		}
		c[i] = conn
	}
	return c, nil
}

// CanonicalIPandPort - the address with a URL style prefix and
// whether it is IPv6
func (conn *Connection) CanonicalIPandPort(prefix string) (string, bool) {
	port := strconv.Itoa(conn.port)
	if nil != conn.ip.To4() {
		return prefix + conn.ip.String() + ":" + port, false
	}
	return prefix + "[" + conn.ip.String() + "]:" + port, true
}

// Network - the network name for net.Listen
func (conn *Connection) Network() string {
	if nil != conn.ip.To4() {
		return "tcp4"
	}
	if conn.ip.IsUnspecified() {
		return "tcp"
	}
	return "tcp6"
}

// String - canonical form without prefix
func (conn *Connection) String() string {
	s, _ := conn.CanonicalIPandPort("")
	return s
}
