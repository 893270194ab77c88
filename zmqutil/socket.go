// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"time"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/truemark/skgd/util"
)

const (
	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second
	sendHighWater     = 10000
)

// NewBind - bind a list of addresses
//
// creates up to 2 sockets for separate IPv4 and IPv6 traffic, either
// may be nil
func NewBind(log *logger.L, socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, listen []*util.Connection) (*zmq.Socket, *zmq.Socket, error) {
	var socket4 *zmq.Socket
	var socket6 *zmq.Socket

	closeAll := func() {
		if nil != socket4 {
			socket4.Close()
		}
		if nil != socket6 {
			socket6.Close()
		}
	}

	for i, address := range listen {
		bindTo, v6 := address.CanonicalIPandPort("tcp://")

		socket := socket4
		if v6 {
			socket = socket6
		}
		if nil == socket {
			s, err := NewServerSocket(socketType, zapDomain, privateKey, publicKey, v6)
			if nil != err {
				closeAll()
				return nil, nil, err
			}
			socket = s
			if v6 {
				socket6 = s
			} else {
				socket4 = s
			}
		}

		if err := socket.Bind(bindTo); nil != err {
			log.Errorf("cannot bind[%d]: %q  error: %s", i, bindTo, err)
			closeAll()
			return nil, nil, err
		}
		log.Infof("bind[%d]: %q  IPv6: %t", i, bindTo, v6)
	}
	return socket4, socket6, nil
}

// NewServerSocket - create a CURVE server socket that accepts any client
func NewServerSocket(socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, v6 bool) (*zmq.Socket, error) {
	socket, err := zmq.NewSocket(socketType)
	if nil != err {
		return nil, err
	}

	zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)

	err = socket.SetCurveServer(1)
	if nil == err {
		err = socket.SetCurveSecretkey(string(privateKey))
	}
	if nil == err {
		err = socket.SetZapDomain(zapDomain)
	}
	if nil == err {
		err = socket.SetIdentity(string(publicKey))
	}
	if nil == err {
		err = socket.SetIpv6(v6)
	}
	if nil == err {
		err = socket.SetSndhwm(sendHighWater)
	}
	if nil == err {
		err = socket.SetLinger(0)
	}
	if nil == err {
		err = socket.SetHeartbeatIvl(heartbeatInterval)
	}
	if nil == err {
		err = socket.SetHeartbeatTimeout(heartbeatTimeout)
	}
	if nil == err {
		err = socket.SetHeartbeatTtl(heartbeatTTL)
	}
	if nil != err {
		socket.Close()
		return nil, err
	}
	return socket, nil
}
