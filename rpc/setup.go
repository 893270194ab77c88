// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/counter"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/rpc/certificate"
	"github.com/truemark/skgd/rpc/graph"
	"github.com/truemark/skgd/rpc/handler"
	"github.com/truemark/skgd/rpc/listeners"
	"github.com/truemark/skgd/rpc/server"
)

const (
	tlsName   = "client_rpc"
	httpsName = "http_rpc"
)

type rpcData struct {
	sync.RWMutex

	log *logger.L

	listeners []listeners.Listener

	initialised bool
}

var globalData rpcData

// number of active JSON RPC connections
var connectionCountRPC counter.Counter

// Initialise - start the RPC and HTTPS servers
func Initialise(rpcConfiguration *listeners.RPCConfiguration, httpsConfiguration *listeners.HTTPSConfiguration, version string, e graph.Engine) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	log := logger.New("rpc")
	globalData.log = log
	log.Info("starting…")

	tlsConfig, fingerprint, err := certificate.GetFromFiles(log, tlsName, rpcConfiguration.Certificate, rpcConfiguration.PrivateKey)
	if nil != err {
		return err
	}

	rpcListener, err := listeners.NewRPC(
		rpcConfiguration,
		log,
		&connectionCountRPC,
		server.Create(log, version, &connectionCountRPC, e),
		tlsConfig,
		fingerprint,
	)
	if nil != err {
		return err
	}
	if err := rpcListener.Serve(); nil != err {
		return err
	}
	globalData.listeners = []listeners.Listener{rpcListener}

	httpsListener, err := initialiseHTTPS(log, httpsConfiguration, version, e)
	if nil != err {
		rpcListener.Close()
		return err
	}
	if nil != httpsListener {
		globalData.listeners = append(globalData.listeners, httpsListener)
	}

	globalData.initialised = true

	return nil
}

// Finalise - stop all servers
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	for _, l := range globalData.listeners {
		_ = l.Close()
	}
	globalData.listeners = nil

	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

func initialiseHTTPS(log *logger.L, configuration *listeners.HTTPSConfiguration, version string, e graph.Engine) (listeners.Listener, error) {
	if nil == configuration || 0 == len(configuration.Listen) {
		log.Infof("disable: %s", httpsName)
		return nil, nil
	}

	tlsConfig, fingerprint, err := certificate.GetFromFiles(log, httpsName, configuration.Certificate, configuration.PrivateKey)
	if nil != err {
		return nil, err
	}
	log.Infof("%s: SHA3-256 fingerprint: %x", httpsName, fingerprint)

	s := server.Create(log, version, &connectionCountRPC, e)
	hdlr := handler.New(log, s, time.Now(), version, configuration.MaximumConnections, e)

	l, err := listeners.NewHTTPS(configuration, log, tlsConfig, hdlr)
	if nil != err {
		return nil, err
	}
	if err := l.Serve(); nil != err {
		return nil, err
	}
	return l, nil
}
