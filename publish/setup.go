// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package publish - broadcast ingestion events to swarm subscribers
//
// events are taken from a message queue and sent on CURVE secured
// ZMQ PUB sockets as two frames: the topic and the JSON body
package publish

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/background"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/messagebus"
	"github.com/truemark/skgd/zmqutil"
)

// Configuration - a block of configuration data
// this is read from the Lua configuration file
type Configuration struct {
	Broadcast  []string `gluamapper:"broadcast" json:"broadcast"`
	PrivateKey string   `gluamapper:"private_key" json:"private_key"`
	PublicKey  string   `gluamapper:"public_key" json:"public_key"`
	QueueSize  int      `gluamapper:"queue_size" json:"queue_size"`
}

type publishData struct {
	sync.RWMutex

	log *logger.L

	brdc broadcaster

	background *background.T

	initialised bool
}

var globalData publishData

// Enabled - true if there is somewhere to publish to
func (c *Configuration) Enabled() bool {
	return nil != c && 0 != len(c.Broadcast)
}

// Initialise - bind the broadcast sockets and start draining the queue
func Initialise(configuration *Configuration, queue *messagebus.Queue) error {
	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}
	if !configuration.Enabled() || nil == queue {
		return fault.ErrMissingParameters
	}

	globalData.log = logger.New("publish")
	globalData.log.Info("starting…")

	privateKey, err := zmqutil.ReadPrivateKeyFile(configuration.PrivateKey)
	if nil != err {
		globalData.log.Errorf("read private key file: %q  error: %s", configuration.PrivateKey, err)
		return err
	}
	publicKey, err := zmqutil.ReadPublicKeyFile(configuration.PublicKey)
	if nil != err {
		globalData.log.Errorf("read public key file: %q  error: %s", configuration.PublicKey, err)
		return err
	}
	globalData.log.Debugf("public key: %x", publicKey)

	if err := zmqutil.StartAuthentication(); nil != err {
		globalData.log.Errorf("zmq authentication error: %s", err)
		return err
	}

	if err := globalData.brdc.initialise(privateKey, publicKey, configuration.Broadcast, queue); nil != err {
		return err
	}

	globalData.initialised = true

	globalData.log.Info("start background…")

	processes := background.Processes{
		&globalData.brdc,
	}
	globalData.background = background.Start(processes, nil)

	return nil
}

// Finalise - stop all background tasks
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.background.Stop()

	globalData.initialised = false

	globalData.log.Infof("finished  sent: %d  errors: %d", globalData.brdc.sent.Uint64(), globalData.brdc.errors.Uint64())
	globalData.log.Flush()

	return nil
}
