// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish

import (
	"encoding/json"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/truemark/skgd/counter"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/messagebus"
	"github.com/truemark/skgd/util"
	"github.com/truemark/skgd/zmqutil"
)

const (
	broadcasterZapDomain = "broadcaster"
	defaultTopic         = "SKG_EVENT"
)

// the part of a zmq socket used to publish
type sender interface {
	Send(data string, flags zmq.Flag) (int, error)
	SendBytes(data []byte, flags zmq.Flag) (int, error)
	Close() error
}

// an item that names its own topic
type topical interface {
	Topic() string
}

type broadcaster struct {
	log     *logger.L
	queue   *messagebus.Queue
	sockets []sender
	sent    counter.Counter
	errors  counter.Counter
}

func (brdc *broadcaster) initialise(privateKey []byte, publicKey []byte, broadcast []string, queue *messagebus.Queue) error {
	log := logger.New("broadcaster")
	if nil == log {
		return fault.ErrInvalidLoggerChannel
	}
	brdc.log = log
	brdc.queue = queue

	log.Info("initialising…")

	c, err := util.NewConnections(broadcast)
	if nil != err {
		log.Errorf("ip and port error: %s", err)
		return err
	}

	socket4, socket6, err := zmqutil.NewBind(log, zmq.PUB, broadcasterZapDomain, privateKey, publicKey, c)
	if nil != err {
		log.Errorf("bind error: %s", err)
		return err
	}

	brdc.sockets = brdc.sockets[:0]
	if nil != socket4 {
		brdc.sockets = append(brdc.sockets, socket4)
	}
	if nil != socket6 {
		brdc.sockets = append(brdc.sockets, socket6)
	}
	return nil
}

// Run - send every queued event until shutdown
func (brdc *broadcaster) Run(args interface{}, shutdown <-chan struct{}) {
	log := brdc.log

	log.Info("starting…")

	queue := brdc.queue.Chan()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case item := <-queue:
			topic, body, err := encode(&item)
			if nil != err {
				log.Errorf("encode from: %s  error: %s", item.From, err)
				brdc.errors.Increment()
				continue
			}
			log.Debugf("sending: %s  data: %s", topic, body)
			for _, socket := range brdc.sockets {
				brdc.process(socket, topic, body)
			}
		}
	}

	for _, socket := range brdc.sockets {
		socket.Close()
	}
	log.Info("stopped")
}

// send one event as a two frame message
func (brdc *broadcaster) process(socket sender, topic string, body []byte) {
	_, err := socket.Send(topic, zmq.SNDMORE|zmq.DONTWAIT)
	if nil == err {
		_, err = socket.SendBytes(body, zmq.DONTWAIT)
	}
	if nil != err {
		brdc.log.Errorf("send: %s  error: %s", topic, err)
		brdc.errors.Increment()
		return
	}
	brdc.sent.Increment()
}

func encode(item *messagebus.Message) (string, []byte, error) {
	topic := defaultTopic
	if t, ok := item.Item.(topical); ok {
		topic = t.Topic()
	}
	body, err := json.Marshal(item.Item)
	if nil != err {
		return "", nil, err
	}
	return topic, body, nil
}
