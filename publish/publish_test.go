// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	zmq "github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"

	"github.com/truemark/skgd/engine"
	"github.com/truemark/skgd/fault"
	"github.com/truemark/skgd/fixtures"
	"github.com/truemark/skgd/messagebus"
	"github.com/truemark/skgd/publish"
)

type frame struct {
	data  []byte
	flags zmq.Flag
}

type recorder struct {
	sync.Mutex
	frames []frame
	fail   bool
	closed bool
}

func (r *recorder) Send(data string, flags zmq.Flag) (int, error) {
	return r.SendBytes([]byte(data), flags)
}

func (r *recorder) SendBytes(data []byte, flags zmq.Flag) (int, error) {
	r.Lock()
	defer r.Unlock()
	if r.fail {
		return 0, errors.New("resource temporarily unavailable")
	}
	r.frames = append(r.frames, frame{data: data, flags: flags})
	return len(data), nil
}

func (r *recorder) Close() error {
	r.Lock()
	defer r.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) count() int {
	r.Lock()
	defer r.Unlock()
	return len(r.frames)
}

func waitFor(condition func() bool) bool {
	for i := 0; i < 200; i += 1 {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestBroadcastEvent(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	queue := messagebus.New(10)
	socket4 := &recorder{}
	socket6 := &recorder{}
	b := publish.NewBroadcaster(queue, socket4, socket6)
	bg := b.Start()

	event := &engine.Event{
		EventType:          engine.EventIngested,
		SKGTransactionID:   "SKG_TXN_w_1_1",
		VaultTransactionID: "V1",
		DALSSerial:         fixtures.Serial,
		RequiresSwarmSync:  true,
	}
	assert.True(t, queue.Send("engine", event), "queue refused event")

	assert.True(t, waitFor(func() bool { return 2 == socket6.count() }), "event not sent")
	bg.Stop()

	for _, socket := range []*recorder{socket4, socket6} {
		assert.True(t, socket.closed, "socket not closed")
		if !assert.Equal(t, 2, len(socket.frames), "wrong frame count") {
			continue
		}
		assert.Equal(t, engine.EventIngested, string(socket.frames[0].data), "wrong topic")
		assert.Equal(t, zmq.SNDMORE|zmq.DONTWAIT, socket.frames[0].flags, "topic must be followed by body")
		assert.Equal(t, zmq.DONTWAIT, socket.frames[1].flags, "wrong body flags")

		var decoded map[string]interface{}
		assert.Nil(t, json.Unmarshal(socket.frames[1].data, &decoded), "body is not JSON")
		assert.Equal(t, "SKG_TXN_w_1_1", decoded["skg_transaction_id"], "wrong transaction")
		assert.Equal(t, true, decoded["requires_swarm_sync"], "wrong sync flag")
	}
	assert.Equal(t, uint64(2), b.Sent(), "wrong sent count")
}

func TestBroadcastUntypedItem(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	queue := messagebus.New(10)
	socket := &recorder{}
	b := publish.NewBroadcaster(queue, socket)
	bg := b.Start()

	queue.Send("test", map[string]int{"a": 1})
	assert.True(t, waitFor(func() bool { return 2 == socket.count() }), "item not sent")
	bg.Stop()

	assert.Equal(t, "SKG_EVENT", string(socket.frames[0].data), "wrong default topic")
	assert.Equal(t, `{"a":1}`, string(socket.frames[1].data), "wrong body")
}

func TestBroadcastErrors(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	queue := messagebus.New(10)
	socket := &recorder{fail: true}
	b := publish.NewBroadcaster(queue, socket)
	bg := b.Start()

	queue.Send("test", make(chan int))
	queue.Send("engine", &engine.Event{EventType: engine.EventIngested})

	assert.True(t, waitFor(func() bool { return 2 == b.Errors() }), "errors not counted")
	bg.Stop()
	assert.Equal(t, uint64(0), b.Sent(), "failed send counted")
}

func TestConfiguration(t *testing.T) {
	var c *publish.Configuration
	assert.False(t, c.Enabled(), "nil configuration enabled")
	assert.False(t, (&publish.Configuration{}).Enabled(), "empty configuration enabled")
	assert.True(t, (&publish.Configuration{Broadcast: []string{"127.0.0.1:2139"}}).Enabled(), "configuration disabled")

	assert.Equal(t, fault.ErrMissingParameters, publish.Initialise(&publish.Configuration{}, messagebus.New(1)), "empty configuration started")
	assert.Equal(t, fault.ErrNotInitialised, publish.Finalise(), "finalise without initialise")
}
