// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"github.com/truemark/skgd/counter"
)

// DefaultQueueSize - capacity when none is given
const DefaultQueueSize = 1000

// Message - an item and the component that produced it
type Message struct {
	From string
	Item interface{}
}

// Queue - bounded queue, full queues drop new messages
type Queue struct {
	queue   chan Message
	dropped counter.Counter
}

// New - create a queue holding at most size messages
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		queue: make(chan Message, size),
	}
}

// Send - queue data, never blocks
//
// returns false if the queue was full and the message was dropped
func (q *Queue) Send(from string, item interface{}) bool {
	select {
	case q.queue <- Message{From: from, Item: item}:
		return true
	default:
		q.dropped.Increment()
		return false
	}
}

// Chan - channel to read from
func (q *Queue) Chan() <-chan Message {
	return q.queue
}

// Dropped - number of messages lost to a full queue
func (q *Queue) Dropped() uint64 {
	return q.dropped.Uint64()
}
