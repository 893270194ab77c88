// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus_test

import (
	"testing"

	"github.com/truemark/skgd/messagebus"
)

func TestQueue(t *testing.T) {

	items := []messagebus.Message{
		{From: "c1", Item: 1},
		{From: "c2", Item: 2},
		{From: "c3", Item: 3},
	}

	q := messagebus.New(10)
	for _, item := range items {
		if !q.Send(item.From, item.Item) {
			t.Errorf("send dropped: %q", item.From)
		}
	}

	queue := q.Chan()
	for _, item := range items {
		received := <-queue
		if received.From != item.From || received.Item != item.Item {
			t.Errorf("actual: %v  expected: %v", received, item)
		}
	}
}

func TestFullQueueDrops(t *testing.T) {

	q := messagebus.New(2)
	for i := 0; i < 5; i += 1 {
		q.Send("test", i)
	}

	if 3 != q.Dropped() {
		t.Errorf("dropped actual: %d  expected: 3", q.Dropped())
	}

	received := <-q.Chan()
	if 0 != received.Item {
		t.Errorf("actual: %v  expected: oldest message", received.Item)
	}
}

func TestDefaultSize(t *testing.T) {

	q := messagebus.New(0)
	for i := 0; i < messagebus.DefaultQueueSize; i += 1 {
		if !q.Send("test", i) {
			t.Fatalf("dropped at: %d", i)
		}
	}
	if q.Send("test", -1) {
		t.Error("queue larger than default")
	}
}
