// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truemark/skgd/fault"
)

var (
	ErrExistsOne   = fault.ExistsError("exists one ")
	ErrExistsTwo   = fault.ExistsError("exists two")
	ErrInvalidOne  = fault.InvalidError("invalid one")
	ErrInvalidTwo  = fault.InvalidError("invalid two")
	ErrNotFoundOne = fault.NotFoundError("not found one")
	ErrNotFoundTwo = fault.NotFoundError("not found two")
	ErrProcessOne  = fault.ProcessError("process one")
	ErrProcessTwo  = fault.ProcessError("process two")
	ErrRecordOne   = fault.RecordError("record one")
	ErrRecordTwo   = fault.RecordError("record two")
)

// test that the error classes can be distinguished
func TestClasses(t *testing.T) {
	errorList := []struct {
		err      error
		exists   bool
		invalid  bool
		notFound bool
		process  bool
		record   bool
	}{
		{ErrExistsOne, true, false, false, false, false},
		{ErrExistsTwo, true, false, false, false, false},
		{ErrInvalidOne, false, true, false, false, false},
		{ErrInvalidTwo, false, true, false, false, false},
		{ErrNotFoundOne, false, false, true, false, false},
		{ErrNotFoundTwo, false, false, true, false, false},
		{ErrProcessOne, false, false, false, true, false},
		{ErrProcessTwo, false, false, false, true, false},
		{ErrRecordOne, false, false, false, false, true},
		{ErrRecordTwo, false, false, false, false, true},
		{fmt.Errorf("wrapped: %w", ErrRecordTwo), false, false, false, false, true},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
		if fault.IsErrRecord(err) != e.record {
			t.Errorf("%d: expected 'record' == %v for err = %v", i, e.record, err)
		}
	}
}

func TestStructuredErrors(t *testing.T) {
	missing := fault.MissingField("dals_serial")
	assert.True(t, fault.IsErrMissingField(missing), "missing field not detected")
	assert.True(t, fault.IsErrMissingField(fmt.Errorf("ingest: %w", missing)), "wrapped missing field not detected")
	assert.False(t, fault.IsErrSchemaViolation(missing), "missing field seen as schema violation")
	assert.Equal(t, "missing field: dals_serial", missing.Error(), "wrong message")

	schema := fault.SchemaViolation("identity", "wallet_address", "required")
	assert.True(t, fault.IsErrSchemaViolation(schema), "schema violation not detected")
	assert.Equal(t, "schema violation: identity.wallet_address: required", schema.Error(), "wrong message")

	conflict := &fault.ReplayConflictError{ID: "cert:A", Version: 2, First: "T1", Second: "T2"}
	assert.True(t, fault.IsErrReplayConflict(conflict), "replay conflict not detected")
	assert.False(t, fault.IsErrDanglingEdge(conflict), "replay conflict seen as dangling edge")

	dangling := fault.DanglingEdge("edge:1", "owner:X")
	assert.True(t, fault.IsErrDanglingEdge(dangling), "dangling edge not detected")
	assert.False(t, fault.IsErrReplayConflict(nil), "nil seen as replay conflict")
}
