// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
	"fmt"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type RecordError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised           = ExistsError("already initialised")
	ErrCertificateFileAlreadyExists = ExistsError("certificate file already exists")
	ErrEmptyWorkerID                = InvalidError("worker id is empty")
	ErrFingerprintMismatch          = InvalidError("certificate fingerprint mismatch")
	ErrFlushTimeout                 = ProcessError("transaction log flush timed out")
	ErrIncompatibleIndexVersion     = RecordError("incompatible wallet index version")
	ErrInvalidConfidence            = InvalidError("edge confidence is outside 0..1")
	ErrInvalidCount                 = InvalidError("invalid count")
	ErrInvalidDuration              = InvalidError("invalid duration")
	ErrInvalidFingerprint           = InvalidError("invalid certificate fingerprint")
	ErrInvalidIPAddress             = InvalidError("invalid IP address")
	ErrInvalidIndexType             = InvalidError("invalid wallet index type")
	ErrInvalidLoggerChannel         = InvalidError("invalid logger channel")
	ErrInvalidPayload               = InvalidError("invalid payload")
	ErrInvalidPortNumber            = InvalidError("invalid port number")
	ErrInvalidPrivateKeyFile        = InvalidError("invalid private key file")
	ErrInvalidPublicKeyFile         = InvalidError("invalid public key file")
	ErrInvalidStructPointer         = InvalidError("invalid struct pointer")
	ErrInvalidWorkerID              = InvalidError("worker id must be a plain name")
	ErrKeyFileAlreadyExists         = ExistsError("key file already exists")
	ErrLogClosed                    = ProcessError("transaction log is closed")
	ErrLogLocked                    = ExistsError("transaction log is in use by another writer")
	ErrLogPoisoned                  = ProcessError("transaction log refused: an earlier write stalled")
	ErrMalformedRecord              = RecordError("malformed log record")
	ErrMissingParameters            = InvalidError("missing parameters")
	ErrNotAConfigurationFile        = InvalidError("not a configuration file")
	ErrNotAcceptingIngestion        = ProcessError("engine is not accepting ingestion")
	ErrNotInitialised               = NotFoundError("not initialised")
	ErrRateLimiting                 = InvalidError("rate limiting")
	ErrVersionConflict              = RecordError("node version conflict")
)

// the error interface methods
func (e GenericError) Error() string  { return string(e) }
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e RecordError) Error() string   { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrExists(e error) bool   { var t ExistsError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool  { var t InvalidError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool { var t NotFoundError; return errors.As(e, &t) }
func IsErrProcess(e error) bool  { var t ProcessError; return errors.As(e, &t) }
func IsErrRecord(e error) bool   { var t RecordError; return errors.As(e, &t) }

// MissingFieldError - a required payload field was absent or blank
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

// MissingField - construct a missing field error
func MissingField(field string) error {
	return &MissingFieldError{Field: field}
}

// SchemaViolationError - node or edge properties do not satisfy the schema of their kind
type SchemaViolationError struct {
	Kind   string
	Key    string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation: %s.%s: %s", e.Kind, e.Key, e.Reason)
}

// SchemaViolation - construct a schema violation error
func SchemaViolation(kind string, key string, reason string) error {
	return &SchemaViolationError{Kind: kind, Key: key, Reason: reason}
}

// ReplayConflictError - two log records disagree on the same node version
type ReplayConflictError struct {
	ID      string
	Version int
	First   string // transaction holding the first record
	Second  string // transaction holding the conflicting record
}

func (e *ReplayConflictError) Error() string {
	return fmt.Sprintf("replay conflict: %s version %d differs between %s and %s", e.ID, e.Version, e.First, e.Second)
}

// DanglingEdgeError - an edge references a node the graph does not hold
type DanglingEdgeError struct {
	EdgeID string
	NodeID string
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("dangling edge: %s references unknown node: %s", e.EdgeID, e.NodeID)
}

// DanglingEdge - construct a dangling edge error
func DanglingEdge(edgeID string, nodeID string) error {
	return &DanglingEdgeError{EdgeID: edgeID, NodeID: nodeID}
}

func IsErrMissingField(e error) bool {
	var t *MissingFieldError
	return errors.As(e, &t)
}

func IsErrSchemaViolation(e error) bool {
	var t *SchemaViolationError
	return errors.As(e, &t)
}

func IsErrReplayConflict(e error) bool {
	var t *ReplayConflictError
	return errors.As(e, &t)
}

func IsErrDanglingEdge(e error) bool {
	var t *DanglingEdgeError
	return errors.As(e, &t)
}
