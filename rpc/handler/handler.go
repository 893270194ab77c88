// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/truemark/skgd/counter"
	"github.com/truemark/skgd/engine"
)

// access control names
const (
	AllowDetails     = "details"
	AllowConnections = "connections"
)

// Handler - the HTTPS endpoints
type Handler interface {
	RPC(http.ResponseWriter, *http.Request)
	Details(http.ResponseWriter, *http.Request)
	Connections(http.ResponseWriter, *http.Request)
	Root(http.ResponseWriter, *http.Request)
	SetAllow(map[string][]*net.IPNet)
}

// Status - source of the details report
type Status interface {
	Health() *engine.Health
}

// InternalConnection - allow the rpc system to read and write an http request
type InternalConnection struct {
	in  io.Reader
	out io.Writer
}

func (c *InternalConnection) Read(p []byte) (n int, err error) {
	return c.in.Read(p)
}
func (c *InternalConnection) Write(d []byte) (n int, err error) {
	return c.out.Write(d)
}
func (c *InternalConnection) Close() error {
	return nil
}

type httpHandler struct {
	log                *logger.L
	server             *rpc.Server
	start              time.Time
	version            string
	status             Status
	allow              map[string][]*net.IPNet
	count              counter.Counter
	maximumConnections uint64
}

// New - create the HTTPS handlers, status may be nil
func New(log *logger.L, server *rpc.Server, start time.Time, version string, maximumConnections uint64, status Status) Handler {
	return &httpHandler{
		log:                log,
		server:             server,
		start:              start,
		version:            version,
		status:             status,
		allow:              make(map[string][]*net.IPNet),
		maximumConnections: maximumConnections,
	}
}

// SetAllow - access control lists keyed by endpoint name
func (s *httpHandler) SetAllow(allow map[string][]*net.IPNet) {
	s.allow = allow
}

// Root - this matches anything not matched and returns error
func (s *httpHandler) Root(w http.ResponseWriter, r *http.Request) {
	sendNotFound(w)
}

// RPC - performs a call to any normal RPC
func (s *httpHandler) RPC(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if s.count.Increment() > s.maximumConnections {
		s.count.Decrement()
		sendTooManyRequests(w)
		return
	}
	defer s.count.Decrement()

	serverCodec := jsonrpc.NewServerCodec(&InternalConnection{in: r.Body, out: w})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	err := s.server.ServeRequest(serverCodec)
	if nil != err {
		s.log.Warnf("rpc from: %q  error: %s", r.RemoteAddr, err)
		sendInternalServerError(w)
		return
	}
}

// Details - the health report for a GET
func (s *httpHandler) Details(w http.ResponseWriter, r *http.Request) {
	if !s.permitted(w, r, AllowDetails) {
		return
	}
	defer s.count.Decrement()

	type theReply struct {
		*engine.Health
		Connections uint64 `json:"connections"`
		Version     string `json:"version"`
		Uptime      string `json:"uptime"`
	}

	reply := theReply{
		Connections: s.count.Uint64(),
		Version:     s.version,
		Uptime:      time.Since(s.start).String(),
	}
	if nil != s.status {
		reply.Health = s.status.Health()
	}

	sendReply(w, reply)
}

// Connections - current and maximum connection counts
func (s *httpHandler) Connections(w http.ResponseWriter, r *http.Request) {
	if !s.permitted(w, r, AllowConnections) {
		return
	}
	defer s.count.Decrement()

	type reply struct {
		Connections uint64 `json:"connections"`
		Maximum     uint64 `json:"maximum"`
	}

	sendReply(w, reply{
		Connections: s.count.Uint64(),
		Maximum:     s.maximumConnections,
	})
}

// check method, access list and connection limit
//
// on success the connection count has been incremented
func (s *httpHandler) permitted(w http.ResponseWriter, r *http.Request, name string) bool {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return false
	}

	if !s.allowed(r.RemoteAddr, name) {
		s.log.Warnf("deny access: %q  to: %s", r.RemoteAddr, name)
		sendForbidden(w)
		return false
	}

	if s.count.Increment() > s.maximumConnections {
		s.count.Decrement()
		sendTooManyRequests(w)
		return false
	}
	return true
}

func (s *httpHandler) allowed(remoteAddr string, name string) bool {
	last := strings.LastIndex(remoteAddr, ":")
	if last < 0 {
		return false
	}
	ip := net.ParseIP(strings.Trim(remoteAddr[:last], "[]"))
	if nil == ip {
		return false
	}
	for _, cidr := range s.allow[name] {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// send an JSON encoded reply
func sendReply(w http.ResponseWriter, data interface{}) {
	text, err := json.Marshal(data)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(text)
}

func sendNotFound(w http.ResponseWriter) {
	sendError(w, "not found", http.StatusNotFound)
}
func sendMethodNotAllowed(w http.ResponseWriter) {
	sendError(w, "method not allowed", http.StatusMethodNotAllowed)
}
func sendForbidden(w http.ResponseWriter) {
	sendError(w, "forbidden", http.StatusForbidden)
}
func sendTooManyRequests(w http.ResponseWriter) {
	sendError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
func sendInternalServerError(w http.ResponseWriter) {
	sendError(w, "internal server error", http.StatusInternalServerError)
}

type eType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, message string, code int) {
	text, err := json.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(text)
}
