/*
Copyright 2016 The GoStor Authors All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package passthru speaks arbitrary SCSI commands to a device through the
// Linux SG_IO pass thru and compresses the outcome into one Status.
//
// A Session is one open device plus one mutable request. It is not safe for
// concurrent use. Command, data and sense buffers are borrowed, not copied:
// the caller keeps them alive and unaliased until the pass thru returns.
package passthru

import (
	"errors"
	"fmt"
	"math"
	"os"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// MaxCommand is the most CDB bytes sg_io_hdr_t can describe.
	MaxCommand = 0xFF
	// MaxSense is the most sense bytes sg_io_hdr_t can describe.
	MaxSense = 0xFF
	// MaxData is the most data bytes one pass thru moves, so that every
	// residue fits a clean Status.
	MaxData = math.MaxInt32
	// UsualSense is enough to include every field SPC-2 names.
	UsualSense = 0x12
	// UsualSeconds is 28 hours, more than a day, for slow burns and formats.
	UsualSeconds = 28 * 60 * 60
)

var errClosed = errors.New("session is closed")

// ContractError describes a caller breaking the Session contract. It is
// raised with panic, never returned.
type ContractError struct {
	Op    string
	Value int64
	Err   error
}

func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %d is too large", e.Op, e.Value)
}

func fatal(err *ContractError) {
	log.WithFields(log.Fields{"op": err.Op, "value": err.Value}).Error(err)
	panic(err)
}

type Session struct {
	dev   Transport
	req   Request
	sense [MaxSense]byte
}

// NewSession returns a closed Session with a freshly reset request.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Fd returns the descriptor of the open device, or -1 when closed.
func (s *Session) Fd() int {
	if s.dev == nil {
		return -1
	}
	return s.dev.Fd()
}

// Open connects to the named device and returns its descriptor, else -1 and
// an error. A device whose sg driver predates SG_IO v3 fails with EINVAL.
func (s *Session) Open(name string) (int, error) {
	return s.OpenWith(name, OpenSG)
}

// OpenWith is Open with the Transport supplied by open.
func (s *Session) OpenWith(name string, open Opener) (int, error) {
	if s.dev != nil {
		s.Close()
	}
	dev, err := open(name)
	s.Reset()
	if err != nil {
		return -1, err
	}
	s.dev = dev

	version, err := dev.Version()
	if err == nil && version >= MinVersion {
		log.Debugf("opened %s as fd %d, sg version %d", name, dev.Fd(), version)
		return dev.Fd(), nil
	}
	log.Warnf("%s: sg version %d (%v) is older than %d", name, version, err, MinVersion)
	s.Close()
	return -1, &os.PathError{Op: "open", Path: name, Err: syscall.EINVAL}
}

// Close disconnects. Closing a closed Session, or a failing close, is fatal.
func (s *Session) Close() {
	if s.dev == nil {
		fatal(&ContractError{Op: "close", Value: -1, Err: errClosed})
	}
	if err := s.dev.Close(); err != nil {
		fatal(&ContractError{Op: "close", Value: int64(s.dev.Fd()), Err: err})
	}
	s.dev = nil
}

// Reset begins a new command but stays connected.
func (s *Session) Reset() {
	s.req = Request{
		InterfaceID: sgInterfaceID,
		Direction:   DirNone,
	}
	s.SetSense(s.sense[:UsualSense])
	s.SetTimeout(UsualSeconds, 0)
}

// SetCommand hints which CDB to copy out and returns it.
func (s *Session) SetCommand(cdb []byte) []byte {
	if len(cdb) > MaxCommand {
		fatal(&ContractError{Op: "cdb", Value: int64(len(cdb))})
	}
	s.req.Command = cdb
	return s.req.Command
}

// SetData hints where and how much data to copy in or out and returns it.
func (s *Session) SetData(data []byte) []byte {
	checkDataLength(int64(len(data)))
	s.req.Data = data
	return s.req.Data
}

func checkDataLength(n int64) {
	if n > MaxData {
		fatal(&ContractError{Op: "data", Value: n})
	}
}

// SetSense hints where and how much sense to copy in and returns it.
func (s *Session) SetSense(sense []byte) []byte {
	if len(sense) > MaxSense {
		fatal(&ContractError{Op: "sense", Value: int64(len(sense))})
	}
	s.req.Sense = sense
	return s.req.Sense
}

// SetTimeout hints when to time out and reset, rounding up to the next
// millisecond. It returns the nanoseconds past the whole second kept.
func (s *Session) SetTimeout(sec, nsec int32) int32 {
	ms := sec*1000 + (nsec+999999)/1000/1000
	if ms/1000 != sec {
		fatal(&ContractError{Op: "timeout", Value: int64(sec)})
	}
	s.req.Timeout = uint32(ms)
	return int32(s.req.Timeout%1000) * 1000 * 1000
}

func (s *Session) Timeout() time.Duration {
	return time.Duration(s.req.Timeout) * time.Millisecond
}

// Speak passes the request thru once in its current direction.
func (s *Session) Speak() Status {
	req := &s.req
	err := errClosed
	if s.dev != nil {
		err = s.dev.Execute(req)
	}
	st := encodeStatus(outcome{
		err:          err,
		max:          len(req.Data),
		residue:      req.Residue,
		info:         req.Info,
		senseMax:     len(req.Sense),
		senseWritten: req.SenseWritten,
		sense:        req.Sense,
	})

	log.WithFields(log.Fields{
		"fd":        s.Fd(),
		"direction": req.Direction,
		"cdb":       len(req.Command),
		"data":      len(req.Data),
		"timeout":   req.Timeout,
	}).Debugf("pass thru: %v (err %v)", st, err)
	return st
}

// Read passes thru and copies up to len(to) bytes in.
func (s *Session) Read(to []byte) Status {
	s.SetData(to)
	s.req.Direction = DirFromDev
	return s.Speak()
}

// Write passes thru and copies len(from) bytes out.
func (s *Session) Write(from []byte) Status {
	s.SetData(from)
	s.req.Direction = DirToDev
	return s.Speak()
}

// Request returns a copy of the current request and its last result.
func (s *Session) Request() Request {
	return s.req
}

// Residue returns the residue reported by the last pass thru.
func (s *Session) Residue() int {
	return s.req.Residue
}

// DataEnough returns the last length of data copied in or out.
func (s *Session) DataEnough() int {
	return len(s.req.Data) - s.req.Residue
}

// SenseEnough returns the last length of sense copied in.
func (s *Session) SenseEnough() int {
	return s.req.SenseWritten
}

// SenseBytes returns the sense copied in by the last pass thru.
func (s *Session) SenseBytes() []byte {
	n := s.req.SenseWritten
	if n < 0 || n > len(s.req.Sense) {
		return nil
	}
	return s.req.Sense[:n]
}
