/*
Copyright 2017 The GoStor Authors All rights reserved.

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

// Package api holds the types the gosg daemon and its clients exchange.
package api

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

// DataDirection names the direction of a command's data phase on the wire.
type DataDirection string

const (
	DataNone  DataDirection = "none"
	DataRead  DataDirection = "read"
	DataWrite DataDirection = "write"
)

// SessionOpenRequest opens a device in the daemon. A nil SenseLength and a
// zero TimeoutSeconds take the daemon's configured defaults.
type SessionOpenRequest struct {
	Device         string `json:"device"`
	SenseLength    *int   `json:"senseLength,omitempty"`
	TimeoutSeconds int32  `json:"timeoutSeconds,omitempty"`
}

type SessionInfo struct {
	ID             uuid.UUID `json:"id"`
	Device         string    `json:"device"`
	Fd             int       `json:"fd"`
	SenseLength    int       `json:"senseLength"`
	TimeoutSeconds int32     `json:"timeoutSeconds"`
	Commands       uint64    `json:"commands"`
	Opened         time.Time `json:"opened"`
}

type SessionListOptions struct {
	Device string
}

// CommandRequest is one pass thru. Data carries the bytes to write when
// Direction is write; Length is the bytes to read when Direction is read.
// A nil SenseLength keeps the session's.
type CommandRequest struct {
	CDB                []byte        `json:"cdb"`
	Direction          DataDirection `json:"direction"`
	Data               []byte        `json:"data,omitempty"`
	Length             int           `json:"length,omitempty"`
	SenseLength        *int          `json:"senseLength,omitempty"`
	TimeoutSeconds     int32         `json:"timeoutSeconds,omitempty"`
	TimeoutNanoseconds int32         `json:"timeoutNanoseconds,omitempty"`
}

// CommandResponse is the outcome of one pass thru. Status is the compact
// status integer; the decoded fields repeat parts of it for readability.
type CommandResponse struct {
	Status       int32  `json:"status"`
	Description  string `json:"description"`
	Failed       bool   `json:"failed"`
	SenseKey     byte   `json:"senseKey"`
	ASC          byte   `json:"asc"`
	ASCQ         byte   `json:"ascq"`
	Residue      int    `json:"residue"`
	DataEnough   int    `json:"dataEnough"`
	Data         []byte `json:"data,omitempty"`
	Sense        []byte `json:"sense,omitempty"`
	SCSIStatus   byte   `json:"scsiStatus"`
	HostStatus   uint16 `json:"hostStatus"`
	DriverStatus uint16 `json:"driverStatus"`
	DurationMs   uint32 `json:"durationMs"`
}

// StatusInfo is a status integer taken apart.
type StatusInfo struct {
	Status      int32  `json:"status"`
	Description string `json:"description"`
	Failed      bool   `json:"failed"`
	Shortfall   int    `json:"shortfall"`
	DataThru    bool   `json:"dataThru"`
	SenseThru   bool   `json:"senseThru"`
	Residue     bool   `json:"residue"`
	Sense       bool   `json:"sense"`
	Deferred    bool   `json:"deferred"`
	SenseKey    byte   `json:"senseKey"`
	ASC         byte   `json:"asc"`
	ASCQ        byte   `json:"ascq"`
}

type Version struct {
	Version string `json:"version"`
}
