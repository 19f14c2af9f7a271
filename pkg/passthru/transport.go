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

package passthru

// Direction is the data transfer direction of one pass-through, with the
// values of dxfer_direction in <scsi/sg.h>.
type Direction int32

const (
	DirNone    Direction = -1 // SG_DXFER_NONE
	DirToDev   Direction = -2 // SG_DXFER_TO_DEV
	DirFromDev Direction = -3 // SG_DXFER_FROM_DEV
)

func (d Direction) String() string {
	switch d {
	case DirNone:
		return "none"
	case DirToDev:
		return "write"
	case DirFromDev:
		return "read"
	}
	return "unknown"
}

const (
	sgInterfaceID = 'S'
	sgInfoOkMask  = 0x1
	sgInfoOk      = 0x0

	// MinVersion is the oldest sg driver with SG_IO, i.e. sg v3.
	MinVersion = 30000
)

// Request is the platform independent image of sg_io_hdr_t. The caller half
// is filled by the Session, the result half by the Transport.
type Request struct {
	InterfaceID int32
	Direction   Direction
	Command     []byte
	Data        []byte
	Sense       []byte
	Timeout     uint32 // ms

	Status       uint8
	MaskedStatus uint8
	SenseWritten int
	HostStatus   uint16
	DriverStatus uint16
	Residue      int
	Duration     uint32 // ms
	Info         uint32
}

// Transport is the kernel side of a Session: one open pass-through handle.
type Transport interface {
	// Fd returns the OS descriptor behind the transport.
	Fd() int
	// Version returns the sg driver version, e.g. 30536 for 3.5.36.
	Version() (int, error)
	// Execute issues one synchronous pass-through and fills the result half
	// of req. A non-nil error means the call itself failed.
	Execute(req *Request) error
	Close() error
}

// Opener opens the named device as a Transport.
type Opener func(name string) (Transport, error)
