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

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sgGetVersionNum = 0x2282
	sgIO            = 0x2285
)

// SCSI generic ioctl header, defined as sg_io_hdr_t in <scsi/sg.h>
type sgIoHdr struct {
	interfaceID    int32   // 'S' for SCSI generic (required)
	dxferDirection int32   // data transfer direction
	cmdLen         uint8   // SCSI command length
	mxSbLen        uint8   // max length to write to sbp
	iovecCount     uint16  // 0 implies no scatter gather
	dxferLen       uint32  // byte count of data transfer
	dxferp         uintptr // points to data transfer memory
	cmdp           uintptr // points to command to perform
	sbp            uintptr // points to sense_buffer memory
	timeout        uint32  // MAX_UINT -> no timeout (unit: millisec)
	flags          uint32  // 0 -> default, see SG_FLAG...
	packID         int32   // unused internally (normally)
	usrPtr         uintptr // unused internally
	status         uint8   // SCSI status
	maskedStatus   uint8   // shifted, masked scsi status
	msgStatus      uint8   // messaging level data (optional)
	sbLenWr        uint8   // byte count actually written to sbp
	hostStatus     uint16  // errors from host adapter
	driverStatus   uint16  // errors from software driver
	resid          int32   // dxfer_len - actual_transferred
	duration       uint32  // time taken by cmd (unit: millisec)
	info           uint32  // auxiliary information
}

type sgDevice struct {
	fd int
}

// OpenSG opens a SCSI generic capable device read-only and non-blocking.
func OpenSG(name string) (Transport, error) {
	fd, err := unix.Open(name, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	return &sgDevice{fd: fd}, nil
}

func (d *sgDevice) Fd() int {
	return d.fd
}

func (d *sgDevice) Version() (int, error) {
	v, err := unix.IoctlGetInt(d.fd, sgGetVersionNum)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (d *sgDevice) Close() error {
	return unix.Close(d.fd)
}

func bufAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func (d *sgDevice) Execute(req *Request) error {
	hdr := sgIoHdr{
		interfaceID:    req.InterfaceID,
		dxferDirection: int32(req.Direction),
		cmdLen:         uint8(len(req.Command)),
		mxSbLen:        uint8(len(req.Sense)),
		dxferLen:       uint32(len(req.Data)),
		dxferp:         bufAddr(req.Data),
		cmdp:           bufAddr(req.Command),
		sbp:            bufAddr(req.Sense),
		timeout:        req.Timeout,
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), sgIO, uintptr(unsafe.Pointer(&hdr)))
	runtime.KeepAlive(req)

	req.Status = hdr.status
	req.MaskedStatus = hdr.maskedStatus
	req.SenseWritten = int(hdr.sbLenWr)
	req.HostStatus = hdr.hostStatus
	req.DriverStatus = hdr.driverStatus
	req.Residue = int(hdr.resid)
	req.Duration = hdr.duration
	req.Info = hdr.info
	if errno != 0 {
		return errno
	}
	return nil
}
