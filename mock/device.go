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

// Package mock provides sg devices emulated in memory, so sessions, the
// daemon and the command line can be exercised without a kernel.
package mock

import (
	"os"
	"sync"
	"syscall"

	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/scsi"
	log "github.com/sirupsen/logrus"
)

const (
	// DriverSense is the driver_status bit the sg driver sets with sense.
	DriverSense = 0x08

	sgInfoCheck = 0x1
	// sg 3.5.36
	defaultVersion = 30536
)

// Device is an emulated sg device node answering for one logical unit.
type Device struct {
	mu sync.Mutex

	Name string
	LU   *scsi.SCSILu
	// SGVersion is what SG_GET_VERSION_NUM reports.
	SGVersion  int
	VersionErr error
	// ExecErr fails every pass thru as if the ioctl had.
	ExecErr  error
	CloseErr error
	// Residue, when not nil, replaces the residue of the next pass thru.
	Residue *int
	// SenseWritten, when not nil, replaces the sense count of the next pass thru.
	SenseWritten *int

	fd       int
	open     bool
	commands [][]byte
}

// NewDevice returns a device named name answering for lu.
func NewDevice(name string, lu *scsi.SCSILu) *Device {
	return &Device{
		Name:      name,
		LU:        lu,
		SGVersion: defaultVersion,
	}
}

// NewDisk returns a device answering for an emulated disk.
func NewDisk(name string) *Device {
	return NewDevice(name, scsi.NewSCSILu(scsi.TYPE_DISK, scsi.SCSILuAttrs{
		Vendor:   "GOSTOR",
		Product:  "GOSG MOCK DISK",
		Revision: "0.1",
		Serial:   name,
	}))
}

func (d *Device) Fd() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return -1
	}
	return d.fd
}

func (d *Device) Version() (int, error) {
	return d.SGVersion, d.VersionErr
}

// Open marks the device open as fd.
func (d *Device) Open(fd int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fd = fd
	d.open = true
}

func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return syscall.EBADF
	}
	if d.CloseErr != nil {
		return d.CloseErr
	}
	d.open = false
	return nil
}

// Commands returns copies of the CDBs passed thru so far.
func (d *Device) Commands() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.commands...)
}

// Execute performs req on the logical unit the way the sg driver would
// report it back.
func (d *Device) Execute(req *passthru.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return syscall.EBADF
	}
	if d.ExecErr != nil {
		return d.ExecErr
	}
	d.commands = append(d.commands, append([]byte(nil), req.Command...))

	cmd := &scsi.SCSICommand{SCB: req.Command}
	if req.Direction == passthru.DirToDev {
		cmd.Out = req.Data
	}
	st := d.LU.PerformCommand(cmd)

	req.Status = st
	req.MaskedStatus = st >> 1
	req.HostStatus = 0
	req.DriverStatus = 0
	req.Info = 0
	req.Residue = 0
	req.SenseWritten = 0
	req.Duration = 1
	if req.Direction == passthru.DirFromDev {
		n := copy(req.Data, cmd.In)
		req.Residue = len(req.Data) - n
	}
	if st != scsi.SAM_STAT_GOOD {
		req.Info |= sgInfoCheck
		if len(cmd.Sense) > 0 {
			req.DriverStatus |= DriverSense
			req.SenseWritten = copy(req.Sense, cmd.Sense)
		}
	}
	if d.Residue != nil {
		req.Residue = *d.Residue
		d.Residue = nil
	}
	if d.SenseWritten != nil {
		req.SenseWritten = *d.SenseWritten
		req.Info |= sgInfoCheck
		d.SenseWritten = nil
	}
	log.Debugf("mock %s: op %#02x status %s residue %d", d.Name, req.Command[0], scsi.SAMStatName(st), req.Residue)
	return nil
}

// Devices is a set of emulated devices that open by name.
type Devices struct {
	mu     sync.Mutex
	byName map[string]*Device
	nextFd int
}

func NewDevices(devs ...*Device) *Devices {
	ds := &Devices{byName: make(map[string]*Device), nextFd: 3}
	for _, d := range devs {
		ds.Add(d)
	}
	return ds
}

func (ds *Devices) Add(d *Device) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.byName[d.Name] = d
}

func (ds *Devices) Get(name string) *Device {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.byName[name]
}

// Open is a passthru.Opener over the set.
func (ds *Devices) Open(name string) (passthru.Transport, error) {
	ds.mu.Lock()
	d, ok := ds.byName[name]
	fd := ds.nextFd
	ds.nextFd++
	ds.mu.Unlock()
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ENOENT}
	}
	d.Open(fd)
	return d, nil
}
