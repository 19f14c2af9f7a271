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

package flash

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gostor/gosg/mock"
	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/scsi"
	"github.com/gostor/gosg/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drive emulates a MATSHITA drive that reassembles what it is flashed.
type drive struct {
	dev      *mock.Device
	header   []byte
	payload  []byte
	writes   int
	finished bool
	failAt   int
}

func newDrive(vendor string) *drive {
	d := &drive{failAt: -1}
	lu := scsi.NewSCSILu(scsi.TYPE_MMC, scsi.SCSILuAttrs{
		Vendor:    vendor,
		Product:   "DVD-RAM UJ-85J",
		Revision:  "1.00",
		Removable: true,
	})
	lu.Handle(WriteOpcode, func(lu *scsi.SCSILu, cmd *scsi.SCSICommand) byte {
		off := int(util.GetUnalignedUint32(append([]byte{0}, cmd.SCB[3:6]...)))
		n := int(util.GetUnalignedUint32(append([]byte{0}, cmd.SCB[6:9]...)))
		if d.writes == d.failAt || n != len(cmd.Out) || off != len(d.payload) {
			cmd.Sense = scsi.BuildSenseData(scsi.ILLEGAL_REQUEST, scsi.ASC_INVALID_FIELD_IN_CDB, false)
			return scsi.SAM_STAT_CHECK_CONDITION
		}
		d.writes++
		d.header = append([]byte(nil), cmd.Out[:HeaderLength]...)
		d.payload = append(d.payload, cmd.Out[HeaderLength:]...)
		return scsi.SAM_STAT_GOOD
	})
	lu.Handle(FinishOpcode, func(lu *scsi.SCSILu, cmd *scsi.SCSICommand) byte {
		d.finished = true
		return scsi.SAM_STAT_GOOD
	})
	d.dev = mock.NewDevice("/dev/sr0", lu)
	return d
}

func (d *drive) open(t *testing.T) *passthru.Session {
	sp := passthru.NewSession()
	_, err := sp.OpenWith(d.dev.Name, mock.NewDevices(d.dev).Open)
	require.NoError(t, err)
	return sp
}

func image(n int) []byte {
	img := make([]byte, n)
	for i := range img {
		img[i] = byte(i * 7)
	}
	return img
}

func TestChunks(t *testing.T) {
	assert.Empty(t, Chunks(HeaderLength))
	assert.Equal(t, []Chunk{{0, 1}}, Chunks(HeaderLength+1))
	assert.Equal(t, []Chunk{{0, ChunkLength}}, Chunks(HeaderLength+ChunkLength))
	assert.Equal(t, []Chunk{{0, ChunkLength}, {ChunkLength, ChunkLength}, {2 * ChunkLength, 5}},
		Chunks(HeaderLength+2*ChunkLength+5))
}

func TestWriteCDB(t *testing.T) {
	cdb := WriteCDB(Chunk{Offset: 0x018000, Length: ChunkLength})
	assert.Equal(t, []byte{0xEA, 0, 0, 0x01, 0x80, 0x00, 0x00, 0x80, 0x30, 0, 0, 0}, cdb)
	assert.Equal(t, []byte{0xF5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, FinishCDB())
}

func TestIdentify(t *testing.T) {
	d := newDrive("MATSHITA")
	sp := d.open(t)
	defer sp.Close()
	id, err := Identify(sp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "MATSHITADVD-RAM UJ-85J"), id)

	other := newDrive("PLEXTOR")
	sp2 := other.open(t)
	defer sp2.Close()
	_, err = Identify(sp2)
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	d := newDrive("MATSHITA")
	sp := d.open(t)
	defer sp.Close()

	img := image(HeaderLength + 2*ChunkLength + 100)
	require.NoError(t, Write(sp, img))
	assert.Equal(t, 3, d.writes)
	assert.True(t, d.finished)
	assert.Equal(t, img[:HeaderLength], d.header)
	assert.True(t, bytes.Equal(img[HeaderLength:], d.payload))
	assert.Equal(t, TimeoutSeconds*time.Second, sp.Timeout())
}

func TestWriteStopsOnFailure(t *testing.T) {
	d := newDrive("MATSHITA")
	d.failAt = 1
	sp := d.open(t)
	defer sp.Close()

	err := Write(sp, image(HeaderLength+3*ChunkLength))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write at 0x8000")
	assert.Equal(t, 1, d.writes)
	assert.False(t, d.finished)
}

func TestWriteRejectsShortImage(t *testing.T) {
	d := newDrive("MATSHITA")
	sp := d.open(t)
	defer sp.Close()

	err := Write(sp, image(MinImageLength-1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
	assert.Empty(t, d.dev.Commands())
}
