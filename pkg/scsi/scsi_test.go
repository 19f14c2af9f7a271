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

package scsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSenseData(t *testing.T) {
	fixed := BuildSenseData(ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB, false)
	require.Len(t, fixed, 18)
	assert.EqualValues(t, 0x70, fixed[0])
	assert.EqualValues(t, ILLEGAL_REQUEST, fixed[2])
	assert.EqualValues(t, 0x0a, fixed[7])
	assert.EqualValues(t, 0x24, fixed[12])
	assert.EqualValues(t, 0x00, fixed[13])

	desc := BuildSenseData(NOT_READY, ASC_BECOMING_READY, true)
	assert.Equal(t, []byte{0x72, NOT_READY, 0x04, 0x01, 0, 0, 0, 0}, desc)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "illegal request", SenseKeyName(ILLEGAL_REQUEST))
	assert.Equal(t, "sense key 0xc", SenseKeyName(0x0c))
	assert.Equal(t, "check condition", SAMStatName(SAM_STAT_CHECK_CONDITION))
	assert.Equal(t, "status 0x07", SAMStatName(0x07))
	assert.Equal(t, "disk", TYPE_DISK.String())
	assert.Equal(t, "cd/dvd", TYPE_MMC.String())
	assert.Equal(t, "type 0x1f", SCSIDeviceType(0x1f).String())

	assert.Equal(t, "invalid field in cdb", SubErrorName(ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB))
	assert.Equal(t, "medium not present", SubErrorName(NOT_READY, ASC_MEDIUM_NOT_PRESENT))
	// a known pair under an unexpected key still has a name
	assert.Equal(t, "invalid field in cdb", SubErrorName(MEDIUM_ERROR, ASC_INVALID_FIELD_IN_CDB))
	assert.Equal(t, "", SubErrorName(ILLEGAL_REQUEST, 0xfefe))
	assert.EqualValues(t, 0x24, ASC_INVALID_FIELD_IN_CDB.ASC())
	assert.EqualValues(t, 0x01, ASC_BECOMING_READY.ASCQ())
}

func TestSCSICDBLength(t *testing.T) {
	cases := map[string]struct {
		opcode byte
		want   int
	}{
		"Group0":   {0x12, 6},
		"Group1":   {0x28, 10},
		"Group2":   {0x5a, 10},
		"Reserved": {0x7f, 0},
		"Group4":   {0x88, 16},
		"Group5":   {0xa8, 12},
		"Vendor6":  {0xc0, 0},
		"Vendor7":  {0xea, 0},
	}
	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, SCSICDBLength(tt.opcode))
		})
	}
}

func TestSCSICDBBufXLength(t *testing.T) {
	read16 := make([]byte, 16)
	read16[0] = 0x88
	read16[13] = 8
	read12 := make([]byte, 12)
	read12[0] = 0xa8
	read12[9] = 4
	cases := map[string]struct {
		cdb    []byte
		want   int64
		wantOK bool
	}{
		"Inquiry":   {InquiryCDB(36), 36, true},
		"Read10":    {[]byte{0x28, 0, 0, 0, 0, 0, 0, 0x01, 0x00, 0}, 256, true},
		"Read16":    {read16, 8, true},
		"Read12":    {read12, 4, true},
		"Empty":     {nil, 0, false},
		"Truncated": {[]byte{0x28, 0, 0}, 0, false},
		"Vendor":    {[]byte{0xea, 0, 0, 0, 0, 0}, 0, false},
	}
	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := SCSICDBBufXLength(tt.cdb)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCDBBuilders(t *testing.T) {
	assert.Equal(t, []byte{0x12, 0, 0, 0x01, 0x00, 0}, InquiryCDB(256))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, TestUnitReadyCDB())
	assert.Equal(t, []byte{0x03, 0, 0, 0, 18, 0}, RequestSenseCDB(18))
	assert.Len(t, ReadCapacityCDB(), 10)
}

func TestParseInquiry(t *testing.T) {
	buf := make([]byte, 36)
	buf[0] = 0x05
	buf[1] = 0x80
	copy(buf[8:], "MATSHITA")
	copy(buf[16:], "DVD-RAM UJ-85J  ")
	copy(buf[32:], "1.00")
	inq, err := ParseInquiry(buf)
	require.NoError(t, err)
	assert.Equal(t, TYPE_MMC, inq.DeviceType)
	assert.True(t, inq.Removable)
	assert.Equal(t, "MATSHITA", inq.Vendor)
	assert.Equal(t, "DVD-RAM UJ-85J", inq.Product)
	assert.Equal(t, "1.00", inq.Revision)

	_, err = ParseInquiry(buf[:35])
	assert.Error(t, err)
}
