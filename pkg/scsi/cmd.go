/*
Copyright 2015 The GoStor Authors All rights reserved.

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
	"bytes"
	"fmt"

	"github.com/gostor/gosg/pkg/util"
)

type SCSICommandType byte

const (
	TEST_UNIT_READY      SCSICommandType = 0x00
	REQUEST_SENSE        SCSICommandType = 0x03
	INQUIRY              SCSICommandType = 0x12
	MODE_SENSE           SCSICommandType = 0x1a
	START_STOP           SCSICommandType = 0x1b
	SEND_DIAGNOSTIC      SCSICommandType = 0x1d
	ALLOW_MEDIUM_REMOVAL SCSICommandType = 0x1e
	READ_CAPACITY        SCSICommandType = 0x25
	WRITE_BUFFER         SCSICommandType = 0x3b
	READ_BUFFER          SCSICommandType = 0x3c
	SERVICE_ACTION_IN    SCSICommandType = 0x9e
	REPORT_LUNS          SCSICommandType = 0xa0
)

// Service actions of SERVICE ACTION IN(16).
const (
	SAI_READ_CAPACITY_16 = 0x10
)

const (
	CBD_GROUPID_0 = iota
	CBD_GROUPID_1
	CBD_GROUPID_2
	CBD_GROUPID_3
	CBD_GROUPID_4
	CBD_GROUPID_5
	CBD_GROUPID_6
	CBD_GROUPID_7
)

const (
	CDB_GROUP0 = 6  /*  6-byte commands */
	CDB_GROUP1 = 10 /* 10-byte commands */
	CDB_GROUP2 = 10 /* 10-byte commands */
	CDB_GROUP3 = 0  /* reserved */
	CDB_GROUP4 = 16 /* 16-byte commands */
	CDB_GROUP5 = 12 /* 12-byte commands */
	CDB_GROUP6 = 0  /* vendor specific  */
	CDB_GROUP7 = 0  /* vendor specific  */
)

var cdbGroupLength = [8]int{
	CDB_GROUP0, CDB_GROUP1, CDB_GROUP2, CDB_GROUP3,
	CDB_GROUP4, CDB_GROUP5, CDB_GROUP6, CDB_GROUP7,
}

func SCSICDBGroupID(opcode byte) byte {
	return ((opcode >> 5) & 0x7)
}

// SCSICDBLength returns the length the group of opcode implies, or 0 when
// the group is reserved or vendor specific.
func SCSICDBLength(opcode byte) int {
	return cdbGroupLength[SCSICDBGroupID(opcode)]
}

/*
 * Transfer Length (if any)
 * Parameter List Length (if any)
 * Allocation Length (if any)
 */
func SCSICDBBufXLength(scb []byte) (int64, bool) {
	var (
		opcode byte
		length int64
		group  byte
		ok     bool = true
	)
	if len(scb) == 0 {
		return 0, false
	}
	opcode = scb[0]
	group = SCSICDBGroupID(opcode)
	if need := SCSICDBLength(opcode); need == 0 && opcode != 0x7F {
		return 0, false
	} else if len(scb) < need {
		return 0, false
	}

	switch group {
	case CBD_GROUPID_0:
		length = int64(scb[4])
	case CBD_GROUPID_1, CBD_GROUPID_2:
		length = int64(util.GetUnalignedUint16(scb[7:9]))
	case CBD_GROUPID_3:
		if opcode == 0x7F && len(scb) > 7 {
			length = int64(scb[7])
		} else {
			ok = false
		}
	case CBD_GROUPID_4:
		length = int64(util.GetUnalignedUint32(scb[10:14]))
	case CBD_GROUPID_5:
		length = int64(util.GetUnalignedUint32(scb[6:10]))
	default:
		ok = false
	}
	return length, ok
}

// InquiryCDB builds a standard INQUIRY asking for alloc bytes.
func InquiryCDB(alloc uint16) []byte {
	cdb := make([]byte, CDB_GROUP0)
	cdb[0] = byte(INQUIRY)
	copy(cdb[3:5], util.MarshalUint16(alloc))
	return cdb
}

// TestUnitReadyCDB builds TEST UNIT READY, which moves no data.
func TestUnitReadyCDB() []byte {
	return make([]byte, CDB_GROUP0)
}

// RequestSenseCDB builds REQUEST SENSE asking for alloc bytes.
func RequestSenseCDB(alloc byte) []byte {
	cdb := make([]byte, CDB_GROUP0)
	cdb[0] = byte(REQUEST_SENSE)
	cdb[4] = alloc
	return cdb
}

// ReadCapacityCDB builds READ CAPACITY(10).
func ReadCapacityCDB() []byte {
	cdb := make([]byte, CDB_GROUP1)
	cdb[0] = byte(READ_CAPACITY)
	return cdb
}

// ReadCapacity16CDB builds READ CAPACITY(16) asking for alloc bytes.
func ReadCapacity16CDB(alloc uint32) []byte {
	cdb := make([]byte, CDB_GROUP4)
	cdb[0] = byte(SERVICE_ACTION_IN)
	cdb[1] = SAI_READ_CAPACITY_16
	copy(cdb[10:14], util.MarshalUint32(alloc))
	return cdb
}

// WriteBufferCDB builds WRITE BUFFER moving length bytes to offset of buffer id.
// Offset and length are 24-bit fields.
func WriteBufferCDB(mode, id byte, offset, length uint32) []byte {
	cdb := make([]byte, CDB_GROUP1)
	cdb[0] = byte(WRITE_BUFFER)
	cdb[1] = mode & 0x1f
	cdb[2] = id
	copy(cdb[3:6], util.MarshalUint24(offset))
	copy(cdb[6:9], util.MarshalUint24(length))
	return cdb
}

// InquiryData is the head of a standard INQUIRY response.
type InquiryData struct {
	Qualifier  byte
	DeviceType SCSIDeviceType
	Removable  bool
	Version    byte
	Vendor     string
	Product    string
	Revision   string
}

// InquiryReplyLength is the minimum length of a standard INQUIRY response.
const InquiryReplyLength = 36

// ParseInquiry decodes the first InquiryReplyLength bytes of buf.
func ParseInquiry(buf []byte) (InquiryData, error) {
	if len(buf) < InquiryReplyLength {
		return InquiryData{}, fmt.Errorf("inquiry data is %d bytes, want at least %d", len(buf), InquiryReplyLength)
	}
	return InquiryData{
		Qualifier:  buf[0] >> 5,
		DeviceType: SCSIDeviceType(buf[0] & 0x1f),
		Removable:  buf[1]&0x80 != 0,
		Version:    buf[2],
		Vendor:     string(bytes.TrimRight(buf[8:16], " \x00")),
		Product:    string(bytes.TrimRight(buf[16:32], " \x00")),
		Revision:   string(bytes.TrimRight(buf[32:36], " \x00")),
	}, nil
}

// ReadCapacity decodes a READ CAPACITY(10) response into the last LBA and
// the logical block length.
func ReadCapacity(buf []byte) (lastLBA uint32, blockLength uint32, err error) {
	if len(buf) < 8 {
		return 0, 0, fmt.Errorf("read capacity data is %d bytes, want 8", len(buf))
	}
	return util.GetUnalignedUint32(buf[0:4]), util.GetUnalignedUint32(buf[4:8]), nil
}

// ReadCapacity16 decodes a READ CAPACITY(16) response, for devices past the
// 32-bit LBAs of READ CAPACITY(10).
func ReadCapacity16(buf []byte) (lastLBA uint64, blockLength uint32, err error) {
	if len(buf) < 12 {
		return 0, 0, fmt.Errorf("read capacity(16) data is %d bytes, want 12", len(buf))
	}
	return util.GetUnalignedUint64(buf[0:8]), util.GetUnalignedUint32(buf[8:12]), nil
}
