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

// SCSI primary command processing
package scsi

import (
	"bytes"

	"github.com/gostor/gosg/pkg/util"
	log "github.com/sirupsen/logrus"
)

const (
	// SPC-3
	inquiryVersion = 0x05
	// response data format 2, as SPC requires
	inquiryFormat = 0x02

	vpdSupportedPages = 0x00
	vpdUnitSerial     = 0x80
)

func initSPCOps(lu *SCSILu) {
	lu.ops[TEST_UNIT_READY] = SPCTestUnit
	lu.ops[REQUEST_SENSE] = SPCRequestSense
	lu.ops[INQUIRY] = SPCInquiry
	lu.ops[START_STOP] = SPCStartStop
	lu.ops[SEND_DIAGNOSTIC] = SPCSendDiagnostics
	lu.ops[ALLOW_MEDIUM_REMOVAL] = SPCPreventAllowMediaRemoval
	lu.ops[WRITE_BUFFER] = SPCWriteBuffer
	lu.ops[REPORT_LUNS] = SPCReportLuns
}

func SPCIllegalOp(lu *SCSILu, cmd *SCSICommand) byte {
	return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_OP_CODE)
}

// padded returns s as a field of n bytes, padded with spaces.
func padded(s string, n int) []byte {
	b := bytes.Repeat([]byte{' '}, n)
	copy(b, s)
	return b
}

func SPCInquiry(lu *SCSILu, cmd *SCSICommand) byte {
	var (
		buf   = &bytes.Buffer{}
		scb   = cmd.SCB
		evpd  = scb[1]&0x01 != 0
		pcode = scb[2]
		alloc = int(util.GetUnalignedUint16(scb[3:5]))
		b     = byte(lu.Type) & 0x1f
	)
	if !evpd {
		if pcode != 0 {
			return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
		}
		buf.WriteByte(b)
		if lu.Attrs.Removable {
			buf.WriteByte(0x80)
		} else {
			buf.WriteByte(0x00)
		}
		buf.WriteByte(inquiryVersion)
		buf.WriteByte(inquiryFormat)
		// additional length, patched below
		buf.WriteByte(0x00)
		buf.Write([]byte{0x00, 0x00, 0x02})
		buf.Write(padded(lu.Attrs.Vendor, 8))
		buf.Write(padded(lu.Attrs.Product, 16))
		buf.Write(padded(lu.Attrs.Revision, 4))
		data := buf.Bytes()
		data[4] = byte(len(data) - 5)
		return cmd.reply(data, alloc)
	}

	switch pcode {
	case vpdSupportedPages:
		buf.Write([]byte{b, vpdSupportedPages, 0x00, 0x02, vpdSupportedPages, vpdUnitSerial})
	case vpdUnitSerial:
		buf.Write([]byte{b, vpdUnitSerial, 0x00, byte(len(lu.Attrs.Serial))})
		buf.WriteString(lu.Attrs.Serial)
	default:
		log.Debugf("inquiry: vpd page %#02x is not supported", pcode)
		return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
	}
	return cmd.reply(buf.Bytes(), alloc)
}

// SPCRequestSense returns the sense of the last failed command, or NO SENSE.
func SPCRequestSense(lu *SCSILu, cmd *SCSICommand) byte {
	sense := lu.lastSense
	lu.lastSense = nil
	if sense == nil {
		sense = BuildSenseData(NO_SENSE, NO_ADDITIONAL_SENSE, lu.Attrs.DescriptorSense)
	}
	return cmd.reply(sense, int(cmd.SCB[4]))
}

func SPCReportLuns(lu *SCSILu, cmd *SCSICommand) byte {
	alloc := util.GetUnalignedUint32(cmd.SCB[6:10])
	if alloc < 16 {
		log.Warningf("goto sense, allocationLength < 16")
		return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
	}
	// one LUN, 0
	data := append(util.MarshalUint32(8), make([]byte, 12)...)
	return cmd.reply(data, int(alloc))
}

func SPCStartStop(lu *SCSILu, cmd *SCSICommand) byte {
	scb := cmd.SCB
	pwrcnd := scb[4] & 0xf0
	if pwrcnd != 0 {
		return SAM_STAT_GOOD
	}

	loej := scb[4] & 0x02
	start := scb[4] & 0x01

	if loej != 0 && start == 0 && lu.Attrs.Removable {
		if luPreventRemoval(lu) {
			if lu.Attrs.Online {
				//  online == media is present
				return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_MEDIUM_REMOVAL_PREVENTED)
			}
			return lu.checkCondition(cmd, NOT_READY, ASC_MEDIUM_REMOVAL_PREVENTED)
		}
		lu.Attrs.Online = false
	}
	if loej != 0 && start != 0 && lu.Attrs.Removable {
		lu.Attrs.Online = true
	}
	return SAM_STAT_GOOD
}

func SPCTestUnit(lu *SCSILu, cmd *SCSICommand) byte {
	if lu.Attrs.Online {
		return SAM_STAT_GOOD
	}
	if lu.Attrs.Removable {
		return lu.checkCondition(cmd, NOT_READY, ASC_MEDIUM_NOT_PRESENT)
	}
	return lu.checkCondition(cmd, NOT_READY, ASC_BECOMING_READY)
}

func SPCPreventAllowMediaRemoval(lu *SCSILu, cmd *SCSICommand) byte {
	// PREVENT_MASK = 0x03
	lu.Prevent = int(cmd.SCB[4] & 0x03)
	return SAM_STAT_GOOD
}

func SPCSendDiagnostics(lu *SCSILu, cmd *SCSICommand) byte {
	// we only support SELF-TEST==1
	if cmd.SCB[1]&0x04 == 0 {
		return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
	}
	return SAM_STAT_GOOD
}

// SPCWriteBuffer keeps the data of WRITE BUFFER, whose parameter list
// length must match what was sent.
func SPCWriteBuffer(lu *SCSILu, cmd *SCSICommand) byte {
	length := util.GetUnalignedUint32(append([]byte{0}, cmd.SCB[6:9]...))
	if int(length) != len(cmd.Out) {
		return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_PARAMETER_LIST_LENGTH_ERR)
	}
	lu.Buffer = append(lu.Buffer[:0], cmd.Out...)
	return SAM_STAT_GOOD
}
