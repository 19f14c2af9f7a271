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

// SCSI block command processing
package scsi

import "github.com/gostor/gosg/pkg/util"

func initSBCOps(lu *SCSILu) {
	lu.ops[READ_CAPACITY] = SBCReadCapacity
	lu.ops[MODE_SENSE] = SBCModeSense
	lu.ops[SERVICE_ACTION_IN] = SBCServiceAction
}

// SBCReadCapacity answers READ CAPACITY(10) with the last LBA and the block
// length, capping the LBA at 0xffffffff as SBC asks.
func SBCReadCapacity(lu *SCSILu, cmd *SCSICommand) byte {
	if !lu.Attrs.Online {
		return lu.checkCondition(cmd, NOT_READY, ASC_MEDIUM_NOT_PRESENT)
	}
	blocks := lu.Size >> lu.BlockShift
	lastLBA := uint32(0xffffffff)
	if blocks > 0 && blocks-1 < 0xffffffff {
		lastLBA = uint32(blocks - 1)
	}
	data := append(util.MarshalUint32(lastLBA), util.MarshalUint32(1<<lu.BlockShift)...)
	return cmd.reply(data, len(data))
}

// SBCReadCapacity16 answers READ CAPACITY(16) with the full 64-bit last LBA.
func SBCReadCapacity16(lu *SCSILu, cmd *SCSICommand) byte {
	if !lu.Attrs.Online {
		return lu.checkCondition(cmd, NOT_READY, ASC_MEDIUM_NOT_PRESENT)
	}
	var lastLBA uint64
	if blocks := lu.Size >> lu.BlockShift; blocks > 0 {
		lastLBA = blocks - 1
	}
	data := make([]byte, 32)
	copy(data[0:8], util.MarshalUint64(lastLBA))
	copy(data[8:12], util.MarshalUint32(1<<lu.BlockShift))
	return cmd.reply(data, int(util.GetUnalignedUint32(cmd.SCB[10:14])))
}

// SBCServiceAction dispatches SERVICE ACTION IN(16) on its service action.
func SBCServiceAction(lu *SCSILu, cmd *SCSICommand) byte {
	switch cmd.SCB[1] & 0x1f {
	case SAI_READ_CAPACITY_16:
		return SBCReadCapacity16(lu, cmd)
	}
	return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
}

// SBCModeSense answers MODE SENSE(6) with a bare header: no pages, no
// block descriptors.
func SBCModeSense(lu *SCSILu, cmd *SCSICommand) byte {
	pctrl := (cmd.SCB[2] & 0xc0) >> 6
	if pctrl == 3 {
		return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_SAVING_PARMS_UNSUP)
	}
	return cmd.reply([]byte{0x03, 0x00, 0x00, 0x00}, int(cmd.SCB[4]))
}
