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

// SCSICommand is one command as an emulated logical unit sees it.
type SCSICommand struct {
	SCB []byte
	// Out is the data the initiator sent.
	Out []byte
	// In is the data the logical unit returns.
	In []byte
	// Sense is set along with SAM_STAT_CHECK_CONDITION.
	Sense  []byte
	Status byte
}

// CommandFunc performs one opcode and returns the SAM status.
type CommandFunc func(lu *SCSILu, cmd *SCSICommand) byte

type SCSILuAttrs struct {
	Online    bool
	Removable bool
	// DescriptorSense reports sense in descriptor format instead of fixed.
	DescriptorSense bool
	Vendor          string
	Product         string
	Revision        string
	Serial          string
}

// SCSILu emulates a logical unit well enough to answer an initiator's
// housekeeping commands. It is not safe for concurrent use.
type SCSILu struct {
	Type       SCSIDeviceType
	Attrs      SCSILuAttrs
	BlockShift uint
	Size       uint64
	Prevent    int
	// Buffer holds the data of the last WRITE BUFFER.
	Buffer []byte

	ops       [256]CommandFunc
	lastSense []byte
}

// NewSCSILu returns an online logical unit of type t answering the
// primary commands, and the block commands when t is a disk.
func NewSCSILu(t SCSIDeviceType, attrs SCSILuAttrs) *SCSILu {
	lu := &SCSILu{
		Type:       t,
		Attrs:      attrs,
		BlockShift: 9,
		Size:       10 * 1024 * 1024,
	}
	lu.Attrs.Online = true
	initSPCOps(lu)
	if t == TYPE_DISK {
		initSBCOps(lu)
	}
	return lu
}

// Handle installs fn for opcode op, replacing any emulation of it.
func (lu *SCSILu) Handle(op SCSICommandType, fn CommandFunc) {
	lu.ops[op] = fn
}

// PerformCommand runs cmd and records its status. Sense from a check
// condition is kept for the next REQUEST SENSE.
func (lu *SCSILu) PerformCommand(cmd *SCSICommand) byte {
	if len(cmd.SCB) == 0 {
		return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_OP_CODE)
	}
	op := SCSICommandType(cmd.SCB[0])
	if need := SCSICDBLength(byte(op)); len(cmd.SCB) < need {
		return lu.checkCondition(cmd, ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB)
	}
	fn := lu.ops[op]
	if fn == nil {
		fn = SPCIllegalOp
	}
	cmd.Status = fn(lu, cmd)
	if op != REQUEST_SENSE {
		lu.lastSense = nil
		if cmd.Status == SAM_STAT_CHECK_CONDITION {
			lu.lastSense = cmd.Sense
		}
	}
	return cmd.Status
}

func (lu *SCSILu) checkCondition(cmd *SCSICommand, key byte, asc SCSISubError) byte {
	cmd.Sense = BuildSenseData(key, asc, lu.Attrs.DescriptorSense)
	cmd.Status = SAM_STAT_CHECK_CONDITION
	return cmd.Status
}

// reply returns data truncated to the allocation length.
func (cmd *SCSICommand) reply(data []byte, alloc int) byte {
	if len(data) > alloc {
		data = data[:alloc]
	}
	cmd.In = data
	return SAM_STAT_GOOD
}

func luPreventRemoval(lu *SCSILu) bool {
	return lu.Prevent != 0
}
