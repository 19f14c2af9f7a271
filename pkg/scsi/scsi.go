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

// Package scsi holds the SCSI vocabulary shared by the pass thru, the
// daemon and the command line: sense keys, ASC/ASCQ, SAM status, CDBs.
package scsi

import "fmt"

type SCSIDeviceType byte

const (
	SAM_STAT_GOOD                       byte = 0x00
	SAM_STAT_CHECK_CONDITION            byte = 0x02
	SAM_STAT_CONDITION_MET              byte = 0x04
	SAM_STAT_BUSY                       byte = 0x08
	SAM_STAT_INTERMEDIATE               byte = 0x10
	SAM_STAT_INTERMEDIATE_CONDITION_MET byte = 0x14
	SAM_STAT_RESERVATION_CONFLICT       byte = 0x18
	SAM_STAT_COMMAND_TERMINATED         byte = 0x22
	SAM_STAT_TASK_SET_FULL              byte = 0x28
	SAM_STAT_ACA_ACTIVE                 byte = 0x30
	SAM_STAT_TASK_ABORTED               byte = 0x40
)

var samStatNames = map[byte]string{
	SAM_STAT_GOOD:                       "good",
	SAM_STAT_CHECK_CONDITION:            "check condition",
	SAM_STAT_CONDITION_MET:              "condition met",
	SAM_STAT_BUSY:                       "busy",
	SAM_STAT_INTERMEDIATE:               "intermediate",
	SAM_STAT_INTERMEDIATE_CONDITION_MET: "intermediate condition met",
	SAM_STAT_RESERVATION_CONFLICT:       "reservation conflict",
	SAM_STAT_COMMAND_TERMINATED:         "command terminated",
	SAM_STAT_TASK_SET_FULL:              "task set full",
	SAM_STAT_ACA_ACTIVE:                 "aca active",
	SAM_STAT_TASK_ABORTED:               "task aborted",
}

// SAMStatName names a SCSI status byte as returned in sg_io_hdr_t.status.
func SAMStatName(stat byte) string {
	if name, ok := samStatNames[stat]; ok {
		return name
	}
	return fmt.Sprintf("status %#02x", stat)
}

const (
	TYPE_DISK      SCSIDeviceType = 0x00
	TYPE_TAPE      SCSIDeviceType = 0x01
	TYPE_PRINTER   SCSIDeviceType = 0x02
	TYPE_PROCESSOR SCSIDeviceType = 0x03
	TYPE_WORM      SCSIDeviceType = 0x04
	TYPE_MMC       SCSIDeviceType = 0x05
	TYPE_SCANNER   SCSIDeviceType = 0x06
	TYPE_MOD       SCSIDeviceType = 0x07

	TYPE_MEDIUM_CHANGER SCSIDeviceType = 0x08
	TYPE_COMM           SCSIDeviceType = 0x09
	TYPE_RAID           SCSIDeviceType = 0x0c
	TYPE_ENCLOSURE      SCSIDeviceType = 0x0d
	TYPE_RBC            SCSIDeviceType = 0x0e
	TYPE_OSD            SCSIDeviceType = 0x11
	TYPE_NO_LUN         SCSIDeviceType = 0x7f
)

func (t SCSIDeviceType) String() string {
	switch t {
	case TYPE_DISK:
		return "disk"
	case TYPE_TAPE:
		return "tape"
	case TYPE_PRINTER:
		return "printer"
	case TYPE_PROCESSOR:
		return "processor"
	case TYPE_WORM:
		return "worm"
	case TYPE_MMC:
		return "cd/dvd"
	case TYPE_SCANNER:
		return "scanner"
	case TYPE_MOD:
		return "optical"
	case TYPE_MEDIUM_CHANGER:
		return "changer"
	case TYPE_COMM:
		return "comm"
	case TYPE_RAID:
		return "raid"
	case TYPE_ENCLOSURE:
		return "enclosure"
	case TYPE_RBC:
		return "rbc"
	case TYPE_OSD:
		return "osd"
	case TYPE_NO_LUN:
		return "no lun"
	}
	return fmt.Sprintf("type %#02x", byte(t))
}

// BuildSenseData returns sense data as a device would report it for key and
// asc, in descriptor format (0x72) or fixed format (0x70).
func BuildSenseData(key byte, asc SCSISubError, descriptor bool) []byte {
	if descriptor {
		// current, not deferred
		return []byte{0x72, key, asc.ASC(), asc.ASCQ(), 0, 0, 0, 0}
	}
	// fixed format, current, not deferred
	var length byte = 0xa
	sense := make([]byte, 8+int(length))
	sense[0] = 0x70
	sense[2] = key
	sense[7] = length
	sense[12] = asc.ASC()
	sense[13] = asc.ASCQ()
	return sense
}
