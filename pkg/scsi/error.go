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

import "fmt"

const (
	NO_SENSE        byte = 0x00
	RECOVERED_ERROR byte = 0x01
	NOT_READY       byte = 0x02
	MEDIUM_ERROR    byte = 0x03
	HARDWARE_ERROR  byte = 0x04
	ILLEGAL_REQUEST byte = 0x05
	UNIT_ATTENTION  byte = 0x06
	DATA_PROTECT    byte = 0x07
	BLANK_CHECK     byte = 0x08
	VENDOR_SPECIFIC byte = 0x09
	COPY_ABORTED    byte = 0x0a
	ABORTED_COMMAND byte = 0x0b
	VOLUME_OVERFLOW byte = 0x0d
	MISCOMPARE      byte = 0x0e
)

var senseKeyNames = map[byte]string{
	NO_SENSE:        "no sense",
	RECOVERED_ERROR: "recovered error",
	NOT_READY:       "not ready",
	MEDIUM_ERROR:    "medium error",
	HARDWARE_ERROR:  "hardware error",
	ILLEGAL_REQUEST: "illegal request",
	UNIT_ATTENTION:  "unit attention",
	DATA_PROTECT:    "data protect",
	BLANK_CHECK:     "blank check",
	VENDOR_SPECIFIC: "vendor specific",
	COPY_ABORTED:    "copy aborted",
	ABORTED_COMMAND: "aborted command",
	VOLUME_OVERFLOW: "volume overflow",
	MISCOMPARE:      "miscompare",
}

// SenseKeyName returns the SPC name of a sense key.
func SenseKeyName(key byte) string {
	if name, ok := senseKeyNames[key]; ok {
		return name
	}
	return fmt.Sprintf("sense key %#x", key)
}

// SCSISubError is ASC in the high byte and ASCQ in the low byte.
type SCSISubError uint16

func (e SCSISubError) ASC() byte {
	return byte(e >> 8)
}

func (e SCSISubError) ASCQ() byte {
	return byte(e)
}

const (
	// Key 0: No Sense Errors
	NO_ADDITIONAL_SENSE         SCSISubError = 0x0000
	ASC_MARK                    SCSISubError = 0x0001
	ASC_EOM                     SCSISubError = 0x0002
	ASC_BOM                     SCSISubError = 0x0004
	ASC_END_OF_DATA             SCSISubError = 0x0005
	ASC_OP_IN_PROGRESS          SCSISubError = 0x0016
	ASC_DRIVE_REQUIRES_CLEANING SCSISubError = 0x8282

	// Key 1: Recovered Errors
	ASC_WRITE_ERROR            SCSISubError = 0x0c00
	ASC_READ_ERROR             SCSISubError = 0x1100
	ASC_RECOVERED_WITH_RETRYS  SCSISubError = 0x1701
	ASC_MEDIA_LOAD_EJECT_ERROR SCSISubError = 0x5300
	ASC_FAILURE_PREDICTION     SCSISubError = 0x5d00

	// Key 2: Not ready
	ASC_CAUSE_NOT_REPORTABLE    SCSISubError = 0x0400
	ASC_BECOMING_READY          SCSISubError = 0x0401
	ASC_INITIALIZING_REQUIRED   SCSISubError = 0x0402
	ASC_CLEANING_CART_INSTALLED SCSISubError = 0x3003
	ASC_CLEANING_FAILURE        SCSISubError = 0x3007
	ASC_MEDIUM_NOT_PRESENT      SCSISubError = 0x3a00
	ASC_LOGICAL_UNIT_NOT_CONFIG SCSISubError = 0x3e00

	// Key 3: Medium Errors
	ASC_UNRECOVERED_READ           SCSISubError = 0x1100
	ASC_RECORDED_ENTITY_NOT_FOUND  SCSISubError = 0x1400
	ASC_UNKNOWN_FORMAT             SCSISubError = 0x3001
	ASC_IMCOMPATIBLE_FORMAT        SCSISubError = 0x3002
	ASC_MEDIUM_FORMAT_CORRUPT      SCSISubError = 0x3100
	ASC_SEQUENTIAL_POSITION_ERR    SCSISubError = 0x3b00
	ASC_WRITE_APPEND_ERR           SCSISubError = 0x5000
	ASC_CARTRIDGE_FAULT            SCSISubError = 0x5200
	ASC_MEDIA_LOAD_OR_EJECT_FAILED SCSISubError = 0x5300

	// Key 4: Hardware Failure
	ASC_COMPRESSION_CHECK            SCSISubError = 0x0c04
	ASC_DECOMPRESSION_CRC            SCSISubError = 0x110d
	ASC_MECHANICAL_POSITIONING_ERROR SCSISubError = 0x1501
	ASC_MANUAL_INTERVENTION_REQ      SCSISubError = 0x0403
	ASC_HARDWARE_FAILURE             SCSISubError = 0x4000
	ASC_INTERNAL_TGT_FAILURE         SCSISubError = 0x4400
	ASC_ERASE_FAILURE                SCSISubError = 0x5100

	// Key 5: Illegal Request
	ASC_PARAMETER_LIST_LENGTH_ERR                 SCSISubError = 0x1a00
	ASC_INVALID_OP_CODE                           SCSISubError = 0x2000
	ASC_LBA_OUT_OF_RANGE                          SCSISubError = 0x2100
	ASC_INVALID_FIELD_IN_CDB                      SCSISubError = 0x2400
	ASC_LUN_NOT_SUPPORTED                         SCSISubError = 0x2500
	ASC_INVALID_FIELD_IN_PARMS                    SCSISubError = 0x2600
	ASC_INVALID_RELEASE_OF_PERSISTENT_RESERVATION SCSISubError = 0x2604
	ASC_INCOMPATIBLE_FORMAT                       SCSISubError = 0x3005
	ASC_SAVING_PARMS_UNSUP                        SCSISubError = 0x3900
	ASC_MEDIUM_DEST_FULL                          SCSISubError = 0x3b0d
	ASC_MEDIUM_SRC_EMPTY                          SCSISubError = 0x3b0e
	ASC_POSITION_PAST_BOM                         SCSISubError = 0x3b0c
	ASC_MEDIUM_REMOVAL_PREVENTED                  SCSISubError = 0x5302
	ASC_INSUFFICENT_REGISTRATION_RESOURCES        SCSISubError = 0x5504
	ASC_BAD_MICROCODE_DETECTED                    SCSISubError = 0x8283

	// Key 6: Unit Attention
	ASC_NOT_READY_TO_TRANSITION         SCSISubError = 0x2800
	ASC_POWERON_RESET                   SCSISubError = 0x2900
	ASC_I_T_NEXUS_LOSS_OCCURRED         SCSISubError = 0x2907
	ASC_MODE_PARAMETERS_CHANGED         SCSISubError = 0x2a01
	ASC_RESERVATIONS_PREEMPTED          SCSISubError = 0x2a03
	ASC_RESERVATIONS_RELEASED           SCSISubError = 0x2a04
	ASC_INSUFFICIENT_TIME_FOR_OPERATION SCSISubError = 0x2e00
	ASC_CMDS_CLEARED_BY_ANOTHER_INI     SCSISubError = 0x2f00
	ASC_MICROCODE_DOWNLOADED            SCSISubError = 0x3f01
	ASC_INQUIRY_DATA_HAS_CHANGED        SCSISubError = 0x3f03
	ASC_REPORTED_LUNS_DATA_HAS_CHANGED  SCSISubError = 0x3f0e
	ASC_FAILURE_PREDICTION_FALSE        SCSISubError = 0x5dff

	// Data Protect
	ASC_WRITE_PROTECT              SCSISubError = 0x2700
	ASC_MEDIUM_OVERWRITE_ATTEMPTED SCSISubError = 0x300c

	// Miscompare
	ASC_MISCOMPARE_DURING_VERIFY_OPERATION SCSISubError = 0x1d00
)

type subErrorName struct {
	key  byte
	asc  SCSISubError
	name string
}

// The same ASC/ASCQ may read differently under different keys, so keep the
// key next to the name and look the pair up first.
var subErrorNames = []subErrorName{
	{NO_SENSE, NO_ADDITIONAL_SENSE, "no additional sense information"},
	{NO_SENSE, ASC_MARK, "filemark detected"},
	{NO_SENSE, ASC_EOM, "end-of-partition/medium detected"},
	{NO_SENSE, ASC_BOM, "beginning-of-partition/medium detected"},
	{NO_SENSE, ASC_END_OF_DATA, "end-of-data detected"},
	{NO_SENSE, ASC_OP_IN_PROGRESS, "operation in progress"},
	{NO_SENSE, ASC_DRIVE_REQUIRES_CLEANING, "drive requires cleaning"},

	{RECOVERED_ERROR, ASC_WRITE_ERROR, "write error"},
	{RECOVERED_ERROR, ASC_READ_ERROR, "read error"},
	{RECOVERED_ERROR, ASC_RECOVERED_WITH_RETRYS, "recovered data with retries"},
	{RECOVERED_ERROR, ASC_MEDIA_LOAD_EJECT_ERROR, "media load or eject failed"},
	{RECOVERED_ERROR, ASC_FAILURE_PREDICTION, "failure prediction threshold exceeded"},

	{NOT_READY, ASC_CAUSE_NOT_REPORTABLE, "logical unit not ready, cause not reportable"},
	{NOT_READY, ASC_BECOMING_READY, "logical unit is in process of becoming ready"},
	{NOT_READY, ASC_INITIALIZING_REQUIRED, "logical unit not ready, initializing command required"},
	{NOT_READY, ASC_CLEANING_CART_INSTALLED, "cleaning cartridge installed"},
	{NOT_READY, ASC_CLEANING_FAILURE, "cleaning failure"},
	{NOT_READY, ASC_MEDIUM_NOT_PRESENT, "medium not present"},
	{NOT_READY, ASC_LOGICAL_UNIT_NOT_CONFIG, "logical unit has not self-configured yet"},

	{MEDIUM_ERROR, ASC_UNRECOVERED_READ, "unrecovered read error"},
	{MEDIUM_ERROR, ASC_RECORDED_ENTITY_NOT_FOUND, "recorded entity not found"},
	{MEDIUM_ERROR, ASC_UNKNOWN_FORMAT, "cannot read medium, unknown format"},
	{MEDIUM_ERROR, ASC_IMCOMPATIBLE_FORMAT, "cannot read medium, incompatible format"},
	{MEDIUM_ERROR, ASC_MEDIUM_FORMAT_CORRUPT, "medium format corrupted"},
	{MEDIUM_ERROR, ASC_SEQUENTIAL_POSITION_ERR, "sequential positioning error"},
	{MEDIUM_ERROR, ASC_WRITE_APPEND_ERR, "write append error"},
	{MEDIUM_ERROR, ASC_CARTRIDGE_FAULT, "cartridge fault"},
	{MEDIUM_ERROR, ASC_MEDIA_LOAD_OR_EJECT_FAILED, "media load or eject failed"},

	{HARDWARE_ERROR, ASC_COMPRESSION_CHECK, "compression check miscompare error"},
	{HARDWARE_ERROR, ASC_DECOMPRESSION_CRC, "decompression crc error"},
	{HARDWARE_ERROR, ASC_MECHANICAL_POSITIONING_ERROR, "mechanical positioning error"},
	{HARDWARE_ERROR, ASC_MANUAL_INTERVENTION_REQ, "logical unit not ready, manual intervention required"},
	{HARDWARE_ERROR, ASC_HARDWARE_FAILURE, "diagnostic failure"},
	{HARDWARE_ERROR, ASC_INTERNAL_TGT_FAILURE, "internal target failure"},
	{HARDWARE_ERROR, ASC_ERASE_FAILURE, "erase failure"},

	{ILLEGAL_REQUEST, ASC_PARAMETER_LIST_LENGTH_ERR, "parameter list length error"},
	{ILLEGAL_REQUEST, ASC_INVALID_OP_CODE, "invalid command operation code"},
	{ILLEGAL_REQUEST, ASC_LBA_OUT_OF_RANGE, "logical block address out of range"},
	{ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_CDB, "invalid field in cdb"},
	{ILLEGAL_REQUEST, ASC_LUN_NOT_SUPPORTED, "logical unit not supported"},
	{ILLEGAL_REQUEST, ASC_INVALID_FIELD_IN_PARMS, "invalid field in parameter list"},
	{ILLEGAL_REQUEST, ASC_INVALID_RELEASE_OF_PERSISTENT_RESERVATION, "invalid release of persistent reservation"},
	{ILLEGAL_REQUEST, ASC_INCOMPATIBLE_FORMAT, "incompatible medium installed"},
	{ILLEGAL_REQUEST, ASC_SAVING_PARMS_UNSUP, "saving parameters not supported"},
	{ILLEGAL_REQUEST, ASC_MEDIUM_DEST_FULL, "medium destination element full"},
	{ILLEGAL_REQUEST, ASC_MEDIUM_SRC_EMPTY, "medium source element empty"},
	{ILLEGAL_REQUEST, ASC_POSITION_PAST_BOM, "position past beginning of medium"},
	{ILLEGAL_REQUEST, ASC_MEDIUM_REMOVAL_PREVENTED, "medium removal prevented"},
	{ILLEGAL_REQUEST, ASC_INSUFFICENT_REGISTRATION_RESOURCES, "insufficient registration resources"},
	{ILLEGAL_REQUEST, ASC_BAD_MICROCODE_DETECTED, "bad microcode detected"},

	{UNIT_ATTENTION, ASC_NOT_READY_TO_TRANSITION, "not ready to ready change, medium may have changed"},
	{UNIT_ATTENTION, ASC_POWERON_RESET, "power on, reset, or bus device reset occurred"},
	{UNIT_ATTENTION, ASC_I_T_NEXUS_LOSS_OCCURRED, "i_t nexus loss occurred"},
	{UNIT_ATTENTION, ASC_MODE_PARAMETERS_CHANGED, "mode parameters changed"},
	{UNIT_ATTENTION, ASC_RESERVATIONS_PREEMPTED, "reservations preempted"},
	{UNIT_ATTENTION, ASC_RESERVATIONS_RELEASED, "reservations released"},
	{UNIT_ATTENTION, ASC_INSUFFICIENT_TIME_FOR_OPERATION, "insufficient time for operation"},
	{UNIT_ATTENTION, ASC_CMDS_CLEARED_BY_ANOTHER_INI, "commands cleared by another initiator"},
	{UNIT_ATTENTION, ASC_MICROCODE_DOWNLOADED, "microcode has been changed"},
	{UNIT_ATTENTION, ASC_INQUIRY_DATA_HAS_CHANGED, "inquiry data has changed"},
	{UNIT_ATTENTION, ASC_REPORTED_LUNS_DATA_HAS_CHANGED, "reported luns data has changed"},
	{UNIT_ATTENTION, ASC_FAILURE_PREDICTION_FALSE, "failure prediction threshold exceeded (false)"},

	{DATA_PROTECT, ASC_WRITE_PROTECT, "write protected"},
	{DATA_PROTECT, ASC_MEDIUM_OVERWRITE_ATTEMPTED, "medium overwrite attempted"},

	{MISCOMPARE, ASC_MISCOMPARE_DURING_VERIFY_OPERATION, "miscompare during verify operation"},
}

// SubErrorName returns the name of an ASC/ASCQ pair, preferring the name
// tabulated under key. It returns "" for pairs it does not know.
func SubErrorName(key byte, asc SCSISubError) string {
	var fallback string
	for _, e := range subErrorNames {
		if e.asc != asc {
			continue
		}
		if e.key == key {
			return e.name
		}
		if fallback == "" {
			fallback = e.name
		}
	}
	return fallback
}
