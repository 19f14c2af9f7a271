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

const (
	senseCurrent  byte = 0x70
	senseDeferred byte = 0x71
)

// DecodeSense folds fixed-format auto sense into a Status. The result always
// carries Thru; SenseFlag is added only when the sense is intelligible, that
// is at least three bytes with response code 0x70 or 0x71. The length of
// sense is taken as the count of valid bytes.
func DecodeSense(sense []byte) Status {
	st := Thru
	length := len(sense)
	if length <= 2 {
		return st
	}

	code := sense[0] & 0x7F
	if code != senseCurrent && code != senseDeferred {
		return st
	}
	st |= SenseFlag
	if code != senseCurrent {
		st |= Deferred
	}
	st |= Status(sense[2]&0x0F) * lsb(SKMask)

	// additional length, not quite like t10
	if length > 7 {
		if al := int(sense[7]); al != 0 {
			if max := 7 + 1 + al; max < length {
				length = max
			}
		}
	}

	if length > 0xC {
		st |= Status(sense[0xC]) * lsb(ASCMask)
	}
	if length > 0xD {
		st |= Status(sense[0xD]) * lsb(ASCQMask)
	}
	return st
}

// outcome is what the transport reports back about one pass-through.
type outcome struct {
	err          error
	max          int
	residue      int
	info         uint32
	senseMax     int
	senseWritten int
	sense        []byte
}

// encodeStatus compresses an outcome into one Status.
func encodeStatus(o outcome) Status {
	switch {
	case o.err != nil:
		// ioctl failed, indistinguishable from unintelligible sense
		return Thru
	case o.residue < 0 || o.residue > o.max:
		return Thru | DataThru
	case o.info&sgInfoOkMask != sgInfoOk:
		if o.senseWritten < 0 || o.senseWritten > o.senseMax {
			return Thru | SenseThru
		}
		st := DecodeSense(o.sense[:o.senseWritten])
		if o.residue != 0 {
			st |= ResidueFlag
		}
		return st
	}
	return Status(o.residue)
}
