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

import (
	"fmt"
	"math"
	"strings"

	"github.com/gostor/gosg/pkg/scsi"
)

// Status is the result of one pass-through. Zero is ok, positive is the
// residue of a clean transfer, negative is trouble qualified by the bits below.
type Status int32

const (
	Thru        Status = math.MinInt32 // 0x80000000, negative trouble
	DataThru    Status = 0x40000000    // data not counted
	SenseThru   Status = 0x20000000    // sense not counted
	Compare     Status = 0x02000000    // copied wrong data, never set here
	ResidueFlag Status = 0x01000000    // copied too much or too little data
	SenseFlag   Status = 0x00800000    // intelligible sense copied in
	Deferred    Status = 0x00400000    // sense is not current
	SKMask      Status = 0x000F0000
	ASCMask     Status = 0x0000FF00
	ASCQMask    Status = 0x000000FF

	SKASCMask     = SKMask | ASCMask
	SKASCASCQMask = SKMask | ASCMask | ASCQMask
)

// lsb zeroes all but the least significant set bit of a mask.
func lsb(mask Status) Status {
	return mask & -mask
}

func field(s, mask Status) byte {
	return byte((s & mask) / lsb(mask))
}

// Failed reports whether the Thru bit is set.
func (s Status) Failed() bool {
	return s&Thru != 0
}

// Shortfall returns the residue of a clean transfer, or zero when Failed.
func (s Status) Shortfall() int {
	if s.Failed() {
		return 0
	}
	return int(s)
}

// Has reports whether every bit of flag is set in a failed status.
func (s Status) Has(flag Status) bool {
	return s.Failed() && s&flag == flag
}

func (s Status) SenseKey() byte {
	if !s.Has(SenseFlag) {
		return 0
	}
	return field(s, SKMask)
}

func (s Status) ASC() byte {
	if !s.Has(SenseFlag) {
		return 0
	}
	return field(s, ASCMask)
}

func (s Status) ASCQ() byte {
	if !s.Has(SenseFlag) {
		return 0
	}
	return field(s, ASCQMask)
}

// SubError packs ASC and ASCQ the way pkg/scsi tabulates them.
func (s Status) SubError() scsi.SCSISubError {
	return scsi.SCSISubError(uint16(s.ASC())<<8 | uint16(s.ASCQ()))
}

var flagNames = []struct {
	flag Status
	name string
}{
	{DataThru, "data-thru"},
	{SenseThru, "sense-thru"},
	{Compare, "compare"},
	{ResidueFlag, "residue"},
	{SenseFlag, "sense"},
	{Deferred, "deferred"},
}

func (s Status) String() string {
	switch {
	case s == 0:
		return "ok"
	case !s.Failed():
		return fmt.Sprintf("residue %d", int32(s))
	}
	parts := []string{"thru"}
	for _, f := range flagNames {
		if s.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	if s.Has(SenseFlag) {
		key := s.SenseKey()
		parts = append(parts, fmt.Sprintf("sk=%#x asc=%#02x ascq=%#02x", key, s.ASC(), s.ASCQ()))
		desc := scsi.SenseKeyName(key)
		if name := scsi.SubErrorName(key, s.SubError()); name != "" {
			desc += ": " + name
		}
		parts = append(parts, "("+desc+")")
	}
	return strings.Join(parts, " ")
}

// Decode converts a printed status back to a Status. Both the signed and the
// unsigned 32-bit spellings of a negative status are accepted.
func Decode(v int64) (Status, error) {
	if v < math.MinInt32 || v > math.MaxUint32 {
		return 0, fmt.Errorf("bad parameter: status %d does not fit in 32 bits", v)
	}
	return Status(int32(uint32(v))), nil
}
