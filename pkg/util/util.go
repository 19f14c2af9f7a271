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

// Package util provides some basic util functions.
package util

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

func GetUnalignedUint16(u8 []uint8) uint16 {
	return binary.BigEndian.Uint16(u8)
}

func GetUnalignedUint32(u8 []uint8) uint32 {
	return binary.BigEndian.Uint32(u8)
}

func GetUnalignedUint64(u8 []uint8) uint64 {
	return binary.BigEndian.Uint64(u8)
}

func MarshalUint16(i uint16) []byte {
	var data []byte
	for j := 8; j >= 0; j -= 8 {
		b := byte(i >> uint16(j))
		data = append(data, b)
	}
	return data
}

// MarshalUint24 returns the low three bytes of i, most significant first,
// as CDB offset and length fields often want.
func MarshalUint24(i uint32) []byte {
	var data []byte
	for j := 16; j >= 0; j -= 8 {
		b := byte(i >> uint32(j))
		data = append(data, b)
	}
	return data
}

func MarshalUint32(i uint32) []byte {
	var data []byte
	for j := 24; j >= 0; j -= 8 {
		b := byte(i >> uint32(j))
		data = append(data, b)
	}
	return data
}

func MarshalUint64(v uint64) []byte {
	var data = [8]byte{}
	var i = 0
	for j := 56; j >= 0; j -= 8 {
		data[i] = byte(v >> uint32(j))
		i++
	}
	return data[0:8]
}

// ParseHexBytes parses hex such as "12 00 00 00 24 00", "12:00:00" or
// "0x120000002400" into bytes.
func ParseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "-", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad parameter: %v", err)
	}
	return b, nil
}
