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

// Package flash writes a firmware image to a MATSHITA optical drive thru a
// pass thru session, using the vendor's chunked write buffer commands.
package flash

import (
	"bytes"
	"fmt"

	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/scsi"
	"github.com/gostor/gosg/pkg/util"
	log "github.com/sirupsen/logrus"
)

const (
	// HeaderLength bytes lead the image and are resent before every chunk.
	HeaderLength = 0x30
	// ChunkLength is the most payload one write carries.
	ChunkLength = 0x8000
	// MinImageLength rejects files too short to be an image.
	MinImageLength = 0x120

	WriteOpcode  = 0xEA
	FinishOpcode = 0xF5

	// TimeoutSeconds applies to each command of the flash.
	TimeoutSeconds = 120

	identifyLength = 41
	finishLength   = 1024
	vendor         = "MATSHITA"
)

// Chunk is one write of the flash: Offset and Length locate the payload
// within the image, after the header.
type Chunk struct {
	Offset int
	Length int
}

// Chunks splits an image of imageLength bytes into the writes that carry it.
func Chunks(imageLength int) []Chunk {
	var chunks []Chunk
	for off := 0; HeaderLength+off < imageLength; off += ChunkLength {
		n := imageLength - HeaderLength - off
		if n > ChunkLength {
			n = ChunkLength
		}
		chunks = append(chunks, Chunk{Offset: off, Length: n})
	}
	return chunks
}

// WriteCDB builds the 12 byte vendor write for c. The transfer length
// counts the header too.
func WriteCDB(c Chunk) []byte {
	cdb := make([]byte, 12)
	cdb[0] = WriteOpcode
	copy(cdb[3:6], util.MarshalUint24(uint32(c.Offset)))
	copy(cdb[6:9], util.MarshalUint24(uint32(c.Length+HeaderLength)))
	return cdb
}

// FinishCDB builds the command that ends the flash.
func FinishCDB() []byte {
	cdb := make([]byte, 12)
	cdb[0] = FinishOpcode
	return cdb
}

// Identify returns the vendor and product of a MATSHITA device, or an error
// when the device answers for another vendor.
func Identify(sp *passthru.Session) (string, error) {
	buf := make([]byte, identifyLength)
	sp.SetCommand(scsi.InquiryCDB(scsi.InquiryReplyLength))
	if st := sp.Read(buf); st.Failed() {
		return "", fmt.Errorf("inquiry failed: %v", st)
	}
	id := buf[8 : identifyLength-1]
	if !bytes.EqualFold(id[:len(vendor)], []byte(vendor)) {
		return "", fmt.Errorf("does not appear to be a %s device", vendor)
	}
	if i := bytes.IndexByte(id, 0); i >= 0 {
		id = id[:i]
	}
	return string(id), nil
}

// Validate checks an image before anything is sent.
func Validate(image []byte) error {
	if len(image) < MinImageLength {
		return fmt.Errorf("bad parameter: flash data appears to be too short (%d bytes)", len(image))
	}
	return nil
}

// Write sends image to the device open in sp and then finishes the flash.
// Any write that does not complete cleanly stops the flash.
func Write(sp *passthru.Session, image []byte) error {
	if err := Validate(image); err != nil {
		return err
	}
	sp.SetTimeout(TimeoutSeconds, 0)

	payload := image[HeaderLength:]
	buf := make([]byte, HeaderLength+ChunkLength)
	copy(buf, image[:HeaderLength])
	for _, c := range Chunks(len(image)) {
		n := copy(buf[HeaderLength:], payload[c.Offset:c.Offset+c.Length])
		sp.SetCommand(WriteCDB(c))
		if st := sp.Write(buf[:HeaderLength+n]); st != 0 {
			return fmt.Errorf("write at %#x returned %#08x: %v", c.Offset, uint32(st), st)
		}
		log.Debugf("flashed %#x bytes at %#x", c.Length, c.Offset)
	}

	reply := make([]byte, finishLength)
	sp.SetCommand(FinishCDB())
	st := sp.Read(reply)
	log.Debugf("finish returned %#08x: %v", uint32(st), st)
	return nil
}
