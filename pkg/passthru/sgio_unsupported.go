//go:build !linux
// +build !linux

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
	"errors"
	"os"
)

// ErrUnsupported is returned by OpenSG where SG_IO does not exist.
var ErrUnsupported = errors.New("SG_IO pass thru is not supported on this platform")

func OpenSG(name string) (Transport, error) {
	return nil, &os.PathError{Op: "open", Path: name, Err: ErrUnsupported}
}
