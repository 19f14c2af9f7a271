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
	"math"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	fd         int
	version    int
	versionErr error
	closeErr   error
	closed     int
	executed   int
	exec       func(req *Request) error
	last       Request
}

func newFake(fd int) *fakeTransport {
	return &fakeTransport{fd: fd, version: 30536}
}

func (f *fakeTransport) Fd() int               { return f.fd }
func (f *fakeTransport) Version() (int, error) { return f.version, f.versionErr }

func (f *fakeTransport) Execute(req *Request) error {
	f.executed++
	f.last = *req
	if f.exec != nil {
		return f.exec(req)
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed++
	return f.closeErr
}

func opener(f *fakeTransport) Opener {
	return func(name string) (Transport, error) {
		return f, nil
	}
}

func openFake(t *testing.T, f *fakeTransport) *Session {
	s := NewSession()
	fd, err := s.OpenWith("/dev/sg0", opener(f))
	require.NoError(t, err)
	require.Equal(t, f.fd, fd)
	return s
}

// assertFatal runs fn and checks it panics with a *ContractError for op.
func assertFatal(t *testing.T, op string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected %s to be fatal", op)
		err, ok := r.(*ContractError)
		require.True(t, ok, "panic value %#v is not a *ContractError", r)
		assert.Equal(t, op, err.Op)
	}()
	fn()
}

func TestNewSessionIsReset(t *testing.T) {
	s := NewSession()
	assert.Equal(t, -1, s.Fd())
	req := s.Request()
	assert.EqualValues(t, 'S', req.InterfaceID)
	assert.Equal(t, DirNone, req.Direction)
	assert.Nil(t, req.Command)
	assert.Nil(t, req.Data)
	assert.Len(t, req.Sense, UsualSense)
	assert.EqualValues(t, UsualSeconds*1000, req.Timeout)
	assert.Equal(t, UsualSeconds*time.Second, s.Timeout())
}

func TestResetIsIdempotent(t *testing.T) {
	s := NewSession()
	s.SetCommand([]byte{0x12, 0, 0, 0, 0x24, 0})
	s.SetData(make([]byte, 36))
	s.SetSense(make([]byte, 4))
	s.SetTimeout(3, 0)
	s.Reset()
	once := s.Request()
	s.Reset()
	assert.Equal(t, once, s.Request())
	assert.Nil(t, once.Command)
	assert.Len(t, once.Sense, UsualSense)
}

func TestOpen(t *testing.T) {
	f := newFake(7)
	s := openFake(t, f)
	assert.Equal(t, 7, s.Fd())
	assert.Equal(t, DirNone, s.Request().Direction)
	s.Close()
	assert.Equal(t, 1, f.closed)
	assert.Equal(t, -1, s.Fd())
}

func TestOpenFailure(t *testing.T) {
	s := NewSession()
	s.SetTimeout(1, 0)
	fd, err := s.OpenWith("/dev/nope", func(name string) (Transport, error) {
		return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ENOENT}
	})
	assert.Equal(t, -1, fd)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, -1, s.Fd())
	// the request is reset even though nothing opened
	assert.EqualValues(t, UsualSeconds*1000, s.Request().Timeout)
}

func TestOpenOldDriver(t *testing.T) {
	cases := map[string]*fakeTransport{
		"OldVersion":   {fd: 4, version: 29999},
		"VersionError": {fd: 4, versionErr: syscall.ENOTTY},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewSession()
			fd, err := s.OpenWith("/dev/sda", opener(f))
			assert.Equal(t, -1, fd)
			var perr *os.PathError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, syscall.EINVAL, perr.Err)
			assert.Equal(t, 1, f.closed)
			assert.Equal(t, -1, s.Fd())
		})
	}
}

func TestOpenMinVersion(t *testing.T) {
	f := newFake(5)
	f.version = MinVersion
	s := openFake(t, f)
	assert.Equal(t, 5, s.Fd())
}

func TestOpenClosesPrevious(t *testing.T) {
	first := newFake(3)
	second := newFake(4)
	s := openFake(t, first)
	fd, err := s.OpenWith("/dev/sg1", opener(second))
	require.NoError(t, err)
	assert.Equal(t, 4, fd)
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 0, second.closed)
}

func TestCloseIsFatalWhenClosed(t *testing.T) {
	s := NewSession()
	assertFatal(t, "close", s.Close)

	f := newFake(3)
	s = openFake(t, f)
	s.Close()
	assertFatal(t, "close", s.Close)
}

func TestCloseFailureIsFatal(t *testing.T) {
	f := newFake(3)
	f.closeErr = syscall.EIO
	s := openFake(t, f)
	assertFatal(t, "close", s.Close)
}

func TestSetCommand(t *testing.T) {
	s := NewSession()
	cdb := make([]byte, MaxCommand)
	assert.Equal(t, cdb, s.SetCommand(cdb))
	assertFatal(t, "cdb", func() { s.SetCommand(make([]byte, MaxCommand+1)) })
}

func TestSetSense(t *testing.T) {
	s := NewSession()
	sense := make([]byte, MaxSense)
	assert.Len(t, s.SetSense(sense), MaxSense)
	assert.Len(t, s.SetSense(nil), 0)
	assertFatal(t, "sense", func() { s.SetSense(make([]byte, MaxSense+1)) })
}

func TestSetData(t *testing.T) {
	s := NewSession()
	data := make([]byte, 1<<20)
	assert.Len(t, s.SetData(data), 1<<20)
	assert.Nil(t, s.SetData(nil))

	checkDataLength(MaxData)
	assertFatal(t, "data", func() { checkDataLength(MaxData + 1) })
}

func TestSetTimeout(t *testing.T) {
	cases := map[string]struct {
		sec, nsec int32
		want      int32
		timeout   time.Duration
	}{
		"Zero":            {0, 0, 0, 0},
		"OneNanosecond":   {0, 1, 1000000, time.Millisecond},
		"WholeSeconds":    {2, 0, 0, 2 * time.Second},
		"RoundsUp":        {1, 500, 1000000, 1001 * time.Millisecond},
		"ExactMillis":     {1, 250000000, 250000000, 1250 * time.Millisecond},
		"UsualSeconds":    {UsualSeconds, 0, 0, UsualSeconds * time.Second},
		"LargestAccepted": {math.MaxInt32 / 1000, 0, 0, math.MaxInt32 / 1000 * time.Second},
	}
	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewSession()
			assert.Equal(t, tt.want, s.SetTimeout(tt.sec, tt.nsec))
			assert.Equal(t, tt.timeout, s.Timeout())
		})
	}
}

func TestSetTimeoutOverflowIsFatal(t *testing.T) {
	s := NewSession()
	assertFatal(t, "timeout", func() { s.SetTimeout(math.MaxInt32/1000+1, 0) })
	// rounding up into the next second is refused as well
	assertFatal(t, "timeout", func() { s.SetTimeout(0, 999999999) })
}

func TestSpeakClosed(t *testing.T) {
	s := NewSession()
	assert.Equal(t, Thru, s.Speak())
	assert.Equal(t, Thru, s.Read(make([]byte, 4)))
}

func TestTransfers(t *testing.T) {
	sense := []byte{0x70, 0, 5, 0, 0, 0, 0, 0x0A, 0, 0, 0, 0, 0x20, 0x00, 0, 0, 0, 0}
	cases := map[string]struct {
		write   bool
		length  int
		exec    func(req *Request) error
		want    Status
		enough  int
		senseN  int
		senseOK bool
	}{
		"Complete": {
			length: 20,
			exec:   func(req *Request) error { return nil },
			want:   0,
			enough: 20,
		},
		"Short": {
			length: 20,
			exec: func(req *Request) error {
				req.Residue = 5
				return nil
			},
			want:   5,
			enough: 15,
		},
		"NegativeResidue": {
			length: 20,
			exec: func(req *Request) error {
				req.Residue = -1
				return nil
			},
			want:   Thru | DataThru,
			enough: 21,
		},
		"IoctlFailed": {
			length: 20,
			exec:   func(req *Request) error { return syscall.EIO },
			want:   Thru,
			enough: 20,
		},
		"SenseOverflow": {
			length: 20,
			exec: func(req *Request) error {
				req.Info = 1
				req.SenseWritten = len(req.Sense) + 1
				return nil
			},
			want:   Thru | SenseThru,
			enough: 20,
			senseN: UsualSense + 1,
		},
		"CheckCondition": {
			length: 20,
			exec: func(req *Request) error {
				req.Info = 1
				req.Status = 0x02
				req.Residue = 20
				req.SenseWritten = copy(req.Sense, sense)
				return nil
			},
			want:    Thru | SenseFlag | ResidueFlag | 0x00052000,
			enough:  0,
			senseN:  UsualSense,
			senseOK: true,
		},
		"Write": {
			write:  true,
			length: 8,
			exec: func(req *Request) error {
				if req.Direction != DirToDev {
					return syscall.EINVAL
				}
				return nil
			},
			want:   0,
			enough: 8,
		},
	}
	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFake(3)
			f.exec = tt.exec
			s := openFake(t, f)
			s.SetCommand([]byte{0x28, 0, 0, 0, 0, 0, 0, 0, 1, 0})

			buf := make([]byte, tt.length)
			var st Status
			if tt.write {
				st = s.Write(buf)
				assert.Equal(t, DirToDev, f.last.Direction)
			} else {
				st = s.Read(buf)
				assert.Equal(t, DirFromDev, f.last.Direction)
			}
			assert.Equal(t, tt.want, st, "got %v", st)
			assert.Equal(t, tt.enough, s.DataEnough())
			assert.Equal(t, tt.senseN, s.SenseEnough())
			if tt.senseOK {
				assert.Equal(t, sense[:UsualSense], s.SenseBytes())
			} else if tt.senseN > UsualSense {
				assert.Nil(t, s.SenseBytes())
			}
			assert.Equal(t, 1, f.executed)
		})
	}
}

func TestSpeakUsesCurrentRequest(t *testing.T) {
	f := newFake(3)
	s := openFake(t, f)
	cdb := []byte{0x00, 0, 0, 0, 0, 0}
	s.SetCommand(cdb)
	s.SetTimeout(10, 0)
	assert.Equal(t, Status(0), s.Speak())
	assert.Equal(t, DirNone, f.last.Direction)
	assert.Equal(t, cdb, f.last.Command)
	assert.EqualValues(t, 10000, f.last.Timeout)
	assert.Len(t, f.last.Sense, UsualSense)
}
