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

package cmd

import (
	"bytes"
	"io/ioutil"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gostor/gosg/mock"
	"github.com/gostor/gosg/pkg/apiserver"
	"github.com/gostor/gosg/pkg/config"
	"github.com/gostor/gosg/pkg/service"
	"github.com/gostor/gosg/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the gosg command line against the mock devices and returns
// what it printed.
func run(t *testing.T, devices *mock.Devices, args ...string) (string, error) {
	t.Helper()
	opts := &cliOptions{open: devices.Open}
	cmd := newCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// newDaemon serves the API for devices over tcp and returns its host flag.
func newDaemon(t *testing.T, devices *mock.Devices) string {
	t.Helper()
	sessions := service.NewSessionService(config.Default(), devices.Open)
	s, err := apiserver.New(&apiserver.Config{Version: version.VERSION})
	require.NoError(t, err)
	s.InitRouters(sessions)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		sessions.Shutdown()
	})
	return "tcp://" + ts.Listener.Addr().String()
}

func TestParseHosts(t *testing.T) {
	addrs, err := parseHosts([]string{"tcp://127.0.0.1:23458", "unix:///run/gosg.sock", "fd://3"})
	require.NoError(t, err)
	assert.Equal(t, []apiserver.Addr{
		{Proto: "tcp", Addr: "127.0.0.1:23458"},
		{Proto: "unix", Addr: "/run/gosg.sock"},
		{Proto: "fd", Addr: "3"},
	}, addrs)

	_, err = parseHosts([]string{"127.0.0.1:23458"})
	assert.Error(t, err)
}

func TestSetLogLevel(t *testing.T) {
	for _, level := range []string{"", "info", "warn", "debug", "error", "fatal"} {
		assert.NoError(t, setLogLevel(level), level)
	}
	assert.Error(t, setLogLevel("verbose"))
}

func TestExecOptionsComplete(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload")
	require.NoError(t, ioutil.WriteFile(payload, []byte{1, 2, 3}, 0644))

	var tests = []struct {
		name    string
		opts    execOptions
		read    bool
		sense   bool
		timeout bool
		wantErr string
		check   func(t *testing.T, o execOptions)
	}{
		{
			name:    "no cdb",
			opts:    execOptions{},
			wantErr: "cdb length 0",
		},
		{
			name:    "bad hex",
			opts:    execOptions{cdb: "12 0g"},
			wantErr: "bad parameter",
		},
		{
			name: "speak",
			opts: execOptions{cdb: "00 00 00 00 00 00"},
			check: func(t *testing.T, o execOptions) {
				assert.Equal(t, "none", string(o.direction))
				assert.Len(t, o.cdbBytes, 6)
			},
		},
		{
			name: "read length from cdb",
			opts: execOptions{cdb: "12 00 00 00 24 00"},
			read: true,
			check: func(t *testing.T, o execOptions) {
				assert.Equal(t, 0x24, o.read)
			},
		},
		{
			name:    "read length not in cdb",
			opts:    execOptions{cdb: "ea 00 00 00 00 00 00 00 00 00 00 00"},
			read:    true,
			wantErr: "no transfer length",
		},
		{
			name:    "read too long",
			opts:    execOptions{cdb: "28 00 00 00 00 00 00 00 01 00", read: service.MaxTransfer + 1},
			read:    true,
			wantErr: "read length",
		},
		{
			name:    "read and write",
			opts:    execOptions{cdb: "3b", read: 4, write: payload},
			read:    true,
			wantErr: "exclusive",
		},
		{
			name:    "device and session",
			opts:    execOptions{cdb: "00", device: "/dev/sg0", session: "x"},
			wantErr: "exclusive",
		},
		{
			name: "write",
			opts: execOptions{cdb: "3b 02 00 00 00 00 00 00 03 00", write: payload},
			check: func(t *testing.T, o execOptions) {
				assert.Equal(t, "write", string(o.direction))
				assert.Equal(t, []byte{1, 2, 3}, o.data)
			},
		},
		{
			name:    "missing write file",
			opts:    execOptions{cdb: "00", write: filepath.Join(dir, "missing")},
			wantErr: "no such file",
		},
		{
			name:    "sense too long",
			opts:    execOptions{cdb: "00", sense: 256},
			sense:   true,
			wantErr: "sense length",
		},
		{
			name:    "timeout too long",
			opts:    execOptions{cdb: "00", timeout: 1 << 30},
			timeout: true,
			wantErr: "timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.opts
			err := o.complete(tt.read, tt.sense, tt.timeout)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, o)
			}
		})
	}
}

func TestExecLocal(t *testing.T) {
	disk := mock.NewDisk("/dev/sg0")
	devices := mock.NewDevices(disk)

	out, err := run(t, devices, "exec", "--device", "/dev/sg0", "--cdb", "12 00 00 00 24 00", "--read", "0")
	require.NoError(t, err)
	assert.Contains(t, out, ": ok")
	assert.Contains(t, out, "GOSTOR")
	assert.False(t, disk.IsOpen())

	out, err = run(t, devices, "exec", "--device", "/dev/sg0", "--cdb", "9e 10 00 00 00 00 00 00 00 00 00 00 00 20 00 00", "--read", "0")
	require.NoError(t, err)
	assert.Contains(t, out, ": ok")
	assert.Contains(t, out, "00 00 00 00 00 00 4f ff  00 00 02 00")

	out, err = run(t, devices, "exec", "--device", "/dev/sg0", "--cdb", "ea 00 00 00 00 00")
	require.NoError(t, err)
	assert.Contains(t, out, "thru sense")
	assert.Contains(t, out, "sense 70")

	_, err = run(t, devices, "exec", "--device", "/dev/sg9", "--cdb", "00 00 00 00 00 00")
	assert.Error(t, err)
}

func TestExecLocalSavesData(t *testing.T) {
	devices := mock.NewDevices(mock.NewDisk("/dev/sg0"))
	file := filepath.Join(t.TempDir(), "inquiry")

	out, err := run(t, devices, "exec", "--device", "/dev/sg0", "--cdb", "12 00 00 00 24 00", "--read", "0", "--out", file)
	require.NoError(t, err)
	assert.NotContains(t, out, "GOSTOR")
	data, err := ioutil.ReadFile(file)
	require.NoError(t, err)
	assert.Len(t, data, 36)
	assert.Equal(t, "GOSTOR", strings.TrimSpace(string(data[8:16])))
}

func TestInquiryLocal(t *testing.T) {
	devices := mock.NewDevices(mock.NewDisk("/dev/sg0"))

	out, err := run(t, devices, "inquiry", "/dev/sg0")
	require.NoError(t, err)
	assert.Contains(t, out, "Vendor:   GOSTOR")
	assert.Contains(t, out, "Product:  GOSG MOCK DISK")

	_, err = run(t, devices, "inquiry")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	devices := mock.NewDevices()

	out, err := run(t, devices, "decode", "0x80852400")
	require.NoError(t, err)
	assert.Contains(t, out, "illegal request")
	assert.Contains(t, out, "invalid field in cdb")

	out, err = run(t, devices, "decode", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "shortfall 12")

	_, err = run(t, devices, "decode", "status")
	assert.Error(t, err)
}

func TestDaemonSessions(t *testing.T) {
	disk := mock.NewDisk("/dev/sg0")
	devices := mock.NewDevices(disk)
	host := newDaemon(t, devices)

	out, err := run(t, devices, "-H", host, "session", "open", "/dev/sg0")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)
	assert.True(t, disk.IsOpen())

	out, err = run(t, devices, "-H", host, "session", "ls", "--device", "/dev/sg0")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = run(t, devices, "-H", host, "exec", "--session", id, "--cdb", "12 00 00 00 24 00", "--read", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "GOSTOR")

	out, err = run(t, devices, "-H", host, "inquiry", "--session", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Vendor:   GOSTOR")

	out, err = run(t, devices, "-H", host, "decode", "--daemon", "0x80852400")
	require.NoError(t, err)
	assert.Contains(t, out, "illegal request")

	out, err = run(t, devices, "-H", host, "version", "--server")
	require.NoError(t, err)
	assert.Contains(t, out, version.VERSION)

	out, err = run(t, devices, "-H", host, "session", "close", id)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.False(t, disk.IsOpen())

	_, err = run(t, devices, "-H", host, "session", "close", id)
	assert.Error(t, err)
}

func TestFlashNotConfirmed(t *testing.T) {
	lu := mock.NewDisk("/dev/sg1").LU
	lu.Attrs.Vendor = "MATSHITA"
	lu.Attrs.Product = "DVD-RAM UJ-85J"
	drive := mock.NewDevice("/dev/sg1", lu)
	devices := mock.NewDevices(drive)
	image := filepath.Join(t.TempDir(), "firmware.bin")
	require.NoError(t, ioutil.WriteFile(image, make([]byte, 0x200), 0644))

	out, err := run(t, devices, "flash", "/dev/sg1", image)
	require.NoError(t, err)
	assert.Contains(t, out, "Selected device: MATSHITA")
	assert.Contains(t, out, "Not confirmed")
	assert.Len(t, drive.Commands(), 1)
}
