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

package client

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gostor/gosg/mock"
	"github.com/gostor/gosg/pkg/api"
	"github.com/gostor/gosg/pkg/apiserver"
	"github.com/gostor/gosg/pkg/config"
	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/scsi"
	"github.com/gostor/gosg/pkg/service"
	"github.com/gostor/gosg/pkg/version"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

func newTestClient(t *testing.T) (*Client, *mock.Devices) {
	devices := mock.NewDevices(mock.NewDisk("/dev/sg0"))
	sessions := service.NewSessionService(config.Default(), devices.Open)
	s, err := apiserver.New(&apiserver.Config{Version: version.VERSION})
	require.NoError(t, err)
	s.InitRouters(sessions)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		sessions.Shutdown()
	})

	cli, err := NewClient("tcp://"+strings.TrimPrefix(ts.URL, "http://"), version.VERSION, nil, map[string]string{"User-Agent": "gosg-test"})
	require.NoError(t, err)
	return cli, devices
}

func TestParseHost(t *testing.T) {
	cases := map[string]struct {
		host                  string
		proto, addr, basePath string
		wantErr               bool
	}{
		"TCP":      {host: "tcp://127.0.0.1:23458", proto: "tcp", addr: "127.0.0.1:23458"},
		"TCPPath":  {host: "tcp://127.0.0.1:23458/api", proto: "tcp", addr: "127.0.0.1:23458", basePath: "/api"},
		"Unix":     {host: "unix:///run/gosg.sock", proto: "unix", addr: "/run/gosg.sock"},
		"NoScheme": {host: "127.0.0.1:23458", wantErr: true},
	}
	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			proto, addr, basePath, err := ParseHost(tt.host)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.proto, proto)
			assert.Equal(t, tt.addr, addr)
			assert.Equal(t, tt.basePath, basePath)
		})
	}
}

func TestGetAPIPath(t *testing.T) {
	cli, err := NewClient("tcp://127.0.0.1:23458", "v0.1.0", &http.Client{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/v0.1.0/sessions", cli.getAPIPath("/sessions", nil))
	assert.Equal(t, "/v0.1.0/sessions?device=%2Fdev%2Fsg0", cli.getAPIPath("/sessions", url.Values{"device": {"/dev/sg0"}}))

	cli.UpdateClientVersion("")
	assert.Equal(t, "", cli.ClientVersion())
	assert.Equal(t, "/version", cli.getAPIPath("/version", nil))
}

func TestSessionRoundTrip(t *testing.T) {
	cli, devices := newTestClient(t)
	ctx := context.Background()

	info, err := cli.SessionOpen(ctx, api.SessionOpenRequest{Device: "/dev/sg0", SenseLength: intPtr(0x20)})
	require.NoError(t, err)
	assert.Equal(t, 0x20, info.SenseLength)
	assert.True(t, devices.Get("/dev/sg0").IsOpen())

	list, err := cli.SessionList(ctx, api.SessionListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := cli.SessionInspect(ctx, info.ID.String())
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)

	resp, err := cli.SessionCommand(ctx, info.ID.String(), api.CommandRequest{
		CDB:       scsi.InquiryCDB(scsi.InquiryReplyLength),
		Direction: api.DataRead,
		Length:    scsi.InquiryReplyLength,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, resp.Status)
	inq, err := scsi.ParseInquiry(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, "GOSG MOCK DISK", inq.Product)

	resp, err = cli.SessionCommand(ctx, info.ID.String(), api.CommandRequest{CDB: []byte{0xC7, 0, 0, 0, 0, 0}})
	require.NoError(t, err)
	st := passthru.Status(resp.Status)
	assert.True(t, st.Has(passthru.SenseFlag))
	assert.Equal(t, scsi.ASC_INVALID_OP_CODE, st.SubError())

	require.NoError(t, cli.SessionClose(ctx, info.ID.String()))
	assert.False(t, devices.Get("/dev/sg0").IsOpen())

	err = cli.SessionClose(ctx, info.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such session")
}

func TestClientErrors(t *testing.T) {
	cli, _ := newTestClient(t)
	ctx := context.Background()

	_, err := cli.SessionOpen(ctx, api.SessionOpenRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad parameter")

	_, err = cli.SessionInspect(ctx, uuid.NewV4().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such session")

	_, err = cli.SessionCommand(ctx, "nope", api.CommandRequest{CDB: []byte{0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad parameter")
}

func TestStatusAndVersion(t *testing.T) {
	cli, _ := newTestClient(t)
	ctx := context.Background()

	info, err := cli.StatusInspect(ctx, 0x80852400)
	require.NoError(t, err)
	assert.True(t, info.Sense)
	assert.EqualValues(t, 5, info.SenseKey)

	info, err = cli.StatusInspect(ctx, 12)
	require.NoError(t, err)
	assert.False(t, info.Failed)
	assert.Equal(t, 12, info.Shortfall)

	v, err := cli.ServerVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, version.VERSION, v.Version)
}

func TestConnectionRefused(t *testing.T) {
	cli, err := NewClient("tcp://127.0.0.1:1", "", nil, nil)
	require.NoError(t, err)
	_, err = cli.ServerVersion(context.Background())
	assert.Error(t, err)
}

func intPtr(i int) *int {
	return &i
}
