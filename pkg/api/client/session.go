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
	"net/url"
	"strconv"

	"github.com/gostor/gosg/pkg/api"
	"golang.org/x/net/context"
)

// SessionOpen opens a device in the daemon.
func (cli *Client) SessionOpen(ctx context.Context, req api.SessionOpenRequest) (api.SessionInfo, error) {
	var info api.SessionInfo
	resp, err := cli.post(ctx, "/sessions", nil, req)
	if err != nil {
		return info, err
	}
	err = decodeBody(resp, &info)
	return info, err
}

// SessionList lists the sessions open in the daemon.
func (cli *Client) SessionList(ctx context.Context, options api.SessionListOptions) ([]api.SessionInfo, error) {
	var infos []api.SessionInfo
	query := url.Values{}
	if options.Device != "" {
		query.Set("device", options.Device)
	}
	resp, err := cli.get(ctx, "/sessions", query)
	if err != nil {
		return infos, err
	}
	err = decodeBody(resp, &infos)
	return infos, err
}

// SessionInspect returns one session.
func (cli *Client) SessionInspect(ctx context.Context, id string) (api.SessionInfo, error) {
	var info api.SessionInfo
	resp, err := cli.get(ctx, "/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return info, err
	}
	err = decodeBody(resp, &info)
	return info, err
}

// SessionCommand passes one command thru a session.
func (cli *Client) SessionCommand(ctx context.Context, id string, req api.CommandRequest) (api.CommandResponse, error) {
	var out api.CommandResponse
	resp, err := cli.post(ctx, "/sessions/"+url.PathEscape(id)+"/command", nil, req)
	if err != nil {
		return out, err
	}
	err = decodeBody(resp, &out)
	return out, err
}

// SessionClose closes a session in the daemon.
func (cli *Client) SessionClose(ctx context.Context, id string) error {
	resp, err := cli.delete(ctx, "/sessions/"+url.PathEscape(id), nil)
	ensureReaderClosed(resp)
	return err
}

// StatusInspect asks the daemon to take a status integer apart.
func (cli *Client) StatusInspect(ctx context.Context, status int64) (api.StatusInfo, error) {
	var info api.StatusInfo
	resp, err := cli.get(ctx, "/status/"+strconv.FormatInt(status, 10), nil)
	if err != nil {
		return info, err
	}
	err = decodeBody(resp, &info)
	return info, err
}

// ServerVersion returns the version the daemon reports.
func (cli *Client) ServerVersion(ctx context.Context) (api.Version, error) {
	var v api.Version
	resp, err := cli.get(ctx, "/version", nil)
	if err != nil {
		return v, err
	}
	err = decodeBody(resp, &v)
	return v, err
}
