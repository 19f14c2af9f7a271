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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/context"
)

// serverResponse is a wrapper for http API responses.
type serverResponse struct {
	body       io.ReadCloser
	statusCode int
}

func (cli *Client) get(ctx context.Context, path string, query url.Values) (serverResponse, error) {
	return cli.sendRequest(ctx, http.MethodGet, path, query, nil)
}

func (cli *Client) post(ctx context.Context, path string, query url.Values, obj interface{}) (serverResponse, error) {
	var body io.Reader
	if obj != nil {
		data, err := json.Marshal(obj)
		if err != nil {
			return serverResponse{}, err
		}
		body = bytes.NewReader(data)
	}
	return cli.sendRequest(ctx, http.MethodPost, path, query, body)
}

func (cli *Client) delete(ctx context.Context, path string, query url.Values) (serverResponse, error) {
	return cli.sendRequest(ctx, http.MethodDelete, path, query, nil)
}

func (cli *Client) sendRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (serverResponse, error) {
	host := cli.addr
	if cli.proto == "unix" || cli.proto == "npipe" {
		// the dialer ignores the host, but http needs one
		host = "gosg"
	}
	u := &url.URL{Scheme: "http", Host: host}
	target := u.String() + cli.getAPIPath(path, query)

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return serverResponse{}, err
	}
	req = req.WithContext(ctx)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cli.customHTTPHeaders {
		req.Header.Set(k, v)
	}

	resp, err := cli.client.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "no such file") {
			return serverResponse{}, fmt.Errorf("Cannot connect to the gosg daemon at %s://%s. Is the daemon running?", cli.proto, cli.addr)
		}
		return serverResponse{}, err
	}

	sr := serverResponse{body: resp.Body, statusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		msg, err := ioutil.ReadAll(resp.Body)
		ensureReaderClosed(sr)
		if err != nil {
			return serverResponse{statusCode: resp.StatusCode}, err
		}
		if len(msg) == 0 {
			return serverResponse{statusCode: resp.StatusCode}, fmt.Errorf("Error: request returned %s for API route and version %s", http.StatusText(resp.StatusCode), req.URL)
		}
		return serverResponse{statusCode: resp.StatusCode}, fmt.Errorf("Error response from daemon: %s", bytes.TrimSpace(msg))
	}
	return sr, nil
}

func decodeBody(resp serverResponse, v interface{}) error {
	defer ensureReaderClosed(resp)
	return json.NewDecoder(resp.body).Decode(v)
}

func ensureReaderClosed(response serverResponse) {
	if body := response.body; body != nil {
		// Drain up to 512 bytes and close the body to let the Transport reuse the connection
		io.CopyN(ioutil.Discard, body, 512)
		body.Close()
	}
}
