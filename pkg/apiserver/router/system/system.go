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

package system

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gostor/gosg/pkg/api"
	"github.com/gostor/gosg/pkg/apiserver/httputils"
	"github.com/gostor/gosg/pkg/apiserver/router"
	"github.com/gostor/gosg/pkg/passthru"
	"github.com/gostor/gosg/pkg/service"
	"golang.org/x/net/context"
)

type systemRouter struct {
	routes []router.Route
}

// NewRouter initializes the router for version and status decoding.
func NewRouter() router.Router {
	r := &systemRouter{}
	r.routes = []router.Route{
		router.NewGetRoute("/version", r.getVersion),
		router.NewGetRoute("/status/{value}", r.getStatus),
	}
	return r
}

func (r *systemRouter) Routes() []router.Route {
	return r.routes
}

func (r *systemRouter) getVersion(ctx context.Context, w http.ResponseWriter, req *http.Request, vars map[string]string) error {
	return httputils.WriteJSON(w, http.StatusOK, api.Version{Version: httputils.VersionFromContext(ctx)})
}

func (r *systemRouter) getStatus(ctx context.Context, w http.ResponseWriter, req *http.Request, vars map[string]string) error {
	v, err := strconv.ParseInt(vars["value"], 0, 64)
	if err != nil {
		return fmt.Errorf("bad parameter: status %q: %v", vars["value"], err)
	}
	st, err := passthru.Decode(v)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, service.Describe(st))
}
