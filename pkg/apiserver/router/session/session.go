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

package session

import (
	"fmt"
	"net/http"

	"github.com/gostor/gosg/pkg/api"
	"github.com/gostor/gosg/pkg/apiserver/httputils"
	"github.com/gostor/gosg/pkg/apiserver/router"
	"github.com/gostor/gosg/pkg/service"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/net/context"
)

// sessionRouter exposes the pass thru sessions of one SessionService.
type sessionRouter struct {
	service *service.SessionService
	routes  []router.Route
}

// NewRouter initializes a new session router
func NewRouter(s *service.SessionService) router.Router {
	r := &sessionRouter{service: s}
	r.initRoutes()
	return r
}

func (r *sessionRouter) Routes() []router.Route {
	return r.routes
}

func (r *sessionRouter) initRoutes() {
	r.routes = []router.Route{
		// GET
		router.NewGetRoute("/sessions", r.getSessionList),
		router.NewGetRoute("/sessions/{id}", r.getSession),
		// POST
		router.NewPostRoute("/sessions", r.postSessionOpen),
		router.NewPostRoute("/sessions/{id}/command", r.postSessionCommand),
		// DELETE
		router.NewDeleteRoute("/sessions/{id}", r.deleteSession),
	}
}

func sessionID(vars map[string]string) (uuid.UUID, error) {
	id, err := uuid.FromString(vars["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad parameter: session id %q: %v", vars["id"], err)
	}
	return id, nil
}

func (r *sessionRouter) getSessionList(ctx context.Context, w http.ResponseWriter, req *http.Request, vars map[string]string) error {
	opts := api.SessionListOptions{Device: req.URL.Query().Get("device")}
	return httputils.WriteJSON(w, http.StatusOK, r.service.List(opts))
}

func (r *sessionRouter) getSession(ctx context.Context, w http.ResponseWriter, req *http.Request, vars map[string]string) error {
	id, err := sessionID(vars)
	if err != nil {
		return err
	}
	info, err := r.service.Get(id)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, info)
}

func (r *sessionRouter) postSessionOpen(ctx context.Context, w http.ResponseWriter, req *http.Request, vars map[string]string) error {
	var opts api.SessionOpenRequest
	if err := httputils.ReadJSON(req, &opts); err != nil {
		return err
	}
	info, err := r.service.Open(opts)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusCreated, info)
}

func (r *sessionRouter) postSessionCommand(ctx context.Context, w http.ResponseWriter, req *http.Request, vars map[string]string) error {
	id, err := sessionID(vars)
	if err != nil {
		return err
	}
	var cmd api.CommandRequest
	if err := httputils.ReadJSON(req, &cmd); err != nil {
		return err
	}
	resp, err := r.service.Exec(id, cmd)
	if err != nil {
		return err
	}
	return httputils.WriteJSON(w, http.StatusOK, resp)
}

func (r *sessionRouter) deleteSession(ctx context.Context, w http.ResponseWriter, req *http.Request, vars map[string]string) error {
	id, err := sessionID(vars)
	if err != nil {
		return err
	}
	if err := r.service.Close(id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
