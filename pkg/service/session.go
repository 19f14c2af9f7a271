/*
Copyright 2017 The GoStor Authors All rights reserved.

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

// Package service keeps the pass thru sessions the daemon has open. Each
// session is locked for the length of one command, so clients may share a
// daemon but never overlap on one device handle.
package service

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gostor/gosg/pkg/api"
	"github.com/gostor/gosg/pkg/config"
	"github.com/gostor/gosg/pkg/passthru"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

// MaxTransfer bounds the data buffer the daemon allocates for one read.
const MaxTransfer = 16 << 20

type sessionEntry struct {
	mu    sync.Mutex
	info  api.SessionInfo
	sp    *passthru.Session
	sense [passthru.MaxSense]byte
}

type SessionService struct {
	mu       sync.RWMutex
	open     passthru.Opener
	cfg      *config.Config
	sessions map[uuid.UUID]*sessionEntry
}

// NewSessionService returns an empty registry that opens devices with open
// and takes its defaults from cfg.
func NewSessionService(cfg *config.Config, open passthru.Opener) *SessionService {
	if cfg == nil {
		cfg = config.Default()
	}
	if open == nil {
		open = passthru.OpenSG
	}
	return &SessionService{
		open:     open,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// terminate ends the process when a Session panics over a broken contract.
// net/http recovers handler panics, so one must never unwind that far.
func terminate() {
	if r := recover(); r != nil {
		if err, ok := r.(*passthru.ContractError); ok {
			log.Fatalf("pass thru contract broken: %v", err)
		}
		panic(r)
	}
}

func validSense(n int) bool {
	return n >= 0 && n <= passthru.MaxSense
}

// validTimeout reports whether Session.SetTimeout would accept sec, nsec.
func validTimeout(sec, nsec int32) bool {
	if sec < 0 || nsec < 0 {
		return false
	}
	ms := int64(sec)*1000 + (int64(nsec)+999999)/1000/1000
	return ms <= math.MaxInt32 && ms/1000 == int64(sec)
}

// Open connects to a device and registers the new session.
func (s *SessionService) Open(req api.SessionOpenRequest) (api.SessionInfo, error) {
	if req.Device == "" {
		return api.SessionInfo{}, fmt.Errorf("bad parameter: 'device' cannot be empty")
	}
	senseLength := s.cfg.SenseLength
	if req.SenseLength != nil {
		senseLength = *req.SenseLength
	}
	if !validSense(senseLength) {
		return api.SessionInfo{}, fmt.Errorf("bad parameter: sense length %d is not in [0, %d]", senseLength, passthru.MaxSense)
	}
	timeout := req.TimeoutSeconds
	if timeout == 0 {
		timeout = s.cfg.TimeoutSeconds
	}
	if !validTimeout(timeout, 0) {
		return api.SessionInfo{}, fmt.Errorf("bad parameter: timeout %ds is out of range", timeout)
	}

	defer terminate()
	sp := passthru.NewSession()
	fd, err := sp.OpenWith(req.Device, s.open)
	if err != nil {
		log.Errorf("open %s: %v", req.Device, err)
		return api.SessionInfo{}, err
	}
	e := &sessionEntry{
		sp: sp,
		info: api.SessionInfo{
			ID:             uuid.NewV4(),
			Device:         req.Device,
			Fd:             fd,
			SenseLength:    senseLength,
			TimeoutSeconds: timeout,
			Opened:         time.Now(),
		},
	}

	s.mu.Lock()
	s.sessions[e.info.ID] = e
	s.mu.Unlock()
	log.Infof("session %s opened %s as fd %d", e.info.ID, req.Device, fd)
	return e.info, nil
}

func (s *SessionService) lookup(id uuid.UUID) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session: %s", id)
	}
	return e, nil
}

// Get returns the current state of one session.
func (s *SessionService) Get(id uuid.UUID) (api.SessionInfo, error) {
	e, err := s.lookup(id)
	if err != nil {
		return api.SessionInfo{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info, nil
}

// List returns the open sessions ordered by device, then id.
func (s *SessionService) List(opts api.SessionListOptions) []api.SessionInfo {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	infos := []api.SessionInfo{}
	for _, e := range entries {
		e.mu.Lock()
		info := e.info
		e.mu.Unlock()
		if opts.Device != "" && info.Device != opts.Device {
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Device != infos[j].Device {
			return infos[i].Device < infos[j].Device
		}
		return infos[i].ID.String() < infos[j].ID.String()
	})
	return infos
}

// Exec resets the session, configures it from req, and passes thru once.
// Requests that would break the Session contract are refused up front.
func (s *SessionService) Exec(id uuid.UUID, req api.CommandRequest) (api.CommandResponse, error) {
	if len(req.CDB) == 0 {
		return api.CommandResponse{}, fmt.Errorf("bad parameter: 'cdb' cannot be empty")
	}
	if len(req.CDB) > passthru.MaxCommand {
		return api.CommandResponse{}, fmt.Errorf("bad parameter: cdb length %d is more than %d", len(req.CDB), passthru.MaxCommand)
	}
	switch req.Direction {
	case api.DataNone, "", api.DataWrite:
	case api.DataRead:
		if req.Length < 0 || req.Length > MaxTransfer {
			return api.CommandResponse{}, fmt.Errorf("bad parameter: read length %d is not in [0, %d]", req.Length, MaxTransfer)
		}
	default:
		return api.CommandResponse{}, fmt.Errorf("bad parameter: unknown direction %q", req.Direction)
	}

	e, err := s.lookup(id)
	if err != nil {
		return api.CommandResponse{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	defer terminate()

	senseLength := e.info.SenseLength
	if req.SenseLength != nil {
		senseLength = *req.SenseLength
	}
	if !validSense(senseLength) {
		return api.CommandResponse{}, fmt.Errorf("bad parameter: sense length %d is not in [0, %d]", senseLength, passthru.MaxSense)
	}
	sec, nsec := req.TimeoutSeconds, req.TimeoutNanoseconds
	if sec == 0 && nsec == 0 {
		sec = e.info.TimeoutSeconds
	}
	if !validTimeout(sec, nsec) {
		return api.CommandResponse{}, fmt.Errorf("bad parameter: timeout %ds %dns is out of range", sec, nsec)
	}

	sp := e.sp
	sp.Reset()
	sp.SetCommand(req.CDB)
	sp.SetSense(e.sense[:senseLength])
	sp.SetTimeout(sec, nsec)

	var (
		st  passthru.Status
		buf []byte
	)
	switch req.Direction {
	case api.DataRead:
		buf = make([]byte, req.Length)
		st = sp.Read(buf)
	case api.DataWrite:
		st = sp.Write(req.Data)
	default:
		st = sp.Speak()
	}
	e.info.Commands++

	resp := commandResponse(sp, st)
	if buf != nil {
		if n := sp.DataEnough(); n >= 0 && n <= len(buf) {
			resp.Data = buf[:n]
		}
	}
	log.WithFields(log.Fields{
		"session":   id,
		"opcode":    fmt.Sprintf("%#02x", req.CDB[0]),
		"direction": req.Direction,
	}).Debugf("status %#08x: %v", uint32(st), st)
	return resp, nil
}

func commandResponse(sp *passthru.Session, st passthru.Status) api.CommandResponse {
	r := sp.Request()
	resp := api.CommandResponse{
		Status:       int32(st),
		Description:  st.String(),
		Failed:       st.Failed(),
		SenseKey:     st.SenseKey(),
		ASC:          st.ASC(),
		ASCQ:         st.ASCQ(),
		Residue:      r.Residue,
		DataEnough:   sp.DataEnough(),
		SCSIStatus:   r.Status,
		HostStatus:   r.HostStatus,
		DriverStatus: r.DriverStatus,
		DurationMs:   r.Duration,
	}
	if sense := sp.SenseBytes(); len(sense) > 0 {
		resp.Sense = append([]byte(nil), sense...)
	}
	return resp
}

// Describe takes a status integer apart.
func Describe(st passthru.Status) api.StatusInfo {
	return api.StatusInfo{
		Status:      int32(st),
		Description: st.String(),
		Failed:      st.Failed(),
		Shortfall:   st.Shortfall(),
		DataThru:    st.Has(passthru.DataThru),
		SenseThru:   st.Has(passthru.SenseThru),
		Residue:     st.Has(passthru.ResidueFlag),
		Sense:       st.Has(passthru.SenseFlag),
		Deferred:    st.Has(passthru.Deferred),
		SenseKey:    st.SenseKey(),
		ASC:         st.ASC(),
		ASCQ:        st.ASCQ(),
	}
}

// Close disconnects one session and forgets it.
func (s *SessionService) Close(id uuid.UUID) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no such session: %s", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer terminate()
	e.sp.Close()
	log.Infof("session %s closed %s", id, e.info.Device)
	return nil
}

// Shutdown closes every session.
func (s *SessionService) Shutdown() {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	for _, id := range ids {
		if err := s.Close(id); err != nil {
			log.Warn(err)
		}
	}
}
