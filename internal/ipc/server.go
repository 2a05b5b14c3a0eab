package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"os"
	"sort"
	"strings"

	"codeberg.org/mutker/displayctl/internal/errors"
	"codeberg.org/mutker/displayctl/internal/logger"
	"codeberg.org/mutker/displayctl/internal/refreshrate"
)

// Server accepts control-plane connections and applies their requests
// to the engine. Each connection is served on its own goroutine; the
// engine's own locking makes concurrent requests safe.
type Server struct {
	engine *refreshrate.Engine
	path   string
	ln     net.Listener
}

func NewServer(engine *refreshrate.Engine, socketPath string) *Server {
	return &Server{
		engine: engine,
		path:   socketPath,
	}
}

// Start binds the socket and begins accepting connections.
func (s *Server) Start() error {
	errFactory := errors.New()

	// Remove a stale socket from an unclean shutdown
	if err := os.RemoveAll(s.path); err != nil {
		return errFactory.Wrap(ErrSocketInit, err)
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return errFactory.Wrap(ErrSocketInit, err)
	}

	if err := os.Chmod(s.path, 0o660); err != nil {
		ln.Close()
		return errFactory.Wrap(ErrSocketInit, err)
	}

	s.ln = ln
	logger.Info().Msgf("Control socket listening on %s", s.path)

	go s.acceptLoop()

	return nil
}

// Close stops accepting connections and removes the socket.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	if err := s.ln.Close(); err != nil {
		return errors.New().Wrap(ErrSocketClose, err)
	}

	return nil
}

func (s *Server) acceptLoop() {
	defer os.Remove(s.path)

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug().Msg("Control socket closed")
				return
			}
			logger.Error().Err(err).Msg("Control socket accept failed")
			continue
		}

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			writeResponse(encoder, errorResponse(fmt.Sprintf("parse request: %v", err)))
			continue
		}

		writeResponse(encoder, s.dispatch(&req))
	}

	if err := scanner.Err(); err != nil {
		logger.Debug().Err(err).Msg("Control connection read failed")
	}
}

func writeResponse(encoder *json.Encoder, resp Response) {
	if err := encoder.Encode(resp); err != nil {
		logger.Error().Err(err).Msg("Failed to send control response")
	}
}

func errorResponse(msg string) Response {
	return Response{Status: "error", Error: msg}
}

func okResponse(data interface{}) Response {
	return Response{Status: "ok", Data: data}
}

func (s *Server) dispatch(req *Request) Response {
	switch req.Type {
	case TypeSetPolicy:
		return s.handleSetPolicy(req.Data)
	case TypeGetPolicy:
		return s.handleGetPolicy()
	case TypeSelect:
		return s.handleSelect(req.Data)
	case TypeSelectPolicy:
		return okResponse(modeData(s.engine.SelectByPolicy()))
	case TypeSetCurrent:
		return s.handleSetCurrent(req.Data)
	case TypeGetCurrent:
		return okResponse(modeData(s.engine.CurrentMode()))
	case TypeModes:
		return s.handleModes()
	default:
		return errorResponse(fmt.Sprintf("unknown request type %q", req.Type))
	}
}

func (s *Server) handleSetPolicy(data json.RawMessage) Response {
	var payload SetPolicyData
	if err := json.Unmarshal(data, &payload); err != nil {
		return errorResponse(fmt.Sprintf("parse set_policy: %v", err))
	}

	maxRate := payload.MaxRate
	if maxRate <= 0 {
		maxRate = math.MaxFloat64
	}

	changed, err := s.engine.SetPolicy(refreshrate.ModeID(payload.DefaultMode), payload.MinRate, maxRate)
	if err != nil {
		// Policy rejections are the client's problem, not ours.
		return errorResponse(err.Error())
	}

	policy := s.engine.GetPolicy()
	logger.Info().
		Int("default_mode", int(policy.DefaultMode)).
		Float64("min_rate", policy.MinFPS).
		Bool("changed", changed).
		Msg("Policy updated")

	return okResponse(PolicyData{
		DefaultMode: int(policy.DefaultMode),
		MinRate:     policy.MinFPS,
		MaxRate:     policy.MaxFPS,
		Changed:     changed,
	})
}

func (s *Server) handleGetPolicy() Response {
	policy := s.engine.GetPolicy()

	return okResponse(PolicyData{
		DefaultMode: int(policy.DefaultMode),
		MinRate:     policy.MinFPS,
		MaxRate:     policy.MaxFPS,
	})
}

func (s *Server) handleSelect(data json.RawMessage) Response {
	var payload SelectData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return errorResponse(fmt.Sprintf("parse select: %v", err))
		}
	}

	strategy, ok := refreshrate.ParseStrategy(payload.Strategy)
	if !ok {
		return errorResponse(fmt.Sprintf("unknown strategy %q", payload.Strategy))
	}

	layers := make([]refreshrate.LayerRequirement, 0, len(payload.Layers))
	for _, l := range payload.Layers {
		vote, ok := refreshrate.ParseVote(l.Vote)
		if !ok {
			return errorResponse(fmt.Sprintf("unknown vote %q for layer %q", l.Vote, l.Name))
		}
		layers = append(layers, refreshrate.LayerRequirement{
			Name:       l.Name,
			Vote:       vote,
			DesiredFPS: l.DesiredFPS,
			Weight:     l.Weight,
		})
	}

	return okResponse(modeData(s.engine.Select(strategy, layers)))
}

func (s *Server) handleSetCurrent(data json.RawMessage) Response {
	var payload SetCurrentData
	if err := json.Unmarshal(data, &payload); err != nil {
		return errorResponse(fmt.Sprintf("parse set_current: %v", err))
	}

	if err := s.engine.SetCurrentMode(refreshrate.ModeID(payload.Mode)); err != nil {
		return errorResponse(err.Error())
	}

	return okResponse(modeData(s.engine.CurrentMode()))
}

func (s *Server) handleModes() Response {
	all := s.engine.AllModes()
	modes := make([]ModeData, 0, len(all))
	for _, m := range all {
		modes = append(modes, modeData(m))
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].ID < modes[j].ID })

	return okResponse(modes)
}

func modeData(m refreshrate.Mode) ModeData {
	return ModeData{
		ID:            int(m.ID),
		Group:         int(m.Group),
		VsyncPeriodNs: m.VsyncPeriod,
		Name:          m.Name,
		FPS:           m.FPS,
	}
}
