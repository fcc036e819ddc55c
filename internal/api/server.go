// Package api exposes the HTTP control surface: frame selection, discrete
// pose submission, transform injection, and config inspection. Exactly one
// of the two pose ingestion routes is live at a time; the inactive one
// answers 409 so a misconfigured producer fails loudly instead of silently.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/meridian-uas/setpoint.bridge/internal/config"
	"github.com/meridian-uas/setpoint.bridge/internal/frame"
	"github.com/meridian-uas/setpoint.bridge/internal/httputil"
	"github.com/meridian-uas/setpoint.bridge/internal/posesource"
	"github.com/meridian-uas/setpoint.bridge/internal/tfbus"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	frames   *frame.Store
	selector *frame.Selector

	// Exactly one of receiver and bus is non-nil, matching the active pose
	// source variant.
	receiver *posesource.DiscreteReceiver
	bus      *tfbus.Bus

	cfg *config.Config
}

// NewServer creates the API server. receiver must be non-nil in discrete
// mode and nil in stream mode; bus the other way around.
func NewServer(frames *frame.Store, selector *frame.Selector, receiver *posesource.DiscreteReceiver, bus *tfbus.Bus, cfg *config.Config) *Server {
	return &Server{
		frames:   frames,
		selector: selector,
		receiver: receiver,
		bus:      bus,
		cfg:      cfg,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/api/setpoint/local", s.submitSetpoint)
	mux.HandleFunc("/api/transform", s.submitTransform)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/healthz", s.healthz)
	return mux
}

type frameSelectRequest struct {
	FrameID *uint8 `json:"frame_id"`
}

type frameResponse struct {
	Success bool   `json:"success"`
	Frame   string `json:"frame"`
	FrameID uint8  `json:"frame_id"`
}

// handleFrame reports the active frame on GET and swaps it on POST. A POST
// carrying an id outside the enumeration is rejected with 400 and the active
// frame stays as it was.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f := s.frames.Active()
		httputil.WriteJSONOK(w, frameResponse{Success: true, Frame: f.String(), FrameID: uint8(f)})

	case http.MethodPost:
		var req frameSelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if req.FrameID == nil {
			httputil.BadRequest(w, "missing frame_id")
			return
		}

		f, err := s.selector.Select(*req.FrameID)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, frameResponse{Success: true, Frame: f.String(), FrameID: uint8(f)})

	default:
		httputil.MethodNotAllowed(w)
	}
}

type quaternionJSON struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (q quaternionJSON) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

type setpointRequest struct {
	TimestampNS int64           `json:"timestamp_ns"`
	Position    *[3]float64     `json:"position"`
	Orientation *quaternionJSON `json:"orientation"`
}

// submitSetpoint accepts one discrete pose. Available only when the discrete
// receiver is the active pose source.
func (s *Server) submitSetpoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.receiver == nil {
		httputil.WriteJSONError(w, http.StatusConflict,
			"discrete setpoints disabled: transform stream is the active pose source")
		return
	}

	var req setpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Position == nil {
		httputil.BadRequest(w, "missing position")
		return
	}
	if req.Orientation == nil {
		httputil.BadRequest(w, "missing orientation")
		return
	}

	stamp := time.Now()
	if req.TimestampNS != 0 {
		stamp = time.Unix(0, req.TimestampNS)
	}

	s.receiver.Publish(frame.Pose{
		Stamp:       stamp,
		Translation: r3.Vec{X: req.Position[0], Y: req.Position[1], Z: req.Position[2]},
		Orientation: req.Orientation.number(),
	})

	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"pending": s.receiver.Pending(),
	})
}

type transformRequest struct {
	Parent      string          `json:"parent"`
	Child       string          `json:"child"`
	TimestampNS int64           `json:"timestamp_ns"`
	Translation *[3]float64     `json:"translation"`
	Rotation    *quaternionJSON `json:"rotation"`
}

// submitTransform injects one transform onto the bus. Available only when
// the stream listener is the active pose source.
func (s *Server) submitTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.bus == nil {
		httputil.WriteJSONError(w, http.StatusConflict,
			"transform injection disabled: discrete setpoints are the active pose source")
		return
	}

	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Parent == "" || req.Child == "" {
		httputil.BadRequest(w, "missing parent or child frame id")
		return
	}
	if req.Translation == nil {
		httputil.BadRequest(w, "missing translation")
		return
	}
	if req.Rotation == nil {
		httputil.BadRequest(w, "missing rotation")
		return
	}

	stamp := time.Now()
	if req.TimestampNS != 0 {
		stamp = time.Unix(0, req.TimestampNS)
	}

	delivered := s.bus.Publish(tfbus.Transform{
		Parent:      req.Parent,
		Child:       req.Child,
		Stamp:       stamp,
		Translation: r3.Vec{X: req.Translation[0], Y: req.Translation[1], Z: req.Translation[2]},
		Rotation:    req.Rotation.number(),
	})

	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":   true,
		"delivered": delivered,
	})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"mav_frame":         s.frames.Active().String(),
		"tf_listen":         s.cfg.GetTFListen(),
		"tf_frame_id":       s.cfg.GetTFFrameID(),
		"tf_child_frame_id": s.cfg.GetTFChildFrameID(),
		"tf_rate_limit":     s.cfg.GetTFRateLimit(),
		"target_system":     s.cfg.GetTargetSystem(),
		"target_component":  s.cfg.GetTargetComponent(),
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}
