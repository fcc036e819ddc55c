// Package fculink provides the transport to the flight controller: a
// multiplexer over a serial (or mock) port that frames outbound MAVLink
// messages and fans inbound bytes out to debug subscribers.
package fculink

import (
	"bytes"
	"context"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"tailscale.com/tsweb"

	"github.com/meridian-uas/setpoint.bridge/internal/mavlink"
)

var ErrWriteFailed = fmt.Errorf("failed to write to flight controller link")

//go:embed templates/*
var adminTemplateFS embed.FS

var sendSetpointTemplate = template.Must(template.ParseFS(adminTemplateFS, "templates/send-setpoint.html.tmpl"))

// Link multiplexes a single port to the flight controller: many goroutines
// may send messages (writes are serialized and sequence numbers assigned
// under the same lock), and any number of subscribers may tap the inbound
// byte stream for debugging.
type Link[T Porter] struct {
	port T

	sysID  uint8
	compID uint8

	writeMu sync.Mutex
	seq     uint8

	subscribers  map[string]chan []byte
	subscriberMu sync.Mutex

	closing   bool
	closingMu sync.Mutex
}

// LinkInterface is the transport surface the rest of the service uses.
type LinkInterface interface {
	// Send frames msg and writes it to the port. Fire-and-forget from the
	// caller's point of view; the error is for logging only.
	Send(msg mavlink.Message) error
	// Subscribe creates a channel receiving copies of inbound byte chunks.
	Subscribe() (string, chan []byte)
	// Unsubscribe removes a subscriber channel.
	Unsubscribe(string)
	// Monitor reads inbound bytes from the port and fans them out until
	// the context is cancelled or the port closes.
	Monitor(context.Context) error
	// Close closes all subscriber channels and the port.
	Close() error
	// AttachAdminRoutes attaches debugging endpoints under /debug/. These
	// are reachable only over localhost/Tailscale.
	AttachAdminRoutes(*http.ServeMux)
}

// NewLink creates a Link over the given port, stamping outbound frames with
// the given MAVLink system and component ids.
func NewLink[T Porter](port T, sysID, compID uint8) *Link[T] {
	return &Link[T]{
		port:        port,
		sysID:       sysID,
		compID:      compID,
		subscribers: make(map[string]chan []byte),
	}
}

// Send frames msg and writes it to the port. Concurrent senders are
// serialized so frames never interleave and sequence numbers stay ordered.
func (l *Link[T]) Send(msg mavlink.Message) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	frame := mavlink.EncodeFrame(l.seq, l.sysID, l.compID, msg)
	l.seq++

	n, err := l.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return ErrWriteFailed
	}
	return nil
}

// Subscribe creates a new channel receiving copies of inbound byte chunks.
// The id identifies the channel for Unsubscribe.
func (l *Link[T]) Subscribe() (string, chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, 1)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	l.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the link.
func (l *Link[T]) Unsubscribe(id string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		close(ch)
		delete(l.subscribers, id)
	}
}

// Monitor reads inbound bytes and fans out copies to subscribers. The
// service itself never parses FCU telemetry; subscribers are debug taps.
func (l *Link[T]) Monitor(ctx context.Context) error {
	chunkChan := make(chan []byte)
	readErrChan := make(chan error, 1)

	// The blocking port read lives in its own goroutine so the outer loop
	// can also observe context cancellation.
	go func() {
		defer close(chunkChan)
		buf := make([]byte, 512)
		for {
			n, err := l.port.Read(buf)
			if err != nil {
				if err != io.EOF {
					select {
					case readErrChan <- err:
					case <-ctx.Done():
					}
				}
				return
			}
			if n == 0 {
				continue
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunkChan <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErrChan:
			return err

		case chunk, ok := <-chunkChan:
			if !ok {
				return nil
			}

			l.closingMu.Lock()
			if l.closing {
				l.closingMu.Unlock()
				return nil
			}
			l.closingMu.Unlock()

			l.subscriberMu.Lock()
			for _, ch := range l.subscribers {
				select {
				case ch <- chunk:
				default:
					// skip a slow subscriber rather than stall the link
				}
			}
			l.subscriberMu.Unlock()
		}
	}
}

// Close closes all subscriber channels and the underlying port.
func (l *Link[T]) Close() error {
	l.closingMu.Lock()
	l.closing = true
	l.closingMu.Unlock()

	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
	return l.port.Close()
}

// AttachAdminRoutes attaches debugging endpoints to the given HTTP mux under
// /debug/: a form to fire a one-off test setpoint and a live hex tail of
// inbound FCU bytes.
func (l *Link[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("send-setpoint", "send a one-off test position target", func(w http.ResponseWriter, r *http.Request) {
		buf := bytes.NewBuffer(nil)
		if err := sendSetpointTemplate.Execute(buf, nil); err != nil {
			http.Error(w, "Failed to render template", http.StatusInternalServerError)
			return
		}
		io.Copy(w, buf)
	})

	debug.HandleSilentFunc("send-setpoint-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		msg, err := parseTestSetpoint(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := l.Send(msg); err != nil {
			http.Error(w, "Failed to send setpoint", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "Setpoint sent")
	})

	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")

		id, ch := l.Subscribe()
		defer l.Unsubscribe(id)

		for {
			select {
			case <-r.Context().Done():
				return
			case chunk, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", hex.EncodeToString(chunk))
				flusher.Flush()
			}
		}
	})
}

// parseTestSetpoint builds a LOCAL_NED test command from form values.
func parseTestSetpoint(r *http.Request) (mavlink.Message, error) {
	parse := func(name string) (float64, error) {
		v := r.FormValue(name)
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %v", name, err)
		}
		return f, nil
	}

	x, err := parse("x")
	if err != nil {
		return nil, err
	}
	y, err := parse("y")
	if err != nil {
		return nil, err
	}
	z, err := parse("z")
	if err != nil {
		return nil, err
	}
	yaw, err := parse("yaw")
	if err != nil {
		return nil, err
	}

	return &mavlink.SetPositionTargetLocalNed{
		X:               float32(x),
		Y:               float32(y),
		Z:               float32(z),
		Yaw:             float32(yaw),
		TypeMask:        (1 << 11) | (7 << 6) | (7 << 3),
		TargetSystem:    1,
		TargetComponent: 1,
		CoordinateFrame: 1,
	}, nil
}
