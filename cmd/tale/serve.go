/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Comcast/tale/engine"
	"github.com/Comcast/tale/history"
	"github.com/Comcast/tale/storage"
	"github.com/Comcast/tale/story"
	"github.com/Comcast/tale/tools"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveStatic string

	serveCmd = &cobra.Command{
		Use:   "serve STORY",
		Short: "Serve a story over WebSockets",
		Long: `Serve a story over WebSockets at /ws.

Each connection plays its own session.  Connect with ?session=ID to
resume a session.  Otherwise the server makes a new id and sends it
first.  Prometheus metrics are at /metrics and a proofing page is at
/proof.`,
		Args: cobra.ExactArgs(1),
		RunE: runServe,
	}

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tale_active_sessions",
		Help: "Open WebSocket sessions",
	})
)

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "HTTP listen address")
	serveCmd.Flags().StringVarP(&serveStatic, "static", "f", "", "directory to serve at /")
}

// Op is a request from a player.
type Op struct {
	// Op is one of follow, back, forward, restart, save, load,
	// or end.
	Op string `json:"op"`

	// Action is the link to follow.
	Action int `json:"action,omitempty"`

	// State is what load loads.
	State *history.State `json:"state,omitempty"`
}

// Reply is what the server sends.
type Reply struct {
	// Type is session, page, state, or error.
	Type    string         `json:"type"`
	Session string         `json:"session,omitempty"`
	Title   string         `json:"title,omitempty"`
	HTML    string         `json:"html,omitempty"`
	Actions int            `json:"actions,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
	Turn    int            `json:"turn,omitempty"`
	State   *history.State `json:"state,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// server plays one story for many sessions.
type server struct {
	story    *story.Story
	sessions storage.Sessions
	broker   *broker
	upgrader websocket.Upgrader
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	st, err := loadStory(args[0])
	if err != nil {
		return err
	}

	ss, err := openSessions(cfg.Session)
	if err != nil {
		return err
	}
	defer ss.Close()

	b, err := dialBroker(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	s := &server{
		story:    st,
		sessions: ss,
		broker:   b,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/proof", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tools.RenderProofPage(st, w, nil); err != nil {
			logger.Error("proof", "error", err)
		}
	})
	if serveStatic != "" {
		mux.Handle("/", http.FileServer(http.Dir(serveStatic)))
	}

	hs := &http.Server{
		Addr:    serveAddr,
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hs.Shutdown(sctx)
	}()

	logger.Info("serving", "addr", serveAddr, "story", st.Title)
	if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("upgrade", "error", err)
		return
	}
	defer c.Close()

	activeSessions.Inc()
	defer activeSessions.Dec()

	ctx := r.Context()

	id := r.URL.Query().Get("session")
	if id == "" {
		id = uuid.NewString()
	}
	log := logger.With("session", id)
	log.Info("session connected", "remote", r.RemoteAddr)

	// Only this goroutine writes to c.  The engine calls display
	// synchronously from the calls below.
	send := func(reply *Reply) error {
		return c.WriteJSON(reply)
	}
	display := func(ctx context.Context, p *engine.Page) error {
		return send(&Reply{
			Type:    "page",
			Title:   p.Title,
			HTML:    p.HTML(),
			Actions: p.Actions,
			Errors:  p.Errors,
			Turn:    p.Turn,
		})
	}

	if err := send(&Reply{Type: "session", Session: id}); err != nil {
		return
	}

	e, err := newEngine(ctx, s.story, s.sessions, s.broker, id, display)
	if err != nil {
		log.Error("start", "error", err)
		send(&Reply{Type: "error", Error: err.Error()})
		return
	}

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read", "error", err)
			}
			return
		}

		var op Op
		if err := json.Unmarshal(message, &op); err != nil {
			send(&Reply{Type: "error", Error: fmt.Sprintf("can't parse: %v", err)})
			continue
		}

		reply, done, err := s.do(ctx, e, id, &op)
		if err != nil {
			log.Warn("op", "op", op.Op, "error", err)
			reply = &Reply{Type: "error", Error: err.Error()}
		}
		if reply != nil {
			if err := send(reply); err != nil {
				log.Warn("write", "error", err)
				return
			}
		}
		if done {
			return
		}
	}
}

// do performs an op.  Pages go out through the engine's display
// function, so most ops have no reply of their own.
func (s *server) do(ctx context.Context, e *engine.Engine, id string, op *Op) (*Reply, bool, error) {
	switch op.Op {
	case "follow":
		return nil, false, e.Follow(ctx, op.Action)
	case "back", "forward":
		offset := -1
		if op.Op == "forward" {
			offset = 1
		}
		moved, err := e.Go(ctx, offset)
		if err == nil && !moved {
			err = fmt.Errorf("can't go %s", op.Op)
		}
		return nil, false, err
	case "restart":
		return nil, false, e.Restart(ctx)
	case "save":
		return &Reply{Type: "state", State: e.Save()}, false, nil
	case "load":
		if op.State == nil {
			return nil, false, errors.New("load needs a state")
		}
		return nil, false, e.Load(ctx, op.State)
	case "end":
		return nil, true, s.sessions.RemSession(ctx, id)
	}
	return nil, false, fmt.Errorf("unknown op %q", op.Op)
}
