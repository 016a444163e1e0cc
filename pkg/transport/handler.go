//go:build cgo
// +build cgo

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/motionlab/dtwcapture/internal/appctx"
	"github.com/motionlab/dtwcapture/pkg/capture"
)

// idleTimeout bounds how long a connection may sit without sending a
// message before the handler gives up on it (spec.md §5's "timeouts are
// enforced at the transport layer" recommendation).
const idleTimeout = 5 * time.Minute

// Handler upgrades HTTP connections to WebSocket and runs one capture
// session per connection (spec.md §4.6). It implements http.Handler so
// it can be mounted directly on a mux.
type Handler struct {
	App      *appctx.AppContext
	Detector capture.LandmarkDetector
	Pool     *WorkerPool
}

// NewHandler builds a Handler. detector may be capture.NullDetector{} if
// no real landmark backend is wired in.
func NewHandler(app *appctx.AppContext, detector capture.LandmarkDetector, pool *WorkerPool) *Handler {
	if pool == nil {
		pool = NewWorkerPool(app.Config.Capture.WorkerPoolSize)
	}
	return &Handler{App: app, Detector: detector, Pool: pool}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("websocket accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	c := &connHandler{
		conn:   conn,
		app:    h.App,
		detect: h.Detector,
		pool:   h.Pool,
	}
	c.run(r.Context())
}

// connHandler runs the single-threaded cooperative read loop for one
// connection (spec.md §5): the transport read is the only suspension
// point while the session is RUNNING.
type connHandler struct {
	conn   *websocket.Conn
	app    *appctx.AppContext
	detect capture.LandmarkDetector
	pool   *WorkerPool

	session *capture.Session
	frames  []capture.DecodedFrame
	useZ    bool
}

func (c *connHandler) run(ctx context.Context) {
	defer func() {
		for _, f := range c.frames {
			f.Close()
		}
	}()

	for {
		readCtx, cancel := context.WithTimeout(ctx, idleTimeout)
		_, data, err := c.conn.Read(readCtx)
		cancel()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(ctx, errorMsg("protocol", "malformed message"))
			continue
		}

		switch msg.Type {
		case "init":
			c.handleInit(ctx, msg)
		case "frame":
			c.handleFrame(ctx, msg)
		case "pause":
			c.handlePause(ctx, msg)
		case "end":
			if c.handleEnd(ctx) {
				return
			}
		default:
			c.send(ctx, errorMsg("", fmt.Sprintf("unknown message type %q", msg.Type)))
		}
	}
}

func (c *connHandler) handleInit(ctx context.Context, msg ClientMessage) {
	if c.session != nil {
		c.send(ctx, errorMsg("init", "session already initialized"))
		return
	}

	model := capture.Model(msg.Model)
	testName := capture.NormalizeTestName(msg.resolvedTestName())

	testID := msg.TestID
	if testID == "" {
		testID = uuid.NewString()
	}

	c.useZ = c.app.Config.Capture.UseZ
	c.session = capture.NewSession(testID, msg.PatientID)
	c.session.UseZ = c.useZ

	tmpl, tmplErr := c.app.Templates.Load(testName, model)
	if err := c.session.Init(testName, model, msg.FPS, c.app.Band(), tmpl, tmplErr); err != nil {
		c.send(ctx, errorMsg("init", err.Error()))
		return
	}

	c.send(ctx, initializedMsg(testID))
}

func (c *connHandler) handleFrame(ctx context.Context, msg ClientMessage) {
	if c.session == nil {
		c.send(ctx, errorMsg("frame", "Not initialized"))
		return
	}

	var (
		decoded capture.DecodedFrame
		lm      capture.FrameLandmarks
		smoothed capture.FrameLandmarks
		extracted bool
		decodeErr, detectErr, sessErr error
	)

	c.pool.Do(func() {
		decoded, decodeErr = capture.DecodeFrame(msg.Data)
		if decodeErr != nil {
			return
		}
		lm, detectErr = c.detect.Detect(ctx, decoded)
		if detectErr != nil {
			return
		}
		smoothed, extracted, sessErr = c.session.Frame(lm, c.useZ)
	})

	if decodeErr != nil {
		c.send(ctx, errorMsg("frame", decodeErr.Error()))
		return
	}
	if detectErr != nil {
		c.send(ctx, errorMsg("frame", detectErr.Error()))
		decoded.Close()
		return
	}
	if sessErr != nil {
		c.send(ctx, errorMsg("frame", sessErr.Error()))
		decoded.Close()
		return
	}

	c.frames = append(c.frames, decoded)

	framesSeen, _, _ := c.session.Counters()
	_ = extracted // keypoints are still emitted on a drop; only feature_buffer skips it
	c.send(ctx, keypointsMsg(string(c.session.Model), framesSeen-1, smoothed))
}

func (c *connHandler) handlePause(ctx context.Context, msg ClientMessage) {
	if c.session == nil {
		c.send(ctx, errorMsg("pause", "Not initialized"))
		return
	}
	if err := c.session.SetPaused(msg.Paused); err != nil {
		c.send(ctx, errorMsg("pause", err.Error()))
		return
	}
	status := "resumed"
	if msg.Paused {
		status = "paused"
	}
	c.send(ctx, statusMsg(status, !msg.Paused))
}

// handleEnd runs the end-of-session pipeline and reports whether the
// session actually ended. A false return (Not-initialized, or End()
// failing with EndWithoutFeatures/a protocol error) leaves the session
// in its current state per spec.md §4.5, so the caller must keep the
// connection open rather than close it.
func (c *connHandler) handleEnd(ctx context.Context) bool {
	if c.session == nil {
		c.send(ctx, errorMsg("end", "Not initialized"))
		return false
	}

	snap, err := c.session.End()
	if err != nil {
		c.send(ctx, dtwErrorMsg(err.Error()))
		return false
	}

	result, err := capture.Finalize(snap, c.frames, c.app.RecordingsDir, c.app.Sink)
	if err != nil {
		code := capture.CodeOf(err)
		switch code {
		case capture.CodeWriter:
			c.send(ctx, errorMsg("save_mp4", err.Error()))
		case capture.CodeStorage:
			c.send(ctx, errorMsg("sql_save", err.Error()))
		default:
			c.send(ctx, dtwErrorMsg(err.Error()))
		}
		return true
	}

	c.send(ctx, completeMsg(snap.testID, result))
	return true
}

func (c *connHandler) send(ctx context.Context, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("encoding server message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		log.Printf("writing server message: %v", err)
	}
}
