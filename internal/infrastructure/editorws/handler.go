// Package editorws serves live editor sessions over a websocket. Each
// connection owns one editor session: the client streams buffer edits and
// requests, the server pushes realtime analysis snapshots and replies.
package editorws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/essaycoach/pkg/application"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/feedback"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/matching"
)

// Client message types.
const (
	MsgOpen       = "open"
	MsgEdit       = "edit"
	MsgFeedback   = "feedback"
	MsgDraft      = "draft"
	MsgApplyDraft = "apply_draft"
	MsgUndo       = "undo"
	MsgSave       = "save"
	MsgPing       = "ping"
)

// Server message types.
const (
	MsgSession  = "session"
	MsgAnalysis = "analysis"
	MsgApplied  = "applied"
	MsgSaved    = "saved"
	MsgPong     = "pong"
	MsgError    = "error"
)

// Error codes sent with MsgError.
const (
	CodeBadRequest           = "bad_request"
	CodeNoSession            = "no_session"
	CodeEmptyContent         = "empty_content"
	CodeInsufficientFeedback = "insufficient_feedback"
	CodeContentChanged       = "content_changed"
	CodeBackendUnavailable   = "backend_unavailable"
	CodeMalformedResponse    = "malformed_response"
	CodeSuperseded           = "superseded"
	CodeInternal             = "internal"
)

const maxMessageSize = 1 << 20

// ClientMessage is a request from the editor.
type ClientMessage struct {
	Type         string `json:"type"`
	Content      string `json:"content,omitempty"`
	DocumentType string `json:"documentType,omitempty"`
	ProgramID    string `json:"programId,omitempty"`
	DocumentID   string `json:"documentId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Tone         string `json:"tone,omitempty"`
	Confirm      bool   `json:"confirm,omitempty"`
}

// ServerMessage is pushed to the editor.
type ServerMessage struct {
	Type       string                `json:"type"`
	SessionID  string                `json:"sessionId,omitempty"`
	Snapshot   *application.Snapshot `json:"snapshot,omitempty"`
	Feedback   *feedback.Result      `json:"feedback,omitempty"`
	Quotes     []matching.Resolution `json:"quotes,omitempty"`
	Draft      *application.Draft    `json:"draft,omitempty"`
	Content    string                `json:"content,omitempty"`
	DocumentID string                `json:"documentId,omitempty"`
	Code       string                `json:"code,omitempty"`
	Message    string                `json:"message,omitempty"`
	// RequestID tags replies to feedback and draft requests. Only the reply
	// to the newest request of each kind is sent.
	RequestID  uint64                `json:"requestId,omitempty"`
}

// SessionOpener creates editor sessions. *wiring.AppServices implements it.
type SessionOpener interface {
	NewEditorSession(opts wiring.SessionOptions, content string) (*application.EditorSession, error)
}

// Handler upgrades HTTP requests to editor websockets.
type Handler struct {
	opener   SessionOpener
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a handler that opens sessions through opener.
func NewHandler(opener SessionOpener, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		opener: opener,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// conn serializes writes; snapshots arrive from scheduler goroutines.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) send(msg ServerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(msg)
}

// connection is the per-socket state. The session is only replaced by the
// read loop; one-shot requests run on their own goroutines.
type connection struct {
	h       *Handler
	c       *conn
	logger  *slog.Logger
	session *application.EditorSession
	wg      sync.WaitGroup

	mu     sync.Mutex
	draft  *application.Draft
	nextID uint64
	latest map[string]uint64
}

// begin issues a request id for kind, superseding earlier ones.
func (cn *connection) begin(kind string) uint64 {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	cn.nextID++
	cn.latest[kind] = cn.nextID
	return cn.nextID
}

// supersede invalidates every outstanding request.
func (cn *connection) supersede() {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	cn.latest = map[string]uint64{}
	cn.draft = nil
}

// finish reports whether id is still the newest request of its kind and,
// if so, runs fn under the connection lock.
func (cn *connection) finish(kind string, id uint64, fn func()) bool {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	if cn.latest[kind] != id {
		return false
	}
	delete(cn.latest, kind)
	if fn != nil {
		fn()
	}
	return true
}

// async runs a one-shot request without blocking the read loop. The reply is
// sent only when no newer request of the same kind was issued meanwhile.
func (cn *connection) async(ctx context.Context, kind string, run func(ctx context.Context) (ServerMessage, func())) {
	id := cn.begin(kind)
	cn.wg.Add(1)
	go func() {
		defer cn.wg.Done()
		msg, commit := run(ctx)
		msg.RequestID = id
		if !cn.finish(kind, id, commit) {
			cn.logger.Debug("superseded reply dropped", "kind", kind, "request_id", id)
			return
		}
		if err := cn.c.send(msg); err != nil {
			cn.logger.Debug("reply push failed", "kind", kind, "error", err)
		}
	}()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(r.Context())
	cn := &connection{
		h:      h,
		c:      &conn{ws: ws},
		logger: h.logger.With("remote", r.RemoteAddr),
		latest: map[string]uint64{},
	}
	defer func() {
		cancel()
		cn.wg.Wait()
		if cn.session != nil {
			cn.session.Close()
		}
		_ = ws.Close()
	}()

	for {
		var msg ClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cn.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if err := cn.handle(ctx, msg); err != nil {
			cn.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// handle processes one client message. Only write failures are returned.
func (cn *connection) handle(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case MsgPing:
		return cn.c.send(ServerMessage{Type: MsgPong})
	case MsgOpen:
		return cn.open(msg)
	}

	if cn.session == nil {
		return cn.fail(CodeNoSession, "send an open message first")
	}

	switch msg.Type {
	case MsgEdit:
		if err := cn.session.Edit(msg.Content); err != nil {
			return cn.failErr(err)
		}
		return nil

	case MsgFeedback:
		// Prepared on the read loop so request ids and feedback slot
		// generations are issued in the same order.
		session := cn.session
		call, err := session.PrepareFeedback()
		if err != nil {
			return cn.failErr(err)
		}
		cn.async(ctx, MsgFeedback, func(ctx context.Context) (ServerMessage, func()) {
			res, err := call.Run(ctx)
			if err != nil {
				return cn.errMessage(err), nil
			}
			return ServerMessage{Type: MsgFeedback, Feedback: res, Quotes: session.ResolvedQuotes()}, nil
		})
		return nil

	case MsgDraft:
		session, confirm := cn.session, msg.Confirm
		cn.async(ctx, MsgDraft, func(ctx context.Context) (ServerMessage, func()) {
			d, err := session.RegenerateDraft(ctx, confirm)
			if err != nil {
				return cn.errMessage(err), nil
			}
			return ServerMessage{Type: MsgDraft, Draft: d}, func() { cn.draft = d }
		})
		return nil

	case MsgApplyDraft:
		cn.mu.Lock()
		d := cn.draft
		cn.draft = nil
		cn.mu.Unlock()
		if d == nil {
			return cn.fail(CodeBadRequest, "no draft to apply")
		}
		if err := cn.session.ApplyDraft(d); err != nil {
			return cn.failErr(err)
		}
		return cn.c.send(ServerMessage{Type: MsgApplied, Content: cn.session.Content()})

	case MsgUndo:
		undone, err := cn.session.Undo()
		if err != nil {
			return cn.failErr(err)
		}
		if !undone {
			return cn.fail(CodeBadRequest, "nothing to undo")
		}
		return cn.c.send(ServerMessage{Type: MsgApplied, Content: cn.session.Content()})

	case MsgSave:
		id, err := cn.session.Save(ctx)
		if err != nil {
			return cn.failErr(err)
		}
		return cn.c.send(ServerMessage{Type: MsgSaved, DocumentID: id})

	default:
		return cn.fail(CodeBadRequest, "unknown message type "+msg.Type)
	}
}

// open starts the connection's session, or switches an existing session to
// another document.
func (cn *connection) open(msg ClientMessage) error {
	if cn.session != nil {
		cn.supersede()
		if err := cn.session.Open(msg.DocumentID, msg.Content); err != nil {
			return cn.failErr(err)
		}
		return cn.c.send(ServerMessage{Type: MsgSession, SessionID: cn.session.ID(), DocumentID: msg.DocumentID})
	}
	session, err := cn.h.opener.NewEditorSession(wiring.SessionOptions{
		DocumentType: msg.DocumentType,
		ProgramID:    msg.ProgramID,
		DocumentID:   msg.DocumentID,
		UserID:       msg.UserID,
		Tone:         msg.Tone,
	}, msg.Content)
	if err != nil {
		return cn.failErr(err)
	}
	session.OnSnapshot(func(snap application.Snapshot) {
		if err := cn.c.send(ServerMessage{Type: MsgAnalysis, Snapshot: &snap}); err != nil {
			cn.logger.Debug("snapshot push failed", "seq", snap.Seq, "error", err)
		}
	})
	cn.session = session
	cn.logger.Info("editor session opened", "session_id", session.ID(), "document_id", msg.DocumentID)
	return cn.c.send(ServerMessage{Type: MsgSession, SessionID: session.ID(), DocumentID: msg.DocumentID})
}

func (cn *connection) fail(code, message string) error {
	return cn.c.send(ServerMessage{Type: MsgError, Code: code, Message: message})
}

func (cn *connection) failErr(err error) error {
	return cn.c.send(cn.errMessage(err))
}

func (cn *connection) errMessage(err error) ServerMessage {
	cn.logger.Debug("editor request failed", "error", err)
	return ServerMessage{Type: MsgError, Code: errorCode(err), Message: err.Error()}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, analysis.ErrEmptyContent):
		return CodeEmptyContent
	case errors.Is(err, analysis.ErrInsufficientFeedback):
		return CodeInsufficientFeedback
	case errors.Is(err, application.ErrContentChanged):
		return CodeContentChanged
	case errors.Is(err, application.ErrSuperseded):
		return CodeSuperseded
	case errors.Is(err, analysis.ErrNetwork), errors.Is(err, analysis.ErrBackend):
		return CodeBackendUnavailable
	case errors.Is(err, analysis.ErrMalformedResponse):
		return CodeMalformedResponse
	default:
		return CodeInternal
	}
}
