package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/utils"
	"github.com/redis/go-redis/v9"
)

// WSHandler is the live interview room: the browser streams answers and
// ticks over one socket and gets questions back on the same socket. Report
// readiness is forwarded from the worker's redis channel.
type WSHandler struct {
	interviews services.InterviewService
	driver     *services.Driver
	redis      *redis.Client
	upgrader   websocket.Upgrader
}

func NewWSHandler(interviews services.InterviewService, driver *services.Driver, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		driver:     driver,
		redis:      rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // answer|tick|complete|abort
	Text string `json:"text,omitempty"`

	ElapsedDeltaSeconds int64 `json:"elapsed_delta_seconds,omitempty"`
	DurationSeconds     int64 `json:"duration_seconds,omitempty"`
}

type wsServerMsg struct {
	Type     string          `json:"type"` // question|completed|error|report_ready
	Text     string          `json:"text,omitempty"`
	Status   string          `json:"status,omitempty"`
	Code     string          `json:"code,omitempty"`
	Raw      json.RawMessage `json:"payload,omitempty"`
	CanRetry bool            `json:"can_retry,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteJSON(v)
}

func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	iv, err := h.interviews.Get(c.Request.Context(), c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if iv.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "WSHandler.InterviewWS", "forbidden", nil))
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn := &wsConn{c: raw}
	defer raw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// forward report_ready events published by the worker
	if h.redis != nil {
		sub := h.redis.Subscribe(ctx, "interview:"+iv.InterviewID+":report")
		defer sub.Close()
		go func() {
			for msg := range sub.Channel() {
				_ = conn.writeJSON(wsServerMsg{Type: "report_ready", Raw: json.RawMessage(msg.Payload)})
			}
		}()
	}

	for {
		_ = raw.SetReadDeadline(time.Now().Add(5 * time.Minute))

		var msg wsClientMsg
		if err := raw.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "answer":
			if err := h.driver.SubmitAnswer(ctx, iv.InterviewID, msg.Text); err != nil {
				h.writeErrMsg(conn, err)
				continue
			}
			question, done, err := h.driver.Advance(ctx, iv.InterviewID)
			if err != nil {
				h.writeErrMsg(conn, err)
				continue
			}
			if done {
				_ = conn.writeJSON(wsServerMsg{Type: "completed", Status: "completed"})
				continue
			}
			_ = conn.writeJSON(wsServerMsg{Type: "question", Text: question})

		case "tick":
			completed, err := h.driver.Tick(ctx, iv.InterviewID, msg.ElapsedDeltaSeconds)
			if err != nil {
				h.writeErrMsg(conn, err)
				continue
			}
			if completed {
				_ = conn.writeJSON(wsServerMsg{Type: "completed", Status: "completed"})
			}

		case "complete":
			dur := msg.DurationSeconds
			if dur == 0 {
				dur = -1
			}
			status, err := h.driver.Complete(ctx, iv.InterviewID, dur)
			if err != nil {
				h.writeErrMsg(conn, err)
				continue
			}
			_ = conn.writeJSON(wsServerMsg{Type: "completed", Status: string(status)})

		case "abort":
			status, err := h.driver.Abort(ctx, iv.InterviewID)
			if err != nil {
				h.writeErrMsg(conn, err)
				continue
			}
			_ = conn.writeJSON(wsServerMsg{Type: "completed", Status: string(status)})
		}
	}
}

func (h *WSHandler) writeErrMsg(conn *wsConn, err error) {
	code := utils.CodeInternal
	var ae *utils.AppError
	if e, ok := err.(*utils.AppError); ok {
		ae = e
	}
	msg := "internal error"
	if ae != nil {
		code = ae.Code
		msg = ae.Message
	}
	_ = conn.writeJSON(wsServerMsg{Type: "error", Code: string(code), Text: msg, CanRetry: utils.Retryable(err)})
}
