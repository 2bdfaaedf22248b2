package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"kanban/board"
	"kanban/domain"
)

var errInvalidBody = errors.New("invalid body")

// Deps are the collaborators of the HTTP handlers. Deduper and Feed are
// optional.
type Deps struct {
	Sessions Sessions
	Auth     Authenticator
	Deduper  Deduper
	Feed     Subscriber
	Logger   *log.Logger
}

type handlers struct {
	sessions Sessions
	auth     Authenticator
	dedupe   Deduper
	feed     Subscriber
	logger   *log.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &handlers{
		sessions: deps.Sessions,
		auth:     deps.Auth,
		dedupe:   deps.Deduper,
		feed:     deps.Feed,
		logger:   logger,
	}

	e.GET("/healthz", healthz)

	g := e.Group("/api")
	g.GET("/board", h.command("/api/board", http.StatusOK, viewBoard, renderBoard))
	g.POST("/tasks", h.command("/api/tasks", http.StatusCreated, decodeAddTask, renderTask))
	g.DELETE("/tasks/:id", h.command("/api/tasks/:id", http.StatusOK, decodeDeleteTask, renderBoard))
	g.POST("/tasks/:id/move", h.command("/api/tasks/:id/move", http.StatusOK, decodeMoveTask, renderBoard))
	g.POST("/undo", h.command("/api/undo", http.StatusOK, fixed(domain.Undo{}), renderBoard))
	g.POST("/redo", h.command("/api/redo", http.StatusOK, fixed(domain.Redo{}), renderBoard))
	g.POST("/commands", h.postCommands)
	if h.feed != nil {
		g.GET("/stream", h.streamBoard)
	}
}

func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// A commandDecoder builds the command of a request. A nil command reads
// the board without changing it.
type commandDecoder func(c echo.Context) (domain.Command, error)

func viewBoard(echo.Context) (domain.Command, error) { return nil, nil }

func fixed(cmd domain.Command) commandDecoder {
	return func(echo.Context) (domain.Command, error) { return cmd, nil }
}

func decodeAddTask(c echo.Context) (domain.Command, error) {
	var req createTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return nil, err
	}
	return domain.AddTask{Title: req.Title, Desc: req.Desc}, nil
}

func decodeDeleteTask(c echo.Context) (domain.Command, error) {
	return domain.DeleteTask{ID: c.Param("id")}, nil
}

func decodeMoveTask(c echo.Context) (domain.Command, error) {
	var req moveTaskRequest
	if err := decodeBody(c, &req); err != nil {
		return nil, err
	}
	col, err := domain.ParseColumn(req.Column)
	if err != nil {
		return nil, err
	}
	return domain.MoveTask{ID: c.Param("id"), Column: col}, nil
}

func renderBoard(out board.Outcome) any { return newBoardResponse(out) }

func renderTask(out board.Outcome) any {
	resp := createTaskResponse{Warning: out.Warning}
	if out.Task != nil {
		resp.Task = *out.Task
	}
	return resp
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, postCommandMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func (h *handlers) userID(c echo.Context, m *requestMetrics) (string, error) {
	start := time.Now()
	userID, err := h.auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	m.ObserveAuth(time.Since(start))
	return userID, err
}

func (h *handlers) command(route string, status int, decode commandDecoder, render func(board.Outcome) any) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), h.logger, route)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		userID, authErr := h.userID(c, metrics)
		if authErr != nil {
			metrics.SetErrorStage("auth")
			return c.String(http.StatusUnauthorized, authErr.Error())
		}
		cmd, decodeErr := decode(c)
		if decodeErr != nil {
			metrics.SetErrorStage("decode")
			return h.fail(c, decodeErr)
		}
		d, sessErr := h.sessions.Get(ctx, userID)
		if sessErr != nil {
			metrics.SetErrorStage("session")
			return h.fail(c, sessErr)
		}

		start := time.Now()
		var (
			out      board.Outcome
			applyErr error
		)
		if cmd == nil {
			out, applyErr = d.View(ctx)
		} else {
			metrics.SetCommand(cmd.Kind())
			out, applyErr = d.Dispatch(ctx, cmd)
		}
		metrics.ObserveApply(time.Since(start))
		if applyErr != nil {
			metrics.SetErrorStage("apply")
			return h.fail(c, applyErr)
		}
		metrics.SetOutcome(out.Changed, out.Board.Count(), out.Warning)
		return c.JSON(status, render(out))
	}
}

func (h *handlers) postCommands(c echo.Context) (err error) {
	metrics, ctx := newRequestMetrics(c.Request().Context(), h.logger, "/api/commands")
	c.SetRequest(c.Request().WithContext(ctx))
	defer func() {
		metrics.Log(c.Response().Status, err)
	}()

	userID, authErr := h.userID(c, metrics)
	if authErr != nil {
		metrics.SetErrorStage("auth")
		return c.String(http.StatusUnauthorized, authErr.Error())
	}

	cmds := make([]domain.WireCommand, 0, 4)
	if err := decodeBody(c, &cmds); err != nil {
		metrics.SetErrorStage("decode")
		return h.fail(c, err)
	}
	if len(cmds) == 0 {
		metrics.SetErrorStage("decode")
		return c.JSON(http.StatusBadRequest, postCommandResponse{Error: "no commands"})
	}

	d, sessErr := h.sessions.Get(ctx, userID)
	if sessErr != nil {
		metrics.SetErrorStage("session")
		return h.fail(c, sessErr)
	}

	resp := postCommandResponse{Results: make([]commandResult, 0, len(cmds))}
	var last *board.Outcome
	for _, w := range cmds {
		res := commandResult{IdempotencyKey: w.IdempotencyKey, Type: w.Type}
		if res.IdempotencyKey == "" {
			res.IdempotencyKey = uuid.NewString()
		}
		out, status, applyErr := h.applyOnce(ctx, d, userID, res.IdempotencyKey, w, metrics)
		res.Status = status
		if applyErr != nil {
			res.Error = applyErr.Error()
		}
		if status == commandApplied {
			last = &out
		}
		resp.Results = append(resp.Results, res)
	}

	if last == nil {
		if out, viewErr := d.View(ctx); viewErr == nil {
			last = &out
		}
	}
	if last != nil {
		br := newBoardResponse(*last)
		resp.Board = &br
		metrics.SetOutcome(last.Changed, last.Board.Count(), last.Warning)
	}
	return c.JSON(http.StatusOK, resp)
}

// applyOnce dispatches a single wire command unless its idempotency key was
// already seen.
func (h *handlers) applyOnce(ctx context.Context, d *board.Dispatcher, userID, key string, w domain.WireCommand, metrics *requestMetrics) (board.Outcome, string, error) {
	cmd, err := w.Decode()
	if err != nil {
		return board.Outcome{}, commandRejected, err
	}
	metrics.SetCommand(cmd.Kind())

	if h.dedupe != nil {
		added, err := h.dedupe.Add(ctx, userID, key)
		if err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Warn("api.dedupe.failed")
			return board.Outcome{}, commandRejected, fmt.Errorf("record idempotency key: %w", err)
		}
		if !added {
			metrics.AddDuplicate()
			return board.Outcome{}, commandDuplicate, nil
		}
	}

	start := time.Now()
	out, err := d.Dispatch(ctx, cmd)
	metrics.ObserveApply(time.Since(start))
	if err != nil {
		if h.dedupe != nil {
			if rmErr := h.dedupe.Remove(ctx, userID, key); rmErr != nil {
				h.logger.WithError(rmErr).WithField("user_id", userID).Warn("api.dedupe.rollback_failed")
			}
		}
		return board.Outcome{}, commandRejected, err
	}
	return out, commandApplied, nil
}

func (h *handlers) streamBoard(c echo.Context) error {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if token := c.QueryParam("token"); authHeader == "" && token != "" {
		authHeader = "Bearer " + token
	}
	userID, err := h.auth.UserIDFromAuthHeader(authHeader)
	if err != nil {
		return c.String(http.StatusUnauthorized, err.Error())
	}

	ctx := c.Request().Context()
	d, err := h.sessions.Get(ctx, userID)
	if err != nil {
		return h.fail(c, err)
	}
	updates, cancel := h.feed.Subscribe(userID)
	defer cancel()
	out, err := d.View(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	initial, err := domain.EncodeBoard(out.Board)
	if err != nil {
		return h.fail(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}
	c.Response().WriteHeader(http.StatusOK)

	data := initial
	for {
		if _, err := fmt.Fprintf(c.Response(), "data: %s\n\n", data); err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Debug("api.stream.write_failed")
			return nil
		}
		flusher.Flush()
		select {
		case <-ctx.Done():
			return nil
		case data = <-updates:
		}
	}
}

// fail writes the error response matching err.
func (h *handlers) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("route", c.Path()).Error("api.request.failed")
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var (
		validation *domain.ValidationError
		column     *domain.InvalidColumnError
		command    *domain.InvalidCommandError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &column), errors.As(err, &command), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrDispatcherBusy), errors.Is(err, board.ErrDispatcherClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
