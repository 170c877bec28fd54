package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/ai/workersai"
	"github.com/modelmux/modelmux/providers/observability"
)

const (
	maxBodyBytes        = 1 << 20
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second
)

const (
	errTypeInvalidRequest = "invalid_request_error"
	errTypeUpstream       = "upstream_error"
	errTypeServer         = "server_error"
)

// Dispatcher is the request entry point the handlers forward to. The
// gateway satisfies it.
type Dispatcher interface {
	Complete(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)
	Stream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error)
}

// Server is the HTTP surface over one dispatcher.
type Server struct {
	dispatcher Dispatcher
	registry   *workersai.Registry
	observer   observability.Provider
	app        *echo.Echo
	addr       string
	started    int64
}

// New wires the echo application around the dispatcher: recovery and
// request logging middleware, the OpenAI error envelope, and the route
// table.
func New(dispatcher Dispatcher) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorEnvelopeHandler

	server := &Server{
		dispatcher: dispatcher,
		app:        e,
		addr:       ":8080",
		started:    time.Now().Unix(),
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if server.observer == nil {
				return nil
			}
			server.observer.Info(c.Request().Context(), "request",
				observability.String("method", v.Method),
				observability.String("uri", v.URI),
				observability.Int("status", v.Status),
				observability.Duration(observability.AttrDuration, v.Latency),
			)
			return nil
		},
	}))

	e.GET("/health", server.handleHealth)
	e.GET("/v1/models", server.handleModels)
	e.POST("/v1/chat/completions", server.handleChatCompletions)

	return server
}

// WithAddr sets the listen address and returns the server so calls can be
// chained.
func (s *Server) WithAddr(addr string) *Server {
	s.addr = addr
	return s
}

// WithRegistry wires the model catalog served by GET /v1/models.
func (s *Server) WithRegistry(registry *workersai.Registry) *Server {
	s.registry = registry
	return s
}

// WithObserver wires the logger used by the request middleware.
func (s *Server) WithObserver(observer observability.Provider) *Server {
	s.observer = observer
	return s
}

// Run starts the listener and blocks until the context is cancelled or
// the server fails. Cancellation triggers a graceful shutdown that lets
// in-flight requests drain.
func (s *Server) Run(ctx context.Context) error {
	// No write timeout: SSE responses stay open for the life of the
	// upstream stream.
	httpServer := &http.Server{
		Addr:        s.addr,
		Handler:     s.app,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if s.observer != nil {
		s.observer.Info(ctx, "server listening", observability.String("addr", s.addr))
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

/*
	##### HANDLERS #####
*/

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// modelObject is one entry of the GET /v1/models listing, in the OpenAI
// model shape.
type modelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type modelList struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}

func (s *Server) handleModels(c echo.Context) error {
	list := modelList{Object: "list", Data: []modelObject{}}
	if s.registry != nil {
		for _, model := range s.registry.Models() {
			list.Data = append(list.Data, modelObject{
				ID:      model.ID,
				Object:  "model",
				Created: s.started,
				OwnedBy: "cloudflare",
			})
		}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleChatCompletions(c echo.Context) error {
	var request ai.ChatRequest
	if err := decodeRequestBody(c, &request); err != nil {
		return err
	}
	if len(request.Messages) == 0 {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "messages must not be empty",
			Type:    errTypeInvalidRequest,
		}
	}

	if request.Stream {
		return s.streamCompletion(c, request)
	}

	response, err := s.dispatcher.Complete(c.Request().Context(), request)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, response)
}

// streamCompletion forwards stream chunks as SSE frames. Errors before the
// first frame still produce a JSON error envelope; once frames have been
// written, a failure closes the connection without the [DONE] sentinel.
func (s *Server) streamCompletion(c echo.Context, request ai.ChatRequest) error {
	ctx := c.Request().Context()
	stream, err := s.dispatcher.Stream(ctx, request)
	if err != nil {
		return toHTTPError(err)
	}

	writer := c.Response().Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: "server does not support streaming responses",
			Type:    errTypeServer,
		}
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	for chunk, err := range stream.Iter() {
		if err != nil {
			if s.observer != nil {
				s.observer.Warn(ctx, "stream aborted before completion", observability.Error(err))
			}
			return nil
		}

		data, err := json.Marshal(chunk)
		if err != nil {
			if s.observer != nil {
				s.observer.Error(ctx, "marshal stream chunk", observability.Error(err))
			}
			return nil
		}
		if _, err := fmt.Fprintf(writer, "data: %s\n\n", data); err != nil {
			// Client went away; the loop exit releases the upstream.
			return nil
		}
		flusher.Flush()
	}

	_, _ = fmt.Fprint(writer, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}

/*
	##### DECODING AND ERRORS #####
*/

// decodeRequestBody parses exactly one JSON object from the request body,
// with a size cap.
func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
				Type:    errTypeInvalidRequest,
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
			Type:    errTypeInvalidRequest,
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
			Type:    errTypeInvalidRequest,
		}
	}
	return nil
}

// requestError carries an HTTP status and error-envelope fields through
// echo's error handler.
type requestError struct {
	Status  int
	Message string
	Type    string
	Code    string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

func writeError(c echo.Context, status int, message, errType, code string) error {
	var payload errorBody
	payload.Error.Message = message
	payload.Error.Type = errType
	payload.Error.Code = code
	return c.JSON(status, payload)
}

// errorEnvelopeHandler renders every handler error in the OpenAI error
// envelope. Responses already committed (streams) are left alone.
func errorEnvelopeHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = writeError(c, reqErr.Status, reqErr.Message, reqErr.Type, reqErr.Code)
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = writeError(c, httpErr.Code, fmt.Sprintf("%v", httpErr.Message), errTypeInvalidRequest, "")
		return
	}

	_ = writeError(c, http.StatusInternalServerError, "internal server error", errTypeServer, "")
}

// toHTTPError maps domain errors onto envelope statuses: routing and
// registry misses are the caller's fault, upstream rejections are a bad
// gateway, and anything untyped stays generic.
func toHTTPError(err error) error {
	var unsupported *ai.UnsupportedModelError
	var unknown *ai.UnknownModelError
	var upstream *ai.UpstreamError

	switch {
	case errors.As(err, &unsupported), errors.As(err, &unknown):
		return requestError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
			Type:    errTypeInvalidRequest,
		}
	case errors.As(err, &upstream):
		return requestError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Type:    errTypeUpstream,
		}
	default:
		return requestError{
			Status:  http.StatusBadGateway,
			Message: "upstream provider error",
			Type:    errTypeUpstream,
		}
	}
}
