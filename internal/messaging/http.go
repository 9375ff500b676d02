package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxMessageBytes = 64 << 10

// Publisher accepts messages for delivery to the coordinator.
type Publisher interface {
	Publish(msg Message) error
}

// NewHandler returns the coordinator's inbound message port.
//
//	POST /messages   202 queued, 204 ignored type, 400 invalid, 503 dropped
//	GET  /health     200
func NewHandler(pub Publisher, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/messages", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("read body"))
			return
		}

		msg, err := Decode(raw)
		if err != nil {
			logger.Debug("message rejected", slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}

		if msg.Type != TypeLinkClicked {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if err := pub.Publish(msg); err != nil {
			logger.Debug("message dropped",
				slog.String("url", msg.URL),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// HTTPSender posts messages to a coordinator port.
type HTTPSender struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSender creates a sender for the port at baseURL (e.g. http://127.0.0.1:7333).
func NewHTTPSender(baseURL string) *HTTPSender {
	return &HTTPSender{
		endpoint: baseURL + "/messages",
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Send implements Sender.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoReceiver, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return ErrDropped
	case resp.StatusCode >= 300:
		return fmt.Errorf("send message: %s", resp.Status)
	}
	return nil
}

// IsDeliveryFailure reports whether err means the message did not reach a coordinator.
func IsDeliveryFailure(err error) bool {
	return errors.Is(err, ErrNoReceiver) || errors.Is(err, ErrDropped)
}
