package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

import (
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders any error as an ErrorResponse. Throttled responses
// carry Retry-After in whole seconds, rounded up.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	status := e.Status()

	detail := &ErrorDetail{
		Reason:    e.Reason,
		RequestID: GetRequestID(r.Context()),
		Fields:    e.Fields,
	}
	if e.Kind == apperr.KindRateLimited && e.RetryAfter > 0 {
		detail.RetryAfterMs = e.RetryAfter.Milliseconds()
		if detail.RetryAfterMs == 0 {
			detail.RetryAfterMs = 1
		}
		w.Header().Set("Retry-After", strconv.FormatInt((detail.RetryAfterMs+999)/1000, 10))
	}

	msg := e.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", detail.RequestID),
			zap.String("kind", string(e.Kind)),
			zap.Error(e))
		if e.Kind == apperr.KindInternal {
			msg = "internal server error"
		}
	}

	writeJSON(w, status, ErrorResponse{
		Code:    status,
		Error:   string(e.Kind),
		Message: msg,
		Detail:  detail,
	})
}

// decode reads a JSON body into v. Unknown fields are ignored.
func decode(r *http.Request, w http.ResponseWriter, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Validation("invalid request body: " + err.Error())
	}
	return nil
}
