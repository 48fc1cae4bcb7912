package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/tmdb"
	"marquee/internal/validation"
)

const maxBodyBytes = 1 << 20

// statusError carries an HTTP status the services classification does not
// cover.
type statusError struct {
	status  int
	code    string
	message string
}

func (e *statusError) Error() string { return e.message }

var (
	errRouteNotFound    = fmt.Errorf("route not found: %w", services.ErrNotFound)
	errMethodNotAllowed = &statusError{status: http.StatusMethodNotAllowed, code: "method_not_allowed", message: "method not allowed"}
	errRateLimited      = &statusError{status: http.StatusTooManyRequests, code: "rate_limited", message: "too many requests"}
)

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "encode response failed", "response_encode_failed",
			logging.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		logging.WithContext(r.Context(), s.logger).Debug("write response failed", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := ErrorBody{
		Code:    services.ErrorCode(err),
		Message: err.Error(),
	}
	status := services.HTTPStatus(err)

	var se *statusError
	if errors.As(err, &se) {
		status, body.Code, body.Message = se.status, se.code, se.message
	}
	var ve *validation.Error
	if errors.As(err, &ve) && status == http.StatusBadRequest {
		body.Fields = ve.Fields
	}

	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		attrs := []logging.Attr{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		}
		if status == http.StatusServiceUnavailable || status == http.StatusBadGateway {
			attrs = append(attrs,
				logging.String(logging.FieldErrorHint, "check TMDB status and the api key"),
				logging.String(logging.FieldImpact, "request served without provider data"),
			)
			logging.WarnWithContext(logger, "provider request failed", "provider_failed", attrs...)
		} else {
			logging.ErrorWithContext(logger, "request failed", "request_failed", attrs...)
			body.Message = "internal server error"
		}
	} else {
		logger.Debug("request rejected", logging.Int("status", status), logging.Error(err))
	}
	s.writeJSON(w, r, status, ErrorResponse{Error: body})
}

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.Wrap(services.ErrValidation, "api", "decode", "request body is empty", nil)
		}
		return services.Wrap(services.ErrValidation, "api", "decode", "malformed JSON body", err)
	}
	if err := validation.Struct(dst); err != nil {
		return services.Wrap(services.ErrValidation, "api", "validate", "", err)
	}
	return nil
}

func pathMedia(r *http.Request) (string, int64, error) {
	mediaType, err := tmdb.NormalizeMediaType(chi.URLParam(r, "media_type"))
	if err != nil {
		return "", 0, services.Wrap(services.ErrValidation, "api", "path", err.Error(), nil)
	}
	id, err := pathID(r)
	if err != nil {
		return "", 0, err
	}
	return mediaType, id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "api", "path", "id must be a positive integer", nil)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, services.Wrap(services.ErrValidation, "api", "query", key+" must be a non-negative integer", nil)
	}
	if max > 0 && v > max {
		v = max
	}
	return v, nil
}

func badRequest(err error) error {
	return services.Wrap(services.ErrValidation, "api", "", err.Error(), nil)
}
