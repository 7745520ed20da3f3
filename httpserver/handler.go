package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/fincrypt/api"
	"github.com/ruteri/fincrypt/cryptoutils"
	"github.com/ruteri/fincrypt/fincrypt"
	"github.com/ruteri/fincrypt/interfaces"
)

// defaultMaxBodySize is used when no body limit is configured (1MB).
const defaultMaxBodySize = 1024 * 1024

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// requestErrorFor maps service errors to HTTP statuses.
func requestErrorFor(err error) *RequestError {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return &RequestError{StatusCode: http.StatusRequestEntityTooLarge, Err: err}
	case errors.Is(err, interfaces.ErrInvalidKeyName),
		errors.Is(err, cryptoutils.ErrInvalidEnvelopeFormat):
		return &RequestError{StatusCode: http.StatusBadRequest, Err: err}
	case errors.Is(err, interfaces.ErrKeyNotFound):
		return &RequestError{StatusCode: http.StatusNotFound, Err: err}
	case errors.Is(err, cryptoutils.ErrMalformedKeyFile):
		return &RequestError{StatusCode: http.StatusUnprocessableEntity, Err: err}
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return &RequestError{StatusCode: http.StatusServiceUnavailable, Err: err}
	default:
		return &RequestError{StatusCode: http.StatusInternalServerError, Err: err}
	}
}

// Handler serves the encrypt, decrypt and key listing API on top of the
// FinCrypt service.
type Handler struct {
	svc         *fincrypt.Service
	maxBodySize int64
	log         *slog.Logger
}

// NewHandler creates a new HTTP request handler. A non-positive
// maxBodySize selects a 1MB limit.
func NewHandler(svc *fincrypt.Service, maxBodySize int64, log *slog.Logger) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &Handler{
		svc:         svc,
		maxBodySize: maxBodySize,
		log:         log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post(api.EncryptPath+"{recipient}", h.HandleEncrypt)
	r.Post(api.DecryptPath+"{sender}", h.HandleDecrypt)
	r.Get(api.KeysPath, h.HandleKeys)
}

// HandleEncrypt seals the request body for the recipient named in the URL
// and signs it with the server's private key.
//
// URL format: POST /api/v1/encrypt/{recipient}
func (h *Handler) HandleEncrypt(w http.ResponseWriter, r *http.Request) {
	recipient := chi.URLParam(r, "recipient")

	plaintext, err := h.readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	message, err := h.svc.EncryptMessage(r.Context(), recipient, plaintext)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("could not encrypt for %s: %w", recipient, err))
		return
	}

	h.writeJSON(w, &api.EncryptResponse{Recipient: recipient, Message: message})
}

// HandleDecrypt opens the envelope in the request body and verifies it
// against the sender named in the URL. Decryption and verification
// failures are reported in the body with status 200.
//
// URL format: POST /api/v1/decrypt/{sender}
func (h *Handler) HandleDecrypt(w http.ResponseWriter, r *http.Request) {
	sender := chi.URLParam(r, "sender")

	text, err := h.readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(text) == 0 {
		h.writeError(w, r, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("empty message in request body")})
		return
	}

	result, err := h.svc.DecryptMessage(r.Context(), sender, string(text))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("could not decrypt from %s: %w", sender, err))
		return
	}

	h.writeJSON(w, api.NewDecryptResponse(sender, result))
}

// HandleKeys lists the public keys the server can encrypt to.
//
// URL format: GET /api/v1/keys
func (h *Handler) HandleKeys(w http.ResponseWriter, r *http.Request) {
	infos, err := h.svc.Keys(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := &api.KeysResponse{Keys: make([]api.KeyInfo, 0, len(infos))}
	for _, info := range infos {
		resp.Keys = append(resp.Keys, api.NewKeyInfo(info))
	}
	h.writeJSON(w, resp)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqErr := requestErrorFor(err)
	requestID := w.Header().Get(api.RequestIDHeader)

	log := h.log.With(slog.String("path", r.URL.Path), slog.String("requestID", requestID))
	if reqErr.StatusCode >= http.StatusInternalServerError {
		log.Error("Request failed", "status", reqErr.StatusCode, "err", err)
	} else {
		log.Debug("Request rejected", "status", reqErr.StatusCode, "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reqErr.StatusCode)
	_ = json.NewEncoder(w).Encode(&api.ErrorResponse{Error: err.Error(), RequestID: requestID})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
