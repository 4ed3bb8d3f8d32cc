package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/nulzo/studio-relay/internal/llm/openrouter"
	"github.com/nulzo/studio-relay/pkg/api"
	"go.uber.org/zap"
)

// maxBodyBytes caps the request body; chat histories with inline images can be large.
const maxBodyBytes = 8 << 20

// ErrNotConfigured is returned to the caller when no OpenRouter key is set.
var ErrNotConfigured = errors.New("OPENROUTER_API_KEY is not configured")

// Relayer forwards chat messages upstream and returns the raw status and body.
type Relayer interface {
	Relay(ctx context.Context, messages json.RawMessage) (int, []byte, error)
}

// Handler is the serverless chat-completions pass-through. It answers POST only.
type Handler struct {
	relayer    Relayer
	configured bool
	logger     *zap.Logger
}

func New(relayer Relayer, configured bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{relayer: relayer, configured: configured, logger: logger}
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header())

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.configured {
		h.fail(w, ErrNotConfigured)
		return
	}

	messages, err := decodeMessages(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, err)
		return
	}

	status, body, err := h.relayer.Relay(r.Context(), messages)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !sonic.Valid(body) {
		h.fail(w, errors.New("upstream returned a non-JSON body"))
		return
	}

	h.logger.Info("relayed chat completion", zap.Int("status", status), zap.Int("bytes", len(body)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decodeMessages takes the caller's messages verbatim, or wraps a bare prompt
// as a single user message.
func decodeMessages(r io.Reader) (json.RawMessage, error) {
	var req api.RelayRequest
	if err := sonic.ConfigDefault.NewDecoder(r).Decode(&req); err != nil {
		return nil, err
	}

	if len(req.Messages) > 0 && string(req.Messages) != "null" {
		return req.Messages, nil
	}
	return openrouter.PromptMessages(req.Prompt)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("relay failed", zap.Error(err))

	body, _ := sonic.Marshal(map[string]string{"error": err.Error()})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}
