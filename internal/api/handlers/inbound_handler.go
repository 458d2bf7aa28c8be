package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"boardflow/internal/engine/webhooks"
	"boardflow/internal/pkg/errors"
)

// InboundHandler acknowledges signed callbacks from third parties.
// Sources and their shared secrets come from configuration; the
// signature scheme mirrors our own outbound one.
type InboundHandler struct {
	secrets map[string]string
}

func NewInboundHandler(secrets map[string]string) *InboundHandler {
	return &InboundHandler{secrets: secrets}
}

func (h *InboundHandler) Receive(w http.ResponseWriter, r *http.Request) {
	source := paramFrom(r, "source")

	secret, ok := h.secrets[source]
	if !ok {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Unknown inbound source", nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Failed to read request body", nil)
		return
	}

	signature := r.Header.Get("X-Boardflow-Signature-256")
	if !webhooks.VerifySignature(body, secret, signature) {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid signature", nil)
		return
	}

	log.Info().Str("source", source).Int("bytes", len(body)).Msg("inbound callback verified")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
