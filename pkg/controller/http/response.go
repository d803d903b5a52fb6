package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/service/provider"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/errutil"
	"github.com/secmon-lab/memora/pkg/utils/logging"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type memoryResponse struct {
	ID           model.MemoryID `json:"id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Category     string         `json:"category"`
	Tags         []string       `json:"tags"`
	HasEmbedding bool           `json:"has_embedding"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toMemoryResponse(m *model.Memory) *memoryResponse {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return &memoryResponse{
		ID:           m.ID,
		Title:        m.Title,
		Content:      m.Content,
		Category:     model.NormalizeCategory(m.Category),
		Tags:         tags,
		HasEmbedding: m.HasEmbedding(),
		CreatedAt:    m.CreatedAt,
	}
}

func toMemoryResponses(memories []*model.Memory) []*memoryResponse {
	resp := make([]*memoryResponse, len(memories))
	for i, m := range memories {
		resp[i] = toMemoryResponse(m)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// respondError maps a use case error to a status and JSON body. Server side
// failures are logged with their goerr context and reported to Sentry.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		_ = errutil.Handle(r.Context(), err, "request failed")
	} else {
		logging.From(r.Context()).Info("request rejected", "status", status, "error", err.Error())
	}
	writeError(w, r, status, msg)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, usecase.ErrAccessDenied):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, usecase.ErrMemoryNotFound):
		return http.StatusNotFound, "Memory not found"
	case errors.Is(err, provider.ErrNotConfigured):
		return http.StatusServiceUnavailable, "LLM provider is not configured; set --completion-url or --llm-provider"
	case errors.Is(err, provider.ErrKeyMissing):
		return http.StatusServiceUnavailable, "LLM provider API key is missing; set --completion-key"
	case errors.Is(err, provider.ErrRequestFailed):
		return http.StatusBadGateway, "LLM provider request failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(usecase.ErrInvalidInput, "malformed JSON body", goerr.V("cause", err.Error()))
	}
	return nil
}

func currentUser(r *http.Request) (model.UserID, error) {
	userID, ok := model.UserIDFromContext(r.Context())
	if !ok {
		return 0, goerr.Wrap(usecase.ErrUnauthorized, "no user in request context")
	}
	return userID, nil
}
