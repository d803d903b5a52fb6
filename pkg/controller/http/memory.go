package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/usecase"
)

type MemoryUseCase interface {
	Create(ctx context.Context, userID model.UserID, input usecase.CreateMemoryInput) (*model.Memory, error)
	Update(ctx context.Context, userID model.UserID, id model.MemoryID, update model.MemoryUpdate) (*model.Memory, error)
	Delete(ctx context.Context, userID model.UserID, id model.MemoryID) error
	List(ctx context.Context, userID model.UserID) ([]*model.Memory, error)
	Metrics(ctx context.Context, userID model.UserID) (*model.MemoryMetrics, error)
}

type memoryRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

type listMemoriesResponse struct {
	Grouped map[string][]*memoryResponse `json:"grouped"`
	Items   []*memoryResponse            `json:"items"`
}

func listMemoriesHandler(uc MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		memories, err := uc.List(r.Context(), userID)
		if err != nil {
			respondError(w, r, err)
			return
		}

		resp := listMemoriesResponse{
			Grouped: make(map[string][]*memoryResponse),
			Items:   toMemoryResponses(memories),
		}
		for category, group := range model.GroupByCategory(memories) {
			resp.Grouped[category] = toMemoryResponses(group)
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

func createMemoryHandler(uc MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var req memoryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		input := usecase.CreateMemoryInput{}
		if req.Title != nil {
			input.Title = *req.Title
		}
		if req.Content != nil {
			input.Content = *req.Content
		}
		if req.Category != nil {
			input.Category = *req.Category
		}
		if req.Tags != nil {
			input.Tags = *req.Tags
		}

		created, err := uc.Create(r.Context(), userID, input)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, toMemoryResponse(created))
	}
}

func updateMemoryHandler(uc MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		id, err := memoryIDParam(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var req memoryRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		updated, err := uc.Update(r.Context(), userID, id, model.MemoryUpdate{
			Title:    req.Title,
			Content:  req.Content,
			Category: req.Category,
			Tags:     req.Tags,
		})
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, toMemoryResponse(updated))
	}
}

func deleteMemoryHandler(uc MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		id, err := memoryIDParam(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := uc.Delete(r.Context(), userID, id); err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func memoryMetricsHandler(uc MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		metrics, err := uc.Metrics(r.Context(), userID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, metrics)
	}
}

func memoryIDParam(r *http.Request) (model.MemoryID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(usecase.ErrInvalidInput, "invalid memory id", goerr.V("id", raw))
	}
	return model.MemoryID(id), nil
}
