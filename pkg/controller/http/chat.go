package http

import (
	"context"
	"net/http"

	"github.com/secmon-lab/memora/pkg/domain/model"
)

type ChatUseCase interface {
	Chat(ctx context.Context, userID model.UserID, message string) (*model.ChatTurn, error)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply  string           `json:"reply"`
	Saved  []model.MemoryID `json:"saved"`
	TurnID model.TurnID     `json:"turn_id"`
}

func chatHandler(uc ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var req chatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}

		turn, err := uc.Chat(r.Context(), userID, req.Message)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, chatResponse{
			Reply:  turn.Reply,
			Saved:  turn.SavedIDs(),
			TurnID: turn.ID,
		})
	}
}
