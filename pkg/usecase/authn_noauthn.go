package usecase

import (
	"context"

	"github.com/secmon-lab/memora/pkg/domain/model"
)

// NoAuthnUseCase authenticates every request as a fixed user (for development/testing)
type NoAuthnUseCase struct {
	userID model.UserID
}

var _ AuthUseCaseInterface = &NoAuthnUseCase{}

func NewNoAuthnUseCase(userID model.UserID) *NoAuthnUseCase {
	return &NoAuthnUseCase{userID: userID}
}

// Authenticate ignores the token and returns the configured user
func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, token string) (model.UserID, error) {
	return uc.userID, nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
