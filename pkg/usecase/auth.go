package usecase

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

const sessionIssuer = "memora"

// AuthUseCaseInterface resolves the authenticated user of a request.
type AuthUseCaseInterface interface {
	Authenticate(ctx context.Context, token string) (model.UserID, error)
	IsNoAuthn() bool
}

// JWTAuthUseCase verifies HS256 session tokens whose subject is the user id.
type JWTAuthUseCase struct {
	secret []byte
	cache  *authCache
	now    func() time.Time
}

var _ AuthUseCaseInterface = &JWTAuthUseCase{}

func NewJWTAuthUseCase(secret []byte) *JWTAuthUseCase {
	return &JWTAuthUseCase{
		secret: secret,
		cache:  newAuthCache(authCacheMaxEntries),
		now:    time.Now,
	}
}

func (uc *JWTAuthUseCase) Authenticate(ctx context.Context, token string) (model.UserID, error) {
	if token == "" {
		return 0, goerr.Wrap(ErrUnauthorized, "token is required")
	}
	if userID, ok := uc.cache.get(token, uc.now()); ok {
		return userID, nil
	}

	parsed, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, uc.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithClock(jwt.ClockFunc(uc.now)),
		jwt.WithAcceptableSkew(10*time.Second),
	)
	if err != nil {
		return 0, goerr.Wrap(ErrUnauthorized, "invalid session token", goerr.V("cause", err.Error()))
	}

	userID, err := model.ParseUserID(parsed.Subject())
	if err != nil {
		return 0, goerr.Wrap(ErrUnauthorized, "invalid subject", goerr.V("subject", parsed.Subject()))
	}

	uc.cache.set(token, userID, parsed.Expiration(), uc.now())
	return userID, nil
}

// IssueToken signs a session token for userID valid for ttl.
func (uc *JWTAuthUseCase) IssueToken(userID model.UserID, ttl time.Duration) (string, error) {
	now := uc.now()
	tok, err := jwt.NewBuilder().
		Issuer(sessionIssuer).
		Subject(userID.String()).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build session token")
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, uc.secret))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign session token")
	}
	return string(signed), nil
}

func (uc *JWTAuthUseCase) IsNoAuthn() bool {
	return false
}
