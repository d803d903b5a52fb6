package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// minSecretLength is the minimum HS256 key size in bytes.
const minSecretLength = 32

// Auth holds CLI flags for session authentication.
type Auth struct {
	secret    string
	noAuthUID int64
}

func (a *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-secret",
			Usage:       "HS256 secret used to verify session tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("MEMORA_SESSION_SECRET"),
			Destination: &a.secret,
		},
		&cli.Int64Flag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run as the given user ID (development only). Example: --no-auth=1",
			Category:    "Authentication",
			Sources:     cli.EnvVars("MEMORA_NO_AUTH"),
			Destination: &a.noAuthUID,
		},
	}
}

func (a Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("secret_set", a.secret != ""),
		slog.Int64("no_auth_uid", a.noAuthUID),
	)
}

// IsNoAuthMode reports whether authentication is bypassed.
func (a *Auth) IsNoAuthMode() bool {
	return a.noAuthUID > 0
}

// Configure returns the authenticator selected by the flags.
func (a *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if a.IsNoAuthMode() {
		logging.Default().Warn("Running in no-auth mode (development only)", "user_id", a.noAuthUID)
		return usecase.NewNoAuthnUseCase(model.UserID(a.noAuthUID)), nil
	}

	secret, err := a.Secret()
	if err != nil {
		return nil, err
	}
	return usecase.NewJWTAuthUseCase(secret), nil
}

// Secret returns the validated session secret.
func (a *Auth) Secret() ([]byte, error) {
	if a.secret == "" {
		return nil, goerr.Wrap(ErrMissingOption, "session-secret is required unless --no-auth is set",
			goerr.V(OptionKey, "session-secret"))
	}
	if len(a.secret) < minSecretLength {
		return nil, goerr.Wrap(ErrInvalidConfig, "session-secret is too short",
			goerr.V("min_length", minSecretLength))
	}
	return []byte(a.secret), nil
}
