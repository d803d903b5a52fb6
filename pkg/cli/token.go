package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/cli/config"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdToken() *cli.Command {
	var userID int64
	var ttl time.Duration
	var authCfg config.Auth

	flags := []cli.Flag{
		&cli.Int64Flag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User the token authenticates",
			Required:    true,
			Destination: &userID,
		},
		&cli.DurationFlag{
			Name:        "ttl",
			Usage:       "Token lifetime",
			Value:       24 * time.Hour,
			Destination: &ttl,
		},
	}
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:  "token",
		Usage: "Issue a session token for a user (development and scripting)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if userID <= 0 {
				return goerr.New("user-id must be positive", goerr.V("user_id", userID))
			}

			secret, err := authCfg.Secret()
			if err != nil {
				return err
			}

			token, err := usecase.NewJWTAuthUseCase(secret).IssueToken(model.UserID(userID), ttl)
			if err != nil {
				return goerr.Wrap(err, "failed to issue token")
			}

			_, _ = fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}
}
