// Command tokengen mints bearer tokens for local testing of the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
)

func main() {
	var (
		secret = flag.String("k", os.Getenv("JWT_SECRET"), "signing secret")
		role   = flag.String("role", string(domain.RoleClient), "client, freelancer or operator")
		user   = flag.String("user", "", "user id, random when empty")
		ttl    = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	token, actor, err := mint(*secret, *role, *user, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("can't mint token")
	}
	log.Info().Str("user_id", actor.ID.String()).Str("role", string(actor.Role)).Msg("token issued")
	fmt.Println(token)
}

func mint(secret, role, user string, ttl time.Duration) (string, domain.Actor, error) {
	if secret == "" {
		return "", domain.Actor{}, fmt.Errorf("empty secret")
	}
	actor := domain.Actor{ID: uuid.New(), Role: domain.Role(role)}
	if !actor.Role.Valid() {
		return "", domain.Actor{}, fmt.Errorf("unknown role %q", role)
	}
	if user != "" {
		id, err := uuid.Parse(user)
		if err != nil {
			return "", domain.Actor{}, fmt.Errorf("invalid user id: %w", err)
		}
		actor.ID = id
	}
	token, err := auth.NewJWTService(secret).GenerateJWT(actor, time.Now().Add(ttl))
	return token, actor, err
}
