// Command devtoken mints an access token for local development against the portal.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/campusdesk/student-portal/internal/auth"
	"github.com/campusdesk/student-portal/internal/config"
	"github.com/campusdesk/student-portal/internal/domain"
)

func main() {
	id := flag.String("id", "", "user id (token subject)")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "email address")
	flag.Parse()

	if *id == "" {
		log.Fatal("-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, exp, err := tokens.GenerateToken(domain.Identity{ID: *id, Name: *name, Email: *email})
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Printf("%s\n# expires %s; send as \"Authorization: Bearer <token>\" or the %q cookie\n",
		token, exp.Format("2006-01-02 15:04:05 MST"), cfg.Auth.CookieName)
}
