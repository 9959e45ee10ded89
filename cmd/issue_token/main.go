package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// issue_token prints a session token for a user the identity provider has
// already verified.
func main() {
	uid := flag.String("uid", "", "Identity provider uid (required)")
	email := flag.String("email", "", "Email claim")
	name := flag.String("name", "", "Display name claim")
	ttl := flag.Duration("ttl", service.DefaultTokenTTL, "Token lifetime")
	flag.Parse()

	if *uid == "" {
		logrus.Fatal("-uid is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is not set")
	}

	token, err := service.NewTokenService(cfg.JWTSecret).Issue(types.Identity{
		UserID: *uid,
		Email:  *email,
		Name:   *name,
	}, *ttl)
	if err != nil {
		logrus.Fatalf("Failed to issue token: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"uid":     *uid,
		"admin":   cfg.IsAdmin(*uid),
		"expires": time.Now().Add(*ttl).Format(time.RFC3339),
	}).Info("Issued session token")
	fmt.Println(token)
}
