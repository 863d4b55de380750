// Command issue-token prints a signed console token for local testing.
//
//	issue-token -uid 7 -role 8d0c... -ttl 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"roleconsole/internal/config"
	"roleconsole/internal/middleware"

	"github.com/google/uuid"
)

func main() {
	uid := flag.Int64("uid", 0, "actor id stored in the uid claim")
	role := flag.String("role", "", "role id stored in the role_id claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	roleID, err := uuid.Parse(*role)
	if err != nil {
		log.Fatalf("-role must be a role uuid: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, *uid, roleID, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
