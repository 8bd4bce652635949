// Package main provides a CLI tool for generating test tokens for the
// MetaSignet API. These tokens use the dev signing key and will NOT work
// against a production deployment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"metasignet/internal/token"
	"metasignet/pkg/domain"
)

// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set.
const devSigningKey = "dev-secret-key-change-in-production"

type tokenOutput struct {
	Token     string `json:"token"`
	Actor     string `json:"actor"`
	Handle    string `json:"handle,omitempty"`
	ExpiresIn string `json:"expires_in"`
	Usage     string `json:"usage"`
}

func main() {
	actorFlag := flag.String("actor", "", "Actor DID or handle (required), e.g. did:plc:abc or alice.bsky.social")
	handleFlag := flag.String("handle", "", "Human-readable handle when -actor is a DID")
	ttlFlag := flag.Duration("ttl", 24*time.Hour, "Token time-to-live")
	keyFlag := flag.String("key", "", "Signing key (defaults to the dev key, or JWT_SIGNING_KEY if set)")
	jsonFlag := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *actorFlag == "" {
		fmt.Fprintln(os.Stderr, "error: -actor is required")
		flag.Usage()
		os.Exit(1)
	}

	actor, err := domain.ParseActorID(*actorFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid actor: %v\n", err)
		os.Exit(1)
	}

	signingKey := *keyFlag
	if signingKey == "" {
		signingKey = os.Getenv("JWT_SIGNING_KEY")
	}
	if signingKey == "" {
		signingKey = devSigningKey
	}

	svc, err := token.NewService(signingKey, *ttlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	signed, err := svc.Issue(context.Background(), actor, *handleFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to issue token: %v\n", err)
		os.Exit(1)
	}

	if *jsonFlag {
		out := tokenOutput{
			Token:     signed,
			Actor:     actor.String(),
			Handle:    *handleFlag,
			ExpiresIn: ttlFlag.String(),
			Usage:     "Authorization: Bearer <token>",
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Println(signed)
}
