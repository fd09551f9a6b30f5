// Command issue-token mints a bearer token for an account using the server's
// JWT settings. It is the operator path for obtaining credentials until an
// identity provider fronts the API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"provenance/internal/jwttoken"
	"provenance/internal/platform/config"
	id "provenance/pkg/domain"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "issue-token: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("issue-token", pflag.ContinueOnError)
	account := flags.String("account", "", "account id the token authenticates")
	ttl := flags.Duration("ttl", 0, "token lifetime (defaults to jwt.token_ttl)")

	cfg, err := config.LoadFlags(flags, args)
	if err != nil {
		return err
	}
	accountID, err := id.ParseAccountID(*account)
	if err != nil {
		return err
	}
	lifetime := cfg.JWT.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	tokens := jwttoken.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	token, err := tokens.GenerateAccessToken(accountID, time.Now(), lifetime)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
