package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"treinopp/internal/auth"
	"treinopp/internal/profile"
)

const usage = `usage:
  treinoctl hash-secret --secret <value>
      prints the bcrypt hash to set as FEE_SWEEP_TOKEN_HASH
  treinoctl token --secret <jwt secret> --tenant <id> --user <id> [--role TRAINER] [--email e]
      prints a short-lived access token for local testing
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}

	switch args[0] {
	case "hash-secret":
		return hashSecret(args[1:], out)
	case "token":
		return issueToken(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func hashSecret(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("hash-secret", pflag.ContinueOnError)
	secret := fs.String("secret", "", "sweep trigger token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return errors.New("--secret is required")
	}

	hash, err := auth.HashSecret(*secret)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

func issueToken(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "JWT signing secret")
	tenant := fs.String("tenant", "", "tenant id")
	user := fs.String("user", "", "profile id")
	role := fs.String("role", profile.RoleTrainer, "OWNER, TRAINER or STUDENT")
	email := fs.String("email", "", "caller email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenant == "" || *user == "" {
		return errors.New("--tenant and --user are required")
	}

	token, err := auth.GenerateAccessToken(auth.Identity{
		UserID:   *user,
		TenantID: *tenant,
		Email:    *email,
		Role:     *role,
	}, *secret)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
