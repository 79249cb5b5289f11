// Command token issues an access token for a user id and role using the
// configured JWT secret. Sessions are normally issued by the identity
// provider in front of the ledger; this is for operators and local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/auth"
	"github.com/erp/tradeledger/internal/infrastructure/config"
	"github.com/google/uuid"
)

func main() {
	var (
		userID string
		role   string
	)
	flag.StringVar(&userID, "user", "", "User id (default: a random uuid)")
	flag.StringVar(&role, "role", string(shared.RoleCashier), "Role: Admin or Cashier")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	id := uuid.New()
	if userID != "" {
		id, err = uuid.Parse(userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid user id %q: %v\n", userID, err)
			os.Exit(1)
		}
	}

	token, expiresAt, err := auth.NewJWTService(cfg.JWT).GenerateToken(shared.Actor{
		UserID: id,
		Role:   shared.Role(role),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user=%s role=%s expires=%s\n", id, role, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
