// grant-admin promotes an existing user to administrator by email.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/grant-admin user@example.com
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/mmdatafocus/lostfound_backend/utils"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: grant-admin <email>")
		os.Exit(2)
	}
	email := os.Args[1]

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := models.GrantAdminAccess(ctx, email); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			fmt.Fprintf(os.Stderr, "no user found with email %q. Ask them to register first.\n", email)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "failed to grant admin access: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Granted admin access to %q\n", email)
}
