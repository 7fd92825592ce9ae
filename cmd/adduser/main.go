// Command adduser creates a user account directly against the database,
// bypassing the HTTP API. Useful for bootstrapping the first account in a
// fresh deployment. The password is read from the terminal without echo.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/gezielcarvalho/ascauth/internal/server/config"
	"github.com/gezielcarvalho/ascauth/internal/server/repositories/repomanager"
	"github.com/gezielcarvalho/ascauth/internal/server/services"
)

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {

	cfg := config.LoadConfig()

	reader := bufio.NewReader(os.Stdin)

	email, err := readLine(reader, "Enter email")
	if err != nil {
		return err
	}
	name, err := readLine(reader, "Enter name")
	if err != nil {
		return err
	}

	password, err := readPassword("Enter password")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	registry := services.NewSessionRegistry(db, m)
	creds, err := services.NewCredentialService(db, m, registry, cfg)
	if err != nil {
		return err
	}

	user, err := creds.Create(ctx, email, password, name)
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (%s)\n", user.ID, user.Email)
	return nil
}

func readLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Println(prompt)
	text, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func readPassword(prompt string) (string, error) {
	fmt.Println(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(password), nil
}
