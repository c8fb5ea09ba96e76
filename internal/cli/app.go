// Package cli implements the interactive operator console for managing
// board user accounts: creating users, changing names, emails, ranks and
// avatars, resetting passwords, and checking credentials.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avolkovs/imgboard/internal/logging"
	"github.com/avolkovs/imgboard/internal/server/avatars"
	"github.com/avolkovs/imgboard/internal/server/config"
	"github.com/avolkovs/imgboard/internal/server/models"
	"github.com/avolkovs/imgboard/internal/server/repositories/repomanager"
	"github.com/avolkovs/imgboard/internal/server/services"
)

// App is the console application. It holds the acting user selected with the
// login command; rank changes are authorized against that user.
type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	users      *services.UserService
	actingUser *models.User
	reader     *bufio.Reader
}

// NewApp connects to the database, runs pending migrations, and wires the
// user service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stderr)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store := avatars.NewStore(c)
	us, err := services.NewUserService(db, rm, store, c)
	if err != nil {
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		users:  us,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the console loop and closes the database when it ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.db.Close(); err != nil {
			a.logger.Error(ctx, "error closing database", "err", err)
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.actingUser != nil
}
