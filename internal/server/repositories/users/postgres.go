package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkovs/imgboard/internal/common"
	"github.com/avolkovs/imgboard/internal/dbx"
	"github.com/avolkovs/imgboard/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, name, password_salt, password_hash, email, access_rank, creation_time, last_login_time, avatar_style)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.PasswordSalt, user.PasswordHash, nullString(user.Email),
		user.AccessRank, user.CreationTime, nullTime(user.LastLoginTime), user.AvatarStyle,
	)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query :=
		`SELECT id, name, password_salt, password_hash, email, access_rank, creation_time, last_login_time, avatar_style
		 FROM users
		 WHERE name = $1
		 `

	user := &models.User{}
	var email sql.NullString
	var lastLogin sql.NullTime

	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&user.ID, &user.Name, &user.PasswordSalt, &user.PasswordHash, &email,
		&user.AccessRank, &user.CreationTime, &lastLogin, &user.AvatarStyle,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if email.Valid {
		user.Email = &email.String
	}
	if lastLogin.Valid {
		user.LastLoginTime = &lastLogin.Time
	}

	return user, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET name = $2, password_salt = $3, password_hash = $4, email = $5,
		     access_rank = $6, last_login_time = $7, avatar_style = $8
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.PasswordSalt, user.PasswordHash, nullString(user.Email),
		user.AccessRank, nullTime(user.LastLoginTime), user.AvatarStyle,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
