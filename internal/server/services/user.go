// Package services contains server-side business logic. This file implements
// UserService, the user record manager: it validates and mutates account
// fields (name, password, email, access rank, login timestamp, avatar style)
// and creates/retrieves user records through the users repository.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkovs/imgboard/internal/common"
	"github.com/avolkovs/imgboard/internal/dbx"
	"github.com/avolkovs/imgboard/internal/server/auth"
	"github.com/avolkovs/imgboard/internal/server/avatars"
	"github.com/avolkovs/imgboard/internal/server/config"
	"github.com/avolkovs/imgboard/internal/server/models"
	"github.com/avolkovs/imgboard/internal/server/repositories/repomanager"
	"github.com/avolkovs/imgboard/internal/server/validation"
)

// UserService validates and mutates user records. Every mutating operation
// validates first and assigns only on success, so a failed call leaves the
// record untouched. The validation patterns and the rank list come from the
// configuration passed to the constructor; nothing here reads global state.
type UserService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	avatars            *avatars.Store
	nameRegex          *regexp.Regexp
	passwordRegex      *regexp.Regexp
	ranks              []string
	defaultRank        string
	defaultAvatarStyle string
	now                func() time.Time
}

// NewUserService constructs a UserService from server config. It compiles
// the validation patterns once and rejects a configuration whose default
// rank is not a member of the rank list.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, avatarStore *avatars.Store, cfg *config.Config) (*UserService, error) {
	nameRegex, err := regexp.Compile(cfg.UserNameRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid user name regex: %w", err)
	}
	passwordRegex, err := regexp.Compile(cfg.PasswordRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid password regex: %w", err)
	}
	if validation.RankIndex(cfg.UserRanks, cfg.DefaultUserRank) < 0 {
		return nil, fmt.Errorf("default rank %q is not in the rank list %v", cfg.DefaultUserRank, cfg.UserRanks)
	}

	return &UserService{
		db:                 db,
		repomanager:        m,
		avatars:            avatarStore,
		nameRegex:          nameRegex,
		passwordRegex:      passwordRegex,
		ranks:              cfg.UserRanks,
		defaultRank:        cfg.DefaultUserRank,
		defaultAvatarStyle: cfg.DefaultAvatarStyle,
		now:                time.Now,
	}, nil
}

// CreateUser builds a new user record, validating name, password, and email,
// and stamps it with the configured default rank, the default avatar style,
// and the creation time. The record is not persisted; see Register.
func (s *UserService) CreateUser(name, password, email string) (*models.User, error) {
	user := &models.User{}
	if err := s.UpdateName(user, name); err != nil {
		return nil, err
	}
	if err := s.UpdatePassword(user, password); err != nil {
		return nil, err
	}
	if err := s.UpdateEmail(user, email); err != nil {
		return nil, err
	}
	user.AccessRank = s.defaultRank
	user.CreationTime = s.now()
	user.AvatarStyle = s.defaultAvatarStyle
	return user, nil
}

// UpdateName trims and validates a new user name and assigns it.
func (s *UserService) UpdateName(user *models.User, name string) error {
	name = strings.TrimSpace(name)
	if err := validation.CheckName(s.nameRegex, name); err != nil {
		return err
	}
	user.Name = name
	return nil
}

// UpdatePassword validates a new plaintext password and, on success,
// replaces the user's salt and hash with a freshly derived pair. The
// plaintext is not retained.
func (s *UserService) UpdatePassword(user *models.User, password string) error {
	if err := validation.CheckPassword(s.passwordRegex, password); err != nil {
		return err
	}
	salt, err := auth.CreateSalt()
	if err != nil {
		return common.ErrorInternal
	}
	user.PasswordSalt = salt
	user.PasswordHash = auth.HashPassword(salt, password)
	return nil
}

// UpdateEmail trims and validates a new email address. An empty or
// whitespace-only value clears the address.
func (s *UserService) UpdateEmail(user *models.User, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		user.Email = nil
		return nil
	}
	if err := validation.CheckEmail(email); err != nil {
		return err
	}
	user.Email = &email
	return nil
}

// UpdateRank validates a new access rank and the acting user's authority to
// grant it: a user may grant at most their own rank. Rank order follows the
// configured list, lowest to highest privilege.
func (s *UserService) UpdateRank(user *models.User, rank string, actingUser *models.User) error {
	rank = strings.TrimSpace(rank)
	if err := validation.CheckRank(s.ranks, rank); err != nil {
		return err
	}
	if validation.RankIndex(s.ranks, actingUser.AccessRank) < validation.RankIndex(s.ranks, rank) {
		return common.NewAuthorizationError("trying to set access rank %q above your own", rank)
	}
	user.AccessRank = rank
	return nil
}

// BumpLoginTime sets the user's last login time to now.
func (s *UserService) BumpLoginTime(user *models.User) {
	t := s.now()
	user.LastLoginTime = &t
}

// ResetPassword generates a random password, replaces the user's salt and
// hash, and returns the plaintext for one-time delivery (e.g. by email). The
// plaintext is never persisted.
func (s *UserService) ResetPassword(user *models.User) (string, error) {
	password, err := auth.GeneratePassword()
	if err != nil {
		return "", common.ErrorInternal
	}
	salt, err := auth.CreateSalt()
	if err != nil {
		return "", common.ErrorInternal
	}
	user.PasswordSalt = salt
	user.PasswordHash = auth.HashPassword(salt, password)
	return password, nil
}

// UpdateAvatarStyle validates and assigns a new avatar style.
func (s *UserService) UpdateAvatarStyle(user *models.User, style string) error {
	style = strings.TrimSpace(style)
	if style != models.AvatarStyleGravatar && style != models.AvatarStyleManual {
		return common.NewValidationError("bad avatar style %q", style)
	}
	user.AvatarStyle = style
	return nil
}

// AvatarURL resolves the user's current avatar URL: a gravatar URL for the
// gravatar style, a presigned GET URL into the avatar object store for the
// manual style.
func (s *UserService) AvatarURL(ctx context.Context, user *models.User) (string, error) {
	if user.AvatarStyle == models.AvatarStyleManual {
		return s.avatars.PresignedGetURL(ctx, avatars.StorageKey(user.Name))
	}
	return avatars.GravatarURL(user), nil
}

// AvatarUploadURL returns the storage key and a presigned PUT URL for
// uploading the user's manual avatar image.
func (s *UserService) AvatarUploadURL(ctx context.Context, user *models.User) (string, string, error) {
	return s.avatars.PresignedPutURL(ctx, user.Name)
}

// GetByName retrieves a user by exact name match. It returns (nil, nil) when
// no such user exists.
func (s *UserService) GetByName(ctx context.Context, name string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return user, nil
}

// Register builds a new user with CreateUser and persists it. The name
// uniqueness check and the insert run in one transaction; a taken name
// yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, name, password, email string) (*models.User, error) {
	user, err := s.CreateUser(name, password, email)
	if err != nil {
		return nil, err
	}
	user.ID = uuid.NewString()

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Users(tx)
		_, err := repoTx.GetByName(ctx, user.Name)
		if err == nil {
			return common.ErrorAlreadyExists
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error searching user: %w", err)
		}
		if _, err := repoTx.Create(ctx, user); err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// Save writes a previously loaded and mutated user record back.
func (s *UserService) Save(ctx context.Context, user *models.User) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.Update(ctx, user); err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

// RecordLogin bumps the user's login time and persists the record.
func (s *UserService) RecordLogin(ctx context.Context, user *models.User) error {
	s.BumpLoginTime(user)
	return s.Save(ctx, user)
}

// VerifyPassword reports whether the candidate plaintext matches the user's
// stored salt/hash pair.
func (s *UserService) VerifyPassword(user *models.User, password string) bool {
	return auth.VerifyPassword(user.PasswordSalt, user.PasswordHash, password)
}
