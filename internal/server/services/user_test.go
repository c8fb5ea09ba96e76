package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avolkovs/imgboard/internal/common"
	"github.com/avolkovs/imgboard/internal/dbx"
	"github.com/avolkovs/imgboard/internal/server/auth"
	"github.com/avolkovs/imgboard/internal/server/config"
	"github.com/avolkovs/imgboard/internal/server/models"
	usersrepo "github.com/avolkovs/imgboard/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testServiceConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newUserService(t *testing.T, db *sql.DB, rm *fakeRepoManager) *UserService {
	t.Helper()
	s, err := NewUserService(db, rm, nil, testServiceConfig())
	if err != nil {
		t.Fatalf("NewUserService error: %v", err)
	}
	return s
}

type fakeUsersRepo struct {
	createIn  *models.User
	createErr error

	getOut *models.User
	getErr error

	updateIn  *models.User
	updateErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createIn = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByName(ctx context.Context, name string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	f.updateIn = u
	return f.updateErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }

// --- construction ---

func TestNewUserService_BadPatterns(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	cfg := testServiceConfig()
	cfg.UserNameRegex = `([`
	if _, err := NewUserService(db, &fakeRepoManager{}, nil, cfg); err == nil {
		t.Fatal("expected error for bad name regex")
	}

	cfg = testServiceConfig()
	cfg.PasswordRegex = `([`
	if _, err := NewUserService(db, &fakeRepoManager{}, nil, cfg); err == nil {
		t.Fatal("expected error for bad password regex")
	}

	cfg = testServiceConfig()
	cfg.DefaultUserRank = "nobody"
	if _, err := NewUserService(db, &fakeRepoManager{}, nil, cfg); err == nil {
		t.Fatal("expected error for default rank outside rank list")
	}
}

// --- CreateUser ---

func TestCreateUser_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }

	u, err := s.CreateUser("alice", "ValidP@ss1", "a@example.com")
	if err != nil {
		t.Fatalf("CreateUser error: %v", err)
	}
	if u.Name != "alice" {
		t.Fatalf("unexpected name %q", u.Name)
	}
	if u.Email == nil || *u.Email != "a@example.com" {
		t.Fatalf("unexpected email: %v", u.Email)
	}
	if u.AccessRank != "regular_user" {
		t.Fatalf("unexpected rank %q", u.AccessRank)
	}
	if !u.CreationTime.Equal(created) {
		t.Fatalf("unexpected creation time %v", u.CreationTime)
	}
	if u.AvatarStyle != models.AvatarStyleGravatar {
		t.Fatalf("unexpected avatar style %q", u.AvatarStyle)
	}
	if u.PasswordSalt == "" || u.PasswordHash == "" {
		t.Fatal("expected salt/hash to be set")
	}
	if !auth.VerifyPassword(u.PasswordSalt, u.PasswordHash, "ValidP@ss1") {
		t.Fatal("stored hash does not verify against the original password")
	}
}

func TestCreateUser_InvalidFields(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	tests := []struct {
		name     string
		userName string
		password string
		email    string
	}{
		{name: "bad name", userName: "no spaces allowed", password: "hunter22", email: ""},
		{name: "bad password", userName: "alice", password: "1234", email: ""},
		{name: "bad email", userName: "alice", password: "hunter22", email: "not-an-email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateUser(tt.userName, tt.password, tt.email)
			var verr *common.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}
}

// --- UpdateName ---

func TestUpdateName_TrimsAndAssigns(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	u := &models.User{Name: "old"}
	if err := s.UpdateName(u, "  alice  "); err != nil {
		t.Fatalf("UpdateName error: %v", err)
	}
	if u.Name != "alice" {
		t.Fatalf("unexpected name %q", u.Name)
	}
}

func TestUpdateName_InvalidLeavesUserUnchanged(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	u := &models.User{Name: "old"}
	err := s.UpdateName(u, "bad name!")
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if u.Name != "old" {
		t.Fatalf("user mutated on failed validation: %q", u.Name)
	}
}

// --- UpdatePassword ---

func TestUpdatePassword_ReplacesSaltAndHash(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	u := &models.User{}
	if err := s.UpdatePassword(u, "first-password"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	oldSalt, oldHash := u.PasswordSalt, u.PasswordHash

	if err := s.UpdatePassword(u, "second-password"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if u.PasswordSalt == oldSalt || u.PasswordHash == oldHash {
		t.Fatal("salt/hash pair not replaced")
	}
	if !auth.VerifyPassword(u.PasswordSalt, u.PasswordHash, "second-password") {
		t.Fatal("new hash does not verify")
	}
	if auth.VerifyPassword(u.PasswordSalt, u.PasswordHash, "first-password") {
		t.Fatal("old password still verifies")
	}
}

func TestUpdatePassword_InvalidLeavesUserUnchanged(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	u := &models.User{PasswordSalt: "s", PasswordHash: "h"}
	err := s.UpdatePassword(u, "1234")
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if u.PasswordSalt != "s" || u.PasswordHash != "h" {
		t.Fatal("user mutated on failed validation")
	}
}

// --- UpdateEmail ---

func TestUpdateEmail(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	old := "old@example.com"

	t.Run("valid email assigned", func(t *testing.T) {
		u := &models.User{}
		if err := s.UpdateEmail(u, " a@example.com "); err != nil {
			t.Fatalf("UpdateEmail error: %v", err)
		}
		if u.Email == nil || *u.Email != "a@example.com" {
			t.Fatalf("unexpected email: %v", u.Email)
		}
	})

	t.Run("empty string clears email", func(t *testing.T) {
		e := old
		u := &models.User{Email: &e}
		if err := s.UpdateEmail(u, ""); err != nil {
			t.Fatalf("UpdateEmail error: %v", err)
		}
		if u.Email != nil {
			t.Fatalf("expected nil email, got %q", *u.Email)
		}
	})

	t.Run("whitespace clears email", func(t *testing.T) {
		e := old
		u := &models.User{Email: &e}
		if err := s.UpdateEmail(u, "   "); err != nil {
			t.Fatalf("UpdateEmail error: %v", err)
		}
		if u.Email != nil {
			t.Fatalf("expected nil email, got %q", *u.Email)
		}
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		e := old
		u := &models.User{Email: &e}
		err := s.UpdateEmail(u, "not-an-email")
		var verr *common.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
		if u.Email == nil || *u.Email != old {
			t.Fatal("user mutated on failed validation")
		}
	})
}

// --- UpdateRank ---

func TestUpdateRank(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	mod := &models.User{AccessRank: "mod"}

	t.Run("grant below own rank", func(t *testing.T) {
		u := &models.User{AccessRank: "regular_user"}
		if err := s.UpdateRank(u, "power_user", mod); err != nil {
			t.Fatalf("UpdateRank error: %v", err)
		}
		if u.AccessRank != "power_user" {
			t.Fatalf("unexpected rank %q", u.AccessRank)
		}
	})

	t.Run("grant own rank", func(t *testing.T) {
		u := &models.User{AccessRank: "regular_user"}
		if err := s.UpdateRank(u, " mod ", mod); err != nil {
			t.Fatalf("UpdateRank error: %v", err)
		}
		if u.AccessRank != "mod" {
			t.Fatalf("unexpected rank %q", u.AccessRank)
		}
	})

	t.Run("grant above own rank fails", func(t *testing.T) {
		u := &models.User{AccessRank: "regular_user"}
		err := s.UpdateRank(u, "admin", mod)
		var aerr *common.AuthorizationError
		if !errors.As(err, &aerr) {
			t.Fatalf("want AuthorizationError, got %v", err)
		}
		if u.AccessRank != "regular_user" {
			t.Fatal("user mutated on failed authorization")
		}
	})

	t.Run("unknown rank fails validation", func(t *testing.T) {
		u := &models.User{AccessRank: "regular_user"}
		err := s.UpdateRank(u, "superadmin", mod)
		var verr *common.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
	})
}

// --- BumpLoginTime / RecordLogin ---

func TestBumpLoginTime(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	at := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	u := &models.User{}
	s.BumpLoginTime(u)
	if u.LastLoginTime == nil || !u.LastLoginTime.Equal(at) {
		t.Fatalf("unexpected last login time: %v", u.LastLoginTime)
	}
}

func TestRecordLogin_Persists(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	repo := &fakeUsersRepo{}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u := &models.User{ID: "u-1", Name: "alice"}
	if err := s.RecordLogin(context.Background(), u); err != nil {
		t.Fatalf("RecordLogin error: %v", err)
	}
	if u.LastLoginTime == nil {
		t.Fatal("login time not bumped")
	}
	if repo.updateIn != u {
		t.Fatal("user not persisted")
	}
}

// --- ResetPassword ---

func TestResetPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	u := &models.User{PasswordSalt: "old-salt", PasswordHash: "old-hash"}
	plaintext, err := s.ResetPassword(u)
	if err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}
	if plaintext == "" {
		t.Fatal("expected non-empty plaintext")
	}
	if u.PasswordSalt == "old-salt" || u.PasswordHash == "old-hash" {
		t.Fatal("salt/hash pair not replaced")
	}
	if !auth.VerifyPassword(u.PasswordSalt, u.PasswordHash, plaintext) {
		t.Fatal("returned plaintext does not verify against the stored hash")
	}
}

// --- GetByName ---

func TestGetByName_Found(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	want := &models.User{ID: "u-1", Name: "alice"}
	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: want}})

	got, err := s.GetByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByName error: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByName_AbsentReturnsNil(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}})

	got, err := s.GetByName(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetByName error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil user, got %+v", got)
	}
}

func TestGetByName_RepoError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errors.New("db down")}})

	if _, err := s.GetByName(context.Background(), "alice"); err == nil {
		t.Fatal("expected error")
	}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeUsersRepo{getErr: common.ErrorNotFound}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	u, err := s.Register(context.Background(), "alice", "hunter22", "a@example.com")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated id")
	}
	if repo.createIn != u {
		t.Fatal("user not inserted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("tx expectations: %v", err)
	}
}

func TestRegister_NameTaken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeUsersRepo{getOut: &models.User{Name: "alice"}}
	s := newUserService(t, db, &fakeRepoManager{u: repo})

	_, err := s.Register(context.Background(), "alice", "hunter22", "")
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestRegister_ValidationFailsBeforeTx(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()

	s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{}})

	_, err := s.Register(context.Background(), "bad name!", "hunter22", "")
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no transaction should have started: %v", err)
	}
}

// --- VerifyPassword ---

func TestVerifyPassword(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	u := &models.User{}
	if err := s.UpdatePassword(u, "hunter22"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if !s.VerifyPassword(u, "hunter22") {
		t.Fatal("correct password rejected")
	}
	if s.VerifyPassword(u, "hunter23") {
		t.Fatal("wrong password accepted")
	}
}

// --- avatar style ---

func TestUpdateAvatarStyle(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	s := newUserService(t, db, &fakeRepoManager{})

	u := &models.User{AvatarStyle: models.AvatarStyleGravatar}
	if err := s.UpdateAvatarStyle(u, "manual"); err != nil {
		t.Fatalf("UpdateAvatarStyle error: %v", err)
	}
	if u.AvatarStyle != models.AvatarStyleManual {
		t.Fatalf("unexpected style %q", u.AvatarStyle)
	}

	err := s.UpdateAvatarStyle(u, "hologram")
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if u.AvatarStyle != models.AvatarStyleManual {
		t.Fatal("user mutated on failed validation")
	}
}
