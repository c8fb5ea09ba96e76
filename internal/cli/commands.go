package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/avolkovs/imgboard/internal/common"
	"github.com/avolkovs/imgboard/internal/server/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("log in first (the rank change is authorized against your own rank)")

// mustGetUser loads a user by name or fails with a readable error.
func (a *App) mustGetUser(ctx context.Context, name string) (*models.User, error) {
	user, err := a.users.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found", name)
	}
	return user, nil
}

func oneArg(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], nil
}

func twoArgs(args []string, usage string) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("usage: %s", usage)
	}
	return args[0], args[1], nil
}

// login verifies a name/password pair, records the login time, and selects
// the account as the acting user for subsequent commands.
func (a *App) login(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter user name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	if !a.users.VerifyPassword(user, string(password)) {
		return errors.New("wrong password")
	}
	if err := a.users.RecordLogin(ctx, user); err != nil {
		return err
	}

	a.actingUser = user
	fmt.Printf("Logged in as %s (%s)\n", user.Name, user.AccessRank)
	return nil
}

func (a *App) whoami() {
	if a.actingUser == nil {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("%s (%s)\n", a.actingUser.Name, a.actingUser.AccessRank)
}

// create prompts for the new account's fields and registers it.
func (a *App) create(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter user name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email (empty for none)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.users.Register(ctx, name, string(password), email)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %q already exists", name)
		}
		return err
	}

	fmt.Printf("Created %s (%s)\n", user.Name, user.AccessRank)
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	name, err := oneArg(args, "show <name>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}

	email := "(none)"
	if user.Email != nil {
		email = *user.Email
	}
	lastLogin := "(never)"
	if user.LastLoginTime != nil {
		lastLogin = user.LastLoginTime.Format("2006-01-02 15:04:05")
	}

	fmt.Printf("name:        %s\n", user.Name)
	fmt.Printf("email:       %s\n", email)
	fmt.Printf("rank:        %s\n", user.AccessRank)
	fmt.Printf("avatar:      %s\n", user.AvatarStyle)
	fmt.Printf("created:     %s\n", user.CreationTime.Format("2006-01-02 15:04:05"))
	fmt.Printf("last login:  %s\n", lastLogin)
	return nil
}

func (a *App) setName(ctx context.Context, args []string) error {
	oldName, newName, err := twoArgs(args, "set-name <name> <new-name>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, oldName)
	if err != nil {
		return err
	}
	if err := a.users.UpdateName(user, newName); err != nil {
		return err
	}
	return a.users.Save(ctx, user)
}

// setEmail prompts for the address so an empty input can clear it.
func (a *App) setEmail(ctx context.Context, args []string) error {
	name, err := oneArg(args, "set-email <name>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email (empty to clear)", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.users.UpdateEmail(user, email); err != nil {
		return err
	}
	return a.users.Save(ctx, user)
}

func (a *App) setRank(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	name, rank, err := twoArgs(args, "set-rank <name> <rank>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	if err := a.users.UpdateRank(user, rank, a.actingUser); err != nil {
		return err
	}
	return a.users.Save(ctx, user)
}

func (a *App) setAvatar(ctx context.Context, args []string) error {
	name, style, err := twoArgs(args, "set-avatar <name> <gravatar|manual>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	if err := a.users.UpdateAvatarStyle(user, style); err != nil {
		return err
	}
	return a.users.Save(ctx, user)
}

func (a *App) avatarURL(ctx context.Context, args []string) error {
	name, err := oneArg(args, "avatar-url <name>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	url, err := a.users.AvatarURL(ctx, user)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

func (a *App) uploadURL(ctx context.Context, args []string) error {
	name, err := oneArg(args, "upload-url <name>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	key, url, err := a.users.AvatarUploadURL(ctx, user)
	if err != nil {
		return err
	}
	fmt.Printf("key: %s\nurl: %s\n", key, url)
	return nil
}

// resetPassword rotates the user's credentials and prints the new plaintext
// once; it is never stored.
func (a *App) resetPassword(ctx context.Context, args []string) error {
	name, err := oneArg(args, "reset-password <name>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	password, err := a.users.ResetPassword(user)
	if err != nil {
		return err
	}
	if err := a.users.Save(ctx, user); err != nil {
		return err
	}
	fmt.Printf("New password for %s: %s\n", user.Name, password)
	return nil
}

// verify checks a password without selecting the account as acting user.
func (a *App) verify(ctx context.Context, args []string) error {
	name, err := oneArg(args, "verify <name>")
	if err != nil {
		return err
	}
	user, err := a.mustGetUser(ctx, name)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if !a.users.VerifyPassword(user, string(password)) {
		return errors.New("wrong password")
	}
	if err := a.users.RecordLogin(ctx, user); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}
