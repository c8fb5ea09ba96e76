// Package validation holds the pure field predicates used by the user
// record manager. Patterns are passed in as parameters rather than read from
// a global configuration, so every check can be tested in isolation.
package validation

import (
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/avolkovs/imgboard/internal/common"
)

var validate = validator.New()

// CheckName validates a user name against the configured pattern.
// The caller is expected to trim the input first.
func CheckName(re *regexp.Regexp, name string) error {
	if !re.MatchString(name) {
		return common.NewValidationError("name must satisfy regex %q", re.String())
	}
	return nil
}

// CheckPassword validates a plaintext password against the configured
// pattern.
func CheckPassword(re *regexp.Regexp, password string) error {
	if !re.MatchString(password) {
		return common.NewValidationError("password must satisfy regex %q", re.String())
	}
	return nil
}

// CheckEmail validates a non-empty email address. Empty input is handled by
// the caller (an absent address is legal, a malformed one is not).
func CheckEmail(email string) error {
	if err := validate.Var(email, "email"); err != nil {
		return common.NewValidationError("%q is not a valid email address", email)
	}
	return nil
}

// CheckRank validates that rank is a member of the configured ordered rank
// list.
func CheckRank(ranks []string, rank string) error {
	if !slices.Contains(ranks, rank) {
		return common.NewValidationError("bad access rank %q, valid access ranks: %v", rank, ranks)
	}
	return nil
}

// RankIndex returns the position of rank in the ordered rank list, or -1 if
// absent. A higher index means greater privilege.
func RankIndex(ranks []string, rank string) int {
	return slices.Index(ranks, rank)
}
