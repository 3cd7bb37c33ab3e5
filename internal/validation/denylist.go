package validation

import "strings"

// PasswordDenylist is the compromised-credential collaborator: it answers
// whether a candidate password is known to be breached.
type PasswordDenylist interface {
	Compromised(password string) bool
}

// commonPasswords seeds the static denylist. The list is deliberately short;
// a production deployment would swap in an HIBP-style client behind the same
// interface.
var commonPasswords = []string{
	"password",
	"password1",
	"password1!",
	"passw0rd!",
	"12345678",
	"123456789",
	"qwerty123",
	"qwerty123!",
	"letmein1!",
	"welcome1!",
	"admin123!",
	"iloveyou1",
	"sunshine1",
	"monkey123",
}

// StaticDenylist is an in-process, case-insensitive denylist.
type StaticDenylist struct {
	entries map[string]struct{}
}

var _ PasswordDenylist = (*StaticDenylist)(nil)

// NewStaticDenylist builds the denylist from the builtin common passwords
// plus any extra entries.
func NewStaticDenylist(extra ...string) *StaticDenylist {
	entries := make(map[string]struct{}, len(commonPasswords)+len(extra))
	for _, p := range commonPasswords {
		entries[strings.ToLower(p)] = struct{}{}
	}
	for _, p := range extra {
		entries[strings.ToLower(p)] = struct{}{}
	}
	return &StaticDenylist{entries: entries}
}

// Compromised reports whether the password appears on the denylist.
func (d *StaticDenylist) Compromised(password string) bool {
	_, ok := d.entries[strings.ToLower(password)]
	return ok
}
