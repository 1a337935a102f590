package journal

import (
	"net/url"
	"strings"

	liberrors "lovmig/cli/internal/errors"
)

// TargetKind tells which sink a journal target selects.
type TargetKind int

const (
	TargetFile TargetKind = iota
	TargetPostgres
)

// Target is a parsed --journal value. For Postgres, Location is the
// normalized connection string.
type Target struct {
	Kind     TargetKind
	Location string
}

// ParseTarget classifies and normalizes a journal target.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "postgres://") && !strings.HasPrefix(lower, "postgresql://") {
		return Target{Kind: TargetFile, Location: raw}, nil
	}
	dsn, err := normalizePostgres(raw)
	if err != nil {
		return Target{}, err
	}
	return Target{Kind: TargetPostgres, Location: dsn}, nil
}

// normalizePostgres re-encodes a Postgres URL. Passwords are often pasted
// with unescaped special characters (@, #, /) that break url.Parse, so the
// credentials are split off at the last '@' and escaped by hand.
func normalizePostgres(raw string) (string, error) {
	rest := raw[strings.Index(raw, "://")+3:]
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		u, err := url.Parse(raw)
		if err != nil {
			return "", liberrors.Wrap(liberrors.InvalidInput, "journal DSN", err)
		}
		return checkPostgresURL(u)
	}

	creds, hostAndDB := rest[:at], rest[at+1:]
	u, err := url.Parse("postgresql://" + hostAndDB)
	if err != nil {
		return "", liberrors.Wrap(liberrors.InvalidInput, "journal DSN", err)
	}
	if user, pass, ok := strings.Cut(creds, ":"); ok {
		u.User = url.UserPassword(unescape(user), unescape(pass))
	} else {
		u.User = url.User(unescape(user))
	}
	return checkPostgresURL(u)
}

// unescape decodes already percent-encoded credentials and leaves raw ones
// untouched.
func unescape(s string) string {
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	return s
}

func checkPostgresURL(u *url.URL) (string, error) {
	if u.Hostname() == "" {
		return "", liberrors.New(liberrors.InvalidInput, "journal DSN: missing host")
	}
	if strings.Trim(u.Path, "/") == "" {
		return "", liberrors.New(liberrors.InvalidInput, "journal DSN: missing database name")
	}
	if u.User == nil || u.User.Username() == "" {
		return "", liberrors.New(liberrors.InvalidInput, "journal DSN: missing username")
	}
	u.Scheme = "postgresql"
	return u.String(), nil
}
