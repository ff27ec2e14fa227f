package util

import (
	"net/url"
	"strings"
)

// RedactURI replaces the password of a URI with "xxxxx". Values that do
// not parse as a URI, or carry no password, are returned unchanged.
//
//	RedactURI("postgres://app:secret@db:5432/x") // postgres://app:xxxxx@db:5432/x
func RedactURI(raw string) string {
	if !strings.Contains(raw, "@") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return u.Redacted()
}
