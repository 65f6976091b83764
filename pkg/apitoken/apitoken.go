// Package apitoken holds helpers for displaying and inspecting API tokens.
//
// The raw secret of a generated token is only ever held in memory for the
// current session; the helpers here produce the masked forms that are safe to
// print or persist.
package apitoken

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DisplayPrefixLen is how many leading characters Mask keeps.
	DisplayPrefixLen = 4
	// DisplaySuffixLen is how many trailing characters Mask keeps.
	DisplaySuffixLen = 4
	// minMaskable is the shortest secret that gets a prefix/suffix hint.
	minMaskable = 8
)

// ErrNotJWT is returned by Inspect for opaque tokens.
var ErrNotJWT = errors.New("token is not a JWT")

// Mask renders a display hint from a stored prefix and suffix.
func Mask(prefix, suffix string) string {
	if prefix == "" && suffix == "" {
		return "••••"
	}
	return prefix + "…" + suffix
}

// Hint derives the display hint of a raw secret without keeping it.
func Hint(raw string) string {
	if len(raw) < minMaskable {
		return "••••"
	}
	return Mask(raw[:DisplayPrefixLen], raw[len(raw)-DisplaySuffixLen:])
}

// Fingerprint returns a short SHA256 fingerprint of a raw secret, usable to
// tell tokens apart in logs without revealing them.
func Fingerprint(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])[:12]
}

// Info is what Inspect can tell about a JWT-shaped token.
type Info struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that has passed at now.
func (i *Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// LooksLikeJWT reports whether token has the three dot-separated segments of a JWT.
func LooksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// Inspect parses a JWT without verifying it, for display only. Opaque tokens
// return ErrNotJWT.
//
// Never use the result for authorization decisions.
func Inspect(token string) (*Info, error) {
	if !LooksLikeJWT(token) {
		return nil, ErrNotJWT
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	info := &Info{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
