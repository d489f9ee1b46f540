package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("invalid report token")
	// ErrTokenExpired is returned for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("report token expired")
)

const tokenSeparator = "."

// Grant is what a verified download token allows: one stored report file until ExpiresAt.
type Grant struct {
	ReportID  string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues and verifies report download tokens of the form
// reportID.expiryUnix.base64(path).hexHMAC.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A non-positive ttl falls back to 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token granting access to relPath for the signer's ttl.
func (s *SignedURLSigner) Generate(reportID, relPath string) (string, time.Time, error) {
	if reportID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("reportID and relPath required")
	}
	if strings.Contains(reportID, tokenSeparator) {
		return "", time.Time{}, fmt.Errorf("reportID must not contain %q", tokenSeparator)
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}

	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	fields := []string{
		reportID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(relPath)),
	}
	token := strings.Join(append(fields, s.sign(fields)), tokenSeparator)
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (Grant, error) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 4 {
		return Grant{}, fmt.Errorf("%w: malformed", ErrTokenInvalid)
	}
	fields, signature := parts[:3], parts[3]
	if !hmac.Equal([]byte(s.sign(fields)), []byte(signature)) {
		return Grant{}, fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	}

	expUnix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Grant{}, fmt.Errorf("%w: bad expiry", ErrTokenInvalid)
	}
	path, err := base64.RawURLEncoding.DecodeString(fields[2])
	if err != nil {
		return Grant{}, fmt.Errorf("%w: bad path", ErrTokenInvalid)
	}

	grant := Grant{ReportID: fields[0], Path: string(path), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(grant.ExpiresAt) {
		return Grant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(fields []string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
