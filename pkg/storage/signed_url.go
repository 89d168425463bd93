package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid download token")
	ErrTokenExpired = errors.New("download token expired")
)

// SignedURLSigner creates and validates signed download tokens for files.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token granting read access to fileID.
func (s *SignedURLSigner) Generate(fileID string) (string, time.Time, error) {
	if fileID == "" {
		return "", time.Time{}, fmt.Errorf("file id required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	return exp + "." + s.sign(fileID, exp), expiresAt, nil
}

// Verify checks that token was issued for fileID and has not expired.
func (s *SignedURLSigner) Verify(fileID, token string) error {
	if len(s.secret) == 0 {
		return ErrInvalidToken
	}
	exp, signature, ok := strings.Cut(token, ".")
	if !ok || exp == "" || signature == "" {
		return ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal([]byte(s.sign(fileID, exp)), []byte(signature)) {
		return ErrInvalidToken
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return ErrTokenExpired
	}
	return nil
}

func (s *SignedURLSigner) sign(fileID, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(fileID + "|" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}
