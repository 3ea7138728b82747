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

// Errors returned by SignedURLSigner.Parse.
var (
	ErrTokenFormat    = errors.New("invalid token format")
	ErrTokenSignature = errors.New("invalid token signature")
	ErrTokenExpired   = errors.New("token expired")
)

// Content dispositions a signed link may request.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// SignedFile is the metadata carried by a signed file link.
type SignedFile struct {
	ResourceID  string
	Path        string
	Disposition string
	ExpiresAt   time.Time
}

// SignedURLSigner creates and validates signed file tokens.
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
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token of the form id.exp.disposition.path.signature.
func (s *SignedURLSigner) Generate(resourceID, relPath, disposition string) (string, time.Time, error) {
	if resourceID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("resourceID and relPath required")
	}
	if strings.Contains(resourceID, ".") {
		return "", time.Time{}, fmt.Errorf("resourceID must not contain dots")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	if disposition != DispositionAttachment {
		disposition = DispositionInline
	}

	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	signature := s.sign(resourceID, exp, disposition, encodedPath)

	token := strings.Join([]string{resourceID, exp, disposition, encodedPath, signature}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded metadata.
func (s *SignedURLSigner) Parse(token string) (SignedFile, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return SignedFile{}, ErrTokenFormat
	}
	resourceID, exp, disposition, encodedPath, signature := parts[0], parts[1], parts[2], parts[3], parts[4]

	expected := s.sign(resourceID, exp, disposition, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return SignedFile{}, ErrTokenSignature
	}

	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return SignedFile{}, ErrTokenFormat
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return SignedFile{}, ErrTokenFormat
	}

	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return SignedFile{}, ErrTokenExpired
	}

	return SignedFile{
		ResourceID:  resourceID,
		Path:        string(rawPath),
		Disposition: disposition,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *SignedURLSigner) sign(parts ...string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
