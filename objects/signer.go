package objects

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	uploadAudience = "object-upload"
	uploadRoute    = "/api/objects/uploads/"
	objectPrefix   = "/objects/"
)

var (
	ErrBadToken    = errors.New("invalid or expired upload token")
	ErrWrongObject = errors.New("upload token issued for a different object")
)

// Signer issues upload URLs whose token names exactly one object id.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if secret == "" {
		secret = uuid.NewString()
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// UploadURL returns a fresh object id and the URL to PUT its bytes to.
func (s *Signer) UploadURL(baseURL string) (id, uploadURL string, err error) {
	id = uuid.NewString()
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Audience:  jwt.ClaimStrings{uploadAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign upload token: %w", err)
	}
	return id, strings.TrimRight(baseURL, "/") + uploadRoute + id + "?token=" + url.QueryEscape(tok), nil
}

func (s *Signer) Verify(token, id string) error {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(uploadAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrBadToken
	}
	if claims.Subject != id {
		return ErrWrongObject
	}
	return nil
}

// NormalizeObjectPath turns an upload URL issued under baseURL into the
// stable /objects/uploads/<id> path. Anything else is returned unchanged.
func NormalizeObjectPath(raw, baseURL string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasPrefix(u.Path, uploadRoute) {
		return raw
	}
	if u.IsAbs() {
		base, err := url.Parse(baseURL)
		if err != nil || !strings.EqualFold(base.Host, u.Host) {
			return raw
		}
	}
	id := strings.TrimPrefix(u.Path, uploadRoute)
	if _, err := uuid.Parse(id); err != nil {
		return raw
	}
	return objectPrefix + "uploads/" + id
}
