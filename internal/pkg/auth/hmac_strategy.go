package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/payledger/internal/domain/model"
)

var ErrInvalidToken = errors.New("invalid auth token")

const tokenSeparator = "|"

// HMACStrategy signs principal tokens with HMAC-SHA256.
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: now}
}

// IssueToken encodes id, role and expiry, then appends the signature.
func (s *HMACStrategy) IssueToken(principal model.Principal) (string, error) {
	if principal.ID == "" || strings.Contains(principal.ID, tokenSeparator) {
		return "", fmt.Errorf("issue token: invalid principal id %q", principal.ID)
	}
	role := principal.Role
	if role == "" {
		role = model.RoleUser
	}

	expires := s.now().Add(s.ttl).Unix()
	payload := strings.Join([]string{principal.ID, string(role), strconv.FormatInt(expires, 10)}, tokenSeparator)
	token := payload + tokenSeparator + s.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func (s *HMACStrategy) ParseToken(token string) (model.Principal, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}

	parts := strings.Split(string(raw), tokenSeparator)
	if len(parts) != 4 {
		return model.Principal{}, ErrInvalidToken
	}

	payload := strings.Join(parts[:3], tokenSeparator)
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[3])) {
		return model.Principal{}, ErrInvalidToken
	}

	role := model.Role(parts[1])
	if parts[0] == "" || (role != model.RoleUser && role != model.RoleAdmin) {
		return model.Principal{}, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}
	if !time.Unix(expires, 0).After(s.now()) {
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{ID: parts[0], Role: role}, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac"
}

func (s *HMACStrategy) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
