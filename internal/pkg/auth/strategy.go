package auth

import (
	"time"

	"github.com/polkiloo/payledger/internal/domain/model"
)

// Strategy issues and verifies bearer tokens that carry a principal.
type Strategy interface {
	IssueToken(principal model.Principal) (string, error)
	ParseToken(token string) (model.Principal, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}
