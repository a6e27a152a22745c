package nft

import (
	"context"
	"time"
)

const (
	TokenStateMinted   = 10
	TokenStateVerified = 11
)

type Store interface {
	WriteCollection(c *Collection) error
	ReadCollection(mint string) (*Collection, error)
	ListCollections(limit int) ([]*Collection, error)

	WriteToken(t *Token) error
	ReadToken(mint string) (*Token, error)
	ListTokens(collection string, limit int) ([]*Token, error)
	ListAllTokens(limit int) ([]*Token, error)
}

// Notifier announces the outcome of a run, e.g. to a messenger conversation.
type Notifier interface {
	Notify(ctx context.Context, traceId, text string) error
}

// Collection is the local record of a collection root minted by this identity.
// Circulation counts the members verified through this registry.
type Collection struct {
	Mint        string
	Authority   string
	Name        string
	Symbol      string
	URI         string
	Circulation int
	CreatedAt   time.Time
}

type Token struct {
	Mint       string
	Collection string
	Name       string
	Symbol     string
	URI        string
	State      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func TokenStateName(state int) string {
	switch state {
	case TokenStateMinted:
		return "minted"
	case TokenStateVerified:
		return "verified"
	}
	panic(state)
}
