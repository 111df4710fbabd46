//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"context"
	"time"
)

// IAccountRepository is the persistent side of the relay: accounts, blocks and reports.
// Both directory backends implement it, and contract.Directory on top.
type IAccountRepository interface {
	contract.Directory
	CreateUser(ctx context.Context, username, hashedPassword string, roles []string) (User, error)
	GetUser(ctx context.Context, username string) (User, error)
	Block(ctx context.Context, blocker, blocked domain.Identity) error
	Unblock(ctx context.Context, blocker, blocked domain.Identity) error
	Blocked(ctx context.Context, blocker domain.Identity) ([]domain.Identity, error)
	ListReports(ctx context.Context, reported *domain.Identity, limit int) ([]chat.Report, error)
	SearchReports(ctx context.Context, query string, limit int) ([]chat.Report, uint64, error)
	Close() error
}

// User is the repository representation of an account.
// The username doubles as the relay identity.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

func (u User) Identity() domain.Identity {
	return domain.Identity(u.Username)
}
