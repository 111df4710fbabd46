package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxReasonLength = 500

// IAccountService is the operator surface: accounts, tokens, blocks and reports.
type IAccountService interface {
	Register(ctx context.Context, username, password string) (Token, error)
	Login(ctx context.Context, username, password string) (Token, error)
	Block(ctx context.Context, blocker, blocked domain.Identity) error
	Unblock(ctx context.Context, blocker, blocked domain.Identity) error
	Blocked(ctx context.Context, blocker domain.Identity) ([]domain.Identity, error)
	Report(ctx context.Context, reporter, reported domain.Identity, reason string, messageID *uuid.UUID) (chat.Report, error)
	ListReports(ctx context.Context, reported *domain.Identity, limit int) ([]chat.Report, error)
	SearchReports(ctx context.Context, query string, limit int) ([]chat.Report, uint64, error)
}

type AccountService struct {
	repository repositories.IAccountRepository
	issuer     *auth.TokenIssuer
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAccountService(repo repositories.IAccountRepository, issuer *auth.TokenIssuer) IAccountService {
	return &AccountService{repository: repo, issuer: issuer}
}

func (s *AccountService) Register(ctx context.Context, username, password string) (Token, error) {
	// 1. Validate business rules before any expensive cryptographic operation
	if err := auth.ValidateRegister(auth.RegisterRequest{Username: username, Password: password}); err != nil {
		if stderrors.Is(err, errors.ErrInvalidPassword) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. The repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Propagates ErrUserAlreadyExists
	user, err := s.repository.CreateUser(ctx, username, hashedPassword, []string{"user"})
	if err != nil {
		return "", err
	}

	return s.issue(user)
}

func (s *AccountService) Login(ctx context.Context, username, password string) (Token, error) {
	user, err := s.repository.GetUser(ctx, username)
	if err != nil {
		// Generic error to prevent user enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AccountService) Block(ctx context.Context, blocker, blocked domain.Identity) error {
	if blocker == blocked {
		return errors.ErrCannotBlockSelf
	}
	if err := s.mustExist(ctx, blocker, blocked); err != nil {
		return err
	}
	return s.repository.Block(ctx, blocker, blocked)
}

func (s *AccountService) Unblock(ctx context.Context, blocker, blocked domain.Identity) error {
	return s.repository.Unblock(ctx, blocker, blocked)
}

func (s *AccountService) Blocked(ctx context.Context, blocker domain.Identity) ([]domain.Identity, error) {
	return s.repository.Blocked(ctx, blocker)
}

func (s *AccountService) Report(ctx context.Context, reporter, reported domain.Identity, reason string,
	messageID *uuid.UUID) (chat.Report, error) {
	if reporter == reported {
		return chat.Report{}, errors.ErrCannotReportSelf
	}
	reason = strings.TrimSpace(reason)
	if reason == "" || len([]rune(reason)) > maxReasonLength {
		return chat.Report{}, fmt.Errorf("%w: reason must hold 1 to %d characters", errors.ErrInvalidCommand, maxReasonLength)
	}
	if err := s.mustExist(ctx, reported); err != nil {
		return chat.Report{}, err
	}

	report := chat.NewReport(reporter, reported, reason, messageID)
	if err := s.repository.RecordReport(ctx, report); err != nil {
		return chat.Report{}, err
	}
	return report, nil
}

func (s *AccountService) ListReports(ctx context.Context, reported *domain.Identity, limit int) ([]chat.Report, error) {
	return s.repository.ListReports(ctx, reported, limit)
}

func (s *AccountService) SearchReports(ctx context.Context, query string, limit int) ([]chat.Report, uint64, error) {
	return s.repository.SearchReports(ctx, query, limit)
}

func (s *AccountService) mustExist(ctx context.Context, identities ...domain.Identity) error {
	for _, identity := range identities {
		if _, err := s.repository.GetUser(ctx, identity.String()); err != nil {
			return fmt.Errorf("%s: %w", identity, err)
		}
	}
	return nil
}

func (s *AccountService) issue(user repositories.User) (Token, error) {
	token, err := s.issuer.Generate(user.ID, user.Username, user.Roles)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}
