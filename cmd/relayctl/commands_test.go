package main

import (
	"bytes"
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/repositories"
	"chat-relay/services"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func execute(t *testing.T, repo *mocks.MockIAccountRepository, args ...string) (string, error) {
	t.Helper()
	released := false
	issuer := auth.NewTokenIssuer("a-secret-long-enough-for-hs256-tokens", time.Hour)
	root := newRootCmd(&app{open: func(context.Context) (services.IAccountService, func(), error) {
		return services.NewAccountService(repo, issuer), func() { released = true }, nil
	}})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	require.True(t, released, "directory should be released after each command")
	return out.String(), err
}

func TestRelayctl_Register_Prints_Token(t *testing.T) {
	req := require.New(t)
	repo := mocks.NewMockIAccountRepository(gomock.NewController(t))
	repo.EXPECT().CreateUser(gomock.Any(), "alice", gomock.Any(), []string{"user"}).
		Return(repositories.User{ID: "id-1", Username: "alice", Roles: []string{"user"}}, nil)

	out, err := execute(t, repo, "register", "alice", "--password", "ComplexPass123!")

	req.NoError(err)
	req.Contains(out, "Registered alice")
	req.Contains(out, "eyJ")
}

func TestRelayctl_Block_Reports_Errors(t *testing.T) {
	repo := mocks.NewMockIAccountRepository(gomock.NewController(t))

	_, err := execute(t, repo, "block", "alice", "alice")

	require.ErrorIs(t, err, errors.ErrCannotBlockSelf)
}

func TestRelayctl_Reports_List(t *testing.T) {
	req := require.New(t)
	repo := mocks.NewMockIAccountRepository(gomock.NewController(t))
	carol := domain.Identity("carol")
	repo.EXPECT().ListReports(gomock.Any(), &carol, 10).Return([]chat.Report{{
		ID:        uuid.New(),
		Reporter:  "alice",
		Reported:  "carol",
		Reason:    "spam links",
		CreatedAt: time.Now(),
	}}, nil)

	out, err := execute(t, repo, "reports", "list", "--reported", "carol", "-n", "10")

	req.NoError(err)
	req.Contains(out, "spam links")
	req.Contains(out, "1 report(s)")
}

func TestRelayctl_Reports_Search(t *testing.T) {
	req := require.New(t)
	repo := mocks.NewMockIAccountRepository(gomock.NewController(t))
	repo.EXPECT().SearchReports(gomock.Any(), "spam reported:carol", 50).Return(nil, uint64(0), nil)

	out, err := execute(t, repo, "reports", "search", "spam", "reported:carol")

	req.NoError(err)
	req.Contains(out, "no reports")
	req.Contains(out, "0 of 0 matches")
}
