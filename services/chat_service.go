package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
	"context"
)

// IChatService is what a transport needs from the relay.
type IChatService interface {
	Join(ctx context.Context, principal domain.Principal, rawLanguage string, transport contract.Transport) *runtime.Session
	Leave(session *runtime.Session)
	Online() int
}

type ChatService struct {
	orchestrator *runtime.Orchestrator
}

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) Join(ctx context.Context, principal domain.Principal, rawLanguage string,
	transport contract.Transport) *runtime.Session {
	return s.orchestrator.Join(ctx, principal, rawLanguage, transport)
}

func (s *ChatService) Leave(session *runtime.Session) {
	s.orchestrator.Leave(session)
}

func (s *ChatService) Online() int {
	return s.orchestrator.Registry().Len()
}
