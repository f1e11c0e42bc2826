package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IConversationService interface {
	Create(ctx context.Context, creator domain.UserID, title string, participants []domain.UserID) (domain.Conversation, error)
	AddParticipants(ctx context.Context, actor domain.UserID, conversationID uuid.UUID, userIDs []domain.UserID) (domain.Conversation, error)
	RemoveParticipant(ctx context.Context, actor domain.UserID, conversationID uuid.UUID, userID domain.UserID) error
	Leave(ctx context.Context, actor domain.UserID, conversationID uuid.UUID) error
	Get(conversationID uuid.UUID, requester domain.UserID) (domain.Conversation, error)
}

// ConversationService owns membership changes and announces each of them to
// the affected participants.
type ConversationService struct {
	conversations repositories.IConversationRepository
	dispatcher    contract.IDispatcher
	log           *slog.Logger
}

func NewConversationService(
	conversations repositories.IConversationRepository,
	dispatcher contract.IDispatcher,
	log *slog.Logger,
) IConversationService {
	return &ConversationService{conversations: conversations, dispatcher: dispatcher, log: log}
}

func (s *ConversationService) Create(ctx context.Context, creator domain.UserID, title string, participants []domain.UserID) (domain.Conversation, error) {
	// The creator is always a participant, listed once.
	members := lo.Uniq(append([]domain.UserID{creator}, participants...))

	conversation := domain.Conversation{
		ID:           uuid.New(),
		Title:        title,
		Creator:      creator,
		Participants: members,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.conversations.Store(conversation); err != nil {
		return domain.Conversation{}, err
	}

	// New conversations carry the full record so clients can render them
	// without a fetch.
	recipients := recipientsExcept(conversation, creator)
	if len(recipients) > 0 {
		evt, err := event.New(event.ConversationCreated, conversation, recipients)
		if err != nil {
			s.log.Error("Failed to build conversation event", "error", err)
			return conversation, nil
		}
		s.dispatcher.Dispatch(ctx, evt)
	}
	return conversation, nil
}

func (s *ConversationService) AddParticipants(ctx context.Context, actor domain.UserID, conversationID uuid.UUID, userIDs []domain.UserID) (domain.Conversation, error) {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conversation.HasParticipant(actor) {
		return domain.Conversation{}, errors.ErrNotParticipant
	}

	joined := lo.Filter(lo.Uniq(userIDs), func(id domain.UserID, _ int) bool {
		return !conversation.HasParticipant(id)
	})
	if len(joined) == 0 {
		return conversation, nil
	}
	conversation.Participants = append(conversation.Participants, joined...)
	if err := s.conversations.Store(conversation); err != nil {
		return domain.Conversation{}, err
	}

	// Everyone, including the newcomers, hears about the join; only the actor
	// already knows.
	s.announce(ctx, event.ParticipantsJoined, conversation, recipientsExcept(conversation, actor), joined)
	return conversation, nil
}

func (s *ConversationService) RemoveParticipant(ctx context.Context, actor domain.UserID, conversationID uuid.UUID, userID domain.UserID) error {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return err
	}
	if conversation.Creator != actor {
		return errors.ErrNotParticipant
	}
	if !conversation.HasParticipant(userID) {
		return errors.ErrNotParticipant
	}

	conversation.Participants = lo.Reject(conversation.Participants, func(id domain.UserID, _ int) bool {
		return id == userID
	})
	if err := s.conversations.Store(conversation); err != nil {
		return err
	}

	// The removed user is told as well: their client must drop the
	// conversation.
	recipients := append(recipientsExcept(conversation, actor), userID)
	s.announce(ctx, event.ParticipantRemoved, conversation, recipients, []domain.UserID{userID})
	return nil
}

func (s *ConversationService) Leave(ctx context.Context, actor domain.UserID, conversationID uuid.UUID) error {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(actor) {
		return errors.ErrNotParticipant
	}

	conversation.Participants = lo.Reject(conversation.Participants, func(id domain.UserID, _ int) bool {
		return id == actor
	})
	if err := s.conversations.Store(conversation); err != nil {
		return err
	}

	s.announce(ctx, event.ParticipantLeft, conversation, conversation.Participants, []domain.UserID{actor})
	return nil
}

func (s *ConversationService) Get(conversationID uuid.UUID, requester domain.UserID) (domain.Conversation, error) {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conversation.HasParticipant(requester) {
		return domain.Conversation{}, errors.ErrNotParticipant
	}
	return conversation, nil
}

func (s *ConversationService) announce(ctx context.Context, kind event.Kind, conversation domain.Conversation, recipients []domain.UserID, subjects []domain.UserID) {
	if len(recipients) == 0 {
		return
	}
	evt, err := event.New(kind, event.MembershipPayload{
		ConversationID: conversation.ID,
		UserIDs:        subjects,
	}, recipients)
	if err != nil {
		s.log.Error("Failed to build membership event", "kind", kind, "error", err)
		return
	}
	report := s.dispatcher.Dispatch(ctx, evt)
	s.log.Debug("Membership event dispatched", "kind", kind, "conversation", conversation.ID,
		"recipients", report.Recipients, "delivered", report.Delivered)
}
