package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageService interface {
	Create(ctx context.Context, sender domain.UserID, conversationID uuid.UUID, text string) (domain.Message, error)
	Update(ctx context.Context, sender domain.UserID, messageID uuid.UUID, text string) (domain.Message, error)
	Delete(ctx context.Context, sender domain.UserID, messageID uuid.UUID) error
	MarkRead(ctx context.Context, reader domain.UserID, messageID uuid.UUID) error
	History(conversationID uuid.UUID, requester domain.UserID, cursor *string) ([]domain.Message, *string, error)
}

// MessageService persists messages and fans the resulting events out to the
// other participants. Live delivery is best-effort: a failed push never fails
// the save, offline participants catch up through History.
type MessageService struct {
	messages      repositories.IMessageRepository
	conversations repositories.IConversationRepository
	dispatcher    contract.IDispatcher
	moderator     *moderation.Moderator
	log           *slog.Logger
}

func NewMessageService(
	messages repositories.IMessageRepository,
	conversations repositories.IConversationRepository,
	dispatcher contract.IDispatcher,
	moderator *moderation.Moderator,
	log *slog.Logger,
) IMessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		dispatcher:    dispatcher,
		moderator:     moderator,
		log:           log,
	}
}

func (s *MessageService) Create(ctx context.Context, sender domain.UserID, conversationID uuid.UUID, text string) (domain.Message, error) {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !conversation.HasParticipant(sender) {
		return domain.Message{}, errors.ErrNotParticipant
	}

	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}

	now := time.Now().UTC()
	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.messages.Store(message); err != nil {
		return domain.Message{}, err
	}

	s.fanout(ctx, event.MessageCreated, message, conversation, sender)
	return message, nil
}

func (s *MessageService) Update(ctx context.Context, sender domain.UserID, messageID uuid.UUID, text string) (domain.Message, error) {
	message, err := s.messages.Get(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if message.Sender != sender {
		return domain.Message{}, errors.ErrNotSender
	}
	conversation, err := s.conversations.Get(message.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}

	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}
	message.Text = text
	message.UpdatedAt = time.Now().UTC()
	if err := s.messages.Update(message); err != nil {
		return domain.Message{}, err
	}

	s.fanout(ctx, event.MessageUpdated, message, conversation, sender)
	return message, nil
}

func (s *MessageService) Delete(ctx context.Context, sender domain.UserID, messageID uuid.UUID) error {
	message, err := s.messages.Get(messageID)
	if err != nil {
		return err
	}
	if message.Sender != sender {
		return errors.ErrNotSender
	}
	conversation, err := s.conversations.Get(message.ConversationID)
	if err != nil {
		return err
	}

	// Soft delete: the timeline keeps its slot, clients render a tombstone.
	message.Deleted = true
	message.Text = ""
	message.UpdatedAt = time.Now().UTC()
	if err := s.messages.Update(message); err != nil {
		return err
	}

	s.fanout(ctx, event.MessageDeleted, message, conversation, sender)
	return nil
}

func (s *MessageService) MarkRead(ctx context.Context, reader domain.UserID, messageID uuid.UUID) error {
	message, err := s.messages.Get(messageID)
	if err != nil {
		return err
	}
	conversation, err := s.conversations.Get(message.ConversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(reader) {
		return errors.ErrNotParticipant
	}

	if lo.Contains(message.ReadBy, reader) {
		return nil
	}
	message.ReadBy = append(message.ReadBy, reader)
	if err := s.messages.Update(message); err != nil {
		return err
	}

	recipients := recipientsExcept(conversation, reader)
	evt, err := event.New(event.MessageRead, event.ReadPayload{
		ConversationID: conversation.ID,
		MessageID:      message.ID,
		Reader:         reader,
	}, recipients)
	if err != nil {
		s.log.Error("Failed to build read event", "error", err)
		return nil
	}
	s.dispatcher.Dispatch(ctx, evt)
	return nil
}

func (s *MessageService) History(conversationID uuid.UUID, requester domain.UserID, cursor *string) ([]domain.Message, *string, error) {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return nil, nil, err
	}
	if !conversation.HasParticipant(requester) {
		return nil, nil, errors.ErrNotParticipant
	}
	return s.messages.List(conversationID, cursor)
}

// fanout pushes a message event to every participant except the actor.
// The report is logged, never returned: live delivery failures must not
// surface to the business operation.
func (s *MessageService) fanout(ctx context.Context, kind event.Kind, message domain.Message, conversation domain.Conversation, actor domain.UserID) {
	recipients := recipientsExcept(conversation, actor)
	evt, err := event.New(kind, message, recipients)
	if err != nil {
		s.log.Error("Failed to build message event", "kind", kind, "error", err)
		return
	}
	report := s.dispatcher.Dispatch(ctx, evt)
	s.log.Debug("Message event dispatched",
		"kind", kind, "message", message.ID, "recipients", report.Recipients,
		"delivered", report.Delivered, "failed", report.Failed, "offline", report.Offline)
}

func recipientsExcept(conversation domain.Conversation, actor domain.UserID) []domain.UserID {
	return lo.Reject(conversation.Participants, func(id domain.UserID, _ int) bool {
		return id == actor
	})
}
