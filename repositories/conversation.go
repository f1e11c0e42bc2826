//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConversationRepository interface {
	Store(conversation domain.Conversation) error
	Get(id uuid.UUID) (domain.Conversation, error)
}

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) IConversationRepository {
	return &ConversationRepository{db: db}
}

func conversationKey(id uuid.UUID) []byte {
	return []byte("conv:" + id.String())
}

// Store writes the full conversation record. Participant changes rewrite the
// record; the services layer serializes those through the conversation it just
// loaded.
func (c ConversationRepository) Store(conversation domain.Conversation) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(conversationKey(conversation.ID), data)
	})
}

func (c ConversationRepository) Get(id uuid.UUID) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrConversationNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &conversation)
		})
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}
