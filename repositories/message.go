//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	Get(id uuid.UUID) (domain.Message, error)
	Update(message domain.Message) error
	List(conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limit int) MessageRepository {
	return MessageRepository{db: db, log: log, limit: limit}
}

// timelineKey formats "msg:{conversation}:{timestamp_padded}:{uuid}" so that:
//  1. a prefix scan per conversation returns messages in chronological order
//     (19-digit zero padding keeps lexicographic and numeric order aligned),
//  2. the uuid disambiguates two messages landing on the same nanosecond.
func timelineKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.ConversationID, m.CreatedAt.UnixNano(), m.ID))
}

// idKey is the secondary index resolving a message id to its timeline key,
// needed by update/delete/read which address messages by id alone.
func idKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

// Store persists a message under its timeline key and indexes it by id.
func (m MessageRepository) Store(message domain.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	key := timelineKey(message)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(idKey(message.ID), key)
	})
}

func (m MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		ref, err := txn.Get(idKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrMessageNotFound
			}
			return err
		}
		var key []byte
		if err := ref.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &message)
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Update rewrites a message in place. The timeline key is derived from the
// immutable id and creation time, so edits never reorder history.
func (m MessageRepository) Update(message domain.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(timelineKey(message), data)
	})
}

// List pages backwards through a conversation, newest first. The returned
// cursor is the key suffix of the oldest message served; passing it back
// resumes right before it. Thanks to the padded timestamp, ordering falls out
// of the key scheme.
func (m MessageRepository) List(conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error) {
	var raw [][]byte
	var lastKey string

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", conversationID)
		prefix := []byte(prefixStr)

		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		if cursor == nil {
			// Seek past the newest possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		} else {
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limit > 0 && len(raw) == m.limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", m.limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			if err := item.Value(func(val []byte) error {
				raw = append(raw, append([]byte(nil), val...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var message domain.Message
		if err := json.Unmarshal(b, &message); err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}

	// A short page means the timeline is exhausted.
	if m.limit <= 0 || len(messages) < m.limit {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}
