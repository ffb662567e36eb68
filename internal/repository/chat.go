package repository

import (
	"context"

	"github.com/eternal-ai/api/internal/database"
	"github.com/eternal-ai/api/internal/model"
)

// ChatAnswerRepository handles userChats documents
type ChatAnswerRepository struct {
	store database.Store
}

// NewChatAnswerRepository creates a new chat answer repository
func NewChatAnswerRepository(store database.Store) *ChatAnswerRepository {
	return &ChatAnswerRepository{store: store}
}

// AddAnswer stores an answer under a generated id
func (r *ChatAnswerRepository) AddAnswer(ctx context.Context, answer *model.ChatAnswer) error {
	doc, err := database.Encode(answer)
	if err != nil {
		return err
	}
	delete(doc, "id")

	id, err := r.store.Add(ctx, CollectionUserChats, doc)
	if err != nil {
		return err
	}
	answer.ID = id
	return nil
}

// ListAnswers returns the answers of a user in store order
func (r *ChatAnswerRepository) ListAnswers(ctx context.Context, userID string) ([]model.ChatAnswer, error) {
	records, err := r.store.Find(ctx, CollectionUserChats, database.Query{Field: "userId", Value: userID})
	if err != nil {
		return nil, err
	}
	return decodeRecords(records, func(a *model.ChatAnswer, id string) { a.ID = id })
}

// KarmicChatRepository handles karmicReportChats documents
type KarmicChatRepository struct {
	store database.Store
}

// NewKarmicChatRepository creates a new karmic chat repository
func NewKarmicChatRepository(store database.Store) *KarmicChatRepository {
	return &KarmicChatRepository{store: store}
}

// GetKarmicChat returns the chat of a user
func (r *KarmicChatRepository) GetKarmicChat(ctx context.Context, userID string) (*model.KarmicChat, error) {
	return getDoc[model.KarmicChat](ctx, r.store, CollectionKarmicChats, userID)
}

// UpdateKarmicChat applies fn to the chat in a transaction
func (r *KarmicChatRepository) UpdateKarmicChat(ctx context.Context, userID string, fn func(chat *model.KarmicChat, exists bool) error) (*model.KarmicChat, error) {
	return transactDoc(ctx, r.store, CollectionKarmicChats, userID, func(chat *model.KarmicChat, exists bool) error {
		if err := fn(chat, exists); err != nil {
			return err
		}
		chat.UserID = userID
		if chat.Messages == nil {
			chat.Messages = []model.ChatMessage{}
		}
		return nil
	})
}
