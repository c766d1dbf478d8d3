package repositories

import (
	"context"
	"time"

	"chat-hub/domain"

	"github.com/blugelabs/bluge"
)

// SearchHit is one full-text match over the persisted messages.
type SearchHit struct {
	MessageID string          `json:"messageId"`
	Chat      string          `json:"chat"`
	Sender    domain.Identity `json:"sender"`
	Content   string          `json:"content"`
	At        time.Time       `json:"at"`
}

// MessageIndex maintains a bluge full-text index over message content,
// fed by the message repository on every store.
type MessageIndex struct {
	writer *bluge.Writer
}

// OpenMessageIndex opens (or creates) the index at path. An empty path
// opens an in-memory index, used by tests.
func OpenMessageIndex(path string) (*MessageIndex, error) {
	var config bluge.Config
	if path == "" {
		config = bluge.InMemoryOnlyConfig()
	} else {
		config = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer}, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}

// Index adds or replaces one message document.
func (i *MessageIndex) Index(msg domain.Message) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewTextField("content", msg.Content).StoreValue()).
		AddField(bluge.NewKeywordField("chat", msg.Chat).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(msg.Sender)).StoreValue()).
		AddField(bluge.NewDateTimeField("at", msg.CreatedAt).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content. An empty chatID searches
// every conversation, otherwise hits are restricted to the one given.
func (i *MessageIndex) Search(ctx context.Context, terms, chatID string, limit int) ([]SearchHit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	var query bluge.Query
	content := bluge.NewMatchQuery(terms).SetField("content")
	if chatID != "" {
		query = bluge.NewBooleanQuery().
			AddMust(content).
			AddMust(bluge.NewTermQuery(chatID).SetField("chat"))
	} else {
		query = content
	}

	request := bluge.NewTopNSearch(limit, query).WithStandardAggregations()
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "content":
				hit.Content = string(value)
			case "chat":
				hit.Chat = string(value)
			case "sender":
				hit.Sender = domain.Identity(value)
			case "at":
				if at, err := bluge.DecodeDateTime(value); err == nil {
					hit.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
