package repositories

import (
	"log/slog"
	"testing"
	"time"

	"chat-hub/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Create_Assigns_Id_And_History_Returns_Chronological_Order(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, nil, slog.Default())

	// Given three messages stored out of wall-clock order
	chat := uuid.NewString()
	at := time.Now().UTC()
	contents := []string{"first", "second", "third"}
	for i, content := range contents {
		id, err := repository.Create(domain.Message{
			Chat:      chat,
			Sender:    "alice",
			Content:   content,
			CreatedAt: at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
		req.NotEqual(uuid.Nil, id)
	}

	// When fetching the first history page
	messages, totalPages, err := repository.History(chat, 1)

	// Then messages come back oldest first
	req.NoError(err)
	req.Equal(1, totalPages)
	req.Equal(contents, lo.Map(messages, func(m domain.Message, _ int) string { return m.Content }))
}

func Test_History_Pages_Count_From_The_Newest_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, nil, slog.Default())

	// Given one more message than a single page holds
	chat := uuid.NewString()
	at := time.Now().UTC()
	for i := 0; i < PageSize+1; i++ {
		_, err := repository.Create(domain.Message{
			Chat:      chat,
			Sender:    "alice",
			Content:   string(rune('a' + i%26)),
			CreatedAt: at.Add(time.Duration(i) * time.Second),
		})
		req.NoError(err)
	}

	// When fetching both pages
	pageOne, totalPages, err := repository.History(chat, 1)
	req.NoError(err)
	pageTwo, _, err := repository.History(chat, 2)
	req.NoError(err)

	// Then the first page holds the newest messages and the overflow
	// lands on the second page
	req.Equal(2, totalPages)
	req.Len(pageOne, PageSize)
	req.Len(pageTwo, 1)
	req.True(pageTwo[0].CreatedAt.Before(pageOne[0].CreatedAt))
}

func Test_History_Is_Scoped_To_One_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, nil, slog.Default())

	chatA := uuid.NewString()
	chatB := uuid.NewString()
	_, err := repository.Create(domain.Message{Chat: chatA, Sender: "alice", Content: "for A"})
	req.NoError(err)
	_, err = repository.Create(domain.Message{Chat: chatB, Sender: "bob", Content: "for B"})
	req.NoError(err)

	messages, _, err := repository.History(chatA, 1)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("for A", messages[0].Content)
}

func Test_DeleteByChat_Removes_Messages_And_Reports_Attachments(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, nil, slog.Default())

	chat := uuid.NewString()
	attachment := domain.Attachment{PublicID: "blob-1", URL: "/files/blob-1"}
	_, err := repository.Create(domain.Message{Chat: chat, Sender: "alice", Content: "with file", Attachments: []domain.Attachment{attachment}})
	req.NoError(err)
	_, err = repository.Create(domain.Message{Chat: chat, Sender: "bob", Content: "plain"})
	req.NoError(err)

	attachments, err := repository.DeleteByChat(chat)
	req.NoError(err)
	req.Equal([]domain.Attachment{attachment}, attachments)

	count, err := repository.CountByChat(chat)
	req.NoError(err)
	req.Zero(count)
}

func Test_CreatedSince_Skips_Older_Messages(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, nil, slog.Default())

	chat := uuid.NewString()
	now := time.Now().UTC()
	_, err := repository.Create(domain.Message{Chat: chat, Sender: "alice", Content: "old", CreatedAt: now.Add(-10 * 24 * time.Hour)})
	req.NoError(err)
	_, err = repository.Create(domain.Message{Chat: chat, Sender: "alice", Content: "recent", CreatedAt: now.Add(-time.Hour)})
	req.NoError(err)

	stamps, err := repository.CreatedSince(now.Add(-7 * 24 * time.Hour))
	req.NoError(err)
	req.Len(stamps, 1)
}

func Test_CountAll_Spans_Every_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, nil, slog.Default())

	for _, chat := range []string{uuid.NewString(), uuid.NewString(), uuid.NewString()} {
		_, err := repository.Create(domain.Message{Chat: chat, Sender: "alice", Content: "hi"})
		req.NoError(err)
	}

	count, err := repository.CountAll()
	req.NoError(err)
	req.Equal(3, count)
}
