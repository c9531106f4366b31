package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliafides/backend/internal/logger"
	"github.com/bibliafides/backend/internal/model/chat"
	"github.com/bibliafides/backend/internal/store/memory"
)

var errStoreDown = errors.New("connection refused")

type stepClock struct {
	current time.Time
}

func (c *stepClock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func newClock() *stepClock {
	return &stepClock{current: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// brokenStore fails every call unless the matching flag allows it.
type brokenStore struct {
	chat.Store
	allowScan bool
	scanned   []chat.Conversation
}

func (b *brokenStore) CreateConversation(context.Context, chat.Conversation) error {
	return errStoreDown
}

func (b *brokenStore) GetConversation(context.Context, string) (chat.Conversation, error) {
	return chat.Conversation{}, errStoreDown
}

func (b *brokenStore) AppendTurn(context.Context, string, chat.Turn) error {
	return errStoreDown
}

func (b *brokenStore) ListConversations(context.Context, string) ([]chat.Conversation, error) {
	return nil, fmt.Errorf("index missing: %w", errStoreDown)
}

func (b *brokenStore) ScanConversations(context.Context, string) ([]chat.Conversation, error) {
	if !b.allowScan {
		return nil, errStoreDown
	}
	return b.scanned, nil
}

func (b *brokenStore) ListTurns(context.Context, string) ([]chat.Turn, error) {
	return nil, errStoreDown
}

func validAnswer(ref string) chat.BibleResponse {
	return chat.BibleResponse{
		Greeting:     "Paz.",
		VerseText:    "Lançando sobre ele toda a vossa ansiedade.",
		Reference:    ref,
		Explanation:  "Pedro usa o verbo epirripto.",
		Sentiment:    "ansiedade",
		ReferenceAPI: &chat.VerseRef{BookAbbrev: "1pe", Chapter: 5, Verse: 7},
	}
}

func TestTitleTruncatesWithEllipsis(t *testing.T) {
	assert.Equal(t, "Como lidar com ansiedade?...", Title("Como lidar com ansiedade?", 30))
	assert.Equal(t, "Como lidar...", Title("Como lidar com ansiedade?", 10))

	long := "Por que Deus permite o sofrimento dos inocentes?"
	got := Title(long, 30)
	assert.Equal(t, 33, len([]rune(got)))
	assert.Equal(t, "Por que Deus permite o sofrime...", got)
}

func TestTitleCountsRunesNotBytes(t *testing.T) {
	assert.Equal(t, "ação...", Title("ação de graças", 4))
}

func TestTitleTakesTextAsGiven(t *testing.T) {
	assert.Equal(t, "  Como...", Title("  Como lidar", 6))
}

func TestCreateConversationDerivesTitle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, logger.Nop(), WithTitleLength(30))

	id, err := svc.CreateConversation(ctx, "u1", "Como lidar com ansiedade?")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	conv, err := svc.Conversation(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "Como lidar com ansiedade?...", conv.Title)
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)
}

func TestConversationScopedToOwner(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), logger.Nop())

	id, err := svc.CreateConversation(ctx, "u1", "oi")
	require.NoError(t, err)

	_, err = svc.Conversation(ctx, "u2", id)
	require.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc.Conversation(ctx, "u1", "missing")
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	svc := NewService(memory.New(), logger.Nop(), WithClock(clock.Now))

	c1, err := svc.CreateConversation(ctx, "u1", "primeira")
	require.NoError(t, err)
	c2, err := svc.CreateConversation(ctx, "u1", "segunda")
	require.NoError(t, err)
	c3, err := svc.CreateConversation(ctx, "u1", "terceira")
	require.NoError(t, err)
	_, err = svc.CreateConversation(ctx, "u2", "de outro usuário")
	require.NoError(t, err)

	convs := svc.ListConversations(ctx, "u1")
	require.Len(t, convs, 3)
	assert.Equal(t, []string{c3, c2, c1}, ids(convs))

	// A new turn moves the oldest conversation to the top.
	mustAppend(t, svc, c1, "de novo", validAnswer("1 Pedro 5:7"))
	convs = svc.ListConversations(ctx, "u1")
	assert.Equal(t, []string{c1, c3, c2}, ids(convs))
}

func TestListConversationsFallsBackToLocalSort(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := &brokenStore{
		allowScan: true,
		scanned: []chat.Conversation{
			{ID: "t2", UserID: "u1", Title: "b", UpdatedAt: base.Add(2 * time.Hour)},
			{ID: "t1", UserID: "u1", Title: "", UpdatedAt: base.Add(1 * time.Hour)},
			{ID: "t3", UserID: "u1", Title: "c", UpdatedAt: base.Add(3 * time.Hour)},
		},
	}
	svc := NewService(store, logger.Nop())

	convs := svc.ListConversations(context.Background(), "u1")
	require.Len(t, convs, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, ids(convs))
	assert.Equal(t, DefaultTitle, convs[2].Title)
}

func TestLocalSortBreaksTiesByCreation(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	updated := base.Add(time.Hour)
	store := &brokenStore{
		allowScan: true,
		scanned: []chat.Conversation{
			{ID: "older", UserID: "u1", Title: "a", CreatedAt: base, UpdatedAt: updated},
			{ID: "newer", UserID: "u1", Title: "b", CreatedAt: base.Add(time.Minute), UpdatedAt: updated},
		},
	}

	convs := NewService(store, logger.Nop()).ListConversations(context.Background(), "u1")
	assert.Equal(t, []string{"newer", "older"}, ids(convs))
}

func TestStoreFailureDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&brokenStore{}, logger.Nop())

	convs := svc.ListConversations(ctx, "u1")
	require.NotNil(t, convs)
	assert.Empty(t, convs)

	turns := svc.ListTurns(ctx, "c1")
	require.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestWritesReportStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&brokenStore{}, logger.Nop())

	_, err := svc.CreateConversation(ctx, "u1", "oi")
	require.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = svc.AppendTurn(ctx, "u1", "c1", "oi", validAnswer("Salmos 23:1"))
	require.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = svc.Conversation(ctx, "u1", "c1")
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAppendTurnUnknownConversation(t *testing.T) {
	svc := NewService(memory.New(), logger.Nop())

	_, err := svc.AppendTurn(context.Background(), "u1", "missing", "oi", validAnswer("Salmos 23:1"))
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestAppendTurnRejectsOtherOwner(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), logger.Nop())

	id, err := svc.CreateConversation(ctx, "u1", "minha")
	require.NoError(t, err)

	_, err = svc.AppendTurn(ctx, "u2", id, "intruso", validAnswer("Salmos 23:1"))
	require.ErrorIs(t, err, ErrConversationNotFound)
	assert.Empty(t, svc.ListTurns(ctx, id))
}

func TestListTurnsPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), logger.Nop(), WithClock(newClock().Now))

	id, err := svc.CreateConversation(ctx, "u1", "início")
	require.NoError(t, err)

	const n = 12
	for i := 0; i < n; i++ {
		mustAppend(t, svc, id, fmt.Sprintf("pergunta %d", i), validAnswer(fmt.Sprintf("ref %d", i)))
	}

	turns := svc.ListTurns(ctx, id)
	require.Len(t, turns, n)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("pergunta %d", i), turn.Question)
		require.NotNil(t, turn.Answer)
		assert.Equal(t, fmt.Sprintf("ref %d", i), turn.Answer.Reference)
		if i > 0 {
			assert.False(t, turn.CreatedAt.Before(turns[i-1].CreatedAt))
		}
	}
}

func TestListTurnsKeepsInsertionOrderOnEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(memory.New(), logger.Nop(), WithClock(func() time.Time { return frozen }))

	id, err := svc.CreateConversation(ctx, "u1", "início")
	require.NoError(t, err)
	for _, q := range []string{"a", "b", "c"} {
		mustAppend(t, svc, id, q, validAnswer(q))
	}

	turns := svc.ListTurns(ctx, id)
	require.Len(t, turns, 3)
	assert.Equal(t, "a", turns[0].Question)
	assert.Equal(t, "b", turns[1].Question)
	assert.Equal(t, "c", turns[2].Question)
}

func TestListTurnsValidatesStoredRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateConversation(ctx, chat.Conversation{ID: "c1", UserID: "u1", CreatedAt: now, UpdatedAt: now}))

	broken := validAnswer("Salmos 23:1")
	broken.VerseText = ""
	require.NoError(t, store.AppendTurn(ctx, "u1", chat.Turn{ID: "t1", ConversationID: "c1", Question: " ", CreatedAt: now}))
	require.NoError(t, store.AppendTurn(ctx, "u1", chat.Turn{ID: "t2", ConversationID: "c1", Question: "q", Answer: &broken, CreatedAt: now.Add(time.Second)}))

	turns := NewService(store, logger.Nop()).ListTurns(ctx, "c1")
	require.Len(t, turns, 1)
	assert.Equal(t, "t2", turns[0].ID)
	assert.Nil(t, turns[0].Answer)
}

func mustAppend(t *testing.T, svc *Service, conversationID, question string, answer chat.BibleResponse) chat.Turn {
	t.Helper()
	turn, err := svc.AppendTurn(context.Background(), "u1", conversationID, question, answer)
	require.NoError(t, err)
	require.Equal(t, conversationID, turn.ConversationID)
	return turn
}

func ids(convs []chat.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}
