package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibliafides/backend/internal/model/chat"
)

// Store persists conversations and turns in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ chat.Store = (*Store)(nil)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateConversation(ctx context.Context, conv chat.Conversation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (chat.Conversation, error) {
	var conv chat.Conversation
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1`, id).
		Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Conversation{}, chat.ErrNotFound
	}
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("select conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) AppendTurn(ctx context.Context, userID string, turn chat.Turn) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE conversations SET updated_at = $2 WHERE id = $1 AND user_id = $3`,
			turn.ConversationID, turn.CreatedAt, userID)
		if err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return chat.ErrNotFound
		}

		cols := answerColumns(turn.Answer)
		_, err = tx.Exec(ctx, `
			INSERT INTO turns (
				id, conversation_id, pergunta,
				saudacao, texto_biblico, referencia, explicacao, sentimento_detectado,
				livro_abrev, capitulo, versiculo, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			turn.ID, turn.ConversationID, turn.Question,
			cols.greeting, cols.verseText, cols.reference, cols.explanation, cols.sentiment,
			cols.bookAbbrev, cols.chapter, cols.verse, turn.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		return nil
	})
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	return s.queryConversations(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC, created_at DESC`, userID)
}

func (s *Store) ScanConversations(ctx context.Context, userID string) ([]chat.Conversation, error) {
	return s.queryConversations(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1`, userID)
}

func (s *Store) queryConversations(ctx context.Context, query, userID string) ([]chat.Conversation, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []chat.Conversation
	for rows.Next() {
		var conv chat.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

func (s *Store) ListTurns(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, pergunta,
			saudacao, texto_biblico, referencia, explicacao, sentimento_detectado,
			livro_abrev, capitulo, versiculo, created_at
		FROM turns
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []chat.Turn
	for rows.Next() {
		var (
			turn chat.Turn
			cols columns
		)
		if err := rows.Scan(
			&turn.ID, &turn.ConversationID, &turn.Question,
			&cols.greeting, &cols.verseText, &cols.reference, &cols.explanation, &cols.sentiment,
			&cols.bookAbbrev, &cols.chapter, &cols.verse, &turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turn.Answer = cols.answer()
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}

// columns mirrors the nullable answer columns of the turns table.
type columns struct {
	greeting    *string
	verseText   *string
	reference   *string
	explanation *string
	sentiment   *string
	bookAbbrev  *string
	chapter     *int
	verse       *int
}

func answerColumns(answer *chat.BibleResponse) columns {
	if answer == nil {
		return columns{}
	}
	cols := columns{
		greeting:    &answer.Greeting,
		verseText:   &answer.VerseText,
		reference:   &answer.Reference,
		explanation: &answer.Explanation,
		sentiment:   &answer.Sentiment,
	}
	if ref := answer.ReferenceAPI; ref != nil {
		cols.bookAbbrev = &ref.BookAbbrev
		cols.chapter = &ref.Chapter
		cols.verse = &ref.Verse
	}
	return cols
}

func (c columns) answer() *chat.BibleResponse {
	if c.greeting == nil && c.verseText == nil && c.reference == nil && c.explanation == nil && c.sentiment == nil {
		return nil
	}
	answer := &chat.BibleResponse{
		Greeting:    deref(c.greeting),
		VerseText:   deref(c.verseText),
		Reference:   deref(c.reference),
		Explanation: deref(c.explanation),
		Sentiment:   deref(c.sentiment),
	}
	if c.bookAbbrev != nil {
		ref := &chat.VerseRef{BookAbbrev: *c.bookAbbrev}
		if c.chapter != nil {
			ref.Chapter = *c.chapter
		}
		if c.verse != nil {
			ref.Verse = *c.verse
		}
		answer.ReferenceAPI = ref
	}
	return answer
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
