package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beeja-hrm-backend/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// messagePreviewLen caps the last-message summary stored on the session row.
const messagePreviewLen = 120

type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

const sessionColumns = `
	id, participant_a, participant_b, last_seq, created_at, last_activity,
	COALESCE(last_message_id::text, ''), COALESCE(last_message_preview, ''),
	COALESCE(last_message_sender::text, ''), unread_a, unread_b
`

func scanSession(row pgx.Row) (*model.ChatSession, error) {
	var s model.ChatSession
	err := row.Scan(
		&s.ID, &s.ParticipantA, &s.ParticipantB, &s.LastSeq, &s.CreatedAt, &s.LastActivity,
		&s.LastMessageID, &s.LastMessagePreview, &s.LastMessageSender, &s.UnreadA, &s.UnreadB,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ChatRepository) GetSession(ctx context.Context, id string) (*model.ChatSession, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM chat_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *ChatRepository) FindSessionByPair(ctx context.Context, userA, userB string) (*model.ChatSession, error) {
	a, b := model.NormalizePair(userA, userB)
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM chat_sessions
		WHERE participant_a = $1 AND participant_b = $2
	`, a, b)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// CreateSession inserts the pair's session if absent. The no-op DO UPDATE
// makes the statement return the surviving row either way, so two
// concurrent first creations both get the same session back.
func (r *ChatRepository) CreateSession(ctx context.Context, userA, userB string) (*model.ChatSession, error) {
	a, b := model.NormalizePair(userA, userB)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO chat_sessions (id, participant_a, participant_b)
		VALUES ($1, $2, $3)
		ON CONFLICT (participant_a, participant_b)
		DO UPDATE SET participant_a = EXCLUDED.participant_a
		RETURNING `+sessionColumns,
		uuid.NewString(), a, b)
	return scanSession(row)
}

// ListSessions returns the user's session summaries joined with the
// directory read model, newest activity first.
func (r *ChatRepository) ListSessions(ctx context.Context, userID string) ([]*model.SessionSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id,
		       e.id, e.full_name, e.email, e.role, COALESCE(e.department, ''),
		       s.last_activity,
		       COALESCE(s.last_message_preview, ''),
		       COALESCE(s.last_message_sender::text, ''),
		       CASE WHEN s.participant_a = $1 THEN s.unread_a ELSE s.unread_b END
		FROM chat_sessions s
		JOIN employees e
		  ON e.id = CASE WHEN s.participant_a = $1 THEN s.participant_b ELSE s.participant_a END
		WHERE s.participant_a = $1 OR s.participant_b = $1
		ORDER BY s.last_activity DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		if err := rows.Scan(
			&sum.SessionID,
			&sum.Other.ID, &sum.Other.FullName, &sum.Other.Email, &sum.Other.Role, &sum.Other.Department,
			&sum.LastActivity, &sum.LastMessagePreview, &sum.LastMessageSender, &sum.Unread,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, &sum)
	}
	return summaries, rows.Err()
}

// AppendMessage stores a message under the session's next sequence number
// and applies the counter and last-message updates in the same
// transaction. The FOR UPDATE on the session row is the per-session
// serialization point: concurrent sends get strictly increasing seqs.
func (r *ChatRepository) AppendMessage(ctx context.Context, sessionID, senderID, content string, attachments []model.Attachment) (*model.Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var participantA, participantB string
	var lastSeq int64
	err = tx.QueryRow(ctx, `
		SELECT participant_a, participant_b, last_seq
		FROM chat_sessions WHERE id = $1 FOR UPDATE
	`, sessionID).Scan(&participantA, &participantB, &lastSeq)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Seq:         lastSeq + 1,
		SenderID:    senderID,
		Content:     content,
		Attachments: attachments,
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_id, seq, sender_id, content, attachments)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, msg.ID, sessionID, msg.Seq, senderID, content, attachmentsJSON).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	preview := content
	if len(preview) > messagePreviewLen {
		preview = preview[:messagePreviewLen]
	}
	if preview == "" && len(attachments) > 0 {
		preview = attachments[0].Name
	}

	// Bump the counterpart's unread counter together with the summary.
	unreadColumn := "unread_b"
	if senderID == participantB {
		unreadColumn = "unread_a"
	}
	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE chat_sessions
		SET last_seq = $2,
		    last_activity = $3,
		    last_message_id = $4,
		    last_message_preview = $5,
		    last_message_sender = $6,
		    %s = %s + 1
		WHERE id = $1
	`, unreadColumn, unreadColumn), sessionID, msg.Seq, msg.CreatedAt, msg.ID, preview, senderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns one page, newest first, with read receipts
// aggregated per message.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID string, page, limit int) ([]*model.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.session_id, m.seq, m.sender_id, m.content, m.attachments, m.created_at,
		       COALESCE(
		           jsonb_agg(jsonb_build_object('user_id', r.user_id, 'read_at', r.read_at))
		           FILTER (WHERE r.user_id IS NOT NULL),
		           '[]'
		       )
		FROM chat_messages m
		LEFT JOIN message_reads r ON r.message_id = m.id
		WHERE m.session_id = $1
		GROUP BY m.id
		ORDER BY m.seq DESC
		LIMIT $2 OFFSET $3
	`, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		var m model.Message
		var attachmentsJSON, readsJSON []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &m.SenderID, &m.Content, &attachmentsJSON, &m.CreatedAt, &readsJSON); err != nil {
			return nil, err
		}
		if len(attachmentsJSON) > 0 {
			if err := json.Unmarshal(attachmentsJSON, &m.Attachments); err != nil {
				return nil, err
			}
		}
		if err := json.Unmarshal(readsJSON, &m.ReadBy); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// MarkMessagesRead appends read receipts for the given messages (never
// the reader's own, never twice) and resets the reader's unread counter
// to the count of messages still unread, all in one transaction so a
// concurrent send cannot be lost from the counter.
func (r *ChatRepository) MarkMessagesRead(ctx context.Context, sessionID, userID string, messageIDs []string) (*model.MarkReadResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var participantA, participantB string
	err = tx.QueryRow(ctx, `
		SELECT participant_a, participant_b
		FROM chat_sessions WHERE id = $1 FOR UPDATE
	`, sessionID).Scan(&participantA, &participantB)
	if err != nil {
		return nil, err
	}

	readAt := time.Now().UTC()
	result := &model.MarkReadResult{
		SessionID: sessionID,
		ReaderID:  userID,
		ReadAt:    readAt,
	}

	if len(messageIDs) > 0 {
		rows, err := tx.Query(ctx, `
			INSERT INTO message_reads (message_id, user_id, read_at)
			SELECT m.id, $2, $3
			FROM chat_messages m
			WHERE m.session_id = $1 AND m.id = ANY($4::uuid[]) AND m.sender_id <> $2
			ON CONFLICT (message_id, user_id) DO NOTHING
			RETURNING message_id
		`, sessionID, userID, readAt, messageIDs)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			result.MessageIDs = append(result.MessageIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	var unread int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM chat_messages m
		WHERE m.session_id = $1 AND m.sender_id <> $2
		  AND NOT EXISTS (
		      SELECT 1 FROM message_reads r
		      WHERE r.message_id = m.id AND r.user_id = $2
		  )
	`, sessionID, userID).Scan(&unread)
	if err != nil {
		return nil, err
	}
	result.Unread = unread

	unreadColumn := "unread_a"
	if userID == participantB {
		unreadColumn = "unread_b"
	}
	_, err = tx.Exec(ctx, fmt.Sprintf(`UPDATE chat_sessions SET %s = $2 WHERE id = $1`, unreadColumn), sessionID, unread)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
