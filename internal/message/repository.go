package message

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"go-classified/internal/advert"
	"go-classified/internal/pagination"
)

// NumItems is the page size for conversation and message listings.
const NumItems = 10

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const queryConversations = `
	SELECT c.id, c.topic, c.user_id, c.owner_id, c.advert_id
	FROM si_conversations c
`

const queryMessages = `
	SELECT m.id, m.content, m.user_id, m.conversation_id, m.created_at, u.login
	FROM si_messages m
	JOIN si_users u ON u.id = m.user_id
`

// FindAll returns every conversation in id order.
func (r *Repository) FindAll(ctx context.Context) ([]Conversation, error) {
	return r.fetchConversations(ctx, queryConversations+" ORDER BY c.id")
}

// FindAllPaginated lists the conversations the user takes part in, either
// side, newest first.
func (r *Repository) FindAllPaginated(ctx context.Context, userID, page int) (*pagination.Page[Conversation], error) {
	fetch := func(ctx context.Context, limit, offset int) ([]Conversation, error) {
		query := queryConversations +
			" WHERE c.owner_id = $1 OR c.user_id = $1 ORDER BY c.id DESC LIMIT $2 OFFSET $3"
		return r.fetchConversations(ctx, query, userID, limit, offset)
	}
	count := func(ctx context.Context) (int, error) {
		var total int
		err := r.db.QueryRowContext(
			ctx,
			"SELECT COUNT(DISTINCT c.id) FROM si_conversations c WHERE c.owner_id = $1 OR c.user_id = $1",
			userID,
		).Scan(&total)
		if err != nil {
			return 0, errors.Wrap(err, "count conversations")
		}
		return total, nil
	}

	paginator := pagination.New(fetch, count)
	paginator.SetCurrentPage(page)
	paginator.SetMaxPerPage(NumItems)
	return paginator.CurrentPageResults(ctx)
}

// FindMessagesPaginated lists a conversation's messages, newest first.
func (r *Repository) FindMessagesPaginated(ctx context.Context, conversationID, page int) (*pagination.Page[Message], error) {
	fetch := func(ctx context.Context, limit, offset int) ([]Message, error) {
		query := queryMessages +
			" WHERE m.conversation_id = $1 ORDER BY m.id DESC LIMIT $2 OFFSET $3"
		return r.fetchMessages(ctx, query, conversationID, limit, offset)
	}
	count := func(ctx context.Context) (int, error) {
		var total int
		err := r.db.QueryRowContext(
			ctx,
			"SELECT COUNT(DISTINCT m.id) FROM si_messages m WHERE m.conversation_id = $1",
			conversationID,
		).Scan(&total)
		if err != nil {
			return 0, errors.Wrap(err, "count messages")
		}
		return total, nil
	}

	paginator := pagination.New(fetch, count)
	paginator.SetCurrentPage(page)
	paginator.SetMaxPerPage(NumItems)
	return paginator.CurrentPageResults(ctx)
}

func (r *Repository) FindOneByID(ctx context.Context, id int) (*Conversation, error) {
	c := &Conversation{}
	err := r.db.QueryRowContext(ctx, queryConversations+" WHERE c.id = $1", id).
		Scan(&c.ID, &c.Topic, &c.UserID, &c.OwnerID, &c.AdvertID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find conversation by id")
	}
	return c, nil
}

func (r *Repository) FindOneByUserAndAdvert(ctx context.Context, userID, advertID int) (*Conversation, error) {
	c := &Conversation{}
	err := r.db.QueryRowContext(
		ctx,
		queryConversations+" WHERE c.user_id = $1 AND c.advert_id = $2",
		userID, advertID,
	).Scan(&c.ID, &c.Topic, &c.UserID, &c.OwnerID, &c.AdvertID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find conversation by user and advert")
	}
	return c, nil
}

// IsFirstMessage reports whether no conversation exists yet between the
// advert's owner and the inquiring user about this advert.
func (r *Repository) IsFirstMessage(ctx context.Context, adv *advert.Advert, userID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(c.id) FROM si_conversations c
		 WHERE c.user_id = $1 AND c.owner_id = $2 AND c.advert_id = $3`,
		userID, adv.UserID, adv.ID,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "check first message")
	}
	return n == 0, nil
}

// CanView reports whether the user is a participant of exactly this
// conversation, as its owner or its inquirer.
func (r *Repository) CanView(ctx context.Context, conversationID, userID int) (bool, error) {
	var n int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(c.id) FROM si_conversations c
		 WHERE c.id = $1 AND (c.user_id = $2 OR c.owner_id = $2)`,
		conversationID, userID,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "check view authorization")
	}
	return n > 0, nil
}

// SaveFirst creates the conversation and its first message in one
// transaction; neither row is visible unless both inserts succeed.
func (r *Repository) SaveFirst(ctx context.Context, content string, adv *advert.Advert, userID int) (*Conversation, *Message, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "begin first message")
	}
	defer tx.Rollback()

	conv := &Conversation{
		Topic:    fmt.Sprintf("#%d - %s", adv.ID, adv.Topic),
		OwnerID:  adv.UserID,
		UserID:   userID,
		AdvertID: adv.ID,
	}
	err = tx.QueryRowContext(
		ctx,
		`INSERT INTO si_conversations (topic, owner_id, user_id, advert_id)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		conv.Topic, conv.OwnerID, conv.UserID, conv.AdvertID,
	).Scan(&conv.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "insert conversation")
	}

	msg := &Message{
		ConversationID: conv.ID,
		UserID:         userID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	err = tx.QueryRowContext(
		ctx,
		`INSERT INTO si_messages (conversation_id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		msg.ConversationID, msg.UserID, msg.Content, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "insert first message")
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "commit first message")
	}
	return conv, msg, nil
}

// Save appends a reply to an existing conversation.
func (r *Repository) Save(ctx context.Context, content string, conversationID, userID int) (*Message, error) {
	msg := &Message{
		ConversationID: conversationID,
		UserID:         userID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO si_messages (conversation_id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		msg.ConversationID, msg.UserID, msg.Content, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}
	return msg, nil
}

func (r *Repository) FindMessageByID(ctx context.Context, id int) (*Message, error) {
	m := &Message{}
	err := r.db.QueryRowContext(ctx, queryMessages+" WHERE m.id = $1", id).
		Scan(&m.ID, &m.Content, &m.UserID, &m.ConversationID, &m.CreatedAt, &m.Login)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find message by id")
	}
	return m, nil
}

func (r *Repository) UpdateMessage(ctx context.Context, m *Message) error {
	_, err := r.db.ExecContext(ctx, "UPDATE si_messages SET content = $1 WHERE id = $2", m.Content, m.ID)
	return errors.Wrap(err, "update message")
}

func (r *Repository) DeleteMessage(ctx context.Context, m *Message) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM si_messages WHERE id = $1", m.ID)
	return errors.Wrap(err, "delete message")
}

func (r *Repository) fetchConversations(ctx context.Context, query string, args ...interface{}) ([]Conversation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query conversations")
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Topic, &c.UserID, &c.OwnerID, &c.AdvertID); err != nil {
			return nil, errors.Wrap(err, "scan conversation row")
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func (r *Repository) fetchMessages(ctx context.Context, query string, args ...interface{}) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query messages")
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Content, &m.UserID, &m.ConversationID, &m.CreatedAt, &m.Login); err != nil {
			return nil, errors.Wrap(err, "scan message row")
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
