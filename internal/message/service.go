package message

import (
	"context"
	"errors"
	"log"

	"go-classified/internal/advert"
	"go-classified/internal/pagination"
)

var (
	// ErrNotFound covers absent conversations, messages and adverts.
	ErrNotFound = errors.New("record not found")
	// ErrForbidden means the caller is no participant of the conversation.
	// Handlers answer it exactly like ErrNotFound so existence is not leaked.
	ErrForbidden = errors.New("forbidden")
	// ErrSelfContact means the caller tried to message their own advert.
	ErrSelfContact = errors.New("cannot send a message to yourself")
)

// ConversationStore is what the workflow needs from the repository.
type ConversationStore interface {
	FindAllPaginated(ctx context.Context, userID, page int) (*pagination.Page[Conversation], error)
	FindMessagesPaginated(ctx context.Context, conversationID, page int) (*pagination.Page[Message], error)
	FindOneByID(ctx context.Context, id int) (*Conversation, error)
	FindOneByUserAndAdvert(ctx context.Context, userID, advertID int) (*Conversation, error)
	IsFirstMessage(ctx context.Context, adv *advert.Advert, userID int) (bool, error)
	SaveFirst(ctx context.Context, content string, adv *advert.Advert, userID int) (*Conversation, *Message, error)
	Save(ctx context.Context, content string, conversationID, userID int) (*Message, error)
	CanView(ctx context.Context, conversationID, userID int) (bool, error)
	FindMessageByID(ctx context.Context, id int) (*Message, error)
	UpdateMessage(ctx context.Context, m *Message) error
	DeleteMessage(ctx context.Context, m *Message) error
}

// AdvertFinder is the read contract of the advert repository.
type AdvertFinder interface {
	FindOneByID(ctx context.Context, id int) (*advert.Advert, error)
}

// Notifier pushes a freshly stored message towards connected participants.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, conv *Conversation, msg *Message) error
}

type Service struct {
	store    ConversationStore
	adverts  AdvertFinder
	notifier Notifier
}

func NewService(store ConversationStore, adverts AdvertFinder, notifier Notifier) *Service {
	return &Service{store: store, adverts: adverts, notifier: notifier}
}

// Inbox lists the caller's conversations, newest first.
func (s *Service) Inbox(ctx context.Context, userID, page int) (*pagination.Page[Conversation], error) {
	return s.store.FindAllPaginated(ctx, userID, page)
}

// ContactResult tells the handler where the caller's conversation lives and
// whether this call created it.
type ContactResult struct {
	ConversationID int
	Created        bool
}

// InitiateContact starts (or finds) the conversation between the caller and
// an advert's owner. A repeat contact for the same advert routes to the
// existing conversation instead of creating a duplicate.
func (s *Service) InitiateContact(ctx context.Context, advertID int, content string, userID int, login string) (*ContactResult, error) {
	adv, err := s.adverts.FindOneByID(ctx, advertID)
	if err != nil {
		return nil, err
	}
	if adv == nil {
		return nil, ErrNotFound
	}
	if adv.UserID == userID {
		return nil, ErrSelfContact
	}

	first, err := s.store.IsFirstMessage(ctx, adv, userID)
	if err != nil {
		return nil, err
	}
	if !first {
		existing, err := s.store.FindOneByUserAndAdvert(ctx, userID, adv.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		return &ContactResult{ConversationID: existing.ID}, nil
	}

	conv, msg, err := s.store.SaveFirst(ctx, content, adv, userID)
	if err != nil {
		return nil, err
	}
	msg.Login = login
	s.notify(ctx, conv, msg)

	return &ContactResult{ConversationID: conv.ID, Created: true}, nil
}

// ViewConversation returns the conversation plus one page of its messages,
// newest first. Non-participants get ErrForbidden.
func (s *Service) ViewConversation(ctx context.Context, conversationID, page, userID int) (*Conversation, *pagination.Page[Message], error) {
	conv, err := s.store.FindOneByID(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return nil, nil, ErrNotFound
	}

	ok, err := s.store.CanView(ctx, conv.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrForbidden
	}

	messages, err := s.store.FindMessagesPaginated(ctx, conv.ID, page)
	if err != nil {
		return nil, nil, err
	}
	return conv, messages, nil
}

// Reply appends a message to a conversation the caller takes part in.
func (s *Service) Reply(ctx context.Context, conversationID int, content string, userID int, login string) (*Message, error) {
	conv, err := s.store.FindOneByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrNotFound
	}

	ok, err := s.store.CanView(ctx, conv.ID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	msg, err := s.store.Save(ctx, content, conv.ID, userID)
	if err != nil {
		return nil, err
	}
	msg.Login = login
	s.notify(ctx, conv, msg)
	return msg, nil
}

// EditMessage updates a message's content. Only the author or an admin may
// touch it.
func (s *Service) EditMessage(ctx context.Context, messageID int, content string, userID int, isAdmin bool) error {
	msg, err := s.store.FindMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrNotFound
	}
	if msg.UserID != userID && !isAdmin {
		return ErrForbidden
	}

	msg.Content = content
	return s.store.UpdateMessage(ctx, msg)
}

// DeleteMessage removes a message under the same authorization rule.
func (s *Service) DeleteMessage(ctx context.Context, messageID, userID int, isAdmin bool) error {
	msg, err := s.store.FindMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrNotFound
	}
	if msg.UserID != userID && !isAdmin {
		return ErrForbidden
	}

	return s.store.DeleteMessage(ctx, msg)
}

// notify is best effort; a down pub/sub never fails the write that preceded
// it.
func (s *Service) notify(ctx context.Context, conv *Conversation, msg *Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyNewMessage(ctx, conv, msg); err != nil {
		log.Printf("notify message %d: %v", msg.ID, err)
	}
}
