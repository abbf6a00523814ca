//go:generate go run go.uber.org/mock/mockgen -source=messaging.go -destination=../mocks/servicemocks/mock_messaging_service.go -package=servicemocks
package services

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

type IMessagingService interface {
	SendDirect(ctx context.Context, cmd domain.SendDirectCommand) (domain.MessageView, error)
	SendDirectWithAttachment(ctx context.Context, cmd domain.SendDirectCommand, upload domain.Upload) (domain.MessageView, error)
	SendToConversation(ctx context.Context, cmd domain.SendCommand) (domain.MessageView, error)
	SendTyping(ctx context.Context, senderID domain.UserID, target domain.TypingTarget, isTyping bool) error
	CreateOrFetchDirectConversation(ctx context.Context, userID, otherID domain.UserID) (domain.Conversation, error)
	PageMessages(ctx context.Context, userID domain.UserID, req domain.PageRequest) (domain.PagedResult[domain.MessageView], error)
	MarkRead(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, messageID domain.MessageID) (bool, error)
	CountUnread(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID) (int, error)
	EditMessage(ctx context.Context, userID domain.UserID, messageID domain.MessageID, content string) (domain.MessageView, error)
	DeleteMessage(ctx context.Context, userID domain.UserID, messageID domain.MessageID) (domain.MessageView, error)
	MarkDelivered(ctx context.Context, userID domain.UserID, messageID domain.MessageID) (domain.MessageView, error)
	SearchMessages(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, query string, page, size int) (domain.PagedResult[domain.MessageView], error)
	ListConversations(ctx context.Context, userID domain.UserID) ([]ConversationSummary, error)
	AttachmentsByConversation(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, family domain.MessageType) ([]domain.Attachment, error)
	UpdateSettings(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, settings domain.ParticipantSettings) (domain.Participant, error)
	ReportError(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, action event.Action, cause error)
	CheckAccess(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID) error
}

type MessagingConfig struct {
	// AutoJoin lets a user who is not yet a participant join a conversation by sending into it.
	AutoJoin         bool
	MaxContentLength int
	MaxUploadSize    int64
	DefaultPageSize  int
	MaxPageSize      int
}

// ConversationSummary is one line of a user's conversation list.
// Title is the group name, or the other user's username for a private conversation.
type ConversationSummary struct {
	domain.Conversation
	Title       string
	UnreadCount int
}

// MessagingService composes the stores with the fan-out bus.
// Every write is committed before anything is published, and a failed publish is only logged.
type MessagingService struct {
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	index         repositories.IMessageIndex
	directory     contract.IdentityDirectory
	storage       contract.AttachmentStorage
	publisher     contract.Publisher
	moderator     *moderation.Moderator
	config        MessagingConfig
	log           *slog.Logger
}

func NewMessagingService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	index repositories.IMessageIndex,
	directory contract.IdentityDirectory,
	storage contract.AttachmentStorage,
	publisher contract.Publisher,
	config MessagingConfig,
	log *slog.Logger) *MessagingService {
	return &MessagingService{
		conversations: conversations,
		messages:      messages,
		index:         index,
		directory:     directory,
		storage:       storage,
		publisher:     publisher,
		config:        config,
		log:           log,
	}
}

// WithModerator censors forbidden words of every sent or edited content.
func (s *MessagingService) WithModerator(m *moderation.Moderator) *MessagingService {
	s.moderator = m
	return s
}

func (s *MessagingService) SendDirect(ctx context.Context, cmd domain.SendDirectCommand) (domain.MessageView, error) {
	if err := validateStruct(cmd); err != nil {
		return domain.MessageView{}, err
	}
	content, err := s.prepareContent(cmd.Content, false)
	if err != nil {
		return domain.MessageView{}, err
	}
	conversation, err := s.directConversation(ctx, cmd.SenderID, cmd.RecipientUsername)
	if err != nil {
		return domain.MessageView{}, err
	}
	return s.append(ctx, domain.AppendCommand{
		ConversationID: conversation.ID,
		SenderID:       cmd.SenderID,
		Content:        content,
		Type:           domain.Text,
		AutoJoin:       s.config.AutoJoin,
	})
}

// SendDirectWithAttachment stores the upload, then sends it with an optional caption.
// The message type follows the detected mime type of the bytes.
func (s *MessagingService) SendDirectWithAttachment(ctx context.Context, cmd domain.SendDirectCommand, upload domain.Upload) (domain.MessageView, error) {
	if err := validateStruct(cmd); err != nil {
		return domain.MessageView{}, err
	}
	if len(upload.Data) == 0 {
		return domain.MessageView{}, fmt.Errorf("%w: attachment is empty", errors.ErrValidation)
	}
	if s.config.MaxUploadSize > 0 && int64(len(upload.Data)) > s.config.MaxUploadSize {
		return domain.MessageView{}, errors.ErrAttachmentTooLarge
	}
	content, err := s.prepareContent(cmd.Content, true)
	if err != nil {
		return domain.MessageView{}, err
	}
	conversation, err := s.directConversation(ctx, cmd.SenderID, cmd.RecipientUsername)
	if err != nil {
		return domain.MessageView{}, err
	}

	stored, err := s.storage.Store(ctx, upload.Data, upload.FileName, fmt.Sprint(conversation.ID))
	if err != nil {
		return domain.MessageView{}, fmt.Errorf("store attachment: %w", err)
	}
	fileName := strings.TrimSpace(upload.FileName)
	if fileName == "" {
		fileName = stored.Token
	}
	view, err := s.append(ctx, domain.AppendCommand{
		ConversationID: conversation.ID,
		SenderID:       cmd.SenderID,
		Content:        content,
		Type:           domain.MessageTypeFromMime(stored.MimeType),
		AutoJoin:       s.config.AutoJoin,
		Attachments: []domain.Attachment{{
			FileName: fileName,
			FilePath: stored.Token,
			FileSize: stored.Size,
			MimeType: stored.MimeType,
		}},
	})
	if err != nil {
		// Nothing references the bytes anymore
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), stored.Token); delErr != nil {
			s.log.Warn("Unable to remove orphan attachment", "token", stored.Token, "error", delErr)
		}
		return domain.MessageView{}, err
	}
	return view, nil
}

func (s *MessagingService) SendToConversation(ctx context.Context, cmd domain.SendCommand) (domain.MessageView, error) {
	if err := validateStruct(cmd); err != nil {
		return domain.MessageView{}, err
	}
	content, err := s.prepareContent(cmd.Content, false)
	if err != nil {
		return domain.MessageView{}, err
	}
	if _, err := s.conversations.Get(cmd.ConversationID); err != nil {
		return domain.MessageView{}, err
	}
	return s.append(ctx, domain.AppendCommand{
		ConversationID: cmd.ConversationID,
		SenderID:       cmd.SenderID,
		Content:        content,
		Type:           cmd.Type,
		ReplyTo:        cmd.ReplyTo,
		AutoJoin:       s.config.AutoJoin,
	})
}

// SendTyping publishes a typing indicator. Nothing is persisted, except the private
// conversation itself when the target is a username seen for the first time.
func (s *MessagingService) SendTyping(ctx context.Context, senderID domain.UserID, target domain.TypingTarget, isTyping bool) error {
	var conversationID domain.ConversationID
	switch {
	case target.ConversationID != nil:
		conversation, err := s.conversations.Get(*target.ConversationID)
		if err != nil {
			return err
		}
		conversationID = conversation.ID
	case strings.TrimSpace(target.RecipientUsername) != "":
		conversation, err := s.directConversation(ctx, senderID, target.RecipientUsername)
		if err != nil {
			return err
		}
		conversationID = conversation.ID
	default:
		return errors.ErrEmptyTypingTarget
	}

	s.publish(ctx, event.TypingEvent{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderUsername: s.username(ctx, senderID, nil),
		IsTyping:       isTyping,
	})
	return nil
}

func (s *MessagingService) CreateOrFetchDirectConversation(ctx context.Context, userID, otherID domain.UserID) (domain.Conversation, error) {
	other, err := s.directory.FindByID(ctx, otherID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !other.IsActive {
		return domain.Conversation{}, errors.ErrUserNotFound
	}
	conversation, created, err := s.conversations.FindOrCreatePrivate(userID, other.ID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if created {
		s.log.Debug("Private conversation created", "conversation", conversation.ID, "users", []domain.UserID{userID, otherID})
	}
	return conversation, nil
}

// PageMessages returns a page of a conversation the user belongs to.
// A former participant only sees what was sent before they left.
func (s *MessagingService) PageMessages(ctx context.Context, userID domain.UserID, req domain.PageRequest) (domain.PagedResult[domain.MessageView], error) {
	req = req.WithDefaults(s.config.DefaultPageSize)
	if s.config.MaxPageSize > 0 && req.Size > s.config.MaxPageSize {
		return domain.PagedResult[domain.MessageView]{}, errors.ErrInvalidPage
	}
	if err := validateStruct(req); err != nil {
		return domain.PagedResult[domain.MessageView]{}, err
	}
	participant, err := s.participant(req.ConversationID, userID)
	if err != nil {
		return domain.PagedResult[domain.MessageView]{}, err
	}
	if !participant.IsActive {
		req.Until = participant.LeftAt
	}
	page, err := s.messages.Page(req)
	if err != nil {
		return domain.PagedResult[domain.MessageView]{}, err
	}
	views, err := s.views(ctx, page.Items)
	if err != nil {
		return domain.PagedResult[domain.MessageView]{}, err
	}
	return domain.NewPagedResult(views, page.TotalElements, page.Page, page.Size), nil
}

// MarkRead moves the user's read pointer. In a private conversation the sender of the
// message gets a READ receipt on the conversation topic.
func (s *MessagingService) MarkRead(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, messageID domain.MessageID) (bool, error) {
	advanced, err := s.conversations.MarkRead(conversationID, userID, messageID)
	if err != nil || !advanced {
		return advanced, err
	}
	if err := s.readReceipt(ctx, userID, conversationID, messageID); err != nil {
		s.log.Warn("Unable to send read receipt", "conversation", conversationID, "message", messageID, "error", err)
	}
	return true, nil
}

func (s *MessagingService) readReceipt(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, messageID domain.MessageID) error {
	conversation, err := s.conversations.Get(conversationID)
	if err != nil || conversation.IsGroup() {
		return err
	}
	message, err := s.messages.Get(messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		s.publish(ctx, event.NewMessageEvent(s.view(ctx, message, nil, nil)))
	}
	return nil
}

func (s *MessagingService) CountUnread(_ context.Context, userID domain.UserID, conversationID domain.ConversationID) (int, error) {
	return s.messages.CountUnread(conversationID, userID)
}

func (s *MessagingService) EditMessage(ctx context.Context, userID domain.UserID, messageID domain.MessageID, content string) (domain.MessageView, error) {
	if _, err := s.ownedMessage(userID, messageID); err != nil {
		return domain.MessageView{}, err
	}
	content, err := s.prepareContent(content, false)
	if err != nil {
		return domain.MessageView{}, err
	}
	message, err := s.messages.MarkEdited(messageID, content)
	if err != nil {
		return domain.MessageView{}, err
	}
	return s.afterChange(ctx, message)
}

func (s *MessagingService) DeleteMessage(ctx context.Context, userID domain.UserID, messageID domain.MessageID) (domain.MessageView, error) {
	if _, err := s.ownedMessage(userID, messageID); err != nil {
		return domain.MessageView{}, err
	}
	message, err := s.messages.MarkDeleted(messageID)
	if err != nil {
		return domain.MessageView{}, err
	}
	return s.afterChange(ctx, message)
}

// MarkDelivered acknowledges a message on behalf of a recipient.
// The sender's own messages and messages already delivered or read are left as they are.
func (s *MessagingService) MarkDelivered(ctx context.Context, userID domain.UserID, messageID domain.MessageID) (domain.MessageView, error) {
	message, err := s.messages.Get(messageID)
	if err != nil {
		return domain.MessageView{}, err
	}
	if err := s.ensureMember(message.ConversationID, userID); err != nil {
		return domain.MessageView{}, err
	}
	if message.SenderID == userID || message.Status != domain.StatusSent {
		return s.view(ctx, message, nil, nil), nil
	}
	message, err = s.messages.UpdateStatus(messageID, domain.StatusDelivered)
	if err != nil {
		return domain.MessageView{}, err
	}
	view := s.view(ctx, message, nil, nil)
	s.publish(ctx, event.NewMessageEvent(view))
	return view, nil
}

// SearchMessages runs a full text query inside one conversation, best match first.
func (s *MessagingService) SearchMessages(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, query string, page, size int) (domain.PagedResult[domain.MessageView], error) {
	if strings.TrimSpace(query) == "" {
		return domain.PagedResult[domain.MessageView]{}, fmt.Errorf("%w: search query is blank", errors.ErrValidation)
	}
	if size == 0 {
		size = s.config.DefaultPageSize
	}
	if page < 0 || size < 1 || (s.config.MaxPageSize > 0 && size > s.config.MaxPageSize) {
		return domain.PagedResult[domain.MessageView]{}, errors.ErrInvalidPage
	}
	if err := s.ensureMember(conversationID, userID); err != nil {
		return domain.PagedResult[domain.MessageView]{}, err
	}
	ids, total, err := s.index.SearchPaginated(ctx, query, conversationID, page, size)
	if err != nil {
		return domain.PagedResult[domain.MessageView]{}, err
	}
	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		message, err := s.messages.Get(id)
		if errors.Is(err, errors.ErrMessageNotFound) {
			s.log.Debug("Search hit without message", "message", id)
			continue
		}
		if err != nil {
			return domain.PagedResult[domain.MessageView]{}, err
		}
		if !message.IsDeleted {
			messages = append(messages, message)
		}
	}
	views, err := s.views(ctx, messages)
	if err != nil {
		return domain.PagedResult[domain.MessageView]{}, err
	}
	return domain.NewPagedResult(views, total, page, size), nil
}

// ListConversations returns the user's conversations, most recently active first.
func (s *MessagingService) ListConversations(ctx context.Context, userID domain.UserID) ([]ConversationSummary, error) {
	conversations, err := s.conversations.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		unread, err := s.messages.CountUnread(c.ID, userID)
		if err != nil {
			return nil, err
		}
		title := c.Name
		if !c.IsGroup() {
			title, err = s.otherUsername(ctx, c.ID, userID)
			if err != nil {
				return nil, err
			}
		}
		summaries = append(summaries, ConversationSummary{Conversation: c, Title: title, UnreadCount: unread})
	}
	return summaries, nil
}

func (s *MessagingService) AttachmentsByConversation(_ context.Context, userID domain.UserID, conversationID domain.ConversationID, family domain.MessageType) ([]domain.Attachment, error) {
	if family != 0 && !family.Valid() {
		return nil, errors.ErrInvalidEnum
	}
	if err := s.ensureMember(conversationID, userID); err != nil {
		return nil, err
	}
	attachments, err := s.messages.AttachmentsByConversation(conversationID, family)
	if attachments == nil && err == nil {
		attachments = []domain.Attachment{}
	}
	return attachments, err
}

func (s *MessagingService) UpdateSettings(_ context.Context, userID domain.UserID, conversationID domain.ConversationID, settings domain.ParticipantSettings) (domain.Participant, error) {
	return s.conversations.UpdateSettings(conversationID, userID, settings)
}

// ReportError tells the user, and only them, that a real-time request failed.
func (s *MessagingService) ReportError(ctx context.Context, userID domain.UserID, conversationID domain.ConversationID, action event.Action, cause error) {
	s.publish(ctx, event.NewErrorEvent(userID, conversationID, action, cause))
}

// CheckAccess tells whether the user may follow a conversation, e.g. before a live subscription.
// Former participants are refused.
func (s *MessagingService) CheckAccess(_ context.Context, userID domain.UserID, conversationID domain.ConversationID) error {
	return s.ensureMember(conversationID, userID)
}

// directConversation resolves an active recipient then finds or creates the private conversation.
func (s *MessagingService) directConversation(ctx context.Context, senderID domain.UserID, username string) (domain.Conversation, error) {
	recipient, err := s.directory.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, errors.ErrNotFound) {
		return domain.Conversation{}, fmt.Errorf("%w: %q", errors.ErrRecipientNotFound, username)
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	if !recipient.IsActive {
		return domain.Conversation{}, fmt.Errorf("%w: %q is inactive", errors.ErrRecipientNotFound, username)
	}
	conversation, _, err := s.conversations.FindOrCreatePrivate(senderID, recipient.ID)
	return conversation, err
}

// append persists, indexes and only then publishes.
func (s *MessagingService) append(ctx context.Context, cmd domain.AppendCommand) (domain.MessageView, error) {
	message, attachments, err := s.messages.Append(cmd)
	if err != nil {
		return domain.MessageView{}, err
	}
	if err := s.index.Index(message); err != nil {
		s.log.Warn("Unable to index message", "message", message.ID, "error", err)
	}
	view := s.view(ctx, message, attachments, nil)
	s.publish(ctx, event.NewMessageEvent(view))
	return view, nil
}

func (s *MessagingService) afterChange(ctx context.Context, message domain.Message) (domain.MessageView, error) {
	if err := s.index.Index(message); err != nil {
		s.log.Warn("Unable to index message", "message", message.ID, "error", err)
	}
	attachments, err := s.messages.Attachments(message.ID)
	if err != nil {
		return domain.MessageView{}, err
	}
	view := s.view(ctx, message, attachments, nil)
	s.publish(ctx, event.NewMessageEvent(view))
	return view, nil
}

func (s *MessagingService) publish(ctx context.Context, evt event.DomainEvent) {
	err := s.publisher.Publish(ctx, evt)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrBusFull):
		s.log.Debug("Event dropped", "topic", evt.Topic(), "kind", evt.Kind())
	default:
		s.log.Warn("Unable to publish event", "topic", evt.Topic(), "kind", evt.Kind(), "error", err)
	}
}

func (s *MessagingService) prepareContent(content string, allowBlank bool) (string, error) {
	if strings.TrimSpace(content) == "" {
		if allowBlank {
			return "", nil
		}
		return "", errors.ErrBlankContent
	}
	if s.config.MaxContentLength > 0 && utf8.RuneCountInString(content) > s.config.MaxContentLength {
		return "", errors.ErrContentTooLong
	}
	if s.moderator == nil {
		return content, nil
	}
	censored, found := s.moderator.Censor(content)
	if len(found) > 0 {
		s.log.Info("Content censored", "words", len(found))
	}
	return censored, nil
}

// participant returns the membership row of the user, active or not.
func (s *MessagingService) participant(conversationID domain.ConversationID, userID domain.UserID) (domain.Participant, error) {
	if _, err := s.conversations.Get(conversationID); err != nil {
		return domain.Participant{}, err
	}
	p, err := s.conversations.GetParticipant(conversationID, userID)
	if errors.Is(err, errors.ErrParticipantNotFound) {
		return domain.Participant{}, errors.ErrNotParticipant
	}
	return p, err
}

// ensureMember only accepts current participants.
func (s *MessagingService) ensureMember(conversationID domain.ConversationID, userID domain.UserID) error {
	p, err := s.participant(conversationID, userID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return errors.ErrInactiveParticipant
	}
	return nil
}

func (s *MessagingService) ownedMessage(userID domain.UserID, messageID domain.MessageID) (domain.Message, error) {
	message, err := s.messages.Get(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if message.SenderID != userID {
		return domain.Message{}, errors.ErrNotMessageOwner
	}
	return message, nil
}

func (s *MessagingService) otherUsername(ctx context.Context, conversationID domain.ConversationID, userID domain.UserID) (string, error) {
	participants, err := s.conversations.ListParticipants(conversationID, false)
	if err != nil {
		return "", err
	}
	for _, p := range participants {
		if p.UserID != userID {
			return s.username(ctx, p.UserID, nil), nil
		}
	}
	return domain.UnknownUsername, nil
}

func (s *MessagingService) views(ctx context.Context, messages []domain.Message) ([]domain.MessageView, error) {
	names := make(map[domain.UserID]string)
	views := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		attachments, err := s.messages.Attachments(m.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, s.view(ctx, m, attachments, names))
	}
	return views, nil
}

func (s *MessagingService) view(ctx context.Context, m domain.Message, attachments []domain.Attachment, names map[domain.UserID]string) domain.MessageView {
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return domain.MessageView{Message: m, SenderUsername: s.username(ctx, m.SenderID, names), Attachments: attachments}
}

// username resolves a display username, falling back to "Unknown". names caches lookups when not nil.
func (s *MessagingService) username(ctx context.Context, id domain.UserID, names map[domain.UserID]string) string {
	if name, ok := names[id]; ok {
		return name
	}
	name := domain.UnknownUsername
	if user, err := s.directory.FindByID(ctx, id); err == nil && user.Username != "" {
		name = user.Username
	}
	if names != nil {
		names[id] = name
	}
	return name
}
