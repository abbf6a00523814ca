package services

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/mocks"
	"chat-hub/moderation"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	aliceRef = domain.UserRef{ID: 1, Username: "alice", DisplayName: "Alice", IsActive: true}
	bobRef   = domain.UserRef{ID: 2, Username: "bob", DisplayName: "Bob", IsActive: true}
	sentAt   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	private  = domain.Conversation{ID: 10, Type: domain.Private, CreatedBy: 1, CreatedAt: sentAt, UpdatedAt: sentAt}
	team     = domain.Conversation{ID: 20, Type: domain.Group, Name: "Team", CreatedBy: 1, CreatedAt: sentAt, UpdatedAt: sentAt}
)

type messagingFixture struct {
	conversations *mocks.MockIConversationRepository
	messages      *mocks.MockIMessageRepository
	index         *mocks.MockIMessageIndex
	directory     *mocks.MockIdentityDirectory
	storage       *mocks.MockAttachmentStorage
	publisher     *mocks.MockPublisher
	svc           *MessagingService
}

func newMessagingFixture(t *testing.T) *messagingFixture {
	ctrl := gomock.NewController(t)
	f := &messagingFixture{
		conversations: mocks.NewMockIConversationRepository(ctrl),
		messages:      mocks.NewMockIMessageRepository(ctrl),
		index:         mocks.NewMockIMessageIndex(ctrl),
		directory:     mocks.NewMockIdentityDirectory(ctrl),
		storage:       mocks.NewMockAttachmentStorage(ctrl),
		publisher:     mocks.NewMockPublisher(ctrl),
	}
	config := MessagingConfig{AutoJoin: true, MaxContentLength: 20, MaxUploadSize: 1024, DefaultPageSize: 20, MaxPageSize: 100}
	f.svc = NewMessagingService(f.conversations, f.messages, f.index, f.directory, f.storage, f.publisher,
		config, logs.GetLoggerFromLevel(slog.LevelDebug))
	return f
}

func textMessage(id domain.MessageID, conversationID domain.ConversationID, sender domain.UserID, content string) domain.Message {
	return domain.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       sender,
		Content:        content,
		Type:           domain.Text,
		SentAt:         sentAt,
		Status:         domain.StatusSent,
	}
}

func TestMessagingService_SendDirect(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	ctx := context.Background()
	stored := textMessage(100, private.ID, aliceRef.ID, "hi")

	// Given bob exists and the private conversation is created on first contact
	f.directory.EXPECT().FindByUsername(ctx, "bob").Return(bobRef, nil)
	f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
	f.conversations.EXPECT().FindOrCreatePrivate(aliceRef.ID, bobRef.ID).Return(private, true, nil)

	// Then the message is persisted, indexed and only then published
	var published event.DomainEvent
	gomock.InOrder(
		f.messages.EXPECT().Append(domain.AppendCommand{
			ConversationID: private.ID,
			SenderID:       aliceRef.ID,
			Content:        "hi",
			Type:           domain.Text,
			AutoJoin:       true,
		}).Return(stored, nil, nil),
		f.index.EXPECT().Index(stored).Return(nil),
		f.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, evt event.DomainEvent) error {
			published = evt
			return nil
		}),
	)

	// When alice sends hi to bob
	view, err := f.svc.SendDirect(ctx, domain.SendDirectCommand{SenderID: aliceRef.ID, RecipientUsername: "bob", Content: "hi"})

	req.NoError(err)
	req.Equal(stored, view.Message)
	req.Equal("alice", view.SenderUsername)
	req.Empty(view.Attachments)
	req.Equal(event.ConversationTopic(private.ID), published.Topic())
	msgEvent, ok := published.(event.MessageEvent)
	req.True(ok)
	req.Equal("alice", msgEvent.SenderUsername)
	req.Equal(domain.StatusSent, msgEvent.Status)
}

func TestMessagingService_SendDirect_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown recipient persists nothing", func(t *testing.T) {
		f := newMessagingFixture(t)
		f.directory.EXPECT().FindByUsername(ctx, "ghost").Return(domain.UserRef{}, errors.ErrUserNotFound)
		f.messages.EXPECT().Append(gomock.Any()).Times(0)

		_, err := f.svc.SendDirect(ctx, domain.SendDirectCommand{SenderID: 1, RecipientUsername: "ghost", Content: "hi"})
		require.ErrorIs(t, err, errors.ErrRecipientNotFound)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("inactive recipient", func(t *testing.T) {
		f := newMessagingFixture(t)
		inactive := bobRef
		inactive.IsActive = false
		f.directory.EXPECT().FindByUsername(ctx, "bob").Return(inactive, nil)
		f.conversations.EXPECT().FindOrCreatePrivate(gomock.Any(), gomock.Any()).Times(0)

		_, err := f.svc.SendDirect(ctx, domain.SendDirectCommand{SenderID: 1, RecipientUsername: "bob", Content: "hi"})
		require.ErrorIs(t, err, errors.ErrRecipientNotFound)
	})

	t.Run("content", func(t *testing.T) {
		f := newMessagingFixture(t)
		_, err := f.svc.SendDirect(ctx, domain.SendDirectCommand{SenderID: 1, RecipientUsername: "bob", Content: " \n "})
		require.ErrorIs(t, err, errors.ErrBlankContent)

		_, err = f.svc.SendDirect(ctx, domain.SendDirectCommand{SenderID: 1, RecipientUsername: "bob", Content: strings.Repeat("é", 21)})
		require.ErrorIs(t, err, errors.ErrContentTooLong)

		_, err = f.svc.SendDirect(ctx, domain.SendDirectCommand{RecipientUsername: "bob", Content: "hi"})
		require.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestMessagingService_Publish_Failure_Is_Not_Surfaced(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	ctx := context.Background()
	stored := textMessage(101, team.ID, aliceRef.ID, "standup")

	f.conversations.EXPECT().Get(team.ID).Return(team, nil)
	f.messages.EXPECT().Append(gomock.Any()).Return(stored, nil, nil)
	f.index.EXPECT().Index(stored).Return(errors.ErrConflict)
	f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.ErrBusFull)

	view, err := f.svc.SendToConversation(ctx, domain.SendCommand{SenderID: aliceRef.ID, ConversationID: team.ID, Content: "standup"})

	req.NoError(err)
	req.Equal(domain.MessageID(101), view.ID)
}

func TestMessagingService_SendToConversation_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown conversation", func(t *testing.T) {
		f := newMessagingFixture(t)
		f.conversations.EXPECT().Get(domain.ConversationID(99)).Return(domain.Conversation{}, errors.ErrConversationNotFound)
		f.messages.EXPECT().Append(gomock.Any()).Times(0)

		_, err := f.svc.SendToConversation(ctx, domain.SendCommand{SenderID: 1, ConversationID: 99, Content: "hello"})
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("removed sender publishes nothing", func(t *testing.T) {
		f := newMessagingFixture(t)
		f.conversations.EXPECT().Get(team.ID).Return(team, nil)
		f.messages.EXPECT().Append(gomock.Any()).Return(domain.Message{}, nil, errors.ErrInactiveParticipant)
		f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

		_, err := f.svc.SendToConversation(ctx, domain.SendCommand{SenderID: 3, ConversationID: team.ID, Content: "hello"})
		require.ErrorIs(t, err, errors.ErrSecurity)
	})
}

func TestMessagingService_AutoJoin_Policy_Is_Forwarded(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	f.svc.config.AutoJoin = false
	ctx := context.Background()

	f.conversations.EXPECT().Get(team.ID).Return(team, nil)
	f.messages.EXPECT().Append(gomock.Any()).DoAndReturn(func(cmd domain.AppendCommand) (domain.Message, []domain.Attachment, error) {
		req.False(cmd.AutoJoin)
		return domain.Message{}, nil, errors.ErrNotParticipant
	})

	_, err := f.svc.SendToConversation(ctx, domain.SendCommand{SenderID: 4, ConversationID: team.ID, Content: "hello"})
	req.ErrorIs(err, errors.ErrNotParticipant)
}

func TestMessagingService_Moderation(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', slog.Default())
	req.NoError(err)
	f.svc.WithModerator(moderator)
	ctx := context.Background()

	f.conversations.EXPECT().Get(team.ID).Return(team, nil)
	f.messages.EXPECT().Append(gomock.Any()).DoAndReturn(func(cmd domain.AppendCommand) (domain.Message, []domain.Attachment, error) {
		return textMessage(102, cmd.ConversationID, cmd.SenderID, cmd.Content), nil, nil
	})
	f.index.EXPECT().Index(gomock.Any()).Return(nil)
	f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	view, err := f.svc.SendToConversation(ctx, domain.SendCommand{SenderID: aliceRef.ID, ConversationID: team.ID, Content: "a B4dger here"})

	req.NoError(err)
	req.Equal("a ****** here", view.Content)
}

func TestMessagingService_SendDirectWithAttachment(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	ctx := context.Background()
	data := []byte{0x89, 'P', 'N', 'G'}
	stored := domain.StoredFile{Token: "10/3f1c.png", Size: 4, MimeType: "image/png"}

	f.directory.EXPECT().FindByUsername(ctx, "bob").Return(bobRef, nil)
	f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
	f.conversations.EXPECT().FindOrCreatePrivate(aliceRef.ID, bobRef.ID).Return(private, false, nil)
	f.storage.EXPECT().Store(ctx, data, "cat.png", "10").Return(stored, nil)
	f.messages.EXPECT().Append(gomock.Any()).DoAndReturn(func(cmd domain.AppendCommand) (domain.Message, []domain.Attachment, error) {
		req.Equal(domain.Image, cmd.Type)
		req.Empty(cmd.Content)
		req.Len(cmd.Attachments, 1)
		a := cmd.Attachments[0]
		req.Equal("cat.png", a.FileName)
		req.Equal(stored.Token, a.FilePath)
		a.ID, a.MessageID = 1, 103
		m := textMessage(103, cmd.ConversationID, cmd.SenderID, "")
		m.Type = cmd.Type
		return m, []domain.Attachment{a}, nil
	})
	f.index.EXPECT().Index(gomock.Any()).Return(nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	view, err := f.svc.SendDirectWithAttachment(ctx,
		domain.SendDirectCommand{SenderID: aliceRef.ID, RecipientUsername: "bob"},
		domain.Upload{FileName: "cat.png", Data: data})

	req.NoError(err)
	req.Equal(domain.Image, view.Type)
	req.Len(view.Attachments, 1)
	req.Equal(int64(4), view.Attachments[0].FileSize)

	// Too large uploads never reach the storage
	_, err = f.svc.SendDirectWithAttachment(ctx,
		domain.SendDirectCommand{SenderID: aliceRef.ID, RecipientUsername: "bob"},
		domain.Upload{FileName: "big.bin", Data: make([]byte, 1025)})
	req.ErrorIs(err, errors.ErrAttachmentTooLarge)
}

func TestMessagingService_Attachment_Is_Removed_When_Append_Fails(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	ctx := context.Background()
	data := []byte("%PDF-1.4")
	stored := domain.StoredFile{Token: "10/9a2b.pdf", Size: int64(len(data)), MimeType: "application/pdf"}

	// Given the store gives up after its retries
	f.directory.EXPECT().FindByUsername(ctx, "bob").Return(bobRef, nil)
	f.conversations.EXPECT().FindOrCreatePrivate(aliceRef.ID, bobRef.ID).Return(private, false, nil)
	f.storage.EXPECT().Store(ctx, data, "report.pdf", "10").Return(stored, nil)
	f.messages.EXPECT().Append(gomock.Any()).Return(domain.Message{}, nil, errors.ErrTooManyRetries)
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	// Then the stored bytes are deleted
	f.storage.EXPECT().Delete(gomock.Any(), stored.Token).Return(nil)

	_, err := f.svc.SendDirectWithAttachment(ctx,
		domain.SendDirectCommand{SenderID: aliceRef.ID, RecipientUsername: "bob"},
		domain.Upload{FileName: "report.pdf", Data: data})
	req.ErrorIs(err, errors.ErrTooManyRetries)
}

func TestMessagingService_SendTyping(t *testing.T) {
	ctx := context.Background()

	t.Run("by conversation id, without persistence", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		id := team.ID
		f.conversations.EXPECT().Get(id).Return(team, nil)
		f.directory.EXPECT().FindByID(ctx, domain.UserID(7)).Return(domain.UserRef{}, errors.ErrUserNotFound)
		f.messages.EXPECT().Append(gomock.Any()).Times(0)
		f.publisher.EXPECT().Publish(ctx, event.TypingEvent{
			ConversationID: team.ID,
			SenderID:       7,
			SenderUsername: domain.UnknownUsername,
			IsTyping:       true,
		}).Return(nil)

		req.NoError(f.svc.SendTyping(ctx, 7, domain.TypingTarget{ConversationID: &id}, true))
	})

	t.Run("by username, finding the private conversation", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		f.directory.EXPECT().FindByUsername(ctx, "bob").Return(bobRef, nil)
		f.conversations.EXPECT().FindOrCreatePrivate(aliceRef.ID, bobRef.ID).Return(private, false, nil)
		f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
		f.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, evt event.DomainEvent) error {
			req.Equal(event.TypingTopic(private.ID), evt.Topic())
			return nil
		})

		req.NoError(f.svc.SendTyping(ctx, aliceRef.ID, domain.TypingTarget{RecipientUsername: "bob"}, false))
	})

	t.Run("without target", func(t *testing.T) {
		f := newMessagingFixture(t)
		require.ErrorIs(t, f.svc.SendTyping(ctx, 1, domain.TypingTarget{}, true), errors.ErrEmptyTypingTarget)
	})
}

func TestMessagingService_Edit_And_Delete(t *testing.T) {
	ctx := context.Background()
	original := textMessage(104, team.ID, aliceRef.ID, "helo")

	t.Run("only the sender edits", func(t *testing.T) {
		f := newMessagingFixture(t)
		f.messages.EXPECT().Get(original.ID).Return(original, nil)
		f.messages.EXPECT().MarkEdited(gomock.Any(), gomock.Any()).Times(0)

		_, err := f.svc.EditMessage(ctx, bobRef.ID, original.ID, "hacked")
		require.ErrorIs(t, err, errors.ErrNotMessageOwner)
		require.ErrorIs(t, err, errors.ErrPermission)
	})

	t.Run("edit is reindexed and published", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		edited := original
		edited.Content, edited.IsEdited = "hello", true

		f.messages.EXPECT().Get(original.ID).Return(original, nil)
		f.messages.EXPECT().MarkEdited(original.ID, "hello").Return(edited, nil)
		f.index.EXPECT().Index(edited).Return(nil)
		f.messages.EXPECT().Attachments(original.ID).Return(nil, nil)
		f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
		f.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

		view, err := f.svc.EditMessage(ctx, aliceRef.ID, original.ID, "hello")
		req.NoError(err)
		req.True(view.IsEdited)
	})

	t.Run("delete clears the content", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		deleted := original
		deleted.MarkDeleted()

		f.messages.EXPECT().Get(original.ID).Return(original, nil)
		f.messages.EXPECT().MarkDeleted(original.ID).Return(deleted, nil)
		f.index.EXPECT().Index(deleted).Return(nil)
		f.messages.EXPECT().Attachments(original.ID).Return(nil, nil)
		f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
		f.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, evt event.DomainEvent) error {
			req.True(evt.(event.MessageEvent).IsDeleted)
			return nil
		})

		view, err := f.svc.DeleteMessage(ctx, aliceRef.ID, original.ID)
		req.NoError(err)
		req.Empty(view.Content)
		req.Equal(original.SentAt, view.SentAt)
	})
}

func TestMessagingService_MarkDelivered(t *testing.T) {
	ctx := context.Background()
	message := textMessage(105, private.ID, aliceRef.ID, "hi")

	t.Run("recipient acknowledges", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		delivered := message
		delivered.Status = domain.StatusDelivered

		f.messages.EXPECT().Get(message.ID).Return(message, nil)
		f.conversations.EXPECT().Get(private.ID).Return(private, nil)
		f.conversations.EXPECT().GetParticipant(private.ID, bobRef.ID).Return(domain.Participant{IsActive: true}, nil)
		f.messages.EXPECT().UpdateStatus(message.ID, domain.StatusDelivered).Return(delivered, nil)
		f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)
		f.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

		view, err := f.svc.MarkDelivered(ctx, bobRef.ID, message.ID)
		req.NoError(err)
		req.Equal(domain.StatusDelivered, view.Status)
	})

	t.Run("sender acknowledging its own message changes nothing", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		f.messages.EXPECT().Get(message.ID).Return(message, nil)
		f.conversations.EXPECT().Get(private.ID).Return(private, nil)
		f.conversations.EXPECT().GetParticipant(private.ID, aliceRef.ID).Return(domain.Participant{IsActive: true}, nil)
		f.messages.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Times(0)
		f.directory.EXPECT().FindByID(ctx, aliceRef.ID).Return(aliceRef, nil)

		view, err := f.svc.MarkDelivered(ctx, aliceRef.ID, message.ID)
		req.NoError(err)
		req.Equal(domain.StatusSent, view.Status)
	})
}

func TestMessagingService_PageMessages_Access(t *testing.T) {
	ctx := context.Background()

	t.Run("non participant", func(t *testing.T) {
		f := newMessagingFixture(t)
		f.conversations.EXPECT().Get(team.ID).Return(team, nil)
		f.conversations.EXPECT().GetParticipant(team.ID, domain.UserID(9)).Return(domain.Participant{}, errors.ErrParticipantNotFound)
		f.messages.EXPECT().Page(gomock.Any()).Times(0)

		_, err := f.svc.PageMessages(ctx, 9, domain.PageRequest{ConversationID: team.ID})
		require.ErrorIs(t, err, errors.ErrNotParticipant)
	})

	t.Run("former participant pages until leaving", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		leftAt := sentAt.Add(time.Hour)
		f.conversations.EXPECT().Get(team.ID).Return(team, nil).Times(2)
		f.conversations.EXPECT().GetParticipant(team.ID, domain.UserID(3)).
			Return(domain.Participant{ConversationID: team.ID, UserID: 3, LeftAt: &leftAt}, nil).Times(2)
		f.messages.EXPECT().Page(domain.PageRequest{ConversationID: team.ID, Size: 20, SortField: "sentAt", SortDir: domain.Desc, Until: &leftAt}).
			Return(domain.NewPagedResult([]domain.Message{}, 0, 0, 20), nil)

		_, err := f.svc.PageMessages(ctx, 3, domain.PageRequest{ConversationID: team.ID})
		req.NoError(err)

		// But cannot follow the conversation anymore
		req.ErrorIs(f.svc.CheckAccess(ctx, 3, team.ID), errors.ErrInactiveParticipant)
	})

	t.Run("page too large", func(t *testing.T) {
		f := newMessagingFixture(t)
		_, err := f.svc.PageMessages(ctx, 1, domain.PageRequest{ConversationID: team.ID, Size: 101})
		require.ErrorIs(t, err, errors.ErrInvalidPage)
	})

	t.Run("defaults and views", func(t *testing.T) {
		req := require.New(t)
		f := newMessagingFixture(t)
		items := []domain.Message{
			textMessage(2, team.ID, bobRef.ID, "second"),
			textMessage(1, team.ID, bobRef.ID, "first"),
		}
		f.conversations.EXPECT().Get(team.ID).Return(team, nil)
		f.conversations.EXPECT().GetParticipant(team.ID, aliceRef.ID).Return(domain.Participant{IsActive: true}, nil)
		f.messages.EXPECT().Page(domain.PageRequest{ConversationID: team.ID, Size: 20, SortField: "sentAt", SortDir: domain.Desc}).
			Return(domain.NewPagedResult(items, 2, 0, 20), nil)
		f.messages.EXPECT().Attachments(gomock.Any()).Return(nil, nil).Times(2)
		// one lookup for both messages of bob
		f.directory.EXPECT().FindByID(ctx, bobRef.ID).Return(bobRef, nil).Times(1)

		page, err := f.svc.PageMessages(ctx, aliceRef.ID, domain.PageRequest{ConversationID: team.ID})
		req.NoError(err)
		req.Len(page.Items, 2)
		req.Equal("bob", page.Items[1].SenderUsername)
		req.Equal(2, page.TotalElements)
		req.False(page.HasNext)
	})
}

func TestMessagingService_ReportError(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	ctx := context.Background()

	f.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, evt event.DomainEvent) error {
		req.Equal(event.UserErrorTopic(aliceRef.ID), evt.Topic())
		req.True(evt.Topic().IsPrivate())
		errEvent := evt.(event.ErrorEvent)
		req.Equal(team.ID, errEvent.ConversationID)
		req.Equal("Failed to send typing indicator: "+errors.ErrEmptyTypingTarget.Error(), errEvent.Content)
		return nil
	})

	f.svc.ReportError(ctx, aliceRef.ID, team.ID, event.ActionTyping, errors.ErrEmptyTypingTarget)
}

func TestMessagingService_ListConversations(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	ctx := context.Background()

	f.conversations.EXPECT().ListForUser(aliceRef.ID).Return([]domain.Conversation{team, private}, nil)
	f.messages.EXPECT().CountUnread(team.ID, aliceRef.ID).Return(3, nil)
	f.messages.EXPECT().CountUnread(private.ID, aliceRef.ID).Return(0, nil)
	f.conversations.EXPECT().ListParticipants(private.ID, false).Return([]domain.Participant{
		{ConversationID: private.ID, UserID: aliceRef.ID},
		{ConversationID: private.ID, UserID: bobRef.ID},
	}, nil)
	f.directory.EXPECT().FindByID(ctx, bobRef.ID).Return(bobRef, nil)

	summaries, err := f.svc.ListConversations(ctx, aliceRef.ID)
	req.NoError(err)
	req.Len(summaries, 2)
	req.Equal("Team", summaries[0].Title)
	req.Equal(3, summaries[0].UnreadCount)
	req.Equal("bob", summaries[1].Title)
}

func TestMessagingService_SearchMessages(t *testing.T) {
	req := require.New(t)
	f := newMessagingFixture(t)
	ctx := context.Background()

	f.conversations.EXPECT().Get(team.ID).Return(team, nil)
	f.conversations.EXPECT().GetParticipant(team.ID, aliceRef.ID).Return(domain.Participant{IsActive: true}, nil)
	f.index.EXPECT().SearchPaginated(ctx, "deploy", team.ID, 0, 20).Return([]domain.MessageID{5, 6}, 2, nil)
	f.messages.EXPECT().Get(domain.MessageID(5)).Return(textMessage(5, team.ID, bobRef.ID, "deploy done"), nil)
	f.messages.EXPECT().Get(domain.MessageID(6)).Return(domain.Message{}, errors.ErrMessageNotFound)
	f.messages.EXPECT().Attachments(domain.MessageID(5)).Return(nil, nil)
	f.directory.EXPECT().FindByID(ctx, bobRef.ID).Return(bobRef, nil)

	page, err := f.svc.SearchMessages(ctx, aliceRef.ID, team.ID, "deploy", 0, 0)
	req.NoError(err)
	req.Len(page.Items, 1)
	req.Equal("deploy done", page.Items[0].Content)

	_, err = f.svc.SearchMessages(ctx, aliceRef.ID, team.ID, "  ", 0, 10)
	req.ErrorIs(err, errors.ErrValidation)
}
