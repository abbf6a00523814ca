package services

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/storage"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event, or fails every publication when broken is set.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
	broken bool
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.broken {
		return errors.ErrBusFull
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Events() []event.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.DomainEvent(nil), p.events...)
}

type stack struct {
	conversations *repositories.ConversationRepository
	messages      *repositories.MessageRepository
	users         *repositories.UserRepository
	publisher     *recordingPublisher
	messaging     *MessagingService
	groups        *GroupService
}

func newStack(t *testing.T) *stack {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)

	conversations, err := repositories.NewConversationRepository(db, log)
	require.NoError(t, err)
	messages, err := repositories.NewMessageRepository(db, log)
	require.NoError(t, err)
	users, err := repositories.NewUserRepository(db)
	require.NoError(t, err)
	disk, err := storage.NewDiskStorage(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conversations.Close()
		_ = messages.Close()
		_ = users.Close()
		_ = writer.Close()
		_ = db.Close()
	})

	publisher := &recordingPublisher{}
	config := MessagingConfig{AutoJoin: true, MaxContentLength: 2000, MaxUploadSize: 1 << 20, DefaultPageSize: 20, MaxPageSize: 100}
	return &stack{
		conversations: conversations,
		messages:      messages,
		users:         users,
		publisher:     publisher,
		messaging: NewMessagingService(conversations, messages, repositories.NewMessageIndex(writer, log),
			users, disk, publisher, config, log),
		groups: NewGroupService(conversations, users, log),
	}
}

func (s *stack) user(t *testing.T, username string) domain.UserRef {
	user, err := s.users.CreateUser(username, username)
	require.NoError(t, err)
	return user
}

func TestScenario_First_Contact(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	alice, bob := s.user(t, "alice"), s.user(t, "bob")

	// When alice sends hi to the new user bob
	view, err := s.messaging.SendDirect(ctx, domain.SendDirectCommand{SenderID: alice.ID, RecipientUsername: "bob", Content: "hi"})
	req.NoError(err)

	// Then exactly one private conversation exists, holding one SENT message
	aliceConversations, err := s.conversations.ListForUser(alice.ID)
	req.NoError(err)
	req.Len(aliceConversations, 1)
	req.Equal(domain.Private, aliceConversations[0].Type)
	req.Equal(view.ConversationID, aliceConversations[0].ID)

	page, err := s.messaging.PageMessages(ctx, bob.ID, domain.PageRequest{ConversationID: view.ConversationID})
	req.NoError(err)
	req.Len(page.Items, 1)
	req.Equal(domain.StatusSent, page.Items[0].Status)
	req.Equal("alice", page.Items[0].SenderUsername)

	bobUnread, err := s.messaging.CountUnread(ctx, bob.ID, view.ConversationID)
	req.NoError(err)
	req.Equal(1, bobUnread)
	aliceUnread, err := s.messaging.CountUnread(ctx, alice.ID, view.ConversationID)
	req.NoError(err)
	req.Equal(0, aliceUnread)

	// And subscribers of the conversation were told
	events := s.publisher.Events()
	req.Len(events, 1)
	req.Equal(event.ConversationTopic(view.ConversationID), events[0].Topic())
}

func TestScenario_Direct_Conversation_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	alice, bob := s.user(t, "alice"), s.user(t, "bob")

	first, err := s.messaging.CreateOrFetchDirectConversation(ctx, alice.ID, bob.ID)
	req.NoError(err)
	second, err := s.messaging.CreateOrFetchDirectConversation(ctx, bob.ID, alice.ID)
	req.NoError(err)
	req.Equal(first.ID, second.ID)

	_, err = s.messaging.CreateOrFetchDirectConversation(ctx, alice.ID, 999)
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestScenario_Concurrent_First_Contact(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	alice, bob := s.user(t, "alice"), s.user(t, "bob")

	// When alice and bob write to each other at the same time, several times
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.messaging.SendDirect(ctx, domain.SendDirectCommand{SenderID: alice.ID, RecipientUsername: "bob", Content: "hi bob"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.messaging.SendDirect(ctx, domain.SendDirectCommand{SenderID: bob.ID, RecipientUsername: "alice", Content: "hi alice"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then a single private conversation holds all twenty messages
	conversations, err := s.conversations.ListForUser(bob.ID)
	req.NoError(err)
	req.Len(conversations, 1)
	page, err := s.messaging.PageMessages(ctx, alice.ID, domain.PageRequest{ConversationID: conversations[0].ID, Size: 100})
	req.NoError(err)
	req.Equal(20, page.TotalElements)
}

func TestScenario_Team_Group(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	u1, u2, u3, u4 := s.user(t, "u1"), s.user(t, "u2"), s.user(t, "u3"), s.user(t, "u4")

	// Given group "Team" created by user 1 with members 2 and 3
	group, err := s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: u1.ID, Name: "Team", MemberIDs: []domain.UserID{u2.ID, u3.ID}})
	req.NoError(err)

	participants, err := s.groups.ListParticipants(ctx, group.ID, u1.ID)
	req.NoError(err)
	roles := map[domain.UserID]domain.Role{}
	for _, p := range participants {
		roles[p.UserID] = p.Role
	}
	req.Equal(map[domain.UserID]domain.Role{u1.ID: domain.RoleAdmin, u2.ID: domain.RoleMember, u3.ID: domain.RoleMember}, roles)

	// When user 2 tries to add user 4
	_, err = s.groups.AddParticipant(ctx, group.ID, u4.ID, u2.ID)

	// Then it is refused and membership is unchanged
	req.ErrorIs(err, errors.ErrPermission)
	after, err := s.groups.ListParticipants(ctx, group.ID, u1.ID)
	req.NoError(err)
	req.Len(after, 3)

	// Unknown members are refused at creation
	_, err = s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: u1.ID, Name: "Ghosts", MemberIDs: []domain.UserID{u2.ID, 999}})
	req.ErrorIs(err, errors.ErrUnknownMembers)
	_, err = s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: u1.ID, Name: "Alone", MemberIDs: []domain.UserID{u1.ID}})
	req.ErrorIs(err, errors.ErrEmptyMembers)
}

func TestScenario_Search_Groups(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	u1, u2, u3 := s.user(t, "u1"), s.user(t, "u2"), s.user(t, "u3")

	_, err := s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: u1.ID, Name: "Release crew", MemberIDs: []domain.UserID{u2.ID, u3.ID}})
	req.NoError(err)
	_, err = s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: u2.ID, Name: "Board games", MemberIDs: []domain.UserID{u3.ID}})
	req.NoError(err)

	// When user 3 searches without a page size
	page, err := s.groups.SearchGroups(ctx, u3.ID, "crew", 0, 0)

	// Then the default size applies and only the matching group is listed
	req.NoError(err)
	req.Equal(20, page.Size)
	req.Len(page.Items, 1)
	req.Equal("Release crew", page.Items[0].Name)
	req.Equal(3, page.Items[0].MemberCount)

	// User 1 is not in "Board games"
	page, err = s.groups.SearchGroups(ctx, u1.ID, "", 0, 10)
	req.NoError(err)
	req.Equal(1, page.TotalElements)

	_, err = s.groups.SearchGroups(ctx, u1.ID, "", 0, 101)
	req.ErrorIs(err, errors.ErrInvalidPage)
}

func TestScenario_Removed_Member_Cannot_Send(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	admin, member := s.user(t, "admin"), s.user(t, "member")

	group, err := s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: admin.ID, Name: "Ops", MemberIDs: []domain.UserID{member.ID}})
	req.NoError(err)
	req.NoError(s.groups.RemoveParticipant(ctx, group.ID, member.ID, admin.ID))

	_, err = s.messaging.SendToConversation(ctx, domain.SendCommand{SenderID: member.ID, ConversationID: group.ID, Content: "still here?"})
	req.ErrorIs(err, errors.ErrSecurity)

	page, err := s.messaging.PageMessages(ctx, admin.ID, domain.PageRequest{ConversationID: group.ID, IncludeDeleted: true})
	req.NoError(err)
	req.Zero(page.TotalElements)
	req.Empty(s.publisher.Events())
}

func TestScenario_Former_Member_Keeps_Only_Past_History(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	u1, u2, u3 := s.user(t, "u1"), s.user(t, "u2"), s.user(t, "u3")

	group, err := s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: u1.ID, Name: "Team", MemberIDs: []domain.UserID{u2.ID, u3.ID}})
	req.NoError(err)
	before, err := s.messaging.SendToConversation(ctx, domain.SendCommand{SenderID: u1.ID, ConversationID: group.ID, Content: "welcome", Type: domain.Text})
	req.NoError(err)
	req.NoError(s.groups.RemoveParticipant(ctx, group.ID, u3.ID, u1.ID))
	_, err = s.messaging.SendToConversation(ctx, domain.SendCommand{SenderID: u1.ID, ConversationID: group.ID, Content: "secret after removal", Type: domain.Text})
	req.NoError(err)

	// The removed member can no longer follow the conversation live
	req.ErrorIs(s.messaging.CheckAccess(ctx, u3.ID, group.ID), errors.ErrInactiveParticipant)
	req.NoError(s.messaging.CheckAccess(ctx, u2.ID, group.ID))

	// Nor move the read pointer
	_, err = s.messaging.MarkRead(ctx, u3.ID, group.ID, before.ID)
	req.ErrorIs(err, errors.ErrSecurity)

	// History stops at the removal
	page, err := s.messaging.PageMessages(ctx, u3.ID, domain.PageRequest{ConversationID: group.ID})
	req.NoError(err)
	req.Equal(1, page.TotalElements)
	req.Equal("welcome", page.Items[0].Content)

	// Current members see everything
	page, err = s.messaging.PageMessages(ctx, u2.ID, domain.PageRequest{ConversationID: group.ID})
	req.NoError(err)
	req.Equal(2, page.TotalElements)
	req.Equal("secret after removal", page.Items[0].Content)
}

func TestScenario_Auto_Join_On_First_Send(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	admin, member, stranger := s.user(t, "admin"), s.user(t, "member"), s.user(t, "stranger")

	group, err := s.groups.CreateGroup(ctx, domain.CreateGroupCommand{CreatorID: admin.ID, Name: "Open", MemberIDs: []domain.UserID{member.ID}})
	req.NoError(err)

	_, err = s.messaging.SendToConversation(ctx, domain.SendCommand{SenderID: stranger.ID, ConversationID: group.ID, Content: "hello all"})
	req.NoError(err)

	participant, err := s.conversations.GetParticipant(group.ID, stranger.ID)
	req.NoError(err)
	req.True(participant.IsActive)
	req.Equal(domain.RoleMember, participant.Role)

	// With the policy off, strangers are refused
	s.messaging.config.AutoJoin = false
	outsider := s.user(t, "outsider")
	_, err = s.messaging.SendToConversation(ctx, domain.SendCommand{SenderID: outsider.ID, ConversationID: group.ID, Content: "hello?"})
	req.ErrorIs(err, errors.ErrNotParticipant)
}

func TestScenario_Unread_And_Read(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	alice, bob := s.user(t, "alice"), s.user(t, "bob")

	var last domain.MessageView
	for i := 0; i < 5; i++ {
		view, err := s.messaging.SendDirect(ctx, domain.SendDirectCommand{SenderID: alice.ID, RecipientUsername: "bob", Content: "ping"})
		req.NoError(err)
		last = view
	}
	unread, err := s.messaging.CountUnread(ctx, bob.ID, last.ConversationID)
	req.NoError(err)
	req.Equal(5, unread)

	advanced, err := s.messaging.MarkRead(ctx, bob.ID, last.ConversationID, last.ID)
	req.NoError(err)
	req.True(advanced)
	unread, err = s.messaging.CountUnread(ctx, bob.ID, last.ConversationID)
	req.NoError(err)
	req.Zero(unread)

	// A read receipt went to the conversation
	events := s.publisher.Events()
	receipt, ok := events[len(events)-1].(event.MessageEvent)
	req.True(ok)
	req.Equal(last.ID, receipt.ID)
	req.Equal(domain.StatusRead, receipt.Status)
}

func TestScenario_Publish_Failure_Keeps_Message(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	s.publisher.broken = true
	ctx := context.Background()
	alice := s.user(t, "alice")
	s.user(t, "bob")

	view, err := s.messaging.SendDirect(ctx, domain.SendDirectCommand{SenderID: alice.ID, RecipientUsername: "bob", Content: "are you there"})
	req.NoError(err)

	stored, err := s.messages.Get(view.ID)
	req.NoError(err)
	req.Equal("are you there", stored.Content)
}

func TestScenario_Deleted_Message_Keeps_Its_Place(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	alice, bob := s.user(t, "alice"), s.user(t, "bob")

	sent, err := s.messaging.SendDirect(ctx, domain.SendDirectCommand{SenderID: alice.ID, RecipientUsername: "bob", Content: "oops wrong chat"})
	req.NoError(err)
	_, err = s.messaging.DeleteMessage(ctx, bob.ID, sent.ID)
	req.ErrorIs(err, errors.ErrNotMessageOwner)
	_, err = s.messaging.DeleteMessage(ctx, alice.ID, sent.ID)
	req.NoError(err)

	page, err := s.messaging.PageMessages(ctx, bob.ID, domain.PageRequest{ConversationID: sent.ConversationID, IncludeDeleted: true})
	req.NoError(err)
	req.Len(page.Items, 1)
	row := page.Items[0]
	req.True(row.IsDeleted)
	req.Empty(row.Content)
	req.Equal(sent.SentAt, row.SentAt)
	req.Equal(alice.ID, row.SenderID)
	req.Equal(domain.Text, row.Type)

	// And the search index forgot it
	found, err := s.messaging.SearchMessages(ctx, bob.ID, sent.ConversationID, "wrong", 0, 10)
	req.NoError(err)
	req.Empty(found.Items)
}

func TestScenario_Attachment_Round_Trip(t *testing.T) {
	req := require.New(t)
	s := newStack(t)
	ctx := context.Background()
	alice := s.user(t, "alice")
	s.user(t, "bob")

	pdf := []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n")
	view, err := s.messaging.SendDirectWithAttachment(ctx,
		domain.SendDirectCommand{SenderID: alice.ID, RecipientUsername: "bob", Content: "the contract"},
		domain.Upload{FileName: "contract.pdf", Data: pdf})
	req.NoError(err)
	req.Equal(domain.Document, view.Type)
	req.Len(view.Attachments, 1)
	req.Equal("application/pdf", view.Attachments[0].MimeType)

	documents, err := s.messaging.AttachmentsByConversation(ctx, alice.ID, view.ConversationID, domain.Document)
	req.NoError(err)
	req.Len(documents, 1)
	images, err := s.messaging.AttachmentsByConversation(ctx, alice.ID, view.ConversationID, domain.Image)
	req.NoError(err)
	req.Empty(images)
}
