//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/servicemocks/mock_group_service.go -package=servicemocks
package services

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"context"
	"log/slog"

	"github.com/samber/lo"
)

type IGroupService interface {
	CreateGroup(ctx context.Context, cmd domain.CreateGroupCommand) (domain.Conversation, error)
	AddParticipant(ctx context.Context, conversationID domain.ConversationID, userID, requester domain.UserID) (domain.Participant, error)
	RemoveParticipant(ctx context.Context, conversationID domain.ConversationID, userID, requester domain.UserID) error
	ChangeRole(ctx context.Context, conversationID domain.ConversationID, userID, requester domain.UserID, role domain.Role) (domain.Participant, error)
	ListParticipants(ctx context.Context, conversationID domain.ConversationID, requester domain.UserID) ([]ParticipantView, error)
	SearchGroups(ctx context.Context, userID domain.UserID, name string, page, size int) (domain.PagedResult[domain.GroupSummary], error)
}

const (
	defaultGroupPageSize = 20
	maxGroupPageSize     = 100
)

// ParticipantView is a participant with the username resolved from the directory.
type ParticipantView struct {
	domain.Participant
	Username    string
	DisplayName string
	IsOnline    bool
}

// GroupService administers group conversations. Authorization is enforced by the store,
// in the same transaction as the mutation; this layer checks users exist.
type GroupService struct {
	conversations repositories.IConversationRepository
	directory     contract.IdentityDirectory
	log           *slog.Logger
}

func NewGroupService(conversations repositories.IConversationRepository, directory contract.IdentityDirectory, log *slog.Logger) *GroupService {
	return &GroupService{conversations: conversations, directory: directory, log: log}
}

// CreateGroup creates a group where the creator is ADMIN and every member is MEMBER.
// All members must be active users of the directory.
func (g *GroupService) CreateGroup(ctx context.Context, cmd domain.CreateGroupCommand) (domain.Conversation, error) {
	members := lo.Uniq(lo.Without(cmd.MemberIDs, cmd.CreatorID))
	if len(members) == 0 {
		return domain.Conversation{}, errors.ErrEmptyMembers
	}
	if err := validateStruct(cmd); err != nil {
		return domain.Conversation{}, err
	}
	if _, err := g.activeUser(ctx, cmd.CreatorID); err != nil {
		return domain.Conversation{}, err
	}
	for _, id := range members {
		if _, err := g.activeUser(ctx, id); err != nil {
			if errors.Is(err, errors.ErrUserNotFound) {
				return domain.Conversation{}, errors.ErrUnknownMembers
			}
			return domain.Conversation{}, err
		}
	}

	group, err := g.conversations.CreateGroup(cmd.Name, cmd.CreatorID, members)
	if err != nil {
		return domain.Conversation{}, err
	}
	g.log.Info("Group created", "conversation", group.ID, "creator", cmd.CreatorID, "members", len(members))
	return group, nil
}

func (g *GroupService) AddParticipant(ctx context.Context, conversationID domain.ConversationID, userID, requester domain.UserID) (domain.Participant, error) {
	if _, err := g.activeUser(ctx, userID); err != nil {
		return domain.Participant{}, err
	}
	participant, err := g.conversations.AddParticipant(conversationID, userID, requester)
	if err != nil {
		return domain.Participant{}, err
	}
	g.log.Debug("Participant added", "conversation", conversationID, "user", userID, "by", requester)
	return participant, nil
}

func (g *GroupService) RemoveParticipant(_ context.Context, conversationID domain.ConversationID, userID, requester domain.UserID) error {
	if err := g.conversations.RemoveParticipant(conversationID, userID, requester); err != nil {
		return err
	}
	g.log.Debug("Participant removed", "conversation", conversationID, "user", userID, "by", requester)
	return nil
}

func (g *GroupService) ChangeRole(_ context.Context, conversationID domain.ConversationID, userID, requester domain.UserID, role domain.Role) (domain.Participant, error) {
	return g.conversations.ChangeRole(conversationID, userID, requester, role)
}

// ListParticipants lists the active participants, for a requester who is one of them.
func (g *GroupService) ListParticipants(ctx context.Context, conversationID domain.ConversationID, requester domain.UserID) ([]ParticipantView, error) {
	active, err := g.conversations.IsActiveParticipant(conversationID, requester)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.ErrNotParticipant
	}
	participants, err := g.conversations.ListParticipants(conversationID, true)
	if err != nil {
		return nil, err
	}
	return lo.Map(participants, func(p domain.Participant, _ int) ParticipantView {
		view := ParticipantView{Participant: p, Username: domain.UnknownUsername}
		if user, err := g.directory.FindByID(ctx, p.UserID); err == nil {
			view.Username, view.DisplayName, view.IsOnline = user.Username, user.DisplayName, user.IsOnline
		}
		return view
	}), nil
}

// SearchGroups finds the caller's groups by name. size 0 means the default page size.
func (g *GroupService) SearchGroups(_ context.Context, userID domain.UserID, name string, page, size int) (domain.PagedResult[domain.GroupSummary], error) {
	if size == 0 {
		size = defaultGroupPageSize
	}
	if size > maxGroupPageSize {
		return domain.PagedResult[domain.GroupSummary]{}, errors.ErrInvalidPage
	}
	return g.conversations.SearchGroups(userID, name, page, size)
}

func (g *GroupService) activeUser(ctx context.Context, id domain.UserID) (domain.UserRef, error) {
	user, err := g.directory.FindByID(ctx, id)
	if err != nil {
		return domain.UserRef{}, err
	}
	if !user.IsActive {
		return domain.UserRef{}, errors.ErrUserNotFound
	}
	return user, nil
}
