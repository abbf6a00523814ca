//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"bytes"
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IConversationRepository interface {
	FindOrCreatePrivate(a, b domain.UserID) (domain.Conversation, bool, error)
	CreateGroup(name string, creator domain.UserID, members []domain.UserID) (domain.Conversation, error)
	AddParticipant(conversationID domain.ConversationID, userID, requester domain.UserID) (domain.Participant, error)
	RemoveParticipant(conversationID domain.ConversationID, userID, requester domain.UserID) error
	ChangeRole(conversationID domain.ConversationID, userID, requester domain.UserID, role domain.Role) (domain.Participant, error)
	MarkRead(conversationID domain.ConversationID, userID domain.UserID, messageID domain.MessageID) (bool, error)
	UpdateSettings(conversationID domain.ConversationID, userID domain.UserID, settings domain.ParticipantSettings) (domain.Participant, error)
	Get(id domain.ConversationID) (domain.Conversation, error)
	GetParticipant(conversationID domain.ConversationID, userID domain.UserID) (domain.Participant, error)
	ListParticipants(conversationID domain.ConversationID, activeOnly bool) ([]domain.Participant, error)
	ListForUser(userID domain.UserID) ([]domain.Conversation, error)
	SearchGroups(userID domain.UserID, name string, page, size int) (domain.PagedResult[domain.GroupSummary], error)
	IsActiveParticipant(conversationID domain.ConversationID, userID domain.UserID) (bool, error)
}

// ConversationRepository stores conversations and their participants in BadgerDB.
// Every mutation is a single optimistic transaction; the ones racing on the same keys
// are replayed by update until one of them wins.
type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
	now func() time.Time
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) (*ConversationRepository, error) {
	seq, err := db.GetSequence([]byte(conversationSequence), sequenceBandwidth)
	if err != nil {
		return nil, err
	}
	return &ConversationRepository{db: db, log: log, seq: seq, now: utcNow}, nil
}

// Close hands the unused part of the leased id range back to badger.
func (r *ConversationRepository) Close() error { return r.seq.Release() }

func utcNow() time.Time { return time.Now().UTC() }

// FindOrCreatePrivate returns the private conversation of a and b, creating it on first use.
// The pair key makes concurrent first sends converge on a single conversation:
// the losing transaction conflicts, is replayed and finds the winner's conversation.
func (r *ConversationRepository) FindOrCreatePrivate(a, b domain.UserID) (domain.Conversation, bool, error) {
	if a == b {
		return domain.Conversation{}, false, errors.ErrSelfConversation
	}
	pair := domain.NewPair(a, b)
	var conversation domain.Conversation
	var created bool
	err := update(r.db, func(txn *badger.Txn) error {
		created = false
		rawID, found, err := get(txn, pairKey(pair), rawValue)
		if err != nil {
			return err
		}
		now := r.now()
		if found {
			id, err := strconv.ParseInt(string(rawID), 10, 64)
			if err != nil {
				return fmt.Errorf("corrupted pair index: %w", err)
			}
			conversation, err = r.getConversation(txn, domain.ConversationID(id))
			if err != nil {
				return err
			}
			return r.reactivatePair(txn, &conversation, pair, now)
		}

		id, err := nextID(r.seq)
		if err != nil {
			return err
		}
		conversation = domain.Conversation{
			ID:        domain.ConversationID(id),
			Type:      domain.Private,
			CreatedBy: a,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := txn.Set(conversationKey(conversation.ID), encodeConversation(conversation)); err != nil {
			return err
		}
		if err := txn.Set(pairKey(pair), []byte(strconv.FormatInt(id, 10))); err != nil {
			return err
		}
		for _, userID := range []domain.UserID{pair.Low, pair.High} {
			if err := putParticipant(txn, domain.NewParticipant(conversation.ID, userID, domain.RoleMember, now)); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		return domain.Conversation{}, false, err
	}
	if created {
		r.log.Debug("Private conversation created", "conversation", conversation.ID, "low", pair.Low, "high", pair.High)
	}
	return conversation, created, nil
}

// reactivatePair brings back a member of a private conversation that was deactivated,
// so that the pair can always talk again.
func (r *ConversationRepository) reactivatePair(txn *badger.Txn, conversation *domain.Conversation, pair domain.Pair, now time.Time) error {
	touched := false
	for _, userID := range []domain.UserID{pair.Low, pair.High} {
		p, found, err := get(txn, participantKey(conversation.ID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		switch {
		case !found:
			p = domain.NewParticipant(conversation.ID, userID, domain.RoleMember, now)
		case !p.IsActive:
			p.Rejoin(domain.RoleMember, now)
		default:
			continue
		}
		if err := putParticipant(txn, p); err != nil {
			return err
		}
		touched = true
	}
	if !touched {
		return nil
	}
	conversation.UpdatedAt = now
	return txn.Set(conversationKey(conversation.ID), encodeConversation(*conversation))
}

// CreateGroup creates a group owned by creator. Duplicates and the creator are removed from members,
// which must still name at least one other user.
func (r *ConversationRepository) CreateGroup(name string, creator domain.UserID, members []domain.UserID) (domain.Conversation, error) {
	others := lo.Without(lo.Uniq(members), creator)
	if len(others) == 0 {
		return domain.Conversation{}, errors.ErrEmptyMembers
	}
	var conversation domain.Conversation
	err := update(r.db, func(txn *badger.Txn) error {
		id, err := nextID(r.seq)
		if err != nil {
			return err
		}
		now := r.now()
		conversation = domain.Conversation{
			ID:        domain.ConversationID(id),
			Type:      domain.Group,
			Name:      strings.TrimSpace(name),
			CreatedBy: creator,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := txn.Set(conversationKey(conversation.ID), encodeConversation(conversation)); err != nil {
			return err
		}
		if err := putParticipant(txn, domain.NewParticipant(conversation.ID, creator, domain.RoleAdmin, now)); err != nil {
			return err
		}
		for _, userID := range others {
			if err := putParticipant(txn, domain.NewParticipant(conversation.ID, userID, domain.RoleMember, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	r.log.Debug("Group created", "conversation", conversation.ID, "creator", creator, "members", len(others)+1)
	return conversation, nil
}

// AddParticipant adds userID to a group as MEMBER, or reactivates a former membership.
func (r *ConversationRepository) AddParticipant(conversationID domain.ConversationID, userID, requester domain.UserID) (domain.Participant, error) {
	var participant domain.Participant
	err := update(r.db, func(txn *badger.Txn) error {
		conversation, _, err := r.authorizeGroup(txn, conversationID, requester, domain.Role.CanManageMembers)
		if err != nil {
			return err
		}
		now := r.now()
		existing, found, err := get(txn, participantKey(conversationID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		switch {
		case found && existing.IsActive:
			return errors.ErrAlreadyParticipant
		case found:
			existing.Rejoin(domain.RoleMember, now)
			participant = existing
		default:
			participant = domain.NewParticipant(conversationID, userID, domain.RoleMember, now)
		}
		if err := putParticipant(txn, participant); err != nil {
			return err
		}
		return r.touch(txn, conversation, now)
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

// RemoveParticipant deactivates userID. Only admins can remove admins, and the last active admin stays.
func (r *ConversationRepository) RemoveParticipant(conversationID domain.ConversationID, userID, requester domain.UserID) error {
	return update(r.db, func(txn *badger.Txn) error {
		conversation, gate, err := r.authorizeGroup(txn, conversationID, requester, domain.Role.CanManageMembers)
		if err != nil {
			return err
		}
		target, found, err := get(txn, participantKey(conversationID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		if !found || !target.IsActive {
			return errors.ErrParticipantNotFound
		}
		if target.Role == domain.RoleAdmin {
			if !gate.Role.CanManageRoles() {
				return errors.ErrNotAdmin
			}
			if err := r.ensureOtherAdmin(txn, conversationID, userID); err != nil {
				return err
			}
		}
		now := r.now()
		target.Leave(now)
		if err := putParticipant(txn, target); err != nil {
			return err
		}
		return r.touch(txn, conversation, now)
	})
}

// ChangeRole sets the role of an active member. Only admins can do it.
func (r *ConversationRepository) ChangeRole(conversationID domain.ConversationID, userID, requester domain.UserID, role domain.Role) (domain.Participant, error) {
	if !role.Valid() {
		return domain.Participant{}, errors.ErrInvalidEnum
	}
	var participant domain.Participant
	err := update(r.db, func(txn *badger.Txn) error {
		conversation, _, err := r.authorizeGroup(txn, conversationID, requester, domain.Role.CanManageRoles)
		if err != nil {
			return err
		}
		target, found, err := get(txn, participantKey(conversationID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		if !found || !target.IsActive {
			return errors.ErrParticipantNotFound
		}
		if target.Role == domain.RoleAdmin && role != domain.RoleAdmin {
			if err := r.ensureOtherAdmin(txn, conversationID, userID); err != nil {
				return err
			}
		}
		target.Role = role
		participant = target
		if err := putParticipant(txn, target); err != nil {
			return err
		}
		return r.touch(txn, conversation, r.now())
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

// authorizeGroup loads a group and the requester's membership, and checks the requester's role with allowed.
func (r *ConversationRepository) authorizeGroup(txn *badger.Txn, conversationID domain.ConversationID, requester domain.UserID, allowed func(domain.Role) bool) (domain.Conversation, domain.Participant, error) {
	conversation, err := r.getConversation(txn, conversationID)
	if err != nil {
		return domain.Conversation{}, domain.Participant{}, err
	}
	if !conversation.IsGroup() {
		return domain.Conversation{}, domain.Participant{}, errors.ErrGroupNotFound
	}
	gate, found, err := get(txn, participantKey(conversationID, requester), decodeParticipant)
	if err != nil {
		return domain.Conversation{}, domain.Participant{}, err
	}
	if !found || !gate.IsActive || !allowed(gate.Role) {
		return domain.Conversation{}, domain.Participant{}, errors.ErrNotAdmin
	}
	return conversation, gate, nil
}

func (r *ConversationRepository) ensureOtherAdmin(txn *badger.Txn, conversationID domain.ConversationID, userID domain.UserID) error {
	others := 0
	err := scan(txn, participantPrefix(conversationID), false, decodeParticipant, func(_ []byte, p domain.Participant) (bool, error) {
		if p.UserID != userID && p.IsActiveAdmin() {
			others++
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	if others == 0 {
		return errors.ErrLastAdmin
	}
	return nil
}

// MarkRead moves the read pointer of userID forward to messageID. It never moves it back:
// advanced is false when messageID is not after the current pointer.
// In private conversations the other member's messages up to the pointer become READ.
func (r *ConversationRepository) MarkRead(conversationID domain.ConversationID, userID domain.UserID, messageID domain.MessageID) (bool, error) {
	var advanced bool
	err := update(r.db, func(txn *badger.Txn) error {
		advanced = false
		conversation, err := r.getConversation(txn, conversationID)
		if err != nil {
			return err
		}
		participant, found, err := get(txn, participantKey(conversationID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrParticipantNotFound
		}
		if !participant.IsActive {
			return errors.ErrInactiveParticipant
		}
		target, err := messageKeyInConversation(txn, conversationID, messageID)
		if err != nil {
			return err
		}
		var from []byte
		if participant.LastReadMessageID != nil {
			from, err = messageKeyInConversation(txn, conversationID, *participant.LastReadMessageID)
			if err != nil {
				return err
			}
			if bytes.Compare(target, from) <= 0 {
				return nil
			}
		}

		now := r.now()
		participant.LastReadMessageID = &messageID
		participant.LastReadAt = &now
		if err := putParticipant(txn, participant); err != nil {
			return err
		}
		advanced = true
		if conversation.IsGroup() {
			return nil
		}
		return promoteToRead(txn, conversationID, userID, from, target)
	})
	return advanced, err
}

// promoteToRead marks the messages of other senders in (from, to] as READ.
func promoteToRead(txn *badger.Txn, conversationID domain.ConversationID, reader domain.UserID, from, to []byte) error {
	var changed []domain.Message
	err := scan(txn, messagePrefix(conversationID), false, decodeMessage, func(key []byte, m domain.Message) (bool, error) {
		if bytes.Compare(key, to) > 0 {
			return false, nil
		}
		if from != nil && bytes.Compare(key, from) <= 0 {
			return true, nil
		}
		if m.SenderID != reader && !m.IsDeleted && m.Status != domain.StatusRead {
			m.Status = domain.StatusRead
			changed = append(changed, m)
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	for _, m := range changed {
		if err := txn.Set(messageKey(m), encodeMessage(m)); err != nil {
			return err
		}
	}
	return nil
}

func (r *ConversationRepository) UpdateSettings(conversationID domain.ConversationID, userID domain.UserID, settings domain.ParticipantSettings) (domain.Participant, error) {
	if settings.NotificationSetting != 0 && !settings.NotificationSetting.Valid() {
		return domain.Participant{}, errors.ErrInvalidEnum
	}
	var participant domain.Participant
	err := update(r.db, func(txn *badger.Txn) error {
		p, found, err := get(txn, participantKey(conversationID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		if !found || !p.IsActive {
			return errors.ErrParticipantNotFound
		}
		p.IsMuted = settings.IsMuted
		p.MutedUntil = settings.MutedUntil
		if !settings.IsMuted {
			p.MutedUntil = nil
		}
		if settings.NotificationSetting != 0 {
			p.NotificationSetting = settings.NotificationSetting
		}
		participant = p
		return putParticipant(txn, p)
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

func (r *ConversationRepository) Get(id domain.ConversationID) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		conversation, err = r.getConversation(txn, id)
		return err
	})
	return conversation, err
}

func (r *ConversationRepository) GetParticipant(conversationID domain.ConversationID, userID domain.UserID) (domain.Participant, error) {
	var participant domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		p, found, err := get(txn, participantKey(conversationID, userID), decodeParticipant)
		if err != nil {
			return err
		}
		if !found {
			return errors.ErrParticipantNotFound
		}
		participant = p
		return nil
	})
	return participant, err
}

func (r *ConversationRepository) ListParticipants(conversationID domain.ConversationID, activeOnly bool) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		if _, err := r.getConversation(txn, conversationID); err != nil {
			return err
		}
		return scan(txn, participantPrefix(conversationID), false, decodeParticipant, func(_ []byte, p domain.Participant) (bool, error) {
			if p.IsActive || !activeOnly {
				participants = append(participants, p)
			}
			return true, nil
		})
	})
	return participants, err
}

// ListForUser returns the conversations userID is an active member of, most recently updated first.
func (r *ConversationRepository) ListForUser(userID domain.UserID) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		conversations, err = r.activeConversations(txn, userID)
		return err
	})
	return conversations, err
}

// SearchGroups pages the groups of userID whose name contains name, ignoring case.
// A blank name matches every group. Most recently updated groups come first.
func (r *ConversationRepository) SearchGroups(userID domain.UserID, name string, page, size int) (domain.PagedResult[domain.GroupSummary], error) {
	if page < 0 || size < 1 {
		return domain.PagedResult[domain.GroupSummary]{}, errors.ErrInvalidPage
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	var (
		items []domain.GroupSummary
		total int
	)
	err := r.db.View(func(txn *badger.Txn) error {
		conversations, err := r.activeConversations(txn, userID)
		if err != nil {
			return err
		}
		groups := lo.Filter(conversations, func(c domain.Conversation, _ int) bool {
			return c.IsGroup() && strings.Contains(strings.ToLower(c.Name), needle)
		})
		total = len(groups)
		for _, group := range lo.Slice(groups, page*size, (page+1)*size) {
			members, err := countActiveMembers(txn, group.ID)
			if err != nil {
				return err
			}
			items = append(items, domain.GroupSummary{Conversation: group, MemberCount: members})
		}
		return nil
	})
	if err != nil {
		return domain.PagedResult[domain.GroupSummary]{}, err
	}
	return domain.NewPagedResult(items, total, page, size), nil
}

// activeConversations follows the membership index of userID, most recently updated first.
func (r *ConversationRepository) activeConversations(txn *badger.Txn, userID domain.UserID) ([]domain.Conversation, error) {
	prefix := membershipPrefix(userID)
	var ids []domain.ConversationID
	err := scan(txn, prefix, false, rawValue, func(key []byte, _ []byte) (bool, error) {
		id, err := strconv.ParseInt(string(key[len(prefix):]), 10, 64)
		if err != nil {
			return false, fmt.Errorf("corrupted membership index: %w", err)
		}
		ids = append(ids, domain.ConversationID(id))
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	var conversations []domain.Conversation
	for _, id := range ids {
		p, found, err := get(txn, participantKey(id, userID), decodeParticipant)
		if err != nil {
			return nil, err
		}
		if !found || !p.IsActive {
			continue
		}
		conversation, err := r.getConversation(txn, id)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func countActiveMembers(txn *badger.Txn, conversationID domain.ConversationID) (int, error) {
	count := 0
	err := scan(txn, participantPrefix(conversationID), false, decodeParticipant, func(_ []byte, p domain.Participant) (bool, error) {
		if p.IsActive {
			count++
		}
		return true, nil
	})
	return count, err
}

func (r *ConversationRepository) IsActiveParticipant(conversationID domain.ConversationID, userID domain.UserID) (bool, error) {
	p, err := r.GetParticipant(conversationID, userID)
	if errors.Is(err, errors.ErrParticipantNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsActive, nil
}

func (r *ConversationRepository) getConversation(txn *badger.Txn, id domain.ConversationID) (domain.Conversation, error) {
	conversation, found, err := get(txn, conversationKey(id), decodeConversation)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !found {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	return conversation, nil
}

func (r *ConversationRepository) touch(txn *badger.Txn, conversation domain.Conversation, at time.Time) error {
	if at.After(conversation.UpdatedAt) {
		conversation.UpdatedAt = at
	}
	return txn.Set(conversationKey(conversation.ID), encodeConversation(conversation))
}

// putParticipant writes the membership row and its reverse index.
func putParticipant(txn *badger.Txn, p domain.Participant) error {
	if err := txn.Set(participantKey(p.ConversationID, p.UserID), encodeParticipant(p)); err != nil {
		return err
	}
	return txn.Set(membershipKey(p.UserID, p.ConversationID), nil)
}

// messageKeyInConversation resolves a message id to its log key, checking it belongs to conversationID.
func messageKeyInConversation(txn *badger.Txn, conversationID domain.ConversationID, id domain.MessageID) ([]byte, error) {
	key, found, err := get(txn, messageIDKey(id), rawValue)
	if err != nil {
		return nil, err
	}
	if !found || !bytes.HasPrefix(key, messagePrefix(conversationID)) {
		return nil, errors.ErrMessageNotFound
	}
	return key, nil
}
