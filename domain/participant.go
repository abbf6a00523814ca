// Package domain contains core concepts of the messaging system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is a user's membership record in a conversation.
// (ConversationID, UserID) is unique: leaving deactivates the row and joining again reactivates it.
type Participant struct {
	ConversationID      ConversationID
	UserID              UserID
	Role                Role
	IsActive            bool
	JoinedAt            time.Time
	LeftAt              *time.Time
	LastReadMessageID   *MessageID
	LastReadAt          *time.Time
	IsMuted             bool
	MutedUntil          *time.Time
	NotificationSetting NotificationSetting
}

func NewParticipant(conversationID ConversationID, userID UserID, role Role, at time.Time) Participant {
	return Participant{
		ConversationID:      conversationID,
		UserID:              userID,
		Role:                role,
		IsActive:            true,
		JoinedAt:            at,
		NotificationSetting: NotifyAll,
	}
}

// Leave soft-deactivates the membership.
func (p *Participant) Leave(at time.Time) {
	p.IsActive = false
	p.LeftAt = &at
}

// Rejoin reactivates a former membership with a fresh role and join date.
func (p *Participant) Rejoin(role Role, at time.Time) {
	p.IsActive = true
	p.Role = role
	p.JoinedAt = at
	p.LeftAt = nil
}

// CanManageMembers is true when the participant may add or remove members right now.
func (p Participant) CanManageMembers() bool {
	return p.IsActive && p.Role.CanManageMembers()
}

func (p Participant) IsActiveAdmin() bool {
	return p.IsActive && p.Role == RoleAdmin
}

// MutedAt reports whether notifications are muted at the given instant.
func (p Participant) MutedAt(at time.Time) bool {
	if !p.IsMuted {
		return false
	}
	return p.MutedUntil == nil || at.Before(*p.MutedUntil)
}
