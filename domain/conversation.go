// Package domain contains core concepts of the messaging system.
// Entities reference each other by id only; relations are resolved by store queries.
package domain

import "time"

type ConversationID int64

type UserID int64

// Conversation is a channel with an ordered message history and a participant set.
type Conversation struct {
	ID        ConversationID
	Type      ConversationType
	Name      string // GROUP only
	CreatedBy UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Conversation) IsGroup() bool { return c.Type == Group }

// GroupSummary is a group found by name, with its number of active members.
type GroupSummary struct {
	Conversation
	MemberCount int
}

// Pair is an unordered pair of users, normalised so that Low <= High.
type Pair struct {
	Low  UserID
	High UserID
}

func NewPair(a, b UserID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}
