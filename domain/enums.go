package domain

import (
	"chat-hub/domain/mimetypes"
	"chat-hub/errors"
	"fmt"
	"strings"
)

type ConversationType uint8

const (
	Private ConversationType = iota + 1
	Group
)

type Role uint8

const (
	RoleAdmin Role = iota + 1
	RoleModerator
	RoleMember
)

type NotificationSetting uint8

const (
	NotifyAll NotificationSetting = iota + 1
	NotifyMentions
	NotifyNone
)

type MessageType uint8

const (
	Text MessageType = iota + 1
	Image
	Video
	Document
	Audio
)

type MessageStatus uint8

const (
	StatusSent MessageStatus = iota + 1
	StatusDelivered
	StatusRead
)

var (
	conversationTypeNames = map[ConversationType]string{Private: "PRIVATE", Group: "GROUP"}
	roleNames             = map[Role]string{RoleAdmin: "ADMIN", RoleModerator: "MODERATOR", RoleMember: "MEMBER"}
	notificationNames     = map[NotificationSetting]string{NotifyAll: "ALL", NotifyMentions: "MENTIONS", NotifyNone: "NONE"}
	messageTypeNames      = map[MessageType]string{Text: "TEXT", Image: "IMAGE", Video: "VIDEO", Document: "DOCUMENT", Audio: "AUDIO"}
	statusNames           = map[MessageStatus]string{StatusSent: "SENT", StatusDelivered: "DELIVERED", StatusRead: "READ"}
)

// statusTransitions lists, for each status, every status it may advance to.
// Staying on the same status is always allowed and is a no-op for the stores.
var statusTransitions = map[MessageStatus][]MessageStatus{
	StatusSent:      {StatusDelivered, StatusRead},
	StatusDelivered: {StatusRead},
	StatusRead:      {},
}

type capabilities struct {
	manageMembers bool
	manageRoles   bool
}

var roleCapabilities = map[Role]capabilities{
	RoleAdmin:     {manageMembers: true, manageRoles: true},
	RoleModerator: {manageMembers: true},
	RoleMember:    {},
}

func enumName[T ~uint8](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(v))
}

func parseEnum[T ~uint8](names map[T]string, s string) (T, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for v, name := range names {
		if name == upper {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errors.ErrInvalidEnum, s)
}

func (t ConversationType) String() string { return enumName(conversationTypeNames, t) }
func (r Role) String() string { return enumName(roleNames, r) }
func (n NotificationSetting) String() string { return enumName(notificationNames, n) }
func (m MessageType) String() string { return enumName(messageTypeNames, m) }
func (s MessageStatus) String() string { return enumName(statusNames, s) }

func ParseConversationType(s string) (ConversationType, error) {
	return parseEnum(conversationTypeNames, s)
}
func ParseRole(s string) (Role, error) { return parseEnum(roleNames, s) }
func ParseNotificationSetting(s string) (NotificationSetting, error) {
	return parseEnum(notificationNames, s)
}
func ParseMessageType(s string) (MessageType, error) { return parseEnum(messageTypeNames, s) }
func ParseMessageStatus(s string) (MessageStatus, error) { return parseEnum(statusNames, s) }

func (t ConversationType) Valid() bool {
	_, ok := conversationTypeNames[t]
	return ok
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (n NotificationSetting) Valid() bool {
	_, ok := notificationNames[n]
	return ok
}

func (m MessageType) Valid() bool {
	_, ok := messageTypeNames[m]
	return ok
}

func (s MessageStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (t ConversationType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (n NotificationSetting) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}
func (m MessageType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (s MessageStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (t *ConversationType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseConversationType(string(b))
	return err
}
func (r *Role) UnmarshalText(b []byte) (err error) {
	*r, err = ParseRole(string(b))
	return err
}
func (n *NotificationSetting) UnmarshalText(b []byte) (err error) {
	*n, err = ParseNotificationSetting(string(b))
	return err
}
func (m *MessageType) UnmarshalText(b []byte) (err error) {
	*m, err = ParseMessageType(string(b))
	return err
}
func (s *MessageStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseMessageStatus(string(b))
	return err
}

// CanAdvanceTo reports whether a message in status s may move to next.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanManageMembers is true for roles allowed to add or remove group members.
func (r Role) CanManageMembers() bool { return roleCapabilities[r].manageMembers }

// CanManageRoles is true for roles allowed to promote or demote members.
func (r Role) CanManageRoles() bool { return roleCapabilities[r].manageRoles }

// MessageTypeFromMime maps a detected mime type to its message family.
// Anything that is not an image, a video or audio is a document.
func MessageTypeFromMime(mime string) MessageType {
	switch mimetypes.Base(mime).Family() {
	case "image":
		return Image
	case "video":
		return Video
	case "audio":
		return Audio
	default:
		return Document
	}
}
