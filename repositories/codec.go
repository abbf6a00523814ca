package repositories

import (
	"chat-hub/domain"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are stored as protobuf wire messages. Field numbers are part of the on-disk format:
//
//	Conversation { 1 id, 2 type, 3 name, 4 created_by, 5 created_at, 6 updated_at }
//	Participant  { 1 conversation_id, 2 user_id, 3 role, 4 active, 5 joined_at, 6 left_at,
//	               7 last_read_message_id, 8 last_read_at, 9 muted, 10 muted_until, 11 notification }
//	Message      { 1 id, 2 conversation_id, 3 sender_id, 4 content, 5 type, 6 sent_at, 7 deleted,
//	               8 edited, 9 edited_at, 10 status, 11 reply_to }
//	Attachment   { 1 id, 2 message_id, 3 file_name, 4 file_path, 5 file_size, 6 mime_type,
//	               7 uploaded_at, 8 width, 9 height, 10 duration }
//	User         { 1 id, 2 username, 3 display_name, 4 active, 5 online }
//
// Times are unix nanoseconds. Optional fields are omitted when nil.

type encoder struct {
	b []byte
}

func (e *encoder) varint(num protowire.Number, v uint64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) int(num protowire.Number, v int64) {
	if v != 0 {
		e.varint(num, uint64(v))
	}
}

func (e *encoder) optInt(num protowire.Number, v *int64) {
	if v != nil {
		e.varint(num, uint64(*v))
	}
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if v {
		e.varint(num, protowire.EncodeBool(v))
	}
}

func (e *encoder) string(num protowire.Number, v string) {
	if v != "" {
		e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
		e.b = protowire.AppendString(e.b, v)
	}
}

func (e *encoder) time(num protowire.Number, t time.Time) {
	if !t.IsZero() {
		e.varint(num, uint64(t.UnixNano()))
	}
}

func (e *encoder) optTime(num protowire.Number, t *time.Time) {
	if t != nil {
		e.varint(num, uint64(t.UnixNano()))
	}
}

// record holds the decoded scalar fields of one wire message.
type record struct {
	varints map[protowire.Number]uint64
	bytes   map[protowire.Number][]byte
}

func decode(b []byte) (record, error) {
	r := record{varints: map[protowire.Number]uint64{}, bytes: map[protowire.Number][]byte{}}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			r.varints[num] = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			r.bytes[num] = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return r, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return r, nil
}

func (r record) int(num protowire.Number) int64 { return int64(r.varints[num]) }

func (r record) optInt(num protowire.Number) *int64 {
	v, ok := r.varints[num]
	if !ok {
		return nil
	}
	i := int64(v)
	return &i
}

func (r record) bool(num protowire.Number) bool { return protowire.DecodeBool(r.varints[num]) }

func (r record) string(num protowire.Number) string { return string(r.bytes[num]) }

func (r record) time(num protowire.Number) time.Time {
	v, ok := r.varints[num]
	if !ok {
		return time.Time{}
	}
	return time.Unix(0, int64(v)).UTC()
}

func (r record) optTime(num protowire.Number) *time.Time {
	if _, ok := r.varints[num]; !ok {
		return nil
	}
	t := r.time(num)
	return &t
}

func encodeConversation(c domain.Conversation) []byte {
	var e encoder
	e.int(1, int64(c.ID))
	e.int(2, int64(c.Type))
	e.string(3, c.Name)
	e.int(4, int64(c.CreatedBy))
	e.time(5, c.CreatedAt)
	e.time(6, c.UpdatedAt)
	return e.b
}

func decodeConversation(b []byte) (domain.Conversation, error) {
	r, err := decode(b)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("decode conversation: %w", err)
	}
	return domain.Conversation{
		ID:        domain.ConversationID(r.int(1)),
		Type:      domain.ConversationType(r.int(2)),
		Name:      r.string(3),
		CreatedBy: domain.UserID(r.int(4)),
		CreatedAt: r.time(5),
		UpdatedAt: r.time(6),
	}, nil
}

func encodeParticipant(p domain.Participant) []byte {
	var e encoder
	e.int(1, int64(p.ConversationID))
	e.int(2, int64(p.UserID))
	e.int(3, int64(p.Role))
	e.bool(4, p.IsActive)
	e.time(5, p.JoinedAt)
	e.optTime(6, p.LeftAt)
	if p.LastReadMessageID != nil {
		e.varint(7, uint64(*p.LastReadMessageID))
	}
	e.optTime(8, p.LastReadAt)
	e.bool(9, p.IsMuted)
	e.optTime(10, p.MutedUntil)
	e.int(11, int64(p.NotificationSetting))
	return e.b
}

func decodeParticipant(b []byte) (domain.Participant, error) {
	r, err := decode(b)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("decode participant: %w", err)
	}
	p := domain.Participant{
		ConversationID:      domain.ConversationID(r.int(1)),
		UserID:              domain.UserID(r.int(2)),
		Role:                domain.Role(r.int(3)),
		IsActive:            r.bool(4),
		JoinedAt:            r.time(5),
		LeftAt:              r.optTime(6),
		LastReadAt:          r.optTime(8),
		IsMuted:             r.bool(9),
		MutedUntil:          r.optTime(10),
		NotificationSetting: domain.NotificationSetting(r.int(11)),
	}
	if v := r.optInt(7); v != nil {
		id := domain.MessageID(*v)
		p.LastReadMessageID = &id
	}
	return p, nil
}

func encodeMessage(m domain.Message) []byte {
	var e encoder
	e.int(1, int64(m.ID))
	e.int(2, int64(m.ConversationID))
	e.int(3, int64(m.SenderID))
	e.string(4, m.Content)
	e.int(5, int64(m.Type))
	e.time(6, m.SentAt)
	e.bool(7, m.IsDeleted)
	e.bool(8, m.IsEdited)
	e.optTime(9, m.EditedAt)
	e.int(10, int64(m.Status))
	if m.ReplyToMessageID != nil {
		e.varint(11, uint64(*m.ReplyToMessageID))
	}
	return e.b
}

func decodeMessage(b []byte) (domain.Message, error) {
	r, err := decode(b)
	if err != nil {
		return domain.Message{}, fmt.Errorf("decode message: %w", err)
	}
	m := domain.Message{
		ID:             domain.MessageID(r.int(1)),
		ConversationID: domain.ConversationID(r.int(2)),
		SenderID:       domain.UserID(r.int(3)),
		Content:        r.string(4),
		Type:           domain.MessageType(r.int(5)),
		SentAt:         r.time(6),
		IsDeleted:      r.bool(7),
		IsEdited:       r.bool(8),
		EditedAt:       r.optTime(9),
		Status:         domain.MessageStatus(r.int(10)),
	}
	if v := r.optInt(11); v != nil {
		id := domain.MessageID(*v)
		m.ReplyToMessageID = &id
	}
	return m, nil
}

func encodeAttachment(a domain.Attachment) []byte {
	var e encoder
	e.int(1, int64(a.ID))
	e.int(2, int64(a.MessageID))
	e.string(3, a.FileName)
	e.string(4, a.FilePath)
	e.int(5, a.FileSize)
	e.string(6, a.MimeType)
	e.time(7, a.UploadedAt)
	for num, v := range map[protowire.Number]*int32{8: a.Width, 9: a.Height, 10: a.DurationSeconds} {
		if v != nil {
			e.varint(num, uint64(*v))
		}
	}
	return e.b
}

func decodeAttachment(b []byte) (domain.Attachment, error) {
	r, err := decode(b)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("decode attachment: %w", err)
	}
	optInt32 := func(num protowire.Number) *int32 {
		v := r.optInt(num)
		if v == nil {
			return nil
		}
		i := int32(*v)
		return &i
	}
	return domain.Attachment{
		ID:              domain.AttachmentID(r.int(1)),
		MessageID:       domain.MessageID(r.int(2)),
		FileName:        r.string(3),
		FilePath:        r.string(4),
		FileSize:        r.int(5),
		MimeType:        r.string(6),
		UploadedAt:      r.time(7),
		Width:           optInt32(8),
		Height:          optInt32(9),
		DurationSeconds: optInt32(10),
	}, nil
}

func encodeUser(u domain.UserRef) []byte {
	var e encoder
	e.int(1, int64(u.ID))
	e.string(2, u.Username)
	e.string(3, u.DisplayName)
	e.bool(4, u.IsActive)
	e.bool(5, u.IsOnline)
	return e.b
}

func decodeUser(b []byte) (domain.UserRef, error) {
	r, err := decode(b)
	if err != nil {
		return domain.UserRef{}, fmt.Errorf("decode user: %w", err)
	}
	return domain.UserRef{
		ID:          domain.UserID(r.int(1)),
		Username:    r.string(2),
		DisplayName: r.string(3),
		IsActive:    r.bool(4),
		IsOnline:    r.bool(5),
	}, nil
}
