package gateway

import (
	"chat-hub/domain"
	"chat-hub/services"
	"time"

	"github.com/samber/lo"
)

type userResponse struct {
	ID          domain.UserID `json:"id"`
	Username    string        `json:"username"`
	DisplayName string        `json:"displayName"`
	IsOnline    bool          `json:"isOnline"`
}

func toUserResponse(u domain.UserRef) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, IsOnline: u.IsOnline}
}

type conversationResponse struct {
	ID          domain.ConversationID `json:"id"`
	Type        string                `json:"type"`
	Name        string                `json:"name,omitempty"`
	Title       string                `json:"title,omitempty"`
	CreatedBy   domain.UserID         `json:"createdBy"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	UnreadCount *int                  `json:"unreadCount,omitempty"`
}

func toConversationResponse(c domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:        c.ID,
		Type:      c.Type.String(),
		Name:      c.Name,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type groupResponse struct {
	conversationResponse
	MemberCount int `json:"memberCount"`
}

func toGroupPage(p domain.PagedResult[domain.GroupSummary]) pageResponse[groupResponse] {
	mapped := domain.MapPage(p, func(g domain.GroupSummary) groupResponse {
		return groupResponse{conversationResponse: toConversationResponse(g.Conversation), MemberCount: g.MemberCount}
	})
	return pageResponse[groupResponse]{
		Content:       mapped.Items,
		TotalElements: mapped.TotalElements,
		TotalPages:    mapped.TotalPages,
		Page:          mapped.Page,
		Size:          mapped.Size,
		HasNext:       mapped.HasNext,
		HasPrevious:   mapped.HasPrevious,
	}
}

func toSummaryResponse(s services.ConversationSummary) conversationResponse {
	resp := toConversationResponse(s.Conversation)
	resp.Title = s.Title
	resp.UnreadCount = lo.ToPtr(s.UnreadCount)
	return resp
}

type participantResponse struct {
	UserID              domain.UserID     `json:"userId"`
	Username            string            `json:"username,omitempty"`
	DisplayName         string            `json:"displayName,omitempty"`
	IsOnline            bool              `json:"isOnline"`
	Role                string            `json:"role"`
	IsActive            bool              `json:"isActive"`
	JoinedAt            time.Time         `json:"joinedAt"`
	LastReadMessageID   *domain.MessageID `json:"lastReadMessageId,omitempty"`
	IsMuted             bool              `json:"isMuted"`
	MutedUntil          *time.Time        `json:"mutedUntil,omitempty"`
	NotificationSetting string            `json:"notificationSetting"`
}

func toParticipantResponse(p domain.Participant) participantResponse {
	return participantResponse{
		UserID:              p.UserID,
		Role:                p.Role.String(),
		IsActive:            p.IsActive,
		JoinedAt:            p.JoinedAt,
		LastReadMessageID:   p.LastReadMessageID,
		IsMuted:             p.IsMuted,
		MutedUntil:          p.MutedUntil,
		NotificationSetting: p.NotificationSetting.String(),
	}
}

func toParticipantViewResponse(v services.ParticipantView) participantResponse {
	resp := toParticipantResponse(v.Participant)
	resp.Username, resp.DisplayName, resp.IsOnline = v.Username, v.DisplayName, v.IsOnline
	return resp
}

type attachmentResponse struct {
	ID              domain.AttachmentID `json:"id"`
	MessageID       domain.MessageID    `json:"messageId"`
	FileName        string              `json:"fileName"`
	FilePath        string              `json:"filePath"`
	FileSize        int64               `json:"fileSize"`
	MimeType        string              `json:"mimeType"`
	UploadedAt      time.Time           `json:"uploadedAt"`
	Width           *int32              `json:"width,omitempty"`
	Height          *int32              `json:"height,omitempty"`
	DurationSeconds *int32              `json:"durationSeconds,omitempty"`
}

func toAttachmentResponse(a domain.Attachment, _ int) attachmentResponse {
	return attachmentResponse{
		ID:              a.ID,
		MessageID:       a.MessageID,
		FileName:        a.FileName,
		FilePath:        a.FilePath,
		FileSize:        a.FileSize,
		MimeType:        a.MimeType,
		UploadedAt:      a.UploadedAt,
		Width:           a.Width,
		Height:          a.Height,
		DurationSeconds: a.DurationSeconds,
	}
}

type messageResponse struct {
	ID             domain.MessageID      `json:"id"`
	ConversationID domain.ConversationID `json:"conversationId"`
	SenderID       domain.UserID         `json:"senderId"`
	SenderUsername string                `json:"senderUsername"`
	Content        string                `json:"content"`
	Type           string                `json:"type"`
	SentAt         time.Time             `json:"sentAt"`
	Status         string                `json:"status"`
	IsEdited       bool                  `json:"isEdited"`
	EditedAt       *time.Time            `json:"editedAt,omitempty"`
	IsDeleted      bool                  `json:"isDeleted"`
	ReplyTo        *domain.MessageID     `json:"replyToMessageId,omitempty"`
	Attachments    []attachmentResponse  `json:"attachments"`
}

func toMessageResponse(v domain.MessageView) messageResponse {
	return messageResponse{
		ID:             v.ID,
		ConversationID: v.ConversationID,
		SenderID:       v.SenderID,
		SenderUsername: v.SenderUsername,
		Content:        v.Content,
		Type:           v.Type.String(),
		SentAt:         v.SentAt,
		Status:         v.Status.String(),
		IsEdited:       v.IsEdited,
		EditedAt:       v.EditedAt,
		IsDeleted:      v.IsDeleted,
		ReplyTo:        v.ReplyToMessageID,
		Attachments:    lo.Map(v.Attachments, toAttachmentResponse),
	}
}

type pageResponse[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	HasNext       bool `json:"hasNext"`
	HasPrevious   bool `json:"hasPrevious"`
}

func toMessagePage(p domain.PagedResult[domain.MessageView]) pageResponse[messageResponse] {
	mapped := domain.MapPage(p, toMessageResponse)
	return pageResponse[messageResponse]{
		Content:       mapped.Items,
		TotalElements: mapped.TotalElements,
		TotalPages:    mapped.TotalPages,
		Page:          mapped.Page,
		Size:          mapped.Size,
		HasNext:       mapped.HasNext,
		HasPrevious:   mapped.HasPrevious,
	}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"displayName"`
}

type directConversationRequest struct {
	UserID domain.UserID `json:"userId" binding:"required"`
}

type createGroupRequest struct {
	Name      string          `json:"name" binding:"required"`
	MemberIDs []domain.UserID `json:"memberIds"`
}

type addParticipantRequest struct {
	UserID domain.UserID `json:"userId" binding:"required"`
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type settingsRequest struct {
	IsMuted             bool       `json:"isMuted"`
	MutedUntil          *time.Time `json:"mutedUntil"`
	NotificationSetting string     `json:"notificationSetting"`
}

type sendMessageRequest struct {
	Content string            `json:"content"`
	Type    string            `json:"type"`
	ReplyTo *domain.MessageID `json:"replyToMessageId"`
}

type sendDirectRequest struct {
	RecipientUsername string `json:"recipientUsername" binding:"required"`
	Content           string `json:"content"`
}

type editMessageRequest struct {
	Content string `json:"content"`
}

type markReadRequest struct {
	MessageID domain.MessageID `json:"messageId" binding:"required"`
}

type typingRequest struct {
	ConversationID    *domain.ConversationID `json:"conversationId"`
	RecipientUsername string                 `json:"recipientUsername"`
	IsTyping          bool                   `json:"isTyping"`
}
