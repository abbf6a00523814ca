package gateway

import (
	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/services"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// API hosts the request-style operations. Every handler resolves the caller from the token,
// calls one service operation and maps the error kind to a status code.
type API struct {
	accounts      services.IAuthService
	messaging     services.IMessagingService
	groups        services.IGroupService
	directory     contract.IdentityDirectory
	issuer        *auth.TokenIssuer
	socket        *SocketHandler
	maxUploadSize int64
	log           *slog.Logger
}

func NewAPI(accounts services.IAuthService, messaging services.IMessagingService, groups services.IGroupService,
	directory contract.IdentityDirectory, issuer *auth.TokenIssuer, socket *SocketHandler, maxUploadSize int64, log *slog.Logger) *API {
	return &API{
		accounts:      accounts,
		messaging:     messaging,
		groups:        groups,
		directory:     directory,
		issuer:        issuer,
		socket:        socket,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

// RegisterRoutes mounts the API under /api/v1 and the websocket endpoint under /ws.
func (a *API) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", a.register)

	protected := v1.Group("", auth.Middleware(a.issuer))
	protected.POST("/auth/token", a.refreshToken)
	protected.GET("/users/me", a.me)
	protected.GET("/users/search", a.searchUsers)

	protected.GET("/conversations", a.listConversations)
	protected.POST("/conversations/direct", a.directConversation)
	protected.POST("/conversations/group", a.createGroup)
	protected.GET("/groups/search", a.searchGroups)
	protected.GET("/conversations/:id/participants", a.listParticipants)
	protected.POST("/conversations/:id/participants", a.addParticipant)
	protected.DELETE("/conversations/:id/participants/:userId", a.removeParticipant)
	protected.PUT("/conversations/:id/participants/:userId/role", a.changeRole)
	protected.PUT("/conversations/:id/settings", a.updateSettings)
	protected.GET("/conversations/:id/messages", a.pageMessages)
	protected.POST("/conversations/:id/messages", a.sendToConversation)
	protected.POST("/conversations/:id/read", a.markRead)
	protected.GET("/conversations/:id/unread", a.countUnread)
	protected.GET("/conversations/:id/search", a.searchMessages)
	protected.GET("/conversations/:id/attachments", a.attachments)

	protected.POST("/messages/direct", a.sendDirect)
	protected.POST("/messages/direct/attachment", a.sendDirectAttachment)
	protected.PUT("/messages/:id", a.editMessage)
	protected.DELETE("/messages/:id", a.deleteMessage)
	protected.POST("/messages/:id/delivered", a.markDelivered)
	protected.POST("/typing", a.typing)

	r.GET("/ws", auth.Middleware(a.issuer), a.socket.Handle())
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, user, err := a.accounts.Register(c.Request.Context(), req.Username, req.DisplayName)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token.String(), "user": toUserResponse(user)})
}

func (a *API) refreshToken(c *gin.Context) {
	token, err := a.accounts.IssueToken(c.Request.Context(), caller(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token.String()})
}

func (a *API) me(c *gin.Context) {
	user, err := a.directory.FindByID(c.Request.Context(), caller(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (a *API) searchUsers(c *gin.Context) {
	users, err := a.directory.Search(c.Request.Context(), c.Query("q"), caller(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(users, func(u domain.UserRef, _ int) userResponse { return toUserResponse(u) }))
}

func (a *API) listConversations(c *gin.Context) {
	summaries, err := a.messaging.ListConversations(c.Request.Context(), caller(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(summaries, func(s services.ConversationSummary, _ int) conversationResponse {
		return toSummaryResponse(s)
	}))
}

func (a *API) directConversation(c *gin.Context) {
	var req directConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conversation, err := a.messaging.CreateOrFetchDirectConversation(c.Request.Context(), caller(c), req.UserID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toConversationResponse(conversation))
}

func (a *API) createGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	group, err := a.groups.CreateGroup(c.Request.Context(), domain.CreateGroupCommand{
		CreatorID: caller(c),
		Name:      strings.TrimSpace(req.Name),
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversationResponse(group))
}

// searchGroups pages the caller's groups whose name contains ?name=, ignoring case.
func (a *API) searchGroups(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	result, err := a.groups.SearchGroups(c.Request.Context(), caller(c), c.Query("name"), page, size)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupPage(result))
}

func (a *API) listParticipants(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	views, err := a.groups.ListParticipants(c.Request.Context(), conversationID, caller(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(views, func(v services.ParticipantView, _ int) participantResponse {
		return toParticipantViewResponse(v)
	}))
}

func (a *API) addParticipant(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	participant, err := a.groups.AddParticipant(c.Request.Context(), conversationID, req.UserID, caller(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toParticipantResponse(participant))
}

func (a *API) removeParticipant(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	userID, ok := idParam[domain.UserID](c, "userId")
	if !ok {
		return
	}
	if err := a.groups.RemoveParticipant(c.Request.Context(), conversationID, userID, caller(c)); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) changeRole(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	userID, ok := idParam[domain.UserID](c, "userId")
	if !ok {
		return
	}
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		a.fail(c, err)
		return
	}
	participant, err := a.groups.ChangeRole(c.Request.Context(), conversationID, userID, caller(c), role)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toParticipantResponse(participant))
}

func (a *API) updateSettings(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings := domain.ParticipantSettings{IsMuted: req.IsMuted, MutedUntil: req.MutedUntil, NotificationSetting: domain.NotifyAll}
	if req.NotificationSetting != "" {
		setting, err := domain.ParseNotificationSetting(req.NotificationSetting)
		if err != nil {
			a.fail(c, err)
			return
		}
		settings.NotificationSetting = setting
	}
	participant, err := a.messaging.UpdateSettings(c.Request.Context(), caller(c), conversationID, settings)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toParticipantResponse(participant))
}

// pageMessages reads ?page=0&size=20&sort=sentAt,desc&includeDeleted=false.
func (a *API) pageMessages(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	req, err := pageRequest(c, conversationID)
	if err != nil {
		a.fail(c, err)
		return
	}
	page, err := a.messaging.PageMessages(c.Request.Context(), caller(c), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessagePage(page))
}

func (a *API) sendToConversation(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	messageType := domain.Text
	if req.Type != "" {
		parsed, err := domain.ParseMessageType(req.Type)
		if err != nil {
			a.fail(c, err)
			return
		}
		messageType = parsed
	}
	view, err := a.messaging.SendToConversation(c.Request.Context(), domain.SendCommand{
		SenderID:       caller(c),
		ConversationID: conversationID,
		Content:        req.Content,
		Type:           messageType,
		ReplyTo:        req.ReplyTo,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(view))
}

func (a *API) markRead(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := a.messaging.MarkRead(c.Request.Context(), caller(c), conversationID, req.MessageID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (a *API) countUnread(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	count, err := a.messaging.CountUnread(c.Request.Context(), caller(c), conversationID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (a *API) searchMessages(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	result, err := a.messaging.SearchMessages(c.Request.Context(), caller(c), conversationID, c.Query("q"), page, size)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessagePage(result))
}

// attachments lists the files of a conversation, optionally filtered by ?type=IMAGE|VIDEO|AUDIO|DOCUMENT.
func (a *API) attachments(c *gin.Context) {
	conversationID, ok := conversationParam(c)
	if !ok {
		return
	}
	var family domain.MessageType
	if t := c.Query("type"); t != "" {
		parsed, err := domain.ParseMessageType(t)
		if err != nil {
			a.fail(c, err)
			return
		}
		family = parsed
	}
	attachments, err := a.messaging.AttachmentsByConversation(c.Request.Context(), caller(c), conversationID, family)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(attachments, toAttachmentResponse))
}

func (a *API) sendDirect(c *gin.Context) {
	var req sendDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := a.messaging.SendDirect(c.Request.Context(), domain.SendDirectCommand{
		SenderID:          caller(c),
		RecipientUsername: req.RecipientUsername,
		Content:           req.Content,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(view))
}

// sendDirectAttachment takes a multipart form with recipientUsername, an optional content and one file.
func (a *API) sendDirectAttachment(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		a.fail(c, err)
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the service to refuse the upload
	data, err := io.ReadAll(io.LimitReader(file, a.maxUploadSize+1))
	if err != nil {
		a.fail(c, err)
		return
	}
	view, err := a.messaging.SendDirectWithAttachment(c.Request.Context(), domain.SendDirectCommand{
		SenderID:          caller(c),
		RecipientUsername: c.PostForm("recipientUsername"),
		Content:           c.PostForm("content"),
	}, domain.Upload{FileName: header.Filename, Data: data})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(view))
}

func (a *API) editMessage(c *gin.Context) {
	messageID, ok := idParam[domain.MessageID](c, "id")
	if !ok {
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := a.messaging.EditMessage(c.Request.Context(), caller(c), messageID, req.Content)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(view))
}

func (a *API) deleteMessage(c *gin.Context) {
	messageID, ok := idParam[domain.MessageID](c, "id")
	if !ok {
		return
	}
	view, err := a.messaging.DeleteMessage(c.Request.Context(), caller(c), messageID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(view))
}

func (a *API) markDelivered(c *gin.Context) {
	messageID, ok := idParam[domain.MessageID](c, "id")
	if !ok {
		return
	}
	view, err := a.messaging.MarkDelivered(c.Request.Context(), caller(c), messageID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponse(view))
}

func (a *API) typing(c *gin.Context) {
	var req typingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target := domain.TypingTarget{ConversationID: req.ConversationID, RecipientUsername: req.RecipientUsername}
	if err := a.messaging.SendTyping(c.Request.Context(), caller(c), target, req.IsTyping); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// fail writes {"error": message} with the status of the error kind.
// Unclassified errors are logged and hidden from the client.
func (a *API) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch errors.Kind(err) {
	case errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrPermission, errors.ErrSecurity:
		return http.StatusForbidden
	case errors.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func caller(c *gin.Context) domain.UserID {
	id, _ := auth.CallerID(c)
	return id
}

func conversationParam(c *gin.Context) (domain.ConversationID, bool) {
	return idParam[domain.ConversationID](c, "id")
}

func idParam[T ~int64](c *gin.Context, name string) (T, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return T(id), true
}

func pageRequest(c *gin.Context, conversationID domain.ConversationID) (domain.PageRequest, error) {
	req := domain.PageRequest{ConversationID: conversationID}
	var err error
	if req.Page, err = strconv.Atoi(c.DefaultQuery("page", "0")); err != nil {
		return req, fmt.Errorf("%w: page must be a number", errors.ErrInvalidPage)
	}
	if req.Size, err = strconv.Atoi(c.DefaultQuery("size", "0")); err != nil {
		return req, fmt.Errorf("%w: size must be a number", errors.ErrInvalidPage)
	}
	if sort := c.Query("sort"); sort != "" {
		field, dir, _ := strings.Cut(sort, ",")
		req.SortField = field
		req.SortDir = domain.SortDirection(strings.ToLower(dir))
	}
	req.IncludeDeleted = c.Query("includeDeleted") == "true"
	return req, nil
}
