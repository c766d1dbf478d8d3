package server

import (
	"io"
	"net/http"
	"strconv"

	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/services"

	"github.com/gin-gonic/gin"
)

// searchLimit caps full-text results per query.
const searchLimit = 50

type ChatHandlers struct {
	chats services.IChatService
}

func NewChatHandlers(chats services.IChatService) *ChatHandlers {
	return &ChatHandlers{chats: chats}
}

func (h *ChatHandlers) NewGroup(c *gin.Context) {
	var body struct {
		Name    string            `json:"name" binding:"required"`
		Members []domain.Identity `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, err)
		return
	}

	chatID, err := h.chats.NewGroup(currentUser(c), body.Name, body.Members)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "chatId": chatID, "message": "Group created"})
}

func (h *ChatHandlers) MyChats(c *gin.Context) {
	chats, err := h.chats.MyChats(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chats": chats})
}

func (h *ChatHandlers) MyGroups(c *gin.Context) {
	groups, err := h.chats.MyGroups(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "groups": groups})
}

func (h *ChatHandlers) AddMembers(c *gin.Context) {
	var body struct {
		ChatID  string            `json:"chatId" binding:"required"`
		Members []domain.Identity `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, err)
		return
	}

	if err := h.chats.AddMembers(currentUser(c), body.ChatID, body.Members); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Members added successfully"})
}

func (h *ChatHandlers) RemoveMember(c *gin.Context) {
	var body struct {
		ChatID string          `json:"chatId" binding:"required"`
		UserID domain.Identity `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, err)
		return
	}

	if err := h.chats.RemoveMember(currentUser(c), body.ChatID, body.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Member removed successfully"})
}

func (h *ChatHandlers) Leave(c *gin.Context) {
	if err := h.chats.Leave(currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Leave group successfully"})
}

// SendAttachments accepts 1 to 5 multipart files and relays them to the
// conversation as a message.
func (h *ChatHandlers) SendAttachments(c *gin.Context) {
	chatID := c.PostForm("chatId")
	if chatID == "" {
		fail(c, errors.ErrChatNotFound)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, errors.ErrNoAttachments)
		return
	}
	uploads := form.File["files"]

	files := make([]io.Reader, 0, len(uploads))
	for _, upload := range uploads {
		f, err := upload.Open()
		if err != nil {
			fail(c, err)
			return
		}
		defer f.Close()
		files = append(files, f)
	}

	attachments, err := h.chats.SendAttachments(currentUser(c), chatID, files)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attachments": attachments})
}

func (h *ChatHandlers) History(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, errors.ErrInvalidDisplayLimit)
			return
		}
		page = parsed
	}

	messages, totalPages, err := h.chats.History(currentUser(c).ID, c.Param("id"), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages, "totalPages": totalPages})
}

func (h *ChatHandlers) Details(c *gin.Context) {
	chat, err := h.chats.Details(currentUser(c).ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chat": chat})
}

func (h *ChatHandlers) Rename(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, err)
		return
	}

	if err := h.chats.Rename(currentUser(c), c.Param("id"), body.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Group renamed successfully"})
}

func (h *ChatHandlers) Delete(c *gin.Context) {
	if err := h.chats.Delete(currentUser(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat deleted successfully"})
}

func (h *ChatHandlers) Search(c *gin.Context) {
	terms := c.Query("q")
	if terms == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "hits": []any{}})
		return
	}

	hits, err := h.chats.SearchMessages(c.Request.Context(), currentUser(c).ID, terms, c.Query("chatId"), searchLimit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "hits": hits})
}
