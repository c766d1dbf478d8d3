package server

import (
	"net/http"

	"chat-hub/auth"
	"chat-hub/services"

	"github.com/gin-gonic/gin"
)

// adminCookieMaxAge matches the admin token lifetime.
const adminCookieMaxAge = 15 * 60

type AdminHandlers struct {
	admin services.IAdminService
}

func NewAdminHandlers(admin services.IAdminService) *AdminHandlers {
	return &AdminHandlers{admin: admin}
}

func (h *AdminHandlers) Verify(c *gin.Context) {
	var body struct {
		SecretKey string `json:"secretKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, err)
		return
	}

	token, err := h.admin.Verify(body.SecretKey)
	if err != nil {
		fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(auth.AdminCookie, token.String(), adminCookieMaxAge, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Authenticated successfully, welcome BOSS"})
}

func (h *AdminHandlers) Logout(c *gin.Context) {
	c.SetCookie(auth.AdminCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func (h *AdminHandlers) Stats(c *gin.Context) {
	stats, err := h.admin.Stats()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *AdminHandlers) Users(c *gin.Context) {
	users, err := h.admin.Users()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func (h *AdminHandlers) Chats(c *gin.Context) {
	chats, err := h.admin.Chats()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chats": chats})
}

func (h *AdminHandlers) Messages(c *gin.Context) {
	messages, err := h.admin.Messages()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}
