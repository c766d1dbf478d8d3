package server

import (
	"net/http"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/services"

	"github.com/gin-gonic/gin"
)

type UserHandlers struct {
	auth  services.IAuthService
	users services.IUserService
	blobs services.AttachmentStore
}

func NewUserHandlers(authSvc services.IAuthService, users services.IUserService, blobs services.AttachmentStore) *UserHandlers {
	return &UserHandlers{auth: authSvc, users: users, blobs: blobs}
}

// Register creates an account from a multipart form carrying the profile
// fields and an optional avatar file, then logs the session in.
func (h *UserHandlers) Register(c *gin.Context) {
	var registration auth.RegisterRequest
	if err := c.ShouldBind(&registration); err != nil {
		fail(c, err)
		return
	}

	var avatar domain.Attachment
	if file, err := c.FormFile("avatar"); err == nil {
		f, err := file.Open()
		if err != nil {
			fail(c, err)
			return
		}
		defer f.Close()
		if avatar, err = h.blobs.Save(f); err != nil {
			fail(c, err)
			return
		}
	}

	token, user, err := h.auth.Register(registration, avatar)
	if err != nil {
		fail(c, err)
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user, "message": "Welcome to chat-hub"})
}

func (h *UserHandlers) Login(c *gin.Context) {
	var credentials auth.LoginRequest
	if err := c.ShouldBindJSON(&credentials); err != nil {
		fail(c, err)
		return
	}

	token, user, err := h.auth.Login(credentials)
	if err != nil {
		fail(c, err)
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "message": "Welcome back, " + user.Name})
}

func (h *UserHandlers) Logout(c *gin.Context) {
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func (h *UserHandlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser(c)})
}

func (h *UserHandlers) Search(c *gin.Context) {
	found, err := h.users.SearchUsers(currentUser(c).ID, c.Query("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": found})
}

func (h *UserHandlers) SendRequest(c *gin.Context) {
	var body struct {
		UserID domain.Identity `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, err)
		return
	}

	if _, err := h.users.SendRequest(currentUser(c), body.UserID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Friend request sent"})
}

func (h *UserHandlers) AnswerRequest(c *gin.Context) {
	var body struct {
		RequestID string `json:"requestId" binding:"required"`
		Accept    *bool  `json:"accept" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, err)
		return
	}

	if _, err := h.users.AnswerRequest(currentUser(c), body.RequestID, *body.Accept); err != nil {
		fail(c, err)
		return
	}

	message := "Friend request rejected"
	if *body.Accept {
		message = "Friend request accepted"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (h *UserHandlers) Notifications(c *gin.Context) {
	notifications, err := h.users.Notifications(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "allRequests": notifications})
}

func (h *UserHandlers) Friends(c *gin.Context) {
	friends, err := h.users.Friends(currentUser(c).ID, c.Query("chatId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "friends": friends})
}

func setSessionCookie(c *gin.Context, token services.Token) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(auth.SessionCookie, token.String(), auth.SessionMaxAge, "/", "", true, true)
}
