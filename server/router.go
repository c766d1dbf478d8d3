package server

import (
	"io"
	"net/http"

	"chat-hub/gateway"
	"chat-hub/storage"

	"github.com/gin-gonic/gin"
)

// New assembles the full route table: REST under /api/v1, the websocket
// endpoint and public attachment downloads.
func New(
	gw *gateway.Gateway,
	resolver gateway.IdentityResolver,
	users *UserHandlers,
	chats *ChatHandlers,
	admin *AdminHandlers,
	blobs *storage.BlobStore,
	adminKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ws", gw.HandleWS)
	router.GET("/files/:id", serveBlob(blobs))

	api := router.Group("/api/v1")

	user := api.Group("/user")
	{
		user.POST("/new", users.Register)
		user.POST("/login", users.Login)

		authed := user.Group("", RequireUser(resolver))
		authed.GET("/me", users.Me)
		authed.GET("/logout", users.Logout)
		authed.GET("/search", users.Search)
		authed.PUT("/sendrequest", users.SendRequest)
		authed.PUT("/acceptrequest", users.AnswerRequest)
		authed.GET("/notifications", users.Notifications)
		authed.GET("/friends", users.Friends)
	}

	chat := api.Group("/chat", RequireUser(resolver))
	{
		chat.POST("/new", chats.NewGroup)
		chat.GET("/my", chats.MyChats)
		chat.GET("/my/groups", chats.MyGroups)
		chat.PUT("/addmembers", chats.AddMembers)
		chat.PUT("/removemember", chats.RemoveMember)
		chat.DELETE("/leave/:id", chats.Leave)
		chat.POST("/message", chats.SendAttachments)
		chat.GET("/message/:id", chats.History)
		chat.GET("/search", chats.Search)
		chat.GET("/:id", chats.Details)
		chat.PUT("/:id", chats.Rename)
		chat.DELETE("/:id", chats.Delete)
	}

	adm := api.Group("/admin")
	{
		adm.POST("/verify", admin.Verify)
		adm.GET("/logout", admin.Logout)

		guarded := adm.Group("", RequireAdmin(adminKey))
		guarded.GET("/stats", admin.Stats)
		guarded.GET("/users", admin.Users)
		guarded.GET("/chats", admin.Chats)
		guarded.GET("/messages", admin.Messages)
	}

	return router
}

func serveBlob(blobs *storage.BlobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		reader, mime, err := blobs.Open(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": "file not found"})
			return
		}
		defer reader.Close()

		content, err := io.ReadAll(reader)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, mime, content)
	}
}
