package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(
	allowedOrigins []string,
	meetingController *MeetingController,
	uploadController *UploadController,
	chatController *ChatController,
	webhookController *WebhookController,
	userController *UserController,
) *gin.Engine {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.ExposeHeaders = []string{"Set-Cookie"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	if meetingController != nil {
		meetings := api.Group("/meetings")
		meetings.POST("", meetingController.CreateMeeting)
		meetings.GET("", meetingController.ListMeetings)
		meetings.GET("/:meetingID", meetingController.GetMeeting)
		meetings.PATCH("/:meetingID/duration", meetingController.FinishRecording)
		meetings.DELETE("/:meetingID", meetingController.DeleteMeeting)
		meetings.GET("/:meetingID/transcription", meetingController.GetTranscription)
		meetings.POST("/:meetingID/transcription", meetingController.RunTranscription)

		if uploadController != nil {
			meetings.POST("/:meetingID/chunks", uploadController.UploadChunk)
			meetings.POST("/:meetingID/upload-url", uploadController.CreateUploadURL)
			meetings.GET("/:meetingID/record/ws", uploadController.RecordWS)
		}

		if chatController != nil {
			meetings.POST("/:meetingID/chat", chatController.Chat)
			meetings.POST("/:meetingID/chat/message", chatController.SaveMessage)
			meetings.GET("/:meetingID/messages", chatController.ListMessages)
		}
	}

	if uploadController != nil {
		api.POST("/objects/register", uploadController.RegisterUpload)
		api.POST("/transcription/callback", uploadController.TranscriptionCallback)
	}

	if webhookController != nil {
		api.POST("/webhooks/identity", webhookController.HandleIdentityEvent)
	}

	if userController != nil {
		api.GET("/users/:externalID", userController.GetUser)
	}

	return router
}
