package server

import (
	"fmt"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 8 << 20

	// Registration avatars are served straight off disk.
	r.Static("/uploads", "./"+s.Config.UploadDir)

	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Minute, Limit: 10})
	limitLogin := limitRateForLogin(store)

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/register", s.handleSignup())
	apirouter.POST("/auth/login", limitLogin, s.handleLogin())

	// The push channel authenticates via query token: browsers cannot
	// attach an Authorization header to a WebSocket dial.
	router.GET("/ws", s.handleWS())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/me", s.handleShowProfile())
	authorized.GET("/users", s.handleGetUsers())
	authorized.POST("/groups", s.handleCreateGroup())
	authorized.GET("/groups", s.handleGetGroups())
	authorized.GET("/messages/direct/:peerID", s.handleGetConversation())
	authorized.GET("/messages/group/:groupID", s.handleGetGroupConversation())
	authorized.POST("/messages/direct", s.handleSendMessage())
	authorized.POST("/messages/group", s.handleSendGroupMessage())
	authorized.POST("/messages/read", s.handleMarkRead())
	authorized.PUT("/upload", s.handleUpdateUserImage())
}
