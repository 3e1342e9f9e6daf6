package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AmanSingh2427/Chat-app/config"
	"github.com/AmanSingh2427/Chat-app/db"
	"github.com/AmanSingh2427/Chat-app/services"
	"github.com/AmanSingh2427/Chat-app/ws"
)

type Server struct {
	Config            *config.Config
	AuthRepository    db.AuthRepository
	MessageRepository db.MessageRepository
	GroupRepository   db.GroupRepository
	AuthService       services.AuthService
	MessageService    services.MessageService
	GroupService      services.GroupService
	MediaService      services.MediaService
	Hub               *ws.Hub
	DB                db.GormDB
}

// Start runs the fan-out hub and the HTTP server, blocking until an
// interrupt arrives, then drains in-flight requests.
func (s *Server) Start() {
	go s.Hub.Run()

	r := s.setupRouter()

	port := s.Config.Port
	if port == 0 {
		port = 5000
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}

	go func() {
		log.Printf("Server running at http://localhost:%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
