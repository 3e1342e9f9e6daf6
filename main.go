package main

import (
	"log"

	"github.com/AmanSingh2427/Chat-app/config"
	"github.com/AmanSingh2427/Chat-app/db"
	"github.com/AmanSingh2427/Chat-app/server"
	"github.com/AmanSingh2427/Chat-app/services"
	"github.com/AmanSingh2427/Chat-app/ws"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB := db.GetDB(conf)
	authRepo := db.NewAuthRepo(gormDB)
	messageRepo := db.NewMessageRepo(gormDB)
	groupRepo := db.NewGroupRepo(gormDB)

	hub := ws.NewHub()

	authService := services.NewAuthService(authRepo, messageRepo, conf)
	messageService := services.NewMessageService(messageRepo, authRepo, groupRepo, hub, conf)
	groupService := services.NewGroupService(groupRepo, conf)
	mediaService := services.NewMediaService(authRepo, conf)

	s := &server.Server{
		Config:            conf,
		AuthRepository:    authRepo,
		MessageRepository: messageRepo,
		GroupRepository:   groupRepo,
		AuthService:       authService,
		MessageService:    messageService,
		GroupService:      groupService,
		MediaService:      mediaService,
		Hub:               hub,
		DB:                *gormDB,
	}

	s.Start()
}
