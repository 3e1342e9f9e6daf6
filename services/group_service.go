package services

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/AmanSingh2427/Chat-app/config"
	"github.com/AmanSingh2427/Chat-app/db"
	apiError "github.com/AmanSingh2427/Chat-app/errors"
	"github.com/AmanSingh2427/Chat-app/models"
	"gorm.io/gorm"
)

type GroupService interface {
	CreateGroup(creatorID uint, request *models.CreateGroupRequest) (*models.GroupResponse, *apiError.Error)
	ListGroups(viewerID uint) ([]models.GroupResponse, error)
}

type groupService struct {
	Config    *config.Config
	groupRepo db.GroupRepository
}

func NewGroupService(groupRepo db.GroupRepository, conf *config.Config) GroupService {
	return &groupService{
		Config:    conf,
		groupRepo: groupRepo,
	}
}

// CreateGroup creates the group with the creator and the requested
// users as members, all in one transaction.
func (s *groupService) CreateGroup(creatorID uint, request *models.CreateGroupRequest) (*models.GroupResponse, *apiError.Error) {
	if request == nil || strings.TrimSpace(request.Name) == "" {
		return nil, apiError.New("group name is required", http.StatusBadRequest)
	}
	if len(request.UserIDs) == 0 {
		return nil, apiError.New("group needs at least one member", http.StatusBadRequest)
	}

	// The creator is always a member; dedupe so the join table never
	// sees the same pair twice.
	seen := map[uint]bool{creatorID: true}
	memberIDs := []uint{creatorID}
	for _, id := range request.UserIDs {
		if !seen[id] {
			seen[id] = true
			memberIDs = append(memberIDs, id)
		}
	}

	group := &models.Group{
		Name:      strings.TrimSpace(request.Name),
		CreatorID: creatorID,
	}
	group, err := s.groupRepo.CreateGroup(group, memberIDs)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("one or more members do not exist", http.StatusNotFound)
		}
		log.Printf("CreateGroup error: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	resp := group.ToGroupResponse()
	return &resp, nil
}

func (s *groupService) ListGroups(viewerID uint) ([]models.GroupResponse, error) {
	groups, err := s.groupRepo.ListGroupsForUser(viewerID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.GroupResponse, 0, len(groups))
	for i := range groups {
		responses = append(responses, groups[i].ToGroupResponse())
	}
	return responses, nil
}
