package db

import (
	"log"

	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type GroupRepository interface {
	CreateGroup(group *models.Group, memberIDs []uint) (*models.Group, error)
	FindGroupByID(id uint) (*models.Group, error)
	ListGroupsForUser(userID uint) ([]models.Group, error)
	IsMember(groupID, userID uint) (bool, error)
}

type groupRepo struct {
	DB *gorm.DB
}

func NewGroupRepo(db *GormDB) GroupRepository {
	return &groupRepo{db.DB}
}

// CreateGroup writes the group row and all membership rows in one
// transaction. A failure on any member leaves nothing behind.
func (g *groupRepo) CreateGroup(group *models.Group, memberIDs []uint) (*models.Group, error) {
	if group == nil {
		return nil, errors.New("group is nil")
	}

	err := g.DB.Transaction(func(tx *gorm.DB) error {
		var members []models.User
		if err := tx.Find(&members, memberIDs).Error; err != nil {
			return err
		}
		if len(members) != len(memberIDs) {
			return gorm.ErrRecordNotFound
		}

		group.Members = members
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("CreateGroup error: %v", err)
		return nil, err
	}

	return group, nil
}

func (g *groupRepo) FindGroupByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := g.DB.Preload("Members").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (g *groupRepo) ListGroupsForUser(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := g.DB.Preload("Members").
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list groups")
	}
	return groups, nil
}

func (g *groupRepo) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := g.DB.Table("group_members").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check group membership")
	}
	return count > 0, nil
}
