package models

import "time"

// Group is a named chat room. Membership is fixed at creation time;
// there are no add/remove member operations.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatorID uint      `gorm:"index;not null" json:"creator_id"`
	Creator   User      `gorm:"foreignKey:CreatorID" json:"-"`
	Members   []User    `gorm:"many2many:group_members;" json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateGroupRequest struct {
	Name    string `json:"name" binding:"required" conform:"trim"`
	UserIDs []uint `json:"user_ids" binding:"required,min=1"`
}

type GroupResponse struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`
	CreatorID uint           `json:"creator_id"`
	Members   []UserResponse `json:"members"`
	CreatedAt time.Time      `json:"created_at"`
}

func (g *Group) ToGroupResponse() GroupResponse {
	members := make([]UserResponse, 0, len(g.Members))
	for i := range g.Members {
		members = append(members, g.Members[i].ToUserResponse())
	}
	return GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatorID: g.CreatorID,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}
