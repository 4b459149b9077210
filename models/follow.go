package models

import "time"

// Follow is a directed edge from a follower to an author.
// The composite unique index makes a duplicate edge impossible at the
// schema level, which keeps repeated follow requests idempotent even when
// they race.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_follow_user;index:idx_follow_pair,unique;not null" json:"user_id"`
	AuthorID  uint      `gorm:"index:idx_follow_author;index:idx_follow_pair,unique;not null" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Follow) TableName() string { return "follows" }
