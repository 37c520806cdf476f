package models

const DeletedCommentText = "[deleted]"

type Comment struct {
	Model
	MaterialID uint      `gorm:"index;not null" json:"material_id"`
	AuthorID   uint      `gorm:"index;not null" json:"author_id"`
	Content    string    `gorm:"size:1000" json:"content"`
	ReplyToID  *uint     `gorm:"index" json:"reply_to_id"`
	IsDeleted  bool      `gorm:"default:false" json:"is_deleted"`
	Author     *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Replies    []Comment `gorm:"foreignKey:ReplyToID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
}

// Masked hides the body of soft-deleted comments.
func (c Comment) Masked() Comment {
	if c.IsDeleted {
		c.Content = DeletedCommentText
	}
	return c
}
