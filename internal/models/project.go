package models

type Project struct {
	BaseModel

	Title       string `gorm:"not null"`
	Description string
	CreatorID   uint `gorm:"not null;index"`

	// Relationships
	Creator User          `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Roles   []ProjectRole `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Tasks   []Task        `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
