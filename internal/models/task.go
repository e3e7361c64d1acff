package models

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "INPROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}

	return false
}

type Task struct {
	BaseModel

	Title        string `gorm:"not null"`
	Description  string
	Status       TaskStatus `gorm:"type:varchar(20);not null"`
	AssignedToID *uint      `gorm:"index"`
	ProjectID    uint       `gorm:"not null;index"`

	// Relationships
	AssignedTo *User   `gorm:"foreignKey:AssignedToID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Project    Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
