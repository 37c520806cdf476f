package models

type Course struct {
	Model
	Title       string `gorm:"index;not null" json:"title"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	CreatorID   uint   `gorm:"index" json:"creator_id"`

	Creator      *User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Modules      []Module        `gorm:"constraint:OnDelete:CASCADE" json:"modules,omitempty"`
	Teachers     []CourseTeacher `gorm:"constraint:OnDelete:CASCADE" json:"teachers,omitempty"`
	Enrollments  []Enrollment    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Certificates []Certificate   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type CourseTeacher struct {
	Model
	CourseID  uint  `gorm:"uniqueIndex:idx_course_teacher;not null" json:"course_id"`
	TeacherID uint  `gorm:"uniqueIndex:idx_course_teacher;not null" json:"teacher_id"`
	Teacher   *User `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
}

type Module struct {
	Model
	CourseID    uint     `gorm:"index;not null" json:"course_id"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `json:"description"`
	Order       int      `gorm:"column:position" json:"order"`
	Lessons     []Lesson `gorm:"constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

type Lesson struct {
	Model
	ModuleID    uint             `gorm:"index;not null" json:"module_id"`
	Title       string           `gorm:"not null" json:"title"`
	Description string           `json:"description"`
	Order       int              `gorm:"column:position" json:"order"`
	Materials   []LessonMaterial `gorm:"constraint:OnDelete:CASCADE" json:"materials,omitempty"`
	Tasks       []Task           `gorm:"constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

type MaterialType string

const (
	MaterialText  MaterialType = "text"
	MaterialVideo MaterialType = "video"
	MaterialPDF   MaterialType = "pdf"
	MaterialImage MaterialType = "image"
	MaterialAudio MaterialType = "audio"
	MaterialFile  MaterialType = "file"
)

type LessonMaterial struct {
	Model
	LessonID     uint         `gorm:"index;not null" json:"lesson_id"`
	Content      string       `json:"content"`
	MaterialType MaterialType `gorm:"type:varchar(16)" json:"material_type"`
	FilePath     string       `json:"file_path"`
	Order        int          `gorm:"column:position" json:"order"`
	Comments     []Comment    `gorm:"foreignKey:MaterialID;constraint:OnDelete:CASCADE" json:"-"`
}
