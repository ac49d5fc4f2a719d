package models

type Lesson struct {
	ID              string `bson:"id" json:"id"`
	Title           string `bson:"title" json:"title" validate:"required"`
	DurationMinutes int    `bson:"durationMinutes" json:"durationMinutes" validate:"gte=0"`
}

type Module struct {
	Title   string   `bson:"title" json:"title" validate:"required"`
	Lessons []Lesson `bson:"lessons" json:"lessons" validate:"dive"`
}

type Course struct {
	Base          `bson:",inline"`
	Title         string   `bson:"title" json:"title"`
	Description   string   `bson:"description" json:"description"`
	Category      string   `bson:"category" json:"category"`
	InstructorRef string   `bson:"instructorRef,omitempty" json:"instructorRef,omitempty"`
	Price         float64  `bson:"price" json:"price"`
	Published     bool     `bson:"published" json:"published"`
	Curriculum    []Module `bson:"curriculum" json:"curriculum"`
}

func (c Course) LessonCount() int {
	var n int
	for _, m := range c.Curriculum {
		n += len(m.Lessons)
	}
	return n
}

func (c Course) HasLesson(id string) bool {
	for _, m := range c.Curriculum {
		for _, l := range m.Lessons {
			if l.ID == id {
				return true
			}
		}
	}
	return false
}

type NewCourse struct {
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Category      string   `json:"category" validate:"required"`
	InstructorRef string   `json:"instructorRef"`
	Price         float64  `json:"price" validate:"gte=0"`
	Published     bool     `json:"published"`
	Curriculum    []Module `json:"curriculum" validate:"dive"`
}

type CourseUpdate struct {
	Title       *string  `json:"title" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Published   *bool    `json:"published"`
	Curriculum  []Module `json:"curriculum" validate:"omitempty,dive"`
}

type CourseFilter struct {
	Category      string `query:"category"`
	InstructorRef string `query:"instructor"`
	Search        string `query:"search"`
	Page          int    `query:"page"`
	PerPage       int    `query:"per_page"`
}
