package models

type Plan struct {
	Base         `bson:",inline"`
	Name         string   `bson:"name" json:"name"`
	Description  string   `bson:"description" json:"description"`
	Price        float64  `bson:"price" json:"price"`
	DurationDays int      `bson:"durationDays" json:"durationDays"`
	Features     []string `bson:"features" json:"features"`
	Active       bool     `bson:"active" json:"active"`
}

type NewPlan struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" validate:"gte=0"`
	DurationDays int      `json:"durationDays" validate:"required,gt=0"`
	Features     []string `json:"features"`
	Active       bool     `json:"active"`
}

type PlanUpdate struct {
	Name         *string  `json:"name" validate:"omitempty,min=1"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	DurationDays *int     `json:"durationDays" validate:"omitempty,gt=0"`
	Features     []string `json:"features"`
	Active       *bool    `json:"active"`
}
