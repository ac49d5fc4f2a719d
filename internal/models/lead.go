package models

type LeadStatus string

const (
	LeadNew       LeadStatus = "New"
	LeadContacted LeadStatus = "Contacted"
	LeadQualified LeadStatus = "Qualified"
	LeadConverted LeadStatus = "Converted"
	LeadLost      LeadStatus = "Lost"
)

type Lead struct {
	Base         `bson:",inline"`
	Name         string     `bson:"name" json:"name"`
	Email        string     `bson:"email" json:"email"`
	Phone        string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Organization string     `bson:"organization,omitempty" json:"organization,omitempty"`
	Source       string     `bson:"source,omitempty" json:"source,omitempty"`
	Message      string     `bson:"message,omitempty" json:"message,omitempty"`
	Status       LeadStatus `bson:"status" json:"status"`
	Notes        string     `bson:"notes,omitempty" json:"notes,omitempty"`
}

type NewLead struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
	Source       string `json:"source"`
	Message      string `json:"message"`
}

type LeadUpdate struct {
	Status LeadStatus `json:"status" validate:"omitempty,oneof=New Contacted Qualified Converted Lost"`
	Notes  *string    `json:"notes"`
	Phone  *string    `json:"phone"`
}

type LeadFilter struct {
	Status string `query:"status"`
	Search string `query:"search"`
}
