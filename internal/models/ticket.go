package models

import "time"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketOpen:       {TicketInProgress, TicketClosed},
	TicketInProgress: {TicketResolved, TicketClosed},
	TicketResolved:   {TicketClosed},
}

// CanTransition reports whether a ticket may move from s to next.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

type TicketReply struct {
	AuthorID  string    `bson:"authorId" json:"authorId"`
	Message   string    `bson:"message" json:"message"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type SupportTicket struct {
	Base        `bson:",inline"`
	Subject     string         `bson:"subject" json:"subject"`
	Description string         `bson:"description" json:"description"`
	Priority    TicketPriority `bson:"priority" json:"priority"`
	Status      TicketStatus   `bson:"status" json:"status"`
	CreatedBy   string         `bson:"createdBy" json:"createdBy"`
	AssignedTo  string         `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Replies     []TicketReply  `bson:"replies" json:"replies"`
}

type NewTicket struct {
	Subject     string         `json:"subject" validate:"required"`
	Description string         `json:"description" validate:"required"`
	Priority    TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type TicketStatusUpdate struct {
	Status     TicketStatus `json:"status" validate:"required,oneof='Open' 'In Progress' 'Resolved' 'Closed'"`
	AssignedTo string       `json:"assignedTo"`
}

type TicketReplyInput struct {
	Message string `json:"message" validate:"required"`
}

type TicketFilter struct {
	Status   string `query:"status"`
	Priority string `query:"priority"`
}
