package services

import (
	"context"
	"time"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type TicketService struct {
	tickets store.Collection[models.SupportTicket]
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewTicketService(tickets store.Collection[models.SupportTicket], log logrus.FieldLogger) *TicketService {
	return &TicketService{tickets: tickets, now: time.Now, log: log}
}

func (s *TicketService) Create(ctx context.Context, sess models.Session, nt models.NewTicket) (models.SupportTicket, error) {
	if err := authorize(sess, models.AllRoles...); err != nil {
		return models.SupportTicket{}, err
	}
	if err := validation.Struct(nt); err != nil {
		return models.SupportTicket{}, err
	}
	priority := nt.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	ticket := models.SupportTicket{
		Base:        models.Base{ID: models.NewID("TKT")},
		Subject:     nt.Subject,
		Description: nt.Description,
		Priority:    priority,
		Status:      models.TicketOpen,
		CreatedBy:   sess.UserID,
		Replies:     []models.TicketReply{},
	}
	if err := s.tickets.Insert(ctx, &ticket); err != nil {
		return models.SupportTicket{}, errors.Wrap(err, "create ticket")
	}
	s.log.WithFields(logrus.Fields{"ticket_id": ticket.ID, "user_id": sess.UserID}).Info("ticket opened")
	return ticket, nil
}

// get returns a ticket its creator or support staff may access.
func (s *TicketService) get(ctx context.Context, sess models.Session, ref string) (models.SupportTicket, error) {
	if err := authorize(sess, models.AllRoles...); err != nil {
		return models.SupportTicket{}, err
	}
	ticket, err := s.tickets.Get(ctx, ref)
	if err != nil {
		return models.SupportTicket{}, notFound(err, "ticket", ref)
	}
	if ticket.CreatedBy != sess.UserID && !sess.Role.In(models.StaffRoles...) {
		return models.SupportTicket{}, ErrUnauthorized
	}
	return ticket, nil
}

func (s *TicketService) Get(ctx context.Context, sess models.Session, ref string) (models.SupportTicket, error) {
	return s.get(ctx, sess, ref)
}

func (s *TicketService) List(ctx context.Context, sess models.Session, f models.TicketFilter) ([]models.SupportTicket, error) {
	if err := authorize(sess, models.AllRoles...); err != nil {
		return nil, err
	}
	var filter store.Filter
	if !sess.Role.In(models.StaffRoles...) {
		filter = filter.And(store.Eq("createdBy", sess.UserID))
	}
	if f.Status != "" {
		filter = filter.And(store.Eq("status", f.Status))
	}
	if f.Priority != "" {
		filter = filter.And(store.Eq("priority", f.Priority))
	}
	tickets, err := s.tickets.Find(ctx, filter, store.FindOptions{SortBy: "createdAt", Desc: true})
	return tickets, errors.Wrap(err, "list tickets")
}

func (s *TicketService) Reply(ctx context.Context, sess models.Session, ref string, in models.TicketReplyInput) (models.SupportTicket, error) {
	if err := validation.Struct(in); err != nil {
		return models.SupportTicket{}, err
	}
	ticket, err := s.get(ctx, sess, ref)
	if err != nil {
		return models.SupportTicket{}, err
	}
	if ticket.Status == models.TicketClosed {
		return models.SupportTicket{}, errors.Wrap(ErrInvalidTransition, "ticket is closed")
	}

	ticket.Replies = append(ticket.Replies, models.TicketReply{
		AuthorID:  sess.UserID,
		Message:   in.Message,
		CreatedAt: s.now().UTC(),
	})
	if err = s.tickets.Update(ctx, ticket.ID, store.Set{"replies": ticket.Replies}); err != nil {
		return models.SupportTicket{}, notFound(err, "ticket", ticket.ID)
	}
	return ticket, nil
}

// UpdateStatus moves a ticket along Open -> In Progress -> Resolved -> Closed.
// Open and In Progress tickets may also be closed directly.
func (s *TicketService) UpdateStatus(ctx context.Context, sess models.Session, ref string, su models.TicketStatusUpdate) (models.SupportTicket, error) {
	if err := authorize(sess, models.StaffRoles...); err != nil {
		return models.SupportTicket{}, err
	}
	if err := validation.Struct(su); err != nil {
		return models.SupportTicket{}, err
	}
	ticket, err := s.tickets.Get(ctx, ref)
	if err != nil {
		return models.SupportTicket{}, notFound(err, "ticket", ref)
	}
	if !ticket.Status.CanTransition(su.Status) {
		return models.SupportTicket{}, errors.Wrapf(ErrInvalidTransition, "%s to %s", ticket.Status, su.Status)
	}

	set := store.Set{"status": su.Status}
	if su.AssignedTo != "" {
		set["assignedTo"] = su.AssignedTo
		ticket.AssignedTo = su.AssignedTo
	}
	if err = s.tickets.Update(ctx, ticket.ID, set); err != nil {
		return models.SupportTicket{}, notFound(err, "ticket", ticket.ID)
	}
	s.log.WithFields(logrus.Fields{"ticket_id": ticket.ID, "from": ticket.Status, "to": su.Status}).Info("ticket status changed")
	ticket.Status = su.Status
	return ticket, nil
}

func (s *TicketService) Delete(ctx context.Context, sess models.Session, ref string) (bool, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return false, err
	}
	ticket, err := s.tickets.Get(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get ticket")
	}
	deleted, err := s.tickets.Delete(ctx, ticket.ID)
	return deleted, errors.Wrapf(err, "delete ticket %s", ticket.ID)
}
