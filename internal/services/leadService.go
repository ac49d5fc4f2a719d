package services

import (
	"context"
	"strings"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type LeadService struct {
	leads store.Collection[models.Lead]
	log   logrus.FieldLogger
}

func NewLeadService(leads store.Collection[models.Lead], log logrus.FieldLogger) *LeadService {
	return &LeadService{leads: leads, log: log}
}

// Create stores a contact-form submission. No session is required.
func (s *LeadService) Create(ctx context.Context, nl models.NewLead) (models.Lead, error) {
	if err := validation.Struct(nl); err != nil {
		return models.Lead{}, err
	}
	lead := models.Lead{
		Base:         models.Base{ID: models.NewID("LED")},
		Name:         strings.TrimSpace(nl.Name),
		Email:        NormalizeEmail(nl.Email),
		Phone:        nl.Phone,
		Organization: nl.Organization,
		Source:       nl.Source,
		Message:      nl.Message,
		Status:       models.LeadNew,
	}
	if err := s.leads.Insert(ctx, &lead); err != nil {
		return models.Lead{}, errors.Wrap(err, "create lead")
	}
	s.log.WithFields(logrus.Fields{"lead_id": lead.ID, "source": lead.Source}).Info("lead captured")
	return lead, nil
}

func (s *LeadService) List(ctx context.Context, sess models.Session, f models.LeadFilter) ([]models.Lead, error) {
	if err := authorize(sess, models.StaffRoles...); err != nil {
		return nil, err
	}
	var filter store.Filter
	if f.Status != "" {
		filter = filter.And(store.Eq("status", f.Status))
	}
	if f.Search != "" {
		filter = filter.And(store.Search(f.Search, "name", "email", "organization"))
	}
	leads, err := s.leads.Find(ctx, filter, store.FindOptions{SortBy: "createdAt", Desc: true})
	return leads, errors.Wrap(err, "list leads")
}

func (s *LeadService) Get(ctx context.Context, sess models.Session, ref string) (models.Lead, error) {
	if err := authorize(sess, models.StaffRoles...); err != nil {
		return models.Lead{}, err
	}
	lead, err := s.leads.Get(ctx, ref)
	if err != nil {
		return models.Lead{}, notFound(err, "lead", ref)
	}
	return lead, nil
}

// Update changes a lead's status or notes. Any status may follow any other.
func (s *LeadService) Update(ctx context.Context, sess models.Session, ref string, lu models.LeadUpdate) (models.Lead, error) {
	lead, err := s.Get(ctx, sess, ref)
	if err != nil {
		return models.Lead{}, err
	}
	if err = validation.Struct(lu); err != nil {
		return models.Lead{}, err
	}

	set := store.Set{}
	if lu.Status != "" {
		set["status"] = lu.Status
		lead.Status = lu.Status
	}
	if lu.Notes != nil {
		set["notes"] = *lu.Notes
		lead.Notes = *lu.Notes
	}
	if lu.Phone != nil {
		set["phone"] = *lu.Phone
		lead.Phone = *lu.Phone
	}
	if len(set) == 0 {
		return lead, nil
	}
	if err = s.leads.Update(ctx, lead.ID, set); err != nil {
		return models.Lead{}, notFound(err, "lead", lead.ID)
	}
	return lead, nil
}

func (s *LeadService) Delete(ctx context.Context, sess models.Session, ref string) (bool, error) {
	if err := authorize(sess, models.StaffRoles...); err != nil {
		return false, err
	}
	lead, err := s.leads.Get(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get lead")
	}
	deleted, err := s.leads.Delete(ctx, lead.ID)
	return deleted, errors.Wrapf(err, "delete lead %s", lead.ID)
}
