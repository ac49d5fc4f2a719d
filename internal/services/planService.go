package services

import (
	"context"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type PlanService struct {
	plans store.Collection[models.Plan]
	log   logrus.FieldLogger
}

func NewPlanService(plans store.Collection[models.Plan], log logrus.FieldLogger) *PlanService {
	return &PlanService{plans: plans, log: log}
}

func (s *PlanService) Create(ctx context.Context, sess models.Session, np models.NewPlan) (models.Plan, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.Plan{}, err
	}
	if err := validation.Struct(np); err != nil {
		return models.Plan{}, err
	}
	features := np.Features
	if features == nil {
		features = []string{}
	}
	plan := models.Plan{
		Base:         models.Base{ID: models.NewID("PLN")},
		Name:         np.Name,
		Description:  np.Description,
		Price:        np.Price,
		DurationDays: np.DurationDays,
		Features:     features,
		Active:       np.Active,
	}
	if err := s.plans.Insert(ctx, &plan); err != nil {
		return models.Plan{}, errors.Wrap(err, "create plan")
	}
	s.log.WithField("plan_id", plan.ID).Info("plan created")
	return plan, nil
}

// ListActive is the public plan catalogue.
func (s *PlanService) ListActive(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.plans.Find(ctx, store.Where(store.Eq("active", true)), store.FindOptions{SortBy: "price"})
	return plans, errors.Wrap(err, "list plans")
}

func (s *PlanService) List(ctx context.Context, sess models.Session) ([]models.Plan, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return nil, err
	}
	plans, err := s.plans.Find(ctx, nil, store.FindOptions{SortBy: "price"})
	return plans, errors.Wrap(err, "list plans")
}

func (s *PlanService) Update(ctx context.Context, sess models.Session, ref string, pu models.PlanUpdate) (models.Plan, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.Plan{}, err
	}
	if err := validation.Struct(pu); err != nil {
		return models.Plan{}, err
	}
	plan, err := s.plans.Get(ctx, ref)
	if err != nil {
		return models.Plan{}, notFound(err, "plan", ref)
	}

	set := store.Set{}
	if pu.Name != nil {
		set["name"] = *pu.Name
	}
	if pu.Description != nil {
		set["description"] = *pu.Description
	}
	if pu.Price != nil {
		set["price"] = *pu.Price
	}
	if pu.DurationDays != nil {
		set["durationDays"] = *pu.DurationDays
	}
	if pu.Features != nil {
		set["features"] = pu.Features
	}
	if pu.Active != nil {
		set["active"] = *pu.Active
	}
	if len(set) == 0 {
		return plan, nil
	}
	if err = s.plans.Update(ctx, plan.ID, set); err != nil {
		return models.Plan{}, notFound(err, "plan", plan.ID)
	}
	updated, err := s.plans.Get(ctx, plan.ID)
	if err != nil {
		return models.Plan{}, notFound(err, "plan", plan.ID)
	}
	return updated, nil
}

func (s *PlanService) Delete(ctx context.Context, sess models.Session, ref string) (bool, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return false, err
	}
	plan, err := s.plans.Get(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get plan")
	}
	deleted, err := s.plans.Delete(ctx, plan.ID)
	return deleted, errors.Wrapf(err, "delete plan %s", plan.ID)
}
