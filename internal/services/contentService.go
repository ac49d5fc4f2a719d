package services

import (
	"context"
	"regexp"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/arzan03/SchoolDesk/internal/validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type ContentService struct {
	contents store.Collection[models.Content]
	log      logrus.FieldLogger
}

func NewContentService(contents store.Collection[models.Content], log logrus.FieldLogger) *ContentService {
	return &ContentService{contents: contents, log: log}
}

// Upsert creates or replaces the content stored under slug.
func (s *ContentService) Upsert(ctx context.Context, sess models.Session, slug string, in models.ContentInput) (models.Content, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return models.Content{}, err
	}
	if !slugPattern.MatchString(slug) {
		return models.Content{}, validation.NewFieldError("slug", "slug must be lowercase words separated by hyphens")
	}
	if err := validation.Struct(in); err != nil {
		return models.Content{}, err
	}

	set := store.Set{"title": in.Title, "section": in.Section, "body": in.Body, "published": in.Published}
	err := s.contents.Update(ctx, slug, set)
	if errors.Is(err, store.ErrNotFound) {
		content := models.Content{
			Base:      models.Base{ID: slug},
			Title:     in.Title,
			Section:   in.Section,
			Body:      in.Body,
			Published: in.Published,
		}
		err = s.contents.Insert(ctx, &content)
		if errors.Is(err, store.ErrDuplicate) {
			// created concurrently, overwrite it
			err = s.contents.Update(ctx, slug, set)
		}
	}
	if err != nil {
		return models.Content{}, errors.Wrapf(err, "save content %s", slug)
	}

	s.log.WithFields(logrus.Fields{"slug": slug, "by": sess.UserID}).Info("content saved")
	content, err := s.contents.Get(ctx, slug)
	if err != nil {
		return models.Content{}, notFound(err, "content", slug)
	}
	return content, nil
}

// Published returns a published page for public display.
func (s *ContentService) Published(ctx context.Context, slug string) (models.Content, error) {
	content, err := s.contents.FindOne(ctx, store.Where(store.Eq("customId", slug), store.Eq("published", true)))
	if err != nil {
		return models.Content{}, notFound(err, "content", slug)
	}
	return content, nil
}

// List returns published content of a section, or everything for superadmins.
func (s *ContentService) List(ctx context.Context, sess models.Session, section string) ([]models.Content, error) {
	var filter store.Filter
	if sess.Role != models.RoleSuperAdmin {
		filter = filter.And(store.Eq("published", true))
	}
	if section != "" {
		filter = filter.And(store.Eq("section", section))
	}
	list, err := s.contents.Find(ctx, filter, store.FindOptions{SortBy: "customId"})
	return list, errors.Wrap(err, "list content")
}

func (s *ContentService) Delete(ctx context.Context, sess models.Session, slug string) (bool, error) {
	if err := authorize(sess, models.AdminOnly...); err != nil {
		return false, err
	}
	deleted, err := s.contents.Delete(ctx, slug)
	return deleted, errors.Wrapf(err, "delete content %s", slug)
}
