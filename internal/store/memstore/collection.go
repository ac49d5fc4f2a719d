// Package memstore is an in-memory implementation of the document store. Documents
// are kept in their BSON form so filters, unique keys and decoding behave like the
// MongoDB implementation.
package memstore

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arzan03/SchoolDesk/internal/models"
	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Collection[T any, P store.Document[T]] struct {
	mu     sync.RWMutex
	name   string
	docs   []bson.M
	unique [][]string
}

var _ store.Collection[models.User] = (*Collection[models.User, *models.User])(nil)

// NewCollection returns an empty collection enforcing customId uniqueness plus the given unique keys.
func NewCollection[T any, P store.Document[T]](name string, unique ...[]string) *Collection[T, P] {
	keys := append([][]string{{"customId"}}, unique...)
	return &Collection[T, P]{name: name, unique: keys}
}

// NewRepos returns empty collections with the same unique keys as the MongoDB indexes.
func NewRepos() store.Repos {
	u := store.UniqueKeys
	return store.Repos{
		Users:        NewCollection[models.User](store.UsersCollection, u[store.UsersCollection]...),
		Courses:      NewCollection[models.Course](store.CoursesCollection),
		Enrollments:  NewCollection[models.Enrollment](store.EnrollmentsCollection, u[store.EnrollmentsCollection]...),
		Certificates: NewCollection[models.Certificate](store.CertificatesCollection, u[store.CertificatesCollection]...),
		Plans:        NewCollection[models.Plan](store.PlansCollection),
		Payments:     NewCollection[models.Payment](store.PaymentsCollection),
		Tickets:      NewCollection[models.SupportTicket](store.TicketsCollection),
		Leads:        NewCollection[models.Lead](store.LeadsCollection),
		Contents:     NewCollection[models.Content](store.ContentsCollection),
	}
}

func (c *Collection[T, P]) Insert(ctx context.Context, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta := P(doc).Meta()
	if meta.ObjectID.IsZero() {
		meta.ObjectID = primitive.NewObjectID()
	}
	meta.Touch(time.Now().UTC())

	m, err := toDoc(doc)
	if err != nil {
		return errors.Wrapf(err, "insert into %s", c.name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.violatesUnique(m, -1) {
		return store.ErrDuplicate
	}
	c.docs = append(c.docs, m)
	return nil
}

func (c *Collection[T, P]) Get(ctx context.Context, ref string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.docs {
		if d["customId"] == ref {
			return fromDoc[T](d)
		}
		if oid, ok := d["_id"].(primitive.ObjectID); ok && oid.Hex() == ref {
			return fromDoc[T](d)
		}
	}
	return zero, store.ErrNotFound
}

func (c *Collection[T, P]) FindOne(ctx context.Context, filter store.Filter) (T, error) {
	var zero T
	docs, err := c.Find(ctx, filter, store.FindOptions{Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, store.ErrNotFound
	}
	return docs[0], nil
}

func (c *Collection[T, P]) Find(ctx context.Context, filter store.Filter, opts ...store.FindOptions) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	matched := make([]bson.M, 0)
	for _, d := range c.docs {
		if matches(d, filter) {
			matched = append(matched, d)
		}
	}
	c.mu.RUnlock()

	var opt store.FindOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i][opt.SortBy], matched[j][opt.SortBy])
			if opt.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if opt.Skip > 0 {
		if opt.Skip >= int64(len(matched)) {
			matched = matched[:0]
		} else {
			matched = matched[opt.Skip:]
		}
	}
	if opt.Limit > 0 && opt.Limit < int64(len(matched)) {
		matched = matched[:opt.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, d := range matched {
		doc, err := fromDoc[T](d)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", c.name)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *Collection[T, P]) Count(ctx context.Context, filter store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, d := range c.docs {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (c *Collection[T, P]) Update(ctx context.Context, id string, set store.Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if d["customId"] != id {
			continue
		}
		updated := make(bson.M, len(d)+len(set))
		for k, v := range d {
			updated[k] = v
		}
		for k, v := range set {
			nv, err := apply(updated[k], v)
			if err != nil {
				return errors.Wrapf(err, "update %s.%s", c.name, k)
			}
			updated[k] = nv
		}
		updated["updatedAt"] = primitive.NewDateTimeFromTime(time.Now().UTC())
		if c.violatesUnique(updated, i) {
			return store.ErrDuplicate
		}
		c.docs[i] = updated
		return nil
	}
	return store.ErrNotFound
}

func (c *Collection[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if d["customId"] == id {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// violatesUnique must be called with the lock held. skip is the index of the
// document being replaced, -1 on insert.
func (c *Collection[T, P]) violatesUnique(doc bson.M, skip int) bool {
	for _, key := range c.unique {
		for i, other := range c.docs {
			if i == skip {
				continue
			}
			same := true
			for _, f := range key {
				if !equalValues(doc[f], other[f]) {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}

func toDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	err = bson.Unmarshal(raw, &m)
	return m, err
}

func fromDoc[T any](m bson.M) (T, error) {
	var out T
	raw, err := bson.Marshal(m)
	if err != nil {
		return out, err
	}
	err = bson.Unmarshal(raw, &out)
	return out, err
}

// normalize converts a Go value to the form it takes after a BSON round trip.
func normalize(v interface{}) (interface{}, error) {
	m, err := toDoc(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return m["v"], nil
}

// apply computes the new value of a field holding cur.
func apply(cur, v interface{}) (interface{}, error) {
	switch op := v.(type) {
	case store.AddToSet:
		nv, err := normalize(op.Value)
		if err != nil {
			return nil, err
		}
		var arr primitive.A
		switch a := cur.(type) {
		case nil:
		case primitive.A:
			arr = a
		default:
			return nil, errors.Errorf("cannot add to non-array %T", cur)
		}
		for _, have := range arr {
			if equalValues(have, nv) {
				return arr, nil
			}
		}
		out := make(primitive.A, len(arr), len(arr)+1)
		copy(out, arr)
		return append(out, nv), nil
	case store.Max:
		nv, err := normalize(op.Value)
		if err != nil {
			return nil, err
		}
		if cur != nil && compareValues(cur, nv) >= 0 {
			return cur, nil
		}
		return nv, nil
	}
	return normalize(v)
}

func matches(doc bson.M, filter store.Filter) bool {
	for _, cond := range filter {
		if !matchCond(doc, cond) {
			return false
		}
	}
	return true
}

func matchCond(doc bson.M, cond store.Cond) bool {
	switch cond.Op {
	case store.OpEq:
		want, err := normalize(cond.Value)
		return err == nil && equalValues(doc[cond.Field], want)
	case store.OpIn:
		for _, v := range cond.Values {
			want, err := normalize(v)
			if err == nil && equalValues(doc[cond.Field], want) {
				return true
			}
		}
		return false
	case store.OpContains:
		return containsFold(doc[cond.Field], cond.Value)
	case store.OpSearch:
		for _, f := range cond.Fields {
			if containsFold(doc[f], cond.Value) {
				return true
			}
		}
		return false
	}
	return false
}

func containsFold(v, sub interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	needle, _ := sub.(string)
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}

func equalValues(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues orders nil first, then numbers, strings and dates by value.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmpOrdered(fa, fb)
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return cmpOrdered(int64(av), int64(bv))
		}
	case bool:
		if bv, ok := b.(bool); ok && av != bv {
			if av {
				return 1
			}
			return -1
		}
	}
	return 0
}

func cmpOrdered[V int64 | float64](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
