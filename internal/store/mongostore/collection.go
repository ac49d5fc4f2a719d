package mongostore

import (
	"context"
	"regexp"
	"time"

	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection implements store.Collection on a MongoDB collection.
type Collection[T any, P store.Document[T]] struct {
	coll *mongo.Collection
}

func NewCollection[T any, P store.Document[T]](db *mongo.Database, name string) *Collection[T, P] {
	return &Collection[T, P]{coll: db.Collection(name)}
}

func (c *Collection[T, P]) Insert(ctx context.Context, doc *T) error {
	meta := P(doc).Meta()
	if meta.ObjectID.IsZero() {
		meta.ObjectID = primitive.NewObjectID()
	}
	meta.Touch(time.Now().UTC())

	_, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return errors.Wrapf(err, "insert into %s", c.coll.Name())
}

func (c *Collection[T, P]) Get(ctx context.Context, ref string) (T, error) {
	filter := bson.M{"customId": ref}
	if oid, err := primitive.ObjectIDFromHex(ref); err == nil {
		filter = bson.M{"$or": bson.A{bson.M{"_id": oid}, bson.M{"customId": ref}}}
	}
	return c.findOne(ctx, filter)
}

func (c *Collection[T, P]) FindOne(ctx context.Context, filter store.Filter) (T, error) {
	return c.findOne(ctx, toBSON(filter))
}

func (c *Collection[T, P]) findOne(ctx context.Context, filter bson.M) (T, error) {
	var doc T
	err := c.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, store.ErrNotFound
	}
	return doc, errors.Wrapf(err, "find in %s", c.coll.Name())
}

func (c *Collection[T, P]) Find(ctx context.Context, filter store.Filter, opts ...store.FindOptions) ([]T, error) {
	findOpts := options.Find()
	for _, o := range opts {
		if o.SortBy != "" {
			dir := 1
			if o.Desc {
				dir = -1
			}
			findOpts.SetSort(bson.D{{Key: o.SortBy, Value: dir}})
		}
		if o.Limit > 0 {
			findOpts.SetLimit(o.Limit)
		}
		if o.Skip > 0 {
			findOpts.SetSkip(o.Skip)
		}
	}

	cursor, err := c.coll.Find(ctx, toBSON(filter), findOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "find in %s", c.coll.Name())
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode %s", c.coll.Name())
	}
	return docs, nil
}

func (c *Collection[T, P]) Count(ctx context.Context, filter store.Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, toBSON(filter))
	return n, errors.Wrapf(err, "count %s", c.coll.Name())
}

func (c *Collection[T, P]) Update(ctx context.Context, id string, set store.Set) error {
	res, err := c.coll.UpdateOne(ctx, bson.M{"customId": id}, toUpdate(set))
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return errors.Wrapf(err, "update %s", c.coll.Name())
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Collection[T, P]) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{"customId": id})
	if err != nil {
		return false, errors.Wrapf(err, "delete from %s", c.coll.Name())
	}
	return res.DeletedCount > 0, nil
}

// toBSON translates a store.Filter into a MongoDB query document.
func toBSON(filter store.Filter) bson.M {
	parts := make(bson.A, 0, len(filter))
	for _, cond := range filter {
		switch cond.Op {
		case store.OpEq:
			parts = append(parts, bson.M{cond.Field: cond.Value})
		case store.OpIn:
			parts = append(parts, bson.M{cond.Field: bson.M{"$in": cond.Values}})
		case store.OpContains:
			parts = append(parts, bson.M{cond.Field: containsRegex(cond.Value)})
		case store.OpSearch:
			or := make(bson.A, 0, len(cond.Fields))
			for _, f := range cond.Fields {
				or = append(or, bson.M{f: containsRegex(cond.Value)})
			}
			parts = append(parts, bson.M{"$or": or})
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0].(bson.M)
	default:
		return bson.M{"$and": parts}
	}
}

func containsRegex(v interface{}) primitive.Regex {
	s, _ := v.(string)
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// toUpdate splits set into $set, $addToSet and $max clauses.
func toUpdate(set store.Set) bson.M {
	fields := bson.M{"updatedAt": time.Now().UTC()}
	update := bson.M{"$set": fields}
	clause := func(op, k string, v interface{}) {
		m, ok := update[op].(bson.M)
		if !ok {
			m = bson.M{}
			update[op] = m
		}
		m[k] = v
	}
	for k, v := range set {
		switch op := v.(type) {
		case store.AddToSet:
			clause("$addToSet", k, op.Value)
		case store.Max:
			clause("$max", k, op.Value)
		default:
			fields[k] = v
		}
	}
	return update
}
