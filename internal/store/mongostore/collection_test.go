package mongostore

import (
	"testing"

	"github.com/arzan03/SchoolDesk/internal/store"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToBSON(t *testing.T) {
	tests := []struct {
		name   string
		filter store.Filter
		want   bson.M
	}{
		{name: "empty", filter: nil, want: bson.M{}},
		{
			name:   "single eq",
			filter: store.Where(store.Eq("role", "student")),
			want:   bson.M{"role": "student"},
		},
		{
			name:   "in",
			filter: store.Where(store.In("studentId", "STU-1", "STU-2")),
			want:   bson.M{"studentId": bson.M{"$in": []interface{}{"STU-1", "STU-2"}}},
		},
		{
			name:   "and",
			filter: store.Where(store.Eq("studentId", "STU-1"), store.Eq("courseId", "CRS-1")),
			want: bson.M{"$and": bson.A{
				bson.M{"studentId": "STU-1"},
				bson.M{"courseId": "CRS-1"},
			}},
		},
		{
			name:   "search escapes regex",
			filter: store.Where(store.Search("a.b", "name", "email")),
			want: bson.M{"$or": bson.A{
				bson.M{"name": primitive.Regex{Pattern: `a\.b`, Options: "i"}},
				bson.M{"email": primitive.Regex{Pattern: `a\.b`, Options: "i"}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toBSON(tt.filter))
		})
	}
}

func TestToUpdate(t *testing.T) {
	update := toUpdate(store.Set{
		"status":           "Completed",
		"completedLessons": store.AddToSet{Value: "L1"},
		"progress":         store.Max{Value: 50},
	})
	set, ok := update["$set"].(bson.M)
	if assert.True(t, ok) {
		assert.Equal(t, "Completed", set["status"])
		assert.Contains(t, set, "updatedAt")
	}
	assert.Equal(t, bson.M{"completedLessons": "L1"}, update["$addToSet"])
	assert.Equal(t, bson.M{"progress": 50}, update["$max"])

	plain := toUpdate(store.Set{"grade": "9"})
	assert.NotContains(t, plain, "$addToSet")
	assert.NotContains(t, plain, "$max")
}
