// Package mongofilter translates tenant-scoped filters into MongoDB query
// documents. It is the MongoDB adapter for the tenantfilter composition
// capability: dotted field paths map directly onto embedded documents, and
// OR-lists become $or documents with tenant scoping already merged into
// every branch by the engine.
package mongofilter

import (
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/authzkit/pkg/tenantfilter"
)

// ToBSON converts a filter into a bson.D usable with Find, UpdateMany etc.
// An empty filter matches everything; a single clause becomes a flat
// document; multiple clauses become {$or: [...]}. Keys within a clause are
// emitted in sorted order so output is deterministic.
func ToBSON(filter tenantfilter.Filter) bson.D {
	switch len(filter) {
	case 0:
		return bson.D{}
	case 1:
		return criteriaToBSON(filter[0])
	default:
		clauses := make(bson.A, len(filter))
		for i, clause := range filter {
			clauses[i] = criteriaToBSON(clause)
		}
		return bson.D{{Key: "$or", Value: clauses}}
	}
}

func criteriaToBSON(c tenantfilter.Criteria) bson.D {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(c))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: c[k]})
	}
	return doc
}
