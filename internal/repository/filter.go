package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/domain"
)

// Filter is one typed query predicate. The tagged variants replace the
// dynamic keyword-argument filtering the collections used to be queried with.
type Filter interface {
	apply(bson.M)
}

type eqFilter struct {
	field string
	value interface{}
}

func (f eqFilter) apply(m bson.M) { m[f.field] = f.value }

// Eq matches documents whose field equals value exactly.
func Eq(field string, value interface{}) Filter {
	return eqFilter{field: field, value: value}
}

type rangeFilter struct {
	field string
	rng   domain.TimeRange
}

func (f rangeFilter) apply(m bson.M) {
	cond := bson.M{}
	if f.rng.HasStart() {
		cond["$gte"] = f.rng.Start
	}
	if f.rng.HasEnd() {
		cond["$lte"] = f.rng.End
	}
	if len(cond) > 0 {
		m[f.field] = cond
	}
}

// InRange matches documents whose time field falls inside the range;
// open-ended sides are left unconstrained.
func InRange(field string, rng domain.TimeRange) Filter {
	return rangeFilter{field: field, rng: rng}
}

// Query is a set of predicates plus an optional ascending sort order.
type Query struct {
	filters []Filter
	sort    []string
}

func NewQuery(filters ...Filter) Query {
	return Query{filters: filters}
}

func (q Query) SortBy(fields ...string) Query {
	q.sort = fields
	return q
}

func (q Query) selector() bson.M {
	m := bson.M{}
	for _, f := range q.filters {
		f.apply(m)
	}
	return m
}

func (q Query) findOptions() *options.FindOptions {
	opts := options.Find()
	if len(q.sort) > 0 {
		sort := bson.D{}
		for _, f := range q.sort {
			sort = append(sort, bson.E{Key: f, Value: 1})
		}
		opts.SetSort(sort)
	}
	return opts
}
