package state

import (
	"maps"
	"slices"

	"github.com/medilabo/webapp/internal/model"
)

// FallbackError is stored when a rejection carries no message.
const FallbackError = "Une erreur est survenue"

// Meta is the request bookkeeping shared by every slice scope.
type Meta struct {
	Loading     bool
	Loaded      bool
	Error       string
	FieldErrors map[string]string
}

func (m *Meta) pending() {
	m.Loading = true
	m.Error = ""
	m.FieldErrors = nil
}

func (m *Meta) fulfilled() {
	m.Loading = false
	m.Loaded = true
	m.Error = ""
	m.FieldErrors = nil
}

func (m *Meta) rejected(err *model.APIError) {
	m.Loading = false
	m.Error = FallbackError
	m.FieldErrors = nil
	if err == nil {
		return
	}
	if err.Message != "" {
		m.Error = err.Message
	}
	m.FieldErrors = maps.Clone(err.FieldErrors)
}

func (m *Meta) clearErrors() {
	m.Error = ""
	m.FieldErrors = nil
}

func (m Meta) clone() Meta {
	m.FieldErrors = maps.Clone(m.FieldErrors)
	return m
}

// FieldError returns the message attached to field, if any.
func (m Meta) FieldError(field string) string {
	return m.FieldErrors[field]
}

// ResourceState is a single value with its request state.
type ResourceState[T any] struct {
	Meta
	Data T
}

func (r *ResourceState[T]) apply(o Outcome[T]) {
	switch o.Phase {
	case Pending:
		r.pending()
	case Fulfilled:
		r.fulfilled()
		r.Data = o.Value
	case Rejected:
		r.rejected(o.Err)
	}
}

func (r ResourceState[T]) clone() ResourceState[T] {
	r.Meta = r.Meta.clone()
	return r
}

// CollectionState is a list of entities plus the focused one. The list
// scope and Current track their requests separately.
type CollectionState[T model.Entity] struct {
	Meta
	List    []T
	Current ResourceState[T]
}

// Find returns the entity with id from List.
func (c CollectionState[T]) Find(id string) (T, bool) {
	for _, e := range c.List {
		if e.EntityID() == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

func (c *CollectionState[T]) applyList(o Outcome[[]T]) {
	switch o.Phase {
	case Pending:
		c.pending()
	case Fulfilled:
		c.fulfilled()
		c.List = o.Value
	case Rejected:
		c.rejected(o.Err)
	}
}

func (c *CollectionState[T]) applyCurrent(o Outcome[T]) {
	c.Current.apply(o)
}

func (c *CollectionState[T]) applyCreate(o Outcome[T]) {
	c.Current.apply(o)
	if o.Phase == Fulfilled {
		c.List = append(c.List, o.Value)
	}
}

func (c *CollectionState[T]) applyUpdate(o Outcome[T]) {
	c.Current.apply(o)
	if o.Phase != Fulfilled {
		return
	}
	id := o.Value.EntityID()
	for i, e := range c.List {
		if e.EntityID() == id {
			c.List[i] = o.Value
		}
	}
}

// applyDelete removes by the requested id, not by anything in the response.
func (c *CollectionState[T]) applyDelete(id string, o Outcome[string]) {
	switch o.Phase {
	case Pending:
		c.Current.pending()
	case Fulfilled:
		c.Current = ResourceState[T]{}
		c.List = slices.DeleteFunc(c.List, func(e T) bool { return e.EntityID() == id })
	case Rejected:
		c.Current.rejected(o.Err)
	}
}

// applyCommand tracks an operation on Current that returns no entity.
func (c *CollectionState[T]) applyCommand(o Outcome[string]) {
	switch o.Phase {
	case Pending:
		c.Current.pending()
	case Fulfilled:
		c.Current.Loading = false
		c.Current.Loaded = true
		c.Current.Error = ""
	case Rejected:
		c.Current.rejected(o.Err)
	}
}

func (c CollectionState[T]) clone() CollectionState[T] {
	c.Meta = c.Meta.clone()
	c.List = slices.Clone(c.List)
	c.Current = c.Current.clone()
	return c
}
