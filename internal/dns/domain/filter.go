package domain

import "strings"

// Scope limits how far below the base a search reaches.
type Scope int

const (
	ScopeBase     Scope = iota // the base entry only
	ScopeOneLevel              // immediate children of the base
	ScopeSubtree               // the base and all descendants
)

// Filter selects entries during a search.
type Filter interface {
	Match(e Entry) bool
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(e Entry) bool

// Match implements Filter.
func (f FilterFunc) Match(e Entry) bool { return f(e) }

// MatchAll matches every entry.
func MatchAll() Filter {
	return FilterFunc(func(Entry) bool { return true })
}

// Equal matches entries where attr holds value (case-insensitive).
func Equal(attr, value string) Filter {
	return FilterFunc(func(e Entry) bool { return e.ContainsValue(attr, value) })
}

// Present matches entries carrying attr.
func Present(attr string) Filter {
	return FilterFunc(func(e Entry) bool { return e.Has(attr) })
}

// Substring matches entries where some value of attr contains sub (case-insensitive).
func Substring(attr, sub string) Filter {
	sub = strings.ToLower(sub)
	return FilterFunc(func(e Entry) bool {
		for _, v := range e.Get(attr) {
			if strings.Contains(strings.ToLower(v), sub) {
				return true
			}
		}
		return false
	})
}

// And matches when all filters match.
func And(filters ...Filter) Filter {
	return FilterFunc(func(e Entry) bool {
		for _, f := range filters {
			if !f.Match(e) {
				return false
			}
		}
		return true
	})
}

// Or matches when any filter matches.
func Or(filters ...Filter) Filter {
	return FilterFunc(func(e Entry) bool {
		for _, f := range filters {
			if f.Match(e) {
				return true
			}
		}
		return false
	})
}

// Not inverts a filter.
func Not(f Filter) Filter {
	return FilterFunc(func(e Entry) bool { return !f.Match(e) })
}

// SearchRequest describes a directory search. SizeLimit <= 0 means unlimited.
type SearchRequest struct {
	Base      DN
	Scope     Scope
	Filter    Filter
	SizeLimit int
}

// SearchResult holds matching entries in key order and whether the size limit cut them short.
type SearchResult struct {
	Entries   []Entry
	Truncated bool
}

// InScope reports whether dn falls inside the request's base and scope.
func (r SearchRequest) InScope(dn DN) bool {
	switch r.Scope {
	case ScopeBase:
		return dn.Equal(r.Base)
	case ScopeOneLevel:
		return len(dn) == len(r.Base)+1 && dn.IsDescendantOf(r.Base)
	default:
		return dn.Equal(r.Base) || dn.IsDescendantOf(r.Base)
	}
}

// Matches reports whether e passes the request's filter (nil filter matches all).
func (r SearchRequest) Matches(e Entry) bool {
	return r.Filter == nil || r.Filter.Match(e)
}
