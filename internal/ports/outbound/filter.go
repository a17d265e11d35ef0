package outbound

import (
	"fmt"
	"strings"
)

// Filter selects records for ListAll.
//
// Airtable's formula language cannot be trusted on link columns, so a filter
// only contributes a server formula when it is safe to do so; Match is always
// applied to the fetched rows. Callers never need to know which case applies.
type Filter interface {
	// Formula returns a filterByFormula expression, or "" when the filter must run locally
	Formula() string
	Match(r Record) bool
}

// LinkContains matches rows whose link column contains id
func LinkContains(field, id string) Filter {
	return linkFilter{field: field, ids: map[string]struct{}{id: {}}}
}

// LinkAny matches rows whose link column references at least one of ids
func LinkAny(field string, ids ...string) Filter {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return linkFilter{field: field, ids: set}
}

type linkFilter struct {
	field string
	ids   map[string]struct{}
}

func (f linkFilter) Formula() string { return "" }

func (f linkFilter) Match(r Record) bool {
	for _, link := range r.Fields.Links(f.field) {
		if _, ok := f.ids[link]; ok {
			return true
		}
	}
	return false
}

// fieldEquals matches rows whose scalar column equals value.
// Scalar comparisons are pushed to the server.
func fieldEquals(field, value string) Filter {
	return equalsFilter{field: field, value: value}
}

type equalsFilter struct {
	field string
	value string
}

func (f equalsFilter) Formula() string {
	return fmt.Sprintf("{%s} = '%s'", f.field, escapeFormulaString(f.value))
}

func (f equalsFilter) Match(r Record) bool {
	return r.Fields.String(f.field) == f.value
}

// allOf matches rows accepted by every filter
func allOf(filters ...Filter) Filter {
	return andFilter(filters)
}

type andFilter []Filter

func (a andFilter) Formula() string {
	var parts []string
	for _, f := range a {
		if formula := f.Formula(); formula != "" {
			parts = append(parts, formula)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "AND(" + strings.Join(parts, ", ") + ")"
	}
}

func (a andFilter) Match(r Record) bool {
	for _, f := range a {
		if !f.Match(r) {
			return false
		}
	}
	return true
}

// Apply keeps the records accepted by filter
func Apply(records []Record, filter Filter) []Record {
	if filter == nil {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func escapeFormulaString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
