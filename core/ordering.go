package core

import "strings"

type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrderings reads "field,-other" into Orderings; a "-" prefix means descending.
// Fields not in allowed are dropped.
func ParseOrderings(s string, allowed ...string) []Ordering {
	if s == "" {
		return nil
	}
	var ords []Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" || !contains(allowed, field) {
			continue
		}
		ords = append(ords, Ordering{Field: field, Ascending: !descending})
	}
	return ords
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
