package records

import (
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Sanitize strips any markup from a user-entered value. The result is plain
// text, so the entities the policy escapes are decoded again.
func Sanitize(value string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(value)))
}

// FromSubmission builds a record from the aggregated values of a submitted
// wizard. values is keyed group -> field -> value and secret lists the
// group-qualified names ("account.password") that must not leave the
// process. Groups are flattened into "group.field" data keys.
func FromSubmission(name string, values map[string]map[string]string, secret []string) *Record {
	drop := make(map[string]bool, len(secret))
	for _, s := range secret {
		drop[s] = true
	}

	groups := make([]string, 0, len(values))
	for g := range values {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	data := make(map[string]any)
	for _, g := range groups {
		for f, v := range values[g] {
			key := g + "." + f
			if drop[key] {
				continue
			}
			data[key] = Sanitize(v)
		}
	}

	return &Record{Name: Sanitize(name), Data: data}
}

// FromList builds a record from a submitted list form. Scalar values are
// sanitised in place; string slices are sanitised element by element.
func FromList(name string, values map[string]any) *Record {
	data := make(map[string]any, len(values))
	for k, v := range values {
		switch tv := v.(type) {
		case string:
			data[k] = Sanitize(tv)
		case []string:
			clean := make([]string, len(tv))
			for i, s := range tv {
				clean[i] = Sanitize(s)
			}
			data[k] = clean
		default:
			data[k] = v
		}
	}
	return &Record{Name: Sanitize(name), Data: data}
}
