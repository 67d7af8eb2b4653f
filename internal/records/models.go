package records

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is a single object in the remote store
type Record struct {
	ID        string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string         `json:"name" yaml:"name"`
	Data      map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	CreatedAt *time.Time     `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// payload is the request body for create and update
type payload struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// deleteResponse is returned by DELETE
type deleteResponse struct {
	Message string `json:"message"`
}

// errorResponse is returned by the store for 4xx responses
type errorResponse struct {
	Error string `json:"error"`
}

// Validate checks a record before it is sent
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("record name cannot be empty")
	}
	return nil
}

// FormatCompact returns a single-line summary
func (r *Record) FormatCompact() string {
	id := r.ID
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("%-6s %s (%d fields)", id, r.Name, len(r.Data))
}

// FormatDetailed returns a multi-line description with data keys sorted
func (r *Record) FormatDetailed() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record %s\n", r.ID)
	fmt.Fprintf(&b, "  Name: %s\n", r.Name)
	if r.CreatedAt != nil {
		fmt.Fprintf(&b, "  Created: %s\n", r.CreatedAt.Format(time.RFC3339))
	}
	if r.UpdatedAt != nil {
		fmt.Fprintf(&b, "  Updated: %s\n", r.UpdatedAt.Format(time.RFC3339))
	}
	if len(r.Data) > 0 {
		b.WriteString("  Data:\n")
		keys := make([]string, 0, len(r.Data))
		for k := range r.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "    %s: %v\n", k, r.Data[k])
		}
	}
	return b.String()
}
