package report

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// Action is the kind of change applied to a resource
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionUpdate Action = "UPDATE"
	ActionRemove Action = "REMOVE"
)

// Valid reports whether a is one of the known actions
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionUpdate, ActionRemove:
		return true
	}
	return false
}

// ChangeReport is the structured output of the infrastructure diff step
type ChangeReport struct {
	Stacks []Stack `json:"stacks"`
}

// Stack groups the resource changes of one deployable stack
type Stack struct {
	Name      string           `json:"name"`
	Resources []ResourceChange `json:"resources"`
}

// ResourceChange describes a single changed resource
type ResourceChange struct {
	LogicalID  string           `json:"logicalId"`
	Type       string           `json:"type"`
	Action     Action           `json:"action"`
	Properties []PropertyChange `json:"properties,omitempty"`
}

// PropertyChange is one changed property of a resource
type PropertyChange struct {
	Name     string `json:"name"`
	OldValue *Value `json:"oldValue,omitempty"`
	NewValue *Value `json:"newValue,omitempty"`
	Impact   string `json:"impact,omitempty"`
}

// Value holds a raw JSON property value as emitted by the diff tool
type Value struct {
	raw json.RawMessage
}

// NewValue builds a Value from any JSON-encodable value
func NewValue(v interface{}) *Value {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return &Value{raw: data}
}

// UnmarshalJSON keeps the raw bytes so numbers and objects survive untouched
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

// MarshalJSON writes the raw bytes back out
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// String renders the value for filters and change details. Strings are
// unquoted, everything else is the compact JSON literal.
func (v *Value) String() string {
	if v == nil || len(v.raw) == 0 {
		return ""
	}
	trimmed := bytes.TrimSpace(v.raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// nullLike are the string forms diff tools use for "no value"
var nullLike = map[string]bool{
	"":          true,
	"null":      true,
	"undefined": true,
	"None":      true,
	"<nil>":     true,
}

// IsEmpty reports whether the value is absent, JSON null or a null-like string
func (v *Value) IsEmpty() bool {
	if v == nil {
		return true
	}
	return nullLike[strings.TrimSpace(v.String())]
}

// Decode reads a change report from r. The report is not validated.
func Decode(r io.Reader) (*ChangeReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read change report: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("change report is empty")
	}

	var cr ChangeReport
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("failed to parse change report: %w", err)
	}
	return &cr, nil
}

// Validate checks the structural invariants of the report
func (cr *ChangeReport) Validate() error {
	if cr == nil {
		return fmt.Errorf("change report is nil")
	}
	for i, stack := range cr.Stacks {
		if strings.TrimSpace(stack.Name) == "" {
			return fmt.Errorf("stack %d has no name", i)
		}
		seen := make(map[string]bool, len(stack.Resources))
		for j, res := range stack.Resources {
			if res.LogicalID == "" {
				return fmt.Errorf("stack %q: resource %d has no logical id", stack.Name, j)
			}
			if seen[res.LogicalID] {
				return fmt.Errorf("stack %q: duplicate logical id %q", stack.Name, res.LogicalID)
			}
			seen[res.LogicalID] = true
			if res.Type == "" {
				return fmt.Errorf("stack %q: resource %q has no type", stack.Name, res.LogicalID)
			}
			if !res.Action.Valid() {
				return fmt.Errorf("stack %q: resource %q has unknown action %q", stack.Name, res.LogicalID, res.Action)
			}
			for k, prop := range res.Properties {
				if prop.Name == "" {
					return fmt.Errorf("stack %q: resource %q property %d has no name", stack.Name, res.LogicalID, k)
				}
			}
		}
	}
	return nil
}

// ResourceCount returns the number of resource changes across all stacks
func (cr *ChangeReport) ResourceCount() int {
	n := 0
	for _, stack := range cr.Stacks {
		n += len(stack.Resources)
	}
	return n
}

// HasChanges reports whether the stack carries at least one resource change
func (s Stack) HasChanges() bool {
	return len(s.Resources) > 0
}

// Property returns the named property change, if present
func (rc ResourceChange) Property(name string) (*PropertyChange, bool) {
	for i := range rc.Properties {
		if rc.Properties[i].Name == name {
			return &rc.Properties[i], true
		}
	}
	return nil, false
}

// cdkHashSuffix matches the 8 hex digit hash CDK appends to logical ids.
// The hash must follow a character that is not an upper-case hex digit.
var cdkHashSuffix = regexp.MustCompile(`^(.*[^0-9A-F])[0-9A-F]{8}$`)

// CleanLogicalID strips the generated hash suffix from a logical id.
// Any id ending in 8 upper-case hex digits after a non-hex character is
// taken to be hashed, so "Server12345678" becomes "Server" while
// "ABCDEF0123" is left alone.
func CleanLogicalID(id string) string {
	if m := cdkHashSuffix.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return id
}

// ShortType drops the vendor prefix of a namespaced type tag.
// "AWS::EC2::Instance" becomes "EC2::Instance".
func ShortType(t string) string {
	parts := strings.Split(t, "::")
	if len(parts) < 3 {
		return t
	}
	return strings.Join(parts[1:], "::")
}
