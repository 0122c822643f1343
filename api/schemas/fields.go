package schemas

import "strings"

// FieldKind is the closed set of interactive control categories the fill
// pipeline distinguishes. Every discovered element is bucketed into
// exactly one kind; dispatch over kinds is exhaustive.
type FieldKind int

const (
	KindTextLike FieldKind = iota
	KindSelect
	KindChoiceGroup
	KindCheckbox
	KindFileUpload
	KindEditableRegion
)

func (k FieldKind) String() string {
	switch k {
	case KindTextLike:
		return "text"
	case KindSelect:
		return "select"
	case KindChoiceGroup:
		return "choice_group"
	case KindCheckbox:
		return "checkbox"
	case KindFileUpload:
		return "file_upload"
	case KindEditableRegion:
		return "editable_region"
	default:
		return "unknown"
	}
}

// SelectOption is one choice of an enumerated control.
type SelectOption struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Element is the engine's view of one interactive page control: a stable
// selector for targeting it plus the textual context the classifier
// scores and the constraints the resolver honours.
type Element struct {
	Selector string    `json:"selector"`
	Kind     FieldKind `json:"kind"`

	TagName     string            `json:"tagName"`
	InputType   string            `json:"inputType,omitempty"`
	Name        string            `json:"name,omitempty"`
	ID          string            `json:"id,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	LabelText   string            `json:"labelText,omitempty"`
	AriaLabel   string            `json:"ariaLabel,omitempty"`
	ClassList   string            `json:"classList,omitempty"`
	NearbyText  string            `json:"nearbyText,omitempty"`
	DataAttrs   map[string]string `json:"dataAttrs,omitempty"`

	Required  bool           `json:"required,omitempty"`
	MaxLength int            `json:"maxLength,omitempty"`
	Pattern   string         `json:"pattern,omitempty"`
	Options   []SelectOption `json:"options,omitempty"`

	// FormSelector identifies the enclosing form container; elements with
	// the same value fill together in document order.
	FormSelector string `json:"formSelector,omitempty"`
	// GroupName is the shared name of a radio group.
	GroupName string `json:"groupName,omitempty"`
}

// ContextString assembles the lower-cased haystack the classifier
// matches attribute patterns against.
func (e *Element) ContextString() string {
	parts := []string{e.Name, e.ID, e.Placeholder, e.LabelText, e.AriaLabel, e.ClassList, e.NearbyText}
	for _, v := range e.DataAttrs {
		parts = append(parts, v)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// FieldOutcome records what happened to a single classified field during
// a fill pass.
type FieldOutcome struct {
	Selector   string             `json:"selector"`
	Attribute  CanonicalAttribute `json:"attribute"`
	Confidence int                `json:"confidence"`
	Filled     bool               `json:"filled"`
	Skipped    bool               `json:"skipped,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// FillResult aggregates one complete fill pass across all forms on the
// current page. It backs UI feedback and is not persisted.
type FillResult struct {
	FieldsFound  int            `json:"fieldsFound"`
	FieldsFilled int            `json:"fieldsFilled"`
	FieldsFailed int            `json:"fieldsFailed"`
	Outcomes     []FieldOutcome `json:"outcomes,omitempty"`
}

// Record folds a field outcome into the aggregate counters.
func (r *FillResult) Record(o FieldOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch {
	case o.Filled:
		r.FieldsFilled++
	case !o.Skipped:
		r.FieldsFailed++
	}
}
