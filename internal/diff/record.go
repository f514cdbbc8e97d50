package diff

// Kind classifies what changed.
type Kind string

const (
	KindAdded               Kind = "added"
	KindRemoved             Kind = "removed"
	KindTypeChanged         Kind = "type-changed"
	KindRequirednessChanged Kind = "requiredness-changed"
	KindDeprecated          Kind = "deprecated"
	KindMetadataChanged     Kind = "metadata-changed"
)

// Severity classifies compatibility impact.
type Severity string

const (
	SeverityBreaking    Severity = "breaking"
	SeverityDeprecation Severity = "deprecation"
	SeverityCompatible  Severity = "compatible"
)

// ChangeRecord is one classified structural change between two spec
// versions.
type ChangeRecord struct {
	Location string   `json:"location"` // e.g. "POST /orders.requestBody.amount"
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// HasBreaking reports whether any record is breaking.
func HasBreaking(changes []ChangeRecord) bool {
	for _, c := range changes {
		if c.Severity == SeverityBreaking {
			return true
		}
	}
	return false
}
