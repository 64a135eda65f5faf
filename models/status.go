package models

// ComponentStatus is the read-only state of one component as derived from
// its backend predicates at the time of the snapshot.
type ComponentStatus struct {
	Component string        `json:"component" yaml:"component"`
	Kind      ComponentKind `json:"kind" yaml:"kind"`
	Installed bool          `json:"installed" yaml:"installed"`
	Running   bool          `json:"running" yaml:"running"`
	Detail    string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ModelCategoryStats counts downloaded model artifacts in one category.
type ModelCategoryStats struct {
	Count     int   `json:"count" yaml:"count"`
	SizeBytes int64 `json:"sizeBytes" yaml:"size_bytes"`
}

// StatusSnapshot is a point-in-time view of the whole stack, built fresh
// from backend predicates on every status invocation.
type StatusSnapshot struct {
	Components []ComponentStatus             `json:"components" yaml:"components"`
	Models     map[string]ModelCategoryStats `json:"models" yaml:"models"`
}
