package model

// DocBlock is a parsed documentation comment before normalization.
// Short and Long may contain newlines.
type DocBlock struct {
	Short string
	Long  string
	Tags  []Tag
}

// Tag is one annotation of a docblock. The concrete type tells which optional
// fields the annotation supports:
//
//	PlainTag      name, description
//	TypedTag      + types
//	VariableTag   + types, variable
//	ReferenceTag  + reference
//	VersionTag    + version
type Tag interface {
	Base() TagBase
}

// TagBase carries the fields shared by all tag kinds.
type TagBase struct {
	Name        string
	Description string
}

// Base returns the shared tag fields.
func (t TagBase) Base() TagBase { return t }

// PlainTag is an annotation with free text only.
type PlainTag struct {
	TagBase
}

// TypedTag is an annotation that declares types, such as @return.
type TypedTag struct {
	TagBase
	Types []string
}

// VariableTag is an annotation that declares types and a variable, such as @param.
type VariableTag struct {
	TagBase
	Types    []string
	Variable string
}

// ReferenceTag points at another element, such as @see or @uses.
type ReferenceTag struct {
	TagBase
	Reference string
}

// VersionTag carries a version string, such as @since.
type VersionTag struct {
	TagBase
	Version string
}
