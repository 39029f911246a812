package export

// The types below are the serialized documentation tree. Field names and
// order are what downstream renderers key off.

// Record is the export of one source file.
type Record struct {
	File      DocBlock         `json:"file" yaml:"file"`
	Path      string           `json:"path" yaml:"path"`
	Root      string           `json:"root" yaml:"root"`
	Uses      Uses             `json:"uses,omitempty" yaml:"uses,omitempty"`
	Includes  []IncludeRecord  `json:"includes,omitempty" yaml:"includes,omitempty"`
	Constants []ConstantRecord `json:"constants,omitempty" yaml:"constants,omitempty"`
	Hooks     []HookRecord     `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	Functions []FunctionRecord `json:"functions,omitempty" yaml:"functions,omitempty"`
	Classes   []ClassRecord    `json:"classes,omitempty" yaml:"classes,omitempty"`
}

// DocBlock is a normalized docblock. Tags is never nil.
type DocBlock struct {
	Description     string      `json:"description" yaml:"description"`
	LongDescription string      `json:"long_description" yaml:"long_description"`
	Tags            []TagRecord `json:"tags" yaml:"tags"`
}

// TagRecord is one normalized annotation. Content is a string, or a
// *hashnotation.Node for @param tags written in hash notation.
//
// Types, Variable and Refers are present exactly when the tag's kind has
// them, even if empty: types for typed and variable tags, variable for
// variable tags, refers for reference tags.
type TagRecord struct {
	Name     string   `json:"name" yaml:"name"`
	Content  any      `json:"content" yaml:"content"`
	Types    TypeList `json:"types,omitzero" yaml:"types,omitempty"`
	Variable *string  `json:"variable,omitempty" yaml:"variable,omitempty"`
	Refers   *string  `json:"refers,omitempty" yaml:"refers,omitempty"`
}

// TypeList is a tag's declared types. A nil list is left out of the output;
// an empty one is written as [].
type TypeList []string

// IsZero reports whether l is nil. Both encoders consult it when omitting.
func (l TypeList) IsZero() bool { return l == nil }

// Uses maps a reference kind ("functions", "methods") to its references.
type Uses map[string][]UseRecord

// UseRecord is one reference to another element.
type UseRecord struct {
	Name               string `json:"name" yaml:"name"`
	Line               int    `json:"line" yaml:"line"`
	EndLine            *int   `json:"end_line" yaml:"end_line"`
	DeprecationVersion string `json:"deprecation_version,omitempty" yaml:"deprecation_version,omitempty"`
}

type IncludeRecord struct {
	Name string `json:"name" yaml:"name"`
	Line int    `json:"line" yaml:"line"`
	Type string `json:"type" yaml:"type"`
}

type ConstantRecord struct {
	Name  string `json:"name" yaml:"name"`
	Line  int    `json:"line" yaml:"line"`
	Value string `json:"value" yaml:"value"`
}

// HookRecord is a hook call site. Arguments are the raw argument sources.
type HookRecord struct {
	Name      string   `json:"name" yaml:"name"`
	Line      int      `json:"line" yaml:"line"`
	EndLine   *int     `json:"end_line" yaml:"end_line"`
	Type      string   `json:"type" yaml:"type"`
	Arguments []string `json:"arguments" yaml:"arguments"`
	Doc       DocBlock `json:"doc" yaml:"doc"`
}

// ArgumentRecord is a declared parameter. Default and Type are null when absent.
type ArgumentRecord struct {
	Name    string  `json:"name" yaml:"name"`
	Default *string `json:"default" yaml:"default"`
	Type    *string `json:"type" yaml:"type"`
}

type FunctionRecord struct {
	Name      string           `json:"name" yaml:"name"`
	Line      int              `json:"line" yaml:"line"`
	EndLine   *int             `json:"end_line" yaml:"end_line"`
	Arguments []ArgumentRecord `json:"arguments" yaml:"arguments"`
	Doc       DocBlock         `json:"doc" yaml:"doc"`
	Hooks     []HookRecord     `json:"hooks" yaml:"hooks"`
	Uses      Uses             `json:"uses,omitempty" yaml:"uses,omitempty"`
}

type MethodRecord struct {
	Name       string           `json:"name" yaml:"name"`
	Line       int              `json:"line" yaml:"line"`
	EndLine    *int             `json:"end_line" yaml:"end_line"`
	Final      bool             `json:"final" yaml:"final"`
	Abstract   bool             `json:"abstract" yaml:"abstract"`
	Static     bool             `json:"static" yaml:"static"`
	Visibility string           `json:"visibility" yaml:"visibility"`
	Arguments  []ArgumentRecord `json:"arguments" yaml:"arguments"`
	Doc        DocBlock         `json:"doc" yaml:"doc"`
	Hooks      []HookRecord     `json:"hooks" yaml:"hooks"`
	Uses       Uses             `json:"uses,omitempty" yaml:"uses,omitempty"`
}

// PropertyRecord omits doc entirely when the property has no docblock.
type PropertyRecord struct {
	Name       string    `json:"name" yaml:"name"`
	Line       int       `json:"line" yaml:"line"`
	EndLine    *int      `json:"end_line" yaml:"end_line"`
	Default    *string   `json:"default" yaml:"default"`
	Static     bool      `json:"static" yaml:"static"`
	Visibility string    `json:"visibility" yaml:"visibility"`
	Doc        *DocBlock `json:"doc,omitempty" yaml:"doc,omitempty"`
}

type ClassRecord struct {
	Name       string           `json:"name" yaml:"name"`
	Line       int              `json:"line" yaml:"line"`
	EndLine    *int             `json:"end_line" yaml:"end_line"`
	Final      bool             `json:"final" yaml:"final"`
	Abstract   bool             `json:"abstract" yaml:"abstract"`
	Extends    *string          `json:"extends" yaml:"extends"`
	Implements []string         `json:"implements" yaml:"implements"`
	Properties []PropertyRecord `json:"properties" yaml:"properties"`
	Methods    []MethodRecord   `json:"methods" yaml:"methods"`
	Doc        DocBlock         `json:"doc" yaml:"doc"`
}
