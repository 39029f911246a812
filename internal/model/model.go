// Package model defines the reflected PHP elements that hookdoc exports.
//
// Values in this package are produced by a reflector and consumed read-only by
// the exporters. Nothing downstream mutates them.
package model

// Visibility is the declared access level of a class member.
type Visibility string

const (
	Public    Visibility = "public"
	Protected Visibility = "protected"
	Private   Visibility = "private"
)

// Valid reports whether v is one of the three PHP visibilities.
func (v Visibility) Valid() bool {
	switch v {
	case Public, Protected, Private:
		return true
	}
	return false
}

// Element holds the attributes every reflected element carries.
// EndLine is zero when the reflector could not determine it.
type Element struct {
	Name    string
	Line    int
	EndLine int
	Doc     *DocBlock
}

// Argument is one declared parameter of a function or method.
// Default and Type are nil when the source declares none.
type Argument struct {
	Name    string
	Default *string
	Type    *string
}

// Include is an include/require expression. Name holds the path expression.
type Include struct {
	Element
	Type string
}

// Constant is a file-level constant, declared with const or define().
type Constant struct {
	Element
	Value string
}

// Use is one reference from an element to another named element.
// Args holds the raw source text of the call arguments.
type Use struct {
	Element
	Args []string
}

// UseGroup collects references of one kind ("functions", "methods").
type UseGroup struct {
	Kind string
	Refs []Use
}

// Hook is an extension point call site such as do_action or apply_filters.
type Hook struct {
	Element
	Type string
	Args []string
}

// Function is a plain function declaration.
type Function struct {
	Element
	Arguments []Argument
	Uses      []UseGroup
	Hooks     []Hook
}

// References reports whether the function refers to any other element.
func (f *Function) References() bool {
	return len(f.Uses) > 0 || len(f.Hooks) > 0
}

// Method is a function declared inside a class body.
type Method struct {
	Function
	Final      bool
	Abstract   bool
	Static     bool
	Visibility Visibility
}

// Property is a class property. Default is nil when no initializer is given.
type Property struct {
	Element
	Default    *string
	Static     bool
	Visibility Visibility
}

// Class is a class declaration with its members in source order.
type Class struct {
	Element
	Final      bool
	Abstract   bool
	Extends    string
	Implements []string
	Properties []Property
	Methods    []Method
}

// File is a reflected source file. Path is the path as discovered, before the
// root prefix is removed.
type File struct {
	Path      string
	Doc       *DocBlock
	Includes  []Include
	Constants []Constant
	Uses      []UseGroup
	Hooks     []Hook
	Functions []Function
	Classes   []Class
}
