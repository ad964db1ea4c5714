package symbol

import "regexp"

// decorated matches the receiver-qualified form "(recv).Method".
var decorated = regexp.MustCompile(`\)\.([\p{L}_][\p{L}\p{N}_]*)$`)

// BareMethodName strips receiver decoration from a method name.
// "(s *Service).GetUser" -> "GetUser"; plain identifiers are returned unchanged.
func BareMethodName(name string) string {
	if m := decorated.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}

// Class is the role a symbol plays for interface navigation.
type Class int

const (
	ClassOther Class = iota
	ClassInterface
	ClassInterfaceMethod
	ClassImplementation
)

// Classify returns the role of s given its parent (nil for top-level symbols).
func Classify(parent *Symbol, s Symbol) Class {
	if parent != nil && parent.Kind == KindInterface {
		return ClassInterfaceMethod
	}
	switch s.Kind {
	case KindInterface:
		return ClassInterface
	case KindFunction, KindMethod:
		return ClassImplementation
	}
	return ClassOther
}

// Walk visits every symbol of the outline in document order, depth first.
// Returning false from fn skips the symbol's children.
func Walk(outline []Symbol, fn func(parent *Symbol, s Symbol) bool) {
	walk(nil, outline, fn)
}

func walk(parent *Symbol, syms []Symbol, fn func(parent *Symbol, s Symbol) bool) {
	for i := range syms {
		if fn(parent, syms[i]) {
			walk(&syms[i], syms[i].Children, fn)
		}
	}
}

// Interfaces returns every interface declaration in the outline.
func Interfaces(outline []Symbol) []Symbol {
	var out []Symbol
	Walk(outline, func(_ *Symbol, s Symbol) bool {
		if s.Kind == KindInterface {
			out = append(out, s)
			return false
		}
		return true
	})
	return out
}

// Implementations returns every function or method not nested in an interface.
func Implementations(outline []Symbol) []Symbol {
	var out []Symbol
	Walk(outline, func(parent *Symbol, s Symbol) bool {
		switch Classify(parent, s) {
		case ClassImplementation:
			out = append(out, s)
		case ClassInterface, ClassInterfaceMethod:
			return false
		}
		return true
	})
	return out
}

// InterfaceMethodNamed finds the first interface member called name.
func InterfaceMethodNamed(outline []Symbol, name string) (Symbol, bool) {
	for _, iface := range Interfaces(outline) {
		for _, m := range iface.Children {
			if m.Name == name {
				return m, true
			}
		}
	}
	return Symbol{}, false
}

// InterfaceMethodAt returns the name of the interface member whose identifier covers pos.
func InterfaceMethodAt(outline []Symbol, pos Position) (string, bool) {
	for _, iface := range Interfaces(outline) {
		for _, m := range iface.Children {
			if m.SelectionRange.Contains(pos) {
				return m.Name, true
			}
		}
	}
	return "", false
}

// ImplementationAt finds the function or method with bare name name whose
// declaration range contains pos.
func ImplementationAt(outline []Symbol, name string, pos Position) (Symbol, bool) {
	for _, s := range Implementations(outline) {
		if BareMethodName(s.Name) == name && s.Range.Contains(pos) {
			return s, true
		}
	}
	return Symbol{}, false
}
