package converter

import "sort"

// ExtensionSet is the set of glTF extension names a translator emitted.
// Translators return their own set and the assembler merges them once.
type ExtensionSet map[string]struct{}

func NewExtensionSet(names ...string) ExtensionSet {
	s := ExtensionSet{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s ExtensionSet) Add(name string) {
	s[name] = struct{}{}
}

func (s ExtensionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s ExtensionSet) Merge(others ...ExtensionSet) ExtensionSet {
	for _, o := range others {
		for n := range o {
			s.Add(n)
		}
	}
	return s
}

// Sorted returns the names in lexical order.
func (s ExtensionSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
