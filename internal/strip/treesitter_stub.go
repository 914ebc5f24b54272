//go:build !cgo

package strip

// Supports reports false because tree-sitter grammars need cgo.
func (stripper *Stripper) Supports(path string) bool {
	return false
}

// Strip returns source unchanged when cgo is unavailable.
func (stripper *Stripper) Strip(path string, source []byte) ([]byte, bool) {
	return source, false
}
