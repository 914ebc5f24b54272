//go:build cgo

package strip

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const commentNodeType = "comment"

var languagesByExtension = map[string]func() *sitter.Language{
	".go":  golang.GetLanguage,
	".js":  javascript.GetLanguage,
	".jsx": javascript.GetLanguage,
	".mjs": javascript.GetLanguage,
	".cjs": javascript.GetLanguage,
	".ts":  typescript.GetLanguage,
	".tsx": tsx.GetLanguage,
	".py":  python.GetLanguage,
}

// Supports reports whether a grammar exists for the file extension.
func (stripper *Stripper) Supports(path string) bool {
	_, supported := languagesByExtension[extensionOf(path)]
	return supported
}

// Strip returns source without comment nodes and true. Unsupported files and
// sources that fail to parse cleanly come back unchanged with false.
func (stripper *Stripper) Strip(path string, source []byte) ([]byte, bool) {
	language, supported := languagesByExtension[extensionOf(path)]
	if !supported {
		return source, false
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language())

	tree, parseError := parser.ParseCtx(context.Background(), nil, source)
	if parseError != nil || tree == nil {
		return source, false
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode.HasError() {
		return source, false
	}

	var comments []byteRange
	collectComments(rootNode, &comments)
	if len(comments) == 0 {
		return source, true
	}
	return removeRanges(source, comments), true
}

func collectComments(node *sitter.Node, comments *[]byteRange) {
	if node.Type() == commentNodeType {
		*comments = append(*comments, byteRange{start: int(node.StartByte()), end: int(node.EndByte())})
		return
	}
	childCount := int(node.ChildCount())
	for childIndex := 0; childIndex < childCount; childIndex++ {
		collectComments(node.Child(childIndex), comments)
	}
}
