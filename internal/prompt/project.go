package prompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

const (
	goModFileName       = "go.mod"
	packageJSONFileName = "package.json"
)

type packageManifest struct {
	Name string `json:"name"`
}

// DetectProjectName names the project rooted at root: the Go module path
// when go.mod exists, the package.json name otherwise, and finally the
// directory base name.
func DetectProjectName(root string) string {
	if modulePath := readGoModulePath(filepath.Join(root, goModFileName)); modulePath != "" {
		return modulePath
	}
	if packageName := readPackageName(filepath.Join(root, packageJSONFileName)); packageName != "" {
		return packageName
	}
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return filepath.Base(root)
	}
	return filepath.Base(absoluteRoot)
}

func readGoModulePath(path string) string {
	// #nosec G304
	content, readError := os.ReadFile(path)
	if readError != nil {
		return ""
	}
	return modfile.ModulePath(content)
}

func readPackageName(path string) string {
	// #nosec G304
	content, readError := os.ReadFile(path)
	if readError != nil {
		return ""
	}
	var manifest packageManifest
	if decodeError := json.Unmarshal(content, &manifest); decodeError != nil {
		return ""
	}
	return strings.TrimSpace(manifest.Name)
}
