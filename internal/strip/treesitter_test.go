//go:build cgo

package strip

import "testing"

func TestStripSupportedLanguages(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		source   string
		expected string
	}{
		{
			name:     "go",
			path:     "demo.go",
			source:   "// Package demo does things.\npackage demo\n\n// Add sums.\nfunc Add(a, b int) int {\n\treturn a + b // inline\n}\n",
			expected: "package demo\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n",
		},
		{
			name:     "python keeps strings",
			path:     "app.py",
			source:   "# routes\nvalue = \"# not a comment\"  # trailing\n",
			expected: "value = \"# not a comment\"\n",
		},
		{
			name:     "javascript",
			path:     "server.JS",
			source:   "/* banner */\napp.get('/users', handler); // list\n",
			expected: "app.get('/users', handler);\n",
		},
		{
			name:     "typescript",
			path:     "routes.ts",
			source:   "// typed\nconst port: number = 8080;\n",
			expected: "const port: number = 8080;\n",
		},
	}

	stripper := NewStripper(nil)
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			stripped, ok := stripper.Strip(testCase.path, []byte(testCase.source))
			if !ok {
				t.Fatalf("expected %s to be stripped", testCase.path)
			}
			if string(stripped) != testCase.expected {
				t.Fatalf("Strip() = %q, want %q", stripped, testCase.expected)
			}
		})
	}
}

func TestStripRejectsUnsupportedAndBrokenSources(t *testing.T) {
	stripper := NewStripper(nil)

	source := []byte("key: value # note\n")
	if stripped, ok := stripper.Strip("config.yaml", source); ok || string(stripped) != string(source) {
		t.Fatalf("expected unsupported file to be returned unchanged")
	}

	broken := []byte("package demo\n\nfunc (\n// dangling\n")
	if stripped, ok := stripper.Strip("broken.go", broken); ok || string(stripped) != string(broken) {
		t.Fatalf("expected broken source to be returned unchanged")
	}
	if got := stripper.Transform("broken.go", broken); string(got) != string(broken) {
		t.Fatalf("Transform changed broken source: %q", got)
	}
}
