package outline

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/hcl"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/yaml"
)

// Suffixes are the source types outlined. ".ts" is left to exiftool,
// which reads it as an MPEG transport stream.
var Suffixes = []string{".go", ".py", ".js", ".tsx", ".rs", ".sql", ".tf", ".hcl", ".yaml", ".yml"}

// DetectLanguage returns the language name and grammar for a suffix.
func DetectLanguage(suffix string) (name string, lang *sitter.Language, ok bool) {
	switch suffix {
	case ".go":
		return "go", golang.GetLanguage(), true
	case ".py":
		return "python", python.GetLanguage(), true
	case ".js":
		return "javascript", javascript.GetLanguage(), true
	case ".tsx":
		return "tsx", tsx.GetLanguage(), true
	case ".rs":
		return "rust", rust.GetLanguage(), true
	case ".sql":
		return "sql", sql.GetLanguage(), true
	case ".tf", ".hcl":
		return "terraform", hcl.GetLanguage(), true
	case ".yaml", ".yml":
		return "yaml", yaml.GetLanguage(), true
	default:
		return "", nil, false
	}
}
