// Package markup builds the escaped tags and indented lines FSML is made of.
// Everything here is pure string construction.
package markup

import "strings"

// Declaration opens every document.
const Declaration = `<?xml version="1.0" encoding="UTF-8"?>`

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Escape replaces &, <, > and " with their entity references.
// It is a single pass: escaping twice escapes the ampersands again.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Attr is a single name/value pair. Value is kept raw.
type Attr struct {
	Name  string
	Value string
}

// Attrs is an ordered attribute list.
type Attrs []Attr

// Add appends an attribute, replacing the value if name is already present.
func (a *Attrs) Add(name, value string) {
	for i := range *a {
		if (*a)[i].Name == name {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attr{Name: name, Value: value})
}

// Get returns the raw value of name.
func (a Attrs) Get(name string) (string, bool) {
	for _, at := range a {
		if at.Name == name {
			return at.Value, true
		}
	}
	return "", false
}

func (a Attrs) render(b *strings.Builder) {
	for _, at := range a {
		b.WriteByte(' ')
		b.WriteString(Escape(at.Name))
		b.WriteString(`="`)
		b.WriteString(Escape(at.Value))
		b.WriteByte('"')
	}
}

// StartTag returns <name a="v" ...>.
func StartTag(name string, attrs Attrs) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(Escape(name))
	attrs.render(&b)
	b.WriteByte('>')
	return b.String()
}

// EndTag returns </name>.
func EndTag(name string) string {
	return "</" + Escape(name) + ">"
}

// EmptyElement returns <name a="v" .../>.
func EmptyElement(name string, attrs Attrs) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(Escape(name))
	attrs.render(&b)
	b.WriteString("/>")
	return b.String()
}

// Indent pads s on the left with two spaces per depth level.
func Indent(s string, depth int) string {
	if depth <= 0 {
		return s
	}
	return strings.Repeat("  ", depth) + s
}
