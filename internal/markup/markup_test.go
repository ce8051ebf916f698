package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;a&amp;b&gt;&quot;", Escape(`<a&b>"`))
}

func TestEscape_LeavesOtherCharacters(t *testing.T) {
	in := "plain 'quoted' naïve ﬁle\t"
	assert.Equal(t, in, Escape(in))
}

func TestEscape_NotIdempotent(t *testing.T) {
	once := Escape("&")
	assert.Equal(t, "&amp;", once)
	assert.Equal(t, "&amp;amp;", Escape(once), "escaping is single pass only")
}

func TestStartTag(t *testing.T) {
	var attrs Attrs
	attrs.Add("name", `a "b" <c>`)
	attrs.Add("st_size", "12")
	assert.Equal(t, `<dir name="a &quot;b&quot; &lt;c&gt;" st_size="12">`, StartTag("dir", attrs))
}

func TestStartTag_NoAttrs(t *testing.T) {
	assert.Equal(t, "<fsml>", StartTag("fsml", nil))
}

func TestEndTag(t *testing.T) {
	assert.Equal(t, "</file>", EndTag("file"))
}

func TestEmptyElement(t *testing.T) {
	attrs := Attrs{{Name: "name", Value: "x&y"}}
	assert.Equal(t, `<link name="x&amp;y"/>`, EmptyElement("link", attrs))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "<x/>", Indent("<x/>", 0))
	assert.Equal(t, "    <x/>", Indent("<x/>", 2))
	assert.Equal(t, "<x/>", Indent("<x/>", -1))
}

func TestAttrs_AddReplaces(t *testing.T) {
	var attrs Attrs
	attrs.Add("suffix", ".a")
	attrs.Add("name", "n")
	attrs.Add("suffix", ".b")

	assert.Len(t, attrs, 2)
	v, ok := attrs.Get("suffix")
	assert.True(t, ok)
	assert.Equal(t, ".b", v)
	assert.Equal(t, "suffix", attrs[0].Name, "replacement keeps position")
}
