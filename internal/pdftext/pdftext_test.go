package pdftext

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agentic-research/fsmap/internal/config"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE pdf2xml SYSTEM "pdf2xml.dtd">
<pdf2xml producer="poppler" version="22.02.0">
<page number="1" position="absolute" top="0" left="0" height="842" width="595">
`

const trailer = `</page>
</pdf2xml>
`

func TestReshape(t *testing.T) {
	out := header +
		`<fontspec id="0" size="12" family="Times" color="#000000"/>
<text top="10" left="5" width="40" height="12" font="0">Eﬃcient oﬃce</text>
</page>
<page number="2" position="absolute" top="0" left="0" height="842" width="595">
<text top="10" left="5" width="40" height="12" font="0">ﬁne</text>
` + trailer

	got := Reshape([]byte(out))
	require.NotNil(t, got)

	assert.Equal(t, "  <content>", got[0])
	assert.Equal(t, "  </content>", got[len(got)-1])
	assert.Equal(t, `    <fontspec id="0" size="12" family="Times" color="#000000"/>`, got[1])
	assert.Equal(t, `      <text top="10" left="5" width="40" height="12" font="0">Efficient office</text>`, got[2])
	assert.Equal(t, "    </page>", got[3])
	assert.True(t, strings.HasPrefix(got[4], "    <page number=\"2\""))
	assert.Equal(t, `      <text top="10" left="5" width="40" height="12" font="0">fine</text>`, got[5])
	assert.Len(t, got, 7)
}

func TestReshape_LigatureOnlyOnContentLines(t *testing.T) {
	out := header +
		"<fontspec family=\"ﬃ\"/>\n" +
		"<text>ﬃ  x</text>\n" +
		trailer

	got := Reshape([]byte(out))
	require.Len(t, got, 4)
	assert.Equal(t, "    <fontspec family=\"ﬃ\"/>", got[1], "structural lines are never substituted")
	assert.Equal(t, "      <text>ffix</text>", got[2])
}

func TestReshape_PaddedLigatures(t *testing.T) {
	out := header + "<text>staﬀ ed ﬂow baﬄ  e</text>\n" + trailer
	got := Reshape([]byte(out))
	require.Len(t, got, 3)
	assert.Equal(t, "      <text>staffed flow baffle</text>", got[1])
}

func TestReshape_NoTextIsUnavailable(t *testing.T) {
	out := header + "<fontspec id=\"0\"/>\n" + trailer
	assert.Nil(t, Reshape([]byte(out)))
}

func TestReshape_ShortOutput(t *testing.T) {
	assert.Nil(t, Reshape(nil))
	assert.Nil(t, Reshape([]byte(header+trailer)))
}

func TestExtract_Invocation(t *testing.T) {
	var gotName string
	var gotArgs []string
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(header + "<text>hi</text>\n" + trailer), nil
	}

	x := New(&config.PDFText{Path: "/usr/local/bin/pdftohtml"}, WithRunner(runner))
	got := x.Extract(context.Background(), "/docs/a.pdf")

	assert.Equal(t, "/usr/local/bin/pdftohtml", gotName)
	assert.Equal(t, []string{"-nodrm", "-xml", "-enc", "UTF-8", "-stdout", "/docs/a.pdf"}, gotArgs)
	assert.Equal(t, []string{"  <content>", "      <text>hi</text>", "  </content>"}, got)
}

func TestExtract_FailureIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	runner := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exec: \"pdftohtml\": executable file not found in $PATH")
	}

	x := New(nil, WithRunner(runner), WithLogger(logger))
	assert.Nil(t, x.Extract(context.Background(), "/docs/a.pdf"))

	require.Len(t, hook.AllEntries(), 1)
	assert.Contains(t, hook.LastEntry().Message, "(pdftext)")
	assert.Contains(t, hook.LastEntry().Message, "/docs/a.pdf")
}
