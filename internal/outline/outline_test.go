package outline

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolsGo(t *testing.T) {
	code := []byte(`package main

import "fmt"

type Server struct{}

func (s *Server) Run() {}

func main() {
	fmt.Println("hi")
}
`)
	symbols, err := Symbols(context.Background(), ".go", code)
	require.NoError(t, err)
	assert.Equal(t, []Symbol{
		{Kind: "type_declaration", Name: "Server", Line: 5},
		{Kind: "method_declaration", Name: "Run", Line: 7},
		{Kind: "function_declaration", Name: "main", Line: 9},
	}, symbols)
}

func TestSymbolsPython(t *testing.T) {
	code := []byte(`import os

class Greeter:
    def hello(self):
        pass

def main():
    pass
`)
	symbols, err := Symbols(context.Background(), ".py", code)
	require.NoError(t, err)
	assert.Equal(t, []Symbol{
		{Kind: "class_definition", Name: "Greeter", Line: 3},
		{Kind: "function_definition", Name: "main", Line: 7},
	}, symbols)
}

func TestSymbolsHCL(t *testing.T) {
	code := []byte(`resource "aws_s3_bucket" "logs" {
  bucket = "x"
}

variable "region" {}
`)
	symbols, err := Symbols(context.Background(), ".tf", code)
	require.NoError(t, err)
	assert.Equal(t, []Symbol{
		{Kind: "resource", Name: "aws_s3_bucket.logs", Line: 1},
		{Kind: "variable", Name: "region", Line: 5},
	}, symbols)
}

func TestSymbolsYAML(t *testing.T) {
	code := []byte(`name: fsmap
jobs:
  build: {}
`)
	symbols, err := Symbols(context.Background(), ".yml", code)
	require.NoError(t, err)
	assert.Equal(t, []Symbol{
		{Kind: "key", Name: "name", Line: 1},
		{Kind: "key", Name: "jobs", Line: 2},
	}, symbols)
}

func TestSymbolsUnknownSuffix(t *testing.T) {
	_, err := Symbols(context.Background(), ".ts", []byte("let x = 1"))
	assert.Error(t, err)
}

func TestExtractBlock(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/a.go", []byte("package a\n\nfunc Less(a, b int) bool { return a < b }\n"), 0o644))

	x := New(WithFS(fs))
	block := x.Extract(context.Background(), "/src/a.go", 1)
	assert.Equal(t, []string{
		`<outline language="go">`,
		` <symbol kind="function_declaration" name="Less" line="3"/>`,
		`</outline>`,
	}, []string(block))
}

func TestExtractNoSymbols(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/doc.go", []byte("// Package a is empty.\npackage a\n"), 0o644))

	logger, hook := test.NewNullLogger()
	x := New(WithFS(fs), WithLogger(logger))
	assert.True(t, x.Extract(context.Background(), "/src/doc.go", 1).Empty())
	assert.Empty(t, hook.AllEntries())
}

func TestExtractUnreadable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	x := New(WithFS(memfs.New()), WithLogger(logger))

	assert.True(t, x.Extract(context.Background(), "/missing.py", 1).Empty())
	require.Len(t, hook.AllEntries(), 1)
	assert.Contains(t, hook.LastEntry().Message, "(outline): /missing.py")
}

func TestSuffixesHaveGrammars(t *testing.T) {
	for _, s := range Suffixes {
		_, lang, ok := DetectLanguage(s)
		assert.True(t, ok, s)
		assert.NotNil(t, lang, s)
	}
	_, _, ok := DetectLanguage(".ts")
	assert.False(t, ok)
}
