package walk

import (
	"github.com/agentic-research/fsmap/api"
	"github.com/agentic-research/fsmap/internal/attrs"
)

// Kind is the FSML element a node was emitted as.
type Kind string

const (
	KindRoot Kind = api.ElemRoot
	KindDir  Kind = api.ElemDir
	KindLink Kind = api.ElemLink
	KindFile Kind = api.ElemFile
)

// Node describes one emitted element. It is only valid during the
// Sink.Record call.
type Node struct {
	Path   string
	Name   string
	Kind   Kind
	Depth  int
	Suffix string
	// Facts is nil when the status call failed.
	Facts *attrs.Facts
	// Extractor is the name of the extractor that expanded the file, if any.
	Extractor string
}

// Sink receives every node in document order.
type Sink interface {
	Record(Node) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Node) error

func (f SinkFunc) Record(n Node) error { return f(n) }
