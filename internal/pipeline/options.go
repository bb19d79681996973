package pipeline

import (
	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
)

type settings struct {
	cfg      *config.Block
	options  map[string]any
	data     *block.DataBlock
	modules  []Node
	libs     Libraries
	baseDir  string
	recorder Recorder

	// Set by FromLibrary.
	typ  string
	kind Kind
}

// Option configures node construction.
type Option func(*settings)

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithConfig shares cfg with the node instead of creating an empty one.
func WithConfig(cfg *config.Block) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithOptions writes explicit options into the node's configuration section.
func WithOptions(options map[string]any) Option {
	return func(s *settings) { s.options = options }
}

// WithData binds the node to data instead of a fresh block.
func WithData(data *block.DataBlock) Option {
	return func(s *settings) { s.data = data }
}

// WithModules seeds a pipeline with already constructed children. Children
// named by the "modules" option are appended after them.
func WithModules(nodes ...Node) Option {
	return func(s *settings) { s.modules = append(s.modules, nodes...) }
}

// WithRegistry sets the libraries children are resolved from.
func WithRegistry(libs Libraries) Option {
	return func(s *settings) { s.libs = libs }
}

// WithBaseDir sets the directory module files and parameter files are
// resolved against.
func WithBaseDir(dir string) Option {
	return func(s *settings) { s.baseDir = dir }
}

// WithRecorder observes lifecycle calls of the node and its descendants.
func WithRecorder(r Recorder) Option {
	return func(s *settings) { s.recorder = r }
}

func withResolution(typ string, kind Kind) Option {
	return func(s *settings) {
		s.typ = typ
		s.kind = kind
	}
}

// inherit passes the settings a parent shares with its children.
func (s *settings) inherit(cfg *config.Block) []Option {
	return []Option{
		WithConfig(cfg),
		WithRegistry(s.libs),
		WithBaseDir(s.baseDir),
		WithRecorder(s.recorder),
	}
}
