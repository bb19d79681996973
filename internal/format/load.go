package format

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/fsutil"
)

// Decoder turns the bytes of one file into a Document.
type Decoder interface {
	Decode(filename string, src []byte) (*Document, error)
}

var decoders = map[string]Decoder{
	".hcl":  HCL{},
	".yaml": YAML{},
	".yml":  YAML{},
	".toml": TOML{},
}

// Extensions lists the supported file extensions.
func Extensions() []string {
	return []string{".hcl", ".yaml", ".yml", ".toml"}
}

// DecoderFor returns the decoder registered for the extension of path.
func DecoderFor(path string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q for %s", ext, path)
	}
	return d, nil
}

// Parse decodes src with the decoder matching filename.
func Parse(filename string, src []byte) (*Document, error) {
	d, err := DecoderFor(filename)
	if err != nil {
		return nil, err
	}
	return d.Decode(filename, src)
}

// LoadFile reads and decodes a single file.
func LoadFile(path string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, src)
}

// Load decodes every file in paths, searching directories for supported
// files, and merges them in order.
func Load(ctx context.Context, paths ...string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.ExpandPaths(paths, Extensions()...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	doc := &Document{}
	for _, file := range files {
		d, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		doc.Merge(d)
	}
	logger.Debug("Configuration loaded.", "sections", len(doc.Sections))
	return doc, nil
}
