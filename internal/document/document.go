// Package document reads and writes the registry fragment stored in the
// host's YAML save document. Keys other than the fragment's section are
// preserved on save.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/robby/cwp/internal/store"
)

// DefaultSection is the top-level document key holding the fragment.
const DefaultSection = "Contracts_Window_Parameters"

var (
	// ErrNoSection is returned by Load when the document, or its section, does not exist.
	ErrNoSection = errors.New("document has no mission list section")
	// ErrCorrupt is returned by Load when the document cannot be parsed.
	ErrCorrupt = errors.New("document is corrupt")
)

// Document is a host save file containing a registry fragment.
type Document struct {
	path    string
	section string
	log     zerolog.Logger

	mu      sync.Mutex
	written []byte // contents of the last successful Save
}

// New returns a document at path. An empty section selects DefaultSection.
func New(path, section string, log zerolog.Logger) *Document {
	if section == "" {
		section = DefaultSection
	}
	return &Document{path: path, section: section, log: log}
}

// Path returns the document path.
func (d *Document) Path() string { return d.path }

// Section returns the key the fragment is stored under.
func (d *Document) Section() string { return d.section }

// Load reads the fragment. It returns ErrNoSection when the file or the
// section is absent and wraps ErrCorrupt when either cannot be parsed.
func (d *Document) Load() (store.Fragment, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.Fragment{}, ErrNoSection
		}
		return store.Fragment{}, fmt.Errorf("reading document: %w", err)
	}

	root, err := parseRoot(data)
	if err != nil {
		return store.Fragment{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if root == nil {
		return store.Fragment{}, ErrNoSection
	}

	node := lookup(root, d.section)
	if node == nil {
		return store.Fragment{}, ErrNoSection
	}

	var frag store.Fragment
	if err := node.Decode(&frag); err != nil {
		return store.Fragment{}, fmt.Errorf("%w: section %s: %v", ErrCorrupt, d.section, err)
	}
	return frag, nil
}

// Save writes frag under the document's section. The file is replaced
// atomically by writing a temporary file and renaming it. An unreadable
// existing document is copied to path+".bak" before it is overwritten.
func (d *Document) Save(frag store.Fragment) error {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	if data, err := os.ReadFile(d.path); err == nil {
		existing, err := parseRoot(data)
		switch {
		case err != nil:
			bak := d.path + ".bak"
			if werr := os.WriteFile(bak, data, 0o644); werr != nil {
				return fmt.Errorf("backing up corrupt document: %w", werr)
			}
			d.log.Warn().Err(err).Str("path", d.path).Str("backup", bak).Msg("existing document is corrupt, rewriting it")
		case existing != nil:
			root = existing
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading document: %w", err)
	}

	var value yaml.Node
	if err := value.Encode(frag); err != nil {
		return fmt.Errorf("encoding fragment: %w", err)
	}
	set(root, d.section, &value)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("replacing document: %w", err)
	}

	d.mu.Lock()
	d.written = buf.Bytes()
	d.mu.Unlock()

	d.log.Debug().Str("path", d.path).Int("lists", len(frag.Missions)).Msg("saved document")
	return nil
}

// isOwnWrite reports whether data matches the last Save.
func (d *Document) isOwnWrite(data []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written != nil && bytes.Equal(d.written, data)
}

// parseRoot returns the top-level mapping of a YAML document, or nil for an
// empty document.
func parseRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level is not a mapping")
	}
	return root, nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func set(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}
