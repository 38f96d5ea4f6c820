package phonetic

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

var (
	ErrInvalidEntry = errors.New("invalid dictionary entry")
	ErrUnknownName  = errors.New("unknown dictionary")
)

var (
	coordinateOutput = regexp.MustCompile(`^[a-h1-8]+$`)
	// A key made only of coordinate characters could appear in normalized
	// output and be substituted again on a second pass.
	coordinateKey = regexp.MustCompile(`^[a-h1-8]+$`)
)

// Dictionary maps a spoken token to coordinate characters. It is read-only
// once built.
type Dictionary struct {
	name    string
	entries map[string]string
}

func New(name string, entries map[string]string) (*Dictionary, error) {
	d := &Dictionary{name: name, entries: make(map[string]string, len(entries))}
	for k, v := range entries {
		key := strings.ToLower(strings.TrimSpace(k))
		val := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			return nil, fmt.Errorf("%w: empty key", ErrInvalidEntry)
		}
		if strings.ContainsAny(key, " \t-") {
			return nil, fmt.Errorf("%w: key %q must be a single token", ErrInvalidEntry, k)
		}
		if coordinateKey.MatchString(key) {
			return nil, fmt.Errorf("%w: key %q is made of coordinate characters", ErrInvalidEntry, k)
		}
		if !coordinateOutput.MatchString(val) {
			return nil, fmt.Errorf("%w: %q maps to %q, outside a-h1-8", ErrInvalidEntry, k, v)
		}
		if prev, dup := d.entries[key]; dup && prev != val {
			return nil, fmt.Errorf("%w: %q maps to both %q and %q", ErrInvalidEntry, key, prev, val)
		}
		d.entries[key] = val
	}
	return d, nil
}

func mustNew(name string, entries map[string]string) *Dictionary {
	d, err := New(name, entries)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dictionary) Name() string { return d.name }

func (d *Dictionary) Len() int { return len(d.entries) }

func (d *Dictionary) Lookup(token string) (string, bool) {
	v, ok := d.entries[token]
	return v, ok
}

// Keys returns the keys longest first, ties broken alphabetically.
func (d *Dictionary) Keys() []string {
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Merge returns a new dictionary with other's entries taking precedence.
func (d *Dictionary) Merge(other *Dictionary) *Dictionary {
	out := &Dictionary{name: d.name, entries: make(map[string]string, len(d.entries))}
	for k, v := range d.entries {
		out.entries[k] = v
	}
	if other != nil {
		for k, v := range other.entries {
			out.entries[k] = v
		}
		out.name = d.name + "+" + other.name
	}
	return out
}

type fileFormat struct {
	Name    string            `yaml:"name"`
	Entries map[string]string `yaml:"entries"`
}

// Parse reads a YAML dictionary:
//
//	name: custom
//	entries:
//	  fore: "4"
func Parse(raw []byte) (*Dictionary, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "custom"
	}
	return New(name, f.Entries)
}

func Load(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	return Parse(raw)
}

// Named returns one of the built-in dictionaries.
func Named(name string) (*Dictionary, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "basic":
		return Basic(), nil
	case "alphabet":
		return Alphabet(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
}
