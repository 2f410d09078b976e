// Package corpus loads the fixed set of rant entries the bot broadcasts.
// The corpus is read once at startup and is immutable afterwards.
package corpus

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/oops"
	yaml "go.yaml.in/yaml/v3"
)

// Category classifies what a rant is about.
type Category string

const (
	CategoryCode     Category = "Code"
	CategoryPersonal Category = "Personal"
	CategoryBoth     Category = "Both"
	CategoryUnsure   Category = "Unsure"
)

// categoryLetters maps the single-letter type field used in the corpus file.
var categoryLetters = map[string]Category{
	"C": CategoryCode,
	"P": CategoryPersonal,
	"B": CategoryBoth,
	"U": CategoryUnsure,
}

func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	cat, ok := categoryLetters[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return fmt.Errorf("unknown rant type %q (want one of C, P, B, U)", raw)
	}
	*c = cat
	return nil
}

// Entry is one rant. Entries are immutable after load.
type Entry struct {
	Date     string   `yaml:"date"`
	Source   string   `yaml:"source"`
	Category Category `yaml:"type"`
	Text     string   `yaml:"text"`
}

// Store holds the loaded corpus. Safe to share by reference: it is never
// mutated after Load returns.
type Store struct {
	entries []Entry
}

// Load reads and validates the corpus file. It fails on a missing or
// unparseable file, on entries missing required fields, and on an empty
// corpus — selection is undefined without at least one entry.
func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.With("corpus_file", path).Wrap(err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, oops.With("corpus_file", path).Wrap(err)
	}
	if len(entries) == 0 {
		return nil, oops.With("corpus_file", path).Errorf("corpus is empty")
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Date) == "" || strings.TrimSpace(e.Text) == "" {
			return nil, oops.With("corpus_file", path).Errorf("entry %d: date and text are required", i)
		}
		if e.Category == "" {
			return nil, oops.With("corpus_file", path).Errorf("entry %d: type is required", i)
		}
	}
	return &Store{entries: entries}, nil
}

// Entries returns the full corpus in file order. Callers must not mutate it.
func (s *Store) Entries() []Entry { return s.entries }

func (s *Store) Len() int { return len(s.entries) }
