package credential

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Credential is one API key for a provider category. Slot is the key's
// position within its category and is what the health registry tracks.
type Credential struct {
	Category string
	Slot     int
	Key      string
}

// Pool holds every configured credential, grouped by provider category.
// It is immutable after loading; rotation state lives in the Registry.
type Pool struct {
	byCategory map[string][]Credential
}

// NewPool creates an empty credential pool.
func NewPool() *Pool {
	return &Pool{byCategory: make(map[string][]Credential)}
}

// Add appends keys to a category, assigning slot indexes in order.
// Empty or whitespace-only keys are ignored.
func (p *Pool) Add(category string, keys ...string) {
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		slot := len(p.byCategory[category])
		p.byCategory[category] = append(p.byCategory[category], Credential{
			Category: category,
			Slot:     slot,
			Key:      k,
		})
	}
}

// Get returns the credentials configured for a category, ordered by slot.
func (p *Pool) Get(category string) []Credential {
	return p.byCategory[category]
}

// Count returns how many credentials a category has. Zero means the
// category is unconfigured and callers should skip it entirely.
func (p *Pool) Count(category string) int {
	return len(p.byCategory[category])
}

// Categories returns the configured category names, sorted.
func (p *Pool) Categories() []string {
	cats := make([]string, 0, len(p.byCategory))
	for c := range p.byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// LoadEnv reads credentials for the given categories from the environment.
// For category "serper" it checks SERPER_API_KEY and SERPER_API_KEY_1 through
// SERPER_API_KEY_5, so several keys can be configured for rotation. The
// unsuffixed and _1 forms refer to the same slot.
func (p *Pool) LoadEnv(categories ...string) {
	const maxSlots = 5
	for _, cat := range categories {
		prefix := strings.ToUpper(cat) + "_API_KEY"
		for i := 1; i <= maxSlots; i++ {
			key := os.Getenv(fmt.Sprintf("%s_%d", prefix, i))
			if key == "" && i == 1 {
				key = os.Getenv(prefix)
			}
			if strings.TrimSpace(key) != "" {
				p.Add(cat, key)
			}
		}
	}
}

type credentialsFile struct {
	Credentials map[string][]string `yaml:"credentials"`
}

// LoadFile merges credentials from a YAML file of the form:
//
//	credentials:
//	  serper:
//	    - key-a
//	    - key-b
func (p *Pool) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}

	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse credentials file: %w", err)
	}

	for cat, keys := range f.Credentials {
		p.Add(cat, keys...)
	}
	return nil
}
