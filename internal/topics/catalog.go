// Package topics holds the topic catalog writers pick from. The catalog is
// built in or loaded from a YAML file that is reloaded when it changes.
package topics

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/starford/pensieri/internal/models"
)

var defaultTopics = []models.Topic{
	{Value: "technology", Label: "Technology"},
	{Value: "design", Label: "Design"},
	{Value: "culture", Label: "Culture"},
	{Value: "business", Label: "Business"},
	{Value: "life", Label: "Life"},
	{Value: "productivity", Label: "Productivity"},
	{Value: "artificial-intelligence", Label: "Artificial Intelligence"},
	{Value: "programming", Label: "Programming"},
}

// Catalog is a concurrency-safe list of topics.
type Catalog struct {
	mu     sync.RWMutex
	topics []models.Topic
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{topics: slices.Clone(defaultTopics)}
}

// file is the on-disk layout of a catalog.
type file struct {
	Topics []models.Topic `yaml:"topics"`
}

// Parse decodes a YAML catalog. Entries without a value are rejected, a
// missing label falls back to the value and duplicates keep the first entry.
func Parse(data []byte) ([]models.Topic, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("topics: parse: %w", err)
	}
	seen := make(map[string]bool, len(f.Topics))
	out := make([]models.Topic, 0, len(f.Topics))
	for i, t := range f.Topics {
		t.Value = strings.TrimSpace(t.Value)
		if t.Value == "" {
			return nil, fmt.Errorf("topics: entry %d has no value", i)
		}
		if seen[t.Value] {
			continue
		}
		seen[t.Value] = true
		if strings.TrimSpace(t.Label) == "" {
			t.Label = t.Value
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("topics: catalog is empty")
	}
	return out, nil
}

// Load reads a catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topics: read %s: %w", path, err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &Catalog{topics: list}, nil
}

// List returns a copy of the topics in catalog order.
func (c *Catalog) List() []models.Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.topics)
}

// Has reports whether value is a known topic.
func (c *Catalog) Has(value string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.ContainsFunc(c.topics, func(t models.Topic) bool { return t.Value == value })
}

// Replace swaps the catalog contents.
func (c *Catalog) Replace(list []models.Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = slices.Clone(list)
}

// Reload re-reads path into c. On error the previous contents are kept.
func (c *Catalog) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("topics: read %s: %w", path, err)
	}
	list, err := Parse(data)
	if err != nil {
		return err
	}
	c.Replace(list)
	return nil
}
