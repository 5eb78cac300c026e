// Package catalog describes the available tools. The list is embedded at
// build time from tools.yaml.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tools.yaml
var toolsYAML []byte

// EndpointPrefix is the route prefix shared by every tool.
const EndpointPrefix = "/api/tools/"

// Category groups tools in the catalog.
type Category struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// ToolInfo describes one tool endpoint.
type ToolInfo struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Category    string   `yaml:"category" json:"category"`
	Endpoint    string   `yaml:"-" json:"endpoint"`
	Required    []string `yaml:"required" json:"required"`
}

// Catalog is the parsed tool list.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
	Tools      []ToolInfo `yaml:"tools" json:"tools"`

	byID map[string]int
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(toolsYAML)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse tool catalog: %w", err)
	}

	categories := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		categories[cat.ID] = true
	}

	c.byID = make(map[string]int, len(c.Tools))
	for i := range c.Tools {
		t := &c.Tools[i]
		if t.ID == "" {
			return nil, fmt.Errorf("tool catalog entry %d has no id", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tool id %q", t.ID)
		}
		if !categories[t.Category] {
			return nil, fmt.Errorf("tool %q has unknown category %q", t.ID, t.Category)
		}
		if t.Required == nil {
			t.Required = []string{}
		}
		t.Endpoint = EndpointPrefix + t.ID
		c.byID[t.ID] = i
	}
	return &c, nil
}

// Lookup returns the tool with id.
func (c *Catalog) Lookup(id string) (ToolInfo, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ToolInfo{}, false
	}
	return c.Tools[i], true
}

// IDs returns every tool id in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Tools))
	for i, t := range c.Tools {
		ids[i] = t.ID
	}
	return ids
}
