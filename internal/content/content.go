// Package content holds the static copy the app serves: reflection prompts,
// the scripted coach lines and quick-note suggestions.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ReflectionPrompt is one journaling question.
type ReflectionPrompt struct {
	ID       int    `yaml:"id" json:"id"`
	Question string `yaml:"question" json:"question"`
	Category string `yaml:"category" json:"category"`
	Icon     string `yaml:"icon" json:"icon"`
}

// CoachScript configures the scripted coach.
type CoachScript struct {
	Greeting     string   `yaml:"greeting"`
	ReplyDelayMS int      `yaml:"reply_delay_ms"`
	Replies      []string `yaml:"replies"`
}

// ReplyDelay returns the simulated typing delay.
func (s CoachScript) ReplyDelay() time.Duration {
	if s.ReplyDelayMS <= 0 {
		return 0
	}
	return time.Duration(s.ReplyDelayMS) * time.Millisecond
}

// Catalog is the full set of static copy.
type Catalog struct {
	Coach             CoachScript        `yaml:"coach"`
	ReflectionPrompts []ReflectionPrompt `yaml:"reflection_prompts"`
	QuickNotes        []string           `yaml:"quick_notes"`
}

// Prompt looks up a reflection prompt by id.
func (c *Catalog) Prompt(id int) (ReflectionPrompt, bool) {
	for _, prompt := range c.ReflectionPrompts {
		if prompt.ID == id {
			return prompt, true
		}
	}
	return ReflectionPrompt{}, false
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, falling back to the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse content catalog: %w", err)
	}
	if err := catalog.validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func (c *Catalog) validate() error {
	if strings.TrimSpace(c.Coach.Greeting) == "" {
		return errors.New("content catalog: coach greeting is required")
	}

	replies := c.Coach.Replies[:0]
	for _, reply := range c.Coach.Replies {
		if reply = strings.TrimSpace(reply); reply != "" {
			replies = append(replies, reply)
		}
	}
	if len(replies) == 0 {
		return errors.New("content catalog: at least one coach reply is required")
	}
	c.Coach.Replies = replies

	seen := make(map[int]struct{}, len(c.ReflectionPrompts))
	for _, prompt := range c.ReflectionPrompts {
		if prompt.ID <= 0 {
			return fmt.Errorf("content catalog: prompt %q has invalid id %d", prompt.Question, prompt.ID)
		}
		if strings.TrimSpace(prompt.Question) == "" {
			return fmt.Errorf("content catalog: prompt %d has no question", prompt.ID)
		}
		if _, dup := seen[prompt.ID]; dup {
			return fmt.Errorf("content catalog: duplicate prompt id %d", prompt.ID)
		}
		seen[prompt.ID] = struct{}{}
	}

	return nil
}
