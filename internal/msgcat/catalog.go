package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var bundled embed.FS

const bundledFile = "messages.en.yaml"

// Catalog holds player-facing text keyed by dotted path ("errors.game_over").
// Every entry is compiled when it is loaded, so a broken override fails New
// rather than the first request that needs it.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*template.Template
}

// New loads the bundled English messages and layers every *.yaml/*.yml file
// of overrideDir on top. Two override files may not define the same key.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]*template.Template)}

	raw, err := bundled.ReadFile(bundledFile)
	if err != nil {
		return nil, fmt.Errorf("read bundled messages: %w", err)
	}
	if err := c.merge(bundledFile, raw, nil); err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		if err := c.mergeDir(dir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns the bundled catalog. The bundled file is compiled into the
// binary, so a failure here is a build defect.
func Default() *Catalog {
	c, err := New("")
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) mergeDir(dir string) error {
	matches, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read message dir: %w", err)
	}
	var names []string
	for _, e := range matches {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	owner := make(map[string]string)
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := c.merge(name, raw, owner); err != nil {
			return err
		}
	}
	return nil
}

// merge compiles every leaf of one YAML document into c. When owner is
// non-nil it records which file defined each key and rejects repeats.
func (c *Catalog) merge(name string, raw []byte, owner map[string]string) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	leaves := make(map[string]string)
	if err := flatten(doc, "", leaves); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	compiled := make(map[string]*template.Template, len(leaves))
	for key, text := range leaves {
		if owner != nil {
			if prev, ok := owner[key]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", key, prev, name)
			}
			owner[key] = name
		}
		t, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return fmt.Errorf("compile %s in %s: %w", key, name, err)
		}
		compiled[key] = t
	}

	c.mu.Lock()
	for key, t := range compiled {
		c.entries[key] = t
	}
	c.mu.Unlock()
	return nil
}

func flatten(node any, prefix string, out map[string]string) error {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(child, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		if strings.TrimSpace(v) != "" {
			out[prefix] = v
		}
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Keys lists every loaded key in sorted order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// RequireRejections reports every code without an errors.<code> entry.
func (c *Catalog) RequireRejections(codes ...string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var missing []string
	for _, code := range codes {
		if _, ok := c.entries["errors."+code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("messages missing for rejection codes: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Render executes the entry for key with data.
func (c *Catalog) Render(key string, data any) (string, error) {
	c.mu.RLock()
	t, ok := c.entries[strings.TrimSpace(key)]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template not found: %s", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Rejection renders errors.<code>, falling back to fallback when the entry
// is missing or cannot be rendered with data.
func (c *Catalog) Rejection(code string, data map[string]any, fallback string) string {
	if c == nil {
		return fallback
	}
	msg, err := c.Render("errors."+code, data)
	if err != nil {
		return fallback
	}
	return msg
}
