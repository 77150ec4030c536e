// Package corpus loads the fixed document set the retriever searches:
// markdown knowledge bases split into sections plus JSON guides mined
// for substantial text values.
package corpus

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deskwise/deskwise/internal/domain"
)

const minJSONTextLen = 50

var knowledgeFiles = []string{
	"knowledge_base.md",
	"company_it_policies.md",
	"installation_guides.json",
	"troubleshooting_database.json",
}

const categoriesFile = "categories.json"

// Corpus is the read-only document set plus category metadata. Safe
// for concurrent use once loaded.
type Corpus struct {
	docs       []Document
	categories map[domain.Category]CategoryInfo
}

// New builds a corpus from pre-extracted documents
func New(docs []Document) *Corpus {
	return &Corpus{docs: docs, categories: map[domain.Category]CategoryInfo{}}
}

// Load reads all knowledge sources under dir. Missing files are
// skipped; malformed files fail the load so a broken deploy is caught
// at startup rather than at query time.
func Load(dir string) (*Corpus, error) {
	c := &Corpus{categories: map[domain.Category]CategoryInfo{}}

	for _, name := range knowledgeFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		switch filepath.Ext(name) {
		case ".md":
			c.addMarkdown(name, string(data))
		case ".json":
			if err := c.addJSON(name, data); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", name, err)
			}
		}
	}

	if err := c.loadCategories(filepath.Join(dir, categoriesFile)); err != nil {
		return nil, err
	}

	log.Printf("corpus: loaded %d documents from %s", len(c.docs), dir)
	return c, nil
}

// Documents returns the corpus in insertion order. Callers must not
// mutate the returned slice.
func (c *Corpus) Documents() []Document {
	return c.docs
}

// Len returns the number of loaded documents
func (c *Corpus) Len() int {
	return len(c.docs)
}

// CategoryInfo returns metadata for a category, if present
func (c *Corpus) CategoryInfo(cat domain.Category) (CategoryInfo, bool) {
	info, ok := c.categories[cat]
	return info, ok
}

// CountByKind reports document counts per source kind, for /status
func (c *Corpus) CountByKind() map[Kind]int {
	counts := make(map[Kind]int, 2)
	for _, d := range c.docs {
		counts[d.Kind]++
	}
	return counts
}

// Sources lists the distinct source files represented in the corpus
func (c *Corpus) Sources() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.docs {
		if _, ok := seen[d.Source]; ok {
			continue
		}
		seen[d.Source] = struct{}{}
		out = append(out, d.Source)
	}
	return out
}

// addMarkdown splits a markdown file into one document per ## section
func (c *Corpus) addMarkdown(source, content string) {
	sections := strings.Split(content, "\n## ")
	for i, section := range sections {
		if strings.TrimSpace(section) == "" {
			continue
		}
		if i > 0 {
			section = "## " + section
		}

		lines := strings.SplitN(strings.TrimSpace(section), "\n", 2)
		title := strings.TrimSpace(strings.TrimLeft(lines[0], "# "))
		if title == "" {
			title = fmt.Sprintf("section %d", i)
		}

		c.docs = append(c.docs, Document{
			ID:      fmt.Sprintf("%s#%d", source, i),
			Source:  source,
			Section: title,
			Content: strings.TrimSpace(section),
			Kind:    KindMarkdown,
		})
	}
}

// addJSON mines a JSON document for substantial string values and
// lists of strings, one document per hit
func (c *Corpus) addJSON(source string, data []byte) error {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return err
	}

	seq := 0
	c.walkJSON(source, "", root, &seq)
	return nil
}

func (c *Corpus) walkJSON(source, path string, node interface{}, seq *int) {
	switch v := node.(type) {
	case map[string]interface{}:
		// Deterministic order: iterate keys sorted
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			child := v[k]

			switch cv := child.(type) {
			case string:
				if len(cv) >= minJSONTextLen {
					c.appendJSONDoc(source, childPath, fmt.Sprintf("%s: %s", k, cv), seq)
				}
			case []interface{}:
				if items, ok := stringItems(cv); ok {
					content := k + ":\n- " + strings.Join(items, "\n- ")
					c.appendJSONDoc(source, childPath, content, seq)
				} else {
					c.walkJSON(source, childPath, child, seq)
				}
			case map[string]interface{}:
				c.walkJSON(source, childPath, child, seq)
			}
		}
	case []interface{}:
		for i, item := range v {
			childPath := fmt.Sprintf("%s[%d]", path, i)
			c.walkJSON(source, childPath, item, seq)
		}
	}
}

func (c *Corpus) appendJSONDoc(source, section, content string, seq *int) {
	c.docs = append(c.docs, Document{
		ID:      fmt.Sprintf("%s#%d", source, *seq),
		Source:  source,
		Section: section,
		Content: content,
		Kind:    KindJSON,
	})
	*seq++
}

func stringItems(list []interface{}) ([]string, bool) {
	if len(list) == 0 {
		return nil, false
	}
	items := make([]string, 0, len(list))
	for _, it := range list {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		items = append(items, s)
	}
	return items, true
}

type categoriesDoc struct {
	Categories map[string]CategoryInfo `json:"categories"`
}

func (c *Corpus) loadCategories(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read categories file: %w", err)
	}

	var doc categoriesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse categories file: %w", err)
	}

	for key, info := range doc.Categories {
		cat := domain.ParseCategory(key)
		if cat == domain.CategoryUnknown {
			log.Printf("corpus: skipping unrecognized category %q", key)
			continue
		}
		c.categories[cat] = info
	}
	return nil
}
