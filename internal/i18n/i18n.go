// Package i18n loads the UI string tables and picks a language per request.
//
// Each <dir>/<tag>.yaml file is one language. Nested YAML maps flatten to
// dotted keys ("home.aside.price_range"). Messages are fmt-style formats.
package i18n

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	"shopfront/internal/validate"
)

// CookieName holds the chosen language.
const CookieName = "lng"

type Bundle struct {
	dir string
	def language.Tag

	mu      sync.RWMutex
	tags    []language.Tag
	names   map[language.Tag]string
	matcher language.Matcher
	cat     *catalog.Builder
	keys    map[language.Tag]map[string]struct{}
}

// Load reads every *.yaml in dir. def must be one of them.
func Load(dir, def string) (*Bundle, error) {
	defTag, err := language.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("i18n: default language %q: %w", def, err)
	}
	b := &Bundle{dir: dir, def: defTag}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload re-reads the directory. On error the previous tables stay.
func (b *Bundle) Reload() error {
	files, err := filepath.Glob(filepath.Join(b.dir, "*.yaml"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	cat := catalog.NewBuilder(catalog.Fallback(b.def))
	keys := map[language.Tag]map[string]struct{}{}
	names := map[language.Tag]string{}
	tags := []language.Tag{b.def}
	for _, f := range files {
		tag, err := language.Parse(strings.TrimSuffix(filepath.Base(f), ".yaml"))
		if err != nil {
			return fmt.Errorf("i18n: %s: %w", f, err)
		}
		raw, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return fmt.Errorf("i18n: %s: %w", f, err)
		}
		flat := map[string]string{}
		flatten("", tree, flat)
		keys[tag] = make(map[string]struct{}, len(flat))
		for k, v := range flat {
			if err := cat.SetString(tag, k, v); err != nil {
				return fmt.Errorf("i18n: %s: %s: %w", f, k, err)
			}
			keys[tag][k] = struct{}{}
		}
		names[tag] = flat["language.name"]
		if tag != b.def {
			tags = append(tags, tag)
		}
	}
	if _, ok := keys[b.def]; !ok {
		return fmt.Errorf("i18n: no %s.yaml in %s", b.def, b.dir)
	}

	b.mu.Lock()
	b.tags = tags
	b.names = names
	b.keys = keys
	b.cat = cat
	b.matcher = language.NewMatcher(tags)
	b.mu.Unlock()
	return nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flatten(key, t, out)
		case string:
			out[key] = t
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}

func (b *Bundle) Default() language.Tag { return b.def }

// Language is a selectable UI language.
type Language struct {
	Tag  string
	Name string
}

// Languages lists the loaded languages, default first.
func (b *Bundle) Languages() []Language {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Language, 0, len(b.tags))
	for _, t := range b.tags {
		out = append(out, Language{Tag: t.String(), Name: b.names[t]})
	}
	return out
}

// Supported reports whether lang is one of the loaded languages.
func (b *Bundle) Supported(lang string) bool {
	tag, err := language.Parse(lang)
	if err != nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.keys[tag]
	return ok
}

// Match picks the language for a request: the cookie wins, then
// Accept-Language, then the default.
func (b *Bundle) Match(cookie, acceptLanguage string) language.Tag {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if cookie != "" {
		if tag, err := language.Parse(cookie); err == nil {
			if _, ok := b.keys[tag]; ok {
				return tag
			}
		}
	}
	if acceptLanguage == "" {
		return b.def
	}
	_, idx, conf := b.matcher.Match(parseAccept(acceptLanguage)...)
	if conf == language.No {
		return b.def
	}
	return b.tags[idx]
}

func parseAccept(h string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(h)
	if err != nil {
		return nil
	}
	return tags
}

// T formats key in lang. Unknown keys fall back to the default language and
// then to the key itself.
func (b *Bundle) T(lang, key string, args ...any) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = b.def
	}
	b.mu.RLock()
	cat := b.cat
	_, ok := b.keys[tag][key]
	if !ok {
		if _, ok = b.keys[b.def][key]; ok {
			tag = b.def
		}
	}
	b.mu.RUnlock()
	if !ok {
		return key
	}
	return message.NewPrinter(tag, message.Catalog(cat)).Sprintf(key, args...)
}

// Number formats v rounded to an integer with lang's digit grouping.
func (b *Bundle) Number(lang string, v float64) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = b.def
	}
	return message.NewPrinter(tag).Sprintf("%d", int64(math.Round(v)))
}

// FieldError renders a validation error. Server messages are shown as sent.
func (b *Bundle) FieldError(lang string, e validate.FieldError) string {
	if e.Code == validate.CodeServer {
		return e.Message
	}
	if s := b.T(lang, e.Code, e.Args...); s != e.Code {
		return s
	}
	return e.Message
}
