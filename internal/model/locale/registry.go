package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var builtin embed.FS

// Registry holds the locales the wizard can run in.
type Registry struct {
	byCode      map[string]*Locale
	order       []string
	defaultCode string
}

// Builtin loads the embedded locales and selects defaultCode as fallback.
func Builtin(defaultCode string) (*Registry, error) {
	return Load(builtin, "locales", defaultCode)
}

// Load reads every *.yaml document under dir of fsys.
func Load(fsys fs.FS, dir, defaultCode string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read locale dir: %w", err)
	}

	reg := &Registry{byCode: make(map[string]*Locale)}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		var loc Locale
		if err := yaml.Unmarshal(raw, &loc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Name(), err)
		}
		if err := loc.compile(); err != nil {
			return nil, err
		}
		if _, dup := reg.byCode[loc.Code]; dup {
			return nil, fmt.Errorf("duplicate locale %s", loc.Code)
		}

		reg.byCode[loc.Code] = &loc
		reg.order = append(reg.order, loc.Code)
	}

	if len(reg.order) == 0 {
		return nil, fmt.Errorf("no locales found in %s", dir)
	}
	sort.Strings(reg.order)

	defaultCode = strings.ToLower(strings.TrimSpace(defaultCode))
	if _, ok := reg.byCode[defaultCode]; !ok {
		return nil, fmt.Errorf("default locale %q not available", defaultCode)
	}
	reg.defaultCode = defaultCode

	return reg, nil
}

// Get looks a locale up by code. An empty code resolves to the default.
func (r *Registry) Get(code string) (*Locale, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		code = r.defaultCode
	}
	loc, ok := r.byCode[code]
	return loc, ok
}

// Default returns the fallback locale.
func (r *Registry) Default() *Locale {
	return r.byCode[r.defaultCode]
}

// List returns the locales ordered by code.
func (r *Registry) List() []*Locale {
	out := make([]*Locale, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.byCode[code])
	}
	return out
}
