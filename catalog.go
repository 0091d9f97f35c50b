package loom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"gopkg.in/yaml.v3"
)

// Catalog is the registry of invokable functions, keyed by the
// (plugin, function) pair. Registration happens during setup; a catalog is
// read-only during render and turn execution, so concurrent reads need no
// locking.
type Catalog struct {
	entries []*Function
	byPair  map[string]*Function // "plugin\x00function" -> entry
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make([]*Function, 0),
		byPair:  make(map[string]*Function),
	}
}

// Register adds a function to the catalog. Registering two entries with the
// same (plugin, function) pair fails with a DuplicateFunctionError.
func (c *Catalog) Register(fn *Function) error {
	key := pairKey(fn.PluginName(), fn.FunctionName())
	if _, exists := c.byPair[key]; exists {
		return &DuplicateFunctionError{
			Plugin:   fn.PluginName(),
			Function: fn.FunctionName(),
		}
	}
	c.byPair[key] = fn
	c.entries = append(c.entries, fn)
	return nil
}

// MustRegister is Register for setup code where a duplicate is a programming
// error. Panics on conflict.
func (c *Catalog) MustRegister(fn *Function) *Catalog {
	if err := c.Register(fn); err != nil {
		panic(err)
	}
	return c
}

// RemovePlugin removes every entry registered under plugin, so the plugin can
// be re-added wholesale. Individual entries are never mutated or replaced.
func (c *Catalog) RemovePlugin(plugin string) {
	kept := c.entries[:0]
	for _, fn := range c.entries {
		if fn.PluginName() == plugin {
			delete(c.byPair, pairKey(fn.PluginName(), fn.FunctionName()))
			continue
		}
		kept = append(kept, fn)
	}
	c.entries = kept
}

// Resolve looks up a function reference. Accepted forms:
//
//   - "plugin-function" (the form models see in the tool manual)
//   - "plugin.function" (the form templates use)
//   - "function" (bare) - allowed only when exactly one plugin defines it,
//     otherwise an AmbiguousFunctionError
//
// Unknown references fail with a FunctionNotFoundError.
func (c *Catalog) Resolve(name string) (*Function, error) {
	if plugin, function, ok := splitQualified(name); ok {
		if fn, exists := c.byPair[pairKey(plugin, function)]; exists {
			return fn, nil
		}
		return nil, &FunctionNotFoundError{Name: name}
	}

	var matches []*Function
	for _, fn := range c.entries {
		if fn.FunctionName() == name {
			matches = append(matches, fn)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &FunctionNotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		plugins := make([]string, 0, len(matches))
		for _, fn := range matches {
			plugins = append(plugins, fn.PluginName())
		}
		sort.Strings(plugins)
		return nil, &AmbiguousFunctionError{Name: name, Plugins: plugins}
	}
}

// Len returns the number of registered functions.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Functions returns all entries in registration order.
func (c *Catalog) Functions() []*Function {
	out := make([]*Function, len(c.entries))
	copy(out, c.entries)
	return out
}

// FunctionFilter selects the subset of catalog entries advertised to the
// model for a turn. Nil slices mean "no constraint". Exclusions win over
// inclusions.
type FunctionFilter struct {
	// AllowedPlugins, when non-nil, limits the manual to these plugins.
	AllowedPlugins []string

	// ExcludedPlugins removes these plugins from the manual.
	ExcludedPlugins []string

	// AllowedFunctions, when non-nil, limits the manual to these qualified
	// names ("plugin-function").
	AllowedFunctions []string
}

// Filter returns entries matching the filter, in registration order.
// A nil filter returns everything.
func (c *Catalog) Filter(filter *FunctionFilter) []*Function {
	if filter == nil {
		return c.Functions()
	}
	var out []*Function
	for _, fn := range c.entries {
		if contains(filter.ExcludedPlugins, fn.PluginName()) {
			continue
		}
		if filter.AllowedPlugins != nil && !contains(filter.AllowedPlugins, fn.PluginName()) {
			continue
		}
		if filter.AllowedFunctions != nil && !contains(filter.AllowedFunctions, fn.QualifiedName()) {
			continue
		}
		out = append(out, fn)
	}
	return out
}

// ToolManual converts the filtered entries to LangChainGo tool definitions,
// the "function manual" advertised to the model for one turn.
func (c *Catalog) ToolManual(filter *FunctionFilter) []llms.Tool {
	entries := c.Filter(filter)
	manual := make([]llms.Tool, 0, len(entries))
	for _, fn := range entries {
		manual = append(manual, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        fn.QualifiedName(),
				Description: fn.Description(),
				Parameters:  fn.Schema(),
			},
		})
	}
	return manual
}

// ManualPrompt renders the filtered entries as a YAML catalog suitable for
// embedding in a system prompt, for models without native tool-calling.
func (c *Catalog) ManualPrompt(filter *FunctionFilter) string {
	entries := c.Filter(filter)
	if len(entries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Available functions:\n")
	for _, fn := range entries {
		fmt.Fprintf(&sb, "\n- %s: %s\n", fn.QualifiedName(), fn.Description())
		schemaYAML, err := yaml.Marshal(fn.Schema())
		if err != nil {
			continue
		}
		sb.WriteString("  Parameters:\n")
		for _, line := range strings.Split(string(schemaYAML), "\n") {
			if line != "" {
				sb.WriteString("    ")
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func pairKey(plugin, function string) string {
	return plugin + "\x00" + function
}

// splitQualified splits "plugin-function" or "plugin.function" on the first
// separator. Returns ok=false for bare names.
func splitQualified(name string) (plugin, function string, ok bool) {
	idx := strings.IndexAny(name, "-.")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
