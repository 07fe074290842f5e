package adapter

import (
	"fmt"
	"sort"
)

// builders maps provider names to adapter constructors. Adapters are
// built once at startup and never mutated afterwards.
var builders = map[string]func() *Spec{
	"deepseek":   NewDeepSeek,
	"duckduckgo": NewDuckDuckGo,
	"gemini":     NewGemini,
	"kimi":       NewKimi,
	"mistral":    NewMistral,
	"openai":     NewOpenAI,
	"qwen":       NewQwen,
}

// Lookup returns the adapter registered under name.
func Lookup(name string) (Adapter, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %v)", name, Names())
	}
	return build(), nil
}

// Names lists all registered provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
