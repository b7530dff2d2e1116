package telegram

import (
	"sort"
	"strings"
)

func canonicalEngine(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "gpt" {
		return "openai"
	}
	return name
}

func (r *Router) engineNames() []string {
	names := make([]string, 0, len(r.Pipelines))
	for n := range r.Pipelines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// pipelineFor returns the chat's selected pipeline and its provider name.
func (r *Router) pipelineFor(chatID int64) (Pipeline, string) {
	name := r.chats.getEngine(chatID)
	if name == "" {
		name = canonicalEngine(r.DefaultEngine)
	}
	if p, ok := r.Pipelines[name]; ok {
		return p, name
	}
	return nil, name
}

func (r *Router) handleEngine(chatID int64, args string) {
	available := strings.Join(r.engineNames(), " | ")
	if args == "" {
		_, cur := r.pipelineFor(chatID)
		r.send(chatID, "Current provider: "+cur+"\nAvailable: "+available+"\nUsage: /engine <name>")
		return
	}
	name := canonicalEngine(strings.Fields(args)[0])
	if _, ok := r.Pipelines[name]; !ok {
		r.send(chatID, "Unknown or unconfigured provider. Available: "+available)
		return
	}
	r.chats.setEngine(chatID, name)
	r.send(chatID, "✅ Provider: "+name)
}
