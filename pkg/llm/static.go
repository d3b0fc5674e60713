package llm

import (
	"context"
	"strings"
	"sync"
)

// StaticProvider answers every prompt with a fixed reply, or with the reply of
// the first matching rule. Used offline and in tests.
type StaticProvider struct {
	mu      sync.Mutex
	Reply   string
	Rules   map[string]string // prompt substring -> reply
	Err     error
	Prompts []string
}

var _ LLMProvider = (*StaticProvider)(nil)

func NewStaticProvider(reply string) *StaticProvider {
	return &StaticProvider{Reply: reply, Rules: map[string]string{}}
}

func (p *StaticProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var prompt string
	if len(history) > 0 {
		prompt = history[len(history)-1].Content
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.Prompts = append(p.Prompts, prompt)
	if p.Err != nil {
		return "", p.Err
	}
	for needle, reply := range p.Rules {
		if strings.Contains(prompt, needle) {
			return reply, nil
		}
	}
	return p.Reply, nil
}

func (p *StaticProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

// Calls returns how many prompts were answered or refused.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Prompts)
}
