package broadcast

import (
	"fmt"

	"github.com/osteele/liquid"
)

// renderer compiles subject and body once per broadcast and renders them
// per recipient.
type renderer struct {
	subject *liquid.Template
	html    *liquid.Template
}

func newEngine() *liquid.Engine {
	engine := liquid.NewEngine()
	// {{ name | default: "there" }} also covers empty strings.
	engine.RegisterFilter("default", func(value any, fallback string) any {
		if value == nil {
			return fallback
		}
		if s, ok := value.(string); ok && s == "" {
			return fallback
		}
		return value
	})
	return engine
}

func compile(engine *liquid.Engine, subject, html string) (*renderer, error) {
	st, err := engine.ParseString(subject)
	if err != nil {
		return nil, fmt.Errorf("subject: %v", err)
	}
	ht, err := engine.ParseString(html)
	if err != nil {
		return nil, fmt.Errorf("html: %v", err)
	}
	return &renderer{subject: st, html: ht}, nil
}

func (r *renderer) render(bindings map[string]any) (subject, html string, err error) {
	subject, serr := r.subject.RenderString(bindings)
	if serr != nil {
		return "", "", fmt.Errorf("subject: %v", serr)
	}
	html, herr := r.html.RenderString(bindings)
	if herr != nil {
		return "", "", fmt.Errorf("html: %v", herr)
	}
	return subject, html, nil
}
