// Package tmplx wraps text/template for operator-supplied prompt text.
// Templates are checked once at startup against sample data so a bad
// override fails the boot instead of every request.
package tmplx

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

var (
	ErrParseTemplate   = errors.New("tmplx: parse error")
	ErrRenderTemplate  = errors.New("tmplx: render error")
	ErrMissingField    = errors.New("tmplx: required field not referenced")
	ErrEmptyOutput    = errors.New("tmplx: template rendered empty")
)

type Template struct {
	name string
	tmpl *template.Template
}

type options struct {
	funcs    template.FuncMap
	sample   any
	checks   []CheckFunc
	required []string
}

type Option func(*options)

// CheckFunc inspects the sample rendering.
type CheckFunc func(rendered string) error

func builtins() template.FuncMap {
	return template.FuncMap{
		"quote":   quote,
		"default": fallback,
		"json":    toJSON,
		"jsonGet": jsonGet,
		"trim":    func(v any) string { return strings.TrimSpace(cast.ToString(v)) },
		"upper":   func(v any) string { return strings.ToUpper(cast.ToString(v)) },
		"lower":   func(v any) string { return strings.ToLower(cast.ToString(v)) },
	}
}

func WithFunc(name string, fn any) Option {
	return func(o *options) {
		o.funcs[name] = fn
	}
}

// WithSample renders the template once with sample at parse time and runs
// every check against the result.
func WithSample(sample any, checks ...CheckFunc) Option {
	return func(o *options) {
		o.sample = sample
		o.checks = append(o.checks, checks...)
	}
}

// RequireFields fails parsing when the template text does not reference
// each of the named fields.
func RequireFields(fields ...string) Option {
	return func(o *options) {
		o.required = append(o.required, fields...)
	}
}

// NotEmpty is a CheckFunc rejecting whitespace-only output.
func NotEmpty(rendered string) error {
	if strings.TrimSpace(rendered) == "" {
		return ErrEmptyOutput
	}
	return nil
}

func MustParse(name, text string, opts ...Option) *Template {
	t, err := Parse(name, text, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func Parse(name, text string, opts ...Option) (*Template, error) {
	o := &options{funcs: builtins()}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.required) > 0 {
		present := make(map[string]struct{})
		for _, f := range Fields(text) {
			present[f] = struct{}{}
		}
		for _, f := range o.required {
			if _, ok := present[f]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingField, f)
			}
		}
	}

	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(o.funcs).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseTemplate, err)
	}
	t := &Template{name: name, tmpl: tmpl}

	if o.sample != nil || len(o.checks) > 0 {
		out, err := t.Execute(o.sample)
		if err != nil {
			return nil, err
		}
		for _, check := range o.checks {
			if err := check(out); err != nil {
				return nil, fmt.Errorf("check template %s: %w", name, err)
			}
		}
	}
	return t, nil
}

func (t *Template) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRenderTemplate, t.name, err)
	}
	return buf.String(), nil
}

func quote(v any) (string, error) {
	return toJSON(cast.ToString(v))
}

func fallback(def, value any) any {
	if value == nil || cast.ToString(value) == "" {
		return def
	}
	return value
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func jsonGet(path, raw string) string {
	return gjson.Get(raw, path).String()
}

var fieldRe = regexp.MustCompile(`{{[^{}]*\.(\w+)[^{}]*}}`)

// Fields lists the top-level field names a template references, in order
// of first use.
func Fields(text string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, m := range fieldRe.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
