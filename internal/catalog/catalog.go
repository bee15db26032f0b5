// Package catalog discovers the component sets a document offers for
// generation and summarizes what generating each would produce.
package catalog

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/expand"
	"github.com/roach88/variantforge/internal/logger"
	"github.com/roach88/variantforge/internal/schema"
)

// Summary describes one discoverable component set.
type Summary struct {
	ID                 document.NodeID `json:"id"`
	Name               string          `json:"name"`
	Path               string          `json:"path"`
	Properties         int             `json:"properties"`
	Combinations       int             `json:"combinations"`
	NestedCombinations int             `json:"nestedCombinations"`
	NestedInstances    int             `json:"nestedInstances"`
	HasText            bool            `json:"hasText"`
	TextCount          int             `json:"textCount"`
	DocumentationLinks []string        `json:"documentationLinks"`
}

// Catalog builds component summaries.
type Catalog struct {
	lang        language.Tag
	textSamples int
	log         *zap.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLanguage sets the collation language for ordering. Default: English.
func WithLanguage(tag language.Tag) Option {
	return func(c *Catalog) { c.lang = tag }
}

// WithTextSamples counts combinations as if every TEXT property received n
// samples. Default 0: TEXT properties do not multiply the count.
func WithTextSamples(n int) Option {
	return func(c *Catalog) { c.textSamples = n }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) { c.log = logger.OrNop(l) }
}

// New creates a Catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{lang: language.English, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover summarizes every public component set in host, ordered by name.
//
// Private components (leading "." or "_") are skipped. A component whose
// counts cannot be computed is dropped and logged; discovery of the others
// continues. The returned error is non-nil only when the host cannot list
// components at all.
func (c *Catalog) Discover(ctx context.Context, host document.Host) ([]Summary, error) {
	comps, err := host.Components(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list components")
	}

	out := make([]Summary, 0, len(comps))
	for _, comp := range comps {
		if comp.Private() {
			continue
		}
		s, err := c.Summarize(ctx, host, comp)
		if err != nil {
			c.log.Warn("component excluded from discovery",
				zap.String(logger.FieldComponent, string(comp.ID)),
				zap.String("name", comp.Name),
				zap.Error(err))
			continue
		}
		out = append(out, s)
	}

	col := collate.New(c.lang)
	slices.SortStableFunc(out, func(a, b Summary) int {
		return col.CompareString(a.Name, b.Name)
	})
	return out, nil
}

// Summarize computes the summary of one component set.
func (c *Catalog) Summarize(ctx context.Context, host document.Host, comp *document.Component) (Summary, error) {
	s, err := comp.Schema()
	if err != nil {
		return Summary{}, errors.Wrap(err, "read properties")
	}
	nested, err := expand.NestedCount(ctx, host, comp, c.textSamples)
	if err != nil {
		return Summary{}, errors.Wrap(err, "count nested combinations")
	}

	links := comp.DocumentationLinks
	if links == nil {
		links = []string{}
	}
	text := s.CountKind(schema.KindText)
	return Summary{
		ID:                 comp.ID,
		Name:               norm.NFC.String(comp.Name),
		Path:               norm.NFC.String(comp.Path),
		Properties:         s.Len(),
		Combinations:       expand.Count(s, c.textSamples),
		NestedCombinations: nested.Combinations,
		NestedInstances:    nested.Instances,
		HasText:            text > 0,
		TextCount:          text,
		DocumentationLinks: links,
	}, nil
}
