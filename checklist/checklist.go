// Package checklist loads the reference hearing sheets used to decide which
// facts a consultation still needs: the crime big-category table, the
// per-category crime detail sheets and the sentencing hearing sheets.
package checklist

import (
	"context"
	"sort"
	"strings"
)

// Mark is the cell value flagging that a feature applies to a row.
const Mark = "◯"

// Kind tells which family a sheet belongs to.
type Kind string

const (
	KindBigCategory Kind = "big_category"
	KindCrimeDetail Kind = "crime_detail"
	KindSentencing  Kind = "sentencing"
)

// Sheet is one exported table. Header holds the first row; Rows the rest.
type Sheet struct {
	Name   string
	Kind   Kind
	Header []string
	Rows   [][]string
}

// Features returns the header cells after the first column.
func (s *Sheet) Features() []string {
	if s == nil || len(s.Header) < 2 {
		return nil
	}
	var out []string
	for _, h := range s.Header[1:] {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Text renders the sheet as comma separated lines for inclusion in a prompt.
func (s *Sheet) Text() string {
	if s == nil {
		return ""
	}
	lines := make([]string, 0, len(s.Rows)+1)
	lines = append(lines, strings.Join(s.Header, ","))
	for _, row := range s.Rows {
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

// Category is a row of the big-category table with the features marked for it.
type Category struct {
	Name     string
	Features []string
}

// Catalogue is the full set of reference sheets. A nil or zero Catalogue is
// valid and empty.
type Catalogue struct {
	Big          *Sheet
	CrimeDetails map[string]*Sheet
	Sentencing   map[string]*Sheet
}

// Provider supplies the catalogue. Implementations return an empty
// catalogue rather than an error when no sheets exist.
type Provider interface {
	Catalogue(ctx context.Context) (*Catalogue, error)
}

// Empty reports whether the catalogue holds no sheets.
func (c *Catalogue) Empty() bool {
	return c == nil || (c.Big == nil && len(c.CrimeDetails) == 0 && len(c.Sentencing) == 0)
}

// Categories lists the big categories with the feature columns marked for each.
func (c *Catalogue) Categories() []Category {
	if c == nil || c.Big == nil {
		return nil
	}
	var out []Category
	for _, row := range c.Big.Rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		cat := Category{Name: row[0]}
		for idx := 1; idx < len(row) && idx < len(c.Big.Header); idx++ {
			if row[idx] == Mark {
				cat.Features = append(cat.Features, c.Big.Header[idx])
			}
		}
		out = append(out, cat)
	}
	return out
}

// BigCategorySummary renders one line per big category.
func (c *Catalogue) BigCategorySummary() string {
	cats := c.Categories()
	lines := make([]string, 0, len(cats))
	for _, cat := range cats {
		features := "（特徴情報なし）"
		if len(cat.Features) > 0 {
			features = strings.Join(cat.Features, ", ")
		}
		lines = append(lines, "- "+cat.Name+": "+features)
	}
	return strings.Join(lines, "\n")
}

// DetailSummary renders the hearing items of every crime detail sheet.
func (c *Catalogue) DetailSummary() string {
	if c == nil {
		return ""
	}
	return featureSummary(c.CrimeDetails)
}

// SentencingSummary renders the hearing items of every sentencing sheet.
func (c *Catalogue) SentencingSummary() string {
	if c == nil {
		return ""
	}
	return featureSummary(c.Sentencing)
}

// DetailSheet returns the crime detail sheet for a big category.
func (c *Catalogue) DetailSheet(name string) (*Sheet, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.CrimeDetails[strings.TrimSpace(name)]
	return s, ok
}

// SheetNames returns the sorted names of the crime detail sheets.
func (c *Catalogue) SheetNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.CrimeDetails))
	for name := range c.CrimeDetails {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalogue) add(s *Sheet) {
	switch s.Kind {
	case KindBigCategory:
		c.Big = s
	case KindCrimeDetail:
		if c.CrimeDetails == nil {
			c.CrimeDetails = make(map[string]*Sheet)
		}
		c.CrimeDetails[s.Name] = s
	case KindSentencing:
		if c.Sentencing == nil {
			c.Sentencing = make(map[string]*Sheet)
		}
		c.Sentencing[s.Name] = s
	}
}

func featureSummary(sheets map[string]*Sheet) string {
	names := make([]string, 0, len(sheets))
	for name := range sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		features := sheets[name].Features()
		if len(features) == 0 {
			continue
		}
		lines = append(lines, "- "+name+": "+strings.Join(features, ", "))
	}
	return strings.Join(lines, "\n")
}

// Static serves a fixed catalogue.
type Static struct {
	C *Catalogue
}

// Catalogue implements Provider.
func (s Static) Catalogue(ctx context.Context) (*Catalogue, error) {
	if s.C == nil {
		return &Catalogue{}, nil
	}
	return s.C, nil
}
