package checklist

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var reSpaces = regexp.MustCompile(`[ \t\x{3000}]+`)

// cleanCell strips control characters and collapses runs of blanks,
// including ideographic spaces, in one table cell.
func cleanCell(text string) string {
	b := strings.Map(func(r rune) rune {
		if r == '\n' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	b = reSpaces.ReplaceAllString(b, " ")
	b = strings.TrimSpace(b)
	// Spreadsheet exports disagree on the circle glyph.
	switch b {
	case "○", "〇", "◯":
		return Mark
	}
	return b
}

// ParseTSV reads a tab separated export. Blank rows are dropped.
func ParseTSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse tsv: %w", err)
		}
		row := make([]string, len(record))
		blank := true
		for i, cell := range record {
			row[i] = cleanCell(cell)
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// ParseHTML reads the first table of an HTML export, the shape spreadsheet
// tools produce when a sheet is published or downloaded as a web page.
func ParseHTML(r io.Reader) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("parse html: no table found")
	}
	return parseTable(table), nil
}

func parseTable(sel *goquery.Selection) [][]string {
	var rows [][]string
	sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cols []string
		blank := true
		tr.Find("th,td").Each(func(j int, td *goquery.Selection) {
			cell := cleanCell(td.Text())
			if cell != "" {
				blank = false
			}
			cols = append(cols, cell)
		})
		if !blank {
			rows = append(rows, cols)
		}
	})
	return rows
}

func newSheet(name string, kind Kind, rows [][]string) *Sheet {
	s := &Sheet{Name: name, Kind: kind}
	if len(rows) > 0 {
		s.Header = rows[0]
		s.Rows = rows[1:]
	}
	return s
}
