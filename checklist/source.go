package checklist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
)

// File name prefixes of the spreadsheet exports.
const (
	crimePrefix      = "罪名予測テーブル - "
	sentencingPrefix = "量刑予測_ヒアリングシート - "
	bigCategoryName  = "大分類"
)

// DirSource loads every sheet export found under Dir. Files are matched by
// name: "罪名予測テーブル - 大分類.tsv" is the big-category table, other
// "罪名予測テーブル - {category}" files are crime detail sheets and
// "量刑予測_ヒアリングシート - {category}" files are sentencing sheets.
// Both .tsv and .html exports are read.
type DirSource struct {
	Dir    string
	logger *slog.Logger
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir, logger: logging.WithComponent("checklist")}
}

// Catalogue implements Provider. A missing directory yields an empty
// catalogue. Unreadable files are logged and skipped.
func (d *DirSource) Catalogue(ctx context.Context) (*Catalogue, error) {
	cat := &Catalogue{}
	if d.Dir == "" {
		return cat, nil
	}
	if _, err := os.Stat(d.Dir); errors.Is(err, fs.ErrNotExist) {
		d.logger.Warn("checklist directory not found", "dir", d.Dir)
		return cat, nil
	}

	err := filepath.WalkDir(d.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			return nil
		}
		name, kind, ok := classify(entry.Name())
		if !ok {
			return nil
		}
		sheet, err := loadSheet(path, name, kind)
		if err != nil {
			d.logger.Warn("skipping unreadable sheet", "path", path, "error", err)
			return nil
		}
		cat.add(sheet)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load checklist %s: %w", d.Dir, err)
	}
	d.logger.Debug("checklist loaded",
		"crime_details", len(cat.CrimeDetails),
		"sentencing", len(cat.Sentencing),
		"has_big", cat.Big != nil,
	)
	return cat, nil
}

// classify derives the sheet name and kind from an export file name.
func classify(file string) (string, Kind, bool) {
	ext := strings.ToLower(filepath.Ext(file))
	if ext != ".tsv" && ext != ".html" && ext != ".htm" {
		return "", "", false
	}
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	switch {
	case strings.HasPrefix(stem, sentencingPrefix):
		return strings.TrimSpace(strings.TrimPrefix(stem, sentencingPrefix)), KindSentencing, true
	case strings.HasPrefix(stem, crimePrefix):
		name := strings.TrimSpace(strings.TrimPrefix(stem, crimePrefix))
		if strings.Contains(name, bigCategoryName) {
			return name, KindBigCategory, true
		}
		return name, KindCrimeDetail, true
	default:
		return "", "", false
	}
}

func loadSheet(path, name string, kind Kind) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]string
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		rows, err = ParseTSV(f)
	} else {
		rows, err = ParseHTML(f)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}
	return newSheet(name, kind, rows), nil
}
