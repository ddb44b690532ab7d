/*
Discovery
Copyright (C) 2026 Ivan Latunov

This program is free software; you can redistribute it and/or modify it under
the terms of the GNU General Public License as published by the Free Software
Foundation; either version 2 of the License, or (at your option) any later
version.

This program is distributed in the hope that it will be useful, but WITHOUT ANY
WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
PARTICULAR PURPOSE.  See the GNU General Public License for more details.

You should have received a copy of the GNU General Public License along with
this program; if not, write to the Free Software Foundation, Inc., 59 Temple
Place, Suite 330, Boston, MA 02111-1307 USA
*/

// Package discovery finds ground truth / prediction files on disk.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"

	"github.com/xswordsx/gifcompare/internal/logging"
)

// ImageExtensions are the file extensions FindSimilar considers.
var ImageExtensions = []string{".gif", ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

// Folder is a directory holding a ground truth file, a prediction, or both.
type Folder struct {
	Rel  string // relative to the search base
	GT   string // empty when absent
	Pred string // empty when absent
}

// Complete reports whether both files were found.
func (f Folder) Complete() bool { return f.GT != "" && f.Pred != "" }

func (f Folder) Status() string {
	switch {
	case f.Complete():
		return "GT+PRED"
	case f.GT != "":
		return "GT only"
	}
	return "PRED only"
}

func (f Folder) String() string { return fmt.Sprintf("[%s] %s", f.Status(), f.Rel) }

// Complete filters folders down to those with both files.
func Complete(folders []Folder) []Folder {
	var out []Folder
	for _, f := range folders {
		if f.Complete() {
			out = append(out, f)
		}
	}
	return out
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// walkDirs calls visit for every directory below base, excluding base itself.
// Unreadable directories are skipped and their errors collected.
func walkDirs(ctx context.Context, base string, visit func(path string, d fs.DirEntry)) error {
	fi, err := os.Stat(base)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", base)
	}
	var errs *multierror.Error
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logging.Warningf("Skipping %s: %v", path, err)
			errs = multierror.Append(errs, err)
			if d != nil && d.IsDir() && path != base {
				return fs.SkipDir
			}
			return nil
		}
		visit(path, d)
		return nil
	})
	if err != nil {
		return err
	}
	return errs.ErrorOrNil()
}

// FindPairs lists every directory below base that contains a file named
// gtName or predName, sorted by relative path. The returned error, if any,
// describes directories that could not be read; the folders found are still
// returned.
func FindPairs(ctx context.Context, base, gtName, predName string) ([]Folder, error) {
	if gtName == "" && predName == "" {
		return nil, nil
	}
	var folders []Folder
	err := walkDirs(ctx, base, func(path string, d fs.DirEntry) {
		if !d.IsDir() || path == base {
			return
		}
		var f Folder
		if gtName != "" && isFile(filepath.Join(path, gtName)) {
			f.GT = filepath.Join(path, gtName)
		}
		if predName != "" && isFile(filepath.Join(path, predName)) {
			f.Pred = filepath.Join(path, predName)
		}
		if f.GT == "" && f.Pred == "" {
			return
		}
		f.Rel, _ = filepath.Rel(base, path)
		folders = append(folders, f)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Rel < folders[j].Rel })
	return folders, err
}

func hasImageExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// globEscaper quotes the match syntax other than '*' and '?'.
var globEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// FindSimilar lists image files below base whose base name matches pattern.
// The pattern uses '*' and '?' wildcards and ignores case; every other
// character, brackets included, matches itself.
func FindSimilar(ctx context.Context, base, pattern string) ([]string, error) {
	pattern = globEscaper.Replace(strings.ToLower(pattern))
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	var out []string
	err := walkDirs(ctx, base, func(file string, d fs.DirEntry) {
		if d.IsDir() || !hasImageExt(d.Name()) {
			return
		}
		if ok, _ := path.Match(pattern, strings.ToLower(d.Name())); ok {
			out = append(out, file)
		}
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	sort.Strings(out)
	return out, err
}

// PatternFromFile derives a FindSimilar pattern from an example file name by
// replacing each run of digits in its stem with '*'. "pred_0012.gif" becomes
// "pred_*.gif".
func PatternFromFile(path string) string {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	var b strings.Builder
	inDigits := false
	for _, r := range stem {
		if unicode.IsDigit(r) {
			if !inDigits {
				b.WriteByte('*')
			}
			inDigits = true
			continue
		}
		inDigits = false
		b.WriteRune(r)
	}
	b.WriteString(ext)
	return b.String()
}
