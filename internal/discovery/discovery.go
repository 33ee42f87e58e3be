// Package discovery enumerates benchmark units: one reference source per unit,
// matched by base name to comparison sources or project directories.
package discovery

import (
	"errors"
	"fmt"
	"iter"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwiater/crossbench/internal/logging"
	"github.com/mwiater/crossbench/internal/util"
)

// ErrNotFound is returned by Find when no category holds the named benchmark.
var ErrNotFound = errors.New("benchmark not found")

// Skip reasons reported through Options.OnSkip.
const (
	ReasonNoCounterpart = "no counterpart"
	ReasonExcluded      = "excluded"
)

// Language locates one language's sources inside a category: <category>/<Dir>/*<Ext>.
type Language struct {
	Name string
	Dir  string
	Ext  string
}

// Layout is the reference language plus the ordered comparison languages.
type Layout struct {
	Reference   Language
	Comparisons []Language
}

// Comparison is one counterpart of a reference source.
type Comparison struct {
	Language string
	// Path is a source file, or a project directory when Project is set.
	Path    string
	Project bool
}

// Unit is one benchmark: a reference implementation and its counterparts.
type Unit struct {
	Name        string
	Category    string
	CategoryDir string
	Reference   string
	Comparisons []Comparison
	Manifest    Manifest
}

// HasCounterpart reports whether at least one comparison artifact exists.
func (u Unit) HasCounterpart() bool { return len(u.Comparisons) > 0 }

// Comparison returns the counterpart for language, if present.
func (u Unit) Comparison(language string) (Comparison, bool) {
	for _, c := range u.Comparisons {
		if c.Language == language {
			return c, true
		}
	}
	return Comparison{}, false
}

// Options tunes enumeration.
type Options struct {
	// RequireCounterpart drops units without any comparison artifact.
	RequireCounterpart bool
	// Rand drives the shuffles; nil uses the global source.
	Rand *rand.Rand
	// OnSkip is called for every unit that is not yielded.
	OnSkip func(u Unit, reason string)
}

// Discover lazily yields units from categories. Category order and the order
// of reference files inside each category are shuffled on every call.
func Discover(layout Layout, categories []string, opts Options) iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		dirs := append([]string(nil), categories...)
		shuffle(opts.Rand, len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

		for _, dir := range dirs {
			refs, err := referenceFiles(layout, dir)
			if err != nil {
				logging.LogWarn("category %s: %v", dir, err)
				continue
			}
			manifest, err := LoadManifest(dir)
			if err != nil {
				logging.LogWarn("category %s: %v", dir, err)
			}
			shuffle(opts.Rand, len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })

			for _, ref := range refs {
				u := resolve(layout, dir, ref, manifest)
				if reason := skipReason(u, opts); reason != "" {
					logging.LogEvent("Skipping %s: %s", u.Name, describeSkip(layout, reason))
					if opts.OnSkip != nil {
						opts.OnSkip(u, reason)
					}
					continue
				}
				if !yield(u) {
					return
				}
			}
		}
	}
}

// Find locates the named unit in the first category that has its reference source.
// Counterpart and manifest checks are left to the caller.
func Find(layout Layout, categories []string, name string) (Unit, error) {
	for _, dir := range categories {
		ref := filepath.Join(dir, layout.Reference.Dir, name+layout.Reference.Ext)
		if !util.FileExists(ref) {
			continue
		}
		manifest, err := LoadManifest(dir)
		if err != nil {
			logging.LogWarn("category %s: %v", dir, err)
		}
		return resolve(layout, dir, ref, manifest), nil
	}
	return Unit{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

func referenceFiles(layout Layout, dir string) ([]string, error) {
	refDir := filepath.Join(dir, layout.Reference.Dir)
	entries, err := os.ReadDir(refDir)
	if err != nil {
		return nil, err
	}
	var refs []string
	for _, e := range entries {
		name := e.Name()
		// Hidden files are the harness's own parameterized copies.
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != layout.Reference.Ext {
			continue
		}
		refs = append(refs, filepath.Join(refDir, name))
	}
	return refs, nil
}

func resolve(layout Layout, dir, ref string, manifest Manifest) Unit {
	name := util.BaseName(ref)
	u := Unit{
		Name:        name,
		Category:    filepath.Base(dir),
		CategoryDir: dir,
		Reference:   ref,
		Manifest:    manifest,
	}
	for _, lang := range layout.Comparisons {
		file := filepath.Join(dir, lang.Dir, name+lang.Ext)
		project := filepath.Join(dir, lang.Dir, name)
		switch {
		case util.FileExists(file):
			u.Comparisons = append(u.Comparisons, Comparison{Language: lang.Name, Path: file})
		case util.DirExists(project):
			u.Comparisons = append(u.Comparisons, Comparison{Language: lang.Name, Path: project, Project: true})
		}
	}
	return u
}

func skipReason(u Unit, opts Options) string {
	if u.Manifest.Excludes(u.Name) {
		return ReasonExcluded
	}
	if opts.RequireCounterpart && !u.HasCounterpart() {
		return ReasonNoCounterpart
	}
	return ""
}

func describeSkip(layout Layout, reason string) string {
	if reason != ReasonNoCounterpart {
		return reason
	}
	names := make([]string, 0, len(layout.Comparisons))
	for _, l := range layout.Comparisons {
		names = append(names, l.Name)
	}
	return fmt.Sprintf("no %s counterpart", strings.Join(names, "/"))
}

func shuffle(r *rand.Rand, n int, swap func(i, j int)) {
	if r != nil {
		r.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}
