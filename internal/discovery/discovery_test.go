package discovery

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var layout = Layout{
	Reference:   Language{Name: "c", Dir: "C", Ext: ".c"},
	Comparisons: []Language{{Name: "rust", Dir: "Rust", Ext: ".rs"}},
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

// fixture builds two categories:
//
//	algo/C/{sum,sort,lonely}.c  algo/Rust/sum.rs  algo/Rust/sort/ (project)
//	perf/C/{hash,.hash-sized-1}.c  perf/Rust/hash.rs  perf/C/notes.txt
func fixture(t *testing.T) (string, []string) {
	t.Helper()
	root := t.TempDir()
	algo := filepath.Join(root, "algo")
	perf := filepath.Join(root, "perf")

	touch(t, filepath.Join(algo, "C", "sum.c"))
	touch(t, filepath.Join(algo, "C", "sort.c"))
	touch(t, filepath.Join(algo, "C", "lonely.c"))
	touch(t, filepath.Join(algo, "Rust", "sum.rs"))
	touch(t, filepath.Join(algo, "Rust", "sort", "Cargo.toml"))

	touch(t, filepath.Join(perf, "C", "hash.c"))
	touch(t, filepath.Join(perf, "C", ".hash-sized-1.c"))
	touch(t, filepath.Join(perf, "C", "notes.txt"))
	touch(t, filepath.Join(perf, "Rust", "hash.rs"))

	return root, []string{algo, perf}
}

func names(units []Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Name)
	}
	sort.Strings(out)
	return out
}

func TestDiscoverRequiresCounterpart(t *testing.T) {
	_, categories := fixture(t)

	var skipped []string
	units := slices.Collect(Discover(layout, categories, Options{
		RequireCounterpart: true,
		OnSkip:             func(u Unit, reason string) { skipped = append(skipped, u.Name+":"+reason) },
	}))

	assert.Equal(t, []string{"hash", "sort", "sum"}, names(units))
	assert.Equal(t, []string{"lonely:" + ReasonNoCounterpart}, skipped)

	for _, u := range units {
		require.Len(t, u.Comparisons, 1)
		c := u.Comparisons[0]
		assert.Equal(t, "rust", c.Language)
		if u.Name == "sort" {
			assert.True(t, c.Project, "sort is a cargo project")
		} else {
			assert.False(t, c.Project)
		}
	}
}

func TestDiscoverWithoutCounterpartRequirement(t *testing.T) {
	_, categories := fixture(t)

	units := slices.Collect(Discover(layout, categories, Options{}))
	assert.Equal(t, []string{"hash", "lonely", "sort", "sum"}, names(units))
}

func TestDiscoverFilePreferredOverProject(t *testing.T) {
	_, categories := fixture(t)
	touch(t, filepath.Join(categories[0], "Rust", "sort.rs"))

	u, err := Find(layout, categories, "sort")
	require.NoError(t, err)
	c, ok := u.Comparison("rust")
	require.True(t, ok)
	assert.False(t, c.Project)
	assert.Equal(t, ".rs", filepath.Ext(c.Path))
}

func TestDiscoverHonoursManifestExclude(t *testing.T) {
	_, categories := fixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(categories[0], ManifestFile), []byte("exclude: [sum]\nldflags: [-lgmp]\n"), 0o644))

	var skipped []string
	units := slices.Collect(Discover(layout, categories, Options{
		RequireCounterpart: true,
		OnSkip:             func(u Unit, reason string) { skipped = append(skipped, u.Name+":"+reason) },
	}))
	assert.Equal(t, []string{"hash", "sort"}, names(units))
	assert.Contains(t, skipped, "sum:"+ReasonExcluded)

	for _, u := range units {
		if u.Name == "sort" {
			assert.Equal(t, []string{"-lgmp"}, u.Manifest.LDFlags)
		}
	}
}

func TestDiscoverOrderIsShuffledBySeed(t *testing.T) {
	root := t.TempDir()
	cat := filepath.Join(root, "algo")
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		touch(t, filepath.Join(cat, "C", n+".c"))
	}

	order := func(seed uint64) []string {
		var out []string
		for u := range Discover(layout, []string{cat}, Options{Rand: rand.New(rand.NewPCG(seed, seed))}) {
			out = append(out, u.Name)
		}
		return out
	}

	assert.Equal(t, order(7), order(7), "same seed, same order")

	seen := map[string]bool{}
	for seed := uint64(1); seed <= 20; seed++ {
		seen[strings.Join(order(seed), ",")] = true
	}
	assert.Greater(t, len(seen), 1, "order varies across seeds")
}

func TestDiscoverStopsEarly(t *testing.T) {
	_, categories := fixture(t)

	count := 0
	for range Discover(layout, categories, Options{}) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestFindNotFound(t *testing.T) {
	_, categories := fixture(t)

	_, err := Find(layout, categories, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindReturnsUnitWithoutCounterpart(t *testing.T) {
	_, categories := fixture(t)

	u, err := Find(layout, categories, "lonely")
	require.NoError(t, err)
	assert.False(t, u.HasCounterpart())
	assert.Equal(t, "algo", u.Category)
}

func TestMissingCategoryIsSkipped(t *testing.T) {
	_, categories := fixture(t)
	categories = append(categories, filepath.Join(t.TempDir(), "absent"))

	units := slices.Collect(Discover(layout, categories, Options{RequireCounterpart: true}))
	assert.Len(t, units, 3)
}
