package toolchain

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/crossbench/internal/process"
)

type recorder struct {
	specs []process.Spec
	fail  map[string]error
}

func (r *recorder) run(_ context.Context, spec process.Spec) (process.Result, error) {
	r.specs = append(r.specs, spec)
	if err, ok := r.fail[spec.Name]; ok {
		return process.Result{ExitCode: 1}, err
	}
	return process.Result{}, nil
}

func settings(r *recorder) Settings {
	return Settings{
		CC:               "gcc",
		Clang:            "clang-18",
		Opt:              "opt-18",
		Rustc:            "rustc",
		Cargo:            "cargo",
		CCIncludeDirs:    []string{"/usr/include/apr-1.0"},
		CCLinkFlags:      []string{"-lapr-1", "-lpthread"},
		ClangIncludeDirs: []string{"/usr/include/apr-1.0"},
		ClangLinkFlags:   []string{"-lapr-1", "-lpthread", "-lgmp"},
		RustFlags:        "-A warnings",
		Exec:             r.run,
	}
}

func TestCCCompileArgs(t *testing.T) {
	rec := &recorder{}
	c, err := ForLanguage("c", settings(rec))
	require.NoError(t, err)

	art, err := c.Compile(context.Background(), Request{
		Source:  "algo/C/sum.c",
		Output:  "algo/C/sum_O3.elf",
		Level:   3,
		LDFlags: []string{"-lgmp"},
	})
	require.NoError(t, err)
	assert.Equal(t, Artifact{Toolchain: "gcc", Path: "algo/C/sum_O3.elf", Level: 3}, art)

	require.Len(t, rec.specs, 1)
	assert.Equal(t, "gcc", rec.specs[0].Name)
	assert.Equal(t, []string{"-O3", "algo/C/sum.c", "-o", "algo/C/sum_O3.elf", "-I/usr/include/apr-1.0", "-lapr-1", "-lpthread", "-lgmp"}, rec.specs[0].Args)
}

func TestCompileFailureWrapsErrCompile(t *testing.T) {
	rec := &recorder{fail: map[string]error{"gcc": &process.ExitError{Command: "gcc", ExitCode: 1, Stderr: "sum.c:3: error: expected ';'"}}}
	c, err := ForLanguage("c", settings(rec))
	require.NoError(t, err)

	_, err = c.Compile(context.Background(), Request{Source: "sum.c", Output: "sum.elf", Level: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompile)
	assert.Contains(t, err.Error(), "expected ';'")

	var exitErr *process.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestRustFileUsesRustc(t *testing.T) {
	rec := &recorder{}
	c, err := ForLanguage("rust", settings(rec))
	require.NoError(t, err)

	art, err := c.Compile(context.Background(), Request{Source: "algo/Rust/sum.rs", Output: "algo/Rust/sum_O2.elf", Level: 2})
	require.NoError(t, err)
	assert.Equal(t, "rustc", art.Toolchain)
	require.Len(t, rec.specs, 1)
	assert.Equal(t, []string{"-A", "warnings", "-C", "opt-level=2", "algo/Rust/sum.rs", "-o", "algo/Rust/sum_O2.elf"}, rec.specs[0].Args)
	assert.Empty(t, rec.specs[0].Env)
}

func TestRustProjectUsesCargoWithScopedEnv(t *testing.T) {
	rec := &recorder{}
	c, err := ForLanguage("rust", settings(rec))
	require.NoError(t, err)

	t.Chdir(t.TempDir())
	project := filepath.Join("algo", "Rust", "sort")
	require.NoError(t, os.MkdirAll(project, 0o755))
	abs, err := filepath.Abs(project)
	require.NoError(t, err)

	art, err := c.Compile(context.Background(), Request{Source: project, Level: 3, Project: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "target", "release", "sort"), art.Path)

	require.Len(t, rec.specs, 1)
	spec := rec.specs[0]
	assert.Equal(t, "cargo", spec.Name)
	assert.Equal(t, []string{"build", "--release"}, spec.Args)
	assert.Equal(t, abs, spec.Dir)
	assert.Contains(t, spec.Env, "CARGO_PROFILE_RELEASE_OPT_LEVEL=3")
	assert.Contains(t, spec.Env, "RUSTFLAGS=-A warnings")
	for _, kv := range spec.Env {
		assert.NotContains(t, kv, "CARGO_TARGET_DIR")
	}
	assert.Empty(t, os.Getenv("CARGO_PROFILE_RELEASE_OPT_LEVEL"), "parent environment untouched")
}

func TestCargoArtifactNamedFromManifest(t *testing.T) {
	cases := map[string]struct {
		manifest string
		want     string
	}{
		"package name": {manifest: "[package]\nname = \"quicksort\"\nversion = \"0.1.0\"\n", want: "quicksort"},
		"bin target":   {manifest: "[package]\nname = \"sorting\"\n\n[[bin]]\nname = \"qs\"\npath = \"src/main.rs\"\n", want: "qs"},
		"no manifest":  {want: "sort"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			project := filepath.Join(t.TempDir(), "sort")
			require.NoError(t, os.MkdirAll(project, 0o755))
			if tc.manifest != "" {
				require.NoError(t, os.WriteFile(filepath.Join(project, "Cargo.toml"), []byte(tc.manifest), 0o644))
			}
			rec := &recorder{}
			c := Cargo{Binary: "cargo", invoker: invoker{Exec: rec.run}}

			art, err := c.Compile(context.Background(), Request{Source: project, Level: 2, Project: true})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(project, "target", "release", tc.want), art.Path)
		})
	}
}

func TestCargoRejectsBrokenManifest(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "Cargo.toml"), []byte("[package\n"), 0o644))
	rec := &recorder{}
	c := Cargo{Binary: "cargo", invoker: invoker{Exec: rec.run}}

	_, err := c.Compile(context.Background(), Request{Source: project, Level: 2, Project: true})
	assert.ErrorIs(t, err, ErrCompile)
	assert.Empty(t, rec.specs)
}

func TestCargoBuildsRelativeProject(t *testing.T) {
	cargo, err := exec.LookPath("cargo")
	if err != nil {
		t.Skip("no cargo on PATH")
	}
	t.Chdir(t.TempDir())
	project := filepath.Join("B", "Rust", "sum")
	require.NoError(t, os.MkdirAll(filepath.Join(project, "src"), 0o755))
	manifest := "[package]\nname = \"summer\"\nversion = \"0.1.0\"\nedition = \"2021\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(project, "Cargo.toml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(project, "src", "main.rs"), []byte("fn main() {}\n"), 0o644))

	c, err := ForLanguage("rust", Settings{Cargo: cargo, RustFlags: "-A warnings"})
	require.NoError(t, err)

	art, err := c.Compile(context.Background(), Request{Source: project, Level: 2, Project: true})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(art.Path))
	_, err = os.Stat(art.Path)
	assert.NoError(t, err, "binary at reported path")
}

func TestCCAndClangLinkageAreSeparate(t *testing.T) {
	rec := &recorder{}
	s := settings(rec)
	s.CCIncludeDirs, s.CCLinkFlags = nil, nil

	cc, err := ForLanguage("c", s)
	require.NoError(t, err)
	_, err = cc.Compile(context.Background(), Request{Source: "sum.c", Output: "sum_O2.elf", Level: 2})
	require.NoError(t, err)
	_, err = ClangAt(s).Compile(context.Background(), Request{Source: "sum.c", Output: "sum_O3.elf", Level: 3})
	require.NoError(t, err)

	require.Len(t, rec.specs, 2)
	assert.Equal(t, []string{"-O2", "sum.c", "-o", "sum_O2.elf"}, rec.specs[0].Args)
	assert.Equal(t, "clang-18", rec.specs[1].Name)
	assert.Equal(t, []string{"-O3", "sum.c", "-o", "sum_O3.elf", "-I/usr/include/apr-1.0", "-lapr-1", "-lpthread", "-lgmp"}, rec.specs[1].Args)
}

func TestPipelineRunsThreeSteps(t *testing.T) {
	rec := &recorder{}
	p := Pipeline(settings(rec))

	art, err := p.Compile(context.Background(), Request{Source: "C/.sum-sized-1.c", Output: "C/sum_LLVM.elf", Level: 3})
	require.NoError(t, err)
	assert.Equal(t, "llvm-pipeline", art.Toolchain)

	require.Len(t, rec.specs, 3)
	assert.Equal(t, []string{"-O3", "-S", "-emit-llvm", "C/.sum-sized-1.c", "-o", "C/sum_LLVM.ll", "-I/usr/include/apr-1.0"}, rec.specs[0].Args)
	assert.Equal(t, "opt-18", rec.specs[1].Name)
	assert.Equal(t, []string{"-O3", "C/sum_LLVM.ll", "-o", "C/sum_LLVM_opt.ll"}, rec.specs[1].Args)
	assert.Equal(t, []string{"-O3", "C/sum_LLVM_opt.ll", "-o", "C/sum_LLVM.elf", "-lapr-1", "-lpthread", "-lgmp"}, rec.specs[2].Args)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	rec := &recorder{fail: map[string]error{"opt-18": errors.New("boom")}}
	_, err := Pipeline(settings(rec)).Compile(context.Background(), Request{Source: "a.c", Output: "a.elf", Level: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompile)
	assert.Len(t, rec.specs, 2)
}

func TestUnknownLanguage(t *testing.T) {
	_, err := ForLanguage("cobol", Settings{})
	assert.Error(t, err)
}

func TestSwitchWithoutProjectCompiler(t *testing.T) {
	s := Switch{Label: "zig", File: CC{Binary: "zig"}}
	_, err := s.Compile(context.Background(), Request{Source: "dir", Project: true})
	assert.ErrorIs(t, err, ErrCompile)
}

func TestCCCompilesRealSource(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler on PATH")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "ok.c")
	require.NoError(t, os.WriteFile(src, []byte("int main(void){return 0;}\n"), 0o644))
	bad := filepath.Join(dir, "bad.c")
	require.NoError(t, os.WriteFile(bad, []byte("int main(void){return 0\n"), 0o644))

	c, err := ForLanguage("c", Settings{CC: cc})
	require.NoError(t, err)

	art, err := c.Compile(context.Background(), Request{Source: src, Output: filepath.Join(dir, "ok_O2.elf"), Level: 2})
	require.NoError(t, err)
	_, err = os.Stat(art.Path)
	assert.NoError(t, err)

	_, err = c.Compile(context.Background(), Request{Source: bad, Output: filepath.Join(dir, "bad_O2.elf"), Level: 2})
	assert.ErrorIs(t, err, ErrCompile)
}
