// Package toolchain compiles benchmark sources and projects into executables
// at a requested optimization level.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/crossbench/internal/logging"
	"github.com/mwiater/crossbench/internal/process"
)

// ErrCompile wraps every failed compiler invocation.
var ErrCompile = errors.New("compilation failed")

// Request describes one compilation.
type Request struct {
	// Source is a single source file, or a project directory when Project is set.
	Source  string
	Output  string
	Level   int
	Project bool
	// Include and LDFlags extend the toolchain's configured defaults.
	Include []string
	LDFlags []string
}

// Artifact is the executable a successful compilation produced.
type Artifact struct {
	Toolchain string
	Path      string
	Level     int
}

// Compiler turns a Request into an Artifact. Failures never panic and are
// always reported as errors wrapping ErrCompile.
type Compiler interface {
	Name() string
	Compile(ctx context.Context, req Request) (Artifact, error)
}

// invoker carries what every adapter needs to launch a process.
type invoker struct {
	Exec    process.Runner
	Timeout time.Duration
}

func (inv invoker) run(ctx context.Context, spec process.Spec) error {
	exec := inv.Exec
	if exec == nil {
		exec = process.Run
	}
	spec.Timeout = inv.Timeout
	logging.LogDebug("exec: %s", spec)
	if _, err := exec(ctx, spec); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCompile, spec.Name, err)
	}
	return nil
}

// Switch dispatches single files and projects to different compilers.
type Switch struct {
	Label   string
	File    Compiler
	Project Compiler
}

func (s Switch) Name() string { return s.Label }

func (s Switch) Compile(ctx context.Context, req Request) (Artifact, error) {
	target := s.File
	if req.Project {
		target = s.Project
	}
	if target == nil {
		kind := "file"
		if req.Project {
			kind = "project"
		}
		return Artifact{}, fmt.Errorf("%w: %s has no %s compiler", ErrCompile, s.Label, kind)
	}
	return target.Compile(ctx, req)
}

// Settings are the configuration-supplied binaries and fixed linkage inputs.
type Settings struct {
	CC    string
	Clang string
	Opt   string
	Rustc string
	Cargo string

	// CC* apply to the compare-mode C compiler, Clang* to the optdiff
	// clang builds and the LLVM pipeline.
	CCIncludeDirs    []string
	CCLinkFlags      []string
	ClangIncludeDirs []string
	ClangLinkFlags   []string
	RustFlags        string
	Timeout          time.Duration
	Exec             process.Runner
}

// ForLanguage returns the compiler used for sources of the named language.
func ForLanguage(language string, s Settings) (Compiler, error) {
	inv := invoker{Exec: s.Exec, Timeout: s.Timeout}
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "c":
		return CC{Binary: s.CC, IncludeDirs: s.CCIncludeDirs, LinkFlags: s.CCLinkFlags, invoker: inv}, nil
	case "rust":
		return Switch{
			Label:   "rust",
			File:    Rustc{Binary: s.Rustc, Flags: strings.Fields(s.RustFlags), invoker: inv},
			Project: Cargo{Binary: s.Cargo, RustFlags: s.RustFlags, invoker: inv},
		}, nil
	default:
		return nil, fmt.Errorf("no toolchain for language %q", language)
	}
}

// ClangAt returns a clang-driven C compiler, used for the fixed -O levels of optdiff mode.
func ClangAt(s Settings) Compiler {
	return CC{Binary: s.Clang, IncludeDirs: s.ClangIncludeDirs, LinkFlags: s.ClangLinkFlags, invoker: invoker{Exec: s.Exec, Timeout: s.Timeout}}
}

// Pipeline returns the clang -> opt -> clang compiler.
func Pipeline(s Settings) Compiler {
	return LLVMPipeline{
		Clang:       s.Clang,
		Opt:         s.Opt,
		IncludeDirs: s.ClangIncludeDirs,
		LinkFlags:   s.ClangLinkFlags,
		invoker:     invoker{Exec: s.Exec, Timeout: s.Timeout},
	}
}
