package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/mwiater/crossbench/internal/process"
)

// CC compiles one C file straight to an executable with gcc or clang.
type CC struct {
	Binary      string
	IncludeDirs []string
	LinkFlags   []string
	invoker
}

func (c CC) Name() string { return filepath.Base(c.Binary) }

func (c CC) Compile(ctx context.Context, req Request) (Artifact, error) {
	args := []string{fmt.Sprintf("-O%d", req.Level), req.Source, "-o", req.Output}
	args = append(args, includeArgs(c.IncludeDirs, req.Include)...)
	args = append(args, c.LinkFlags...)
	args = append(args, req.LDFlags...)
	if err := c.run(ctx, process.Spec{Name: c.Binary, Args: args}); err != nil {
		return Artifact{}, err
	}
	return Artifact{Toolchain: c.Name(), Path: req.Output, Level: req.Level}, nil
}

// Rustc compiles a single-file Rust program.
type Rustc struct {
	Binary string
	Flags  []string
	invoker
}

func (r Rustc) Name() string { return "rustc" }

func (r Rustc) Compile(ctx context.Context, req Request) (Artifact, error) {
	args := append([]string{}, r.Flags...)
	args = append(args, "-C", fmt.Sprintf("opt-level=%d", req.Level), req.Source, "-o", req.Output)
	if err := r.run(ctx, process.Spec{Name: r.Binary, Args: args}); err != nil {
		return Artifact{}, err
	}
	return Artifact{Toolchain: r.Name(), Path: req.Output, Level: req.Level}, nil
}

// Cargo builds a Rust project in release mode. The optimization level and
// RUSTFLAGS reach cargo through that invocation's environment only; the
// harness's own environment is never modified.
type Cargo struct {
	Binary    string
	RustFlags string
	invoker
}

func (c Cargo) Name() string { return "cargo" }

func (c Cargo) Compile(ctx context.Context, req Request) (Artifact, error) {
	dir, err := filepath.Abs(req.Source)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %w", ErrCompile, req.Source, err)
	}
	bin, err := binaryName(dir)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	env := []string{fmt.Sprintf("CARGO_PROFILE_RELEASE_OPT_LEVEL=%d", req.Level)}
	if flags := strings.TrimSpace(c.RustFlags); flags != "" {
		env = append(env, "RUSTFLAGS="+flags)
	}
	spec := process.Spec{Name: c.Binary, Args: []string{"build", "--release"}, Dir: dir, Env: env}
	if err := c.run(ctx, spec); err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Toolchain: c.Name(),
		Path:      filepath.Join(dir, "target", "release", bin),
		Level:     req.Level,
	}, nil
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Bin []struct {
		Name string `toml:"name"`
	} `toml:"bin"`
}

// binaryName reads the executable name from <dir>/Cargo.toml: the first
// [[bin]] target, else the package name, else the directory name.
func binaryName(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	if errors.Is(err, fs.ErrNotExist) {
		return filepath.Base(dir), nil
	}
	if err != nil {
		return "", err
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Join(dir, "Cargo.toml"), err)
	}
	for _, b := range m.Bin {
		if b.Name != "" {
			return b.Name, nil
		}
	}
	if m.Package.Name != "" {
		return m.Package.Name, nil
	}
	return filepath.Base(dir), nil
}

// LLVMPipeline lowers the source to LLVM IR, runs opt over it and compiles the
// optimized IR. Intermediate .ll files sit next to the output.
type LLVMPipeline struct {
	Clang       string
	Opt         string
	IncludeDirs []string
	LinkFlags   []string
	invoker
}

func (p LLVMPipeline) Name() string { return "llvm-pipeline" }

func (p LLVMPipeline) Compile(ctx context.Context, req Request) (Artifact, error) {
	stem := strings.TrimSuffix(req.Output, filepath.Ext(req.Output))
	ir := stem + ".ll"
	optIR := stem + "_opt.ll"
	level := fmt.Sprintf("-O%d", req.Level)
	includes := includeArgs(p.IncludeDirs, req.Include)

	emit := append([]string{level, "-S", "-emit-llvm", req.Source, "-o", ir}, includes...)
	steps := []process.Spec{
		{Name: p.Clang, Args: emit},
		{Name: p.Opt, Args: []string{level, ir, "-o", optIR}},
	}
	link := []string{level, optIR, "-o", req.Output}
	link = append(link, p.LinkFlags...)
	link = append(link, req.LDFlags...)
	steps = append(steps, process.Spec{Name: p.Clang, Args: link})

	for _, step := range steps {
		if err := p.run(ctx, step); err != nil {
			return Artifact{}, err
		}
	}
	return Artifact{Toolchain: p.Name(), Path: req.Output, Level: req.Level}, nil
}

func includeArgs(groups ...[]string) []string {
	var args []string
	for _, dirs := range groups {
		for _, dir := range dirs {
			if dir = strings.TrimSpace(dir); dir == "" {
				continue
			}
			if strings.HasPrefix(dir, "-I") {
				args = append(args, dir)
				continue
			}
			args = append(args, "-I"+dir)
		}
	}
	return args
}
