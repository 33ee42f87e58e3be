package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/crossbench/internal/appconfig"
	"github.com/mwiater/crossbench/internal/toolchain"
)

func TestToolchainsForScopesLinkageByMode(t *testing.T) {
	cfg := appconfig.Default()
	cfg.Toolchains.ClangIncludeDirs = []string{"/usr/include/apr-1.0"}
	cfg.Toolchains.ClangLinkFlags = []string{"-lapr-1", "-lpthread", "-lgmp"}

	tools, err := ToolchainsFor(&cfg)
	require.NoError(t, err)
	cc, ok := tools.Languages["c"].(toolchain.CC)
	require.True(t, ok, "c reference compiles with CC")
	assert.Equal(t, "gcc", cc.Binary)
	assert.Empty(t, cc.IncludeDirs)
	assert.Empty(t, cc.LinkFlags)
	assert.Contains(t, tools.Languages, "rust")

	cfg.Mode = appconfig.ModeOptDiff
	tools, err = ToolchainsFor(&cfg)
	require.NoError(t, err)
	fixed, ok := tools.Fixed.(toolchain.CC)
	require.True(t, ok)
	assert.Equal(t, "clang-18", fixed.Binary)
	assert.Equal(t, cfg.Toolchains.ClangLinkFlags, fixed.LinkFlags)
	pipe, ok := tools.Pipeline.(toolchain.LLVMPipeline)
	require.True(t, ok)
	assert.Equal(t, cfg.Toolchains.ClangIncludeDirs, pipe.IncludeDirs)
}
