package compiler_test

import (
	"regexp"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/adapters/compiler"
	"go.trai.ch/loom/internal/adapters/telemetry"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

var checksumLine = regexp.MustCompile(`loom:checksum [0-9a-f]{16}`)

// normalize blanks the checksum so golden files stay stable across input
// tweaks that intentionally change the hash.
func normalize(code string) []byte {
	return []byte(checksumLine.ReplaceAllString(code, "loom:checksum <checksum>"))
}

func newEngine(t *testing.T) ports.CompileEngine {
	t.Helper()
	c := compiler.New(telemetry.NewNoOpTracer())
	return c.CreateEngine(domain.Configuration{Name: "weft-2", LanguageVersion: "2.0"}, "1.25")
}

func TestCompile_Page(t *testing.T) {
	engine := newEngine(t)

	out, err := engine.Compile(t.Context(), ports.CompileRequest{
		Document: domain.HostDocument{
			FilePath:   "/work/site/pages/index.weft",
			TargetPath: "pages/index.weft",
			Kind:       domain.FileKindTemplate,
		},
		Text: "@using site.shared\n@namespace site.pages\n<h1>Hello @model.Title!</h1>\n",
		Imports: []ports.ImportText{
			{
				Document: domain.HostDocument{
					FilePath:   "/work/site/pages/_imports.weft",
					TargetPath: "pages/_imports.weft",
					Kind:       domain.FileKindImport,
				},
				Text: "@using site.base\n",
			},
		},
		TagHelpers: []domain.TagHelper{{Name: "InputTag", Assembly: "weft.forms"}},
	})
	require.NoError(t, err)
	require.Regexp(t, `^[0-9a-f]{16}$`, out.Checksum)
	assert.Contains(t, out.Code, "loom:checksum "+out.Checksum)

	g := goldie.New(t)
	g.Assert(t, "page", normalize(out.Code))
}

func TestCompile_Component(t *testing.T) {
	engine := newEngine(t)

	out, err := engine.Compile(t.Context(), ports.CompileRequest{
		Document: domain.HostDocument{
			FilePath:   "/work/site/components/button.weft",
			TargetPath: "components/button.weft",
			Kind:       domain.FileKindComponent,
		},
		Text: "<button>@(label)</button>",
	})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "component", normalize(out.Code))
}

func TestCompile_LiteralOnly(t *testing.T) {
	engine := newEngine(t)

	out, err := engine.Compile(t.Context(), ports.CompileRequest{
		Document: domain.HostDocument{
			FilePath:   "/work/site/raw.weft",
			TargetPath: "raw.weft",
			Kind:       domain.FileKindTemplate,
		},
		Text: "plain @@text\n",
	})
	require.NoError(t, err)
	assert.NotContains(t, out.Code, `"fmt"`, "literal-only templates need no expression support")

	g := goldie.New(t)
	g.Assert(t, "literal", normalize(out.Code))
}

func TestCompile_Deterministic(t *testing.T) {
	engine := newEngine(t)
	req := ports.CompileRequest{
		Document: domain.HostDocument{
			FilePath:   "/work/site/pages/index.weft",
			TargetPath: "pages/index.weft",
			Kind:       domain.FileKindTemplate,
		},
		Text: "<p>@model.Body</p>",
	}

	first, err := engine.Compile(t.Context(), req)
	require.NoError(t, err)
	second, err := engine.Compile(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Checksum, second.Checksum)

	req.Text = "<p>@model.Title</p>"
	third, err := engine.Compile(t.Context(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Checksum, third.Checksum)
}

func TestCompile_ParseErrors(t *testing.T) {
	engine := newEngine(t)

	for name, text := range map[string]string{
		"dangling at":      "price: @!",
		"unbalanced paren": "value: @(x",
		"at end of input":  "trailing @",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Compile(t.Context(), ports.CompileRequest{
				Document: domain.HostDocument{
					FilePath:   "/work/site/bad.weft",
					TargetPath: "bad.weft",
					Kind:       domain.FileKindTemplate,
				},
				Text: text,
			})
			require.Error(t, err)
		})
	}
}

func TestCompile_BadImportFails(t *testing.T) {
	engine := newEngine(t)

	_, err := engine.Compile(t.Context(), ports.CompileRequest{
		Document: domain.HostDocument{
			FilePath:   "/work/site/pages/index.weft",
			TargetPath: "pages/index.weft",
			Kind:       domain.FileKindTemplate,
		},
		Text: "fine",
		Imports: []ports.ImportText{
			{
				Document: domain.HostDocument{
					FilePath:   "/work/site/_imports.weft",
					TargetPath: "_imports.weft",
					Kind:       domain.FileKindImport,
				},
				Text: "broken @",
			},
		},
	})
	require.Error(t, err)
}
