package snapshot_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

// countingCompiler is an instrumented ports.Compiler: it counts engine builds
// and compilations, can block compilations on a gate, and can fail on demand.
type countingCompiler struct {
	mu           sync.Mutex
	engineBuilds int
	compiles     int
	gate         chan struct{}
	err          error
}

func (c *countingCompiler) CreateEngine(config domain.Configuration, codeLanguageVersion string) ports.CompileEngine {
	c.mu.Lock()
	c.engineBuilds++
	c.mu.Unlock()
	return &countingEngine{compiler: c, config: config, codeLanguageVersion: codeLanguageVersion}
}

func (c *countingCompiler) setGate(gate chan struct{}) {
	c.mu.Lock()
	c.gate = gate
	c.mu.Unlock()
}

func (c *countingCompiler) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *countingCompiler) compileCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiles
}

func (c *countingCompiler) engineBuildCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engineBuilds
}

type countingEngine struct {
	compiler            *countingCompiler
	config              domain.Configuration
	codeLanguageVersion string
}

func (e *countingEngine) Compile(ctx context.Context, req ports.CompileRequest) (*domain.GeneratedOutput, error) {
	e.compiler.mu.Lock()
	e.compiler.compiles++
	gate := e.compiler.gate
	err := e.compiler.err
	e.compiler.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "// target: %s config: %s lang: %s\n", req.Document.TargetPath, e.config.Name, e.codeLanguageVersion)
	for _, imp := range req.Imports {
		fmt.Fprintf(&sb, "// import %s: %s\n", imp.Document.TargetPath, imp.Text)
	}
	for _, th := range req.TagHelpers {
		fmt.Fprintf(&sb, "// taghelper %s\n", th.Name)
	}
	sb.WriteString(req.Text)
	return &domain.GeneratedOutput{Code: sb.String()}, nil
}

// mapResolver resolves import targets from a static table keyed by the
// document's target path.
type mapResolver struct {
	targets map[string][]string
}

func (r mapResolver) ResolveImportTargets(doc domain.HostDocument, _ domain.Configuration) []string {
	return r.targets[doc.TargetPath]
}

// countingSource is a ports.TextSource that counts loads and can fail.
type countingSource struct {
	mu      sync.Mutex
	text    string
	version domain.VersionStamp
	loads   int
	err     error
}

func newCountingSource(text string) *countingSource {
	return &countingSource{text: text, version: domain.NewVersionStamp()}
}

func (s *countingSource) Load(context.Context) (string, domain.VersionStamp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return "", domain.VersionStamp{}, s.err
	}
	return s.text, s.version, nil
}

func (s *countingSource) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// recordingLogger collects errors for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	errors []error
}

func (l *recordingLogger) Info(string) {}
func (l *recordingLogger) Warn(string) {}
func (l *recordingLogger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, err)
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

func testHostProject() domain.HostProject {
	return domain.HostProject{
		RootPath:      "/work/site",
		DisplayName:   "site",
		RootNamespace: "site",
		Configuration: domain.Configuration{Name: "weft-2", LanguageVersion: "2.0"},
	}
}

func testWorkspace() domain.WorkspaceState {
	return domain.WorkspaceState{
		TagHelpers:          []domain.TagHelper{{Name: "InputTag", Assembly: "weft.forms"}},
		CodeLanguageVersion: "1.25",
		Version:             domain.NewVersionStamp(),
	}
}

func hostDoc(target string, kind domain.FileKind) domain.HostDocument {
	return domain.HostDocument{
		FilePath:   "/work/site/" + target,
		TargetPath: target,
		Kind:       kind,
	}
}
