// Package config provides the project manifest loader for loom.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/loom/internal/adapters/text"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// ManifestFilename is the project manifest file loom looks for.
const ManifestFilename = "loom.yaml"

const (
	defaultConfigName      = "weft-2"
	defaultLanguageVersion = "2.0"
	documentExtension      = ".weft"
)

// Loader implements ports.ProjectLoader: it reads loom.yaml and walks the
// project tree for weft documents.
type Loader struct {
	store *text.Store
}

// NewLoader creates a manifest loader backed by the given text store.
func NewLoader(store *text.Store) *Loader {
	return &Loader{store: store}
}

// Load reads the manifest in dir and discovers the project's documents.
func (l *Loader) Load(dir string) (domain.HostProject, []ports.LoadedDocument, error) {
	manifest, err := readManifest(filepath.Join(dir, ManifestFilename))
	if err != nil {
		return domain.HostProject{}, nil, err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return domain.HostProject{}, nil, zerr.Wrap(err, "failed to resolve project root")
	}

	project := domain.HostProject{
		RootPath:      root,
		DisplayName:   manifest.Name,
		RootNamespace: manifest.Namespace,
		Configuration: domain.Configuration{
			Name:            manifest.Configuration.Name,
			LanguageVersion: manifest.Configuration.LanguageVersion,
			Extensions:      manifest.Configuration.Extensions,
		},
	}

	docs, err := l.discover(root, manifest.ComponentDirs)
	if err != nil {
		return domain.HostProject{}, nil, err
	}

	return project, docs, nil
}

func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return Manifest{}, zerr.Wrap(err, "failed to read project manifest")
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, zerr.Wrap(err, "failed to parse project manifest")
	}

	if manifest.Name == "" {
		return Manifest{}, zerr.With(domain.ErrInvalidManifest, "reason", "name is required")
	}
	if manifest.Namespace == "" {
		manifest.Namespace = manifest.Name
	}
	if manifest.Configuration.Name == "" {
		manifest.Configuration.Name = defaultConfigName
	}
	if manifest.Configuration.LanguageVersion == "" {
		manifest.Configuration.LanguageVersion = defaultLanguageVersion
	}

	return manifest, nil
}

// discover walks the project tree and returns every weft document, in
// deterministic path order.
func (l *Loader) discover(root string, componentDirs []string) ([]ports.LoadedDocument, error) {
	var docs []ports.LoadedDocument

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories are not part of the project.
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != documentExtension {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		target := filepath.ToSlash(rel)

		docs = append(docs, ports.LoadedDocument{
			Host: domain.HostDocument{
				FilePath:   path,
				TargetPath: target,
				Kind:       classify(target, componentDirs),
			},
			Source: l.store.Source(path),
		})
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to discover documents"), "root", root)
	}

	slices.SortFunc(docs, func(a, b ports.LoadedDocument) int {
		return strings.Compare(a.Host.TargetPath, b.Host.TargetPath)
	})
	return docs, nil
}

// classify derives the document kind from its target path.
func classify(target string, componentDirs []string) domain.FileKind {
	base := filepath.Base(target)
	if base == "_imports.weft" || base == "_component_imports.weft" {
		return domain.FileKindImport
	}
	for _, dir := range componentDirs {
		prefix := strings.TrimSuffix(filepath.ToSlash(dir), "/") + "/"
		if strings.HasPrefix(target, prefix) {
			return domain.FileKindComponent
		}
	}
	return domain.FileKindTemplate
}

var _ ports.ProjectLoader = (*Loader)(nil)
