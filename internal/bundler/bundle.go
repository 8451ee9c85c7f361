// Package bundler is the Module Loader's compile step: it turns a main
// script file plus its relative imports into flattened source the
// core.Engine can compile, and resolves import specifiers encountered
// during InstantiateAndEvaluate.
//
// Grounded on the teacher's bundle.go (BundleWorkerScript: esbuild bundling
// of a single entry point, skipped when the source has no import
// statements), generalized from "bundle one _worker.js into one opaque
// blob" to spec §4.7's "track {script_id -> dir} and resolve relative
// imports one module at a time" — this module needs per-module ids for the
// Module Loader's table, so it uses esbuild in single-file resolve mode
// rather than the teacher's whole-program bundle.
package bundler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

// Loader resolves and reads module source from disk. It deliberately
// keeps no {id -> dir} bookkeeping of its own: the Module Loader (root
// package moduleloader.go) is the single source of truth for that table,
// keyed by the engine's own module ids, because only the Module Loader
// knows whether a given CompileModule call actually succeeded. An
// independent counter here would desync from the engine's module ids the
// moment a Resolve-then-CompileModule pair failed partway through.
type Loader struct{}

func New() *Loader {
	return &Loader{}
}

// LoadMain reads the main script, transforming it with esbuild only if it
// contains import statements (same needsBundling short-circuit as the
// teacher, since most scripts are single-file and bundling is pure
// overhead for them), and returns its containing directory for the
// caller's own id table.
func (l *Loader) LoadMain(path string) (source string, dir string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	src := string(raw)
	if needsBundling(src) {
		src, err = l.transform(path, src)
		if err != nil {
			return "", "", err
		}
	}
	return src, filepath.Dir(path), nil
}

// Resolve implements the read half of core.ModuleResolver: given the
// referring module's own directory (looked up by the caller from its own
// id table) and a specifier, it reads and (if needed) transforms the
// target file, returning its source, its containing directory, and its
// resolved path for the caller to register under whatever id the engine
// assigns it.
func (l *Loader) Resolve(referrerDir, specifier string) (source string, dir string, path string, err error) {
	if !strings.HasPrefix(specifier, ".") {
		return "", "", "", fmt.Errorf("module specifier %q is not a relative import (bare specifiers are a script API binding concern, out of scope)", specifier)
	}
	resolved := filepath.Join(referrerDir, specifier)
	if filepath.Ext(resolved) == "" {
		resolved += ".js"
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return "", "", "", fmt.Errorf("resolving %q from %s: %w", specifier, referrerDir, err)
	}
	src := string(raw)
	if needsBundling(src) {
		src, err = l.transform(resolved, src)
		if err != nil {
			return "", "", "", err
		}
	}
	return src, filepath.Dir(resolved), resolved, nil
}

func (l *Loader) transform(path, src string) (string, error) {
	result := esbuild.Transform(src, esbuild.TransformOptions{
		Loader:      esbuild.LoaderJS,
		Format:      esbuild.FormatESModule,
		Target:      esbuild.ES2022,
		TreeShaking: esbuild.TreeShakingFalse,
		Sourcefile:  path,
	})
	if len(result.Errors) > 0 {
		var msgs []string
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("bundling %s: %s", path, strings.Join(msgs, "; "))
	}
	return string(result.Code), nil
}

// needsBundling mirrors the teacher's bundle.go check: scripts without any
// import syntax skip esbuild entirely.
func needsBundling(source string) bool {
	return strings.Contains(source, "import ") ||
		strings.Contains(source, "import{") ||
		strings.Contains(source, "import(") ||
		strings.Contains(source, "export ") ||
		strings.Contains(source, "export{")
}
