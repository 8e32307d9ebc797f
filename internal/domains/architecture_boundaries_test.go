package domains

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const modulePath = "cardsmith/go-backend"

func TestArchitecture_DomainPackagesDisallowAdapterCompositionImports(t *testing.T) {
	domainsDir := domainsRoot(t)
	forbidden := []string{
		modulePath + "/internal/adapters",
		modulePath + "/internal/composition",
		modulePath + "/internal/bootstrap",
		modulePath + "/internal/app",
		modulePath + "/cmd",
	}
	violations := scanImports(t, domainsDir, domainsDir, forbidden)
	if len(violations) > 0 {
		t.Fatalf("domain boundary violations detected:\n- %s", strings.Join(violations, "\n- "))
	}
}

// The state machine and card codecs stay free of storage and platform code so
// they can be tested without a filesystem.
func TestArchitecture_PurePackagesDisallowInfraImports(t *testing.T) {
	domainsDir := domainsRoot(t)
	forbidden := []string{
		modulePath + "/internal/storage",
		modulePath + "/internal/platform",
		modulePath + "/internal/securestore",
		modulePath + "/internal/domains/workflow/sessions",
		modulePath + "/internal/domains/workflow/usecase",
	}
	var violations []string
	for _, pkg := range []string{"cards", filepath.Join("workflow", "model"), filepath.Join("workflow", "policy")} {
		violations = append(violations, scanImports(t, domainsDir, filepath.Join(domainsDir, pkg), forbidden)...)
	}
	if len(violations) > 0 {
		t.Fatalf("pure package violations detected:\n- %s", strings.Join(violations, "\n- "))
	}
}

func domainsRoot(t *testing.T) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("failed to resolve current test file path")
	}
	return filepath.Dir(currentFile)
}

func scanImports(t *testing.T, root, dir string, forbiddenPrefixes []string) []string {
	t.Helper()
	fset := token.NewFileSet()
	var violations []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		parsed, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return fmt.Errorf("parse file %s: %w", path, err)
		}
		for _, imp := range parsed.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			for _, prefix := range forbiddenPrefixes {
				if !hasPrefixImport(importPath, prefix) {
					continue
				}
				pos := fset.Position(imp.Path.Pos())
				relPath, relErr := filepath.Rel(root, path)
				if relErr != nil {
					relPath = path
				}
				violations = append(violations, fmt.Sprintf("%s:%d imports %q", relPath, pos.Line, importPath))
				break
			}
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk %s: %v", dir, walkErr)
	}
	return violations
}

func hasPrefixImport(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
