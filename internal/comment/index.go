package comment

import (
	"bufio"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNoModule is returned when the source root has no module line in go.mod.
var ErrNoModule = errors.New("comment: go.mod has no module directive")

// Index holds the doc comments of every test package in a module, keyed by
// import path.
type Index struct {
	module  string
	root    string
	suites  map[string]Comment
	pkgDocs map[string]Comment // package docs from non-test files
	tests   map[string]map[string]Comment
	skipped []string
}

// LoadModule reads go.mod in root and indexes every _test.go file below it,
// along with the package doc comments of the packages under test.
// Nested modules, vendor, testdata and dot or underscore directories are
// skipped. Files that fail to parse are recorded in Skipped.
func LoadModule(root string) (*Index, error) {
	module, err := readModulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		return nil, err
	}

	idx := &Index{
		module:  module,
		root:    root,
		suites:  make(map[string]Comment),
		pkgDocs: make(map[string]Comment),
		tests:   make(map[string]map[string]Comment),
	}

	fset := token.NewFileSet()
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipDir(p, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		pkg := importPath(module, rel)

		if !strings.HasSuffix(d.Name(), "_test.go") {
			f, err := parser.ParseFile(fset, p, nil, parser.PackageClauseOnly|parser.ParseComments)
			if err == nil && f.Doc != nil {
				if _, ok := idx.pkgDocs[pkg]; !ok {
					idx.pkgDocs[pkg] = FromGroup(f.Doc, "Package "+f.Name.Name)
				}
			}
			return nil
		}

		f, err := parser.ParseFile(fset, p, nil, parser.ParseComments)
		if err != nil {
			idx.skipped = append(idx.skipped, fmt.Sprintf("%s: %v", p, err))
			return nil
		}
		idx.add(pkg, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}
	return idx, nil
}

func skipDir(p, name string) bool {
	switch {
	case name == "vendor" || name == "testdata":
		return true
	case strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_"):
		return true
	}
	// Another module starts here.
	_, err := os.Stat(filepath.Join(p, "go.mod"))
	return err == nil
}

func importPath(module, rel string) string {
	if rel == "." {
		return module
	}
	return path.Join(module, filepath.ToSlash(rel))
}

func (idx *Index) add(pkg string, f *ast.File) {
	if _, ok := idx.suites[pkg]; !ok && f.Doc != nil {
		idx.suites[pkg] = FromGroup(f.Doc, "Package "+f.Name.Name, "Package "+strings.TrimSuffix(f.Name.Name, "_test"))
	}

	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Doc == nil || !isTestFunc(fn) {
			continue
		}
		if idx.tests[pkg] == nil {
			idx.tests[pkg] = make(map[string]Comment)
		}
		idx.tests[pkg][fn.Name.Name] = FromGroup(fn.Doc, fn.Name.Name)
	}
}

// isTestFunc matches func TestXxx(t *testing.T).
func isTestFunc(fn *ast.FuncDecl) bool {
	name := fn.Name.Name
	if !strings.HasPrefix(name, "Test") || name == "TestMain" {
		return false
	}
	params := fn.Type.Params
	return params != nil && len(params.List) == 1
}

// Module returns the module path from go.mod.
func (idx *Index) Module() string { return idx.module }

// Root returns the directory the index was loaded from.
func (idx *Index) Root() string { return idx.root }

// Suite returns the package doc comment of the test files in pkg, falling
// back to the doc comment of the package under test.
func (idx *Index) Suite(pkg string) (Comment, bool) {
	if c, ok := idx.suites[pkg]; ok {
		return c, true
	}
	c, ok := idx.pkgDocs[pkg]
	return c, ok
}

// Test returns the doc comment of test function name in pkg.
func (idx *Index) Test(pkg, name string) (Comment, bool) {
	c, ok := idx.tests[pkg][name]
	return c, ok
}

// Skipped lists the files that could not be parsed.
func (idx *Index) Skipped() []string { return idx.skipped }

func readModulePath(gomod string) (string, error) {
	f, err := os.Open(gomod)
	if err != nil {
		return "", fmt.Errorf("open go.mod: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "module" {
			return strings.Trim(fields[1], `"`), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read go.mod: %w", err)
	}
	return "", ErrNoModule
}
