// Command writeaudit reports which service methods write to repositories
// directly instead of going through an aggregate.
//
//	go run ./scripts/writeaudit [repo-root]
package main

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type fieldKind int

const (
	fieldRepo fieldKind = iota + 1
	fieldRepoSet
	fieldAggregate
)

type methodReport struct {
	Struct          string   `json:"struct"`
	Method          string   `json:"method"`
	File            string   `json:"file"`
	Line            int      `json:"line"`
	RepoWrites      []string `json:"repo_writes,omitempty"`
	AggregateWrites []string `json:"aggregate_writes,omitempty"`
}

type report struct {
	ServiceMethods             int            `json:"service_methods"`
	MethodsWithRepoWrites      int            `json:"methods_with_repo_writes"`
	MethodsWithAggregateWrites int            `json:"methods_with_aggregate_writes"`
	RepoWriteCallsites         int            `json:"repo_write_callsites"`
	AggregateWriteCallsites    int            `json:"aggregate_write_callsites"`
	Residual                   []methodReport `json:"residual"`
}

var repoWriteMethods = map[string]bool{
	"Create":                 true,
	"CreateIgnoreDuplicates": true,
	"UpdateFields":           true,
	"DeleteByIDs":            true,
	"DeleteByNodes":          true,
	"DeleteByIndividuals":    true,
	"DeletePairs":            true,
	"Replace":                true,
	"Repoint":                true,
	"IncrementSeen":          true,
}

// aggregateReads are aggregate methods that never write.
var aggregateReads = map[string]bool{
	"Contract":   true,
	"Duplicates": true,
}

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	dir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi os.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, 0)
	if err != nil {
		exitf("parse %s: %v", dir, err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		exitf("services package not found in %s", dir)
	}

	fields := map[string]map[string]fieldKind{}
	for _, f := range pkg.Files {
		collectFields(f, fields)
	}
	var methods []methodReport
	for path, f := range pkg.Files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		methods = append(methods, collectMethods(fset, f, filepath.ToSlash(rel), fields)...)
	}

	out, err := json.MarshalIndent(summarize(methods), "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

// collectFields records, per struct, the fields holding repos, the repo set
// or aggregates.
func collectFields(file *ast.File, out map[string]map[string]fieldKind) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			kinds := map[string]fieldKind{}
			for _, field := range st.Fields.List {
				kind := classify(field.Type)
				if kind == 0 {
					continue
				}
				for _, name := range field.Names {
					kinds[name.Name] = kind
				}
			}
			if len(kinds) > 0 {
				out[ts.Name.Name] = kinds
			}
		}
	}
}

func classify(expr ast.Expr) fieldKind {
	switch t := expr.(type) {
	case *ast.StarExpr:
		if sel, ok := t.X.(*ast.SelectorExpr); ok && pkgName(sel) == "repos" && sel.Sel.Name == "Set" {
			return fieldRepoSet
		}
	case *ast.IndexExpr:
		return classify(t.X)
	case *ast.SelectorExpr:
		name := t.Sel.Name
		switch pkgName(t) {
		case "repos", "knowledgerepo":
			if strings.HasSuffix(name, "Repo") {
				return fieldRepo
			}
		case "domainagg":
			if strings.HasSuffix(name, "Aggregate") {
				return fieldAggregate
			}
		}
	}
	return 0
}

func pkgName(sel *ast.SelectorExpr) string {
	if id, ok := sel.X.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func collectMethods(fset *token.FileSet, file *ast.File, rel string, fields map[string]map[string]fieldKind) []methodReport {
	var out []methodReport
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recv, typ := recvInfo(fd.Recv.List[0])
		kinds, ok := fields[typ]
		if recv == "" || !ok {
			continue
		}
		m := methodReport{
			Struct: typ,
			Method: fd.Name.Name,
			File:   rel,
			Line:   fset.Position(fd.Pos()).Line,
		}
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fn, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			path := selectorPath(fn.X)
			if len(path) < 2 || path[0] != recv {
				return true
			}
			method := fn.Sel.Name
			switch kinds[path[1]] {
			case fieldRepo:
				if repoWriteMethods[method] {
					m.RepoWrites = append(m.RepoWrites, path[1]+"."+method)
				}
			case fieldRepoSet:
				if len(path) == 3 && repoWriteMethods[method] {
					m.RepoWrites = append(m.RepoWrites, path[1]+"."+path[2]+"."+method)
				}
			case fieldAggregate:
				if !aggregateReads[method] {
					m.AggregateWrites = append(m.AggregateWrites, path[1]+"."+method)
				}
			}
			return true
		})
		out = append(out, m)
	}
	return out
}

// selectorPath flattens s.a.b into [s a b].
func selectorPath(expr ast.Expr) []string {
	switch t := expr.(type) {
	case *ast.Ident:
		return []string{t.Name}
	case *ast.SelectorExpr:
		base := selectorPath(t.X)
		if base == nil {
			return nil
		}
		return append(base, t.Sel.Name)
	}
	return nil
}

func summarize(methods []methodReport) report {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})
	r := report{ServiceMethods: len(methods)}
	for _, m := range methods {
		if len(m.RepoWrites) > 0 {
			r.MethodsWithRepoWrites++
			r.RepoWriteCallsites += len(m.RepoWrites)
			r.Residual = append(r.Residual, m)
		}
		if len(m.AggregateWrites) > 0 {
			r.MethodsWithAggregateWrites++
			r.AggregateWriteCallsites += len(m.AggregateWrites)
		}
	}
	return r
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	name := field.Names[0].Name
	t := field.Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	switch x := t.(type) {
	case *ast.Ident:
		return name, x.Name
	case *ast.IndexExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			return name, id.Name
		}
	case *ast.IndexListExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			return name, id.Name
		}
	}
	return "", ""
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
