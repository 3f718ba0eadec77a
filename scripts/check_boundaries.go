// Command check_boundaries enforces the import rules between the layers of
// every module under contexts/. Run it from the repository root:
//
//	go run ./scripts
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "hearth"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer of a context module may import besides the
// standard library. Prefixes starting with "/" are relative to the module.
type layerRule struct {
	allowed       []string
	infraRuleName string
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed:       []string{"/domain"},
		infraRuleName: "domain must not import runtime infrastructure",
	},
	"ports": {
		allowed:       []string{"/domain"},
		infraRuleName: "ports must not import runtime infrastructure",
	},
	"application": {
		allowed: []string{
			"/application",
			"/domain",
			"/ports",
			modulePath + "/internal/platform/txguard",
		},
		infraRuleName: "application must not import runtime infrastructure",
	},
}

func main() {
	violations, err := collectViolations(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks root/contexts and returns violations sorted by
// file, line and import.
func collectViolations(root string) ([]violation, error) {
	var violations []violation
	contexts := filepath.Join(root, "contexts")
	err := filepath.WalkDir(contexts, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		parts := strings.Split(rel, "/")
		if len(parts) < 4 {
			return nil
		}
		modulePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		found, err := checkFile(path, rel, parts[3], modulePrefix)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	return violations, nil
}

func checkFile(path string, rel string, layer string, modulePrefix string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: rel, Line: 1, Rule: "file must parse"}}, nil
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		report := func(rule string) {
			violations = append(violations, violation{
				File:   rel,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   rule,
			})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, modulePrefix) {
			report("cross-module imports are forbidden")
		}
		rule, ok := layerRules[layer]
		if !ok || isStdlib(importPath) {
			continue
		}
		if strings.Contains(importPath, "/adapters/") {
			report(layer + " must not import adapters")
			continue
		}
		if isAllowed(importPath, rule.allowed, modulePrefix) {
			continue
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			report(rule.infraRuleName)
			continue
		}
		report(layer + " import is outside explicit allowlist")
	}
	return violations, nil
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowed []string, modulePrefix string) bool {
	for _, prefix := range allowed {
		if strings.HasPrefix(prefix, "/") {
			prefix = modulePrefix + prefix
		}
		if hasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

// isStdlib treats import paths without a dot in the first element as
// standard library, except paths inside this module.
func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := strings.SplitN(importPath, "/", 2)[0]
	return !strings.Contains(first, ".")
}
