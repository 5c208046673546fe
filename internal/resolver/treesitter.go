package resolver

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// treeSitterImports extracts import specifiers from JS/TS source using the
// tree-sitter grammar when the source parses cleanly, so that imports tucked
// inside template literals or unusual formatting aren't missed by
// reJSImport's line-oriented regex. ok is false whenever parsing doesn't
// yield a usable tree, signaling the caller to fall back to the regex scan;
// this is the resolver's only grammar dependency and it must degrade
// gracefully rather than fail the whole resolve.
func treeSitterImports(relPath, source string) (specs []string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			specs, ok = nil, false
		}
	}()

	parser := sitter.NewParser()
	if strings.EqualFold(filepath.Ext(relPath), ".ts") || strings.EqualFold(filepath.Ext(relPath), ".tsx") {
		parser.SetLanguage(typescript.GetLanguage())
	} else {
		parser.SetLanguage(javascript.GetLanguage())
	}

	content := []byte(source)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, false
	}

	var out []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement", "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				out = append(out, unquote(string(content[src.StartByte():src.EndByte()])))
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			args := n.ChildByFieldName("arguments")
			if fn != nil && args != nil {
				name := string(content[fn.StartByte():fn.EndByte()])
				if name == "require" || name == "import" {
					for i := 0; i < int(args.NamedChildCount()); i++ {
						arg := args.NamedChild(i)
						if arg.Type() == "string" {
							out = append(out, unquote(string(content[arg.StartByte():arg.EndByte()])))
						}
					}
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	return out, true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
