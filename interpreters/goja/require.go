package goja

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// required is one top-level require("name") statement.  The indexes
// are offsets into the source.
type required struct {
	from, to int
	name     string
}

// InlineRequires replaces each top-level require("name") statement in
// a story script with the source the provider gives for name.
//
// Story scripts run once, when the story loads, so inlining at load
// time leaves nothing to resolve while passages render.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {
	p, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return "", err
	}

	var requires []required
	for _, s := range p.Body {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}
		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}
		if id, is := call.Callee.(*ast.Identifier); !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}
		lit, is := call.ArgumentList[0].(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %#v", call.ArgumentList[0])
		}
		// Idx values are 1-based.
		requires = append(requires, required{
			from: int(exps.Idx0()) - 1,
			to:   int(exps.Idx1()) - 1,
			name: string(lit.Value),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var b strings.Builder
	last := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		b.WriteString(src[last:r.from])
		b.WriteString(lib)
		b.WriteString("\n")
		last = r.to
		if last < len(src) && src[last] == ';' {
			last++
		}
	}
	b.WriteString(src[last:])
	return b.String(), nil
}
