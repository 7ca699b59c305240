// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package javasrc

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/jfacts/pkg/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadWith(t *testing.T, cp model.Classpath, files map[string]string) (*model.Program, *Stats) {
	t.Helper()
	var sources []SourceFile
	for path, content := range files {
		sources = append(sources, SourceFile{Path: path, Content: []byte(content)})
	}
	l := NewLoader(Options{Logger: quietLogger(), Classpath: cp, Workers: 2})
	prog, stats, err := l.LoadSources(context.Background(), sources)
	require.NoError(t, err)
	require.Zero(t, stats.Failed)
	return prog, stats
}

func load(t *testing.T, files map[string]string) *model.Program {
	t.Helper()
	jdk, err := model.JDK()
	require.NoError(t, err)
	prog, _ := loadWith(t, jdk, files)
	return prog
}

func lookupType(t *testing.T, prog *model.Program, name string) *model.TypeDecl {
	t.Helper()
	d := prog.Lookup(name)
	require.NotNil(t, d, "type %s", name)
	return d
}

func lookupMethod(t *testing.T, d *model.TypeDecl, name string) *model.MethodDecl {
	t.Helper()
	ms := d.FindMethods(name)
	require.Len(t, ms, 1, "method %s", name)
	return ms[0]
}

func TestLoadSources_Declarations(t *testing.T) {
	prog := load(t, map[string]string{"src/com/acme/shop/Order.java": `package com.acme.shop;

import java.util.List;
import java.util.*;
import static java.lang.Math.max;

/** An order. */
public class Order {
    private int count;
    public static final String NAME = "order", ALIAS = "o";

    public Order(int count) {
        this.count = count;
    }

    /** Returns the count. */
    public int getCount() {
        return count;
    }

    static class Line {}

    interface Visitor {
        void visit(Order o);
    }
}
`})

	require.Len(t, prog.Packages, 1)
	pkg := prog.Packages[0]
	assert.Equal(t, "com.acme.shop", pkg.Name)
	require.Len(t, pkg.Units, 1)
	assert.Equal(t, []string{"java.util.List", "java.util.*", "static java.lang.Math.max"}, pkg.Units[0].Imports)

	order := lookupType(t, prog, "com.acme.shop.Order")
	assert.Equal(t, model.DeclClass, order.Kind)
	assert.Equal(t, "An order.", order.Doc)
	assert.True(t, order.Modifiers.Has(model.ModPublic))
	assert.Equal(t, "src/com/acme/shop/Order.java", order.Pos.File)
	assert.Equal(t, "com.acme.shop.Order", order.Pos.MainType)

	var fields []string
	for _, f := range order.Fields {
		fields = append(fields, f.Name)
	}
	assert.Equal(t, []string{"count", "NAME", "ALIAS"}, fields)
	count := order.FindField("count")
	assert.Equal(t, "int", count.Type.Name)
	assert.True(t, count.Modifiers.Has(model.ModPrivate))
	name := order.FindField("NAME")
	assert.Equal(t, "java.lang.String", name.Type.Name)
	assert.True(t, name.Modifiers.Has(model.ModPublic|model.ModStatic|model.ModFinal))
	require.NotNil(t, name.Init)
	assert.Equal(t, model.ExprLiteral, name.Init.Kind)

	require.Len(t, order.Constructors, 1)
	ctor := order.Constructors[0]
	assert.Equal(t, "Order", ctor.Name)
	require.Len(t, ctor.Params, 1)
	assert.Equal(t, "count", ctor.Params[0].Name)
	assert.Equal(t, "int", ctor.Params[0].Type.Name)

	require.NotNil(t, ctor.Body)
	require.Len(t, ctor.Body.Statements, 1)
	assign := ctor.Body.Statements[0].Expr
	require.NotNil(t, assign)
	assert.Equal(t, model.ExprAssignment, assign.Kind)
	assert.Equal(t, model.ExprFieldAccess, assign.Left.Kind)
	assert.Same(t, count, assign.Left.Field.Decl)
	assert.Equal(t, model.ExprVariable, assign.Right.Kind)
	assert.Nil(t, assign.Right.Var, "parameters are not local variables")
	assert.Equal(t, "int", assign.Right.Type.Name)

	getCount := lookupMethod(t, order, "getCount")
	assert.Equal(t, "Returns the count.", getCount.Doc)
	assert.Equal(t, "int", getCount.Return.Name)
	ret := getCount.Body.Statements[0]
	assert.Equal(t, model.StmtReturn, ret.Kind)
	assert.Same(t, count, ret.Expr.Field.Decl)

	var nested []string
	for _, n := range order.Nested {
		nested = append(nested, n.QualifiedName)
	}
	assert.Equal(t, []string{"com.acme.shop.Order$Line", "com.acme.shop.Order$Visitor"}, nested)

	visitor := lookupType(t, prog, "com.acme.shop.Order$Visitor")
	assert.Equal(t, model.DeclInterface, visitor.Kind)
	assert.True(t, visitor.Modifiers.Has(model.ModStatic))
	assert.Same(t, order, visitor.Outer)
	visit := lookupMethod(t, visitor, "visit")
	assert.True(t, visit.Modifiers.Has(model.ModPublic|model.ModAbstract))
	assert.Nil(t, visit.Body)
	assert.Same(t, order, visit.Params[0].Type.Decl)
}

func TestLoadSources_Invocations(t *testing.T) {
	prog := load(t, map[string]string{"p/Calc.java": `package p;

public class Calc {
    int twice(int x) {
        return x * 2;
    }

    int run() {
        int y = twice(3);
        String s = "abc";
        return s.length() + y;
    }
}
`})

	calc := lookupType(t, prog, "p.Calc")
	twice := lookupMethod(t, calc, "twice")
	stmts := lookupMethod(t, calc, "run").Body.Statements
	require.Len(t, stmts, 3)

	y := stmts[0]
	assert.Equal(t, model.StmtLocalVar, y.Kind)
	assert.Equal(t, "int y = twice(3)", y.Source)
	assert.Equal(t, "y", y.Var.Name)
	assert.Equal(t, "int", y.Var.Type.Name)
	require.Equal(t, model.ExprInvocation, y.Var.Init.Kind)
	assert.Same(t, twice, y.Var.Init.Method.Decl)
	assert.Equal(t, "int", y.Var.Init.Type.Name)

	s := stmts[1]
	assert.Equal(t, "java.lang.String", s.Var.Type.Name)
	assert.Equal(t, model.ExprLiteral, s.Var.Init.Kind)

	sum := stmts[2].Expr
	require.Len(t, sum.Operands, 2)
	assert.Equal(t, "int", sum.Type.Name)
	length := sum.Operands[0]
	require.Equal(t, model.ExprInvocation, length.Kind)
	require.NotNil(t, length.Method)
	assert.Equal(t, "java.lang.String", length.Method.Owner.Name)
	assert.Equal(t, "length", length.Method.Name)
	assert.NotNil(t, length.Method.Info)
	assert.Same(t, s.Var, length.Target.Var)
	assert.Same(t, y.Var, sum.Operands[1].Var)
}

func TestLoadSources_JavaLangWithoutClasspath(t *testing.T) {
	prog, _ := loadWith(t, nil, map[string]string{"p/Names.java": `package p;

class Names {
    int size(String s) {
        return s.length();
    }

    Object unknown(Widget w) {
        return w.spin();
    }
}
`})

	names := lookupType(t, prog, "p.Names")
	size := lookupMethod(t, names, "size")
	assert.Equal(t, "java.lang.String", size.Params[0].Type.Name)
	call := size.Body.Statements[0].Expr
	require.NotNil(t, call.Method)
	assert.Equal(t, "java.lang.String", call.Method.Owner.Name)
	assert.Equal(t, "length", call.Method.Name)
	assert.Nil(t, call.Method.Info)

	unknown := lookupMethod(t, names, "unknown")
	assert.Equal(t, "Widget", unknown.Params[0].Type.Name)
	assert.Nil(t, unknown.Params[0].Type.Decl)
	assert.Nil(t, unknown.Body.Statements[0].Expr.Method)
}

func TestLoadSources_AnonymousClassesAndLambdas(t *testing.T) {
	prog := load(t, map[string]string{"p/Tasks.java": `package p;

import java.util.function.Function;

public class Tasks {
    Runnable first = new Runnable() {
        public void run() {}
    };

    void go() {
        Function<String, Integer> f = s -> s.length();
        Runnable r = () -> {};
        Runnable again = new Runnable() {
            public void run() {}
        };
    }
}
`})

	tasks := lookupType(t, prog, "p.Tasks")
	first := tasks.FindField("first").Init
	require.NotNil(t, first)
	assert.Equal(t, model.ExprNew, first.Kind)
	assert.Nil(t, first.Method, "anonymous interface implementations call no constructor")
	anon := first.Anonymous
	require.NotNil(t, anon)
	assert.True(t, anon.Anonymous)
	assert.Equal(t, "1", anon.Name)
	assert.Equal(t, "p.Tasks$1", anon.QualifiedName)
	require.Len(t, anon.Interfaces, 1)
	assert.Equal(t, "java.lang.Runnable", anon.Interfaces[0].Name)
	assert.Nil(t, anon.EnclosingMethod)
	assert.Same(t, tasks, anon.Outer)
	assert.Len(t, anon.Methods, 1)

	goMethod := lookupMethod(t, tasks, "go")
	stmts := goMethod.Body.Statements
	require.Len(t, stmts, 3)

	f := stmts[0].Var.Init
	require.Equal(t, model.ExprLambda, f.Kind)
	assert.Equal(t, "lambda$0", f.Lambda.Name)
	assert.Equal(t, "java.util.function.Function", f.Lambda.Type.Name)
	require.Len(t, f.Lambda.Params, 1)
	param := f.Lambda.Params[0]
	assert.Equal(t, "s", param.Name)
	assert.Equal(t, "java.lang.String", param.Type.Name)
	assert.True(t, param.Type.Implicit)
	require.NotNil(t, f.Lambda.Expr)
	assert.Equal(t, "length", f.Lambda.Expr.Method.Name)
	assert.Same(t, param, f.Lambda.Expr.Target.Var)

	r := stmts[1].Var.Init
	require.Equal(t, model.ExprLambda, r.Kind)
	assert.Equal(t, "lambda$1", r.Lambda.Name)
	assert.Equal(t, "java.lang.Runnable", r.Lambda.Type.Name)
	require.NotNil(t, r.Lambda.Body)
	assert.Equal(t, model.StmtBlock, r.Lambda.Body.Kind)

	again := stmts[2].Var.Init.Anonymous
	require.NotNil(t, again)
	assert.Equal(t, "p.Tasks$2", again.QualifiedName)
	assert.Same(t, goMethod, again.EnclosingMethod)
}

func TestLoadSources_GenericsAndLocalClasses(t *testing.T) {
	prog := load(t, map[string]string{"p/Box.java": `package p;

import java.util.ArrayList;
import java.util.List;

public class Box<T extends Comparable<T>> {
    private List<String> names = new ArrayList<>();
    int[][] grid;

    <R> R map(T value) {
        return null;
    }

    void local() {
        class Helper {}
        class Other {}
    }
}
`})

	box := lookupType(t, prog, "p.Box")
	require.Len(t, box.TypeParams, 1)
	tp := box.TypeParams[0]
	assert.Equal(t, "T", tp.Name)
	require.Len(t, tp.Bounds, 1)
	assert.Equal(t, "java.lang.Comparable", tp.Bounds[0].Name)
	require.Len(t, tp.Bounds[0].Args, 1)
	assert.Equal(t, model.RefTypeVar, tp.Bounds[0].Args[0].Kind)

	names := box.FindField("names")
	assert.Equal(t, "java.util.List", names.Type.Name)
	require.Len(t, names.Type.Args, 1)
	assert.Equal(t, "java.lang.String", names.Type.Args[0].Name)
	require.NotNil(t, names.Init)
	assert.Equal(t, model.ExprNew, names.Init.Kind)
	assert.Equal(t, "java.util.ArrayList", names.Init.Type.Name)
	assert.True(t, names.Init.Type.Diamond)

	grid := box.FindField("grid").Type
	assert.Equal(t, model.RefArray, grid.Kind)
	assert.Equal(t, 2, grid.Dimensions())
	assert.Equal(t, "int", grid.Innermost().Name)

	m := lookupMethod(t, box, "map")
	require.Len(t, m.TypeParams, 1)
	assert.Equal(t, "R", m.TypeParams[0].Name)
	assert.Equal(t, model.RefTypeVar, m.Return.Kind)
	assert.Equal(t, "R", m.Return.Name)
	assert.Equal(t, model.RefTypeVar, m.Params[0].Type.Kind)
	assert.Equal(t, "T", m.Params[0].Type.Name)

	local := lookupMethod(t, box, "local")
	stmts := local.Body.Statements
	require.Len(t, stmts, 2)
	for i, want := range []string{"p.Box$1Helper", "p.Box$1Other"} {
		require.Equal(t, model.StmtClass, stmts[i].Kind)
		class := stmts[i].Class
		assert.Equal(t, want, class.QualifiedName)
		assert.True(t, class.Local)
		assert.Same(t, local, class.EnclosingMethod)
	}
	assert.Empty(t, box.Nested, "local classes are not member types")
}

func TestLoadSources_EnumsAndRecords(t *testing.T) {
	prog := load(t, map[string]string{
		"p/Color.java": `package p;

public enum Color {
    RED, GREEN;

    static String label(Color c) {
        switch (c) {
            case RED:
                return "r";
            default:
                return "x";
        }
    }
}
`,
		"p/Point.java": `package p;

public record Point(int x, int y) {
    public Point {
        if (x < 0) throw new IllegalArgumentException();
    }
}
`,
	})

	color := lookupType(t, prog, "p.Color")
	assert.Equal(t, model.DeclEnum, color.Kind)
	require.NotNil(t, color.Super)
	assert.Equal(t, "java.lang.Enum", color.Super.Name)
	require.Len(t, color.Super.Args, 1)
	assert.Equal(t, "p.Color", color.Super.Args[0].Name)

	red := color.FindField("RED")
	require.NotNil(t, red)
	assert.Equal(t, "p.Color", red.Type.Name)
	assert.True(t, red.Modifiers.Has(model.ModPublic|model.ModStatic|model.ModFinal))
	require.NotNil(t, red.Init)
	assert.Equal(t, model.ExprNew, red.Init.Kind)
	require.NotNil(t, red.Init.Method)
	assert.True(t, red.Init.Method.Constructor)
	assert.Equal(t, "p.Color", red.Init.Method.Owner.Name)

	sw := lookupMethod(t, color, "label").Body.Statements[0]
	require.Equal(t, model.StmtSwitch, sw.Kind)
	require.Len(t, sw.Cases, 2)
	require.NotNil(t, sw.Cases[0].Expr)
	assert.Same(t, red, sw.Cases[0].Expr.Field.Decl)
	require.Len(t, sw.Cases[0].Statements, 1)
	assert.Equal(t, model.StmtReturn, sw.Cases[0].Statements[0].Kind)
	assert.Nil(t, sw.Cases[1].Expr)

	point := lookupType(t, prog, "p.Point")
	assert.Equal(t, model.DeclClass, point.Kind)
	assert.Equal(t, "java.lang.Record", point.Super.Name)
	assert.True(t, point.Modifiers.Has(model.ModFinal))
	require.Len(t, point.Fields, 2)
	for _, f := range point.Fields {
		assert.True(t, f.Modifiers.Has(model.ModPrivate|model.ModFinal))
		assert.Equal(t, "int", f.Type.Name)
	}
	require.Len(t, point.Constructors, 1)
	ctor := point.Constructors[0]
	require.Len(t, ctor.Params, 2)
	assert.Equal(t, "x", ctor.Params[0].Name)
	assert.Equal(t, "y", ctor.Params[1].Name)
	ifStmt := ctor.Body.Statements[0]
	require.Equal(t, model.StmtIf, ifStmt.Kind)
	assert.Equal(t, model.StmtThrow, ifStmt.Then.Kind)
	assert.Equal(t, "java.lang.IllegalArgumentException", ifStmt.Then.Expr.Type.Name)
}

func TestLoadSources_Statements(t *testing.T) {
	prog := load(t, map[string]string{"p/Loops.java": `package p;

import java.util.List;

public class Loops {
    int sum(List<String> items) {
        int total = 0;
        outer:
        for (int i = 0, j = 1; i < 10; i++, j++) {
            if (i > 5) break outer;
        }
        for (String item : items) {
            total += item.length();
        }
        try {
            total++;
        } catch (IllegalStateException | IllegalArgumentException e) {
            total--;
        } finally {
            total = 0;
        }
        return total;
    }
}
`})

	stmts := lookupMethod(t, lookupType(t, prog, "p.Loops"), "sum").Body.Statements
	require.Len(t, stmts, 5)
	total := stmts[0].Var
	require.NotNil(t, total)

	loop := stmts[1]
	require.Equal(t, model.StmtFor, loop.Kind)
	assert.Equal(t, "outer", loop.Label)
	require.Len(t, loop.Init, 2)
	assert.Equal(t, "i", loop.Init[0].Var.Name)
	assert.Equal(t, "j", loop.Init[1].Var.Name)
	assert.NotNil(t, loop.Cond)
	assert.Len(t, loop.Update, 2)
	require.NotNil(t, loop.Body)
	brk := loop.Body.Statements[0].Then
	require.NotNil(t, brk)
	assert.Equal(t, model.StmtBreak, brk.Kind)
	assert.Equal(t, "outer", brk.Target)

	each := stmts[2]
	require.Equal(t, model.StmtForEach, each.Kind)
	assert.Equal(t, "item", each.Var.Name)
	assert.Equal(t, "java.lang.String", each.Var.Type.Name)
	update := each.Body.Statements[0].Expr
	require.Equal(t, model.ExprAssignment, update.Kind)
	assert.Same(t, total, update.Left.Var)
	assert.Equal(t, "length", update.Right.Method.Name)

	try := stmts[3]
	require.Equal(t, model.StmtTry, try.Kind)
	require.Len(t, try.Catches, 1)
	catch := try.Catches[0]
	require.Len(t, catch.Types, 2)
	assert.Equal(t, "java.lang.IllegalStateException", catch.Types[0].Name)
	assert.Equal(t, "java.lang.IllegalArgumentException", catch.Types[1].Name)
	assert.Equal(t, "e", catch.Param.Name)
	assert.Equal(t, "java.lang.IllegalStateException", catch.Param.Type.Name)
	require.NotNil(t, try.Finally)
	assert.True(t, strings.HasPrefix(try.Finally.Source, "finally"))

	ret := stmts[4]
	require.Equal(t, model.StmtReturn, ret.Kind)
	assert.Same(t, total, ret.Expr.Var)
}

func TestLoadSources_CrossFileResolution(t *testing.T) {
	prog := load(t, map[string]string{
		"a/Base.java": `package a;

public class Base {
    protected String name;

    public String describe(int depth) {
        return name;
    }
}
`,
		"b/Child.java": `package b;

import a.Base;

public class Child extends Base {
    String run() {
        return describe(1) + name;
    }
}
`,
	})

	base := lookupType(t, prog, "a.Base")
	child := lookupType(t, prog, "b.Child")
	require.NotNil(t, child.Super)
	assert.Same(t, base, child.Super.Decl)

	concat := lookupMethod(t, child, "run").Body.Statements[0].Expr
	require.Len(t, concat.Operands, 2)
	assert.Equal(t, "java.lang.String", concat.Type.Name)
	assert.Same(t, lookupMethod(t, base, "describe"), concat.Operands[0].Method.Decl)
	assert.Same(t, base.FindField("name"), concat.Operands[1].Field.Decl)
}

func TestLoadSources_PackageDocAndSyntaxErrors(t *testing.T) {
	l := NewLoader(Options{Logger: quietLogger()})
	prog, stats, err := l.LoadSources(context.Background(), []SourceFile{
		{Path: "shop/package-info.java", Content: []byte("/** Shop domain. */\npackage shop;\n")},
		{Path: "shop/Broken.java", Content: []byte("package shop;\nclass Broken { void m( { }\n")},
	})
	require.NoError(t, err)

	pkg := prog.Package("shop")
	require.NotNil(t, pkg)
	assert.Equal(t, "Shop domain.", pkg.Doc)
	assert.Equal(t, 2, stats.Files)
	assert.Positive(t, stats.SyntaxErrors)
}

func TestLoader_Discover(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write("src/main/java/p/A.java", "package p;\nclass A {}\n")
	write("src/test/java/p/ATest.java", "package p;\nclass ATest {}\n")
	write("target/generated/p/B.java", "package p;\nclass B {}\n")
	write(".git/p/C.java", "package p;\nclass C {}\n")
	write("README.md", "# readme\n")

	tests := []struct {
		name     string
		excludes []string
		roots    []string
		want     []string
	}{
		{
			name:  "directory root skips build and hidden dirs",
			roots: []string{root},
			want:  []string{"src/main/java/p/A.java", "src/test/java/p/ATest.java"},
		},
		{
			name:     "exclude globs",
			excludes: []string{"src/test/**"},
			roots:    []string{root},
			want:     []string{"src/main/java/p/A.java"},
		},
		{
			name:  "glob root",
			roots: []string{filepath.Join(root, "src", "*", "java")},
			want:  []string{"src/main/java/p/A.java", "src/test/java/p/ATest.java"},
		},
		{
			name:  "single file root",
			roots: []string{filepath.Join(root, "src", "main", "java", "p", "A.java")},
			want:  []string{"src/main/java/p/A.java"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(Options{Logger: quietLogger(), Excludes: tt.excludes})
			files, err := l.Discover(tt.roots...)
			require.NoError(t, err)
			var rel []string
			for _, f := range files {
				r, err := filepath.Rel(root, f)
				require.NoError(t, err)
				rel = append(rel, filepath.ToSlash(r))
			}
			assert.Equal(t, tt.want, rel)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p", "A.java")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("package p;\npublic class A { void m() {} }\n"), 0o644))

	var seen []string
	l := NewLoader(Options{Logger: quietLogger(), OnFile: func(p string) { seen = append(seen, p) }, Workers: 1})
	prog, stats, err := l.Load(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, []string{path}, seen)
	assert.Equal(t, 1, prog.TypeCount())
	assert.NotNil(t, prog.Lookup("p.A"))
}
