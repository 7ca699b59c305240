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

package extraction

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jtest "github.com/kraklabs/jfacts/internal/testing"
	"github.com/kraklabs/jfacts/pkg/facts"
	"github.com/kraklabs/jfacts/pkg/model"
	"github.com/kraklabs/jfacts/pkg/ontology"
	"github.com/kraklabs/jfacts/pkg/project"
)

const shapeSource = `package p;

import java.util.ArrayList;
import java.util.List;
import java.util.function.Function;

/** A shape. */
public class Shape<T extends Comparable<T>> {
    private int[][] grid;
    protected List<String> names = new ArrayList<>();
    T best;
    List<? extends T> items;
    List<?> any;

    public Shape(int size) {
        grid = new int[size][size];
    }

    public <R> R convert(T value, R fallback) {
        int count = names.size();
        if (count > 0) {
            return fallback;
        }
        return fallback;
    }

    public List<String> getNames() {
        return names;
    }

    void schedule() {
        Runnable r = new Runnable() {
            public void run() {}
        };
        Function<String, Integer> len = s -> s.length();
    }
}
`

func newTestExtractor(t *testing.T, opts Options) (*Extractor, *jtest.FactRecorder) {
	t.Helper()
	jdk, err := model.JDK()
	require.NoError(t, err)
	rec := jtest.NewFactRecorder()
	x := NewExtractor(Config{
		Output:    rec,
		Options:   opts,
		Classpath: jdk,
		Logger:    jtest.QuietLogger(),
	})
	return x, rec
}

func extractSources(t *testing.T, opts Options, files map[string]string) (*Extractor, *jtest.FactRecorder, *model.Program) {
	t.Helper()
	prog := jtest.LoadJava(t, files)
	x, rec := newTestExtractor(t, opts)
	require.NoError(t, x.ExtractProgram(context.Background(), prog))
	return x, rec, prog
}

// methodURI builds the URI of the single method named name declared by
// typeName.
func methodURI(t *testing.T, x *Extractor, prog *model.Program, typeName, name string) string {
	t.Helper()
	decl := prog.Lookup(typeName)
	require.NotNil(t, decl, typeName)
	methods := decl.FindMethods(name)
	require.Len(t, methods, 1, name)
	return x.Session().executableEntity(methods[0].Ref(), nil).URI()
}

func withPrefix(items []string, prefix string) []string {
	var out []string
	for _, it := range items {
		if strings.HasPrefix(it, prefix) {
			out = append(out, it)
		}
	}
	return out
}

func TestExtractor_TypesAndPackages(t *testing.T) {
	_, rec, _ := extractSources(t, DefaultOptions(), map[string]string{"p/Shape.java": shapeSource})

	assert.True(t, rec.IsA("p", ontology.Package))
	assert.Equal(t, []string{"p"}, rec.Objects("p", ontology.HasName))
	assert.True(t, rec.Links("p", ontology.IsPackageOf, "p.Shape"))
	assert.True(t, rec.Links("p.Shape", ontology.HasPackage, "p"))

	assert.True(t, rec.IsA("p.Shape", ontology.Class))
	assert.Equal(t, []string{"Shape"}, rec.Objects("p.Shape", ontology.HasSimpleName))
	assert.Equal(t, []string{"p.Shape"}, rec.Objects("p.Shape", ontology.HasCanonicalName))
	assert.True(t, rec.Links("p.Shape", ontology.Extends, "java.lang.Object"))
	assert.True(t, rec.Has("p.Shape", ontology.HasModifier, facts.Resource(ontology.Public)))
	assert.NotEmpty(t, rec.Objects("p.Shape", ontology.HasSourceCode))
}

func TestExtractor_Fields(t *testing.T) {
	_, rec, _ := extractSources(t, DefaultOptions(), map[string]string{"p/Shape.java": shapeSource})

	t.Run("array of arrays", func(t *testing.T) {
		assert.True(t, rec.IsA("p.Shape-grid", ontology.Field))
		assert.True(t, rec.Links("p.Shape-grid", ontology.IsDeclaredBy, "p.Shape"))
		assert.True(t, rec.Has("p.Shape-grid", ontology.HasModifier, facts.Resource(ontology.Private)))
		assert.True(t, rec.Links("p.Shape-grid", ontology.HasType, "Int[][]"))

		assert.True(t, rec.IsA("Int[][]", ontology.ArrayType))
		assert.Equal(t, []string{"int[][]"}, rec.Objects("Int[][]", ontology.HasName))
		assert.True(t, rec.Links("Int[][]", ontology.IsArrayOf, "Int[]"))
		assert.True(t, rec.Has("Int[][]", ontology.HasDimensions, facts.Int(2)))
		assert.True(t, rec.Has("Int[]", ontology.HasDimensions, facts.Int(1)))
		assert.True(t, rec.Links("Int[]", ontology.IsArrayOf, "Int"))
		assert.True(t, rec.IsA("Int", ontology.PrimitiveType))
		assert.Equal(t, []string{"int"}, rec.Objects("Int", ontology.HasName))
	})

	t.Run("parameterized", func(t *testing.T) {
		list := "java.util.List[java.lang.String]"
		assert.True(t, rec.Links("p.Shape-names", ontology.HasType, list))
		assert.True(t, rec.IsA(list, ontology.ParameterizedType))
		assert.True(t, rec.Links(list, ontology.HasGenericType, "java.util.List"))
		assert.True(t, rec.Links(list, ontology.HasActualTypeArg, list+"-0"))
		assert.True(t, rec.IsA(list+"-0", ontology.TypeArgument))
		assert.True(t, rec.Links(list+"-0", ontology.HasType, "java.lang.String"))
		assert.True(t, rec.Has(list+"-0", ontology.HasPosition, facts.Int(0)))
		assert.Equal(t, 1, rec.Count(list, ontology.Type, facts.Resource(ontology.ParameterizedType)),
			"parameterized types are expanded once per register window")
	})

	t.Run("diamond", func(t *testing.T) {
		creations := rec.Subjects(ontology.InstanceCreation)
		var typed []string
		for _, c := range creations {
			typed = append(typed, rec.Objects(c, ontology.HasType)...)
		}
		assert.Contains(t, typed, "java.util.ArrayList-diamond")
		assert.True(t, rec.Links("java.util.ArrayList-diamond", ontology.HasGenericType, "java.util.ArrayList"))
		assert.Empty(t, rec.Objects("java.util.ArrayList-diamond", ontology.HasActualTypeArg))
	})

	t.Run("type variable", func(t *testing.T) {
		assert.True(t, rec.Links("p.Shape-best", ontology.HasType, "T:p.Shape"))
		assert.True(t, rec.Links("p.Shape", ontology.HasFormalTypeArg, "T:p.Shape"))
		assert.True(t, rec.IsA("T:p.Shape", ontology.TypeVariable))
		assert.True(t, rec.Links("T:p.Shape", ontology.Extends, "java.lang.Comparable[T:p.Shape]"))
		assert.True(t, rec.Has("T:p.Shape", ontology.HasPosition, facts.Int(0)))
	})

	t.Run("wildcards", func(t *testing.T) {
		bounded := "java.util.List[?_extends_T:p.Shape]"
		assert.True(t, rec.Links("p.Shape-items", ontology.HasType, bounded))
		assert.True(t, rec.Links(bounded+"-0", ontology.HasType, "?_extends_T:p.Shape"))
		assert.True(t, rec.IsA("?_extends_T:p.Shape", ontology.Wildcard))
		assert.True(t, rec.Links("?_extends_T:p.Shape", ontology.Extends, "T:p.Shape"))

		assert.True(t, rec.Links("p.Shape-any", ontology.HasType, "java.util.List[?]"))
		assert.True(t, rec.Links("java.util.List[?]-0", ontology.HasType, "?"))
		assert.True(t, rec.IsA("?", ontology.Wildcard))
		assert.Empty(t, rec.Objects("?", ontology.Extends))

		// Only a bound carries an owner; the wildcard itself never does.
		wildcards := rec.Subjects(ontology.Wildcard)
		assert.Subset(t, wildcards, []string{"?", "?_extends_T:p.Shape"})
		for _, w := range wildcards {
			assert.False(t, strings.HasPrefix(w, "?:"), w)
			assert.False(t, strings.HasSuffix(w, ":p.Shape:p.Shape"), w)
		}
	})
}

func TestExtractor_Executables(t *testing.T) {
	x, rec, prog := extractSources(t, DefaultOptions(), map[string]string{"p/Shape.java": shapeSource})

	t.Run("constructor", func(t *testing.T) {
		assert.True(t, rec.IsA("p.Shape(int)", ontology.Constructor))
		assert.True(t, rec.Links("p.Shape", ontology.HasConstructor, "p.Shape(int)"))
		assert.True(t, rec.Links("p.Shape(int)", ontology.HasParameter, "p.Shape(int)-parameter-0"))
		assert.Equal(t, []string{"size"}, rec.Objects("p.Shape(int)-parameter-0", ontology.HasName))
		assert.True(t, rec.Links("p.Shape(int)-parameter-0", ontology.HasType, "Int"))
		assert.True(t, rec.Links("p.Shape(int)", ontology.References, "p.Shape-grid"))
	})

	t.Run("generic method", func(t *testing.T) {
		convert := methodURI(t, x, prog, "p.Shape", "convert")
		assert.True(t, strings.HasPrefix(convert, "p.Shape-p.Shape-convert("), convert)
		assert.True(t, rec.IsA(convert, ontology.Method))
		assert.True(t, rec.Links("p.Shape", ontology.HasMethod, convert))
		assert.True(t, rec.Links(convert, ontology.IsDeclaredBy, "p.Shape"))
		assert.True(t, rec.Links(convert, ontology.HasFormalTypeArg, "R:"+convert))
		assert.True(t, rec.Links(convert, ontology.HasReturnType, "R:"+convert))
		assert.True(t, rec.Links(convert+"-parameter-0", ontology.HasType, "T:p.Shape"),
			"class type variables resolve to the class from a method")
		assert.True(t, rec.Has(convert, ontology.IsVarArgs, facts.Bool(false)))
	})

	t.Run("local variables", func(t *testing.T) {
		convert := methodURI(t, x, prog, "p.Shape", "convert")
		count := convert + "-count"
		assert.True(t, rec.IsA(count, ontology.LocalVariable))
		assert.True(t, rec.Links(count, ontology.HasType, "Int"))
		assert.True(t, rec.Links(count, ontology.IsDeclaredBy, convert))
		assert.Equal(t, []string{"int count = names.size()"}, rec.Objects(count, ontology.HasSourceCode))
	})

	t.Run("returns", func(t *testing.T) {
		getNames := methodURI(t, x, prog, "p.Shape", "getNames")
		assert.Equal(t, "p.Shape-p.Shape-getNames()", getNames)
		assert.True(t, rec.Links(getNames, ontology.Returns, "p.Shape-names"))
		assert.True(t, rec.Links(getNames, ontology.HasReturnType, "java.util.List[java.lang.String]"))
	})

	t.Run("anonymous classes and lambdas", func(t *testing.T) {
		schedule := methodURI(t, x, prog, "p.Shape", "schedule")
		anon := schedule + "-anonymous-class-1"
		assert.True(t, rec.IsA(anon, ontology.AnonymousClass))
		assert.True(t, rec.Links(schedule, ontology.Constructs, anon))
		assert.True(t, rec.Links(anon, ontology.Implements, "java.lang.Runnable"))

		lambdas := withPrefix(rec.Subjects(ontology.LambdaExpression), schedule+"-lambda-")
		require.Len(t, lambdas, 1)
		implemented := rec.Objects(lambdas[0], ontology.Implements)
		require.Len(t, implemented, 1)
		assert.True(t, strings.HasPrefix(implemented[0], "java.util.function.Function["), implemented[0])
		assert.True(t, rec.Links(schedule, ontology.References, lambdas[0]))
	})
}

func TestExtractor_StatementsAndExpressions(t *testing.T) {
	x, rec, prog := extractSources(t, DefaultOptions(), map[string]string{"p/Shape.java": shapeSource})
	convert := methodURI(t, x, prog, "p.Shape", "convert")

	bodies := rec.Objects(convert, ontology.HasBody)
	require.Len(t, bodies, 1)
	body := bodies[0]
	assert.True(t, strings.HasPrefix(body, "p.Shape-statement-"), body)
	assert.True(t, rec.IsA(body, ontology.BlockStatement))

	stmts := rec.Objects(body, ontology.HasSubStatement)
	require.Len(t, stmts, 3)

	ifs := rec.Subjects(ontology.IfThenElse)
	require.Len(t, ifs, 1)
	assert.Len(t, rec.Objects(ifs[0], ontology.HasCondition), 1)
	assert.Len(t, rec.Objects(ifs[0], ontology.HasThenBranch), 1)
	assert.Empty(t, rec.Objects(ifs[0], ontology.HasElseBranch))

	var chained int
	for _, st := range stmts {
		chained += len(rec.Objects(st, ontology.HasNextStatement))
	}
	assert.Equal(t, 2, chained, "sibling statements are chained")

	invocations := rec.Subjects(ontology.MethodInvocation)
	var sizeCalls int
	for _, inv := range invocations {
		for _, m := range rec.Objects(inv, ontology.Invokes) {
			if strings.HasSuffix(m, "-size()") {
				sizeCalls++
			}
		}
	}
	assert.Equal(t, 1, sizeCalls)
}

func TestExtractor_Options(t *testing.T) {
	opts := Options{}
	_, rec, _ := extractSources(t, opts, map[string]string{"p/Shape.java": shapeSource})

	assert.True(t, rec.IsA("p.Shape", ontology.Class))
	assert.True(t, rec.Links("p.Shape-names", ontology.HasType, "java.util.List"), "generics off uses raw types")
	assert.True(t, rec.Links("p.Shape-best", ontology.HasType, "T"))
	assert.Empty(t, rec.Subjects(ontology.TypeVariable))
	assert.Empty(t, rec.Subjects(ontology.ParameterizedType))
	assert.Empty(t, rec.Subjects(ontology.BlockStatement))
	assert.Empty(t, rec.Subjects(ontology.IfThenElse))
	assert.Empty(t, rec.Objects("p", ontology.HasProject))
}

func TestExtractor_Determinism(t *testing.T) {
	files := map[string]string{"p/Shape.java": shapeSource}
	_, first, _ := extractSources(t, DefaultOptions(), files)
	_, second, _ := extractSources(t, DefaultOptions(), files)

	assert.Equal(t, first.Distinct(), second.Distinct())
	assert.Equal(t, first.Len(), second.Len())
}

func TestExtractor_OwnershipAndFollow(t *testing.T) {
	files := map[string]string{
		"p/Base.java":  "package p;\npublic class Base {\n    public String name() { return \"base\"; }\n}\n",
		"p/Child.java": "package p;\npublic class Child extends Base {\n    public String describe() { return name(); }\n}\n",
	}

	t.Run("source types are owned by their package", func(t *testing.T) {
		_, rec, _ := extractSources(t, DefaultOptions(), files)
		assert.True(t, rec.Links("p.Child", ontology.Extends, "p.Base"))
		assert.Equal(t, 1, rec.Count("p.Base", ontology.Type, facts.Resource(ontology.Class)))
		assert.Equal(t, 1, rec.Count("p.Child", ontology.Type, facts.Resource(ontology.Class)))
		assert.True(t, rec.Links("p.Child-p.Child-describe()", ontology.References, "p.Base-p.Base-name()"))
	})

	t.Run("compiled types are expanded once without members", func(t *testing.T) {
		x, rec, _ := extractSources(t, DefaultOptions(), files)
		assert.Equal(t, 1, rec.Count("java.lang.Object", ontology.Type, facts.Resource(ontology.Class)))
		assert.Empty(t, rec.Objects("java.lang.Object", ontology.HasMethod))
		assert.Positive(t, x.Session().Stats().FollowsSkipped)
		assert.Positive(t, x.Session().Stats().FollowsExpanded)
	})

	t.Run("exploring archives expands compiled members", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ExploreArchives = true
		_, rec, _ := extractSources(t, opts, files)
		assert.NotEmpty(t, rec.Objects("java.lang.String", ontology.HasMethod))
	})
}

type fakeArchive struct {
	path    string
	classes []*model.ClassInfo
}

func (a *fakeArchive) Path() string                { return a.path }
func (a *fakeArchive) Classes() []*model.ClassInfo { return a.classes }

func TestExtractor_ProjectAndArchive(t *testing.T) {
	root := jtest.WriteTree(t, map[string]string{
		"pom.xml":                  "<project/>",
		"src/main/java/p/Foo.java": "package p;\npublic class Foo {}\n",
	})
	p, err := project.Discover(root, jtest.QuietLogger())
	require.NoError(t, err)

	x, rec := newTestExtractor(t, DefaultOptions())
	x.AttachProject(p)
	require.NoError(t, x.ExtractProject())

	projectURI := filepath.Base(root) + "-" +
		strconv.Itoa(int(javaArrayHash(nil))) + "-" +
		strconv.Itoa(int(javaStringHash("<project/>")))
	assert.True(t, rec.IsA(projectURI, ontology.MavenProject))
	assert.Equal(t, []string{"<project/>"}, rec.Objects(projectURI, ontology.HasBuildFile))

	prog := jtest.LoadJava(t, map[string]string{filepath.Join(root, "src/main/java/p/Foo.java"): "package p;\npublic class Foo {}\n"})
	require.NoError(t, x.ExtractProgram(context.Background(), prog))
	assert.True(t, rec.Links("p", ontology.HasProject, projectURI))

	archive := &fakeArchive{
		path: filepath.Join(root, "lib", "dep.jar"),
		classes: []*model.ClassInfo{{
			Name:   "q.Dep",
			Access: model.AccPublic,
			Super:  model.Named("java.lang.Object"),
			Methods: []*model.MethodInfo{
				{Name: "run", Access: model.AccPublic, Return: model.Primitive("void")},
				{Name: "<init>", Access: model.AccPublic, Return: model.Primitive("void")},
			},
		}, {
			Name:           "q.Dep$1Cache",
			Super:          model.Named("java.lang.Object"),
			EnclosingClass: "q.Dep",
		}, {
			Name:            "q.Dep$1",
			Super:           model.Named("java.lang.Object"),
			Anonymous:       true,
			EnclosingClass:  "q.Dep",
			EnclosingMethod: &model.MethodKey{Name: "run", Descriptor: "()V"},
		}},
	}
	require.NoError(t, x.ProcessArchive(context.Background(), archive))

	jar := "dep.jar-" + strconv.Itoa(int(javaArrayHash([]string{"q"})))
	assert.Equal(t, "dep.jar-144", jar)
	assert.True(t, rec.IsA(jar, ontology.JarFile))
	assert.True(t, rec.Links(projectURI, ontology.HasDependency, jar))
	assert.True(t, rec.Links("q", ontology.HasProject, jar))
	assert.True(t, rec.IsA("q.Dep", ontology.Class))
	assert.True(t, rec.Links("q.Dep", ontology.HasMethod, "q.Dep-q.Dep-run()"))
	assert.True(t, rec.Links("q.Dep", ontology.HasConstructor, "q.Dep()"))
	assert.Equal(t, []string{"q.Dep"}, rec.Objects("q", ontology.IsPackageOf))
	assert.False(t, rec.IsA("q.Dep$1Cache", ontology.Class))

	summary := NewRunSummary("demo")
	x.Summary(summary)
	assert.Equal(t, 1, summary.PackagesProcessed)
	assert.Equal(t, 1, summary.ArchivesProcessed)
	assert.Zero(t, summary.PackagesFailed)
}

func TestArchiveClass(t *testing.T) {
	tests := []struct {
		name string
		ci   *model.ClassInfo
		want bool
	}{
		{"top level", &model.ClassInfo{Name: "q.Dep"}, true},
		{"member", &model.ClassInfo{Name: "q.Dep$Inner", DeclaringClass: "q.Dep"}, true},
		{"anonymous", &model.ClassInfo{Name: "q.Dep$1", Anonymous: true, EnclosingClass: "q.Dep"}, false},
		{"local in method", &model.ClassInfo{
			Name:            "q.Dep$1Local",
			EnclosingClass:  "q.Dep",
			EnclosingMethod: &model.MethodKey{Name: "run", Descriptor: "()V"},
		}, false},
		{"local in initializer", &model.ClassInfo{Name: "q.Dep$1Cache", EnclosingClass: "q.Dep"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, archiveClass(tt.ci))
		})
	}
}

func TestExtractor_PackagePanicIsRecovered(t *testing.T) {
	x, _ := newTestExtractor(t, DefaultOptions())
	bad := &model.Package{Name: "bad", Types: []*model.TypeDecl{{
		Kind:          model.DeclClass,
		Name:          "Bad",
		QualifiedName: "bad.Bad",
		Package:       "bad",
		Methods:       []*model.MethodDecl{nil},
	}}}

	var reported []string
	x.onPackage = func(name string, err error) {
		if err != nil {
			reported = append(reported, name)
		}
	}
	err := x.ExtractProgram(context.Background(), &model.Program{Packages: []*model.Package{bad}})
	require.NoError(t, err, "a failed package does not stop the run")
	assert.Equal(t, []string{"bad"}, reported)

	err = x.ExtractPackage(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	summary := NewRunSummary("demo")
	x.Summary(summary)
	assert.Equal(t, 2, summary.PackagesFailed)
	assert.Equal(t, []string{"bad", "bad"}, summary.FailedPackages)
}

func TestExtractor_StopsOnSinkError(t *testing.T) {
	prog := jtest.LoadJava(t, map[string]string{"p/Shape.java": shapeSource})
	x, rec := newTestExtractor(t, DefaultOptions())
	boom := errors.New("disk full")
	rec.Fail(boom)

	err := x.ExtractProgram(context.Background(), prog)
	assert.ErrorIs(t, err, boom)
}

func TestExtractor_Cancelled(t *testing.T) {
	prog := jtest.LoadJava(t, map[string]string{"p/Shape.java": shapeSource})
	x, rec := newTestExtractor(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := x.ExtractProgram(ctx, prog)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rec.Len())

	err = x.ProcessArchive(ctx, &fakeArchive{path: "dep.jar"})
	assert.ErrorIs(t, err, context.Canceled)
}
