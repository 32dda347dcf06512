package router

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/vango-dev/cveboard/pkg/view"
)

func stub(t *testing.T, name string) view.Resolver {
	t.Helper()
	tmpl, err := view.NewTemplate(name, []byte(name))
	if err != nil {
		t.Fatal(err)
	}
	return view.Eager(tmpl)
}

func cveTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		Route{Path: "/", Name: "Home", Component: stub(t, "home")},
		Route{Path: "/cve-list", Name: "CVEList", Component: stub(t, "list")},
		Route{Path: "/analysis", Name: "Analysis", Component: stub(t, "analysis")},
		Route{Path: "/cve/:id", Name: "CVEDetail", Component: stub(t, "detail")},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestTableMatch(t *testing.T) {
	tbl := cveTable(t)

	tests := []struct {
		path   string
		name   string
		params map[string]string
	}{
		{"/", "Home", nil},
		{"/cve-list", "CVEList", nil},
		{"/cve-list/", "CVEList", nil},
		{"/analysis?range=30d", "Analysis", nil},
		{"/cve/42", "CVEDetail", map[string]string{"id": "42"}},
		{"/cve/CVE-2021-44228", "CVEDetail", map[string]string{"id": "CVE-2021-44228"}},
		{"/cve/a%20b", "CVEDetail", map[string]string{"id": "a b"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, ok := tbl.Match(tt.path)
			if !ok {
				t.Fatalf("expected match for %s", tt.path)
			}
			if m.Route.Name != tt.name {
				t.Errorf("Name = %q, want %q", m.Route.Name, tt.name)
			}
			if !reflect.DeepEqual(m.Params, tt.params) {
				t.Errorf("Params = %v, want %v", m.Params, tt.params)
			}
		})
	}
}

func TestTableNoMatch(t *testing.T) {
	tbl := cveTable(t)

	for _, path := range []string{"/does-not-exist", "/cve", "/cve/42/extra", "/cve-list/x", "/../x", "/cve/a%2Fb", "/cve/%E2%82", "/cve/%FF"} {
		if m, ok := tbl.Match(path); ok {
			t.Errorf("Match(%q) = %q, want no match", path, m.Route.Name)
		}
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	tbl, err := NewTable(
		Route{Path: "/cve/:id", Name: "CVEDetail", Component: stub(t, "detail")},
		Route{Path: "/cve/latest", Name: "Latest", Component: stub(t, "latest")},
	)
	if err != nil {
		t.Fatal(err)
	}

	m, ok := tbl.Match("/cve/latest")
	if !ok || m.Route.Name != "CVEDetail" {
		t.Errorf("Match = %q, want CVEDetail (earlier registration)", m.Route.Name)
	}
}

func TestTableTypedParam(t *testing.T) {
	tbl, err := NewTable(
		Route{Path: "/cve/:id:int", Name: "ByNumber", Component: stub(t, "n")},
		Route{Path: "/cve/:id", Name: "ByID", Component: stub(t, "id")},
	)
	if err != nil {
		t.Fatal(err)
	}

	if m, _ := tbl.Match("/cve/42"); m.Route.Name != "ByNumber" {
		t.Errorf("/cve/42 matched %q, want ByNumber", m.Route.Name)
	}
	if m, _ := tbl.Match("/cve/abc"); m.Route.Name != "ByID" {
		t.Errorf("/cve/abc matched %q, want ByID", m.Route.Name)
	}
}

func TestTableArgs(t *testing.T) {
	type numbered struct {
		N int `param:"id"`
	}
	tbl, err := NewTable(
		Route{Path: "/cve/:id", Name: "ByNumber", Component: stub(t, "n"), Args: Decoder[numbered]()},
		Route{Path: "/cve/:id", Name: "ByID", Component: stub(t, "id")},
	)
	if err != nil {
		t.Fatal(err)
	}

	m, ok := tbl.Match("/cve/42")
	if !ok || m.Route.Name != "ByNumber" {
		t.Fatalf("/cve/42 matched %q, want ByNumber", m.Route.Name)
	}
	if got, ok := m.Args.(numbered); !ok || got.N != 42 {
		t.Errorf("Args = %#v, want numbered{N: 42}", m.Args)
	}

	m, ok = tbl.Match("/cve/abc")
	if !ok || m.Route.Name != "ByID" {
		t.Fatalf("/cve/abc matched %q, want ByID", m.Route.Name)
	}
	if m.Args != nil {
		t.Errorf("Args = %#v, want nil", m.Args)
	}
}

func TestNewTableErrors(t *testing.T) {
	c := stub(t, "c")
	tests := []struct {
		name   string
		routes []Route
		want   error
	}{
		{"duplicate name", []Route{{Path: "/", Name: "Home", Component: c}, {Path: "/home", Name: "Home", Component: c}}, ErrDuplicateName},
		{"missing name", []Route{{Path: "/", Component: c}}, ErrInvalidRoute},
		{"missing component", []Route{{Path: "/", Name: "Home"}}, ErrInvalidRoute},
		{"relative pattern", []Route{{Path: "cve", Name: "X", Component: c}}, ErrInvalidPattern},
		{"empty segment", []Route{{Path: "/cve//x", Name: "X", Component: c}}, ErrInvalidPattern},
		{"catch-all", []Route{{Path: "/files/*rest", Name: "X", Component: c}}, ErrInvalidPattern},
		{"empty param", []Route{{Path: "/cve/:", Name: "X", Component: c}}, ErrInvalidPattern},
		{"repeated param", []Route{{Path: "/:id/:id", Name: "X", Component: c}}, ErrInvalidPattern},
		{"unknown type", []Route{{Path: "/cve/:id:float", Name: "X", Component: c}}, ErrInvalidPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.routes...); !errors.Is(err, tt.want) {
				t.Errorf("NewTable error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMustTablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustTable(Route{Path: "/", Name: ""})
}

func TestTableRoutesAndLookup(t *testing.T) {
	tbl := cveTable(t)

	want := []string{"Home", "CVEList", "Analysis", "CVEDetail"}
	if got := tbl.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
	if tbl.Len() != 4 || len(tbl.Routes()) != 4 {
		t.Errorf("Len = %d, Routes = %d, want 4", tbl.Len(), len(tbl.Routes()))
	}

	r, ok := tbl.Lookup("CVEDetail")
	if !ok || r.Path != "/cve/:id" {
		t.Errorf("Lookup(CVEDetail) = %+v, %v", r, ok)
	}
	if !reflect.DeepEqual(r.Params(), []string{"id"}) {
		t.Errorf("Params = %v, want [id]", r.Params())
	}
	if _, ok := tbl.Lookup("Nope"); ok {
		t.Error("Lookup(Nope) should fail")
	}
}

func TestTableURL(t *testing.T) {
	tbl := cveTable(t)

	got, err := tbl.URL("CVEDetail", map[string]string{"id": "CVE 1"})
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if got != "/cve/CVE%201" {
		t.Errorf("URL = %q, want /cve/CVE%%201", got)
	}

	if got, _ := tbl.URL("Home", nil); got != "/" {
		t.Errorf("URL(Home) = %q, want /", got)
	}
	if _, err := tbl.URL("CVEDetail", nil); !errors.Is(err, ErrMissingParam) {
		t.Errorf("missing param error = %v", err)
	}
	if _, err := tbl.URL("Nope", nil); !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("unknown route error = %v", err)
	}
}

func TestTableLocate(t *testing.T) {
	tbl := cveTable(t)

	tests := []struct {
		target Target
		want   string
	}{
		{Path("/analysis"), "/analysis"},
		{Named("CVEDetail", map[string]string{"id": "7"}), "/cve/7"},
		{Target{Name: "CVEList", Query: url.Values{"page": {"2"}}}, "/cve-list?page=2"},
	}
	for _, tt := range tests {
		got, err := tbl.Locate(tt.target)
		if err != nil {
			t.Errorf("Locate(%v): %v", tt.target, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Locate(%v) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestTargetString(t *testing.T) {
	if s := Path("/cve/1").String(); s != "/cve/1" {
		t.Errorf("String = %q", s)
	}
	if s := Named("Home", nil).String(); s != "name:Home" {
		t.Errorf("String = %q", s)
	}
}
