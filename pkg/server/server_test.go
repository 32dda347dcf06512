package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/cveboard/pkg/nav"
	"github.com/vango-dev/cveboard/pkg/router"
	"github.com/vango-dev/cveboard/pkg/view"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustTemplate(t *testing.T, name, src string) view.Component {
	t.Helper()
	tmpl, err := view.NewTemplate(name, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return tmpl
}

func newTestController(t *testing.T, base string, analysisErr error) *nav.Controller {
	t.Helper()
	home := mustTemplate(t, "home.html", `<p>home</p>`)
	lazy := func(name, src string) view.Resolver {
		return view.NewLazy(func(ctx context.Context) (view.Component, error) {
			return view.NewTemplate(name, []byte(src))
		})
	}
	analysis := view.NewLazy(func(ctx context.Context) (view.Component, error) {
		if analysisErr != nil {
			return nil, analysisErr
		}
		return view.NewTemplate("analysis.html", []byte(`<p>analysis</p>`))
	})
	table := router.MustTable(
		router.Route{Path: "/", Name: "Home", Component: view.Eager(home)},
		router.Route{Path: "/cve-list", Name: "CVEList", Component: lazy("cve_list.html", `<p>list {{.Query.Get "q"}}</p>`)},
		router.Route{Path: "/analysis", Name: "Analysis", Component: analysis},
		router.Route{Path: "/cve/:id", Name: "CVEDetail", Component: lazy("cve_detail.html", `<p data-id="{{.Param "id"}}">{{.Param "id"}}</p><a href="{{.Href "/cve-list"}}">list</a>`)},
	)
	c := nav.New(table, nav.WithBase(base), nav.WithLogger(quietLogger()))
	t.Cleanup(c.Close)
	return c
}

func newTestServer(t *testing.T, ctrl *nav.Controller, cfg *Config, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s := New(ctrl, cfg, opts...)
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
		ts.Close()
	})
	return s, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestPageRendering(t *testing.T) {
	_, ts := newTestServer(t, newTestController(t, "/", nil), nil)

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/", http.StatusOK, "<p>home</p>"},
		{"/cve-list?q=openssl", http.StatusOK, "<p>list openssl</p>"},
		{"/analysis", http.StatusOK, "<p>analysis</p>"},
		{"/cve/CVE-2024-3094", http.StatusOK, `data-id="CVE-2024-3094"`},
		{"/cve/42", http.StatusOK, `data-route="CVEDetail"`},
		{"/nope", http.StatusNotFound, `data-code="E100"`},
		{"/cve/1/2", http.StatusNotFound, "No route matches path"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, ts.URL+tt.path)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q:\n%s", tt.want, body)
			}
		})
	}
}

func TestLayoutLinks(t *testing.T) {
	_, ts := newTestServer(t, newTestController(t, "/app", nil), nil)

	resp, err := http.Get(ts.URL + "/app/cve/CVE-2023-44487")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	if got := doc.Find("body").AttrOr("data-route", ""); got != "CVEDetail" {
		t.Errorf("data-route = %q", got)
	}
	if got := doc.Find("body").AttrOr("data-nav", ""); got != "/app/_nav" {
		t.Errorf("data-nav = %q", got)
	}
	if got := doc.Find("main p").AttrOr("data-id", ""); got != "CVE-2023-44487" {
		t.Errorf("data-id = %q", got)
	}

	var links []string
	doc.Find("header nav a").Each(func(_ int, a *goquery.Selection) {
		links = append(links, a.AttrOr("href", ""))
	})
	want := []string{"/app/", "/app/cve-list", "/app/analysis"}
	if strings.Join(links, " ") != strings.Join(want, " ") {
		t.Errorf("nav links = %v, want %v", links, want)
	}
	if title := doc.Find("title").Text(); !strings.HasPrefix(title, "CVEDetail") {
		t.Errorf("title = %q", title)
	}
}

func TestPageDoesNotMoveController(t *testing.T) {
	ctrl := newTestController(t, "/", nil)
	_, ts := newTestServer(t, ctrl, nil)

	if status, _ := get(t, ts.URL+"/cve-list"); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if _, ok := ctrl.Current(); ok {
		t.Error("page render should not navigate the controller")
	}
}

func TestBasePath(t *testing.T) {
	_, ts := newTestServer(t, newTestController(t, "/app/", nil), nil)

	status, body := get(t, ts.URL+"/app/cve/7")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, `href="/app/cve-list"`) {
		t.Errorf("links should carry the base path:\n%s", body)
	}
	if !strings.Contains(body, `<base href="/app/">`) {
		t.Errorf("missing base element:\n%s", body)
	}

	if status, _ := get(t, ts.URL+"/cve/7"); status != http.StatusNotFound {
		t.Errorf("path outside base: status = %d, want 404", status)
	}
}

func TestRouteListing(t *testing.T) {
	_, ts := newTestServer(t, newTestController(t, "/app", nil), nil)

	resp, err := http.Get(ts.URL + "/app/_routes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var entries []RouteEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	home, detail := entries[0], entries[3]
	if home.Name != "Home" || home.Lazy || home.State != "ready" || home.Href != "/app/" {
		t.Errorf("home = %+v", home)
	}
	if detail.Name != "CVEDetail" || !detail.Lazy || detail.Href != "" || len(detail.Params) != 1 || detail.Params[0] != "id" {
		t.Errorf("detail = %+v", detail)
	}
}

func TestLazyFailureBadGateway(t *testing.T) {
	_, ts := newTestServer(t, newTestController(t, "/", errors.New("bucket unavailable")), nil)

	status, body := get(t, ts.URL+"/analysis")
	if status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", status)
	}
	if !strings.Contains(body, "data-code=") {
		t.Errorf("missing error code:\n%s", body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	_, ts := newTestServer(t, newTestController(t, "/", nil), &Config{
		MetricsPath:    "/metrics",
		MetricsHandler: metrics,
	})

	if status, body := get(t, ts.URL+"/healthz"); status != http.StatusOK || body != "ok\n" {
		t.Errorf("healthz = %d %q", status, body)
	}
	if status, body := get(t, ts.URL+"/metrics"); status != http.StatusOK || body != "# metrics\n" {
		t.Errorf("metrics = %d %q", status, body)
	}
}

func TestHeadRequest(t *testing.T) {
	_, ts := newTestServer(t, newTestController(t, "/", nil), nil)

	resp, err := http.Head(ts.URL + "/cve-list")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"http://evil.com", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://example.com/_nav", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := SameOriginCheck(r); got != tt.want {
			t.Errorf("SameOriginCheck(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

type countingObserver struct {
	connected atomic.Int32
	total     atomic.Int32
}

func (o *countingObserver) StreamConnected() {
	o.connected.Add(1)
	o.total.Add(1)
}

func (o *countingObserver) StreamDisconnected() {
	o.connected.Add(-1)
}

func dialStream(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(ServerMessage) bool) ServerMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func TestStreamNavigate(t *testing.T) {
	ctrl := newTestController(t, "/", nil)
	_, ts := newTestServer(t, ctrl, nil)
	conn := dialStream(t, ts, "/_nav")

	hello := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgHello })
	if hello.Client == "" || len(hello.Routes) != 4 {
		t.Errorf("hello = %+v", hello)
	}

	if err := conn.WriteJSON(ClientMessage{Type: MsgNavigate, Ref: "1", Path: "/cve/abc"}); err != nil {
		t.Fatal(err)
	}
	ack := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgAck && m.Ref == "1" })
	if ack.Route == nil || ack.Route.Name != "CVEDetail" || ack.Route.Params["id"] != "abc" {
		t.Errorf("ack = %+v", ack.Route)
	}

	if err := conn.WriteJSON(ClientMessage{Type: MsgNavigate, Ref: "2", Name: "CVEList", Query: map[string][]string{"q": {"xz"}}}); err != nil {
		t.Fatal(err)
	}
	route := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgRoute && m.Route.Name == "CVEList" })
	if route.Route.Location != "/cve-list?q=xz" || route.Route.Component != "cve_list.html" {
		t.Errorf("route = %+v", route.Route)
	}

	cur, ok := ctrl.Current()
	if !ok || cur.Name() != "CVEList" {
		t.Errorf("controller current = %q", cur.Name())
	}
}

func TestStreamLastNavigationWins(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{}, 4)
	var loads atomic.Int32
	detail := view.NewLazy(func(ctx context.Context) (view.Component, error) {
		loads.Add(1)
		entered <- struct{}{}
		<-gate
		return view.NewTemplate("cve_detail.html", []byte(`<p>{{.Param "id"}}</p>`))
	})
	table := router.MustTable(
		router.Route{Path: "/", Name: "Home", Component: view.Eager(mustTemplate(t, "home.html", `<p>home</p>`))},
		router.Route{Path: "/cve/:id", Name: "CVEDetail", Component: detail},
	)

	started := make(chan uint64, 4)
	observe := nav.MiddlewareFunc(func(n *nav.Navigation, next func() error) error {
		started <- n.ID
		return next()
	})
	ctrl := nav.New(table, nav.WithLogger(quietLogger()), nav.WithMiddleware(observe))
	t.Cleanup(ctrl.Close)

	_, ts := newTestServer(t, ctrl, nil)
	release := sync.OnceFunc(func() { close(gate) })
	t.Cleanup(release)
	conn := dialStream(t, ts, "/_nav")
	readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgHello })

	wait := func(ch <-chan struct{}, what string) {
		t.Helper()
		select {
		case <-ch:
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	waitStarted := func() {
		t.Helper()
		select {
		case <-started:
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for navigation to start")
		}
	}

	if err := conn.WriteJSON(ClientMessage{Type: MsgNavigate, Ref: "abc", Path: "/cve/abc"}); err != nil {
		t.Fatal(err)
	}
	waitStarted()
	wait(entered, "detail load")

	if err := conn.WriteJSON(ClientMessage{Type: MsgNavigate, Ref: "xyz", Path: "/cve/xyz"}); err != nil {
		t.Fatal(err)
	}
	waitStarted()
	release()

	var abc, xyz *ServerMessage
	var routes []string
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for abc == nil || xyz == nil || len(routes) == 0 {
		var msg ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch {
		case msg.Ref == "abc":
			abc = &msg
		case msg.Ref == "xyz":
			xyz = &msg
		case msg.Type == MsgRoute:
			routes = append(routes, msg.Route.Params["id"])
		}
	}

	if abc.Type != MsgError || abc.Error == nil || abc.Error.Code != "E105" {
		t.Errorf("abc reply = %+v, want E105 error", abc)
	}
	if xyz.Type != MsgAck || xyz.Route == nil || xyz.Route.Params["id"] != "xyz" {
		t.Errorf("xyz reply = %+v, want ack for xyz", xyz)
	}
	if len(routes) != 1 || routes[0] != "xyz" {
		t.Errorf("route updates = %v, want only xyz", routes)
	}

	entries, _ := ctrl.History().(*nav.MemoryHistory).Entries()
	if len(entries) != 1 || entries[0] != "/cve/xyz" {
		t.Errorf("history = %v, want [/cve/xyz]", entries)
	}
	if cur, _ := ctrl.Current(); cur.Param("id") != "xyz" {
		t.Errorf("current id = %q, want xyz", cur.Param("id"))
	}
	if n := loads.Load(); n != 1 {
		t.Errorf("detail loaded %d times, want 1", n)
	}
}

func TestStreamErrors(t *testing.T) {
	_, ts := newTestServer(t, newTestController(t, "/", nil), nil)
	conn := dialStream(t, ts, "/_nav")
	readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgHello })

	tests := []struct {
		msg  ClientMessage
		code string
	}{
		{ClientMessage{Type: MsgNavigate, Ref: "a", Path: "/nope"}, "E100"},
		{ClientMessage{Type: MsgNavigate, Ref: "b", Path: "https://evil.example/"}, "E106"},
		{ClientMessage{Type: MsgNavigate, Ref: "c", Name: "Missing"}, "E104"},
		{ClientMessage{Type: MsgBack, Ref: "d"}, ""},
		{ClientMessage{Type: "jump", Ref: "e"}, ""},
	}

	for _, tt := range tests {
		if err := conn.WriteJSON(tt.msg); err != nil {
			t.Fatal(err)
		}
		got := readUntil(t, conn, func(m ServerMessage) bool { return m.Ref == tt.msg.Ref })
		if got.Type != MsgError || got.Error == nil {
			t.Errorf("%s: got %+v, want error", tt.msg.Ref, got)
			continue
		}
		if got.Error.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.msg.Ref, got.Error.Code, tt.code)
		}
	}
}

func TestStreamBack(t *testing.T) {
	ctrl := newTestController(t, "/", nil)
	_, ts := newTestServer(t, ctrl, nil)
	conn := dialStream(t, ts, "/_nav")
	readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgHello })

	var last uint64
	for i, path := range []string{"/", "/analysis"} {
		ref := string(rune('1' + i))
		if err := conn.WriteJSON(ClientMessage{Type: MsgNavigate, Ref: ref, Path: path}); err != nil {
			t.Fatal(err)
		}
		ack := readUntil(t, conn, func(m ServerMessage) bool { return m.Ref == ref })
		if ack.Type != MsgAck {
			t.Fatalf("navigate %s: %+v", path, ack.Error)
		}
		last = ack.Route.ID
	}

	if err := conn.WriteJSON(ClientMessage{Type: MsgBack, Ref: "back"}); err != nil {
		t.Fatal(err)
	}
	route := readUntil(t, conn, func(m ServerMessage) bool {
		return m.Type == MsgRoute && m.Route.ID > last
	})
	if route.Route.Name != "Home" {
		t.Errorf("route after back = %q, want Home", route.Route.Name)
	}
	if route.Route.Location != "/" {
		t.Errorf("location = %q, want /", route.Route.Location)
	}
}

func TestStreamObserverAndShutdown(t *testing.T) {
	obs := &countingObserver{}
	s, ts := newTestServer(t, newTestController(t, "/app", nil), nil, WithStreamObserver(obs))

	conn := dialStream(t, ts, "/app/_nav")
	readUntil(t, conn, func(m ServerMessage) bool { return m.Type == MsgHello })
	if got := obs.connected.Load(); got != 1 {
		t.Errorf("connected = %d, want 1", got)
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := obs.connected.Load(); got != 0 {
		t.Errorf("connected after shutdown = %d, want 0", got)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
