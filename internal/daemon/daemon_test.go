package daemon

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/heyfriend/heyfriend/internal/api"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/config"
	"github.com/heyfriend/heyfriend/internal/rpc"
	"github.com/heyfriend/heyfriend/internal/store"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	db      *store.DB
	metrics *Metrics
	blobs   *httptest.Server
	conn    *grpc.ClientConn
}

func newHarness(t *testing.T, limiter *Limiter) *harness {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "heyfriend.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := zap.NewNop()
	metrics := NewMetrics()
	cfg := config.Default().Server
	cfg.MaxBlobBytes = 1024
	cfg.PublicURL = "http://blobs.test"

	svc := api.NewService(db, bus.New(), logger, cfg.PublicURL)
	lis := bufconn.Listen(1 << 20)
	srv := newGRPCServer(svc, logger, metrics, limiter)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := rpc.Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ts := httptest.NewServer(NewRouter(cfg, db, metrics, logger))
	t.Cleanup(ts.Close)

	return &harness{db: db, metrics: metrics, blobs: ts, conn: conn}
}

func (h *harness) client(p backend.Principal) *rpc.Client {
	return rpc.New(h.conn, p, rpc.NewHTTPBlobs(h.blobs.URL, p, h.blobs.Client()))
}

func mustRegister(t *testing.T, c *rpc.Client, phone, name string) {
	t.Helper()
	if err := c.RegisterUser(context.Background(), backend.Registration{PhoneNumber: phone, DisplayName: name}); err != nil {
		t.Fatalf("RegisterUser(%s) error = %v", name, err)
	}
}

func TestConversationRoundTrip(t *testing.T) {
	h := newHarness(t, NewLimiter(0, 0))
	ctx := context.Background()
	alice, bob := h.client("alice"), h.client("bob")
	mustRegister(t, alice, "0711", "Alice")
	mustRegister(t, bob, "0722", "Bob")

	convID, err := alice.CreateConversation(ctx, "", "", false, []backend.Principal{"bob"})
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	var progress []int
	photo := backend.BlobFromBytes([]byte("\x89PNG\r\n\x1a\nfake")).WithUploadProgress(func(pct int) {
		progress = append(progress, pct)
	})
	if _, err := alice.SendMessage(ctx, convID, "cat.png", backend.MediaImage, photo); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if photo.ID == "" || !strings.HasPrefix(photo.DirectURL(), "http://blobs.test/blobs/") {
		t.Errorf("blob not hosted: id=%q url=%q", photo.ID, photo.DirectURL())
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v, want to end at 100", progress)
	}

	n, err := bob.GetTotalUnread(ctx)
	if err != nil || n != 1 {
		t.Fatalf("GetTotalUnread() = %d, %v; want 1", n, err)
	}
	msgs, err := bob.GetMessages(ctx, convID, 100, 0)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("GetMessages() = %d msgs, %v", len(msgs), err)
	}
	if msgs[0].Media == nil || msgs[0].Media.ID != photo.ID {
		t.Errorf("message media = %+v, want id %s", msgs[0].Media, photo.ID)
	}

	if err := bob.MarkConversationAsRead(ctx, convID); err != nil {
		t.Fatal(err)
	}
	if n, _ := bob.GetTotalUnread(ctx); n != 0 {
		t.Errorf("unread after mark = %d, want 0", n)
	}

	if _, err := h.client("mallory").GetMessages(ctx, convID, 10, 0); !errors.Is(err, backend.ErrNotReady) && !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("outsider GetMessages() error = %v, want denial", err)
	}
}

func TestMissingPrincipal(t *testing.T) {
	h := newHarness(t, NewLimiter(0, 0))
	_, err := rpc.New(h.conn, "", nil).GetConversations(context.Background())
	if !errors.Is(err, backend.ErrNotReady) {
		t.Errorf("error = %v, want ErrNotReady", err)
	}
}

func TestRateLimited(t *testing.T) {
	h := newHarness(t, NewLimiter(0.001, 1))
	ctx := context.Background()

	if _, err := h.client("alice").GetCallerUserProfile(ctx); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	if _, err := h.client("alice").GetCallerUserProfile(ctx); !errors.Is(err, backend.ErrUnavailable) {
		t.Errorf("second call error = %v, want ErrUnavailable", err)
	}
	if _, err := h.client("bob").GetCallerUserProfile(ctx); err != nil {
		t.Errorf("other principal error = %v", err)
	}
}

func TestLimiterBuckets(t *testing.T) {
	l := NewLimiter(1, 2)
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 not allowed")
	}
	if l.Allow("a") {
		t.Error("third call allowed")
	}
	if !l.Allow("b") {
		t.Error("principals share a bucket")
	}

	unlimited := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow("a") {
			t.Fatalf("call %d refused with limiting disabled", i)
		}
	}
}

func TestBlobEndpoints(t *testing.T) {
	h := newHarness(t, NewLimiter(0, 0))

	put := func(principal string, body []byte) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(http.MethodPut, h.blobs.URL+"/blobs", bytes.NewReader(body))
		if principal != "" {
			req.Header.Set(rpc.PrincipalHeader, principal)
		}
		resp, err := h.blobs.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	if resp := put("", []byte("x")); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous PUT = %d, want 401", resp.StatusCode)
	}
	if resp := put("alice", make([]byte, 2048)); resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("oversize PUT = %d, want 413", resp.StatusCode)
	}
	if resp := put("alice", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty PUT = %d, want 400", resp.StatusCode)
	}

	blob := backend.BlobFromBytes([]byte("hello"))
	if err := rpc.NewHTTPBlobs(h.blobs.URL, "alice", h.blobs.Client()).Upload(context.Background(), blob); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	resp, err := h.blobs.Client().Get(h.blobs.URL + "/blobs/" + blob.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(data) != "hello" {
		t.Errorf("GET = %d %q, want 200 hello", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want sniffed text/plain", ct)
	}

	missing, err := h.blobs.Client().Get(h.blobs.URL + "/blobs/nope")
	if err != nil {
		t.Fatal(err)
	}
	_ = missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("GET missing = %d, want 404", missing.StatusCode)
	}

	tooBig := backend.BlobFromBytes(make([]byte, 4096))
	if err := rpc.NewHTTPBlobs(h.blobs.URL, "alice", h.blobs.Client()).Upload(context.Background(), tooBig); !errors.Is(err, backend.ErrInvalidArgument) {
		t.Errorf("oversize Upload() error = %v, want ErrInvalidArgument", err)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, NewLimiter(0, 0))
	mustRegister(t, h.client("alice"), "0711", "Alice")

	resp, err := h.blobs.Client().Get(h.blobs.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}

	resp, err = h.blobs.Client().Get(h.blobs.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"heyfriend_rpc_requests_total", `method="RegisterUser"`, "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestJanitorRunOnce(t *testing.T) {
	h := newHarness(t, NewLimiter(0, 0))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for id, age := range map[string]time.Duration{"old": 3 * time.Hour, "fresh": time.Minute} {
		if err := h.db.InsertBlob(&store.Blob{ID: id, Owner: "alice", ContentType: "text/plain", Data: []byte("12345"), CreatedAt: now.Add(-age)}); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Server.BlobGrace = time.Hour
	j, err := NewJanitor(Params{Config: cfg}, h.db, h.metrics, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	j.now = func() time.Time { return now }

	res, err := j.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if res.Blobs != 1 || res.Bytes != 5 {
		t.Errorf("RunOnce() = %+v, want 1 blob of 5 bytes", res)
	}
	if b, _ := h.db.GetBlob("fresh"); b == nil {
		t.Error("fresh blob pruned")
	}
	if b, _ := h.db.GetBlob("old"); b != nil {
		t.Error("old blob survived")
	}
}

func TestJanitorRejectsBadSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Server.JanitorSchedule = "every tuesday"
	if _, err := NewJanitor(Params{Config: cfg}, nil, nil, zap.NewNop()); err == nil {
		t.Error("NewJanitor() accepted an invalid schedule")
	}
}

func TestJanitorStartStop(t *testing.T) {
	j, err := NewJanitor(Params{Config: config.Default()}, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	j.Start(context.Background())

	done := make(chan struct{})
	go func() {
		j.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return")
	}
}

func TestModuleLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.Server.GRPCAddr = "127.0.0.1:0"
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	p := Params{Config: cfg, DataDir: t.TempDir()}

	var srv *Server
	var httpSrv *HTTPServer
	app := fxtest.New(t, Module(p), fx.Populate(&srv, &httpSrv), fx.NopLogger)
	app.RequireStart()

	c, err := rpc.Connect(srv.Addr(), "http://"+httpSrv.Addr(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mustRegister(t, c, "0711", "Alice")
	if admin, err := c.IsCallerAdmin(ctx); err != nil || !admin {
		t.Errorf("IsCallerAdmin() = %v, %v; want first user admin", admin, err)
	}

	app.RequireStop()
}
