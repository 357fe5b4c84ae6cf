package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	gohttp "net/http"
	"testing"
	"time"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth"
	"github.com/rhuss/paydesk/pkg/auth/token"
	"github.com/rhuss/paydesk/pkg/storage/memory"
	"github.com/rhuss/paydesk/pkg/transport"
)

// slowRecords blocks ListRecords for a fixed delay.
type slowRecords struct {
	transport.RecordService
	delay time.Duration
}

func (s slowRecords) ListRecords(ctx context.Context) ([]*api.Record, error) {
	select {
	case <-time.After(s.delay):
		return []*api.Record{{ID: 1, FirstName: "slow"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestServer(t *testing.T, svc Services, opts ...ServerOption) (*Server, string, string) {
	t.Helper()

	store := memory.New()
	user := &api.User{ID: api.NewUserID(), Name: "alice", Email: "alice@x.com", Role: api.RoleUser}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	codec, err := token.New([]byte("server-test-secret"))
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	tok, err := codec.Issue(codec.NewClaims(user.ID))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	gate := auth.NewGate(auth.NewExtractor(""), codec, auth.NewResolver(store))
	srv := NewServer(svc, gate, DefaultConfig(), opts...)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return srv, "http://" + ln.Addr().String(), tok
}

func TestServerStartsAndAcceptsRequests(t *testing.T) {
	_, base, _ := newTestServer(t, Services{})

	resp, err := gohttp.Get(base + "/api/healthchecker")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, gohttp.StatusOK)
	}
	if resp.Header.Get(transport.RequestIDHeader) == "" {
		t.Error("missing X-Request-ID header")
	}

	var got api.MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != api.StatusSuccess {
		t.Errorf("status field = %q", got.Status)
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	srv, base, tok := newTestServer(t, Services{Records: slowRecords{delay: 200 * time.Millisecond}},
		WithShutdownTimeout(5*time.Second))

	responseCh := make(chan int, 1)
	go func() {
		req, _ := gohttp.NewRequest(gohttp.MethodGet, base+"/api/records", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := gohttp.DefaultClient.Do(req)
		if err != nil {
			responseCh <- 0
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		responseCh <- resp.StatusCode
	}()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	if status := <-responseCh; status != gohttp.StatusOK {
		t.Errorf("slow request status = %d, want %d", status, gohttp.StatusOK)
	}
}

func TestServerRecoversFromPanics(t *testing.T) {
	_, base, tok := newTestServer(t, Services{Records: panickyRecords{}})

	req, _ := gohttp.NewRequest(gohttp.MethodGet, base+"/api/records", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := gohttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != gohttp.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}

	again, err := gohttp.Get(base + "/api/healthchecker")
	if err != nil {
		t.Fatalf("server stopped serving after a panic: %v", err)
	}
	again.Body.Close()
}

type panickyRecords struct {
	transport.RecordService
}

func (panickyRecords) ListRecords(context.Context) ([]*api.Record, error) {
	panic("boom")
}

func TestServerFunctionalOptions(t *testing.T) {
	srv := NewServer(Services{}, nil, DefaultConfig(),
		WithAddr(":9999"),
		WithTimeouts(5*time.Second, 7*time.Second),
		WithShutdownTimeout(10*time.Second),
	)

	if srv.config.Addr != ":9999" {
		t.Errorf("addr = %q, want %q", srv.config.Addr, ":9999")
	}
	if srv.httpServer.ReadTimeout != 5*time.Second || srv.httpServer.WriteTimeout != 7*time.Second {
		t.Errorf("timeouts = %v/%v", srv.httpServer.ReadTimeout, srv.httpServer.WriteTimeout)
	}
	if srv.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want %v", srv.config.ShutdownTimeout, 10*time.Second)
	}
}
