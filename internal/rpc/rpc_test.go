package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/clawback/internal/auth"
	"github.com/mmynk/clawback/internal/middleware"
	"github.com/mmynk/clawback/internal/money"
	"github.com/mmynk/clawback/internal/service"
	"github.com/mmynk/clawback/internal/storage/sqlite"
)

const testSecret = "test-secret"

func setupTestServer(t *testing.T, opts Options) (*httptest.Server, *auth.JWTManager) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	svc := service.NewChatService(store)
	path, handler := NewChatServiceHandler(NewServer(svc, opts),
		connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.RequireAuth(jwtManager)))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, jwtManager
}

func newTestClient(t *testing.T, srv *httptest.Server, jwtManager *auth.JWTManager, chats ...string) *Client {
	t.Helper()
	token, err := jwtManager.Generate("test-bridge", chats...)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return NewClient(srv.Client(), srv.URL, WithBearerToken(token))
}

func codeOf(t *testing.T, err error) connect.Code {
	t.Helper()
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	return connectErr.Code()
}

func TestChatFlow(t *testing.T) {
	srv, jwtManager := setupTestServer(t, Options{})
	client := newTestClient(t, srv, jwtManager)
	ctx := context.Background()

	send := func(text string, want service.EventKind) *HandleMessageResponse {
		t.Helper()
		resp, err := client.HandleMessage(ctx, "chat-1", text)
		if err != nil {
			t.Fatalf("HandleMessage(%q) failed: %v", text, err)
		}
		if resp.Event.Kind != want {
			t.Fatalf("HandleMessage(%q) kind = %s, want %s (reply %q)", text, resp.Event.Kind, want, resp.Reply)
		}
		return resp
	}

	resp := send("kai trip Lisbon base EUR", service.EventProposed)
	if !strings.HasPrefix(resp.Reply, "Create trip Lisbon (EUR)?") {
		t.Errorf("Reply = %q", resp.Reply)
	}
	send("yes", service.EventCommitted)

	send("kai add dinner €120 paid by Dan between Dan, Sara, Avi", service.EventProposed)
	resp = send("yes", service.EventCommitted)
	if !strings.Contains(resp.Reply, "Sara owes Dan €40.00") {
		t.Errorf("Reply = %q", resp.Reply)
	}
	if got := resp.Event.Report.Suggestions; len(got) != 2 || got[0].Amount.String() != "€40.00" {
		t.Errorf("decoded suggestions = %+v", got)
	}

	balances, err := client.Balances(ctx, "Lisbon", "")
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if balances.Report.Balances == nil || balances.Report.Balances.Currency != money.EUR {
		t.Errorf("Balances report = %+v", balances.Report)
	}
	if !strings.Contains(balances.Reply, "Dan: +€80.00") {
		t.Errorf("Balances reply = %q", balances.Reply)
	}

	summary, err := client.Summary(ctx, "lisbon")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Summary.Expenses != 1 || !strings.Contains(summary.Reply, "Total spent: €120.00") {
		t.Errorf("Summary = %+v, reply %q", summary.Summary, summary.Reply)
	}

	who, err := client.Who(ctx, "Lisbon")
	if err != nil {
		t.Fatalf("Who failed: %v", err)
	}
	if strings.Join(who, ",") != "Dan,Sara,Avi" {
		t.Errorf("Who = %v", who)
	}

	trips, err := client.Trips(ctx)
	if err != nil {
		t.Fatalf("Trips failed: %v", err)
	}
	if len(trips) != 1 || trips[0] != "Lisbon" {
		t.Errorf("Trips = %v", trips)
	}
}

func TestAuth(t *testing.T) {
	srv, jwtManager := setupTestServer(t, Options{})
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		client := NewClient(srv.Client(), srv.URL)
		_, err := client.HandleMessage(ctx, "chat-1", "kai help")
		if code := codeOf(t, err); code != connect.CodeUnauthenticated {
			t.Errorf("code = %v, want Unauthenticated", code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewJWTManager("other-secret", time.Hour)
		client := newTestClient(t, srv, other)
		_, err := client.Trips(ctx)
		if code := codeOf(t, err); code != connect.CodeUnauthenticated {
			t.Errorf("code = %v, want Unauthenticated", code)
		}
	})

	t.Run("chat not allowed", func(t *testing.T) {
		client := newTestClient(t, srv, jwtManager, "chat-1")
		if _, err := client.HandleMessage(ctx, "chat-1", "kai help"); err != nil {
			t.Fatalf("allowed chat failed: %v", err)
		}
		_, err := client.HandleMessage(ctx, "chat-2", "kai help")
		if code := codeOf(t, err); code != connect.CodePermissionDenied {
			t.Errorf("code = %v, want PermissionDenied", code)
		}
	})
}

func TestValidationAndErrors(t *testing.T) {
	srv, jwtManager := setupTestServer(t, Options{})
	client := newTestClient(t, srv, jwtManager)
	ctx := context.Background()

	_, err := client.HandleMessage(ctx, "  ", "kai help")
	if code := codeOf(t, err); code != connect.CodeInvalidArgument {
		t.Errorf("empty chat: code = %v, want InvalidArgument", code)
	}

	_, err = client.Balances(ctx, "Nowhere", "")
	if code := codeOf(t, err); code != connect.CodeNotFound {
		t.Errorf("unknown trip: code = %v, want NotFound", code)
	}

	_, err = client.Balances(ctx, "Nowhere", money.Currency("XYZ"))
	if code := codeOf(t, err); code != connect.CodeInvalidArgument {
		t.Errorf("bad currency: code = %v, want InvalidArgument", code)
	}

	// Domain failures inside a message are events, not RPC errors.
	resp, err := client.HandleMessage(ctx, "chat-1", "kai balances")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if resp.Event.Kind != service.EventRejected || !strings.HasPrefix(resp.Reply, "No active trip.") {
		t.Errorf("event = %+v, reply %q", resp.Event, resp.Reply)
	}
}

func TestRateLimit(t *testing.T) {
	srv, jwtManager := setupTestServer(t, Options{RatePerSecond: 0.001, Burst: 2})
	client := newTestClient(t, srv, jwtManager)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.HandleMessage(ctx, "chat-1", "kai help"); err != nil {
			t.Fatalf("message %d failed: %v", i, err)
		}
	}
	_, err := client.HandleMessage(ctx, "chat-1", "kai help")
	if code := codeOf(t, err); code != connect.CodeResourceExhausted {
		t.Errorf("code = %v, want ResourceExhausted", code)
	}

	// Other chats have their own budget.
	if _, err := client.HandleMessage(ctx, "chat-2", "kai help"); err != nil {
		t.Errorf("chat-2 throttled: %v", err)
	}
}
