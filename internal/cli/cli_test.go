package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeServer struct {
	mu       sync.Mutex
	auth     []string
	optimize []string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"password":"locked"`) {
			reply(w, http.StatusUnauthorized, `{"message":"Hesap kilitli"}`)
			return
		}
		if !strings.Contains(string(body), `"password":"secret"`) {
			reply(w, http.StatusBadRequest, `{"message":"Şifre hatalı"}`)
			return
		}
		reply(w, http.StatusOK, `{"accessToken":"t1","refreshToken":"r1","nickname":"Ana","avatarUrl":"/uploads/a.png"}`)
	})
	mux.HandleFunc("/api/v1/prompt/act", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "again") {
			reply(w, http.StatusOK, `{"id":2,"message":"Bu görevler aynı görünüyor","type":"DUBLICATE_TASK","tasks":[{"id":7,"description":"Call bank"},{"id":8,"description":"Call the bank"}]}`)
			return
		}
		reply(w, http.StatusOK, `{"id":1,"message":"Görev oluşturuldu","type":"TASK_CREATED","tasks":[{"id":7,"description":"Call bank","startDate":"2026-10-17"}]}`)
	})
	mux.HandleFunc("/api/v1/tasks/optimize", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.optimize = append(f.optimize, string(body))
		f.mu.Unlock()
		reply(w, http.StatusOK, `{"message":"Birleştirildi","newTask":{"id":9,"description":"Call the bank"},"deletedIds":[7,8]}`)
	})
	mux.HandleFunc("/api/v1/summary/daily", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"date":"2026-10-16","tasksDone":3,"todaysFocus":"Taxes","aiRecommendations":["rest"]}`)
	})
	mux.HandleFunc("/api/v1/prompt/history", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `[{"id":"h1","original":"a","improved":"A better"}]`)
	})
	mux.HandleFunc("/api/v1/tasks/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reply(w, http.StatusUnauthorized, `{"message":"expired"}`)
	})
	return mux
}

func setupEnv(t *testing.T) (string, *fakeServer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("THRONEMIND_DATA_DIR", dir)
	t.Setenv("THRONEMIND_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("THRONEMIND_PASSWORD", "")
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return srv.URL, f
}

func runCLI(t *testing.T, origin, stdin string, args ...string) (string, error) {
	t.Helper()
	app := &App{}
	defer app.Close()

	cmd := NewRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--origin", origin))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func login(t *testing.T, origin string) {
	t.Helper()
	if _, err := runCLI(t, origin, "secret\n", "login", "a@b.com"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginPersistsSessionAcrossRuns(t *testing.T) {
	origin, _ := setupEnv(t)

	out, err := runCLI(t, origin, "secret\n", "login", "a@b.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Signed in as Ana <a@b.com>") {
		t.Fatalf("unexpected login output: %q", out)
	}
	if !strings.Contains(out, "Avatar: "+origin+"/uploads/a.png") {
		t.Fatalf("expected resolved avatar URL, got %q", out)
	}

	out, err = runCLI(t, origin, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out, "Ana <a@b.com>") {
		t.Fatalf("whoami did not see the stored session: %q", out)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	origin, _ := setupEnv(t)

	_, err := runCLI(t, origin, "", "login", "a@b.com", "--password", "wrong")
	if err == nil || err.Error() != "Şifre hatalı" {
		t.Fatalf("expected server message, got %v", err)
	}
	if _, err := runCLI(t, origin, "", "whoami"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected not signed in, got %v", err)
	}
}

func TestRejectedLoginKeepsExistingSession(t *testing.T) {
	origin, _ := setupEnv(t)
	login(t, origin)

	_, err := runCLI(t, origin, "", "login", "b@c.com", "--password", "locked")
	if err == nil || err.Error() != "Hesap kilitli" {
		t.Fatalf("expected server message, got %v", err)
	}
	if errors.Is(err, errSessionEnded) {
		t.Fatalf("a rejected login must not report an ended session")
	}
	out, err := runCLI(t, origin, "", "whoami")
	if err != nil || !strings.Contains(out, "Ana <a@b.com>") {
		t.Fatalf("existing session lost: %q, %v", out, err)
	}
}

func TestCommandsRequireSession(t *testing.T) {
	origin, _ := setupEnv(t)

	for _, args := range [][]string{
		{"act", "hello"},
		{"improve", "hello"},
		{"summary"},
		{"optimize"},
		{"task-status", "7", "DONE"},
	} {
		if _, err := runCLI(t, origin, "", args...); !errors.Is(err, errNotSignedIn) {
			t.Fatalf("%v: expected errNotSignedIn, got %v", args, err)
		}
	}
}

func TestActThenOptimize(t *testing.T) {
	origin, srv := setupEnv(t)
	login(t, origin)

	out, err := runCLI(t, origin, "", "act", "call", "the", "bank")
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if !strings.Contains(out, "Görev oluşturuldu") || !strings.Contains(out, "#7 Call bank") {
		t.Fatalf("unexpected act output: %q", out)
	}

	out, err = runCLI(t, origin, "", "act", "--conversation", "1", "call", "bank", "again")
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if !strings.Contains(out, "thronemind optimize") {
		t.Fatalf("expected merge hint for duplicate tasks, got %q", out)
	}

	out, err = runCLI(t, origin, "", "optimize")
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !strings.Contains(out, "Birleştirildi") || !strings.Contains(out, "#9 Call the bank") {
		t.Fatalf("unexpected optimize output: %q", out)
	}

	// The report is resolved and stored that way; it cannot be merged twice.
	if _, err := runCLI(t, origin, "", "optimize"); err == nil {
		t.Fatalf("expected second optimize to be refused")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.optimize) != 1 || !strings.Contains(srv.optimize[0], `"taskIds":[7,8]`) {
		t.Fatalf("unexpected optimize requests: %v", srv.optimize)
	}
	for _, h := range srv.auth {
		if h != "Bearer t1" {
			t.Fatalf("act sent Authorization %q", h)
		}
	}
}

func TestSummaryWithPrompts(t *testing.T) {
	origin, _ := setupEnv(t)
	login(t, origin)

	out, err := runCLI(t, origin, "", "summary", "--with-prompts")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"2026-10-16", "Today: Taxes", "💡 rest", "Prompt history: 1 entries", "A better"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestUnauthorizedEndsSession(t *testing.T) {
	origin, _ := setupEnv(t)
	login(t, origin)

	if _, err := runCLI(t, origin, "", "task-status", "7", "done"); !errors.Is(err, errSessionEnded) {
		t.Fatalf("expected errSessionEnded, got %v", err)
	}
	if _, err := runCLI(t, origin, "", "whoami"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected session to be cleared, got %v", err)
	}
}

func TestTaskStatusValidatesInput(t *testing.T) {
	origin, _ := setupEnv(t)
	login(t, origin)

	if _, err := runCLI(t, origin, "", "task-status", "x", "DONE"); err == nil {
		t.Fatalf("expected invalid id error")
	}
	if _, err := runCLI(t, origin, "", "task-status", "7", "LATER"); err == nil {
		t.Fatalf("expected invalid status error")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	origin, _ := setupEnv(t)
	login(t, origin)

	for i := 0; i < 2; i++ {
		out, err := runCLI(t, origin, "", "logout")
		if err != nil {
			t.Fatalf("logout: %v", err)
		}
		if !strings.Contains(out, "Signed out.") {
			t.Fatalf("unexpected logout output: %q", out)
		}
	}
	if _, err := runCLI(t, origin, "", "whoami"); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected not signed in, got %v", err)
	}
}
