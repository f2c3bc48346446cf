package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/emx/internal/shared"
	tu "github.com/desertthunder/emx/internal/testing"
)

// slackStub serves emoji.list, image downloads and emoji.add for any team.
type slackStub struct {
	mu      sync.Mutex
	uploads []string
	teams   []string
}

func (s *slackStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/emoji.list", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer xoxp-source" {
			_, _ = io.WriteString(w, `{"ok":false,"error":"invalid_auth"}`)
			return
		}
		fmt.Fprintf(w, `{"ok":true,"emoji":{"smile":"http://%s/files/e1.png","party":"alias:smile"}}`, r.Host)
	})
	mux.HandleFunc("GET /files/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("\x89PNG smile"))
	})
	mux.HandleFunc("POST /{team}/api/emoji.add", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.uploads = append(s.uploads, r.FormValue("name"))
		s.teams = append(s.teams, r.PathValue("team"))
		s.mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	return mux
}

type harness struct {
	stub    *slackStub
	srv     *httptest.Server
	dir     string
	config  string
	out     *bytes.Buffer
	sleeper *tu.Sleeper
}

// newHarness writes a config pointing every endpoint and path at a stub server and a temp dir.
func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{stub: &slackStub{}, dir: t.TempDir(), out: &bytes.Buffer{}, sleeper: &tu.Sleeper{}}
	h.srv = httptest.NewServer(h.stub.handler())
	t.Cleanup(h.srv.Close)

	h.config = filepath.Join(h.dir, "config.toml")
	conf := fmt.Sprintf(`
[source]
token = "xoxp-source"

[destination]
team_id = "acme"
cookie = "d=xoxd-1"
token = "xoxc-1"

[paths]
output_dir = %q
list_file = %q

[api]
directory_url = "%s/api/emoji.list"
upload_url = "%s/%%s/api/emoji.add"

[database]
path = %q
`, filepath.Join(h.dir, "emoji"), filepath.Join(h.dir, "emoji_list.json"), h.srv.URL, h.srv.URL, filepath.Join(h.dir, "emx.db"))

	tu.WriteFiles(t, h.dir, map[string]string{"config.toml": conf})
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	r := NewRunner(RunnerOpts{
		HTTPClient: h.srv.Client(),
		Logger:     shared.NewLogger(io.Discard),
		Output:     h.out,
		Sleep:      h.sleeper.Sleep,
	})
	return newApp(r).Run(context.Background(), append([]string{"emx", "-c", h.config}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "emx.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "emx.toml" {
				t.Errorf("configPath = %q", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if runner.sleep == nil {
				t.Error("expected default sleep func")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		tt := []struct {
			name   string
			pretty bool
			want   string
		}{
			{name: "compact", pretty: false, want: "{\"name\":\"smile\"}\n"},
			{name: "pretty", pretty: true, want: "{\n  \"name\": \"smile\"\n}\n"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				output := &bytes.Buffer{}
				runner := NewRunner(RunnerOpts{Output: output})

				if err := runner.writeJSON(map[string]string{"name": "smile"}, tc.pretty); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if output.String() != tc.want {
					t.Errorf("got %q, want %q", output.String(), tc.want)
				}
			})
		}

		t.Run("unmarshalable value", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("x", false); err == nil {
				t.Error("expected write error")
			}
		})

		t.Run("newline failure", func(t *testing.T) {
			lw := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &lw})
			if err := runner.writeJSON("x", false); err == nil {
				t.Error("expected newline write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("%d %s\n", 3, "emoji"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := runner.writePlainln("done"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := "3 emoji\n\ndone\n"; output.String() != want {
			t.Errorf("got %q, want %q", output.String(), want)
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected writePlain error")
		}
		if err := failing.writePlainln("x"); err == nil {
			t.Error("expected writePlainln error")
		}
	})
}

func TestApp(t *testing.T) {
	t.Run("no command shows usage and fails", func(t *testing.T) {
		h := newHarness(t)
		err := h.run(t)
		if !errors.Is(err, shared.ErrMissingCommand) {
			t.Fatalf("err = %v, want ErrMissingCommand", err)
		}
		if !strings.Contains(h.out.String(), "emx") {
			t.Errorf("expected usage output, got %q", h.out.String())
		}
	})

	t.Run("explicit config path must exist", func(t *testing.T) {
		h := newHarness(t)
		r := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: h.out})
		err := newApp(r).Run(context.Background(), []string{"emx", "-c", filepath.Join(h.dir, "missing.toml"), "list"})
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Fatalf("err = %v, want ErrMissingConfig", err)
		}
	})

	t.Run("list writes the catalog", func(t *testing.T) {
		h := newHarness(t)
		listPath := filepath.Join(h.dir, "out", "list.json")

		if err := h.run(t, "list", "-o", listPath); err != nil {
			t.Fatalf("list error = %v", err)
		}

		got := tu.MustReadFile(t, listPath)
		if !strings.Contains(got, `"smile"`) || strings.Contains(got, "alias:") {
			t.Errorf("catalog = %s", got)
		}
		if !strings.Contains(h.out.String(), "Found 1 custom emoji") {
			t.Errorf("output = %q", h.out.String())
		}
	})

	t.Run("list with bad token is an auth error", func(t *testing.T) {
		h := newHarness(t)
		err := h.run(t, "--source-token", "xoxp-wrong", "list")
		if !errors.Is(err, shared.ErrAuth) {
			t.Fatalf("err = %v, want ErrAuth", err)
		}
	})

	t.Run("download lists first when the list is missing", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "download"); err != nil {
			t.Fatalf("download error = %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(h.dir, "emoji_list.json"))
		tu.AssertFileExists(t, filepath.Join(h.dir, "emoji", "smile.png"))
	})

	t.Run("upload dry run makes no requests", func(t *testing.T) {
		h := newHarness(t)
		tu.WriteFiles(t, filepath.Join(h.dir, "emoji"), map[string]string{
			"smile.png": "png",
			"wave.gif":  "gif",
			"notes.txt": "skip",
		})

		if err := h.run(t, "upload", "--dry-run"); err != nil {
			t.Fatalf("upload error = %v", err)
		}

		out := h.out.String()
		if !strings.Contains(out, "Would upload 2 images") || !strings.Contains(out, "wave") {
			t.Errorf("output = %q", out)
		}
		if strings.Contains(out, "notes") {
			t.Errorf("dry run listed a non-image: %q", out)
		}
		if len(h.stub.uploads) != 0 {
			t.Errorf("uploads = %v, want none", h.stub.uploads)
		}
	})

	t.Run("upload writes a report", func(t *testing.T) {
		h := newHarness(t)
		tu.WriteFiles(t, filepath.Join(h.dir, "emoji"), map[string]string{"smile.png": "png"})
		report := filepath.Join(h.dir, "report.csv")

		if err := h.run(t, "upload", "--report", report); err != nil {
			t.Fatalf("upload error = %v", err)
		}

		if len(h.stub.uploads) != 1 || h.stub.uploads[0] != "smile" {
			t.Errorf("uploads = %v", h.stub.uploads)
		}
		csv := tu.MustReadFile(t, report)
		if !strings.HasPrefix(csv, "name,file,status,attempts,error\n") || !strings.Contains(csv, "smile,") {
			t.Errorf("report = %q", csv)
		}
		if !strings.Contains(h.out.String(), "Uploaded 1, failed 0 (of 1)") {
			t.Errorf("output = %q", h.out.String())
		}
	})

	t.Run("upload without destination credentials", func(t *testing.T) {
		h := newHarness(t)
		tu.WriteFiles(t, h.dir, map[string]string{"bare.toml": ""})
		tu.WriteFiles(t, filepath.Join(h.dir, "emoji"), map[string]string{"smile.png": "png"})

		r := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: h.out})
		err := newApp(r).Run(context.Background(), []string{
			"emx", "-c", filepath.Join(h.dir, "bare.toml"), "--no-history",
			"upload", "-d", filepath.Join(h.dir, "emoji"),
		})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("err = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("credential precedence", func(t *testing.T) {
		tt := []struct {
			name string
			env  string
			args []string
			want string
		}{
			{name: "config file", want: "acme"},
			{name: "env over config", env: "envteam", want: "envteam"},
			{name: "flag over env", env: "envteam", args: []string{"--team-id", "flagteam"}, want: "flagteam"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				h := newHarness(t)
				tu.WriteFiles(t, filepath.Join(h.dir, "emoji"), map[string]string{"smile.png": "png"})
				if tc.env != "" {
					t.Setenv("EMX_TEAM_ID", tc.env)
				}

				args := append(tc.args, "upload")
				if err := h.run(t, args...); err != nil {
					t.Fatalf("upload error = %v", err)
				}
				if len(h.stub.teams) != 1 || h.stub.teams[0] != tc.want {
					t.Errorf("teams = %v, want [%s]", h.stub.teams, tc.want)
				}
			})
		}
	})

	t.Run("export end to end", func(t *testing.T) {
		h := newHarness(t)
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, h.dir)
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		if err := h.run(t, "export", "-d", "staged"); err != nil {
			t.Fatalf("export error = %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(h.dir, "emoji_list.json"))
		entries, err := os.ReadDir(filepath.Join(h.dir, "staged"))
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Name() != "smile.png" {
			t.Errorf("staged = %v, want exactly smile.png", entries)
		}
		if len(h.stub.uploads) != 1 || h.stub.uploads[0] != "smile" {
			t.Errorf("uploads = %v, want [smile]", h.stub.uploads)
		}
	})

	t.Run("history records runs", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "download"); err != nil {
			t.Fatalf("download error = %v", err)
		}

		if err := h.run(t, "history", "--json"); err != nil {
			t.Fatalf("history error = %v", err)
		}
		out := h.out.String()
		if !strings.Contains(out, `"kind": "download"`) || !strings.Contains(out, `"status": "completed"`) {
			t.Fatalf("history = %s", out)
		}

		start := strings.Index(out, `"id": "`) + len(`"id": "`)
		prefix := out[start : start+8]

		if err := h.run(t, "history", "show", prefix); err != nil {
			t.Fatalf("history show error = %v", err)
		}
		if !strings.Contains(h.out.String(), "✓ download smile") {
			t.Errorf("show = %q", h.out.String())
		}
	})

	t.Run("history show unknown run", func(t *testing.T) {
		h := newHarness(t)
		err := h.run(t, "history", "show", "nope")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("no-history skips the ledger", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(t, "--no-history", "download"); err != nil {
			t.Fatalf("download error = %v", err)
		}
		if err := h.run(t, "history"); err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(h.out.String(), "No runs recorded yet") {
			t.Errorf("history = %q", h.out.String())
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config writes template and database", func(t *testing.T) {
		h := newHarness(t)
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, h.dir)
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		target := filepath.Join(h.dir, "new.toml")
		if err := h.run(t, "setup", "config", "-o", target); err != nil {
			t.Fatalf("setup config error = %v", err)
		}

		tu.AssertFileExists(t, target)
		tu.AssertFileExists(t, filepath.Join(h.dir, "emx.db"))
		if !strings.Contains(h.out.String(), "Config written to") {
			t.Errorf("output = %q", h.out.String())
		}
	})

	t.Run("destination", func(t *testing.T) {
		curl := `curl 'https://acme.slack.com/api/emoji.add' -H 'cookie: d=xoxd-abc' --data-raw 'token=xoxc-1111-2222-3333-abcdef'`

		tt := []struct {
			name    string
			args    []string
			files   map[string]string
			wantErr error
		}{
			{name: "inline curl", args: []string{"--curl", curl}},
			{name: "curl file", args: []string{"--curl-file", "req.sh"}, files: map[string]string{"req.sh": curl}},
			{name: "neither", wantErr: shared.ErrMissingArgument},
			{name: "both", args: []string{"--curl", curl, "--curl-file", "req.sh"}, wantErr: shared.ErrInvalidArgument},
			{name: "no token", args: []string{"--curl", `curl 'https://acme.slack.com/api/x' -b 'd=xoxd-abc'`}, wantErr: shared.ErrMissingCredentials},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				h := newHarness(t)
				wd := tu.MustGetwd(t)
				tu.MustChdir(t, h.dir)
				t.Cleanup(func() { tu.MustChdir(t, wd) })
				if tc.files != nil {
					tu.WriteFiles(t, h.dir, tc.files)
				}

				err := h.run(t, append([]string{"setup", "destination"}, tc.args...)...)
				if tc.wantErr != nil {
					if !errors.Is(err, tc.wantErr) {
						t.Fatalf("err = %v, want %v", err, tc.wantErr)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				out := h.out.String()
				for _, want := range []string{`team_id = "acme"`, `cookie = "d=xoxd-abc"`, `token = "xoxc-1111-2222-3333-abcdef"`} {
					if !strings.Contains(out, want) {
						t.Errorf("output missing %s: %q", want, out)
					}
				}
			})
		}
	})
}
