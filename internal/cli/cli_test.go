package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/maheshmm7/DriveGaurdAI/internal/config"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	websocketPkg "github.com/maheshmm7/DriveGaurdAI/pkg/websocket"
	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// widthEvaluator calls frames wider than 50 pixels drowsy.
type widthEvaluator struct {
	mu    sync.Mutex
	calls int
}

func (e *widthEvaluator) Evaluate(frame drowsiness.Frame) (drowsiness.Verdict, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if frame.Width() > 50 {
		return drowsiness.Verdict{Status: drowsiness.StatusDrowsy, EyeStates: []drowsiness.EyeLabel{drowsiness.EyeClose}}, nil
	}
	return drowsiness.Verdict{Status: drowsiness.StatusAlert, EyeStates: []drowsiness.EyeLabel{}}, nil
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func readResults(t *testing.T, out *bytes.Buffer) []Result {
	t.Helper()
	var results []Result
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var r Result
		if err := jsoniter.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("line %q: %v", scanner.Text(), err)
		}
		results = append(results, r)
	}
	return results
}

func TestRunDetectKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "wide.png", 80, 20),
		writePNG(t, dir, "narrow.png", 20, 20),
		writePNG(t, dir, "wide2.png", 60, 20),
		writePNG(t, dir, "narrow2.png", 10, 10),
	}

	evaluator := &widthEvaluator{}
	var out bytes.Buffer
	if err := runDetect(testContext(t), evaluator, paths, 3, &out, io.Discard); err != nil {
		t.Fatalf("runDetect: %v", err)
	}

	results := readResults(t, &out)
	want := []string{"Drowsy", "Alert", "Drowsy", "Alert"}
	if len(results) != len(want) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.File != paths[i] || r.Status != want[i] {
			t.Fatalf("result %d = %+v, want %s for %s", i, r, want[i], paths[i])
		}
	}
	if evaluator.calls != 4 {
		t.Fatalf("calls = %d", evaluator.calls)
	}
}

func TestRunDetectReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", 20, 20)
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	missing := filepath.Join(dir, "missing.png")

	var out bytes.Buffer
	err := runDetect(testContext(t), &widthEvaluator{}, []string{good, bad, missing}, 2, &out, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "2 of 3") {
		t.Fatalf("err = %v", err)
	}

	results := readResults(t, &out)
	if len(results) != 3 || results[0].Error != "" || results[1].Error == "" || results[2].Error == "" {
		t.Fatalf("results = %+v", results)
	}
}

func TestDetectCommandUsesFactory(t *testing.T) {
	t.Setenv("DETECTOR_CONFIG", "")
	t.Setenv("MODEL_POOL_SIZE", "8")
	path := writePNG(t, t.TempDir(), "frame.png", 70, 30)

	var gotCfg config.PipelineConfig
	released := false
	factory := func(cfg config.PipelineConfig, log *logrus.Logger) (drowsiness.IEvaluator, func() error, error) {
		gotCfg = cfg
		return &widthEvaluator{}, func() error { released = true; return nil }, nil
	}

	var out bytes.Buffer
	cmd := NewRootCommand(factory)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"detect", "--alarm", "--workers", "2", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !gotCfg.AlarmEnabled || gotCfg.PoolSize != 2 {
		t.Fatalf("cfg = %+v", gotCfg)
	}
	if !released {
		t.Fatal("pipeline not released")
	}
	if results := readResults(t, &out); len(results) != 1 || results[0].Status != "Drowsy" {
		t.Fatalf("results = %+v", results)
	}
}

func TestDetectCommandFactoryError(t *testing.T) {
	t.Setenv("DETECTOR_CONFIG", "")
	factory := func(cfg config.PipelineConfig, log *logrus.Logger) (drowsiness.IEvaluator, func() error, error) {
		return nil, nil, errors.New("missing cascade")
	}

	cmd := NewRootCommand(factory)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"detect", "x.png"})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "missing cascade") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if bytes.HasPrefix(msg, []byte("\x89PNG")) {
				conn.WriteJSON(map[string]interface{}{"status": "Alert", "eye_states": []string{"Open", "Open"}, "faces": 1})
			} else {
				conn.WriteJSON(map[string]string{"error": "Invalid image format"})
			}
		}
	}))
	defer srv.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client, err := websocketPkg.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil, logger)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", 10, 10)
	bad := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(bad, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var out bytes.Buffer
	err = runStream(client, []string{good, bad, good}, &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Fatalf("err = %v", err)
	}

	results := readResults(t, &out)
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Status != "Alert" || len(results[0].EyeStates) != 2 || results[0].Faces != 1 {
		t.Fatalf("first = %+v", results[0])
	}
	if results[1].Error != "Invalid image format" || results[2].Status != "Alert" {
		t.Fatalf("results = %+v", results)
	}
}

// testContext mirrors testing.T.Context (Go 1.24+): a context canceled when
// the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
