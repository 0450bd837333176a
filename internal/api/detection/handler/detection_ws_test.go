package detectionHandler

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	detectionService "github.com/maheshmm7/DriveGaurdAI/internal/api/detection/service"
	"github.com/maheshmm7/DriveGaurdAI/internal/middleware"
	contextPkg "github.com/maheshmm7/DriveGaurdAI/pkg/context"
	"github.com/maheshmm7/DriveGaurdAI/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var validFrame = []byte("\x89PNG frame")

// frameService answers frames starting with the PNG magic and rejects
// anything else the way a failed decode does.
type frameService struct {
	mu         sync.Mutex
	frames     [][]byte
	sources    []detection.Source
	requestIDs []string
}

func (s *frameService) DetectDrowsiness(ctx context.Context, image []byte, source detection.Source) (*detection.DrowsinessResponse, error) {
	s.mu.Lock()
	s.frames = append(s.frames, image)
	s.sources = append(s.sources, source)
	s.requestIDs = append(s.requestIDs, contextPkg.GetRequestID(ctx))
	s.mu.Unlock()

	if !bytes.HasPrefix(image, []byte("\x89PNG")) {
		return nil, detection.ErrInvalidImage
	}
	return &detection.DrowsinessResponse{Status: "Alert", EyeStates: []string{"Open", "Open"}, Faces: 1}, nil
}

func (s *frameService) GetDetections(ctx context.Context, query detection.HistoryQuery) (*detection.HistoryResponse, error) {
	return nil, detection.ErrHistoryDisabled
}

func (s *frameService) GetDetectionByID(ctx context.Context, id string) (*detection.DetectionRecordResponse, error) {
	return nil, detection.ErrHistoryDisabled
}

func (s *frameService) calls() ([][]byte, []detection.Source, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...), append([]detection.Source(nil), s.sources...), append([]string(nil), s.requestIDs...)
}

func serveWebSocket(t *testing.T, svc detectionService.IDetectionService) string {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mw := middleware.New(logger, rate.Inf, 1)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(mw.NewRequestIDMiddleware())
	New(logger, validator.New(), mw, svc, utils.New()).Start(app.Group("/api/v1"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.ShutdownWithTimeout(time.Second) })

	return "ws://" + ln.Addr().String() + "/api/v1/detect/ws"
}

func dialWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	header := http.Header{}
	header.Set("X-Request-ID", "ws-7")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, messageType int, payload []byte) map[string]interface{} {
	t.Helper()

	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(messageType, payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	body := map[string]interface{}{}
	if err := conn.ReadJSON(&body); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return body
}

func TestWebSocketEvaluatesEachFrame(t *testing.T) {
	svc := &frameService{}
	conn := dialWebSocket(t, serveWebSocket(t, svc))

	body := exchange(t, conn, websocket.BinaryMessage, validFrame)
	if body["status"] != "Alert" {
		t.Fatalf("first frame = %v", body)
	}
	if states, ok := body["eye_states"].([]interface{}); !ok || len(states) != 2 {
		t.Fatalf("eye_states = %v", body["eye_states"])
	}

	body = exchange(t, conn, websocket.BinaryMessage, []byte("not an image"))
	if body["error"] != "Invalid image format" {
		t.Fatalf("bad frame = %v", body)
	}
	if _, ok := body["status"]; ok {
		t.Fatalf("error reply carries a verdict: %v", body)
	}

	body = exchange(t, conn, websocket.BinaryMessage, validFrame)
	if body["status"] != "Alert" {
		t.Fatalf("frame after error = %v", body)
	}

	frames, sources, requestIDs := svc.calls()
	if len(frames) != 3 {
		t.Fatalf("service called %d times, want 3", len(frames))
	}
	for i := range frames {
		if sources[i] != detection.SourceWebSocket {
			t.Fatalf("source[%d] = %q", i, sources[i])
		}
		if requestIDs[i] != "ws-7" {
			t.Fatalf("request id[%d] = %q", i, requestIDs[i])
		}
	}
}

func TestWebSocketBase64TextFrames(t *testing.T) {
	svc := &frameService{}
	conn := dialWebSocket(t, serveWebSocket(t, svc))

	body := exchange(t, conn, websocket.TextMessage, []byte("***"))
	if body["error"] != "Invalid image format" {
		t.Fatalf("bad base64 = %v", body)
	}
	if frames, _, _ := svc.calls(); len(frames) != 0 {
		t.Fatal("undecodable base64 must not reach the service")
	}

	// "iVBORyBmcmFtZQ==" is base64 for validFrame.
	body = exchange(t, conn, websocket.TextMessage, []byte("data:image/png;base64,iVBORyBmcmFtZQ=="))
	if body["status"] != "Alert" {
		t.Fatalf("base64 frame = %v", body)
	}

	frames, _, _ := svc.calls()
	if len(frames) != 1 || !bytes.Equal(frames[0], validFrame) {
		t.Fatalf("service frames = %q", frames)
	}
}
