package websocketPkg

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/maheshmm7/DriveGaurdAI/internal/api/detection"
	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("websocket client is closed")

// FrameResult is the server's answer to one frame: a verdict or an error.
type FrameResult struct {
	detection.DrowsinessResponse
	Error string `json:"error,omitempty"`
}

type IWebsocket interface {
	SendFrame(frame []byte) (*FrameResult, error)
	Close() error
}

type webSocketClient struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          *logrus.Logger
}

// Dial connects to a /detect/ws endpoint. Frames are sent one at a time;
// each SendFrame waits for its own answer.
func Dial(url string, header http.Header, log *logrus.Logger) (IWebsocket, error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	c := &webSocketClient{
		conn:         conn,
		done:         make(chan struct{}),
		pingInterval: 30 * time.Second,
		readTimeout:  15 * time.Second,
		writeTimeout: 5 * time.Second,
		log:          log,
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			log.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	go c.keepAlive()

	return c, nil
}

func (c *webSocketClient) SendFrame(frame []byte) (*FrameResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return nil, ErrClosed
	default:
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return nil, err
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("send frame: %w", err)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, err
	}
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}

	var result FrameResult
	if err := jsoniter.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	return &result, nil
}

func (c *webSocketClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		defer c.mu.Unlock()

		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.writeTimeout),
		)
		err = c.conn.Close()
	})
	return err
}

func (c *webSocketClient) keepAlive() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warnf("Ping failed, stopping keepalive: %v", err)
			return
		}
	}
}
