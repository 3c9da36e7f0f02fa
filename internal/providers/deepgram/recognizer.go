package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"fitvoice/internal/domain"
	"fitvoice/internal/ports"
)

const defaultBaseURL = "https://api.deepgram.com/v1"

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

// Recognizer implements ports.SpeechRecognizer against the Deepgram live
// transcription websocket.
type Recognizer struct {
	cfg Config
}

func NewRecognizer(cfg Config) *Recognizer {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Recognizer{cfg: cfg}
}

// Available reports whether the provider can be reached at all. Deepgram has
// no push channel for availability, so this is a configuration check.
func (r *Recognizer) Available() bool {
	return strings.TrimSpace(r.cfg.APIKey) != ""
}

func (r *Recognizer) Availability() <-chan bool { return nil }

func (r *Recognizer) Recognize(ctx context.Context, cfg ports.RecognitionConfig) (ports.RecognitionTask, error) {
	if !r.Available() {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	wsURL, err := buildListenURL(r.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("connect to Deepgram websocket: %w", err)
	}

	tk := &task{
		conn:    conn,
		results: make(chan domain.RecognitionResult, 64),
		audio:   make(chan []byte, 32),
		done:    make(chan struct{}),
	}

	tk.wg.Add(2)
	go tk.readLoop()
	go tk.writeLoop()
	go func() {
		tk.wg.Wait()
		close(tk.results)
		close(tk.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		tk.Cancel()
	}()

	return tk, nil
}

type task struct {
	conn *websocket.Conn

	results chan domain.RecognitionResult
	audio   chan []byte
	done    chan struct{}

	wg sync.WaitGroup

	endOnce    sync.Once
	cancelOnce sync.Once
	canceled   atomic.Bool

	sendMu     sync.RWMutex
	sendClosed bool
}

func (t *task) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	// The read lock is held across the send so EndAudio cannot close the
	// channel underneath an in-flight chunk.
	t.sendMu.RLock()
	defer t.sendMu.RUnlock()
	if t.sendClosed {
		return errors.New("audio input is already closed")
	}

	copied := append([]byte(nil), chunk...)
	select {
	case t.audio <- copied:
		return nil
	case <-t.done:
		return errors.New("recognition task finished")
	}
}

// EndAudio signals that no more audio will arrive. The recognizer keeps
// running so buffered audio can still produce results.
func (t *task) EndAudio() error {
	t.endOnce.Do(func() {
		t.sendMu.Lock()
		t.sendClosed = true
		close(t.audio)
		t.sendMu.Unlock()
	})
	return nil
}

// Cancel hard-stops the task and suppresses any further results.
func (t *task) Cancel() {
	t.cancelOnce.Do(func() {
		t.canceled.Store(true)
		_ = t.EndAudio()
		_ = t.conn.Close()
	})
}

func (t *task) Results() <-chan domain.RecognitionResult {
	return t.results
}

func (t *task) writeLoop() {
	defer t.wg.Done()

	for chunk := range t.audio {
		if err := t.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			t.emit(domain.RecognitionResult{Err: fmt.Errorf("send audio: %w", err)})
			return
		}
	}

	// Ask the server to flush remaining results and close from its side.
	_ = t.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
}

func (t *task) readLoop() {
	defer t.wg.Done()

	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			if !isNormalClose(err) {
				t.emit(domain.RecognitionResult{Err: fmt.Errorf("read recognition event: %w", err)})
			}
			return
		}

		res, ok := translateMessage(payload)
		if !ok {
			continue
		}
		t.emit(res)
		if res.Err != nil {
			return
		}
	}
}

func (t *task) emit(res domain.RecognitionResult) {
	if t.canceled.Load() {
		return
	}
	select {
	case t.results <- res:
	case <-t.done:
	default:
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, net.ErrClosed)
}

// translateMessage maps one Deepgram payload to a recognition result. The
// second return is false for keepalives, metadata, and empty transcripts.
func translateMessage(payload []byte) (domain.RecognitionResult, bool) {
	var response listenResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return domain.RecognitionResult{}, false
	}

	if strings.EqualFold(response.Type, "Error") {
		message := strings.TrimSpace(response.Message)
		if message == "" {
			message = "deepgram returned an unknown error"
		}
		return domain.RecognitionResult{Err: errors.New(message)}, true
	}

	transcript := extractTranscript(response)
	if transcript == "" {
		return domain.RecognitionResult{}, false
	}

	return domain.RecognitionResult{
		Text:  transcript,
		Final: response.IsFinal || response.SpeechFinal,
	}, true
}

type listenResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func extractTranscript(response listenResponse) string {
	if len(response.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Channel.Alternatives[0].Transcript)
}

func buildListenURL(providerCfg Config, recCfg ports.RecognitionConfig) (string, error) {
	base := strings.TrimSpace(providerCfg.APIBaseURL)
	if base == "" {
		base = defaultBaseURL
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	if recCfg.Encoding == "" {
		recCfg.Encoding = "linear16"
	}
	if recCfg.SampleRate <= 0 {
		recCfg.SampleRate = 16000
	}
	if recCfg.Channels <= 0 {
		recCfg.Channels = 1
	}

	query := listenURL.Query()
	query.Set("model", providerCfg.Model)
	query.Set("encoding", recCfg.Encoding)
	query.Set("sample_rate", fmt.Sprintf("%d", recCfg.SampleRate))
	query.Set("channels", fmt.Sprintf("%d", recCfg.Channels))
	query.Set("interim_results", fmt.Sprintf("%t", recCfg.PartialResults))
	query.Set("smart_format", fmt.Sprintf("%t", providerCfg.SmartFormat))
	if recCfg.Language != "" {
		query.Set("language", recCfg.Language)
	} else if providerCfg.Language != "" {
		query.Set("language", providerCfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
