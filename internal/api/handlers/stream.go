package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

const (
	streamInterval = 5 * time.Second
	writeWait      = 10 * time.Second
	maxStreamSyms  = 10
)

// StreamHandler pushes live quotes over a WebSocket. The client opens the
// socket and sends a subscribe frame; the server then pushes a quote batch
// on a fixed interval until the client disconnects.
type StreamHandler struct {
	provider market.Provider
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(provider market.Provider, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		provider: provider,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

type subscribeFrame struct {
	Symbols []string `json:"symbols"`
}

type quoteFrame struct {
	Type      string                   `json:"type"`
	Quotes    map[string]*market.Quote `json:"quotes"`
	Timestamp time.Time                `json:"timestamp"`
}

// Stream upgrades the connection and serves the quote push loop.
// GET /api/stocks/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	var sub subscribeFrame
	if err := conn.ReadJSON(&sub); err != nil {
		h.logger.WithError(err).Debug("Stream closed before subscribe")
		return
	}

	symbols := normalizeSymbols(sub.Symbols)
	if len(symbols) == 0 {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "no symbols"),
			time.Now().Add(writeWait))
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"symbols": symbols,
		"remote":  r.RemoteAddr,
	}).Info("Quote stream opened")

	// Reader goroutine: we only care about the close, later subscribe
	// frames are ignored.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		quotes := make(map[string]*market.Quote, len(symbols))
		for _, symbol := range symbols {
			quote, err := h.provider.GetQuote(ctx, symbol)
			if err != nil {
				continue
			}
			quotes[symbol] = quote
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(quoteFrame{
			Type:      "quotes",
			Quotes:    quotes,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			h.logger.WithError(err).Debug("Quote stream write failed")
			return
		}

		select {
		case <-done:
			h.logger.Debug("Quote stream closed by client")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func normalizeSymbols(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		symbol := strings.ToUpper(strings.TrimSpace(s))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
		if len(out) == maxStreamSyms {
			break
		}
	}
	return out
}
