package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfig configures the WebSocket confirmation client.
type WSConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSConfirmer waits for transaction confirmation over the ledger's
// WebSocket endpoint using signatureSubscribe. One subscription per
// signature; the subscription is single-shot and removed by the ledger
// once the notification fires.
type WSConfirmer struct {
	endpoint  string
	config    WSConfig
	requestID atomic.Uint64
}

// NewWSConfirmer creates a new WebSocket confirmation client.
func NewWSConfirmer(endpoint string, config *WSConfig) *WSConfirmer {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	return &WSConfirmer{endpoint: endpoint, config: cfg}
}

// wsRequest represents a JSON-RPC 2.0 request over WebSocket.
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// wsMessage is a JSON-RPC response or subscription notification.
type wsMessage struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Method string          `json:"method"`
	Params *struct {
		Result struct {
			Value struct {
				Err interface{} `json:"err"`
			} `json:"value"`
		} `json:"result"`
		Subscription int64 `json:"subscription"`
	} `json:"params"`
}

// Confirm blocks until the signature is confirmed, the transaction fails
// on-chain, or ctx expires. The caller bounds the wait through ctx.
func (c *WSConfirmer) Confirm(ctx context.Context, signature string) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { conn.Close() }) }
	defer closeConn()

	// Close the connection when ctx expires so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]interface{}{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe %s: %w", signature, err)
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("confirm %s: %w", signature, ctx.Err())
			}
			return fmt.Errorf("read notification: %w", err)
		}

		if msg.Error != nil {
			return fmt.Errorf("subscribe %s: %w", signature, msg.Error)
		}

		if msg.Method != "signatureNotification" || msg.Params == nil {
			// Subscription acknowledgment or unrelated frame
			continue
		}

		if txErr := msg.Params.Result.Value.Err; txErr != nil {
			return fmt.Errorf("transaction %s failed on-chain: %v", signature, txErr)
		}
		return nil
	}
}
