package cosmwasm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrClosed is returned for calls on a websocket client whose connection has gone away.
var ErrClosed = errors.New("websocket connection closed")

// WSClient multiplexes JSON-RPC calls over one Tendermint websocket.
// Gorilla allows a single concurrent writer, so writes are serialized;
// replies are routed back to callers by request id.
type WSClient struct {
	Endpoint string
	ChainID  string
	conn     *websocket.Conn
	log      zerolog.Logger
	timeout  time.Duration

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[uint64]chan wsResponse
	nextID  atomic.Uint64
	done    chan struct{}
	err     error
}

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type wsResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *wsError        `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *wsError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("rpc error %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// WebsocketURL derives the Tendermint websocket endpoint from an RPC URL.
func WebsocketURL(rpcURL string) string {
	u := strings.TrimSuffix(rpcURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	if !strings.HasSuffix(u, "/websocket") {
		u += "/websocket"
	}
	return u
}

// DialWS opens the websocket and confirms the node answers status.
func DialWS(ctx context.Context, endpoint string, timeout time.Duration, log zerolog.Logger) (*WSClient, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	conn.SetReadLimit(4 << 20)

	c := &WSClient{
		Endpoint: endpoint,
		conn:     conn,
		log:      log,
		timeout:  timeout,
		pending:  make(map[uint64]chan wsResponse),
		done:     make(chan struct{}),
	}
	go c.readLoop()

	var status statusResult
	if err := c.call(ctx, "status", nil, &status); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ws status %s: %w", endpoint, err)
	}
	c.ChainID = status.NodeInfo.Network
	log.Info().Str("endpoint", endpoint).Str("chain_id", c.ChainID).Msg("connected contract query endpoint")
	return c, nil
}

// QuerySmart runs msg against contract at the latest height.
func (c *WSClient) QuerySmart(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	params := map[string]any{
		"path":   smartQueryPath,
		"data":   strings.ToUpper(hex.EncodeToString(encodeSmartQuery(contract, msg))),
		"height": "0",
		"prove":  false,
	}
	var out abciQueryResult
	if err := c.call(ctx, "abci_query", params, &out); err != nil {
		return nil, err
	}
	return out.Response.data()
}

// OwnerOf resolves the current owner of a CW721 token.
func (c *WSClient) OwnerOf(ctx context.Context, contract string, tokenID uint64) (string, error) {
	return queryOwner(ctx, c, contract, tokenID)
}

// Close sends a close frame and tears the connection down.
func (c *WSClient) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *WSClient) call(ctx context.Context, method string, params any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id := c.nextID.Add(1)
	ch := make(chan wsResponse, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	err := c.conn.WriteJSON(wsRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("write %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	case <-c.done:
		return c.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *WSClient) readLoop() {
	defer close(c.done)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = fmt.Errorf("%w: %v", ErrClosed, err)
			c.mu.Unlock()
			return
		}
		var resp wsResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode websocket message")
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		c.mu.Unlock()
		if !ok {
			c.log.Debug().Uint64("id", resp.ID).Msg("dropping unsolicited websocket reply")
			continue
		}
		select {
		case ch <- resp:
		default:
		}
	}
}

func (c *WSClient) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}
