package cosmwasm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LCDClient queries contracts through the Cosmos REST gateway.
type LCDClient struct {
	Base    string
	Http    *http.Client
	ChainID string
	log     zerolog.Logger
}

type lcdNodeInfo struct {
	DefaultNodeInfo struct {
		Network string `json:"network"`
	} `json:"default_node_info"`
}

type lcdSmartResponse struct {
	Data json.RawMessage `json:"data"`
}

type lcdError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewLCDClient builds a REST client rooted at base.
func NewLCDClient(base string, timeout time.Duration, log zerolog.Logger) *LCDClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LCDClient{
		Base: strings.TrimSuffix(base, "/"),
		Http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// Connect fetches node info to make sure the gateway is reachable.
func (c *LCDClient) Connect(ctx context.Context) error {
	var info lcdNodeInfo
	if err := c.get(ctx, "/cosmos/base/tendermint/v1beta1/node_info", &info); err != nil {
		return fmt.Errorf("lcd node_info %s: %w", c.Base, err)
	}
	c.ChainID = info.DefaultNodeInfo.Network
	c.log.Info().Str("endpoint", c.Base).Str("chain_id", c.ChainID).Msg("connected contract query endpoint")
	return nil
}

// QuerySmart runs msg against contract and returns the data payload.
func (c *LCDClient) QuerySmart(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	path := fmt.Sprintf("/cosmwasm/wasm/v1/contract/%s/smart/%s", contract, base64.URLEncoding.EncodeToString(msg))
	var out lcdSmartResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || string(out.Data) == "null" {
		return nil, fmt.Errorf("smart query response has no data")
	}
	return out.Data, nil
}

// OwnerOf resolves the current owner of a CW721 token.
func (c *LCDClient) OwnerOf(ctx context.Context, contract string, tokenID uint64) (string, error) {
	return queryOwner(ctx, c, contract, tokenID)
}

// Close releases idle HTTP connections.
func (c *LCDClient) Close() error {
	c.Http.CloseIdleConnections()
	return nil
}

func (c *LCDClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr lcdError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return &ContractError{Code: uint32(apiErr.Code), Codespace: "lcd", Log: apiErr.Message}
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
