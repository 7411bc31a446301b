package cosmwasm

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rs/zerolog"
)

// RPCClient queries contracts with abci_query over Tendermint JSON-RPC.
type RPCClient struct {
	Endpoint string
	RPC      *rpc.Client
	Http     *http.Client
	ChainID  string
	log      zerolog.Logger
}

type statusResult struct {
	NodeInfo struct {
		Network string `json:"network"`
	} `json:"node_info"`
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
	} `json:"sync_info"`
}

type abciQueryResult struct {
	Response abciResponse `json:"response"`
}

type abciResponse struct {
	Code      uint32 `json:"code"`
	Log       string `json:"log"`
	Value     []byte `json:"value"`
	Codespace string `json:"codespace"`
}

func (r abciResponse) data() ([]byte, error) {
	if r.Code != 0 {
		return nil, &ContractError{Code: r.Code, Codespace: r.Codespace, Log: r.Log}
	}
	return decodeSmartResponse(r.Value)
}

// NewRPCClient builds a client; the endpoint is not contacted until Connect.
func NewRPCClient(endpoint string, timeout time.Duration, log zerolog.Logger) *RPCClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &RPCClient{
		Endpoint: endpoint,
		RPC: rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
			HTTPClient: httpClient,
		})),
		Http: httpClient,
		log:  log,
	}
}

// Connect calls status so an unreachable endpoint fails the scan up front.
func (c *RPCClient) Connect(ctx context.Context) error {
	var status statusResult
	if err := c.RPC.RPCCallForInto(ctx, &status, "status", nil); err != nil {
		return fmt.Errorf("rpc status %s: %w", c.Endpoint, err)
	}
	c.ChainID = status.NodeInfo.Network
	c.log.Info().Str("endpoint", c.Endpoint).Str("chain_id", c.ChainID).Str("height", status.SyncInfo.LatestBlockHeight).Msg("connected contract query endpoint")
	return nil
}

// QuerySmart runs msg against contract at the latest height.
func (c *RPCClient) QuerySmart(ctx context.Context, contract string, msg []byte) ([]byte, error) {
	data := strings.ToUpper(hex.EncodeToString(encodeSmartQuery(contract, msg)))
	var out abciQueryResult
	// positional params: path, data, height, prove
	if err := c.RPC.RPCCallForInto(ctx, &out, "abci_query", []interface{}{smartQueryPath, data, "0", false}); err != nil {
		return nil, err
	}
	return out.Response.data()
}

// OwnerOf resolves the current owner of a CW721 token.
func (c *RPCClient) OwnerOf(ctx context.Context, contract string, tokenID uint64) (string, error) {
	return queryOwner(ctx, c, contract, tokenID)
}

// Close releases idle HTTP connections.
func (c *RPCClient) Close() error {
	c.Http.CloseIdleConnections()
	return nil
}
