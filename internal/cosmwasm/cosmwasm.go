// Package cosmwasm talks to CosmWasm contracts on a Cosmos chain (Sei) through
// Tendermint RPC, the Cosmos REST gateway, or the Tendermint websocket.
package cosmwasm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ownerscan-go/internal/config"
)

const (
	// ProviderRPC issues abci_query calls over Tendermint JSON-RPC (HTTP).
	ProviderRPC = "rpc"
	// ProviderLCD uses the Cosmos REST gateway smart query route.
	ProviderLCD = "lcd"
	// ProviderWS multiplexes abci_query calls over the Tendermint websocket.
	ProviderWS = "ws"
)

// ErrNoOwner is returned when a contract answers owner_of without an owner.
var ErrNoOwner = errors.New("owner_of response has no owner")

// SmartQuerier runs a raw JSON smart query against a contract and returns the raw JSON answer.
type SmartQuerier interface {
	QuerySmart(ctx context.Context, contract string, msg []byte) ([]byte, error)
}

// Querier is the contract-query surface the scanner depends on.
type Querier interface {
	OwnerOf(ctx context.Context, contract string, tokenID uint64) (string, error)
	Close() error
}

// ContractError carries a non-zero ABCI result, usually a contract revert
// such as a token that was never minted.
type ContractError struct {
	Code      uint32
	Codespace string
	Log       string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract query failed (codespace=%s code=%d): %s", e.Codespace, e.Code, e.Log)
}

type ownerOfMsg struct {
	OwnerOf struct {
		TokenID string `json:"token_id"`
	} `json:"owner_of"`
}

type ownerOfResponse struct {
	Owner string `json:"owner"`
}

// OwnerOfQuery renders the CW721 owner_of message for tokenID.
func OwnerOfQuery(tokenID uint64) []byte {
	var msg ownerOfMsg
	msg.OwnerOf.TokenID = strconv.FormatUint(tokenID, 10)
	data, _ := json.Marshal(msg)
	return data
}

func queryOwner(ctx context.Context, q SmartQuerier, contract string, tokenID uint64) (string, error) {
	raw, err := q.QuerySmart(ctx, contract, OwnerOfQuery(tokenID))
	if err != nil {
		return "", err
	}
	var resp ownerOfResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode owner_of: %w", err)
	}
	if resp.Owner == "" {
		return "", ErrNoOwner
	}
	return resp.Owner, nil
}

// Dial connects to the configured provider and verifies the endpoint answers
// before any token is queried.
func Dial(ctx context.Context, cfg config.Chain, log zerolog.Logger) (Querier, error) {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	provider := strings.ToLower(cfg.Provider)
	log = log.With().Str("provider", provider).Logger()

	switch provider {
	case ProviderLCD:
		client := NewLCDClient(cfg.LcdURL, timeout, log)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil
	case ProviderWS:
		endpoint := cfg.WsURL
		if endpoint == "" {
			endpoint = WebsocketURL(cfg.RpcURL)
		}
		return DialWS(ctx, endpoint, timeout, log)
	case ProviderRPC, "":
		client := NewRPCClient(cfg.RpcURL, timeout, log)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown chain provider %q", cfg.Provider)
	}
}
