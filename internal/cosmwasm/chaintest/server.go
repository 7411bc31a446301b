// Package chaintest serves a fake Sei node (Tendermint RPC, websocket and
// REST gateway) backed by an in-memory CW721 ownership table.
package chaintest

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/encoding/protowire"
)

const ChainID = "pacific-test"

// Server is a fake node. Tokens missing from Owners answer with a wasm error.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	contract string
	owners   map[uint64]string
	queries  atomic.Int64
}

// NewServer starts a fake node serving owners for contract.
func NewServer(contract string, owners map[uint64]string) *Server {
	s := &Server{contract: contract, owners: make(map[uint64]string, len(owners))}
	for id, owner := range owners {
		s.owners[id] = owner
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.serveWebsocket)
	mux.HandleFunc("/cosmos/base/tendermint/v1beta1/node_info", s.serveNodeInfo)
	mux.HandleFunc("/cosmwasm/wasm/v1/contract/", s.serveSmartREST)
	mux.HandleFunc("/", s.serveJSONRPC)
	s.Server = httptest.NewServer(mux)
	return s
}

// Queries reports how many owner_of queries reached the node.
func (s *Server) Queries() int64 { return s.queries.Load() }

// WebsocketURL returns the ws:// endpoint of the fake node.
func (s *Server) WebsocketURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/websocket"
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type abciResponse struct {
	Code      uint32 `json:"code"`
	Log       string `json:"log"`
	Value     []byte `json:"value"`
	Codespace string `json:"codespace"`
	Height    string `json:"height"`
}

func (s *Server) serveJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.dispatch(req))
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		// answer concurrently so replies arrive out of request order
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.dispatch(req)
			writeMu.Lock()
			defer writeMu.Unlock()
			_ = conn.WriteJSON(resp)
		}()
	}
}

func (s *Server) serveNodeInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"default_node_info":{"network":%q}}`, ChainID)
}

func (s *Server) serveSmartREST(w http.ResponseWriter, r *http.Request) {
	// /cosmwasm/wasm/v1/contract/{addr}/smart/{b64}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/cosmwasm/wasm/v1/contract/"), "/")
	w.Header().Set("Content-Type", "application/json")
	if len(parts) != 3 || parts[1] != "smart" {
		w.WriteHeader(http.StatusNotImplemented)
		_, _ = w.Write([]byte(`{"code":12,"message":"Not Implemented"}`))
		return
	}
	msg, err := base64.URLEncoding.DecodeString(parts[2])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, `{"code":3,"message":%q}`, err.Error())
		return
	}
	data, errLog := s.smartQuery(parts[0], msg)
	if errLog != "" {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprintf(w, `{"code":2,"message":%q}`, errLog)
		return
	}
	_, _ = fmt.Fprintf(w, `{"data":%s}`, data)
}

func (s *Server) dispatch(req rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "status":
		resp.Result = map[string]any{
			"node_info": map[string]any{"network": ChainID},
			"sync_info": map[string]any{"latest_block_height": "100"},
		}
	case "abci_query":
		path, data, err := abciParams(req.Params)
		if err != nil {
			resp.Error = &rpcError{Code: -32602, Message: "Invalid params", Data: err.Error()}
			return resp
		}
		resp.Result = map[string]any{"response": s.abciQuery(path, data)}
	default:
		resp.Error = &rpcError{Code: -32601, Message: "Method not found", Data: req.Method}
	}
	return resp
}

func abciParams(raw json.RawMessage) (string, string, error) {
	var positional []any
	if err := json.Unmarshal(raw, &positional); err == nil {
		if len(positional) != 4 {
			return "", "", fmt.Errorf("expected 4 parameters, got %d", len(positional))
		}
		path, _ := positional[0].(string)
		data, _ := positional[1].(string)
		return path, data, nil
	}
	var named struct {
		Path string `json:"path"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(raw, &named); err != nil {
		return "", "", err
	}
	return named.Path, named.Data, nil
}

func (s *Server) abciQuery(path, hexData string) abciResponse {
	if path != "/cosmwasm.wasm.v1.Query/SmartContractState" {
		return abciResponse{Code: 6, Codespace: "sdk", Log: "unknown query path"}
	}
	raw, err := hex.DecodeString(hexData)
	if err != nil {
		return abciResponse{Code: 2, Codespace: "sdk", Log: err.Error()}
	}
	contract, msg, err := decodeRequest(raw)
	if err != nil {
		return abciResponse{Code: 2, Codespace: "sdk", Log: err.Error()}
	}
	data, errLog := s.smartQuery(contract, msg)
	if errLog != "" {
		return abciResponse{Code: 9, Codespace: "wasm", Log: errLog}
	}
	var value []byte
	value = protowire.AppendTag(value, 1, protowire.BytesType)
	value = protowire.AppendBytes(value, data)
	return abciResponse{Value: value, Height: "100"}
}

func (s *Server) smartQuery(contract string, msg []byte) ([]byte, string) {
	if contract != s.contract {
		return nil, "no such contract: " + contract
	}
	var query struct {
		OwnerOf *struct {
			TokenID string `json:"token_id"`
		} `json:"owner_of"`
	}
	if err := json.Unmarshal(msg, &query); err != nil || query.OwnerOf == nil {
		return nil, "Error parsing into type cw721::msg::QueryMsg: unknown variant"
	}
	s.queries.Add(1)
	id, err := strconv.ParseUint(query.OwnerOf.TokenID, 10, 64)
	if err != nil {
		return nil, "invalid token id"
	}
	s.mu.Lock()
	owner, ok := s.owners[id]
	s.mu.Unlock()
	if !ok {
		return nil, "query wasm contract failed: cw721_base::state::TokenInfo<core::option::Option<cosmwasm_std::results::empty::Empty>> not found"
	}
	data, _ := json.Marshal(map[string]any{"owner": owner, "approvals": []any{}})
	return data, ""
}

func decodeRequest(b []byte) (string, []byte, error) {
	var contract string
	var msg []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", nil, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			return "", nil, fmt.Errorf("unexpected wire type %d", typ)
		}
		v, m := protowire.ConsumeBytes(b)
		if m < 0 {
			return "", nil, protowire.ParseError(m)
		}
		switch num {
		case 1:
			contract = string(v)
		case 2:
			msg = v
		}
		b = b[m:]
	}
	return contract, msg, nil
}
