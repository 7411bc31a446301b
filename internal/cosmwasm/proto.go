package cosmwasm

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// smartQueryPath is the ABCI route of cosmwasm.wasm.v1.Query/SmartContractState.
const smartQueryPath = "/cosmwasm.wasm.v1.Query/SmartContractState"

// encodeSmartQuery builds a QuerySmartContractStateRequest{address=1, query_data=2}.
func encodeSmartQuery(contract string, msg []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, contract)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, msg)
	return b
}

// decodeSmartResponse extracts data=1 from a QuerySmartContractStateResponse.
func decodeSmartResponse(b []byte) ([]byte, error) {
	var data []byte
	found := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if num == 1 && typ == protowire.BytesType {
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, fmt.Errorf("decode data: %w", protowire.ParseError(m))
			}
			data = append([]byte(nil), v...)
			found = true
			b = b[m:]
			continue
		}
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return nil, fmt.Errorf("skip field %d: %w", num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	if !found {
		return nil, errors.New("smart query response has no data")
	}
	return data, nil
}
