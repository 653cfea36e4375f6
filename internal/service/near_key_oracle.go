package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"dev3-backend/pkg/apperror"

	"github.com/rs/zerolog"
)

const maxRPCResponseBytes = 1 << 20

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NearRPCKeyOracle implements ports.KeyOracle against a NEAR JSON-RPC node.
// It makes exactly one request per call; callers bound it with ctx.
type NearRPCKeyOracle struct {
	endpoint   string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewNearRPCKeyOracle creates an oracle for the given RPC endpoint.
func NewNearRPCKeyOracle(endpoint string, httpClient HTTPClient, log zerolog.Logger) *NearRPCKeyOracle {
	return &NearRPCKeyOracle{endpoint: endpoint, httpClient: httpClient, log: log}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type accessKeyListParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
}

type rpcResponse struct {
	Result *accessKeyListResult `json:"result"`
	Error  *rpcError            `json:"error"`
}

type accessKeyListResult struct {
	Keys []struct {
		PublicKey string `json:"public_key"`
	} `json:"keys"`
	// Older nodes report query failures inside the result.
	Error string `json:"error"`
}

type rpcError struct {
	Name  string `json:"name"`
	Cause struct {
		Name string `json:"name"`
	} `json:"cause"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *rpcError) unknownAccount() bool {
	if e.Cause.Name == "UNKNOWN_ACCOUNT" {
		return true
	}
	return strings.Contains(string(e.Data), "does not exist") || strings.Contains(e.Message, "does not exist")
}

// FetchAuthorizedKeys returns the public keys registered for accountID.
// An account the chain does not know yields an empty list.
func (o *NearRPCKeyOracle) FetchAuthorizedKeys(ctx context.Context, accountID string) ([]string, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "dev3",
		Method:  "query",
		Params: accessKeyListParams{
			RequestType: "view_access_key_list",
			Finality:    "final",
			AccountID:   accountID,
		},
	})
	if err != nil {
		return nil, apperror.ErrNetwork(fmt.Errorf("encode rpc request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperror.ErrNetwork(fmt.Errorf("build rpc request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, apperror.ErrNetwork(fmt.Errorf("near rpc request: %w", err))
	}
	defer resp.Body.Close()

	var out rpcResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxRPCResponseBytes)).Decode(&out)

	if out.Error != nil && out.Error.unknownAccount() {
		o.log.Debug().Str("account_id", accountID).Msg("account unknown to chain")
		return []string{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperror.ErrNetwork(fmt.Errorf("near rpc status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, apperror.ErrNetwork(fmt.Errorf("decode rpc response: %w", decodeErr))
	}
	if out.Error != nil {
		return nil, apperror.ErrNetwork(fmt.Errorf("near rpc error %s: %s", out.Error.Name, out.Error.Message))
	}
	if out.Result == nil {
		return nil, apperror.ErrNetwork(errors.New("near rpc response has no result"))
	}
	if out.Result.Error != "" {
		if strings.Contains(out.Result.Error, "does not exist") {
			return []string{}, nil
		}
		return nil, apperror.ErrNetwork(fmt.Errorf("near rpc query error: %s", out.Result.Error))
	}

	keys := make([]string, 0, len(out.Result.Keys))
	for _, k := range out.Result.Keys {
		keys = append(keys, k.PublicKey)
	}
	return keys, nil
}
