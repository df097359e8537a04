package mutation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
)

// RPCFuzzer is a small framed TCP/JSON client to an external mutation
// server. Request framing mirrors a single-line request/response protocol:
// a request line of `<stage>[ SP <json session data>]` terminated by
// `\x00`; the server replies with one JSON line (or an empty line for "no
// mutation") and closes the connection, so the client reads to EOF.
type RPCFuzzer struct {
	addr         string
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// rpcResponse is the server's reply shape: an empty Mutation (nil after
// base64 decode) means "no mutation for this stage".
type rpcResponse struct {
	Mutation string `json:"mutation"`
}

// NewRPCFuzzer dials addr (host:port) on every GetMutation call.
func NewRPCFuzzer(addr string) *RPCFuzzer {
	return &RPCFuzzer{
		addr:         addr,
		dialTimeout:  3 * time.Second,
		readTimeout:  2 * time.Second,
		writeTimeout: 2 * time.Second,
	}
}

// GetMutation implements Fuzzer. Any transport error degrades to "no
// mutation" rather than stalling the control engine; the error is logged.
func (f *RPCFuzzer) GetMutation(ctx context.Context, stage string, sessionData map[string][]byte) []byte {
	mutated, err := f.doRequest(ctx, stage, sessionData)
	if err != nil {
		slog.Warn("fuzzer rpc failed, passing through", "stage", stage, "error", err)
		return nil
	}
	return mutated
}

func (f *RPCFuzzer) doRequest(ctx context.Context, stage string, sessionData map[string][]byte) ([]byte, error) {
	line := stage
	if len(sessionData) > 0 {
		encoded := make(map[string]string, len(sessionData))
		for k, v := range sessionData {
			encoded[k] = base64.StdEncoding.EncodeToString(v)
		}
		payload, err := json.Marshal(encoded)
		if err != nil {
			return nil, fmt.Errorf("encode session data: %w", err)
		}
		line = stage + " " + string(payload)
	}

	d := &net.Dialer{Timeout: f.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if f.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(f.writeTimeout))
	}
	if _, err := conn.Write(append([]byte(line), '\x00')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if f.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(f.readTimeout))
	}
	raw, err := io.ReadAll(conn)
	if err != nil && len(raw) == 0 {
		return nil, fmt.Errorf("read: %w", err)
	}
	resp := strings.TrimSuffix(string(raw), "\n")
	if resp == "" {
		return nil, nil
	}

	var parsed rpcResponse
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Mutation == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(parsed.Mutation)
	if err != nil {
		return nil, fmt.Errorf("decode mutation: %w", err)
	}
	return decoded, nil
}
