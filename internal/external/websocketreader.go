package external

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"atmoseng/internal/harperr"
	"atmoseng/internal/product"
)

// WebSocketReader adapts a remote product source speaking a minimal
// request/response JSON protocol over a websocket connection into a
// Reader, for ingestion servers that stream product data rather than
// serving it from a local file.
//
// Wire protocol: one JSON request per call, one JSON response per reply.
// {"op":"dimensions"} -> {"dims":{"time":120,...}}
// {"op":"variables"} -> {"variables":[{...VariableDescriptor...}]}
// {"op":"read","name":"...","count":-1} -> {"values":[...]}
// A count of -1 in the read request means "whole variable". A zero start
// (and a zero count) is omitted from the request.
type WebSocketReader struct {
	conn *websocket.Conn
}

// DialWebSocketReader opens a websocket connection to url and returns a
// Reader backed by it. The caller owns the returned Reader's lifetime and
// must call Close when done.
func DialWebSocketReader(url string) (*WebSocketReader, error) {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, harperr.Wrapf(err, harperr.Import, "websocket dial to %s failed", url)
	}
	return &WebSocketReader{conn: conn}, nil
}

// Close closes the underlying connection.
func (r *WebSocketReader) Close() error { return r.conn.Close() }

type wsRequest struct {
	Op    string `json:"op"`
	Name  string `json:"name,omitempty"`
	Start int    `json:"start,omitempty"`
	Count int    `json:"count,omitempty"`
}

type wsDimsResponse struct {
	Dims map[string]int `json:"dims"`
}

type wsVariablesResponse struct {
	Variables []wsVariableDescriptor `json:"variables"`
}

type wsVariableDescriptor struct {
	Name        string           `json:"name"`
	DataType    string           `json:"data_type"`
	Dims        []wsDimension    `json:"dims"`
	Unit        string           `json:"unit"`
	ValidMin    *float64         `json:"valid_min,omitempty"`
	ValidMax    *float64         `json:"valid_max,omitempty"`
	Enum        []string         `json:"enum,omitempty"`
	Description string           `json:"description,omitempty"`
	Excluded    bool             `json:"excluded,omitempty"`
}

type wsDimension struct {
	Type   string `json:"type"`
	Length int    `json:"length"`
}

type wsReadResponse struct {
	Values []json.Number `json:"values"`
	Strs   []*string     `json:"strings,omitempty"`
}

func (r *WebSocketReader) roundTrip(req wsRequest, out interface{}) error {
	if err := r.conn.WriteJSON(req); err != nil {
		return harperr.Wrapf(err, harperr.Import, "websocket request %q failed", req.Op)
	}
	if err := r.conn.ReadJSON(out); err != nil {
		return harperr.Wrapf(err, harperr.Import, "websocket response for %q failed", req.Op)
	}
	return nil
}

func (r *WebSocketReader) Dimensions() map[product.DimensionType]int {
	var resp wsDimsResponse
	if err := r.roundTrip(wsRequest{Op: "dimensions"}, &resp); err != nil {
		return map[product.DimensionType]int{}
	}
	out := make(map[product.DimensionType]int, len(resp.Dims))
	for k, v := range resp.Dims {
		out[product.DimensionType(k)] = v
	}
	return out
}

func (r *WebSocketReader) Variables() []VariableDescriptor {
	var resp wsVariablesResponse
	if err := r.roundTrip(wsRequest{Op: "variables"}, &resp); err != nil {
		return nil
	}
	out := make([]VariableDescriptor, 0, len(resp.Variables))
	for _, v := range resp.Variables {
		if v.Excluded {
			continue
		}
		dims := make([]product.Dimension, len(v.Dims))
		for i, d := range v.Dims {
			dims[i] = product.Dimension{Type: product.DimensionType(d.Type), Length: d.Length}
		}
		out = append(out, VariableDescriptor{
			Name: v.Name, DataType: product.DataType(v.DataType), Dims: dims, Unit: v.Unit,
			ValidMin: v.ValidMin, ValidMax: v.ValidMax, Enum: v.Enum, Description: v.Description,
		})
	}
	return out
}

func (r *WebSocketReader) readInto(name string, start, count int, dst product.Buffer) error {
	var resp wsReadResponse
	if err := r.roundTrip(wsRequest{Op: "read", Name: name, Start: start, Count: count}, &resp); err != nil {
		return err
	}
	if dst.Type == product.String {
		for i, s := range resp.Strs {
			if i >= dst.Len() {
				break
			}
			dst.Str[i] = s
		}
		return nil
	}
	for i, n := range resp.Values {
		if i >= dst.Len() {
			break
		}
		f, err := n.Float64()
		if err != nil {
			return harperr.Wrapf(err, harperr.Import, "malformed numeric value for %q at index %d", name, i)
		}
		dst.SetFloat64At(i, f)
	}
	return nil
}

func (r *WebSocketReader) ReadWhole(name string, dst product.Buffer) error {
	return r.readInto(name, 0, -1, dst)
}

func (r *WebSocketReader) ReadBlock(name string, outerIndex int, dst product.Buffer) error {
	inner := dst.Len()
	return r.readInto(name, outerIndex*inner, inner, dst)
}

func (r *WebSocketReader) ReadRange(name string, start, count int, dst product.Buffer) error {
	return r.readInto(name, start, count, dst)
}

func (r *WebSocketReader) OptimalRangeLength(name string) int {
	return 1
}

func (r *WebSocketReader) Exclude(name string) bool { return false }
