// Package client talks to a prover node over HTTP. It implements
// proofs.Prover, so proof assembly can run against a live node or an
// in-memory fake interchangeably.
package client

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"Attestia/internal/proofs"
	"Attestia/internal/types"
)

// errNotFound marks a 404 from the prover: the queried item does not exist.
var errNotFound = errors.New("not found")

// errStale marks a 409 from the prover: the requested root moved mid-request.
var errStale = errors.New("root advanced during request")

// Client connects to a prover node via HTTP.
type Client struct {
	nodeAddr string       // nodeAddr is the HTTP address (e.g. "127.0.0.1:8080")
	http     *http.Client // http is the underlying HTTP client
}

// New creates a client connected to a prover node.
// It pings the node's /status endpoint to fail fast on a bad address.
func New(nodeAddr string) (*Client, error) {
	c := &Client{
		nodeAddr: nodeAddr,
		http:     &http.Client{Timeout: 30 * time.Second},
	}

	var status struct {
		Version string `json:"version"`
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.httpGet(ctx, c.url("/status"), &status); err != nil {
		return nil, fmt.Errorf("get status:\n%w", err)
	}

	return c, nil
}

// url builds a full endpoint URL on the node.
func (c *Client) url(path string) string {
	return "http://" + c.nodeAddr + path
}

// proofResponse is the wire shape shared by both proof endpoints.
type proofResponse struct {
	A       string `json:"a"`       // A is the hex-encoded first group element
	B       string `json:"b"`       // B is the hex-encoded second group element
	C       string `json:"c"`       // C is the hex-encoded third group element
	RootSeq uint64 `json:"rootSeq"` // RootSeq is the root sequence the proof targets
	Items   []struct {
		RootIndex uint16 `json:"rootIndex"`
		LeafIndex uint32 `json:"leafIndex"`
		Root      string `json:"root"`
	} `json:"items"`
}

// toResult converts a wire proof into the assembly-layer shape.
func (p *proofResponse) toResult() (*proofs.ProofResult, error) {
	res := &proofs.ProofResult{RootSeq: p.RootSeq}

	if err := decodeHex(p.A, res.Proof.A[:]); err != nil {
		return nil, fmt.Errorf("proof element a:\n%w", err)
	}
	if err := decodeHex(p.B, res.Proof.B[:]); err != nil {
		return nil, fmt.Errorf("proof element b:\n%w", err)
	}
	if err := decodeHex(p.C, res.Proof.C[:]); err != nil {
		return nil, fmt.Errorf("proof element c:\n%w", err)
	}

	res.Items = make([]proofs.ProofItem, len(p.Items))
	for i, item := range p.Items {
		res.Items[i] = proofs.ProofItem{
			RootIndex: item.RootIndex,
			LeafIndex: item.LeafIndex,
		}

		if err := decodeHex(item.Root, res.Items[i].Root[:]); err != nil {
			return nil, fmt.Errorf("item %d root:\n%w", i, err)
		}
	}

	return res, nil
}

// ValidityProof fetches a non-membership proof for addresses in a tree.
func (c *Client) ValidityProof(ctx context.Context, tree types.Address, addresses []types.Address) (*proofs.ProofResult, error) {
	hexAddrs := make([]string, len(addresses))
	for i, a := range addresses {
		hexAddrs[i] = a.Hex()
	}

	body := map[string]any{
		"tree":      tree.Hex(),
		"addresses": hexAddrs,
	}

	var resp proofResponse
	if err := c.httpPostJSON(ctx, c.url("/proof/validity"), body, &resp); err != nil {
		if errors.Is(err, errStale) {
			return nil, proofs.ErrStaleProof
		}

		return nil, fmt.Errorf("validity proof:\n%w", err)
	}

	return resp.toResult()
}

// LeafProof fetches a membership proof for existing leaves in a tree.
func (c *Client) LeafProof(ctx context.Context, tree types.Address, leaves []types.Digest) (*proofs.ProofResult, error) {
	hexLeaves := make([]string, len(leaves))
	for i, l := range leaves {
		hexLeaves[i] = l.Hex()
	}

	body := map[string]any{
		"tree":   tree.Hex(),
		"leaves": hexLeaves,
	}

	var resp proofResponse
	if err := c.httpPostJSON(ctx, c.url("/proof/leaf"), body, &resp); err != nil {
		if errors.Is(err, errStale) {
			return nil, proofs.ErrStaleProof
		}

		return nil, fmt.Errorf("leaf proof:\n%w", err)
	}

	return resp.toResult()
}

// CurrentRootSeq reads the tree's current root sequence number.
func (c *Client) CurrentRootSeq(ctx context.Context, tree types.Address) (uint64, error) {
	var resp struct {
		Seq uint64 `json:"seq"`
	}

	if err := c.httpGet(ctx, c.url("/root/"+tree.Hex()), &resp); err != nil {
		return 0, fmt.Errorf("current root:\n%w", err)
	}

	return resp.Seq, nil
}

// CompressedAccount looks up the compressed account at an address.
// Returns nil if no account exists: absence is a normal outcome, not an error.
func (c *Client) CompressedAccount(ctx context.Context, address types.Address) (*proofs.Account, error) {
	var resp struct {
		Hash      string `json:"hash"`
		LeafIndex uint32 `json:"leafIndex"`
		Tree      string `json:"tree"`
		Queue     string `json:"queue"`
		Data      string `json:"data"`
	}

	err := c.httpGet(ctx, c.url("/account/"+address.Hex()), &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account lookup:\n%w", err)
	}

	account := &proofs.Account{Address: address, LeafIndex: resp.LeafIndex}

	if err := decodeHex(resp.Hash, account.Hash[:]); err != nil {
		return nil, fmt.Errorf("account hash:\n%w", err)
	}
	if err := decodeHex(resp.Tree, account.Tree[:]); err != nil {
		return nil, fmt.Errorf("account tree:\n%w", err)
	}
	if err := decodeHex(resp.Queue, account.Queue[:]); err != nil {
		return nil, fmt.Errorf("account queue:\n%w", err)
	}

	if resp.Data != "" {
		account.Data, err = hex.DecodeString(resp.Data)
		if err != nil {
			return nil, fmt.Errorf("account data:\n%w", err)
		}
	}

	return account, nil
}

// decodeHex decodes a hex string into dst, requiring an exact length match.
func decodeHex(s string, dst []byte) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex %q:\n%w", s, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("got %d bytes, want %d", len(raw), len(dst))
	}

	copy(dst, raw)

	return nil
}
