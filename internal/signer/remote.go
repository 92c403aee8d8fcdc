package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RemoteSigner signs via an external custody service that holds the key
// outside this process. Every call is two steps, failing differently:
//
//   - describe (GET {base}/signer): locate the signing identity. A failure
//     here is ErrSignerUnavailable — the custody host is gone or the
//     identity cannot be resolved.
//   - sign (POST {base}/sign): sign the prefixed digest. A failure here is
//     ErrSigningFailed — the host answered but could not sign.
//
// Neither step is retried; duplicate signature issuance is harmless for
// correctness but retry policy is the caller's to own.
type RemoteSigner struct {
	baseURL string
	client  *http.Client
	addr    common.Address
}

type describeResponse struct {
	Address string `json:"address"`
}

type signRequest struct {
	Digest string `json:"digest"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

// NewRemoteSigner resolves the signing identity once at construction so a
// misconfigured custody endpoint fails at startup rather than on the first
// voucher request.
func NewRemoteSigner(ctx context.Context, baseURL string) (*RemoteSigner, error) {
	s := &RemoteSigner{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	addr, err := s.describe(ctx)
	if err != nil {
		return nil, err
	}
	s.addr = addr
	return s, nil
}

func (s *RemoteSigner) Address() common.Address { return s.addr }

func (s *RemoteSigner) Sign(ctx context.Context, digest common.Hash) ([]byte, error) {
	// Re-resolve the identity on every call. The custody backend may have
	// rotated or gone away since startup; spotting that here keeps the
	// unavailable/failed distinction meaningful for operators.
	addr, err := s.describe(ctx)
	if err != nil {
		return nil, err
	}
	if addr != s.addr {
		return nil, fmt.Errorf("%w: signing identity changed from %s to %s", ErrSignerUnavailable, s.addr.Hex(), addr.Hex())
	}

	body, err := json.Marshal(signRequest{Digest: digest.Hex()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: sign endpoint returned status %d", ErrSigningFailed, resp.StatusCode)
	}

	var parsed signResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	sig, err := hexutil.Decode(parsed.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed signature: %v", ErrSigningFailed, err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("%w: signature must be 65 bytes, got %d", ErrSigningFailed, len(sig))
	}
	return sig, nil
}

func (s *RemoteSigner) describe(ctx context.Context) (common.Address, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/signer", nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return common.Address{}, fmt.Errorf("%w: describe endpoint returned status %d", ErrSignerUnavailable, resp.StatusCode)
	}

	var parsed describeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}
	if !common.IsHexAddress(parsed.Address) {
		return common.Address{}, fmt.Errorf("%w: describe returned invalid address %q", ErrSignerUnavailable, parsed.Address)
	}
	return common.HexToAddress(parsed.Address), nil
}
