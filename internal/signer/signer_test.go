package signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/dropper-engine/internal/dropper"
)

func TestLocalSignerSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	s, err := NewLocalSigner(key)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Address())

	digest := common.HexToHash("0x0102030405060708091011121314151617181920212223242526272829303132")
	sig, err := s.Sign(context.Background(), digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	// The verifier recovers against the prefixed digest with v in {27, 28}.
	recoverable := make([]byte, 65)
	copy(recoverable, sig)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(dropper.SignableHash(digest), recoverable)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}

func TestLocalSignerDeterministicPerDigest(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s, err := NewLocalSigner(key)
	require.NoError(t, err)

	digest := common.HexToHash("0xaa")
	first, err := s.Sign(context.Background(), digest)
	require.NoError(t, err)
	second, err := s.Sign(context.Background(), digest)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewLocalSignerFromHex(t *testing.T) {
	_, err := NewLocalSignerFromHex("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	assert.NoError(t, err)

	_, err = NewLocalSignerFromHex("not-a-key")
	assert.ErrorIs(t, err, ErrSignerUnavailable)
}

// custodyStub fakes the remote custody service. It signs for a real key so
// tests can verify recovered addresses end to end.
func custodyStub(t *testing.T, failDescribe, failSign bool) (*httptest.Server, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	mux := http.NewServeMux()
	mux.HandleFunc("/signer", func(w http.ResponseWriter, r *http.Request) {
		if failDescribe {
			http.Error(w, "describe failed", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"address": addr.Hex()})
	})
	mux.HandleFunc("/sign", func(w http.ResponseWriter, r *http.Request) {
		if failSign {
			http.Error(w, "sign failed", http.StatusInternalServerError)
			return
		}
		var req struct {
			Digest string `json:"digest"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		digest := common.HexToHash(req.Digest)
		sig, err := crypto.Sign(dropper.SignableHash(digest), key)
		require.NoError(t, err)
		sig[64] += 27
		json.NewEncoder(w).Encode(map[string]string{"signature": hexutil.Encode(sig)})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, addr
}

func TestRemoteSignerSign(t *testing.T) {
	srv, addr := custodyStub(t, false, false)

	s, err := NewRemoteSigner(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, addr, s.Address())

	digest := common.HexToHash("0xbeef")
	sig, err := s.Sign(context.Background(), digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	recoverable := make([]byte, 65)
	copy(recoverable, sig)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(dropper.SignableHash(digest), recoverable)
	require.NoError(t, err)
	assert.Equal(t, addr, crypto.PubkeyToAddress(*pub))
}

func TestRemoteSignerDescribeFailure(t *testing.T) {
	srv, _ := custodyStub(t, true, false)

	_, err := NewRemoteSigner(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrSignerUnavailable)
}

func TestRemoteSignerSignFailure(t *testing.T) {
	srv, _ := custodyStub(t, false, true)

	s, err := NewRemoteSigner(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = s.Sign(context.Background(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ErrSigningFailed)
}

func TestRemoteSignerUnreachableHost(t *testing.T) {
	_, err := NewRemoteSigner(context.Background(), "http://127.0.0.1:1")
	assert.ErrorIs(t, err, ErrSignerUnavailable)
}
