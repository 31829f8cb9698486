// Package flashbots is a client for the private bundle RPC of a
// Flashbots-compatible relay.
package flashbots

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/flashbundle/internal/bundlecore"
)

const maxResponseBytes = 4 << 20

// Relay endpoints per chain id.
var RelayURLPerNetwork = map[uint64]string{
	1:        "https://relay.flashbots.net",
	11155111: "https://relay-sepolia.flashbots.net",
	17000:    "https://relay-holesky.flashbots.net",
}

// ChainReader is the node access needed to resolve a submitted bundle.
type ChainReader interface {
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	TransactionHashes(ctx context.Context, number uint64) ([]common.Hash, error)
}

type Config struct {
	RelayURL string
	AuthKey  *ecdsa.PrivateKey // X-Flashbots-Signature key; random when nil
	ChainID  *big.Int
	Chain    ChainReader
	Heads    bundlecore.HeadSource
	HTTP     *http.Client
	Log      *logrus.Entry
}

type Client struct {
	RelayURL string

	authKey  *ecdsa.PrivateKey
	authAddr common.Address
	chainID  *big.Int
	chain    ChainReader
	heads    bundlecore.HeadSource
	http     *http.Client
	log      *logrus.Entry
}

var _ bundlecore.Relay = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.RelayURL)
	if url == "" {
		return nil, fmt.Errorf("%w: relay url is empty", bundlecore.ErrConfiguration)
	}
	if cfg.ChainID == nil || cfg.Chain == nil || cfg.Heads == nil {
		return nil, fmt.Errorf("%w: relay client needs chain id, chain reader and head source", bundlecore.ErrConfiguration)
	}
	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	key := cfg.AuthKey
	if key == nil {
		var err error
		if key, err = crypto.GenerateKey(); err != nil {
			return nil, fmt.Errorf("auth key: %w", err)
		}
		log.Warn("[relay] no auth key configured, using a random one (no reputation)")
	}
	httpc := cfg.HTTP
	if httpc == nil {
		httpc = &http.Client{Timeout: 12 * time.Second}
	}
	return &Client{
		RelayURL: url,
		authKey:  key,
		authAddr: crypto.PubkeyToAddress(key.PublicKey),
		chainID:  new(big.Int).Set(cfg.ChainID),
		chain:    cfg.Chain,
		heads:    cfg.Heads,
		http:     httpc,
		log:      log.WithField("relay", url),
	}, nil
}

// AuthAddress is the reputation identity the relay sees.
func (c *Client) AuthAddress() common.Address { return c.authAddr }

// signBody produces the X-Flashbots-Signature value: an EIP-191 signature
// over the hex keccak256 of the request body.
func (c *Client) signBody(b []byte) (string, error) {
	hashed := crypto.Keccak256Hash(b).Hex()
	sig, err := crypto.Sign(accounts.TextHash([]byte(hashed)), c.authKey)
	if err != nil {
		return "", err
	}
	return c.authAddr.Hex() + ":" + hexutil.Encode(sig), nil
}

// call performs one JSON-RPC request. Transport problems come back wrapped
// in ErrRelayUnavailable, JSON-RPC errors as *bundlecore.RelayRejection.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcReq{Jsonrpc: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return fmt.Errorf("%s: encode: %w", method, err)
	}
	sig, err := c.signBody(body)
	if err != nil {
		return fmt.Errorf("%s: sign body: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RelayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "flashbundle/1.0")
	req.Header.Set("X-Flashbots-Signature", sig)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", bundlecore.ErrRelayUnavailable, method, err)
	}
	defer resp.Body.Close()
	rb, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: read body: %w", bundlecore.ErrRelayUnavailable, method, err)
	}

	var jr rpcResp
	if err := json.Unmarshal(rb, &jr); err != nil {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s: http %d", bundlecore.ErrRelayUnavailable, method, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return &bundlecore.RelayRejection{Code: resp.StatusCode, Message: strings.TrimSpace(string(rb))}
		}
		return fmt.Errorf("%w: %s: non-JSON response", bundlecore.ErrRelayUnavailable, method)
	}
	if jr.Error != nil {
		return &bundlecore.RelayRejection{Code: jr.Error.Code, Message: jr.Error.Message}
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s: http %d", bundlecore.ErrRelayUnavailable, method, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return &bundlecore.RelayRejection{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if out == nil || len(jr.Result) == 0 || string(jr.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(jr.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
