// Package chain wraps the execution node connection: block headers, nonces
// and the single shared newHeads subscription.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Header is the part of a block header the submitter cares about.
type Header struct {
	Number  uint64
	Hash    common.Hash
	Time    uint64
	BaseFee *big.Int // nil on chains without EIP-1559
}

func headerFromGeth(h *types.Header) Header {
	out := Header{Hash: h.Hash(), Time: h.Time}
	if h.Number != nil {
		out.Number = h.Number.Uint64()
	}
	if h.BaseFee != nil {
		out.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	return out
}

type Client struct {
	ec *ethclient.Client
}

// Dial connects to a websocket (or IPC) endpoint; newHeads needs a
// persistent connection.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	ec, err := ethclient.DialContext(dialCtx, url)
	if err != nil {
		return nil, fmt.Errorf("dial node: %w", err)
	}
	return &Client{ec: ec}, nil
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) { return c.ec.ChainID(ctx) }

// NonceAt returns the account's transaction count at the latest block.
func (c *Client) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.ec.NonceAt(ctx, account, nil)
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.ec.BalanceAt(ctx, account, nil)
}

func (c *Client) LatestHeader(ctx context.Context) (Header, error) {
	h, err := c.ec.HeaderByNumber(ctx, nil)
	if err != nil {
		return Header{}, err
	}
	return headerFromGeth(h), nil
}

// TransactionHashes lists the hashes of the transactions mined in a block.
func (c *Client) TransactionHashes(ctx context.Context, number uint64) ([]common.Hash, error) {
	b, err := c.ec.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", number, err)
	}
	txs := b.Transactions()
	out := make([]common.Hash, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash()
	}
	return out, nil
}

// Watcher opens a head watcher on this connection.
func (c *Client) Watcher() *Watcher { return NewWatcher(c.ec) }

func (c *Client) Close() { c.ec.Close() }
