package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// TransferGas is the gas limit of a plain value transfer (0x5208).
const TransferGas hexutil.Uint64 = 21000

// userRejectedCode is the EIP-1193 "User Rejected Request" error code.
const userRejectedCode = 4001

// Provider is the account and request API of a wallet holding the user keys.
type Provider interface {
	Accounts(ctx context.Context) ([]common.Address, error)
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	SendTransaction(ctx context.Context, req SendRequest) (common.Hash, error)
}

// SendRequest is the eth_sendTransaction parameter object. The wallet signs
// and broadcasts it.
type SendRequest struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

type RPCProvider struct {
	c *rpc.Client
}

func NewRPCProvider(c *rpc.Client) *RPCProvider {
	return &RPCProvider{c: c}
}

// Dial connects to a wallet JSON-RPC endpoint (http, ws or ipc).
func Dial(ctx context.Context, rawURL string) (*RPCProvider, error) {
	c, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial wallet %s: %w", rawURL, err)
	}
	return NewRPCProvider(c), nil
}

// Client exposes the underlying RPC client so that contract reads can share
// the wallet connection.
func (p *RPCProvider) Client() *rpc.Client {
	return p.c
}

func (p *RPCProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.c.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.c.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) SendTransaction(ctx context.Context, req SendRequest) (common.Hash, error) {
	var hash common.Hash
	if err := p.c.CallContext(ctx, &hash, "eth_sendTransaction", req); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (p *RPCProvider) Close() {
	p.c.Close()
}

// IsUserRejection reports whether err is the wallet refusing a request on
// the user's behalf.
func IsUserRejection(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == userRejectedCode
	}
	return false
}

var _ Provider = (*RPCProvider)(nil)
