package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"wallet-session-api/internal/model"
	"wallet-session-api/internal/wallet"
)

const DefaultPollInterval = 2 * time.Second

var ErrReverted = errors.New("transaction reverted")

// Client is the typed proxy for the ledger contract entry points.
type Client interface {
	GetAllTransactions(ctx context.Context) ([]model.RawTransfer, error)
	GetTransactionCount(ctx context.Context) (*big.Int, error)
	AddToBlockchain(ctx context.Context, from, to common.Address, amount *big.Int, message, keyword string) (PendingTx, error)
}

// PendingTx is a submitted but unconfirmed contract transaction.
type PendingTx interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*types.Receipt, error)
}

// Backend is the read side of the chain connection. *ethclient.Client
// satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Sender submits transactions for the wallet to sign.
type Sender interface {
	SendTransaction(ctx context.Context, req wallet.SendRequest) (common.Hash, error)
}

type Contract struct {
	address common.Address
	abi     abi.ABI
	backend Backend
	sender  Sender
	logger  *zap.Logger

	PollInterval time.Duration
}

func NewContract(address common.Address, backend Backend, sender Sender, logger *zap.Logger) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(TransactionsABI))
	if err != nil {
		return nil, fmt.Errorf("parse ledger abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contract{
		address:      address,
		abi:          parsed,
		backend:      backend,
		sender:       sender,
		logger:       logger,
		PollInterval: DefaultPollInterval,
	}, nil
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) call(ctx context.Context, method string) ([]interface{}, error) {
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func (c *Contract) GetAllTransactions(ctx context.Context) ([]model.RawTransfer, error) {
	values, err := c.call(ctx, "getAllTransactions")
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(values[0], new([]model.RawTransfer)).(*[]model.RawTransfer)
	return raw, nil
}

func (c *Contract) GetTransactionCount(ctx context.Context) (*big.Int, error) {
	values, err := c.call(ctx, "getTransactionCount")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(values[0], new(*big.Int)).(**big.Int), nil
}

func (c *Contract) AddToBlockchain(ctx context.Context, from, to common.Address, amount *big.Int, message, keyword string) (PendingTx, error) {
	data, err := c.abi.Pack("addToBlockchain", to, amount, message, keyword)
	if err != nil {
		return nil, fmt.Errorf("pack addToBlockchain: %w", err)
	}
	hash, err := c.sender.SendTransaction(ctx, wallet.SendRequest{
		From: from,
		To:   &c.address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("send addToBlockchain: %w", err)
	}
	return &pendingTx{
		hash:     hash,
		backend:  c.backend,
		interval: c.PollInterval,
		logger:   c.logger,
	}, nil
}

type pendingTx struct {
	hash     common.Hash
	backend  Backend
	interval time.Duration
	logger   *zap.Logger
}

func (p *pendingTx) Hash() common.Hash {
	return p.hash
}

// Wait polls for the receipt until the transaction is mined or ctx ends.
func (p *pendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	interval := p.interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := p.backend.TransactionReceipt(ctx, p.hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, fmt.Errorf("%w: %s", ErrReverted, p.hash.Hex())
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", p.hash.Hex(), err)
		}
		p.logger.Debug("transaction not yet mined", zap.String("hash", p.hash.Hex()))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ Client = (*Contract)(nil)
