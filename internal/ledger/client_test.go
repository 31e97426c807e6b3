package ledger

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-session-api/internal/model"
	"wallet-session-api/internal/wallet"
)

var (
	contractAddr = common.HexToAddress("0x00000000000000000000000000000000000c0de1")
	alice        = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob          = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type fakeBackend struct {
	mu        sync.Mutex
	abi       abi.ABI
	transfers []model.RawTransfer
	count     *big.Int
	callErr   error

	// receipts are handed out in order, one per TransactionReceipt call.
	receipts []*types.Receipt
	polls    int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(TransactionsABI))
	require.NoError(t, err)
	return &fakeBackend{abi: parsed, count: big.NewInt(0)}
}

func (b *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.callErr != nil {
		return nil, b.callErr
	}
	method, err := b.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "getAllTransactions":
		return method.Outputs.Pack(b.transfers)
	case "getTransactionCount":
		return method.Outputs.Pack(b.count)
	}
	return nil, errors.New("unexpected method " + method.Name)
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.polls++
	if len(b.receipts) == 0 {
		return nil, ethereum.NotFound
	}
	r := b.receipts[0]
	b.receipts = b.receipts[1:]
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

type fakeSender struct {
	reqs []wallet.SendRequest
	hash common.Hash
	err  error
}

func (s *fakeSender) SendTransaction(ctx context.Context, req wallet.SendRequest) (common.Hash, error) {
	s.reqs = append(s.reqs, req)
	return s.hash, s.err
}

func newTestContract(t *testing.T, backend *fakeBackend, sender *fakeSender) *Contract {
	t.Helper()
	c, err := NewContract(contractAddr, backend, sender, nil)
	require.NoError(t, err)
	c.PollInterval = time.Millisecond
	return c
}

func TestGetAllTransactions(t *testing.T) {
	backend := newFakeBackend(t)
	backend.transfers = []model.RawTransfer{
		{
			Sender:    alice,
			Receiver:  bob,
			Amount:    big.NewInt(2500000000000000000),
			Message:   "lunch",
			Timestamp: big.NewInt(1700000000),
			Keyword:   "pizza",
		},
	}
	c := newTestContract(t, backend, &fakeSender{})

	got, err := c.GetAllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice, got[0].Sender)
	assert.Equal(t, bob, got[0].Receiver)
	assert.Equal(t, 0, got[0].Amount.Cmp(big.NewInt(2500000000000000000)))
	assert.Equal(t, int64(1700000000), got[0].Timestamp.Int64())
	assert.Equal(t, "lunch", got[0].Message)
	assert.Equal(t, "pizza", got[0].Keyword)
}

func TestGetAllTransactionsEmptyLedger(t *testing.T) {
	c := newTestContract(t, newFakeBackend(t), &fakeSender{})

	got, err := c.GetAllTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetTransactionCount(t *testing.T) {
	backend := newFakeBackend(t)
	backend.count = big.NewInt(7)
	c := newTestContract(t, backend, &fakeSender{})

	got, err := c.GetTransactionCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Int64())
}

func TestReadFailureIsWrapped(t *testing.T) {
	backend := newFakeBackend(t)
	backend.callErr = errors.New("connection refused")
	c := newTestContract(t, backend, &fakeSender{})

	_, err := c.GetTransactionCount(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.callErr)
}

func TestAddToBlockchainSendsThroughWallet(t *testing.T) {
	backend := newFakeBackend(t)
	sender := &fakeSender{hash: common.HexToHash("0xabc")}
	c := newTestContract(t, backend, sender)

	pending, err := c.AddToBlockchain(context.Background(), alice, bob, big.NewInt(1000), "hi", "wave")
	require.NoError(t, err)
	assert.Equal(t, sender.hash, pending.Hash())

	require.Len(t, sender.reqs, 1)
	req := sender.reqs[0]
	assert.Equal(t, alice, req.From)
	require.NotNil(t, req.To)
	assert.Equal(t, contractAddr, *req.To)
	assert.True(t, bytes.Equal(backend.abi.Methods["addToBlockchain"].ID, req.Data[:4]))

	args, err := backend.abi.Methods["addToBlockchain"].Inputs.Unpack(req.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, bob, args[0])
	assert.Equal(t, int64(1000), args[1].(*big.Int).Int64())
	assert.Equal(t, "hi", args[2])
	assert.Equal(t, "wave", args[3])
}

func TestAddToBlockchainSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("rejected")}
	c := newTestContract(t, newFakeBackend(t), sender)

	_, err := c.AddToBlockchain(context.Background(), alice, bob, big.NewInt(1), "", "")
	assert.ErrorIs(t, err, sender.err)
}

func TestWaitPollsUntilMined(t *testing.T) {
	backend := newFakeBackend(t)
	backend.receipts = []*types.Receipt{nil, nil, {Status: types.ReceiptStatusSuccessful}}
	c := newTestContract(t, backend, &fakeSender{hash: common.HexToHash("0x1")})

	pending, err := c.AddToBlockchain(context.Background(), alice, bob, big.NewInt(1), "", "")
	require.NoError(t, err)

	receipt, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, 3, backend.polls)
}

func TestWaitReverted(t *testing.T) {
	backend := newFakeBackend(t)
	backend.receipts = []*types.Receipt{{Status: types.ReceiptStatusFailed}}
	c := newTestContract(t, backend, &fakeSender{hash: common.HexToHash("0x2")})

	pending, err := c.AddToBlockchain(context.Background(), alice, bob, big.NewInt(1), "", "")
	require.NoError(t, err)

	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrReverted)
}

func TestWaitHonoursContext(t *testing.T) {
	c := newTestContract(t, newFakeBackend(t), &fakeSender{hash: common.HexToHash("0x3")})

	pending, err := c.AddToBlockchain(context.Background(), alice, bob, big.NewInt(1), "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pending.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
