package session

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wallet-session-api/internal/events"
	"wallet-session-api/internal/ledger"
	"wallet-session-api/internal/model"
	"wallet-session-api/internal/storage"
	"wallet-session-api/internal/wallet"
)

// WalletAbsentNotice is shown to the user when no wallet is configured.
const WalletAbsentNotice = "Please install a wallet"

// TimestampLayout renders transfer timestamps for display.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Options carries the collaborators of a Manager. A nil Provider means no
// wallet is installed; a nil Ledger means the contract cannot be reached.
type Options struct {
	Provider wallet.Provider
	Ledger   ledger.Client
	Store    storage.CountStore
	Events   events.Publisher
	Notifier Notifier
	Logger   *zap.Logger
	Location *time.Location
}

// Manager mediates wallet authorization, transfer history and transfer
// submission for a single user session.
type Manager struct {
	provider wallet.Provider
	ledger   ledger.Client
	store    storage.CountStore
	events   events.Publisher
	notifier Notifier
	logger   *zap.Logger
	location *time.Location

	mu        sync.Mutex
	session   model.Session
	form      model.TransferForm
	transfers []model.TransferRecord

	inFlight atomic.Bool
}

// Snapshot is a copy of the manager state for the UI layer.
type Snapshot struct {
	Session   model.Session
	Form      model.TransferForm
	Transfers []model.TransferRecord
}

// New builds a Manager and reads the last known transfer count from the
// store.
func New(opts Options) *Manager {
	m := &Manager{
		provider:  opts.Provider,
		ledger:    opts.Ledger,
		store:     opts.Store,
		events:    opts.Events,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		location:  opts.Location,
		transfers: []model.TransferRecord{},
	}
	if m.events == nil {
		m.events = events.Nop{}
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.notifier == nil {
		m.notifier = NotifierFunc(func(msg string) {
			m.logger.Warn("notice", zap.String("message", msg))
		})
	}
	if m.location == nil {
		m.location = time.Local
	}

	if m.store != nil {
		count, ok, err := m.store.LoadCount()
		switch {
		case err != nil:
			m.logger.Warn("read stored transaction count", zap.Error(err))
		case ok:
			m.session.TransactionCount = count
		}
	}
	return m
}

// Mount runs the startup probes. The wallet probe and the count refresh
// touch disjoint state and run concurrently.
func (m *Manager) Mount(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return m.ProbeExistingSession(ctx) })
	g.Go(func() error {
		_, err := m.RefreshCount(ctx)
		return err
	})
	return g.Wait()
}

func (m *Manager) walletAbsent(op string) error {
	m.notifier.Notify(WalletAbsentNotice)
	return newError(KindWalletAbsent, op, nil)
}

// ProbeExistingSession looks for an already authorized account and, when
// one exists, loads the transfer history.
func (m *Manager) ProbeExistingSession(ctx context.Context) error {
	const op = "probeExistingSession"
	if m.provider == nil {
		return m.walletAbsent(op)
	}

	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		m.logger.Error("list authorized accounts", zap.Error(err))
		return remoteError(op, err)
	}
	m.logger.Info("authorized accounts", zap.Int("count", len(accounts)))

	if len(accounts) == 0 {
		m.logger.Info("no accounts found")
		return nil
	}

	m.setAccount(accounts[0])
	// History failures are logged by LoadHistory and do not fail the probe.
	_, _ = m.LoadHistory(ctx)
	return nil
}

// RequestConnection asks the wallet to authorize an account, which may
// prompt the user.
func (m *Manager) RequestConnection(ctx context.Context) (common.Address, error) {
	const op = "requestConnection"
	if m.provider == nil {
		return common.Address{}, m.walletAbsent(op)
	}

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		m.logger.Error("request account authorization", zap.Error(err))
		return common.Address{}, remoteError(op, err)
	}
	if len(accounts) == 0 {
		m.logger.Error("request account authorization", zap.Error(errNoAccounts))
		return common.Address{}, newError(KindRemoteCallFailed, op, errNoAccounts)
	}

	m.setAccount(accounts[0])
	m.publish(ctx, events.Event{Type: events.TypeConnected, Account: accounts[0].Hex()})
	return accounts[0], nil
}

// LoadHistory replaces the transfer list with the ledger contents. On
// failure the previous list is kept.
func (m *Manager) LoadHistory(ctx context.Context) ([]model.TransferRecord, error) {
	const op = "loadHistory"
	if m.provider == nil || m.ledger == nil {
		return nil, m.walletAbsent(op)
	}

	raw, err := m.ledger.GetAllTransactions(ctx)
	if err != nil {
		m.logger.Error("load transfer history", zap.Error(err))
		return nil, remoteError(op, err)
	}

	records := make([]model.TransferRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, m.toRecord(r))
	}
	m.logger.Info("loaded transfer history", zap.Int("transfers", len(records)))

	m.mu.Lock()
	m.transfers = records
	m.mu.Unlock()
	return copyRecords(records), nil
}

// RefreshCount reads the transfer count from the ledger and persists it.
// The in-memory session count is left untouched.
func (m *Manager) RefreshCount(ctx context.Context) (int64, error) {
	const op = "refreshCount"
	if m.ledger == nil {
		return 0, newError(KindWalletAbsent, op, nil)
	}

	count, err := m.ledger.GetTransactionCount(ctx)
	if err != nil {
		m.logger.Error("read transaction count", zap.Error(err))
		return 0, remoteError(op, err)
	}
	if !count.IsInt64() {
		return 0, newError(KindConversionFailed, op, fmt.Errorf("transaction count %s overflows int64", count))
	}

	if m.store != nil {
		if err := m.store.SaveCount(count.Int64()); err != nil {
			m.logger.Error("persist transaction count", zap.Error(err))
			return 0, newError(KindStorageFailed, op, err)
		}
	}
	return count.Int64(), nil
}

// UpdateFormField merges one named field into the transfer form.
func (m *Manager) UpdateFormField(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.form.Set(name, value) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// SubmitTransfer sends the form amount to the form recipient, records the
// transfer on the ledger and waits for it to be mined. Only one submission
// runs at a time.
func (m *Manager) SubmitTransfer(ctx context.Context) (common.Hash, error) {
	const op = "submitTransfer"
	if m.provider == nil || m.ledger == nil {
		return common.Hash{}, m.walletAbsent(op)
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		return common.Hash{}, newError(KindSubmissionInProgress, op, nil)
	}
	defer m.inFlight.Store(false)

	m.mu.Lock()
	form := m.form
	account := m.session.Account
	m.mu.Unlock()

	if account == nil {
		return common.Hash{}, newError(KindNotConnected, op, nil)
	}
	from := *account

	if !common.IsHexAddress(form.AddressTo) {
		return common.Hash{}, newError(KindConversionFailed, op, fmt.Errorf("invalid recipient address %q", form.AddressTo))
	}
	to := common.HexToAddress(form.AddressTo)

	amount, err := ledger.ParseEther(form.Amount)
	if err != nil {
		return common.Hash{}, newError(KindConversionFailed, op, err)
	}

	gas := wallet.TransferGas
	if _, err := m.provider.SendTransaction(ctx, wallet.SendRequest{
		From:  from,
		To:    &to,
		Gas:   &gas,
		Value: (*hexutil.Big)(amount),
	}); err != nil {
		m.logger.Error("send value transfer", zap.Error(err))
		return common.Hash{}, remoteError(op, err)
	}

	pending, err := m.ledger.AddToBlockchain(ctx, from, to, amount, form.Message, form.Keyword)
	if err != nil {
		m.logger.Error("record transfer on ledger", zap.Error(err))
		return common.Hash{}, remoteError(op, err)
	}
	hash := pending.Hash()

	m.setSubmitting(true)
	m.logger.Info("transfer pending", zap.String("hash", hash.Hex()))
	m.publish(ctx, m.transferEvent(events.TypeTransferBroadcast, from, hash, form))

	_, err = pending.Wait(ctx)
	m.setSubmitting(false)
	if err != nil {
		m.logger.Error("wait for transfer", zap.String("hash", hash.Hex()), zap.Error(err))
		return hash, remoteError(op, err)
	}
	m.logger.Info("transfer confirmed", zap.String("hash", hash.Hex()))
	m.publish(ctx, m.transferEvent(events.TypeTransferConfirmed, from, hash, form))

	count, err := m.ledger.GetTransactionCount(ctx)
	if err != nil {
		m.logger.Error("read transaction count", zap.Error(err))
		return hash, remoteError(op, err)
	}
	m.mu.Lock()
	m.session.TransactionCount = count.Int64()
	m.mu.Unlock()

	return hash, nil
}

func (m *Manager) Session() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	if s.Account != nil {
		a := *s.Account
		s.Account = &a
	}
	return s
}

func (m *Manager) Form() model.TransferForm {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

func (m *Manager) Transfers() []model.TransferRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRecords(m.transfers)
}

func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		Session:   m.Session(),
		Form:      m.Form(),
		Transfers: m.Transfers(),
	}
}

func (m *Manager) setAccount(a common.Address) {
	m.mu.Lock()
	m.session.Account = &a
	m.mu.Unlock()
}

func (m *Manager) setSubmitting(v bool) {
	m.mu.Lock()
	m.session.IsSubmitting = v
	m.mu.Unlock()
}

func (m *Manager) toRecord(r model.RawTransfer) model.TransferRecord {
	return model.TransferRecord{
		AddressFrom: r.Sender.Hex(),
		AddressTo:   r.Receiver.Hex(),
		Timestamp:   FormatTimestamp(r.Timestamp, m.location),
		Amount:      ledger.FormatEther(r.Amount),
		Message:     r.Message,
		Keyword:     r.Keyword,
	}
}

func (m *Manager) transferEvent(t events.Type, from common.Address, hash common.Hash, form model.TransferForm) events.Event {
	return events.Event{
		Type:      t,
		Account:   from.Hex(),
		TxHash:    hash.Hex(),
		AddressTo: form.AddressTo,
		Amount:    form.Amount,
		Message:   form.Message,
		Keyword:   form.Keyword,
		At:        time.Now(),
	}
}

func (m *Manager) publish(ctx context.Context, e events.Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if err := m.events.Publish(ctx, e); err != nil {
		m.logger.Warn("publish event", zap.String("type", string(e.Type)), zap.Error(err))
	}
}

// FormatTimestamp renders on-chain seconds as a local date and time.
func FormatTimestamp(seconds *big.Int, loc *time.Location) string {
	if seconds == nil {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(seconds.Int64(), 0).In(loc).Format(TimestampLayout)
}

func copyRecords(records []model.TransferRecord) []model.TransferRecord {
	out := make([]model.TransferRecord, len(records))
	copy(out, records)
	return out
}
