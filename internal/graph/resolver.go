package graph

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"wallet-session-api/internal/model"
	"wallet-session-api/internal/session"
)

// Session is the part of the session manager the UI layer drives.
type Session interface {
	RequestConnection(ctx context.Context) (common.Address, error)
	UpdateFormField(name, value string) error
	SubmitTransfer(ctx context.Context) (common.Hash, error)
	LoadHistory(ctx context.Context) ([]model.TransferRecord, error)
	Snapshot() session.Snapshot
}

type Resolver struct {
	Session Session
}

type SessionView struct {
	Account          *string `json:"account"`
	IsSubmitting     bool    `json:"isSubmitting"`
	TransactionCount int     `json:"transactionCount"`
}

type TransferView struct {
	AddressFrom string `json:"addressFrom"`
	AddressTo   string `json:"addressTo"`
	Timestamp   string `json:"timestamp"`
	Amount      string `json:"amount"`
	Message     string `json:"message"`
	Keyword     string `json:"keyword"`
}

type SubmitResult struct {
	TxHash  string       `json:"txHash"`
	Session *SessionView `json:"session"`
}

type SetFormFieldArgs struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (r *Resolver) CurrentSession() *SessionView {
	return toSessionView(r.Session.Snapshot().Session)
}

func (r *Resolver) Form() model.TransferForm {
	return r.Session.Snapshot().Form
}

func (r *Resolver) Transfers() []TransferView {
	return toTransferViews(r.Session.Snapshot().Transfers)
}

func (r *Resolver) Connect(ctx context.Context) (*SessionView, error) {
	if _, err := r.Session.RequestConnection(ctx); err != nil {
		return nil, err
	}
	return r.CurrentSession(), nil
}

func (r *Resolver) SetFormField(args SetFormFieldArgs) (model.TransferForm, error) {
	if err := r.Session.UpdateFormField(args.Name, args.Value); err != nil {
		return model.TransferForm{}, err
	}
	return r.Form(), nil
}

func (r *Resolver) SubmitTransfer(ctx context.Context) (*SubmitResult, error) {
	hash, err := r.Session.SubmitTransfer(ctx)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{
		TxHash:  hash.Hex(),
		Session: r.CurrentSession(),
	}, nil
}

func (r *Resolver) RefreshTransfers(ctx context.Context) ([]TransferView, error) {
	records, err := r.Session.LoadHistory(ctx)
	if err != nil {
		return nil, err
	}
	return toTransferViews(records), nil
}

func toSessionView(s model.Session) *SessionView {
	v := &SessionView{
		IsSubmitting:     s.IsSubmitting,
		TransactionCount: int(s.TransactionCount),
	}
	if s.Account != nil {
		account := s.Account.Hex()
		v.Account = &account
	}
	return v
}

func toTransferViews(records []model.TransferRecord) []TransferView {
	views := make([]TransferView, 0, len(records))
	for _, r := range records {
		views = append(views, TransferView{
			AddressFrom: r.AddressFrom,
			AddressTo:   r.AddressTo,
			Timestamp:   r.Timestamp,
			Amount:      r.Amount.String(),
			Message:     r.Message,
			Keyword:     r.Keyword,
		})
	}
	return views
}
