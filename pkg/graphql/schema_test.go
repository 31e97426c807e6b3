package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"wallet-session-api/internal/graph"
	"wallet-session-api/internal/model"
	"wallet-session-api/internal/session"
)

type graphQLResponse struct {
	Data   map[string]interface{}   `json:"data,omitempty"`
	Errors []map[string]interface{} `json:"errors,omitempty"`
}

// stubSession records the calls made by the resolvers.
type stubSession struct {
	snapshot   session.Snapshot
	connectErr error
	submitErr  error
	submitHash common.Hash
	history    []model.TransferRecord
	submits    int
}

func (s *stubSession) RequestConnection(ctx context.Context) (common.Address, error) {
	if s.connectErr != nil {
		return common.Address{}, s.connectErr
	}
	a := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	s.snapshot.Session.Account = &a
	return a, nil
}

func (s *stubSession) UpdateFormField(name, value string) error {
	if !s.snapshot.Form.Set(name, value) {
		return session.ErrUnknownField
	}
	return nil
}

func (s *stubSession) SubmitTransfer(ctx context.Context) (common.Hash, error) {
	s.submits++
	if s.submitErr != nil {
		return common.Hash{}, s.submitErr
	}
	s.snapshot.Session.TransactionCount++
	return s.submitHash, nil
}

func (s *stubSession) LoadHistory(ctx context.Context) ([]model.TransferRecord, error) {
	s.snapshot.Transfers = s.history
	return s.history, nil
}

func (s *stubSession) Snapshot() session.Snapshot {
	return s.snapshot
}

type SchemaTestSuite struct {
	suite.Suite
	session *stubSession
	server  *httptest.Server
}

func (s *SchemaTestSuite) SetupTest() {
	s.session = &stubSession{}
	s.server = httptest.NewServer(NewHandler(&graph.Resolver{Session: s.session}, nil))
}

func (s *SchemaTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *SchemaTestSuite) do(query string) graphQLResponse {
	reqBody, _ := json.Marshal(map[string]string{"query": query})
	resp, err := http.Post(s.server.URL, "application/json", bytes.NewBuffer(reqBody))
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	var result graphQLResponse
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func (s *SchemaTestSuite) TestSessionStartsDisconnected() {
	result := s.do(`{ session { account isSubmitting transactionCount } }`)
	assert.Nil(s.T(), result.Errors)

	sess := result.Data["session"].(map[string]interface{})
	assert.Nil(s.T(), sess["account"])
	assert.Equal(s.T(), false, sess["isSubmitting"])
	assert.Equal(s.T(), float64(0), sess["transactionCount"])
}

func (s *SchemaTestSuite) TestConnect() {
	result := s.do(`mutation { connect { account } }`)
	assert.Nil(s.T(), result.Errors)

	sess := result.Data["connect"].(map[string]interface{})
	assert.Equal(s.T(), common.HexToAddress("0x00000000000000000000000000000000000000a1").Hex(), sess["account"])
}

func (s *SchemaTestSuite) TestConnectWalletAbsent() {
	s.session.connectErr = session.ErrWalletAbsent

	result := s.do(`mutation { connect { account } }`)
	require.Len(s.T(), result.Errors, 1)
	assert.Contains(s.T(), result.Errors[0]["message"], "wallet absent")
}

func (s *SchemaTestSuite) TestSetFormField() {
	s.do(`mutation { setFormField(name: "amount", value: "1.5") { amount } }`)
	result := s.do(`mutation { setFormField(name: "keyword", value: "x") { addressTo amount keyword message } }`)
	assert.Nil(s.T(), result.Errors)

	form := result.Data["setFormField"].(map[string]interface{})
	assert.Equal(s.T(), map[string]interface{}{
		"addressTo": "",
		"amount":    "1.5",
		"keyword":   "x",
		"message":   "",
	}, form)
}

func (s *SchemaTestSuite) TestSetFormFieldUnknown() {
	result := s.do(`mutation { setFormField(name: "gas", value: "1") { amount } }`)
	assert.Len(s.T(), result.Errors, 1)
}

func (s *SchemaTestSuite) TestSubmitTransfer() {
	s.session.submitHash = common.HexToHash("0xbeef")

	result := s.do(`mutation { submitTransfer { txHash session { isSubmitting transactionCount } } }`)
	assert.Nil(s.T(), result.Errors)

	submit := result.Data["submitTransfer"].(map[string]interface{})
	assert.Equal(s.T(), s.session.submitHash.Hex(), submit["txHash"])
	sess := submit["session"].(map[string]interface{})
	assert.Equal(s.T(), false, sess["isSubmitting"])
	assert.Equal(s.T(), float64(1), sess["transactionCount"])
	assert.Equal(s.T(), 1, s.session.submits)
}

func (s *SchemaTestSuite) TestSubmitTransferInProgress() {
	s.session.submitErr = session.ErrSubmissionInProgress

	result := s.do(`mutation { submitTransfer { txHash } }`)
	require.Len(s.T(), result.Errors, 1)
	assert.Contains(s.T(), result.Errors[0]["message"], "submission in progress")
}

func (s *SchemaTestSuite) TestRefreshAndListTransfers() {
	s.session.history = []model.TransferRecord{{
		AddressFrom: "0xA1",
		AddressTo:   "0xB2",
		Timestamp:   "11/14/2023, 10:13:20 PM",
		Amount:      decimal.RequireFromString("2.5"),
		Message:     "rent",
		Keyword:     "house",
	}}

	result := s.do(`mutation { refreshTransfers { amount } }`)
	assert.Nil(s.T(), result.Errors)

	result = s.do(`{ transfers { addressFrom addressTo timestamp amount message keyword } }`)
	assert.Nil(s.T(), result.Errors)
	transfers := result.Data["transfers"].([]interface{})
	require.Len(s.T(), transfers, 1)
	assert.Equal(s.T(), map[string]interface{}{
		"addressFrom": "0xA1",
		"addressTo":   "0xB2",
		"timestamp":   "11/14/2023, 10:13:20 PM",
		"amount":      "2.5",
		"message":     "rent",
		"keyword":     "house",
	}, transfers[0])
}

func TestSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}

func TestHandlerRejectsBadBody(t *testing.T) {
	handler := NewHandler(&graph.Resolver{Session: &stubSession{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerPreflight(t *testing.T) {
	handler := NewHandler(&graph.Resolver{Session: &stubSession{}}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
