package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/SscSPs/fleet_finance_engine/internal/core/services"
	"github.com/SscSPs/fleet_finance_engine/internal/dto"
	"github.com/SscSPs/fleet_finance_engine/internal/handlers"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/config"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/metrics"
	"github.com/SscSPs/fleet_finance_engine/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	testCompany = "company-1"
	companyBase = "/api/v1/companies/" + testCompany
)

var fixedNow = time.Date(2025, 3, 31, 9, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type HandlersTestSuite struct {
	suite.Suite
	router    *gin.Engine
	store     *memory.Store
	jwtSecret string
	token     string
}

// generateTestToken creates a signed JWT for testing.
func (suite *HandlersTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "engine-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.token = suite.generateTestToken("operator-1")
	suite.store = memory.NewStore()

	cfg := &config.Config{
		JWTSecret:                 suite.jwtSecret,
		StoreCallTimeout:          time.Second,
		StoreRetryAttempts:        1,
		StoreRetryInitialInterval: time.Millisecond,
		EntryNumberPrefix:         "JE-",
		EntryNumberWidth:          6,
		CurrencyPrecision:         3,
		AccountCodes:              domain.DefaultAccountCodes(),
	}
	m := metrics.New()
	container := services.NewServiceContainer(cfg, suite.store.Provider(),
		services.WithMetrics(m),
		services.WithClock(func() time.Time { return fixedNow }),
	)

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, container, m)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if suite.token != "" {
		req.Header.Set("Authorization", "Bearer "+suite.token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder, into any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), into), w.Body.String())
}

func payrollEnvelope(id string) map[string]any {
	return map[string]any{
		"type": "payroll",
		"payload": map[string]any{
			"payrollID":    id,
			"employeeName": "Ali",
			"period":       "2025-03",
			"date":         "2025-03-31T00:00:00Z",
			"basicSalary":  "3000",
			"allowances":   "500",
			"deductions":   "200",
			"status":       "paid",
		},
	}
}

func (suite *HandlersTestSuite) seedChart() {
	w := suite.do(http.MethodPost, companyBase+"/accounts/seed", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

// --- Test Cases ---

func (suite *HandlersTestSuite) TestHealthAndMetricsArePublic() {
	suite.token = ""

	w := suite.do(http.MethodGet, "/health", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())

	w = suite.do(http.MethodGet, "/metrics", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestRequiresBearerToken() {
	suite.token = ""
	w := suite.do(http.MethodPost, companyBase+"/ledger/events", payrollEnvelope("pr-1"))
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestSeedAndMissingAccounts() {
	w := suite.do(http.MethodGet, companyBase+"/accounts/missing", nil)
	suite.Equal(http.StatusOK, w.Code)
	var before dto.MissingAccountsResponse
	suite.decode(w, &before)
	suite.False(before.Ready)
	suite.Len(before.MissingCodes, len(domain.DefaultAccountCodes()))

	w = suite.do(http.MethodPost, companyBase+"/accounts/seed", nil)
	suite.Equal(http.StatusOK, w.Code)
	var seeded dto.SeedChartResponse
	suite.decode(w, &seeded)
	suite.Len(seeded.Created, len(domain.DefaultAccountCodes()))

	w = suite.do(http.MethodGet, companyBase+"/accounts/missing", nil)
	var after dto.MissingAccountsResponse
	suite.decode(w, &after)
	suite.True(after.Ready)
	suite.Empty(after.MissingCodes)
}

func (suite *HandlersTestSuite) TestPostEvent_CreatesThenSkips() {
	suite.seedChart()

	w := suite.do(http.MethodPost, companyBase+"/ledger/events", payrollEnvelope("pr-1"))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.PostEventResponse
	suite.decode(w, &created)
	suite.False(created.Skipped)
	suite.Equal("JE-000001", created.Entry.EntryNumber)
	suite.Equal(domain.EntryPosted, created.Entry.Status)
	suite.True(created.Entry.TotalDebit.Equal(d("3500")))
	suite.True(created.Entry.TotalDebit.Equal(created.Entry.TotalCredit))

	w = suite.do(http.MethodPost, companyBase+"/ledger/events", payrollEnvelope("pr-1"))
	suite.Equal(http.StatusOK, w.Code)
	var again dto.PostEventResponse
	suite.decode(w, &again)
	suite.True(again.Skipped)
	suite.Equal(created.Entry.EntryID, again.Entry.EntryID)

	w = suite.do(http.MethodGet, companyBase+"/ledger/entries/"+created.Entry.EntryID, nil)
	suite.Equal(http.StatusOK, w.Code)
	var fetched dto.JournalEntryResponse
	suite.decode(w, &fetched)
	suite.Len(fetched.Lines, 4)
}

func (suite *HandlersTestSuite) TestPostEvent_MissingAccounts() {
	w := suite.do(http.MethodPost, companyBase+"/ledger/events", payrollEnvelope("pr-1"))
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error        string   `json:"error"`
		MissingCodes []string `json:"missingCodes"`
	}
	suite.decode(w, &body)
	suite.Contains(body.MissingCodes, "5110")
	suite.Empty(suite.store.Entries(testCompany))
}

func (suite *HandlersTestSuite) TestPostEvent_RejectsBadInput() {
	suite.seedChart()

	w := suite.do(http.MethodPost, companyBase+"/ledger/events", map[string]any{"type": "refund", "payload": map[string]any{}})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, companyBase+"/ledger/events", map[string]any{"payload": map[string]any{}})
	suite.Equal(http.StatusBadRequest, w.Code)

	env := payrollEnvelope("pr-1")
	env["onDuplicate"] = "overwrite"
	w = suite.do(http.MethodPost, companyBase+"/ledger/events", env)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestPostBatch_ReportsFailuresAndContinues() {
	suite.seedChart()

	badVehicle := map[string]any{
		"type": "vehicle_purchase",
		"payload": map[string]any{
			"vehicleID":     "veh-1",
			"date":          "2025-03-01T00:00:00Z",
			"purchasePrice": "100000",
			"downPayment":   "20000",
			"loanAmount":    "70000",
		},
	}
	body := map[string]any{"events": []any{payrollEnvelope("pr-1"), badVehicle, payrollEnvelope("pr-2")}}

	w := suite.do(http.MethodPost, companyBase+"/ledger/events/batch", body)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp dto.PostBatchResponse
	suite.decode(w, &resp)
	suite.Equal(2, resp.Succeeded)
	suite.Equal(1, resp.Failed)
	suite.Require().Len(resp.Failures, 1)
	suite.Equal(1, resp.Failures[0].Index)
	suite.Equal("veh-1", resp.Failures[0].SourceID)
}

func (suite *HandlersTestSuite) TestGetEntry_NotFound() {
	w := suite.do(http.MethodGet, companyBase+"/ledger/entries/nope", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDeleteSourceEntries() {
	suite.seedChart()
	w := suite.do(http.MethodPost, companyBase+"/ledger/events", payrollEnvelope("pr-9"))
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.do(http.MethodDelete, companyBase+"/ledger/sources/pr-9?type=bogus", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodDelete, companyBase+"/ledger/sources/pr-9?type=payroll&type=payroll_payment", nil)
	suite.Equal(http.StatusOK, w.Code)
	var resp dto.DeleteSourceResponse
	suite.decode(w, &resp)
	suite.Equal(1, resp.Deleted)
	suite.Empty(suite.store.Entries(testCompany))
}

func (suite *HandlersTestSuite) TestApplyCorrections() {
	suite.store.AddContract(domain.Contract{ContractID: "c-1", CompanyID: testCompany, ContractNumber: "CNT-001", Status: domain.ContractActive})
	suite.store.AddPayment(domain.Payment{PaymentID: "p-1", CompanyID: testCompany, ContractID: "c-1", PaymentNumber: "PAY-1", PaymentDate: fixedNow, Amount: d("1500"), Status: domain.PaymentCompleted})

	body := map[string]any{"directives": []map[string]any{
		{"kind": "set_contract_amount", "contractNumber": "CNT-001", "newAmount": "6000"},
		{"kind": "cancel_payment", "paymentID": "missing", "reason": "duplicate"},
	}}
	w := suite.do(http.MethodPost, companyBase+"/reconciliation/corrections", body)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var report domain.CorrectionReport
	suite.decode(w, &report)
	suite.Equal(1, report.Applied)
	suite.Equal(1, report.Failed)
	suite.Require().Len(report.Verifications, 1)
	suite.Equal(domain.VerificationOK, report.Verifications[0].Status)
	suite.True(report.Verifications[0].BalanceDue.Equal(d("4500")))
}

func (suite *HandlersTestSuite) TestApplyCorrections_GuardSuspensionForbidden() {
	body := map[string]any{
		"directives":              []map[string]any{{"kind": "set_contract_amount", "contractNumber": "CNT-001", "newAmount": "1"}},
		"suspendOverpaymentGuard": true,
	}
	w := suite.do(http.MethodPost, companyBase+"/reconciliation/corrections", body)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Empty(suite.store.GuardHistory())
}

func (suite *HandlersTestSuite) TestRecomputeContract() {
	suite.store.AddContract(domain.Contract{ContractID: "c-1", CompanyID: testCompany, ContractNumber: "CNT-001", ContractAmount: d("1000"), TotalPaid: d("999")})
	suite.store.AddPayment(domain.Payment{PaymentID: "p-1", CompanyID: testCompany, ContractID: "c-1", PaymentDate: fixedNow, Amount: d("250"), Status: domain.PaymentPending})

	w := suite.do(http.MethodPost, companyBase+"/reconciliation/contracts/CNT-001/recompute", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var resp dto.ContractResponse
	suite.decode(w, &resp)
	suite.True(resp.TotalPaid.Equal(d("250")))
	suite.True(resp.BalanceDue.Equal(d("750")))

	w = suite.do(http.MethodPost, companyBase+"/reconciliation/contracts/CNT-404/recompute", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestLegalCollectionReport() {
	filed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	suite.store.AddContract(domain.Contract{ContractID: "c-l", CompanyID: testCompany, ContractNumber: "LEG-1", Status: domain.ContractUnderLegalProcedure, BalanceDue: d("5000")})
	suite.store.AddLegalCase(domain.LegalCase{CaseID: "case-1", CompanyID: testCompany, ContractID: "c-l", CaseNumber: "LC-1", CaseValue: d("8000"), FilingDate: &filed, CreatedAt: filed})

	w := suite.do(http.MethodGet, companyBase+"/legal-collection/report?asOf=03/31/2025", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, companyBase+"/legal-collection/report?asOf=2025-03-31", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var report domain.LegalCollectionReport
	suite.decode(w, &report)
	suite.Require().Len(report.Items, 1)
	suite.Equal(395, report.Items[0].DaysInLegal)
	suite.True(report.Items[0].ProvisionAmount.Equal(d("8000")))
	suite.True(report.Summary.TotalNetReceivable.IsZero())
}
