package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/domain"
	"github.com/corebank/ledger-service/internal/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// publisherStub records published events so tests can assert on them.
type publisherStub struct {
	mu           sync.Mutex
	transactions []domain.TransactionRecordedEvent
	interestRuns []domain.InterestRunCompletedEvent
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return nil
}

func (p *publisherStub) PublishTransactionRecorded(ctx context.Context, event domain.TransactionRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactions = append(p.transactions, event)
	return nil
}

func (p *publisherStub) PublishInterestRunCompleted(ctx context.Context, event domain.InterestRunCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interestRuns = append(p.interestRuns, event)
	return nil
}

func (p *publisherStub) Close() {}

// rateLimiterStub returns a canned count so tests can force the limit.
type rateLimiterStub struct {
	count int
	err   error
}

func (r *rateLimiterStub) ConsumeRateLimit(ctx context.Context, scope, accountNumber string, limit int, window time.Duration) (int, int, error) {
	return r.count, 30, r.err
}

// failingTransferRepo forces ApplyTransfer to fail so tests can observe how
// store-level failures surface to callers.
type failingTransferRepo struct {
	store.Repository
	err error
}

func (r *failingTransferRepo) ApplyTransfer(ctx context.Context, out, in store.BalanceChange) (*domain.TransactionRecord, *domain.TransactionRecord, error) {
	return nil, nil, r.err
}

func newTestService(t *testing.T) (*Service, *store.MemoryRepository) {
	t.Helper()
	repo := store.NewMemoryRepository()
	return NewService(repo, nil, nil, RateLimitConfig{}, 5*time.Second, 0), repo
}

func mustCreateCustomer(t *testing.T, s *Service, email string) *domain.Customer {
	t.Helper()
	customer, err := s.CreateCustomer(context.Background(), domain.CreateCustomerRequest{
		FirstName: "Thandi",
		LastName:  "Nkosi",
		Email:     email,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	return customer
}

func TestCreateCustomer_AllocatesSequentialIDs(t *testing.T) {
	s, _ := newTestService(t)

	first := mustCreateCustomer(t, s, "first@example.com")
	second := mustCreateCustomer(t, s, "second@example.com")

	if first.ID != "CUST1001" {
		t.Fatalf("expected CUST1001, got %s", first.ID)
	}
	if second.ID != "CUST1002" {
		t.Fatalf("expected CUST1002, got %s", second.ID)
	}
}

func TestCreateCustomer_RejectsDuplicateEmail(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateCustomer(t, s, "thandi@example.com")

	_, err := s.CreateCustomer(context.Background(), domain.CreateCustomerRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "THANDI@example.com",
	})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	// The refused registration must not consume visibility: only one customer.
	summary, sumErr := s.GetBankSummary(context.Background())
	if sumErr != nil {
		t.Fatal(sumErr)
	}
	if summary.TotalCustomers != 1 {
		t.Fatalf("expected 1 customer, got %d", summary.TotalCustomers)
	}
}

func TestCreateCustomer_RequiresNameAndEmail(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.CreateCustomer(context.Background(), domain.CreateCustomerRequest{FirstName: "  ", LastName: "Nkosi", Email: "x@example.com"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateCustomer_RewritesContactDetails(t *testing.T) {
	s, repo := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	updated, err := s.UpdateCustomer(context.Background(), customer.ID, domain.UpdateCustomerRequest{
		FirstName: "Thandiwe",
		LastName:  "Nkosi-Dube",
		Email:     "Thandiwe@example.com",
		Phone:     "021 555 0101",
		Address:   "12 Long Street",
	})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if updated.ID != customer.ID {
		t.Fatalf("customer id changed: %s", updated.ID)
	}
	if updated.Email != "thandiwe@example.com" {
		t.Fatalf("email not normalized: %s", updated.Email)
	}

	stored, err := repo.LoadCustomer(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FirstName != "Thandiwe" || stored.LastName != "Nkosi-Dube" {
		t.Fatalf("name not persisted: %s %s", stored.FirstName, stored.LastName)
	}
	if stored.Phone != "021 555 0101" || stored.Address != "12 Long Street" {
		t.Fatalf("contact details not persisted: %s / %s", stored.Phone, stored.Address)
	}
}

func TestUpdateCustomer_RejectsTakenEmail(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateCustomer(t, s, "first@example.com")
	second := mustCreateCustomer(t, s, "second@example.com")

	_, err := s.UpdateCustomer(context.Background(), second.ID, domain.UpdateCustomerRequest{
		FirstName: "Thandi",
		LastName:  "Nkosi",
		Email:     "FIRST@example.com",
	})
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	// Keeping your own email is never a conflict.
	if _, err := s.UpdateCustomer(context.Background(), second.ID, domain.UpdateCustomerRequest{
		FirstName: "Thandi",
		LastName:  "Nkosi",
		Email:     "SECOND@example.com",
	}); err != nil {
		t.Fatalf("same-email update refused: %v", err)
	}
}

func TestUpdateCustomer_UnknownCustomerAndValidation(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.UpdateCustomer(context.Background(), "CUST9999", domain.UpdateCustomerRequest{
		FirstName: "Thandi", LastName: "Nkosi", Email: "x@example.com",
	})
	if !errors.Is(err, store.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	customer := mustCreateCustomer(t, s, "thandi@example.com")
	_, err = s.UpdateCustomer(context.Background(), customer.ID, domain.UpdateCustomerRequest{
		FirstName: "  ", LastName: "Nkosi", Email: "thandi@example.com",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateChequeAccount_StartsEmptyWithNoOpeningRecord(t *testing.T) {
	s, repo := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("CreateChequeAccount: %v", err)
	}
	if account.Number != "CHQ10001" {
		t.Fatalf("expected CHQ10001, got %s", account.Number)
	}
	if !account.Balance.IsZero() {
		t.Fatalf("cheque accounts open at zero, got %s", account.Balance)
	}

	records, err := repo.LoadTransactions(context.Background(), account.Number, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Fatalf("cheque opening must not write records, got %d", len(records))
	}
}

func TestCreateSavingsAccount_EnforcesMinimumInitialDeposit(t *testing.T) {
	s, repo := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	if _, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("99.99")); !errors.Is(err, ErrBelowMinimumDeposit) {
		t.Fatalf("expected ErrBelowMinimumDeposit, got %v", err)
	}

	account, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("500"))
	if err != nil {
		t.Fatalf("CreateSavingsAccount: %v", err)
	}
	if account.Number != "SAV10001" {
		t.Fatalf("expected SAV10001, got %s", account.Number)
	}

	records, err := repo.LoadTransactions(context.Background(), account.Number, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Type != domain.TxDeposit || records[0].Description != "Initial deposit" {
		t.Fatalf("expected one opening deposit record, got %+v", records)
	}
}

func TestCreateInvestmentAccount_RecordsInitialInvestment(t *testing.T) {
	s, repo := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	if _, err := s.CreateInvestmentAccount(context.Background(), customer.ID, "FIXED_DEPOSIT", dec("0")); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero principal, got %v", err)
	}
	if _, err := s.CreateInvestmentAccount(context.Background(), customer.ID, "  ", dec("5000")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank type, got %v", err)
	}

	account, err := s.CreateInvestmentAccount(context.Background(), customer.ID, "FIXED_DEPOSIT", dec("5000"))
	if err != nil {
		t.Fatalf("CreateInvestmentAccount: %v", err)
	}
	if account.Number != "INV10001" {
		t.Fatalf("expected INV10001, got %s", account.Number)
	}
	if account.TermMonths != domain.DefaultInvestmentTermMonths {
		t.Fatalf("expected default term, got %d", account.TermMonths)
	}

	records, err := repo.LoadTransactions(context.Background(), account.Number, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Description != "Initial investment" {
		t.Fatalf("expected one opening investment record, got %+v", records)
	}
}

func TestCreateAccount_UnknownCustomer(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.CreateChequeAccount(context.Background(), "CUST9999"); !errors.Is(err, store.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestDepositAndWithdraw_PersistBalancesAndRecords(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}

	rec, err := s.Deposit(context.Background(), account.Number, dec("200"), "")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if rec.Type != domain.TxDeposit || !rec.BalanceAfter.Equal(dec("200")) {
		t.Fatalf("unexpected deposit record %+v", rec)
	}

	// 200 balance plus 1000 overdraft covers a 1000 withdrawal.
	rec, err = s.Withdraw(context.Background(), account.Number, dec("1000"), "")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !rec.BalanceAfter.Equal(dec("-800")) {
		t.Fatalf("expected balance after -800, got %s", rec.BalanceAfter)
	}

	reloaded, err := s.GetAccount(context.Background(), account.Number)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Balance.Equal(dec("-800")) {
		t.Fatalf("expected persisted balance -800, got %s", reloaded.Balance)
	}
}

func TestWithdraw_RefusalWritesNothing(t *testing.T) {
	s, repo := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("100"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Withdraw(context.Background(), account.Number, dec("50"), ""); !errors.Is(err, domain.ErrMinimumBalanceBreach) {
		t.Fatalf("expected ErrMinimumBalanceBreach, got %v", err)
	}

	reloaded, err := s.GetAccount(context.Background(), account.Number)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Balance.Equal(dec("100")) {
		t.Fatalf("refused withdrawal changed the balance: %s", reloaded.Balance)
	}
	records, err := repo.LoadTransactions(context.Background(), account.Number, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 { // only the opening deposit
		t.Fatalf("refused withdrawal wrote a record: %+v", records)
	}
}

func TestWithdraw_RateLimited(t *testing.T) {
	repo := store.NewMemoryRepository()
	limiter := &rateLimiterStub{count: 31}
	s := NewService(repo, nil, limiter, RateLimitConfig{Enabled: true, Limit: 30, Window: time.Minute}, 5*time.Second, 0)

	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), account.Number, dec("500"), ""); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Withdraw(context.Background(), account.Number, dec("100"), ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestWithdraw_LimiterOutageDoesNotBlock(t *testing.T) {
	repo := store.NewMemoryRepository()
	limiter := &rateLimiterStub{err: errors.New("redis down")}
	s := NewService(repo, nil, limiter, RateLimitConfig{Enabled: true, Limit: 30, Window: time.Minute}, 5*time.Second, 0)

	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), account.Number, dec("500"), ""); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Withdraw(context.Background(), account.Number, dec("100"), ""); err != nil {
		t.Fatalf("limiter outage must not block withdrawals, got %v", err)
	}
}

func TestTransfer_MovesMoneyWithLinkedRecords(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	source, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	dest, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), source.Number, dec("2000"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), dest.Number, dec("1500"), ""); err != nil {
		t.Fatal(err)
	}

	outRec, inRec, err := s.Transfer(context.Background(), domain.TransferRequest{
		FromAccount: source.Number,
		ToAccount:   dest.Number,
		Amount:      dec("300"),
	})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if outRec.Type != domain.TxTransferOut || !outRec.BalanceAfter.Equal(dec("1700")) {
		t.Fatalf("unexpected out record %+v", outRec)
	}
	if inRec.Type != domain.TxTransferIn || !inRec.BalanceAfter.Equal(dec("1800")) {
		t.Fatalf("unexpected in record %+v", inRec)
	}
	if outRec.Counterparty == nil || *outRec.Counterparty != dest.Number {
		t.Fatalf("out record must reference the destination, got %+v", outRec.Counterparty)
	}
	if inRec.Counterparty == nil || *inRec.Counterparty != source.Number {
		t.Fatalf("in record must reference the source, got %+v", inRec.Counterparty)
	}

	reloadedSource, _ := s.GetAccount(context.Background(), source.Number)
	reloadedDest, _ := s.GetAccount(context.Background(), dest.Number)
	if !reloadedSource.Balance.Equal(dec("1700")) || !reloadedDest.Balance.Equal(dec("1800")) {
		t.Fatalf("balances not persisted: %s, %s", reloadedSource.Balance, reloadedDest.Balance)
	}
}

func TestTransfer_RefusalLeavesBothAccountsUntouched(t *testing.T) {
	s, repo := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	source, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	dest, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Savings at the floor: the debit leg is refused, so nothing commits.
	_, _, err = s.Transfer(context.Background(), domain.TransferRequest{
		FromAccount: source.Number,
		ToAccount:   dest.Number,
		Amount:      dec("50"),
	})
	if !errors.Is(err, domain.ErrMinimumBalanceBreach) {
		t.Fatalf("expected ErrMinimumBalanceBreach, got %v", err)
	}

	reloadedSource, _ := s.GetAccount(context.Background(), source.Number)
	reloadedDest, _ := s.GetAccount(context.Background(), dest.Number)
	if !reloadedSource.Balance.Equal(dec("100")) || !reloadedDest.Balance.IsZero() {
		t.Fatalf("failed transfer moved money: %s, %s", reloadedSource.Balance, reloadedDest.Balance)
	}

	destRecords, err := repo.LoadTransactions(context.Background(), dest.Number, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(destRecords) != 0 {
		t.Fatalf("failed transfer wrote records on the destination: %+v", destRecords)
	}
}

func TestTransfer_Validation(t *testing.T) {
	s, _ := newTestService(t)

	if _, _, err := s.Transfer(context.Background(), domain.TransferRequest{FromAccount: "CHQ10001", ToAccount: "CHQ10001", Amount: dec("10")}); !errors.Is(err, ErrSameAccountTransfer) {
		t.Fatalf("expected ErrSameAccountTransfer, got %v", err)
	}
	if _, _, err := s.Transfer(context.Background(), domain.TransferRequest{FromAccount: "CHQ10001", ToAccount: "CHQ10002", Amount: dec("-5")}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := s.Transfer(context.Background(), domain.TransferRequest{FromAccount: "", ToAccount: "CHQ10002", Amount: dec("5")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTransfer_StoreFailureSurfacesCauseAndSentinel(t *testing.T) {
	repo := store.NewMemoryRepository()
	s := NewService(repo, nil, nil, RateLimitConfig{}, 5*time.Second, 0)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	source, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("2000"))
	if err != nil {
		t.Fatal(err)
	}
	dest, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}

	storeErr := errors.New("constraint violated")
	failing := &failingTransferRepo{Repository: repo, err: storeErr}
	s = NewService(failing, nil, nil, RateLimitConfig{}, 5*time.Second, 0)

	_, _, err = s.Transfer(context.Background(), domain.TransferRequest{
		FromAccount: source.Number,
		ToAccount:   dest.Number,
		Amount:      dec("100"),
	})
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("store cause not preserved in %v", err)
	}
}

func TestCalculateInterestForAllAccounts(t *testing.T) {
	repo := store.NewMemoryRepository()
	publisher := &publisherStub{}
	s := NewService(repo, publisher, nil, RateLimitConfig{}, 5*time.Second, 0)

	customer := mustCreateCustomer(t, s, "thandi@example.com")
	cheque, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), cheque.Number, dec("1000"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("1000")); err != nil {
		t.Fatal(err)
	}
	investment, err := s.CreateInvestmentAccount(context.Background(), customer.ID, "FIXED_DEPOSIT", dec("5000"))
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.CalculateInterestForAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("CalculateInterestForAllAccounts: %v", err)
	}

	// Savings and investment processed; cheque skipped.
	if result.AccountsProcessed != 2 {
		t.Fatalf("expected 2 accounts processed, got %d", result.AccountsProcessed)
	}
	// 1000 * 0.03 + 5000 * 0.05 = 30 + 250 = 280
	if !result.TotalCredited.Equal(dec("280")) {
		t.Fatalf("expected total credited 280, got %s", result.TotalCredited)
	}

	reloadedInvestment, _ := s.GetAccount(context.Background(), investment.Number)
	if !reloadedInvestment.Balance.Equal(dec("5250")) {
		t.Fatalf("expected investment balance 5250, got %s", reloadedInvestment.Balance)
	}
	reloadedCheque, _ := s.GetAccount(context.Background(), cheque.Number)
	if !reloadedCheque.Balance.Equal(dec("1000")) {
		t.Fatalf("cheque account must be untouched, got %s", reloadedCheque.Balance)
	}

	records, err := repo.LoadTransactions(context.Background(), investment.Number, 10)
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Type != domain.TxInterest || !records[0].Amount.Equal(dec("250")) {
		t.Fatalf("expected newest record to be INTEREST 250, got %+v", records[0])
	}

	if len(publisher.interestRuns) != 1 {
		t.Fatalf("expected 1 interest run event, got %d", len(publisher.interestRuns))
	}
	if publisher.interestRuns[0].AccountsProcessed != 2 {
		t.Fatalf("event reports %d accounts", publisher.interestRuns[0].AccountsProcessed)
	}
}

func TestCalculateInterest_TwoPassesCompoundOnNewBalance(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("1000"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.CalculateInterestForAllAccounts(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CalculateInterestForAllAccounts(context.Background()); err != nil {
		t.Fatal(err)
	}

	// 1000 -> 1030 -> 1060.9: each pass reads the balance it finds.
	reloaded, _ := s.GetAccount(context.Background(), account.Number)
	if !reloaded.Balance.Equal(dec("1060.9")) {
		t.Fatalf("expected balance 1060.9 after two passes, got %s", reloaded.Balance)
	}
}

func TestApplyCompoundInterest(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	savings, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("1000"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ApplyCompoundInterest(context.Background(), savings.Number); !errors.Is(err, ErrNotInvestmentAccount) {
		t.Fatalf("expected ErrNotInvestmentAccount, got %v", err)
	}

	investment, err := s.CreateInvestmentAccount(context.Background(), customer.ID, "FIXED_DEPOSIT", dec("10000"))
	if err != nil {
		t.Fatal(err)
	}
	rec, err := s.ApplyCompoundInterest(context.Background(), investment.Number)
	if err != nil {
		t.Fatalf("ApplyCompoundInterest: %v", err)
	}
	if rec.Type != domain.TxInterest {
		t.Fatalf("expected INTEREST record, got %s", rec.Type)
	}
	if !rec.Amount.GreaterThan(dec("500")) {
		t.Fatalf("compounded credit should exceed flat 5%%, got %s", rec.Amount)
	}
}

func TestGetStatement(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), account.Number, dec("100"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Withdraw(context.Background(), account.Number, dec("40"), ""); err != nil {
		t.Fatal(err)
	}

	statement, err := s.GetStatement(context.Background(), account.Number, 0)
	if err != nil {
		t.Fatalf("GetStatement: %v", err)
	}
	if statement.Account.Number != account.Number {
		t.Fatalf("statement for wrong account: %s", statement.Account.Number)
	}
	if len(statement.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(statement.Transactions))
	}
	if statement.Transactions[0].Type != domain.TxWithdrawal {
		t.Fatalf("statement not newest first: %+v", statement.Transactions[0])
	}

	if _, err := s.GetStatement(context.Background(), "CHQ99999", 0); !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetStatement_CapsOversizedLimit(t *testing.T) {
	s, repo := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 120; i++ {
		rec := domain.TransactionRecord{
			AccountNumber: account.Number,
			Type:          domain.TxDeposit,
			Amount:        dec("1"),
			BalanceAfter:  dec("1"),
		}
		if err := repo.AppendTransaction(context.Background(), &rec); err != nil {
			t.Fatal(err)
		}
	}

	// An oversized limit is capped at 500, never coerced down to the default.
	statement, err := s.GetStatement(context.Background(), account.Number, 600)
	if err != nil {
		t.Fatalf("GetStatement: %v", err)
	}
	if len(statement.Transactions) != 120 {
		t.Fatalf("expected all 120 transactions, got %d", len(statement.Transactions))
	}
}

func TestGetStatement_UsesConfiguredDefaultLimit(t *testing.T) {
	repo := store.NewMemoryRepository()
	s := NewService(repo, nil, nil, RateLimitConfig{}, 5*time.Second, 5)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		if _, err := s.Deposit(context.Background(), account.Number, dec("10"), ""); err != nil {
			t.Fatal(err)
		}
	}

	statement, err := s.GetStatement(context.Background(), account.Number, 0)
	if err != nil {
		t.Fatalf("GetStatement: %v", err)
	}
	if len(statement.Transactions) != 5 {
		t.Fatalf("expected the configured default of 5 transactions, got %d", len(statement.Transactions))
	}
}

func TestCloseAccount_RefusesNonZeroBalance(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), account.Number, dec("100"), ""); err != nil {
		t.Fatal(err)
	}

	if err := s.CloseAccount(context.Background(), account.Number); !errors.Is(err, ErrAccountNotEmpty) {
		t.Fatalf("expected ErrAccountNotEmpty, got %v", err)
	}

	if _, err := s.Withdraw(context.Background(), account.Number, dec("100"), ""); err != nil {
		t.Fatal(err)
	}
	if err := s.CloseAccount(context.Background(), account.Number); err != nil {
		t.Fatalf("CloseAccount on zero balance: %v", err)
	}
	if _, err := s.GetAccount(context.Background(), account.Number); !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected account gone, got %v", err)
	}
}

func TestRemoveCustomer_CascadesAccounts(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("500"))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveCustomer(context.Background(), customer.ID); err != nil {
		t.Fatalf("RemoveCustomer: %v", err)
	}
	if _, err := s.GetCustomerWithAccounts(context.Background(), customer.ID); !errors.Is(err, store.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
	if _, err := s.GetAccount(context.Background(), account.Number); !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected account removed with customer, got %v", err)
	}
}

func TestGetCustomerWithAccounts(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	if _, err := s.CreateChequeAccount(context.Background(), customer.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateSavingsAccount(context.Background(), customer.ID, dec("500")); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.GetCustomerWithAccounts(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("GetCustomerWithAccounts: %v", err)
	}
	if len(loaded.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(loaded.Accounts))
	}
}

func TestGetBankSummary(t *testing.T) {
	s, _ := newTestService(t)
	first := mustCreateCustomer(t, s, "first@example.com")
	second := mustCreateCustomer(t, s, "second@example.com")

	account, err := s.CreateChequeAccount(context.Background(), first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), account.Number, dec("250"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateSavingsAccount(context.Background(), second.ID, dec("750")); err != nil {
		t.Fatal(err)
	}

	summary, err := s.GetBankSummary(context.Background())
	if err != nil {
		t.Fatalf("GetBankSummary: %v", err)
	}
	if summary.TotalCustomers != 2 || summary.TotalAccounts != 2 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if !summary.TotalBalance.Equal(dec("1000")) {
		t.Fatalf("expected total 1000, got %s", summary.TotalBalance)
	}
}

func TestDeposit_PublishesTransactionEvent(t *testing.T) {
	repo := store.NewMemoryRepository()
	publisher := &publisherStub{}
	s := NewService(repo, publisher, nil, RateLimitConfig{}, 5*time.Second, 0)

	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), account.Number, dec("100"), ""); err != nil {
		t.Fatal(err)
	}

	if len(publisher.transactions) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.transactions))
	}
	event := publisher.transactions[0]
	if event.AccountNumber != account.Number || event.Type != domain.TxDeposit {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestTransfer_PublishesBothLegs(t *testing.T) {
	repo := store.NewMemoryRepository()
	publisher := &publisherStub{}
	s := NewService(repo, publisher, nil, RateLimitConfig{}, 5*time.Second, 0)

	customer := mustCreateCustomer(t, s, "thandi@example.com")
	source, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	dest, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), source.Number, dec("500"), ""); err != nil {
		t.Fatal(err)
	}

	before := len(publisher.transactions)
	if _, _, err := s.Transfer(context.Background(), domain.TransferRequest{
		FromAccount: source.Number,
		ToAccount:   dest.Number,
		Amount:      dec("200"),
	}); err != nil {
		t.Fatal(err)
	}

	if got := len(publisher.transactions) - before; got != 2 {
		t.Fatalf("expected 2 transfer events, got %d", got)
	}
}

func TestConcurrentDeposits_AllApply(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")
	account, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.Deposit(context.Background(), account.Number, dec("10"), ""); err != nil {
				t.Errorf("Deposit: %v", err)
			}
		}()
	}
	wg.Wait()

	reloaded, err := s.GetAccount(context.Background(), account.Number)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Balance.Equal(dec("200")) {
		t.Fatalf("expected balance 200 after %d deposits, got %s", workers, reloaded.Balance)
	}
}

func TestConcurrentTransfers_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	s, _ := newTestService(t)
	customer := mustCreateCustomer(t, s, "thandi@example.com")

	a, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreateChequeAccount(context.Background(), customer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), a.Number, dec("1000"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deposit(context.Background(), b.Number, dec("1000"), ""); err != nil {
		t.Fatal(err)
	}

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, _, _ = s.Transfer(context.Background(), domain.TransferRequest{FromAccount: a.Number, ToAccount: b.Number, Amount: dec("5")})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, _, _ = s.Transfer(context.Background(), domain.TransferRequest{FromAccount: b.Number, ToAccount: a.Number, Amount: dec("5")})
		}
	}()
	wg.Wait()

	accountA, _ := s.GetAccount(context.Background(), a.Number)
	accountB, _ := s.GetAccount(context.Background(), b.Number)
	if !accountA.Balance.Add(accountB.Balance).Equal(dec("2000")) {
		t.Fatalf("transfers created or destroyed money: %s + %s", accountA.Balance, accountB.Balance)
	}
}
