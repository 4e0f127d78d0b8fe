package testutil

import (
	"sort"
	"time"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[int32]*domain.User
	NextID   int32
	CreateFn func(auth0ID, email string, name *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:  make(map[string]*domain.User),
		ByID:   make(map[int32]*domain.User),
		NextID: 1,
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id int32) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:        m.NextID,
		Auth0ID:   auth0ID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.NextID++
	m.AddUser(user)
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockAccountRepository is a mock implementation of domain.AccountRepository
type MockAccountRepository struct {
	Accounts map[int32]*domain.Account
	NextID   int32
	CreateFn func(account *domain.Account) (*domain.Account, error)
	DeleteFn func(userID int32, id int32) error
}

// NewMockAccountRepository creates a new MockAccountRepository
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[int32]*domain.Account),
		NextID:   1,
	}
}

// Create creates a new account
func (m *MockAccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	if m.CreateFn != nil {
		return m.CreateFn(account)
	}
	account.ID = m.NextID
	m.NextID++
	account.CreatedAt = time.Now()
	m.Accounts[account.ID] = account
	return account, nil
}

// GetByID retrieves an account owned by the user
func (m *MockAccountRepository) GetByID(userID int32, id int32) (*domain.Account, error) {
	if a, ok := m.Accounts[id]; ok && a.UserID == userID {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

// GetAllByUser retrieves all accounts of a user ordered by ID
func (m *MockAccountRepository) GetAllByUser(userID int32) ([]*domain.Account, error) {
	result := make([]*domain.Account, 0)
	for _, a := range m.Accounts {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update applies the non-nil fields of update
func (m *MockAccountRepository) Update(userID int32, id int32, update domain.AccountUpdate) (*domain.Account, error) {
	a, err := m.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.Bank != nil {
		a.Bank = *update.Bank
	}
	if update.Type != nil {
		a.Type = *update.Type
	}
	if update.InitialBalance != nil {
		a.InitialBalance = *update.InitialBalance
	}
	return a, nil
}

// Delete removes an account
func (m *MockAccountRepository) Delete(userID int32, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	if _, err := m.GetByID(userID, id); err != nil {
		return err
	}
	delete(m.Accounts, id)
	return nil
}

// AddAccount adds an account to the mock repository (helper for tests)
func (m *MockAccountRepository) AddAccount(account *domain.Account) {
	m.Accounts[account.ID] = account
	if account.ID >= m.NextID {
		m.NextID = account.ID + 1
	}
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[int32]*domain.Category
	NextID     int32
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		NextID:     1,
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	category.ID = m.NextID
	m.NextID++
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category owned by the user
func (m *MockCategoryRepository) GetByID(userID int32, id int32) (*domain.Category, error) {
	if c, ok := m.Categories[id]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetAllByUser retrieves all categories of a user ordered by ID
func (m *MockCategoryRepository) GetAllByUser(userID int32) ([]*domain.Category, error) {
	result := make([]*domain.Category, 0)
	for _, c := range m.Categories {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update applies the non-nil fields of update
func (m *MockCategoryRepository) Update(userID int32, id int32, update domain.CategoryUpdate) (*domain.Category, error) {
	c, err := m.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Color != nil {
		c.Color = *update.Color
	}
	if update.Icon != nil {
		c.Icon = *update.Icon
	}
	return c, nil
}

// Delete removes a category
func (m *MockCategoryRepository) Delete(userID int32, id int32) error {
	if _, err := m.GetByID(userID, id); err != nil {
		return err
	}
	delete(m.Categories, id)
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
	if category.ID >= m.NextID {
		m.NextID = category.ID + 1
	}
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository.
// Account totals fold in the transfers of the linked transfer repository.
type MockTransactionRepository struct {
	Transactions map[int32]*domain.Transaction
	NextID       int32
	Accounts     *MockAccountRepository
	Transfers    *MockTransferRepository

	CreateFn           func(transaction *domain.Transaction) (*domain.Transaction, error)
	ListByDateRangeFn  func(userID int32, dateRange domain.DateRange) ([]*domain.Transaction, error)
	GetAccountTotalsFn func(userID int32) ([]*domain.AccountTotals, error)

	ListByDateRangeCalls  int
	GetAccountTotalsCalls int
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction)
	}
	transaction.ID = m.NextID
	m.NextID++
	transaction.CreatedAt = time.Now()
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// GetByID retrieves a transaction owned by the user
func (m *MockTransactionRepository) GetByID(userID int32, id int32) (*domain.Transaction, error) {
	if t, ok := m.Transactions[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// ListByUser returns transactions most recent first
func (m *MockTransactionRepository) ListByUser(userID int32, limit int) ([]*domain.Transaction, error) {
	result := m.byUser(userID)
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByDateRange returns transactions dated within the inclusive range, oldest first
func (m *MockTransactionRepository) ListByDateRange(userID int32, dateRange domain.DateRange) ([]*domain.Transaction, error) {
	m.ListByDateRangeCalls++
	if m.ListByDateRangeFn != nil {
		return m.ListByDateRangeFn(userID, dateRange)
	}
	result := make([]*domain.Transaction, 0)
	for _, t := range m.byUser(userID) {
		if dateRange.Contains(t.Date) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update replaces a stored transaction
func (m *MockTransactionRepository) Update(transaction *domain.Transaction) (*domain.Transaction, error) {
	if _, err := m.GetByID(transaction.UserID, transaction.ID); err != nil {
		return nil, err
	}
	m.Transactions[transaction.ID] = transaction
	return transaction, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(userID int32, id int32) error {
	if _, err := m.GetByID(userID, id); err != nil {
		return err
	}
	delete(m.Transactions, id)
	return nil
}

// GetAccountTotals sums movements per account of the user
func (m *MockTransactionRepository) GetAccountTotals(userID int32) ([]*domain.AccountTotals, error) {
	m.GetAccountTotalsCalls++
	if m.GetAccountTotalsFn != nil {
		return m.GetAccountTotalsFn(userID)
	}

	byAccount := make(map[int32]*domain.AccountTotals)
	get := func(id int32) *domain.AccountTotals {
		if t, ok := byAccount[id]; ok {
			return t
		}
		t := &domain.AccountTotals{AccountID: id}
		byAccount[id] = t
		return t
	}

	if m.Accounts != nil {
		accounts, _ := m.Accounts.GetAllByUser(userID)
		for _, a := range accounts {
			get(a.ID)
		}
	}
	for _, tx := range m.byUser(userID) {
		t := get(tx.AccountID)
		switch tx.Type {
		case domain.TransactionTypeIncome:
			t.SumIncome = t.SumIncome.Add(tx.Value)
		case domain.TransactionTypeExpense:
			t.SumExpenses = t.SumExpenses.Add(tx.Value)
		}
	}
	if m.Transfers != nil {
		transfers, _ := m.Transfers.ListByUser(userID)
		for _, tr := range transfers {
			get(tr.FromAccountID).TransfersOut = get(tr.FromAccountID).TransfersOut.Add(tr.Value)
			get(tr.ToAccountID).TransfersIn = get(tr.ToAccountID).TransfersIn.Add(tr.Value)
		}
	}

	result := make([]*domain.AccountTotals, 0, len(byAccount))
	for _, t := range byAccount {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AccountID < result[j].AccountID })
	return result, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	m.Transactions[transaction.ID] = transaction
	if transaction.ID >= m.NextID {
		m.NextID = transaction.ID + 1
	}
}

func (m *MockTransactionRepository) byUser(userID int32) []*domain.Transaction {
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result
}

// MockCardRepository is a mock implementation of domain.CardRepository.
// Links are derived from the CardID of transactions in the linked transaction repository.
type MockCardRepository struct {
	Cards        map[int32]*domain.Card
	NextID       int32
	Transactions *MockTransactionRepository

	GetUsageTotalsFn func(userID int32) ([]*domain.CardUsageTotal, error)

	GetUsageTotalsCalls int
}

// NewMockCardRepository creates a new MockCardRepository
func NewMockCardRepository() *MockCardRepository {
	return &MockCardRepository{
		Cards:  make(map[int32]*domain.Card),
		NextID: 1,
	}
}

// Create creates a new card
func (m *MockCardRepository) Create(card *domain.Card) (*domain.Card, error) {
	card.ID = m.NextID
	m.NextID++
	card.CreatedAt = time.Now()
	m.Cards[card.ID] = card
	return card, nil
}

// GetByID retrieves a card owned by the user
func (m *MockCardRepository) GetByID(userID int32, id int32) (*domain.Card, error) {
	if c, ok := m.Cards[id]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, domain.ErrCardNotFound
}

// GetAllByUser retrieves all cards of a user ordered by ID
func (m *MockCardRepository) GetAllByUser(userID int32) ([]*domain.Card, error) {
	result := make([]*domain.Card, 0)
	for _, c := range m.Cards {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update applies the non-nil fields of update
func (m *MockCardRepository) Update(userID int32, id int32, update domain.CardUpdate) (*domain.Card, error) {
	c, err := m.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Brand != nil {
		c.Brand = *update.Brand
	}
	if update.CreditLimit != nil {
		c.CreditLimit = *update.CreditLimit
	}
	if update.CloseDay != nil {
		c.CloseDay = *update.CloseDay
	}
	if update.DueDay != nil {
		c.DueDay = *update.DueDay
	}
	return c, nil
}

// Delete removes a card and unlinks its transactions
func (m *MockCardRepository) Delete(userID int32, id int32) error {
	if _, err := m.GetByID(userID, id); err != nil {
		return err
	}
	delete(m.Cards, id)
	if m.Transactions != nil {
		for _, t := range m.Transactions.Transactions {
			if t.CardID != nil && *t.CardID == id {
				t.CardID = nil
			}
		}
	}
	return nil
}

// GetUsageTotals sums linked transaction values per card of the user
func (m *MockCardRepository) GetUsageTotals(userID int32) ([]*domain.CardUsageTotal, error) {
	m.GetUsageTotalsCalls++
	if m.GetUsageTotalsFn != nil {
		return m.GetUsageTotalsFn(userID)
	}
	cards, _ := m.GetAllByUser(userID)
	result := make([]*domain.CardUsageTotal, 0, len(cards))
	for _, c := range cards {
		total := decimal.Zero
		links, _ := m.GetLinks(userID, c.ID)
		for _, l := range links {
			total = total.Add(m.Transactions.Transactions[l.TransactionID].Value)
		}
		result = append(result, &domain.CardUsageTotal{CardID: c.ID, Total: total})
	}
	return result, nil
}

// GetLinks returns the links of one card
func (m *MockCardRepository) GetLinks(userID int32, cardID int32) ([]*domain.CardTransaction, error) {
	result := make([]*domain.CardTransaction, 0)
	if m.Transactions == nil {
		return result, nil
	}
	for _, t := range m.Transactions.byUser(userID) {
		if t.CardID != nil && *t.CardID == cardID {
			result = append(result, &domain.CardTransaction{
				ID:            t.ID,
				CardID:        cardID,
				TransactionID: t.ID,
				ParcelNumber:  t.ParcelNumber,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// AddCard adds a card to the mock repository (helper for tests)
func (m *MockCardRepository) AddCard(card *domain.Card) {
	m.Cards[card.ID] = card
	if card.ID >= m.NextID {
		m.NextID = card.ID + 1
	}
}

// MockTransferRepository is a mock implementation of domain.TransferRepository
type MockTransferRepository struct {
	Transfers map[int32]*domain.Transfer
	NextID    int32
}

// NewMockTransferRepository creates a new MockTransferRepository
func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		Transfers: make(map[int32]*domain.Transfer),
		NextID:    1,
	}
}

// Create records a transfer
func (m *MockTransferRepository) Create(transfer *domain.Transfer) (*domain.Transfer, error) {
	transfer.ID = m.NextID
	m.NextID++
	transfer.CreatedAt = time.Now()
	m.Transfers[transfer.ID] = transfer
	return transfer, nil
}

// GetByID retrieves a transfer owned by the user
func (m *MockTransferRepository) GetByID(userID int32, id int32) (*domain.Transfer, error) {
	if t, ok := m.Transfers[id]; ok && t.UserID == userID {
		return t, nil
	}
	return nil, domain.ErrTransferNotFound
}

// ListByUser returns transfers most recent first
func (m *MockTransferRepository) ListByUser(userID int32) ([]*domain.Transfer, error) {
	result := make([]*domain.Transfer, 0)
	for _, t := range m.Transfers {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Delete removes a transfer
func (m *MockTransferRepository) Delete(userID int32, id int32) error {
	if _, err := m.GetByID(userID, id); err != nil {
		return err
	}
	delete(m.Transfers, id)
	return nil
}

// AddTransfer adds a transfer to the mock repository (helper for tests)
func (m *MockTransferRepository) AddTransfer(transfer *domain.Transfer) {
	m.Transfers[transfer.ID] = transfer
	if transfer.ID >= m.NextID {
		m.NextID = transfer.ID + 1
	}
}

// MockSimulationRepository is a mock implementation of domain.SimulationRepository
type MockSimulationRepository struct {
	Simulations map[int32]*domain.Simulation
	NextID      int32
}

// NewMockSimulationRepository creates a new MockSimulationRepository
func NewMockSimulationRepository() *MockSimulationRepository {
	return &MockSimulationRepository{
		Simulations: make(map[int32]*domain.Simulation),
		NextID:      1,
	}
}

// Create creates a new simulation
func (m *MockSimulationRepository) Create(simulation *domain.Simulation) (*domain.Simulation, error) {
	simulation.ID = m.NextID
	m.NextID++
	simulation.CreatedAt = time.Now()
	m.Simulations[simulation.ID] = simulation
	return simulation, nil
}

// GetByID retrieves a simulation owned by the user
func (m *MockSimulationRepository) GetByID(userID int32, id int32) (*domain.Simulation, error) {
	if s, ok := m.Simulations[id]; ok && s.UserID == userID {
		return s, nil
	}
	return nil, domain.ErrSimulationNotFound
}

// ListByUser returns simulations newest first
func (m *MockSimulationRepository) ListByUser(userID int32) ([]*domain.Simulation, error) {
	result := make([]*domain.Simulation, 0)
	for _, s := range m.Simulations {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Update replaces a stored simulation
func (m *MockSimulationRepository) Update(simulation *domain.Simulation) (*domain.Simulation, error) {
	if _, err := m.GetByID(simulation.UserID, simulation.ID); err != nil {
		return nil, err
	}
	m.Simulations[simulation.ID] = simulation
	return simulation, nil
}

// Delete removes a simulation
func (m *MockSimulationRepository) Delete(userID int32, id int32) error {
	if _, err := m.GetByID(userID, id); err != nil {
		return err
	}
	delete(m.Simulations, id)
	return nil
}

// AddSimulation adds a simulation to the mock repository (helper for tests)
func (m *MockSimulationRepository) AddSimulation(simulation *domain.Simulation) {
	m.Simulations[simulation.ID] = simulation
	if simulation.ID >= m.NextID {
		m.NextID = simulation.ID + 1
	}
}

// MockLedger bundles the ledger repositories wired to each other the way the
// database relates them
type MockLedger struct {
	Users        *MockUserRepository
	Accounts     *MockAccountRepository
	Categories   *MockCategoryRepository
	Transactions *MockTransactionRepository
	Cards        *MockCardRepository
	Transfers    *MockTransferRepository
	Simulations  *MockSimulationRepository
}

// NewMockLedger creates a MockLedger with empty repositories
func NewMockLedger() *MockLedger {
	l := &MockLedger{
		Users:        NewMockUserRepository(),
		Accounts:     NewMockAccountRepository(),
		Categories:   NewMockCategoryRepository(),
		Transactions: NewMockTransactionRepository(),
		Cards:        NewMockCardRepository(),
		Transfers:    NewMockTransferRepository(),
		Simulations:  NewMockSimulationRepository(),
	}
	l.Transactions.Accounts = l.Accounts
	l.Transactions.Transfers = l.Transfers
	l.Cards.Transactions = l.Transactions
	return l
}

// Date returns a UTC calendar date (helper for tests)
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Money parses a decimal literal (helper for tests)
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
