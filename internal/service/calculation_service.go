package service

import (
	"time"

	"github.com/finora/finora-backend/internal/cache"
	"github.com/finora/finora-backend/internal/domain"
	"github.com/finora/finora-backend/internal/util"
	"github.com/shopspring/decimal"
)

// Utilization thresholds, in percent, for card usage levels
var (
	UsageWarningThreshold  = decimal.NewFromInt(60)
	UsageCriticalThreshold = decimal.NewFromInt(80)
)

var hundred = decimal.NewFromInt(100)

// CalculationService derives account balances and card usage from the ledger.
// Nothing it returns is stored; optional stores hold results until a write
// invalidates them.
type CalculationService struct {
	accountRepo     domain.AccountRepository
	transactionRepo domain.TransactionRepository
	cardRepo        domain.CardRepository
	balances        *cache.Store[decimal.Decimal]
	usages          *cache.Store[decimal.Decimal]
	now             func() time.Time
}

// NewCalculationService creates a new CalculationService
func NewCalculationService(accountRepo domain.AccountRepository, transactionRepo domain.TransactionRepository, cardRepo domain.CardRepository) *CalculationService {
	return &CalculationService{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		cardRepo:        cardRepo,
		now:             time.Now,
	}
}

// SetCaches attaches stores for balances and card usage. Either may be nil.
func (s *CalculationService) SetCaches(balances, usages *cache.Store[decimal.Decimal]) {
	s.balances = balances
	s.usages = usages
}

// AccountBalanceResult holds calculated balance information for an account
type AccountBalanceResult struct {
	AccountID         int32
	InitialBalance    decimal.Decimal
	CalculatedBalance decimal.Decimal
}

// ComputeAccountBalance returns initial balance plus income, minus expenses,
// plus transfers in, minus transfers out
func (s *CalculationService) ComputeAccountBalance(userID int32, accountID int32) (decimal.Decimal, error) {
	key := cache.Key{Aggregate: cache.AggregateAccountBalance, UserID: userID, EntityID: accountID}
	if s.balances != nil {
		if v, ok := s.balances.Get(key); ok {
			return v, nil
		}
	}

	gen := s.balances.Generation(userID, cache.AggregateAccountBalance)
	account, err := s.accountRepo.GetByID(userID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	totals, err := s.totalsByAccount(userID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := balanceOf(account, totals[account.ID])
	s.balances.SetIfCurrent(key, balance, gen)
	return balance, nil
}

// CalculateAccountBalances calculates balances for every account of the user
func (s *CalculationService) CalculateAccountBalances(userID int32) (map[int32]*AccountBalanceResult, error) {
	gen := s.balances.Generation(userID, cache.AggregateAccountBalance)
	accounts, err := s.accountRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}

	results := make(map[int32]*AccountBalanceResult, len(accounts))
	if s.balances != nil {
		for _, account := range accounts {
			v, ok := s.balances.Get(cache.Key{Aggregate: cache.AggregateAccountBalance, UserID: userID, EntityID: account.ID})
			if !ok {
				break
			}
			results[account.ID] = &AccountBalanceResult{
				AccountID:         account.ID,
				InitialBalance:    account.InitialBalance,
				CalculatedBalance: v,
			}
		}
		if len(results) == len(accounts) {
			return results, nil
		}
	}

	totals, err := s.totalsByAccount(userID)
	if err != nil {
		return nil, err
	}

	for _, account := range accounts {
		balance := balanceOf(account, totals[account.ID])
		results[account.ID] = &AccountBalanceResult{
			AccountID:         account.ID,
			InitialBalance:    account.InitialBalance,
			CalculatedBalance: balance,
		}
		s.balances.SetIfCurrent(cache.Key{Aggregate: cache.AggregateAccountBalance, UserID: userID, EntityID: account.ID}, balance, gen)
	}
	return results, nil
}

// TotalBalance sums the balances of every account of the user
func (s *CalculationService) TotalBalance(userID int32) (decimal.Decimal, error) {
	balances, err := s.CalculateAccountBalances(userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.CalculatedBalance)
	}
	return total, nil
}

// ComputeCardUsage returns the summed value of every transaction linked to the
// card, whatever its type. The result is never clamped to the credit limit.
func (s *CalculationService) ComputeCardUsage(userID int32, cardID int32) (decimal.Decimal, error) {
	if _, err := s.cardRepo.GetByID(userID, cardID); err != nil {
		return decimal.Zero, err
	}

	usages, err := s.usageByCard(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return usages[cardID], nil
}

// CalculateCardUsages derives the usage view of every card of the user
func (s *CalculationService) CalculateCardUsages(userID int32) (map[int32]*domain.CardUsage, error) {
	cards, err := s.cardRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}

	usages, err := s.usageByCard(userID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	results := make(map[int32]*domain.CardUsage, len(cards))
	for _, card := range cards {
		results[card.ID] = DescribeCardUsage(card, usages[card.ID], today)
	}
	return results, nil
}

// GetCardUsage derives the usage view of one card
func (s *CalculationService) GetCardUsage(userID int32, cardID int32) (*domain.CardUsage, error) {
	card, err := s.cardRepo.GetByID(userID, cardID)
	if err != nil {
		return nil, err
	}
	usages, err := s.usageByCard(userID)
	if err != nil {
		return nil, err
	}
	return DescribeCardUsage(card, usages[cardID], s.now()), nil
}

// DescribeCardUsage builds the usage view of a card from its raw usage
func DescribeCardUsage(card *domain.Card, usage decimal.Decimal, today time.Time) *domain.CardUsage {
	percent := UtilizationPercent(usage, card.CreditLimit)
	nextClose := util.NextOccurrence(today, card.CloseDay)
	return &domain.CardUsage{
		CardID:             card.ID,
		Usage:              usage,
		AvailableCredit:    card.CreditLimit.Sub(usage),
		UtilizationPercent: percent,
		Level:              UsageLevelFor(percent),
		NextCloseDate:      nextClose,
		NextDueDate:        util.NextOccurrence(nextClose, card.DueDay),
	}
}

// UtilizationPercent returns usage/limit*100 clamped to [0, 100] and rounded to
// two places. A zero limit is 0% when unused and 100% otherwise.
func UtilizationPercent(usage, limit decimal.Decimal) decimal.Decimal {
	if usage.Sign() <= 0 {
		return decimal.Zero
	}
	if limit.Sign() <= 0 {
		return hundred
	}
	percent := usage.Div(limit).Mul(hundred)
	if percent.GreaterThan(hundred) {
		return hundred
	}
	return percent.Round(2)
}

// UsageLevelFor buckets a utilization percentage
func UsageLevelFor(percent decimal.Decimal) domain.UsageLevel {
	switch {
	case percent.GreaterThanOrEqual(UsageCriticalThreshold):
		return domain.UsageLevelCritical
	case percent.GreaterThanOrEqual(UsageWarningThreshold):
		return domain.UsageLevelWarning
	default:
		return domain.UsageLevelNormal
	}
}

func (s *CalculationService) totalsByAccount(userID int32) (map[int32]*domain.AccountTotals, error) {
	totals, err := s.transactionRepo.GetAccountTotals(userID)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[int32]*domain.AccountTotals, len(totals))
	for _, t := range totals {
		byAccount[t.AccountID] = t
	}
	return byAccount, nil
}

// usageByCard serves card usage from the store when every card of the user
// is present, and refills the store otherwise
func (s *CalculationService) usageByCard(userID int32) (map[int32]decimal.Decimal, error) {
	totals, hit := s.cachedUsages(userID)
	if hit {
		return totals, nil
	}

	gen := s.usages.Generation(userID, cache.AggregateCardUsage)
	rows, err := s.cardRepo.GetUsageTotals(userID)
	if err != nil {
		return nil, err
	}
	totals = make(map[int32]decimal.Decimal, len(rows))
	for _, r := range rows {
		totals[r.CardID] = r.Total
		s.usages.SetIfCurrent(cache.Key{Aggregate: cache.AggregateCardUsage, UserID: userID, EntityID: r.CardID}, r.Total, gen)
	}
	return totals, nil
}

func (s *CalculationService) cachedUsages(userID int32) (map[int32]decimal.Decimal, bool) {
	if s.usages == nil {
		return nil, false
	}
	cards, err := s.cardRepo.GetAllByUser(userID)
	if err != nil || len(cards) == 0 {
		return nil, false
	}
	totals := make(map[int32]decimal.Decimal, len(cards))
	for _, c := range cards {
		v, ok := s.usages.Get(cache.Key{Aggregate: cache.AggregateCardUsage, UserID: userID, EntityID: c.ID})
		if !ok {
			return nil, false
		}
		totals[c.ID] = v
	}
	return totals, true
}

func balanceOf(account *domain.Account, totals *domain.AccountTotals) decimal.Decimal {
	if totals == nil {
		return account.InitialBalance
	}
	return account.InitialBalance.Add(totals.Net())
}
