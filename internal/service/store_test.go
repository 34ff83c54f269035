package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mkazlouski/budget-bank/internal/config"
	"github.com/mkazlouski/budget-bank/internal/models"
)

// fakeStore is an in-memory Store. InTx snapshots all state before running
// fn and restores it on error, giving the same all-or-nothing behavior as a
// database transaction.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	cards    map[int64]*models.Card
	payments []*models.Payment
	policies map[int64]*models.BudgetSystem
	apps     map[int64]*models.CreditApplication
	credits  map[int64]*models.Credit
	jobRuns  map[string]bool
	nextID   int64

	failPayments    bool
	failCardUpdates bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.User),
		cards:    make(map[int64]*models.Card),
		policies: make(map[int64]*models.BudgetSystem),
		apps:     make(map[int64]*models.CreditApplication),
		credits:  make(map[int64]*models.Credit),
		jobRuns:  make(map[string]bool),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) InTx(ctx context.Context, fn func(Store) error) error {
	f.mu.Lock()
	snap := f.snapshot()
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.restore(snap)
		f.mu.Unlock()
		return err
	}
	return nil
}

type fakeSnapshot struct {
	users    map[int64]*models.User
	cards    map[int64]*models.Card
	payments []*models.Payment
	policies map[int64]*models.BudgetSystem
	apps     map[int64]*models.CreditApplication
	credits  map[int64]*models.Credit
	jobRuns  map[string]bool
	nextID   int64
}

func (f *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		users:    make(map[int64]*models.User, len(f.users)),
		cards:    make(map[int64]*models.Card, len(f.cards)),
		payments: append([]*models.Payment(nil), f.payments...),
		policies: make(map[int64]*models.BudgetSystem, len(f.policies)),
		apps:     make(map[int64]*models.CreditApplication, len(f.apps)),
		credits:  make(map[int64]*models.Credit, len(f.credits)),
		jobRuns:  make(map[string]bool, len(f.jobRuns)),
		nextID:   f.nextID,
	}
	for id, u := range f.users {
		cp := *u
		snap.users[id] = &cp
	}
	for id, c := range f.cards {
		cp := *c
		snap.cards[id] = &cp
	}
	for id, p := range f.policies {
		cp := *p
		snap.policies[id] = &cp
	}
	for id, a := range f.apps {
		cp := *a
		snap.apps[id] = &cp
	}
	for id, c := range f.credits {
		cp := *c
		snap.credits[id] = &cp
	}
	for k, v := range f.jobRuns {
		snap.jobRuns[k] = v
	}
	return snap
}

func (f *fakeStore) restore(snap fakeSnapshot) {
	f.users = snap.users
	f.cards = snap.cards
	f.payments = snap.payments
	f.policies = snap.policies
	f.apps = snap.apps
	f.credits = snap.credits
	f.jobRuns = snap.jobRuns
	f.nextID = snap.nextID
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.id()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errNotFound("user")
}

func (f *fakeStore) UserByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errNotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) CreateCard(ctx context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	card.ID = f.id()
	cp := *card
	f.cards[card.ID] = &cp
	return nil
}

func (f *fakeStore) CardByID(ctx context.Context, id int64) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) CardByAccountNo(ctx context.Context, accountNo string) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.AccountNo == accountNo {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCardNotFound
}

func (f *fakeStore) CardsByUser(ctx context.Context, userID int64) ([]*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cards []*models.Card
	for _, c := range f.cards {
		if c.UserID == userID {
			cp := *c
			cards = append(cards, &cp)
		}
	}
	return cards, nil
}

func (f *fakeStore) UpdateCardBalances(ctx context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCardUpdates {
		return errForced
	}
	if _, ok := f.cards[card.ID]; !ok {
		return ErrCardNotFound
	}
	cp := *card
	f.cards[card.ID] = &cp
	return nil
}

func (f *fakeStore) CardsWithBudget(ctx context.Context) ([]*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cards []*models.Card
	for _, c := range f.cards {
		if c.UsingSystem {
			cp := *c
			cards = append(cards, &cp)
		}
	}
	return cards, nil
}

func (f *fakeStore) CardsWithStaleDeposits(ctx context.Context, before time.Time) ([]*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cards []*models.Card
	for _, c := range f.cards {
		if c.DepositPending && c.PendingDepositAmount.Sign() > 0 &&
			c.DepositRequestedAt != nil && !c.DepositRequestedAt.After(before) {
			cp := *c
			cards = append(cards, &cp)
		}
	}
	return cards, nil
}

func (f *fakeStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPayments {
		return errForced
	}
	payment.ID = f.id()
	payment.Timestamp = time.Now()
	cp := *payment
	f.payments = append(f.payments, &cp)
	return nil
}

func (f *fakeStore) PaymentsByCard(ctx context.Context, cardID int64) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var payments []*models.Payment
	for _, p := range f.payments {
		if p.CardID == cardID {
			cp := *p
			payments = append(payments, &cp)
		}
	}
	return payments, nil
}

func (f *fakeStore) CreatePolicy(ctx context.Context, policy *models.BudgetSystem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.policies[policy.CardID]; ok {
		return ErrPolicyExists
	}
	policy.ID = f.id()
	cp := *policy
	f.policies[policy.CardID] = &cp
	return nil
}

func (f *fakeStore) UpdatePolicy(ctx context.Context, policy *models.BudgetSystem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.policies[policy.CardID]
	if !ok {
		return ErrPolicyNotFound
	}
	policy.ID = existing.ID
	cp := *policy
	f.policies[policy.CardID] = &cp
	return nil
}

func (f *fakeStore) DeletePolicy(ctx context.Context, cardID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.policies[cardID]; !ok {
		return ErrPolicyNotFound
	}
	delete(f.policies, cardID)
	return nil
}

func (f *fakeStore) PolicyByCard(ctx context.Context, cardID int64) (*models.BudgetSystem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.policies[cardID]
	if !ok {
		return nil, ErrPolicyNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) CreateApplication(ctx context.Context, app *models.CreditApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	app.ID = f.id()
	cp := *app
	f.apps[app.ID] = &cp
	return nil
}

func (f *fakeStore) ApplicationByID(ctx context.Context, id int64) (*models.CreditApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return ErrApplicationNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeStore) CreateCredit(ctx context.Context, credit *models.Credit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	credit.ID = f.id()
	cp := *credit
	f.credits[credit.ID] = &cp
	return nil
}

func (f *fakeStore) ActiveCredits(ctx context.Context) ([]*models.Credit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var credits []*models.Credit
	for _, c := range f.credits {
		if c.Status == models.CreditApproved {
			cp := *c
			credits = append(credits, &cp)
		}
	}
	return credits, nil
}

func (f *fakeStore) UpdateCredit(ctx context.Context, credit *models.Credit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.credits[credit.ID]; !ok {
		return errNotFound("credit")
	}
	cp := *credit
	f.credits[credit.ID] = &cp
	return nil
}

func (f *fakeStore) ClaimJobRun(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobRuns[key] {
		return false, nil
	}
	f.jobRuns[key] = true
	return true, nil
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

func errNotFound(what string) error { return fakeErr(what + " not found") }

var errForced = fakeErr("forced storage failure")

// fixedRates returns a constant rate, or an error when broken.
type fixedRates struct {
	rate   decimal.Decimal
	broken bool
}

func (r fixedRates) USDRate(ctx context.Context) (decimal.Decimal, error) {
	if r.broken {
		return decimal.Zero, fakeErr("rate provider down")
	}
	return r.rate, nil
}

func newTestService(store Store, rates RateSource) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:            "test-secret",
		DefaultUSDRate:       "3.116",
		CreditAnnualRate:     "5.0",
		CreditTermMonths:     12,
		DepositAutoSettleAge: 72 * time.Hour,
	}
	return NewService(store, rates, nil, log, cfg)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
