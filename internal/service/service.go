package service

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mkazlouski/budget-bank/internal/config"
)

// Service handles business logic
type Service struct {
	store    Store
	rates    RateSource
	notifier Notifier
	log      *logrus.Logger
	config   *config.Config

	locks cardLocks
}

// NewService initializes a new service. notifier may be nil.
func NewService(store Store, rates RateSource, notifier Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		rates:    rates,
		notifier: notifier,
		log:      log,
		config:   cfg,
		locks:    cardLocks{m: make(map[int64]*sync.Mutex)},
	}
}

// cardLocks serializes balance mutations per card. Every operation that
// touches a card's monetary fields holds that card's lock for its whole
// read-modify-write cycle.
type cardLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

// lock acquires the locks for the given card ids in ascending order so that
// two transfers between the same pair of cards cannot deadlock. The returned
// function releases them.
func (l *cardLocks) lock(ids ...int64) func() {
	sorted := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			sorted = append(sorted, id)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	acquired := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		l.mu.Lock()
		mu, ok := l.m[id]
		if !ok {
			mu = &sync.Mutex{}
			l.m[id] = mu
		}
		l.mu.Unlock()
		mu.Lock()
		acquired = append(acquired, mu)
	}

	return func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			acquired[i].Unlock()
		}
	}
}
