// Package profile — service.go содержит единственную точку записи снимков.
// Все изменения профиля проходят через Apply: на каждого ученика один
// писатель за раз, каждый переход строится от последнего сохранённого снимка.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
)

// maxApplyAttempts — сколько раз повторяем переход при конфликте версий
// (второй экземпляр бота успел записать снимок раньше).
const maxApplyAttempts = 3

// Transition — чистая функция перехода: получает текущий снимок,
// возвращает следующий или ошибку (тогда снимок не меняется).
type Transition func(p Profile) (Profile, error)

// Service выдаёт и изменяет снимки профилей.
type Service struct {
	store Store
	seed  Seed
	clock common.Clock
	loc   *time.Location

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// NewService создаёт сервис профилей.
func NewService(store Store, seed Seed, clock common.Clock, loc *time.Location) *Service {
	return &Service{
		store: store,
		seed:  seed,
		clock: clock,
		loc:   loc,
		locks: make(map[int64]*sync.Mutex),
	}
}

// Now возвращает текущее время сервиса.
func (s *Service) Now() time.Time { return s.clock() }

// Location — часовой пояс, в котором считаются дни.
func (s *Service) Location() *time.Location { return s.loc }

// Today — текущая календарная дата.
func (s *Service) Today() time.Time { return common.LocalDate(s.clock(), s.loc) }

// Get возвращает последний снимок, создавая профиль при первом обращении.
func (s *Service) Get(ctx context.Context, userID int64) (Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}

	p, err = s.store.Create(ctx, NewProfile(userID, s.seed, s.Today()))
	if err != nil {
		return Profile{}, err
	}
	log.WithField("user_id", userID).Info("Создан новый профиль")
	return p, nil
}

// Apply применяет переход к профилю ученика.
//
// При ошибке перехода возвращается неизменённый снимок и та же ошибка.
// ErrUnchanged ошибкой не считается. Если изменился баланс, в журнал
// пишется транзакция с причиной reason.
func (s *Service) Apply(ctx context.Context, userID int64, reason string, fn Transition) (Profile, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		cur, err := s.Get(ctx, userID)
		if err != nil {
			return Profile{}, err
		}

		next, err := fn(cur)
		if errors.Is(err, ErrUnchanged) {
			return cur, nil
		}
		if err != nil {
			return cur, err
		}

		next.UserID = userID
		next.Version = cur.Version + 1
		next.UpdatedAt = s.clock()

		var tx *Transaction
		if delta := next.Points - cur.Points; delta != 0 {
			tx = &Transaction{
				UserID:       userID,
				Delta:        delta,
				BalanceAfter: next.Points,
				Reason:       reason,
				CreatedAt:    next.UpdatedAt,
			}
		}

		err = s.store.Update(ctx, cur.Version, next, tx)
		if errors.Is(err, ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return cur, fmt.Errorf("ошибка сохранения профиля: %w", err)
		}

		log.WithFields(log.Fields{
			"user_id": userID,
			"reason":  reason,
			"version": next.Version,
			"delta":   next.Points - cur.Points,
		}).Debug("Профиль обновлён")
		return next, nil
	}

	return Profile{}, fmt.Errorf("профиль %d: %w", userID, lastErr)
}

// History возвращает последние операции с баллами.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]Transaction, error) {
	return s.store.Transactions(ctx, userID, limit)
}

// UserIDs возвращает всех учеников с профилем (для фоновых задач).
func (s *Service) UserIDs(ctx context.Context) ([]int64, error) {
	return s.store.UserIDs(ctx)
}

func (s *Service) userLock(userID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	return mu
}
