// Package parent — service.go содержит логику аутентификации, управления
// сессиями и state-машину для пошаговых действий родителя.
package parent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/members"
	"serotonyl.ru/lumi-bot/internal/features/profile"
	"serotonyl.ru/lumi-bot/internal/features/report"
	"serotonyl.ru/lumi-bot/internal/features/usage"
)

// Access — кто родитель и какой у них пароль.
type Access struct {
	ParentIDs    []int64
	PasswordHash string
}

func (a Access) isParent(userID int64) bool {
	for _, id := range a.ParentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Service управляет родительской панелью.
type Service struct {
	store    Store
	access   Access
	clock    common.Clock
	members  *members.Service
	profiles *profile.Service
	usage    *usage.Service
	reports  *report.Service

	dialogs   map[int64]*Dialog // Состояния диалогов (in-memory)
	dialogsMu sync.Mutex
}

// NewService создаёт сервис родительской панели.
func NewService(
	store Store,
	access Access,
	clock common.Clock,
	membersSvc *members.Service,
	profiles *profile.Service,
	usageSvc *usage.Service,
	reports *report.Service,
) *Service {
	return &Service{
		store:    store,
		access:   access,
		clock:    clock,
		members:  membersSvc,
		profiles: profiles,
		usage:    usageSvc,
		reports:  reports,
		dialogs:  make(map[int64]*Dialog),
	}
}

// IsParent — userID указан в PARENT_IDS.
func (s *Service) IsParent(userID int64) bool {
	return s.access.isParent(userID)
}

// Login проверяет пароль. Три неудачные попытки за час блокируют вход
// до конца окна. При успехе создаётся сессия на 24 часа.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.IsParent(userID) {
		return common.ErrNotParent
	}
	now := s.clock()

	failed, err := s.store.FailedAttemptsSince(ctx, userID, now.Add(-AttemptWindow))
	if err != nil {
		return err
	}
	if failed >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := VerifyPassword(password, s.access.PasswordHash)
	if err := s.store.LogAttempt(ctx, userID, match, now); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Не удалось записать попытку входа")
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль родителя")
		return common.ErrWrongPassword
	}

	token, err := newSessionToken()
	if err != nil {
		return err
	}
	if err := s.store.CreateSession(ctx, Session{
		UserID:          userID,
		Token:           token,
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(SessionTTL),
	}); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Родитель вошёл в панель")
	return nil
}

// Logout завершает все сессии родителя.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearDialog(userID)
	return s.store.DeactivateSessions(ctx, userID)
}

// RequireSession возвращает ErrSessionExpired, если активной сессии нет.
func (s *Service) RequireSession(ctx context.Context, userID int64) error {
	if !s.IsParent(userID) {
		return common.ErrNotParent
	}
	_, err := s.store.ActiveSession(ctx, userID, s.clock())
	if errors.Is(err, ErrNoSession) {
		return common.ErrSessionExpired
	}
	return err
}

// Dialog возвращает текущее состояние диалога или nil, если оно истекло.
func (s *Service) Dialog(userID int64) *Dialog {
	s.dialogsMu.Lock()
	defer s.dialogsMu.Unlock()

	d, ok := s.dialogs[userID]
	if !ok {
		return nil
	}
	if s.clock().After(d.ExpiresAt) {
		delete(s.dialogs, userID)
		return nil
	}
	c := *d
	return &c
}

// SetDialog устанавливает шаг диалога с 5-минутным таймаутом.
func (s *Service) SetDialog(userID int64, d Dialog) {
	s.dialogsMu.Lock()
	defer s.dialogsMu.Unlock()
	d.ExpiresAt = s.clock().Add(DialogTTL)
	s.dialogs[userID] = &d
}

// ClearDialog сбрасывает состояние диалога.
func (s *Service) ClearDialog(userID int64) {
	s.dialogsMu.Lock()
	defer s.dialogsMu.Unlock()
	delete(s.dialogs, userID)
}

// Students возвращает учеников для выбора.
func (s *Service) Students(ctx context.Context, parentID int64) ([]members.Member, error) {
	if err := s.RequireSession(ctx, parentID); err != nil {
		return nil, err
	}
	return s.members.Students(ctx)
}

// Student возвращает снимок ученика.
func (s *Service) Student(ctx context.Context, parentID, studentID int64) (profile.Profile, error) {
	if err := s.RequireSession(ctx, parentID); err != nil {
		return profile.Profile{}, err
	}
	if _, err := s.members.Get(ctx, studentID); err != nil {
		if errors.Is(err, members.ErrNotFound) {
			return profile.Profile{}, common.ErrUserNotFound
		}
		return profile.Profile{}, err
	}
	return s.profiles.Get(ctx, studentID)
}

// SetDailyLimit меняет дневной лимит ученика.
func (s *Service) SetDailyLimit(ctx context.Context, parentID, studentID int64, minutes int) (profile.Profile, error) {
	if err := s.RequireSession(ctx, parentID); err != nil {
		return profile.Profile{}, err
	}
	p, err := s.usage.SetDailyLimit(ctx, studentID, minutes)
	if err == nil {
		log.WithFields(log.Fields{"parent_id": parentID, "user_id": studentID, "minutes": minutes}).Info("Родитель изменил дневной лимит")
	}
	return p, err
}

// SetAppLimit меняет лимит приложения.
func (s *Service) SetAppLimit(ctx context.Context, parentID, studentID int64, appID string, minutes int) (profile.Profile, error) {
	if err := s.RequireSession(ctx, parentID); err != nil {
		return profile.Profile{}, err
	}
	p, err := s.usage.SetAppLimit(ctx, studentID, appID, minutes)
	if err == nil {
		log.WithFields(log.Fields{"parent_id": parentID, "user_id": studentID, "app": appID, "minutes": minutes}).Info("Родитель изменил лимит приложения")
	}
	return p, err
}

// Stats — статистика ученика.
func (s *Service) Stats(ctx context.Context, parentID, studentID int64) (report.Stats, error) {
	if err := s.RequireSession(ctx, parentID); err != nil {
		return report.Stats{}, err
	}
	return s.reports.Stats(ctx, studentID)
}

// Summary — статистика и сводка от модели.
func (s *Service) Summary(ctx context.Context, parentID, studentID int64) (report.Stats, string, error) {
	if err := s.RequireSession(ctx, parentID); err != nil {
		return report.Stats{}, "", err
	}
	return s.reports.Summary(ctx, studentID)
}

// Export — XLSX-выгрузка по ученику.
func (s *Service) Export(ctx context.Context, parentID, studentID int64) ([]byte, error) {
	if err := s.RequireSession(ctx, parentID); err != nil {
		return nil, err
	}
	return s.reports.Export(ctx, studentID)
}

// SendDigests рассылает каждому родителю утреннюю сводку по всем ученикам.
// Сессия для дайджеста не нужна. Возвращает число отправленных сообщений.
func (s *Service) SendDigests(ctx context.Context, send usage.SendFunc) (int, error) {
	students, err := s.members.Students(ctx)
	if err != nil {
		return 0, fmt.Errorf("список учеников: %w", err)
	}
	if len(students) == 0 {
		return 0, nil
	}

	var digests []string
	for _, m := range students {
		text, err := s.reports.Digest(ctx, m.UserID, m.DisplayName())
		if err != nil {
			log.WithError(err).WithField("user_id", m.UserID).Error("Ошибка сборки дайджеста")
			continue
		}
		digests = append(digests, text)
	}
	if len(digests) == 0 {
		return 0, nil
	}

	sent := 0
	for _, parentID := range s.access.ParentIDs {
		if err := send(parentID, joinDigests(digests)); err != nil {
			log.WithError(err).WithField("parent_id", parentID).Warn("Не удалось отправить дайджест")
			continue
		}
		sent++
	}
	return sent, nil
}

func joinDigests(parts []string) string {
	out := "☀️ Tóm tắt buổi sáng"
	for _, p := range parts {
		out += "\n\n" + p
	}
	return out
}
