package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	"github.com/firewise/fireedu-api/internal/event"
	"github.com/firewise/fireedu-api/internal/handler/dto"
	"github.com/firewise/fireedu-api/internal/metrics"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
	"github.com/firewise/fireedu-api/internal/service/engagement"
	"github.com/firewise/fireedu-api/pkg/logger"
)

// ActivityService ведет журнал активности и кешированный счетчик очков
type ActivityService struct {
	db             *gorm.DB
	userRepo       repository.UserRepository
	engagementRepo repository.EngagementRepository
	cacheRepo      repository.CacheRepository
	notifier       Notifier
	publisher      event.Publisher
	log            *logger.Logger
}

// NewActivityService создает новый сервис активности
func NewActivityService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	engagementRepo repository.EngagementRepository,
	cacheRepo repository.CacheRepository,
	notifier Notifier,
	publisher event.Publisher,
	log *logger.Logger,
) *ActivityService {
	return &ActivityService{
		db:             db,
		userRepo:       userRepo,
		engagementRepo: engagementRepo,
		cacheRepo:      cacheRepo,
		notifier:       notifier,
		publisher:      publisher,
		log:            log.With("component", "ActivityService"),
	}
}

// Record добавляет запись в журнал и увеличивает счетчик очков в одной транзакции.
// Повторный вызов с теми же аргументами создает вторую запись: события не дедуплицируются.
func (s *ActivityService) Record(ctx context.Context, userID uint, eventType entity.EventType, metadata map[string]interface{}) (*entity.EngagementLog, error) {
	if err := validateEventType(eventType); err != nil {
		return nil, err
	}

	var entry *entity.EngagementLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.RecordTx(ctx, tx, userID, eventType, metadata)
		return txErr
	})
	if err != nil {
		return nil, persistenceError("record activity", err)
	}

	s.AfterCommit(ctx, entry)
	return entry, nil
}

// RecordTx выполняет запись в переданной транзакции. Вызывающий отвечает за commit
// и за вызов AfterCommit после него.
func (s *ActivityService) RecordTx(ctx context.Context, tx *gorm.DB, userID uint, eventType entity.EventType, metadata map[string]interface{}) (*entity.EngagementLog, error) {
	if err := validateEventType(eventType); err != nil {
		return nil, err
	}
	points, _ := engagement.PointsFor(eventType)

	// Сначала инкремент: блокирует строку пользователя и проверяет его существование
	if err := s.userRepo.IncrementEngagementPoints(ctx, tx, userID, points); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
		}
		return nil, persistenceError("increment engagement points", err)
	}

	entry := &entity.EngagementLog{
		UserID:    userID,
		EventType: eventType,
		Points:    points,
		EventData: metadata,
	}
	if err := s.engagementRepo.Append(ctx, tx, entry); err != nil {
		return nil, persistenceError("append engagement log", err)
	}
	return entry, nil
}

// AfterCommit выполняет побочные эффекты записи. Ошибки только логируются:
// запись уже зафиксирована.
func (s *ActivityService) AfterCommit(ctx context.Context, entry *entity.EngagementLog) {
	if entry == nil {
		return
	}

	metrics.ActivityRecorded(string(entry.EventType), entry.Points)

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Delete(ctx, dashboardCacheKey(entry.UserID)); err != nil {
			s.log.Warn("failed to drop dashboard cache", "userID", entry.UserID, "error", err)
		}
		if err := s.cacheRepo.DeleteByPrefix(ctx, leaderboardCachePrefix); err != nil {
			s.log.Warn("failed to drop leaderboard cache", "error", err)
		}
	}

	payload := map[string]interface{}{
		"userId":    entry.UserID,
		"eventType": entry.EventType,
		"points":    entry.Points,
		"timestamp": entry.CreatedAt,
	}
	s.notifier.NotifyUser(entry.UserID, LiveEngagementUpdated, payload)

	if err := s.publisher.Publish(ctx, event.ActivityRecorded, payload); err != nil {
		s.log.Warn("failed to publish activity event", "userID", entry.UserID, "error", err)
	}

	s.log.Debug("activity recorded", "userID", entry.UserID, "eventType", entry.EventType, "points", entry.Points)
}

// History возвращает страницу журнала пользователя, новые записи первыми
func (s *ActivityService) History(ctx context.Context, userID uint, page, pageSize int) (*dto.PaginatedActivityResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	logs, total, err := s.engagementRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, persistenceError("list engagement log", err)
	}

	entries := make([]*dto.ActivityEntryDTO, len(logs))
	for i := range logs {
		entries[i] = dto.NewActivityEntryDTO(&logs[i])
	}
	return &dto.PaginatedActivityResponse{
		Entries: entries,
		Total:   total,
		Page:    page,
		PerPage: pageSize,
	}, nil
}

func validateEventType(eventType entity.EventType) error {
	if !eventType.IsValid() {
		return fmt.Errorf("%w: unknown activity type %q", apperrors.ErrValidation, eventType)
	}
	return nil
}
