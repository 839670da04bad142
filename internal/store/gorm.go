package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"hrvoice-go/internal/apperr"
	"hrvoice-go/internal/logger"
	"hrvoice-go/internal/types"
)

// PostgreSQL error codes the store maps to domain errors.
const (
	PgErrUniqueViolation     = "23505"
	PgErrForeignKeyViolation = "23503"
)

type campaignRow struct {
	ID              string         `gorm:"primaryKey"`
	Title           string         `gorm:"not null"`
	Topic           string         `gorm:"not null"`
	AITone          string         `gorm:"column:ai_tone"`
	DurationMinutes int            `gorm:"not null"`
	TargetEmployees pq.StringArray `gorm:"type:text[]"`
	IsAnonymous     bool
	WelcomeMessage  string
	Status          string `gorm:"index;not null"`
	AgentID         string `gorm:"index"`
	StartDate       string
	CreatedBy       string
	CreatedAt       time.Time `gorm:"index"`
}

func (campaignRow) TableName() string { return "voice_interviews" }

type sessionRow struct {
	ID                 string `gorm:"primaryKey"`
	InterviewID        string `gorm:"not null;uniqueIndex:idx_sessions_interview_email"`
	EmployeeEmail      string `gorm:"not null;uniqueIndex:idx_sessions_interview_email"`
	EmployeeName       string
	SessionStatus      string `gorm:"index;not null"`
	StartedAt          *time.Time
	CompletedAt        *time.Time
	JoinToken          string
	Transcript         datatypes.JSON
	DurationSeconds    int
	SentimentScore     *float64
	KeyThemes          pq.StringArray `gorm:"type:text[]"`
	Summary            string
	UrgencyFlag        bool `gorm:"index"`
	RecommendedActions pq.StringArray `gorm:"type:text[]"`
	CreatedAt          time.Time      `gorm:"index"`
	UpdatedAt          time.Time
}

func (sessionRow) TableName() string { return "interview_sessions" }

func campaignToRow(c *types.Campaign) campaignRow {
	return campaignRow{
		ID:              c.ID,
		Title:           c.Title,
		Topic:           string(c.Topic),
		AITone:          string(c.AITone),
		DurationMinutes: c.DurationMinutes,
		TargetEmployees: pq.StringArray(c.TargetEmployees),
		IsAnonymous:     c.IsAnonymous,
		WelcomeMessage:  c.WelcomeMessage,
		Status:          string(c.Status),
		AgentID:         c.AgentID,
		StartDate:       c.StartDate,
		CreatedBy:       c.CreatedBy,
		CreatedAt:       c.CreatedAt,
	}
}

func (r campaignRow) toCampaign() types.Campaign {
	return types.Campaign{
		ID:              r.ID,
		Title:           r.Title,
		Topic:           types.Topic(r.Topic),
		AITone:          types.Tone(r.AITone),
		DurationMinutes: r.DurationMinutes,
		TargetEmployees: []string(r.TargetEmployees),
		IsAnonymous:     r.IsAnonymous,
		WelcomeMessage:  r.WelcomeMessage,
		Status:          types.CampaignStatus(r.Status),
		AgentID:         r.AgentID,
		StartDate:       r.StartDate,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
	}
}

func sessionToRow(s *types.Session) (sessionRow, error) {
	transcript, err := json.Marshal(s.Transcript)
	if err != nil {
		return sessionRow{}, fmt.Errorf("encode transcript: %w", err)
	}
	return sessionRow{
		ID:                 s.ID,
		InterviewID:        s.InterviewID,
		EmployeeEmail:      s.EmployeeEmail,
		EmployeeName:       s.EmployeeName,
		SessionStatus:      string(s.Status),
		StartedAt:          s.StartedAt,
		CompletedAt:        s.CompletedAt,
		JoinToken:          s.JoinToken,
		Transcript:         datatypes.JSON(transcript),
		DurationSeconds:    s.DurationSeconds,
		SentimentScore:     s.SentimentScore,
		KeyThemes:          pq.StringArray(s.KeyThemes),
		Summary:            s.Summary,
		UrgencyFlag:        s.UrgencyFlag,
		RecommendedActions: pq.StringArray(s.RecommendedActions),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}, nil
}

func (r sessionRow) toSession() types.Session {
	var transcript types.Transcript
	// lenient decode: a malformed blob reads back as an empty transcript
	_ = json.Unmarshal(r.Transcript, &transcript)
	return types.Session{
		ID:                 r.ID,
		InterviewID:        r.InterviewID,
		EmployeeEmail:      r.EmployeeEmail,
		EmployeeName:       r.EmployeeName,
		Status:             types.SessionStatus(r.SessionStatus),
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
		JoinToken:          r.JoinToken,
		Transcript:         transcript,
		DurationSeconds:    r.DurationSeconds,
		SentimentScore:     r.SentimentScore,
		KeyThemes:          []string(r.KeyThemes),
		Summary:            r.Summary,
		UrgencyFlag:        r.UrgencyFlag,
		RecommendedActions: []string(r.RecommendedActions),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// GormStore keeps campaigns and sessions in PostgreSQL.
type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormStore(db *gorm.DB, log *logger.Logger) *GormStore {
	return &GormStore{db: db, log: log.Component("store.gorm")}
}

// OpenGorm connects to dsn, retrying with exponential backoff up to attempts
// times, then migrates the schema. It is only used at startup.
func OpenGorm(ctx context.Context, dsn string, attempts int, log *logger.Logger) (*GormStore, error) {
	if attempts < 1 {
		attempts = 1
	}
	var db *gorm.DB
	connect := func() error {
		d, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return err
		}
		sqlDB, err := d.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return err
		}
		db = d
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(attempts-1)), ctx)
	attempt := 0
	err := backoff.RetryNotify(connect, policy, func(err error, wait time.Duration) {
		attempt++
		log.WithError(err).WithField("attempt", attempt).WithField("retry_in", wait.String()).Warn("database not ready")
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Info("connected to postgres")

	s := NewGormStore(db, log)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&campaignRow{}, &sessionRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	s.log.Info("database migration completed")
	return nil
}

func (s *GormStore) CreateCampaign(ctx context.Context, c *types.Campaign, sessions []*types.Session) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := campaignToRow(c)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(sessions) == 0 {
			return nil
		}
		rows := make([]sessionRow, 0, len(sessions))
		for _, sess := range sessions {
			r, err := sessionToRow(sess)
			if err != nil {
				return err
			}
			rows = append(rows, r)
		}
		return tx.Create(&rows).Error
	})
	return translateError(err, "campaign", c.ID)
}

func (s *GormStore) GetCampaign(ctx context.Context, id string) (*types.Campaign, error) {
	var row campaignRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "campaign", id)
	}
	c := row.toCampaign()
	return &c, nil
}

func (s *GormStore) FindCampaignByAgent(ctx context.Context, agentID string) (*types.Campaign, error) {
	if agentID == "" {
		return nil, apperr.NotFound("campaign", agentID)
	}
	var row campaignRow
	if err := s.db.WithContext(ctx).Where("agent_id = ?", agentID).First(&row).Error; err != nil {
		return nil, translateError(err, "campaign", agentID)
	}
	c := row.toCampaign()
	return &c, nil
}

func (s *GormStore) ListCampaigns(ctx context.Context, limit int) ([]types.Campaign, error) {
	var rows []campaignRow
	err := s.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limitOrDefault(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "campaign", "")
	}
	out := make([]types.Campaign, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCampaign())
	}
	return out, nil
}

func (s *GormStore) UpdateCampaign(ctx context.Context, id string, fn func(*types.Campaign) error) (*types.Campaign, error) {
	var out types.Campaign
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row campaignRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		c := row.toCampaign()
		if err := fn(&c); err != nil {
			return err
		}
		next := campaignToRow(&c)
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, translateError(err, "campaign", id)
	}
	return &out, nil
}

func (s *GormStore) CreateSession(ctx context.Context, sess *types.Session) error {
	row, err := sessionToRow(sess)
	if err != nil {
		return apperr.Internal("create session", err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&campaignRow{}).Where("id = ?", sess.InterviewID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("campaign", sess.InterviewID)
		}
		return tx.Create(&row).Error
	})
	return translateError(err, "session", sess.ID)
}

func (s *GormStore) GetSession(ctx context.Context, id string) (*types.Session, error) {
	var row sessionRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "session", id)
	}
	sess := row.toSession()
	return &sess, nil
}

func (s *GormStore) FindSession(ctx context.Context, campaignID, email string) (*types.Session, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).
		Where("interview_id = ? AND employee_email = ?", campaignID, email).
		First(&row).Error
	if err != nil {
		return nil, translateError(err, "session", email)
	}
	sess := row.toSession()
	return &sess, nil
}

func (s *GormStore) ListSessions(ctx context.Context, f SessionFilter) ([]types.Session, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if f.CampaignID != "" {
		q = q.Where("interview_id = ?", f.CampaignID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []sessionRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translateError(err, "session", "")
	}
	out := make([]types.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toSession())
	}
	return out, nil
}

func (s *GormStore) UpdateSession(ctx context.Context, id string, fn func(*types.Session) error) (*types.Session, error) {
	var out types.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row sessionRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		sess := row.toSession()
		if err := fn(&sess); err != nil {
			return err
		}
		next, err := sessionToRow(&sess)
		if err != nil {
			return err
		}
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		out = sess
		out.UpdatedAt = next.UpdatedAt
		return nil
	})
	if err != nil {
		return nil, translateError(err, "session", id)
	}
	return &out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps gorm and postgres failures onto the apperr taxonomy.
// Errors already in the taxonomy pass through unchanged.
func translateError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrUniqueViolation:
			e := apperr.Conflict(entity + " already exists")
			e.Details = pgErr.Detail
			return e
		case PgErrForeignKeyViolation:
			e := apperr.Validation("", "referenced record does not exist")
			e.Details = pgErr.Detail
			return e
		}
	}
	return apperr.Internal("store "+entity, err)
}
