package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/models"
	pkgmodels "github.com/jomarcello/Waviate/pkg/models"

	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(os.Stdout),
	})
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newGormLogger reports slow queries and real errors; lookups that miss are expected.
func newGormLogger(w io.Writer) gormlogger.Interface {
	return gormlogger.New(log.New(w, "\r\n", log.LstdFlags), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// sqliteDSN waits on a locked database instead of failing concurrent writers.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Lead{},
		&models.Conversation{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// Store persists leads, their conversations and messages. It also serves as the
// default conversation history backend.
type Store struct {
	db *gorm.DB
	// ensure collapses concurrent first contacts from one phone into a single insert.
	ensure singleflight.Group
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record is one message to persist for a phone number.
type Record struct {
	WaID        string
	Direction   string
	Content     string
	MessageType string
	Intent      string
	AIGenerated bool
}

type ensured struct {
	lead models.Lead
	conv models.Conversation
}

// EnsureConversation finds or creates the lead for phone and its current conversation.
// Concurrent callers for the same phone share one lookup so only one conversation is created.
func (s *Store) EnsureConversation(ctx context.Context, phone string) (*models.Lead, *models.Conversation, error) {
	v, err, _ := s.ensure.Do(phone, func() (any, error) {
		return s.ensureConversation(ctx, phone)
	})
	if err != nil {
		return nil, nil, err
	}
	e := v.(ensured)
	return &e.lead, &e.conv, nil
}

func (s *Store) ensureConversation(ctx context.Context, phone string) (ensured, error) {
	var lead models.Lead
	err := s.db.WithContext(ctx).
		Where(models.Lead{Phone: phone}).
		Attrs(models.Lead{Name: phone, Status: "new"}).
		FirstOrCreate(&lead).Error
	if err != nil {
		return ensured{}, fmt.Errorf("database: find or create lead: %w", err)
	}

	var conv models.Conversation
	err = s.db.WithContext(ctx).
		Where("lead_id = ?", lead.ID).
		Order("id DESC").
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		conv = models.Conversation{LeadID: lead.ID, Status: models.ConversationActive}
		if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
			return ensured{}, fmt.Errorf("database: create conversation: %w", err)
		}
	} else if err != nil {
		return ensured{}, fmt.Errorf("database: load conversation: %w", err)
	}

	return ensured{lead: lead, conv: conv}, nil
}

// Save stores records in order on the phone's current conversation.
func (s *Store) Save(ctx context.Context, phone string, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	_, conv, err := s.EnsureConversation(ctx, phone)
	if err != nil {
		return err
	}

	rows := make([]models.Message, len(records))
	for i, r := range records {
		rows[i] = models.Message{
			ConversationID: conv.ID,
			WaID:           r.WaID,
			Phone:          phone,
			Direction:      r.Direction,
			Content:        r.Content,
			MessageType:    r.MessageType,
			Intent:         r.Intent,
			AIGenerated:    r.AIGenerated,
		}
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("database: save messages: %w", err)
	}
	return nil
}

// Load returns the last limit turns of the phone's current conversation, oldest first.
// Inbound messages become user turns and outbound messages assistant turns.
func (s *Store) Load(ctx context.Context, phone string, limit int) ([]pkgmodels.Turn, error) {
	if limit <= 0 {
		return []pkgmodels.Turn{}, nil
	}

	var lead models.Lead
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []pkgmodels.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: load lead: %w", err)
	}

	var conv models.Conversation
	err = s.db.WithContext(ctx).Where("lead_id = ?", lead.ID).Order("id DESC").First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []pkgmodels.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: load conversation: %w", err)
	}

	var rows []models.Message
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("database: load messages: %w", err)
	}

	turns := make([]pkgmodels.Turn, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		turns = append(turns, toTurn(rows[i]))
	}
	return turns, nil
}

// Append stores turns as messages: user turns inbound, everything else outbound.
func (s *Store) Append(ctx context.Context, phone string, turns ...pkgmodels.Turn) error {
	records := make([]Record, len(turns))
	for i, t := range turns {
		direction := models.DirectionOutbound
		if t.Role == pkgmodels.RoleUser {
			direction = models.DirectionInbound
		}
		records[i] = Record{
			Direction:   direction,
			Content:     t.Content,
			MessageType: string(pkgmodels.MessageTypeText),
			AIGenerated: t.Role == pkgmodels.RoleAssistant,
		}
	}
	return s.Save(ctx, phone, records...)
}

func toTurn(m models.Message) pkgmodels.Turn {
	role := pkgmodels.RoleAssistant
	if m.Direction == models.DirectionInbound {
		role = pkgmodels.RoleUser
	}
	return pkgmodels.Turn{Role: role, Content: m.Content}
}

// MarkNeedsHuman flags the phone's current conversation for a human agent.
func (s *Store) MarkNeedsHuman(ctx context.Context, phone string) error {
	_, conv, err := s.EnsureConversation(ctx, phone)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).
		Model(conv).
		Update("status", models.ConversationNeedsHumanAttention).Error
	if err != nil {
		return fmt.Errorf("database: update conversation status: %w", err)
	}
	return nil
}

// ListMessages returns the most recent messages across all conversations, newest first.
func (s *Store) ListMessages(ctx context.Context, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("database: list messages: %w", err)
	}
	return messages, nil
}

// LeadSummary is a lead together with its current conversation status.
type LeadSummary struct {
	models.Lead
	ConversationStatus string `json:"conversation_status"`
	MessageCount       int64  `json:"message_count"`
}

func (s *Store) ListLeads(ctx context.Context) ([]LeadSummary, error) {
	var leads []models.Lead
	if err := s.db.WithContext(ctx).Order("updated_at DESC, id DESC").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("database: list leads: %w", err)
	}

	summaries := make([]LeadSummary, 0, len(leads))
	for _, lead := range leads {
		summary := LeadSummary{Lead: lead}

		var conv models.Conversation
		err := s.db.WithContext(ctx).Where("lead_id = ?", lead.ID).Order("id DESC").First(&conv).Error
		if err == nil {
			summary.ConversationStatus = conv.Status
			err = s.db.WithContext(ctx).Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&summary.MessageCount).Error
			if err != nil {
				return nil, fmt.Errorf("database: count messages: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database: load conversation: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

var ErrLeadNotFound = errors.New("database: lead not found")

// LeadConversation returns the lead's current conversation with its messages in order.
func (s *Store) LeadConversation(ctx context.Context, phone string) (*models.Lead, *models.Conversation, error) {
	var lead models.Lead
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("database: load lead: %w", err)
	}

	var conv models.Conversation
	err = s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("lead_id = ?", lead.ID).
		Order("id DESC").
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &lead, &models.Conversation{LeadID: lead.ID, Status: models.ConversationActive, Messages: []models.Message{}}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("database: load conversation: %w", err)
	}
	return &lead, &conv, nil
}
