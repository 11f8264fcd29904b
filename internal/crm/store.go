package crm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config selects the database backing a GormStore.
type Config struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

// GormStore implements Store on top of GORM.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// Open creates a GORM-backed store.
func Open(cfg Config) (*GormStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store dsn is required")
	}
	driver := normalizeDriver(cfg.Driver)
	if driver == "" {
		return nil, errors.Errorf("unsupported store driver: %q", cfg.Driver)
	}

	db, err := openGorm(driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s store", driver)
	}
	if driver == "sqlite" {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY between pooled connections.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to access sqlite connection pool")
		}
		sqlDB.SetMaxOpenConns(1)
	}

	store := NewGormStore(db)
	if cfg.AutoMigrate {
		if err := store.Migrate(context.Background()); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// NewGormStore wraps an existing GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the lead, customer and comment tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&leadRow{}, &customerRow{}, &commentRow{}); err != nil {
		return storeError("migrate", err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storeError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

// FindLeadByEmail returns the most recently updated Lead with the given email.
func (s *GormStore) FindLeadByEmail(ctx context.Context, email string) (*EntityRef, error) {
	var data leadRow
	err := s.db.WithContext(ctx).
		Select("name").
		Where("email_id = ?", email).
		Order("updated_at desc").
		Order("name").
		Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find lead", err)
	}
	return &EntityRef{Doctype: DoctypeLead, Name: data.Name}, nil
}

// LoadLead fetches a Lead by name.
func (s *GormStore) LoadLead(ctx context.Context, name string) (*Lead, error) {
	var data leadRow
	if err := s.take(ctx, &data, name); err != nil {
		return nil, err
	}
	lead := data.toLead()
	return &lead, nil
}

// FindCustomerByLeadName returns the Customer converted from the named Lead.
func (s *GormStore) FindCustomerByLeadName(ctx context.Context, leadName string) (*EntityRef, error) {
	var data customerRow
	err := s.db.WithContext(ctx).
		Select("name").
		Where("lead_name = ?", leadName).
		Order("updated_at desc").
		Order("name").
		Take(&data).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find customer", err)
	}
	return &EntityRef{Doctype: DoctypeCustomer, Name: data.Name}, nil
}

// LoadCustomer fetches a Customer by name.
func (s *GormStore) LoadCustomer(ctx context.Context, name string) (*Customer, error) {
	var data customerRow
	if err := s.take(ctx, &data, name); err != nil {
		return nil, err
	}
	customer := data.toCustomer()
	return &customer, nil
}

// CreateLead inserts lead, assigning its name and default status.
func (s *GormStore) CreateLead(ctx context.Context, actor Actor, lead *Lead) (EntityRef, error) {
	if !actor.IgnorePermissions {
		return EntityRef{}, errors.Wrapf(ErrPermissionDenied, "%s may not create leads", actor.Name)
	}
	if lead.Name == "" {
		lead.Name = newName("CRM-LEAD")
	}
	if lead.Status == "" {
		lead.Status = LeadStatusLead
	}
	data := leadRowFrom(*lead)
	if err := s.db.WithContext(ctx).Create(&data).Error; err != nil {
		return EntityRef{}, storeError("create lead", err)
	}
	lead.CreatedAt, lead.UpdatedAt = data.CreatedAt, data.UpdatedAt
	return lead.Ref(), nil
}

// CreateCustomer inserts customer, assigning its name.
func (s *GormStore) CreateCustomer(ctx context.Context, actor Actor, customer *Customer) (EntityRef, error) {
	if !actor.IgnorePermissions {
		return EntityRef{}, errors.Wrapf(ErrPermissionDenied, "%s may not create customers", actor.Name)
	}
	if customer.Name == "" {
		customer.Name = newName("CUST")
	}
	data := customerRowFrom(*customer)
	if err := s.db.WithContext(ctx).Create(&data).Error; err != nil {
		return EntityRef{}, storeError("create customer", err)
	}
	customer.CreatedAt, customer.UpdatedAt = data.CreatedAt, data.UpdatedAt
	return customer.Ref(), nil
}

// ConvertLead creates a Customer from the named Lead and marks the Lead as converted.
func (s *GormStore) ConvertLead(ctx context.Context, actor Actor, leadName, customerName string) (*Customer, error) {
	var customer *Customer
	err := s.Transaction(ctx, func(tx Store) error {
		lead, err := tx.LoadLead(ctx, leadName)
		if err != nil {
			return err
		}
		if customerName == "" {
			customerName = lead.LeadName
		}
		customer = &Customer{
			CustomerName: customerName,
			LeadName:     lead.Name,
			EmailID:      lead.EmailID,
			Phone:        lead.Phone,
		}
		gs := tx.(*GormStore)
		if _, err = gs.CreateCustomer(ctx, actor, customer); err != nil {
			return err
		}
		err = gs.db.WithContext(ctx).
			Model(&leadRow{}).
			Where("name = ?", lead.Name).
			Update("status", LeadStatusConverted).Error
		if err != nil {
			return storeError("convert lead", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// AddComment attaches content to the referenced record on behalf of author.
func (s *GormStore) AddComment(ctx context.Context, ref EntityRef, content string, author Actor) (*Comment, error) {
	var model any
	switch ref.Doctype {
	case DoctypeLead:
		model = &leadRow{}
	case DoctypeCustomer:
		model = &customerRow{}
	default:
		return nil, errors.Errorf("cannot comment on doctype %q", ref.Doctype)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("name = ?", ref.Name).Count(&count).Error; err != nil {
		return nil, storeError("add comment", err)
	}
	if count == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%s", ref)
	}

	data := commentRow{
		Name:             newName("COMM"),
		ReferenceDoctype: string(ref.Doctype),
		ReferenceName:    ref.Name,
		Content:          content,
		CommentBy:        author.Name,
		CommentEmail:     author.Email,
	}
	if err := s.db.WithContext(ctx).Create(&data).Error; err != nil {
		return nil, storeError("add comment", err)
	}
	comment := data.toComment()
	return &comment, nil
}

// ListComments returns the comments attached to ref, oldest first.
func (s *GormStore) ListComments(ctx context.Context, ref EntityRef) ([]Comment, error) {
	var data []commentRow
	err := s.db.WithContext(ctx).
		Where("reference_doctype = ? AND reference_name = ?", string(ref.Doctype), ref.Name).
		Order("created_at").
		Find(&data).Error
	if err != nil {
		return nil, storeError("list comments", err)
	}
	comments := make([]Comment, 0, len(data))
	for _, item := range data {
		comments = append(comments, item.toComment())
	}
	return comments, nil
}

// ListLeadsByEmail returns every Lead with the given email.
func (s *GormStore) ListLeadsByEmail(ctx context.Context, email string) ([]Lead, error) {
	var data []leadRow
	if err := s.db.WithContext(ctx).Where("email_id = ?", email).Order("created_at").Find(&data).Error; err != nil {
		return nil, storeError("list leads", err)
	}
	leads := make([]Lead, 0, len(data))
	for _, item := range data {
		leads = append(leads, item.toLead())
	}
	return leads, nil
}

// Transaction runs fn inside a database transaction. Returning an error rolls back.
func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&GormStore{db: tx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return storeError("transaction", err)
	}
	return err
}

func (s *GormStore) take(ctx context.Context, dest any, name string) error {
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return storeError("load", err)
	}
	return nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func newName(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func normalizeDriver(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "postgres", "postgresql", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
