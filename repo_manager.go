package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories and doubles as the
// CredentialStore implementation backed by SQL.
type RepositoryManager interface {
	CredentialStore
	repository.Validator
	repository.TransactionManager
	Users() Users
	Payments() repository.Repository[*Payment]
}

func NewPaymentsRepository(db *bun.DB) repository.Repository[*Payment] {
	handlers := repository.ModelHandlers[*Payment]{
		NewRecord: func() *Payment {
			return &Payment{}
		},
		GetID: func(record *Payment) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Payment, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "payment_id"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db       *bun.DB
	users    Users
	payments repository.Repository[*Payment]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		payments: NewPaymentsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.payments == nil {
		return errors.New("repository payments should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Payments() repository.Repository[*Payment] {
	return m.payments
}

func (m mngr) FindByEmail(ctx context.Context, email string) (*User, error) {
	return m.users.FindByEmail(ctx, email)
}

func (m mngr) FindByID(ctx context.Context, id string) (*User, error) {
	return m.users.FindByID(ctx, id)
}

func (m mngr) Create(ctx context.Context, user *User) (*User, error) {
	return m.users.Register(ctx, user)
}

func (m mngr) TrackAttemptedLogin(ctx context.Context, user *User) error {
	return m.users.TrackAttemptedLogin(ctx, user)
}

func (m mngr) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return m.users.TrackSuccessfulLogin(ctx, user)
}

func (m mngr) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	return m.users.SetResetToken(ctx, id, digest, expiresAt)
}

func (m mngr) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return m.users.ClearResetToken(ctx, id)
}

func (m mngr) ConsumeResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.users.ConsumeResetToken(ctx, id, passwordHash)
}

func (m mngr) UpdateSubscription(ctx context.Context, id uuid.UUID, subscriptionID string, status SubscriptionStatus) error {
	return m.users.UpdateSubscription(ctx, id, subscriptionID, status)
}

// RecordPayment inserts a payment confirmation, relying on the unique
// payment_id index for dedupe. A replayed confirmation inserts nothing and
// reports false.
func (m mngr) RecordPayment(ctx context.Context, payment *Payment) (bool, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	res, err := m.db.NewInsert().
		Model(payment).
		On("CONFLICT (payment_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

var _ CredentialStore = (*mngr)(nil)
