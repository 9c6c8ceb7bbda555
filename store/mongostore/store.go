package mongostore

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/coursemind/go-auth"
)

const (
	usersCollection    = "users"
	paymentsCollection = "payments"
)

// Store is the document database implementation of auth.CredentialStore.
// Every method is a single document operation; multi-step flows lean on
// conditional updates instead of transactions.
type Store struct {
	users    *mongo.Collection
	payments *mongo.Collection
}

var _ auth.CredentialStore = (*Store)(nil)

// New creates a Store bound to the given database.
func New(db *mongo.Database) *Store {
	return &Store{
		users:    db.Collection(usersCollection),
		payments: db.Collection(paymentsCollection),
	}
}

// EnsureIndexes creates the unique indexes the store relies on: user email
// and provider payment id.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create users email index")
	}

	_, err = s.payments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "payment_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create payments index")
	}

	return nil
}

type userDoc struct {
	ID                  string     `bson:"_id"`
	FullName            string     `bson:"full_name"`
	Email               string     `bson:"email"`
	PasswordHash        string     `bson:"password_hash"`
	Role                string     `bson:"user_role"`
	AvatarID            string     `bson:"avatar_id,omitempty"`
	AvatarURL           string     `bson:"avatar_url,omitempty"`
	SubscriptionID      string     `bson:"subscription_id,omitempty"`
	SubscriptionStatus  string     `bson:"subscription_status,omitempty"`
	ResetTokenHash      *string    `bson:"reset_token_hash,omitempty"`
	ResetTokenExpiresAt *time.Time `bson:"reset_token_expires_at,omitempty"`
	LoginAttempts       int        `bson:"login_attempts,omitempty"`
	LoginAttemptAt      *time.Time `bson:"login_attempt_at,omitempty"`
	LoggedInAt          *time.Time `bson:"loggedin_at,omitempty"`
	CreatedAt           *time.Time `bson:"created_at,omitempty"`
	UpdatedAt           *time.Time `bson:"updated_at,omitempty"`
}

type paymentDoc struct {
	ID             string     `bson:"_id"`
	UserID         string     `bson:"user_id"`
	PaymentID      string     `bson:"payment_id"`
	SubscriptionID string     `bson:"subscription_id"`
	Signature      string     `bson:"signature,omitempty"`
	CreatedAt      *time.Time `bson:"created_at,omitempty"`
}

func docFromUser(user *auth.User) *userDoc {
	return &userDoc{
		ID:                  user.ID.String(),
		FullName:            user.FullName,
		Email:               user.Email,
		PasswordHash:        user.PasswordHash,
		Role:                string(user.Role),
		AvatarID:            user.AvatarID,
		AvatarURL:           user.AvatarURL,
		SubscriptionID:      user.SubscriptionID,
		SubscriptionStatus:  string(user.SubscriptionStatus),
		ResetTokenHash:      user.ResetTokenHash,
		ResetTokenExpiresAt: user.ResetTokenExpiresAt,
		LoginAttempts:       user.LoginAttempts,
		LoginAttemptAt:      user.LoginAttemptAt,
		LoggedInAt:          user.LoggedInAt,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}
}

func (d *userDoc) toUser() (*auth.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "stored user has an invalid id").
			WithMetadata(map[string]any{"id": d.ID})
	}

	user := &auth.User{
		ID:                  id,
		FullName:            d.FullName,
		Email:               d.Email,
		PasswordHash:        d.PasswordHash,
		Role:                auth.UserRole(d.Role),
		AvatarID:            d.AvatarID,
		AvatarURL:           d.AvatarURL,
		SubscriptionID:      d.SubscriptionID,
		SubscriptionStatus:  auth.SubscriptionStatus(d.SubscriptionStatus),
		ResetTokenHash:      d.ResetTokenHash,
		ResetTokenExpiresAt: d.ResetTokenExpiresAt,
		LoginAttempts:       d.LoginAttempts,
		LoginAttemptAt:      d.LoginAttemptAt,
		LoggedInAt:          d.LoggedInAt,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	user.EnsureDefaults()

	return user, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"email": auth.NormalizeEmail(email)})
}

func (s *Store) FindByID(ctx context.Context, id string) (*auth.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*auth.User, error) {
	doc := &userDoc{}
	if err := s.users.FindOne(ctx, filter).Decode(doc); err != nil {
		if goerrors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user")
	}

	return doc.toUser()
}

func (s *Store) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	user.EnsureDefaults()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now()
	if user.CreatedAt == nil {
		user.CreatedAt = &now
	}
	user.UpdatedAt = &now

	if _, err := s.users.InsertOne(ctx, docFromUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, auth.ErrEmailAlreadyExists
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	return user, nil
}

func (s *Store) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	now := time.Now()
	return s.updateOne(ctx, user.ID, bson.M{
		"$inc": bson.M{"login_attempts": 1},
		"$set": bson.M{"login_attempt_at": now},
	})
}

func (s *Store) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	now := time.Now()
	return s.updateOne(ctx, user.ID, bson.M{
		"$set":   bson.M{"loggedin_at": now, "login_attempts": 0},
		"$unset": bson.M{"login_attempt_at": ""},
	})
}

func (s *Store) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	return s.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"reset_token_hash":       digest,
			"reset_token_expires_at": expiresAt,
		},
	})
}

func (s *Store) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	return s.updateOne(ctx, id, bson.M{
		"$unset": bson.M{
			"reset_token_hash":       "",
			"reset_token_expires_at": "",
		},
	})
}

// ConsumeResetToken spends the outstanding token and replaces the password in
// one conditional update. The filter on reset_token_hash guarantees only one
// of two concurrent consumes succeeds.
func (s *Store) ConsumeResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res := s.users.FindOneAndUpdate(ctx,
		bson.M{
			"_id":              id.String(),
			"reset_token_hash": bson.M{"$exists": true},
		},
		bson.M{
			"$set": bson.M{
				"password_hash": passwordHash,
				"updated_at":    time.Now(),
			},
			"$unset": bson.M{
				"reset_token_hash":       "",
				"reset_token_expires_at": "",
			},
		},
	)

	if err := res.Err(); err != nil {
		if goerrors.Is(err, mongo.ErrNoDocuments) {
			return auth.ErrInvalidResetToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume reset token")
	}

	return nil
}

func (s *Store) UpdateSubscription(ctx context.Context, id uuid.UUID, subscriptionID string, status auth.SubscriptionStatus) error {
	return s.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"subscription_id":     subscriptionID,
			"subscription_status": string(status),
			"updated_at":          time.Now(),
		},
	})
}

// RecordPayment inserts a payment confirmation. A replayed confirmation hits
// the unique payment_id index and reports false without error.
func (s *Store) RecordPayment(ctx context.Context, payment *auth.Payment) (bool, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	now := time.Now()
	doc := &paymentDoc{
		ID:             payment.ID.String(),
		UserID:         payment.UserID.String(),
		PaymentID:      payment.PaymentID,
		SubscriptionID: payment.SubscriptionID,
		Signature:      payment.Signature,
		CreatedAt:      &now,
	}

	if _, err := s.payments.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record payment")
	}

	return true, nil
}

func (s *Store) updateOne(ctx context.Context, id uuid.UUID, update bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	if res.MatchedCount == 0 {
		return auth.ErrIdentityNotFound
	}

	return nil
}
