package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ftgo/order-system/accounting-service/domain"
	"github.com/ftgo/order-system/shared/apperrors"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.AccountRepository = (*PostgresAccountRepository)(nil)

// PostgresAccountRepository implements AccountRepository using PostgreSQL
type PostgresAccountRepository struct {
	db *sqlx.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *sqlx.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// postgresAccount represents account in database
type postgresAccount struct {
	ID             string    `db:"id"`
	Status         string    `db:"status"`
	LimitAmount    int64     `db:"limit_amount"`
	LimitCurrency  string    `db:"limit_currency"`
	Authorizations []byte    `db:"authorizations"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Version        int       `db:"version"`
}

// Save inserts a new account
func (r *PostgresAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, status, limit_amount, limit_currency, authorizations, created_at, updated_at, version)
		VALUES (:id, :status, :limit_amount, :limit_currency, :authorizations, :created_at, :updated_at, :version)`

	pgAccount, err := r.toPostgres(account)
	if err != nil {
		return err
	}
	if _, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, pgAccount); err != nil {
		return errors.Wrap(err, "failed to insert account")
	}
	return nil
}

// Update updates an existing account with optimistic locking
func (r *PostgresAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET status = :status, limit_amount = :limit_amount, limit_currency = :limit_currency,
			authorizations = :authorizations, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgAccount, err := r.toPostgres(account)
	if err != nil {
		return err
	}

	result, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, map[string]interface{}{
		"id":             pgAccount.ID,
		"status":         pgAccount.Status,
		"limit_amount":   pgAccount.LimitAmount,
		"limit_currency": pgAccount.LimitCurrency,
		"authorizations": pgAccount.Authorizations,
		"updated_at":     pgAccount.UpdatedAt,
		"version":        pgAccount.Version,
		"old_version":    account.Version.Previous(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to update account")
	}

	return sharedinfra.CheckAffected(result, "account", account.ID)
}

// FindByID finds an account by ID
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id models.ID) (*domain.Account, error) {
	query := `
		SELECT id, status, limit_amount, limit_currency, authorizations, created_at, updated_at, version
		FROM accounts
		WHERE id = $1`

	var pgAccount postgresAccount
	if err := sharedinfra.Conn(ctx, r.db).GetContext(ctx, &pgAccount, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("account", id.String())
		}
		return nil, errors.Wrap(err, "failed to find account")
	}

	return r.toDomain(&pgAccount)
}

func (r *PostgresAccountRepository) toPostgres(account *domain.Account) (*postgresAccount, error) {
	authorizations, err := json.Marshal(account.Authorizations)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode authorizations")
	}

	return &postgresAccount{
		ID:             account.ID.String(),
		Status:         string(account.Status),
		LimitAmount:    account.AuthorizationLimit.Amount,
		LimitCurrency:  account.AuthorizationLimit.Currency,
		Authorizations: authorizations,
		CreatedAt:      account.Timestamps.CreatedAt,
		UpdatedAt:      account.Timestamps.UpdatedAt,
		Version:        account.Version.Value,
	}, nil
}

func (r *PostgresAccountRepository) toDomain(pgAccount *postgresAccount) (*domain.Account, error) {
	authorizations := make(map[models.ID]models.Money)
	if len(pgAccount.Authorizations) > 0 {
		if err := json.Unmarshal(pgAccount.Authorizations, &authorizations); err != nil {
			return nil, errors.Wrap(err, "invalid authorizations")
		}
	}

	return &domain.Account{
		ID:                 models.ID(pgAccount.ID),
		Status:             domain.AccountStatus(pgAccount.Status),
		AuthorizationLimit: models.NewMoney(pgAccount.LimitAmount, pgAccount.LimitCurrency),
		Authorizations:     authorizations,
		Timestamps: models.Timestamps{
			CreatedAt: pgAccount.CreatedAt,
			UpdatedAt: pgAccount.UpdatedAt,
		},
		Version: models.Version{Value: pgAccount.Version},
	}, nil
}
