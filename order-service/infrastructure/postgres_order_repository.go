package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ftgo/order-system/order-service/domain"
	"github.com/ftgo/order-system/shared/apperrors"
	sharedinfra "github.com/ftgo/order-system/shared/infrastructure"
	"github.com/ftgo/order-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents order in database
type postgresOrder struct {
	ID              string    `db:"id"`
	ConsumerID      string    `db:"consumer_id"`
	RestaurantID    string    `db:"restaurant_id"`
	State           string    `db:"state"`
	LineItems       []byte    `db:"line_items"`
	DeliveryTime    time.Time `db:"delivery_time"`
	DeliveryAddress string    `db:"delivery_address"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	Version         int       `db:"version"`
}

// Save inserts a new order
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, consumer_id, restaurant_id, state, line_items,
			delivery_time, delivery_address, created_at, updated_at, version
		) VALUES (
			:id, :consumer_id, :restaurant_id, :state, :line_items,
			:delivery_time, :delivery_address, :created_at, :updated_at, :version
		)`

	pgOrder, err := r.toPostgres(order)
	if err != nil {
		return err
	}
	if _, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, pgOrder); err != nil {
		return errors.Wrap(err, "failed to insert order")
	}
	return nil
}

// Update stores a transition, guarded by the order version
func (r *PostgresOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET state = :state, line_items = :line_items, updated_at = :updated_at, version = :version
		WHERE id = :id AND version = :old_version`

	pgOrder, err := r.toPostgres(order)
	if err != nil {
		return err
	}

	result, err := sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, map[string]interface{}{
		"id":          pgOrder.ID,
		"state":       pgOrder.State,
		"line_items":  pgOrder.LineItems,
		"updated_at":  pgOrder.UpdatedAt,
		"version":     pgOrder.Version,
		"old_version": order.Version.Previous(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to update order")
	}

	return sharedinfra.CheckAffected(result, "order", order.ID)
}

// FindByID finds an order by ID
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		SELECT id, consumer_id, restaurant_id, state, line_items,
			   delivery_time, delivery_address, created_at, updated_at, version
		FROM orders
		WHERE id = $1`

	var pgOrder postgresOrder
	if err := sharedinfra.Conn(ctx, r.db).GetContext(ctx, &pgOrder, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("order", id.String())
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	return r.toDomain(&pgOrder)
}

// toPostgres converts domain order to postgres model
func (r *PostgresOrderRepository) toPostgres(order *domain.Order) (*postgresOrder, error) {
	lineItems, err := json.Marshal(order.LineItems)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode line items")
	}

	return &postgresOrder{
		ID:              order.ID.String(),
		ConsumerID:      order.ConsumerID.String(),
		RestaurantID:    order.RestaurantID.String(),
		State:           string(order.State),
		LineItems:       lineItems,
		DeliveryTime:    order.DeliveryInformation.DeliveryTime,
		DeliveryAddress: order.DeliveryInformation.DeliveryAddress,
		CreatedAt:       order.Timestamps.CreatedAt,
		UpdatedAt:       order.Timestamps.UpdatedAt,
		Version:         order.Version.Value,
	}, nil
}

// toDomain converts postgres model to domain order
func (r *PostgresOrderRepository) toDomain(pgOrder *postgresOrder) (*domain.Order, error) {
	id, err := models.NewID(pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	var lineItems []domain.OrderLineItem
	if err := json.Unmarshal(pgOrder.LineItems, &lineItems); err != nil {
		return nil, errors.Wrap(err, "invalid line items")
	}

	return &domain.Order{
		ID:           id,
		ConsumerID:   models.ID(pgOrder.ConsumerID),
		RestaurantID: models.ID(pgOrder.RestaurantID),
		LineItems:    lineItems,
		DeliveryInformation: domain.DeliveryInformation{
			DeliveryTime:    pgOrder.DeliveryTime,
			DeliveryAddress: pgOrder.DeliveryAddress,
		},
		State: domain.OrderState(pgOrder.State),
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}

// PostgresRestaurantRepository implements RestaurantRepository using PostgreSQL
type PostgresRestaurantRepository struct {
	db *sqlx.DB
}

// NewPostgresRestaurantRepository creates a new PostgresRestaurantRepository
func NewPostgresRestaurantRepository(db *sqlx.DB) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{db: db}
}

type postgresRestaurant struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Menu []byte `db:"menu"`
}

// Save upserts the replica
func (r *PostgresRestaurantRepository) Save(ctx context.Context, restaurant *domain.Restaurant) error {
	query := `
		INSERT INTO restaurants (id, name, menu)
		VALUES (:id, :name, :menu)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, menu = EXCLUDED.menu`

	menu, err := json.Marshal(restaurant.Menu)
	if err != nil {
		return errors.Wrap(err, "failed to encode menu")
	}

	_, err = sharedinfra.Conn(ctx, r.db).NamedExecContext(ctx, query, &postgresRestaurant{
		ID:   restaurant.ID.String(),
		Name: restaurant.Name,
		Menu: menu,
	})
	if err != nil {
		return errors.Wrap(err, "failed to save restaurant")
	}
	return nil
}

// FindByID finds a restaurant by ID
func (r *PostgresRestaurantRepository) FindByID(ctx context.Context, id models.ID) (*domain.Restaurant, error) {
	query := `SELECT id, name, menu FROM restaurants WHERE id = $1`

	var pgRestaurant postgresRestaurant
	if err := sharedinfra.Conn(ctx, r.db).GetContext(ctx, &pgRestaurant, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("restaurant", id.String())
		}
		return nil, errors.Wrap(err, "failed to find restaurant")
	}

	var menu []domain.MenuItem
	if err := json.Unmarshal(pgRestaurant.Menu, &menu); err != nil {
		return nil, errors.Wrap(err, "invalid menu")
	}

	return &domain.Restaurant{
		ID:   models.ID(pgRestaurant.ID),
		Name: pgRestaurant.Name,
		Menu: menu,
	}, nil
}
