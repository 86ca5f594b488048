package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/qts/internal/crypto"
	"github.com/vladislavdragonenkov/qts/internal/domain"
)

type settingsRepository struct {
	db     *sql.DB
	cipher *crypto.Cipher
}

// NewSettingsRepository создаёт PostgreSQL-реализацию SettingsStore.
// Шифр обязателен: токены магазинов и пароли каталожных баз
// хранятся только в зашифрованном виде.
func NewSettingsRepository(store *Store, cipher *crypto.Cipher) domain.SettingsStore {
	return &settingsRepository{db: store.DB(), cipher: cipher}
}

func (r *settingsRepository) StoreDefaults(storeID int64) (domain.StoreDefaults, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		defaults   domain.StoreDefaults
		shipperID  sql.NullInt64
		salesRepID sql.NullInt64
		termID     sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT status, shipper_id, sales_rep_id, term_id, title_prefix, expiration_days, routing_id
		FROM quotation_defaults
		WHERE store_id = $1
	`, storeID).Scan(
		&defaults.Status, &shipperID, &salesRepID, &termID,
		&defaults.TitlePrefix, &defaults.ExpirationDays, &defaults.RoutingID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StoreDefaults{}, domain.ErrStoreDefaultsMissing
		}
		return domain.StoreDefaults{}, fmt.Errorf("select quotation defaults: %w", err)
	}

	defaults.ShipperID = nullableID(shipperID)
	defaults.SalesRepID = nullableID(salesRepID)
	defaults.TermID = nullableID(termID)

	return defaults, nil
}

func (r *settingsRepository) CustomerMapping(storeID int64) (domain.CustomerMapping, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var mapping domain.CustomerMapping
	err := r.db.QueryRowContext(ctx, `
		SELECT customer_id, business_name
		FROM customer_mappings
		WHERE store_id = $1
	`, storeID).Scan(&mapping.CustomerID, &mapping.BusinessName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CustomerMapping{}, domain.ErrCustomerMappingMissing
		}
		return domain.CustomerMapping{}, fmt.Errorf("select customer mapping: %w", err)
	}

	return mapping, nil
}

func (r *settingsRepository) CatalogConnection(role domain.CatalogRole) (domain.CatalogConnection, error) {
	if !role.Valid() {
		return domain.CatalogConnection{}, fmt.Errorf("unsupported catalog role: %s", role)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	conn := domain.CatalogConnection{Role: role}
	var encryptedPassword string

	err := r.db.QueryRowContext(ctx, `
		SELECT host, port, database_name, username, password
		FROM sql_connections
		WHERE role = $1
	`, string(role)).Scan(&conn.Host, &conn.Port, &conn.Database, &conn.Username, &encryptedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CatalogConnection{}, domain.ErrCatalogConnectionMissing
		}
		return domain.CatalogConnection{}, fmt.Errorf("select catalog connection: %w", err)
	}

	conn.Password, err = r.cipher.Decrypt(encryptedPassword)
	if err != nil {
		return domain.CatalogConnection{}, fmt.Errorf("decrypt catalog password (%s): %w", role, err)
	}

	return conn, nil
}

func (r *settingsRepository) ListStores(activeOnly bool) ([]domain.SourceStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, name, shop_url, api_token, active, created_at, updated_at
		FROM shopify_stores
	`
	if activeOnly {
		query += " WHERE active"
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	var stores []domain.SourceStore
	for rows.Next() {
		store, err := r.scanStore(rows.Scan)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}

	return stores, nil
}

func (r *settingsRepository) GetStore(id int64) (domain.SourceStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, shop_url, api_token, active, created_at, updated_at
		FROM shopify_stores
		WHERE id = $1
	`, id)

	store, err := r.scanStore(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SourceStore{}, domain.ErrStoreNotFound
		}
		return domain.SourceStore{}, err
	}

	return store, nil
}

func (r *settingsRepository) CreateStore(name, shopURL, apiToken string) (int64, error) {
	name = strings.TrimSpace(name)
	shopURL = strings.TrimSpace(shopURL)
	if name == "" || shopURL == "" || apiToken == "" {
		return 0, fmt.Errorf("store name, shop url and api token are required")
	}

	encryptedToken, err := r.cipher.Encrypt(apiToken)
	if err != nil {
		return 0, fmt.Errorf("encrypt api token: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := time.Now().UTC()
	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO shopify_stores (name, shop_url, api_token, active, created_at, updated_at)
		VALUES ($1,$2,$3,TRUE,$4,$4)
		RETURNING id
	`, name, shopURL, encryptedToken, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert store: %w", err)
	}

	return id, nil
}

func (r *settingsRepository) UpdateStore(id int64, patch domain.SourceStorePatch) error {
	var (
		assignments []string
		args        []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", strings.TrimSpace(*patch.Name))
	}
	if patch.ShopURL != nil {
		set("shop_url", strings.TrimSpace(*patch.ShopURL))
	}
	if patch.APIToken != nil {
		encryptedToken, err := r.cipher.Encrypt(*patch.APIToken)
		if err != nil {
			return fmt.Errorf("encrypt api token: %w", err)
		}
		set("api_token", encryptedToken)
	}
	if len(assignments) == 0 {
		return nil
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE shopify_stores SET %s WHERE id = $%d",
		strings.Join(assignments, ", "), len(args),
	)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update store: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrStoreNotFound
	}

	return nil
}

func (r *settingsRepository) DeleteStore(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Маппинг и дефолты удаляются каскадом по внешнему ключу.
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopify_stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrStoreNotFound
	}

	return nil
}

func (r *settingsRepository) ListCatalogConnections() ([]domain.CatalogConnection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT role, host, port, database_name, username, password
		FROM sql_connections
		ORDER BY role
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog connections: %w", err)
	}
	defer rows.Close()

	var connections []domain.CatalogConnection
	for rows.Next() {
		var (
			conn              domain.CatalogConnection
			role              string
			encryptedPassword string
		)
		if err := rows.Scan(&role, &conn.Host, &conn.Port, &conn.Database, &conn.Username, &encryptedPassword); err != nil {
			return nil, fmt.Errorf("scan catalog connection: %w", err)
		}
		conn.Role = domain.CatalogRole(role)
		conn.Password, err = r.cipher.Decrypt(encryptedPassword)
		if err != nil {
			return nil, fmt.Errorf("decrypt catalog password (%s): %w", role, err)
		}
		connections = append(connections, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog connections: %w", err)
	}

	return connections, nil
}

func (r *settingsRepository) UpsertCatalogConnection(conn domain.CatalogConnection) error {
	if !conn.Role.Valid() {
		return fmt.Errorf("unsupported catalog role: %s", conn.Role)
	}

	encryptedPassword, err := r.cipher.Encrypt(conn.Password)
	if err != nil {
		return fmt.Errorf("encrypt catalog password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sql_connections (role, host, port, database_name, username, password, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (role) DO UPDATE SET
			host = EXCLUDED.host,
			port = EXCLUDED.port,
			database_name = EXCLUDED.database_name,
			username = EXCLUDED.username,
			password = EXCLUDED.password,
			updated_at = EXCLUDED.updated_at
	`, string(conn.Role), conn.Host, conn.Port, conn.Database, conn.Username, encryptedPassword, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert catalog connection: %w", err)
	}

	return nil
}

func (r *settingsRepository) UpsertCustomerMapping(storeID int64, mapping domain.CustomerMapping) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customer_mappings (store_id, customer_id, business_name, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (store_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			business_name = EXCLUDED.business_name,
			updated_at = EXCLUDED.updated_at
	`, storeID, mapping.CustomerID, mapping.BusinessName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert customer mapping: %w", err)
	}

	return nil
}

func (r *settingsRepository) UpsertStoreDefaults(storeID int64, defaults domain.StoreDefaults) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotation_defaults (
			store_id, status, shipper_id, sales_rep_id, term_id,
			title_prefix, expiration_days, routing_id, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (store_id) DO UPDATE SET
			status = EXCLUDED.status,
			shipper_id = EXCLUDED.shipper_id,
			sales_rep_id = EXCLUDED.sales_rep_id,
			term_id = EXCLUDED.term_id,
			title_prefix = EXCLUDED.title_prefix,
			expiration_days = EXCLUDED.expiration_days,
			routing_id = EXCLUDED.routing_id,
			updated_at = EXCLUDED.updated_at
	`,
		storeID, defaults.Status, defaults.ShipperID, defaults.SalesRepID, defaults.TermID,
		defaults.TitlePrefix, defaults.ExpirationDays, defaults.EffectiveRoutingID(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert quotation defaults: %w", err)
	}

	return nil
}

func (r *settingsRepository) scanStore(scan func(dest ...any) error) (domain.SourceStore, error) {
	var (
		store          domain.SourceStore
		encryptedToken string
	)
	if err := scan(
		&store.ID, &store.Name, &store.ShopURL, &encryptedToken,
		&store.Active, &store.CreatedAt, &store.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SourceStore{}, err
		}
		return domain.SourceStore{}, fmt.Errorf("scan store: %w", err)
	}

	token, err := r.cipher.Decrypt(encryptedToken)
	if err != nil {
		return domain.SourceStore{}, fmt.Errorf("decrypt api token for store %d: %w", store.ID, err)
	}
	store.APIToken = token

	return store, nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

var _ domain.SettingsStore = (*settingsRepository)(nil)
