package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fieldops/backend/internal/domain/directory"
	"github.com/fieldops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockClientRepository creates a GormClientRepository with a mocked SQL connection
func newMockClientRepository(t *testing.T) (*GormClientRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormClientRepository(gormDB), mock, mockDB
}

func clientRows(clientID, tenantID uuid.UUID, name, email, phone string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tenant_id", "name", "email", "phone", "phone_digits", "status", "sync_status", "pending_fields"}).
		AddRow(clientID, tenantID, name, email, phone, directory.PhoneDigits(phone), "active", "unsynced", "[]")
}

func TestGormClientRepository_FindByID(t *testing.T) {
	t.Run("finds existing client", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, clientID, 1).
			WillReturnRows(clientRows(clientID, tenantID, "Acme Plumbing", "ops@acme.test", "+1 (555) 010-0100"))

		client, err := repo.FindByID(context.Background(), tenantID, clientID)

		assert.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, clientID, client.ID)
		assert.Equal(t, tenantID, client.TenantID)
		assert.Equal(t, "Acme Plumbing", client.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing client", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, clientID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		client, err := repo.FindByID(context.Background(), tenantID, clientID)

		assert.Nil(t, client)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_FindByExternalID(t *testing.T) {
	t.Run("finds client by external identifier", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND external_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "LB-1001", 1).
			WillReturnRows(clientRows(clientID, tenantID, "Acme Plumbing", "", ""))

		client, err := repo.FindByExternalID(context.Background(), tenantID, "LB-1001")

		assert.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, clientID, client.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty external id short-circuits without querying", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		client, err := repo.FindByExternalID(context.Background(), uuid.New(), "")

		assert.Nil(t, client)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_FindByEmailFold(t *testing.T) {
	t.Run("matches case-insensitively on trimmed email", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND LOWER\(TRIM\(email\)\) = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "ops@acme.test", 1).
			WillReturnRows(clientRows(clientID, tenantID, "Acme Plumbing", "Ops@Acme.Test", ""))

		client, err := repo.FindByEmailFold(context.Background(), tenantID, "  OPS@ACME.TEST ")

		assert.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, clientID, client.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blank email short-circuits without querying", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		client, err := repo.FindByEmailFold(context.Background(), uuid.New(), "   ")

		assert.Nil(t, client)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_FindByPhoneDigits(t *testing.T) {
	t.Run("matches on the indexed digit column", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		clientID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND phone_digits = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "15550100100", 1).
			WillReturnRows(clientRows(clientID, tenantID, "Acme Plumbing", "", "+1 (555) 010-0100"))

		client, err := repo.FindByPhoneDigits(context.Background(), tenantID, "15550100100")

		assert.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, clientID, client.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short digit strings never match", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		client, err := repo.FindByPhoneDigits(context.Background(), uuid.New(), "555")

		assert.Nil(t, client)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClientRepository_Update(t *testing.T) {
	t.Run("returns not found when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockClientRepository(t)
		defer mockDB.Close()

		client, err := directory.NewClient(uuid.New(), "Acme Plumbing")
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "clients" SET .*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.Update(context.Background(), client)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
