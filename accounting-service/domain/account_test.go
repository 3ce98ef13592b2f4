package domain

import (
	"testing"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/events"
	"github.com/ftgo/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testConsumerID = models.ID("550e8400-e29b-41d4-a716-446655440010")
	testOrderID    = models.ID("550e8400-e29b-41d4-a716-446655440020")
)

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	account, err := OpenAccount(testConsumerID)
	require.NoError(t, err)
	return account
}

func TestOpenAccount(t *testing.T) {
	account := newTestAccount(t)

	assert.Equal(t, testConsumerID, account.ID)
	assert.Equal(t, AccountStatusEnabled, account.Status)
	assert.True(t, account.AuthorizationLimit.IsZero())
	require.Len(t, account.Events(), 1)
	assert.Equal(t, events.AccountCreatedEvent, account.Events()[0].EventType)

	_, err := OpenAccount("")
	assert.True(t, apperrors.IsValidation(err))
}

func TestAccount_Authorize(t *testing.T) {
	tests := []struct {
		name      string
		status    AccountStatus
		limit     int64
		amount    models.Money
		expectErr func(error) bool
	}{
		{name: "unlimited account", status: AccountStatusEnabled, amount: models.NewMoney(1_000_000, "USD")},
		{name: "within limit", status: AccountStatusEnabled, limit: 5000, amount: models.NewMoney(5000, "USD")},
		{name: "above limit", status: AccountStatusEnabled, limit: 5000, amount: models.NewMoney(5001, "USD"), expectErr: apperrors.IsBusinessRule},
		{name: "disabled account", status: AccountStatusDisabled, amount: models.NewMoney(100, "USD"), expectErr: apperrors.IsBusinessRule},
		{name: "zero amount", status: AccountStatusEnabled, amount: models.Zero("USD"), expectErr: apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := newTestAccount(t)
			require.NoError(t, account.Configure(tt.status, models.NewMoney(tt.limit, "USD")))
			version := account.Version

			err := account.Authorize(testOrderID, tt.amount)

			if tt.expectErr != nil {
				require.Error(t, err)
				assert.True(t, tt.expectErr(err))
				assert.Empty(t, account.Authorizations)
				assert.Equal(t, version, account.Version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, account.Authorizations[testOrderID])
			assert.Equal(t, version.Value+1, account.Version.Value)
		})
	}
}

func TestAccount_AuthorizeTwice(t *testing.T) {
	account := newTestAccount(t)
	require.NoError(t, account.Authorize(testOrderID, models.NewMoney(100, "USD")))
	account.ClearEvents()
	version := account.Version

	require.NoError(t, account.Authorize(testOrderID, models.NewMoney(100, "USD")))
	assert.Empty(t, account.Events())
	assert.Equal(t, version, account.Version)

	err := account.Authorize(testOrderID, models.NewMoney(200, "USD"))
	assert.True(t, apperrors.IsBusinessRule(err))
	assert.Equal(t, models.NewMoney(100, "USD"), account.Authorizations[testOrderID])
}

func TestAccount_ReverseAuthorization(t *testing.T) {
	account := newTestAccount(t)
	require.NoError(t, account.Authorize(testOrderID, models.NewMoney(100, "USD")))

	require.NoError(t, account.ReverseAuthorization(testOrderID))
	assert.Empty(t, account.Authorizations)

	err := account.ReverseAuthorization(testOrderID)
	assert.True(t, apperrors.IsBusinessRule(err))
}

func TestAccount_ReviseAuthorization(t *testing.T) {
	account := newTestAccount(t)
	require.NoError(t, account.Configure(AccountStatusEnabled, models.NewMoney(2000, "USD")))
	require.NoError(t, account.Authorize(testOrderID, models.NewMoney(1500, "USD")))

	require.NoError(t, account.ReviseAuthorization(testOrderID, models.NewMoney(1000, "USD")))
	assert.Equal(t, models.NewMoney(1000, "USD"), account.Authorizations[testOrderID])

	err := account.ReviseAuthorization(testOrderID, models.NewMoney(2500, "USD"))
	assert.True(t, apperrors.IsBusinessRule(err))
	assert.Equal(t, models.NewMoney(1000, "USD"), account.Authorizations[testOrderID])

	err = account.ReviseAuthorization(models.GenerateUUID(), models.NewMoney(10, "USD"))
	assert.True(t, apperrors.IsBusinessRule(err))
}

func TestAccount_Configure(t *testing.T) {
	account := newTestAccount(t)

	assert.True(t, apperrors.IsValidation(account.Configure("frozen", models.Money{})))
	assert.True(t, apperrors.IsValidation(account.Configure(AccountStatusEnabled, models.NewMoney(-1, "USD"))))

	require.NoError(t, account.Configure(AccountStatusDisabled, models.Money{Amount: 300}))
	assert.Equal(t, models.NewMoney(300, models.DefaultCurrency), account.AuthorizationLimit)
}
