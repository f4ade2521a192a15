package keychain

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"

	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/telemetry"
)

//go:embed db/schema.sql
var schema string

func setup(t testing.TB) (Service, func()) {
	cleanup := telemetry.SetupForTesting("test:services/keychain")

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(schema)
	if err != nil {
		t.Fatal(err)
	}

	return NewService(sqlite), cleanup
}

func TestService(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		_, err := service.GetCredential(ctx, "unknown-user")
		require.ErrorIs(t, err, ErrNotFound)
	}
	{
		err := service.SetCredential(ctx, "alice", core.Credential{Cookie: `bid=abc; dbcl2="123:xyz"`})
		require.NoError(t, err)
	}
	{
		err := service.SetCredential(ctx, "bob", core.Credential{Cookie: "bid=def"})
		require.NoError(t, err)
	}
	{
		cred, err := service.GetCredential(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, `bid=abc; dbcl2="123:xyz"`, cred.Cookie)
	}
	{
		// setting again replaces the stored cookie
		err := service.SetCredential(ctx, "alice", core.Credential{Cookie: "bid=fresh"})
		require.NoError(t, err)

		cred, err := service.GetCredential(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "bid=fresh", cred.Cookie)
	}
	{
		users, err := service.ListUserIDs(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"alice", "bob"}, users)
	}
	{
		err := service.DeleteCredential(ctx, "alice")
		require.NoError(t, err)

		_, err = service.GetCredential(ctx, "alice")
		require.ErrorIs(t, err, ErrNotFound)

		users, err := service.ListUserIDs(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"bob"}, users)
	}
}
