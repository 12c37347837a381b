package credentials_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-school-client/credentials"
	"github.com/jrsteele09/go-school-client/credentials/storefake"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("load empty", func(t *testing.T) {
		s := credentials.NewStore(storefake.NewFakeKeyValue())
		rec, err := s.Load(ctx)
		require.NoError(t, err)
		require.Nil(t, rec)
	})

	t.Run("save uses the auth key and wire names", func(t *testing.T) {
		kv := storefake.NewFakeKeyValue()
		s := credentials.NewStore(kv)
		require.NoError(t, s.Save(ctx, &credentials.Record{AccessToken: "J1", RefreshToken: "R1"}))

		raw, err := kv.Get(ctx, "auth")
		require.NoError(t, err)
		require.JSONEq(t, `{"access_token":"J1","refresh_token":"R1"}`, string(raw))

		rec, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, &credentials.Record{AccessToken: "J1", RefreshToken: "R1"}, rec)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		kv := storefake.NewFakeKeyValue()
		s := credentials.NewStore(kv)
		require.NoError(t, s.Save(ctx, &credentials.Record{AccessToken: "J1"}))
		require.NoError(t, s.Delete(ctx))
		require.NoError(t, s.Delete(ctx))
		require.False(t, kv.Has(credentials.Key))
	})

	t.Run("corrupt record", func(t *testing.T) {
		kv := storefake.NewFakeKeyValue()
		kv.Put(credentials.Key, []byte("{not json"))
		_, err := credentials.NewStore(kv).Load(ctx)

		var storeErr *credentials.StoreError
		require.ErrorAs(t, err, &storeErr)
		require.Equal(t, "load", storeErr.Op)
		require.ErrorIs(t, err, schoolerrors.ErrCorruptRecord)
	})

	t.Run("backend errors are wrapped", func(t *testing.T) {
		boom := errors.New("keychain locked")
		kv := storefake.NewFakeKeyValue()
		kv.SetErr = boom
		err := credentials.NewStore(kv).Save(ctx, &credentials.Record{AccessToken: "J1"})
		require.ErrorIs(t, err, boom)
		require.Contains(t, err.Error(), "credential store save")
	})
}
