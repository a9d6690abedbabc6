package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*miniredis.Miniredis, *SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewSessionManager(client, "invoicelock_session", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	mr, sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.True(t, sess.IsNew())

	sess.SetUser("7")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	require.Equal(t, "7", loaded.User())
	require.False(t, loaded.IsNew())
}

func TestAnonymousSessionIsNotStored(t *testing.T) {
	mr, sm := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	require.Empty(t, mr.Keys())
	require.Empty(t, rec.Result().Cookies())
}

func TestDestroyRemovesSession(t *testing.T) {
	mr, sm := newTestManager(t)
	ctx := context.Background()

	sess, _ := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	sess.SetUser("1")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))
	require.False(t, mr.Exists("session:"+sess.ID))
	require.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	require.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}, p)
	require.Equal(t, 0, p.Offset())
	require.Equal(t, 40, NewPagination(3, 20, 45).Offset())
}

func TestUserIDFromContext(t *testing.T) {
	_, sm := newTestManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	_, ok := UserIDFromContext(context.Background())
	require.False(t, ok)

	ctx := ContextWithSession(context.Background(), sess)
	_, ok = UserIDFromContext(ctx)
	require.False(t, ok)

	sess.SetUser("42")
	id, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, int64(42), id)

	sess.SetUser("not-a-number")
	_, ok = UserIDFromContext(ctx)
	require.False(t, ok)
}
