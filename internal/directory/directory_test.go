package directory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgcore/internal/directory"
	"msgcore/internal/domain"
	"msgcore/internal/services/lidmapping"
	"msgcore/internal/store"
)

func newServer(t *testing.T) (*directory.Server, *directory.Client, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	srv := directory.NewServer(logger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, directory.NewClient(ts.URL, ts.Client()), hook
}

func TestClient_PublishAndResolve(t *testing.T) {
	srv, c, hook := newServer(t)
	ctx := context.Background()

	require.NoError(t, c.Publish(ctx, []domain.LIDMapping{
		{LID: "111@lid", PN: "5511@s.whatsapp.net"},
		{LID: "333:2@lid", PN: "5533:2@s.whatsapp.net"},
		{LID: "not-a-lid", PN: "5599@s.whatsapp.net"},
	}))
	assert.Equal(t, 2, srv.Len())

	got, err := c.ResolveLIDs(ctx, []string{"111@lid", "333@lid", "999@lid"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.LIDMapping{
		{LID: "111@lid", PN: "5511@s.whatsapp.net"},
		{LID: "333@lid", PN: "5533@s.whatsapp.net"},
	}, got)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "/lid/resolve", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	_, err = uuid.Parse(entry.Data["request_id"].(string))
	assert.NoError(t, err)
}

func TestClient_LastWriteWins(t *testing.T) {
	_, c, _ := newServer(t)
	ctx := context.Background()

	require.NoError(t, c.Publish(ctx, []domain.LIDMapping{{LID: "111@lid", PN: "5511@s.whatsapp.net"}}))
	require.NoError(t, c.Publish(ctx, []domain.LIDMapping{{LID: "111@lid", PN: "5544@s.whatsapp.net"}}))

	got, err := c.ResolveLIDs(ctx, []string{"111@lid"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5544@s.whatsapp.net", got[0].PN)
}

func TestClient_EmptyRequestSkipsNetwork(t *testing.T) {
	c := directory.NewClient("http://127.0.0.1:0", nil)
	got, err := c.ResolveLIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	_, err := directory.NewClient(ts.URL, ts.Client()).ResolveLIDs(context.Background(), []string{"111@lid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "/lid/resolve")
}

func TestServer_BadBody(t *testing.T) {
	srv, _, _ := newServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lid", http.NoBody)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lid/resolve", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClient_BacksMappingStore(t *testing.T) {
	_, c, _ := newServer(t)
	ctx := context.Background()
	require.NoError(t, c.Publish(ctx, []domain.LIDMapping{{LID: "111@lid", PN: "5511@s.whatsapp.net"}}))

	logger, _ := test.NewNullLogger()
	m := lidmapping.New(store.NewMemoryKeyStore(), c, lidmapping.WithLogger(logger))

	pn, ok := m.ResolveOne(ctx, "111:4@lid")
	require.True(t, ok)
	assert.Equal(t, "5511:4@s.whatsapp.net", pn)

	lid, ok := m.LIDForPN("5511@s.whatsapp.net")
	require.True(t, ok)
	assert.Equal(t, "111@lid", lid)
}
