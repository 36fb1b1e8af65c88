package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"records-api/models"
	"records-api/store"
	"records-api/uploads"
)

// fakeRecords answers every read with an empty result and records which
// operation was reached.
type fakeRecords[T any] struct {
	calls []string
}

func (f *fakeRecords[T]) Page(context.Context, int64, int64) ([]T, int64, error) {
	f.calls = append(f.calls, "Page")
	return nil, 0, nil
}

func (f *fakeRecords[T]) All(context.Context) ([]T, error) {
	f.calls = append(f.calls, "All")
	return nil, nil
}

func (f *fakeRecords[T]) Get(context.Context, primitive.ObjectID) (T, error) {
	f.calls = append(f.calls, "Get")
	var zero T
	return zero, store.ErrNotFound
}

func (f *fakeRecords[T]) Insert(context.Context, any) (any, error) {
	f.calls = append(f.calls, "Insert")
	return primitive.NewObjectID(), nil
}

func (f *fakeRecords[T]) Update(context.Context, primitive.ObjectID, bson.M) (store.UpdateResult, error) {
	f.calls = append(f.calls, "Update")
	return store.UpdateResult{}, store.ErrNotFound
}

func (f *fakeRecords[T]) Replace(context.Context, primitive.ObjectID, any) error {
	f.calls = append(f.calls, "Replace")
	return store.ErrNotFound
}

func (f *fakeRecords[T]) Delete(context.Context, primitive.ObjectID) (store.DeleteResult, error) {
	f.calls = append(f.calls, "Delete")
	return store.DeleteResult{}, store.ErrNotFound
}

type testServer struct {
	handler http.Handler
	items   *fakeRecords[models.Item]
	users   *fakeRecords[models.User]
	legacy  *fakeRecords[bson.M]
	files   *uploads.Store
	logs    *bytes.Buffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	files, err := uploads.NewStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ts := &testServer{
		items:  &fakeRecords[models.Item]{},
		users:  &fakeRecords[models.User]{},
		legacy: &fakeRecords[bson.M]{},
		files:  files,
		logs:   &bytes.Buffer{},
	}
	router, err := SetupRoutes(Dependencies{
		Items:       ts.items,
		Users:       ts.users,
		LegacyItems: ts.legacy,
		Uploads:     files,
		Logger:      slog.New(slog.NewJSONHandler(ts.logs, nil)),
	})
	require.NoError(t, err)
	ts.handler = router
	return ts
}

func (ts *testServer) do(method, target string, body io.Reader) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, httptest.NewRequest(method, target, body))
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func TestUnknownPathIsJSONNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/nope", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "Not found", errorOf(t, rr))
}

func TestUnsupportedMethodIsJSON(t *testing.T) {
	ts := newTestServer(t)
	id := primitive.NewObjectID().Hex()

	tests := []struct{ method, target string }{
		{http.MethodPost, "/items/" + id},
		{http.MethodPost, "/users/profile/" + id},
		{http.MethodGet, "/upload"},
		{http.MethodPost, "/"},
	}
	for _, tt := range tests {
		rr := ts.do(tt.method, tt.target, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, tt.target)
		assert.Equal(t, "Method not allowed", errorOf(t, rr), tt.target)
	}
}

func TestResourceRoutes(t *testing.T) {
	ts := newTestServer(t)
	id := primitive.NewObjectID().Hex()

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/items", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/items/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/users/"+id, nil).Code)
	assert.Equal(t, []string{"Page", "Get"}, ts.items.calls)
	assert.Equal(t, []string{"Delete"}, ts.users.calls)
}

func TestProfileRouteIsNotAUserID(t *testing.T) {
	ts := newTestServer(t)
	id := primitive.NewObjectID().Hex()

	rr := ts.do(http.MethodGet, "/users/profile/"+id, nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found", errorOf(t, rr))
}

func TestLegacyRoutesAcceptAnyMethod(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/api/test/items", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(http.MethodPatch, "/api/test/items", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)

	rr = ts.do(http.MethodOptions, "/api/test/items/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadedFilesAreServed(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.files.Dir(), "pic.png"), []byte("png data"), 0o644))

	rr := ts.do(http.MethodGet, "/uploads/pic.png", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png data", rr.Body.String())
}

func TestItemsPageAtRoot(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Item Manager")
}

func TestAccessLog(t *testing.T) {
	ts := newTestServer(t)

	ts.do(http.MethodGet, "/items", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(ts.logs.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "/items", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestRecoverer(t *testing.T) {
	ts := newTestServer(t)
	router, err := SetupRoutes(Dependencies{
		Items:       panickingItems{ts.items},
		Users:       ts.users,
		LegacyItems: ts.legacy,
		Uploads:     ts.files,
		Logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

type panickingItems struct {
	*fakeRecords[models.Item]
}

func (panickingItems) Page(context.Context, int64, int64) ([]models.Item, int64, error) {
	panic("boom")
}
