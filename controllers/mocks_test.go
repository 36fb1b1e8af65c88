package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"records-api/store"
)

type MockRecords[T any] struct {
	mock.Mock
}

func (m *MockRecords[T]) Page(ctx context.Context, skip, limit int64) ([]T, int64, error) {
	args := m.Called(ctx, skip, limit)
	docs, _ := args.Get(0).([]T)
	return docs, args.Get(1).(int64), args.Error(2)
}

func (m *MockRecords[T]) All(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]T)
	return docs, args.Error(1)
}

func (m *MockRecords[T]) Get(ctx context.Context, id primitive.ObjectID) (T, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(T)
	return doc, args.Error(1)
}

func (m *MockRecords[T]) Insert(ctx context.Context, doc any) (any, error) {
	args := m.Called(ctx, doc)
	return args.Get(0), args.Error(1)
}

func (m *MockRecords[T]) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (store.UpdateResult, error) {
	args := m.Called(ctx, id, fields)
	return args.Get(0).(store.UpdateResult), args.Error(1)
}

func (m *MockRecords[T]) Replace(ctx context.Context, id primitive.ObjectID, doc any) error {
	args := m.Called(ctx, id, doc)
	return args.Error(0)
}

func (m *MockRecords[T]) Delete(ctx context.Context, id primitive.ObjectID) (store.DeleteResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(store.DeleteResult), args.Error(1)
}

type MockRemover struct {
	mock.Mock
}

func (m *MockRemover) Remove(ref string) error {
	args := m.Called(ref)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(router *mux.Router, method, target string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()

	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
