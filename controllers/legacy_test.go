package controllers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"records-api/controllers"
	"records-api/store"
)

func legacyRouter(items *MockRecords[bson.M]) *mux.Router {
	h := controllers.NewLegacy(items, discardLogger())
	r := mux.NewRouter()
	r.HandleFunc("/api/test/items", h.Collection)
	r.HandleFunc("/api/test/items/{id}", h.Record)
	return r
}

func TestLegacyListItems(t *testing.T) {
	items := new(MockRecords[bson.M])
	items.On("All", mock.Anything).Return([]bson.M{{"name": "free-form"}}, nil)

	rr := serve(legacyRouter(items), http.MethodGet, "/api/test/items", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 1)
}

func TestLegacyCreateStoresBodyAsSent(t *testing.T) {
	items := new(MockRecords[bson.M])
	id := primitive.NewObjectID()
	items.On("Insert", mock.Anything, bson.M{"anything": "goes", "n": float64(1)}).Return(id, nil)

	rr := serve(legacyRouter(items), http.MethodPost, "/api/test/items", []byte(`{"anything":"goes","n":1}`))

	assert.Equal(t, http.StatusCreated, rr.Code)
	data := decodeBody(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, true, data["acknowledged"])
	assert.Equal(t, id.Hex(), data["insertedId"])
	items.AssertExpectations(t)
}

func TestLegacyCollectionRejectsOtherMethods(t *testing.T) {
	rr := serve(legacyRouter(new(MockRecords[bson.M])), http.MethodPatch, "/api/test/items", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Method not allowed", body["message"])
}

func TestLegacyStorageFault(t *testing.T) {
	items := new(MockRecords[bson.M])
	items.On("All", mock.Anything).Return(nil, errors.New("server selection timeout"))

	rr := serve(legacyRouter(items), http.MethodGet, "/api/test/items", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "server selection timeout", body["error"])
}

func TestLegacyRecordPreflight(t *testing.T) {
	rr := serve(legacyRouter(new(MockRecords[bson.M])), http.MethodOptions, "/api/test/items/anything", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, PUT, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rr.Body.String())
}

func TestLegacyRecordInvalidID(t *testing.T) {
	rr := serve(legacyRouter(new(MockRecords[bson.M])), http.MethodGet, "/api/test/items/123", nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid ID format", decodeBody(t, rr)["message"])
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestLegacyGetRecord(t *testing.T) {
	items := new(MockRecords[bson.M])
	found := primitive.NewObjectID()
	missing := primitive.NewObjectID()
	items.On("Get", mock.Anything, found).Return(bson.M{"name": "kept"}, nil)
	items.On("Get", mock.Anything, missing).Return(nil, store.ErrNotFound)
	router := legacyRouter(items)

	rr := serve(router, http.MethodGet, "/api/test/items/"+found.Hex(), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "kept", decodeBody(t, rr)["data"].(map[string]interface{})["name"])

	rr = serve(router, http.MethodGet, "/api/test/items/"+missing.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Item not found", decodeBody(t, rr)["message"])
}

func TestLegacyUpdateRecord(t *testing.T) {
	items := new(MockRecords[bson.M])
	id := primitive.NewObjectID()
	items.On("Update", mock.Anything, id, bson.M{"price": float64(3)}).
		Return(store.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil)

	rr := serve(legacyRouter(items), http.MethodPut, "/api/test/items/"+id.Hex(), []byte(`{"price":3}`))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Item updated successfully", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["matchedCount"])
	assert.Equal(t, float64(1), data["modifiedCount"])
	items.AssertExpectations(t)
}

func TestLegacyDeleteRecord(t *testing.T) {
	items := new(MockRecords[bson.M])
	id := primitive.NewObjectID()
	items.On("Delete", mock.Anything, id).Return(store.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil)

	rr := serve(legacyRouter(items), http.MethodDelete, "/api/test/items/"+id.Hex(), nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Item deleted successfully", body["message"])
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["deletedCount"])
}

func TestLegacyRecordRejectsOtherMethods(t *testing.T) {
	id := primitive.NewObjectID()

	rr := serve(legacyRouter(new(MockRecords[bson.M])), http.MethodPost, "/api/test/items/"+id.Hex(), []byte(`{}`))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method not allowed", decodeBody(t, rr)["message"])
}
