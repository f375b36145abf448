package handlers

import (
	"errors"
	"net/http"
	"testing"
)

func TestEmbeddingsSubmitErrors(t *testing.T) {
	store, classID := testStore(t)
	manager := testManager(store)
	sessions := NewSessionsHandler(manager)
	embeddings := NewEmbeddingsHandler(manager, testDim)

	t.Run("NoActiveSession", func(t *testing.T) {
		rec := submitEmbedding(t, embeddings, classID, []float32{1, 0, 0})
		assertStatusCode(t, rec, http.StatusConflict)
	})

	t.Run("WrongDimension", func(t *testing.T) {
		startTestSession(t, sessions, classID)

		rec := submitEmbedding(t, embeddings, classID, []float32{1, 0})
		assertStatusCode(t, rec, http.StatusBadRequest)
	})

	t.Run("PersistenceUnavailable", func(t *testing.T) {
		store.AppendEventError = errors.New("connection refused")
		defer func() { store.AppendEventError = nil }()

		rec := submitEmbedding(t, embeddings, classID, []float32{1, 0, 0})
		assertStatusCode(t, rec, http.StatusServiceUnavailable)
	})

	t.Run("RetryAfterRecovery", func(t *testing.T) {
		rec := submitEmbedding(t, embeddings, classID, []float32{1, 0, 0})
		assertStatusCode(t, rec, http.StatusOK)

		var result submitResponse
		parseJSONResponse(t, rec, &result)
		if result.IdentityID != "prof_a" {
			t.Errorf("expected professor match after retry, got %+v", result)
		}
	})
}
