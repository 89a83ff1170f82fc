package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FarahDimassi/coachchat-go/chat"
	"github.com/FarahDimassi/coachchat-go/chat/rest"
)

func Test_History_preserves_origin_order(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"senderId":42,"receiverId":7,"message":"hi","date":"2026-03-01T10:00:00Z"},
			{"id":2,"senderId":7,"receiverId":42,"message":"hey","date":"2026-03-01T10:01:00Z"},
			{"id":3,"senderId":42,"receiverId":7,"message":"lunch?","date":"2026-03-01T10:02:00Z"}
		]`))
	}))
	defer srv.Close()

	c := rest.NewClient(srv.URL)
	c.SetToken("tok-123")

	msgs, err := c.History(context.Background(), 42, 7)

	require.NoError(t, err)
	assert.Equal(t, "/messages/42/7", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, "hey", msgs[1].Body)
	assert.Equal(t, "lunch?", msgs[2].Body)
}

func Test_History_failure_is_recoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := rest.NewClient(srv.URL)
	msgs, err := c.History(context.Background(), 42, 7)

	require.Error(t, err)
	assert.ErrorIs(t, err, chat.NewError(chat.ErrorHistoryUnavailable, ""))
	assert.Empty(t, msgs, "a failed fetch opens an empty conversation")
}

func Test_History_transport_failure_is_recoverable(t *testing.T) {
	c := rest.NewClient("http://127.0.0.1:1")

	msgs, err := c.History(context.Background(), 42, 7)

	require.Error(t, err)
	assert.ErrorIs(t, err, chat.NewError(chat.ErrorHistoryUnavailable, ""))
	assert.Empty(t, msgs)
}
