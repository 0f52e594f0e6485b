package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClientCredentialsAuthorizer_CachesToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "cli" || secret != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("scope") != "videos/write" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"access_token":"tok-1","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	authorizer := NewClientCredentialsAuthorizer(server.URL, "cli", "s3cret", "videos/write")

	for i := 0; i < 2; i++ {
		token, err := authorizer.Authorize(context.Background())
		if err != nil {
			t.Fatal("Failed to authorize:", err)
		}
		if token != "tok-1" {
			t.Errorf("expected tok-1, got %q", token)
		}
	}
	if calls != 1 {
		t.Errorf("expected the token to be cached, got %d token requests", calls)
	}
}

func TestClientCredentialsAuthorizer_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_client", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClientCredentialsAuthorizer(server.URL, "cli", "bad", "").Authorize(context.Background())

	apiErr, ok := err.(*APIError)
	if !ok || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected a 401 APIError, got %v", err)
	}
}

func TestVideoClient_UsesAuthorizer(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok-2","expires_in":60}`))
	}))
	defer tokenServer.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"job_id":"job-1","status":"running","percent":0,"stage":"queued"}`))
	}))
	defer api.Close()

	client := NewVideoClient(api.URL, "")
	client.Authorizer = NewClientCredentialsAuthorizer(tokenServer.URL, "cli", "s3cret", "")

	if _, err := client.GetProgress(context.Background(), "job-1"); err != nil {
		t.Fatal("Failed to get progress:", err)
	}
	if gotAuth != "Bearer tok-2" {
		t.Errorf("expected the fetched token, got %q", gotAuth)
	}
}
