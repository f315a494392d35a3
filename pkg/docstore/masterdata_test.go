package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/therenansimoes/organizations/pkg/config"
	pkgerrors "github.com/therenansimoes/organizations/pkg/errors"
	"github.com/therenansimoes/organizations/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Masterdata, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewMasterdata(config.DocstoreConfig{
		BaseURL: server.URL,
		Token:   "test-token",
	}, logger.New(logger.Options{ServiceName: "test"}), nil)
	if err != nil {
		t.Fatalf("new masterdata client: %v", err)
	}
	return client, server
}

func TestMasterdataQueryDecodesLinkedDocuments(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/organization-assignment/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if got := r.URL.Query().Get("_where"); got != "businessOrganizationId=org-1" {
			t.Fatalf("unexpected where %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "a1",
				"personaId": "p1",
				"status": "APPROVED",
				"personaId_linked": {"id": "p1", "email": "ana@example.com"}
			}
		]`))
	}))

	docs, err := client.Query(context.Background(), "organization-assignment", []string{"id", "personaId", "status"}, "schema-v1", Where("businessOrganizationId", "org-1"))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].ID != "a1" {
		t.Fatalf("unexpected id %q", docs[0].ID)
	}
	if docs[0].Get("status") != "APPROVED" {
		t.Fatalf("unexpected status %q", docs[0].Get("status"))
	}

	var linked map[string]string
	if err := json.Unmarshal([]byte(docs[0].Get("personaId_linked")), &linked); err != nil {
		t.Fatalf("linked document should round-trip as JSON: %v", err)
	}
	if linked["email"] != "ana@example.com" {
		t.Fatalf("unexpected linked email %q", linked["email"])
	}
}

func TestMasterdataQueryEmptyOn404(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	docs, err := client.Query(context.Background(), "business-role", nil, "", "")
	if err != nil {
		t.Fatalf("query should tolerate 404: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty result, got %d", len(docs))
	}
}

func TestMasterdataUpdateSendsFieldTuples(t *testing.T) {
	var received updatePayload
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if got := r.URL.Query().Get("_schema"); got != "persona-schema-v1" {
			t.Fatalf("unexpected schema %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	doc := FromMap(map[string]string{"id": "p1", "businessOrganizationId": ""})
	if err := client.UpdateDocument(context.Background(), "persona", "persona-schema-v1", doc); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(received.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(received.Fields))
	}
	if received.Fields[1].Key != "id" || received.Fields[1].Value != "p1" {
		t.Fatalf("unexpected fields %+v", received.Fields)
	}
}

func TestMasterdataDeleteMapsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := client.DeleteDocument(context.Background(), "organization-assignment", "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestMasterdataServerErrorsMapToDependency(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))

	if err := client.DeleteDocument(context.Background(), "organization-assignment", "a1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := client.Query(context.Background(), "organization-assignment", nil, "", ""); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewMasterdataRequiresBaseURL(t *testing.T) {
	_, err := NewMasterdata(config.DocstoreConfig{}, logger.New(logger.Options{ServiceName: "test"}), nil)
	if err == nil {
		t.Fatal("expected error without base url")
	}
}
