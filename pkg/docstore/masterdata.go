package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/therenansimoes/organizations/pkg/config"
	pkgerrors "github.com/therenansimoes/organizations/pkg/errors"
	"github.com/therenansimoes/organizations/pkg/logger"
	"github.com/therenansimoes/organizations/pkg/metrics"
)

var (
	errBaseURLRequired = errors.New("docstore base url is required")
	errLoggerRequired  = errors.New("docstore logger is required")
)

// Masterdata talks to the remote document API with centralized auth, logging,
// metrics, and error mapping.
type Masterdata struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logger.Logger
	metrics    *metrics.DocstoreMetrics
}

// NewMasterdata initializes the remote document store client.
func NewMasterdata(cfg config.DocstoreConfig, logg *logger.Logger, met *metrics.DocstoreMetrics) (*Masterdata, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Masterdata{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		logger:     logg,
		metrics:    met,
	}, nil
}

type updatePayload struct {
	Fields []Field `json:"fields"`
}

// Query lists documents for the acronym, optionally filtered by an equality
// where expression. An empty result set is returned as an empty slice.
func (m *Masterdata) Query(ctx context.Context, acronym string, fields []string, schema, where string) ([]Document, error) {
	start := time.Now()
	docs, err := m.query(ctx, acronym, fields, schema, where)
	m.metrics.ObserveCall("query", acronym, err, time.Since(start))
	return docs, err
}

func (m *Masterdata) query(ctx context.Context, acronym string, fields []string, schema, where string) ([]Document, error) {
	endpoint := fmt.Sprintf("%s/api/documents/%s/search", m.baseURL, url.PathEscape(acronym))

	params := url.Values{}
	if len(fields) > 0 {
		params.Set("_fields", strings.Join(fields, ","))
	}
	if schema != "" {
		params.Set("_schema", schema)
	}
	if where != "" {
		params.Set("_where", where)
	}
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build query request")
	}

	body, status, err := m.do(req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []Document{}, nil
	}
	if status < 200 || status >= 300 {
		return nil, storeError("query", acronym, status, body)
	}

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode query response")
	}

	docs := make([]Document, 0, len(raw))
	for _, entry := range raw {
		docs = append(docs, documentFromJSON(entry))
	}
	return docs, nil
}

// UpdateDocument upserts a document keyed by its "id" field.
func (m *Masterdata) UpdateDocument(ctx context.Context, acronym, schema string, doc Document) error {
	start := time.Now()
	err := m.update(ctx, acronym, schema, doc)
	m.metrics.ObserveCall("update", acronym, err, time.Since(start))
	return err
}

func (m *Masterdata) update(ctx context.Context, acronym, schema string, doc Document) error {
	endpoint := fmt.Sprintf("%s/api/documents/%s", m.baseURL, url.PathEscape(acronym))
	if schema != "" {
		endpoint += "?_schema=" + url.QueryEscape(schema)
	}

	payload, err := json.Marshal(updatePayload{Fields: doc.Fields})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode document")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build update request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := m.do(req)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return storeError("update", acronym, status, body)
	}
	return nil
}

// DeleteDocument removes a document by id.
func (m *Masterdata) DeleteDocument(ctx context.Context, acronym, documentID string) error {
	start := time.Now()
	err := m.delete(ctx, acronym, documentID)
	m.metrics.ObserveCall("delete", acronym, err, time.Since(start))
	return err
}

func (m *Masterdata) delete(ctx context.Context, acronym, documentID string) error {
	endpoint := fmt.Sprintf("%s/api/documents/%s/%s", m.baseURL, url.PathEscape(acronym), url.PathEscape(documentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build delete request")
	}

	body, status, err := m.do(req)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	if status < 200 || status >= 300 {
		return storeError("delete", acronym, status, body)
	}
	return nil
}

func (m *Masterdata) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Accept", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "document store unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read store response")
	}
	return body, resp.StatusCode, nil
}

func storeError(operation, acronym string, status int, body []byte) error {
	msg := fmt.Sprintf("document store %s on %s returned status %d", operation, acronym, status)
	return pkgerrors.New(pkgerrors.CodeDependency, msg).WithDetails(map[string]any{
		"status": status,
		"body":   truncate(string(body), 512),
	})
}

// documentFromJSON flattens a raw store object into field tuples. Nested
// values (linked documents) are re-serialized so callers can decode them.
func documentFromJSON(entry map[string]any) Document {
	fields := make(map[string]string, len(entry))
	for key, value := range entry {
		switch v := value.(type) {
		case nil:
			fields[key] = ""
		case string:
			fields[key] = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				continue
			}
			fields[key] = string(encoded)
		}
	}
	return FromMap(fields)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
