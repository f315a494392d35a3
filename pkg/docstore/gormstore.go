package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/therenansimoes/organizations/pkg/errors"
)

const linkedSuffix = "_linked"

// documentRow is the relational shape of one stored document.
type documentRow struct {
	Acronym   string    `gorm:"column:acronym;primaryKey"`
	DocID     string    `gorm:"column:doc_id;primaryKey"`
	Fields    []byte    `gorm:"column:fields;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (documentRow) TableName() string {
	return "documents"
}

// GormStore keeps documents in a relational table, used for dev and tests in
// place of the remote document API.
type GormStore struct {
	db    *gorm.DB
	links map[string]string
}

// NewGormStore binds the store to the provided GORM connection.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm connection required")
	}
	return &GormStore{db: db}, nil
}

// WithLinkedEntities declares which acronym a reference field points at, so
// queries can serve "<field>_linked" projections the way the remote store
// joins referenced documents in.
func (g *GormStore) WithLinkedEntities(links map[string]string) *GormStore {
	g.links = links
	return g
}

// AutoMigrate creates the documents table when the dev flag asks for it.
func (g *GormStore) AutoMigrate() error {
	return g.db.AutoMigrate(&documentRow{})
}

// Query lists documents for the acronym, filtered by an equality where
// expression. Projection and filtering happen after decode so the table stays
// schema-free.
func (g *GormStore) Query(ctx context.Context, acronym string, fields []string, schema, where string) ([]Document, error) {
	var rows []documentRow
	err := g.db.WithContext(ctx).
		Where("acronym = ?", acronym).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query documents")
	}

	filterField, filterValue, filtered := ParseWhere(where)

	memo := map[linkRef]map[string]string{}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(row)
		if err != nil {
			return nil, err
		}
		if filtered && doc.Get(filterField) != filterValue {
			continue
		}
		doc, err = g.resolveLinks(ctx, doc, fields, memo)
		if err != nil {
			return nil, err
		}
		docs = append(docs, project(doc, fields))
	}
	return docs, nil
}

type linkRef struct {
	acronym string
	id      string
}

// resolveLinks fills the requested "<field>_linked" projections with the
// referenced document's fields, serialized the way the remote store returns
// nested records. Unknown references and unconfigured fields stay empty.
func (g *GormStore) resolveLinks(ctx context.Context, doc Document, fields []string, memo map[linkRef]map[string]string) (Document, error) {
	if len(g.links) == 0 {
		return doc, nil
	}
	for _, f := range fields {
		base, ok := strings.CutSuffix(f, linkedSuffix)
		if !ok || doc.Get(f) != "" {
			continue
		}
		acronym, ok := g.links[base]
		if !ok {
			continue
		}
		refID := doc.Get(base)
		if refID == "" {
			continue
		}

		ref := linkRef{acronym: acronym, id: refID}
		linked, cached := memo[ref]
		if !cached {
			loaded, err := g.lookup(ctx, acronym, refID)
			if err != nil {
				return Document{}, err
			}
			linked = loaded
			memo[ref] = linked
		}
		if linked == nil {
			continue
		}

		encoded, err := json.Marshal(linked)
		if err != nil {
			continue
		}
		merged := doc.Map()
		merged[f] = string(encoded)
		doc = FromMap(merged)
	}
	return doc, nil
}

func (g *GormStore) lookup(ctx context.Context, acronym, id string) (map[string]string, error) {
	var row documentRow
	err := g.db.WithContext(ctx).
		Where("acronym = ? AND doc_id = ?", acronym, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked document")
	}

	fields := map[string]string{}
	if err := json.Unmarshal(row.Fields, &fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode linked document")
	}
	fields["id"] = row.DocID
	return fields, nil
}

// UpdateDocument upserts by the document's "id" field, merging fields into any
// existing record. A missing id means a fresh document.
func (g *GormStore) UpdateDocument(ctx context.Context, acronym, schema string, doc Document) error {
	id := doc.Get("id")
	if id == "" {
		id = uuid.NewString()
	}

	merged := map[string]string{}

	var existing documentRow
	err := g.db.WithContext(ctx).
		Where("acronym = ? AND doc_id = ?", acronym, id).
		First(&existing).Error
	switch {
	case err == nil:
		if unmarshalErr := json.Unmarshal(existing.Fields, &merged); unmarshalErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, unmarshalErr, "decode stored document")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}

	for _, f := range doc.Fields {
		merged[f.Key] = f.Value
	}
	merged["id"] = id

	encoded, err := json.Marshal(merged)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode document")
	}

	row := documentRow{Acronym: acronym, DocID: id, Fields: encoded}
	if err := g.db.WithContext(ctx).Save(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save document")
	}
	return nil
}

// DeleteDocument removes the document by id.
func (g *GormStore) DeleteDocument(ctx context.Context, acronym, documentID string) error {
	result := g.db.WithContext(ctx).
		Where("acronym = ? AND doc_id = ?", acronym, documentID).
		Delete(&documentRow{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "delete document")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	return nil
}

func rowToDocument(row documentRow) (Document, error) {
	fields := map[string]string{}
	if err := json.Unmarshal(row.Fields, &fields); err != nil {
		return Document{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode stored document")
	}
	fields["id"] = row.DocID
	return FromMap(fields), nil
}

func project(doc Document, fields []string) Document {
	if len(fields) == 0 {
		return doc
	}
	keep := make(map[string]bool, len(fields)+1)
	keep["id"] = true
	for _, f := range fields {
		if f == "_all" {
			return doc
		}
		keep[f] = true
	}

	projected := Document{ID: doc.ID}
	for _, f := range doc.Fields {
		if keep[f.Key] {
			projected.Fields = append(projected.Fields, f)
		}
	}
	return projected
}
