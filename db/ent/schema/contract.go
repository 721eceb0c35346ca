package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

// Contract holds one persisted ingestion record. The id doubles as the join
// key to the archived blob; storage_path is {id}/{file_name}.
type Contract struct {
	ent.Schema
}

func (Contract) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "contracts"},
	}
}

func (Contract) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Immutable().
			StorageKey("id"),
		field.String("file_name").NotEmpty(),
		field.String("storage_path").NotEmpty(),
		field.Text("ocr_text"),
		field.Time("uploaded_at").Default(time.Now),
	}
}

func (Contract) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("uploaded_at"),
	}
}
