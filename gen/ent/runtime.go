// Code generated by ent, DO NOT EDIT.

package ent

import (
	"time"

	"github.com/ordinalscale/contract-vault/db/ent/schema"
	"github.com/ordinalscale/contract-vault/gen/ent/contract"
)

// The init function reads all schema descriptors with runtime code
// (default values, validators, hooks and policies) and stitches it
// to their package variables.
func init() {
	contractFields := schema.Contract{}.Fields()
	_ = contractFields
	// contractDescFileName is the schema descriptor for file_name field.
	contractDescFileName := contractFields[1].Descriptor()
	// contract.FileNameValidator is a validator for the "file_name" field. It is called by the builders before save.
	contract.FileNameValidator = contractDescFileName.Validators[0].(func(string) error)
	// contractDescStoragePath is the schema descriptor for storage_path field.
	contractDescStoragePath := contractFields[2].Descriptor()
	// contract.StoragePathValidator is a validator for the "storage_path" field. It is called by the builders before save.
	contract.StoragePathValidator = contractDescStoragePath.Validators[0].(func(string) error)
	// contractDescUploadedAt is the schema descriptor for uploaded_at field.
	contractDescUploadedAt := contractFields[4].Descriptor()
	// contract.DefaultUploadedAt holds the default value on creation for the uploaded_at field.
	contract.DefaultUploadedAt = contractDescUploadedAt.Default.(func() time.Time)
}
