package entity

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// SchemaVersion is stamped on every persisted session blob.
const SchemaVersion = 1
