package types

// Status is the persistence status of a row. It is independent of a series'
// scheduling status and only tracks soft deletion.
type Status string

const (
	StatusPublished Status = "published"
	StatusDeleted   Status = "deleted"
)
