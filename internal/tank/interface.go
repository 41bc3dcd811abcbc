package tank

import "context"

// Store defines the durable operations on the roster, submissions, change log
// and bucket mappings. Each mutating call is one atomic unit.
type Store interface {
	AddTank(ctx context.Context, spec Spec, actor string) (Tank, error)
	EditTank(ctx context.Context, spec Spec, actor string) (old Tank, updated Tank, err error)
	RemoveTank(ctx context.Context, name, actor string) (Tank, error)
	GetTank(ctx context.Context, name string) (*Tank, error)
	ListTanks(ctx context.Context, filter Filter) ([]Tank, error)
	HasSubmissions(ctx context.Context, name string) (bool, error)

	InsertSubmission(ctx context.Context, sub NewSubmission) (Submission, error)

	Changes(ctx context.Context, limit int) ([]Change, error)
	Counts(ctx context.Context) (Counts, error)

	Mapping(ctx context.Context, bucket Bucket) (*Mapping, error)
	SetMapping(ctx context.Context, mapping Mapping) error
	Buckets(ctx context.Context) ([]Bucket, error)
}
