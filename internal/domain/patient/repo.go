package patient

import "context"

type Repository interface {
	ListAll(ctx context.Context) ([]Record, error)
	Upsert(ctx context.Context, records []Record) (int, error)
}

// RepoSource adapts a Repository into a roster Source.
type RepoSource struct {
	Repo Repository
}

func (s RepoSource) Name() string { return "postgres" }

func (s RepoSource) Load(ctx context.Context) (*LoadResult, error) {
	records, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Records: records, Issues: CheckAll(records)}, nil
}
