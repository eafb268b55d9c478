package service

import "context"

type testTxRepos struct {
	sources SourceRepository
	jobs    IngestionJobRepository
}

func (t *testTxRepos) Sources() SourceRepository {
	return t.sources
}

func (t *testTxRepos) IngestionJobs() IngestionJobRepository {
	return t.jobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
	err    error
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	if t.err != nil {
		return t.err
	}
	return fn(t.repos)
}
