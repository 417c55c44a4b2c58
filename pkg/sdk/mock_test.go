package gplcatalog

import (
	"context"

	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
	healthuc "github.com/kailas-cloud/gplcatalog/internal/usecase/health"
	"github.com/kailas-cloud/gplcatalog/internal/usecase/syncer"
)

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	listAllFn func() []product.SearchRecord
	listFn    func(p product.Partition) ([]product.Product, error)
	searchFn  func(ctx context.Context, p product.Partition, q string) ([]product.Product, error)
	getFn     func(id int64) (product.Product, error)
}

func (m *mockCatalogUC) ListAll() []product.SearchRecord {
	return m.listAllFn()
}

func (m *mockCatalogUC) ListByPartition(p product.Partition) ([]product.Product, error) {
	return m.listFn(p)
}

func (m *mockCatalogUC) Search(ctx context.Context, p product.Partition, q string) ([]product.Product, error) {
	return m.searchFn(ctx, p, q)
}

func (m *mockCatalogUC) GetByID(id int64) (product.Product, error) {
	return m.getFn(id)
}

// --- syncUseCase mock ---

type mockSyncUC struct {
	runFn    func(ctx context.Context) error
	statusFn func() syncer.Status
}

func (m *mockSyncUC) Run(ctx context.Context) error {
	return m.runFn(ctx)
}

func (m *mockSyncUC) Status() syncer.Status {
	return m.statusFn()
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}
