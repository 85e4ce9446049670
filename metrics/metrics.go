package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000, 10000, 20000, 30000, 50000, 100000, 200000, 500000, 1000000, 2000000, 5000000, 10000000, 10000000)

var (
	TaskType, _  = tag.NewKey("task")       // name of task processor
	Job, _       = tag.NewKey("job")        // name of job
	Name, _      = tag.NewKey("name")       // name of running instance of gavel
	Table, _     = tag.NewKey("table")      // name of table data is persisted for
	Endpoint, _  = tag.NewKey("endpoint")   // name of API endpoint serving a request
	Storage, _   = tag.NewKey("storage")    // name of storage system data is written to
	ConnState, _ = tag.NewKey("conn_state") // state of a pooled database connection
)

var (
	PersistDuration = stats.Float64("persist_duration_ms", "Duration of a models persist operation", stats.UnitMilliseconds)
	PersistModel    = stats.Int64("persist_model", "Number of models persisted", stats.UnitDimensionless)
	PersistFailure  = stats.Int64("persist_failure", "Number of persistence failures", stats.UnitDimensionless)
	DBConns         = stats.Int64("db_conns", "Database connections held", stats.UnitDimensionless)
	QueryDuration   = stats.Float64("query_duration_ms", "Duration of a database query serving the API", stats.UnitMilliseconds)
	IngestDuration  = stats.Float64("ingest_duration_ms", "Time taken to process an ingest task", stats.UnitMilliseconds)
	IngestFailure   = stats.Int64("ingest_failure", "Number of ingest tasks that failed", stats.UnitDimensionless)
	ExportDuration  = stats.Float64("export_duration_ms", "Time taken to export a table snapshot", stats.UnitMilliseconds)
	ExportRows      = stats.Int64("export_rows", "Number of rows written to a bulk export file", stats.UnitDimensionless)
	ExportBytes     = stats.Int64("export_bytes", "Number of bytes written to a bulk export file", stats.UnitDimensionless)
	ExportFailure   = stats.Int64("export_failure", "Number of bulk export runs that failed", stats.UnitDimensionless)
	UploadRetry     = stats.Int64("upload_retry", "Number of object storage upload attempts that were retried", stats.UnitDimensionless)
	JobStart        = stats.Int64("job_start", "Number of jobs started", stats.UnitDimensionless)
	JobComplete     = stats.Int64("job_complete", "Number of jobs completed without error", stats.UnitDimensionless)
	JobError        = stats.Int64("job_error", "Number of jobs stopped due to a fatal error", stats.UnitDimensionless)
	TokenCacheHit   = stats.Int64("token_cache_hit", "Number of API token lookups served from the cache", stats.UnitDimensionless)
	TokenCacheMiss  = stats.Int64("token_cache_miss", "Number of API token lookups that required a database read", stats.UnitDimensionless)
	RateLimited     = stats.Int64("rate_limited", "Number of API requests rejected by the rate limiter", stats.UnitDimensionless)
)

var DefaultViews = []*view.View{
	{
		Measure:     PersistDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{TaskType, Table},
	},
	{
		Name:        PersistModel.Name() + "_total",
		Measure:     PersistModel,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{TaskType, Table},
	},
	{
		Name:        PersistFailure.Name() + "_total",
		Measure:     PersistFailure,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{TaskType, Table},
	},
	{
		Measure:     DBConns,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ConnState},
	},
	{
		Measure:     QueryDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{Endpoint},
	},
	{
		Measure:     IngestDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{TaskType},
	},
	{
		Name:        IngestFailure.Name() + "_total",
		Measure:     IngestFailure,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{TaskType},
	},
	{
		Measure:     ExportDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{Job, Table},
	},
	{
		Name:        ExportRows.Name() + "_total",
		Measure:     ExportRows,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{Job, Table},
	},
	{
		Name:        ExportBytes.Name() + "_total",
		Measure:     ExportBytes,
		Aggregation: view.Sum(),
		TagKeys:     []tag.Key{Job, Table},
	},
	{
		Name:        ExportFailure.Name() + "_total",
		Measure:     ExportFailure,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{Job},
	},
	{
		Name:        UploadRetry.Name() + "_total",
		Measure:     UploadRetry,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{Job},
	},
	{
		Name:        JobStart.Name() + "_total",
		Measure:     JobStart,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{Job},
	},
	{
		Name:        JobComplete.Name() + "_total",
		Measure:     JobComplete,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{Job},
	},
	{
		Name:        JobError.Name() + "_total",
		Measure:     JobError,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{Job},
	},
	{
		Name:        TokenCacheHit.Name() + "_total",
		Measure:     TokenCacheHit,
		Aggregation: view.Count(),
	},
	{
		Name:        TokenCacheMiss.Name() + "_total",
		Measure:     TokenCacheMiss,
		Aggregation: view.Count(),
	},
	{
		Name:        RateLimited.Name() + "_total",
		Measure:     RateLimited,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{Endpoint},
	},
}

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

// Timer is a function stopwatch, calling it starts the timer,
// calling the returned function will record the duration.
func Timer(ctx context.Context, m *stats.Float64Measure) func() {
	start := time.Now()
	return func() {
		stats.Record(ctx, m.M(SinceInMilliseconds(start)))
	}
}

// RecordInc is a convenience function that increments a counter.
func RecordInc(ctx context.Context, m *stats.Int64Measure) {
	stats.Record(ctx, m.M(1))
}

// RecordDec is a convenience function that decrements a counter.
func RecordDec(ctx context.Context, m *stats.Int64Measure) {
	stats.Record(ctx, m.M(-1))
}

// RecordCount is a convenience function that increments a counter by a count.
func RecordCount(ctx context.Context, m *stats.Int64Measure, count int) {
	stats.Record(ctx, m.M(int64(count)))
}

// WithTagValue is a convenience function that upserts the tag value in the given context.
func WithTagValue(ctx context.Context, k tag.Key, v string) context.Context {
	ctx, _ = tag.New(ctx, tag.Upsert(k, v))
	return ctx
}
