package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSignaturesTotal    = "simsketch.signatures.total"
	metricShinglesPerDoc     = "simsketch.shingles.per_document"
	metricShortDocsTotal     = "simsketch.short_documents.total"
	metricComparisonsTotal   = "simsketch.comparisons.total"
	metricSimilarityObserved = "simsketch.similarity"

	attrSource = "source"
)

var (
	shingleBucketBoundaries    = []float64{1, 10, 100, 1000, 10000, 100000, 1000000}
	similarityBucketBoundaries = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
)

// SketchMetrics counts the work done by the signature pipeline.
type SketchMetrics struct {
	signatures  metric.Int64Counter
	shingles    metric.Int64Histogram
	shortDocs   metric.Int64Counter
	comparisons metric.Int64Counter
	similarity  metric.Float64Histogram
}

// NewSketchMetrics creates the sketch instruments from mt.
func NewSketchMetrics(mt metric.Meter) (*SketchMetrics, error) {
	signatures, err := mt.Int64Counter(metricSignaturesTotal,
		metric.WithDescription("Signatures built"),
		metric.WithUnit("{signature}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSignaturesTotal, err)
	}

	shingles, err := mt.Int64Histogram(metricShinglesPerDoc,
		metric.WithDescription("Shingles hashed per signed document"),
		metric.WithUnit("{shingle}"),
		metric.WithExplicitBucketBoundaries(shingleBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricShinglesPerDoc, err)
	}

	shortDocs, err := mt.Int64Counter(metricShortDocsTotal,
		metric.WithDescription("Documents rejected for having fewer tokens than the shingle size"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricShortDocsTotal, err)
	}

	comparisons, err := mt.Int64Counter(metricComparisonsTotal,
		metric.WithDescription("Signature pairs compared"),
		metric.WithUnit("{comparison}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricComparisonsTotal, err)
	}

	similarity, err := mt.Float64Histogram(metricSimilarityObserved,
		metric.WithDescription("Estimated Jaccard similarity of compared pairs"),
		metric.WithExplicitBucketBoundaries(similarityBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSimilarityObserved, err)
	}

	return &SketchMetrics{
		signatures:  signatures,
		shingles:    shingles,
		shortDocs:   shortDocs,
		comparisons: comparisons,
		similarity:  similarity,
	}, nil
}

// RecordSignature records one signed document and how many shingles it produced.
func (sm *SketchMetrics) RecordSignature(ctx context.Context, source string, shingles int) {
	attrs := metric.WithAttributes(attribute.String(attrSource, source))

	sm.signatures.Add(ctx, 1, attrs)
	sm.shingles.Record(ctx, int64(shingles), attrs)
}

// RecordShortDocument records a document too short to produce any shingle.
func (sm *SketchMetrics) RecordShortDocument(ctx context.Context, source string) {
	sm.shortDocs.Add(ctx, 1, metric.WithAttributes(attribute.String(attrSource, source)))
}

// RecordComparison records one pairwise similarity estimate.
func (sm *SketchMetrics) RecordComparison(ctx context.Context, source string, similarity float64) {
	attrs := metric.WithAttributes(attribute.String(attrSource, source))

	sm.comparisons.Add(ctx, 1, attrs)
	sm.similarity.Record(ctx, similarity, attrs)
}
