package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/simsketch/pkg/corpus"
	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
	"github.com/Sumatoshi-tech/simsketch/pkg/sigdoc"
)

const defaultSource = "request"

var errMissingField = errors.New("missing field")

// SignatureRequest is the body of POST /v1/signature.
type SignatureRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// SimilarityRequest is the body of POST /v1/similarity. Either both texts or
// exactly two signature documents must be given.
type SimilarityRequest struct {
	A          *string           `json:"a,omitempty"`
	B          *string           `json:"b,omitempty"`
	Signatures []sigdoc.Document `json:"signatures,omitempty"`
}

// SimilarityResponse is the body returned by POST /v1/similarity.
type SimilarityResponse struct {
	Similarity  float64 `json:"similarity"`
	Agreement   float64 `json:"agreement"`
	ShingleSize int     `json:"shingle_size"`
	HashCount   int     `json:"hash_count"`
}

// ConfigResponse is the body returned by GET /v1/config.
type ConfigResponse struct {
	ShingleSize      int      `json:"shingle_size"`
	HashCount        int      `json:"hash_count"`
	Seeds            []uint32 `json:"seeds"`
	MaxDocumentBytes int64    `json:"max_document_bytes,omitempty"`
}

// ErrorResponse is the body of every non-2xx API answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleSignature(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	var req SignatureRequest

	err := s.decodeBody(rw, hr, 1, &req)
	if err == nil {
		err = s.checkDocument("text", req.Text)
	}

	if err != nil {
		s.writeError(rw, hr, err)

		return
	}

	source := req.Source
	if source == "" {
		source = defaultSource
	}

	sig, err := s.sign(ctx, corpus.Input{Source: source, Text: req.Text})
	if err != nil {
		s.writeError(rw, hr, err)

		return
	}

	s.writeJSON(ctx, rw, http.StatusOK, sigdoc.FromSignature(s.opts.Hasher, sig, source))
}

func (s *Server) handleSimilarity(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	var req SimilarityRequest

	err := s.decodeBody(rw, hr, 2, &req)
	if err != nil {
		s.writeError(rw, hr, err)

		return
	}

	resp, err := s.similarity(ctx, req)
	if err != nil {
		s.writeError(rw, hr, err)

		return
	}

	if s.opts.Sketch != nil {
		s.opts.Sketch.RecordComparison(ctx, metricSource, resp.Similarity)
	}

	s.writeJSON(ctx, rw, http.StatusOK, resp)
}

func (s *Server) similarity(ctx context.Context, req SimilarityRequest) (SimilarityResponse, error) {
	if len(req.Signatures) > 0 {
		return compareDocuments(req.Signatures)
	}

	if req.A == nil || req.B == nil {
		return SimilarityResponse{}, fmt.Errorf("%w: need \"a\" and \"b\" or two \"signatures\"", errMissingField)
	}

	err := s.checkDocument("a", *req.A)
	if err == nil {
		err = s.checkDocument("b", *req.B)
	}

	if err != nil {
		return SimilarityResponse{}, err
	}

	sigA, err := s.sign(ctx, corpus.Input{Source: "a", Text: *req.A})
	if err != nil {
		return SimilarityResponse{}, err
	}

	sigB, err := s.sign(ctx, corpus.Input{Source: "b", Text: *req.B})
	if err != nil {
		return SimilarityResponse{}, err
	}

	similarity, err := s.opts.Hasher.Similarity(sigA, sigB)
	if err != nil {
		return SimilarityResponse{}, err
	}

	agreement, err := sigA.Agreement(sigB)
	if err != nil {
		return SimilarityResponse{}, err
	}

	return SimilarityResponse{
		Similarity:  similarity,
		Agreement:   agreement,
		ShingleSize: s.opts.Hasher.ShingleSize(),
		HashCount:   s.opts.Hasher.HashCount(),
	}, nil
}

func compareDocuments(docs []sigdoc.Document) (SimilarityResponse, error) {
	if len(docs) != 2 {
		return SimilarityResponse{}, fmt.Errorf("%w: want 2 signatures, got %d", errMissingField, len(docs))
	}

	for _, doc := range docs {
		err := doc.Validate()
		if err != nil {
			return SimilarityResponse{}, err
		}
	}

	similarity, agreement, err := sigdoc.Compare(docs[0], docs[1])
	if err != nil {
		return SimilarityResponse{}, err
	}

	return SimilarityResponse{
		Similarity:  similarity,
		Agreement:   agreement,
		ShingleSize: docs[0].ShingleSize,
		HashCount:   docs[0].HashCount,
	}, nil
}

func (s *Server) sign(ctx context.Context, in corpus.Input) (minhash.Signature, error) {
	start := time.Now()
	res := corpus.Sign(s.opts.Hasher, in)

	if s.opts.Sketch != nil {
		if res.OK() {
			s.opts.Sketch.RecordSignature(ctx, metricSource, res.Shingles)
		} else {
			s.opts.Sketch.RecordShortDocument(ctx, metricSource)
		}
	}

	s.logger.DebugContext(ctx, "signed document",
		"source", in.Source, "tokens", res.Tokens, "shingles", res.Shingles,
		"duration", time.Since(start), "error", res.Err)

	return res.Signature, res.Err
}

func (s *Server) handleConfig(rw http.ResponseWriter, hr *http.Request) {
	h := s.opts.Hasher

	s.writeJSON(hr.Context(), rw, http.StatusOK, ConfigResponse{
		ShingleSize:      h.ShingleSize(),
		HashCount:        h.HashCount(),
		Seeds:            h.Family().Seeds(),
		MaxDocumentBytes: s.opts.MaxDocumentBytes,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedEncoding):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errInvalidJSON), errors.Is(err, errMissingField):
		return http.StatusBadRequest
	case errors.Is(err, minhash.ErrCompute),
		errors.Is(err, minhash.ErrSizeMismatch),
		errors.Is(err, sigdoc.ErrIncomparable),
		errors.Is(err, sigdoc.ErrInvalidDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(rw http.ResponseWriter, hr *http.Request, err error) {
	ctx := hr.Context()
	status := statusFor(err)

	// Client mistakes are logged quietly; server faults loudly.
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	s.logger.Log(ctx, level, "request failed", "path", hr.URL.Path, "status", status, "error", err)

	s.writeJSON(ctx, rw, status, ErrorResponse{
		Error:     err.Error(),
		RequestID: observability.RequestIDFromContext(ctx),
	})
}

func (s *Server) writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	err := json.NewEncoder(rw).Encode(value)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}
