package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/simsketch/pkg/corpus"
	"github.com/Sumatoshi-tech/simsketch/pkg/sigdoc"
)

// Tool names.
const (
	ToolNameSignature  = "minhash_signature"
	ToolNameSimilarity = "minhash_similarity"
)

// MaxTextBytes is the default cap on a single text argument (1 MB).
const MaxTextBytes = 1 << 20

const metricSource = "mcp"

var (
	// ErrEmptyText indicates a required text argument is empty.
	ErrEmptyText = errors.New("text parameter is required and must not be empty")
	// ErrTextTooLarge indicates a text argument exceeds the size limit.
	ErrTextTooLarge = errors.New("text input exceeds maximum size")
)

// SignatureInput is the input schema for the minhash_signature tool.
type SignatureInput struct {
	Text   string `json:"text"             jsonschema:"document text; tokens are separated by whitespace"`
	Source string `json:"source,omitempty" jsonschema:"optional label recorded in the signature document"`
}

// SimilarityInput is the input schema for the minhash_similarity tool.
type SimilarityInput struct {
	A string `json:"a" jsonschema:"first document text"`
	B string `json:"b" jsonschema:"second document text"`
}

// SimilarityResult is the payload returned by minhash_similarity.
type SimilarityResult struct {
	Similarity  float64 `json:"similarity"`
	Agreement   float64 `json:"agreement"`
	ShingleSize int     `json:"shingle_size"`
	HashCount   int     `json:"hash_count"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func (s *Server) handleSignature(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input SignatureInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := s.validateText("text", input.Text)
	if err != nil {
		return errorResult(err)
	}

	source := input.Source
	if source == "" {
		source = metricSource
	}

	sig, err := s.sign(ctx, source, input.Text)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(sigdoc.FromSignature(s.hasher, sig, source))
}

func (s *Server) handleSimilarity(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input SimilarityInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := errors.Join(s.validateText("a", input.A), s.validateText("b", input.B))
	if err != nil {
		return errorResult(err)
	}

	sigA, err := s.sign(ctx, "a", input.A)
	if err != nil {
		return errorResult(err)
	}

	sigB, err := s.sign(ctx, "b", input.B)
	if err != nil {
		return errorResult(err)
	}

	similarity, err := s.hasher.Similarity(sigA, sigB)
	if err != nil {
		return errorResult(err)
	}

	agreement, err := sigA.Agreement(sigB)
	if err != nil {
		return errorResult(err)
	}

	if s.sketch != nil {
		s.sketch.RecordComparison(ctx, metricSource, similarity)
	}

	return jsonResult(SimilarityResult{
		Similarity:  similarity,
		Agreement:   agreement,
		ShingleSize: s.hasher.ShingleSize(),
		HashCount:   s.hasher.HashCount(),
	})
}

func (s *Server) sign(ctx context.Context, source, text string) (minhash.Signature, error) {
	res := corpus.Sign(s.hasher, corpus.Input{Source: source, Text: text})

	if s.sketch != nil {
		if res.OK() {
			s.sketch.RecordSignature(ctx, metricSource, res.Shingles)
		} else {
			s.sketch.RecordShortDocument(ctx, metricSource)
		}
	}

	if res.Err != nil {
		s.logger.DebugContext(ctx, "document too short", "source", source, "tokens", res.Tokens)
	}

	return res.Signature, res.Err
}

func (s *Server) validateText(name, text string) error {
	if text == "" {
		return fmt.Errorf("%s: %w", name, ErrEmptyText)
	}

	if int64(len(text)) > s.maxBytes {
		return fmt.Errorf("%s: %w: %d bytes (max %d)", name, ErrTextTooLarge, len(text), s.maxBytes)
	}

	return nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
