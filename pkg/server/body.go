package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pierrec/lz4/v4"
)

const (
	encodingIdentity = "identity"
	encodingLZ4      = "lz4"
)

var (
	errTooLarge            = errors.New("request body too large")
	errUnsupportedEncoding = errors.New("unsupported content encoding")
	errInvalidJSON         = errors.New("invalid JSON body")
)

// bodyLimit bounds the encoded request body.
func (s *Server) bodyLimit(documents int) int64 {
	if s.opts.MaxDocumentBytes <= 0 {
		return -1
	}

	return int64(documents)*s.opts.MaxDocumentBytes + envelopeSlack
}

// decodeBody reads hr's body into dest. Bodies sent with Content-Encoding: lz4
// are lz4 frames; the decompressed size is held to the same limit as the wire
// size so a small frame cannot expand without bound.
func (s *Server) decodeBody(rw http.ResponseWriter, hr *http.Request, documents int, dest any) error {
	limit := s.bodyLimit(documents)

	wire := &wireReader{r: hr.Body}
	if limit > 0 {
		wire.r = http.MaxBytesReader(rw, hr.Body, limit)
	}

	var body io.Reader = wire

	switch enc := strings.ToLower(strings.TrimSpace(hr.Header.Get("Content-Encoding"))); enc {
	case "", encodingIdentity:
	case encodingLZ4:
		body = lz4.NewReader(body)
		if limit > 0 {
			body = io.LimitReader(body, limit+1)
		}
	default:
		return fmt.Errorf("%w: %q", errUnsupportedEncoding, enc)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		// The lz4 reader may hide the wire error behind its own.
		if wire.exceeded != nil {
			return fmt.Errorf("%w: limit %d bytes", errTooLarge, wire.exceeded.Limit)
		}

		return fmt.Errorf("%w: %w", errInvalidJSON, err)
	}

	if limit > 0 && int64(len(data)) > limit {
		return fmt.Errorf("%w: decompressed body exceeds %d bytes", errTooLarge, limit)
	}

	err = json.Unmarshal(data, dest)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidJSON, err)
	}

	return nil
}

// wireReader remembers whether the raw body hit its size limit.
type wireReader struct {
	r        io.Reader
	exceeded *http.MaxBytesError
}

func (w *wireReader) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		w.exceeded = maxErr
	}

	return n, err //nolint:wrapcheck // io.Reader contract.
}

// checkDocument enforces the per-document size limit.
func (s *Server) checkDocument(name, text string) error {
	if s.opts.MaxDocumentBytes > 0 && int64(len(text)) > s.opts.MaxDocumentBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", errTooLarge, name, len(text), s.opts.MaxDocumentBytes)
	}

	return nil
}
