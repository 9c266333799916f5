// Package sigdoc encodes MinHash signatures as self-describing documents.
//
// A document carries the shingle size and hash-family seeds next to the
// signature values, so a reader can tell whether two signatures were built
// with the same family and are therefore comparable. Documents are written
// as JSON, YAML or a one-line text form and are validated against an
// embedded JSON Schema when read.
package sigdoc

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/hashfamily"
	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

var (
	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("sigdoc: unknown format")

	// ErrInvalidDocument is returned when a document fails validation.
	ErrInvalidDocument = errors.New("sigdoc: invalid document")

	// ErrIncomparable is returned when two documents use different families
	// or shingle sizes.
	ErrIncomparable = errors.New("sigdoc: signatures were built with different parameters")
)

//go:generate go run ../../tools/schemagen -o schema.json
//go:embed schema.json
var schemaJSON []byte

// Document is a signature together with the parameters that produced it.
type Document struct {
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`
	ShingleSize int      `json:"shingle_size"     yaml:"shingle_size"      jsonschema:"minimum=1"`
	HashCount   int      `json:"hash_count"       yaml:"hash_count"        jsonschema:"minimum=1"`
	Seeds       []uint32 `json:"seeds"            yaml:"seeds,flow"        jsonschema:"minItems=1"`
	Values      []uint32 `json:"values"           yaml:"values,flow"       jsonschema:"minItems=1"`
}

// FromSignature describes sig as produced by h.
func FromSignature(h *minhash.Hasher, sig minhash.Signature, source string) Document {
	return Document{
		Source:      source,
		ShingleSize: h.ShingleSize(),
		HashCount:   h.HashCount(),
		Seeds:       h.Family().Seeds(),
		Values:      sig.Values(),
	}
}

// Signature returns the document's signature.
func (d Document) Signature() minhash.Signature {
	return minhash.SignatureOf(d.Values)
}

// Hasher rebuilds a hasher with the document's family and shingle size.
func (d Document) Hasher() (*minhash.Hasher, error) {
	fam, err := hashfamily.FromSeeds(d.Seeds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return minhash.NewWithFamily(d.ShingleSize, fam)
}

// Comparable returns nil when a and b share shingle size and seeds.
func Comparable(a, b Document) error {
	if a.ShingleSize != b.ShingleSize {
		return fmt.Errorf("%w: shingle size %d vs %d", ErrIncomparable, a.ShingleSize, b.ShingleSize)
	}

	if !slices.Equal(a.Seeds, b.Seeds) {
		return fmt.Errorf("%w: hash family seeds differ", ErrIncomparable)
	}

	return nil
}

// Compare checks that a and b are comparable and returns their set
// similarity and positional agreement.
func Compare(a, b Document) (similarity, agreement float64, err error) {
	err = Comparable(a, b)
	if err != nil {
		return 0, 0, err
	}

	sigA, sigB := a.Signature(), b.Signature()

	similarity, err = minhash.Similarity(sigA.Set(), sigB.Set())
	if err != nil {
		return 0, 0, err
	}

	agreement, err = sigA.Agreement(sigB)
	if err != nil {
		return 0, 0, err
	}

	return similarity, agreement, nil
}

// Validate checks the document's internal consistency.
func (d Document) Validate() error {
	if d.ShingleSize < 1 {
		return fmt.Errorf("%w: shingle_size %d", ErrInvalidDocument, d.ShingleSize)
	}

	if d.HashCount < 1 || len(d.Seeds) != d.HashCount || len(d.Values) != d.HashCount {
		return fmt.Errorf("%w: hash_count %d, %d seeds, %d values",
			ErrInvalidDocument, d.HashCount, len(d.Seeds), len(d.Values))
	}

	return nil
}

// Encode writes docs to w in the given format. JSON output is a single
// object for one document and an array otherwise; YAML output is a stream
// of documents; text output is one line per document.
func Encode(w io.Writer, format string, docs ...Document) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, docs)
	case FormatYAML:
		return encodeYAML(w, docs)
	case FormatText:
		return encodeText(w, docs)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func encodeJSON(w io.Writer, docs []Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	var err error
	if len(docs) == 1 {
		err = enc.Encode(docs[0])
	} else {
		err = enc.Encode(docs)
	}

	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func encodeYAML(w io.Writer, docs []Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	for _, d := range docs {
		err := enc.Encode(d)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	}

	err := enc.Close()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}

// encodeText writes "<hex signature>  k=<size> n=<count>  <source>" per line.
func encodeText(w io.Writer, docs []Document) error {
	for _, d := range docs {
		line := fmt.Sprintf("%s  k=%d n=%d", hex.EncodeToString(d.Signature().Bytes()), d.ShingleSize, d.HashCount)
		if d.Source != "" {
			line += "  " + d.Source
		}

		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return fmt.Errorf("encode text: %w", err)
		}
	}

	return nil
}

// Decode parses every document in data. JSON and YAML input are both
// accepted: a single object, a JSON array of objects, or a YAML stream.
// Each document is validated against the embedded schema.
func Decode(data []byte) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []Document

	for {
		var node yaml.Node

		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		decoded, err := decodeNode(&node)
		if err != nil {
			return nil, err
		}

		docs = append(docs, decoded...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents found", ErrInvalidDocument)
	}

	return docs, nil
}

func decodeNode(node *yaml.Node) ([]Document, error) {
	root := node
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}

	items := []*yaml.Node{root}
	if root.Kind == yaml.SequenceNode {
		items = root.Content
	}

	docs := make([]Document, 0, len(items))

	for i, item := range items {
		var raw any

		err := item.Decode(&raw)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrInvalidDocument, i, err)
		}

		err = validateSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		var doc Document

		err = item.Decode(&doc)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", ErrInvalidDocument, i, err)
		}

		err = doc.Validate()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func validateSchema(raw any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}
