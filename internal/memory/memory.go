// Package memory holds each agent's long-term memory: named collections of
// text documents that can be queried for the entries most relevant to a
// piece of input.
package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrCollectionNotFound is returned when deleting or renaming a missing collection
var ErrCollectionNotFound = errors.New("collection not found")

// ErrCollectionExists is returned when a rename target is already taken
var ErrCollectionExists = errors.New("collection already exists")

// Document is a stored memory entry. Score is set on query results.
type Document struct {
	ID    string            `cbor:"1,keyasint,omitempty"`
	Text  string            `cbor:"2,keyasint"`
	Meta  map[string]string `cbor:"3,keyasint,omitempty"`
	Score float64           `cbor:"-"`
}

// Collection is one named set of documents
type Collection interface {
	Name() string
	// Upsert inserts or replaces the document stored under id
	Upsert(ctx context.Context, id, doc string, meta map[string]string) error
	// Query returns up to k documents ranked by relevance to text
	Query(ctx context.Context, text string, k int) ([]Document, error)
	Count(ctx context.Context) (int, error)
}

// Store manages collections
type Store interface {
	GetOrCreate(ctx context.Context, name string) (Collection, error)
	Collections(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, oldName, newName string) error
	Close() error
}

// CollectionName names the memory an agent keeps about one counterparty.
// Names keep their case, so "Ada" and "ada" remember separately.
func CollectionName(agent, counterparty string) string {
	return fmt.Sprintf("%s-%s", agent, counterparty)
}

// Texts returns the document bodies in order
func Texts(docs []Document) []string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return texts
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("memory: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("memory: CBOR decoder initialization failed: " + err.Error())
	}
}

func encodeMeta(meta map[string]string) ([]byte, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	return encMode.Marshal(meta)
}

func decodeMeta(data []byte) (map[string]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var meta map[string]string
	if err := decMode.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func encodeDocument(doc Document) ([]byte, error) {
	return encMode.Marshal(doc)
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	err := decMode.Unmarshal(data, &doc)
	return doc, err
}
