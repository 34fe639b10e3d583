package transfer

import (
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/starford/speeddial/internal/apperr"
)

// nativeSchema checks shape only; every top-level field is optional so that
// partial backups import.
const nativeSchema = `{
  "type": "object",
  "properties": {
    "settings": {"type": ["object", "null"]},
    "tiles": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "url"],
        "properties": {
          "id":       {"type": "string"},
          "title":    {"type": ["string", "null"]},
          "url":      {"type": "string"},
          "imageUrl": {"type": ["string", "null"]},
          "position": {"type": "integer"},
          "pageId":   {"type": "string"}
        }
      }
    },
    "pages": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id":   {"type": "string"},
          "name": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

const legacySchema = `{
  "type": "object",
  "properties": {
    "groups": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "id":    {"type": ["string", "number"]},
          "title": {"type": ["string", "null"]}
        }
      }
    },
    "dials": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "id":        {"type": ["string", "number", "null"]},
          "title":     {"type": ["string", "null"]},
          "url":       {"type": ["string", "null"]},
          "thumbnail": {"type": ["string", "null"]},
          "position":  {"type": ["number", "null"]},
          "idgroup":   {"type": ["string", "number", "null"]}
        }
      }
    }
  }
}`

var (
	nativeOnce = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compile(nativeSchema) })
	legacyOnce = sync.OnceValues(func() (*gojsonschema.Schema, error) { return compile(legacySchema) })
)

func compile(src string) (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
}

// checkShape validates data against schema, mapping every failure to apperr.ErrImport.
func checkShape(load func() (*gojsonschema.Schema, error), data []byte) error {
	schema, err := load()
	if err != nil {
		return fmt.Errorf("transfer: compile schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrImport, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", apperr.ErrImport, strings.Join(msgs, "; "))
	}
	return nil
}
