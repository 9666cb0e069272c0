// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package content

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SeedSchemaID is the $id of the generated seed file schema.
const SeedSchemaID = "https://curio.dev/schemas/items.schema.json"

// SeedFile is the YAML document accepted by `curio items seed`.
type SeedFile struct {
	Items []SeedItem `json:"items" yaml:"items" jsonschema:"required,minItems=1"`
}

// SeedItem describes one item to create.
type SeedItem struct {
	Pictures    []string `json:"pictures" yaml:"pictures" jsonschema:"required,minItems=1"`
	Title       SeedText `json:"title" yaml:"title" jsonschema:"required"`
	Description SeedText `json:"description" yaml:"description" jsonschema:"required"`
}

// SeedText is a canonical/localized pair.
type SeedText struct {
	Canonical string `json:"canonical" yaml:"canonical" jsonschema:"required,minLength=1"`
	Localized string `json:"localized" yaml:"localized" jsonschema:"required,minLength=1"`
}

var (
	compiledSeedOnce   sync.Once
	compiledSeedSchema *jschema.Schema
	compiledSeedErr    error
)

// GenerateSeedSchema generates a JSON Schema from the SeedFile struct.
func GenerateSeedSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&SeedFile{})
	schema.ID = jsonschema.ID(SeedSchemaID)
	schema.Title = "Curio item seed file"
	schema.Description = "Items created by `curio items seed`"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SEED_SCHEMA_FAILED").With("operation", "marshal schema").Wrap(err)
	}
	return data, nil
}

// ParseSeed validates YAML data against the seed schema and builds the
// items it describes.
func ParseSeed(data []byte) ([]*Item, error) {
	if len(data) == 0 {
		return nil, oops.Code("SEED_INVALID").Errorf("seed data is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "parse yaml").Wrap(err)
	}

	sch, err := seedSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "validate schema").Wrap(err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "decode items").Wrap(err)
	}

	items := make([]*Item, 0, len(file.Items))
	for n, s := range file.Items {
		item, err := NewItem(s.Pictures,
			Text{Canonical: s.Title.Canonical, Localized: s.Title.Localized},
			Text{Canonical: s.Description.Canonical, Localized: s.Description.Localized},
		)
		if err != nil {
			return nil, oops.Code("SEED_INVALID").With("index", n).Wrap(err)
		}
		items = append(items, item)
	}
	return items, nil
}

func seedSchema() (*jschema.Schema, error) {
	compiledSeedOnce.Do(func() {
		raw, err := GenerateSeedSchema()
		if err != nil {
			compiledSeedErr = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compiledSeedErr = oops.Code("SEED_SCHEMA_FAILED").With("operation", "parse schema").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("items.schema.json", doc); err != nil {
			compiledSeedErr = oops.Code("SEED_SCHEMA_FAILED").With("operation", "add schema resource").Wrap(err)
			return
		}
		compiledSeedSchema, compiledSeedErr = c.Compile("items.schema.json")
		if compiledSeedErr != nil {
			compiledSeedErr = oops.Code("SEED_SCHEMA_FAILED").With("operation", "compile schema").Wrap(compiledSeedErr)
		}
	})
	return compiledSeedSchema, compiledSeedErr
}
