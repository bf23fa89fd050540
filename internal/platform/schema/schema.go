// Package schema checks generated records against the JSON Schema contracts
// shared with downstream consumers and audits whole datasets.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Contract names accepted by Validate.
const (
	LLMContext      = "llm_context"
	IntakeExtracted = "intake_extracted"
	Product         = "product"
)

const schemaBaseURL = "https://pharmassist.example/schemas/"

//go:embed schemas/*.schema.json
var schemaFiles embed.FS

// Issue is one validation problem. Path uses JSONPath-like notation rooted
// at "$".
type Issue struct {
	Schema  string `json:"schema"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string { return fmt.Sprintf("%s %s: %s", i.Schema, i.Path, i.Message) }

var printer = message.NewPrinter(language.English)

// compiled holds every embedded contract, compiled once for Draft 2020-12.
var compiled = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	for _, name := range []string{LLMContext, IntakeExtracted, Product} {
		b, err := schemaFiles.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("parse %s schema: %w", name, err)
		}
		if err := c.AddResource(schemaBaseURL+name+".schema.json", doc); err != nil {
			return nil, fmt.Errorf("add %s schema: %w", name, err)
		}
	}
	out := map[string]*jsonschema.Schema{}
	for _, name := range []string{LLMContext, IntakeExtracted, Product} {
		sch, err := c.Compile(schemaBaseURL + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		out[name] = sch
	}
	return out, nil
})

// Names lists the known contracts.
func Names() []string {
	return []string{IntakeExtracted, LLMContext, Product}
}

// Validate checks instance against the named contract. Instance may be a
// decoded JSON value or any value that marshals to JSON. Issues are sorted
// by path; an empty result means the instance conforms.
func Validate(instance any, name string) []Issue {
	schemas, err := compiled()
	if err != nil {
		return []Issue{{Schema: name, Path: "$", Message: err.Error()}}
	}
	sch, ok := schemas[name]
	if !ok {
		return []Issue{{Schema: name, Path: "$", Message: "unknown schema"}}
	}
	v, err := decode(instance)
	if err != nil {
		return []Issue{{Schema: name, Path: "$", Message: err.Error()}}
	}

	err = sch.Validate(v)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Issue{{Schema: name, Path: "$", Message: err.Error()}}
	}
	var issues []Issue
	collect(&issues, name, ve)
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}

// collect flattens the leaves of a validation error tree.
func collect(issues *[]Issue, name string, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		*issues = append(*issues, Issue{
			Schema:  name,
			Path:    jsonPath(ve.InstanceLocation),
			Message: ve.ErrorKind.LocalizedString(printer),
		})
		return
	}
	for _, c := range ve.Causes {
		collect(issues, name, c)
	}
}

// jsonPath renders a JSON pointer token list as "$.a[0].b".
func jsonPath(tokens []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, tok := range tokens {
		if _, err := strconv.Atoi(tok); err == nil {
			b.WriteString("[" + tok + "]")
			continue
		}
		b.WriteString("." + tok)
	}
	return b.String()
}

// decode round-trips v through JSON so numbers arrive as json.Number.
func decode(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("not JSON encodable: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

func normalize(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	}
	return decode(v)
}

func number(v any) (float64, bool, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return float64(i), true, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false, false
		}
		return f, f == float64(int64(f)) && !strings.ContainsAny(n.String(), ".eE"), true
	case float64:
		return n, n == float64(int64(n)), true
	case int:
		return float64(n), true, true
	case int64:
		return float64(n), true, true
	}
	return 0, false, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
