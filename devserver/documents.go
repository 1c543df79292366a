package devserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/resources"
	"github.com/shopspring/decimal"
)

// document is one stored resource, kept as decoded JSON.
type document map[string]any

func (d document) str(field string) string {
	v, _ := d[field].(string)
	return v
}

// clone deep-copies d so callers never share nested lines with the store.
func (d document) clone() document {
	c := make(document, len(d))
	for k, v := range d {
		c[k] = deepCopy(v)
	}
	return c
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = deepCopy(item)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, item := range t {
			s[i] = deepCopy(item)
		}
		return s
	default:
		return v
	}
}

// collectionSpec describes one tenant collection and how its bodies are
// validated.
type collectionSpec struct {
	path     string
	required []string
	decimals []string
	lines    bool // has a lines array of product or invoice lines
	workflow bool // draft -> confirmed -> done, or cancelled
	validate func(d document, problems fieldErrors)
}

var collectionSpecs = []collectionSpec{
	{
		path:     resources.LocationsPath,
		required: []string{"code", "name"},
	},
	{
		path:     resources.DeliveryOrdersPath,
		required: []string{"reference", "customer_name", "location_id"},
		lines:    true,
		workflow: true,
	},
	{
		path:     resources.IncomingProductsPath,
		required: []string{"reference", "supplier_name", "location_id"},
		lines:    true,
		workflow: true,
	},
	{
		path:     resources.StockAdjustmentsPath,
		required: []string{"location_id", "product_id", "quantity", "reason"},
		decimals: []string{"quantity"},
		workflow: true,
		validate: func(d document, problems fieldErrors) {
			if q, err := decimal.NewFromString(d.str("quantity")); err == nil && q.IsZero() {
				problems.add("quantity", "Adjustment quantity cannot be zero.")
			}
		},
	},
	{
		path:     resources.InvoicesPath,
		required: []string{"number", "customer_name", "currency"},
		lines:    true,
		workflow: true,
		validate: func(d document, problems fieldErrors) {
			if c := d.str("currency"); c != "" && len(c) != 3 {
				problems.add("currency", "Use a three letter ISO 4217 code.")
			}
		},
	},
}

// normalize validates d in place, rewriting decimal fields to their
// canonical string form.
func (c collectionSpec) normalize(d document) fieldErrors {
	problems := fieldErrors{}
	for _, field := range c.required {
		if v, ok := d[field]; !ok || v == nil || fmt.Sprint(v) == "" {
			problems.add(field, "This field is required.")
		}
	}
	for _, field := range c.decimals {
		if v, ok := d[field]; ok && v != nil {
			dec, err := toDecimal(v)
			if err != nil {
				problems.add(field, "A valid number is required.")
				continue
			}
			d[field] = dec.String()
		}
	}
	if c.lines {
		normalizeLines(d, problems)
	}
	if c.validate != nil && len(problems) == 0 {
		c.validate(d, problems)
	}
	return problems
}

func normalizeLines(d document, problems fieldErrors) {
	raw, ok := d["lines"]
	if !ok || raw == nil {
		d["lines"] = []any{}
		return
	}
	lines, ok := raw.([]any)
	if !ok {
		problems.add("lines", "Expected a list of items.")
		return
	}
	for i, item := range lines {
		line, ok := item.(map[string]any)
		if !ok {
			problems.add("lines", fmt.Sprintf("Line %d is not an object.", i))
			continue
		}
		for _, field := range []string{"quantity", "unit_cost", "unit_price", "tax_rate"} {
			v, ok := line[field]
			if !ok || v == nil {
				continue
			}
			dec, err := toDecimal(v)
			if err != nil {
				problems.add("lines", fmt.Sprintf("Line %d: %s is not a valid number.", i, field))
				continue
			}
			if field == "quantity" && !dec.IsPositive() {
				problems.add("lines", fmt.Sprintf("Line %d: quantity must be greater than 0.", i))
			}
			line[field] = dec.String()
		}
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("not a number: %T", v)
	}
}

// transitions maps an action to the statuses it may be applied from and the
// resulting status.
var transitions = map[string]struct {
	from []string
	to   string
}{
	resources.ActionConfirm:  {from: []string{resources.StatusDraft}, to: resources.StatusConfirmed},
	resources.ActionValidate: {from: []string{resources.StatusConfirmed}, to: resources.StatusDone},
	resources.ActionCancel:   {from: []string{resources.StatusDraft, resources.StatusConfirmed}, to: resources.StatusCancelled},
}

type table struct {
	order []string
	rows  map[string]document
}

// documentStore keeps documents per tenant and collection path.
type documentStore struct {
	mu     sync.RWMutex
	tables map[string]*table
}

func newDocumentStore() *documentStore {
	return &documentStore{tables: make(map[string]*table)}
}

func (s *documentStore) table(schema, path string) *table {
	key := schema + path
	t, ok := s.tables[key]
	if !ok {
		t = &table{rows: make(map[string]document)}
		s.tables[key] = t
	}
	return t
}

func (s *documentStore) list(schema, path string, offset, limit int) ([]document, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[schema+path]
	if !ok {
		return []document{}, 0
	}
	total := len(t.order)
	if offset >= total {
		return []document{}, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	out := make([]document, 0, end-offset)
	for _, id := range t.order[offset:end] {
		out = append(out, t.rows[id].clone())
	}
	return out, total
}

func (s *documentStore) get(schema, path, id string) (document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[schema+path]
	if !ok {
		return nil, errors.ErrNotFound
	}
	d, ok := t.rows[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return d.clone(), nil
}

func (s *documentStore) create(schema string, spec collectionSpec, d document) document {
	s.mu.Lock()
	defer s.mu.Unlock()

	d = d.clone()
	d["id"] = uuid.New().String()
	if spec.workflow {
		d["status"] = resources.StatusDraft
	}
	t := s.table(schema, spec.path)
	t.rows[d.str("id")] = d
	t.order = append(t.order, d.str("id"))
	return d.clone()
}

// update replaces (merge false) or merges (merge true) the document. The id
// and status are server owned and survive both.
func (s *documentStore) update(schema string, spec collectionSpec, id string, body document, merge bool) (document, fieldErrors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(schema, spec.path)
	current, ok := t.rows[id]
	if !ok {
		return nil, nil, errors.ErrNotFound
	}

	next := body.clone()
	if merge {
		next = current.clone()
		for k, v := range body {
			next[k] = v
		}
	}
	next["id"] = id
	if spec.workflow {
		next["status"] = current["status"]
	}

	if problems := spec.normalize(next); len(problems) > 0 {
		return nil, problems, nil
	}
	t.rows[id] = next
	return next.clone(), nil, nil
}

func (s *documentStore) delete(schema, path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(schema, path)
	if _, ok := t.rows[id]; !ok {
		return errors.ErrNotFound
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// apply runs a workflow action. Invalid transitions are reported as field
// errors on status.
func (s *documentStore) apply(schema, path, id, action string) (document, fieldErrors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := transitions[action]
	if !ok {
		return nil, nil, errors.ErrNotFound
	}
	t := s.table(schema, path)
	d, ok := t.rows[id]
	if !ok {
		return nil, nil, errors.ErrNotFound
	}

	status := d.str("status")
	allowed := false
	for _, from := range tr.from {
		if status == from {
			allowed = true
		}
	}
	if !allowed {
		return nil, fieldErrors{"status": {fmt.Sprintf("Cannot %s a document in status %q.", action, status)}}, nil
	}
	d["status"] = tr.to
	return d.clone(), nil, nil
}
