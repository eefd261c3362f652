// Package submissiontest ofrece un ERP en memoria para tests del flujo de envío.
package submissiontest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// Call llamada registrada por el fake.
type Call struct {
	Method  string // GET, POST, PUT
	Doctype string
	Name    string
	Payload entity.Record
}

// FakeERP implementa submission.ERPGateway sobre mapas en memoria.
// Los documentos creados reciben nombres tipo "SINV-00001" / "PO-00001".
type FakeERP struct {
	mu       sync.Mutex
	records  map[string]map[string]entity.Record // doctype -> name -> record
	calls    []Call
	failures map[string]error // "METHOD doctype" -> error
	seq      int
}

// NewFakeERP crea un ERP vacío.
func NewFakeERP() *FakeERP {
	return &FakeERP{
		records:  make(map[string]map[string]entity.Record),
		failures: make(map[string]error),
	}
}

// Seed registra una entidad preexistente.
func (f *FakeERP) Seed(doctype, name string, data entity.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := entity.Record{"name": name}
	for k, v := range data {
		rec[k] = v
	}
	f.put(doctype, name, rec)
}

// FailOn hace que las llamadas method+doctype devuelvan err.
func (f *FakeERP) FailOn(method, doctype string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+doctype] = err
}

// Calls copia de las llamadas registradas.
func (f *FakeERP) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CountCalls cuenta llamadas por método ("" = todas).
func (f *FakeERP) CountCalls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			n++
		}
	}
	return n
}

// Get devuelve el registro guardado (nil si no existe).
func (f *FakeERP) Get(doctype, name string) entity.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[doctype][name]
}

// Count número de registros de un doctype.
func (f *FakeERP) Count(doctype string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[doctype])
}

func (f *FakeERP) GetResource(_ context.Context, doctype, name string) (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "GET", Doctype: doctype, Name: name})
	if err := f.failures["GET "+doctype]; err != nil {
		return nil, err
	}
	rec, ok := f.records[doctype][name]
	if !ok {
		return nil, nil
	}
	return clone(rec), nil
}

func (f *FakeERP) CreateResource(_ context.Context, doctype string, payload entity.Record) (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "POST", Doctype: doctype, Payload: clone(payload)})
	if err := f.failures["POST "+doctype]; err != nil {
		return nil, err
	}

	name := f.nameFor(doctype, payload)
	if _, exists := f.records[doctype][name]; exists {
		return nil, fmt.Errorf("Duplicate entry: %s %s already exists", doctype, name)
	}
	rec := clone(payload)
	rec["name"] = name
	rec["docstatus"] = 0
	f.put(doctype, name, rec)
	return clone(rec), nil
}

func (f *FakeERP) UpdateResource(_ context.Context, doctype, name string, payload entity.Record) (entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "PUT", Doctype: doctype, Name: name, Payload: clone(payload)})
	if err := f.failures["PUT "+doctype]; err != nil {
		return nil, err
	}
	rec, ok := f.records[doctype][name]
	if !ok {
		return nil, fmt.Errorf("%s %s does not exist", doctype, name)
	}
	for k, v := range payload {
		rec[k] = v
	}
	return clone(rec), nil
}

func (f *FakeERP) nameFor(doctype string, payload entity.Record) string {
	switch doctype {
	case "Company":
		return payload.String("company_name")
	case "Customer":
		return payload.String("customer_name")
	case "Supplier":
		return payload.String("supplier_name")
	case "Item":
		return payload.String("item_code")
	case "Sales Invoice":
		f.seq++
		return fmt.Sprintf("SINV-%05d", f.seq)
	case "Purchase Order":
		f.seq++
		return fmt.Sprintf("PO-%05d", f.seq)
	}
	f.seq++
	return fmt.Sprintf("DOC-%05d", f.seq)
}

func (f *FakeERP) put(doctype, name string, rec entity.Record) {
	if f.records[doctype] == nil {
		f.records[doctype] = make(map[string]entity.Record)
	}
	f.records[doctype][name] = rec
}

func clone(r entity.Record) entity.Record {
	if r == nil {
		return nil
	}
	out := make(entity.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
