// Copyright (c) 2016 Bob Ziuchkovski
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package handler

import (
	"fmt"

	"github.com/relaycore/bxlog"
)

// FieldFilter is used with a Pipeline to drop Fields key/value pairs.
type FieldFilter func(key string, value interface{}) bool

// FieldTransformer is used with a Pipeline to rewrite a record's Fields.
type FieldTransformer func(fields bxlog.Fields) bxlog.Fields

// RecordFilter is used with a Pipeline to drop entire records.
type RecordFilter func(rec *bxlog.Record) bool

// RecordTransformer is used with a Pipeline to rewrite records.
type RecordTransformer func(rec *bxlog.Record) *bxlog.Record

// Pipeline is an immutable builder of record transforms, attached in
// front of a target bxlog.Handler. Pipeline methods return an updated
// *Pipeline; the zero value is an identity pipeline.
//
//	pipe := (&Pipeline{}).FilterFields(dropSecret)
//	wrapped := pipe.Attach(target)
//
// Because a Pipeline is immutable, the same instance may be attached to
// multiple handlers, or reused as the base of multiple further chains.
type Pipeline struct {
	prior       *Pipeline
	transformer RecordTransformer
}

// FilterFields returns an updated Pipeline that drops any Fields
// key/value pair matching one of the given filters.
func (p *Pipeline) FilterFields(filters ...FieldFilter) *Pipeline {
	return &Pipeline{prior: p, transformer: filterNilRecord(filterFields(filters...))}
}

// FilterRecords returns an updated Pipeline that drops records matching
// any of the given filters.
func (p *Pipeline) FilterRecords(filters ...RecordFilter) *Pipeline {
	return &Pipeline{prior: p, transformer: filterNilRecord(filterRecords(filters...))}
}

// TransformFields returns an updated Pipeline that rewrites each
// record's Fields via the given transformers, applied in order.
func (p *Pipeline) TransformFields(transformers ...FieldTransformer) *Pipeline {
	return &Pipeline{prior: p, transformer: filterNilRecord(transformFields(transformers...))}
}

// TransformRecords returns an updated Pipeline that rewrites records via
// the given transformers, applied in order.
func (p *Pipeline) TransformRecords(transformers ...RecordTransformer) *Pipeline {
	return &Pipeline{prior: p, transformer: filterNilRecord(transformRecords(transformers...))}
}

// Attach returns a new handler that runs p against every record before
// passing the (possibly dropped or rewritten) result to target.
func (p *Pipeline) Attach(target bxlog.Handler) bxlog.Handler {
	return &pipelineHandler{pipeline: p, target: target}
}

func (p *Pipeline) apply(rec *bxlog.Record) *bxlog.Record {
	if rec == nil {
		return nil
	}
	if p.prior == nil {
		return rec.Clone()
	}
	return p.transformer(p.prior.apply(rec))
}

type pipelineHandler struct {
	pipeline *Pipeline
	target   bxlog.Handler
}

func (p *pipelineHandler) Name() string {
	return fmt.Sprintf("pipeline(target=%v)", p.target)
}

func (p *pipelineHandler) Open() error { return p.target.Open() }

func (p *pipelineHandler) ProcessLog(rec *bxlog.Record) error {
	transformed := p.pipeline.apply(rec)
	if transformed == nil {
		return nil
	}
	return p.target.ProcessLog(transformed)
}

func (p *pipelineHandler) ProcessImplicitFlush() error { return p.target.ProcessImplicitFlush() }
func (p *pipelineHandler) ProcessExplicitFlush() error { return p.target.ProcessExplicitFlush() }
func (p *pipelineHandler) ProcessExit() error          { return p.target.ProcessExit() }

func (p *pipelineHandler) ProcessCfg(filters bxlog.FilterSet) error {
	return p.target.ProcessCfg(filters)
}

func (p *pipelineHandler) Close() error { return p.target.Close() }

func filterFields(filters ...FieldFilter) RecordTransformer {
	return func(rec *bxlog.Record) *bxlog.Record {
		kept := make(bxlog.Fields, len(rec.Fields))
		for k, v := range rec.Fields {
			drop := false
			for _, filter := range filters {
				if filter(k, v) {
					drop = true
					break
				}
			}
			if !drop {
				kept[k] = v
			}
		}
		rec.Fields = kept
		return rec
	}
}

func filterRecords(filters ...RecordFilter) RecordTransformer {
	return func(rec *bxlog.Record) *bxlog.Record {
		for _, filter := range filters {
			if filter(rec) {
				return nil
			}
		}
		return rec
	}
}

func transformFields(transformers ...FieldTransformer) RecordTransformer {
	return func(rec *bxlog.Record) *bxlog.Record {
		for _, trans := range transformers {
			rec.Fields = trans(rec.Fields)
		}
		return rec
	}
}

func transformRecords(transformers ...RecordTransformer) RecordTransformer {
	return func(rec *bxlog.Record) *bxlog.Record {
		for _, trans := range transformers {
			if rec == nil {
				return nil
			}
			rec = trans(rec)
		}
		return rec
	}
}

func filterNilRecord(transformer RecordTransformer) RecordTransformer {
	return func(rec *bxlog.Record) *bxlog.Record {
		if rec == nil {
			return nil
		}
		return transformer(rec)
	}
}
