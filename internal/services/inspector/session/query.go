package session

import (
	"context"
	"fmt"

	apperrors "github.com/louisbranch/demoscope/internal/platform/errors"
	"github.com/louisbranch/demoscope/internal/services/inspector/filter"
	"github.com/louisbranch/demoscope/internal/services/inspector/snapshot"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Query narrows a listing. Filter is an AIP-160 expression; Text matches
// entity names or joined field paths. Both must accept an item.
type Query struct {
	Filter string
	Text   filter.Matcher
}

// FieldQuery selects the field listing of one entity.
type FieldQuery struct {
	Query
	Index    int32
	Baseline bool
}

type compiledQuery struct {
	expr  *expr.Expr
	match func(string) bool
}

func compile(q Query, fields filter.Fields) (compiledQuery, error) {
	e, err := filter.Parse(q.Filter, fields)
	if err != nil {
		return compiledQuery{}, invalidFilter(q.Filter, err)
	}
	match, err := q.Text.Compile()
	if err != nil {
		return compiledQuery{}, invalidFilter(q.Text.Query, err)
	}
	return compiledQuery{expr: e, match: match}, nil
}

func invalidFilter(text string, err error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeInvalidFilter,
		fmt.Sprintf("invalid filter %q: %v", text, err),
		map[string]string{"Filter": text, "Reason": err.Error()}, err)
}

// ListEntitiesFiltered is ListEntities (or ListBaselineEntities) narrowed by q.
func (s *Session) ListEntitiesFiltered(ctx context.Context, q Query, baseline bool) ([]EntityItem, bool, error) {
	cq, err := compile(q, filter.EntityFields)
	if err != nil {
		return nil, false, err
	}
	ctx, span := s.tracer.Start(ctx, "session.ListEntitiesFiltered", trace.WithAttributes(
		attribute.String("demoscope.filter", q.Filter),
		attribute.Bool("demoscope.baseline", baseline),
	))
	defer span.End()

	var items []EntityItem
	var ok bool
	if baseline {
		items, ok = s.ListBaselineEntities(ctx)
	} else {
		items, ok = s.ListEntities(ctx)
	}
	if !ok {
		return nil, false, nil
	}
	out := items[:0]
	for _, it := range items {
		keep, err := filter.Evaluate(cq.expr, filter.EntityResolver(it.Index, it.Name))
		if err != nil {
			return nil, false, fail(span, invalidFilter(q.Filter, err))
		}
		if keep && cq.match(it.Name) {
			out = append(out, it)
		}
	}
	return out, true, nil
}

// ListEntityFieldsFiltered snapshots one entity's fields, narrows them by
// q and sorts them by raw path.
func (s *Session) ListEntityFieldsFiltered(ctx context.Context, q FieldQuery) ([]snapshot.FieldRecord, bool, error) {
	cq, err := compile(q.Query, filter.RecordFields)
	if err != nil {
		return nil, false, err
	}
	ctx, span := s.tracer.Start(ctx, "session.ListEntityFieldsFiltered", trace.WithAttributes(
		attribute.String("demoscope.filter", q.Filter),
		attribute.Int("demoscope.entity", int(q.Index)),
		attribute.Bool("demoscope.baseline", q.Baseline),
	))
	defer span.End()

	var records []snapshot.FieldRecord
	var ok bool
	if q.Baseline {
		records, ok = s.ListBaselineEntityFields(ctx, q.Index)
	} else {
		records, ok = s.ListEntityFields(ctx, q.Index)
	}
	if !ok {
		return nil, false, nil
	}
	out := records[:0]
	for _, r := range records {
		keep, err := filter.Evaluate(cq.expr, filter.RecordResolver(r))
		if err != nil {
			return nil, false, fail(span, invalidFilter(q.Filter, err))
		}
		if keep && cq.match(r.JoinedNamedPath()) {
			out = append(out, r)
		}
	}
	snapshot.SortByPath(out)
	return out, true, nil
}
