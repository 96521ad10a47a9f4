package domain

import (
	"bytes"
	"context"
	"sort"

	"github.com/louisbranch/demoscope/internal/platform/grpc/pagination"
	"github.com/louisbranch/demoscope/internal/services/inspector/filter"
	"github.com/louisbranch/demoscope/internal/services/inspector/render"
	"github.com/louisbranch/demoscope/internal/services/inspector/session"
	"github.com/louisbranch/demoscope/internal/services/inspector/snapshot"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	listPageSize  = pagination.PageSizeConfig{Default: 100, Max: 1000}
	entityOrderBy = pagination.OrderByConfig{
		Default: "index",
		Allowed: []string{"index", "index desc", "name"},
	}
)

// TextQuery is the free-text half of a listing query.
type TextQuery struct {
	Query     string `json:"query,omitempty" jsonschema:"text to look for in entity names or joined field names"`
	MatchCase bool   `json:"match_case,omitempty" jsonschema:"make query case sensitive"`
	Regex     bool   `json:"regex,omitempty" jsonschema:"treat query as a regular expression"`
}

func (q TextQuery) matcher() filter.Matcher {
	return filter.Matcher{Query: q.Query, MatchCase: q.MatchCase, Regex: q.Regex}
}

// Page selects one page of a listing.
type Page struct {
	PageSize  int32  `json:"page_size,omitempty" jsonschema:"maximum items to return (default 100, max 1000)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous response"`
}

func paginate[T any](items []T, page Page) ([]T, string, error) {
	out, next, err := pagination.Page(items, pagination.ClampPageSize(page.PageSize, listPageSize), page.PageToken)
	if err != nil {
		return nil, "", invalidArgument("page_token", err.Error())
	}
	return out, next, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// ListEntitiesInput filters and pages an entity listing.
type ListEntitiesInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"AIP-160 filter over index (int) and name (string)"`
	TextQuery
	OrderBy string `json:"order_by,omitempty" jsonschema:"index (default), index desc or name"`
	Page
}

// EntityEntry is one entity in a listing.
type EntityEntry struct {
	Index int32  `json:"index" jsonschema:"entity index"`
	Class string `json:"class" jsonschema:"serializer (class) name"`
}

// ListEntitiesResult is one page of entities.
type ListEntitiesResult struct {
	Found         bool          `json:"found" jsonschema:"false when the recording has no entity state at this tick"`
	Tick          int32         `json:"tick" jsonschema:"tick the listing was taken at"`
	Entities      []EntityEntry `json:"entities" jsonschema:"matching entities"`
	NextPageToken string        `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// ListEntitiesTool defines list_entities.
func ListEntitiesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_entities",
		Description: "Lists live entities at the current tick, optionally filtered by an AIP-160 expression or a text query.",
	}
}

// ListBaselineEntitiesTool defines list_baseline_entities.
func ListBaselineEntitiesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_baseline_entities",
		Description: "Lists baseline entities at the current tick, optionally filtered by an AIP-160 expression or a text query.",
	}
}

// ListEntitiesHandler lists live entities, or baselines when baseline is set.
func ListEntitiesHandler(ws *Workspace, baseline bool) mcp.ToolHandlerFor[ListEntitiesInput, ListEntitiesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListEntitiesInput) (*mcp.CallToolResult, ListEntitiesResult, error) {
		sess, _, err := ws.Current()
		if err != nil {
			return nil, ListEntitiesResult{}, err
		}
		orderBy, err := pagination.NormalizeOrderBy(input.OrderBy, entityOrderBy)
		if err != nil {
			return nil, ListEntitiesResult{}, invalidArgument("order_by", err.Error())
		}

		tick := sess.Tick()
		items, found, err := sess.ListEntitiesFiltered(ctx, session.Query{Filter: input.Filter, Text: input.matcher()}, baseline)
		if err != nil {
			return nil, ListEntitiesResult{}, err
		}
		if !found {
			return textResult("no entity state at this tick"), ListEntitiesResult{Tick: tick, Entities: []EntityEntry{}}, nil
		}
		sortEntities(items, orderBy)

		pageItems, next, err := paginate(items, input.Page)
		if err != nil {
			return nil, ListEntitiesResult{}, err
		}
		result := ListEntitiesResult{Found: true, Tick: tick, Entities: make([]EntityEntry, 0, len(pageItems)), NextPageToken: next}
		for _, it := range pageItems {
			result.Entities = append(result.Entities, EntityEntry{Index: it.Index, Class: it.Name})
		}

		var buf bytes.Buffer
		if err := render.New(&buf, render.Options{}).Entities(pageItems); err != nil {
			return nil, ListEntitiesResult{}, err
		}
		return textResult(buf.String()), result, nil
	}
}

func sortEntities(items []session.EntityItem, orderBy string) {
	switch orderBy {
	case "index desc":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Index > items[j].Index })
	case "name":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	}
}

// ListEntityFieldsInput filters and pages one entity's fields.
type ListEntityFieldsInput struct {
	Index  int32  `json:"index" jsonschema:"entity index"`
	Filter string `json:"filter,omitempty" jsonschema:"AIP-160 filter over name, path, type, kind, value (strings) and depth (int)"`
	TextQuery
	Page
}

// FieldEntry is one field record.
type FieldEntry struct {
	Path  string `json:"path" jsonschema:"raw path, slash separated"`
	Raw   []int  `json:"raw" jsonschema:"raw path segments"`
	Name  string `json:"name" jsonschema:"joined field name"`
	Type  string `json:"type" jsonschema:"declared schema type"`
	Kind  string `json:"kind" jsonschema:"runtime value kind"`
	Value string `json:"value" jsonschema:"value text"`
	Link  *int32 `json:"link,omitempty" jsonschema:"entity index a valid handle field points at"`
}

// ListEntityFieldsResult is one page of fields sorted by raw path.
type ListEntityFieldsResult struct {
	Found         bool         `json:"found" jsonschema:"false when no entity has this index"`
	Tick          int32        `json:"tick" jsonschema:"tick the listing was taken at"`
	Index         int32        `json:"index" jsonschema:"entity index"`
	Fields        []FieldEntry `json:"fields" jsonschema:"matching fields"`
	NextPageToken string       `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// ListEntityFieldsTool defines list_entity_fields.
func ListEntityFieldsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_entity_fields",
		Description: "Lists the fields of one live entity at the current tick, sorted by raw path.",
	}
}

// ListBaselineEntityFieldsTool defines list_baseline_entity_fields.
func ListBaselineEntityFieldsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_baseline_entity_fields",
		Description: "Lists the fields of one baseline entity, sorted by raw path.",
	}
}

// ListEntityFieldsHandler lists one entity's fields, or its baseline's when
// baseline is set.
func ListEntityFieldsHandler(ws *Workspace, baseline bool) mcp.ToolHandlerFor[ListEntityFieldsInput, ListEntityFieldsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListEntityFieldsInput) (*mcp.CallToolResult, ListEntityFieldsResult, error) {
		sess, _, err := ws.Current()
		if err != nil {
			return nil, ListEntityFieldsResult{}, err
		}
		tick := sess.Tick()
		records, found, err := sess.ListEntityFieldsFiltered(ctx, session.FieldQuery{
			Query:    session.Query{Filter: input.Filter, Text: input.matcher()},
			Index:    input.Index,
			Baseline: baseline,
		})
		if err != nil {
			return nil, ListEntityFieldsResult{}, err
		}
		empty := ListEntityFieldsResult{Tick: tick, Index: input.Index, Fields: []FieldEntry{}}
		if !found {
			return textResult("entity not found"), empty, nil
		}

		pageRecords, next, err := paginate(records, input.Page)
		if err != nil {
			return nil, ListEntityFieldsResult{}, err
		}
		result := empty
		result.Found = true
		result.NextPageToken = next
		for _, rec := range pageRecords {
			result.Fields = append(result.Fields, fieldEntry(rec))
		}

		var buf bytes.Buffer
		if err := render.New(&buf, render.Options{ShowPath: true, ShowKind: true}).Fields(pageRecords); err != nil {
			return nil, ListEntityFieldsResult{}, err
		}
		return textResult(buf.String()), result, nil
	}
}

func fieldEntry(rec snapshot.FieldRecord) FieldEntry {
	raw := make([]int, len(rec.RawPath))
	for i, seg := range rec.RawPath {
		raw[i] = int(seg)
	}
	entry := FieldEntry{
		Path:  rec.SlashPath(),
		Raw:   raw,
		Name:  rec.JoinedNamedPath(),
		Type:  rec.DeclaredType,
		Kind:  rec.RuntimeKind,
		Value: rec.Value,
	}
	if index, _, valid := rec.HandleLink(); valid {
		entry.Link = &index
	}
	return entry
}

// ListStringTablesInput has no fields.
type ListStringTablesInput struct{}

// ListStringTablesResult lists table names in creation order.
type ListStringTablesResult struct {
	Found  bool     `json:"found" jsonschema:"false when the recording has no string tables at this tick"`
	Tables []string `json:"tables" jsonschema:"table names in creation order"`
}

// ListStringTablesTool defines list_string_tables.
func ListStringTablesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_string_tables",
		Description: "Lists string table names in creation order.",
	}
}

// ListStringTablesHandler lists string tables.
func ListStringTablesHandler(ws *Workspace) mcp.ToolHandlerFor[ListStringTablesInput, ListStringTablesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListStringTablesInput) (*mcp.CallToolResult, ListStringTablesResult, error) {
		sess, _, err := ws.Current()
		if err != nil {
			return nil, ListStringTablesResult{}, err
		}
		tables, found := sess.ListStringTables(ctx)
		result := ListStringTablesResult{Found: found, Tables: make([]string, 0, len(tables))}
		for _, t := range tables {
			result.Tables = append(result.Tables, t.Name)
		}
		var buf bytes.Buffer
		if err := render.New(&buf, render.Options{}).Tables(tables); err != nil {
			return nil, ListStringTablesResult{}, err
		}
		return textResult(buf.String()), result, nil
	}
}

// ListStringTableItemsInput selects a table by exact name.
type ListStringTableItemsInput struct {
	Table string `json:"table" jsonschema:"exact table name"`
	Page
}

// ItemEntry is one string table slot.
type ItemEntry struct {
	Index    int     `json:"index" jsonschema:"slot index"`
	String   *string `json:"string,omitempty" jsonschema:"string payload, omitted when absent"`
	UserData *string `json:"user_data,omitempty" jsonschema:"user data as space separated hex bytes, omitted when absent"`
}

// ListStringTableItemsResult is one page of table slots.
type ListStringTableItemsResult struct {
	Found         bool        `json:"found" jsonschema:"false when no table has this name"`
	Table         string      `json:"table" jsonschema:"table name"`
	Items         []ItemEntry `json:"items" jsonschema:"table slots in index order"`
	NextPageToken string      `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// ListStringTableItemsTool defines list_string_table_items.
func ListStringTableItemsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_string_table_items",
		Description: "Lists the slots of one string table. The name must match exactly.",
	}
}

// ListStringTableItemsHandler lists one table's items.
func ListStringTableItemsHandler(ws *Workspace) mcp.ToolHandlerFor[ListStringTableItemsInput, ListStringTableItemsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListStringTableItemsInput) (*mcp.CallToolResult, ListStringTableItemsResult, error) {
		sess, _, err := ws.Current()
		if err != nil {
			return nil, ListStringTableItemsResult{}, err
		}
		empty := ListStringTableItemsResult{Table: input.Table, Items: []ItemEntry{}}
		records, found := sess.ListStringTableItems(ctx, input.Table)
		if !found {
			return textResult("string table not found"), empty, nil
		}

		entries := make([]ItemEntry, 0, len(records))
		for _, rec := range records {
			entry := ItemEntry{Index: rec.Index}
			if rec.String != nil {
				s := string(rec.String)
				entry.String = &s
			}
			if rec.UserData != nil {
				hex := rec.HexUserData()
				entry.UserData = &hex
			}
			entries = append(entries, entry)
		}
		pageEntries, next, err := paginate(entries, input.Page)
		if err != nil {
			return nil, ListStringTableItemsResult{}, err
		}
		result := empty
		result.Found = true
		result.Items = pageEntries
		result.NextPageToken = next

		var buf bytes.Buffer
		if err := render.New(&buf, render.Options{}).Items(records); err != nil {
			return nil, ListStringTableItemsResult{}, err
		}
		return textResult(buf.String()), result, nil
	}
}
