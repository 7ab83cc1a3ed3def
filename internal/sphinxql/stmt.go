package sphinxql

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchd/internal/domain/query"
)

// StmtKind is the statement type.
type StmtKind int

const (
	StmtParseError StmtKind = iota
	StmtDummy
	StmtSelect
	StmtInsert
	StmtReplace
	StmtDelete
	StmtUpdate
	StmtSet
	StmtFacet
	StmtSysFilters
	StmtShowMeta
	StmtShowWarnings
	StmtShowStatus
	StmtShowTables
	StmtShowThreads
	StmtShowVariables
	StmtShowProfile
	StmtShowPlan
	StmtShowDatabases
	StmtShowCreateTable
	StmtShowIndexStatus
	StmtDescribe
	StmtCall
	StmtBegin
	StmtCommit
	StmtRollback
	StmtOptimize
	StmtFlushRTIndex
	StmtFlushRAMChunk
	StmtTruncateRTIndex
	StmtAttachIndex
	StmtSelectSysvar
	StmtCreateTable
	StmtDropTable
	StmtAlterAdd
	StmtAlterDrop
	StmtImportTable
)

var stmtNames = []string{
	"parse_error", "dummy", "select", "insert", "replace", "delete", "update", "set",
	"facet", "sysfilters", "show_meta", "show_warnings", "show_status", "show_tables",
	"show_threads", "show_variables", "show_profile", "show_plan", "show_databases",
	"show_create_table", "show_index_status", "describe", "call", "begin", "commit",
	"rollback", "optimize_index", "flush_rtindex", "flush_ramchunk", "truncate_rtindex",
	"attach_index", "select_sysvar", "create_table", "drop_table", "alter_add",
	"alter_drop", "import_table",
}

func (k StmtKind) String() string {
	if k >= 0 && int(k) < len(stmtNames) {
		return stmtNames[k]
	}
	return fmt.Sprintf("stmt(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k StmtKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// SetKind is the target of a SET statement.
type SetKind int

const (
	SetLocal SetKind = iota
	SetGlobalUserVar
	SetGlobalServerVar
	SetIndexUserVar
)

var setNames = []string{"local", "global_uservar", "global_svar", "index_uservar"}

func (k SetKind) String() string {
	if k >= 0 && int(k) < len(setNames) {
		return setNames[k]
	}
	return fmt.Sprintf("set(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k SetKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ValueType tags an InsertValue.
type ValueType int

const (
	ValueInt ValueType = iota
	ValueFloat
	ValueString
	ValueMVA
	ValueStringList
	ValueNull
)

var valueNames = []string{"int", "float", "string", "mva", "string_list", "null"}

func (t ValueType) String() string {
	if t >= 0 && int(t) < len(valueNames) {
		return valueNames[t]
	}
	return fmt.Sprintf("value(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t ValueType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// InsertValue is a literal from VALUES, CALL arguments or SET.
type InsertValue struct {
	Type  ValueType `json:"type"`
	Int   int64     `json:"int,omitempty"`
	Float float32   `json:"float,omitempty"`
	Str   string    `json:"str,omitempty"`
	MVA   []int64   `json:"mva,omitempty"`
	Strs  []string  `json:"strs,omitempty"`
}

// AttrType is the storage type of an updated attribute.
type AttrType int

const (
	AttrInteger AttrType = iota
	AttrBigint
	AttrFloat
	AttrString
	AttrUint32Set
	AttrInt64Set
)

var attrNames = []string{"uint", "bigint", "float", "string", "multi", "multi64"}

func (t AttrType) String() string {
	if t >= 0 && int(t) < len(attrNames) {
		return attrNames[t]
	}
	return fmt.Sprintf("attr(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t AttrType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UpdateAttr is one SET col=value pair of UPDATE. An MVA attribute with no
// values deletes the stored list.
type UpdateAttr struct {
	Name  string   `json:"name"`
	Type  AttrType `json:"type"`
	Int   int64    `json:"int,omitempty"`
	Float float32  `json:"float,omitempty"`
	Str   string   `json:"str,omitempty"`
	MVA   []int64  `json:"mva,omitempty"`
}

// Update is the payload of UPDATE.
type Update struct {
	Attrs []UpdateAttr `json:"attrs"`
}

// ColumnDef is a column of CREATE TABLE or ALTER TABLE ADD.
type ColumnDef struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
}

// TableOption is a key='value' pair trailing CREATE TABLE.
type TableOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DDLStmt carries the payload of schema statements.
type DDLStmt struct {
	IfNotExists bool          `json:"if_not_exists,omitempty"`
	IfExists    bool          `json:"if_exists,omitempty"`
	Columns     []ColumnDef   `json:"columns,omitempty"`
	Options     []TableOption `json:"options,omitempty"`
	Like        string        `json:"like,omitempty"`
	Path        string        `json:"path,omitempty"`
}

// Stmt is one parsed statement.
type Stmt struct {
	Kind    StmtKind    `json:"kind"`
	Index   string      `json:"index,omitempty"`
	Cluster string      `json:"cluster,omitempty"`
	Query   query.Query `json:"query"`

	Update       Update        `json:"update"`
	InsertSchema []string      `json:"insert_schema,omitempty"`
	InsertValues []InsertValue `json:"insert_values,omitempty"`
	RowsAffected int           `json:"rows_affected,omitempty"`
	schemaSize   int

	SetKind   SetKind `json:"set_kind,omitempty"`
	SetName   string  `json:"set_name,omitempty"`
	SetValue  string  `json:"set_value,omitempty"`
	SetIValue int64   `json:"set_ivalue,omitempty"`
	SetValues []int64 `json:"set_values,omitempty"`

	TableFunc     string   `json:"table_func,omitempty"`
	TableFuncArgs []string `json:"table_func_args,omitempty"`

	CallProc     string        `json:"call_proc,omitempty"`
	CallArgs     []InsertValue `json:"call_args,omitempty"`
	CallOptNames []string      `json:"call_opt_names,omitempty"`
	CallOptions  []InsertValue `json:"call_options,omitempty"`

	ThreadsCols     int    `json:"threads_cols,omitempty"`
	ThreadFormat    string `json:"thread_format,omitempty"`
	StringParam     string `json:"string_param,omitempty"`
	Like            string `json:"like,omitempty"`
	WithReconfigure bool   `json:"with_reconfigure,omitempty"`
	WithTruncate    bool   `json:"with_truncate,omitempty"`

	DDL *DDLStmt `json:"ddl,omitempty"`
}

// NewStmt returns a statement with SQL defaults.
func NewStmt(agentQueryTimeout int, collation query.Collation) Stmt {
	q := query.New(agentQueryTimeout)
	q.Collation = collation
	return Stmt{Kind: StmtParseError, Query: q}
}

// AddSchemaItem appends an INSERT column, lowercased and without backticks.
func (s *Stmt) AddSchemaItem(name string) {
	name = strings.ToLower(name)
	if len(name) > 1 && name[0] == '`' && name[len(name)-1] == '`' {
		name = name[1 : len(name)-1]
	}
	s.InsertSchema = append(s.InsertSchema, name)
	s.schemaSize = len(s.InsertSchema)
}

// CheckInsertIntegrity is called after each VALUES row and reports whether
// the value count matches rows times schema width. Without an explicit
// column list the first row defines the width.
func (s *Stmt) CheckInsertIntegrity() bool {
	if s.schemaSize == 0 {
		s.schemaSize = len(s.InsertValues)
	}
	s.RowsAffected++
	return len(s.InsertValues) == s.RowsAffected*s.schemaSize
}

// SplitClusterIndex splits "cluster:index" on the first colon. A name
// without a colon has no cluster.
func SplitClusterIndex(name string) (cluster, index string) {
	if c, i, ok := strings.Cut(name, ":"); ok {
		return c, i
	}
	return "", name
}
