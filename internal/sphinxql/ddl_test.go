package sphinxql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchd/internal/sphinxql"
)

func TestIsDDL(t *testing.T) {
	assert.True(t, sphinxql.IsDDL("create table t (a int)"))
	assert.True(t, sphinxql.IsDDL("  /* x */ DROP TABLE t"))
	assert.True(t, sphinxql.IsDDL("ALTER TABLE t ADD COLUMN a int"))
	assert.True(t, sphinxql.IsDDL("IMPORT TABLE t FROM '/tmp/t'"))
	assert.False(t, sphinxql.IsDDL("SELECT * FROM t"))
	assert.False(t, sphinxql.IsDDL("`create` table"))
	assert.False(t, sphinxql.IsDDL(""))
}

func TestDDL_CreateTable(t *testing.T) {
	st := parseOne(t, "CREATE TABLE IF NOT EXISTS cl:products (Title text indexed stored, price float, tags multi) min_infix_len='2' rt_mem_limit=256")

	assert.Equal(t, sphinxql.StmtCreateTable, st.Kind)
	assert.Equal(t, "cl", st.Cluster)
	assert.Equal(t, "products", st.Index)
	require.NotNil(t, st.DDL)
	assert.True(t, st.DDL.IfNotExists)
	assert.Equal(t, []sphinxql.ColumnDef{
		{Name: "title", Type: "text", Options: []string{"indexed", "stored"}},
		{Name: "price", Type: "float"},
		{Name: "tags", Type: "multi"},
	}, st.DDL.Columns)
	assert.Equal(t, []sphinxql.TableOption{
		{Name: "min_infix_len", Value: "2"},
		{Name: "rt_mem_limit", Value: "256"},
	}, st.DDL.Options)
}

func TestDDL_CreateTableLike(t *testing.T) {
	st := parseOne(t, "CREATE TABLE copy LIKE orig")
	assert.Equal(t, "copy", st.Index)
	assert.Equal(t, "orig", st.DDL.Like)
	assert.False(t, st.DDL.IfNotExists)
}

func TestDDL_Other(t *testing.T) {
	st := parseOne(t, "DROP TABLE IF EXISTS t;")
	assert.Equal(t, sphinxql.StmtDropTable, st.Kind)
	assert.True(t, st.DDL.IfExists)

	st = parseOne(t, "ALTER TABLE t ADD COLUMN Gid bigint")
	assert.Equal(t, sphinxql.StmtAlterAdd, st.Kind)
	assert.Equal(t, []sphinxql.ColumnDef{{Name: "gid", Type: "bigint"}}, st.DDL.Columns)

	st = parseOne(t, "ALTER TABLE t DROP COLUMN gid")
	assert.Equal(t, sphinxql.StmtAlterDrop, st.Kind)
	assert.Equal(t, "gid", st.DDL.Columns[0].Name)

	st = parseOne(t, "IMPORT TABLE t FROM '/var/lib/t'")
	assert.Equal(t, sphinxql.StmtImportTable, st.Kind)
	assert.Equal(t, "/var/lib/t", st.DDL.Path)
}

func TestDDL_Errors(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"CREATE INDEX t", "sphinxql: syntax error, unexpected INDEX, expecting TABLE near 'INDEX t'"},
		{"ALTER TABLE t RENAME x", "expecting ADD or DROP"},
		{"DROP TABLE t; DROP TABLE u", "unexpected DROP"},
		{"CREATE TABLE t (a int) opt=(1)", "expecting QUOTED_STRING"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := sphinxql.Parse(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

type recordingDDL struct{ got string }

func (r *recordingDDL) ParseDDL(text string) ([]sphinxql.Stmt, error) {
	r.got = text
	return []sphinxql.Stmt{{Kind: sphinxql.StmtCreateTable}}, nil
}

func TestDDL_CustomParser(t *testing.T) {
	ddl := &recordingDDL{}
	p := sphinxql.New(sphinxql.Options{DDL: ddl})

	stmts, err := p.Parse("create table x")
	require.NoError(t, err)
	assert.Equal(t, "create table x", ddl.got)
	require.Len(t, stmts, 1)
	assert.Equal(t, sphinxql.StmtCreateTable, stmts[0].Kind)
}
