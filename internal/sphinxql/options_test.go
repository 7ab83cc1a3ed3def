package sphinxql_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchd/internal/domain/query"
	"github.com/kailas-cloud/searchd/internal/sphinxql"
)

func optionQuery(t *testing.T, opts string) query.Query {
	t.Helper()
	return parseOne(t, "SELECT * FROM idx OPTION "+opts).Query
}

func TestOptions_Values(t *testing.T) {
	q := optionQuery(t, "max_matches=20, cutoff=100, max_query_time=500, retry_count=2, retry_delay=50, "+
		"agent_query_timeout=1500, reverse_scan=1, strict=1, sync=1, global_idf=1, local_df=1, "+
		"ignore_nonexistent_columns=1, ignore_nonexistent_indexes=1, max_predicted_time=99999999999, "+
		"rand_seed=4294967297, comment='hello world', sort_method=kbuffer, boolean_simplify=1, "+
		"idf='plain,tfidf_unnormalized', low_priority, debug_no_payload")

	assert.Equal(t, 20, q.MaxMatches)
	assert.Equal(t, 100, q.Cutoff)
	assert.Equal(t, 500, q.MaxQueryMsec)
	assert.Equal(t, 2, q.RetryCount)
	assert.Equal(t, 50, q.RetryDelay)
	assert.Equal(t, 1500, q.AgentQueryTimeout)
	assert.True(t, q.ReverseScan)
	assert.True(t, q.Strict)
	assert.True(t, q.Sync)
	assert.True(t, q.GlobalIDF)
	assert.True(t, q.LocalDF)
	assert.True(t, q.IgnoreNonexistent)
	assert.True(t, q.IgnoreNonexistentIndexes)
	assert.Equal(t, 2147483647, q.MaxPredictedMsec)
	assert.Equal(t, int64(1), q.RandSeed)
	assert.Equal(t, "hello world", q.Comment)
	assert.True(t, q.SortKbuffer)
	assert.True(t, q.Simplify)
	assert.True(t, q.PlainIDF)
	assert.False(t, q.NormalizedTFIDF)
	assert.True(t, q.LowPriority)
	assert.Equal(t, query.DebugNoPayload, q.DebugFlags)
}

func TestOptions_ExpandKeywords(t *testing.T) {
	assert.Equal(t, query.ExpandEnabled, optionQuery(t, "expand_keywords=1").ExpandKeywords)
	assert.Equal(t, query.ExpandDisabled, optionQuery(t, "expand_keywords=0").ExpandKeywords)
	assert.Equal(t, query.ExpandMorphNone, optionQuery(t, "morphology=none").ExpandKeywords)
}

func TestOptions_NamedLists(t *testing.T) {
	q := optionQuery(t, "field_weights=(Title=10, body=3), index_weights=(idx=2)")
	assert.Equal(t, []query.NamedInt{{Name: "title", Value: 10}, {Name: "body", Value: 3}}, q.FieldWeights)
	assert.Equal(t, []query.NamedInt{{Name: "idx", Value: 2}}, q.IndexWeights)
}

func TestOptions_Rankers(t *testing.T) {
	assert.Equal(t, query.RankBM25, optionQuery(t, "ranker=bm25").Ranker)
	assert.Equal(t, query.RankSPH04, optionQuery(t, "ranker=SPH04").Ranker)

	q := optionQuery(t, "ranker=expr('sum(lcs*user_weight)*1000+bm25')")
	assert.Equal(t, query.RankExpr, q.Ranker)
	assert.Equal(t, "sum(lcs*user_weight)*1000+bm25", q.RankerExpr)

	q = optionQuery(t, "ranker=export('1')")
	assert.Equal(t, query.RankExport, q.Ranker)

	p := sphinxql.New(sphinxql.Options{
		Plugins: sphinxql.NewStaticPlugins().Add(sphinxql.PluginRanker, "MyRank"),
	})
	stmts, err := p.Parse("SELECT * FROM idx OPTION ranker=myrank")
	require.NoError(t, err)
	assert.Equal(t, query.RankPlugin, stmts[0].Query.Ranker)
	assert.Equal(t, "myrank", stmts[0].Query.UDRanker)

	stmts, err = p.Parse("SELECT * FROM idx OPTION ranker=myrank('k=v')")
	require.NoError(t, err)
	assert.Equal(t, "k=v", stmts[0].Query.UDRankerOpts)
}

func TestOptions_TokenFilter(t *testing.T) {
	q := optionQuery(t, "token_filter='lib.so:split:opt=1'")
	assert.Equal(t, "lib.so", q.TokenFilterLib)
	assert.Equal(t, "split", q.TokenFilterName)
	assert.Equal(t, "opt=1", q.TokenFilterOpts)

	q = optionQuery(t, "token_filter='lib.so:split'")
	assert.Equal(t, "", q.TokenFilterOpts)
}

func TestOptions_Threads(t *testing.T) {
	st := parseOne(t, "SHOW THREADS OPTION columns=50, format=all")
	assert.Equal(t, sphinxql.StmtShowThreads, st.Kind)
	assert.Equal(t, 50, st.ThreadsCols)
	assert.Equal(t, "all", st.ThreadFormat)
}

func TestOptions_Errors(t *testing.T) {
	tests := []struct {
		opts string
		want string
	}{
		{"max_matches=abc", "max_matches value should be a number: 'abc'"},
		{"ranker=nosuch", "unknown ranker 'nosuch'"},
		{"ranker=expr", "missing ranker expression (use OPTION ranker=expr('1+2') for example)"},
		{"ranker=bm25('x')", "unknown option or extra argument to 'ranker=bm25'"},
		{"sort_method=heap", "unknown sort_method=heap (known values are pq, kbuffer)"},
		{"idf='plain,fancy'", "unknown flag fancy in idf=plain,fancy (known values are plain, normalized, tfidf_normalized, tfidf_unnormalized)"},
		{"morphology=stem_en", "morphology could be only disabled with option none, got stem_en"},
		{"token_filter='lib.so'", "filter name required in spec string"},
		{"token_filter='a:b:c:d'", "too many parts in spec string"},
		{"no_such=1", "unknown option 'no_such' (or bad argument type)"},
		{"no_such", "unknown option 'no_such'"},
		{"other_list=(a=1)", "unknown option 'other_list' (or bad argument type)"},
	}
	for _, tt := range tests {
		t.Run(tt.opts, func(t *testing.T) {
			_, err := sphinxql.Parse("SELECT * FROM idx OPTION " + tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.Is(err, sphinxql.ErrSemantic))
		})
	}
}

func TestOptions_InsertOnlyKnowsTokenFilterOptions(t *testing.T) {
	st := parseOne(t, "INSERT INTO idx (id) VALUES (1) OPTION token_filter_options='x=1'")
	assert.Equal(t, "x=1", st.StringParam)

	_, err := sphinxql.Parse("INSERT INTO idx (id) VALUES (1) OPTION max_matches=1")
	require.Error(t, err)
	assert.Equal(t, "unknown option 'max_matches' (or bad argument type)", err.Error())
}
