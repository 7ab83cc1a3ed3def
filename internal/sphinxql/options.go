package sphinxql

import (
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/searchd/internal/domain/query"
)

// parseOptionClause reads an optional OPTION list. Insert statements only
// know token_filter_options.
func (s *parseState) parseOptionClause(insert bool) {
	if !s.acceptKW("OPTION") {
		return
	}
	for {
		s.parseOption(insert)
		if !s.acceptPunct(",") {
			return
		}
	}
}

func (s *parseState) parseOption(insert bool) {
	name := s.expectIdent().text
	if !s.acceptPunct("=") {
		s.addFlagOption(name)
		return
	}

	v := s.peek()
	switch v.kind {
	case tokPunct:
		if !v.isPunct("(") {
			break
		}
		s.next()
		s.allocNamedVec()
		for {
			key := s.expectIdent().text
			s.expectPunct("=")
			s.addNamedConst(key, s.parseNumber().i)
			if !s.acceptPunct(",") {
				break
			}
		}
		s.expectPunct(")")
		s.addNamedOption(name, s.freeNamedVec())
		return

	case tokIdent, tokInt, tokString:
		s.next()
		if v.kind == tokIdent && s.acceptPunct("(") {
			arg := s.expectString()
			s.expectPunct(")")
			s.addOptionArg(name, v, arg)
			return
		}
		if insert {
			s.addInsertOption(name, v)
			return
		}
		s.addOption(name, v)
		return
	}
	s.unexpected()
}

// unquote strips one pair of matching quotes.
func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '\'' || v[0] == '"') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

func isDigits(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

func (s *parseState) addFlagOption(name string) {
	switch opt := strings.ToLower(name); opt {
	case "low_priority":
		s.query().LowPriority = true
	case "debug_no_payload":
		s.query().DebugFlags |= query.DebugNoPayload
	default:
		s.failf("unknown option '%s'", opt)
	}
}

// optionInt validates a numeric option value and returns it.
func (s *parseState) optionInt(opt, val string, v token) uint64 {
	if !isDigits(val) {
		s.failf("%s value should be a number: '%s'", opt, val)
	}
	if v.kind == tokInt {
		return v.ival
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return math.MaxUint64
	}
	return n
}

func (s *parseState) addOption(name string, v token) {
	opt := strings.ToLower(name)
	val := unquote(strings.ToLower(v.text))
	st := s.stmt()
	q := &st.Query

	switch opt {
	case "ranker":
		if r, ok := query.LookupBuiltinRanker(val); ok {
			q.Ranker = r
			return
		}
		if val == "expr" || val == "export" {
			s.failf("missing ranker expression (use OPTION ranker=expr('1+2') for example)")
		}
		if s.pluginExists(PluginRanker, val) {
			q.Ranker = query.RankPlugin
			q.UDRanker = val
			return
		}
		s.failf("unknown ranker '%s'", val)

	case "token_filter":
		parts, err := parsePluginSpec(val)
		if err != nil {
			s.fail(semantic(err.Error()))
		}
		if len(parts) == 0 {
			s.failf("missing token filter spec string")
		}
		q.TokenFilterLib, q.TokenFilterName, q.TokenFilterOpts = parts[0], parts[1], parts[2]

	case "max_matches":
		q.MaxMatches = int(s.optionInt(opt, val, v))
	case "cutoff":
		q.Cutoff = int(s.optionInt(opt, val, v))
	case "max_query_time":
		q.MaxQueryMsec = int(s.optionInt(opt, val, v))
	case "retry_count":
		q.RetryCount = int(s.optionInt(opt, val, v))
	case "retry_delay":
		q.RetryDelay = int(s.optionInt(opt, val, v))
	case "reverse_scan":
		q.ReverseScan = s.optionInt(opt, val, v) != 0
	case "ignore_nonexistent_columns":
		q.IgnoreNonexistent = s.optionInt(opt, val, v) != 0
	case "agent_query_timeout":
		q.AgentQueryTimeout = int(s.optionInt(opt, val, v))
	case "max_predicted_time":
		q.MaxPredictedMsec = int(min(s.optionInt(opt, val, v), math.MaxInt32))
	case "global_idf":
		q.GlobalIDF = s.optionInt(opt, val, v) != 0
	case "local_df":
		q.LocalDF = s.optionInt(opt, val, v) != 0
	case "ignore_nonexistent_indexes":
		q.IgnoreNonexistentIndexes = s.optionInt(opt, val, v) != 0
	case "strict":
		q.Strict = s.optionInt(opt, val, v) != 0
	case "sync":
		q.Sync = s.optionInt(opt, val, v) != 0
	case "columns":
		st.ThreadsCols = max(int(int64(s.optionInt(opt, val, v))), 0)
	case "rand_seed":
		q.RandSeed = int64(uint32(s.optionInt(opt, val, v)))
	case "expand_keywords":
		if s.optionInt(opt, val, v) != 0 {
			q.ExpandKeywords = query.ExpandEnabled
		} else {
			q.ExpandKeywords = query.ExpandDisabled
		}

	case "comment":
		if v.kind == tokString {
			q.Comment = v.str
		} else {
			q.Comment = v.text
		}

	case "sort_method":
		switch val {
		case "pq":
			q.SortKbuffer = false
		case "kbuffer":
			q.SortKbuffer = true
		default:
			s.failf("unknown sort_method=%s (known values are pq, kbuffer)", val)
		}

	case "boolean_simplify":
		q.Simplify = true

	case "idf":
		for _, flag := range strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		}) {
			switch flag {
			case "normalized":
				q.PlainIDF = false
			case "plain":
				q.PlainIDF = true
			case "tfidf_normalized":
				q.NormalizedTFIDF = true
			case "tfidf_unnormalized":
				q.NormalizedTFIDF = false
			default:
				s.failf("unknown flag %s in idf=%s (known values are plain, normalized, tfidf_normalized, tfidf_unnormalized)", flag, val)
			}
		}

	case "format":
		st.ThreadFormat = val

	case "morphology":
		if val != "none" {
			s.failf("morphology could be only disabled with option none, got %s", val)
		}
		q.ExpandKeywords = query.ExpandMorphNone

	default:
		s.failf("unknown option '%s' (or bad argument type)", opt)
	}
}

// addOptionArg handles name=value('arg'): expression rankers and plugin
// rankers with options.
func (s *parseState) addOptionArg(name string, v, arg token) {
	opt := strings.ToLower(name)
	val := strings.ToLower(v.text)
	q := s.query()

	if opt == "ranker" {
		switch {
		case val == "expr":
			q.Ranker = query.RankExpr
			q.RankerExpr = arg.str
			return
		case val == "export":
			q.Ranker = query.RankExport
			q.RankerExpr = arg.str
			return
		case s.pluginExists(PluginRanker, val):
			q.Ranker = query.RankPlugin
			q.UDRanker = val
			q.UDRankerOpts = arg.str
			return
		}
	}
	s.failf("unknown option or extra argument to '%s=%s'", opt, val)
}

func (s *parseState) addNamedOption(name string, vals []query.NamedInt) {
	q := s.query()
	switch opt := strings.ToLower(name); opt {
	case "field_weights":
		q.FieldWeights = vals
	case "index_weights":
		q.IndexWeights = vals
	default:
		s.failf("unknown option '%s' (or bad argument type)", opt)
	}
}

func (s *parseState) addInsertOption(name string, v token) {
	switch opt := strings.ToLower(name); opt {
	case "token_filter_options":
		s.stmt().StringParam = unquote(v.text)
	default:
		s.failf("unknown option '%s' (or bad argument type)", opt)
	}
}

func (s *parseState) pluginExists(kind PluginKind, name string) bool {
	return s.opts.Plugins != nil && s.opts.Plugins.Exists(kind, name)
}
