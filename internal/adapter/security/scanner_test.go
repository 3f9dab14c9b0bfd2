package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/core/domain"
)

func bodyInput(fields ...domain.Field) domain.Value {
	return domain.Object(
		domain.Field{Key: InputBody, Value: domain.Object(fields...)},
		domain.Field{Key: InputQuery, Value: domain.Object()},
		domain.Field{Key: InputParams, Value: domain.Array()},
	)
}

func TestDefaultRuleSet_Compiles(t *testing.T) {
	rs := DefaultRuleSet()
	require.NotNil(t, rs)
	assert.NotEmpty(t, rs.Version)
	assert.Equal(t, "builtin", rs.Source)

	counts := rs.Counts()
	assert.Positive(t, counts["sql"])
	assert.Positive(t, counts["xss"])
	assert.Positive(t, counts["probe_paths"])
	assert.Positive(t, counts["bot_agents"])
}

func TestThreatScanner_SQL(t *testing.T) {
	scanner := NewThreatScanner(nil)

	tests := []struct {
		name  string
		value string
	}{
		{"tautology", "1=1 OR a=a"},
		{"quote tautology with comment", "' OR 1=1--"},
		{"quoted string tautology", "admin' OR 'a'='a"},
		{"quote boolean into comment", "x' OR admin#"},
		{"union select", "1 UNION SELECT username, password FROM users"},
		{"stacked drop", "1; DROP TABLE users"},
		{"time based", "1 AND SLEEP(5)"},
		{"schema probe", "x' AND 1=(SELECT COUNT(*) FROM information_schema.tables)"},
		{"percent encoded", "%27%20OR%201%3D1--"},
		{"double encoded", "%2527%2520OR%25201%253D1--"},
		{"nul split", "' O\x00R 1=1--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := scanner.ScanSQL(bodyInput(domain.Field{Key: "q", Value: domain.String(tt.value)}))
			require.NotNil(t, d, "expected %q to be flagged", tt.value)
			assert.Equal(t, domain.ThreatSQLPattern, d.Kind)
			assert.Equal(t, "body.q", d.Location)
			assert.Equal(t, tt.value, d.Value, "detections carry the raw value")
			assert.NotEmpty(t, d.Rule)
			assert.Equal(t, scanner.Rules().Version, d.RuleSetVersion)
		})
	}
}

func TestThreatScanner_XSS(t *testing.T) {
	scanner := NewThreatScanner(nil)

	tests := []struct {
		name  string
		value string
		rule  string
	}{
		{"script tag", "<script>alert(1)</script>", "script_tag"},
		{"event handler", `<img src=x onerror=alert(1)>`, "event_handler"},
		{"javascript uri", "javascript:alert(document.domain)", "script_uri"},
		{"iframe", `<iframe src="//evil.example">`, "dangerous_tag"},
		{"entity encoded", "&lt;script&gt;alert(1)&lt;/script&gt;", "script_tag"},
		{"data uri", "data:text/html;base64,PHNjcmlwdD4=", "data_uri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := scanner.ScanXSS(bodyInput(domain.Field{Key: "comment", Value: domain.String(tt.value)}))
			require.NotNil(t, d)
			assert.Equal(t, domain.ThreatXSSPattern, d.Kind)
			assert.Equal(t, tt.rule, d.Rule)
		})
	}
}

func TestThreatScanner_CleanInputPasses(t *testing.T) {
	scanner := NewThreatScanner(nil)

	clean := []string{
		"hello world",
		"Terms apply; see our FAQ",
		"my favourite colour is red",
		"100% cotton",
		"O'Brien",
		"please select an option from the list",
		"https://example.com/profile?tab=links",
		"2 + 2 = 4",
		"Tom and Jerry like cheese",
		"I said 'no' and left",
		"rock and roll > jazz",
		"cats and dogs < horses",
		`she replied "yes" or maybe not`,
	}

	for _, value := range clean {
		v := bodyInput(domain.Field{Key: "text", Value: domain.String(value)})
		assert.Nil(t, scanner.ScanValue(v), "false positive on %q", value)
	}
}

func TestThreatScanner_OnlyStringLeavesAreScanned(t *testing.T) {
	scanner := NewThreatScanner(nil)

	v := domain.Object(domain.Field{Key: InputBody, Value: domain.Object(
		domain.Field{Key: "<script>", Value: domain.Number(1)},
		domain.Field{Key: "flag", Value: domain.Boolean(true)},
		domain.Field{Key: "none", Value: domain.Null()},
	)})
	assert.Nil(t, scanner.ScanValue(v))
}

func TestThreatScanner_FirstMatchInDocumentOrder(t *testing.T) {
	scanner := NewThreatScanner(nil)

	v := domain.Object(
		domain.Field{Key: InputBody, Value: domain.Object(
			domain.Field{Key: "name", Value: domain.String("ok")},
			domain.Field{Key: "tags", Value: domain.Array(
				domain.String("fine"),
				domain.String("' OR 1=1--"),
			)},
			domain.Field{Key: "later", Value: domain.String("1; DROP TABLE x")},
		)},
		domain.Field{Key: InputQuery, Value: domain.Object(
			domain.Field{Key: "q", Value: domain.String("' OR 2=2--")},
		)},
	)

	d := scanner.ScanSQL(v)
	require.NotNil(t, d)
	assert.Equal(t, "body.tags[1]", d.Location)
}

func TestThreatScanner_SQLRunsBeforeXSS(t *testing.T) {
	scanner := NewThreatScanner(nil)

	v := bodyInput(
		domain.Field{Key: "a", Value: domain.String("<script>x</script>")},
		domain.Field{Key: "b", Value: domain.String("1 UNION SELECT 1")},
	)
	d := scanner.ScanValue(v)
	require.NotNil(t, d)
	assert.Equal(t, domain.ThreatSQLPattern, d.Kind)
	assert.Equal(t, "body.b", d.Location)
}

func TestThreatScanner_Paths(t *testing.T) {
	scanner := NewThreatScanner(nil)

	flagged := []string{
		"/wp-admin/",
		"/wp-login.php",
		"/phpmyadmin",
		"/.env",
		"/.git/config",
		"/static/../../etc/passwd",
		"/files/%2e%2e/%2e%2e/etc/shadow",
		"/index.php",
		"/cgi-bin/test.cgi",
		"/backup.sql",
	}
	for _, path := range flagged {
		d := scanner.ScanPath(path)
		if assert.NotNil(t, d, "expected %q to be flagged", path) {
			assert.Equal(t, domain.ThreatSuspiciousPath, d.Kind)
			assert.Equal(t, "path", d.Location)
		}
	}

	clean := []string{"/", "/api/profile", "/links/abc123", "/users/me/settings", "/app.js"}
	for _, path := range clean {
		assert.Nil(t, scanner.ScanPath(path), "false positive on %q", path)
	}
}

func TestThreatScanner_UserAgents(t *testing.T) {
	scanner := NewThreatScanner(nil)

	d := scanner.ScanUserAgent("")
	require.NotNil(t, d)
	assert.Equal(t, domain.ThreatNoUserAgent, d.Kind)

	d = scanner.ScanUserAgent("   ")
	require.NotNil(t, d)
	assert.Equal(t, domain.ThreatNoUserAgent, d.Kind)

	d = scanner.ScanUserAgent("sqlmap/1.7.2#stable (https://sqlmap.org)")
	require.NotNil(t, d)
	assert.Equal(t, domain.ThreatBotActivity, d.Kind)
	assert.Equal(t, "bot_agent:sqlmap", d.Rule)

	assert.NotNil(t, scanner.ScanUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1)"))
	assert.Nil(t, scanner.ScanUserAgent("Mozilla/5.0 (X11; Linux x86_64) Firefox/130.0"))
	assert.Nil(t, scanner.ScanUserAgent("curl/8.5.0"))
}

func TestParseRuleSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing version", "sql: [{name: a, pattern: a}]\nxss: [{name: b, pattern: b}]", "version is required"},
		{"no xss", "version: v1\nsql: [{name: a, pattern: a}]", "at least one sql and one xss rule"},
		{"bad regexp", "version: v1\nsql: [{name: broken, pattern: '(unclosed'}]\nxss: [{name: b, pattern: b}]", `sql rule "broken"`},
		{"duplicate", "version: v1\nsql: [{name: a, pattern: a}, {name: a, pattern: b}]\nxss: [{name: b, pattern: b}]", "defined twice"},
		{"unnamed", "version: v1\nsql: [{pattern: a}]\nxss: [{name: b, pattern: b}]", "has no name"},
		{"not yaml", "version: [", "parse rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleSet([]byte(tt.yaml), "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestThreatScanner_KeywordPrefilter(t *testing.T) {
	rs, err := ParseRuleSet([]byte(`
version: kw-1
sql:
  - name: needs_keyword
    pattern: 'x+'
    keywords: [magic]
xss:
  - name: never
    pattern: 'zzzz'
`), "inline")
	require.NoError(t, err)

	scanner := NewThreatScanner(rs)
	assert.Nil(t, scanner.ScanSQL(bodyInput(domain.Field{Key: "a", Value: domain.String("xxx")})))

	d := scanner.ScanSQL(bodyInput(domain.Field{Key: "a", Value: domain.String("MAGIC xxx")}))
	require.NotNil(t, d)
	assert.Equal(t, "kw-1", d.RuleSetVersion)
}

func TestRulesWatcher_ReloadSwapsVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")

	write := func(content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	write("version: v1\nsql: [{name: a, pattern: aaa}]\nxss: [{name: b, pattern: bbb}]\n")

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	scanner := NewThreatScanner(rs)
	watcher := NewRulesWatcher(path, scanner, testLogger())

	write("version: v2\nsql: [{name: a, pattern: ccc}]\nxss: [{name: b, pattern: bbb}]\n")
	require.True(t, watcher.Reload())
	assert.Equal(t, "v2", scanner.Rules().Version)

	write("version: v3\nsql: [{name: a, pattern: '(('}]\nxss: [{name: b, pattern: bbb}]\n")
	assert.False(t, watcher.Reload())
	assert.Equal(t, "v2", scanner.Rules().Version, "a broken file keeps the active set")
}
