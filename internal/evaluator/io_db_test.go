package evaluator

import (
	"testing"

	"brew/internal/object"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseRoundTrip(t *testing.T) {
	input := `
var db = db_connect("sqlite3", ":memory:");
db_exec(db, "CREATE TABLE fruit (id INTEGER, name TEXT, weight REAL)");
db_exec(db, "INSERT INTO fruit VALUES (1, 'apple', 0.3)");
db_exec(db, "INSERT INTO fruit VALUES (2, 'banana', 0.12)");
var rows = db_query(db, "SELECT id, name FROM fruit ORDER BY id");
print len(rows);
print rows[0][0], rows[0][1];
print rows[1][0], rows[1][1];
db_close(db);`

	result, out := testEval(t, input)
	if errObj, ok := result.(*object.Error); ok {
		t.Fatalf("program raised %s", errObj.Inspect())
	}
	assert.Equal(t, "2\n1 apple\n2 banana\n", out)
}

func TestDbBindParameters(t *testing.T) {
	input := `
var db = db_connect("sqlite3", ":memory:");
db_exec(db, "CREATE TABLE t (n INTEGER, s TEXT)");
db_exec(db, "INSERT INTO t VALUES (?, ?)", 7, "seven");
var rows = db_query(db, "SELECT s FROM t WHERE n = ?", 7);
db_close(db);
rows[0][0]`

	result, _ := testEval(t, input)
	str, ok := result.(*object.String)
	require.True(t, ok, "got %T (%v)", result, result)
	assert.Equal(t, "seven", str.Value)
}

func TestDbBindRejectsCompositeValues(t *testing.T) {
	input := `
var db = db_connect("sqlite3", ":memory:");
db_query(db, "SELECT ?", [1, 2])`
	result, _ := testEval(t, input)
	testErrorObject(t, result, object.KindTypeMismatch)
}

func TestDbExecReportsAffectedRows(t *testing.T) {
	input := `
var db = db_connect("sqlite3", ":memory:");
db_exec(db, "CREATE TABLE t (n INTEGER)");
db_exec(db, "INSERT INTO t VALUES (1)");
db_exec(db, "INSERT INTO t VALUES (2)");
var affected = db_exec(db, "UPDATE t SET n = 0");
db_close(db);
affected`

	result, _ := testEval(t, input)
	testIntegerObject(t, result, 2)
}

func TestDbQueryNullsBecomeNil(t *testing.T) {
	input := `
var db = db_connect("sqlite3", ":memory:");
db_exec(db, "CREATE TABLE t (n INTEGER)");
db_exec(db, "INSERT INTO t VALUES (NULL)");
var rows = db_query(db, "SELECT n FROM t");
db_close(db);
rows[0][0] == nil`

	result, _ := testEval(t, input)
	testBooleanObject(t, result, true)
}

func TestDbConnectUnsupportedDriver(t *testing.T) {
	result, _ := testEval(t, `db_connect("oracle", "whatever")`)
	errObj := testErrorObject(t, result, object.KindIOError)
	assert.Contains(t, errObj.Message, "unsupported database driver")
}

func TestDbHandleErrors(t *testing.T) {
	result, _ := testEval(t, `db_query(999, "SELECT 1")`)
	testErrorObject(t, result, object.KindIOError)

	result, _ = testEval(t, `db_query("nope", "SELECT 1")`)
	testErrorObject(t, result, object.KindTypeMismatch)

	// a closed handle is gone
	input := `
var db = db_connect("sqlite3", ":memory:");
db_close(db);
db_query(db, "SELECT 1")`
	result, _ = testEval(t, input)
	testErrorObject(t, result, object.KindIOError)
}

func TestDbBuiltinArity(t *testing.T) {
	result, _ := testEval(t, `db_connect("sqlite3")`)
	errObj := testErrorObject(t, result, object.KindArityMismatch)
	require.Contains(t, errObj.Message, "db_connect")
}
