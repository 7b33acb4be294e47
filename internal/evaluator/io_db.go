package evaluator

import (
	"database/sql"
	"fmt"
	"log/slog"

	"brew/internal/object"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open database handles live in a package-level table keyed by a small
// integer handle, which is the value db_connect returns to the program.
// Handles are process-wide, matching the single-run execution model.
var (
	dbHandles    = map[int64]*sql.DB{}
	nextDBHandle int64 = 1
)

func supportedDriver(name string) bool {
	switch name {
	case "sqlite3", "mysql", "postgres":
		return true
	}
	return false
}

func lookupDB(arg object.Object) (*sql.DB, int64, *object.Error) {
	handle, ok := arg.(*object.Integer)
	if !ok {
		return nil, 0, builtinError(object.KindTypeMismatch,
			"database handle must be INTEGER, got %s", arg.Type())
	}
	db, ok := dbHandles[handle.Value]
	if !ok {
		return nil, 0, builtinError(object.KindIOError,
			"no open database for handle %d", handle.Value)
	}
	return db, handle.Value, nil
}

// funcDbConnect: db_connect(driver, dsn) -> handle
func funcDbConnect() *object.Builtin {
	return &object.Builtin{
		Name: "db_connect",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return wrongArity("db_connect", 2, len(args))
			}

			driver, ok := args[0].(*object.String)
			if !ok {
				return builtinError(object.KindTypeMismatch,
					"first argument to db_connect must be STRING, got %s", args[0].Type())
			}
			dsn, ok := args[1].(*object.String)
			if !ok {
				return builtinError(object.KindTypeMismatch,
					"second argument to db_connect must be STRING, got %s", args[1].Type())
			}
			if !supportedDriver(driver.Value) {
				return builtinError(object.KindIOError,
					"unsupported database driver %q (expected sqlite3, mysql or postgres)",
					driver.Value)
			}

			db, err := sql.Open(driver.Value, dsn.Value)
			if err != nil {
				return builtinError(object.KindIOError, "db_connect failed: %v", err)
			}
			if err := db.Ping(); err != nil {
				db.Close()
				return builtinError(object.KindIOError, "db_connect failed: %v", err)
			}

			handle := nextDBHandle
			nextDBHandle++
			dbHandles[handle] = db

			slog.Debug("database opened",
				slog.String("driver", driver.Value),
				slog.Int64("handle", handle))

			return &object.Integer{Value: handle}
		},
	}
}

// funcDbQuery: db_query(handle, sql, binds...) -> list of row lists
func funcDbQuery() *object.Builtin {
	return &object.Builtin{
		Name: "db_query",
		Fn: func(args ...object.Object) object.Object {
			if len(args) < 2 {
				return builtinError(object.KindArityMismatch,
					"wrong number of arguments to db_query: expected at least 2, got %d", len(args))
			}

			db, handle, errObj := lookupDB(args[0])
			if errObj != nil {
				return errObj
			}
			query, ok := args[1].(*object.String)
			if !ok {
				return builtinError(object.KindTypeMismatch,
					"second argument to db_query must be STRING, got %s", args[1].Type())
			}
			binds, errObj := objectsToSQLValues(args[2:])
			if errObj != nil {
				return errObj
			}

			rows, err := db.Query(query.Value, binds...)
			if err != nil {
				return builtinError(object.KindIOError, "db_query failed: %v", err)
			}
			defer rows.Close()

			columns, err := rows.Columns()
			if err != nil {
				return builtinError(object.KindIOError, "db_query failed: %v", err)
			}

			result := &object.List{}
			for rows.Next() {
				values := make([]interface{}, len(columns))
				scanArgs := make([]interface{}, len(columns))
				for i := range values {
					scanArgs[i] = &values[i]
				}
				if err := rows.Scan(scanArgs...); err != nil {
					return builtinError(object.KindIOError, "db_query failed: %v", err)
				}

				row := &object.List{Elements: make([]object.Object, len(columns))}
				for i, v := range values {
					row.Elements[i] = sqlValueToObject(v)
				}
				result.Elements = append(result.Elements, row)
			}
			if err := rows.Err(); err != nil {
				return builtinError(object.KindIOError, "db_query failed: %v", err)
			}

			slog.Debug("database query",
				slog.Int64("handle", handle),
				slog.Int("rows", len(result.Elements)))

			return result
		},
	}
}

// funcDbExec: db_exec(handle, sql, binds...) -> affected row count
func funcDbExec() *object.Builtin {
	return &object.Builtin{
		Name: "db_exec",
		Fn: func(args ...object.Object) object.Object {
			if len(args) < 2 {
				return builtinError(object.KindArityMismatch,
					"wrong number of arguments to db_exec: expected at least 2, got %d", len(args))
			}

			db, _, errObj := lookupDB(args[0])
			if errObj != nil {
				return errObj
			}
			stmt, ok := args[1].(*object.String)
			if !ok {
				return builtinError(object.KindTypeMismatch,
					"second argument to db_exec must be STRING, got %s", args[1].Type())
			}
			binds, errObj := objectsToSQLValues(args[2:])
			if errObj != nil {
				return errObj
			}

			result, err := db.Exec(stmt.Value, binds...)
			if err != nil {
				return builtinError(object.KindIOError, "db_exec failed: %v", err)
			}

			affected, err := result.RowsAffected()
			if err != nil {
				// some drivers cannot report the count; the statement still ran
				affected = 0
			}
			return &object.Integer{Value: affected}
		},
	}
}

// funcDbClose: db_close(handle) -> nil
func funcDbClose() *object.Builtin {
	return &object.Builtin{
		Name: "db_close",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("db_close", 1, len(args))
			}

			db, handle, errObj := lookupDB(args[0])
			if errObj != nil {
				return errObj
			}

			delete(dbHandles, handle)
			if err := db.Close(); err != nil {
				return builtinError(object.KindIOError, "db_close failed: %v", err)
			}

			slog.Debug("database closed", slog.Int64("handle", handle))
			return NIL
		},
	}
}

// objectsToSQLValues converts bind parameters to driver values. Only scalar
// kinds can be bound.
func objectsToSQLValues(args []object.Object) ([]interface{}, *object.Error) {
	if len(args) == 0 {
		return nil, nil
	}
	binds := make([]interface{}, len(args))
	for i, arg := range args {
		switch arg := arg.(type) {
		case *object.Integer:
			binds[i] = arg.Value
		case *object.Float:
			binds[i] = arg.Value
		case *object.String:
			binds[i] = arg.Value
		case *object.Boolean:
			binds[i] = arg.Value
		case *object.Nil:
			binds[i] = nil
		default:
			return nil, builtinError(object.KindTypeMismatch,
				"cannot bind %s as a query parameter", arg.Type())
		}
	}
	return binds, nil
}

func sqlValueToObject(v interface{}) object.Object {
	switch v := v.(type) {
	case nil:
		return NIL
	case int64:
		return &object.Integer{Value: v}
	case float64:
		return &object.Float{Value: v}
	case bool:
		if v {
			return TRUE
		}
		return FALSE
	case []byte:
		return &object.String{Value: string(v)}
	case string:
		return &object.String{Value: v}
	default:
		return &object.String{Value: fmt.Sprintf("%v", v)}
	}
}
