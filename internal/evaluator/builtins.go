package evaluator

import (
	"brew/internal/object"
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// builtins are bound into the root environment before execution starts, so a
// program can shadow them like any other name.
func RegisterBuiltins(env *object.Environment) {
	all := []*object.Builtin{
		funcLen(),
		funcType(),
		funcStr(),
		funcInt(),
		funcFloat(),
		funcAppend(),
		funcFirst(),
		funcRest(),
		funcDbConnect(),
		funcDbQuery(),
		funcDbExec(),
		funcDbClose(),
	}
	for _, b := range all {
		_, _ = env.Define(b.Name, b)
	}
}

func builtinError(kind string, format string, a ...interface{}) *object.Error {
	// Position -1 is a placeholder; the call site stamps the real offset.
	return &object.Error{Kind: kind, Message: fmt.Sprintf(format, a...), Position: -1}
}

func wrongArity(name string, want, got int) *object.Error {
	return builtinError(object.KindArityMismatch,
		"wrong number of arguments to %s: expected %d, got %d", name, want, got)
}

// funcInput is registered per evaluator instead of in RegisterBuiltins: it
// reads from the run's input sink and writes its prompt to the output sink.
// Returns the line without the trailing newline, or nil at end of input.
func (e *Evaluator) funcInput() *object.Builtin {
	return &object.Builtin{
		Name: "input",
		Fn: func(args ...object.Object) object.Object {
			if len(args) > 1 {
				return builtinError(object.KindArityMismatch,
					"wrong number of arguments to input: expected at most 1, got %d", len(args))
			}
			if len(args) == 1 {
				prompt, ok := args[0].(*object.String)
				if !ok {
					return builtinError(object.KindTypeMismatch,
						"argument to input must be STRING, got %s", args[0].Type())
				}
				fmt.Fprint(e.Out, prompt.Value)
			}

			if e.reader == nil {
				e.reader = bufio.NewReader(e.In)
			}
			line, err := e.reader.ReadString('\n')
			if err != nil && line == "" {
				if err == io.EOF {
					return NIL
				}
				return builtinError(object.KindIOError, "input failed: %v", err)
			}
			return &object.String{Value: strings.TrimRight(line, "\r\n")}
		},
	}
}

func funcLen() *object.Builtin {
	return &object.Builtin{
		Name: "len",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("len", 1, len(args))
			}

			switch arg := args[0].(type) {
			case *object.String:
				return &object.Integer{Value: int64(len([]rune(arg.Value)))}
			case *object.List:
				return &object.Integer{Value: int64(len(arg.Elements))}
			default:
				return builtinError(object.KindTypeMismatch,
					"argument to len not supported, got %s", args[0].Type())
			}
		},
	}
}

func funcType() *object.Builtin {
	return &object.Builtin{
		Name: "type",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("type", 1, len(args))
			}
			return &object.String{Value: strings.ToLower(string(args[0].Type()))}
		},
	}
}

func funcStr() *object.Builtin {
	return &object.Builtin{
		Name: "str",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("str", 1, len(args))
			}
			return &object.String{Value: args[0].Inspect()}
		},
	}
}

func funcInt() *object.Builtin {
	return &object.Builtin{
		Name: "int",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("int", 1, len(args))
			}

			switch arg := args[0].(type) {
			case *object.Integer:
				return arg
			case *object.Float:
				return &object.Integer{Value: int64(arg.Value)}
			case *object.Boolean:
				if arg.Value {
					return &object.Integer{Value: 1}
				}
				return &object.Integer{Value: 0}
			case *object.String:
				n, err := strconv.ParseInt(strings.TrimSpace(arg.Value), 10, 64)
				if err != nil {
					return builtinError(object.KindTypeMismatch,
						"cannot convert %q to integer", arg.Value)
				}
				return &object.Integer{Value: n}
			default:
				return builtinError(object.KindTypeMismatch,
					"argument to int not supported, got %s", args[0].Type())
			}
		},
	}
}

func funcFloat() *object.Builtin {
	return &object.Builtin{
		Name: "float",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("float", 1, len(args))
			}

			switch arg := args[0].(type) {
			case *object.Float:
				return arg
			case *object.Integer:
				return &object.Float{Value: float64(arg.Value)}
			case *object.String:
				f, err := strconv.ParseFloat(strings.TrimSpace(arg.Value), 64)
				if err != nil {
					return builtinError(object.KindTypeMismatch,
						"cannot convert %q to float", arg.Value)
				}
				return &object.Float{Value: f}
			default:
				return builtinError(object.KindTypeMismatch,
					"argument to float not supported, got %s", args[0].Type())
			}
		},
	}
}

func funcAppend() *object.Builtin {
	return &object.Builtin{
		Name: "append",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 2 {
				return wrongArity("append", 2, len(args))
			}

			list, ok := args[0].(*object.List)
			if !ok {
				return builtinError(object.KindTypeMismatch,
					"first argument to append must be LIST, got %s", args[0].Type())
			}

			// append is non-destructive; the source list is unchanged
			elements := make([]object.Object, 0, len(list.Elements)+1)
			elements = append(elements, list.Elements...)
			elements = append(elements, args[1])
			return &object.List{Elements: elements}
		},
	}
}

func funcFirst() *object.Builtin {
	return &object.Builtin{
		Name: "first",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("first", 1, len(args))
			}

			list, ok := args[0].(*object.List)
			if !ok {
				return builtinError(object.KindTypeMismatch,
					"argument to first must be LIST, got %s", args[0].Type())
			}
			if len(list.Elements) == 0 {
				return NIL
			}
			return list.Elements[0]
		},
	}
}

func funcRest() *object.Builtin {
	return &object.Builtin{
		Name: "rest",
		Fn: func(args ...object.Object) object.Object {
			if len(args) != 1 {
				return wrongArity("rest", 1, len(args))
			}

			list, ok := args[0].(*object.List)
			if !ok {
				return builtinError(object.KindTypeMismatch,
					"argument to rest must be LIST, got %s", args[0].Type())
			}
			if len(list.Elements) == 0 {
				return NIL
			}

			elements := make([]object.Object, len(list.Elements)-1)
			copy(elements, list.Elements[1:])
			return &object.List{Elements: elements}
		},
	}
}
