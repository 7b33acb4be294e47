package evaluator

import (
	"brew/internal/ast"
	"brew/internal/object"
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

var (
	NIL   = object.NIL
	TRUE  = object.TRUE
	FALSE = object.FALSE
)

// DefaultMaxCallDepth bounds interpreted recursion so a runaway program
// surfaces ResourceExhausted instead of overflowing the host stack.
const DefaultMaxCallDepth = 5000

// Evaluator walks the AST of a single run. It owns the environment stack and
// the input/output sinks; nothing here is shared between runs.
type Evaluator struct {
	Out io.Writer
	In  io.Reader

	envStack  []*object.Environment
	callDepth int
	maxDepth  int
	reader    *bufio.Reader
}

func New(out io.Writer, rootEnv *object.Environment, maxCallDepth int) *Evaluator {
	if maxCallDepth <= 0 {
		maxCallDepth = DefaultMaxCallDepth
	}
	e := &Evaluator{
		Out:      out,
		In:       os.Stdin,
		maxDepth: maxCallDepth,
	}
	// Builtins sit in a scope enclosing the program's globals so a program
	// can shadow them without tripping the redeclaration check.
	if rootEnv.Outer == nil {
		builtinScope := object.NewEnvironment()
		RegisterBuiltins(builtinScope)
		_, _ = builtinScope.Define("input", e.funcInput())
		rootEnv.Outer = builtinScope
	}
	e.envStack = []*object.Environment{rootEnv}
	return e
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	if len(e.envStack) == 0 {
		panic("environment stack is empty")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) == 0 {
		panic("attempted to pop from an empty environment stack")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

func (e *Evaluator) Eval(node ast.Node) object.Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return e.evalProgram(node)

	case *ast.BlockStatement:
		return e.evalBlockStatement(node)

	case *ast.ExpressionStatement:
		return e.Eval(node.Expression)

	case *ast.VarStatement:
		val := e.Eval(node.Value)
		if isError(val) {
			return val
		}
		if _, err := e.CurrentEnv().Define(node.Name.Value, val); err != nil {
			return newError(node.Token.Position, object.KindRedeclaredName, "%s", err.Error())
		}
		return NIL

	case *ast.FunctionStatement:
		fn := &object.Function{
			Parameters: node.Function.Parameters,
			Body:       node.Function.Body,
			Env:        e.CurrentEnv(),
		}
		if _, err := e.CurrentEnv().Define(node.Name.Value, fn); err != nil {
			return newError(node.Token.Position, object.KindRedeclaredName, "%s", err.Error())
		}
		return NIL

	case *ast.ReturnStatement:
		if node.ReturnValue == nil {
			return &object.ReturnValue{Value: NIL}
		}
		val := e.Eval(node.ReturnValue)
		if isError(val) {
			return val
		}
		return &object.ReturnValue{Value: val}

	case *ast.WhileStatement:
		return e.evalWhileStatement(node)

	case *ast.BreakStatement:
		return object.BREAK

	case *ast.ContinueStatement:
		return object.CONTINUE

	case *ast.PrintStatement:
		return e.evalPrintStatement(node)

	// Expressions
	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}

	case *ast.FloatLiteral:
		return &object.Float{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.Boolean:
		return nativeBoolToBooleanObject(node.Value)

	case *ast.Nil:
		return NIL

	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.PrefixExpression:
		right := e.Eval(node.Right)
		if isError(right) {
			return right
		}
		return e.evalPrefixExpression(node, right)

	case *ast.InfixExpression:
		// Logical operators short-circuit: the right operand is only
		// evaluated when the left one does not determine the result.
		if node.Operator == "&&" || node.Operator == "||" {
			return e.evalLogicalExpression(node)
		}

		left := e.Eval(node.Left)
		if isError(left) {
			return left
		}

		right := e.Eval(node.Right)
		if isError(right) {
			return right
		}

		return e.evalInfixExpression(node, left, right)

	case *ast.AssignExpression:
		val := e.Eval(node.Value)
		if isError(val) {
			return val
		}
		assigned, err := e.CurrentEnv().Assign(node.Name.Value, val)
		if err != nil {
			return newError(node.Name.Token.Position, object.KindUnboundName, "%s", err.Error())
		}
		return assigned

	case *ast.IfExpression:
		return e.evalIfExpression(node)

	case *ast.FunctionLiteral:
		return &object.Function{
			Parameters: node.Parameters,
			Body:       node.Body,
			Env:        e.CurrentEnv(),
		}

	case *ast.CallExpression:
		function := e.Eval(node.Function)
		if isError(function) {
			return function
		}

		args := make([]object.Object, 0, len(node.Arguments))
		for _, arg := range node.Arguments {
			evaluated := e.Eval(arg)
			if isError(evaluated) {
				return evaluated
			}
			args = append(args, evaluated)
		}

		return e.applyFunction(node, function, args)

	case *ast.ListLiteral:
		elements := e.evalExpressions(node.Elements)
		if len(elements) == 1 && isError(elements[0]) {
			return elements[0]
		}
		return &object.List{Elements: elements}

	case *ast.IndexExpression:
		left := e.Eval(node.Left)
		if isError(left) {
			return left
		}
		index := e.Eval(node.Index)
		if isError(index) {
			return index
		}
		return e.evalIndexExpression(node, left, index)
	}

	return nil
}

func (e *Evaluator) evalProgram(program *ast.Program) object.Object {
	var result object.Object = NIL

	for _, statement := range program.Statements {
		result = e.Eval(statement)

		switch result := result.(type) {
		case *object.ReturnValue:
			return result.Value
		case *object.Error:
			return result
		}
	}

	return result
}

func (e *Evaluator) evalBlockStatement(block *ast.BlockStatement) object.Object {
	blockEnv := object.NewEnclosedEnvironment(e.CurrentEnv())
	e.PushEnv(blockEnv)
	defer e.PopEnv()

	var result object.Object = NIL

	for _, statement := range block.Statements {
		result = e.Eval(statement)

		if result != nil {
			rt := result.Type()
			if rt == object.RETURN_VALUE_OBJ || rt == object.ERROR_OBJ ||
				rt == object.BREAK_OBJ || rt == object.CONTINUE_OBJ {
				return result
			}
		}
	}

	return result
}

func (e *Evaluator) evalWhileStatement(ws *ast.WhileStatement) object.Object {
	for {
		condition := e.Eval(ws.Condition)
		if isError(condition) {
			return condition
		}
		if !isTruthy(condition) {
			return NIL
		}

		// evalBlockStatement opens a fresh scope, so bindings introduced by
		// the body do not leak between iterations
		result := e.Eval(ws.Body)
		if result != nil {
			switch result.Type() {
			case object.BREAK_OBJ:
				return NIL
			case object.CONTINUE_OBJ:
				continue
			case object.RETURN_VALUE_OBJ, object.ERROR_OBJ:
				return result
			}
		}
	}
}

func (e *Evaluator) evalPrintStatement(ps *ast.PrintStatement) object.Object {
	parts := make([]string, 0, len(ps.Values))
	for _, expr := range ps.Values {
		val := e.Eval(expr)
		if isError(val) {
			return val
		}
		parts = append(parts, val.Inspect())
	}

	if _, err := fmt.Fprintln(e.Out, strings.Join(parts, " ")); err != nil {
		slog.Warn("write to output sink failed", slog.Any("err", err))
		return newError(ps.Token.Position, object.KindIOError, "print failed: %v", err)
	}
	return NIL
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier) object.Object {
	if val, ok := e.CurrentEnv().Get(node.Value); ok {
		return val
	}

	return newError(node.Token.Position, object.KindUnboundName,
		"identifier not found: %s", node.Value)
}

func (e *Evaluator) evalPrefixExpression(node *ast.PrefixExpression, right object.Object) object.Object {
	switch node.Operator {
	case "!":
		return nativeBoolToBooleanObject(!isTruthy(right))
	case "-":
		switch right := right.(type) {
		case *object.Integer:
			return &object.Integer{Value: -right.Value}
		case *object.Float:
			return &object.Float{Value: -right.Value}
		default:
			return newError(node.Token.Position, object.KindTypeMismatch,
				"unknown operator: -%s", right.Type())
		}
	default:
		return newError(node.Token.Position, object.KindTypeMismatch,
			"unknown operator: %s%s", node.Operator, right.Type())
	}
}

// evalLogicalExpression implements && and ||. Both always yield a boolean;
// operands are coerced through the language truthiness rule (false and nil
// are falsy, everything else truthy).
func (e *Evaluator) evalLogicalExpression(node *ast.InfixExpression) object.Object {
	left := e.Eval(node.Left)
	if isError(left) {
		return left
	}

	if node.Operator == "&&" && !isTruthy(left) {
		return FALSE
	}
	if node.Operator == "||" && isTruthy(left) {
		return TRUE
	}

	right := e.Eval(node.Right)
	if isError(right) {
		return right
	}
	return nativeBoolToBooleanObject(isTruthy(right))
}

func (e *Evaluator) evalInfixExpression(node *ast.InfixExpression, left, right object.Object) object.Object {
	operator := node.Operator

	switch {
	case left.Type() == object.INTEGER_OBJ && right.Type() == object.INTEGER_OBJ:
		return e.evalIntegerInfixExpression(node, left, right)
	case isNumeric(left) && isNumeric(right):
		return e.evalFloatInfixExpression(node, left, right)
	case left.Type() == object.STRING_OBJ && right.Type() == object.STRING_OBJ:
		return e.evalStringInfixExpression(node, left, right)
	case left.Type() == object.LIST_OBJ && right.Type() == object.LIST_OBJ:
		return e.evalListInfixExpression(node, left, right)
	case operator == "==":
		return nativeBoolToBooleanObject(objectsEqual(left, right))
	case operator == "!=":
		return nativeBoolToBooleanObject(!objectsEqual(left, right))
	case left.Type() != right.Type():
		return newError(node.Token.Position, object.KindTypeMismatch,
			"type mismatch: %s %s %s", left.Type(), operator, right.Type())
	default:
		return newError(node.Token.Position, object.KindTypeMismatch,
			"unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
}

func (e *Evaluator) evalIntegerInfixExpression(node *ast.InfixExpression, left, right object.Object) object.Object {
	operator := node.Operator
	leftVal := left.(*object.Integer).Value
	rightVal := right.(*object.Integer).Value

	switch operator {
	case "+":
		return &object.Integer{Value: leftVal + rightVal}
	case "-":
		return &object.Integer{Value: leftVal - rightVal}
	case "*":
		return &object.Integer{Value: leftVal * rightVal}
	case "/":
		if rightVal == 0 {
			return newError(node.Token.Position, object.KindDivisionByZero, "division by zero")
		}
		return &object.Integer{Value: leftVal / rightVal}
	case "%":
		if rightVal == 0 {
			return newError(node.Token.Position, object.KindDivisionByZero, "division by zero")
		}
		return &object.Integer{Value: leftVal % rightVal}
	case "<":
		return nativeBoolToBooleanObject(leftVal < rightVal)
	case "<=":
		return nativeBoolToBooleanObject(leftVal <= rightVal)
	case ">":
		return nativeBoolToBooleanObject(leftVal > rightVal)
	case ">=":
		return nativeBoolToBooleanObject(leftVal >= rightVal)
	case "==":
		return nativeBoolToBooleanObject(leftVal == rightVal)
	case "!=":
		return nativeBoolToBooleanObject(leftVal != rightVal)
	default:
		return newError(node.Token.Position, object.KindTypeMismatch,
			"unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
}

// evalFloatInfixExpression covers float/float and mixed int/float operands;
// integers promote to float.
func (e *Evaluator) evalFloatInfixExpression(node *ast.InfixExpression, left, right object.Object) object.Object {
	operator := node.Operator
	leftVal := toFloat(left)
	rightVal := toFloat(right)

	switch operator {
	case "+":
		return &object.Float{Value: leftVal + rightVal}
	case "-":
		return &object.Float{Value: leftVal - rightVal}
	case "*":
		return &object.Float{Value: leftVal * rightVal}
	case "/":
		if rightVal == 0 {
			return newError(node.Token.Position, object.KindDivisionByZero, "division by zero")
		}
		return &object.Float{Value: leftVal / rightVal}
	case "%":
		if rightVal == 0 {
			return newError(node.Token.Position, object.KindDivisionByZero, "division by zero")
		}
		return &object.Float{Value: math.Mod(leftVal, rightVal)}
	case "<":
		return nativeBoolToBooleanObject(leftVal < rightVal)
	case "<=":
		return nativeBoolToBooleanObject(leftVal <= rightVal)
	case ">":
		return nativeBoolToBooleanObject(leftVal > rightVal)
	case ">=":
		return nativeBoolToBooleanObject(leftVal >= rightVal)
	case "==":
		return nativeBoolToBooleanObject(leftVal == rightVal)
	case "!=":
		return nativeBoolToBooleanObject(leftVal != rightVal)
	default:
		return newError(node.Token.Position, object.KindTypeMismatch,
			"unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
}

func (e *Evaluator) evalStringInfixExpression(node *ast.InfixExpression, left, right object.Object) object.Object {
	operator := node.Operator
	leftVal := left.(*object.String).Value
	rightVal := right.(*object.String).Value

	switch operator {
	case "+":
		return &object.String{Value: leftVal + rightVal}
	case "<":
		return nativeBoolToBooleanObject(leftVal < rightVal)
	case "<=":
		return nativeBoolToBooleanObject(leftVal <= rightVal)
	case ">":
		return nativeBoolToBooleanObject(leftVal > rightVal)
	case ">=":
		return nativeBoolToBooleanObject(leftVal >= rightVal)
	case "==":
		return nativeBoolToBooleanObject(leftVal == rightVal)
	case "!=":
		return nativeBoolToBooleanObject(leftVal != rightVal)
	default:
		return newError(node.Token.Position, object.KindTypeMismatch,
			"unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
}

func (e *Evaluator) evalListInfixExpression(node *ast.InfixExpression, left, right object.Object) object.Object {
	operator := node.Operator
	leftVal := left.(*object.List)
	rightVal := right.(*object.List)

	switch operator {
	case "+":
		elements := make([]object.Object, 0, len(leftVal.Elements)+len(rightVal.Elements))
		elements = append(elements, leftVal.Elements...)
		elements = append(elements, rightVal.Elements...)
		return &object.List{Elements: elements}
	case "==":
		return nativeBoolToBooleanObject(objectsEqual(left, right))
	case "!=":
		return nativeBoolToBooleanObject(!objectsEqual(left, right))
	default:
		return newError(node.Token.Position, object.KindTypeMismatch,
			"unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
}

func (e *Evaluator) evalIfExpression(ie *ast.IfExpression) object.Object {
	condition := e.Eval(ie.Condition)
	if isError(condition) {
		return condition
	}

	if isTruthy(condition) {
		return e.Eval(ie.ThenBranch)
	} else if ie.ElseBranch != nil {
		return e.Eval(ie.ElseBranch)
	} else {
		return NIL
	}
}

func (e *Evaluator) evalExpressions(exps []ast.Expression) []object.Object {
	var result []object.Object

	for _, exp := range exps {
		evaluated := e.Eval(exp)
		if isError(evaluated) {
			return []object.Object{evaluated}
		}
		result = append(result, evaluated)
	}

	return result
}

func (e *Evaluator) applyFunction(call *ast.CallExpression, fnObj object.Object, args []object.Object) object.Object {
	switch fn := fnObj.(type) {
	case *object.Function:
		if len(args) != len(fn.Parameters) {
			return newError(call.Token.Position, object.KindArityMismatch,
				"wrong number of arguments: expected %d, got %d",
				len(fn.Parameters), len(args))
		}

		if e.callDepth >= e.maxDepth {
			return newError(call.Token.Position, object.KindResourceExhausted,
				"call depth limit of %d exceeded", e.maxDepth)
		}
		e.callDepth++
		defer func() { e.callDepth-- }()

		// The frame chains to the closure's captured environment, not the
		// caller's: lexical scoping.
		e.PushEnv(e.extendFunctionEnv(fn, args))
		result := e.Eval(fn.Body)
		e.PopEnv()

		if returnValue, ok := result.(*object.ReturnValue); ok {
			return returnValue.Value
		}
		return result

	case *object.Builtin:
		result := fn.Fn(args...)
		if err, ok := result.(*object.Error); ok && err.Position < 0 {
			err.Position = call.Token.Position
		}
		return result

	default:
		return newError(call.Token.Position, object.KindTypeMismatch,
			"not a function: %s", fnObj.Type())
	}
}

func (e *Evaluator) extendFunctionEnv(fn *object.Function, args []object.Object) *object.Environment {
	env := object.NewEnclosedEnvironment(fn.Env)

	for i, param := range fn.Parameters {
		// parameters shadow anything captured; Define cannot fail here
		// because the frame scope starts empty
		_, _ = env.Define(param.Value, args[i])
	}

	return env
}

func (e *Evaluator) evalIndexExpression(node *ast.IndexExpression, left, index object.Object) object.Object {
	switch {
	case left.Type() == object.LIST_OBJ && index.Type() == object.INTEGER_OBJ:
		return e.evalListIndexExpression(node, left, index)
	case left.Type() == object.STRING_OBJ && index.Type() == object.INTEGER_OBJ:
		return e.evalStringIndexExpression(node, left, index)
	default:
		return newError(node.Token.Position, object.KindTypeMismatch,
			"index operator not supported: %s[%s]", left.Type(), index.Type())
	}
}

func (e *Evaluator) evalListIndexExpression(node *ast.IndexExpression, list, index object.Object) object.Object {
	listObject := list.(*object.List)
	idx := index.(*object.Integer).Value
	max := int64(len(listObject.Elements) - 1)

	if idx < 0 {
		idx = max + idx + 1
	}

	if idx < 0 || idx > max {
		return newError(node.Token.Position, object.KindIndexError,
			"list index %s out of range for length %d",
			index.Inspect(), len(listObject.Elements))
	}

	return listObject.Elements[idx]
}

func (e *Evaluator) evalStringIndexExpression(node *ast.IndexExpression, str, index object.Object) object.Object {
	stringObject := str.(*object.String)
	runes := []rune(stringObject.Value)
	idx := index.(*object.Integer).Value
	max := int64(len(runes) - 1)

	if idx < 0 {
		idx = max + idx + 1
	}

	if idx < 0 || idx > max {
		return newError(node.Token.Position, object.KindIndexError,
			"string index %s out of range for length %d",
			index.Inspect(), len(runes))
	}

	return &object.String{Value: string(runes[idx])}
}

// isTruthy: false and nil are falsy, every other value is truthy. 0, "" and
// [] are all truthy; comparisons produce booleans where coercion matters.
func isTruthy(obj object.Object) bool {
	switch obj {
	case NIL:
		return false
	case FALSE:
		return false
	default:
		return true
	}
}

func nativeBoolToBooleanObject(input bool) *object.Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

func isNumeric(obj object.Object) bool {
	return obj.Type() == object.INTEGER_OBJ || obj.Type() == object.FLOAT_OBJ
}

func toFloat(obj object.Object) float64 {
	switch obj := obj.(type) {
	case *object.Integer:
		return float64(obj.Value)
	case *object.Float:
		return obj.Value
	}
	return 0
}

// objectsEqual is structural equality: value equality for primitives,
// element-wise for lists, identity is irrelevant.
func objectsEqual(a, b object.Object) bool {
	if isNumeric(a) && isNumeric(b) {
		if a.Type() == object.INTEGER_OBJ && b.Type() == object.INTEGER_OBJ {
			return a.(*object.Integer).Value == b.(*object.Integer).Value
		}
		return toFloat(a) == toFloat(b)
	}

	if a.Type() != b.Type() {
		return false
	}

	switch aVal := a.(type) {
	case *object.Boolean:
		return aVal.Value == b.(*object.Boolean).Value
	case *object.String:
		return aVal.Value == b.(*object.String).Value
	case *object.Nil:
		return true
	case *object.List:
		bList := b.(*object.List)
		if len(aVal.Elements) != len(bList.Elements) {
			return false
		}
		for i, elem := range aVal.Elements {
			if !objectsEqual(elem, bList.Elements[i]) {
				return false
			}
		}
		return true
	}

	return a == b
}

func newError(pos int, kind string, format string, a ...interface{}) *object.Error {
	return &object.Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, a...),
		Position: pos,
	}
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Type() == object.ERROR_OBJ
	}
	return false
}
