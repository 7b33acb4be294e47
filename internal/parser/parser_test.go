package parser

import (
	"testing"

	"brew/internal/ast"
	"brew/internal/lexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, input string) *ast.Program {
	t.Helper()

	l := lexer.New(input)
	p := New(l, input)
	program := p.ParseProgram()

	require.Empty(t, p.Errors(), "parser errors for input %q", input)
	require.NotNil(t, program)
	return program
}

func parseWithDiagnostics(input string) (*ast.Program, []Diagnostic) {
	l := lexer.New(input)
	p := New(l, input)
	program := p.ParseProgram()
	return program, p.Diagnostics()
}

func TestVarStatements(t *testing.T) {
	tests := []struct {
		input              string
		expectedIdentifier string
		expectedValue      interface{}
	}{
		{"var x = 5;", "x", int64(5)},
		{"var y = true;", "y", true},
		{"var foobar = y;", "foobar", "y"},
		{"var pi = 3.14;", "pi", 3.14},
		// leading zeros are plain decimal, never octal
		{"var a = 010;", "a", int64(10)},
		{"var b = 09;", "b", int64(9)},
	}

	for _, tt := range tests {
		program := parseSource(t, tt.input)
		require.Len(t, program.Statements, 1)

		stmt, ok := program.Statements[0].(*ast.VarStatement)
		require.True(t, ok, "statement is %T, not *ast.VarStatement", program.Statements[0])
		assert.Equal(t, tt.expectedIdentifier, stmt.Name.Value)
		testLiteralExpression(t, stmt.Value, tt.expectedValue)
	}
}

func TestReturnStatements(t *testing.T) {
	program := parseSource(t, "fn f() { return 5; return; }")
	require.Len(t, program.Statements, 1)

	fnStmt, ok := program.Statements[0].(*ast.FunctionStatement)
	require.True(t, ok)
	require.Len(t, fnStmt.Function.Body.Statements, 2)

	withValue, ok := fnStmt.Function.Body.Statements[0].(*ast.ReturnStatement)
	require.True(t, ok)
	testLiteralExpression(t, withValue.ReturnValue, int64(5))

	bare, ok := fnStmt.Function.Body.Statements[1].(*ast.ReturnStatement)
	require.True(t, ok)
	assert.Nil(t, bare.ReturnValue)
}

func TestFunctionStatement(t *testing.T) {
	program := parseSource(t, "fn add(x, y) { return x + y; }")
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.FunctionStatement)
	require.True(t, ok, "statement is %T, not *ast.FunctionStatement", program.Statements[0])
	assert.Equal(t, "add", stmt.Name.Value)
	require.Len(t, stmt.Function.Parameters, 2)
	assert.Equal(t, "x", stmt.Function.Parameters[0].Value)
	assert.Equal(t, "y", stmt.Function.Parameters[1].Value)
}

func TestFunctionLiteralExpression(t *testing.T) {
	program := parseSource(t, "var f = fn(a) { return a; };")
	require.Len(t, program.Statements, 1)

	stmt := program.Statements[0].(*ast.VarStatement)
	fl, ok := stmt.Value.(*ast.FunctionLiteral)
	require.True(t, ok, "value is %T, not *ast.FunctionLiteral", stmt.Value)
	require.Len(t, fl.Parameters, 1)
	assert.Equal(t, "a", fl.Parameters[0].Value)
}

func TestWhileStatement(t *testing.T) {
	program := parseSource(t, "while (x < 10) { x = x + 1; }")
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.WhileStatement)
	require.True(t, ok, "statement is %T, not *ast.WhileStatement", program.Statements[0])
	assert.Equal(t, "(x < 10)", stmt.Condition.String())
	require.Len(t, stmt.Body.Statements, 1)
}

func TestPrintStatement(t *testing.T) {
	program := parseSource(t, `print 1, "two", x;`)
	require.Len(t, program.Statements, 1)

	stmt, ok := program.Statements[0].(*ast.PrintStatement)
	require.True(t, ok, "statement is %T, not *ast.PrintStatement", program.Statements[0])
	require.Len(t, stmt.Values, 3)
	assert.Equal(t, `print 1, "two", x;`, stmt.String())
}

func TestBreakContinueInsideLoop(t *testing.T) {
	program := parseSource(t, "while (true) { break; continue; }")
	stmt := program.Statements[0].(*ast.WhileStatement)
	require.Len(t, stmt.Body.Statements, 2)

	_, ok := stmt.Body.Statements[0].(*ast.BreakStatement)
	assert.True(t, ok)
	_, ok = stmt.Body.Statements[1].(*ast.ContinueStatement)
	assert.True(t, ok)
}

func TestBreakContinueOutsideLoopIsError(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"break;", "'break' outside of a loop"},
		{"continue;", "'continue' outside of a loop"},
		{"if (true) { break; }", "'break' outside of a loop"},
		// a function body does not inherit the surrounding loop
		{"while (true) { var f = fn() { break; }; }", "'break' outside of a loop"},
	}

	for _, tt := range tests {
		_, diags := parseWithDiagnostics(tt.input)
		require.NotEmpty(t, diags, "input %q", tt.input)
		assert.Equal(t, KindSyntaxError, diags[0].Kind, "input %q", tt.input)
		assert.Equal(t, tt.expected, diags[0].Message, "input %q", tt.input)
	}
}

func TestNestedLoopsAllowBreak(t *testing.T) {
	parseSource(t, `
while (true) {
	while (true) {
		break;
	}
	continue;
}`)
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-a * b", "((-a) * b)"},
		{"!-a", "(!(-a))"},
		{"a + b + c", "((a + b) + c)"},
		{"a + b - c", "((a + b) - c)"},
		{"a * b * c", "((a * b) * c)"},
		{"a * b / c", "((a * b) / c)"},
		{"a + b / c", "(a + (b / c))"},
		{"a % b + c", "((a % b) + c)"},
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"a + b * c + d / e - f", "(((a + (b * c)) + (d / e)) - f)"},
		{"5 > 4 == 3 < 4", "((5 > 4) == (3 < 4))"},
		{"5 <= 4 != 3 >= 4", "((5 <= 4) != (3 >= 4))"},
		{"3 + 4 * 5 == 3 * 1 + 4 * 5", "((3 + (4 * 5)) == ((3 * 1) + (4 * 5)))"},
		{"true == true && false != true", "((true == true) && (false != true))"},
		{"a && b || c && d", "((a && b) || (c && d))"},
		{"a || b && c", "(a || (b && c))"},
		{"1 + 2 < 3 && 4 > 3", "(((1 + 2) < 3) && (4 > 3))"},
		{"1 + (2 + 3) + 4", "((1 + (2 + 3)) + 4)"},
		{"(5 + 5) * 2", "((5 + 5) * 2)"},
		{"2 / (5 + 5)", "(2 / (5 + 5))"},
		{"-(5 + 5)", "(-(5 + 5))"},
		{"!(true == true)", "(!(true == true))"},
		{"a + add(b * c) + d", "((a + add((b * c))) + d)"},
		{"add(a, b, 1, 2 * 3)", "add(a, b, 1, (2 * 3))"},
		{"a * [1, 2][1]", "(a * ([1, 2][1]))"},
		{"x = y = 1", "(x = (y = 1))"},
		{"x = 1 + 2", "(x = (1 + 2))"},
		{"x = 1 < 2 && 3 > 2", "(x = ((1 < 2) && (3 > 2)))"},
	}

	for _, tt := range tests {
		program := parseSource(t, tt.input)
		assert.Equal(t, tt.expected, program.String(), "input %q", tt.input)
	}
}

func TestParseIsDeterministic(t *testing.T) {
	input := `
var total = 0;
var i = 0;
while (i < 10) {
	if (i % 2 == 0) {
		total = total + i;
	}
	i = i + 1;
}
print total;`

	first := parseSource(t, input)
	second := parseSource(t, input)
	assert.Equal(t, first.String(), second.String())

	// structural identity, not just text round-trip
	firstJSON, err := RenderASTAsJSON(first)
	require.NoError(t, err)
	secondJSON, err := RenderASTAsJSON(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
	assert.Contains(t, firstJSON, `"WhileStatement"`)
}

func TestIfElseChain(t *testing.T) {
	program := parseSource(t, `
if (x < 0) {
	1;
} else if (x == 0) {
	2;
} else {
	3;
}`)
	require.Len(t, program.Statements, 1)

	exprStmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	ifExpr, ok := exprStmt.Expression.(*ast.IfExpression)
	require.True(t, ok)

	// the else-if nests as the single statement of the else branch
	require.NotNil(t, ifExpr.ElseBranch)
	require.Len(t, ifExpr.ElseBranch.Statements, 1)
	inner, ok := ifExpr.ElseBranch.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	nested, ok := inner.Expression.(*ast.IfExpression)
	require.True(t, ok)
	require.NotNil(t, nested.ElseBranch)
}

func TestIfWithoutElse(t *testing.T) {
	program := parseSource(t, "if (x) { 1; }")
	exprStmt := program.Statements[0].(*ast.ExpressionStatement)
	ifExpr := exprStmt.Expression.(*ast.IfExpression)
	assert.Nil(t, ifExpr.ElseBranch)
}

func TestListAndIndexExpressions(t *testing.T) {
	program := parseSource(t, "[1, 2 * 2, 3 + 3][1 + 1]")
	exprStmt := program.Statements[0].(*ast.ExpressionStatement)

	idx, ok := exprStmt.Expression.(*ast.IndexExpression)
	require.True(t, ok)

	list, ok := idx.Left.(*ast.ListLiteral)
	require.True(t, ok)
	require.Len(t, list.Elements, 3)
	assert.Equal(t, "(1 + 1)", idx.Index.String())
}

func TestSyntaxErrorDiagnostics(t *testing.T) {
	tests := []struct {
		input string
		kind  string
	}{
		{"var = 5;", KindSyntaxError},
		{"var x 5;", KindSyntaxError},
		{"if (x { 1; }", KindSyntaxError},
		{"{ 1;", KindSyntaxError},
		{`var s = "unterminated`, KindLexError},
		{"var a = 1 @ 2;", KindLexError},
		{"a & b;", KindLexError},
	}

	for _, tt := range tests {
		_, diags := parseWithDiagnostics(tt.input)
		require.NotEmpty(t, diags, "input %q", tt.input)
		assert.Equal(t, tt.kind, diags[0].Kind, "input %q", tt.input)
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	tests := []string{
		"1 + a = 2",
		"1 = 2",
		"a[0] = 1",
		"f() = 3",
		"-a = 1",
	}

	for _, input := range tests {
		_, diags := parseWithDiagnostics(input)
		require.NotEmpty(t, diags, "input %q", input)
		assert.Equal(t, KindSyntaxError, diags[0].Kind, "input %q", input)
		assert.Equal(t, "invalid assignment target", diags[0].Message, "input %q", input)
	}
}

func TestDiagnosticFormatting(t *testing.T) {
	input := "var x = 1;\nbreak;"
	_, diags := parseWithDiagnostics(input)
	require.Len(t, diags, 1)

	assert.Equal(t, "SyntaxError [2:1]: 'break' outside of a loop", diags[0].Format(input))
}

func TestUnterminatedStringDiagnostic(t *testing.T) {
	input := `var s = "oops`
	_, diags := parseWithDiagnostics(input)

	require.NotEmpty(t, diags)
	assert.Equal(t, KindLexError, diags[0].Kind)
	assert.Equal(t, "unterminated string literal", diags[0].Message)
	assert.Equal(t, 8, diags[0].Position)
}

func testLiteralExpression(t *testing.T, exp ast.Expression, expected interface{}) {
	t.Helper()

	switch v := expected.(type) {
	case int64:
		il, ok := exp.(*ast.IntegerLiteral)
		require.True(t, ok, "exp is %T, not *ast.IntegerLiteral", exp)
		assert.Equal(t, v, il.Value)
	case float64:
		fl, ok := exp.(*ast.FloatLiteral)
		require.True(t, ok, "exp is %T, not *ast.FloatLiteral", exp)
		assert.Equal(t, v, fl.Value)
	case string:
		ident, ok := exp.(*ast.Identifier)
		require.True(t, ok, "exp is %T, not *ast.Identifier", exp)
		assert.Equal(t, v, ident.Value)
	case bool:
		b, ok := exp.(*ast.Boolean)
		require.True(t, ok, "exp is %T, not *ast.Boolean", exp)
		assert.Equal(t, v, b.Value)
	default:
		t.Fatalf("type of exp not handled: %T", expected)
	}
}
