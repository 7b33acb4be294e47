package parser

import (
	"brew/internal/ast"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
)

// WalkAST recursively traverses an AST and serializes it into a map structure
// for JSON output. Used by the -debug-ast flag.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		statements := make([]interface{}, len(n.Statements))
		for i, s := range n.Statements {
			statements[i] = WalkAST(s)
		}
		return map[string]interface{}{
			"type":       "Program",
			"statements": statements,
		}

	case *ast.VarStatement:
		return map[string]interface{}{
			"type":     "VarStatement",
			"position": n.Token.Position,
			"name":     WalkAST(n.Name),
			"value":    WalkAST(n.Value),
		}

	case *ast.FunctionStatement:
		return map[string]interface{}{
			"type":     "FunctionStatement",
			"position": n.Token.Position,
			"name":     WalkAST(n.Name),
			"function": WalkAST(n.Function),
		}

	case *ast.ReturnStatement:
		return map[string]interface{}{
			"type":        "ReturnStatement",
			"position":    n.Token.Position,
			"returnValue": WalkAST(n.ReturnValue),
		}

	case *ast.ExpressionStatement:
		return map[string]interface{}{
			"type":       "ExpressionStatement",
			"position":   n.Token.Position,
			"expression": WalkAST(n.Expression),
		}

	case *ast.BlockStatement:
		statements := make([]interface{}, len(n.Statements))
		for i, s := range n.Statements {
			statements[i] = WalkAST(s)
		}
		return map[string]interface{}{
			"type":       "BlockStatement",
			"position":   n.Token.Position,
			"statements": statements,
		}

	case *ast.WhileStatement:
		return map[string]interface{}{
			"type":      "WhileStatement",
			"position":  n.Token.Position,
			"condition": WalkAST(n.Condition),
			"body":      WalkAST(n.Body),
		}

	case *ast.BreakStatement:
		return map[string]interface{}{
			"type":     "BreakStatement",
			"position": n.Token.Position,
		}

	case *ast.ContinueStatement:
		return map[string]interface{}{
			"type":     "ContinueStatement",
			"position": n.Token.Position,
		}

	case *ast.PrintStatement:
		values := make([]interface{}, len(n.Values))
		for i, v := range n.Values {
			values[i] = WalkAST(v)
		}
		return map[string]interface{}{
			"type":     "PrintStatement",
			"position": n.Token.Position,
			"values":   values,
		}

	case *ast.Identifier:
		return map[string]interface{}{
			"type":     "Identifier",
			"position": n.Token.Position,
			"value":    n.Value,
		}

	case *ast.Boolean:
		return map[string]interface{}{
			"type":     "Boolean",
			"position": n.Token.Position,
			"value":    n.Value,
		}

	case *ast.Nil:
		return map[string]interface{}{
			"type":     "Nil",
			"position": n.Token.Position,
		}

	case *ast.IntegerLiteral:
		return map[string]interface{}{
			"type":     "IntegerLiteral",
			"position": n.Token.Position,
			"value":    n.Value,
		}

	case *ast.FloatLiteral:
		return map[string]interface{}{
			"type":     "FloatLiteral",
			"position": n.Token.Position,
			"value":    n.Value,
		}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"type":     "StringLiteral",
			"position": n.Token.Position,
			"value":    n.Value,
		}

	case *ast.PrefixExpression:
		return map[string]interface{}{
			"type":     "PrefixExpression",
			"position": n.Token.Position,
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		}

	case *ast.InfixExpression:
		return map[string]interface{}{
			"type":     "InfixExpression",
			"position": n.Token.Position,
			"left":     WalkAST(n.Left),
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		}

	case *ast.AssignExpression:
		return map[string]interface{}{
			"type":     "AssignExpression",
			"position": n.Token.Position,
			"name":     WalkAST(n.Name),
			"value":    WalkAST(n.Value),
		}

	case *ast.IfExpression:
		return map[string]interface{}{
			"type":      "IfExpression",
			"position":  n.Token.Position,
			"condition": WalkAST(n.Condition),
			"then":      WalkAST(n.ThenBranch),
			"else":      WalkAST(n.ElseBranch),
		}

	case *ast.FunctionLiteral:
		parameters := make([]interface{}, len(n.Parameters))
		for i, param := range n.Parameters {
			parameters[i] = WalkAST(param)
		}
		return map[string]interface{}{
			"type":       "FunctionLiteral",
			"position":   n.Token.Position,
			"parameters": parameters,
			"body":       WalkAST(n.Body),
		}

	case *ast.CallExpression:
		args := make([]interface{}, len(n.Arguments))
		for i, arg := range n.Arguments {
			args[i] = WalkAST(arg)
		}
		return map[string]interface{}{
			"type":      "CallExpression",
			"position":  n.Token.Position,
			"function":  WalkAST(n.Function),
			"arguments": args,
		}

	case *ast.ListLiteral:
		elements := make([]interface{}, len(n.Elements))
		for i, el := range n.Elements {
			elements[i] = WalkAST(el)
		}
		return map[string]interface{}{
			"type":     "ListLiteral",
			"position": n.Token.Position,
			"elements": elements,
		}

	case *ast.IndexExpression:
		return map[string]interface{}{
			"type":     "IndexExpression",
			"position": n.Token.Position,
			"left":     WalkAST(n.Left),
			"index":    WalkAST(n.Index),
		}

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

// RenderASTAsJSON pretty-prints a tree for tooling and tests.
func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}

// WriteASTToJSON takes a root AST node and writes it to a JSON file.
func WriteASTToJSON(node ast.Node, filename string) error {
	astMap := WalkAST(node)

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return fmt.Errorf("failed to write JSON: %v", err)
	}
	return nil
}
