package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		obj      Object
		expected string
	}{
		{&Integer{Value: 42}, "42"},
		{&Integer{Value: -7}, "-7"},
		{&Float{Value: 3.14}, "3.14"},
		{&Float{Value: 2}, "2"},
		{&Boolean{Value: true}, "true"},
		{&Boolean{Value: false}, "false"},
		{&String{Value: "hello"}, "hello"},
		{&Nil{}, "nil"},
		{&List{Elements: []Object{
			&Integer{Value: 1},
			&String{Value: "two"},
			&List{Elements: []Object{&Integer{Value: 3}}},
		}}, "[1, two, [3]]"},
		{&Error{Kind: KindDivisionByZero, Message: "division by zero"},
			"DivisionByZero: division by zero"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.obj.Inspect())
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		obj      Object
		expected ObjectType
	}{
		{&Integer{}, INTEGER_OBJ},
		{&Float{}, FLOAT_OBJ},
		{&Boolean{}, BOOLEAN_OBJ},
		{&String{}, STRING_OBJ},
		{&Nil{}, NIL_OBJ},
		{&List{}, LIST_OBJ},
		{&ReturnValue{Value: NIL}, RETURN_VALUE_OBJ},
		{BREAK, BREAK_OBJ},
		{CONTINUE, CONTINUE_OBJ},
		{&Error{}, ERROR_OBJ},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.obj.Type())
	}
}
