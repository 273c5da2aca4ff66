// Copyright 2026 The luascript Authors
// SPDX-License-Identifier: MIT

package luaast

import (
	"github.com/lumendb/luascript/internal/lualex"
	"github.com/lumendb/luascript/lerr"
)

// Parse tokenizes and parses src, returning the chunk's AST or the
// first error encountered. Per spec.md §4.2, the parser halts at the
// first error rather than attempting recovery.
func Parse(src []byte, chunkName string) (*Chunk, *lerr.Error) {
	p := &parser{lx: lualex.New(src, chunkName), chunk: chunkName}
	if err := p.next(); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != lualex.TokenEOF {
		return nil, p.errorf("'<eof>' expected near %s", p.describe())
	}
	return &Chunk{Body: body}, nil
}

type parser struct {
	lx    *lualex.Lexer
	chunk string
	tok   lualex.Token
}

func (p *parser) next() *lerr.Error {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) pos() Position { return p.tok.Position }

func (p *parser) describe() string {
	switch p.tok.Kind {
	case lualex.TokenName, lualex.TokenNumber, lualex.TokenString:
		return p.tok.Value
	default:
		return p.tok.Kind.String()
	}
}

func (p *parser) errorf(format string, args ...any) *lerr.Error {
	return lerr.New(lerr.KindParse, lerr.Position{Source: p.chunk, Line: p.tok.Position.Line, Column: p.tok.Position.Column}, format, args...)
}

func (p *parser) expect(kind lualex.TokenKind) (lualex.Token, *lerr.Error) {
	if p.tok.Kind != kind {
		return lualex.Token{}, p.errorf("'%s' expected near '%s'", kind, p.describe())
	}
	tok := p.tok
	if err := p.next(); err != nil {
		return lualex.Token{}, err
	}
	return tok, nil
}

func (p *parser) accept(kind lualex.TokenKind) (bool, *lerr.Error) {
	if p.tok.Kind != kind {
		return false, nil
	}
	if err := p.next(); err != nil {
		return false, err
	}
	return true, nil
}

// blockFollow reports whether the current token ends a block.
func (p *parser) blockFollow() bool {
	switch p.tok.Kind {
	case lualex.TokenEOF, lualex.TokenEnd, lualex.TokenElse, lualex.TokenElseif, lualex.TokenUntil:
		return true
	default:
		return false
	}
}

func (p *parser) block() ([]Statement, *lerr.Error) {
	var stmts []Statement
	for !p.blockFollow() {
		if p.tok.Kind == lualex.TokenReturn {
			stmt, err := p.returnStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

func (p *parser) statement() (Statement, *lerr.Error) {
	pos := p.pos()
	switch p.tok.Kind {
	case lualex.TokenSemi:
		return nil, p.next()
	case lualex.TokenIf:
		return p.ifStatement()
	case lualex.TokenWhile:
		return p.whileStatement()
	case lualex.TokenDo:
		if err := p.next(); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lualex.TokenEnd); err != nil {
			return nil, err
		}
		return &DoStatement{base: base{pos}, Body: body}, nil
	case lualex.TokenFor:
		return p.forStatement()
	case lualex.TokenRepeat:
		return p.repeatStatement()
	case lualex.TokenFunction:
		return p.functionStatement()
	case lualex.TokenLocal:
		return p.localStatement()
	case lualex.TokenDoubleColon:
		return p.labelStatement()
	case lualex.TokenBreak:
		if err := p.next(); err != nil {
			return nil, err
		}
		return &BreakStatement{base{pos}}, nil
	case lualex.TokenGoto:
		if err := p.next(); err != nil {
			return nil, err
		}
		name, err := p.expect(lualex.TokenName)
		if err != nil {
			return nil, err
		}
		return &GotoStatement{base: base{pos}, Label: name.Value}, nil
	default:
		return p.exprStatement()
	}
}

func (p *parser) labelStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.expect(lualex.TokenName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenDoubleColon); err != nil {
		return nil, err
	}
	return &LabelStatement{base: base{pos}, Name: name.Value}, nil
}

func (p *parser) returnStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	var values []Expression
	if !p.blockFollow() && p.tok.Kind != lualex.TokenSemi {
		var err *lerr.Error
		values, err = p.expressionList()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.accept(lualex.TokenSemi); err != nil {
		return nil, err
	}
	return &ReturnStatement{base: base{pos}, Values: values}, nil
}

func (p *parser) ifStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	stmt := &IfStatement{base: base{pos}}
	for {
		if err := p.next(); err != nil { // consume 'if' or 'elseif'
			return nil, err
		}
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lualex.TokenThen); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		stmt.Clauses = append(stmt.Clauses, IfClause{Condition: cond, Body: body})
		if p.tok.Kind != lualex.TokenElseif {
			break
		}
	}
	if p.tok.Kind == lualex.TokenElse {
		if err := p.next(); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		stmt.Else = body
	}
	if _, err := p.expect(lualex.TokenEnd); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) whileStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenDo); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenEnd); err != nil {
		return nil, err
	}
	return &WhileStatement{base: base{pos}, Condition: cond, Body: body}, nil
}

func (p *parser) repeatStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenUntil); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &RepeatStatement{base: base{pos}, Body: body, Condition: cond}, nil
}

func (p *parser) forStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	first, err := p.expect(lualex.TokenName)
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == lualex.TokenAssign {
		return p.numericFor(pos, first.Value)
	}
	names := []string{first.Value}
	for p.tok.Kind == lualex.TokenComma {
		if err := p.next(); err != nil {
			return nil, err
		}
		name, err := p.expect(lualex.TokenName)
		if err != nil {
			return nil, err
		}
		names = append(names, name.Value)
	}
	if _, err := p.expect(lualex.TokenIn); err != nil {
		return nil, err
	}
	exprs, err := p.expressionList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenDo); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenEnd); err != nil {
		return nil, err
	}
	return &GenericForStatement{base: base{pos}, Names: names, Expressions: exprs, Body: body}, nil
}

func (p *parser) numericFor(pos Position, variable string) (Statement, *lerr.Error) {
	if err := p.next(); err != nil { // consume '='
		return nil, err
	}
	start, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenComma); err != nil {
		return nil, err
	}
	limit, err := p.expression()
	if err != nil {
		return nil, err
	}
	var step Expression
	if p.tok.Kind == lualex.TokenComma {
		if err := p.next(); err != nil {
			return nil, err
		}
		step, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lualex.TokenDo); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lualex.TokenEnd); err != nil {
		return nil, err
	}
	return &NumericForStatement{base: base{pos}, Variable: variable, Start: start, Limit: limit, Step: step, Body: body}, nil
}

func (p *parser) functionStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.expect(lualex.TokenName)
	if err != nil {
		return nil, err
	}
	target := []string{name.Value}
	for p.tok.Kind == lualex.TokenDot {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.expect(lualex.TokenName)
		if err != nil {
			return nil, err
		}
		target = append(target, n.Value)
	}
	method := ""
	if p.tok.Kind == lualex.TokenColon {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.expect(lualex.TokenName)
		if err != nil {
			return nil, err
		}
		method = n.Value
	}
	fn, err := p.functionBody(pos, method != "")
	if err != nil {
		return nil, err
	}
	return &FunctionStatement{base: base{pos}, Target: target, Method: method, Function: fn}, nil
}

func (p *parser) localStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.Kind == lualex.TokenFunction {
		if err := p.next(); err != nil {
			return nil, err
		}
		name, err := p.expect(lualex.TokenName)
		if err != nil {
			return nil, err
		}
		fn, err := p.functionBody(pos, false)
		if err != nil {
			return nil, err
		}
		return &FunctionStatement{base: base{pos}, Target: []string{name.Value}, Function: fn, IsLocal: true}, nil
	}
	var names []string
	for {
		name, err := p.expect(lualex.TokenName)
		if err != nil {
			return nil, err
		}
		names = append(names, name.Value)
		if p.tok.Kind == lualex.TokenLt {
			// Lua 5.4 <const>/<close> attribute syntax; accepted and
			// ignored since this runtime targets 5.1 semantics.
			if err := p.next(); err != nil {
				return nil, err
			}
			if _, err := p.expect(lualex.TokenName); err != nil {
				return nil, err
			}
			if _, err := p.expect(lualex.TokenGt); err != nil {
				return nil, err
			}
		}
		more, err := p.accept(lualex.TokenComma)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	var values []Expression
	if ok, err := p.accept(lualex.TokenAssign); err != nil {
		return nil, err
	} else if ok {
		values, err = p.expressionList()
		if err != nil {
			return nil, err
		}
	}
	return &LocalStatement{base: base{pos}, Names: names, Values: values}, nil
}

func (p *parser) exprStatement() (Statement, *lerr.Error) {
	pos := p.pos()
	first, err := p.suffixedExpression()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != lualex.TokenAssign && p.tok.Kind != lualex.TokenComma {
		call, ok := first.(*CallExpression)
		if !ok {
			return nil, p.errorf("syntax error near '%s'", p.describe())
		}
		return &CallStatement{base: base{pos}, Call: call}, nil
	}
	targets := []Expression{first}
	for p.tok.Kind == lualex.TokenComma {
		if err := p.next(); err != nil {
			return nil, err
		}
		target, err := p.suffixedExpression()
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	if _, err := p.expect(lualex.TokenAssign); err != nil {
		return nil, err
	}
	values, err := p.expressionList()
	if err != nil {
		return nil, err
	}
	for _, target := range targets {
		switch target.(type) {
		case *Name, *IndexExpression:
		default:
			return nil, p.errorf("cannot assign to this expression")
		}
	}
	return &AssignStatement{base: base{pos}, Targets: targets, Values: values}, nil
}

func (p *parser) expressionList() ([]Expression, *lerr.Error) {
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	exprs := []Expression{first}
	for p.tok.Kind == lualex.TokenComma {
		if err := p.next(); err != nil {
			return nil, err
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// ---- Expressions: precedence climbing per spec.md §4.2 table ----

type precedence struct {
	left, right int
}

var binaryPrecedence = map[lualex.TokenKind]precedence{
	lualex.TokenOr:      {1, 1},
	lualex.TokenAnd:     {2, 2},
	lualex.TokenLt:      {3, 3},
	lualex.TokenGt:      {3, 3},
	lualex.TokenLe:      {3, 3},
	lualex.TokenGe:      {3, 3},
	lualex.TokenEq:      {3, 3},
	lualex.TokenNe:      {3, 3},
	lualex.TokenConcat:  {4, 3}, // right-associative: right < left
	lualex.TokenPlus:    {5, 5},
	lualex.TokenMinus:   {5, 5},
	lualex.TokenStar:    {6, 6},
	lualex.TokenSlash:   {6, 6},
	lualex.TokenPercent: {6, 6},
	lualex.TokenCaret:   {8, 7}, // right-associative
}

const unaryPrecedence = 7

var binaryOps = map[lualex.TokenKind]BinaryOperator{
	lualex.TokenOr:      BinaryOr,
	lualex.TokenAnd:     BinaryAnd,
	lualex.TokenLt:      BinaryLt,
	lualex.TokenGt:      BinaryGt,
	lualex.TokenLe:      BinaryLe,
	lualex.TokenGe:      BinaryGe,
	lualex.TokenEq:      BinaryEq,
	lualex.TokenNe:      BinaryNe,
	lualex.TokenConcat:  BinaryConcat,
	lualex.TokenPlus:    BinaryAdd,
	lualex.TokenMinus:   BinarySub,
	lualex.TokenStar:    BinaryMul,
	lualex.TokenSlash:   BinaryDiv,
	lualex.TokenPercent: BinaryMod,
	lualex.TokenCaret:   BinaryPow,
}

func (p *parser) expression() (Expression, *lerr.Error) {
	return p.subExpression(0)
}

func (p *parser) subExpression(limit int) (Expression, *lerr.Error) {
	var left Expression
	var err *lerr.Error
	pos := p.pos()
	switch p.tok.Kind {
	case lualex.TokenNot:
		if err = p.next(); err != nil {
			return nil, err
		}
		operand, err := p.subExpression(unaryPrecedence)
		if err != nil {
			return nil, err
		}
		left = &UnaryExpression{base: base{pos}, Operator: UnaryNot, Operand: operand}
	case lualex.TokenHash:
		if err = p.next(); err != nil {
			return nil, err
		}
		operand, err := p.subExpression(unaryPrecedence)
		if err != nil {
			return nil, err
		}
		left = &UnaryExpression{base: base{pos}, Operator: UnaryLength, Operand: operand}
	case lualex.TokenMinus:
		if err = p.next(); err != nil {
			return nil, err
		}
		operand, err := p.subExpression(unaryPrecedence)
		if err != nil {
			return nil, err
		}
		left = &UnaryExpression{base: base{pos}, Operator: UnaryMinus, Operand: operand}
	default:
		left, err = p.simpleExpression()
		if err != nil {
			return nil, err
		}
	}
	for {
		prec, ok := binaryPrecedence[p.tok.Kind]
		if !ok || prec.left <= limit {
			break
		}
		op := binaryOps[p.tok.Kind]
		opPos := p.pos()
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.subExpression(prec.right)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{base: base{opPos}, Operator: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) simpleExpression() (Expression, *lerr.Error) {
	pos := p.pos()
	switch p.tok.Kind {
	case lualex.TokenNumber:
		text := p.tok.Value
		if err := p.next(); err != nil {
			return nil, err
		}
		return &NumberLiteral{base: base{pos}, Text: text}, nil
	case lualex.TokenString:
		value := p.tok.Value
		if err := p.next(); err != nil {
			return nil, err
		}
		return &StringLiteral{base: base{pos}, Value: value}, nil
	case lualex.TokenNil:
		return &NilLiteral{base{pos}}, p.next()
	case lualex.TokenTrue:
		return &TrueLiteral{base{pos}}, p.next()
	case lualex.TokenFalse:
		return &FalseLiteral{base{pos}}, p.next()
	case lualex.TokenEllipsis:
		return &VarargExpression{base{pos}}, p.next()
	case lualex.TokenFunction:
		if err := p.next(); err != nil {
			return nil, err
		}
		return p.functionBody(pos, false)
	case lualex.TokenLBrace:
		return p.tableConstructor()
	default:
		return p.suffixedExpression()
	}
}

func (p *parser) primaryExpression() (Expression, *lerr.Error) {
	pos := p.pos()
	switch p.tok.Kind {
	case lualex.TokenName:
		name := p.tok.Value
		if err := p.next(); err != nil {
			return nil, err
		}
		return &Name{base: base{pos}, Value: name}, nil
	case lualex.TokenLParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lualex.TokenRParen); err != nil {
			return nil, err
		}
		return &ParenExpression{base: base{pos}, Inner: inner}, nil
	default:
		return nil, p.errorf("unexpected symbol near '%s'", p.describe())
	}
}

// suffixedExpression parses a primary expression followed by any
// sequence of ".name", "[expr]", ":method(args)", or "(args)" suffixes.
func (p *parser) suffixedExpression() (Expression, *lerr.Error) {
	expr, err := p.primaryExpression()
	if err != nil {
		return nil, err
	}
	for {
		pos := p.pos()
		switch p.tok.Kind {
		case lualex.TokenDot:
			if err := p.next(); err != nil {
				return nil, err
			}
			name, err := p.expect(lualex.TokenName)
			if err != nil {
				return nil, err
			}
			expr = &IndexExpression{base: base{pos}, Object: expr, Key: &StringLiteral{base: base{name.Position}, Value: name.Value}}
		case lualex.TokenLBracket:
			if err := p.next(); err != nil {
				return nil, err
			}
			key, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lualex.TokenRBracket); err != nil {
				return nil, err
			}
			expr = &IndexExpression{base: base{pos}, Object: expr, Key: key}
		case lualex.TokenColon:
			if err := p.next(); err != nil {
				return nil, err
			}
			name, err := p.expect(lualex.TokenName)
			if err != nil {
				return nil, err
			}
			args, err := p.callArguments()
			if err != nil {
				return nil, err
			}
			expr = &CallExpression{base: base{pos}, Function: expr, Method: name.Value, Arguments: args}
		case lualex.TokenLParen, lualex.TokenString, lualex.TokenLBrace:
			args, err := p.callArguments()
			if err != nil {
				return nil, err
			}
			expr = &CallExpression{base: base{pos}, Function: expr, Arguments: args}
		default:
			return expr, nil
		}
	}
}

func (p *parser) callArguments() ([]Expression, *lerr.Error) {
	switch p.tok.Kind {
	case lualex.TokenString:
		pos := p.pos()
		value := p.tok.Value
		if err := p.next(); err != nil {
			return nil, err
		}
		return []Expression{&StringLiteral{base: base{pos}, Value: value}}, nil
	case lualex.TokenLBrace:
		tbl, err := p.tableConstructor()
		if err != nil {
			return nil, err
		}
		return []Expression{tbl}, nil
	default:
		if _, err := p.expect(lualex.TokenLParen); err != nil {
			return nil, err
		}
		if p.tok.Kind == lualex.TokenRParen {
			return nil, p.next()
		}
		args, err := p.expressionList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lualex.TokenRParen); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) functionBody(pos Position, isMethod bool) (*FunctionExpression, *lerr.Error) {
	if _, err := p.expect(lualex.TokenLParen); err != nil {
		return nil, err
	}
	var params []string
	if isMethod {
		params = append(params, "self")
	}
	vararg := false
	if p.tok.Kind != lualex.TokenRParen {
		for {
			if p.tok.Kind == lualex.TokenEllipsis {
				vararg = true
				if err := p.next(); err != nil {
					return nil, err
				}
				break
			}
			name, err := p.expect(lualex.TokenName)
			if err != nil {
				return nil, err
			}
			params = append(params, name.Value)
			more, err := p.accept(lualex.TokenComma)
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
		}
	}
	if _, err := p.expect(lualex.TokenRParen); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lualex.TokenEnd)
	if err != nil {
		return nil, err
	}
	return &FunctionExpression{base: base{pos}, Params: params, IsVararg: vararg, Body: body, EndPos: end.Position}, nil
}

func (p *parser) tableConstructor() (Expression, *lerr.Error) {
	pos := p.pos()
	if _, err := p.expect(lualex.TokenLBrace); err != nil {
		return nil, err
	}
	var fields []TableField
	for p.tok.Kind != lualex.TokenRBrace {
		field, err := p.tableField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if p.tok.Kind == lualex.TokenComma || p.tok.Kind == lualex.TokenSemi {
			if err := p.next(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(lualex.TokenRBrace); err != nil {
		return nil, err
	}
	return &TableConstructor{base: base{pos}, Fields: fields}, nil
}

func (p *parser) tableField() (TableField, *lerr.Error) {
	if p.tok.Kind == lualex.TokenLBracket {
		if err := p.next(); err != nil {
			return TableField{}, err
		}
		key, err := p.expression()
		if err != nil {
			return TableField{}, err
		}
		if _, err := p.expect(lualex.TokenRBracket); err != nil {
			return TableField{}, err
		}
		if _, err := p.expect(lualex.TokenAssign); err != nil {
			return TableField{}, err
		}
		value, err := p.expression()
		if err != nil {
			return TableField{}, err
		}
		return TableField{Key: key, Value: value}, nil
	}
	if p.tok.Kind == lualex.TokenName {
		save := *p.lx
		saveTok := p.tok
		name := p.tok.Value
		pos := p.pos()
		if err := p.next(); err != nil {
			return TableField{}, err
		}
		if p.tok.Kind == lualex.TokenAssign {
			if err := p.next(); err != nil {
				return TableField{}, err
			}
			value, err := p.expression()
			if err != nil {
				return TableField{}, err
			}
			return TableField{Key: &StringLiteral{base: base{pos}, Value: name}, Value: value}, nil
		}
		// Not "name =": rewind and parse as a normal expression.
		*p.lx = save
		p.tok = saveTok
	}
	value, err := p.expression()
	if err != nil {
		return TableField{}, err
	}
	return TableField{Value: value}, nil
}
