package sim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/viant/parsly"
)

// ParseWorkload turns a workload token stream into a Workload.
//
// The stream is an optional header line containing "Start" followed by
// operations of the form X{name}N separated by whitespace or ; , . :
// Rules, checked in order:
//   - the stream starts with the header or with the system begin operation
//   - no operation other than a system one may precede the system begin
//   - A{begin} opens a new program, A{finish} closes it
//   - P, I, O and M operations are appended to the open program
//   - S{finish} ends the pass; anything after it is ignored
func ParseWorkload(input []byte) (*Workload, error) {
	p := &parser{
		cursor:   parsly.NewCursor("workload", input, 0),
		workload: NewWorkload(),
	}
	return p.parse()
}

type parser struct {
	cursor     *parsly.Cursor
	workload   *Workload
	open       *PCB // program receiving operations, nil when none is open
	begun      bool // system begin seen
	headerless bool // stream starts directly with an operation
}

func (p *parser) parse() (*Workload, error) {
	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	for {
		offset := p.cursor.Pos
		op, eof, err := p.nextOperation()
		if err != nil {
			return nil, fmt.Errorf("workload offset %d: %w", offset, err)
		}
		if eof {
			return nil, fmt.Errorf("workload offset %d: %w", offset, ErrMissingFinish)
		}
		finished, err := p.apply(op)
		if err != nil {
			return nil, fmt.Errorf("workload offset %d: %s: %w", offset, op, err)
		}
		if finished {
			logrus.Debugf("parsed %d programs, %d operations", p.workload.Len(), p.workload.OperationCount())
			return p.workload, nil
		}
	}
}

func (p *parser) parseHeader() error {
	cur := p.cursor
	cur.MatchOne(separatorToken)
	pos := cur.Pos
	if cur.MatchOne(typeCodeToken).Code == typeCodeCode {
		cur.Pos = pos
		p.headerless = true
		return nil
	}
	matched := cur.MatchOne(headerToken)
	if matched.Code != headerCode || !strings.Contains(matched.Text(cur), "Start") {
		return ErrMissingStart
	}
	return nil
}

// nextOperation reads one X{name}N token. eof is true when the input ends
// before another token.
func (p *parser) nextOperation() (op Operation, eof bool, err error) {
	cur := p.cursor
	matched := cur.MatchAfterOptional(separatorToken, typeCodeToken)
	switch matched.Code {
	case typeCodeCode:
	case parsly.EOF:
		return Operation{}, true, nil
	default:
		return Operation{}, false, fmt.Errorf("%w: %v", ErrInvalidToken, cur.NewError(typeCodeToken))
	}
	kind, err := KindFromCode(matched.Text(cur))
	if err != nil {
		return Operation{}, false, err
	}

	if cur.MatchAfterOptional(whitespaceToken, openBraceToken).Code != openBraceCode {
		return Operation{}, false, fmt.Errorf("%w: %v", ErrInvalidToken, cur.NewError(openBraceToken))
	}
	matched = cur.MatchOne(nameToken)
	if matched.Code != nameCode {
		return Operation{}, false, fmt.Errorf("%w: %v", ErrInvalidToken, cur.NewError(nameToken))
	}
	name := matched.Text(cur)
	if cur.MatchOne(closeBraceToken).Code != closeBraceCode {
		return Operation{}, false, fmt.Errorf("%w: %v", ErrInvalidToken, cur.NewError(closeBraceToken))
	}

	matched = cur.MatchAfterOptional(whitespaceToken, cyclesToken)
	if matched.Code != cyclesCode {
		return Operation{}, false, fmt.Errorf("%w: %v", ErrInvalidCycles, cur.NewError(cyclesToken))
	}
	cycles, err := strconv.Atoi(matched.Text(cur))
	if err != nil {
		return Operation{}, false, fmt.Errorf("%w: %v", ErrInvalidCycles, err)
	}

	op, err = NewOperation(kind, name, cycles)
	return op, false, err
}

// apply enforces the structural rules for one operation. finished is true
// once the system finish operation is seen.
func (p *parser) apply(op Operation) (finished bool, err error) {
	isSystem := op.Kind == KindSystem
	switch {
	case p.headerless && !p.begun && !(isSystem && op.Resource == ResourceBegin):
		return false, ErrMissingStart

	case isSystem && op.Resource == ResourceBegin:
		if p.begun {
			logrus.Warnf("duplicate system begin operation ignored")
		}
		p.begun = true

	case isSystem && op.Resource == ResourceFinish:
		if !p.begun {
			return false, ErrMissingStartOperation
		}
		if p.open != nil {
			logrus.Warnf("process %d has no application finish operation", p.open.ID)
			p.open = nil
		}
		return true, nil

	case !p.begun:
		return false, ErrMissingStartOperation

	case op.Kind == KindAppBoundary && op.Resource == ResourceBegin:
		if p.open != nil {
			logrus.Warnf("process %d has no application finish operation", p.open.ID)
		}
		p.open = NewPCB(p.workload.Len() + 1)
		p.workload.Add(p.open)
		logrus.Debugf("created process %d", p.open.ID)

	case op.Kind == KindAppBoundary && op.Resource == ResourceFinish:
		if p.open == nil {
			return false, ErrNoOpenApplication
		}
		p.open = nil

	default:
		if p.open == nil {
			return false, ErrNoOpenApplication
		}
		p.open.AddOperation(op)
	}
	return false, nil
}
