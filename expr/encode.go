package expr

import (
	"errors"
	"fmt"
	"math"
)

// Opcodes of flattened term programs.
const (
	opVariable uint32 = iota + 1
	opConstant
	opParameter
	opNeg
	opAdd
	opScale
	opParamScale
	opAbs
)

// Program is a postfix flattening of a term, split into homogeneous streams
// so the integer streams compress well on the wire.
type Program struct {
	Ops    []uint32 // postfix opcodes
	IDs    []uint32 // leaf IDs, in emission order
	Dims   []uint32 // leaf shapes, length-prefixed, in emission order
	Coeffs []uint64 // float64 bits: constant entries and scale coefficients
}

// Flatten renders t as a Program.
func Flatten(t Term) Program {
	var p Program
	p.emit(t)
	return p
}

func (p *Program) emitShape(s Shape) {
	p.Dims = append(p.Dims, uint32(len(s)))
	for _, d := range s {
		p.Dims = append(p.Dims, uint32(d))
	}
}

func (p *Program) emit(t Term) {
	switch x := t.(type) {
	case *Variable:
		p.IDs = append(p.IDs, uint32(x.id))
		p.emitShape(x.shape)
		p.Ops = append(p.Ops, opVariable)
	case *Constant:
		p.emitShape(x.val.shape)
		for _, f := range x.val.data {
			p.Coeffs = append(p.Coeffs, math.Float64bits(f))
		}
		p.Ops = append(p.Ops, opConstant)
	case *Parameter:
		p.IDs = append(p.IDs, uint32(x.id))
		p.emitShape(x.shape)
		p.Ops = append(p.Ops, opParameter)
	case *neg:
		p.emit(x.x)
		p.Ops = append(p.Ops, opNeg)
	case *add:
		p.emit(x.x)
		p.emit(x.y)
		p.Ops = append(p.Ops, opAdd)
	case *scale:
		p.emit(x.x)
		p.Coeffs = append(p.Coeffs, math.Float64bits(x.c))
		p.Ops = append(p.Ops, opScale)
	case *paramScale:
		p.emit(x.p)
		p.emit(x.x)
		p.Ops = append(p.Ops, opParamScale)
	case *abs:
		p.emit(x.x)
		p.Ops = append(p.Ops, opAbs)
	default:
		// all Term implementations live in this package
		panic(fmt.Sprintf("unknown term %T", t))
	}
}

// Build reconstructs a term from the program. Leaf identity is preserved by
// the recorded IDs: the same leaf ID decodes to the same node, and the
// process leaf counter is advanced past every decoded ID so freshly created
// leaves cannot collide with decoded ones.
func (p Program) Build() (Term, error) {
	terms, err := BuildAll(p)
	if err != nil {
		return nil, err
	}
	return terms[0], nil
}

// BuildAll reconstructs several terms under one shared leaf registry: a leaf
// ID appearing in more than one program decodes to a single node, preserving
// operand sharing across a constraint's terms.
func BuildAll(progs ...Program) ([]Term, error) {
	byID := make(map[uint32]Term)
	out := make([]Term, len(progs))
	for i, p := range progs {
		t, err := p.build(byID)
		if err != nil {
			return nil, fmt.Errorf("program %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

func (p Program) build(byID map[uint32]Term) (Term, error) {
	var (
		stack    []Term
		idCur    int
		dimCur   int
		coeffCur int
	)

	readShape := func() (Shape, error) {
		if dimCur >= len(p.Dims) {
			return nil, errors.New("truncated dims stream")
		}
		n := int(p.Dims[dimCur])
		dimCur++
		if dimCur+n > len(p.Dims) {
			return nil, errors.New("truncated dims stream")
		}
		s := make(Shape, n)
		for i := 0; i < n; i++ {
			s[i] = int(p.Dims[dimCur+i])
		}
		dimCur += n
		if !s.Valid() {
			return nil, fmt.Errorf("invalid shape %s in program", s)
		}
		return s, nil
	}
	readID := func() (uint32, error) {
		if idCur >= len(p.IDs) {
			return 0, errors.New("truncated id stream")
		}
		id := p.IDs[idCur]
		idCur++
		return id, nil
	}
	readCoeffs := func(n int) ([]float64, error) {
		if coeffCur+n > len(p.Coeffs) {
			return nil, errors.New("truncated coeff stream")
		}
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(p.Coeffs[coeffCur+i])
		}
		coeffCur += n
		return out, nil
	}
	pop := func() (Term, error) {
		if len(stack) == 0 {
			return nil, errors.New("malformed program: stack underflow")
		}
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return t, nil
	}

	for _, op := range p.Ops {
		switch op {
		case opVariable, opParameter:
			id, err := readID()
			if err != nil {
				return nil, err
			}
			shape, err := readShape()
			if err != nil {
				return nil, err
			}
			leaf, ok := byID[id]
			if !ok {
				if op == opVariable {
					leaf = &Variable{id: uint(id), shape: shape}
				} else {
					leaf = &Parameter{id: uint(id), shape: shape}
				}
				byID[id] = leaf
				bumpLeafID(uint64(id))
			}
			stack = append(stack, leaf)
		case opConstant:
			shape, err := readShape()
			if err != nil {
				return nil, err
			}
			data, err := readCoeffs(shape.Size())
			if err != nil {
				return nil, err
			}
			stack = append(stack, &Constant{val: Value{shape: shape, data: data}})
		case opNeg:
			x, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, &neg{x: x})
		case opAbs:
			x, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, &abs{x: x})
		case opAdd:
			y, err := pop()
			if err != nil {
				return nil, err
			}
			x, err := pop()
			if err != nil {
				return nil, err
			}
			t, err := Add(x, y)
			if err != nil {
				return nil, err
			}
			stack = append(stack, t)
		case opScale:
			coeff, err := readCoeffs(1)
			if err != nil {
				return nil, err
			}
			x, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, &scale{c: coeff[0], x: x})
		case opParamScale:
			x, err := pop()
			if err != nil {
				return nil, err
			}
			pt, err := pop()
			if err != nil {
				return nil, err
			}
			param, ok := pt.(*Parameter)
			if !ok {
				return nil, fmt.Errorf("malformed program: %T where a parameter is expected", pt)
			}
			t, err := ParamScale(param, x)
			if err != nil {
				return nil, err
			}
			stack = append(stack, t)
		default:
			return nil, fmt.Errorf("unknown opcode %d", op)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("malformed program: %d terms left on stack", len(stack))
	}
	return stack[0], nil
}

func bumpLeafID(id uint64) {
	for {
		cur := leafID.Load()
		if cur >= id {
			return
		}
		if leafID.CompareAndSwap(cur, id) {
			return
		}
	}
}
