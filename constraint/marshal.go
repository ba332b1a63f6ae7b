package constraint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/convexsys/conic"
	"github.com/convexsys/conic/expr"
	"github.com/convexsys/conic/internal/ioutils"
	"github.com/convexsys/conic/logger"
)

// Variant tags of the serialized cone header.
const (
	variantExpCone uint8 = iota + 1
	variantRelEntrQuad
)

// header carries the reconstruction parameters of a serialized cone: the
// module version, the variant tag and, for the quadrature variant, (m, k).
type header struct {
	Version string `cbor:"version"`
	Variant uint8  `cbor:"variant"`
	M       int    `cbor:"m,omitempty"`
	K       int    `cbor:"k,omitempty"`
}

// Marshal serializes a cone to a byte slice: a cbor header followed by one
// compressed stream block per operand. The operand blocks are prepared
// concurrently.
func Marshal(c Cone) ([]byte, error) {
	h := header{Version: conic.Version.String()}
	switch v := c.(type) {
	case *ExpCone:
		h.Variant = variantExpCone
	case *RelEntrQuad:
		h.Variant = variantRelEntrQuad
		h.M, h.K = v.GetData()
	default:
		return nil, fmt.Errorf("cannot marshal cone variant %T", c)
	}
	body, err := cbor.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}

	args := c.Args()
	sections := make([][]byte, len(args))
	var g errgroup.Group
	for i := range args {
		i := i
		g.Go(func() error {
			var err error
			sections[i], err = operandToBytes(args[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeBlock(&buf, body)
	for _, s := range sections {
		writeBlock(&buf, s)
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes a cone produced by Marshal. It reconstructs an
// equivalent constraint: same variant, same (m, k), a structurally equal
// operand graph with leaf identity preserved by recorded IDs. A module
// version mismatch logs a warning; it is not an error by itself.
func Unmarshal(data []byte) (Cone, error) {
	r := bytes.NewReader(data)
	body, err := readBlock(r)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var h header
	if err := cbor.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("unmarshal header: %w", err)
	}
	if err := checkHeader(&h); err != nil {
		return nil, err
	}

	blocks := make([][]byte, 3)
	for i := range blocks {
		if blocks[i], err = readBlock(r); err != nil {
			return nil, fmt.Errorf("read operand %d: %w", i, err)
		}
	}

	// reading the three compressed stream blocks is independent work; the
	// terms are then built under one shared leaf registry so operands keep
	// their common leaves
	progs := make([]expr.Program, 3)
	var g errgroup.Group
	for i := range blocks {
		i := i
		g.Go(func() error {
			var err error
			progs[i], err = readProgram(blocks[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	terms, err := expr.BuildAll(progs...)
	if err != nil {
		return nil, err
	}

	switch h.Variant {
	case variantExpCone:
		return NewExpCone(terms[0], terms[1], terms[2])
	case variantRelEntrQuad:
		return NewRelEntrQuad(terms[0], terms[1], terms[2], h.M, h.K)
	default:
		return nil, fmt.Errorf("unknown cone variant tag %d", h.Variant)
	}
}

func checkHeader(h *header) error {
	objectVersion, err := semver.Parse(h.Version)
	if err != nil {
		return fmt.Errorf("when parsing conic version: %w", err)
	}
	if conic.Version.Compare(objectVersion) != 0 {
		log := logger.Logger()
		log.Warn().Str("binary", conic.Version.String()).Str("object", objectVersion.String()).Msg("conic version (binary) mismatch with serialized cone. there are no guarantees on compatibility")
	}
	return nil
}

func operandToBytes(t expr.Term) ([]byte, error) {
	p := expr.Flatten(t)
	var buf bytes.Buffer
	if err := ioutils.CompressAndWriteUints32(&buf, p.Ops); err != nil {
		return nil, err
	}
	if err := ioutils.CompressAndWriteUints32(&buf, p.IDs); err != nil {
		return nil, err
	}
	if err := ioutils.CompressAndWriteUints32(&buf, p.Dims); err != nil {
		return nil, err
	}
	if err := ioutils.CompressAndWriteUints64(&buf, p.Coeffs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readProgram(data []byte) (expr.Program, error) {
	r := bytes.NewReader(data)
	var p expr.Program
	var err error
	if p.Ops, err = ioutils.ReadAndDecompressUints32(r); err != nil {
		return expr.Program{}, err
	}
	if p.IDs, err = ioutils.ReadAndDecompressUints32(r); err != nil {
		return expr.Program{}, err
	}
	if p.Dims, err = ioutils.ReadAndDecompressUints32(r); err != nil {
		return expr.Program{}, err
	}
	if p.Coeffs, err = ioutils.ReadAndDecompressUints64(r); err != nil {
		return expr.Program{}, err
	}
	return p, nil
}

func writeBlock(buf *bytes.Buffer, b []byte) {
	var l [8]byte
	binary.LittleEndian.PutUint64(l[:], uint64(len(b)))
	buf.Write(l[:])
	buf.Write(b)
}

func readBlock(r *bytes.Reader) ([]byte, error) {
	var l [8]byte
	if _, err := io.ReadFull(r, l[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(l[:])
	if uint64(r.Len()) < n {
		return nil, errors.New("invalid data length")
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
