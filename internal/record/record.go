package record

import (
	"encoding/binary"
	"errors"
	"math"
)

type Op byte

const (
	OpAdd Op = iota + 1
	OpRemove
)

var (
	ErrTooShort = errors.New("record too short")
	ErrBadOp    = errors.New("unknown record op")
)

// 日志记录的编码: op(1) | score(8) | member
// Remove 记录的 score 恒为 0, 重放时只看 member
type Record struct {
	Op     Op
	Member string
	Score  float64
}

func New(op Op, member string, score float64) Record {
	return Record{
		Op:     op,
		Member: member,
		Score:  score,
	}
}

func (r Record) Size() int {
	return 1 + 8 + len(r.Member)
}

func (r Record) EncodeTo() []byte {
	buf := make([]byte, r.Size())
	buf[0] = byte(r.Op)
	binary.BigEndian.PutUint64(buf[1:9], math.Float64bits(r.Score))
	copy(buf[9:], r.Member)
	return buf
}

func (r *Record) DecodeFrom(data []byte) error {
	if len(data) < 9 {
		return ErrTooShort
	}
	op := Op(data[0])
	if op != OpAdd && op != OpRemove {
		return ErrBadOp
	}
	r.Op = op
	r.Score = math.Float64frombits(binary.BigEndian.Uint64(data[1:9]))
	r.Member = string(data[9:])
	return nil
}
