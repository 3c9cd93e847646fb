package skiplist

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	maxLevel = 32
	p        = 0.25
)

// Skiplist 按 (score, member) 升序维护元素, 每层前向指针带跨度,
// 排名查询无需回到底层逐个数
// 非并发安全, 需要并发访问时由调用方加锁
type Skiplist struct {
	header *node
	tail   *node
	rnd    *rand.Rand
	length int64
	level  int
}

func New() *Skiplist {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource 允许注入确定性随机源, 方便测试层高分布
func NewWithSource(src rand.Source) *Skiplist {
	return &Skiplist{
		header: newNode(maxLevel, 0, ""),
		rnd:    rand.New(src),
		length: 0,
		level:  1,
	}
}

func (s *Skiplist) Len() int64 {
	return s.length
}

func (s *Skiplist) randomLevel() int {
	level := 1
	for level < maxLevel && s.rnd.Float64() < p {
		level++
	}
	return level
}

// Insert 插入 (member, score), 返回节点内嵌的 Element 指针,
// 供上层 dict 共享. 不检查重复, 由调用方保证 (score, member) 不存在
func (s *Skiplist) Insert(member string, score float64) *Element {
	update := make([]*node, maxLevel)
	rank := make([]int64, maxLevel)

	// update 记录每层最后一个小于目标的节点, rank 记录到达它时累计的跨度
	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		if i == s.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for x.level[i].forward != nil && x.level[i].forward.less(score, member) {
			rank[i] += x.level[i].span
			x = x.level[i].forward
		}
		update[i] = x
	}

	level := s.randomLevel()
	if level > s.level {
		for i := s.level; i < level; i++ {
			rank[i] = 0
			update[i] = s.header
			update[i].level[i].span = s.length
		}
		s.level = level
	}

	x = newNode(level, score, member)
	for i := 0; i < level; i++ {
		x.level[i].forward = update[i].level[i].forward
		update[i].level[i].forward = x

		x.level[i].span = update[i].level[i].span - (rank[0] - rank[i])
		update[i].level[i].span = rank[0] - rank[i] + 1
	}

	// 新节点未到达的层多出一个底层节点
	for i := level; i < s.level; i++ {
		update[i].level[i].span++
	}

	if update[0] == s.header {
		x.backward = nil
	} else {
		x.backward = update[0]
	}
	if x.level[0].forward != nil {
		x.level[0].forward.backward = x
	} else {
		s.tail = x
	}
	s.length++
	return &x.Element
}

// Remove 删除 (member, score) 精确匹配的节点
func (s *Skiplist) Remove(member string, score float64) bool {
	update := make([]*node, maxLevel)

	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		for x.level[i].forward != nil && x.level[i].forward.less(score, member) {
			x = x.level[i].forward
		}
		update[i] = x
	}
	x = x.level[0].forward
	if x != nil && x.Score == score && x.Member == member {
		s.removeNode(x, update)
		return true
	}
	return false
}

// update[i] 必须是 x 在第 i 层的前驱(或最后一个小于 x 的节点)
func (s *Skiplist) removeNode(x *node, update []*node) {
	for i := 0; i < s.level; i++ {
		if update[i].level[i].forward == x {
			update[i].level[i].span += x.level[i].span - 1
			update[i].level[i].forward = x.level[i].forward
		} else {
			update[i].level[i].span--
		}
	}
	if x.level[0].forward != nil {
		x.level[0].forward.backward = x.backward
	} else {
		s.tail = x.backward
	}
	for s.level > 1 && s.header.level[s.level-1].forward == nil {
		s.level--
	}
	s.length--
}

// GetRank 返回 1-based 排名
func (s *Skiplist) GetRank(member string, score float64) (int64, bool) {
	var rank int64

	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		for x.level[i].forward != nil && x.level[i].forward.less(score, member) {
			rank += x.level[i].span
			x = x.level[i].forward
		}
	}
	next := x.level[0].forward
	if next != nil && next.Score == score && next.Member == member {
		return rank + 1, true
	}
	return 0, false
}

// GetByRank rank 为 1-based, 越界返回 nil
func (s *Skiplist) GetByRank(rank int64) *Element {
	n := s.getByRank(rank)
	if n == nil {
		return nil
	}
	return &n.Element
}

func (s *Skiplist) getByRank(rank int64) *node {
	if rank < 1 || rank > s.length {
		return nil
	}

	var traversed int64
	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		for x.level[i].forward != nil && traversed+x.level[i].span <= rank {
			traversed += x.level[i].span
			x = x.level[i].forward
		}
		if traversed == rank {
			return x
		}
	}
	return nil
}

func (s *Skiplist) printLevel(i int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("level %d:", i))
	sb.WriteString("header")
	for h := s.header; h.level[i].forward != nil; h = h.level[i].forward {
		next := h.level[i].forward
		sb.WriteString(fmt.Sprintf(" -%d-> %s(%g)", h.level[i].span, next.Member, next.Score))
	}
	sb.WriteString(" -> nil")
	return sb.String()
}

func (s *Skiplist) String() string {
	var ss strings.Builder
	ss.WriteString(fmt.Sprintf("[level=%d,length=%d,", s.level, s.length))

	for i := s.level - 1; i >= 0; i-- {
		ss.WriteString(s.printLevel(i))
		ss.WriteByte('\n')
	}
	return ss.String()
}
