package skiplist

// Iterator 沿底层链表遍历, 每次 Seek 都从列表当前状态重新定位,
// 不持有跨越修改的游标, 遍历期间修改列表的行为未定义
type Iterator struct {
	s   *Skiplist
	cur *node
}

func (s *Skiplist) Iterator() *Iterator {
	return &Iterator{
		s:   s,
		cur: s.header,
	}
}

// cur 为 header 或 nil 时无效
func (it *Iterator) Valid() bool {
	return it.cur != nil && it.cur != it.s.header
}

func (it *Iterator) Element() *Element {
	if !it.Valid() {
		return nil
	}
	return &it.cur.Element
}

func (it *Iterator) Next() {
	if !it.Valid() {
		panic("iterator is not valid")
	}
	it.cur = it.cur.level[0].forward
}

// Prev 移动到底层前驱, 第一个元素的前驱无效
func (it *Iterator) Prev() {
	if !it.Valid() {
		panic("iterator is not valid")
	}
	it.cur = it.cur.backward
}

// Seek 定位到第一个 >= (score, member) 的节点
func (it *Iterator) Seek(member string, score float64) {
	x := it.s.header
	for i := it.s.level - 1; i >= 0; i-- {
		for x.level[i].forward != nil && x.level[i].forward.less(score, member) {
			x = x.level[i].forward
		}
	}
	it.cur = x.level[0].forward
}

// SeekToRank 定位到 1-based 排名处, 越界时无效
func (it *Iterator) SeekToRank(rank int64) {
	it.cur = it.s.getByRank(rank)
}

// SeekFirstInRange 定位到 score 区间内第一个节点, 区间为空时无效
func (it *Iterator) SeekFirstInRange(min *ScoreBorder, max *ScoreBorder) {
	it.cur = it.s.firstInRange(min, max)
}

// SeekLastInRange 定位到 score 区间内最后一个节点, 区间为空时无效
func (it *Iterator) SeekLastInRange(min *ScoreBorder, max *ScoreBorder) {
	it.cur = it.s.lastInRange(min, max)
}

func (it *Iterator) SeekToFirst() {
	it.cur = it.s.header.level[0].forward
}

func (it *Iterator) SeekToLast() {
	it.cur = it.s.tail
}
