package sortedset

import (
	"zset/pkg/skiplist"
)

// SortedSet 在跳表之外维护 member -> *Element 的映射,
// 取 score 为 O(1), 两边共享同一份 Element
// 非并发安全, 加锁由上层负责
type SortedSet struct {
	dict map[string]*skiplist.Element
	skl  *skiplist.Skiplist
}

func New() *SortedSet {
	return &SortedSet{
		dict: make(map[string]*skiplist.Element),
		skl:  skiplist.New(),
	}
}

// Add 返回 member 是否为新增
func (s *SortedSet) Add(member string, score float64) bool {
	element, ok := s.dict[member]
	if ok {
		if element.Score != score {
			// 改分数走先删后插, 跳表节点不原地修改
			s.skl.Remove(member, element.Score)
			s.dict[member] = s.skl.Insert(member, score)
		}
		return false
	}
	s.dict[member] = s.skl.Insert(member, score)
	return true
}

func (s *SortedSet) Remove(member string) bool {
	element, ok := s.dict[member]
	if !ok {
		return false
	}
	s.skl.Remove(member, element.Score)
	delete(s.dict, member)
	return true
}

func (s *SortedSet) Get(member string) (*skiplist.Element, bool) {
	element, ok := s.dict[member]
	return element, ok
}

func (s *SortedSet) Len() int64 {
	return int64(len(s.dict))
}

// GetRank 返回 0-based 排名, 不存在返回 -1
func (s *SortedSet) GetRank(member string, desc bool) int64 {
	element, ok := s.dict[member]
	if !ok {
		return -1
	}
	rank, ok := s.skl.GetRank(member, element.Score)
	if !ok {
		return -1
	}
	if desc {
		return s.skl.Len() - rank
	}
	return rank - 1
}

// GetByRank rank 为 0-based, 越界返回 nil
func (s *SortedSet) GetByRank(rank int64, desc bool) *skiplist.Element {
	size := s.Len()
	if rank < 0 || rank >= size {
		return nil
	}
	if desc {
		rank = size - 1 - rank
	}
	return s.skl.GetByRank(rank + 1)
}

// ForEach 遍历排名区间 [start, stop) 内的元素, 0-based
// consumer 返回 false 时停止
func (s *SortedSet) ForEach(start int64, stop int64, desc bool, consumer func(*skiplist.Element) bool) {
	size := s.Len()
	if start < 0 || start >= size {
		return
	}
	if stop > size {
		stop = size
	}
	if stop <= start {
		return
	}

	it := s.skl.Iterator()
	if desc {
		it.SeekToRank(size - start)
	} else {
		it.SeekToRank(start + 1)
	}
	for i := start; i < stop && it.Valid(); i++ {
		if !consumer(it.Element()) {
			break
		}
		if desc {
			it.Prev()
		} else {
			it.Next()
		}
	}
}

func (s *SortedSet) Range(start int64, stop int64, desc bool) []*skiplist.Element {
	if stop <= start {
		return []*skiplist.Element{}
	}
	result := make([]*skiplist.Element, 0, stop-start)
	s.ForEach(start, stop, desc, func(element *skiplist.Element) bool {
		result = append(result, element)
		return true
	})
	return result
}

// Count 统计 score 区间内的元素数量
func (s *SortedSet) Count(min *skiplist.ScoreBorder, max *skiplist.ScoreBorder) int64 {
	first := s.skl.FirstInRange(min, max)
	if first == nil {
		return 0
	}
	last := s.skl.LastInRange(min, max)

	firstRank, _ := s.skl.GetRank(first.Member, first.Score)
	lastRank, _ := s.skl.GetRank(last.Member, last.Score)
	return lastRank - firstRank + 1
}

// RangeByScore 返回 score 区间内的元素, 跳过 offset 个, limit < 0 表示不限制
func (s *SortedSet) RangeByScore(min *skiplist.ScoreBorder, max *skiplist.ScoreBorder,
	offset int64, limit int64, desc bool) []*skiplist.Element {

	result := make([]*skiplist.Element, 0)
	if offset < 0 || limit == 0 {
		return result
	}

	it := s.skl.Iterator()
	if desc {
		it.SeekLastInRange(min, max)
	} else {
		it.SeekFirstInRange(min, max)
	}
	for i := int64(0); i < offset && it.Valid(); i++ {
		if desc {
			it.Prev()
		} else {
			it.Next()
		}
	}

	for it.Valid() {
		element := it.Element()
		// offset 可能已经走出区间
		if desc {
			if !min.Less(element.Score) {
				break
			}
		} else {
			if !max.Greater(element.Score) {
				break
			}
		}
		result = append(result, element)
		if limit > 0 && int64(len(result)) == limit {
			break
		}
		if desc {
			it.Prev()
		} else {
			it.Next()
		}
	}
	return result
}

// RemoveByScore 删除 score 区间内的所有元素, 返回删除数量
func (s *SortedSet) RemoveByScore(min *skiplist.ScoreBorder, max *skiplist.ScoreBorder) int64 {
	removed := s.skl.RemoveRange(min, max, 0)
	for _, element := range removed {
		delete(s.dict, element.Member)
	}
	return int64(len(removed))
}

// RemoveByRank 删除排名区间 [start, stop) 内的元素, 0-based, 返回删除数量
func (s *SortedSet) RemoveByRank(start int64, stop int64) int64 {
	size := s.Len()
	if start < 0 || start >= size {
		return 0
	}
	if stop > size {
		stop = size
	}
	if stop <= start {
		return 0
	}

	removed := s.skl.RemoveRangeByRank(start+1, stop+1)
	for _, element := range removed {
		delete(s.dict, element.Member)
	}
	return int64(len(removed))
}

// PopMin 弹出 score 最小的 count 个元素
func (s *SortedSet) PopMin(count int) []*skiplist.Element {
	if count <= 0 {
		return []*skiplist.Element{}
	}
	first := s.skl.FirstInRange(skiplist.NegativeInfBorder, skiplist.PositiveInfBorder)
	if first == nil {
		return []*skiplist.Element{}
	}
	border := &skiplist.ScoreBorder{Value: first.Score}
	removed := s.skl.RemoveRange(border, skiplist.PositiveInfBorder, count)
	for _, element := range removed {
		delete(s.dict, element.Member)
	}
	return removed
}
