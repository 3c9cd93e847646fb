package skiplist

// HasInRange 区间内是否存在元素
func (s *Skiplist) HasInRange(min *ScoreBorder, max *ScoreBorder) bool {
	if emptyRange(min, max) {
		return false
	}
	n := s.tail
	if n == nil || !min.Less(n.Score) {
		return false
	}
	n = s.header.level[0].forward
	if n == nil || !max.Greater(n.Score) {
		return false
	}
	return true
}

// FirstInRange 区间内第一个元素, 不存在返回 nil
func (s *Skiplist) FirstInRange(min *ScoreBorder, max *ScoreBorder) *Element {
	n := s.firstInRange(min, max)
	if n == nil {
		return nil
	}
	return &n.Element
}

func (s *Skiplist) firstInRange(min *ScoreBorder, max *ScoreBorder) *node {
	if !s.HasInRange(min, max) {
		return nil
	}
	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		// forward 仍在下界左侧则前进
		for x.level[i].forward != nil && !min.Less(x.level[i].forward.Score) {
			x = x.level[i].forward
		}
	}
	x = x.level[0].forward
	if !max.Greater(x.Score) {
		return nil
	}
	return x
}

// LastInRange 区间内最后一个元素, 不存在返回 nil
func (s *Skiplist) LastInRange(min *ScoreBorder, max *ScoreBorder) *Element {
	n := s.lastInRange(min, max)
	if n == nil {
		return nil
	}
	return &n.Element
}

func (s *Skiplist) lastInRange(min *ScoreBorder, max *ScoreBorder) *node {
	if !s.HasInRange(min, max) {
		return nil
	}
	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		for x.level[i].forward != nil && max.Greater(x.level[i].forward.Score) {
			x = x.level[i].forward
		}
	}
	if !min.Less(x.Score) {
		return nil
	}
	return x
}

// RemoveRange 删除区间内的元素并返回, limit <= 0 表示不限制数量
func (s *Skiplist) RemoveRange(min *ScoreBorder, max *ScoreBorder, limit int) []*Element {
	update := make([]*node, maxLevel)
	removed := make([]*Element, 0)

	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		for x.level[i].forward != nil && !min.Less(x.level[i].forward.Score) {
			x = x.level[i].forward
		}
		update[i] = x
	}

	// update 在删除过程中保持有效: 被删节点的前驱不变
	x = x.level[0].forward
	for x != nil && max.Greater(x.Score) {
		next := x.level[0].forward
		removed = append(removed, &x.Element)
		s.removeNode(x, update)
		if limit > 0 && len(removed) == limit {
			break
		}
		x = next
	}
	return removed
}

// RemoveRangeByRank 删除排名区间 [start, stop) 内的元素, 排名为 1-based
func (s *Skiplist) RemoveRangeByRank(start int64, stop int64) []*Element {
	update := make([]*node, maxLevel)
	removed := make([]*Element, 0)

	var traversed int64
	x := s.header
	for i := s.level - 1; i >= 0; i-- {
		for x.level[i].forward != nil && traversed+x.level[i].span < start {
			traversed += x.level[i].span
			x = x.level[i].forward
		}
		update[i] = x
	}

	traversed++
	x = x.level[0].forward
	for x != nil && traversed < stop {
		next := x.level[0].forward
		removed = append(removed, &x.Element)
		s.removeNode(x, update)
		x = next
		traversed++
	}
	return removed
}
