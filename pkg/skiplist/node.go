package skiplist

// 对外的元素抽象, dict 与跳表节点共享同一份 *Element
// 插入后 Score/Member 不再变化, 改分数走先删后插
type Element struct {
	Member string
	Score  float64
}

type levelEntry struct {
	forward *node
	// 沿 forward 跳过的底层节点数, 直接后继为 1
	span int64
}

type node struct {
	Element
	// backward 仅用于反向遍历, 只保存底层的前驱
	backward *node
	level    []levelEntry
}

func newNode(level int, score float64, member string) *node {
	return &node{
		Element: Element{
			Member: member,
			Score:  score,
		},
		level: make([]levelEntry, level),
	}
}

// (score, member) 严格排在 n 之后时为 true
func (n *node) less(score float64, member string) bool {
	return n.Score < score || (n.Score == score && n.Member < member)
}
