package zset

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"zset/internal/record"
	"zset/pkg/journal"
	"zset/pkg/skiplist"
	"zset/pkg/sortedset"
)

// journal 的最小依赖面, 测试可以注入失败的实现
type opLog interface {
	Append(data []byte) (int64, error)
	NewReader() *journal.Reader
	Sync() error
	Close() error
}

// DB 对 SortedSet 加读写锁并挂上操作日志,
// 写操作先落日志再改内存, Open 时按序重放日志恢复内容
type DB struct {
	mu  sync.RWMutex
	set *sortedset.SortedSet
	jnl opLog
}

func Open(option journal.Option) (*DB, error) {
	jnl, err := journal.Open(option)
	if err != nil {
		return nil, err
	}

	db := &DB{
		set: sortedset.New(),
		jnl: jnl,
	}
	if err := db.replay(); err != nil {
		jnl.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) replay() error {
	reader := db.jnl.NewReader()
	count := 0
	for {
		data, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("replay journal failed: %w", err)
		}

		var rec record.Record
		if err := rec.DecodeFrom(data); err != nil {
			return fmt.Errorf("replay journal failed: %w", err)
		}
		switch rec.Op {
		case record.OpAdd:
			db.set.Add(rec.Member, rec.Score)
		case record.OpRemove:
			db.set.Remove(rec.Member)
		}
		count++
	}
	logrus.Debugf("replayed %d records, %d members", count, db.set.Len())
	return nil
}

func (db *DB) append(op record.Op, member string, score float64) error {
	rec := record.New(op, member, score)
	_, err := db.jnl.Append(rec.EncodeTo())
	return err
}

// Add 返回 member 是否为新增
func (db *DB) Add(member string, score float64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if element, ok := db.set.Get(member); ok && element.Score == score {
		return false, nil
	}
	if err := db.append(record.OpAdd, member, score); err != nil {
		return false, err
	}
	return db.set.Add(member, score), nil
}

func (db *DB) Remove(member string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.set.Get(member); !ok {
		return false, nil
	}
	if err := db.append(record.OpRemove, member, 0); err != nil {
		return false, err
	}
	return db.set.Remove(member), nil
}

func (db *DB) Score(member string) (float64, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	element, ok := db.set.Get(member)
	if !ok {
		return 0, false
	}
	return element.Score, true
}

func (db *DB) Len() int64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.set.Len()
}

// Rank 返回 0-based 排名, 不存在返回 -1
func (db *DB) Rank(member string, desc bool) int64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.set.GetRank(member, desc)
}

func (db *DB) GetByRank(rank int64, desc bool) *skiplist.Element {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.set.GetByRank(rank, desc)
}

// Range 返回排名区间 [start, stop) 内的元素, 0-based
// 返回的 Element 不会被后续修改复用, 可以在锁外继续持有
func (db *DB) Range(start int64, stop int64, desc bool) []*skiplist.Element {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.set.Range(start, stop, desc)
}

func (db *DB) RangeByScore(min *skiplist.ScoreBorder, max *skiplist.ScoreBorder,
	offset int64, limit int64, desc bool) []*skiplist.Element {

	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.set.RangeByScore(min, max, offset, limit, desc)
}

func (db *DB) Count(min *skiplist.ScoreBorder, max *skiplist.ScoreBorder) int64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.set.Count(min, max)
}

// 逐个删除 victims: 每落一条日志立即同步内存, 日志与内存永远步调一致
// 中途失败时返回已完成的部分
func (db *DB) removeEach(victims []*skiplist.Element) ([]*skiplist.Element, error) {
	removed := make([]*skiplist.Element, 0, len(victims))
	for _, element := range victims {
		if err := db.append(record.OpRemove, element.Member, 0); err != nil {
			return removed, err
		}
		db.set.Remove(element.Member)
		removed = append(removed, element)
	}
	return removed, nil
}

// RemoveByScore 删除 score 区间内的所有元素, 返回删除数量
func (db *DB) RemoveByScore(min *skiplist.ScoreBorder, max *skiplist.ScoreBorder) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	victims := db.set.RangeByScore(min, max, 0, -1, false)
	removed, err := db.removeEach(victims)
	return int64(len(removed)), err
}

// RemoveByRank 删除排名区间 [start, stop) 内的元素, 0-based, 返回删除数量
func (db *DB) RemoveByRank(start int64, stop int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	victims := db.set.Range(start, stop, false)
	removed, err := db.removeEach(victims)
	return int64(len(removed)), err
}

// PopMin 弹出 score 最小的 count 个元素
// 中途写日志失败时返回已弹出的部分和错误
func (db *DB) PopMin(count int) ([]*skiplist.Element, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	victims := db.set.Range(0, int64(count), false)
	return db.removeEach(victims)
}

func (db *DB) Sync() error {
	return db.jnl.Sync()
}

func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.jnl.Close()
}
