package zset

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"zset/pkg/journal"
	"zset/pkg/skiplist"
	"zset/pkg/sortedset"
)

func testOptions(t *testing.T) journal.Option {
	return journal.Option{
		Dir:  t.TempDir(),
		Sync: false,
	}
}

func TestBasicOps(t *testing.T) {
	db, err := Open(testOptions(t))
	assert.NoError(t, err)
	defer db.Close()

	added, err := db.Add("foo", 3.2)
	assert.NoError(t, err)
	assert.True(t, added)
	added, err = db.Add("bar", 0.2)
	assert.NoError(t, err)
	assert.True(t, added)

	assert.Equal(t, int64(2), db.Len())
	score, ok := db.Score("bar")
	assert.True(t, ok)
	assert.Equal(t, 0.2, score)
	assert.Equal(t, int64(0), db.Rank("bar", false))
	assert.Equal(t, int64(1), db.Rank("foo", false))
	assert.Equal(t, "bar", db.GetByRank(0, false).Member)

	removed, err := db.Remove("bar")
	assert.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, int64(1), db.Len())
	assert.Equal(t, "foo", db.GetByRank(0, false).Member)

	removed, err = db.Remove("bar")
	assert.NoError(t, err)
	assert.False(t, removed)
}

func TestReopenReplaysJournal(t *testing.T) {
	option := testOptions(t)

	db, err := Open(option)
	assert.NoError(t, err)
	for i := 1; i <= 5; i++ {
		_, err := db.Add(fmt.Sprintf("m%02d", i), float64(i))
		assert.NoError(t, err)
	}
	_, err = db.Remove("m03")
	assert.NoError(t, err)
	_, err = db.Add("m01", 10) // 改分数
	assert.NoError(t, err)
	assert.NoError(t, db.Close())

	db, err = Open(option)
	assert.NoError(t, err)
	defer db.Close()

	assert.Equal(t, int64(4), db.Len())
	_, ok := db.Score("m03")
	assert.False(t, ok)
	score, ok := db.Score("m01")
	assert.True(t, ok)
	assert.Equal(t, 10.0, score)

	got := db.Range(0, 4, false)
	assert.Equal(t, "m02", got[0].Member)
	assert.Equal(t, "m01", got[3].Member)
}

func TestRangeOps(t *testing.T) {
	db, err := Open(testOptions(t))
	assert.NoError(t, err)
	defer db.Close()

	for i := 1; i <= 10; i++ {
		_, err := db.Add(fmt.Sprintf("m%02d", i), float64(i))
		assert.NoError(t, err)
	}

	assert.Equal(t, int64(5), db.Count(&skiplist.ScoreBorder{Value: 3}, &skiplist.ScoreBorder{Value: 7}))

	got := db.RangeByScore(&skiplist.ScoreBorder{Value: 3}, &skiplist.ScoreBorder{Value: 7}, 0, 2, false)
	assert.Len(t, got, 2)
	assert.Equal(t, "m03", got[0].Member)

	got = db.Range(0, 3, true)
	assert.Equal(t, "m10", got[0].Member)
	assert.Equal(t, "m08", got[2].Member)
}

func TestRemoveByScoreSurvivesReopen(t *testing.T) {
	option := testOptions(t)

	db, err := Open(option)
	assert.NoError(t, err)
	for i := 1; i <= 10; i++ {
		_, err := db.Add(fmt.Sprintf("m%02d", i), float64(i))
		assert.NoError(t, err)
	}
	removed, err := db.RemoveByScore(&skiplist.ScoreBorder{Value: 4}, &skiplist.ScoreBorder{Value: 6})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, db.Close())

	db, err = Open(option)
	assert.NoError(t, err)
	defer db.Close()

	assert.Equal(t, int64(7), db.Len())
	_, ok := db.Score("m05")
	assert.False(t, ok)
}

func TestPopMinSurvivesReopen(t *testing.T) {
	option := testOptions(t)

	db, err := Open(option)
	assert.NoError(t, err)
	for i := 1; i <= 5; i++ {
		_, err := db.Add(fmt.Sprintf("m%02d", i), float64(i))
		assert.NoError(t, err)
	}

	popped, err := db.PopMin(2)
	assert.NoError(t, err)
	assert.Len(t, popped, 2)
	assert.Equal(t, "m01", popped[0].Member)
	assert.NoError(t, db.Close())

	db, err = Open(option)
	assert.NoError(t, err)
	defer db.Close()

	assert.Equal(t, int64(3), db.Len())
	assert.Equal(t, "m03", db.GetByRank(0, false).Member)
}

var errAppend = errors.New("append failed")

// 允许 remaining 次写入, 之后每次 Append 都失败
type flakyJournal struct {
	*journal.Journal
	remaining int
}

func (f *flakyJournal) Append(data []byte) (int64, error) {
	if f.remaining <= 0 {
		return 0, errAppend
	}
	f.remaining--
	return f.Journal.Append(data)
}

func openFlaky(t *testing.T, option journal.Option, n int) (*DB, *flakyJournal) {
	t.Helper()
	jnl, err := journal.Open(option)
	assert.NoError(t, err)
	flaky := &flakyJournal{Journal: jnl, remaining: n}
	db := &DB{
		set: sortedset.New(),
		jnl: flaky,
	}
	for i := 1; i <= n; i++ {
		_, err := db.Add(fmt.Sprintf("m%02d", i), float64(i))
		assert.NoError(t, err)
	}
	return db, flaky
}

// 批量删除中途写日志失败: 内存必须与已落盘的删除保持一致,
// 返回已完成的数量, 重放后内容不变
func TestRemoveByScorePartialAppendFailure(t *testing.T) {
	option := testOptions(t)
	db, flaky := openFlaky(t, option, 10)

	// 只允许前两条删除落日志
	flaky.remaining = 2
	removed, err := db.RemoveByScore(&skiplist.ScoreBorder{Value: 1}, &skiplist.ScoreBorder{Value: 5})
	assert.ErrorIs(t, err, errAppend)
	assert.Equal(t, int64(2), removed)

	// 已落日志的 m01/m02 在内存中也被删除, m03 起保留
	assert.Equal(t, int64(8), db.Len())
	_, ok := db.Score("m01")
	assert.False(t, ok)
	_, ok = db.Score("m02")
	assert.False(t, ok)
	_, ok = db.Score("m03")
	assert.True(t, ok)
	assert.NoError(t, db.Close())

	// 重放结果与失败时刻的内存一致
	db2, err := Open(option)
	assert.NoError(t, err)
	defer db2.Close()
	assert.Equal(t, int64(8), db2.Len())
	_, ok = db2.Score("m02")
	assert.False(t, ok)
	_, ok = db2.Score("m03")
	assert.True(t, ok)
}

func TestPopMinPartialAppendFailure(t *testing.T) {
	option := testOptions(t)
	db, flaky := openFlaky(t, option, 5)

	flaky.remaining = 1
	popped, err := db.PopMin(3)
	assert.ErrorIs(t, err, errAppend)
	assert.Len(t, popped, 1)
	assert.Equal(t, "m01", popped[0].Member)

	assert.Equal(t, int64(4), db.Len())
	assert.Equal(t, "m02", db.GetByRank(0, false).Member)
	assert.NoError(t, db.Close())

	db2, err := Open(option)
	assert.NoError(t, err)
	defer db2.Close()
	assert.Equal(t, int64(4), db2.Len())
	assert.Equal(t, "m02", db2.GetByRank(0, false).Member)
}

func TestRemoveByRank(t *testing.T) {
	db, err := Open(testOptions(t))
	assert.NoError(t, err)
	defer db.Close()

	for i := 1; i <= 10; i++ {
		_, err := db.Add(fmt.Sprintf("m%02d", i), float64(i))
		assert.NoError(t, err)
	}

	removed, err := db.RemoveByRank(0, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Equal(t, int64(7), db.Len())
	assert.Equal(t, "m04", db.GetByRank(0, false).Member)
}
