package journal

type Option struct {
	Dir string

	// 是否在每次写入后都 sync
	// 设置为 false 会提高性能,但不能保证持久性
	Sync bool
}

var DefaultOptions = Option{
	Dir:  "./journal",
	Sync: true,
}
