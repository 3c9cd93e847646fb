package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrClosed     = errors.New("journal is closed")
	ErrInvalidCRC = errors.New("invalid crc")
)

const (
	// checksum + length
	// 4 + 4
	recordHeaderSize = 8

	fileModePerm = 0644

	fileName = "journal.log"
)

// *os.File 用到的子集, 测试可以注入失败的实现来覆盖回滚路径
type file interface {
	Write(p []byte) (n int, err error)
	ReadAt(p []byte, off int64) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Truncate(size int64) error
	Sync() error
	Close() error
	Name() string
}

// Journal 是单文件的追加日志, 按写入顺序重放可以重建等价的集合
// 记录格式: checksum(4) | length(4) | payload
type Journal struct {
	mu sync.Mutex

	fd     file
	size   int64
	header []byte
	option Option
	closed bool
}

func Open(option Option) (*Journal, error) {
	if err := os.MkdirAll(option.Dir, 0777); err != nil {
		return nil, err
	}

	filename := filepath.Join(option.Dir, fileName)
	fd, err := os.OpenFile(
		filename,
		os.O_CREATE|os.O_RDWR|os.O_APPEND,
		fileModePerm,
	)
	if err != nil {
		return nil, err
	}

	offset, err := fd.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek file %s end failed: %w", filename, err)
	}

	return &Journal{
		fd:     fd,
		size:   offset,
		header: make([]byte, recordHeaderSize),
		option: option,
	}, nil
}

// Append 写入一条记录, 返回记录的起始偏移量
func (j *Journal) Append(data []byte) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return 0, ErrClosed
	}

	offset := j.size
	binary.BigEndian.PutUint32(j.header[4:8], uint32(len(data)))
	checksum := crc32.ChecksumIEEE(j.header[4:8])
	checksum = crc32.Update(checksum, crc32.IEEETable, data)
	binary.BigEndian.PutUint32(j.header[:4], checksum)

	buf := make([]byte, 0, recordHeaderSize+len(data))
	buf = append(buf, j.header...)
	buf = append(buf, data...)

	logrus.Debugf("append %d bytes at offset %d", len(data), offset)
	if _, err := j.fd.Write(buf); err != nil {
		// 半条记录会让后续全部不可读, 截断回滚
		if err1 := j.truncate(offset); err1 != nil {
			return 0, err1
		}
		return 0, err
	}
	j.size += int64(len(buf))

	if j.option.Sync {
		if err := j.fd.Sync(); err != nil {
			logrus.Debugf("sync failed, truncate to %d", offset)
			if err1 := j.truncate(offset); err1 != nil {
				return 0, err1
			}
			return 0, err
		}
	}

	return offset, nil
}

func (j *Journal) truncate(offset int64) error {
	if err := j.fd.Truncate(offset); err != nil {
		return err
	}
	if _, err := j.fd.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	j.size = offset
	return nil
}

func (j *Journal) Size() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.size
}

func (j *Journal) Empty() bool {
	return j.Size() == 0
}

func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	return j.fd.Sync()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	if err := j.fd.Sync(); err != nil {
		return err
	}
	j.closed = true
	return j.fd.Close()
}

// Delete 关闭并删除日志文件
func (j *Journal) Delete() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.closed {
		j.closed = true
		if err := j.fd.Close(); err != nil {
			return err
		}
	}
	return os.Remove(j.fd.Name())
}

type Reader struct {
	j      *Journal
	offset int64
}

func (j *Journal) NewReader() *Reader {
	return &Reader{j: j}
}

// Next 返回下一条记录的 payload, 读到末尾返回 io.EOF
// 尾部的半条记录(写入中途崩溃)返回 io.ErrUnexpectedEOF
func (r *Reader) Next() ([]byte, error) {
	j := r.j
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil, ErrClosed
	}
	if r.offset >= j.size {
		return nil, io.EOF
	}
	if r.offset+recordHeaderSize > j.size {
		return nil, io.ErrUnexpectedEOF
	}

	header := make([]byte, recordHeaderSize)
	if _, err := j.fd.ReadAt(header, r.offset); err != nil {
		return nil, err
	}
	savedChecksum := binary.BigEndian.Uint32(header[:4])
	length := binary.BigEndian.Uint32(header[4:8])

	if r.offset+recordHeaderSize+int64(length) > j.size {
		return nil, io.ErrUnexpectedEOF
	}
	data := make([]byte, length)
	if _, err := j.fd.ReadAt(data, r.offset+recordHeaderSize); err != nil {
		return nil, err
	}

	checksum := crc32.ChecksumIEEE(header[4:8])
	checksum = crc32.Update(checksum, crc32.IEEETable, data)
	logrus.Debugf("record at %d: length=%d, checksum=%x", r.offset, length, savedChecksum)
	if checksum != savedChecksum {
		logrus.Debugf("checksum failed: saved=%x, calculated=%x", savedChecksum, checksum)
		return nil, ErrInvalidCRC
	}

	r.offset += recordHeaderSize + int64(length)
	return data, nil
}
