package records

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/palemoky/parallel-boggle/internal/network/server/storage"
)

var (
	// ErrNoSnapshot 尚未保存过记录
	ErrNoSnapshot = errors.New("no saved records")
	// ErrNoRepository 未配置持久化
	ErrNoRepository = errors.New("records persistence not configured")
)

// Repository 记录快照的持久化后端
type Repository interface {
	Save(ctx context.Context, blob []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// FileRepository 写入固定文件路径
type FileRepository struct {
	path string
}

// NewFileRepository 创建文件后端
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Path 文件路径
func (f *FileRepository) Path() string {
	return f.path
}

// Save 先写临时文件再重命名，避免写一半的快照
func (f *FileRepository) Save(_ context.Context, blob []byte) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Load 读取快照文件
func (f *FileRepository) Load(_ context.Context) ([]byte, error) {
	blob, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", f.path, ErrNoSnapshot)
	}
	return blob, err
}

// RedisRepository 写入 Redis
type RedisRepository struct {
	store *storage.RedisStore
}

// NewRedisRepository 创建 Redis 后端
func NewRedisRepository(store *storage.RedisStore) *RedisRepository {
	return &RedisRepository{store: store}
}

// Save 保存快照
func (r *RedisRepository) Save(ctx context.Context, blob []byte) error {
	return r.store.SaveRecords(ctx, blob)
}

// Load 读取快照
func (r *RedisRepository) Load(ctx context.Context) ([]byte, error) {
	blob, err := r.store.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, ErrNoSnapshot
	}
	return blob, nil
}
