package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileStore はプロジェクトごとに1つの JSON ファイルへ保存する Repository 実装です。
// プロセス内はミューテックスで、プロセス間は flock によるアドバイザリロックで書き込みを直列化します。
type FileStore struct {
	repository
	dir string
	mu  sync.Mutex
}

// NewFileStore は dir 配下に保存する FileStore を生成します。
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("保存先ディレクトリは必須です")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}
	fs := &FileStore{dir: dir}
	fs.repository = repository{b: fs, now: time.Now}
	return fs, nil
}

// Path はプロジェクトファイルのパスを返します。
func (fs *FileStore) Path(projectID string) (string, error) {
	if !projectIDPattern.MatchString(projectID) || projectID == "." || projectID == ".." {
		return "", fmt.Errorf("invalid project id %q", projectID)
	}
	return filepath.Join(fs.dir, projectID+".json"), nil
}

func (fs *FileStore) view(ctx context.Context, projectID string, fn func(*Project) error) error {
	return fs.withLock(ctx, projectID, func(path string) error {
		p, err := fs.load(path, projectID)
		if err != nil {
			return err
		}
		return fn(p)
	})
}

func (fs *FileStore) mutate(ctx context.Context, projectID string, fn func(*Project) error) error {
	return fs.withLock(ctx, projectID, func(path string) error {
		p, err := fs.load(path, projectID)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		return fs.save(path, p)
	})
}

func (fs *FileStore) withLock(ctx context.Context, projectID string, fn func(path string) error) error {
	path, err := fs.Path(projectID)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("project %s is locked by another process", projectID)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("プロジェクトロックの解放に失敗しました", "project_id", projectID, "error", err)
		}
	}()

	return fn(path)
}

func (fs *FileStore) load(path, projectID string) (*Project, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return newProject(projectID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトファイルの読み込みに失敗しました: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("プロジェクトファイルの解析に失敗しました (%s): %w", path, err)
	}
	p.ID = projectID
	return &p, nil
}

// save は一時ファイルに書き出してからリネームします。
func (fs *FileStore) save(path string, p *Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("プロジェクトのシリアライズに失敗しました: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("プロジェクトファイルの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("プロジェクトファイルの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("プロジェクトファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}

var _ Repository = (*FileStore)(nil)
