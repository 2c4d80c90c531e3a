package entitlement

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// StatusKey ключ статуса в локальном хранилище приложения.
const StatusKey = "premiumStatus"

// LocalStore локальное хранилище статуса.
// Load возвращает found=false, если статус ещё ни разу не сохранялся.
type LocalStore interface {
	Load() (status Status, found bool, err error)
	Save(status Status) error
}

// FileStore хранит данные приложения одним JSON-объектом в файле. Статус лежит
// под ключом premiumStatus, остальные ключи (данные бюджета) при записи сохраняются.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создает FileStore поверх файла path. Файл может не существовать.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает статус из файла.
func (f *FileStore) Load() (Status, bool, error) {
	const op = "entitlement.FileStore.Load"
	f.mu.Lock()
	defer f.mu.Unlock()

	blob, err := f.readBlob()
	if err != nil {
		return Status{}, false, fmt.Errorf("%s: %w", op, err)
	}
	raw, ok := blob[StatusKey]
	if !ok || string(raw) == "null" {
		return Status{}, false, nil
	}

	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return Status{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if err := status.Validate(); err != nil {
		return Status{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return status.normalize(), true, nil
}

// Save записывает статус, не трогая остальные ключи. Запись атомарна:
// новый файл пишется рядом и переименовывается поверх старого.
func (f *FileStore) Save(status Status) error {
	const op = "entitlement.FileStore.Save"
	if err := status.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	blob, err := f.readBlob()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	raw, err := json.Marshal(status.normalize())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	blob[StatusKey] = raw

	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := writeAtomic(f.path, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (f *FileStore) readBlob() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	blob := map[string]json.RawMessage{}
	if len(data) == 0 {
		return blob, nil
	}
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return blob, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
