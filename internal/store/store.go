package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cem-license-manager/internal/model"

	"gorm.io/gorm"
)

// 存储层错误分类。唯一键冲突单独区分，调用方据此换一个密钥重试
var (
	ErrDuplicateKey = errors.New("license key already exists")
	ErrStoreClosed  = errors.New("storage unavailable")
	ErrNotFound     = errors.New("license not found")
)

// LicenseStore 许可证持久化存储。写操作按实例串行，
// 读操作彼此并发但不会看到写到一半的状态
type LicenseStore struct {
	mu sync.RWMutex
	db *gorm.DB
}

func New(db *gorm.DB) *LicenseStore {
	return &LicenseStore{db: db}
}

// Close 放弃数据库句柄，之后所有操作返回 ErrStoreClosed
func (s *LicenseStore) Close() {
	s.mu.Lock()
	s.db = nil
	s.mu.Unlock()
}

// Create 插入一条新记录并回填ID。license_key 冲突返回 ErrDuplicateKey
func (s *LicenseStore) Create(rec *model.License) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return ErrStoreClosed
	}

	if rec.MaxUsers < 1 {
		rec.MaxUsers = 1
	}
	if rec.Status == "" {
		rec.Status = "active"
	}

	if err := s.db.Create(rec).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.LicenseKey)
		}
		return err
	}
	return nil
}

// Get 按ID查询，未找到返回 ErrNotFound
func (s *LicenseStore) Get(id uint) (*model.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrStoreClosed
	}

	var rec model.License
	err := s.db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByKey 按许可证密钥查询，未找到返回 ErrNotFound
func (s *LicenseStore) GetByKey(licenseKey string) (*model.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrStoreClosed
	}

	var rec model.License
	err := s.db.Where("license_key = ?", licenseKey).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List 返回全部记录，新建的在前
func (s *LicenseStore) List() ([]model.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrStoreClosed
	}

	var records []model.License
	err := s.db.Order("created_at DESC, id DESC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Search 在姓名、公司、邮箱、许可证密钥四个字段上做不区分大小写的子串匹配
func (s *LicenseStore) Search(term string) ([]model.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrStoreClosed
	}

	pattern := "%" + term + "%"
	var records []model.License
	err := s.db.
		Where("name LIKE ? OR company LIKE ? OR email LIKE ? OR license_key LIKE ?",
			pattern, pattern, pattern, pattern).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Update 按字段出现与否做部分更新，返回受影响行数。
// 没有任何待更新字段时不触碰该行，ID不存在时返回0而不是报错
func (s *LicenseStore) Update(id uint, upd *model.LicenseUpdate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, ErrStoreClosed
	}

	values := upd.Columns()
	if len(values) == 0 {
		return 0, nil
	}
	values["updated_at"] = time.Now()

	result := s.db.Model(&model.License{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return 0, ErrDuplicateKey
		}
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete 删除记录，返回受影响行数
func (s *LicenseStore) Delete(id uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, ErrStoreClosed
	}

	result := s.db.Delete(&model.License{}, id)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
