package service

import (
	"encoding/json"
	"time"

	"cem-license-manager/internal/database"
	"cem-license-manager/internal/model"
)

// LogOperation 记录一条操作日志，details 序列化为JSON存储
func LogOperation(userID uint, action string, target string, targetID string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	entry := &model.OperationLog{
		UserID:    userID,
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Details:   string(detailsJSON),
		CreatedAt: time.Now(),
	}

	return database.DB.Create(entry).Error
}

// GetOperationLogs 获取操作日志分页列表
func GetOperationLogs(page, pageSize int) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	db := database.DB

	if err := db.Model(&model.OperationLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// GetUserOperationLogs 获取指定用户的操作日志
func GetUserOperationLogs(userID uint, page, pageSize int) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	db := database.DB.Model(&model.OperationLog{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
