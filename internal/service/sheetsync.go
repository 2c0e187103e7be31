package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"cem-license-manager/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"gorm.io/gorm"
)

// SheetSyncService 把许可证记录镜像到 Google Sheet，作为人工可读的台账。
// 未开启同步时所有方法都是空操作
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetSyncService(enableSync bool, credentialPath, spreadsheetID, sheetName string) (*SheetSyncService, error) {
	if !enableSync {
		return nil, nil
	}

	ctx := context.Background()

	// 读取服务账号凭证
	b, err := os.ReadFile(credentialPath)
	if err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("无法加载凭证: %v", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	return &SheetSyncService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// 表格列布局：A:密钥 B:姓名 C:公司 D:邮箱 E:生效日 F:到期日 G:并发数 H:状态 I:创建 J:更新
func licenseRow(rec *model.License) []interface{} {
	return []interface{}{
		rec.LicenseKey,
		rec.Name,
		rec.Company,
		rec.Email,
		rec.StartDate,
		rec.ExpiryDate,
		rec.MaxUsers,
		rec.Status,
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	}
}

// SyncLicense 同步单条许可证：密钥已存在则更新对应行，否则追加新行
func (s *SheetSyncService) SyncLicense(rec *model.License) error {
	if s == nil {
		return nil
	}

	// 在密钥列里找这条记录
	rangeToSearch := fmt.Sprintf("%s!A2:A", s.sheetName)
	keyResp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rangeToSearch).Do()
	if err != nil {
		log.Printf("查询Sheet数据失败: %v", err)
		return fmt.Errorf("查询Sheet数据失败: %v", err)
	}

	var rowIndex int
	found := false
	for i, row := range keyResp.Values {
		if len(row) > 0 && row[0] == rec.LicenseKey {
			found = true
			rowIndex = i + 2 // +2因为A2开始且数组从0开始
			break
		}
	}

	values := [][]interface{}{licenseRow(rec)}

	if found {
		rangeData := fmt.Sprintf("%s!A%d:J%d", s.sheetName, rowIndex, rowIndex)
		_, err = s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			rangeData,
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			s.sheetName+"!A2:J",
			&sheets.ValueRange{Values: values},
		).ValueInputOption("USER_ENTERED").Do()
	}

	if err != nil {
		log.Printf("同步到Google Sheet失败: %v", err)
		return fmt.Errorf("同步到Google Sheet失败: %v", err)
	}

	return nil
}

// BatchSyncLicenses 批量追加许可证记录到表格
func (s *SheetSyncService) BatchSyncLicenses(records []*model.License) error {
	if s == nil {
		return nil
	}

	var values [][]interface{}
	for _, rec := range records {
		values = append(values, licenseRow(rec))
	}

	_, err := s.service.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.sheetName+"!A2:J",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Do()

	if err != nil {
		log.Printf("批量同步许可证失败: %v", err)
		return err
	}

	return nil
}

// SyncFromSheet 从Google Sheet读取数据并完全覆盖本地许可证表
func (s *SheetSyncService) SyncFromSheet(db *gorm.DB) error {
	if s == nil {
		return nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:J").Do()
	if err != nil {
		return fmt.Errorf("读取工作表失败: %v", err)
	}

	// 使用事务确保数据一致性
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.License{}).Error; err != nil {
			return fmt.Errorf("清空许可证表失败: %v", err)
		}

		var records []*model.License
		for i, row := range resp.Values {
			if len(row) < 10 {
				log.Printf("第%d行数据不完整，跳过", i+2)
				continue
			}

			maxUsers, err := strconv.Atoi(fmt.Sprint(row[6]))
			if err != nil || maxUsers < 1 {
				maxUsers = 1
			}

			rec := &model.License{
				LicenseKey: fmt.Sprint(row[0]),
				Name:       fmt.Sprint(row[1]),
				Company:    fmt.Sprint(row[2]),
				Email:      fmt.Sprint(row[3]),
				StartDate:  fmt.Sprint(row[4]),
				ExpiryDate: fmt.Sprint(row[5]),
				MaxUsers:   maxUsers,
				Status:     fmt.Sprint(row[7]),
			}

			createdAt, err := time.Parse(time.RFC3339, fmt.Sprint(row[8]))
			if err != nil {
				log.Printf("解析创建时间失败(行%d): %v", i+2, err)
				continue
			}
			rec.CreatedAt = createdAt

			updatedAt, err := time.Parse(time.RFC3339, fmt.Sprint(row[9]))
			if err != nil {
				log.Printf("解析更新时间失败(行%d): %v", i+2, err)
				continue
			}
			rec.UpdatedAt = updatedAt

			records = append(records, rec)
		}

		if err := tx.CreateInBatches(records, 100).Error; err != nil {
			return fmt.Errorf("批量插入数据失败: %v", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	log.Printf("成功从Google Sheet同步%d条数据到数据库(完全覆盖)", len(resp.Values))
	return nil
}
